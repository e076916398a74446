// Package alert evaluates proximity to reports and decides when a user should be told.
package alert

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CLillis357/VigilantIE/internal/domain"
	"github.com/CLillis357/VigilantIE/internal/geo"
	"github.com/CLillis357/VigilantIE/pkg/e"
)

// Evaluate counts the reports within thresholdKm of pos. A non-positive
// threshold means domain.DefaultAlertThresholdKm.
func Evaluate(reports []domain.Report, pos domain.UserPosition, thresholdKm float64) (domain.AlertDecision, error) {
	if !(thresholdKm > 0) {
		thresholdKm = domain.DefaultAlertThresholdKm
	}
	if err := pos.Coordinate.Validate(); err != nil {
		return domain.AlertDecision{}, fmt.Errorf("position: %w", err)
	}

	var nearby []uuid.UUID
	for _, r := range reports {
		if err := r.Location.Validate(); err != nil {
			return domain.AlertDecision{}, fmt.Errorf("report %s: %w: %v", r.ID, e.ErrCorruptReport, err)
		}
		if geo.DistanceKm(pos.Coordinate, r.Location) <= thresholdKm {
			nearby = append(nearby, r.ID)
		}
	}

	return domain.AlertDecision{
		ShouldAlert: len(nearby) > 0,
		Count:       len(nearby),
		ReportIDs:   nearby,
	}, nil
}

// Versions identifies the inputs of one recomputation.
type Versions struct {
	Reports  int64 `json:"reports"`
	Position int64 `json:"position"`
}

// State is the edge-trigger memory a caller keeps per user between recomputations.
type State struct {
	Active   bool     `json:"active"`
	Seen     bool     `json:"seen"`
	Versions Versions `json:"versions"`
}

// Step advances the trigger. It fires only when the nearby condition turns true on a
// recomputation whose inputs differ from the previous one.
func Step(prev State, d domain.AlertDecision, v Versions) (State, bool) {
	if prev.Seen && prev.Versions == v {
		return prev, false
	}
	next := State{Active: d.ShouldAlert, Seen: true, Versions: v}
	return next, d.ShouldAlert && !prev.Active
}

func NewEvent(userID string, pos domain.UserPosition, d domain.AlertDecision, now time.Time) domain.AlertEvent {
	return domain.AlertEvent{
		ID:        uuid.New(),
		UserID:    userID,
		Count:     d.Count,
		ReportIDs: d.ReportIDs,
		Lat:       pos.Coordinate.Latitude,
		Lng:       pos.Coordinate.Longitude,
		FiredAt:   now.UTC(),
	}
}
