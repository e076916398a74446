// Package filter decides which reports are visible for a set of filter criteria.
//
// Every predicate is independent of the others, so Apply gives the same result
// for any ordering of the predicate slice.
package filter

import (
	"fmt"
	"time"

	"github.com/CLillis357/VigilantIE/internal/domain"
	"github.com/CLillis357/VigilantIE/internal/geo"
	"github.com/CLillis357/VigilantIE/pkg/e"
)

type Predicate func(r domain.Report) bool

// VisibleReports returns the subset of reports that pass every predicate built from
// criteria, in their original order. pos may be nil when the viewer's location is
// unknown; viewerID is empty for anonymous viewers. Reports are never mutated.
func VisibleReports(
	reports []domain.Report,
	criteria domain.FilterCriteria,
	pos *domain.UserPosition,
	viewerID string,
	now time.Time,
) ([]domain.Report, error) {
	criteria = criteria.Normalize()
	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	if criteria.Location != nil {
		now = now.In(criteria.Location)
	}
	if err := validateCoordinates(reports, pos); err != nil {
		return nil, err
	}
	return Apply(reports, Predicates(criteria, pos, viewerID, now)...), nil
}

// Predicates builds the four filter predicates in their canonical order.
func Predicates(criteria domain.FilterCriteria, pos *domain.UserPosition, viewerID string, now time.Time) []Predicate {
	return []Predicate{
		ByType(criteria.Type),
		ByTimeWindow(criteria.TimeWindow, now),
		ByRadius(pos, criteria.Radius),
		ByFeedScope(criteria.FeedScope, viewerID),
	}
}

// Apply keeps the reports that satisfy all preds, preserving order.
func Apply(reports []domain.Report, preds ...Predicate) []domain.Report {
	out := make([]domain.Report, 0, len(reports))
	for _, r := range reports {
		if matchAll(r, preds) {
			out = append(out, r)
		}
	}
	return out
}

func matchAll(r domain.Report, preds []Predicate) bool {
	for _, p := range preds {
		if !p(r) {
			return false
		}
	}
	return true
}

func ByType(t domain.CrimeType) Predicate {
	return func(r domain.Report) bool {
		return t == domain.CrimeAll || r.Type == t
	}
}

func ByTimeWindow(w domain.TimeWindow, now time.Time) Predicate {
	return func(r domain.Report) bool {
		switch w {
		case domain.WindowLastHour:
			return now.Sub(r.CreatedAt) <= time.Hour
		case domain.WindowToday:
			return sameDate(r.CreatedAt.In(now.Location()), now)
		case domain.WindowThisWeek:
			return !r.CreatedAt.Before(now.Add(-7 * 24 * time.Hour))
		default:
			return true
		}
	}
}

// ByRadius passes everything when pos is nil or radius is unbounded.
func ByRadius(pos *domain.UserPosition, radius domain.Radius) Predicate {
	return func(r domain.Report) bool {
		if pos == nil || !radius.Bounded() {
			return true
		}
		return geo.DistanceKm(pos.Coordinate, r.Location) <= radius.Km()
	}
}

func ByFeedScope(scope domain.FeedScope, viewerID string) Predicate {
	return func(r domain.Report) bool {
		if scope != domain.ScopeMine {
			return true
		}
		return r.OwnerID == "" || r.OwnerID == viewerID
	}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func validateCoordinates(reports []domain.Report, pos *domain.UserPosition) error {
	if pos != nil {
		if err := pos.Coordinate.Validate(); err != nil {
			return fmt.Errorf("position: %w", err)
		}
	}
	for _, r := range reports {
		if err := r.Location.Validate(); err != nil {
			return fmt.Errorf("report %s: %w: %v", r.ID, e.ErrCorruptReport, err)
		}
	}
	return nil
}
