package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultAlertThresholdKm is the proximity alert distance.
const DefaultAlertThresholdKm = 0.5

type AlertDecision struct {
	ShouldAlert bool        `json:"should_alert"`
	Count       int         `json:"count"`
	ReportIDs   []uuid.UUID `json:"report_ids,omitempty"`
}

// AlertEvent is the fire-once notification payload.
type AlertEvent struct {
	ID        uuid.UUID   `json:"id"`
	UserID    string      `json:"user_id"`
	Count     int         `json:"count"`
	ReportIDs []uuid.UUID `json:"report_ids"`
	Lat       float64     `json:"lat"`
	Lng       float64     `json:"lng"`
	FiredAt   time.Time   `json:"fired_at"`
}

type PositionUpdateResponse struct {
	ShouldAlert bool `json:"should_alert"`
	Count       int  `json:"count"`
	Fired       bool `json:"fired"`
}

type AlertStats struct {
	UserCount  int64 `json:"user_count"`
	AlertCount int64 `json:"alert_count"`
	Minutes    int   `json:"minutes"`
}

type StatsRequest struct {
	Minutes int `query:"minutes" validate:"min=1,max=1440"`
}
