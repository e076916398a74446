package domain

import (
	"time"

	"github.com/google/uuid"
)

type Report struct {
	ID        uuid.UUID  `json:"id"`
	Type      CrimeType  `json:"type"`
	Location  Coordinate `json:"location"`
	CreatedAt time.Time  `json:"created_at"`
	OwnerID   string     `json:"owner_id,omitempty"` // empty when the submitter is unknown
}

// DeletableBy reports whether viewerID may remove the report.
// Ownerless reports can be removed by anyone.
func (r Report) DeletableBy(viewerID string) bool {
	return r.OwnerID == "" || r.OwnerID == viewerID
}

type CreateReportRequest struct {
	Type CrimeType `json:"type" validate:"required,crime_type"`
	Lat  *float64  `json:"lat" validate:"required,lat"`
	Lng  *float64  `json:"lng" validate:"required,lng"`
}

func (r CreateReportRequest) Coordinate() Coordinate {
	var c Coordinate
	if r.Lat != nil {
		c.Latitude = *r.Lat
	}
	if r.Lng != nil {
		c.Longitude = *r.Lng
	}
	return c
}

// ReportView is a report as rendered for one viewer.
type ReportView struct {
	Report
	Emoji     string `json:"emoji"`
	Deletable bool   `json:"deletable"`
}

func NewReportView(r Report, viewerID string) ReportView {
	return ReportView{
		Report:    r,
		Emoji:     r.Type.Emoji(),
		Deletable: r.DeletableBy(viewerID),
	}
}
