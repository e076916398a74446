package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/CLillis357/VigilantIE/pkg/e"
)

type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v must be between -90 and 90", e.ErrInvalidCoordinates, c.Latitude)
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v must be between -180 and 180", e.ErrInvalidCoordinates, c.Longitude)
	}
	return nil
}

type UserPosition struct {
	Coordinate Coordinate `json:"coordinate"`
	CapturedAt time.Time  `json:"captured_at"`
}

type PositionUpdateRequest struct {
	Lat *float64 `json:"lat" validate:"required,lat"`
	Lng *float64 `json:"lng" validate:"required,lng"`
}

func (r PositionUpdateRequest) Coordinate() Coordinate {
	return Coordinate{Latitude: *r.Lat, Longitude: *r.Lng}
}
