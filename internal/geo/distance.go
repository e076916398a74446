// Package geo computes great-circle distances between coordinates.
package geo

import (
	"math"

	"github.com/CLillis357/VigilantIE/internal/domain"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the haversine distance between a and b in kilometres.
// Inputs are degrees. NaN inputs yield NaN.
func DistanceKm(a, b domain.Coordinate) float64 {
	dLat := deg2rad(b.Latitude - a.Latitude)
	dLon := deg2rad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(a.Latitude))*math.Cos(deg2rad(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func deg2rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}
