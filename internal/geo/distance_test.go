package geo

import (
	"math"
	"testing"

	"github.com/CLillis357/VigilantIE/internal/domain"
)

func c(lat, lng float64) domain.Coordinate {
	return domain.Coordinate{Latitude: lat, Longitude: lng}
}

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name      string
		a, b      domain.Coordinate
		want      float64
		tolerance float64
	}{
		{name: "same point", a: c(53.28, -9.04), b: c(53.28, -9.04), want: 0, tolerance: 0},
		{name: "0.004 deg north in galway", a: c(53.2800, -9.0400), b: c(53.2840, -9.0400), want: 0.4448, tolerance: 0.001},
		{name: "0.05 deg north in galway", a: c(53.2800, -9.0400), b: c(53.3300, -9.0400), want: 5.5597, tolerance: 0.001},
		{name: "galway to dublin", a: c(53.2707, -9.0568), b: c(53.3498, -6.2603), want: 185.99, tolerance: 0.05},
		{name: "london to paris", a: c(51.5074, -0.1278), b: c(48.8566, 2.3522), want: 343.56, tolerance: 0.05},
		{name: "one degree on the equator", a: c(0, 0), b: c(0, 1), want: 111.195, tolerance: 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Fatalf("DistanceKm() = %.4f, want %.4f ± %.4f", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	points := []domain.Coordinate{
		c(53.28, -9.04), c(-33.86, 151.21), c(40.71, -74.0), c(0, 0), c(89.9, 179.9), c(-89.9, -179.9),
	}
	for _, a := range points {
		for _, b := range points {
			if ab, ba := DistanceKm(a, b), DistanceKm(b, a); ab != ba {
				t.Fatalf("DistanceKm(%v,%v)=%v but DistanceKm(%v,%v)=%v", a, b, ab, b, a, ba)
			}
		}
	}
}

func TestDistanceKm_Identity(t *testing.T) {
	for _, p := range []domain.Coordinate{c(53.28, -9.04), c(-90, 180), c(90, -180), c(0, 0)} {
		if d := DistanceKm(p, p); d != 0 {
			t.Fatalf("DistanceKm(%v,%v) = %v, want 0", p, p, d)
		}
	}
}

func TestDistanceKm_NaNPropagates(t *testing.T) {
	if d := DistanceKm(c(math.NaN(), 0), c(0, 0)); !math.IsNaN(d) {
		t.Fatalf("expected NaN, got %v", d)
	}
}
