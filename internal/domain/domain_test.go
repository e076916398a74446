package domain_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/CLillis357/VigilantIE/internal/domain"
	"github.com/CLillis357/VigilantIE/pkg/e"
)

func TestReport_DeletableBy(t *testing.T) {
	owned := domain.Report{OwnerID: "u1"}
	if owned.DeletableBy("u2") {
		t.Fatalf("report owned by u1 must not be deletable by u2")
	}
	if !owned.DeletableBy("u1") {
		t.Fatalf("owner must be able to delete")
	}
	if owned.DeletableBy("") {
		t.Fatalf("anonymous viewer must not delete an owned report")
	}

	ownerless := domain.Report{}
	for _, viewer := range []string{"u1", "u2", ""} {
		if !ownerless.DeletableBy(viewer) {
			t.Fatalf("ownerless report must be deletable by %q", viewer)
		}
	}
}

func TestCoordinate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       domain.Coordinate
		wantErr bool
	}{
		{name: "galway", c: domain.Coordinate{Latitude: 53.28, Longitude: -9.04}},
		{name: "bounds", c: domain.Coordinate{Latitude: -90, Longitude: 180}},
		{name: "lat too big", c: domain.Coordinate{Latitude: 90.01}, wantErr: true},
		{name: "lng too small", c: domain.Coordinate{Longitude: -180.01}, wantErr: true},
		{name: "nan", c: domain.Coordinate{Latitude: math.NaN()}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, e.ErrInvalidCoordinates) {
				t.Fatalf("expected ErrInvalidCoordinates, got %v", err)
			}
		})
	}
}

func TestParseRadius(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.Radius
		wantErr bool
	}{
		{in: "", want: domain.RadiusUnbounded},
		{in: "all", want: domain.RadiusUnbounded},
		{in: "Unbounded", want: domain.RadiusUnbounded},
		{in: "5", want: 5},
		{in: "2.5", want: 2.5},
		{in: "100", want: 100},
		{in: "100.5", wantErr: true},
		{in: "0", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "five", wantErr: true},
	}
	for _, tt := range tests {
		got, err := domain.ParseRadius(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseRadius(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err == nil && got != tt.want {
			t.Fatalf("ParseRadius(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRadius_JSON(t *testing.T) {
	b, err := json.Marshal(domain.FilterCriteria{Radius: domain.RadiusUnbounded})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back domain.FilterCriteria
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal %s: %v", b, err)
	}
	if back.Radius.Bounded() {
		t.Fatalf("expected unbounded radius after round trip, got %v", back.Radius)
	}

	var c domain.FilterCriteria
	if err := json.Unmarshal([]byte(`{"radius_km":10}`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Radius != 10 {
		t.Fatalf("expected 10, got %v", c.Radius)
	}

	if err := json.Unmarshal([]byte(`{"radius_km":250}`), &c); !errors.Is(err, e.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput above the cap, got %v", err)
	}
}

func TestParseTimeWindowAndScope(t *testing.T) {
	windows := map[string]domain.TimeWindow{
		"":          domain.WindowAllTime,
		"All Time":  domain.WindowAllTime,
		"hour":      domain.WindowLastHour,
		"Last Hour": domain.WindowLastHour,
		"today":     domain.WindowToday,
		"week":      domain.WindowThisWeek,
		"This Week": domain.WindowThisWeek,
	}
	for in, want := range windows {
		got, err := domain.ParseTimeWindow(in)
		if err != nil || got != want {
			t.Fatalf("ParseTimeWindow(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := domain.ParseTimeWindow("yesterday"); !errors.Is(err, e.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	if s, err := domain.ParseFeedScope("mine"); err != nil || s != domain.ScopeMine {
		t.Fatalf("ParseFeedScope(mine) = %q, %v", s, err)
	}
	if _, err := domain.ParseFeedScope("friends"); !errors.Is(err, e.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFilterCriteria_NormalizeAndValidate(t *testing.T) {
	c := domain.FilterCriteria{}.Normalize()
	if c != domain.DefaultCriteria() {
		t.Fatalf("Normalize() = %+v, want defaults %+v", c, domain.DefaultCriteria())
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	bad := domain.DefaultCriteria()
	bad.Type = "Jaywalking"
	if err := bad.Validate(); !errors.Is(err, e.ErrInvalidCrimeType) {
		t.Fatalf("expected ErrInvalidCrimeType, got %v", err)
	}

	wide := domain.DefaultCriteria()
	wide.Radius = domain.Radius(domain.MaxRadiusKm + 1)
	if err := wide.Validate(); !errors.Is(err, e.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput above the radius cap, got %v", err)
	}
}

func TestCrimeTypes(t *testing.T) {
	types := domain.CrimeTypes()
	if len(types) != 8 {
		t.Fatalf("expected 8 crime types, got %d", len(types))
	}
	for _, ct := range types {
		if !ct.Valid() {
			t.Fatalf("%q should be valid", ct)
		}
		if ct.Emoji() == "⚠️" {
			t.Fatalf("%q should have its own emoji", ct)
		}
	}
	if domain.CrimeAll.Valid() {
		t.Fatalf("All must not be a reportable type")
	}
}

func TestParseCreatedAt(t *testing.T) {
	want := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "rfc3339", raw: `"2025-03-14T15:09:26Z"`},
		{name: "rfc3339 with offset", raw: `"2025-03-14T16:09:26+01:00"`},
		{name: "unix millis", raw: `1741964966000`},
		{name: "native object", raw: `{"seconds":1741964966,"nanoseconds":0}`},
		{name: "native object underscored", raw: `{"_seconds":1741964966,"_nanoseconds":0}`},
		{name: "null", raw: `null`, wantErr: true},
		{name: "garbage string", raw: `"yesterday"`, wantErr: true},
		{name: "object without seconds", raw: `{"foo":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ParseCreatedAt(json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCreatedAt(%s) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !got.Equal(want) {
				t.Fatalf("ParseCreatedAt(%s) = %v, want %v", tt.raw, got, want)
			}
			if got.Location() != time.UTC {
				t.Fatalf("expected UTC, got %v", got.Location())
			}
		})
	}
}
