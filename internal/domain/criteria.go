package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/CLillis357/VigilantIE/pkg/e"
)

type TimeWindow string

const (
	WindowAllTime  TimeWindow = "All Time"
	WindowLastHour TimeWindow = "Last Hour"
	WindowToday    TimeWindow = "Today"
	WindowThisWeek TimeWindow = "This Week"
)

// ParseTimeWindow accepts the display names and their short query forms.
func ParseTimeWindow(s string) (TimeWindow, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "all time", "all_time":
		return WindowAllTime, nil
	case "hour", "last hour", "last_hour":
		return WindowLastHour, nil
	case "today":
		return WindowToday, nil
	case "week", "this week", "this_week":
		return WindowThisWeek, nil
	}
	return "", fmt.Errorf("%w: unknown time window %q", e.ErrInvalidInput, s)
}

type FeedScope string

const (
	ScopePublic FeedScope = "public"
	ScopeMine   FeedScope = "mine"
)

func ParseFeedScope(s string) (FeedScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "public":
		return ScopePublic, nil
	case "mine":
		return ScopeMine, nil
	}
	return "", fmt.Errorf("%w: unknown feed scope %q", e.ErrInvalidInput, s)
}

// Radius is a filter distance in kilometres. The zero value is unbounded.
type Radius float64

const RadiusUnbounded Radius = 0

// RadiusOptions are the choices offered by the map's radius menu.
var RadiusOptions = []Radius{1, 5, 10, 25}

const DefaultRadius Radius = 5

// MaxRadiusKm caps a bounded radius filter.
const MaxRadiusKm = 100.0

func (r Radius) Bounded() bool { return r > 0 }

func (r Radius) Km() float64 { return float64(r) }

func ParseRadius(s string) (Radius, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "unbounded":
		return RadiusUnbounded, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: radius must be a positive number of km or \"unbounded\"", e.ErrInvalidInput)
	}
	if v > MaxRadiusKm {
		return 0, fmt.Errorf("%w: radius must be at most %g km", e.ErrInvalidInput, MaxRadiusKm)
	}
	return Radius(v), nil
}

func (r Radius) MarshalJSON() ([]byte, error) {
	if !r.Bounded() {
		return []byte(`"unbounded"`), nil
	}
	return json.Marshal(float64(r))
}

func (r *Radius) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := ParseRadius(s)
		if err != nil {
			return err
		}
		*r = v
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("%w: radius", e.ErrInvalidInput)
	}
	if f < 0 {
		return fmt.Errorf("%w: radius must not be negative", e.ErrInvalidInput)
	}
	if f > MaxRadiusKm {
		return fmt.Errorf("%w: radius must be at most %g km", e.ErrInvalidInput, MaxRadiusKm)
	}
	*r = Radius(f)
	return nil
}

type FilterCriteria struct {
	Type       CrimeType  `json:"type"`
	TimeWindow TimeWindow `json:"time_window"`
	Radius     Radius     `json:"radius_km" validate:"omitempty,radius_km"`
	FeedScope  FeedScope  `json:"feed_scope"`

	// Location sets the calendar day for the Today window; nil means server-local.
	Location *time.Location `json:"-" validate:"-"`
}

// DefaultCriteria shows everything.
func DefaultCriteria() FilterCriteria {
	return FilterCriteria{
		Type:       CrimeAll,
		TimeWindow: WindowAllTime,
		Radius:     RadiusUnbounded,
		FeedScope:  ScopePublic,
	}
}

// Normalize fills empty fields with the show-everything defaults.
func (c FilterCriteria) Normalize() FilterCriteria {
	if c.Type == "" {
		c.Type = CrimeAll
	}
	if c.TimeWindow == "" {
		c.TimeWindow = WindowAllTime
	}
	if c.FeedScope == "" {
		c.FeedScope = ScopePublic
	}
	return c
}

func (c FilterCriteria) Validate() error {
	if c.Type != CrimeAll && !c.Type.Valid() {
		return fmt.Errorf("%w: %q", e.ErrInvalidCrimeType, c.Type)
	}
	switch c.TimeWindow {
	case WindowAllTime, WindowLastHour, WindowToday, WindowThisWeek:
	default:
		return fmt.Errorf("%w: unknown time window %q", e.ErrInvalidInput, c.TimeWindow)
	}
	switch c.FeedScope {
	case ScopePublic, ScopeMine:
	default:
		return fmt.Errorf("%w: unknown feed scope %q", e.ErrInvalidInput, c.FeedScope)
	}
	if c.Radius < 0 {
		return fmt.Errorf("%w: radius must not be negative", e.ErrInvalidInput)
	}
	if c.Radius.Km() > MaxRadiusKm {
		return fmt.Errorf("%w: radius must be at most %g km", e.ErrInvalidInput, MaxRadiusKm)
	}
	return nil
}
