package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/CLillis357/VigilantIE/pkg/e"
)

// nativeTimestamp is the {seconds, nanoseconds} object the legacy document store emits.
type nativeTimestamp struct {
	Seconds     *int64 `json:"seconds"`
	Nanoseconds int64  `json:"nanoseconds"`
	// some exports use the underscored field names
	USeconds     *int64 `json:"_seconds"`
	UNanoseconds int64  `json:"_nanoseconds"`
}

// ParseCreatedAt normalises a legacy createdAt value to UTC. Accepted shapes:
// an RFC 3339 string, a number of unix milliseconds, or a native timestamp object.
func ParseCreatedAt(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, fmt.Errorf("%w: createdAt is missing", e.ErrInvalidInput)
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, fmt.Errorf("%w: createdAt: %v", e.ErrInvalidInput, err)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: createdAt: %v", e.ErrInvalidInput, err)
		}
		return t.UTC(), nil
	case '{':
		var ts nativeTimestamp
		if err := json.Unmarshal(raw, &ts); err != nil {
			return time.Time{}, fmt.Errorf("%w: createdAt: %v", e.ErrInvalidInput, err)
		}
		switch {
		case ts.Seconds != nil:
			return time.Unix(*ts.Seconds, ts.Nanoseconds).UTC(), nil
		case ts.USeconds != nil:
			return time.Unix(*ts.USeconds, ts.UNanoseconds).UTC(), nil
		}
		return time.Time{}, fmt.Errorf("%w: createdAt object has no seconds", e.ErrInvalidInput)
	default:
		var ms int64
		if err := json.Unmarshal(raw, &ms); err != nil {
			return time.Time{}, fmt.Errorf("%w: createdAt: %v", e.ErrInvalidInput, err)
		}
		return time.UnixMilli(ms).UTC(), nil
	}
}
