package subscriber

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/CLillis357/VigilantIE/internal/domain"
	"github.com/CLillis357/VigilantIE/pkg/e"
)

const testTopic = "vigilant/users/+/position"

type fakeUpdater struct {
	calls  int
	userID string
	coord  domain.Coordinate
	err    error
}

func (f *fakeUpdater) UpdatePosition(_ context.Context, userID string, coord domain.Coordinate) (domain.PositionUpdateResponse, error) {
	f.calls++
	f.userID = userID
	f.coord = coord
	return domain.PositionUpdateResponse{ShouldAlert: true, Count: 1, Fired: true}, f.err
}

type fakeMQTTMessage struct {
	topic   string
	payload []byte
}

func (f *fakeMQTTMessage) Duplicate() bool   { return false }
func (f *fakeMQTTMessage) Qos() byte         { return 1 }
func (f *fakeMQTTMessage) Retained() bool    { return false }
func (f *fakeMQTTMessage) Topic() string     { return f.topic }
func (f *fakeMQTTMessage) MessageID() uint16 { return 0 }
func (f *fakeMQTTMessage) Payload() []byte   { return f.payload }
func (f *fakeMQTTMessage) Ack()              {}

func newTestSubscriber(u *fakeUpdater) *PositionSubscriber {
	return &PositionSubscriber{
		topic:   testTopic,
		alerts:  u,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		baseCtx: context.Background(),
	}
}

func TestHandleMessage_Success(t *testing.T) {
	u := &fakeUpdater{}
	sub := newTestSubscriber(u)

	sub.handleMessage(nil, &fakeMQTTMessage{
		topic:   "vigilant/users/user-42/position",
		payload: []byte(`{"lat":53.2839,"lng":-6.1336}`),
	})

	if u.calls != 1 {
		t.Fatalf("expected UpdatePosition once, got %d", u.calls)
	}
	if u.userID != "user-42" {
		t.Errorf("expected user-42, got %q", u.userID)
	}
	if u.coord != (domain.Coordinate{Latitude: 53.2839, Longitude: -6.1336}) {
		t.Errorf("unexpected coordinate %+v", u.coord)
	}
}

func TestHandleMessage_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
	}{
		{name: "bad json", topic: "vigilant/users/u1/position", payload: `{lat`},
		{name: "missing lng", topic: "vigilant/users/u1/position", payload: `{"lat":1}`},
		{name: "lat out of range", topic: "vigilant/users/u1/position", payload: `{"lat":-91,"lng":1}`},
		{name: "wrong topic", topic: "vigilant/devices/u1/position", payload: `{"lat":1,"lng":1}`},
		{name: "extra level", topic: "vigilant/users/u1/position/x", payload: `{"lat":1,"lng":1}`},
		{name: "empty user", topic: "vigilant/users//position", payload: `{"lat":1,"lng":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &fakeUpdater{}
			newTestSubscriber(u).handleMessage(nil, &fakeMQTTMessage{topic: tt.topic, payload: []byte(tt.payload)})
			if u.calls != 0 {
				t.Fatalf("expected no UpdatePosition call, got %d", u.calls)
			}
		})
	}
}

func TestHandleMessage_ServiceErrorIsSwallowed(t *testing.T) {
	u := &fakeUpdater{err: errors.New("redis down")}

	newTestSubscriber(u).handleMessage(nil, &fakeMQTTMessage{
		topic:   "vigilant/users/u1/position",
		payload: []byte(`{"lat":1,"lng":1}`),
	})

	if u.calls != 1 {
		t.Fatalf("expected one call, got %d", u.calls)
	}
}

func TestParsePosition_Errors(t *testing.T) {
	if _, _, err := parsePosition(testTopic, "vigilant/users/u1/position", []byte(`{"lat":100,"lng":0}`)); !errors.Is(err, e.ErrInvalidCoordinates) {
		t.Fatalf("expected ErrInvalidCoordinates, got %v", err)
	}
	if _, _, err := parsePosition(testTopic, "other/u1", []byte(`{"lat":1,"lng":0}`)); !errors.Is(err, e.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
