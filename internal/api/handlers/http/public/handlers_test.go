package public_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	geojson "github.com/paulmach/go.geojson"

	"github.com/CLillis357/VigilantIE/internal/api/handlers/http/public"
	mock_public "github.com/CLillis357/VigilantIE/internal/api/handlers/http/public/mocks"
	"github.com/CLillis357/VigilantIE/internal/auth"
	"github.com/CLillis357/VigilantIE/internal/domain"
	"github.com/CLillis357/VigilantIE/internal/middleware"
	"github.com/CLillis357/VigilantIE/pkg/e"
)

type mocks struct {
	reports   *mock_public.MockReports
	positions *mock_public.MockPositions
	stream    *mock_public.MockAlertStream
	tokens    *mock_public.MockTokenValidator
}

func newTestHandler(t *testing.T) (*public.Handler, mocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := mocks{
		reports:   mock_public.NewMockReports(ctrl),
		positions: mock_public.NewMockPositions(ctrl),
		stream:    mock_public.NewMockAlertStream(ctrl),
		tokens:    mock_public.NewMockTokenValidator(ctrl),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return public.NewHandler(logger, m.reports, m.positions, m.stream, m.tokens), m
}

func asViewer(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json response: %v, body=%s", err, rr.Body.String())
	}
	return out
}

func f64(v float64) *float64 { return &v }

func sampleReport(owner string) domain.Report {
	return domain.Report{
		ID:        uuid.New(),
		Type:      domain.CrimeTheft,
		Location:  domain.Coordinate{Latitude: 53.2839, Longitude: -6.1336},
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		OwnerID:   owner,
	}
}

func TestListReports_DefaultsAnonymous(t *testing.T) {
	t.Parallel()
	h, m := newTestHandler(t)

	r1 := sampleReport("someone")
	m.reports.EXPECT().
		Visible(gomock.Any(), domain.DefaultCriteria(), (*domain.UserPosition)(nil), "").
		Return([]domain.Report{r1}, nil)

	rr := httptest.NewRecorder()
	h.ListReports(rr, httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}
	got := decodeJSON[struct {
		Reports []domain.ReportView `json:"reports"`
		Count   int                 `json:"count"`
	}](t, rr)
	if got.Count != 1 || got.Reports[0].ID != r1.ID || got.Reports[0].Deletable {
		t.Fatalf("unexpected response %+v", got)
	}
	if got.Reports[0].Emoji != domain.CrimeTheft.Emoji() {
		t.Fatalf("expected emoji, got %q", got.Reports[0].Emoji)
	}
}

func TestListReports_ExplicitPositionAndFilters(t *testing.T) {
	t.Parallel()
	h, m := newTestHandler(t)

	want := domain.FilterCriteria{
		Type:       domain.CrimeAssault,
		TimeWindow: domain.WindowLastHour,
		Radius:     5,
		FeedScope:  domain.ScopeMine,
	}
	m.reports.EXPECT().
		Visible(gomock.Any(), want, gomock.Any(), "u1").
		DoAndReturn(func(_ context.Context, _ domain.FilterCriteria, pos *domain.UserPosition, _ string) ([]domain.Report, error) {
			if pos == nil || pos.Coordinate.Latitude != 53.28 || pos.Coordinate.Longitude != -6.14 {
				return nil, fmt.Errorf("unexpected position %+v", pos)
			}
			return []domain.Report{sampleReport("u1")}, nil
		})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports?type=Assault&window=hour&radius=5&scope=mine&lat=53.28&lng=-6.14", nil)
	rr := httptest.NewRecorder()
	h.ListReports(rr, asViewer(req, "u1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}
	got := decodeJSON[struct {
		Reports []domain.ReportView `json:"reports"`
	}](t, rr)
	if len(got.Reports) != 1 || !got.Reports[0].Deletable {
		t.Fatalf("expected one deletable report, got %+v", got.Reports)
	}
}

func TestListReports_StoredPositionForViewer(t *testing.T) {
	t.Parallel()
	h, m := newTestHandler(t)

	stored := domain.UserPosition{Coordinate: domain.Coordinate{Latitude: 53.3, Longitude: -6.2}, CapturedAt: time.Now().UTC()}
	m.positions.EXPECT().Position(gomock.Any(), "u1").Return(stored, true, nil)
	m.reports.EXPECT().
		Visible(gomock.Any(), gomock.Any(), &stored, "u1").
		Return(nil, nil)

	rr := httptest.NewRecorder()
	h.ListReports(rr, asViewer(httptest.NewRequest(http.MethodGet, "/api/v1/reports?radius=1", nil), "u1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}
	got := decodeJSON[map[string]any](t, rr)
	if got["count"].(float64) != 0 {
		t.Fatalf("expected zero reports, got %v", got)
	}
	if _, ok := got["reports"].([]any); !ok {
		t.Fatalf("expected reports to be an empty array, got %v", got["reports"])
	}
}

func TestListReports_StoredPositionErrorIgnored(t *testing.T) {
	t.Parallel()
	h, m := newTestHandler(t)

	m.positions.EXPECT().Position(gomock.Any(), "u1").Return(domain.UserPosition{}, false, errors.New("redis down"))
	m.reports.EXPECT().Visible(gomock.Any(), gomock.Any(), (*domain.UserPosition)(nil), "u1").Return(nil, nil)

	rr := httptest.NewRecorder()
	h.ListReports(rr, asViewer(httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil), "u1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestListReports_BadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		query    string
		viewer   string
		wantCode int
	}{
		{name: "unknown type", query: "type=Arson", wantCode: http.StatusBadRequest},
		{name: "all is a filter", query: "type=All", wantCode: http.StatusOK},
		{name: "bad window", query: "window=decade", wantCode: http.StatusBadRequest},
		{name: "bad radius", query: "radius=-1", wantCode: http.StatusBadRequest},
		{name: "radius above cap", query: "radius=150", wantCode: http.StatusBadRequest},
		{name: "unknown tz", query: "window=today&tz=Mars/Olympus", wantCode: http.StatusBadRequest},
		{name: "bad scope", query: "scope=friends", wantCode: http.StatusBadRequest},
		{name: "mine anonymous", query: "scope=mine", wantCode: http.StatusUnauthorized},
		{name: "lat only", query: "lat=53.2", wantCode: http.StatusBadRequest},
		{name: "lat out of range", query: "lat=95&lng=0", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, m := newTestHandler(t)
			if tt.wantCode == http.StatusOK {
				m.reports.EXPECT().Visible(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
			}

			req := httptest.NewRequest(http.MethodGet, "/api/v1/reports?"+tt.query, nil)
			if tt.viewer != "" {
				req = asViewer(req, tt.viewer)
			}
			rr := httptest.NewRecorder()
			h.ListReports(rr, req)

			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d got %d body=%s", tt.wantCode, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestListReports_GeoJSON(t *testing.T) {
	t.Parallel()
	h, m := newTestHandler(t)

	r1 := sampleReport("")
	m.reports.EXPECT().Visible(gomock.Any(), gomock.Any(), gomock.Any(), "").Return([]domain.Report{r1}, nil)

	rr := httptest.NewRecorder()
	h.ListReports(rr, httptest.NewRequest(http.MethodGet, "/api/v1/reports?format=geojson", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	fc, err := geojson.UnmarshalFeatureCollection(rr.Body.Bytes())
	if err != nil {
		t.Fatalf("UnmarshalFeatureCollection: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(fc.Features))
	}
	f := fc.Features[0]
	if !f.Geometry.IsPoint() || f.Geometry.Point[0] != r1.Location.Longitude || f.Geometry.Point[1] != r1.Location.Latitude {
		t.Fatalf("expected [lng, lat] point, got %+v", f.Geometry.Point)
	}
	if f.Properties["type"] != string(domain.CrimeTheft) || f.Properties["deletable"] != true {
		t.Fatalf("unexpected properties %+v", f.Properties)
	}
}

func TestListReports_TimeZone(t *testing.T) {
	t.Parallel()
	h, m := newTestHandler(t)

	m.reports.EXPECT().
		Visible(gomock.Any(), gomock.Any(), gomock.Any(), "").
		DoAndReturn(func(_ context.Context, c domain.FilterCriteria, _ *domain.UserPosition, _ string) ([]domain.Report, error) {
			if c.TimeWindow != domain.WindowToday || c.Location == nil || c.Location.String() != "Europe/Dublin" {
				return nil, fmt.Errorf("unexpected criteria %+v", c)
			}
			return nil, nil
		})

	rr := httptest.NewRecorder()
	h.ListReports(rr, httptest.NewRequest(http.MethodGet, "/api/v1/reports?window=today&tz=Europe/Dublin", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}
}

// A bad stored report is a server-side data fault, not a client error.
func TestListReports_CorruptReport_500(t *testing.T) {
	t.Parallel()
	h, m := newTestHandler(t)

	m.reports.EXPECT().
		Visible(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("report %s: %w: lat out of range", uuid.New(), e.ErrCorruptReport))

	rr := httptest.NewRecorder()
	h.ListReports(rr, httptest.NewRequest(http.MethodGet, "/api/v1/reports?lat=53.28&lng=-9.04", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d body=%s", rr.Code, rr.Body.String())
	}
	if got := decodeJSON[map[string]string](t, rr); got["error"] != http.StatusText(http.StatusInternalServerError) {
		t.Fatalf("report details must not leak, got %q", got["error"])
	}
}

func TestListReports_ServiceError_500(t *testing.T) {
	t.Parallel()
	h, m := newTestHandler(t)

	m.reports.EXPECT().Visible(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

	rr := httptest.NewRecorder()
	h.ListReports(rr, httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rr.Code)
	}
	if got := decodeJSON[map[string]string](t, rr); got["error"] == "boom" {
		t.Fatal("internal error details must not leak")
	}
}

func TestCreateReport(t *testing.T) {
	t.Parallel()
	h, m := newTestHandler(t)

	created := sampleReport("u1")
	m.reports.EXPECT().
		Create(gomock.Any(), domain.CreateReportRequest{Type: domain.CrimeTheft, Lat: f64(53.2839), Lng: f64(-6.1336)}, "u1").
		Return(created, nil)

	body := `{"type":"Theft","lat":53.2839,"lng":-6.1336}`
	req := asViewer(httptest.NewRequest(http.MethodPost, "/api/v1/reports", bytes.NewBufferString(body)), "u1")
	rr := httptest.NewRecorder()

	middleware.BindJSON(h.CreateReport)(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", rr.Code, rr.Body.String())
	}
	got := decodeJSON[domain.ReportView](t, rr)
	if got.ID != created.ID || !got.Deletable {
		t.Fatalf("unexpected response %+v", got)
	}
}

func TestCreateReport_Invalid(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]string{
		"unknown type":  `{"type":"Arson","lat":1,"lng":1}`,
		"all type":      `{"type":"All","lat":1,"lng":1}`,
		"missing lat":   `{"type":"Theft","lng":1}`,
		"lng too large": `{"type":"Theft","lat":1,"lng":181}`,
		"bad json":      `{bad`,
	} {
		body := body
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			h, _ := newTestHandler(t)

			rr := httptest.NewRecorder()
			middleware.BindJSON(h.CreateReport)(rr, httptest.NewRequest(http.MethodPost, "/api/v1/reports", bytes.NewBufferString(body)))

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d body=%s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestDeleteReport(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	tests := []struct {
		name     string
		svcErr   error
		wantCode int
	}{
		{name: "deleted", wantCode: http.StatusNoContent},
		{name: "not owner", svcErr: fmt.Errorf("delete: %w", e.ErrForbidden), wantCode: http.StatusForbidden},
		{name: "missing", svcErr: fmt.Errorf("get: %w", e.ErrNotFound), wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, m := newTestHandler(t)
			m.reports.EXPECT().Delete(gomock.Any(), id, "u1").Return(tt.svcErr)

			req := withID(httptest.NewRequest(http.MethodDelete, "/api/v1/reports/"+id.String(), nil), id.String())
			rr := httptest.NewRecorder()
			h.DeleteReport(rr, asViewer(req, "u1"))

			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d got %d body=%s", tt.wantCode, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestDeleteReport_InvalidID_400(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)

	rr := httptest.NewRecorder()
	h.DeleteReport(rr, withID(httptest.NewRequest(http.MethodDelete, "/api/v1/reports/nope", nil), "nope"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestUpdatePosition(t *testing.T) {
	t.Parallel()
	h, m := newTestHandler(t)

	want := domain.PositionUpdateResponse{ShouldAlert: true, Count: 2, Fired: true}
	m.positions.EXPECT().
		UpdatePosition(gomock.Any(), "u1", domain.Coordinate{Latitude: 53.284, Longitude: -6.134}).
		Return(want, nil)

	req := asViewer(httptest.NewRequest(http.MethodPost, "/api/v1/positions", bytes.NewBufferString(`{"lat":53.284,"lng":-6.134}`)), "u1")
	rr := httptest.NewRecorder()
	middleware.BindJSON(h.UpdatePosition)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}
	if got := decodeJSON[domain.PositionUpdateResponse](t, rr); got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestUpdatePosition_ServiceError(t *testing.T) {
	t.Parallel()
	h, m := newTestHandler(t)

	m.positions.EXPECT().UpdatePosition(gomock.Any(), "u1", gomock.Any()).
		Return(domain.PositionUpdateResponse{}, fmt.Errorf("store: %w", e.ErrDeadline))

	req := asViewer(httptest.NewRequest(http.MethodPost, "/api/v1/positions", bytes.NewBufferString(`{"lat":1,"lng":1}`)), "u1")
	rr := httptest.NewRecorder()
	middleware.BindJSON(h.UpdatePosition)(rr, req)

	if rr.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504 got %d", rr.Code)
	}
}

func TestCrimeTypesAndAssistance(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)

	rr := httptest.NewRecorder()
	h.CrimeTypes(rr, httptest.NewRequest(http.MethodGet, "/api/v1/crime-types", nil))
	types := decodeJSON[struct {
		Types         []domain.CrimeTypeInfo `json:"types"`
		RadiusOptions []float64              `json:"radius_options"`
		DefaultRadius float64                `json:"default_radius"`
	}](t, rr)
	if len(types.Types) != 8 || types.Types[0].Type != domain.CrimeTheft || types.Types[0].Emoji == "" {
		t.Fatalf("unexpected types %+v", types.Types)
	}
	if len(types.RadiusOptions) != 4 || types.DefaultRadius != 5 {
		t.Fatalf("unexpected radius options %+v / %v", types.RadiusOptions, types.DefaultRadius)
	}

	rr = httptest.NewRecorder()
	h.Assistance(rr, httptest.NewRequest(http.MethodGet, "/api/v1/assistance", nil))
	contacts := decodeJSON[[]domain.AssistanceContact](t, rr)
	if len(contacts) != 4 || contacts[0].Number != "112" {
		t.Fatalf("unexpected contacts %+v", contacts)
	}
}

func TestAlertStream_Unauthorized(t *testing.T) {
	t.Parallel()

	t.Run("no token", func(t *testing.T) {
		t.Parallel()
		h, _ := newTestHandler(t)

		rr := httptest.NewRecorder()
		h.AlertStream(rr, httptest.NewRequest(http.MethodGet, "/api/v1/alerts/ws", nil))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 got %d", rr.Code)
		}
	})

	t.Run("bad token", func(t *testing.T) {
		t.Parallel()
		h, m := newTestHandler(t)
		m.tokens.EXPECT().ValidateToken("bad").Return(nil, fmt.Errorf("parse: %w", e.ErrUnauthorized))

		rr := httptest.NewRecorder()
		h.AlertStream(rr, httptest.NewRequest(http.MethodGet, "/api/v1/alerts/ws?token=bad", nil))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 got %d", rr.Code)
		}
	})
}

func TestAlertStream_UpgradeFailureSkipsServe(t *testing.T) {
	t.Parallel()
	h, m := newTestHandler(t)

	claims := &auth.Claims{UserID: "u1"}
	m.tokens.EXPECT().ValidateToken("good").Return(claims, nil)
	m.stream.EXPECT().Upgrade(gomock.Any(), gomock.Any()).Return(nil, errors.New("not a websocket handshake"))
	m.stream.EXPECT().Serve(gomock.Any(), gomock.Any()).Times(0)

	rr := httptest.NewRecorder()
	h.AlertStream(rr, httptest.NewRequest(http.MethodGet, "/api/v1/alerts/ws?token=good", nil))
}
