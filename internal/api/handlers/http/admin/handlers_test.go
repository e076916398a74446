package admin_test

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/CLillis357/VigilantIE/internal/api/handlers/http/admin"
	mock_admin "github.com/CLillis357/VigilantIE/internal/api/handlers/http/admin/mocks"
	"github.com/CLillis357/VigilantIE/internal/domain"
)

func newTestHandler(t *testing.T) (*admin.Handler, *mock_admin.MockStatsGetter, *mock_admin.MockRecomputer, *mock_admin.MockSnapshotRefresher) {
	t.Helper()
	ctrl := gomock.NewController(t)
	stats := mock_admin.NewMockStatsGetter(ctrl)
	alerts := mock_admin.NewMockRecomputer(ctrl)
	snaps := mock_admin.NewMockSnapshotRefresher(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return admin.NewHandler(logger, stats, alerts, snaps), stats, alerts, snaps
}

func TestAdminStats_DefaultMinutes(t *testing.T) {
	t.Parallel()
	h, stats, _, _ := newTestHandler(t)

	stats.EXPECT().
		GetStats(gomock.Any(), domain.StatsRequest{Minutes: 60}).
		Return(&domain.AlertStats{UserCount: 2, AlertCount: 3, Minutes: 60}, nil)

	rr := httptest.NewRecorder()
	h.AdminStats(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}
	want := `{"user_count":2,"alert_count":3,"minutes":60}` + "\n"
	if rr.Body.String() != want {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}

func TestAdminStats_InvalidMinutes_400(t *testing.T) {
	t.Parallel()

	for _, q := range []string{"0", "1441", "-5", "abc"} {
		q := q
		t.Run(q, func(t *testing.T) {
			t.Parallel()
			h, _, _, _ := newTestHandler(t)

			rr := httptest.NewRecorder()
			h.AdminStats(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats?minutes="+q, nil))

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", rr.Code)
			}
		})
	}
}

func TestAdminStats_ServiceError_500(t *testing.T) {
	t.Parallel()
	h, stats, _, _ := newTestHandler(t)

	stats.EXPECT().GetStats(gomock.Any(), domain.StatsRequest{Minutes: 15}).Return(nil, errors.New("db down"))

	rr := httptest.NewRecorder()
	h.AdminStats(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats?minutes=15", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rr.Code)
	}
}

func TestAdminRecompute(t *testing.T) {
	t.Parallel()
	h, _, alerts, _ := newTestHandler(t)

	alerts.EXPECT().RecomputeAll(gomock.Any()).Return(4, nil)

	rr := httptest.NewRecorder()
	h.AdminRecompute(rr, httptest.NewRequest(http.MethodPost, "/api/v1/admin/alerts/recompute", nil))

	if rr.Code != http.StatusOK || rr.Body.String() != "{\"users\":4}\n" {
		t.Fatalf("unexpected response %d %q", rr.Code, rr.Body.String())
	}
}

func TestAdminRefresh(t *testing.T) {
	t.Parallel()
	h, _, _, snaps := newTestHandler(t)

	snaps.EXPECT().Refresh(gomock.Any()).Return(make([]domain.Report, 3), nil)

	rr := httptest.NewRecorder()
	h.AdminRefresh(rr, httptest.NewRequest(http.MethodPost, "/api/v1/admin/reports/refresh", nil))

	if rr.Code != http.StatusOK || rr.Body.String() != "{\"reports\":3}\n" {
		t.Fatalf("unexpected response %d %q", rr.Code, rr.Body.String())
	}

	snaps.EXPECT().Refresh(gomock.Any()).Return(nil, errors.New("boom"))
	rr = httptest.NewRecorder()
	h.AdminRefresh(rr, httptest.NewRequest(http.MethodPost, "/api/v1/admin/reports/refresh", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rr.Code)
	}
}
