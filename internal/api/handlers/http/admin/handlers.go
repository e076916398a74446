package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/CLillis357/VigilantIE/internal/domain"
	"github.com/CLillis357/VigilantIE/pkg/validator"
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type StatsGetter interface {
	GetStats(ctx context.Context, req domain.StatsRequest) (*domain.AlertStats, error)
}

type Recomputer interface {
	RecomputeAll(ctx context.Context) (int, error)
}

type SnapshotRefresher interface {
	Refresh(ctx context.Context) ([]domain.Report, error)
}

type Handler struct {
	logger    *slog.Logger
	Stats     StatsGetter
	Alerts    Recomputer
	Snapshots SnapshotRefresher
}

func NewHandler(logger *slog.Logger, stats StatsGetter, alerts Recomputer, snapshots SnapshotRefresher) *Handler {
	return &Handler{
		logger:    logger,
		Stats:     stats,
		Alerts:    alerts,
		Snapshots: snapshots,
	}
}

func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AdminStats", slog.String("query", r.URL.RawQuery), slog.String("remote", r.RemoteAddr))

	minutesStr := r.URL.Query().Get("minutes")
	if minutesStr == "" {
		minutesStr = "60"
	}

	minutes, err := strconv.Atoi(minutesStr)
	req := domain.StatsRequest{Minutes: minutes}
	if err == nil {
		err = validator.ValidateStruct(req)
	}
	if err != nil {
		l.Warn("invalid minutes", slog.String("minutes", minutesStr))
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "minutes must be 1-1440"})
		return
	}

	stats, err := h.Stats.GetStats(r.Context(), req)
	if err != nil {
		l.Error("Stats.GetStats failed", slog.Any("error", err))
		h.handleError(w, err)
		return
	}

	l.Info("stats success", slog.Int("minutes", minutes))
	h.writeJSON(w, http.StatusOK, stats)
}

// AdminRecompute re-evaluates every known position against the current reports.
func (h *Handler) AdminRecompute(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)

	n, err := h.Alerts.RecomputeAll(r.Context())
	if err != nil {
		l.Error("Alerts.RecomputeAll failed", slog.Int("users", n), slog.Any("error", err))
		h.handleError(w, err)
		return
	}

	l.Info("recompute success", slog.Int("users", n))
	h.writeJSON(w, http.StatusOK, recomputeResponse{Users: n})
}

func (h *Handler) AdminRefresh(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)

	reports, err := h.Snapshots.Refresh(r.Context())
	if err != nil {
		l.Error("Snapshots.Refresh failed", slog.Any("error", err))
		h.handleError(w, err)
		return
	}

	l.Info("refresh success", slog.Int("reports", len(reports)))
	h.writeJSON(w, http.StatusOK, refreshResponse{Reports: len(reports)})
}
