package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/CLillis357/VigilantIE/internal/domain"
)

type SnapshotRefresher interface {
	Refresh(ctx context.Context) ([]domain.Report, error)
}

type VersionSource interface {
	Version(ctx context.Context) (int64, error)
}

type Recomputer interface {
	RecomputeAll(ctx context.Context) (int, error)
}

// ReportRefresher keeps the report snapshot warm and re-evaluates every known
// position whenever the report-set version moves, including writes made elsewhere.
type ReportRefresher struct {
	reports  SnapshotRefresher
	versions VersionSource
	alerts   Recomputer
	interval time.Duration
	kick     chan struct{}
	logger   *slog.Logger
}

func NewReportRefresher(reports SnapshotRefresher, versions VersionSource, alerts Recomputer, interval time.Duration, logger *slog.Logger) *ReportRefresher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ReportRefresher{
		reports:  reports,
		versions: versions,
		alerts:   alerts,
		interval: interval,
		kick:     make(chan struct{}, 1),
		logger:   logger,
	}
}

// Notify asks for an immediate pass without blocking. Bursts collapse into one pass.
func (r *ReportRefresher) Notify() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

func (r *ReportRefresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	last := int64(-1)
	last = r.pass(ctx, last)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-r.kick:
		}
		last = r.pass(ctx, last)
	}
}

func (r *ReportRefresher) pass(ctx context.Context, last int64) int64 {
	version, err := r.versions.Version(ctx)
	if err != nil {
		r.logger.Warn("report version read failed", slog.Any("error", err))
		return last
	}

	if _, err := r.reports.Refresh(ctx); err != nil {
		r.logger.Warn("report refresh failed", slog.Any("error", err))
		return last
	}

	if version == last {
		return last
	}

	fired, err := r.alerts.RecomputeAll(ctx)
	if err != nil {
		r.logger.Warn("recompute after report change failed", slog.Any("error", err))
	}
	r.logger.Info("report set changed",
		slog.Int64("version", version),
		slog.Int("alerts_fired", fired),
	)
	return version
}
