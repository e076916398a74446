package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CLillis357/VigilantIE/internal/domain"
	"github.com/CLillis357/VigilantIE/internal/filter"
	"github.com/CLillis357/VigilantIE/pkg/e"
)

type Reports struct {
	store  ReportStore
	cache  ReportCache
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	onChange []func(ctx context.Context)
}

func NewReportService(store ReportStore, cache ReportCache, logger *slog.Logger) *Reports {
	return &Reports{
		store:  store,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// OnChange registers fn to run after every create or delete.
func (s *Reports) OnChange(fn func(ctx context.Context)) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

// Snapshot returns the cached report listing and the report-set version it was
// loaded under. A cache failure falls back to the store.
func (s *Reports) Snapshot(ctx context.Context) ([]domain.Report, int64, error) {
	reports, version, ok, err := s.cache.Get(ctx)
	if err != nil {
		s.logger.Warn("cache.Get failed, reading store", slog.Any("error", err))
	}
	if ok {
		return reports, version, nil
	}
	return s.load(ctx)
}

// Refresh reloads the full listing from the store into the cache.
func (s *Reports) Refresh(ctx context.Context) ([]domain.Report, error) {
	reports, _, err := s.load(ctx)
	return reports, err
}

// load reads the version before the listing, so the listing is never older than
// the version it is returned with. The cache rejects it if a write has bumped
// the version in between.
func (s *Reports) load(ctx context.Context) ([]domain.Report, int64, error) {
	version, verErr := s.cache.Version(ctx)
	if verErr != nil {
		s.logger.Warn("cache.Version failed", slog.Any("error", verErr))
	}

	reports, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("store.List failed", slog.Any("error", err))
		return nil, 0, err
	}

	if verErr == nil {
		stored, err := s.cache.Set(ctx, reports, version)
		switch {
		case err != nil:
			s.logger.Warn("cache.Set failed", slog.Any("error", err))
		case !stored:
			s.logger.Debug("snapshot superseded by a newer write", slog.Int64("version", version))
		}
	}
	s.logger.Debug("reports refreshed", slog.Int("count", len(reports)), slog.Int64("version", version))
	return reports, version, nil
}

func (s *Reports) Visible(ctx context.Context, criteria domain.FilterCriteria, pos *domain.UserPosition, viewerID string) ([]domain.Report, error) {
	reports, _, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return filter.VisibleReports(reports, criteria, pos, viewerID, s.now())
}

func (s *Reports) Create(ctx context.Context, req domain.CreateReportRequest, ownerID string) (domain.Report, error) {
	if !req.Type.Valid() {
		return domain.Report{}, fmt.Errorf("%q: %w", req.Type, e.ErrInvalidCrimeType)
	}
	if req.Lat == nil || req.Lng == nil {
		return domain.Report{}, fmt.Errorf("location required: %w", e.ErrInvalidCoordinates)
	}
	coord := req.Coordinate()
	if err := coord.Validate(); err != nil {
		return domain.Report{}, err
	}

	report := &domain.Report{
		ID:       uuid.New(),
		Type:     req.Type,
		Location: coord,
		OwnerID:  ownerID,
	}
	if err := s.store.Create(ctx, report); err != nil {
		return domain.Report{}, err
	}
	s.logger.Info("report created",
		slog.String("id", report.ID.String()),
		slog.String("type", string(report.Type)),
		slog.Bool("owned", ownerID != ""),
	)

	s.changed(ctx)
	return *report, nil
}

func (s *Reports) Delete(ctx context.Context, id uuid.UUID, viewerID string) error {
	report, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !report.DeletableBy(viewerID) {
		return fmt.Errorf("report %s: %w", id, e.ErrForbidden)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("report deleted", slog.String("id", id.String()))

	s.changed(ctx)
	return nil
}

// changed bumps the report-set version, reloads the full listing and tells listeners.
func (s *Reports) changed(ctx context.Context) {
	if _, err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("cache.Invalidate failed", slog.Any("error", err))
	}
	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Warn("refresh after write failed", slog.Any("error", err))
	}

	s.mu.RLock()
	listeners := s.onChange
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(ctx)
	}
}
