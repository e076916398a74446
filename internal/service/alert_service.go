package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/CLillis357/VigilantIE/internal/alert"
	"github.com/CLillis357/VigilantIE/internal/domain"
	"github.com/CLillis357/VigilantIE/pkg/e"
)

type alertService struct {
	reports     ReportService
	positions   PositionStore
	triggers    TriggerStore
	queue       AlertQueue
	alertLog    AlertLog
	logger      *slog.Logger
	thresholdKm float64
	now         func() time.Time

	locks sync.Map // userID -> *sync.Mutex
}

func NewAlertService(
	reports ReportService,
	positions PositionStore,
	triggers TriggerStore,
	queue AlertQueue,
	alertLog AlertLog,
	logger *slog.Logger,
	thresholdKm float64,
) AlertService {
	if thresholdKm <= 0 {
		thresholdKm = domain.DefaultAlertThresholdKm
	}
	return &alertService{
		reports:     reports,
		positions:   positions,
		triggers:    triggers,
		queue:       queue,
		alertLog:    alertLog,
		logger:      logger,
		thresholdKm: thresholdKm,
		now:         time.Now,
	}
}

func (s *alertService) lock(userID string) func() {
	m, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *alertService) Position(ctx context.Context, userID string) (domain.UserPosition, bool, error) {
	if userID == "" {
		return domain.UserPosition{}, false, nil
	}
	return s.positions.Get(ctx, userID)
}

func (s *alertService) UpdatePosition(ctx context.Context, userID string, coord domain.Coordinate) (domain.PositionUpdateResponse, error) {
	if userID == "" {
		return domain.PositionUpdateResponse{}, e.ErrUnauthorized
	}
	if err := coord.Validate(); err != nil {
		s.logger.Warn("invalid coordinates",
			slog.String("user_id", userID),
			slog.Float64("lat", coord.Latitude),
			slog.Float64("lng", coord.Longitude),
		)
		return domain.PositionUpdateResponse{}, err
	}

	pos := domain.UserPosition{Coordinate: coord, CapturedAt: s.now().UTC()}
	if err := s.positions.Set(ctx, userID, pos); err != nil {
		s.logger.Error("positions.Set failed", slog.String("user_id", userID), slog.Any("error", err))
		return domain.PositionUpdateResponse{}, err
	}

	d, fired, err := s.Recompute(ctx, userID)
	if err != nil {
		return domain.PositionUpdateResponse{}, err
	}
	return domain.PositionUpdateResponse{ShouldAlert: d.ShouldAlert, Count: d.Count, Fired: fired}, nil
}

// Recompute evaluates the user's last position against the current report set and
// enqueues an alert on a rising edge. No known position means no alert.
func (s *alertService) Recompute(ctx context.Context, userID string) (domain.AlertDecision, bool, error) {
	unlock := s.lock(userID)
	defer unlock()

	pos, ok, err := s.positions.Get(ctx, userID)
	if err != nil {
		return domain.AlertDecision{}, false, err
	}
	if !ok {
		return domain.AlertDecision{}, false, nil
	}

	reports, version, err := s.reports.Snapshot(ctx)
	if err != nil {
		return domain.AlertDecision{}, false, err
	}

	d, err := alert.Evaluate(reports, pos, s.thresholdKm)
	if err != nil {
		s.logger.Error("alert evaluation failed", slog.String("user_id", userID), slog.Any("error", err))
		return domain.AlertDecision{}, false, err
	}

	prev, err := s.triggers.Get(ctx, userID)
	if err != nil {
		return domain.AlertDecision{}, false, err
	}
	next, fired := alert.Step(prev, d, alert.Versions{
		Reports:  version,
		Position: pos.CapturedAt.UnixNano(),
	})

	if fired {
		ev := alert.NewEvent(userID, pos, d, s.now())
		if err := s.queue.Enqueue(ctx, ev); err != nil {
			s.logger.Error("enqueue alert failed", slog.String("user_id", userID), slog.Any("error", err))
			return d, false, fmt.Errorf("enqueue alert: %w", err)
		}
		if err := s.alertLog.SaveAlert(ctx, &ev); err != nil {
			s.logger.Warn("alert log failed", slog.String("user_id", userID), slog.Any("error", err))
		}
		s.logger.Info("alert fired",
			slog.String("user_id", userID),
			slog.String("alert_id", ev.ID.String()),
			slog.Int("count", d.Count),
		)
	}

	if next != prev {
		if err := s.triggers.Set(ctx, userID, next); err != nil {
			return d, fired, err
		}
	}

	return d, fired, nil
}

// RecomputeAll re-evaluates every user with a known position and returns how many fired.
func (s *alertService) RecomputeAll(ctx context.Context) (int, error) {
	positions, err := s.positions.All(ctx)
	if err != nil {
		return 0, err
	}

	var (
		fired int
		errs  []error
	)
	for userID := range positions {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		_, ok, err := s.Recompute(ctx, userID)
		if err != nil {
			s.logger.Warn("recompute failed", slog.String("user_id", userID), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		if ok {
			fired++
		}
	}

	s.logger.Debug("recompute all done", slog.Int("users", len(positions)), slog.Int("fired", fired))
	return fired, errors.Join(errs...)
}
