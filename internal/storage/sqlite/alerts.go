package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/CLillis357/VigilantIE/internal/domain"
	"github.com/CLillis357/VigilantIE/pkg/e"
)

func (s *Store) SaveAlert(ctx context.Context, ev *domain.AlertEvent) error {
	const op = "sqlite.AlertLog.Save"

	if ev == nil || ev.UserID == "" {
		return fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.FiredAt.IsZero() {
		ev.FiredAt = time.Now().UTC()
	}
	ids := ev.ReportIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	rawIDs, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alert_events (id, user_id, report_count, report_ids, lat, lng, fired_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID.String(),
		ev.UserID,
		ev.Count,
		string(rawIDs),
		ev.Lat,
		ev.Lng,
		ev.FiredAt.UnixNano(),
	)
	if err != nil {
		s.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err), slog.String("user_id", ev.UserID))
		return e.WrapError(ctx, op, err)
	}

	return nil
}

func (s *Store) CountAlertedUsers(ctx context.Context, minutes int) (int64, error) {
	const op = "sqlite.AlertLog.CountAlertedUsers"
	return s.count(ctx, op, `SELECT COUNT(DISTINCT user_id) FROM alert_events WHERE fired_at >= ?`, minutes)
}

func (s *Store) CountAlerts(ctx context.Context, minutes int) (int64, error) {
	const op = "sqlite.AlertLog.CountAlerts"
	return s.count(ctx, op, `SELECT COUNT(*) FROM alert_events WHERE fired_at >= ?`, minutes)
}

func (s *Store) count(ctx context.Context, op, query string, minutes int) (int64, error) {
	if minutes <= 0 || minutes > 1440 {
		return 0, fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}
	since := time.Now().Add(-time.Duration(minutes) * time.Minute).UnixNano()

	var cnt int64
	if err := s.db.QueryRowContext(ctx, query, since).Scan(&cnt); err != nil {
		s.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err), slog.Int("minutes", minutes))
		return 0, e.WrapError(ctx, op, err)
	}

	return cnt, nil
}
