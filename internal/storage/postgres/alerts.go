package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CLillis357/VigilantIE/internal/domain"
	"github.com/CLillis357/VigilantIE/pkg/e"
)

// AlertLogRepo keeps every fired alert for the admin statistics.
type AlertLogRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewAlertLogRepo(pool *pgxpool.Pool, logger *slog.Logger) *AlertLogRepo {
	return &AlertLogRepo{pool: pool, logger: logger}
}

func (p *AlertLogRepo) SaveAlert(ctx context.Context, ev *domain.AlertEvent) error {
	const op = "postgres.AlertLog.Save"

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

	const query = `
		INSERT INTO alert_events (id, user_id, report_count, report_ids, lat, lng, fired_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := p.pool.Exec(ctx, query,
		ev.ID,
		ev.UserID,
		ev.Count,
		ids,
		ev.Lat,
		ev.Lng,
		ev.FiredAt,
	)
	if err != nil {
		p.logger.Error("db exec failed",
			slog.String("op", op),
			slog.Any("error", err),
			slog.String("user_id", ev.UserID),
		)
		return e.WrapError(ctx, op, err)
	}

	return nil
}

func (p *AlertLogRepo) CountAlertedUsers(ctx context.Context, minutes int) (int64, error) {
	const op = "postgres.AlertLog.CountAlertedUsers"
	return p.count(ctx, op, `SELECT COUNT(DISTINCT user_id) FROM alert_events WHERE fired_at >= NOW() - ($1 * INTERVAL '1 minute')`, minutes)
}

func (p *AlertLogRepo) CountAlerts(ctx context.Context, minutes int) (int64, error) {
	const op = "postgres.AlertLog.CountAlerts"
	return p.count(ctx, op, `SELECT COUNT(*) FROM alert_events WHERE fired_at >= NOW() - ($1 * INTERVAL '1 minute')`, minutes)
}

func (p *AlertLogRepo) count(ctx context.Context, op, query string, minutes int) (int64, error) {
	if minutes <= 0 || minutes > 1440 {
		return 0, fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}

	var cnt int64
	if err := p.pool.QueryRow(ctx, query, minutes).Scan(&cnt); err != nil {
		p.logger.Error("db queryrow scan failed",
			slog.String("op", op),
			slog.Any("error", err),
			slog.Int("minutes", minutes),
		)
		return 0, e.WrapError(ctx, op, err)
	}

	return cnt, nil
}
