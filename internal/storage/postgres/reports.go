package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CLillis357/VigilantIE/internal/domain"
	"github.com/CLillis357/VigilantIE/pkg/e"
)

type ReportRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewReportRepo(pool *pgxpool.Pool, logger *slog.Logger) *ReportRepo {
	return &ReportRepo{pool: pool, logger: logger}
}

const selectReports = `
	SELECT id,
		   crime_type,
		   ST_Y(geo_point::geometry) AS lat,
		   ST_X(geo_point::geometry) AS lng,
		   owner_id,
		   created_at
	FROM reports
`

func (p *ReportRepo) Create(ctx context.Context, report *domain.Report) error {
	const op = "postgres.Report.Create"

	if report == nil {
		return fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}
	if err := report.Location.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}
	// timestamptz keeps microseconds
	report.CreatedAt = report.CreatedAt.UTC().Truncate(time.Microsecond)

	const query = `
		INSERT INTO reports (id, crime_type, geo_point, owner_id, created_at)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326), $5, $6)
	`

	_, err := p.pool.Exec(ctx, query,
		report.ID,
		string(report.Type),
		report.Location.Longitude,
		report.Location.Latitude,
		report.OwnerID,
		report.CreatedAt,
	)
	if err != nil {
		p.logger.Error("db exec failed",
			slog.String("op", op),
			slog.Any("error", err),
			slog.String("id", report.ID.String()),
		)
		return e.WrapError(ctx, op, err)
	}

	return nil
}

func (p *ReportRepo) List(ctx context.Context) ([]domain.Report, error) {
	const op = "postgres.Report.List"

	rows, err := p.pool.Query(ctx, selectReports+` ORDER BY created_at DESC, id`)
	if err != nil {
		p.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	reports := make([]domain.Report, 0, 32)
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			p.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, e.WrapError(ctx, op, err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		p.logger.Error("rows err", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}

	return reports, nil
}

func (p *ReportRepo) Get(ctx context.Context, id uuid.UUID) (domain.Report, error) {
	const op = "postgres.Report.Get"

	r, err := scanReport(p.pool.QueryRow(ctx, selectReports+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Report{}, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		p.logger.Error("db queryrow scan failed",
			slog.String("op", op),
			slog.Any("error", err),
			slog.String("id", id.String()),
		)
		return domain.Report{}, e.WrapError(ctx, op, err)
	}

	return r, nil
}

func (p *ReportRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.Report.Delete"

	cmd, err := p.pool.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		p.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return e.WrapError(ctx, op, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}

	return nil
}

func scanReport(row pgx.Row) (domain.Report, error) {
	var (
		r         domain.Report
		crimeType string
	)
	if err := row.Scan(
		&r.ID,
		&crimeType,
		&r.Location.Latitude,
		&r.Location.Longitude,
		&r.OwnerID,
		&r.CreatedAt,
	); err != nil {
		return domain.Report{}, err
	}
	r.Type = domain.CrimeType(crimeType)
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}
