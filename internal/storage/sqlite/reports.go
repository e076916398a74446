package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/CLillis357/VigilantIE/internal/domain"
	"github.com/CLillis357/VigilantIE/pkg/e"
)

const selectReports = `
	SELECT id, crime_type, latitude, longitude, owner_id, created_at
	FROM reports
`

func (s *Store) Create(ctx context.Context, report *domain.Report) error {
	const op = "sqlite.Report.Create"

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
	report.CreatedAt = report.CreatedAt.UTC().Truncate(time.Microsecond)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (id, crime_type, latitude, longitude, owner_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		report.ID.String(),
		string(report.Type),
		report.Location.Latitude,
		report.Location.Longitude,
		report.OwnerID,
		report.CreatedAt.UnixNano(),
	)
	if err != nil {
		s.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}

	return nil
}

func (s *Store) List(ctx context.Context) ([]domain.Report, error) {
	const op = "sqlite.Report.List"

	rows, err := s.db.QueryContext(ctx, selectReports+` ORDER BY created_at DESC, id`)
	if err != nil {
		s.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	reports := make([]domain.Report, 0, 32)
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			s.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, e.WrapError(ctx, op, err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}

	return reports, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (domain.Report, error) {
	const op = "sqlite.Report.Get"

	r, err := scanReport(s.db.QueryRowContext(ctx, selectReports+` WHERE id = ?`, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Report{}, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		s.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err))
		return domain.Report{}, e.WrapError(ctx, op, err)
	}

	return r, nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "sqlite.Report.Delete"

	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id.String())
	if err != nil {
		s.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return e.WrapError(ctx, op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (domain.Report, error) {
	var (
		r         domain.Report
		id        string
		crimeType string
		createdAt int64
	)
	if err := row.Scan(&id, &crimeType, &r.Location.Latitude, &r.Location.Longitude, &r.OwnerID, &createdAt); err != nil {
		return domain.Report{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return domain.Report{}, err
	}
	r.ID = parsed
	r.Type = domain.CrimeType(crimeType)
	r.CreatedAt = time.Unix(0, createdAt).UTC()
	return r, nil
}
