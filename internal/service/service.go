package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/CLillis357/VigilantIE/internal/alert"
	"github.com/CLillis357/VigilantIE/internal/domain"
)

//go:generate mockgen -source=service.go -destination=mocks/mock.go

// Reports use-cases
type ReportService interface {
	Snapshot(ctx context.Context) ([]domain.Report, int64, error)
	Refresh(ctx context.Context) ([]domain.Report, error)
	Visible(ctx context.Context, criteria domain.FilterCriteria, pos *domain.UserPosition, viewerID string) ([]domain.Report, error)
	Create(ctx context.Context, req domain.CreateReportRequest, ownerID string) (domain.Report, error)
	Delete(ctx context.Context, id uuid.UUID, viewerID string) error
}

// Proximity alert use-cases
type AlertService interface {
	Position(ctx context.Context, userID string) (domain.UserPosition, bool, error)
	UpdatePosition(ctx context.Context, userID string, coord domain.Coordinate) (domain.PositionUpdateResponse, error)
	Recompute(ctx context.Context, userID string) (domain.AlertDecision, bool, error)
	RecomputeAll(ctx context.Context) (int, error)
}

// Statistics
type StatsService interface {
	GetStats(ctx context.Context, req domain.StatsRequest) (*domain.AlertStats, error)
}

type ReportStore interface {
	List(ctx context.Context) ([]domain.Report, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Report, error)
	Create(ctx context.Context, report *domain.Report) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReportCache keeps each snapshot bound to the version it was loaded under.
// Set must discard the snapshot when the version has moved since it was read.
type ReportCache interface {
	Get(ctx context.Context) ([]domain.Report, int64, bool, error)
	Set(ctx context.Context, reports []domain.Report, version int64) (bool, error)
	Invalidate(ctx context.Context) (int64, error)
	Version(ctx context.Context) (int64, error)
}

type PositionStore interface {
	Get(ctx context.Context, userID string) (domain.UserPosition, bool, error)
	Set(ctx context.Context, userID string, pos domain.UserPosition) error
	All(ctx context.Context) (map[string]domain.UserPosition, error)
}

type TriggerStore interface {
	Get(ctx context.Context, userID string) (alert.State, error)
	Set(ctx context.Context, userID string, st alert.State) error
}

type AlertQueue interface {
	Enqueue(ctx context.Context, ev domain.AlertEvent) error
}

type AlertLog interface {
	SaveAlert(ctx context.Context, ev *domain.AlertEvent) error
	CountAlertedUsers(ctx context.Context, minutes int) (int64, error)
	CountAlerts(ctx context.Context, minutes int) (int64, error)
}

type Service struct {
	ReportService ReportService
	AlertService  AlertService
	StatsService  StatsService
}

func NewService(
	reportService ReportService,
	alertService AlertService,
	statsService StatsService,
) *Service {
	return &Service{
		ReportService: reportService,
		AlertService:  alertService,
		StatsService:  statsService,
	}
}
