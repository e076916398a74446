package service

import (
	"context"

	"github.com/CLillis357/VigilantIE/internal/domain"
)

type statsService struct {
	repo AlertLog
}

func NewStatsService(repo AlertLog) StatsService {
	return &statsService{repo: repo}
}

func (s *statsService) GetStats(ctx context.Context, req domain.StatsRequest) (*domain.AlertStats, error) {
	minutes := req.Minutes
	if minutes == 0 {
		minutes = 60
	}

	users, err := s.repo.CountAlertedUsers(ctx, minutes)
	if err != nil {
		return nil, err
	}

	alerts, err := s.repo.CountAlerts(ctx, minutes)
	if err != nil {
		return nil, err
	}

	return &domain.AlertStats{
		UserCount:  users,
		AlertCount: alerts,
		Minutes:    minutes,
	}, nil
}
