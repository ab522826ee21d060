package service

import (
	"context"
	"errors"

	apperrors "theatre/internal/errors"
	"theatre/internal/models"
)

// StatsStore holds per-session sales counters fed by the order consumer.
type StatsStore interface {
	SessionStats(ctx context.Context, sessionID int64) (*models.SessionStats, error)
}

var errStatsDisabled = errors.New("stats store not configured")

type StatsService struct {
	store StatsStore
}

func NewStatsService(store StatsStore) *StatsService {
	return &StatsService{store: store}
}

// SessionStats is eventually consistent with committed orders.
func (s *StatsService) SessionStats(ctx context.Context, sessionID int64) (*models.SessionStats, error) {
	if sessionID < 1 {
		return nil, apperrors.InvalidRequest("invalid session id")
	}
	if s.store == nil {
		return nil, apperrors.StoreUnavailable("session stats", errStatsDisabled)
	}

	stats, err := s.store.SessionStats(ctx, sessionID)
	if err != nil {
		return nil, apperrors.StoreUnavailable("session stats", err)
	}
	return stats, nil
}
