package service

import (
	"context"

	"github.com/pvetools/backup-tracker/internal/store"
	"github.com/pvetools/backup-tracker/internal/store/model"
)

type StatsService struct {
	store store.Store
}

func NewStatsService(store store.Store) *StatsService {
	return &StatsService{store: store}
}

func (s *StatsService) Statistics(ctx context.Context) (model.BackupStats, error) {
	return s.store.Statistics(ctx)
}
