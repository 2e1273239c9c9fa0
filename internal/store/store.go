package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/pvetools/backup-tracker/internal/store/model"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Job() Job
	VMResult() VMResult
	VMLog() VMLog
	InitialMigration() error
	Statistics(ctx context.Context) (model.BackupStats, error)
	Close() error
}

type DataStore struct {
	db       *gorm.DB
	job      Job
	vmResult VMResult
	vmLog    VMLog
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		job:      NewJobStore(db),
		vmResult: NewVMResultStore(db),
		vmLog:    NewVMLogStore(db),
		db:       db,
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Job() Job {
	return s.job
}

func (s *DataStore) VMResult() VMResult {
	return s.vmResult
}

func (s *DataStore) VMLog() VMLog {
	return s.vmLog
}

func (s *DataStore) InitialMigration() error {
	ctx, err := s.NewTransactionContext(context.Background())
	if err != nil {
		return err
	}

	if err := s.Job().InitialMigration(ctx); err != nil {
		_, _ = Rollback(ctx)
		return err
	}

	if err := s.VMResult().InitialMigration(ctx); err != nil {
		_, _ = Rollback(ctx)
		return err
	}

	if err := s.VMLog().InitialMigration(ctx); err != nil {
		_, _ = Rollback(ctx)
		return err
	}

	_, err = Commit(ctx)
	return err
}

func (s *DataStore) Statistics(ctx context.Context) (model.BackupStats, error) {
	jobCounts, err := s.Job().CountByStatus(ctx)
	if err != nil {
		return model.BackupStats{}, err
	}

	resultCounts, err := s.VMResult().CountByStatus(ctx)
	if err != nil {
		return model.BackupStats{}, err
	}

	return model.NewBackupStats(jobCounts, resultCounts), nil
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
