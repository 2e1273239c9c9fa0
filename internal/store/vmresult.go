package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pvetools/backup-tracker/internal/store/model"
)

type VMResult interface {
	Create(ctx context.Context, result model.VMResult) (*model.VMResult, error)
	Get(ctx context.Context, id uuid.UUID) (*model.VMResult, error)
	List(ctx context.Context, filter *VMResultQueryFilter, opts *VMResultQueryOptions) (model.VMResultList, error)
	Update(ctx context.Context, result model.VMResult, fields ...string) (*model.VMResult, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	InitialMigration(context.Context) error
}

type VMResultStore struct {
	db *gorm.DB
}

var _ VMResult = (*VMResultStore)(nil)

func NewVMResultStore(db *gorm.DB) VMResult {
	return &VMResultStore{db: db}
}

func (s *VMResultStore) InitialMigration(ctx context.Context) error {
	return s.getDB(ctx).AutoMigrate(&model.VMResult{})
}

func (s *VMResultStore) Create(ctx context.Context, result model.VMResult) (*model.VMResult, error) {
	if err := s.getDB(ctx).WithContext(ctx).Create(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}

	return &result, nil
}

func (s *VMResultStore) Get(ctx context.Context, id uuid.UUID) (*model.VMResult, error) {
	var result model.VMResult
	if err := s.getDB(ctx).WithContext(ctx).First(&result, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return &result, nil
}

func (s *VMResultStore) List(ctx context.Context, filter *VMResultQueryFilter, opts *VMResultQueryOptions) (model.VMResultList, error) {
	var results model.VMResultList
	tx := s.getDB(ctx).WithContext(ctx)

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if opts != nil {
		for _, fn := range opts.QueryFn {
			tx = fn(tx)
		}
	}

	if err := tx.Model(&results).Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

// Update writes the named fields of result in place. The field list makes
// the write explicit: zero values among the selected fields are persisted,
// so a progress report like ioFreezeSucceeded=false survives. Zero rows
// affected means the record does not exist.
func (s *VMResultStore) Update(ctx context.Context, result model.VMResult, fields ...string) (*model.VMResult, error) {
	now := time.Now().UTC()
	result.UpdatedAt = &now
	fields = append(fields, "updated_at")

	tx := s.getDB(ctx).WithContext(ctx).
		Model(&model.VMResult{}).
		Where("id = ?", result.ID).
		Select(fields).
		Updates(&result)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}

	return s.Get(ctx, result.ID)
}

func (s *VMResultStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	var rows []statusCount
	err := s.getDB(ctx).WithContext(ctx).
		Model(&model.VMResult{}).
		Select("status, count(*) as total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}

	return counts, nil
}

func (s *VMResultStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
