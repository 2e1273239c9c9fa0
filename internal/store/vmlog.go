package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pvetools/backup-tracker/internal/store/model"
)

// VMLog is append-only: entries are created and listed, never updated or
// deleted.
type VMLog interface {
	Create(ctx context.Context, entry model.VMLog) (*model.VMLog, error)
	List(ctx context.Context, vmResultID uuid.UUID) (model.VMLogList, error)
	InitialMigration(context.Context) error
}

type VMLogStore struct {
	db *gorm.DB
}

var _ VMLog = (*VMLogStore)(nil)

func NewVMLogStore(db *gorm.DB) VMLog {
	return &VMLogStore{db: db}
}

func (s *VMLogStore) InitialMigration(ctx context.Context) error {
	return s.getDB(ctx).AutoMigrate(&model.VMLog{})
}

func (s *VMLogStore) Create(ctx context.Context, entry model.VMLog) (*model.VMLog, error) {
	if err := s.getDB(ctx).WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}

	return &entry, nil
}

// List returns all entries for a VM result in insertion order.
func (s *VMLogStore) List(ctx context.Context, vmResultID uuid.UUID) (model.VMLogList, error) {
	var entries model.VMLogList
	err := s.getDB(ctx).WithContext(ctx).
		Where("vm_result_id = ?", vmResultID).
		Order("id").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (s *VMLogStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
