package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pvetools/backup-tracker/internal/store"
	"github.com/pvetools/backup-tracker/internal/store/model"
)

// LogService appends diagnostic lines to VM records. Entries are immutable
// and never touch Job or VMResult state.
type LogService struct {
	store store.Store
}

func NewLogService(store store.Store) *LogService {
	return &LogService{store: store}
}

// LogVM appends one line with the current UTC timestamp. A blank level
// defaults to Info.
func (s *LogService) LogVM(ctx context.Context, vmResultID uuid.UUID, message, level string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if level == "" {
		level = model.LogLevelInfo
	}

	if _, err := s.store.VMResult().Get(ctx, vmResultID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrVMResultNotFound(vmResultID)
		}
		return err
	}

	entry := model.VMLog{
		VMResultID: vmResultID,
		Level:      level,
		Message:    message,
		Timestamp:  time.Now().UTC(),
	}

	if _, err := s.store.VMLog().Create(ctx, entry); err != nil {
		return err
	}

	return nil
}

// ListByResult returns a VM's log lines in insertion order.
func (s *LogService) ListByResult(ctx context.Context, vmResultID uuid.UUID) (model.VMLogList, error) {
	if _, err := s.store.VMResult().Get(ctx, vmResultID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrVMResultNotFound(vmResultID)
		}
		return nil, err
	}

	return s.store.VMLog().List(ctx, vmResultID)
}
