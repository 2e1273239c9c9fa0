package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pvetools/backup-tracker/internal/events"
	"github.com/pvetools/backup-tracker/internal/service/mappers"
	"github.com/pvetools/backup-tracker/internal/store"
	"github.com/pvetools/backup-tracker/internal/store/model"
	"github.com/pvetools/backup-tracker/pkg/metrics"
)

// VMResultService tracks one VM's progress through a backup job. Expected
// call order, not enforced: BeginVM, optionally SetIOFreezeResult, optionally
// MarkSnapshotRequested then MarkSnapshotTaken, then exactly one terminal
// mark. Every call is an independent, immediately committed write, so a
// reader may observe any intermediate combination of flags.
type VMResultService struct {
	store       store.Store
	eventWriter *events.EventProducer
}

func NewVMResultService(store store.Store, eventWriter *events.EventProducer) *VMResultService {
	return &VMResultService{store: store, eventWriter: eventWriter}
}

// BeginVM opens a Pending record for a VM under an existing job.
func (s *VMResultService) BeginVM(ctx context.Context, form mappers.VMBeginForm) (*model.VMResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := validate.Struct(form); err != nil {
		return nil, NewErrInvalidForm(err)
	}

	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Job().Get(ctx, form.JobID); err != nil {
		_, _ = store.Rollback(ctx)
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(form.JobID)
		}
		return nil, err
	}

	result, err := s.store.VMResult().Create(ctx, form.ToVMResult())
	if err != nil {
		_, _ = store.Rollback(ctx)
		return nil, err
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.IncreaseVMResultsStartedTotalMetric()
	s.emitVMResultEvent(ctx, result)

	return result, nil
}

// MarkSkipped is terminal: the VM was left out of the backup for the given
// reason.
func (s *VMResultService) MarkSkipped(ctx context.Context, id uuid.UUID, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	update := model.VMResult{Status: model.VMResultStatusSkipped, Reason: reason}
	return s.markTerminal(ctx, id, update, []string{"reason"})
}

// SetIOFreezeResult records the guest quiesce attempt as one atomic write.
// No status change; all three flags are persisted even when false.
func (s *VMResultService) SetIOFreezeResult(ctx context.Context, id uuid.UUID, attempted, succeeded, wasRunning bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	update := model.VMResult{
		ID:                id,
		IOFreezeAttempted: attempted,
		IOFreezeSucceeded: succeeded,
		WasRunning:        wasRunning,
	}

	if _, err := s.store.VMResult().Update(ctx, update, "io_freeze_attempted", "io_freeze_succeeded", "was_running"); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrVMResultNotFound(id)
		}
		return err
	}

	return nil
}

// MarkSnapshotRequested records that the snapshot call was issued to the
// external system, together with its identifiers. The upid may be blank when
// the external system did not report one.
func (s *VMResultService) MarkSnapshotRequested(ctx context.Context, id uuid.UUID, snapshotName, upid string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	update := model.VMResult{
		ID:                id,
		SnapshotRequested: true,
		SnapshotName:      snapshotName,
		SnapshotUPID:      upid,
	}

	if _, err := s.store.VMResult().Update(ctx, update, "snapshot_requested", "snapshot_name", "snapshot_upid"); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrVMResultNotFound(id)
		}
		return err
	}

	return nil
}

// MarkSnapshotTaken records the external system's confirmation.
func (s *VMResultService) MarkSnapshotTaken(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	update := model.VMResult{ID: id, SnapshotTaken: true}

	if _, err := s.store.VMResult().Update(ctx, update, "snapshot_taken"); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrVMResultNotFound(id)
		}
		return err
	}

	return nil
}

// MarkSuccess is terminal. A non-nil backupRecordID links the produced
// backup artifact; nil leaves the column untouched.
func (s *VMResultService) MarkSuccess(ctx context.Context, id uuid.UUID, backupRecordID *int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	update := model.VMResult{Status: model.VMResultStatusSuccess}
	fields := []string{}
	if backupRecordID != nil {
		update.BackupRecordID = backupRecordID
		fields = append(fields, "backup_record_id")
	}

	return s.markTerminal(ctx, id, update, fields)
}

// MarkFailure is terminal: the VM's backup failed with the given error.
func (s *VMResultService) MarkFailure(ctx context.Context, id uuid.UUID, errorMessage string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	update := model.VMResult{Status: model.VMResultStatusFailed, ErrorMessage: errorMessage}
	return s.markTerminal(ctx, id, update, []string{"error_message"})
}

// MarkWarning is terminal: the backup went through with caveats. The note is
// recorded as the reason when non-blank.
func (s *VMResultService) MarkWarning(ctx context.Context, id uuid.UUID, note string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	update := model.VMResult{Status: model.VMResultStatusWarning}
	fields := []string{}
	if note != "" {
		update.Reason = note
		fields = append(fields, "reason")
	}

	return s.markTerminal(ctx, id, update, fields)
}

func (s *VMResultService) Get(ctx context.Context, id uuid.UUID) (*model.VMResult, error) {
	result, err := s.store.VMResult().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrVMResultNotFound(id)
		}
		return nil, err
	}

	return result, nil
}

func (s *VMResultService) ListByJob(ctx context.Context, jobID uuid.UUID) (model.VMResultList, error) {
	if _, err := s.store.Job().Get(ctx, jobID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(jobID)
		}
		return nil, err
	}

	filter := store.NewVMResultQueryFilter().ByJobID(jobID)
	opts := store.NewVMResultQueryOptions().WithSortOrder(store.SortByCreatedTime)

	return s.store.VMResult().List(ctx, filter, opts)
}

// markTerminal moves a record out of Pending. A second terminal mark on the
// same record is logged and ignored; the first one stands.
func (s *VMResultService) markTerminal(ctx context.Context, id uuid.UUID, update model.VMResult, fields []string) error {
	current, err := s.store.VMResult().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrVMResultNotFound(id)
		}
		return err
	}

	if !current.Status.CanTransitionTo(update.Status) {
		zap.S().Named("vm_result_service").Warnw("ignoring terminal mark on finished vm result",
			"vm_result_id", id, "current_status", current.Status, "requested_status", update.Status)
		return nil
	}

	now := time.Now().UTC()
	update.ID = id
	update.CompletedAt = &now
	fields = append(fields, "status", "completed_at")

	updated, err := s.store.VMResult().Update(ctx, update, fields...)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrVMResultNotFound(id)
		}
		return err
	}

	metrics.IncreaseVMResultsCompletedTotalMetric(string(update.Status))
	s.emitVMResultEvent(ctx, updated)

	return nil
}

func (s *VMResultService) emitVMResultEvent(ctx context.Context, result *model.VMResult) {
	if s.eventWriter == nil {
		return
	}

	event := events.VMResultEvent{
		VMResultID:   result.ID.String(),
		JobID:        result.JobID.String(),
		VMID:         result.VMID,
		VMName:       result.VMName,
		Status:       string(result.Status),
		Reason:       result.Reason,
		ErrorMessage: result.ErrorMessage,
		Timestamp:    time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	if err := s.eventWriter.Write(ctx, events.VMResultMessageKind, bytes.NewBuffer(data)); err != nil {
		zap.S().Named("vm_result_service").Errorw("failed to write event",
			"error", err, "event_kind", events.VMResultMessageKind)
	}
}
