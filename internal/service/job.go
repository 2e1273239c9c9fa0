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

type JobService struct {
	store       store.Store
	eventWriter *events.EventProducer
}

func NewJobService(store store.Store, eventWriter *events.EventProducer) *JobService {
	return &JobService{store: store, eventWriter: eventWriter}
}

// CreateJob opens a new job in Running state. A blank type defaults to
// "Backup"; the payload is stored verbatim and never interpreted.
func (s *JobService) CreateJob(ctx context.Context, form mappers.JobCreateForm) (*model.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := validate.Struct(form); err != nil {
		return nil, NewErrInvalidForm(err)
	}

	job, err := s.store.Job().Create(ctx, form.ToJob())
	if err != nil {
		return nil, err
	}

	metrics.IncreaseJobsStartedTotalMetric()
	s.emitJobEvent(ctx, job)

	return job, nil
}

// UpdateJobStatus records a progress note. The status is overwritten in
// place and CompletedAt is not touched; an update that would move a finished
// job back to Running is logged and ignored. ErrorMessage is written only
// when non-blank.
func (s *JobService) UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status model.JobStatus, errorMessage string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !status.IsValid() {
		return NewErrInvalidJobStatus(string(status))
	}

	job, err := s.store.Job().Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrJobNotFound(jobID)
		}
		return err
	}

	if !job.Status.CanTransitionTo(status) {
		zap.S().Named("job_service").Warnw("ignoring status update on finished job",
			"job_id", jobID, "current_status", job.Status, "requested_status", status)
		return nil
	}

	job.Status = status
	fields := []string{"status"}
	if errorMessage != "" {
		job.ErrorMessage = errorMessage
		fields = append(fields, "error_message")
	}

	if _, err := s.store.Job().Update(ctx, *job, fields...); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrJobNotFound(jobID)
		}
		return err
	}

	return nil
}

// CompleteJob sets the caller-chosen terminal status and stamps CompletedAt.
// A blank finalStatus defaults to Completed. Calling it again on a finished
// job overwrites the prior terminal state and timestamp, last write wins.
func (s *JobService) CompleteJob(ctx context.Context, jobID uuid.UUID, finalStatus model.JobStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if finalStatus == "" {
		finalStatus = model.JobStatusCompleted
	}
	if !finalStatus.IsValid() {
		return NewErrInvalidJobStatus(string(finalStatus))
	}
	if !finalStatus.IsTerminal() {
		return NewErrNonTerminalStatus(finalStatus)
	}

	now := time.Now().UTC()
	job := model.Job{ID: jobID, Status: finalStatus, CompletedAt: &now}

	updated, err := s.store.Job().Update(ctx, job, "status", "completed_at")
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrJobNotFound(jobID)
		}
		return err
	}

	metrics.IncreaseJobsCompletedTotalMetric(string(finalStatus))
	s.emitJobEvent(ctx, updated)

	return nil
}

// FailJob marks the job Failed with the given message. It reports whether
// the job existed: (true, nil) when updated, (false, nil) when the id is
// unknown.
func (s *JobService) FailJob(ctx context.Context, jobID uuid.UUID, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	now := time.Now().UTC()
	job := model.Job{ID: jobID, Status: model.JobStatusFailed, ErrorMessage: message, CompletedAt: &now}

	updated, err := s.store.Job().Update(ctx, job, "status", "error_message", "completed_at")
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	metrics.IncreaseJobsCompletedTotalMetric(string(model.JobStatusFailed))
	s.emitJobEvent(ctx, updated)

	return true, nil
}

func (s *JobService) GetJob(ctx context.Context, jobID uuid.UUID) (*model.Job, error) {
	job, err := s.store.Job().Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(jobID)
		}
		return nil, err
	}

	return job, nil
}

func (s *JobService) ListJobs(ctx context.Context, filter *JobFilter) (model.JobList, error) {
	storeFilter := store.NewJobQueryFilter()
	opts := store.NewJobQueryOptions().WithSortOrder(store.SortByCreatedTime)

	if filter != nil {
		if filter.Status != "" {
			storeFilter = storeFilter.ByStatus(filter.Status)
		}
		if filter.Type != "" {
			storeFilter = storeFilter.ByType(filter.Type)
		}
		if filter.RelatedVM != "" {
			storeFilter = storeFilter.ByRelatedVM(filter.RelatedVM)
		}
		if filter.Limit > 0 {
			opts = opts.WithLimit(filter.Limit)
		}
		if filter.Offset > 0 {
			opts = opts.WithOffset(filter.Offset)
		}
	}

	return s.store.Job().List(ctx, storeFilter, opts)
}

// Outcome derives the dominant outcome of a job from its per-VM results.
// Read-only: the persisted status remains whatever the caller set.
func (s *JobService) Outcome(ctx context.Context, jobID uuid.UUID) (model.JobStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if _, err := s.store.Job().Get(ctx, jobID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return "", NewErrJobNotFound(jobID)
		}
		return "", err
	}

	results, err := s.store.VMResult().List(ctx, store.NewVMResultQueryFilter().ByJobID(jobID), nil)
	if err != nil {
		return "", err
	}

	return model.DeriveJobOutcome(results), nil
}

func (s *JobService) emitJobEvent(ctx context.Context, job *model.Job) {
	if s.eventWriter == nil {
		return
	}

	event := events.JobEvent{
		JobID:        job.ID.String(),
		Type:         job.Type,
		RelatedVM:    job.RelatedVM,
		Status:       string(job.Status),
		ErrorMessage: job.ErrorMessage,
		Timestamp:    time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	if err := s.eventWriter.Write(ctx, events.JobMessageKind, bytes.NewBuffer(data)); err != nil {
		zap.S().Named("job_service").Errorw("failed to write event",
			"error", err, "event_kind", events.JobMessageKind)
	}
}

type JobFilterFunc func(f *JobFilter)

type JobFilter struct {
	Status    model.JobStatus
	Type      string
	RelatedVM string
	Limit     int
	Offset    int
}

func NewJobFilter(filters ...JobFilterFunc) *JobFilter {
	f := &JobFilter{}
	for _, fn := range filters {
		fn(f)
	}
	return f
}

func (f *JobFilter) WithOption(o JobFilterFunc) *JobFilter {
	o(f)
	return f
}

func WithJobStatus(status model.JobStatus) JobFilterFunc {
	return func(f *JobFilter) {
		f.Status = status
	}
}

func WithJobType(jobType string) JobFilterFunc {
	return func(f *JobFilter) {
		f.Type = jobType
	}
}

func WithRelatedVM(label string) JobFilterFunc {
	return func(f *JobFilter) {
		f.RelatedVM = label
	}
}

func WithLimit(limit int) JobFilterFunc {
	return func(f *JobFilter) {
		f.Limit = limit
	}
}

func WithOffset(offset int) JobFilterFunc {
	return func(f *JobFilter) {
		f.Offset = offset
	}
}
