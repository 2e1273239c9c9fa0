package mappers

import (
	"time"

	"github.com/google/uuid"

	"github.com/pvetools/backup-tracker/internal/store/model"
)

// JobCreateForm carries the caller-provided fields of a new backup job.
type JobCreateForm struct {
	Type      string `validate:"max=255"`
	RelatedVM string `validate:"max=255"`
	Payload   []byte
}

func (f JobCreateForm) ToJob() model.Job {
	jobType := f.Type
	if jobType == "" {
		jobType = model.DefaultJobType
	}
	return model.Job{
		ID:        uuid.New(),
		Type:      jobType,
		RelatedVM: f.RelatedVM,
		Payload:   f.Payload,
		Status:    model.JobStatusRunning,
		StartedAt: time.Now().UTC(),
	}
}

// VMBeginForm carries the identifying fields of a guest entering a job.
type VMBeginForm struct {
	JobID       uuid.UUID `validate:"required"`
	VMID        int       `validate:"required,gt=0"`
	VMName      string    `validate:"required,max=255"`
	HostName    string    `validate:"max=255"`
	StorageName string    `validate:"max=255"`
}

func (f VMBeginForm) ToVMResult() model.VMResult {
	return model.VMResult{
		ID:          uuid.New(),
		JobID:       f.JobID,
		VMID:        f.VMID,
		VMName:      f.VMName,
		HostName:    f.HostName,
		StorageName: f.StorageName,
		Status:      model.VMResultStatusPending,
		StartedAt:   time.Now().UTC(),
	}
}
