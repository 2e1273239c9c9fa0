package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"
)

// DefaultJobType is used when a job is created with a blank type.
const DefaultJobType = "Backup"

type JobStatus string

// Job status values. Running is the initial state, the other three are
// terminal.
const (
	JobStatusRunning   JobStatus = "Running"
	JobStatusCompleted JobStatus = "Completed"
	JobStatusWarning   JobStatus = "Warning"
	JobStatusFailed    JobStatus = "Failed"
)

// jobTransitions is the closed transition table. A terminal job may be
// completed again with a different terminal value (last write wins) but never
// returns to Running.
var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusRunning:   {JobStatusRunning, JobStatusCompleted, JobStatusWarning, JobStatusFailed},
	JobStatusCompleted: {JobStatusCompleted, JobStatusWarning, JobStatusFailed},
	JobStatusWarning:   {JobStatusCompleted, JobStatusWarning, JobStatusFailed},
	JobStatusFailed:    {JobStatusCompleted, JobStatusWarning, JobStatusFailed},
}

func ParseJobStatus(s string) (JobStatus, error) {
	status := JobStatus(s)
	if _, found := jobTransitions[status]; !found {
		return "", fmt.Errorf("unknown job status %q", s)
	}
	return status, nil
}

func (s JobStatus) IsValid() bool {
	_, found := jobTransitions[s]
	return found
}

func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusWarning, JobStatusFailed:
		return true
	default:
		return false
	}
}

func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	return funk.Contains(jobTransitions[s], next)
}

type Job struct {
	ID           uuid.UUID  `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	Type         string     `gorm:"column:type;not null"`
	RelatedVM    string     `gorm:"column:related_vm"`
	Payload      []byte     `gorm:"column:payload"`
	Status       JobStatus  `gorm:"column:status;type:VARCHAR(32);not null;index:jobs_status_idx"`
	ErrorMessage string     `gorm:"column:error_message"`
	StartedAt    time.Time  `gorm:"column:started_at;not null"`
	CompletedAt  *time.Time `gorm:"column:completed_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt    *time.Time `gorm:"column:updated_at"`
	Results      []VMResult `gorm:"foreignKey:JobID;references:ID;constraint:OnDelete:CASCADE;"`
}

type JobList []Job

func (Job) TableName() string {
	return "jobs"
}

func (j Job) String() string {
	val, _ := json.Marshal(j)
	return string(val)
}

// DeriveJobOutcome computes the dominant outcome of a job from its per-VM
// results. Informational only: the persisted job status is always the one set
// by the caller, never this value.
func DeriveJobOutcome(results []VMResult) JobStatus {
	if len(results) == 0 {
		return JobStatusCompleted
	}

	pending, failed, warned := 0, 0, 0
	for _, r := range results {
		switch r.Status {
		case VMResultStatusPending:
			pending++
		case VMResultStatusFailed:
			failed++
		case VMResultStatusWarning:
			warned++
		}
	}

	switch {
	case pending > 0:
		return JobStatusRunning
	case failed == len(results):
		return JobStatusFailed
	case failed > 0 || warned > 0:
		return JobStatusWarning
	default:
		return JobStatusCompleted
	}
}
