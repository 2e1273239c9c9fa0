package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"
)

type VMResultStatus string

// Per-VM status values. Pending is the initial state, the other four are
// terminal.
const (
	VMResultStatusPending VMResultStatus = "Pending"
	VMResultStatusSuccess VMResultStatus = "Success"
	VMResultStatusFailed  VMResultStatus = "Failed"
	VMResultStatusSkipped VMResultStatus = "Skipped"
	VMResultStatusWarning VMResultStatus = "Warning"
)

// vmResultTransitions is the closed transition table. A VM result receives
// exactly one terminal status; terminal states have no outgoing transitions.
var vmResultTransitions = map[VMResultStatus][]VMResultStatus{
	VMResultStatusPending: {VMResultStatusSuccess, VMResultStatusFailed, VMResultStatusSkipped, VMResultStatusWarning},
	VMResultStatusSuccess: {},
	VMResultStatusFailed:  {},
	VMResultStatusSkipped: {},
	VMResultStatusWarning: {},
}

func ParseVMResultStatus(s string) (VMResultStatus, error) {
	status := VMResultStatus(s)
	if _, found := vmResultTransitions[status]; !found {
		return "", fmt.Errorf("unknown vm result status %q", s)
	}
	return status, nil
}

func (s VMResultStatus) IsValid() bool {
	_, found := vmResultTransitions[s]
	return found
}

func (s VMResultStatus) IsTerminal() bool {
	return s != VMResultStatusPending && s.IsValid()
}

func (s VMResultStatus) CanTransitionTo(next VMResultStatus) bool {
	return funk.Contains(vmResultTransitions[s], next)
}

// VMResult is one VM's participation in a job. The identifying fields (VMID,
// VMName, HostName, StorageName) are immutable after creation; the phase
// flags are written independently as the external backup steps progress, so a
// reader may observe any intermediate combination.
type VMResult struct {
	ID                uuid.UUID      `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	JobID             uuid.UUID      `gorm:"column:job_id;type:VARCHAR(255);not null;index:vm_results_job_id_idx"`
	VMID              int            `gorm:"column:vmid;not null"`
	VMName            string         `gorm:"column:vm_name;not null"`
	HostName          string         `gorm:"column:host_name"`
	StorageName       string         `gorm:"column:storage_name"`
	Status            VMResultStatus `gorm:"column:status;type:VARCHAR(32);not null;index:vm_results_status_idx"`
	Reason            string         `gorm:"column:reason"`
	ErrorMessage      string         `gorm:"column:error_message"`
	IOFreezeAttempted bool           `gorm:"column:io_freeze_attempted;not null;default:false"`
	IOFreezeSucceeded bool           `gorm:"column:io_freeze_succeeded;not null;default:false"`
	WasRunning        bool           `gorm:"column:was_running;not null;default:false"`
	SnapshotRequested bool           `gorm:"column:snapshot_requested;not null;default:false"`
	SnapshotName      string         `gorm:"column:snapshot_name"`
	SnapshotUPID      string         `gorm:"column:snapshot_upid"`
	SnapshotTaken     bool           `gorm:"column:snapshot_taken;not null;default:false"`
	BackupRecordID    *int64         `gorm:"column:backup_record_id"`
	StartedAt         time.Time      `gorm:"column:started_at;not null"`
	CompletedAt       *time.Time     `gorm:"column:completed_at"`
	CreatedAt         time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt         *time.Time     `gorm:"column:updated_at"`
	Logs              []VMLog        `gorm:"foreignKey:VMResultID;references:ID;constraint:OnDelete:CASCADE;"`
}

type VMResultList []VMResult

func (VMResult) TableName() string {
	return "vm_results"
}

func (r VMResult) String() string {
	val, _ := json.Marshal(r)
	return string(val)
}
