// Package v1alpha1 holds the wire types of the read-only inspection API.
package v1alpha1

import "time"

type Job struct {
	Id           string     `json:"id"`
	Type         string     `json:"type"`
	RelatedVm    string     `json:"relatedVm,omitempty"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	StartedAt    time.Time  `json:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

type JobList []Job

// JobDetail adds the read-only aggregation over the job's VM results. The
// persisted status is always the caller-set one; derivedOutcome is computed
// on read and never written back.
type JobDetail struct {
	Job
	DerivedOutcome string         `json:"derivedOutcome"`
	ResultCounts   map[string]int `json:"resultCounts"`
}

type VmResult struct {
	Id                string     `json:"id"`
	JobId             string     `json:"jobId"`
	Vmid              int        `json:"vmid"`
	VmName            string     `json:"vmName"`
	HostName          string     `json:"hostName,omitempty"`
	StorageName       string     `json:"storageName,omitempty"`
	Status            string     `json:"status"`
	Reason            string     `json:"reason,omitempty"`
	ErrorMessage      string     `json:"errorMessage,omitempty"`
	IoFreezeAttempted bool       `json:"ioFreezeAttempted"`
	IoFreezeSucceeded bool       `json:"ioFreezeSucceeded"`
	WasRunning        bool       `json:"wasRunning"`
	SnapshotRequested bool       `json:"snapshotRequested"`
	SnapshotName      string     `json:"snapshotName,omitempty"`
	SnapshotUpid      string     `json:"snapshotUpid,omitempty"`
	SnapshotTaken     bool       `json:"snapshotTaken"`
	BackupRecordId    *int64     `json:"backupRecordId,omitempty"`
	StartedAt         time.Time  `json:"startedAt"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
}

type VmResultList []VmResult

type VmLog struct {
	Id         uint      `json:"id"`
	VmResultId string    `json:"vmResultId"`
	Level      string    `json:"level"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

type VmLogList []VmLog

type ResourceStats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
}

type Stats struct {
	Jobs      ResourceStats `json:"jobs"`
	VmResults ResourceStats `json:"vmResults"`
}

type Error struct {
	Message   string  `json:"message"`
	RequestId *string `json:"requestId,omitempty"`
}
