package events

import "time"

// JobEvent is emitted when a job is created and on every terminal
// transition.
type JobEvent struct {
	JobID        string    `json:"job_id"`
	Type         string    `json:"type"`
	RelatedVM    string    `json:"related_vm,omitempty"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// VMResultEvent is emitted when a VM enters a job and when it reaches a
// terminal status.
type VMResultEvent struct {
	VMResultID   string    `json:"vm_result_id"`
	JobID        string    `json:"job_id"`
	VMID         int       `json:"vmid"`
	VMName       string    `json:"vm_name"`
	Status       string    `json:"status"`
	Reason       string    `json:"reason,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
