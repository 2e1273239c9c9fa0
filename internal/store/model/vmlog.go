package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Log levels are free text; these are the conventional values.
const (
	LogLevelInfo  = "Info"
	LogLevelWarn  = "Warn"
	LogLevelError = "Error"
)

// VMLog is one immutable diagnostic line attached to a VM result. Rows are
// never updated or deleted; the autoincrement id preserves insertion order.
type VMLog struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	VMResultID uuid.UUID `gorm:"column:vm_result_id;type:VARCHAR(255);not null;index:vm_logs_vm_result_id_idx"`
	Level      string    `gorm:"column:level;type:VARCHAR(32);not null"`
	Message    string    `gorm:"column:message"`
	Timestamp  time.Time `gorm:"column:timestamp;not null"`
}

type VMLogList []VMLog

func (VMLog) TableName() string {
	return "vm_logs"
}

func (l VMLog) String() string {
	val, _ := json.Marshal(l)
	return string(val)
}
