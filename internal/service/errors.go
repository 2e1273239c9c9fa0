package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/pvetools/backup-tracker/internal/store/model"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id uuid.UUID, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrJobNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "job")
}

func NewErrVMResultNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "vm result")
}

type ErrInvalidStatus struct {
	error
}

func NewErrInvalidJobStatus(s string) *ErrInvalidStatus {
	return &ErrInvalidStatus{fmt.Errorf("unknown job status %q", s)}
}

func NewErrInvalidVMResultStatus(s string) *ErrInvalidStatus {
	return &ErrInvalidStatus{fmt.Errorf("unknown vm result status %q", s)}
}

func NewErrNonTerminalStatus(s model.JobStatus) *ErrInvalidStatus {
	return &ErrInvalidStatus{fmt.Errorf("job status %q is not terminal", s)}
}

type ErrInvalidForm struct {
	error
}

func NewErrInvalidForm(err error) *ErrInvalidForm {
	return &ErrInvalidForm{fmt.Errorf("bad request: %s", err)}
}
