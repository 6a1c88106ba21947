package service

import (
	"errors"
	"fmt"

	"github.com/garyjia/budget-ledger/internal/domain/entity"
	"github.com/garyjia/budget-ledger/internal/domain/workflow"
)

// ValidationError reports bad or missing caller input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InsufficientBudgetError is returned when a request would exceed its sub-activity allocation
type InsufficientBudgetError struct {
	SubActivityID int64
	Remaining     entity.Money
	Requested     entity.Money
}

func (e *InsufficientBudgetError) Error() string {
	return fmt.Sprintf("insufficient budget: remaining %s, requested %s", e.Remaining, e.Requested)
}

// NotFoundError is returned when a referenced record does not exist
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// InvalidStateError is returned when an operation is not allowed from the request's status
type InvalidStateError struct {
	RequestID int64
	Status    string
	Action    string
	Err       error
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s request %d in status %s", e.Action, e.RequestID, e.Status)
}

func (e *InvalidStateError) Unwrap() error {
	if e.Err == nil {
		return workflow.ErrInvalidTransition
	}
	return e.Err
}

// IsValidation reports whether err is a caller input problem, including insufficient budget
func IsValidation(err error) bool {
	var ve *ValidationError
	var ib *InsufficientBudgetError
	return errors.As(err, &ve) || errors.As(err, &ib)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsInvalidState reports whether err is an InvalidStateError
func IsInvalidState(err error) bool {
	var is *InvalidStateError
	return errors.As(err, &is)
}

func newValidationError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
