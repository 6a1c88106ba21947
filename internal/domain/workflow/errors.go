package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a trigger is not allowed from the current status
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrUnknownStatus is returned when a request carries a status outside the lifecycle
	ErrUnknownStatus = errors.New("unknown request status")
)

// TransitionError records a rejected trigger
type TransitionError struct {
	From    State
	Trigger Trigger
	Err     error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: %s from %s", e.Err, e.Trigger, e.From)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}
