package workflow

import "github.com/garyjia/budget-ledger/internal/domain/entity"

// State represents a budget request status in the lifecycle
type State string

const (
	StatePending             State = entity.StatusPending
	StateApproved            State = entity.StatusApproved
	StateRejected            State = entity.StatusRejected
	StateWaitingVerification State = entity.StatusWaitingVerification
	StateCompleted           State = entity.StatusCompleted
)

// IsTerminal returns true if no forward transition leaves the state.
// Completed is not terminal: it can be reverted.
func (s State) IsTerminal() bool {
	return s == StateRejected
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid request status
func (s State) IsValid() bool {
	return entity.IsValidStatus(string(s))
}
