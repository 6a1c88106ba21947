package workflow

// Trigger represents a lifecycle operation that can cause a state transition
type Trigger string

const (
	TriggerApprove        Trigger = "APPROVE"
	TriggerReject         Trigger = "REJECT"
	TriggerSubmitExpense  Trigger = "SUBMIT_EXPENSE"
	TriggerRejectExpense  Trigger = "REJECT_EXPENSE"
	TriggerComplete       Trigger = "COMPLETE"
	TriggerRevertComplete Trigger = "REVERT_COMPLETE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
