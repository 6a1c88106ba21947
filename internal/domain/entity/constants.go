package entity

// Status constants for BudgetRequest
const (
	StatusPending             = "pending"
	StatusApproved            = "approved"
	StatusRejected            = "rejected"
	StatusWaitingVerification = "waiting_verification"
	StatusCompleted           = "completed"
)

// IsValidStatus reports whether s is one of the request statuses.
func IsValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusWaitingVerification, StatusCompleted:
		return true
	}
	return false
}

// Budget log types
const (
	LogTypeAdd         = "ADD"
	LogTypeReduce      = "REDUCE"
	LogTypeTransferIn  = "TRANSFER_IN"
	LogTypeTransferOut = "TRANSFER_OUT"
)

// Activity actions recorded for request lifecycle operations
const (
	ActionCreateRequest   = "CREATE_REQUEST"
	ActionApproveRequest  = "APPROVE_REQUEST"
	ActionRejectRequest   = "REJECT_REQUEST"
	ActionSubmitExpense   = "SUBMIT_EXPENSE"
	ActionRejectExpense   = "REJECT_EXPENSE"
	ActionCompleteRequest = "COMPLETE_REQUEST"
	ActionRevertComplete  = "REVERT_COMPLETE"
	ActionUpdateStatus    = "UPDATE_STATUS"
	ActionDeleteRequest   = "DELETE_REQUEST"
)

// TempItemPrefix marks expense line items created client-side during expense reporting.
const TempItemPrefix = "temp-"

// DefaultExpenseDescription is used when a materialized expense has no description of its own.
const DefaultExpenseDescription = "Project Expense"

// SystemUser is recorded as the actor when no user is known.
const SystemUser = "system"
