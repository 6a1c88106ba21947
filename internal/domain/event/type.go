package event

import "github.com/garyjia/budget-ledger/internal/domain/entity"

// Type identifies the type of domain event
type Type string

const (
	TypeRequestCreated          Type = "request.created"
	TypeRequestApproved         Type = "request.approved"
	TypeRequestRejected         Type = "request.rejected"
	TypeExpenseSubmitted        Type = "request.expense_submitted"
	TypeExpenseRejected         Type = "request.expense_rejected"
	TypeRequestCompleted        Type = "request.completed"
	TypeRequestCompleteReverted Type = "request.complete_reverted"
	TypeStatusChanged           Type = "request.status_changed"
	TypeRequestDeleted          Type = "request.deleted"
)

var actions = map[Type]string{
	TypeRequestCreated:          entity.ActionCreateRequest,
	TypeRequestApproved:         entity.ActionApproveRequest,
	TypeRequestRejected:         entity.ActionRejectRequest,
	TypeExpenseSubmitted:        entity.ActionSubmitExpense,
	TypeExpenseRejected:         entity.ActionRejectExpense,
	TypeRequestCompleted:        entity.ActionCompleteRequest,
	TypeRequestCompleteReverted: entity.ActionRevertComplete,
	TypeStatusChanged:           entity.ActionUpdateStatus,
	TypeRequestDeleted:          entity.ActionDeleteRequest,
}

// AllTypes lists every event type, in lifecycle order.
func AllTypes() []Type {
	return []Type{
		TypeRequestCreated,
		TypeRequestApproved,
		TypeRequestRejected,
		TypeExpenseSubmitted,
		TypeExpenseRejected,
		TypeRequestCompleted,
		TypeRequestCompleteReverted,
		TypeStatusChanged,
		TypeRequestDeleted,
	}
}

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	_, ok := actions[t]
	return ok
}

// Action returns the activity-log action recorded for this event type
func (t Type) Action() string {
	return actions[t]
}
