package entity

import "time"

// BudgetRequest is a spending request against a category (referenced by name)
// and optionally a sub-activity.
type BudgetRequest struct {
	ID              int64              `json:"id"`
	Project         string             `json:"project"`
	Category        string             `json:"category"`
	SubActivityID   *int64             `json:"sub_activity_id,omitempty"`
	RequesterID     string             `json:"requester_id"`
	Amount          Money              `json:"amount"`
	ActualAmount    *Money             `json:"actual_amount,omitempty"`
	ReturnAmount    *Money             `json:"return_amount,omitempty"`
	Status          string             `json:"status"`
	ApproverID      string             `json:"approver_id,omitempty"`
	ApprovedAt      *time.Time         `json:"approved_at,omitempty"`
	CompletedAt     *time.Time         `json:"completed_at,omitempty"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	ExpenseItems    []*ExpenseLineItem `json:"expense_items"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// HasItems reports whether reconciliation attributes per line item.
func (r *BudgetRequest) HasItems() bool {
	return len(r.ExpenseItems) > 0
}

// ExpenseLineItem is one planned or reported expense of a request. Total is
// fixed at creation time and never recomputed from actuals.
type ExpenseLineItem struct {
	ID           int64   `json:"id"`
	RequestID    int64   `json:"request_id"`
	Category     string  `json:"category"`
	Description  string  `json:"description"`
	Quantity     float64 `json:"quantity"`
	UnitPrice    Money   `json:"unit_price"`
	Total        Money   `json:"total"`
	ActualAmount *Money  `json:"actual_amount,omitempty"`
}

// CategoryOr returns the item's category, falling back to the request's.
func (i *ExpenseLineItem) CategoryOr(fallback string) string {
	if i.Category == "" {
		return fallback
	}
	return i.Category
}
