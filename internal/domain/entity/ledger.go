package entity

import "time"

// BudgetLog is an append-only record of an adjustment to a category's used amount.
type BudgetLog struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"category_id"`
	Amount     Money     `json:"amount"`
	Type       string    `json:"type"`
	Reason     string    `json:"reason"`
	User       string    `json:"user"`
	CreatedAt  time.Time `json:"created_at"`
}

// Expense is a spend record materialized when a request completes.
type Expense struct {
	ID          int64     `json:"id"`
	CategoryID  int64     `json:"category_id"`
	RequestID   *int64    `json:"request_id,omitempty"`
	Amount      Money     `json:"amount"`
	Payee       string    `json:"payee"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
}

// ActivityLog records who did what to a request.
type ActivityLog struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	RequestID *int64    `json:"request_id,omitempty"`
	Metadata  string    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}
