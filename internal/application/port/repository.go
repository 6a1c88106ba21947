package port

import (
	"context"

	"github.com/garyjia/budget-ledger/internal/domain/entity"
)

// Get* methods return (nil, nil) when the record does not exist.

// CategoryRepository defines persistence operations for Category
type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id int64) (*entity.Category, error)

	// GetByNameAndYear resolves the string category reference carried by requests
	GetByNameAndYear(ctx context.Context, name string, year int) (*entity.Category, error)

	ListByYear(ctx context.Context, year int) ([]*entity.Category, error)

	// AdjustUsed atomically adds delta (which may be negative) to the used counter
	AdjustUsed(ctx context.Context, id int64, delta entity.Money) error
}

// SubActivityRepository defines persistence operations for SubActivity
type SubActivityRepository interface {
	Create(ctx context.Context, sub *entity.SubActivity) error
	GetByID(ctx context.Context, id int64) (*entity.SubActivity, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]*entity.SubActivity, error)
}

// RequestFilter narrows request listings
type RequestFilter struct {
	Status string
	Limit  int
	Offset int
}

// CommittedTotals is the aggregate over non-rejected requests of a sub-activity
type CommittedTotals struct {
	Amount   entity.Money
	Returned entity.Money
}

// RequestRepository defines persistence operations for BudgetRequest.
// Requests are loaded without their line items; see ExpenseItemRepository.
type RequestRepository interface {
	Create(ctx context.Context, req *entity.BudgetRequest) error
	GetByID(ctx context.Context, id int64) (*entity.BudgetRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]*entity.BudgetRequest, error)

	// Update persists status, actuals, approval and completion fields
	Update(ctx context.Context, req *entity.BudgetRequest) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error

	// SumCommittedBySubActivity aggregates amount and return amount over
	// requests on the sub-activity whose status is not rejected
	SumCommittedBySubActivity(ctx context.Context, subActivityID int64) (*CommittedTotals, error)
}

// ExpenseItemRepository defines persistence operations for ExpenseLineItem
type ExpenseItemRepository interface {
	Create(ctx context.Context, item *entity.ExpenseLineItem) error
	GetByRequestID(ctx context.Context, requestID int64) ([]*entity.ExpenseLineItem, error)
	UpdateActual(ctx context.Context, id int64, actual entity.Money) error
}

// BudgetLogRepository defines persistence operations for the append-only BudgetLog
type BudgetLogRepository interface {
	Create(ctx context.Context, log *entity.BudgetLog) error
	ListByCategory(ctx context.Context, categoryID int64) ([]*entity.BudgetLog, error)
	ListByYear(ctx context.Context, year int) ([]*entity.BudgetLog, error)
}

// ExpenseRepository defines persistence operations for materialized Expense records
type ExpenseRepository interface {
	Create(ctx context.Context, expense *entity.Expense) error
	ListByCategory(ctx context.Context, categoryID int64) ([]*entity.Expense, error)
	DeleteByRequestID(ctx context.Context, requestID int64) (int64, error)
	DeleteByDescriptionPrefix(ctx context.Context, prefix string) (int64, error)
}

// ActivityLogRepository defines persistence operations for ActivityLog
type ActivityLogRepository interface {
	Create(ctx context.Context, log *entity.ActivityLog) error
	ListByRequestID(ctx context.Context, requestID int64) ([]*entity.ActivityLog, error)
}

// TransactionManager handles database transactions.
// Repositories called with the ctx passed to fn join the transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
