package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/budget-ledger/internal/application/port"
	"github.com/garyjia/budget-ledger/internal/domain/entity"
)

// Expense revert modes
const (
	RevertByRequestID     = "request_id"
	RevertByProjectPrefix = "project_prefix"
)

// ExpenseMaterializer writes Expense records when a request completes and
// removes them when the completion is reverted
type ExpenseMaterializer struct {
	resolver    *CategoryResolver
	expenseRepo port.ExpenseRepository
	revertMode  string
	now         func() time.Time
	logger      Logger
}

// NewExpenseMaterializer creates an expense materializer. An empty revertMode
// selects RevertByRequestID.
func NewExpenseMaterializer(resolver *CategoryResolver, expenseRepo port.ExpenseRepository, revertMode string, now func() time.Time, logger Logger) *ExpenseMaterializer {
	if revertMode == "" {
		revertMode = RevertByRequestID
	}
	if now == nil {
		now = time.Now
	}
	return &ExpenseMaterializer{
		resolver:    resolver,
		expenseRepo: expenseRepo,
		revertMode:  revertMode,
		now:         now,
		logger:      logger,
	}
}

// ProjectPrefix is the description prefix of expenses materialized for a project
func ProjectPrefix(project string) string {
	return "[" + project + "]"
}

// Materialize creates one expense per line item (or for the request itself
// when it has none) with a positive actual amount
func (m *ExpenseMaterializer) Materialize(ctx context.Context, req *entity.BudgetRequest) ([]*entity.Expense, error) {
	type source struct {
		category    string
		description string
		actual      entity.Money
	}

	var sources []source
	if req.HasItems() {
		for _, item := range req.ExpenseItems {
			sources = append(sources, source{
				category:    item.CategoryOr(req.Category),
				description: item.Description,
				actual:      entity.ValueOrZero(item.ActualAmount),
			})
		}
	} else {
		sources = append(sources, source{
			category: req.Category,
			actual:   entity.ValueOrZero(req.ActualAmount),
		})
	}

	requestID := req.ID
	var created []*entity.Expense
	for _, src := range sources {
		if src.actual <= 0 {
			continue
		}

		res, err := m.resolver.Resolve(ctx, src.category)
		if err != nil {
			return nil, err
		}
		if !res.Found() {
			continue
		}

		desc := src.description
		if desc == "" {
			desc = entity.DefaultExpenseDescription
		}

		expense := &entity.Expense{
			CategoryID:  res.Category.ID,
			RequestID:   &requestID,
			Amount:      src.actual,
			Payee:       req.RequesterID,
			Date:        m.now(),
			Description: fmt.Sprintf("%s %s", ProjectPrefix(req.Project), desc),
		}
		if err := m.expenseRepo.Create(ctx, expense); err != nil {
			return nil, fmt.Errorf("materialize expense: %w", err)
		}
		created = append(created, expense)
	}

	return created, nil
}

// Revert removes the expenses materialized for req and returns how many were deleted
func (m *ExpenseMaterializer) Revert(ctx context.Context, req *entity.BudgetRequest) (int64, error) {
	var (
		n   int64
		err error
	)
	switch m.revertMode {
	case RevertByProjectPrefix:
		n, err = m.expenseRepo.DeleteByDescriptionPrefix(ctx, ProjectPrefix(req.Project))
	default:
		n, err = m.expenseRepo.DeleteByRequestID(ctx, req.ID)
	}
	if err != nil {
		return 0, fmt.Errorf("revert materialized expenses: %w", err)
	}

	m.logger.Info("Materialized expenses removed", "request_id", req.ID, "mode", m.revertMode, "count", n)
	return n, nil
}
