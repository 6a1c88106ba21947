package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/budget-ledger/internal/application/port"
	"github.com/garyjia/budget-ledger/internal/domain/entity"
)

// Direction selects whether a true-up is applied or undone
type Direction int

const (
	// Apply runs the completion true-up
	Apply Direction = 1
	// Undo reverses a previous true-up
	Undo Direction = -1
)

// Attribution is the committed and actual amount of a request charged to one category
type Attribution struct {
	Category  string
	Allocated entity.Money
	Actual    entity.Money
}

// Net returns actual minus allocated
func (a Attribution) Net() entity.Money {
	return a.Actual - a.Allocated
}

// Attribute splits a request across categories. Without line items the whole
// request belongs to its own category; with items each item's total and actual
// go to the item's category, falling back to the request's. Results are grouped
// by category name in first-seen order.
func Attribute(req *entity.BudgetRequest) []Attribution {
	if !req.HasItems() {
		return []Attribution{{
			Category:  req.Category,
			Allocated: req.Amount,
			Actual:    entity.ValueOrZero(req.ActualAmount),
		}}
	}

	index := make(map[string]int)
	var result []Attribution
	for _, item := range req.ExpenseItems {
		name := item.CategoryOr(req.Category)
		i, ok := index[name]
		if !ok {
			i = len(result)
			index[name] = i
			result = append(result, Attribution{Category: name})
		}
		result[i].Allocated += item.Total
		result[i].Actual += entity.ValueOrZero(item.ActualAmount)
	}
	return result
}

// Delta is one change applied to a category's used counter
type Delta struct {
	CategoryID   int64        `json:"category_id"`
	CategoryName string       `json:"category"`
	Amount       entity.Money `json:"amount"`
	LogType      string       `json:"log_type,omitempty"`
}

// ReconciliationEngine keeps Category.used in step with request transitions
type ReconciliationEngine struct {
	resolver     *CategoryResolver
	categoryRepo port.CategoryRepository
	logRepo      port.BudgetLogRepository
	now          func() time.Time
	logger       Logger
}

// NewReconciliationEngine creates a reconciliation engine
func NewReconciliationEngine(
	resolver *CategoryResolver,
	categoryRepo port.CategoryRepository,
	logRepo port.BudgetLogRepository,
	now func() time.Time,
	logger Logger,
) *ReconciliationEngine {
	if now == nil {
		now = time.Now
	}
	return &ReconciliationEngine{
		resolver:     resolver,
		categoryRepo: categoryRepo,
		logRepo:      logRepo,
		now:          now,
		logger:       logger,
	}
}

// Commit charges the request's allocated amounts to their categories on approval.
// No budget log is written for commitments.
func (e *ReconciliationEngine) Commit(ctx context.Context, req *entity.BudgetRequest) ([]Delta, error) {
	var deltas []Delta
	for _, a := range Attribute(req) {
		if a.Allocated == 0 {
			continue
		}

		res, err := e.resolver.Resolve(ctx, a.Category)
		if err != nil {
			return nil, err
		}
		if !res.Found() {
			continue
		}

		if err := e.categoryRepo.AdjustUsed(ctx, res.Category.ID, a.Allocated); err != nil {
			return nil, fmt.Errorf("commit to category %s: %w", a.Category, err)
		}
		deltas = append(deltas, Delta{
			CategoryID:   res.Category.ID,
			CategoryName: a.Category,
			Amount:       a.Allocated,
		})
	}
	return deltas, nil
}

// Reconcile trues up used from the committed amount to actual spend. Undo applies
// the exact opposite deltas with the log roles swapped, so Apply followed by Undo
// leaves every category's used unchanged. Categories are resolved in the fiscal
// year of req.CompletedAt, so an undo after a year boundary still lands on the
// categories the completion adjusted.
func (e *ReconciliationEngine) Reconcile(ctx context.Context, req *entity.BudgetRequest, dir Direction, user string) ([]Delta, error) {
	year := e.resolver.CurrentYear()
	if req.CompletedAt != nil {
		year = e.resolver.YearOf(*req.CompletedAt)
	}

	var deltas []Delta
	for _, a := range Attribute(req) {
		net := a.Net()
		if net == 0 {
			continue
		}

		res, err := e.resolver.ResolveIn(ctx, a.Category, year)
		if err != nil {
			return nil, err
		}
		if !res.Found() {
			continue
		}

		delta := net * entity.Money(dir)
		if err := e.categoryRepo.AdjustUsed(ctx, res.Category.ID, delta); err != nil {
			return nil, fmt.Errorf("reconcile category %s: %w", a.Category, err)
		}

		log := &entity.BudgetLog{
			CategoryID: res.Category.ID,
			Amount:     delta.Abs(),
			Type:       logTypeFor(delta),
			Reason:     reconcileReason(net, dir, req.Project, a.Category),
			User:       user,
			CreatedAt:  e.now(),
		}
		if err := e.logRepo.Create(ctx, log); err != nil {
			return nil, fmt.Errorf("write budget log: %w", err)
		}

		e.logger.Info("Category reconciled",
			"request_id", req.ID,
			"category", a.Category,
			"delta", delta.String(),
			"type", log.Type)

		deltas = append(deltas, Delta{
			CategoryID:   res.Category.ID,
			CategoryName: a.Category,
			Amount:       delta,
			LogType:      log.Type,
		})
	}
	return deltas, nil
}

func logTypeFor(delta entity.Money) string {
	if delta < 0 {
		return entity.LogTypeReduce
	}
	return entity.LogTypeAdd
}

func reconcileReason(net entity.Money, dir Direction, project, category string) string {
	reason := "charge overage"
	if net < 0 {
		reason = "return unused budget"
	}
	reason = fmt.Sprintf("%s: %s (%s)", reason, project, category)
	if dir == Undo {
		reason = "cancel close-out: " + reason
	}
	return reason
}
