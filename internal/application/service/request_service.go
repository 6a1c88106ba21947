package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/garyjia/budget-ledger/internal/application/port"
	"github.com/garyjia/budget-ledger/internal/domain/entity"
	"github.com/garyjia/budget-ledger/internal/domain/event"
	"github.com/garyjia/budget-ledger/internal/domain/workflow"
)

// EventPublisher receives activity events after a lifecycle operation commits
type EventPublisher interface {
	Dispatch(ctx context.Context, evt *event.Event) error
}

// ExpenseItemInput is a line item as supplied by the caller. ID is empty or
// prefixed with entity.TempItemPrefix for items that do not exist yet.
type ExpenseItemInput struct {
	ID           string
	Category     string
	Description  string
	Quantity     float64
	UnitPrice    entity.Money
	Total        entity.Money
	ActualAmount *entity.Money
}

// CreateRequestInput carries the fields of a new budget request
type CreateRequestInput struct {
	Project       string
	Category      string
	SubActivityID *int64
	RequesterID   string
	Amount        entity.Money
	ExpenseItems  []ExpenseItemInput
}

// SubmitExpenseInput carries an expense report
type SubmitExpenseInput struct {
	ExpenseItems []ExpenseItemInput
	ActualTotal  entity.Money
	ReturnAmount entity.Money
}

// RequestService runs the budget request lifecycle
type RequestService interface {
	Create(ctx context.Context, actor string, input CreateRequestInput) (*entity.BudgetRequest, error)
	Approve(ctx context.Context, id int64, approverID string) (*entity.BudgetRequest, error)
	Reject(ctx context.Context, id int64, approverID, reason string) (*entity.BudgetRequest, error)
	SubmitExpense(ctx context.Context, id int64, actor string, input SubmitExpenseInput) (*entity.BudgetRequest, error)
	RejectExpense(ctx context.Context, id int64, actor, reason string) (*entity.BudgetRequest, error)
	Complete(ctx context.Context, id int64, actor string) (*entity.BudgetRequest, error)
	RevertComplete(ctx context.Context, id int64, actor string) (*entity.BudgetRequest, error)

	// UpdateStatus sets the status directly, without transition checks or reconciliation
	UpdateStatus(ctx context.Context, id int64, actor, status string) (*entity.BudgetRequest, error)

	// Delete removes the request without any compensating category adjustment
	Delete(ctx context.Context, id int64, actor string) error

	Get(ctx context.Context, id int64) (*entity.BudgetRequest, error)
	List(ctx context.Context, filter port.RequestFilter) ([]*entity.BudgetRequest, error)
	Activity(ctx context.Context, id int64) ([]*entity.ActivityLog, error)
}

// RequestServiceDeps groups the collaborators of the request service
type RequestServiceDeps struct {
	RequestRepo  port.RequestRepository
	ItemRepo     port.ExpenseItemRepository
	ActivityRepo port.ActivityLogRepository
	TxManager    port.TransactionManager
	Checker      *AllocationChecker
	Engine       *ReconciliationEngine
	Materializer *ExpenseMaterializer
	Events       EventPublisher
	Now          func() time.Time
	Logger       Logger
}

type requestServiceImpl struct {
	requestRepo  port.RequestRepository
	itemRepo     port.ExpenseItemRepository
	activityRepo port.ActivityLogRepository
	txManager    port.TransactionManager
	checker      *AllocationChecker
	engine       *ReconciliationEngine
	materializer *ExpenseMaterializer
	events       EventPublisher
	now          func() time.Time
	logger       Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(deps RequestServiceDeps) RequestService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &requestServiceImpl{
		requestRepo:  deps.RequestRepo,
		itemRepo:     deps.ItemRepo,
		activityRepo: deps.ActivityRepo,
		txManager:    deps.TxManager,
		checker:      deps.Checker,
		engine:       deps.Engine,
		materializer: deps.Materializer,
		events:       deps.Events,
		now:          now,
		logger:       deps.Logger,
	}
}

// Create validates and stores a new pending request with its line items
func (s *requestServiceImpl) Create(ctx context.Context, actor string, input CreateRequestInput) (*entity.BudgetRequest, error) {
	input.Project = strings.TrimSpace(input.Project)
	input.Category = strings.TrimSpace(input.Category)

	if input.Project == "" {
		return nil, newValidationError("project", "is required")
	}
	if input.Category == "" {
		return nil, newValidationError("category", "is required")
	}
	if input.Amount <= 0 {
		return nil, newValidationError("amount", "must be greater than zero")
	}
	if input.RequesterID == "" {
		input.RequesterID = actor
	}

	now := s.now()
	req := &entity.BudgetRequest{
		Project:       input.Project,
		Category:      input.Category,
		SubActivityID: input.SubActivityID,
		RequesterID:   input.RequesterID,
		Amount:        input.Amount,
		Status:        entity.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if req.SubActivityID != nil {
			if err := s.checker.Check(txCtx, *req.SubActivityID, req.Amount); err != nil {
				return err
			}
		}

		if err := s.requestRepo.Create(txCtx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		for i, in := range input.ExpenseItems {
			item, err := newPlannedItem(req.ID, i, in)
			if err != nil {
				return err
			}
			if err := s.itemRepo.Create(txCtx, item); err != nil {
				return fmt.Errorf("create expense item: %w", err)
			}
			req.ExpenseItems = append(req.ExpenseItems, item)
		}
		return nil
	})
	if err != nil {
		s.logError("Failed to create request", err, "project", input.Project)
		return nil, err
	}

	s.logger.Info("Request created", "id", req.ID, "project", req.Project, "amount", req.Amount.String())
	s.emit(ctx, event.NewEvent(event.TypeRequestCreated, req.ID, actorOr(actor), map[string]interface{}{
		"project":  req.Project,
		"category": req.Category,
		"amount":   req.Amount.String(),
	}))
	return req, nil
}

// Approve commits the request's amounts to its categories
func (s *requestServiceImpl) Approve(ctx context.Context, id int64, approverID string) (*entity.BudgetRequest, error) {
	approverID = actorOr(approverID)

	var deltas []Delta
	req, err := s.transition(ctx, id, workflow.TriggerApprove, "approve", func(txCtx context.Context, req *entity.BudgetRequest) error {
		now := s.now()
		req.ApproverID = approverID
		req.ApprovedAt = &now
		if err := s.save(txCtx, req); err != nil {
			return err
		}

		var err error
		deltas, err = s.engine.Commit(txCtx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Request approved", "id", id, "approver", approverID, "categories", len(deltas))
	s.emit(ctx, event.NewEvent(event.TypeRequestApproved, id, approverID, map[string]interface{}{
		"amount": req.Amount.String(),
		"deltas": deltas,
	}))
	return req, nil
}

// Reject closes a pending request. Nothing was committed, so no category changes.
func (s *requestServiceImpl) Reject(ctx context.Context, id int64, approverID, reason string) (*entity.BudgetRequest, error) {
	approverID = actorOr(approverID)

	req, err := s.transition(ctx, id, workflow.TriggerReject, "reject", func(txCtx context.Context, req *entity.BudgetRequest) error {
		now := s.now()
		req.ApproverID = approverID
		req.ApprovedAt = &now
		req.RejectionReason = reason
		return s.save(txCtx, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Request rejected", "id", id, "approver", approverID)
	s.emit(ctx, event.NewEvent(event.TypeRequestRejected, id, approverID, map[string]interface{}{
		"reason": reason,
	}))
	return req, nil
}

// SubmitExpense stages the reported actuals. Category used is not touched until completion.
func (s *requestServiceImpl) SubmitExpense(ctx context.Context, id int64, actor string, input SubmitExpenseInput) (*entity.BudgetRequest, error) {
	if input.ActualTotal < 0 {
		return nil, newValidationError("actualTotal", "must not be negative")
	}
	if input.ReturnAmount < 0 {
		return nil, newValidationError("returnAmount", "must not be negative")
	}

	req, err := s.transition(ctx, id, workflow.TriggerSubmitExpense, "submit expense for", func(txCtx context.Context, req *entity.BudgetRequest) error {
		if err := s.applyReportedItems(txCtx, req, input.ExpenseItems); err != nil {
			return err
		}

		req.ActualAmount = entity.MoneyPtr(input.ActualTotal)
		req.ReturnAmount = entity.MoneyPtr(input.ReturnAmount)
		if err := s.save(txCtx, req); err != nil {
			return err
		}

		items, err := s.itemRepo.GetByRequestID(txCtx, req.ID)
		if err != nil {
			return fmt.Errorf("reload expense items: %w", err)
		}
		req.ExpenseItems = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Expense submitted", "id", id, "actual", input.ActualTotal.String(), "return", input.ReturnAmount.String())
	s.emit(ctx, event.NewEvent(event.TypeExpenseSubmitted, id, actorOr(actor), map[string]interface{}{
		"actual_total":  input.ActualTotal.String(),
		"return_amount": input.ReturnAmount.String(),
	}))
	return req, nil
}

// RejectExpense sends the expense report back for revision
func (s *requestServiceImpl) RejectExpense(ctx context.Context, id int64, actor, reason string) (*entity.BudgetRequest, error) {
	req, err := s.transition(ctx, id, workflow.TriggerRejectExpense, "reject expense of", func(txCtx context.Context, req *entity.BudgetRequest) error {
		req.RejectionReason = reason
		return s.save(txCtx, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Expense report sent back", "id", id)
	s.emit(ctx, event.NewEvent(event.TypeExpenseRejected, id, actorOr(actor), map[string]interface{}{
		"reason": reason,
	}))
	return req, nil
}

// Complete trues up category usage to actual spend and materializes expenses
func (s *requestServiceImpl) Complete(ctx context.Context, id int64, actor string) (*entity.BudgetRequest, error) {
	actor = actorOr(actor)

	var deltas []Delta
	req, err := s.transition(ctx, id, workflow.TriggerComplete, "complete", func(txCtx context.Context, req *entity.BudgetRequest) error {
		now := s.now()
		req.CompletedAt = &now
		if err := s.save(txCtx, req); err != nil {
			return err
		}

		var err error
		deltas, err = s.engine.Reconcile(txCtx, req, Apply, actor)
		if err != nil {
			return err
		}

		_, err = s.materializer.Materialize(txCtx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Request completed", "id", id, "adjustments", len(deltas))
	s.emit(ctx, event.NewEvent(event.TypeRequestCompleted, id, actor, map[string]interface{}{
		"return_amount": entity.ValueOrZero(req.ReturnAmount).String(),
		"deltas":        deltas,
	}))
	return req, nil
}

// RevertComplete undoes a completion: the true-up is reversed and materialized expenses removed
func (s *requestServiceImpl) RevertComplete(ctx context.Context, id int64, actor string) (*entity.BudgetRequest, error) {
	actor = actorOr(actor)

	var deltas []Delta
	var removed int64
	req, err := s.transition(ctx, id, workflow.TriggerRevertComplete, "revert completion of", func(txCtx context.Context, req *entity.BudgetRequest) error {
		var err error
		deltas, err = s.engine.Reconcile(txCtx, req, Undo, actor)
		if err != nil {
			return err
		}

		req.CompletedAt = nil
		if err := s.save(txCtx, req); err != nil {
			return err
		}

		removed, err = s.materializer.Revert(txCtx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Request completion reverted", "id", id, "adjustments", len(deltas), "expenses_removed", removed)
	s.emit(ctx, event.NewEvent(event.TypeRequestCompleteReverted, id, actor, map[string]interface{}{
		"deltas":           deltas,
		"expenses_removed": removed,
	}))
	return req, nil
}

// UpdateStatus is a manual correction hook; callers own the consistency of the ledger
func (s *requestServiceImpl) UpdateStatus(ctx context.Context, id int64, actor, status string) (*entity.BudgetRequest, error) {
	if !entity.IsValidStatus(status) {
		return nil, newValidationError("status", "unknown status %q", status)
	}

	var previous string
	var req *entity.BudgetRequest
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		req, err = s.load(txCtx, id)
		if err != nil {
			return err
		}
		previous = req.Status

		if err := s.requestRepo.UpdateStatus(txCtx, id, status); err != nil {
			return err
		}
		req.Status = status
		return nil
	})
	if err != nil {
		s.logError("Failed to update request status", err, "id", id, "status", status)
		return nil, err
	}

	s.logger.Warn("Request status set manually", "id", id, "from", previous, "to", status)
	s.emit(ctx, event.NewEvent(event.TypeStatusChanged, id, actorOr(actor), map[string]interface{}{
		"from": previous,
		"to":   status,
	}))
	return req, nil
}

// Delete hard-deletes a request in any status
func (s *requestServiceImpl) Delete(ctx context.Context, id int64, actor string) error {
	var req *entity.BudgetRequest
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		req, err = s.load(txCtx, id)
		if err != nil {
			return err
		}
		return s.requestRepo.Delete(txCtx, id)
	})
	if err != nil {
		s.logError("Failed to delete request", err, "id", id)
		return err
	}

	s.logger.Warn("Request deleted", "id", id, "status", req.Status, "amount", req.Amount.String())
	s.emit(ctx, event.NewEvent(event.TypeRequestDeleted, id, actorOr(actor), map[string]interface{}{
		"project": req.Project,
		"status":  req.Status,
		"amount":  req.Amount.String(),
	}))
	return nil
}

// Get retrieves a request with its line items
func (s *requestServiceImpl) Get(ctx context.Context, id int64) (*entity.BudgetRequest, error) {
	return s.load(ctx, id)
}

// List retrieves requests without their line items
func (s *requestServiceImpl) List(ctx context.Context, filter port.RequestFilter) ([]*entity.BudgetRequest, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Status != "" && !entity.IsValidStatus(filter.Status) {
		return nil, newValidationError("status", "unknown status %q", filter.Status)
	}

	requests, err := s.requestRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list requests", "error", err)
		return nil, err
	}
	return requests, nil
}

// Activity retrieves the activity log of a request
func (s *requestServiceImpl) Activity(ctx context.Context, id int64) ([]*entity.ActivityLog, error) {
	logs, err := s.activityRepo.ListByRequestID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to list activity", "error", err, "id", id)
		return nil, err
	}
	return logs, nil
}

// transition loads the request inside a transaction, fires trigger against its
// status and runs apply with the new status set
func (s *requestServiceImpl) transition(
	ctx context.Context,
	id int64,
	trigger workflow.Trigger,
	action string,
	apply func(txCtx context.Context, req *entity.BudgetRequest) error,
) (*entity.BudgetRequest, error) {
	var req *entity.BudgetRequest
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		req, err = s.load(txCtx, id)
		if err != nil {
			return err
		}

		next, err := workflow.Next(req.Status, trigger)
		if err != nil {
			return &InvalidStateError{RequestID: id, Status: req.Status, Action: action, Err: err}
		}

		req.Status = string(next)
		return apply(txCtx, req)
	})
	if err != nil {
		s.logError("Request transition failed", err, "id", id, "trigger", trigger)
		return nil, err
	}
	return req, nil
}

func (s *requestServiceImpl) load(ctx context.Context, id int64) (*entity.BudgetRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, &NotFoundError{Resource: "request", ID: id}
	}

	items, err := s.itemRepo.GetByRequestID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get expense items: %w", err)
	}
	req.ExpenseItems = items
	return req, nil
}

func (s *requestServiceImpl) save(ctx context.Context, req *entity.BudgetRequest) error {
	req.UpdatedAt = s.now()
	if err := s.requestRepo.Update(ctx, req); err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	return nil
}

// applyReportedItems updates actuals of existing items and creates the new ones
func (s *requestServiceImpl) applyReportedItems(ctx context.Context, req *entity.BudgetRequest, inputs []ExpenseItemInput) error {
	existing := make(map[int64]*entity.ExpenseLineItem, len(req.ExpenseItems))
	for _, item := range req.ExpenseItems {
		existing[item.ID] = item
	}

	for _, in := range inputs {
		if isNewItemID(in.ID) {
			actual := entity.ValueOrZero(in.ActualAmount)
			item := &entity.ExpenseLineItem{
				RequestID:    req.ID,
				Category:     strings.TrimSpace(in.Category),
				Description:  strings.TrimSpace(in.Description),
				Quantity:     1,
				UnitPrice:    actual,
				Total:        0,
				ActualAmount: entity.MoneyPtr(actual),
			}
			if err := s.itemRepo.Create(ctx, item); err != nil {
				return fmt.Errorf("create reported item: %w", err)
			}
			continue
		}

		itemID, err := strconv.ParseInt(in.ID, 10, 64)
		if err != nil {
			return newValidationError("expenseItems", "invalid item id %q", in.ID)
		}
		if _, ok := existing[itemID]; !ok {
			return newValidationError("expenseItems", "item %d does not belong to request %d", itemID, req.ID)
		}
		if in.ActualAmount == nil {
			continue
		}
		if err := s.itemRepo.UpdateActual(ctx, itemID, *in.ActualAmount); err != nil {
			return fmt.Errorf("update item actual: %w", err)
		}
	}
	return nil
}

// emit hands the event to the activity sinks. Sink failures are logged only.
func (s *requestServiceImpl) emit(ctx context.Context, evt *event.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Dispatch(ctx, evt); err != nil {
		s.logger.Error("Failed to record activity", "error", err, "event_type", evt.Type, "request_id", evt.RequestID)
	}
}

func (s *requestServiceImpl) logError(msg string, err error, keysAndValues ...interface{}) {
	if IsValidation(err) || IsNotFound(err) || IsInvalidState(err) {
		s.logger.Warn(msg, append(keysAndValues, "error", err)...)
		return
	}
	s.logger.Error(msg, append(keysAndValues, "error", err)...)
}

// newPlannedItem derives a missing total from unit price and quantity. The
// total is charged to a category on approval, so it must be within [0, MaxAmount].
func newPlannedItem(requestID int64, index int, in ExpenseItemInput) (*entity.ExpenseLineItem, error) {
	field := fmt.Sprintf("expenseItems[%d].total", index)
	quantity := in.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	total := in.Total
	if total == 0 {
		var err error
		total, err = in.UnitPrice.MulQuantity(quantity)
		if err != nil {
			return nil, newValidationError(field, "unit price times quantity is out of range")
		}
	}
	if total < 0 || total > entity.MaxAmount {
		return nil, newValidationError(field, "must be between 0 and %s", entity.MaxAmount)
	}
	return &entity.ExpenseLineItem{
		RequestID:    requestID,
		Category:     strings.TrimSpace(in.Category),
		Description:  strings.TrimSpace(in.Description),
		Quantity:     quantity,
		UnitPrice:    in.UnitPrice,
		Total:        total,
		ActualAmount: in.ActualAmount,
	}, nil
}

func isNewItemID(id string) bool {
	return id == "" || strings.HasPrefix(id, entity.TempItemPrefix)
}

func actorOr(actor string) string {
	if actor == "" {
		return entity.SystemUser
	}
	return actor
}
