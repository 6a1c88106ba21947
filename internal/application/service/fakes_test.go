package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/garyjia/budget-ledger/internal/application/port"
	"github.com/garyjia/budget-ledger/internal/domain/entity"
	"github.com/garyjia/budget-ledger/internal/domain/event"
)

// memStore is an in-memory ledger store backing the fake repositories
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	categories map[int64]*entity.Category
	subs       map[int64]*entity.SubActivity
	requests   map[int64]*entity.BudgetRequest
	items      map[int64]*entity.ExpenseLineItem
	logs       []*entity.BudgetLog
	expenses   map[int64]*entity.Expense
	activity   []*entity.ActivityLog
}

func newMemStore() *memStore {
	return &memStore{
		categories: make(map[int64]*entity.Category),
		subs:       make(map[int64]*entity.SubActivity),
		requests:   make(map[int64]*entity.BudgetRequest),
		items:      make(map[int64]*entity.ExpenseLineItem),
		expenses:   make(map[int64]*entity.Expense),
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

type memCategoryRepo struct{ s *memStore }

func (r *memCategoryRepo) Create(ctx context.Context, c *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = r.s.id()
	cp := *c
	r.s.categories[c.ID] = &cp
	return nil
}

func (r *memCategoryRepo) GetByID(ctx context.Context, id int64) (*entity.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.categories[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *memCategoryRepo) GetByNameAndYear(ctx context.Context, name string, year int) (*entity.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.categories {
		if c.Name == name && c.Year == year {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memCategoryRepo) ListByYear(ctx context.Context, year int) ([]*entity.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Category
	for _, c := range r.s.categories {
		if c.Year == year {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memCategoryRepo) AdjustUsed(ctx context.Context, id int64, delta entity.Money) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return fmt.Errorf("category %d not found", id)
	}
	c.Used += delta
	return nil
}

type memSubRepo struct{ s *memStore }

func (r *memSubRepo) Create(ctx context.Context, sub *entity.SubActivity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub.ID = r.s.id()
	cp := *sub
	r.s.subs[sub.ID] = &cp
	return nil
}

func (r *memSubRepo) GetByID(ctx context.Context, id int64) (*entity.SubActivity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sub, ok := r.s.subs[id]; ok {
		cp := *sub
		return &cp, nil
	}
	return nil, nil
}

func (r *memSubRepo) ListByCategory(ctx context.Context, categoryID int64) ([]*entity.SubActivity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.SubActivity
	for _, sub := range r.s.subs {
		if sub.CategoryID == categoryID {
			cp := *sub
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memRequestRepo struct{ s *memStore }

func copyRequest(req *entity.BudgetRequest) *entity.BudgetRequest {
	cp := *req
	cp.ExpenseItems = nil
	return &cp
}

func (r *memRequestRepo) Create(ctx context.Context, req *entity.BudgetRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req.ID = r.s.id()
	r.s.requests[req.ID] = copyRequest(req)
	return nil
}

func (r *memRequestRepo) GetByID(ctx context.Context, id int64) (*entity.BudgetRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if req, ok := r.s.requests[id]; ok {
		return copyRequest(req), nil
	}
	return nil, nil
}

func (r *memRequestRepo) List(ctx context.Context, filter port.RequestFilter) ([]*entity.BudgetRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.BudgetRequest
	for _, req := range r.s.requests {
		if filter.Status == "" || req.Status == filter.Status {
			out = append(out, copyRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memRequestRepo) Update(ctx context.Context, req *entity.BudgetRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.requests[req.ID]; !ok {
		return fmt.Errorf("request %d not found", req.ID)
	}
	r.s.requests[req.ID] = copyRequest(req)
	return nil
}

func (r *memRequestRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if req, ok := r.s.requests[id]; ok {
		req.Status = status
	}
	return nil
}

func (r *memRequestRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.requests, id)
	for itemID, item := range r.s.items {
		if item.RequestID == id {
			delete(r.s.items, itemID)
		}
	}
	return nil
}

func (r *memRequestRepo) SumCommittedBySubActivity(ctx context.Context, subActivityID int64) (*port.CommittedTotals, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	totals := &port.CommittedTotals{}
	for _, req := range r.s.requests {
		if req.SubActivityID == nil || *req.SubActivityID != subActivityID || req.Status == entity.StatusRejected {
			continue
		}
		totals.Amount += req.Amount
		totals.Returned += entity.ValueOrZero(req.ReturnAmount)
	}
	return totals, nil
}

type memItemRepo struct{ s *memStore }

func (r *memItemRepo) Create(ctx context.Context, item *entity.ExpenseLineItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item.ID = r.s.id()
	cp := *item
	r.s.items[item.ID] = &cp
	return nil
}

func (r *memItemRepo) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.ExpenseLineItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ExpenseLineItem
	for _, item := range r.s.items {
		if item.RequestID == requestID {
			cp := *item
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memItemRepo) UpdateActual(ctx context.Context, id int64, actual entity.Money) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if item, ok := r.s.items[id]; ok {
		item.ActualAmount = entity.MoneyPtr(actual)
	}
	return nil
}

type memLogRepo struct{ s *memStore }

func (r *memLogRepo) Create(ctx context.Context, log *entity.BudgetLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	log.ID = r.s.id()
	cp := *log
	r.s.logs = append(r.s.logs, &cp)
	return nil
}

func (r *memLogRepo) ListByCategory(ctx context.Context, categoryID int64) ([]*entity.BudgetLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.BudgetLog
	for _, log := range r.s.logs {
		if log.CategoryID == categoryID {
			cp := *log
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memLogRepo) ListByYear(ctx context.Context, year int) ([]*entity.BudgetLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.BudgetLog
	for _, log := range r.s.logs {
		if c, ok := r.s.categories[log.CategoryID]; ok && c.Year == year {
			cp := *log
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memExpenseRepo struct{ s *memStore }

func (r *memExpenseRepo) Create(ctx context.Context, e *entity.Expense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.ID = r.s.id()
	cp := *e
	r.s.expenses[e.ID] = &cp
	return nil
}

func (r *memExpenseRepo) ListByCategory(ctx context.Context, categoryID int64) ([]*entity.Expense, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Expense
	for _, e := range r.s.expenses {
		if e.CategoryID == categoryID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memExpenseRepo) DeleteByRequestID(ctx context.Context, requestID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, e := range r.s.expenses {
		if e.RequestID != nil && *e.RequestID == requestID {
			delete(r.s.expenses, id)
			n++
		}
	}
	return n, nil
}

func (r *memExpenseRepo) DeleteByDescriptionPrefix(ctx context.Context, prefix string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, e := range r.s.expenses {
		if strings.HasPrefix(e.Description, prefix) {
			delete(r.s.expenses, id)
			n++
		}
	}
	return n, nil
}

type memActivityRepo struct{ s *memStore }

func (r *memActivityRepo) Create(ctx context.Context, log *entity.ActivityLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	log.ID = r.s.id()
	cp := *log
	r.s.activity = append(r.s.activity, &cp)
	return nil
}

func (r *memActivityRepo) ListByRequestID(ctx context.Context, requestID int64) ([]*entity.ActivityLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ActivityLog
	for _, log := range r.s.activity {
		if log.RequestID != nil && *log.RequestID == requestID {
			cp := *log
			out = append(out, &cp)
		}
	}
	return out, nil
}

type mockTxManager struct {
	calls int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type mockLogger struct {
	mu    sync.Mutex
	warns []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}
func (m *mockLogger) Warn(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warns = append(m.warns, msg)
}

type recordingEvents struct {
	events []*event.Event
	err    error
}

func (r *recordingEvents) Dispatch(ctx context.Context, evt *event.Event) error {
	r.events = append(r.events, evt)
	return r.err
}

func (r *recordingEvents) types() []event.Type {
	out := make([]event.Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// fixture wires the services over a fresh memStore with a fixed clock in fiscal year 2026
type fixture struct {
	store    *memStore
	logger   *mockLogger
	events   *recordingEvents
	tx       *mockTxManager
	resolver *CategoryResolver
	engine   *ReconciliationEngine
	checker  *AllocationChecker
	requests RequestService
	catalog  CatalogService
}

var fixedNow = time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

func newFixture(revertMode string) *fixture {
	store := newMemStore()
	logger := &mockLogger{}
	events := &recordingEvents{}
	tx := &mockTxManager{}
	now := func() time.Time { return fixedNow }

	categoryRepo := &memCategoryRepo{s: store}
	subRepo := &memSubRepo{s: store}
	requestRepo := &memRequestRepo{s: store}
	logRepo := &memLogRepo{s: store}
	expenseRepo := &memExpenseRepo{s: store}

	resolver := NewCategoryResolver(categoryRepo, NewFiscalYear(1), now, logger)
	engine := NewReconciliationEngine(resolver, categoryRepo, logRepo, now, logger)
	checker := NewAllocationChecker(subRepo, requestRepo)
	materializer := NewExpenseMaterializer(resolver, expenseRepo, revertMode, now, logger)

	return &fixture{
		store:    store,
		logger:   logger,
		events:   events,
		tx:       tx,
		resolver: resolver,
		engine:   engine,
		checker:  checker,
		requests: NewRequestService(RequestServiceDeps{
			RequestRepo:  requestRepo,
			ItemRepo:     &memItemRepo{s: store},
			ActivityRepo: &memActivityRepo{s: store},
			TxManager:    tx,
			Checker:      checker,
			Engine:       engine,
			Materializer: materializer,
			Events:       events,
			Now:          now,
			Logger:       logger,
		}),
		catalog: NewCatalogService(categoryRepo, subRepo, logRepo, expenseRepo, checker, resolver, logger),
	}
}

func (f *fixture) category(name string, allocated entity.Money) *entity.Category {
	c := &entity.Category{Name: name, Allocated: allocated, Year: 2026}
	_ = (&memCategoryRepo{s: f.store}).Create(context.Background(), c)
	return c
}

func (f *fixture) used(id int64) entity.Money {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.categories[id].Used
}

func (f *fixture) logsFor(id int64) []*entity.BudgetLog {
	logs, _ := (&memLogRepo{s: f.store}).ListByCategory(context.Background(), id)
	return logs
}

func (f *fixture) expenseCount() int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return len(f.store.expenses)
}
