package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/budget-ledger/internal/application/port"
	"github.com/garyjia/budget-ledger/internal/domain/entity"
)

// CategoryView is a category with its remaining balance
type CategoryView struct {
	*entity.Category
	Remaining entity.Money `json:"remaining"`
}

// LedgerSnapshot is the state of every category of a fiscal year and the logs behind it
type LedgerSnapshot struct {
	Year       int
	Categories []*CategoryView
	Logs       []*entity.BudgetLog
}

// CreateCategoryInput carries the fields of a new category. Year defaults to the current fiscal year.
type CreateCategoryInput struct {
	Name      string
	Allocated entity.Money
	Year      int
}

// CreateSubActivityInput carries the fields of a new sub-activity
type CreateSubActivityInput struct {
	CategoryID int64
	ParentID   *int64
	Name       string
	Allocated  entity.Money
}

// CatalogService administers categories and sub-activities and serves ledger reads
type CatalogService interface {
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryView, error)
	GetCategory(ctx context.Context, id int64) (*CategoryView, error)
	ListCategories(ctx context.Context, year int) ([]*CategoryView, error)
	CategoryLogs(ctx context.Context, categoryID int64) ([]*entity.BudgetLog, error)
	CategoryExpenses(ctx context.Context, categoryID int64) ([]*entity.Expense, error)

	CreateSubActivity(ctx context.Context, input CreateSubActivityInput) (*entity.SubActivity, error)
	ListSubActivities(ctx context.Context, categoryID int64) ([]*entity.SubActivityUsage, error)

	Ledger(ctx context.Context, year int) (*LedgerSnapshot, error)
}

type catalogServiceImpl struct {
	categoryRepo port.CategoryRepository
	subRepo      port.SubActivityRepository
	logRepo      port.BudgetLogRepository
	expenseRepo  port.ExpenseRepository
	checker      *AllocationChecker
	resolver     *CategoryResolver
	now          func() time.Time
	logger       Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(
	categoryRepo port.CategoryRepository,
	subRepo port.SubActivityRepository,
	logRepo port.BudgetLogRepository,
	expenseRepo port.ExpenseRepository,
	checker *AllocationChecker,
	resolver *CategoryResolver,
	logger Logger,
) CatalogService {
	return &catalogServiceImpl{
		categoryRepo: categoryRepo,
		subRepo:      subRepo,
		logRepo:      logRepo,
		expenseRepo:  expenseRepo,
		checker:      checker,
		resolver:     resolver,
		now:          time.Now,
		logger:       logger,
	}
}

func (s *catalogServiceImpl) CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryView, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, newValidationError("name", "is required")
	}
	if input.Allocated < 0 {
		return nil, newValidationError("allocated", "must not be negative")
	}
	year := input.Year
	if year == 0 {
		year = s.resolver.CurrentYear()
	}

	existing, err := s.categoryRepo.GetByNameAndYear(ctx, name, year)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, newValidationError("name", "category %q already exists for %d", name, year)
	}

	now := s.now()
	category := &entity.Category{
		Name:      name,
		Allocated: input.Allocated,
		Year:      year,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		s.logger.Error("Failed to create category", "error", err, "name", name)
		return nil, err
	}

	s.logger.Info("Category created", "id", category.ID, "name", name, "year", year)
	return viewOf(category), nil
}

func (s *catalogServiceImpl) GetCategory(ctx context.Context, id int64) (*CategoryView, error) {
	category, err := s.mustCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	return viewOf(category), nil
}

func (s *catalogServiceImpl) ListCategories(ctx context.Context, year int) ([]*CategoryView, error) {
	if year == 0 {
		year = s.resolver.CurrentYear()
	}

	categories, err := s.categoryRepo.ListByYear(ctx, year)
	if err != nil {
		return nil, err
	}

	views := make([]*CategoryView, 0, len(categories))
	for _, c := range categories {
		views = append(views, viewOf(c))
	}
	return views, nil
}

func (s *catalogServiceImpl) CategoryLogs(ctx context.Context, categoryID int64) ([]*entity.BudgetLog, error) {
	if _, err := s.mustCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.logRepo.ListByCategory(ctx, categoryID)
}

func (s *catalogServiceImpl) CategoryExpenses(ctx context.Context, categoryID int64) ([]*entity.Expense, error) {
	if _, err := s.mustCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.expenseRepo.ListByCategory(ctx, categoryID)
}

func (s *catalogServiceImpl) CreateSubActivity(ctx context.Context, input CreateSubActivityInput) (*entity.SubActivity, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, newValidationError("name", "is required")
	}
	if input.Allocated < 0 {
		return nil, newValidationError("allocated", "must not be negative")
	}
	if _, err := s.mustCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	if input.ParentID != nil {
		parent, err := s.subRepo.GetByID(ctx, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, &NotFoundError{Resource: "sub-activity", ID: *input.ParentID}
		}
		if parent.CategoryID != input.CategoryID {
			return nil, newValidationError("parentId", "parent belongs to another category")
		}
	}

	sub := &entity.SubActivity{
		CategoryID: input.CategoryID,
		ParentID:   input.ParentID,
		Name:       name,
		Allocated:  input.Allocated,
		CreatedAt:  s.now(),
	}
	if err := s.subRepo.Create(ctx, sub); err != nil {
		s.logger.Error("Failed to create sub-activity", "error", err, "name", name)
		return nil, err
	}

	s.logger.Info("Sub-activity created", "id", sub.ID, "category_id", sub.CategoryID, "name", name)
	return sub, nil
}

// ListSubActivities returns each sub-activity with usage derived from its requests
func (s *catalogServiceImpl) ListSubActivities(ctx context.Context, categoryID int64) ([]*entity.SubActivityUsage, error) {
	if _, err := s.mustCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	subs, err := s.subRepo.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	usages := make([]*entity.SubActivityUsage, 0, len(subs))
	for _, sub := range subs {
		usage, err := s.checker.Usage(ctx, sub)
		if err != nil {
			return nil, err
		}
		usages = append(usages, usage)
	}
	return usages, nil
}

func (s *catalogServiceImpl) Ledger(ctx context.Context, year int) (*LedgerSnapshot, error) {
	categories, err := s.ListCategories(ctx, year)
	if err != nil {
		return nil, err
	}
	if year == 0 {
		year = s.resolver.CurrentYear()
	}

	logs, err := s.logRepo.ListByYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("list budget logs: %w", err)
	}

	return &LedgerSnapshot{Year: year, Categories: categories, Logs: logs}, nil
}

func (s *catalogServiceImpl) mustCategory(ctx context.Context, id int64) (*entity.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, &NotFoundError{Resource: "category", ID: id}
	}
	return category, nil
}

func viewOf(c *entity.Category) *CategoryView {
	return &CategoryView{Category: c, Remaining: c.Remaining()}
}
