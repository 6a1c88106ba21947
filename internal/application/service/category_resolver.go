package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/budget-ledger/internal/application/port"
	"github.com/garyjia/budget-ledger/internal/domain/entity"
)

// Resolution is the outcome of looking up a category name in a fiscal year
type Resolution struct {
	Name     string
	Year     int
	Category *entity.Category
}

// Found reports whether the name resolved to a category
func (r Resolution) Found() bool {
	return r.Category != nil
}

// CategoryResolver turns the category names carried by requests and line items
// into Category records of the current fiscal year
type CategoryResolver struct {
	categoryRepo port.CategoryRepository
	fiscalYear   FiscalYearFunc
	now          func() time.Time
	logger       Logger
}

// NewCategoryResolver creates a resolver
func NewCategoryResolver(categoryRepo port.CategoryRepository, fiscalYear FiscalYearFunc, now func() time.Time, logger Logger) *CategoryResolver {
	if fiscalYear == nil {
		fiscalYear = NewFiscalYear(1)
	}
	if now == nil {
		now = time.Now
	}
	return &CategoryResolver{
		categoryRepo: categoryRepo,
		fiscalYear:   fiscalYear,
		now:          now,
		logger:       logger,
	}
}

// CurrentYear returns the fiscal year used for resolution
func (r *CategoryResolver) CurrentYear() int {
	return r.fiscalYear(r.now())
}

// YearOf returns the fiscal year containing t
func (r *CategoryResolver) YearOf(t time.Time) int {
	return r.fiscalYear(t)
}

// Resolve looks up name in the current fiscal year. A miss is not an error;
// callers check Found and skip.
func (r *CategoryResolver) Resolve(ctx context.Context, name string) (Resolution, error) {
	return r.ResolveIn(ctx, name, r.CurrentYear())
}

// ResolveIn looks up name in the given fiscal year
func (r *CategoryResolver) ResolveIn(ctx context.Context, name string, year int) (Resolution, error) {
	res := Resolution{Name: name, Year: year}
	if name == "" {
		return res, nil
	}

	category, err := r.categoryRepo.GetByNameAndYear(ctx, name, res.Year)
	if err != nil {
		return res, fmt.Errorf("resolve category %q: %w", name, err)
	}
	res.Category = category

	if category == nil {
		r.logger.Warn("Category not found for fiscal year, skipping", "category", name, "year", res.Year)
	}
	return res, nil
}
