package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garyjia/budget-ledger/internal/application/port"
	"github.com/garyjia/budget-ledger/internal/domain/entity"
	"github.com/garyjia/budget-ledger/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const categoryColumns = `id, name, allocated_cents, used_cents, year, created_at, updated_at`

// CategoryRepository implements port.CategoryRepository
type CategoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *sql.DB, logger *zap.Logger) port.CategoryRepository {
	return &CategoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new category
func (r *CategoryRepository) Create(ctx context.Context, category *entity.Category) error {
	query := `
		INSERT INTO categories (name, allocated_cents, used_cents, year, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		category.Name,
		int64(category.Allocated),
		int64(category.Used),
		category.Year,
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create category", zap.String("name", category.Name), zap.Error(err))
		return fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	category.ID = id
	return nil
}

// GetByID retrieves a category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*entity.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// GetByNameAndYear retrieves a category by name within a fiscal year
func (r *CategoryRepository) GetByNameAndYear(ctx context.Context, name string, year int) (*entity.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE name = ? AND year = ?`
	return r.getOne(ctx, query, name, year)
}

// ListByYear retrieves all categories of a fiscal year ordered by name
func (r *CategoryRepository) ListByYear(ctx context.Context, year int) ([]*entity.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE year = ? ORDER BY name ASC`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, year)
	if err != nil {
		r.logger.Error("Failed to list categories", zap.Int("year", year), zap.Error(err))
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*entity.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}

// AdjustUsed adds delta to the used counter in a single statement
func (r *CategoryRepository) AdjustUsed(ctx context.Context, id int64, delta entity.Money) error {
	query := `UPDATE categories SET used_cents = used_cents + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, int64(delta), id)
	if err != nil {
		r.logger.Error("Failed to adjust category used amount",
			zap.Int64("id", id),
			zap.Int64("delta_cents", int64(delta)),
			zap.Error(err))
		return fmt.Errorf("failed to adjust used amount: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("category %d not found", id)
	}

	return nil
}

func (r *CategoryRepository) getOne(ctx context.Context, query string, args ...interface{}) (*entity.Category, error) {
	row := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, args...)

	category, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get category", zap.Any("args", args), zap.Error(err))
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return category, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCategory(s scanner) (*entity.Category, error) {
	var c entity.Category
	var allocated, used int64

	if err := s.Scan(&c.ID, &c.Name, &allocated, &used, &c.Year, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}

	c.Allocated = entity.Money(allocated)
	c.Used = entity.Money(used)
	return &c, nil
}

// Verify interface compliance
var _ port.CategoryRepository = (*CategoryRepository)(nil)
