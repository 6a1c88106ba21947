package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/budget-ledger/internal/application/port"
	"github.com/garyjia/budget-ledger/internal/domain/entity"
	"github.com/garyjia/budget-ledger/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// ExpenseRepository implements port.ExpenseRepository
type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sql.DB, logger *zap.Logger) port.ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new expense record
func (r *ExpenseRepository) Create(ctx context.Context, expense *entity.Expense) error {
	query := `
		INSERT INTO expenses (category_id, request_id, amount_cents, payee, date, description)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		expense.CategoryID,
		nullInt64(expense.RequestID),
		int64(expense.Amount),
		expense.Payee,
		expense.Date,
		expense.Description,
	)
	if err != nil {
		r.logger.Error("Failed to create expense",
			zap.Int64("category_id", expense.CategoryID),
			zap.Error(err))
		return fmt.Errorf("failed to create expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	expense.ID = id
	return nil
}

// ListByCategory retrieves the expenses booked against a category
func (r *ExpenseRepository) ListByCategory(ctx context.Context, categoryID int64) ([]*entity.Expense, error) {
	query := `
		SELECT id, category_id, request_id, amount_cents, payee, date, description
		FROM expenses
		WHERE category_id = ?
		ORDER BY date ASC, id ASC
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, categoryID)
	if err != nil {
		r.logger.Error("Failed to query expenses", zap.Int64("category_id", categoryID), zap.Error(err))
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*entity.Expense
	for rows.Next() {
		var e entity.Expense
		var requestID sql.NullInt64
		var amount int64

		if err := rows.Scan(&e.ID, &e.CategoryID, &requestID, &amount, &e.Payee, &e.Date, &e.Description); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}

		e.RequestID = int64FromNull(requestID)
		e.Amount = entity.Money(amount)
		expenses = append(expenses, &e)
	}

	return expenses, rows.Err()
}

// DeleteByRequestID removes the expenses materialized from a request
func (r *ExpenseRepository) DeleteByRequestID(ctx context.Context, requestID int64) (int64, error) {
	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`DELETE FROM expenses WHERE request_id = ?`, requestID)
	if err != nil {
		r.logger.Error("Failed to delete expenses", zap.Int64("request_id", requestID), zap.Error(err))
		return 0, fmt.Errorf("failed to delete expenses: %w", err)
	}

	return result.RowsAffected()
}

// DeleteByDescriptionPrefix removes every expense whose description starts with prefix.
// The comparison is literal, so LIKE wildcards in project names do not widen it.
func (r *ExpenseRepository) DeleteByDescriptionPrefix(ctx context.Context, prefix string) (int64, error) {
	if prefix == "" {
		return 0, fmt.Errorf("refusing to delete expenses with an empty prefix")
	}

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`DELETE FROM expenses WHERE substr(description, 1, length(?)) = ?`, prefix, prefix)
	if err != nil {
		r.logger.Error("Failed to delete expenses by prefix", zap.String("prefix", prefix), zap.Error(err))
		return 0, fmt.Errorf("failed to delete expenses by prefix: %w", err)
	}

	return result.RowsAffected()
}

// Verify interface compliance
var _ port.ExpenseRepository = (*ExpenseRepository)(nil)
