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

// ExpenseItemRepository implements port.ExpenseItemRepository
type ExpenseItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseItemRepository creates a new expense line item repository
func NewExpenseItemRepository(db *sql.DB, logger *zap.Logger) port.ExpenseItemRepository {
	return &ExpenseItemRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new expense line item
func (r *ExpenseItemRepository) Create(ctx context.Context, item *entity.ExpenseLineItem) error {
	query := `
		INSERT INTO expense_line_items (
			request_id, category, description, quantity,
			unit_price_cents, total_cents, actual_amount_cents
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		item.RequestID,
		item.Category,
		item.Description,
		item.Quantity,
		int64(item.UnitPrice),
		int64(item.Total),
		nullMoney(item.ActualAmount),
	)
	if err != nil {
		r.logger.Error("Failed to create expense item",
			zap.Int64("request_id", item.RequestID),
			zap.Error(err))
		return fmt.Errorf("failed to create expense item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	item.ID = id
	return nil
}

// GetByRequestID retrieves the line items of a request in insertion order
func (r *ExpenseItemRepository) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.ExpenseLineItem, error) {
	query := `
		SELECT id, request_id, category, description, quantity,
			unit_price_cents, total_cents, actual_amount_cents
		FROM expense_line_items
		WHERE request_id = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to query expense items", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to query expense items: %w", err)
	}
	defer rows.Close()

	var items []*entity.ExpenseLineItem
	for rows.Next() {
		var item entity.ExpenseLineItem
		var unitPrice, total int64
		var actual sql.NullInt64

		err := rows.Scan(
			&item.ID,
			&item.RequestID,
			&item.Category,
			&item.Description,
			&item.Quantity,
			&unitPrice,
			&total,
			&actual,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense item: %w", err)
		}

		item.UnitPrice = entity.Money(unitPrice)
		item.Total = entity.Money(total)
		item.ActualAmount = moneyFromNull(actual)
		items = append(items, &item)
	}

	return items, rows.Err()
}

// UpdateActual records the reported actual amount of a line item
func (r *ExpenseItemRepository) UpdateActual(ctx context.Context, id int64, actual entity.Money) error {
	query := `UPDATE expense_line_items SET actual_amount_cents = ? WHERE id = ?`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, int64(actual), id)
	if err != nil {
		r.logger.Error("Failed to update expense item actual", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update expense item actual: %w", err)
	}

	return nil
}

// Verify interface compliance
var _ port.ExpenseItemRepository = (*ExpenseItemRepository)(nil)
