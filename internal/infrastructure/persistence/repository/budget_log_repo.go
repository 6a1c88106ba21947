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

// BudgetLogRepository implements port.BudgetLogRepository.
// Logs are append-only; there is no update or delete.
type BudgetLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewBudgetLogRepository creates a new budget log repository
func NewBudgetLogRepository(db *sql.DB, logger *zap.Logger) port.BudgetLogRepository {
	return &BudgetLogRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a budget log entry
func (r *BudgetLogRepository) Create(ctx context.Context, log *entity.BudgetLog) error {
	query := `
		INSERT INTO budget_logs (category_id, amount_cents, type, reason, user_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		log.CategoryID,
		int64(log.Amount),
		log.Type,
		log.Reason,
		log.User,
		log.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create budget log",
			zap.Int64("category_id", log.CategoryID),
			zap.String("type", log.Type),
			zap.Error(err))
		return fmt.Errorf("failed to create budget log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	log.ID = id
	return nil
}

// ListByCategory retrieves the logs of a category in chronological order
func (r *BudgetLogRepository) ListByCategory(ctx context.Context, categoryID int64) ([]*entity.BudgetLog, error) {
	query := `
		SELECT id, category_id, amount_cents, type, reason, user_name, created_at
		FROM budget_logs
		WHERE category_id = ?
		ORDER BY id ASC
	`

	return r.query(ctx, query, categoryID)
}

// ListByYear retrieves the logs of all categories of a fiscal year
func (r *BudgetLogRepository) ListByYear(ctx context.Context, year int) ([]*entity.BudgetLog, error) {
	query := `
		SELECT l.id, l.category_id, l.amount_cents, l.type, l.reason, l.user_name, l.created_at
		FROM budget_logs l
		JOIN categories c ON c.id = l.category_id
		WHERE c.year = ?
		ORDER BY l.id ASC
	`

	return r.query(ctx, query, year)
}

func (r *BudgetLogRepository) query(ctx context.Context, query string, args ...interface{}) ([]*entity.BudgetLog, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query budget logs", zap.Error(err))
		return nil, fmt.Errorf("failed to query budget logs: %w", err)
	}
	defer rows.Close()

	var logs []*entity.BudgetLog
	for rows.Next() {
		var log entity.BudgetLog
		var amount int64

		if err := rows.Scan(&log.ID, &log.CategoryID, &amount, &log.Type, &log.Reason, &log.User, &log.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan budget log: %w", err)
		}

		log.Amount = entity.Money(amount)
		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

// Verify interface compliance
var _ port.BudgetLogRepository = (*BudgetLogRepository)(nil)
