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

// SubActivityRepository implements port.SubActivityRepository
type SubActivityRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSubActivityRepository creates a new sub-activity repository
func NewSubActivityRepository(db *sql.DB, logger *zap.Logger) port.SubActivityRepository {
	return &SubActivityRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new sub-activity
func (r *SubActivityRepository) Create(ctx context.Context, sub *entity.SubActivity) error {
	query := `
		INSERT INTO sub_activities (category_id, parent_id, name, allocated_cents, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		sub.CategoryID,
		nullInt64(sub.ParentID),
		sub.Name,
		int64(sub.Allocated),
		sub.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create sub-activity", zap.String("name", sub.Name), zap.Error(err))
		return fmt.Errorf("failed to create sub-activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	sub.ID = id
	return nil
}

// GetByID retrieves a sub-activity by ID
func (r *SubActivityRepository) GetByID(ctx context.Context, id int64) (*entity.SubActivity, error) {
	query := `
		SELECT id, category_id, parent_id, name, allocated_cents, created_at
		FROM sub_activities
		WHERE id = ?
	`

	sub, err := scanSubActivity(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get sub-activity", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get sub-activity: %w", err)
	}

	return sub, nil
}

// ListByCategory retrieves the sub-activities of a category
func (r *SubActivityRepository) ListByCategory(ctx context.Context, categoryID int64) ([]*entity.SubActivity, error) {
	query := `
		SELECT id, category_id, parent_id, name, allocated_cents, created_at
		FROM sub_activities
		WHERE category_id = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, categoryID)
	if err != nil {
		r.logger.Error("Failed to list sub-activities", zap.Int64("category_id", categoryID), zap.Error(err))
		return nil, fmt.Errorf("failed to list sub-activities: %w", err)
	}
	defer rows.Close()

	var subs []*entity.SubActivity
	for rows.Next() {
		sub, err := scanSubActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sub-activity: %w", err)
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

func scanSubActivity(s scanner) (*entity.SubActivity, error) {
	var sub entity.SubActivity
	var parentID sql.NullInt64
	var allocated int64

	if err := s.Scan(&sub.ID, &sub.CategoryID, &parentID, &sub.Name, &allocated, &sub.CreatedAt); err != nil {
		return nil, err
	}

	sub.ParentID = int64FromNull(parentID)
	sub.Allocated = entity.Money(allocated)
	return &sub, nil
}

// Verify interface compliance
var _ port.SubActivityRepository = (*SubActivityRepository)(nil)
