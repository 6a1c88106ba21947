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

// ActivityLogRepository implements port.ActivityLogRepository
type ActivityLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewActivityLogRepository creates a new activity log repository
func NewActivityLogRepository(db *sql.DB, logger *zap.Logger) port.ActivityLogRepository {
	return &ActivityLogRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends an activity log entry
func (r *ActivityLogRepository) Create(ctx context.Context, log *entity.ActivityLog) error {
	query := `
		INSERT INTO activity_logs (user_id, action, request_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	metadata := log.Metadata
	if metadata == "" {
		metadata = "{}"
	}

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		log.UserID,
		log.Action,
		nullInt64(log.RequestID),
		metadata,
		log.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create activity log", zap.String("action", log.Action), zap.Error(err))
		return fmt.Errorf("failed to create activity log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	log.ID = id
	return nil
}

// ListByRequestID retrieves the activity of a request in chronological order
func (r *ActivityLogRepository) ListByRequestID(ctx context.Context, requestID int64) ([]*entity.ActivityLog, error) {
	query := `
		SELECT id, user_id, action, request_id, metadata, created_at
		FROM activity_logs
		WHERE request_id = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to query activity logs", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to query activity logs: %w", err)
	}
	defer rows.Close()

	var logs []*entity.ActivityLog
	for rows.Next() {
		var log entity.ActivityLog
		var reqID sql.NullInt64

		if err := rows.Scan(&log.ID, &log.UserID, &log.Action, &reqID, &log.Metadata, &log.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity log: %w", err)
		}

		log.RequestID = int64FromNull(reqID)
		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

// Verify interface compliance
var _ port.ActivityLogRepository = (*ActivityLogRepository)(nil)
