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

const requestColumns = `
	id, project, category, sub_activity_id, requester_id,
	amount_cents, actual_amount_cents, return_amount_cents, status,
	approver_id, approved_at, completed_at, rejection_reason,
	created_at, updated_at`

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new budget request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new budget request (without its line items)
func (r *RequestRepository) Create(ctx context.Context, req *entity.BudgetRequest) error {
	query := `
		INSERT INTO budget_requests (
			project, category, sub_activity_id, requester_id,
			amount_cents, actual_amount_cents, return_amount_cents, status,
			approver_id, approved_at, completed_at, rejection_reason,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		req.Project,
		req.Category,
		nullInt64(req.SubActivityID),
		req.RequesterID,
		int64(req.Amount),
		nullMoney(req.ActualAmount),
		nullMoney(req.ReturnAmount),
		req.Status,
		req.ApproverID,
		nullTime(req.ApprovedAt),
		nullTime(req.CompletedAt),
		req.RejectionReason,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create budget request", zap.String("project", req.Project), zap.Error(err))
		return fmt.Errorf("failed to create budget request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	req.ID = id
	return nil
}

// GetByID retrieves a budget request by ID
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*entity.BudgetRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM budget_requests WHERE id = ?`

	req, err := scanRequest(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get budget request", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get budget request: %w", err)
	}

	return req, nil
}

// List retrieves budget requests, newest first
func (r *RequestRepository) List(ctx context.Context, filter port.RequestFilter) ([]*entity.BudgetRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM budget_requests`
	var args []interface{}

	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, filter.Status)
	}

	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list budget requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list budget requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.BudgetRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// Update persists the mutable fields of a budget request
func (r *RequestRepository) Update(ctx context.Context, req *entity.BudgetRequest) error {
	query := `
		UPDATE budget_requests SET
			status = ?,
			actual_amount_cents = ?,
			return_amount_cents = ?,
			approver_id = ?,
			approved_at = ?,
			completed_at = ?,
			rejection_reason = ?,
			updated_at = ?
		WHERE id = ?
	`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		req.Status,
		nullMoney(req.ActualAmount),
		nullMoney(req.ReturnAmount),
		req.ApproverID,
		nullTime(req.ApprovedAt),
		nullTime(req.CompletedAt),
		req.RejectionReason,
		req.UpdatedAt,
		req.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update budget request", zap.Int64("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to update budget request: %w", err)
	}

	return nil
}

// UpdateStatus sets the status of a budget request
func (r *RequestRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE budget_requests SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update status", zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("failed to update status: %w", err)
	}

	return nil
}

// Delete removes a budget request; its line items cascade
func (r *RequestRepository) Delete(ctx context.Context, id int64) error {
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, `DELETE FROM budget_requests WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete budget request", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete budget request: %w", err)
	}

	return nil
}

// SumCommittedBySubActivity aggregates amounts of non-rejected requests on a sub-activity
func (r *RequestRepository) SumCommittedBySubActivity(ctx context.Context, subActivityID int64) (*port.CommittedTotals, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0), COALESCE(SUM(return_amount_cents), 0)
		FROM budget_requests
		WHERE sub_activity_id = ? AND status != ?
	`

	var amount, returned int64
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, subActivityID, entity.StatusRejected).
		Scan(&amount, &returned)
	if err != nil {
		r.logger.Error("Failed to sum sub-activity commitments", zap.Int64("sub_activity_id", subActivityID), zap.Error(err))
		return nil, fmt.Errorf("failed to sum sub-activity commitments: %w", err)
	}

	return &port.CommittedTotals{
		Amount:   entity.Money(amount),
		Returned: entity.Money(returned),
	}, nil
}

func scanRequest(s scanner) (*entity.BudgetRequest, error) {
	var req entity.BudgetRequest
	var subActivityID, actual, returned sql.NullInt64
	var approvedAt, completedAt sql.NullTime
	var amount int64

	err := s.Scan(
		&req.ID,
		&req.Project,
		&req.Category,
		&subActivityID,
		&req.RequesterID,
		&amount,
		&actual,
		&returned,
		&req.Status,
		&req.ApproverID,
		&approvedAt,
		&completedAt,
		&req.RejectionReason,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.SubActivityID = int64FromNull(subActivityID)
	req.Amount = entity.Money(amount)
	req.ActualAmount = moneyFromNull(actual)
	req.ReturnAmount = moneyFromNull(returned)
	req.ApprovedAt = timeFromNull(approvedAt)
	req.CompletedAt = timeFromNull(completedAt)
	return &req, nil
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
