package service

import (
	"context"
	"fmt"

	"github.com/garyjia/budget-ledger/internal/application/port"
	"github.com/garyjia/budget-ledger/internal/domain/entity"
)

// AllocationChecker guards sub-activity allocations at request creation
type AllocationChecker struct {
	subRepo     port.SubActivityRepository
	requestRepo port.RequestRepository
}

// NewAllocationChecker creates an allocation checker
func NewAllocationChecker(subRepo port.SubActivityRepository, requestRepo port.RequestRepository) *AllocationChecker {
	return &AllocationChecker{
		subRepo:     subRepo,
		requestRepo: requestRepo,
	}
}

// Usage derives the used and remaining amounts of a sub-activity from its
// non-rejected requests
func (c *AllocationChecker) Usage(ctx context.Context, sub *entity.SubActivity) (*entity.SubActivityUsage, error) {
	totals, err := c.requestRepo.SumCommittedBySubActivity(ctx, sub.ID)
	if err != nil {
		return nil, fmt.Errorf("sum sub-activity usage: %w", err)
	}

	used := totals.Amount - totals.Returned
	return &entity.SubActivityUsage{
		SubActivity: sub,
		Used:        used,
		Remaining:   sub.Allocated - used,
	}, nil
}

// Check fails with InsufficientBudgetError when requested would push the
// sub-activity past its allocation
func (c *AllocationChecker) Check(ctx context.Context, subActivityID int64, requested entity.Money) error {
	sub, err := c.subRepo.GetByID(ctx, subActivityID)
	if err != nil {
		return fmt.Errorf("get sub-activity: %w", err)
	}
	if sub == nil {
		return &NotFoundError{Resource: "sub-activity", ID: subActivityID}
	}

	usage, err := c.Usage(ctx, sub)
	if err != nil {
		return err
	}

	if usage.Used+requested > sub.Allocated {
		return &InsufficientBudgetError{
			SubActivityID: subActivityID,
			Remaining:     usage.Remaining,
			Requested:     requested,
		}
	}
	return nil
}
