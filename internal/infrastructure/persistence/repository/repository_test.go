package repository_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/garyjia/budget-ledger/internal/application/port"
	"github.com/garyjia/budget-ledger/internal/domain/entity"
	"github.com/garyjia/budget-ledger/internal/infrastructure/persistence/repository"
	"github.com/garyjia/budget-ledger/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/budget-ledger/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	logger := zap.NewNop()
	path := filepath.Join(t.TempDir(), "ledger.db")

	require.NoError(t, database.RunMigrations(path, logger))

	db, err := database.Open(database.Config{Path: path}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func seedCategory(t *testing.T, db *sql.DB, name string, allocated entity.Money) *entity.Category {
	t.Helper()

	now := time.Now()
	category := &entity.Category{
		Name:      name,
		Allocated: allocated,
		Year:      2026,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repository.NewCategoryRepository(db, zap.NewNop()).Create(context.Background(), category))
	return category
}

func TestCategoryRepository(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewCategoryRepository(db, zap.NewNop())
	ctx := context.Background()

	office := seedCategory(t, db, "Office", 100000)
	seedCategory(t, db, "Travel", 50000)
	assert.NotZero(t, office.ID)

	t.Run("lookup by name and year", func(t *testing.T) {
		got, err := repo.GetByNameAndYear(ctx, "Office", 2026)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, office.ID, got.ID)
		assert.Equal(t, entity.Money(100000), got.Allocated)
	})

	t.Run("missing category returns nil", func(t *testing.T) {
		got, err := repo.GetByNameAndYear(ctx, "Office", 2025)
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = repo.GetByID(ctx, 9999)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("adjust used is cumulative and accepts negative deltas", func(t *testing.T) {
		require.NoError(t, repo.AdjustUsed(ctx, office.ID, 30000))
		require.NoError(t, repo.AdjustUsed(ctx, office.ID, -5000))

		got, err := repo.GetByID(ctx, office.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.Money(25000), got.Used)
		assert.Equal(t, entity.Money(75000), got.Remaining())
	})

	t.Run("adjust used on unknown category fails", func(t *testing.T) {
		assert.Error(t, repo.AdjustUsed(ctx, 9999, 100))
	})

	t.Run("list by year is ordered by name", func(t *testing.T) {
		list, err := repo.ListByYear(ctx, 2026)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Office", list[0].Name)
		assert.Equal(t, "Travel", list[1].Name)
	})
}

func TestRequestRepository_ItemsAndCommittedTotals(t *testing.T) {
	db := openTestDB(t)
	logger := zap.NewNop()
	ctx := context.Background()

	category := seedCategory(t, db, "Events", 500000)
	subRepo := repository.NewSubActivityRepository(db, logger)
	reqRepo := repository.NewRequestRepository(db, logger)
	itemRepo := repository.NewExpenseItemRepository(db, logger)

	sub := &entity.SubActivity{CategoryID: category.ID, Name: "Kickoff", Allocated: 100000, CreatedAt: time.Now()}
	require.NoError(t, subRepo.Create(ctx, sub))

	subs, err := subRepo.ListByCategory(ctx, category.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Nil(t, subs[0].ParentID)

	newRequest := func(amount entity.Money, status string) *entity.BudgetRequest {
		now := time.Now()
		req := &entity.BudgetRequest{
			Project:       "Kickoff",
			Category:      "Events",
			SubActivityID: &sub.ID,
			RequesterID:   "u-1",
			Amount:        amount,
			Status:        status,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		require.NoError(t, reqRepo.Create(ctx, req))
		return req
	}

	first := newRequest(40000, entity.StatusPending)
	second := newRequest(20000, entity.StatusCompleted)
	newRequest(90000, entity.StatusRejected)

	returned := entity.Money(5000)
	actual := entity.Money(15000)
	second.ReturnAmount = &returned
	second.ActualAmount = &actual
	second.UpdatedAt = time.Now()
	require.NoError(t, reqRepo.Update(ctx, second))

	totals, err := reqRepo.SumCommittedBySubActivity(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.Money(60000), totals.Amount)
	assert.Equal(t, entity.Money(5000), totals.Returned)

	item := &entity.ExpenseLineItem{
		RequestID:   first.ID,
		Description: "Venue",
		Quantity:    2,
		UnitPrice:   10000,
		Total:       20000,
	}
	require.NoError(t, itemRepo.Create(ctx, item))
	require.NoError(t, itemRepo.UpdateActual(ctx, item.ID, 18000))

	items, err := itemRepo.GetByRequestID(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].ActualAmount)
	assert.Equal(t, entity.Money(18000), *items[0].ActualAmount)
	assert.Equal(t, entity.Money(20000), items[0].Total)

	listed, err := reqRepo.List(ctx, port.RequestFilter{Status: entity.StatusCompleted, Limit: 10})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, second.ID, listed[0].ID)

	require.NoError(t, reqRepo.UpdateStatus(ctx, first.ID, entity.StatusApproved))
	got, err := reqRepo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, got.Status)

	require.NoError(t, reqRepo.Delete(ctx, first.ID))
	got, err = reqRepo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	items, err = itemRepo.GetByRequestID(ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestExpenseRepository_Deletes(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewExpenseRepository(db, zap.NewNop())
	ctx := context.Background()

	category := seedCategory(t, db, "Office", 100000)
	requestID := int64(7)

	for _, desc := range []string{"[Alpha] Chairs", "[Alpha] Desks", "[Alpha_2] Lamps", "[Beta] Paper"} {
		expense := &entity.Expense{CategoryID: category.ID, Amount: 1000, Payee: "u-1", Date: time.Now(), Description: desc}
		if desc == "[Alpha] Chairs" {
			expense.RequestID = &requestID
		}
		require.NoError(t, repo.Create(ctx, expense))
	}

	n, err := repo.DeleteByRequestID(ctx, requestID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// underscore must not act as a wildcard
	n, err = repo.DeleteByDescriptionPrefix(ctx, "[Alpha]")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	remaining, err := repo.ListByCategory(ctx, category.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, "[Alpha_2] Lamps", remaining[0].Description)

	_, err = repo.DeleteByDescriptionPrefix(ctx, "")
	assert.Error(t, err)
}

func TestTransactionRollback(t *testing.T) {
	db := openTestDB(t)
	logger := zap.NewNop()
	tx := sqlite.NewTxManager(db, logger)
	logRepo := repository.NewBudgetLogRepository(db, logger)
	catRepo := repository.NewCategoryRepository(db, logger)
	ctx := context.Background()

	category := seedCategory(t, db, "Office", 100000)

	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := catRepo.AdjustUsed(ctx, category.ID, 1000); err != nil {
			return err
		}
		if err := logRepo.Create(ctx, &entity.BudgetLog{
			CategoryID: category.ID,
			Amount:     1000,
			Type:       entity.LogTypeAdd,
			User:       entity.SystemUser,
			CreatedAt:  time.Now(),
		}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	got, err := catRepo.GetByID(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.Money(0), got.Used)

	logs, err := logRepo.ListByYear(ctx, 2026)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestActivityLogRepository(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewActivityLogRepository(db, zap.NewNop())
	ctx := context.Background()

	requestID := int64(3)
	require.NoError(t, repo.Create(ctx, &entity.ActivityLog{
		UserID:    "u-9",
		Action:    entity.ActionApproveRequest,
		RequestID: &requestID,
		CreatedAt: time.Now(),
	}))

	logs, err := repo.ListByRequestID(ctx, requestID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "{}", logs[0].Metadata)
	assert.Equal(t, entity.ActionApproveRequest, logs[0].Action)
}
