package service

import (
	"context"
	"testing"

	"github.com/garyjia/budget-ledger/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_Categories(t *testing.T) {
	f := newFixture("")
	ctx := context.Background()

	_, err := f.catalog.CreateCategory(ctx, CreateCategoryInput{Name: "  "})
	assert.True(t, IsValidation(err))

	office, err := f.catalog.CreateCategory(ctx, CreateCategoryInput{Name: "Office", Allocated: 5000})
	require.NoError(t, err)
	assert.Equal(t, entity.Money(5000), office.Remaining)

	_, err = f.catalog.CreateCategory(ctx, CreateCategoryInput{Name: "Office", Allocated: 1})
	assert.True(t, IsValidation(err), "name is unique within a fiscal year")

	_, err = f.catalog.CreateCategory(ctx, CreateCategoryInput{Name: "Office", Allocated: 1, Year: 2027})
	require.NoError(t, err)

	list, err := f.catalog.ListCategories(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2026, list[0].Year)

	_, err = f.catalog.GetCategory(ctx, 999)
	assert.True(t, IsNotFound(err))
}

func TestCatalogService_SubActivities(t *testing.T) {
	f := newFixture("")
	ctx := context.Background()
	events := f.category("Events", 10000)
	office := f.category("Office", 10000)

	parent, err := f.catalog.CreateSubActivity(ctx, CreateSubActivityInput{CategoryID: events.ID, Name: "Conference", Allocated: 4000})
	require.NoError(t, err)

	child, err := f.catalog.CreateSubActivity(ctx, CreateSubActivityInput{CategoryID: events.ID, ParentID: &parent.ID, Name: "Catering", Allocated: 1000})
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)

	_, err = f.catalog.CreateSubActivity(ctx, CreateSubActivityInput{CategoryID: office.ID, ParentID: &parent.ID, Name: "Stray"})
	assert.True(t, IsValidation(err))

	_, err = f.catalog.CreateSubActivity(ctx, CreateSubActivityInput{CategoryID: 999, Name: "Orphan"})
	assert.True(t, IsNotFound(err))

	usages, err := f.catalog.ListSubActivities(ctx, events.ID)
	require.NoError(t, err)
	require.Len(t, usages, 2)
	assert.Equal(t, entity.Money(4000), usages[0].Remaining)
}

func TestCatalogService_Ledger(t *testing.T) {
	f := newFixture("")
	ctx := context.Background()
	f.category("Office", 10000)

	req, err := f.requests.Create(ctx, "u-1", CreateRequestInput{Project: "P", Category: "Office", Amount: 1000})
	require.NoError(t, err)
	_, err = f.requests.Approve(ctx, req.ID, "mgr")
	require.NoError(t, err)
	_, err = f.requests.SubmitExpense(ctx, req.ID, "u-1", SubmitExpenseInput{ActualTotal: 700, ReturnAmount: 300})
	require.NoError(t, err)
	_, err = f.requests.Complete(ctx, req.ID, "mgr")
	require.NoError(t, err)

	snapshot, err := f.catalog.Ledger(ctx, 0)
	require.NoError(t, err)

	assert.Equal(t, 2026, snapshot.Year)
	require.Len(t, snapshot.Categories, 1)
	assert.Equal(t, entity.Money(700), snapshot.Categories[0].Used)
	assert.Equal(t, entity.Money(9300), snapshot.Categories[0].Remaining)
	require.Len(t, snapshot.Logs, 1)
	assert.Equal(t, entity.LogTypeReduce, snapshot.Logs[0].Type)
}
