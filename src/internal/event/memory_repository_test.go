package event

import (
	"context"
	"testing"
	"time"

	"activity-alerts-svc/src/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(id string, typ models.TransactionType, amount string, userID, t int64) *models.ActivityEvent {
	return &models.ActivityEvent{
		ID:              id,
		TransactionType: typ,
		Amount:          decimal.RequireFromString(amount),
		UserID:          userID,
		EventReceivedAt: t,
	}
}

func ids(events []*models.ActivityEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestMemoryRepository_CreateSetsTimestamps(t *testing.T) {
	now := time.Date(2020, 1, 1, 0, 0, 29, 0, time.UTC)
	repo := NewMemoryRepository(func() time.Time { return now })

	e := testEvent("a", models.TransactionDeposit, "1.00", 1, 10)
	require.NoError(t, repo.Create(context.Background(), e))

	assert.Equal(t, now, e.CreatedAt)
	assert.Equal(t, now, e.UpdatedAt)

	stored, err := repo.ListEvents(context.Background(), 1, models.ListOptions{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, *e, *stored[0])
}

func TestMemoryRepository_ListEventsOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(nil)

	for _, e := range []*models.ActivityEvent{
		testEvent("b", models.TransactionWithdraw, "1", 1, 20),
		testEvent("a", models.TransactionDeposit, "1", 1, 10),
		testEvent("c1", models.TransactionDeposit, "1", 1, 30),
		testEvent("c2", models.TransactionWithdraw, "1", 1, 30),
		testEvent("other", models.TransactionDeposit, "1", 2, 15),
	} {
		require.NoError(t, repo.Create(ctx, e))
	}

	desc, err := repo.ListEvents(ctx, 1, models.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c2", "c1", "b", "a"}, ids(desc))

	asc, err := repo.ListEvents(ctx, 1, models.ListOptions{Ascending: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c1", "c2"}, ids(asc))

	deposits, err := repo.ListEvents(ctx, 1, models.ListOptions{TransactionType: models.TransactionDeposit, Ascending: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c1"}, ids(deposits))
}

func TestMemoryRepository_ListEventsEmpty(t *testing.T) {
	repo := NewMemoryRepository(nil)

	events, err := repo.ListEvents(context.Background(), 42, models.ListOptions{})
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestMemoryRepository_ListEventsReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(nil)
	require.NoError(t, repo.Create(ctx, testEvent("a", models.TransactionDeposit, "1", 1, 10)))

	first, err := repo.ListEvents(ctx, 1, models.ListOptions{})
	require.NoError(t, err)
	first[0].Amount = decimal.NewFromInt(999)

	second, err := repo.ListEvents(ctx, 1, models.ListOptions{})
	require.NoError(t, err)
	assert.True(t, second[0].Amount.Equal(decimal.NewFromInt(1)))
}

func TestMemoryRepository_SumDepositsInWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	repo := NewMemoryRepository(func() time.Time { return now })

	for _, e := range []*models.ActivityEvent{
		testEvent("old", models.TransactionDeposit, "500", 1, 969),
		testEvent("edge", models.TransactionDeposit, "50.25", 1, 970),
		testEvent("inside", models.TransactionDeposit, "25.50", 1, 999),
		testEvent("future", models.TransactionDeposit, "1.00", 1, 2000),
		testEvent("withdraw", models.TransactionWithdraw, "300", 1, 990),
		testEvent("other", models.TransactionDeposit, "300", 2, 990),
	} {
		require.NoError(t, repo.Create(ctx, e))
	}

	total, err := repo.SumDepositsInWindow(ctx, 1, 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "76.75", total.String())

	none, err := repo.SumDepositsInWindow(ctx, 3, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, none.IsZero())
}
