package alert

import (
	"testing"

	"activity-alerts-svc/src/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func events(types ...models.TransactionType) []*models.ActivityEvent {
	out := make([]*models.ActivityEvent, len(types))
	for i, typ := range types {
		out[i] = &models.ActivityEvent{TransactionType: typ, Amount: decimal.NewFromInt(1)}
	}
	return out
}

func deposits(amounts ...string) []*models.ActivityEvent {
	out := make([]*models.ActivityEvent, len(amounts))
	for i, a := range amounts {
		out[i] = &models.ActivityEvent{TransactionType: models.TransactionDeposit, Amount: decimal.RequireFromString(a)}
	}
	return out
}

func TestExceedsWithdrawLimit(t *testing.T) {
	limit := decimal.RequireFromString("100.00")

	assert.True(t, ExceedsWithdrawLimit(&models.ActivityEvent{TransactionType: models.TransactionWithdraw, Amount: decimal.RequireFromString("100.01")}, limit))
	assert.False(t, ExceedsWithdrawLimit(&models.ActivityEvent{TransactionType: models.TransactionWithdraw, Amount: decimal.RequireFromString("100")}, limit))
	assert.False(t, ExceedsWithdrawLimit(&models.ActivityEvent{TransactionType: models.TransactionDeposit, Amount: decimal.RequireFromString("500")}, limit))
}

func TestConsecutiveWithdraws(t *testing.T) {
	w, d := models.TransactionWithdraw, models.TransactionDeposit

	assert.False(t, ConsecutiveWithdraws(nil, 3))
	assert.False(t, ConsecutiveWithdraws(events(w), 3))
	assert.True(t, ConsecutiveWithdraws(events(w, w), 3))
	assert.True(t, ConsecutiveWithdraws(events(w, w, d), 3))
	assert.False(t, ConsecutiveWithdraws(events(w, d, w), 3))
	assert.False(t, ConsecutiveWithdraws(events(d, w, w), 3))
	assert.True(t, ConsecutiveWithdraws(events(w, w, w), 4))
	assert.False(t, ConsecutiveWithdraws(events(w, w, d), 4))
}

func TestIncreasingDeposits(t *testing.T) {
	current := decimal.RequireFromString("100.00")

	assert.False(t, IncreasingDeposits(nil, current, 3))
	assert.False(t, IncreasingDeposits(deposits("50"), current, 3))
	assert.True(t, IncreasingDeposits(deposits("50", "75"), current, 3))
	assert.True(t, IncreasingDeposits(deposits("50", "75", "10"), current, 3))
	assert.False(t, IncreasingDeposits(deposits("50", "100"), current, 3))
	assert.False(t, IncreasingDeposits(deposits("75", "50"), current, 3))
	assert.True(t, IncreasingDeposits(deposits("99.99"), current, 2))
}

func TestStrictlyIncreasing(t *testing.T) {
	assert.True(t, strictlyIncreasing(nil))
	assert.True(t, strictlyIncreasing([]decimal.Decimal{decimal.NewFromInt(1)}))
	assert.True(t, strictlyIncreasing([]decimal.Decimal{decimal.RequireFromString("1.00"), decimal.RequireFromString("1.01")}))
	assert.False(t, strictlyIncreasing([]decimal.Decimal{decimal.RequireFromString("1.0"), decimal.RequireFromString("1.00")}))
}
