package alert

import (
	"context"

	"activity-alerts-svc/src/internal/models"

	"github.com/shopspring/decimal"
)

func (e *Evaluator) checkWithdrawLimit(_ context.Context, _ int64, event *models.ActivityEvent) (bool, error) {
	return ExceedsWithdrawLimit(event, e.rules.SingleWithdrawLimit), nil
}

// checkConsecutiveWithdraws looks at the most recent prior events of any type.
// A deposit among them breaks the streak.
func (e *Evaluator) checkConsecutiveWithdraws(ctx context.Context, userID int64, event *models.ActivityEvent) (bool, error) {
	if !event.IsWithdraw() {
		return false, nil
	}

	history, err := e.history.ListEvents(ctx, userID, models.ListOptions{})
	if err != nil {
		return false, err
	}

	return ConsecutiveWithdraws(history, e.rules.ConsecutiveWithdrawCount), nil
}

// checkConsecutiveDeposits compares the oldest recorded deposits, not the ones
// immediately before event.
func (e *Evaluator) checkConsecutiveDeposits(ctx context.Context, userID int64, event *models.ActivityEvent) (bool, error) {
	if !event.IsDeposit() {
		return false, nil
	}

	deposits, err := e.history.ListEvents(ctx, userID, models.ListOptions{
		TransactionType: models.TransactionDeposit,
		Ascending:       true,
	})
	if err != nil {
		return false, err
	}

	return IncreasingDeposits(deposits, event.Amount, e.rules.ConsecutiveDepositCount), nil
}

func (e *Evaluator) checkAccumulativeDeposits(ctx context.Context, userID int64, event *models.ActivityEvent) (bool, error) {
	if !event.IsDeposit() {
		return false, nil
	}

	deposited, err := e.history.SumDepositsInWindow(ctx, userID, e.rules.AccumulativeDepositWindow)
	if err != nil {
		return false, err
	}

	return deposited.Add(event.Amount).GreaterThan(e.rules.AccumulativeDepositLimit), nil
}

// ExceedsWithdrawLimit reports a withdrawal strictly above limit.
func ExceedsWithdrawLimit(event *models.ActivityEvent, limit decimal.Decimal) bool {
	return event.IsWithdraw() && event.Amount.GreaterThan(limit)
}

// ConsecutiveWithdraws reports whether the first count-1 entries of a
// most-recent-first history are all withdrawals.
func ConsecutiveWithdraws(history []*models.ActivityEvent, count int) bool {
	prior := count - 1
	if len(history) == 0 || len(history) < prior {
		return false
	}

	for _, ev := range history[:prior] {
		if !ev.IsWithdraw() {
			return false
		}
	}
	return true
}

// IncreasingDeposits appends current to the first count-1 amounts of an
// oldest-first deposit history and reports whether the result strictly increases.
func IncreasingDeposits(deposits []*models.ActivityEvent, current decimal.Decimal, count int) bool {
	prior := count - 1
	if len(deposits) == 0 || len(deposits) < prior {
		return false
	}

	amounts := make([]decimal.Decimal, 0, count)
	for _, ev := range deposits[:prior] {
		amounts = append(amounts, ev.Amount)
	}
	amounts = append(amounts, current)

	return strictlyIncreasing(amounts)
}

func strictlyIncreasing(amounts []decimal.Decimal) bool {
	for i := 0; i+1 < len(amounts); i++ {
		if amounts[i].GreaterThanOrEqual(amounts[i+1]) {
			return false
		}
	}
	return true
}
