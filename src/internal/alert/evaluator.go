package alert

import (
	"context"
	"fmt"
	"time"

	"activity-alerts-svc/src/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// History is the read side of the event store. Both queries must reflect the
// state before the event being evaluated is persisted.
type History interface {
	// ListEvents returns the user's events ordered by EventReceivedAt, most recent
	// first unless opts.Ascending is set. No match yields an empty slice.
	ListEvents(ctx context.Context, userID int64, opts models.ListOptions) ([]*models.ActivityEvent, error)
	// SumDepositsInWindow totals deposits whose EventReceivedAt is at or after
	// the store's current time minus window. No match yields zero.
	SumDepositsInWindow(ctx context.Context, userID int64, window time.Duration) (decimal.Decimal, error)
}

type rule struct {
	name  string
	code  models.AlertCode
	check func(ctx context.Context, userID int64, event *models.ActivityEvent) (bool, error)
}

// Evaluator runs every rule against one incoming event. It holds no mutable
// state and is safe for concurrent use.
type Evaluator struct {
	history History
	rules   Rules
	chain   []rule
}

func NewEvaluator(history History, rules Rules) *Evaluator {
	e := &Evaluator{
		history: history,
		rules:   rules,
	}

	// Emission order of alert codes follows this slice.
	e.chain = []rule{
		{name: "withdraw_limit", code: models.AlertWithdrawLimitExceeded, check: e.checkWithdrawLimit},
		{name: "consecutive_withdraws", code: models.AlertConsecutiveWithdraws, check: e.checkConsecutiveWithdraws},
		{name: "accumulative_deposits", code: models.AlertAccumulativeDeposits, check: e.checkAccumulativeDeposits},
		{name: "consecutive_deposits", code: models.AlertConsecutiveDeposits, check: e.checkConsecutiveDeposits},
	}
	return e
}

func (e *Evaluator) Rules() Rules {
	return e.rules
}

// Evaluate returns the alert codes triggered by event for userID. A history read
// failure aborts the whole evaluation; no partial result is returned.
func (e *Evaluator) Evaluate(ctx context.Context, userID int64, event *models.ActivityEvent) (*models.AlertResponse, error) {
	codes := make([]models.AlertCode, 0, len(e.chain))

	for _, r := range e.chain {
		triggered, err := r.check(ctx, userID, event)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"user_id": userID,
				"rule":    r.name,
			}).Error("Failed to evaluate alert rule")
			return nil, fmt.Errorf("%w: rule %s: %w", models.ErrHistoryUnavailable, r.name, err)
		}

		if triggered {
			codes = append(codes, r.code)
		}
	}

	return models.NewAlertResponse(userID, codes), nil
}
