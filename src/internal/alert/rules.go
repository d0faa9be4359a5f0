// Package alert evaluates the fixed set of behavioural alert rules for a single
// incoming activity event against the user's previously recorded history.
package alert

import (
	"errors"
	"fmt"
	"time"

	"activity-alerts-svc/src/internal/config"

	"github.com/shopspring/decimal"
)

// Default rule thresholds.
var (
	DefaultSingleWithdrawLimit       = decimal.RequireFromString("100.00")
	DefaultAccumulativeDepositLimit  = decimal.RequireFromString("200.00")
	DefaultAccumulativeDepositWindow = 30 * time.Second
)

const (
	DefaultConsecutiveWithdrawCount = 3
	DefaultConsecutiveDepositCount  = 3
)

var (
	ErrInvalidWithdrawLimit = errors.New("single withdraw limit must be positive")
	ErrInvalidDepositLimit  = errors.New("accumulative deposit limit must be positive")
	ErrInvalidDepositWindow = errors.New("accumulative deposit window must be at least one second")
	ErrInvalidCount         = errors.New("consecutive transaction counts must be at least 1")
)

// Rules holds the thresholds every predicate reads. It is a value type so an
// Evaluator can never observe a change after construction.
type Rules struct {
	SingleWithdrawLimit       decimal.Decimal
	ConsecutiveWithdrawCount  int
	ConsecutiveDepositCount   int
	AccumulativeDepositWindow time.Duration
	AccumulativeDepositLimit  decimal.Decimal
}

func DefaultRules() Rules {
	return Rules{
		SingleWithdrawLimit:       DefaultSingleWithdrawLimit,
		ConsecutiveWithdrawCount:  DefaultConsecutiveWithdrawCount,
		ConsecutiveDepositCount:   DefaultConsecutiveDepositCount,
		AccumulativeDepositWindow: DefaultAccumulativeDepositWindow,
		AccumulativeDepositLimit:  DefaultAccumulativeDepositLimit,
	}
}

func (r Rules) Validate() error {
	if !r.SingleWithdrawLimit.IsPositive() {
		return ErrInvalidWithdrawLimit
	}
	if !r.AccumulativeDepositLimit.IsPositive() {
		return ErrInvalidDepositLimit
	}
	if r.AccumulativeDepositWindow < time.Second {
		return ErrInvalidDepositWindow
	}
	if r.ConsecutiveWithdrawCount < 1 || r.ConsecutiveDepositCount < 1 {
		return ErrInvalidCount
	}
	return nil
}

// RulesFromConfig converts the config file thresholds into Rules.
func RulesFromConfig(cfg *config.RulesSettings) (Rules, error) {
	withdrawLimit, err := decimal.NewFromString(cfg.SingleWithdrawLimit)
	if err != nil {
		return Rules{}, fmt.Errorf("single withdraw limit: %w", err)
	}

	depositLimit, err := decimal.NewFromString(cfg.AccumulativeDepositLimit)
	if err != nil {
		return Rules{}, fmt.Errorf("accumulative deposit limit: %w", err)
	}

	rules := Rules{
		SingleWithdrawLimit:       withdrawLimit,
		ConsecutiveWithdrawCount:  cfg.ConsecutiveWithdrawCount,
		ConsecutiveDepositCount:   cfg.ConsecutiveDepositCount,
		AccumulativeDepositWindow: time.Duration(cfg.AccumulativeDepositWindow) * time.Second,
		AccumulativeDepositLimit:  depositLimit,
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}
