package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

// Transaction type constants
const (
	TransactionDeposit  TransactionType = "deposit"
	TransactionWithdraw TransactionType = "withdraw"
)

// ParseTransactionType matches deposit/withdraw case-insensitively.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case TransactionDeposit:
		return TransactionDeposit, true
	case TransactionWithdraw:
		return TransactionWithdraw, true
	default:
		return "", false
	}
}

func (t TransactionType) IsValid() bool {
	return t == TransactionDeposit || t == TransactionWithdraw
}

// ActivityEvent is one recorded deposit or withdrawal.
// EventReceivedAt is the caller supplied epoch-seconds ordering key; CreatedAt and
// UpdatedAt are audit fields owned by the store.
type ActivityEvent struct {
	ID              string          `json:"id"`
	TransactionType TransactionType `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	UserID          int64           `json:"user_id"`
	EventReceivedAt int64           `json:"t"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (e *ActivityEvent) IsDeposit() bool {
	return e.TransactionType == TransactionDeposit
}

func (e *ActivityEvent) IsWithdraw() bool {
	return e.TransactionType == TransactionWithdraw
}

// ListOptions narrows a history query. The zero value lists every type,
// most recent first.
type ListOptions struct {
	TransactionType TransactionType
	Ascending       bool
}
