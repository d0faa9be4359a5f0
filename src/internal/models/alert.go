package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AlertCode int

// Alert code constants
const (
	AlertWithdrawLimitExceeded AlertCode = 1100
	AlertConsecutiveWithdraws  AlertCode = 30
	AlertConsecutiveDeposits   AlertCode = 300
	AlertAccumulativeDeposits  AlertCode = 123
)

// AlertResponse is the per-event evaluation result returned to the caller.
type AlertResponse struct {
	Alert      bool  `json:"alert"`
	AlertCodes []int `json:"alert_codes"`
	UserID     int64 `json:"user_id"`
}

// NewAlertResponse builds a response from codes in trigger order.
func NewAlertResponse(userID int64, codes []AlertCode) *AlertResponse {
	out := make([]int, 0, len(codes))
	seen := make(map[AlertCode]struct{}, len(codes))
	for _, code := range codes {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, int(code))
	}

	return &AlertResponse{
		Alert:      len(out) > 0,
		AlertCodes: out,
		UserID:     userID,
	}
}

// AlertMessage is published to the message queue for every alerting event.
type AlertMessage struct {
	EventID         string          `json:"event_id"`
	UserID          int64           `json:"user_id"`
	TransactionType TransactionType `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	EventReceivedAt int64           `json:"event_received_at"`
	AlertCodes      []int           `json:"alert_codes"`
	EvaluatedAt     time.Time       `json:"evaluated_at"`
}
