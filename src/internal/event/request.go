package event

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"activity-alerts-svc/src/internal/models"

	"github.com/shopspring/decimal"
)

// Request payload keys
const (
	fieldType            = "type"
	fieldAmount          = "amount"
	fieldUserID          = "user_id"
	fieldEventReceivedAt = "t"
)

// CreateEventRequest is a validated POST /event payload.
type CreateEventRequest struct {
	TransactionType models.TransactionType
	Amount          decimal.Decimal
	UserID          int64
	EventReceivedAt int64
}

// ParseCreateEventRequest decodes body and reports every field problem at once
// as a *models.ValidationError. Unknown keys are ignored. The amount is rounded
// to two places but its sign is not checked here.
func ParseCreateEventRequest(body []byte) (*CreateEventRequest, error) {
	verr := models.NewValidationError()

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		verr.Add(models.SchemaErrorsKey, models.MsgInvalidInput)
		return nil, verr
	}

	req := &CreateEventRequest{}

	if raw, ok := field(payload, fieldType, verr); ok {
		var s string
		t, valid := models.TransactionType(""), false
		if err := json.Unmarshal(raw, &s); err == nil {
			t, valid = models.ParseTransactionType(s)
		}
		if !valid {
			verr.Add(fieldType, models.MsgInvalidType)
		}
		req.TransactionType = t
	}

	if raw, ok := field(payload, fieldAmount, verr); ok {
		amount, valid := parseDecimal(raw)
		if !valid {
			verr.Add(fieldAmount, models.MsgInvalidNumber)
		}
		// Amounts are cents: round half to even before the sign check and the rules.
		req.Amount = amount.RoundBank(amountPlaces)
	}

	if raw, ok := field(payload, fieldUserID, verr); ok {
		userID, valid := parseInteger(raw)
		if !valid {
			verr.Add(fieldUserID, models.MsgInvalidInteger)
		}
		req.UserID = userID
	}

	if raw, ok := field(payload, fieldEventReceivedAt, verr); ok {
		t, valid := parseInteger(raw)
		if !valid {
			verr.Add(fieldEventReceivedAt, models.MsgInvalidInteger)
		}
		req.EventReceivedAt = t
	}

	if verr.HasErrors() {
		return nil, verr
	}
	return req, nil
}

// field returns the raw value for key, recording missing and null values on verr.
func field(payload map[string]json.RawMessage, key string, verr *models.ValidationError) (json.RawMessage, bool) {
	raw, ok := payload[key]
	if !ok {
		verr.Add(key, models.MsgMissingField)
		return nil, false
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		verr.Add(key, models.MsgNullField)
		return nil, false
	}
	return raw, true
}

// parseDecimal accepts a JSON number or a numeric string.
func parseDecimal(raw json.RawMessage) (decimal.Decimal, bool) {
	text, ok := scalarText(raw)
	if !ok {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// parseInteger accepts a JSON number or numeric string with no fractional part.
func parseInteger(raw json.RawMessage) (int64, bool) {
	text, ok := scalarText(raw)
	if !ok {
		return 0, false
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, true
	}
	d, err := decimal.NewFromString(text)
	if err != nil || !d.IsInteger() {
		return 0, false
	}
	return d.IntPart(), true
}

func scalarText(raw json.RawMessage) (string, bool) {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return "", false
	}

	switch val := v.(type) {
	case json.Number:
		return val.String(), true
	case string:
		text := strings.TrimSpace(val)
		return text, text != ""
	default:
		return "", false
	}
}
