package models

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrLockAcquire = errors.New("failed to acquire user lock")
	ErrLockTimeout = errors.New("timed out waiting for user lock")
	ErrLockRelease = errors.New("failed to release user lock")
)

var (
	ErrDatabaseQuery      = errors.New("database query error")
	ErrDatabaseInsert     = errors.New("database insert error")
	ErrHistoryUnavailable = errors.New("event history unavailable")
	ErrEventPersist       = errors.New("failed to persist activity event")
)

var (
	ErrNonPositiveAmount = errors.New("amount must be greater than 0")
	ErrInvalidUserID     = errors.New("invalid user id")
	ErrPublishAlert      = errors.New("failed to publish alert message")
)

// Field validation messages
const (
	MsgNonPositiveAmount = "Amount must be greater than 0"
	MsgMissingField      = "Missing data for required field."
	MsgNullField         = "Field may not be null."
	MsgInvalidType       = "Must be one of: DEPOSIT, WITHDRAW."
	MsgInvalidNumber     = "Not a valid number."
	MsgInvalidInteger    = "Not a valid integer."
	MsgInvalidInput      = "Invalid input type."
	SchemaErrorsKey      = "_schema"
	ValidationFailedMsg  = "Validation failed"
)

// ValidationError carries per-field messages for a rejected request payload.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
