// Package apperrors defines the typed failures returned by the cash
// services. Every failure carries a Kind so callers can branch with
// errors.Is against the exported sentinels.
package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindDuplicateDate     Kind = "duplicate_date"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindEmptyPeriod       Kind = "empty_period"
	KindStoreUnavailable  Kind = "store_unavailable"
)

// Error is a classified failure. Field is set for validation failures.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrDuplicateDate     = &Error{Kind: KindDuplicateDate}
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds}
	ErrEmptyPeriod       = &Error{Kind: KindEmptyPeriod}
	ErrStoreUnavailable  = &Error{Kind: KindStoreUnavailable}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel (or any *Error) of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func Validation(field, message string) error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func NotFound(resource, id string) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", resource, id)}
}

func DuplicateDate(date string) error {
	return &Error{Kind: KindDuplicateDate, Field: "date", Message: fmt.Sprintf("an entry already exists for %s", date)}
}

func InsufficientFunds(requested, available decimal.Decimal) error {
	return &Error{
		Kind:    KindInsufficientFunds,
		Field:   "amount",
		Message: fmt.Sprintf("requested %s exceeds back safe balance %s", requested.StringFixed(2), available.StringFixed(2)),
	}
}

func EmptyPeriod(month string) error {
	return &Error{Kind: KindEmptyPeriod, Field: "month", Message: fmt.Sprintf("no daily entries recorded for %s", month)}
}

// Store classifies err as a store failure unless it already carries a kind.
// A nil err stays nil.
func Store(err error, op string) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return &Error{Kind: KindStoreUnavailable, Message: fmt.Sprintf("failed to %s", op), Err: err}
}

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
