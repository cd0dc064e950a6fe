package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func TestErrorsIsMatchesKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		kind     Kind
	}{
		{"validation", Validation("note", "is required"), ErrValidation, KindValidation},
		{"not found", NotFound("daily entry", "42"), ErrNotFound, KindNotFound},
		{"duplicate date", DuplicateDate("2024-03-01"), ErrDuplicateDate, KindDuplicateDate},
		{"insufficient funds", InsufficientFunds(decimal.NewFromInt(250), decimal.NewFromInt(200)), ErrInsufficientFunds, KindInsufficientFunds},
		{"empty period", EmptyPeriod("2024-03"), ErrEmptyPeriod, KindEmptyPeriod},
		{"store", Store(errors.New("connection refused"), "list daily entries"), ErrStoreUnavailable, KindStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false", tt.err)
			}
			wrapped := fmt.Errorf("handler: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Error("kind lost through wrapping")
			}
			if got := KindOf(wrapped); got != tt.kind {
				t.Errorf("KindOf() = %q, want %q", got, tt.kind)
			}
			if tt.kind != KindNotFound && errors.Is(tt.err, ErrNotFound) {
				t.Error("matched a different kind")
			}
		})
	}
}

func TestStore(t *testing.T) {
	if Store(nil, "anything") != nil {
		t.Fatal("nil error must stay nil")
	}

	classified := NotFound("withdrawal", "7")
	if got := Store(classified, "get withdrawal"); got != classified {
		t.Errorf("classified error was rewrapped: %v", got)
	}

	cause := errors.New("dial tcp: i/o timeout")
	err := Store(cause, "list daily entries")
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if want := "failed to list daily entries: dial tcp: i/o timeout"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorMessage(t *testing.T) {
	err := InsufficientFunds(decimal.NewFromInt(250), decimal.NewFromInt(200))
	want := "amount: requested 250.00 exceeds back safe balance 200.00"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	if KindOf(errors.New("plain")) != "" {
		t.Error("unclassified error should have no kind")
	}
}
