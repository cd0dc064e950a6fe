// Package cashflow holds the pure rules behind the safe balances: how the
// front safe and back safe balances are derived from the stored history,
// and how a daily entry is reconciled against the running front safe.
// Nothing here touches the store.
package cashflow

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cash-reconciliation-service/internal/apperrors"
	"cash-reconciliation-service/internal/models"
)

const (
	// Monetary precision in decimal places
	MoneyPlaces = 2
)

// BalanceTolerance absorbs rounding noise; it is not a business allowance.
var BalanceTolerance = decimal.New(1, -MoneyPlaces)

// MaxAmount is the largest magnitude a stored money column holds (DECIMAL(12,2)).
var MaxAmount = decimal.RequireFromString("9999999999.99")

type Reconciliation struct {
	PreviousBalance   decimal.Decimal
	ExpectedFrontSafe decimal.Decimal
	Difference        decimal.Decimal
	IsBalanced        bool
}

// ExpectedFrontSafe is what should remain in the front safe after the day.
func ExpectedFrontSafe(previous, cashIn, deposited, toBackSafe decimal.Decimal) decimal.Decimal {
	return previous.Add(cashIn).Sub(deposited).Sub(toBackSafe)
}

func IsBalanced(difference decimal.Decimal) bool {
	return difference.Abs().LessThan(BalanceTolerance)
}

func Reconcile(previous, cashIn, deposited, toBackSafe, actualLeftInFront decimal.Decimal) Reconciliation {
	expected := ExpectedFrontSafe(previous, cashIn, deposited, toBackSafe)
	difference := actualLeftInFront.Sub(expected)
	return Reconciliation{
		PreviousBalance:   previous,
		ExpectedFrontSafe: expected,
		Difference:        difference,
		IsBalanced:        IsBalanced(difference),
	}
}

// Validate rejects derived values that do not fit a money column even
// though every input did.
func (r Reconciliation) Validate() error {
	if r.ExpectedFrontSafe.Abs().GreaterThan(MaxAmount) {
		return apperrors.Validation("expected_front_safe", "exceeds the maximum storable amount")
	}
	if r.Difference.Abs().GreaterThan(MaxAmount) {
		return apperrors.Validation("difference", "exceeds the maximum storable amount")
	}
	return nil
}

// ApplyTo writes the computed fields onto e. The approval state is left alone.
func (r Reconciliation) ApplyTo(e *models.DailyEntry) {
	e.ExpectedFrontSafe = r.ExpectedFrontSafe
	e.Difference = r.Difference
	e.IsBalanced = r.IsBalanced
}

// FrontSafeBalance is the amount counted in the most recent entry, or zero.
// The slice order is not trusted.
func FrontSafeBalance(entries []*models.DailyEntry) decimal.Decimal {
	latest := latestEntry(entries, func(string) bool { return true })
	if latest == nil {
		return decimal.Zero
	}
	return latest.ActualLeftInFront
}

// PreviousFrontSafe is the front safe balance carried into date: the count
// of the latest entry strictly before it. excludeID skips the entry being
// edited.
func PreviousFrontSafe(entries []*models.DailyEntry, date, excludeID string) decimal.Decimal {
	latest := latestEntry(entries, func(d string) bool { return d < date }, excludeID)
	if latest == nil {
		return decimal.Zero
	}
	return latest.ActualLeftInFront
}

// FrontSafeAsOf is the front safe balance at the end of date.
func FrontSafeAsOf(entries []*models.DailyEntry, date string) decimal.Decimal {
	latest := latestEntry(entries, func(d string) bool { return d <= date })
	if latest == nil {
		return decimal.Zero
	}
	return latest.ActualLeftInFront
}

func latestEntry(entries []*models.DailyEntry, keep func(date string) bool, excludeIDs ...string) *models.DailyEntry {
	var latest *models.DailyEntry
	for _, e := range entries {
		if excluded(e.ID, excludeIDs) || !keep(e.Date) {
			continue
		}
		if latest == nil || e.Date > latest.Date {
			latest = e
		}
	}
	return latest
}

func excluded(id string, ids []string) bool {
	for _, x := range ids {
		if x != "" && x == id {
			return true
		}
	}
	return false
}

// BackSafeBalance folds the whole ledger: deposits add, withdrawals subtract.
func BackSafeBalance(txns []*models.BackSafeTransaction) decimal.Decimal {
	return foldLedger(txns, func(string) bool { return true })
}

// BackSafeAsOf folds the ledger rows dated on or before date.
func BackSafeAsOf(txns []*models.BackSafeTransaction, date string) decimal.Decimal {
	return foldLedger(txns, func(d string) bool { return d <= date })
}

func foldLedger(txns []*models.BackSafeTransaction, keep func(date string) bool) decimal.Decimal {
	balance := decimal.Zero
	for _, t := range txns {
		if !keep(t.Date) {
			continue
		}
		switch t.Type {
		case models.TransactionDeposit:
			balance = balance.Add(t.Amount)
		case models.TransactionWithdrawal:
			balance = balance.Sub(t.Amount)
		}
	}
	return balance
}

// CountOff returns how many entries are discrepant and not approved.
func CountOff(entries []*models.DailyEntry) int {
	n := 0
	for _, e := range entries {
		if e.Status() == models.StatusOff {
			n++
		}
	}
	return n
}

// ValidateDate checks for the fixed YYYY-MM-DD form.
func ValidateDate(field, date string) error {
	if len(date) != len(models.DateLayout) {
		return apperrors.Validation(field, "invalid date format, expected YYYY-MM-DD")
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return apperrors.Validation(field, "invalid date format, expected YYYY-MM-DD")
	}
	return nil
}

// ValidateMonth checks for the fixed YYYY-MM form. Fixed width keeps string
// comparison chronological.
func ValidateMonth(field, month string) error {
	if len(month) != len(models.MonthLayout) {
		return apperrors.Validation(field, "invalid month format, expected YYYY-MM")
	}
	if _, err := time.Parse(models.MonthLayout, month); err != nil {
		return apperrors.Validation(field, "invalid month format, expected YYYY-MM")
	}
	return nil
}

// ValidateAmount rejects negative amounts, sub-cent precision and amounts
// above MaxAmount.
func ValidateAmount(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperrors.Validation(field, "amount must not be negative")
	}
	if amount.GreaterThan(MaxAmount) {
		return apperrors.Validation(field, "amount must not exceed "+MaxAmount.StringFixed(MoneyPlaces))
	}
	if !amount.Equal(amount.Round(MoneyPlaces)) {
		return apperrors.Validation(field, "amount must have at most two decimal places")
	}
	return nil
}

// MonthEnd returns the last calendar day of month as YYYY-MM-DD.
func MonthEnd(month string) (string, error) {
	start, err := time.Parse(models.MonthLayout, month)
	if err != nil {
		return "", apperrors.Validation("month", "invalid month format, expected YYYY-MM")
	}
	return start.AddDate(0, 1, -1).Format(models.DateLayout), nil
}

// InMonth reports whether date falls in month. An empty month matches all.
func InMonth(date, month string) bool {
	return month == "" || strings.HasPrefix(date, month+"-")
}
