package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyEntry is the cash count recorded for one account on one calendar day
type DailyEntry struct {
	ID                string          `db:"id" json:"id"`
	AccountID         string          `db:"account_id" json:"-"`
	Date              string          `db:"entry_date" json:"date"`
	CashIn            decimal.Decimal `db:"cash_in" json:"cash_in"`
	Deposited         decimal.Decimal `db:"deposited" json:"deposited"`
	ToBackSafe        decimal.Decimal `db:"to_back_safe" json:"to_back_safe"`
	ActualLeftInFront decimal.Decimal `db:"actual_left_in_front" json:"actual_left_in_front"`
	ExpectedFrontSafe decimal.Decimal `db:"expected_front_safe" json:"expected_front_safe"`
	Difference        decimal.Decimal `db:"difference" json:"difference"`
	IsBalanced        bool            `db:"is_balanced" json:"is_balanced"`
	Notes             string          `db:"notes" json:"notes"`
	ManuallyApproved  bool            `db:"manually_approved" json:"manually_approved"`
	ApprovalNote      string          `db:"approval_note" json:"approval_note,omitempty"`
	ApprovedAt        *time.Time      `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// Status classifies the entry for display and filtering.
func (e *DailyEntry) Status() string {
	switch {
	case e.IsBalanced:
		return StatusBalanced
	case e.ManuallyApproved:
		return StatusApproved
	default:
		return StatusOff
	}
}

// BackSafeWithdrawal is a manual removal of cash from the back safe
type BackSafeWithdrawal struct {
	ID        string          `db:"id" json:"id"`
	AccountID string          `db:"account_id" json:"-"`
	Date      string          `db:"withdrawal_date" json:"date"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Reason    string          `db:"reason" json:"reason"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// BackSafeTransaction is a row of the back safe ledger. Exactly one of
// DailyEntryID and WithdrawalID is set.
type BackSafeTransaction struct {
	ID           string          `db:"id" json:"id"`
	AccountID    string          `db:"account_id" json:"-"`
	Date         string          `db:"transaction_date" json:"date"`
	Type         string          `db:"type" json:"type"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	Reason       string          `db:"reason" json:"reason"`
	DailyEntryID *string         `db:"daily_entry_id" json:"daily_entry_id,omitempty"`
	WithdrawalID *string         `db:"withdrawal_id" json:"withdrawal_id,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// MonthlyArchive freezes the balances of a closed month
type MonthlyArchive struct {
	ID                string          `db:"id" json:"id"`
	AccountID         string          `db:"account_id" json:"-"`
	Month             string          `db:"month" json:"month"`
	StartingFrontSafe decimal.Decimal `db:"starting_front_safe" json:"starting_front_safe"`
	StartingBackSafe  decimal.Decimal `db:"starting_back_safe" json:"starting_back_safe"`
	EndingFrontSafe   decimal.Decimal `db:"ending_front_safe" json:"ending_front_safe"`
	EndingBackSafe    decimal.Decimal `db:"ending_back_safe" json:"ending_back_safe"`
	IsClosed          bool            `db:"is_closed" json:"is_closed"`
	ClosedAt          *time.Time      `db:"closed_at" json:"closed_at,omitempty"`

	// Attached on read for reporting only.
	Entries     []*DailyEntry         `db:"-" json:"entries,omitempty"`
	Withdrawals []*BackSafeWithdrawal `db:"-" json:"withdrawals,omitempty"`
}

// Entry status constants
const (
	StatusBalanced = "balanced"
	StatusApproved = "approved"
	StatusOff      = "off"
)

// TransactionType constants
const (
	TransactionDeposit    = "deposit"
	TransactionWithdrawal = "withdrawal"
)

// Date layouts
const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)
