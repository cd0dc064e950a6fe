package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"cash-reconciliation-service/internal/apperrors"
	"cash-reconciliation-service/internal/cashflow"
	"cash-reconciliation-service/internal/models"
	"cash-reconciliation-service/internal/repositories"
)

type ReconciliationService struct {
	store repositories.Store
	log   *logrus.Entry
	now   func() time.Time
}

func NewReconciliationService(store repositories.Store, log *logrus.Entry, now func() time.Time) *ReconciliationService {
	return &ReconciliationService{
		store: store,
		log:   log,
		now:   now,
	}
}

type EntryInput struct {
	Date              string           `json:"date" validate:"required,datetime=2006-01-02"`
	CashIn            decimal.Decimal  `json:"cash_in"`
	Deposited         decimal.Decimal  `json:"deposited"`
	ToBackSafe        decimal.Decimal  `json:"to_back_safe"`
	ActualLeftInFront *decimal.Decimal `json:"actual_left_in_front" validate:"required"`
	Notes             string           `json:"notes,omitempty" validate:"max=2000"`
}

// EntryUpdate carries the fields to change; nil fields are kept.
type EntryUpdate struct {
	Date              *string          `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CashIn            *decimal.Decimal `json:"cash_in,omitempty"`
	Deposited         *decimal.Decimal `json:"deposited,omitempty"`
	ToBackSafe        *decimal.Decimal `json:"to_back_safe,omitempty"`
	ActualLeftInFront *decimal.Decimal `json:"actual_left_in_front,omitempty"`
	Notes             *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

func validateAmounts(amounts map[string]decimal.Decimal) error {
	for _, field := range []string{"cash_in", "deposited", "to_back_safe", "actual_left_in_front"} {
		amount, ok := amounts[field]
		if !ok {
			continue
		}
		if err := cashflow.ValidateAmount(field, amount); err != nil {
			return err
		}
	}
	return nil
}

func (in *EntryInput) validate() error {
	if err := validateInput(in); err != nil {
		return err
	}
	return validateAmounts(map[string]decimal.Decimal{
		"cash_in":              in.CashIn,
		"deposited":            in.Deposited,
		"to_back_safe":         in.ToBackSafe,
		"actual_left_in_front": *in.ActualLeftInFront,
	})
}

func (u *EntryUpdate) validate() error {
	if err := validateInput(u); err != nil {
		return err
	}
	if u.Date != nil {
		if err := cashflow.ValidateDate("date", *u.Date); err != nil {
			return err
		}
	}
	amounts := make(map[string]decimal.Decimal)
	for field, v := range map[string]*decimal.Decimal{
		"cash_in":              u.CashIn,
		"deposited":            u.Deposited,
		"to_back_safe":         u.ToBackSafe,
		"actual_left_in_front": u.ActualLeftInFront,
	} {
		if v != nil {
			amounts[field] = *v
		}
	}
	return validateAmounts(amounts)
}

// SubmitEntry records the count for a new day and reconciles it against the
// front safe balance carried in from the preceding day.
func (s *ReconciliationService) SubmitEntry(ctx context.Context, in EntryInput) (*models.DailyEntry, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	ts := timestamp(s.now)
	entry := &models.DailyEntry{
		ID:                uuid.NewString(),
		Date:              in.Date,
		CashIn:            in.CashIn,
		Deposited:         in.Deposited,
		ToBackSafe:        in.ToBackSafe,
		ActualLeftInFront: *in.ActualLeftInFront,
		Notes:             in.Notes,
		CreatedAt:         ts,
		UpdatedAt:         ts,
	}

	var rec cashflow.Reconciliation
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		if err := ensureDateFree(ctx, tx, entry.Date, ""); err != nil {
			return err
		}

		entries, err := tx.ListEntries(ctx, "")
		if err != nil {
			return apperrors.Store(err, "list daily entries")
		}
		rec = cashflow.Reconcile(
			cashflow.PreviousFrontSafe(entries, entry.Date, ""),
			entry.CashIn, entry.Deposited, entry.ToBackSafe, entry.ActualLeftInFront,
		)
		if err := rec.Validate(); err != nil {
			return err
		}
		rec.ApplyTo(entry)

		if err := tx.InsertEntry(ctx, entry); err != nil {
			return apperrors.Store(err, "create daily entry")
		}
		return syncDeposit(ctx, tx, entry, ts)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"entry_id":   entry.ID,
		"date":       entry.Date,
		"previous":   rec.PreviousBalance.StringFixed(2),
		"difference": entry.Difference.StringFixed(2),
		"status":     entry.Status(),
	}).Info("Daily entry submitted")
	return entry, nil
}

// EditEntry applies the changed fields and recomputes the expected front
// safe from the entry's chronological predecessor. The linked deposit is
// brought in line with the new transfer amount.
func (s *ReconciliationService) EditEntry(ctx context.Context, id string, upd EntryUpdate) (*models.DailyEntry, error) {
	if err := upd.validate(); err != nil {
		return nil, err
	}

	var entry *models.DailyEntry
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		var err error
		entry, err = tx.GetEntryByID(ctx, id)
		if err != nil {
			return apperrors.Store(err, "get daily entry")
		}

		if upd.Date != nil && *upd.Date != entry.Date {
			if err := ensureDateFree(ctx, tx, *upd.Date, entry.ID); err != nil {
				return err
			}
			entry.Date = *upd.Date
		}
		if upd.CashIn != nil {
			entry.CashIn = *upd.CashIn
		}
		if upd.Deposited != nil {
			entry.Deposited = *upd.Deposited
		}
		if upd.ToBackSafe != nil {
			entry.ToBackSafe = *upd.ToBackSafe
		}
		if upd.ActualLeftInFront != nil {
			entry.ActualLeftInFront = *upd.ActualLeftInFront
		}
		if upd.Notes != nil {
			entry.Notes = *upd.Notes
		}

		entries, err := tx.ListEntries(ctx, "")
		if err != nil {
			return apperrors.Store(err, "list daily entries")
		}
		rec := cashflow.Reconcile(
			cashflow.PreviousFrontSafe(entries, entry.Date, entry.ID),
			entry.CashIn, entry.Deposited, entry.ToBackSafe, entry.ActualLeftInFront,
		)
		if err := rec.Validate(); err != nil {
			return err
		}
		rec.ApplyTo(entry)

		ts := timestamp(s.now)
		entry.UpdatedAt = ts
		if err := tx.UpdateEntry(ctx, entry); err != nil {
			return apperrors.Store(err, "update daily entry")
		}
		return syncDeposit(ctx, tx, entry, ts)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"entry_id":   entry.ID,
		"date":       entry.Date,
		"difference": entry.Difference.StringFixed(2),
		"status":     entry.Status(),
	}).Info("Daily entry updated")
	return entry, nil
}

// Approve accepts a discrepancy without changing it.
func (s *ReconciliationService) Approve(ctx context.Context, id, note string) (*models.DailyEntry, error) {
	note, err := requireText("note", note)
	if err != nil {
		return nil, err
	}

	entry, err := s.store.GetEntryByID(ctx, id)
	if err != nil {
		return nil, apperrors.Store(err, "get daily entry")
	}

	ts := timestamp(s.now)
	entry.ManuallyApproved = true
	entry.ApprovalNote = note
	entry.ApprovedAt = &ts
	entry.UpdatedAt = ts
	if err := s.store.UpdateEntry(ctx, entry); err != nil {
		return nil, apperrors.Store(err, "approve daily entry")
	}

	s.log.WithFields(logrus.Fields{
		"entry_id":   entry.ID,
		"difference": entry.Difference.StringFixed(2),
	}).Info("Daily entry approved")
	return entry, nil
}

func (s *ReconciliationService) RemoveApproval(ctx context.Context, id string) (*models.DailyEntry, error) {
	entry, err := s.store.GetEntryByID(ctx, id)
	if err != nil {
		return nil, apperrors.Store(err, "get daily entry")
	}

	entry.ManuallyApproved = false
	entry.ApprovalNote = ""
	entry.ApprovedAt = nil
	entry.UpdatedAt = timestamp(s.now)
	if err := s.store.UpdateEntry(ctx, entry); err != nil {
		return nil, apperrors.Store(err, "remove approval")
	}

	s.log.WithField("entry_id", entry.ID).Info("Daily entry approval removed")
	return entry, nil
}

// DeleteEntry removes the entry together with its back safe deposit.
func (s *ReconciliationService) DeleteEntry(ctx context.Context, id string) error {
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		if _, err := tx.GetEntryByID(ctx, id); err != nil {
			return apperrors.Store(err, "get daily entry")
		}
		if err := tx.DeleteTransactionsByEntryID(ctx, id); err != nil {
			return apperrors.Store(err, "delete linked back safe deposit")
		}
		if err := tx.DeleteEntry(ctx, id); err != nil {
			return apperrors.Store(err, "delete daily entry")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithField("entry_id", id).Info("Daily entry deleted")
	return nil
}

func (s *ReconciliationService) GetEntry(ctx context.Context, id string) (*models.DailyEntry, error) {
	entry, err := s.store.GetEntryByID(ctx, id)
	if err != nil {
		return nil, apperrors.Store(err, "get daily entry")
	}
	return entry, nil
}

// ListEntries returns entries newest first; month may be empty or YYYY-MM.
func (s *ReconciliationService) ListEntries(ctx context.Context, month string) ([]*models.DailyEntry, error) {
	if month != "" {
		if err := cashflow.ValidateMonth("month", month); err != nil {
			return nil, err
		}
	}
	entries, err := s.store.ListEntries(ctx, month)
	if err != nil {
		return nil, apperrors.Store(err, "list daily entries")
	}
	return entries, nil
}

// ensureDateFree fails when another entry than selfID already holds date.
func ensureDateFree(ctx context.Context, store repositories.Store, date, selfID string) error {
	existing, err := store.GetEntryByDate(ctx, date)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.Store(err, "check daily entry date")
	}
	if existing.ID != selfID {
		return apperrors.DuplicateDate(date)
	}
	return nil
}

// syncDeposit keeps exactly one deposit linked to entry while it transfers
// cash to the back safe, and none otherwise.
func syncDeposit(ctx context.Context, store repositories.Store, entry *models.DailyEntry, ts time.Time) error {
	existing, err := store.GetTransactionByEntryID(ctx, entry.ID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.Store(err, "get linked back safe deposit")
	}
	if err != nil {
		existing = nil
	}

	if !entry.ToBackSafe.IsPositive() {
		if existing == nil {
			return nil
		}
		return apperrors.Store(store.DeleteTransactionsByEntryID(ctx, entry.ID), "delete linked back safe deposit")
	}

	reason := depositReason(entry.Date)
	if existing == nil {
		entryID := entry.ID
		return apperrors.Store(store.InsertTransaction(ctx, &models.BackSafeTransaction{
			ID:           uuid.NewString(),
			Date:         entry.Date,
			Type:         models.TransactionDeposit,
			Amount:       entry.ToBackSafe,
			Reason:       reason,
			DailyEntryID: &entryID,
			CreatedAt:    ts,
		}), "create back safe deposit")
	}

	if existing.Amount.Equal(entry.ToBackSafe) && existing.Date == entry.Date {
		return nil
	}
	existing.Amount = entry.ToBackSafe
	existing.Date = entry.Date
	existing.Reason = reason
	return apperrors.Store(store.UpdateTransaction(ctx, existing), "update back safe deposit")
}

func depositReason(date string) string {
	return fmt.Sprintf("Transfer from front safe on %s", date)
}
