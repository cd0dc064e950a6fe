package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"cash-reconciliation-service/internal/apperrors"
	"cash-reconciliation-service/internal/cashflow"
	"cash-reconciliation-service/internal/models"
	"cash-reconciliation-service/internal/repositories"
)

// BackSafeService records withdrawals and keeps each one paired with a
// single withdrawal row in the back safe ledger.
type BackSafeService struct {
	store repositories.Store
	log   *logrus.Entry
	now   func() time.Time
}

func NewBackSafeService(store repositories.Store, log *logrus.Entry, now func() time.Time) *BackSafeService {
	return &BackSafeService{
		store: store,
		log:   log,
		now:   now,
	}
}

type WithdrawalInput struct {
	Date   string          `json:"date" validate:"required,datetime=2006-01-02"`
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason" validate:"max=500"`
}

type WithdrawalUpdate struct {
	Amount *decimal.Decimal `json:"amount" validate:"required"`
	Reason string           `json:"reason" validate:"max=500"`
}

func (s *BackSafeService) RecordWithdrawal(ctx context.Context, in WithdrawalInput) (*models.BackSafeWithdrawal, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	reason, err := requireText("reason", in.Reason)
	if err != nil {
		return nil, err
	}
	if err := cashflow.ValidateAmount("amount", in.Amount); err != nil {
		return nil, err
	}

	ts := timestamp(s.now)
	withdrawal := &models.BackSafeWithdrawal{
		ID:        uuid.NewString(),
		Date:      in.Date,
		Amount:    in.Amount,
		Reason:    reason,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	err = s.store.WithTx(ctx, func(tx repositories.Store) error {
		if err := ensureFunds(ctx, tx, withdrawal.Amount); err != nil {
			return err
		}
		if err := tx.InsertWithdrawal(ctx, withdrawal); err != nil {
			return apperrors.Store(err, "create withdrawal")
		}

		withdrawalID := withdrawal.ID
		err := tx.InsertTransaction(ctx, &models.BackSafeTransaction{
			ID:           uuid.NewString(),
			Date:         withdrawal.Date,
			Type:         models.TransactionWithdrawal,
			Amount:       withdrawal.Amount,
			Reason:       withdrawal.Reason,
			WithdrawalID: &withdrawalID,
			CreatedAt:    ts,
		})
		return apperrors.Store(err, "create back safe withdrawal transaction")
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"withdrawal_id": withdrawal.ID,
		"date":          withdrawal.Date,
		"amount":        withdrawal.Amount.StringFixed(2),
	}).Info("Back safe withdrawal recorded")
	return withdrawal, nil
}

// EditWithdrawal changes amount and reason. Only the increase over the
// original amount has to be covered by the current balance.
func (s *BackSafeService) EditWithdrawal(ctx context.Context, id string, upd WithdrawalUpdate) (*models.BackSafeWithdrawal, error) {
	if err := validateInput(upd); err != nil {
		return nil, err
	}
	reason, err := requireText("reason", upd.Reason)
	if err != nil {
		return nil, err
	}
	if err := cashflow.ValidateAmount("amount", *upd.Amount); err != nil {
		return nil, err
	}
	amount := *upd.Amount

	var withdrawal *models.BackSafeWithdrawal
	err = s.store.WithTx(ctx, func(tx repositories.Store) error {
		var err error
		withdrawal, err = tx.GetWithdrawalByID(ctx, id)
		if err != nil {
			return apperrors.Store(err, "get withdrawal")
		}

		delta := amount.Sub(withdrawal.Amount)
		if err := ensureFunds(ctx, tx, delta); err != nil {
			return err
		}

		ts := timestamp(s.now)
		withdrawal.Amount = amount
		withdrawal.Reason = reason
		withdrawal.UpdatedAt = ts
		if err := tx.UpdateWithdrawal(ctx, withdrawal); err != nil {
			return apperrors.Store(err, "update withdrawal")
		}

		txn, err := tx.GetTransactionByWithdrawalID(ctx, withdrawal.ID)
		if errors.Is(err, apperrors.ErrNotFound) {
			withdrawalID := withdrawal.ID
			return apperrors.Store(tx.InsertTransaction(ctx, &models.BackSafeTransaction{
				ID:           uuid.NewString(),
				Date:         withdrawal.Date,
				Type:         models.TransactionWithdrawal,
				Amount:       withdrawal.Amount,
				Reason:       withdrawal.Reason,
				WithdrawalID: &withdrawalID,
				CreatedAt:    ts,
			}), "create back safe withdrawal transaction")
		}
		if err != nil {
			return apperrors.Store(err, "get linked back safe transaction")
		}
		txn.Amount = withdrawal.Amount
		txn.Reason = withdrawal.Reason
		return apperrors.Store(tx.UpdateTransaction(ctx, txn), "update back safe withdrawal transaction")
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"withdrawal_id": withdrawal.ID,
		"amount":        withdrawal.Amount.StringFixed(2),
	}).Info("Back safe withdrawal updated")
	return withdrawal, nil
}

// DeleteWithdrawal removes the withdrawal and its ledger row, returning the
// amount to the back safe.
func (s *BackSafeService) DeleteWithdrawal(ctx context.Context, id string) error {
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		if _, err := tx.GetWithdrawalByID(ctx, id); err != nil {
			return apperrors.Store(err, "get withdrawal")
		}
		if err := tx.DeleteTransactionsByWithdrawalID(ctx, id); err != nil {
			return apperrors.Store(err, "delete linked back safe transaction")
		}
		if err := tx.DeleteWithdrawal(ctx, id); err != nil {
			return apperrors.Store(err, "delete withdrawal")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithField("withdrawal_id", id).Info("Back safe withdrawal deleted")
	return nil
}

func (s *BackSafeService) GetWithdrawal(ctx context.Context, id string) (*models.BackSafeWithdrawal, error) {
	withdrawal, err := s.store.GetWithdrawalByID(ctx, id)
	if err != nil {
		return nil, apperrors.Store(err, "get withdrawal")
	}
	return withdrawal, nil
}

func (s *BackSafeService) ListWithdrawals(ctx context.Context, month string) ([]*models.BackSafeWithdrawal, error) {
	if month != "" {
		if err := cashflow.ValidateMonth("month", month); err != nil {
			return nil, err
		}
	}
	withdrawals, err := s.store.ListWithdrawals(ctx, month)
	if err != nil {
		return nil, apperrors.Store(err, "list withdrawals")
	}
	return withdrawals, nil
}

func (s *BackSafeService) ListTransactions(ctx context.Context, month string) ([]*models.BackSafeTransaction, error) {
	if month != "" {
		if err := cashflow.ValidateMonth("month", month); err != nil {
			return nil, err
		}
	}
	txns, err := s.store.ListTransactions(ctx, month)
	if err != nil {
		return nil, apperrors.Store(err, "list back safe transactions")
	}
	return txns, nil
}

// ensureFunds fails when taking amount out would leave the back safe negative.
func ensureFunds(ctx context.Context, store repositories.Store, amount decimal.Decimal) error {
	balance, err := NewBalanceService(store).BackSafeBalance(ctx)
	if err != nil {
		return err
	}
	if amount.GreaterThan(balance) {
		return apperrors.InsufficientFunds(amount, balance)
	}
	return nil
}
