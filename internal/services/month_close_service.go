package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"cash-reconciliation-service/internal/apperrors"
	"cash-reconciliation-service/internal/cashflow"
	"cash-reconciliation-service/internal/config"
	"cash-reconciliation-service/internal/models"
	"cash-reconciliation-service/internal/repositories"
)

// MonthCloseService freezes a month's balances into an archive chained to
// the previous closed month.
type MonthCloseService struct {
	store repositories.Store
	log   *logrus.Entry
	now   func() time.Time
	mode  string
}

func NewMonthCloseService(store repositories.Store, log *logrus.Entry, now func() time.Time, mode string) *MonthCloseService {
	return &MonthCloseService{
		store: store,
		log:   log,
		now:   now,
		mode:  mode,
	}
}

// CloseMonth writes the archive for month, overwriting an earlier close.
// Starting balances come from the latest closed month before it. Ending
// balances are the balances now, or at the last day of the month in as_of
// mode.
func (s *MonthCloseService) CloseMonth(ctx context.Context, month string) (*models.MonthlyArchive, error) {
	if err := cashflow.ValidateMonth("month", month); err != nil {
		return nil, err
	}

	var archive *models.MonthlyArchive
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		entries, err := tx.ListEntries(ctx, month)
		if err != nil {
			return apperrors.Store(err, "list daily entries")
		}
		if len(entries) == 0 {
			return apperrors.EmptyPeriod(month)
		}

		starting := Balances{}
		previous, err := tx.GetLatestClosedBefore(ctx, month)
		switch {
		case err == nil:
			starting = Balances{FrontSafe: previous.EndingFrontSafe, BackSafe: previous.EndingBackSafe}
		case errors.Is(err, apperrors.ErrNotFound):
		default:
			return apperrors.Store(err, "get previous closed month")
		}

		ending, err := s.endingBalances(ctx, tx, month)
		if err != nil {
			return err
		}

		id := uuid.NewString()
		existing, err := tx.GetArchive(ctx, month)
		switch {
		case err == nil:
			id = existing.ID
		case errors.Is(err, apperrors.ErrNotFound):
		default:
			return apperrors.Store(err, "get archive")
		}

		closedAt := timestamp(s.now)
		archive = &models.MonthlyArchive{
			ID:                id,
			Month:             month,
			StartingFrontSafe: starting.FrontSafe,
			StartingBackSafe:  starting.BackSafe,
			EndingFrontSafe:   ending.FrontSafe,
			EndingBackSafe:    ending.BackSafe,
			IsClosed:          true,
			ClosedAt:          &closedAt,
		}
		if err := tx.UpsertArchive(ctx, archive); err != nil {
			return apperrors.Store(err, "save archive")
		}

		withdrawals, err := tx.ListWithdrawals(ctx, month)
		if err != nil {
			return apperrors.Store(err, "list withdrawals")
		}
		archive.Entries = entries
		archive.Withdrawals = withdrawals
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"month":          month,
		"mode":           s.mode,
		"ending_front":   archive.EndingFrontSafe.StringFixed(2),
		"ending_back":    archive.EndingBackSafe.StringFixed(2),
		"starting_front": archive.StartingFrontSafe.StringFixed(2),
		"starting_back":  archive.StartingBackSafe.StringFixed(2),
	}).Info("Month closed")
	return archive, nil
}

func (s *MonthCloseService) endingBalances(ctx context.Context, store repositories.Store, month string) (Balances, error) {
	balances := NewBalanceService(store)
	if s.mode != config.MonthCloseAsOf {
		return balances.Current(ctx)
	}
	end, err := cashflow.MonthEnd(month)
	if err != nil {
		return Balances{}, err
	}
	return balances.AsOf(ctx, end)
}

// GetArchive returns the archive for month with its entries and
// withdrawals attached.
func (s *MonthCloseService) GetArchive(ctx context.Context, month string) (*models.MonthlyArchive, error) {
	if err := cashflow.ValidateMonth("month", month); err != nil {
		return nil, err
	}

	archive, err := s.store.GetArchive(ctx, month)
	if err != nil {
		return nil, apperrors.Store(err, "get archive")
	}
	archive.Entries, err = s.store.ListEntries(ctx, month)
	if err != nil {
		return nil, apperrors.Store(err, "list daily entries")
	}
	archive.Withdrawals, err = s.store.ListWithdrawals(ctx, month)
	if err != nil {
		return nil, apperrors.Store(err, "list withdrawals")
	}
	return archive, nil
}

func (s *MonthCloseService) ListArchives(ctx context.Context) ([]*models.MonthlyArchive, error) {
	archives, err := s.store.ListArchives(ctx)
	if err != nil {
		return nil, apperrors.Store(err, "list archives")
	}
	return archives, nil
}
