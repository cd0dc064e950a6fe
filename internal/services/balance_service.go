package services

import (
	"context"

	"github.com/shopspring/decimal"

	"cash-reconciliation-service/internal/apperrors"
	"cash-reconciliation-service/internal/cashflow"
	"cash-reconciliation-service/internal/repositories"
)

// BalanceService derives the safe balances from the stored history on every
// call. No balance is ever stored.
type BalanceService struct {
	store repositories.Store
}

func NewBalanceService(store repositories.Store) *BalanceService {
	return &BalanceService{store: store}
}

type Balances struct {
	FrontSafe decimal.Decimal `json:"front_safe"`
	BackSafe  decimal.Decimal `json:"back_safe"`
}

type Summary struct {
	Balances
	OffEntries int `json:"off_entries"`
}

func (s *BalanceService) FrontSafeBalance(ctx context.Context) (decimal.Decimal, error) {
	entries, err := s.store.ListEntries(ctx, "")
	if err != nil {
		return decimal.Zero, apperrors.Store(err, "list daily entries")
	}
	return cashflow.FrontSafeBalance(entries), nil
}

func (s *BalanceService) BackSafeBalance(ctx context.Context) (decimal.Decimal, error) {
	txns, err := s.store.ListTransactions(ctx, "")
	if err != nil {
		return decimal.Zero, apperrors.Store(err, "list back safe transactions")
	}
	return cashflow.BackSafeBalance(txns), nil
}

func (s *BalanceService) Current(ctx context.Context) (Balances, error) {
	front, err := s.FrontSafeBalance(ctx)
	if err != nil {
		return Balances{}, err
	}
	back, err := s.BackSafeBalance(ctx)
	if err != nil {
		return Balances{}, err
	}
	return Balances{FrontSafe: front, BackSafe: back}, nil
}

// AsOf returns both balances at the end of date.
func (s *BalanceService) AsOf(ctx context.Context, date string) (Balances, error) {
	if err := cashflow.ValidateDate("date", date); err != nil {
		return Balances{}, err
	}
	entries, err := s.store.ListEntries(ctx, "")
	if err != nil {
		return Balances{}, apperrors.Store(err, "list daily entries")
	}
	txns, err := s.store.ListTransactions(ctx, "")
	if err != nil {
		return Balances{}, apperrors.Store(err, "list back safe transactions")
	}
	return Balances{
		FrontSafe: cashflow.FrontSafeAsOf(entries, date),
		BackSafe:  cashflow.BackSafeAsOf(txns, date),
	}, nil
}

func (s *BalanceService) Summary(ctx context.Context) (*Summary, error) {
	entries, err := s.store.ListEntries(ctx, "")
	if err != nil {
		return nil, apperrors.Store(err, "list daily entries")
	}
	back, err := s.BackSafeBalance(ctx)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Balances: Balances{
			FrontSafe: cashflow.FrontSafeBalance(entries),
			BackSafe:  back,
		},
		OffEntries: cashflow.CountOff(entries),
	}, nil
}
