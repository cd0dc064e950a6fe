package services

import (
	"time"

	"github.com/sirupsen/logrus"

	"cash-reconciliation-service/internal/config"
	"cash-reconciliation-service/internal/repositories"
)

type Options struct {
	// MonthCloseMode is config.MonthCloseCurrent or config.MonthCloseAsOf.
	MonthCloseMode string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Services groups the operations available on one account's records.
// They are cheap to build, so callers create one per request.
type Services struct {
	Balances       *BalanceService
	Reconciliation *ReconciliationService
	BackSafe       *BackSafeService
	MonthClose     *MonthCloseService
}

func New(store repositories.Store, log *logrus.Logger, opts Options) *Services {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MonthCloseMode == "" {
		opts.MonthCloseMode = config.MonthCloseCurrent
	}
	entry := log.WithField("account", store.AccountID())

	return &Services{
		Balances:       NewBalanceService(store),
		Reconciliation: NewReconciliationService(store, entry, opts.Now),
		BackSafe:       NewBackSafeService(store, entry, opts.Now),
		MonthClose:     NewMonthCloseService(store, entry, opts.Now, opts.MonthCloseMode),
	}
}

// timestamp truncates to microseconds, the precision the database keeps.
func timestamp(clock func() time.Time) time.Time {
	return clock().UTC().Truncate(time.Microsecond)
}
