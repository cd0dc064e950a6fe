package repositories

import (
	"context"
	"sort"
	"sync"

	"cash-reconciliation-service/internal/apperrors"
	"cash-reconciliation-service/internal/cashflow"
	"cash-reconciliation-service/internal/models"
)

// MemoryStoreFactory keeps every account's records in process memory. It
// backs the memory store driver and the service tests.
type MemoryStoreFactory struct {
	mu       sync.RWMutex
	accounts map[string]*memoryData
}

type memoryData struct {
	entries      map[string]models.DailyEntry
	withdrawals  map[string]models.BackSafeWithdrawal
	transactions map[string]models.BackSafeTransaction
	archives     map[string]models.MonthlyArchive // by month
}

func newMemoryData() *memoryData {
	return &memoryData{
		entries:      make(map[string]models.DailyEntry),
		withdrawals:  make(map[string]models.BackSafeWithdrawal),
		transactions: make(map[string]models.BackSafeTransaction),
		archives:     make(map[string]models.MonthlyArchive),
	}
}

func (d *memoryData) clone() *memoryData {
	c := newMemoryData()
	for k, v := range d.entries {
		c.entries[k] = v
	}
	for k, v := range d.withdrawals {
		c.withdrawals[k] = v
	}
	for k, v := range d.transactions {
		c.transactions[k] = v
	}
	for k, v := range d.archives {
		c.archives[k] = v
	}
	return c
}

func NewMemoryStoreFactory() *MemoryStoreFactory {
	return &MemoryStoreFactory{accounts: make(map[string]*memoryData)}
}

func (f *MemoryStoreFactory) ForAccount(accountID string) Store {
	return &memoryStore{factory: f, accountID: accountID}
}

type memoryStore struct {
	factory   *MemoryStoreFactory
	accountID string
	inTx      bool
}

func (s *memoryStore) AccountID() string {
	return s.accountID
}

// WithTx holds the factory lock for the whole of fn and restores the
// account's data if fn fails.
func (s *memoryStore) WithTx(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.factory.mu.Lock()
	defer s.factory.mu.Unlock()

	snapshot := s.factory.data(s.accountID).clone()
	if err := fn(&memoryStore{factory: s.factory, accountID: s.accountID, inTx: true}); err != nil {
		s.factory.accounts[s.accountID] = snapshot
		return err
	}
	return nil
}

// data must be called with the lock held.
func (f *MemoryStoreFactory) data(accountID string) *memoryData {
	d, ok := f.accounts[accountID]
	if !ok {
		d = newMemoryData()
		f.accounts[accountID] = d
	}
	return d
}

func (s *memoryStore) read(fn func(d *memoryData) error) error {
	if !s.inTx {
		s.factory.mu.RLock()
		defer s.factory.mu.RUnlock()
	}
	d, ok := s.factory.accounts[s.accountID]
	if !ok {
		d = newMemoryData()
	}
	return fn(d)
}

func (s *memoryStore) write(fn func(d *memoryData) error) error {
	if !s.inTx {
		s.factory.mu.Lock()
		defer s.factory.mu.Unlock()
	}
	return fn(s.factory.data(s.accountID))
}

// Daily entries

func (s *memoryStore) ListEntries(ctx context.Context, month string) ([]*models.DailyEntry, error) {
	var entries []*models.DailyEntry
	err := s.read(func(d *memoryData) error {
		for _, e := range d.entries {
			if cashflow.InMonth(e.Date, month) {
				e := e
				entries = append(entries, &e)
			}
		}
		return nil
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date > entries[j].Date })
	return entries, err
}

func (s *memoryStore) GetEntryByID(ctx context.Context, id string) (*models.DailyEntry, error) {
	var entry *models.DailyEntry
	err := s.read(func(d *memoryData) error {
		e, ok := d.entries[id]
		if !ok {
			return apperrors.NotFound("daily entry", id)
		}
		entry = &e
		return nil
	})
	return entry, err
}

func (s *memoryStore) GetEntryByDate(ctx context.Context, date string) (*models.DailyEntry, error) {
	var entry *models.DailyEntry
	err := s.read(func(d *memoryData) error {
		for _, e := range d.entries {
			if e.Date == date {
				e := e
				entry = &e
				return nil
			}
		}
		return apperrors.NotFound("daily entry for", date)
	})
	return entry, err
}

func (s *memoryStore) InsertEntry(ctx context.Context, e *models.DailyEntry) error {
	return s.write(func(d *memoryData) error {
		for _, other := range d.entries {
			if other.Date == e.Date {
				return apperrors.DuplicateDate(e.Date)
			}
		}
		e.AccountID = s.accountID
		d.entries[e.ID] = *e
		return nil
	})
}

func (s *memoryStore) UpdateEntry(ctx context.Context, e *models.DailyEntry) error {
	return s.write(func(d *memoryData) error {
		if _, ok := d.entries[e.ID]; !ok {
			return apperrors.NotFound("daily entry", e.ID)
		}
		for _, other := range d.entries {
			if other.ID != e.ID && other.Date == e.Date {
				return apperrors.DuplicateDate(e.Date)
			}
		}
		e.AccountID = s.accountID
		d.entries[e.ID] = *e
		return nil
	})
}

func (s *memoryStore) DeleteEntry(ctx context.Context, id string) error {
	return s.write(func(d *memoryData) error {
		if _, ok := d.entries[id]; !ok {
			return apperrors.NotFound("daily entry", id)
		}
		delete(d.entries, id)
		return nil
	})
}

// Withdrawals

func (s *memoryStore) ListWithdrawals(ctx context.Context, month string) ([]*models.BackSafeWithdrawal, error) {
	var withdrawals []*models.BackSafeWithdrawal
	err := s.read(func(d *memoryData) error {
		for _, w := range d.withdrawals {
			if cashflow.InMonth(w.Date, month) {
				w := w
				withdrawals = append(withdrawals, &w)
			}
		}
		return nil
	})
	sort.Slice(withdrawals, func(i, j int) bool {
		if withdrawals[i].Date != withdrawals[j].Date {
			return withdrawals[i].Date > withdrawals[j].Date
		}
		return withdrawals[i].CreatedAt.After(withdrawals[j].CreatedAt)
	})
	return withdrawals, err
}

func (s *memoryStore) GetWithdrawalByID(ctx context.Context, id string) (*models.BackSafeWithdrawal, error) {
	var withdrawal *models.BackSafeWithdrawal
	err := s.read(func(d *memoryData) error {
		w, ok := d.withdrawals[id]
		if !ok {
			return apperrors.NotFound("withdrawal", id)
		}
		withdrawal = &w
		return nil
	})
	return withdrawal, err
}

func (s *memoryStore) InsertWithdrawal(ctx context.Context, w *models.BackSafeWithdrawal) error {
	return s.write(func(d *memoryData) error {
		w.AccountID = s.accountID
		d.withdrawals[w.ID] = *w
		return nil
	})
}

func (s *memoryStore) UpdateWithdrawal(ctx context.Context, w *models.BackSafeWithdrawal) error {
	return s.write(func(d *memoryData) error {
		stored, ok := d.withdrawals[w.ID]
		if !ok {
			return apperrors.NotFound("withdrawal", w.ID)
		}
		stored.Amount = w.Amount
		stored.Reason = w.Reason
		stored.UpdatedAt = w.UpdatedAt
		d.withdrawals[w.ID] = stored
		return nil
	})
}

func (s *memoryStore) DeleteWithdrawal(ctx context.Context, id string) error {
	return s.write(func(d *memoryData) error {
		if _, ok := d.withdrawals[id]; !ok {
			return apperrors.NotFound("withdrawal", id)
		}
		delete(d.withdrawals, id)
		return nil
	})
}

// Back safe ledger

func (s *memoryStore) ListTransactions(ctx context.Context, month string) ([]*models.BackSafeTransaction, error) {
	var txns []*models.BackSafeTransaction
	err := s.read(func(d *memoryData) error {
		for _, t := range d.transactions {
			if cashflow.InMonth(t.Date, month) {
				t := t
				txns = append(txns, &t)
			}
		}
		return nil
	})
	sort.Slice(txns, func(i, j int) bool {
		if txns[i].Date != txns[j].Date {
			return txns[i].Date > txns[j].Date
		}
		return txns[i].CreatedAt.After(txns[j].CreatedAt)
	})
	return txns, err
}

func (s *memoryStore) GetTransactionByEntryID(ctx context.Context, entryID string) (*models.BackSafeTransaction, error) {
	return s.transactionBySource(func(t models.BackSafeTransaction) bool {
		return t.DailyEntryID != nil && *t.DailyEntryID == entryID
	}, entryID)
}

func (s *memoryStore) GetTransactionByWithdrawalID(ctx context.Context, withdrawalID string) (*models.BackSafeTransaction, error) {
	return s.transactionBySource(func(t models.BackSafeTransaction) bool {
		return t.WithdrawalID != nil && *t.WithdrawalID == withdrawalID
	}, withdrawalID)
}

func (s *memoryStore) transactionBySource(match func(models.BackSafeTransaction) bool, sourceID string) (*models.BackSafeTransaction, error) {
	var txn *models.BackSafeTransaction
	err := s.read(func(d *memoryData) error {
		for _, t := range d.transactions {
			if match(t) {
				t := t
				txn = &t
				return nil
			}
		}
		return apperrors.NotFound("back safe transaction for", sourceID)
	})
	return txn, err
}

func (s *memoryStore) InsertTransaction(ctx context.Context, t *models.BackSafeTransaction) error {
	return s.write(func(d *memoryData) error {
		t.AccountID = s.accountID
		d.transactions[t.ID] = *t
		return nil
	})
}

func (s *memoryStore) UpdateTransaction(ctx context.Context, t *models.BackSafeTransaction) error {
	return s.write(func(d *memoryData) error {
		stored, ok := d.transactions[t.ID]
		if !ok {
			return apperrors.NotFound("back safe transaction", t.ID)
		}
		stored.Date = t.Date
		stored.Amount = t.Amount
		stored.Reason = t.Reason
		d.transactions[t.ID] = stored
		return nil
	})
}

func (s *memoryStore) DeleteTransactionsByEntryID(ctx context.Context, entryID string) error {
	return s.write(func(d *memoryData) error {
		for id, t := range d.transactions {
			if t.DailyEntryID != nil && *t.DailyEntryID == entryID {
				delete(d.transactions, id)
			}
		}
		return nil
	})
}

func (s *memoryStore) DeleteTransactionsByWithdrawalID(ctx context.Context, withdrawalID string) error {
	return s.write(func(d *memoryData) error {
		for id, t := range d.transactions {
			if t.WithdrawalID != nil && *t.WithdrawalID == withdrawalID {
				delete(d.transactions, id)
			}
		}
		return nil
	})
}

// Monthly archives

func (s *memoryStore) ListArchives(ctx context.Context) ([]*models.MonthlyArchive, error) {
	var archives []*models.MonthlyArchive
	err := s.read(func(d *memoryData) error {
		for _, a := range d.archives {
			a := a
			archives = append(archives, &a)
		}
		return nil
	})
	sort.Slice(archives, func(i, j int) bool { return archives[i].Month > archives[j].Month })
	return archives, err
}

func (s *memoryStore) GetArchive(ctx context.Context, month string) (*models.MonthlyArchive, error) {
	var archive *models.MonthlyArchive
	err := s.read(func(d *memoryData) error {
		a, ok := d.archives[month]
		if !ok {
			return apperrors.NotFound("archive", month)
		}
		archive = &a
		return nil
	})
	return archive, err
}

func (s *memoryStore) GetLatestClosedBefore(ctx context.Context, month string) (*models.MonthlyArchive, error) {
	var archive *models.MonthlyArchive
	err := s.read(func(d *memoryData) error {
		for _, a := range d.archives {
			if !a.IsClosed || a.Month >= month {
				continue
			}
			if archive == nil || a.Month > archive.Month {
				a := a
				archive = &a
			}
		}
		if archive == nil {
			return apperrors.NotFound("closed archive before", month)
		}
		return nil
	})
	return archive, err
}

func (s *memoryStore) UpsertArchive(ctx context.Context, a *models.MonthlyArchive) error {
	return s.write(func(d *memoryData) error {
		if existing, ok := d.archives[a.Month]; ok {
			a.ID = existing.ID
		}
		a.AccountID = s.accountID
		stored := *a
		stored.Entries = nil
		stored.Withdrawals = nil
		d.archives[a.Month] = stored
		return nil
	})
}
