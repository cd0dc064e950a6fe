package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"cash-reconciliation-service/internal/apperrors"
	"cash-reconciliation-service/internal/database"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the record store seen by the services. It is scoped to one
// account: every read and write only sees that account's rows.
type Store interface {
	EntryRepository
	WithdrawalRepository
	TransactionRepository
	ArchiveRepository

	AccountID() string

	// WithTx runs fn against a Store whose writes commit or roll back
	// together. Nested calls reuse the outer transaction.
	WithTx(ctx context.Context, fn func(Store) error) error
}

type StoreFactory interface {
	ForAccount(accountID string) Store
}

type sqlStoreFactory struct {
	db *sql.DB
}

func NewSQLStoreFactory(db *sql.DB) StoreFactory {
	return &sqlStoreFactory{db: db}
}

func (f *sqlStoreFactory) ForAccount(accountID string) Store {
	return newSQLStore(f.db, f.db, accountID, false)
}

type sqlStore struct {
	EntryRepository
	WithdrawalRepository
	TransactionRepository
	ArchiveRepository

	db        *sql.DB
	accountID string
	inTx      bool
}

func newSQLStore(db *sql.DB, q Querier, accountID string, inTx bool) *sqlStore {
	return &sqlStore{
		EntryRepository:       NewEntryRepository(q, accountID),
		WithdrawalRepository:  NewWithdrawalRepository(q, accountID),
		TransactionRepository: NewTransactionRepository(q, accountID),
		ArchiveRepository:     NewArchiveRepository(q, accountID),
		db:                    db,
		accountID:             accountID,
		inTx:                  inTx,
	}
}

func (s *sqlStore) AccountID() string {
	return s.accountID
}

func (s *sqlStore) WithTx(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := database.BeginTx(ctx, s.db)
	if err != nil {
		return apperrors.Store(err, "begin transaction")
	}
	defer tx.Rollback()

	if err := fn(newSQLStore(s.db, tx.Tx, s.accountID, true)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Store(err, "commit transaction")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// monthClause narrows a date column to a YYYY-MM prefix when month is set.
func monthClause(column, month string) (string, []any) {
	if month == "" {
		return "", nil
	}
	return fmt.Sprintf(" AND %s LIKE ?", column), []any{month + "-%"}
}
