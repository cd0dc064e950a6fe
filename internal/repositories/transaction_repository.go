package repositories

import (
	"context"
	"database/sql"
	"errors"

	"cash-reconciliation-service/internal/apperrors"
	"cash-reconciliation-service/internal/models"
)

// TransactionRepository stores the back safe ledger. Rows are only written
// alongside their source entry or withdrawal.
type TransactionRepository interface {
	ListTransactions(ctx context.Context, month string) ([]*models.BackSafeTransaction, error)
	GetTransactionByEntryID(ctx context.Context, entryID string) (*models.BackSafeTransaction, error)
	GetTransactionByWithdrawalID(ctx context.Context, withdrawalID string) (*models.BackSafeTransaction, error)
	InsertTransaction(ctx context.Context, t *models.BackSafeTransaction) error
	UpdateTransaction(ctx context.Context, t *models.BackSafeTransaction) error
	DeleteTransactionsByEntryID(ctx context.Context, entryID string) error
	DeleteTransactionsByWithdrawalID(ctx context.Context, withdrawalID string) error
}

type transactionRepository struct {
	q         Querier
	accountID string
}

func NewTransactionRepository(q Querier, accountID string) TransactionRepository {
	return &transactionRepository{q: q, accountID: accountID}
}

const transactionColumns = `
	id, account_id, transaction_date, type, amount, reason,
	daily_entry_id, withdrawal_id, created_at`

func scanTransaction(sc rowScanner) (*models.BackSafeTransaction, error) {
	t := &models.BackSafeTransaction{}
	err := sc.Scan(
		&t.ID,
		&t.AccountID,
		&t.Date,
		&t.Type,
		&t.Amount,
		&t.Reason,
		&t.DailyEntryID,
		&t.WithdrawalID,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *transactionRepository) ListTransactions(ctx context.Context, month string) ([]*models.BackSafeTransaction, error) {
	clause, args := monthClause("transaction_date", month)
	query := `SELECT ` + transactionColumns + `
		FROM back_safe_transactions
		WHERE account_id = ?` + clause + `
		ORDER BY transaction_date DESC, created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, append([]any{r.accountID}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*models.BackSafeTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *transactionRepository) GetTransactionByEntryID(ctx context.Context, entryID string) (*models.BackSafeTransaction, error) {
	return r.getBySource(ctx, "daily_entry_id", entryID)
}

func (r *transactionRepository) GetTransactionByWithdrawalID(ctx context.Context, withdrawalID string) (*models.BackSafeTransaction, error) {
	return r.getBySource(ctx, "withdrawal_id", withdrawalID)
}

func (r *transactionRepository) getBySource(ctx context.Context, column, sourceID string) (*models.BackSafeTransaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM back_safe_transactions
		WHERE account_id = ? AND ` + column + ` = ?`

	t, err := scanTransaction(r.q.QueryRowContext(ctx, query, r.accountID, sourceID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("back safe transaction for", sourceID)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *transactionRepository) InsertTransaction(ctx context.Context, t *models.BackSafeTransaction) error {
	query := `
		INSERT INTO back_safe_transactions (
			id, account_id, transaction_date, type, amount, reason,
			daily_entry_id, withdrawal_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.q.ExecContext(ctx, query,
		t.ID,
		r.accountID,
		t.Date,
		t.Type,
		t.Amount,
		t.Reason,
		t.DailyEntryID,
		t.WithdrawalID,
		t.CreatedAt,
	)
	if err != nil {
		return err
	}
	t.AccountID = r.accountID
	return nil
}

// UpdateTransaction rewrites the date, amount and reason of a ledger row to
// follow an edited source.
func (r *transactionRepository) UpdateTransaction(ctx context.Context, t *models.BackSafeTransaction) error {
	query := `
		UPDATE back_safe_transactions
		SET transaction_date = ?,
			amount = ?,
			reason = ?
		WHERE account_id = ? AND id = ?
	`
	result, err := r.q.ExecContext(ctx, query,
		t.Date,
		t.Amount,
		t.Reason,
		r.accountID,
		t.ID,
	)
	if err != nil {
		return err
	}
	return expectAffected(result, "back safe transaction", t.ID)
}

func (r *transactionRepository) DeleteTransactionsByEntryID(ctx context.Context, entryID string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM back_safe_transactions WHERE account_id = ? AND daily_entry_id = ?`,
		r.accountID, entryID,
	)
	return err
}

func (r *transactionRepository) DeleteTransactionsByWithdrawalID(ctx context.Context, withdrawalID string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM back_safe_transactions WHERE account_id = ? AND withdrawal_id = ?`,
		r.accountID, withdrawalID,
	)
	return err
}
