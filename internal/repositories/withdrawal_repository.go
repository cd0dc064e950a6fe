package repositories

import (
	"context"
	"database/sql"
	"errors"

	"cash-reconciliation-service/internal/apperrors"
	"cash-reconciliation-service/internal/models"
)

type WithdrawalRepository interface {
	ListWithdrawals(ctx context.Context, month string) ([]*models.BackSafeWithdrawal, error)
	GetWithdrawalByID(ctx context.Context, id string) (*models.BackSafeWithdrawal, error)
	InsertWithdrawal(ctx context.Context, w *models.BackSafeWithdrawal) error
	UpdateWithdrawal(ctx context.Context, w *models.BackSafeWithdrawal) error
	DeleteWithdrawal(ctx context.Context, id string) error
}

type withdrawalRepository struct {
	q         Querier
	accountID string
}

func NewWithdrawalRepository(q Querier, accountID string) WithdrawalRepository {
	return &withdrawalRepository{q: q, accountID: accountID}
}

func scanWithdrawal(sc rowScanner) (*models.BackSafeWithdrawal, error) {
	w := &models.BackSafeWithdrawal{}
	err := sc.Scan(
		&w.ID,
		&w.AccountID,
		&w.Date,
		&w.Amount,
		&w.Reason,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *withdrawalRepository) ListWithdrawals(ctx context.Context, month string) ([]*models.BackSafeWithdrawal, error) {
	clause, args := monthClause("withdrawal_date", month)
	query := `
		SELECT id, account_id, withdrawal_date, amount, reason, created_at, updated_at
		FROM back_safe_withdrawals
		WHERE account_id = ?` + clause + `
		ORDER BY withdrawal_date DESC, created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, append([]any{r.accountID}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var withdrawals []*models.BackSafeWithdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, w)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return withdrawals, nil
}

func (r *withdrawalRepository) GetWithdrawalByID(ctx context.Context, id string) (*models.BackSafeWithdrawal, error) {
	query := `
		SELECT id, account_id, withdrawal_date, amount, reason, created_at, updated_at
		FROM back_safe_withdrawals
		WHERE account_id = ? AND id = ?
	`
	w, err := scanWithdrawal(r.q.QueryRowContext(ctx, query, r.accountID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("withdrawal", id)
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *withdrawalRepository) InsertWithdrawal(ctx context.Context, w *models.BackSafeWithdrawal) error {
	query := `
		INSERT INTO back_safe_withdrawals (
			id, account_id, withdrawal_date, amount, reason, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.q.ExecContext(ctx, query,
		w.ID,
		r.accountID,
		w.Date,
		w.Amount,
		w.Reason,
		w.CreatedAt,
		w.UpdatedAt,
	)
	if err != nil {
		return err
	}
	w.AccountID = r.accountID
	return nil
}

func (r *withdrawalRepository) UpdateWithdrawal(ctx context.Context, w *models.BackSafeWithdrawal) error {
	query := `
		UPDATE back_safe_withdrawals
		SET amount = ?,
			reason = ?,
			updated_at = ?
		WHERE account_id = ? AND id = ?
	`
	result, err := r.q.ExecContext(ctx, query,
		w.Amount,
		w.Reason,
		w.UpdatedAt,
		r.accountID,
		w.ID,
	)
	if err != nil {
		return err
	}
	return expectAffected(result, "withdrawal", w.ID)
}

func (r *withdrawalRepository) DeleteWithdrawal(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx,
		`DELETE FROM back_safe_withdrawals WHERE account_id = ? AND id = ?`,
		r.accountID, id,
	)
	if err != nil {
		return err
	}
	return expectAffected(result, "withdrawal", id)
}
