package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"cash-reconciliation-service/internal/apperrors"
	"cash-reconciliation-service/internal/models"
)

// MySQL server error for a unique key violation
const errDuplicateEntry = 1062

type EntryRepository interface {
	// ListEntries returns entries newest first, optionally limited to a YYYY-MM month.
	ListEntries(ctx context.Context, month string) ([]*models.DailyEntry, error)
	GetEntryByID(ctx context.Context, id string) (*models.DailyEntry, error)
	GetEntryByDate(ctx context.Context, date string) (*models.DailyEntry, error)
	InsertEntry(ctx context.Context, e *models.DailyEntry) error
	UpdateEntry(ctx context.Context, e *models.DailyEntry) error
	DeleteEntry(ctx context.Context, id string) error
}

type entryRepository struct {
	q         Querier
	accountID string
}

func NewEntryRepository(q Querier, accountID string) EntryRepository {
	return &entryRepository{q: q, accountID: accountID}
}

const entryColumns = `
	id, account_id, entry_date, cash_in, deposited, to_back_safe,
	actual_left_in_front, expected_front_safe, difference, is_balanced,
	notes, manually_approved, approval_note, approved_at,
	created_at, updated_at`

func scanEntry(sc rowScanner) (*models.DailyEntry, error) {
	e := &models.DailyEntry{}
	err := sc.Scan(
		&e.ID,
		&e.AccountID,
		&e.Date,
		&e.CashIn,
		&e.Deposited,
		&e.ToBackSafe,
		&e.ActualLeftInFront,
		&e.ExpectedFrontSafe,
		&e.Difference,
		&e.IsBalanced,
		&e.Notes,
		&e.ManuallyApproved,
		&e.ApprovalNote,
		&e.ApprovedAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *entryRepository) ListEntries(ctx context.Context, month string) ([]*models.DailyEntry, error) {
	clause, args := monthClause("entry_date", month)
	query := `SELECT ` + entryColumns + `
		FROM daily_entries
		WHERE account_id = ?` + clause + `
		ORDER BY entry_date DESC`

	rows, err := r.q.QueryContext(ctx, query, append([]any{r.accountID}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.DailyEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *entryRepository) GetEntryByID(ctx context.Context, id string) (*models.DailyEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM daily_entries
		WHERE account_id = ? AND id = ?`

	e, err := scanEntry(r.q.QueryRowContext(ctx, query, r.accountID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("daily entry", id)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *entryRepository) GetEntryByDate(ctx context.Context, date string) (*models.DailyEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM daily_entries
		WHERE account_id = ? AND entry_date = ?`

	e, err := scanEntry(r.q.QueryRowContext(ctx, query, r.accountID, date))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("daily entry for", date)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *entryRepository) InsertEntry(ctx context.Context, e *models.DailyEntry) error {
	query := `
		INSERT INTO daily_entries (
			id, account_id, entry_date, cash_in, deposited, to_back_safe,
			actual_left_in_front, expected_front_safe, difference, is_balanced,
			notes, manually_approved, approval_note, approved_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.q.ExecContext(ctx, query,
		e.ID,
		r.accountID,
		e.Date,
		e.CashIn,
		e.Deposited,
		e.ToBackSafe,
		e.ActualLeftInFront,
		e.ExpectedFrontSafe,
		e.Difference,
		e.IsBalanced,
		e.Notes,
		e.ManuallyApproved,
		e.ApprovalNote,
		e.ApprovedAt,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if isDuplicateKey(err) {
		return apperrors.DuplicateDate(e.Date)
	}
	if err != nil {
		return err
	}
	e.AccountID = r.accountID
	return nil
}

func (r *entryRepository) UpdateEntry(ctx context.Context, e *models.DailyEntry) error {
	query := `
		UPDATE daily_entries
		SET entry_date = ?,
			cash_in = ?,
			deposited = ?,
			to_back_safe = ?,
			actual_left_in_front = ?,
			expected_front_safe = ?,
			difference = ?,
			is_balanced = ?,
			notes = ?,
			manually_approved = ?,
			approval_note = ?,
			approved_at = ?,
			updated_at = ?
		WHERE account_id = ? AND id = ?
	`
	result, err := r.q.ExecContext(ctx, query,
		e.Date,
		e.CashIn,
		e.Deposited,
		e.ToBackSafe,
		e.ActualLeftInFront,
		e.ExpectedFrontSafe,
		e.Difference,
		e.IsBalanced,
		e.Notes,
		e.ManuallyApproved,
		e.ApprovalNote,
		e.ApprovedAt,
		e.UpdatedAt,
		r.accountID,
		e.ID,
	)
	if isDuplicateKey(err) {
		return apperrors.DuplicateDate(e.Date)
	}
	if err != nil {
		return err
	}
	return expectAffected(result, "daily entry", e.ID)
}

func (r *entryRepository) DeleteEntry(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx,
		`DELETE FROM daily_entries WHERE account_id = ? AND id = ?`,
		r.accountID, id,
	)
	if err != nil {
		return err
	}
	return expectAffected(result, "daily entry", id)
}

// expectAffected turns a zero-row write into a not found error. The DSN
// sets clientFoundRows so unchanged matching rows still count.
func expectAffected(result sql.Result, resource, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return apperrors.NotFound(resource, id)
	}
	return nil
}

func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == errDuplicateEntry
}
