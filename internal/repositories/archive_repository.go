package repositories

import (
	"context"
	"database/sql"
	"errors"

	"cash-reconciliation-service/internal/apperrors"
	"cash-reconciliation-service/internal/models"
)

type ArchiveRepository interface {
	// ListArchives returns archives newest month first.
	ListArchives(ctx context.Context) ([]*models.MonthlyArchive, error)
	GetArchive(ctx context.Context, month string) (*models.MonthlyArchive, error)
	// GetLatestClosedBefore returns the newest closed archive with a month
	// strictly before month.
	GetLatestClosedBefore(ctx context.Context, month string) (*models.MonthlyArchive, error)
	// UpsertArchive inserts the archive or overwrites the one for its month.
	UpsertArchive(ctx context.Context, a *models.MonthlyArchive) error
}

type archiveRepository struct {
	q         Querier
	accountID string
}

func NewArchiveRepository(q Querier, accountID string) ArchiveRepository {
	return &archiveRepository{q: q, accountID: accountID}
}

const archiveColumns = `
	id, account_id, month,
	starting_front_safe, starting_back_safe,
	ending_front_safe, ending_back_safe,
	is_closed, closed_at`

func scanArchive(sc rowScanner) (*models.MonthlyArchive, error) {
	a := &models.MonthlyArchive{}
	err := sc.Scan(
		&a.ID,
		&a.AccountID,
		&a.Month,
		&a.StartingFrontSafe,
		&a.StartingBackSafe,
		&a.EndingFrontSafe,
		&a.EndingBackSafe,
		&a.IsClosed,
		&a.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *archiveRepository) ListArchives(ctx context.Context) ([]*models.MonthlyArchive, error) {
	query := `SELECT ` + archiveColumns + `
		FROM monthly_archives
		WHERE account_id = ?
		ORDER BY month DESC`

	rows, err := r.q.QueryContext(ctx, query, r.accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var archives []*models.MonthlyArchive
	for rows.Next() {
		a, err := scanArchive(rows)
		if err != nil {
			return nil, err
		}
		archives = append(archives, a)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return archives, nil
}

func (r *archiveRepository) GetArchive(ctx context.Context, month string) (*models.MonthlyArchive, error) {
	query := `SELECT ` + archiveColumns + `
		FROM monthly_archives
		WHERE account_id = ? AND month = ?`

	a, err := scanArchive(r.q.QueryRowContext(ctx, query, r.accountID, month))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("archive", month)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *archiveRepository) GetLatestClosedBefore(ctx context.Context, month string) (*models.MonthlyArchive, error) {
	query := `SELECT ` + archiveColumns + `
		FROM monthly_archives
		WHERE account_id = ? AND is_closed = TRUE AND month < ?
		ORDER BY month DESC
		LIMIT 1`

	a, err := scanArchive(r.q.QueryRowContext(ctx, query, r.accountID, month))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("closed archive before", month)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *archiveRepository) UpsertArchive(ctx context.Context, a *models.MonthlyArchive) error {
	query := `
		INSERT INTO monthly_archives (
			id, account_id, month,
			starting_front_safe, starting_back_safe,
			ending_front_safe, ending_back_safe,
			is_closed, closed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			starting_front_safe = VALUES(starting_front_safe),
			starting_back_safe = VALUES(starting_back_safe),
			ending_front_safe = VALUES(ending_front_safe),
			ending_back_safe = VALUES(ending_back_safe),
			is_closed = VALUES(is_closed),
			closed_at = VALUES(closed_at)
	`
	_, err := r.q.ExecContext(ctx, query,
		a.ID,
		r.accountID,
		a.Month,
		a.StartingFrontSafe,
		a.StartingBackSafe,
		a.EndingFrontSafe,
		a.EndingBackSafe,
		a.IsClosed,
		a.ClosedAt,
	)
	if err != nil {
		return err
	}
	a.AccountID = r.accountID
	return nil
}
