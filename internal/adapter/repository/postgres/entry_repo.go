package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

const entryColumns = `id, account_id, transfer_id, amount, balance_before, balance_after, account_version, created_at`

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	db DBTX
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db DBTX) *EntryRepository {
	return &EntryRepository{db: db}
}

// Create inserts a journal entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	_, err := conn(tx).Exec(ctx, `
		INSERT INTO entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID,
		entry.AccountID,
		entry.TransferID,
		entry.Amount,
		entry.BalanceBefore,
		entry.BalanceAfter,
		entry.AccountVersion,
		entry.CreatedAt,
	)
	if _, ok := uniqueViolation(err); ok {
		// Another writer applied the same leg; the retry will find it.
		return domain.ErrConflict
	}
	return err
}

// GetLeg returns the entry of one transfer leg, or nil if it was never applied.
func (r *EntryRepository) GetLeg(ctx context.Context, tx usecase.Transaction, transferID, accountID string, debit bool) (*domain.Entry, error) {
	db := r.db
	if tx != nil {
		db = conn(tx)
	}

	entry, err := scanEntry(db.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE transfer_id = $1 AND account_id = $2 AND (amount < 0) = $3`,
		transferID, accountID, debit,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return entry, err
}

// GetByTransfer returns the entries written for a transfer.
func (r *EntryRepository) GetByTransfer(ctx context.Context, transferID string) ([]*domain.Entry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE transfer_id = $1
		ORDER BY created_at, id`,
		transferID,
	)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

// GetByAccount returns the entries of an account, newest first.
func (r *EntryRepository) GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]*domain.Entry, error) {
	defer rows.Close()

	entries := make([]*domain.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEntry(row pgx.Row) (*domain.Entry, error) {
	var e domain.Entry
	err := row.Scan(
		&e.ID,
		&e.AccountID,
		&e.TransferID,
		&e.Amount,
		&e.BalanceBefore,
		&e.BalanceAfter,
		&e.AccountVersion,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
