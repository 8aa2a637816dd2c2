package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

const transferColumns = `id, from_account_id, to_account_id, amount, description, status, idempotency_key, failure_reason, created_at, updated_at, completed_at`

// TransferRepository implements usecase.TransferRepository.
type TransferRepository struct {
	db DBTX
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(db DBTX) *TransferRepository {
	return &TransferRepository{db: db}
}

// Create inserts a transfer. Reusing an idempotency key of the same source
// fails with domain.ErrDuplicateRequest.
func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	_, err := conn(tx).Exec(ctx, `
		INSERT INTO transfers (`+transferColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		transfer.ID,
		transfer.FromAccountID,
		transfer.ToAccountID,
		transfer.Amount,
		transfer.Description,
		string(transfer.Status),
		transfer.IdempotencyKey,
		transfer.FailureReason,
		transfer.CreatedAt,
		transfer.UpdatedAt,
		transfer.CompletedAt,
	)
	if constraint, ok := uniqueViolation(err); ok && constraint == "transfers_idempotency_key" {
		return domain.ErrDuplicateRequest
	}
	return err
}

// GetByID retrieves a transfer by ID.
func (r *TransferRepository) GetByID(ctx context.Context, id string) (*domain.Transfer, error) {
	return scanTransfer(r.db.QueryRow(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = $1`, id))
}

// GetByIDForUpdate retrieves a transfer with a FOR UPDATE lock.
func (r *TransferRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transfer, error) {
	return scanTransfer(conn(tx).QueryRow(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = $1 FOR UPDATE`, id))
}

// GetByIdempotencyKey retrieves the transfer a source created with key.
func (r *TransferRepository) GetByIdempotencyKey(ctx context.Context, fromAccountID, key string) (*domain.Transfer, error) {
	return scanTransfer(r.db.QueryRow(ctx, `
		SELECT `+transferColumns+`
		FROM transfers
		WHERE from_account_id = $1 AND idempotency_key = $2`,
		fromAccountID, key,
	))
}

// UpdateStatus persists a status transition.
func (r *TransferRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	tag, err := conn(tx).Exec(ctx, `
		UPDATE transfers
		SET status = $2, failure_reason = $3, updated_at = $4, completed_at = $5
		WHERE id = $1`,
		transfer.ID,
		string(transfer.Status),
		transfer.FailureReason,
		transfer.UpdatedAt,
		transfer.CompletedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransferNotFound
	}
	return nil
}

// ListByAccount returns transfers of an account, newest first.
func (r *TransferRepository) ListByAccount(ctx context.Context, accountID string, direction domain.Direction, limit, offset int) ([]*domain.Transfer, error) {
	var filter string
	switch direction {
	case domain.DirectionSent:
		filter = "from_account_id = $1"
	case domain.DirectionReceived:
		filter = "to_account_id = $1"
	case domain.DirectionAll, "":
		filter = "(from_account_id = $1 OR to_account_id = $1)"
	default:
		return nil, domain.ErrInvalidDirection
	}

	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM transfers
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, transferColumns, filter),
		accountID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return collectTransfers(rows)
}

// ListStale returns transfers in status created before the cutoff, oldest first.
func (r *TransferRepository) ListStale(ctx context.Context, status domain.TransferStatus, before time.Time, limit int) ([]*domain.Transfer, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+transferColumns+`
		FROM transfers
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
		LIMIT $3`,
		string(status), before, limit,
	)
	if err != nil {
		return nil, err
	}
	return collectTransfers(rows)
}

func collectTransfers(rows pgx.Rows) ([]*domain.Transfer, error) {
	defer rows.Close()

	transfers := make([]*domain.Transfer, 0)
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

func scanTransfer(row pgx.Row) (*domain.Transfer, error) {
	var (
		t      domain.Transfer
		status string
	)
	err := row.Scan(
		&t.ID,
		&t.FromAccountID,
		&t.ToAccountID,
		&t.Amount,
		&t.Description,
		&status,
		&t.IdempotencyKey,
		&t.FailureReason,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.CompletedAt,
	)
	if err != nil {
		return nil, notFound(err, domain.ErrTransferNotFound)
	}
	t.Status = domain.TransferStatus(status)
	return &t, nil
}
