package postgres

import (
	"context"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// ReconciliationRepository implements usecase.ReconciliationRepository.
type ReconciliationRepository struct {
	db DBTX
}

// NewReconciliationRepository creates a new ReconciliationRepository.
func NewReconciliationRepository(db DBTX) *ReconciliationRepository {
	return &ReconciliationRepository{db: db}
}

// Create opens a queue item.
func (r *ReconciliationRepository) Create(ctx context.Context, tx usecase.Transaction, item *domain.ReconciliationItem) error {
	_, err := conn(tx).Exec(ctx, `
		INSERT INTO reconciliation_items (id, transfer_id, account_id, amount, attempts, last_error, status, created_at, updated_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		item.ID,
		item.TransferID,
		item.AccountID,
		item.Amount,
		item.Attempts,
		item.LastError,
		string(item.Status),
		item.CreatedAt,
		item.UpdatedAt,
		item.ResolvedAt,
	)
	if _, ok := uniqueViolation(err); ok {
		return domain.ErrConflict
	}
	return err
}

// ListOpen returns open items, oldest first.
func (r *ReconciliationRepository) ListOpen(ctx context.Context, limit int) ([]*domain.ReconciliationItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, transfer_id, account_id, amount, attempts, last_error, status, created_at, updated_at, resolved_at
		FROM reconciliation_items
		WHERE status = $1
		ORDER BY created_at, id
		LIMIT $2`, string(domain.ReconciliationOpen), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*domain.ReconciliationItem, 0)
	for rows.Next() {
		var (
			item   domain.ReconciliationItem
			status string
		)
		if err := rows.Scan(
			&item.ID,
			&item.TransferID,
			&item.AccountID,
			&item.Amount,
			&item.Attempts,
			&item.LastError,
			&status,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.ResolvedAt,
		); err != nil {
			return nil, err
		}
		item.Status = domain.ReconciliationStatus(status)
		items = append(items, &item)
	}
	return items, rows.Err()
}

// Update persists attempts and resolution. A resolved item is never reopened.
func (r *ReconciliationRepository) Update(ctx context.Context, tx usecase.Transaction, item *domain.ReconciliationItem) error {
	tag, err := conn(tx).Exec(ctx, `
		UPDATE reconciliation_items
		SET attempts = $2, last_error = $3, status = $4, updated_at = $5, resolved_at = $6
		WHERE id = $1 AND status = 'open'`,
		item.ID,
		item.Attempts,
		item.LastError,
		string(item.Status),
		item.UpdatedAt,
		item.ResolvedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}
