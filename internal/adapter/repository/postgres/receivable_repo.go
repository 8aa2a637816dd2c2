package postgres

import (
	"context"

	"github.com/iho/gobank/internal/domain"
)

// ReceivableRepository implements usecase.ReceivableRepository.
type ReceivableRepository struct {
	db DBTX
}

// NewReceivableRepository creates a new ReceivableRepository.
func NewReceivableRepository(db DBTX) *ReceivableRepository {
	return &ReceivableRepository{db: db}
}

// Create inserts a receivable.
func (r *ReceivableRepository) Create(ctx context.Context, receivable *domain.Receivable) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO receivables (id, owner_account_id, payment_key, merchant_name, amount, description, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		receivable.ID,
		receivable.OwnerAccountID,
		receivable.PaymentKey,
		receivable.MerchantName,
		receivable.Amount,
		receivable.Description,
		receivable.ExpiresAt,
		receivable.CreatedAt,
	)
	return err
}

// GetByID retrieves a receivable by ID.
func (r *ReceivableRepository) GetByID(ctx context.Context, id string) (*domain.Receivable, error) {
	var rc domain.Receivable
	err := r.db.QueryRow(ctx, `
		SELECT id, owner_account_id, payment_key, merchant_name, amount, description, expires_at, created_at
		FROM receivables
		WHERE id = $1`, id,
	).Scan(
		&rc.ID,
		&rc.OwnerAccountID,
		&rc.PaymentKey,
		&rc.MerchantName,
		&rc.Amount,
		&rc.Description,
		&rc.ExpiresAt,
		&rc.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, domain.ErrReceivableNotFound)
	}
	return &rc, nil
}
