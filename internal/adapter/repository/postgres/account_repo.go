package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

const accountColumns = `id, owner_user_id, owner_name, payment_key, payment_key_type, balance, version, frozen, created_at, updated_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db DBTX
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts an account. Owner and payment key are unique.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	_, err := conn(tx).Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		account.ID,
		account.OwnerUserID,
		account.OwnerName,
		account.PaymentKey,
		string(account.PaymentKeyType),
		account.Balance,
		account.Version,
		account.Frozen,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if constraint, ok := uniqueViolation(err); ok {
		if constraint == "accounts_payment_key_key" {
			return domain.ErrPaymentKeyTaken
		}
		return domain.ErrAccountExists
	}
	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

// GetByOwner retrieves the account of a user.
func (r *AccountRepository) GetByOwner(ctx context.Context, userID string) (*domain.Account, error) {
	return scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE owner_user_id = $1`, userID))
}

// GetByPaymentKey retrieves the account registered under a payment key.
func (r *AccountRepository) GetByPaymentKey(ctx context.Context, key string) (*domain.Account, error) {
	return scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE payment_key = $1`, key))
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	return scanAccount(conn(tx).QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id))
}

// UpdateBalance writes a new balance. The version must advance by exactly
// one from the stored version, otherwise domain.ErrConflict is returned.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance, version int64, updatedAt time.Time) error {
	tag, err := conn(tx).Exec(ctx, `
		UPDATE accounts
		SET balance = $2, version = $3, updated_at = $4
		WHERE id = $1 AND version = $3 - 1`,
		id, balance, version, updatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// Freeze marks an account frozen outside any caller transaction.
func (r *AccountRepository) Freeze(ctx context.Context, id string, updatedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE accounts SET frozen = TRUE, updated_at = $2 WHERE id = $1`, id, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a       domain.Account
		keyType string
	)
	err := row.Scan(
		&a.ID,
		&a.OwnerUserID,
		&a.OwnerName,
		&a.PaymentKey,
		&keyType,
		&a.Balance,
		&a.Version,
		&a.Frozen,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}
	a.PaymentKeyType = domain.PaymentKeyType(keyType)
	return &a, nil
}
