package usecase

import (
	"context"
	"time"

	"github.com/iho/gobank/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByOwner(ctx context.Context, userID string) (*domain.Account, error)
	GetByPaymentKey(ctx context.Context, key string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance, version int64, updatedAt time.Time) error
	Freeze(ctx context.Context, id string, updatedAt time.Time) error
}

// EntryRepository defines data access for balance journal entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	// GetLeg returns the entry of one transfer leg, debit when debit is true.
	GetLeg(ctx context.Context, tx Transaction, transferID, accountID string, debit bool) (*domain.Entry, error)
	GetByTransfer(ctx context.Context, transferID string) ([]*domain.Entry, error)
	GetByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
}

// TransferRepository defines data access for transfers.
type TransferRepository interface {
	// Create fails with domain.ErrDuplicateRequest when the source already
	// used the idempotency key.
	Create(ctx context.Context, tx Transaction, transfer *domain.Transfer) error
	GetByID(ctx context.Context, id string) (*domain.Transfer, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Transfer, error)
	GetByIdempotencyKey(ctx context.Context, fromAccountID, key string) (*domain.Transfer, error)
	UpdateStatus(ctx context.Context, tx Transaction, transfer *domain.Transfer) error
	ListByAccount(ctx context.Context, accountID string, direction domain.Direction, limit, offset int) ([]*domain.Transfer, error)
	ListStale(ctx context.Context, status domain.TransferStatus, before time.Time, limit int) ([]*domain.Transfer, error)
}

// ReceivableRepository defines data access for receivables.
type ReceivableRepository interface {
	Create(ctx context.Context, receivable *domain.Receivable) error
	GetByID(ctx context.Context, id string) (*domain.Receivable, error)
}

// CardRepository defines data access for cards.
type CardRepository interface {
	Create(ctx context.Context, tx Transaction, card *domain.Card) error
	GetByID(ctx context.Context, id string) (*domain.Card, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Card, error)
	ListByOwner(ctx context.Context, userID string) ([]*domain.Card, error)
	Update(ctx context.Context, tx Transaction, card *domain.Card) error
}

// CardTransactionRepository defines data access for card authorization records.
type CardTransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.CardTransaction) error
	ListByCard(ctx context.Context, cardID string, limit int) ([]*domain.CardTransaction, error)
}

// VerificationRepository defines data access for verification records.
type VerificationRepository interface {
	// Get returns (nil, nil) when the user has never been reviewed.
	Get(ctx context.Context, userID string) (*domain.VerificationRecord, error)
	// Upsert stores record only if the stored status still equals previous
	// (or there is no row and previous is pending); otherwise it fails with
	// domain.ErrConflict.
	Upsert(ctx context.Context, tx Transaction, record *domain.VerificationRecord, previous domain.VerificationStatus) error
	// ListByStatus returns records in status, longest waiting first.
	ListByStatus(ctx context.Context, status domain.VerificationStatus, limit int) ([]*domain.VerificationRecord, error)
}

// ReconciliationRepository defines data access for the credit escalation queue.
type ReconciliationRepository interface {
	Create(ctx context.Context, tx Transaction, item *domain.ReconciliationItem) error
	ListOpen(ctx context.Context, limit int) ([]*domain.ReconciliationItem, error)
	Update(ctx context.Context, tx Transaction, item *domain.ReconciliationItem) error
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	Totals(ctx context.Context) (domain.LedgerTotals, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claim so the request can be retried.
	Release(ctx context.Context, key string) error
}
