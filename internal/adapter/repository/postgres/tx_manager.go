package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gobank/internal/usecase"
)

// DefaultLockTimeout bounds how long a statement waits for a row lock.
// Exceeding it raises SQLSTATE 55P03, which the contention retrier retries.
const DefaultLockTimeout = 2 * time.Second

type txStarter interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// TxManager implements usecase.TransactionManager on a pgx pool. Every
// transaction runs at READ COMMITTED with a bounded lock wait; balance
// mutations serialize on SELECT ... FOR UPDATE rather than on isolation.
type TxManager struct {
	pool        txStarter
	lockTimeout time.Duration
}

// NewTxManager creates a TxManager with DefaultLockTimeout.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return newTxManager(pool, DefaultLockTimeout)
}

func newTxManager(pool txStarter, lockTimeout time.Duration) *TxManager {
	return &TxManager{pool: pool, lockTimeout: lockTimeout}
}

// Begin starts a transaction and applies the lock timeout to it.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	if m.lockTimeout > 0 {
		// SET LOCAL takes no bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", m.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("set lock timeout: %w", err)
		}
	}

	return &Tx{tx: tx}, nil
}

// Tx is a usecase.Transaction backed by pgx. Once it has committed,
// Rollback does nothing, so callers can always defer it.
type Tx struct {
	tx   pgx.Tx
	done bool
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return err
	}
	t.done = true
	return nil
}

// Rollback aborts the transaction unless it already committed.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback(ctx)
}

// PgxTx exposes the pgx transaction to the repositories.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}
