// Package memory is an in-process storage backend. Rows are guarded by
// per-key locks held for the life of a transaction; writes are staged and
// become visible together at commit.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// DefaultLockWait bounds how long a transaction waits for a row lock before
// reporting contention.
const DefaultLockWait = 2 * time.Second

// Store holds every table of the memory backend.
type Store struct {
	locks    *keyedLocks
	lockWait time.Duration

	// commitMu is held shared while a transaction applies its writes and
	// exclusively by ledger snapshots.
	commitMu sync.RWMutex

	accountsMu sync.RWMutex
	accounts   map[string]*domain.Account
	byOwner    map[string]string
	byKey      map[string]string

	entriesMu sync.RWMutex
	entries   []*domain.Entry
	legs      map[legKey]*domain.Entry

	transfersMu sync.RWMutex
	transfers   map[string]*domain.Transfer
	transferSeq map[string]int64
	byIdemKey   map[string]string

	receivablesMu sync.RWMutex
	receivables   map[string]*domain.Receivable

	cardsMu sync.RWMutex
	cards   map[string]*domain.Card
	cardTxs map[string][]*domain.CardTransaction

	verificationsMu sync.RWMutex
	verifications   map[string]*domain.VerificationRecord

	reconMu    sync.RWMutex
	reconItems map[string]*domain.ReconciliationItem
	reconOrder []string

	outboxMu    sync.RWMutex
	outbox      map[string]*domain.OutboxEvent
	outboxOrder []string

	seqMu sync.Mutex
	seq   int64
}

type legKey struct {
	transferID string
	accountID  string
	debit      bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		locks:         newKeyedLocks(),
		lockWait:      DefaultLockWait,
		accounts:      make(map[string]*domain.Account),
		byOwner:       make(map[string]string),
		byKey:         make(map[string]string),
		legs:          make(map[legKey]*domain.Entry),
		transfers:     make(map[string]*domain.Transfer),
		transferSeq:   make(map[string]int64),
		byIdemKey:     make(map[string]string),
		receivables:   make(map[string]*domain.Receivable),
		cards:         make(map[string]*domain.Card),
		cardTxs:       make(map[string][]*domain.CardTransaction),
		verifications: make(map[string]*domain.VerificationRecord),
		reconItems:    make(map[string]*domain.ReconciliationItem),
		outbox:        make(map[string]*domain.OutboxEvent),
	}
}

// SetLockWait changes how long a transaction waits for a row lock.
func (s *Store) SetLockWait(d time.Duration) {
	s.lockWait = d
}

func (s *Store) nextSeq() int64 {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	s.seq++
	return s.seq
}

// keyedLocks hands out one binary semaphore per key. An entry lives only
// while someone holds or waits for it, so the map is bounded by the number
// of in-flight lockers rather than by every key ever touched.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	ch   chan struct{}
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*keyedLock)}
}

// ref returns the semaphore for key and counts the caller against it.
func (l *keyedLocks) ref(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	lk, ok := l.locks[key]
	if !ok {
		lk = &keyedLock{ch: make(chan struct{}, 1)}
		l.locks[key] = lk
	}
	lk.refs++
	return lk.ch
}

func (l *keyedLocks) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lk, ok := l.locks[key]
	if !ok {
		return
	}
	lk.refs--
	if lk.refs <= 0 {
		delete(l.locks, key)
	}
}

func (l *keyedLocks) acquire(ctx context.Context, key string, wait time.Duration) error {
	ch := l.ref(key)

	select {
	case ch <- struct{}{}:
		return nil
	default:
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		l.unref(key)
		return fmt.Errorf("%w: lock wait timeout on %s", domain.ErrConflict, key)
	case <-ctx.Done():
		l.unref(key)
		return fmt.Errorf("lock %s: %w", key, ctx.Err())
	}
}

func (l *keyedLocks) release(key string) {
	l.mu.Lock()
	lk, ok := l.locks[key]
	l.mu.Unlock()
	if !ok {
		return
	}
	<-lk.ch
	l.unref(key)
}

// size reports how many keys currently have a holder or a waiter.
func (l *keyedLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{store: m.store, held: make(map[string]struct{})}, nil
}

// Tx is a memory transaction: the row locks it holds and the writes it
// will apply on commit.
type Tx struct {
	mu    sync.Mutex
	store *Store
	held  map[string]struct{}
	order []string
	ops   []func()
	done  bool
}

// lock acquires key for the rest of the transaction. Locks are reentrant
// within one transaction.
func (t *Tx) lock(ctx context.Context, key string) error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return errTxDone
	}
	if _, ok := t.held[key]; ok {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	if err := t.store.locks.acquire(ctx, key, t.store.lockWait); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.held[key] = struct{}{}
	t.order = append(t.order, key)
	return nil
}

func (t *Tx) stage(op func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return errTxDone
	}
	t.ops = append(t.ops, op)
	return nil
}

// Commit applies staged writes and releases every lock.
func (t *Tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return errTxDone
	}
	if err := ctx.Err(); err != nil {
		t.finish()
		return err
	}

	t.store.commitMu.RLock()
	for _, op := range t.ops {
		op()
	}
	t.store.commitMu.RUnlock()

	t.finish()
	return nil
}

// Rollback discards staged writes and releases every lock. Rolling back a
// finished transaction is a no-op.
func (t *Tx) Rollback(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	t.finish()
	return nil
}

func (t *Tx) finish() {
	t.done = true
	t.ops = nil
	for i := len(t.order) - 1; i >= 0; i-- {
		t.store.locks.release(t.order[i])
	}
	t.held = nil
	t.order = nil
}

var errTxDone = errors.New("memory: transaction already finished")

func accountLock(id string) string      { return "account:" + id }
func transferLock(id string) string     { return "transfer:" + id }
func cardLock(id string) string         { return "card:" + id }
func verificationLock(id string) string { return "verification:" + id }
func reconLock(id string) string        { return "reconciliation:" + id }

func idemKey(fromAccountID, key string) string {
	return fromAccountID + "\x00" + key
}
