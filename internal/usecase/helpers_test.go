package usecase_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/iho/gobank/internal/adapter/repository/memory"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/idgen"
	"github.com/iho/gobank/internal/infrastructure/retry"
	"github.com/iho/gobank/internal/usecase"
)

// bank wires every use case over one memory store.
type bank struct {
	store        *memory.Store
	txm          *memory.TxManager
	accountRepo  *memory.AccountRepository
	entryRepo    *memory.EntryRepository
	transferRepo *memory.TransferRepository
	reconRepo    *memory.ReconciliationRepository
	outboxRepo   *memory.OutboxRepository

	accounts       *usecase.AccountUseCase
	transfers      *usecase.TransferUseCase
	reconciliation *usecase.ReconciliationUseCase
	verification   *usecase.VerificationUseCase
}

type bankOption func(*bankConfig)

type bankConfig struct {
	maxAmount int64
	wrapStore func(usecase.AccountStore) usecase.AccountStore
}

func withMaxAmount(amount int64) bankOption {
	return func(c *bankConfig) { c.maxAmount = amount }
}

// withTransferStore replaces the AccountStore seen by transfers and reconciliation.
func withTransferStore(wrap func(usecase.AccountStore) usecase.AccountStore) bankOption {
	return func(c *bankConfig) { c.wrapStore = wrap }
}

func fastRetry(maxRetries int) retry.Config {
	return retry.Config{
		MaxRetries:      maxRetries,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxElapsedTime:  2 * time.Second,
	}
}

func newBank(t *testing.T, opts ...bankOption) *bank {
	t.Helper()

	cfg := bankConfig{maxAmount: usecase.DefaultMaxTransferAmount}
	for _, opt := range opts {
		opt(&cfg)
	}

	store := memory.NewStore()
	b := &bank{
		store:        store,
		txm:          memory.NewTxManager(store),
		accountRepo:  memory.NewAccountRepository(store),
		entryRepo:    memory.NewEntryRepository(store),
		transferRepo: memory.NewTransferRepository(store),
		reconRepo:    memory.NewReconciliationRepository(store),
		outboxRepo:   memory.NewOutboxRepository(store),
	}

	ids := idgen.NewULIDGenerator()
	logger := zerolog.Nop()

	b.accounts = usecase.NewAccountUseCase(
		b.txm, b.accountRepo, b.entryRepo, b.outboxRepo,
		retry.NewContentionRetrier(fastRetry(50), logger),
		ids, idgen.NewUUIDKeyGenerator(), nil,
	)

	var accountStore usecase.AccountStore = b.accounts
	if cfg.wrapStore != nil {
		accountStore = cfg.wrapStore(b.accounts)
	}

	b.transfers = usecase.NewTransferUseCase(
		b.txm, b.transferRepo, b.accountRepo, b.reconRepo, b.outboxRepo,
		accountStore, b.accounts,
		retry.NewCreditRetrier(fastRetry(3), logger),
		ids, nil, cfg.maxAmount,
	)
	b.reconciliation = usecase.NewReconciliationUseCase(
		b.txm, b.transferRepo, b.entryRepo, b.reconRepo,
		memory.NewLedgerRepository(store), b.outboxRepo,
		accountStore, ids, nil,
	)
	b.verification = usecase.NewVerificationUseCase(
		b.txm, memory.NewVerificationRepository(store), b.outboxRepo, ids, nil,
	)

	return b
}

// open creates an account for user with an email key of user@bank.test.
func (b *bank) open(t *testing.T, user string) *domain.Account {
	t.Helper()
	acc, err := b.accounts.OpenAccount(context.Background(), usecase.OpenAccountInput{
		UserID:    user,
		OwnerName: user,
		Email:     user + "@bank.test",
	})
	require.NoError(t, err)
	return acc
}

var depositSeq struct {
	mu sync.Mutex
	n  int
}

func (b *bank) fund(t *testing.T, accountID string, amount int64) {
	t.Helper()
	depositSeq.mu.Lock()
	depositSeq.n++
	key := "deposit-" + strconv.Itoa(depositSeq.n)
	depositSeq.mu.Unlock()

	_, err := b.transfers.Deposit(context.Background(), usecase.DepositInput{
		AccountID:      accountID,
		Amount:         amount,
		IdempotencyKey: key,
	})
	require.NoError(t, err)
}

func (b *bank) balance(t *testing.T, accountID string) int64 {
	t.Helper()
	balance, err := b.accounts.GetBalance(context.Background(), accountID)
	require.NoError(t, err)
	return balance
}

func (b *bank) requireConsistent(t *testing.T) domain.LedgerTotals {
	t.Helper()
	totals, err := b.reconciliation.CheckConsistency(context.Background())
	require.NoError(t, err)
	require.True(t, totals.Consistent(), "ledger inconsistent: %+v", totals)
	return totals
}

func (b *bank) outboxTypes(t *testing.T) []string {
	t.Helper()
	events, err := b.outboxRepo.GetUnpublished(context.Background(), 1000)
	require.NoError(t, err)
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.EventType)
	}
	return types
}

// flakyCredits fails the first n credits of every transfer with err.
type flakyCredits struct {
	usecase.AccountStore

	mu       sync.Mutex
	failures int
	err      error
	credits  int
}

func (f *flakyCredits) ApplyDelta(ctx context.Context, input usecase.ApplyDeltaInput) (*domain.Entry, error) {
	if input.Delta > 0 {
		f.mu.Lock()
		f.credits++
		fail := f.failures != 0
		if f.failures > 0 {
			f.failures--
		}
		f.mu.Unlock()
		if fail {
			return nil, f.err
		}
	}
	return f.AccountStore.ApplyDelta(ctx, input)
}

// setFailures makes the next n credits fail; a negative n fails all of them.
func (f *flakyCredits) setFailures(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = n
}
