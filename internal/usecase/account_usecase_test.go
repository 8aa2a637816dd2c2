package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/gobank/internal/adapter/repository/memory"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/idgen"
	"github.com/iho/gobank/internal/usecase"
	"github.com/iho/gobank/internal/usecase/mocks"
)

func TestAccountUseCase_OpenAccount(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.OpenAccountInput
		wantKey string
		wantErr error
	}{
		{
			name:    "email key defaults to the owner email",
			input:   usecase.OpenAccountInput{UserID: "u1", OwnerName: "Ana", Email: "Ana@Example.com"},
			wantKey: "ana@example.com",
		},
		{
			name:    "phone key",
			input:   usecase.OpenAccountInput{UserID: "u2", KeyType: domain.PaymentKeyPhone, PaymentKey: "+5511999990000"},
			wantKey: "+5511999990000",
		},
		{
			name:    "missing user",
			input:   usecase.OpenAccountInput{Email: "x@example.com"},
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:    "invalid email key",
			input:   usecase.OpenAccountInput{UserID: "u3", Email: "not-an-email"},
			wantErr: domain.ErrInvalidPaymentKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBank(t)
			acc, err := b.accounts.OpenAccount(context.Background(), tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantKey, acc.PaymentKey)
			require.Zero(t, acc.Balance)
			require.Contains(t, b.outboxTypes(t), domain.EventTypeAccountOpened)
		})
	}
}

func TestAccountUseCase_OpenAccountRandomKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	keyGen := mocks.NewMockKeyGenerator(ctrl)
	keyGen.EXPECT().NewKey().Return("6f1c2a9e-7d43-4b7e-9a51-0f3f0c7d2b11")

	store := memory.NewStore()
	uc := usecase.NewAccountUseCase(
		memory.NewTxManager(store),
		memory.NewAccountRepository(store),
		memory.NewEntryRepository(store),
		memory.NewOutboxRepository(store),
		nil, idgen.NewULIDGenerator(), keyGen, nil,
	)

	acc, err := uc.OpenAccount(context.Background(), usecase.OpenAccountInput{
		UserID:  "u1",
		KeyType: domain.PaymentKeyRandom,
	})
	require.NoError(t, err)
	require.Equal(t, "6f1c2a9e-7d43-4b7e-9a51-0f3f0c7d2b11", acc.PaymentKey)

	resolved, err := uc.ResolveKey(context.Background(), acc.PaymentKey)
	require.NoError(t, err)
	require.Equal(t, acc.ID, resolved)
}

func TestAccountUseCase_OneAccountPerUserAndKey(t *testing.T) {
	ctx := context.Background()
	b := newBank(t)
	b.open(t, "ana")

	_, err := b.accounts.OpenAccount(ctx, usecase.OpenAccountInput{UserID: "ana", Email: "other@bank.test"})
	require.ErrorIs(t, err, domain.ErrAccountExists)

	_, err = b.accounts.OpenAccount(ctx, usecase.OpenAccountInput{UserID: "bia", Email: "ana@bank.test"})
	require.ErrorIs(t, err, domain.ErrPaymentKeyTaken)

	_, err = b.accounts.ResolveKey(ctx, "nobody@bank.test")
	require.ErrorIs(t, err, domain.ErrUnknownRecipient)
}

func TestAccountUseCase_ConcurrentOpenSameKey(t *testing.T) {
	b := newBank(t)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		opened int
	)
	for _, user := range []string{"u1", "u2", "u3", "u4", "u5"} {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			_, err := b.accounts.OpenAccount(context.Background(), usecase.OpenAccountInput{UserID: user, Email: "shared@bank.test"})
			if err == nil {
				mu.Lock()
				opened++
				mu.Unlock()
				return
			}
			if !errors.Is(err, domain.ErrPaymentKeyTaken) {
				t.Errorf("unexpected error: %v", err)
			}
		}(user)
	}
	wg.Wait()

	require.Equal(t, 1, opened)
}

func TestAccountUseCase_ApplyDelta(t *testing.T) {
	ctx := context.Background()
	b := newBank(t)
	acc := b.open(t, "ana")
	b.fund(t, acc.ID, 1000)

	entry, err := b.accounts.ApplyDelta(ctx, usecase.ApplyDeltaInput{AccountID: acc.ID, Delta: -300})
	require.NoError(t, err)
	require.EqualValues(t, 1000, entry.BalanceBefore)
	require.EqualValues(t, 700, entry.BalanceAfter)

	_, err = b.accounts.ApplyDelta(ctx, usecase.ApplyDeltaInput{AccountID: acc.ID, Delta: -701})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	require.EqualValues(t, 700, b.balance(t, acc.ID))

	// A negative minimum allows an overdraft down to that floor.
	entry, err = b.accounts.ApplyDelta(ctx, usecase.ApplyDeltaInput{AccountID: acc.ID, Delta: -800, MinBalance: -100})
	require.NoError(t, err)
	require.EqualValues(t, -100, entry.BalanceAfter)

	_, err = b.accounts.ApplyDelta(ctx, usecase.ApplyDeltaInput{AccountID: acc.ID, Delta: 0})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = b.accounts.ApplyDelta(ctx, usecase.ApplyDeltaInput{AccountID: "missing", Delta: 1})
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountUseCase_ApplyDeltaLegIsIdempotent(t *testing.T) {
	ctx := context.Background()
	b := newBank(t)
	acc := b.open(t, "ana")

	first, err := b.accounts.ApplyDelta(ctx, usecase.ApplyDeltaInput{AccountID: acc.ID, Delta: 500, TransferID: "t-1"})
	require.NoError(t, err)

	second, err := b.accounts.ApplyDelta(ctx, usecase.ApplyDeltaInput{AccountID: acc.ID, Delta: 500, TransferID: "t-1"})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.EqualValues(t, 500, b.balance(t, acc.ID))

	// The debit leg of the same transfer is a different leg.
	_, err = b.accounts.ApplyDelta(ctx, usecase.ApplyDeltaInput{AccountID: acc.ID, Delta: -200, TransferID: "t-1"})
	require.NoError(t, err)
	require.EqualValues(t, 300, b.balance(t, acc.ID))
}

func TestAccountUseCase_ApplyDeltaLinearizable(t *testing.T) {
	ctx := context.Background()
	b := newBank(t)
	acc := b.open(t, "ana")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := b.accounts.ApplyDelta(ctx, usecase.ApplyDeltaInput{AccountID: acc.ID, Delta: 10}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 500, b.balance(t, acc.ID))

	entries, err := b.accounts.ListEntries(ctx, acc.ID, 100, 0)
	require.NoError(t, err)
	require.Len(t, entries, 50)

	// Every entry continues from the balance the previous one left.
	seen := make(map[int64]bool, len(entries))
	for _, e := range entries {
		require.Equal(t, e.BalanceBefore+10, e.BalanceAfter)
		require.False(t, seen[e.BalanceBefore], "two mutations observed the same balance")
		seen[e.BalanceBefore] = true
	}
}

func TestAccountUseCase_CorruptedBalanceFreezes(t *testing.T) {
	ctx := context.Background()
	b := newBank(t)
	b.store.Seed(&domain.Account{ID: "acc-bad", OwnerUserID: "u-bad", PaymentKey: "bad@bank.test", Balance: -1})

	_, err := b.accounts.ApplyDelta(ctx, usecase.ApplyDeltaInput{AccountID: "acc-bad", Delta: 100})
	require.ErrorIs(t, err, domain.ErrAccountFrozen)

	acc, err := b.accounts.GetAccount(ctx, "acc-bad")
	require.NoError(t, err)
	require.True(t, acc.Frozen)
	require.EqualValues(t, -1, acc.Balance, "a frozen balance is left for manual repair")

	_, err = b.accounts.ApplyDelta(ctx, usecase.ApplyDeltaInput{AccountID: "acc-bad", Delta: 100})
	require.ErrorIs(t, err, domain.ErrAccountFrozen)
}

func TestAccountUseCase_ApplyDeltaRetriesContention(t *testing.T) {
	ctrl := gomock.NewController(t)
	retrier := mocks.NewMockRetrier(ctrl)

	store := memory.NewStore()
	store.Seed(&domain.Account{ID: "a1", OwnerUserID: "u1", Balance: 10})

	uc := usecase.NewAccountUseCase(
		memory.NewTxManager(store),
		memory.NewAccountRepository(store),
		memory.NewEntryRepository(store),
		memory.NewOutboxRepository(store),
		retrier, idgen.NewULIDGenerator(), idgen.NewUUIDKeyGenerator(), nil,
	)

	retrier.EXPECT().
		Retry(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, op func() error) error {
			return op()
		})

	entry, err := uc.ApplyDelta(context.Background(), usecase.ApplyDeltaInput{AccountID: "a1", Delta: 5})
	require.NoError(t, err)
	require.EqualValues(t, 15, entry.BalanceAfter)
}
