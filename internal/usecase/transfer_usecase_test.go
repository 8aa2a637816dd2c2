package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

func TestTransfer_CompletesAndMovesMoney(t *testing.T) {
	ctx := context.Background()
	b := newBank(t)
	alice := b.open(t, "alice")
	bob := b.open(t, "bob")
	b.fund(t, alice.ID, 10000)

	result, err := b.transfers.Transfer(ctx, usecase.TransferInput{
		FromAccountID:  alice.ID,
		To:             bob.PaymentKey,
		Amount:         4000,
		Description:    "lunch",
		IdempotencyKey: "k-1",
	})
	require.NoError(t, err)
	require.False(t, result.Replayed)
	require.Equal(t, domain.TransferStatusCompleted, result.Transfer.Status)
	require.NotNil(t, result.Transfer.CompletedAt)
	require.Equal(t, bob.ID, result.Transfer.ToAccountID)

	require.EqualValues(t, 6000, b.balance(t, alice.ID))
	require.EqualValues(t, 4000, b.balance(t, bob.ID))
	require.Contains(t, b.outboxTypes(t), domain.EventTypeTransferCompleted)

	entries, err := b.entryRepo.GetByTransfer(ctx, result.Transfer.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	b.requireConsistent(t)
}

func TestTransfer_RecipientByAccountID(t *testing.T) {
	b := newBank(t)
	alice := b.open(t, "alice")
	bob := b.open(t, "bob")
	b.fund(t, alice.ID, 500)

	result, err := b.transfers.Transfer(context.Background(), usecase.TransferInput{
		FromAccountID: alice.ID, To: bob.ID, Amount: 500, IdempotencyKey: "by-id",
	})
	require.NoError(t, err)
	require.Equal(t, domain.TransferStatusCompleted, result.Transfer.Status)
	require.Zero(t, b.balance(t, alice.ID))
}

func TestTransfer_InsufficientFundsMarksFailed(t *testing.T) {
	ctx := context.Background()
	b := newBank(t)
	alice := b.open(t, "alice")
	bob := b.open(t, "bob")
	b.fund(t, alice.ID, 1000)

	_, err := b.transfers.Transfer(ctx, usecase.TransferInput{
		FromAccountID: alice.ID, To: bob.PaymentKey, Amount: 2000, IdempotencyKey: "too-much",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	require.EqualValues(t, 1000, b.balance(t, alice.ID))
	require.Zero(t, b.balance(t, bob.ID))

	failed, err := b.transferRepo.GetByIdempotencyKey(ctx, alice.ID, "too-much")
	require.NoError(t, err)
	require.Equal(t, domain.TransferStatusFailed, failed.Status)
	require.Equal(t, "insufficient_funds", failed.FailureReason)
	require.Nil(t, failed.CompletedAt)

	b.requireConsistent(t)
}

func TestTransfer_Validation(t *testing.T) {
	b := newBank(t, withMaxAmount(1_000_000))
	alice := b.open(t, "alice")
	bob := b.open(t, "bob")
	b.fund(t, alice.ID, 1_000_000)

	tests := []struct {
		name  string
		input usecase.TransferInput
		want  error
	}{
		{
			name:  "zero amount",
			input: usecase.TransferInput{FromAccountID: alice.ID, To: bob.PaymentKey, Amount: 0, IdempotencyKey: "v1"},
			want:  domain.ErrInvalidAmount,
		},
		{
			name:  "negative amount",
			input: usecase.TransferInput{FromAccountID: alice.ID, To: bob.PaymentKey, Amount: -10, IdempotencyKey: "v2"},
			want:  domain.ErrInvalidAmount,
		},
		{
			name:  "over the ceiling",
			input: usecase.TransferInput{FromAccountID: alice.ID, To: bob.PaymentKey, Amount: 1_000_001, IdempotencyKey: "v3"},
			want:  domain.ErrInvalidAmount,
		},
		{
			name:  "missing idempotency key",
			input: usecase.TransferInput{FromAccountID: alice.ID, To: bob.PaymentKey, Amount: 10},
			want:  domain.ErrInvalidIdempotencyKey,
		},
		{
			name:  "unknown recipient",
			input: usecase.TransferInput{FromAccountID: alice.ID, To: "nobody@bank.test", Amount: 10, IdempotencyKey: "v4"},
			want:  domain.ErrUnknownRecipient,
		},
		{
			name:  "self transfer by key",
			input: usecase.TransferInput{FromAccountID: alice.ID, To: alice.PaymentKey, Amount: 10, IdempotencyKey: "v5"},
			want:  domain.ErrSelfTransfer,
		},
		{
			name:  "self transfer by id",
			input: usecase.TransferInput{FromAccountID: alice.ID, To: alice.ID, Amount: 10, IdempotencyKey: "v6"},
			want:  domain.ErrSelfTransfer,
		},
		{
			name:  "unknown source",
			input: usecase.TransferInput{FromAccountID: "missing", To: bob.PaymentKey, Amount: 10, IdempotencyKey: "v7"},
			want:  domain.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.transfers.Transfer(context.Background(), tt.input)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	require.EqualValues(t, 1_000_000, b.balance(t, alice.ID), "rejected requests must not move money")

	_, err := b.transfers.Transfer(context.Background(), usecase.TransferInput{
		FromAccountID: alice.ID, To: bob.PaymentKey, Amount: 1_000_000, IdempotencyKey: "ceiling",
	})
	require.NoError(t, err, "exactly the ceiling is allowed")
}

func TestTransfer_IdempotentReplay(t *testing.T) {
	ctx := context.Background()
	b := newBank(t)
	alice := b.open(t, "alice")
	bob := b.open(t, "bob")
	b.fund(t, alice.ID, 10000)

	input := usecase.TransferInput{FromAccountID: alice.ID, To: bob.PaymentKey, Amount: 2500, IdempotencyKey: "same"}

	first, err := b.transfers.Transfer(ctx, input)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		again, err := b.transfers.Transfer(ctx, input)
		require.NoError(t, err)
		require.True(t, again.Replayed)
		require.Equal(t, first.Transfer.ID, again.Transfer.ID)
		require.Equal(t, domain.TransferStatusCompleted, again.Transfer.Status)
	}

	require.EqualValues(t, 7500, b.balance(t, alice.ID))
	require.EqualValues(t, 2500, b.balance(t, bob.ID))

	// The key is scoped to the source account.
	b.fund(t, bob.ID, 100)
	other, err := b.transfers.Transfer(ctx, usecase.TransferInput{FromAccountID: bob.ID, To: alice.PaymentKey, Amount: 100, IdempotencyKey: "same"})
	require.NoError(t, err)
	require.False(t, other.Replayed)
}

func TestTransfer_ConcurrentReplaysDebitOnce(t *testing.T) {
	ctx := context.Background()
	b := newBank(t)
	alice := b.open(t, "alice")
	bob := b.open(t, "bob")
	b.fund(t, alice.ID, 10000)

	var wg sync.WaitGroup
	ids := make(chan string, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := b.transfers.Transfer(ctx, usecase.TransferInput{
				FromAccountID: alice.ID, To: bob.PaymentKey, Amount: 1000, IdempotencyKey: "race",
			})
			if err != nil {
				t.Error(err)
				return
			}
			ids <- result.Transfer.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		seen[id] = true
	}
	require.Len(t, seen, 1, "every caller must see the same transfer")
	require.EqualValues(t, 9000, b.balance(t, alice.ID))
	require.EqualValues(t, 1000, b.balance(t, bob.ID))
}

func TestTransfer_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	b := newBank(t)
	alice := b.open(t, "alice")
	bob := b.open(t, "bob")
	carol := b.open(t, "carol")

	const (
		balance = 1000
		amount  = 70
		workers = 30
	)
	b.fund(t, alice.ID, balance)

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		succeeded    int
		insufficient int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			to := bob.PaymentKey
			if i%2 == 0 {
				to = carol.PaymentKey
			}
			_, err := b.transfers.Transfer(ctx, usecase.TransferInput{
				FromAccountID: alice.ID, To: to, Amount: amount, IdempotencyKey: fmt.Sprintf("c-%d", i),
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientFunds):
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, balance/amount, succeeded)
	require.Equal(t, workers-balance/amount, insufficient)
	require.EqualValues(t, balance%amount, b.balance(t, alice.ID))
	require.EqualValues(t, balance, b.balance(t, alice.ID)+b.balance(t, bob.ID)+b.balance(t, carol.ID))

	b.requireConsistent(t)
}

func TestTransfer_ConservationAcrossMesh(t *testing.T) {
	ctx := context.Background()
	b := newBank(t)

	users := []*domain.Account{b.open(t, "u1"), b.open(t, "u2"), b.open(t, "u3"), b.open(t, "u4")}
	for _, u := range users {
		b.fund(t, u.ID, 5000)
	}

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from := users[i%len(users)]
			to := users[(i+1+i/len(users))%len(users)]
			if from.ID == to.ID {
				return
			}
			_, err := b.transfers.Transfer(ctx, usecase.TransferInput{
				FromAccountID: from.ID, To: to.ID, Amount: int64(100 + i*37), IdempotencyKey: fmt.Sprintf("m-%d", i),
			})
			if err != nil && !errors.Is(err, domain.ErrInsufficientFunds) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	var total int64
	for _, u := range users {
		balance := b.balance(t, u.ID)
		require.GreaterOrEqual(t, balance, int64(0))
		total += balance
	}
	require.EqualValues(t, 4*5000, total)

	totals := b.requireConsistent(t)
	require.Zero(t, totals.InFlight)
}

func TestTransfer_CreditFailureEscalates(t *testing.T) {
	ctx := context.Background()
	flaky := &flakyCredits{err: errors.New("ledger node unavailable")}
	b := newBank(t, withTransferStore(func(s usecase.AccountStore) usecase.AccountStore {
		flaky.AccountStore = s
		return flaky
	}))
	alice := b.open(t, "alice")
	bob := b.open(t, "bob")
	b.fund(t, alice.ID, 5000)

	flaky.setFailures(-1)
	result, err := b.transfers.Transfer(ctx, usecase.TransferInput{
		FromAccountID: alice.ID, To: bob.PaymentKey, Amount: 2000, IdempotencyKey: "park",
	})
	require.ErrorIs(t, err, domain.ErrReconciliationPending)
	require.NotNil(t, result)
	require.Equal(t, domain.TransferStatusReconciliationPending, result.Transfer.Status)
	require.Equal(t, 4, flaky.credits, "one attempt plus three retries")

	require.EqualValues(t, 3000, b.balance(t, alice.ID), "the debit stays applied")
	require.Zero(t, b.balance(t, bob.ID))
	require.Contains(t, b.outboxTypes(t), domain.EventTypeTransferReconciliationPending)

	open, err := b.reconciliation.ListOpen(ctx, 10)
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, result.Transfer.ID, open[0].TransferID)
	require.EqualValues(t, 2000, open[0].Amount)

	totals := b.requireConsistent(t)
	require.EqualValues(t, 2000, totals.InFlight)
	require.Equal(t, 1, totals.OpenItems)

	// A replay reports the parked state without moving money again.
	replay, err := b.transfers.Transfer(ctx, usecase.TransferInput{
		FromAccountID: alice.ID, To: bob.PaymentKey, Amount: 2000, IdempotencyKey: "park",
	})
	require.NoError(t, err)
	require.True(t, replay.Replayed)
	require.Equal(t, domain.TransferStatusReconciliationPending, replay.Transfer.Status)

	// Once the credit path recovers the queue drains.
	flaky.setFailures(0)
	report, err := b.reconciliation.ProcessQueue(ctx)
	require.NoError(t, err)
	require.Equal(t, usecase.QueueReport{Processed: 1, Resolved: 1}, report)

	done, err := b.transferRepo.GetByID(ctx, result.Transfer.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TransferStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
	require.EqualValues(t, 2000, b.balance(t, bob.ID))

	totals = b.requireConsistent(t)
	require.Zero(t, totals.InFlight)
	require.Zero(t, totals.OpenItems)
}

func TestTransfer_TransientCreditFailureRecovers(t *testing.T) {
	flaky := &flakyCredits{err: domain.ErrConflict}
	b := newBank(t, withTransferStore(func(s usecase.AccountStore) usecase.AccountStore {
		flaky.AccountStore = s
		return flaky
	}))
	alice := b.open(t, "alice")
	bob := b.open(t, "bob")
	b.fund(t, alice.ID, 5000)

	flaky.setFailures(2)
	result, err := b.transfers.Transfer(context.Background(), usecase.TransferInput{
		FromAccountID: alice.ID, To: bob.PaymentKey, Amount: 1000, IdempotencyKey: "blip",
	})
	require.NoError(t, err)
	require.Equal(t, domain.TransferStatusCompleted, result.Transfer.Status)
	require.EqualValues(t, 1000, b.balance(t, bob.ID))
}

func TestTransfer_FrozenSourceFails(t *testing.T) {
	ctx := context.Background()
	b := newBank(t)
	b.store.Seed(
		&domain.Account{ID: "corrupt", OwnerUserID: "u-c", PaymentKey: "c@bank.test", Balance: -50},
		&domain.Account{ID: "fine", OwnerUserID: "u-f", PaymentKey: "f@bank.test"},
	)

	_, err := b.transfers.Transfer(ctx, usecase.TransferInput{
		FromAccountID: "corrupt", To: "f@bank.test", Amount: 10, IdempotencyKey: "frz",
	})
	require.ErrorIs(t, err, domain.ErrAccountFrozen)

	acc, err := b.accountRepo.GetByID(ctx, "corrupt")
	require.NoError(t, err)
	require.True(t, acc.Frozen)

	failed, err := b.transferRepo.GetByIdempotencyKey(ctx, "corrupt", "frz")
	require.NoError(t, err)
	require.Equal(t, domain.TransferStatusFailed, failed.Status)
	require.Equal(t, "account_frozen", failed.FailureReason)
}

func TestListTransfers(t *testing.T) {
	ctx := context.Background()
	b := newBank(t)
	alice := b.open(t, "alice")
	bob := b.open(t, "bob")
	b.fund(t, alice.ID, 10000)
	b.fund(t, bob.ID, 10000)

	send := func(from, to *domain.Account, key string) string {
		result, err := b.transfers.Transfer(ctx, usecase.TransferInput{FromAccountID: from.ID, To: to.PaymentKey, Amount: 100, IdempotencyKey: key})
		require.NoError(t, err)
		return result.Transfer.ID
	}
	t1 := send(alice, bob, "l1")
	t2 := send(bob, alice, "l2")
	t3 := send(alice, bob, "l3")

	sent, err := b.transfers.ListTransfers(ctx, usecase.ListTransfersInput{AccountID: alice.ID, Direction: domain.DirectionSent})
	require.NoError(t, err)
	require.Len(t, sent, 2)
	require.Equal(t, t3, sent[0].ID)
	require.Equal(t, t1, sent[1].ID)

	received, err := b.transfers.ListTransfers(ctx, usecase.ListTransfersInput{AccountID: alice.ID, Direction: domain.DirectionReceived})
	require.NoError(t, err)
	require.Len(t, received, 2, "the deposit and one transfer from bob")
	require.Equal(t, t2, received[0].ID)

	all, err := b.transfers.ListTransfers(ctx, usecase.ListTransfersInput{AccountID: alice.ID})
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.Equal(t, t3, all[0].ID)

	_, err = b.transfers.ListTransfers(ctx, usecase.ListTransfersInput{AccountID: alice.ID, Direction: "sideways"})
	require.ErrorIs(t, err, domain.ErrInvalidDirection)
}

func TestGetTransfer_OnlyParties(t *testing.T) {
	ctx := context.Background()
	b := newBank(t)
	alice := b.open(t, "alice")
	bob := b.open(t, "bob")
	eve := b.open(t, "eve")
	b.fund(t, alice.ID, 1000)

	result, err := b.transfers.Transfer(ctx, usecase.TransferInput{FromAccountID: alice.ID, To: bob.PaymentKey, Amount: 100, IdempotencyKey: "g1"})
	require.NoError(t, err)

	for _, acc := range []*domain.Account{alice, bob} {
		got, err := b.transfers.GetTransfer(ctx, result.Transfer.ID, acc.ID)
		require.NoError(t, err)
		require.Equal(t, result.Transfer.ID, got.ID)
	}

	_, err = b.transfers.GetTransfer(ctx, result.Transfer.ID, eve.ID)
	require.ErrorIs(t, err, domain.ErrTransferNotFound)
}

func TestDeposit_Replay(t *testing.T) {
	ctx := context.Background()
	b := newBank(t)
	alice := b.open(t, "alice")

	in := usecase.DepositInput{AccountID: alice.ID, Amount: 750, IdempotencyKey: "payroll-1"}
	first, err := b.transfers.Deposit(ctx, in)
	require.NoError(t, err)
	require.True(t, first.Transfer.External())

	again, err := b.transfers.Deposit(ctx, in)
	require.NoError(t, err)
	require.True(t, again.Replayed)
	require.EqualValues(t, 750, b.balance(t, alice.ID))

	_, err = b.transfers.Deposit(ctx, usecase.DepositInput{AccountID: "nope", Amount: 1, IdempotencyKey: "x"})
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	totals := b.requireConsistent(t)
	require.EqualValues(t, 750, totals.ExternalCredits)
}
