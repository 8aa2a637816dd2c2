package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/domain"
)

func fastConfig(maxRetries int) Config {
	return Config{
		MaxRetries:      maxRetries,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxElapsedTime:  time.Second,
	}
}

func TestContentionRetrierRetriesOnDeadlock(t *testing.T) {
	r := NewContentionRetrier(fastConfig(2), zerolog.Nop())

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return &pgconn.PgError{Code: pgErrDeadlock}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestContentionRetrierExhaustionIsConflict(t *testing.T) {
	r := NewContentionRetrier(fastConfig(2), zerolog.Nop())

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		return &pgconn.PgError{Code: pgErrSerializationFailure}
	})

	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 1 attempt plus 2 retries, got %d", attempts)
	}
}

func TestContentionRetrierStopsOnPermanentError(t *testing.T) {
	r := NewContentionRetrier(fastConfig(3), zerolog.Nop())
	attempts := 0

	err := r.Retry(context.Background(), func() error {
		attempts++
		return domain.ErrInsufficientFunds
	})

	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestCreditRetrier(t *testing.T) {
	t.Run("retries generic failures and returns the last one", func(t *testing.T) {
		r := NewCreditRetrier(fastConfig(2), zerolog.Nop())
		boom := errors.New("connection reset")
		attempts := 0

		err := r.Retry(context.Background(), func() error {
			attempts++
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected last error, got %v", err)
		}
		if attempts != 3 {
			t.Fatalf("expected 3 attempts, got %d", attempts)
		}
	})

	t.Run("frozen account stops immediately", func(t *testing.T) {
		r := NewCreditRetrier(fastConfig(5), zerolog.Nop())
		attempts := 0

		err := r.Retry(context.Background(), func() error {
			attempts++
			return domain.ErrAccountFrozen
		})
		if !errors.Is(err, domain.ErrAccountFrozen) || attempts != 1 {
			t.Fatalf("expected one attempt with ErrAccountFrozen, got %d attempts, %v", attempts, err)
		}
	})
}

func TestRetryHonorsCancelledContext(t *testing.T) {
	r := NewCreditRetrier(Config{MaxRetries: 100, InitialInterval: 50 * time.Millisecond, MaxInterval: 50 * time.Millisecond, MaxElapsedTime: time.Minute}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := r.Retry(ctx, func() error {
		attempts++
		cancel()
		return errors.New("unavailable")
	})

	if err == nil {
		t.Fatal("expected an error")
	}
	if attempts != 1 {
		t.Fatalf("expected retries to stop after cancel, got %d attempts", attempts)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&pgconn.PgError{Code: pgErrDeadlock}, true},
		{&pgconn.PgError{Code: pgErrLockNotAvailable}, true},
		{&pgconn.PgError{Code: "23505"}, false},
		{domain.ErrConflict, true},
		{errors.New("other"), false},
	}
	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Errorf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
