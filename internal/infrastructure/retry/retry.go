// Package retry runs operations under bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/domain"
)

// PostgreSQL error codes for retryable errors.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrLockNotAvailable     = "55P03"
)

// Config bounds a retry policy.
type Config struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultContentionConfig is used for row lock contention.
func DefaultContentionConfig() Config {
	return Config{
		MaxRetries:      3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     1 * time.Second,
		MaxElapsedTime:  10 * time.Second,
	}
}

// DefaultCreditConfig is used for the credit leg of a transfer.
func DefaultCreditConfig() Config {
	return Config{
		MaxRetries:      5,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     1 * time.Second,
		MaxElapsedTime:  5 * time.Second,
	}
}

// Retrier implements usecase.Retrier with exponential backoff.
type Retrier struct {
	cfg       Config
	name      string
	retryable func(error) bool
	exhausted func(error) error
	logger    zerolog.Logger
}

// NewContentionRetrier retries transient database contention. When the
// policy is exhausted the caller gets domain.ErrConflict.
func NewContentionRetrier(cfg Config, logger zerolog.Logger) *Retrier {
	return &Retrier{
		cfg:       cfg,
		name:      "contention",
		retryable: IsTransient,
		exhausted: func(err error) error {
			return fmt.Errorf("%w: %v", domain.ErrConflict, err)
		},
		logger: logger,
	}
}

// NewCreditRetrier retries a credit until it lands or the policy runs out.
// Only outcomes that cannot change on retry stop it early.
func NewCreditRetrier(cfg Config, logger zerolog.Logger) *Retrier {
	return &Retrier{
		cfg:  cfg,
		name: "credit",
		retryable: func(err error) bool {
			return !errors.Is(err, domain.ErrAccountFrozen) &&
				!errors.Is(err, domain.ErrAccountNotFound) &&
				!errors.Is(err, domain.ErrBalanceOverflow) &&
				!errors.Is(err, domain.ErrInvalidAmount)
		},
		exhausted: func(err error) error { return err },
		logger:    logger,
	}
}

// Retry executes an operation with exponential backoff on retryable errors.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialInterval
	b.MaxInterval = r.cfg.MaxInterval
	b.MaxElapsedTime = r.cfg.MaxElapsedTime

	retryCount := 0

	err := backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		if !r.retryable(err) {
			return backoff.Permanent(err)
		}

		retryCount++
		if retryCount > r.cfg.MaxRetries {
			return backoff.Permanent(err)
		}

		r.logger.Warn().
			Err(err).
			Str("policy", r.name).
			Int("retry", retryCount).
			Msg("retryable error, retrying")

		return err
	}, backoff.WithContext(b, ctx))

	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return err
	}
	if r.retryable(err) {
		return r.exhausted(err)
	}
	return err
}

// IsTransient reports whether err is contention that a fresh attempt may not hit.
func IsTransient(err error) bool {
	if errors.Is(err, domain.ErrConflict) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure, pgErrLockNotAvailable:
			return true
		}
	}
	return false
}
