package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultMaxTransferAmount is the per-transaction ceiling in minor units (10,000.00)
	DefaultMaxTransferAmount int64 = 1_000_000

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// MaxIdempotencyKeyLength bounds client supplied keys
	MaxIdempotencyKeyLength = 128

	// reconcileBatchSize caps the work done by one reconciliation pass
	reconcileBatchSize = 100
)
