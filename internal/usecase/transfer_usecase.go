package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// TransferUseCase handles transfer business logic.
type TransferUseCase struct {
	transferStates

	accountRepo   AccountRepository
	accounts      AccountStore
	resolver      KeyResolver
	creditRetrier Retrier
	metrics       *metrics.Metrics
	maxAmount     int64
}

// NewTransferUseCase creates a new TransferUseCase. A maxAmount of zero
// applies DefaultMaxTransferAmount.
func NewTransferUseCase(
	txManager TransactionManager,
	transferRepo TransferRepository,
	accountRepo AccountRepository,
	reconRepo ReconciliationRepository,
	outboxRepo OutboxRepository,
	accounts AccountStore,
	resolver KeyResolver,
	creditRetrier Retrier,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	maxAmount int64,
) *TransferUseCase {
	if maxAmount <= 0 {
		maxAmount = DefaultMaxTransferAmount
	}
	return &TransferUseCase{
		transferStates: transferStates{
			txManager:    txManager,
			transferRepo: transferRepo,
			reconRepo:    reconRepo,
			outboxRepo:   outboxRepo,
			idGen:        idGen,
		},
		accountRepo:   accountRepo,
		accounts:      accounts,
		resolver:      resolver,
		creditRetrier: creditRetrier,
		metrics:       metrics,
		maxAmount:     maxAmount,
	}
}

// TransferInput represents input for moving money between accounts.
type TransferInput struct {
	FromAccountID string
	// To is a payment key or an account id.
	To             string
	Amount         int64
	Description    string
	IdempotencyKey string
}

// DepositInput represents an external credit into an account.
type DepositInput struct {
	AccountID      string
	Amount         int64
	Description    string
	IdempotencyKey string
}

// TransferResult wraps a transfer with whether it was answered from an
// earlier request carrying the same idempotency key.
type TransferResult struct {
	Transfer *domain.Transfer
	Replayed bool
}

// Transfer moves Amount from the source account to the recipient.
//
// The debit and the credit are separate single-account steps. A failed debit
// marks the transfer failed. A credit that keeps failing after the debit
// parks the transfer in the reconciliation queue and the call returns the
// transfer together with domain.ErrReconciliationPending.
func (uc *TransferUseCase) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	start := time.Now()

	if err := uc.validate(input.Amount, input.Description, input.IdempotencyKey); err != nil {
		return nil, err
	}

	if result, err := uc.lookupReplay(ctx, input.FromAccountID, input.IdempotencyKey); result != nil || err != nil {
		return result, err
	}

	if _, err := uc.accountRepo.GetByID(ctx, input.FromAccountID); err != nil {
		return nil, err
	}

	toAccountID, err := uc.resolveRecipient(ctx, input.To)
	if err != nil {
		return nil, err
	}
	if toAccountID == input.FromAccountID {
		return nil, domain.ErrSelfTransfer
	}

	transfer, result, err := uc.createPending(ctx, input.FromAccountID, toAccountID, input.Amount, input.Description, input.IdempotencyKey)
	if result != nil || err != nil {
		return result, err
	}

	return uc.execute(ctx, transfer, start)
}

// Deposit credits an account from outside the ledger. It is the only way
// money enters the system.
func (uc *TransferUseCase) Deposit(ctx context.Context, input DepositInput) (*TransferResult, error) {
	start := time.Now()

	if err := uc.validate(input.Amount, input.Description, input.IdempotencyKey); err != nil {
		return nil, err
	}

	if result, err := uc.lookupReplay(ctx, "", input.IdempotencyKey); result != nil || err != nil {
		return result, err
	}

	if _, err := uc.accountRepo.GetByID(ctx, input.AccountID); err != nil {
		return nil, err
	}

	transfer, result, err := uc.createPending(ctx, "", input.AccountID, input.Amount, input.Description, input.IdempotencyKey)
	if result != nil || err != nil {
		return result, err
	}

	return uc.execute(ctx, transfer, start)
}

// GetTransfer returns a transfer visible to accountID.
func (uc *TransferUseCase) GetTransfer(ctx context.Context, id, accountID string) (*domain.Transfer, error) {
	transfer, err := uc.transferRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if accountID != "" && !transfer.Involves(accountID) {
		return nil, domain.ErrTransferNotFound
	}
	return transfer, nil
}

// ListTransfersInput represents input for listing an account's transfers.
type ListTransfersInput struct {
	AccountID string
	Direction domain.Direction
	Limit     int
	Offset    int
}

// ListTransfers returns transfers of an account, newest first.
func (uc *TransferUseCase) ListTransfers(ctx context.Context, input ListTransfersInput) ([]*domain.Transfer, error) {
	direction := input.Direction
	if direction == "" {
		direction = domain.DirectionAll
	}
	if _, err := domain.ParseDirection(string(direction)); err != nil {
		return nil, err
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.transferRepo.ListByAccount(ctx, input.AccountID, direction, limit, offset)
}

func (uc *TransferUseCase) validate(amount int64, description, idempotencyKey string) error {
	if err := domain.ValidateAmount(amount, uc.maxAmount); err != nil {
		return err
	}
	if err := domain.ValidateDescription(description); err != nil {
		return err
	}
	if idempotencyKey == "" || len(idempotencyKey) > MaxIdempotencyKeyLength {
		return domain.ErrInvalidIdempotencyKey
	}
	return nil
}

func (uc *TransferUseCase) lookupReplay(ctx context.Context, fromAccountID, key string) (*TransferResult, error) {
	existing, err := uc.transferRepo.GetByIdempotencyKey(ctx, fromAccountID, key)
	if errors.Is(err, domain.ErrTransferNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransferReplays.Inc()
	}
	return &TransferResult{Transfer: existing, Replayed: true}, nil
}

// resolveRecipient tries the payment key registry first and falls back to
// treating the value as an account id.
func (uc *TransferUseCase) resolveRecipient(ctx context.Context, to string) (string, error) {
	if to == "" {
		return "", domain.ErrUnknownRecipient
	}

	accountID, err := uc.resolver.ResolveKey(ctx, to)
	if err == nil {
		return accountID, nil
	}
	if !errors.Is(err, domain.ErrUnknownRecipient) {
		return "", err
	}

	account, err := uc.accountRepo.GetByID(ctx, to)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return "", domain.ErrUnknownRecipient
	}
	if err != nil {
		return "", err
	}
	return account.ID, nil
}

// createPending records the transfer intent. A concurrent twin that won the
// unique (source, key) race is returned as a replay.
func (uc *TransferUseCase) createPending(ctx context.Context, from, to string, amount int64, description, key string) (*domain.Transfer, *TransferResult, error) {
	now := time.Now().UTC()
	transfer := &domain.Transfer{
		ID:             uc.idGen.Generate(),
		FromAccountID:  from,
		ToAccountID:    to,
		Amount:         amount,
		Description:    description,
		Status:         domain.TransferStatusPending,
		IdempotencyKey: key,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := transfer.Validate(); err != nil {
		return nil, nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	err = uc.transferRepo.Create(txCtx, tx, transfer)
	if errors.Is(err, domain.ErrDuplicateRequest) {
		_ = tx.Rollback(txCtx)
		result, lookupErr := uc.lookupReplay(ctx, from, key)
		if lookupErr != nil {
			return nil, nil, lookupErr
		}
		if result == nil {
			return nil, nil, domain.ErrConflict
		}
		return nil, result, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, nil, err
	}

	return transfer, nil, nil
}

func (uc *TransferUseCase) execute(ctx context.Context, transfer *domain.Transfer, start time.Time) (*TransferResult, error) {
	logger := zerolog.Ctx(ctx).With().Str("transfer_id", transfer.ID).Logger()

	if !transfer.External() {
		_, err := uc.accounts.ApplyDelta(ctx, ApplyDeltaInput{
			AccountID:  transfer.FromAccountID,
			Delta:      -transfer.Amount,
			MinBalance: 0,
			TransferID: transfer.ID,
			Guard:      uc.stillPending(transfer.ID),
		})
		if errors.Is(err, domain.ErrTransferNotPending) {
			logger.Warn().Err(err).Msg("transfer settled elsewhere before the debit")
			return nil, err
		}
		if err != nil {
			if !debitRejected(err) {
				// Outcome unknown; the stale transfer recovery decides from the entries.
				logger.Error().Err(err).Msg("debit outcome unknown, leaving transfer pending")
				return nil, err
			}
			if _, ferr := uc.fail(context.WithoutCancel(ctx), transfer.ID, failureReason(err)); ferr != nil {
				logger.Error().Err(ferr).Msg("failed to mark transfer failed")
			}
			uc.observe(domain.TransferStatusFailed, transfer.Amount, start)
			return nil, err
		}
	}

	// The debit is durable from here on: finish regardless of the caller.
	ctx = context.WithoutCancel(ctx)

	if err := uc.credit(ctx, transfer); err != nil {
		logger.Warn().Err(err).Msg("credit exhausted retries, escalating to reconciliation")

		escalated, _, eerr := uc.escalate(ctx, transfer.ID, err)
		if eerr != nil {
			logger.Error().Err(eerr).Msg("failed to escalate transfer")
			return &TransferResult{Transfer: transfer}, fmt.Errorf("%w: %v", domain.ErrReconciliationPending, eerr)
		}
		uc.observe(domain.TransferStatusReconciliationPending, transfer.Amount, start)
		return &TransferResult{Transfer: escalated}, domain.ErrReconciliationPending
	}

	completed, err := uc.complete(ctx, transfer.ID, nil)
	if err != nil {
		logger.Error().Err(err).Msg("failed to complete credited transfer")
		return nil, err
	}

	uc.observe(domain.TransferStatusCompleted, transfer.Amount, start)
	return &TransferResult{Transfer: completed}, nil
}

func (uc *TransferUseCase) credit(ctx context.Context, transfer *domain.Transfer) error {
	attempts := 0
	apply := func() error {
		if attempts > 0 && uc.metrics != nil {
			uc.metrics.CreditRetries.Inc()
		}
		attempts++
		_, err := uc.accounts.ApplyDelta(ctx, ApplyDeltaInput{
			AccountID:  transfer.ToAccountID,
			Delta:      transfer.Amount,
			TransferID: transfer.ID,
		})
		return err
	}

	if uc.creditRetrier == nil {
		return apply()
	}
	return uc.creditRetrier.Retry(ctx, apply)
}

func (uc *TransferUseCase) observe(status domain.TransferStatus, amount int64, start time.Time) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.TransfersTotal.WithLabelValues(string(status)).Inc()
	uc.metrics.TransferDuration.Observe(time.Since(start).Seconds())
	if status == domain.TransferStatusCompleted {
		uc.metrics.TransferAmount.Observe(float64(amount))
	}
}

// debitRejected reports whether the debit was refused without touching the balance.
func debitRejected(err error) bool {
	return errors.Is(err, domain.ErrInsufficientFunds) ||
		errors.Is(err, domain.ErrAccountFrozen) ||
		errors.Is(err, domain.ErrAccountNotFound) ||
		errors.Is(err, domain.ErrConflict)
}
