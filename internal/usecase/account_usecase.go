package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// AccountUseCase owns balances and the payment key registry.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	outboxRepo  OutboxRepository
	retrier     Retrier
	idGen       IDGenerator
	keyGen      KeyGenerator
	metrics     *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	retrier Retrier,
	idGen IDGenerator,
	keyGen KeyGenerator,
	metrics *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		outboxRepo:  outboxRepo,
		retrier:     retrier,
		idGen:       idGen,
		keyGen:      keyGen,
		metrics:     metrics,
	}
}

// OpenAccountInput represents input for opening an account.
type OpenAccountInput struct {
	UserID     string
	OwnerName  string
	Email      string
	KeyType    domain.PaymentKeyType
	PaymentKey string
}

// OpenAccount creates the single account of a user and registers its payment key.
func (uc *AccountUseCase) OpenAccount(ctx context.Context, input OpenAccountInput) (*domain.Account, error) {
	if input.UserID == "" {
		return nil, domain.ErrUnauthorized
	}

	keyType := input.KeyType
	key := input.PaymentKey
	if keyType == "" {
		keyType = domain.PaymentKeyEmail
	}
	switch {
	case keyType == domain.PaymentKeyRandom:
		key = uc.keyGen.NewKey()
	case keyType == domain.PaymentKeyEmail && key == "":
		key = input.Email
	}

	key = domain.NormalizePaymentKey(keyType, key)
	if err := domain.ValidatePaymentKey(keyType, key); err != nil {
		return nil, err
	}

	if _, err := uc.accountRepo.GetByOwner(ctx, input.UserID); err == nil {
		return nil, domain.ErrAccountExists
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	if _, err := uc.accountRepo.GetByPaymentKey(ctx, key); err == nil {
		return nil, domain.ErrPaymentKeyTaken
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:             uc.idGen.Generate(),
		OwnerUserID:    input.UserID,
		OwnerName:      input.OwnerName,
		PaymentKey:     key,
		PaymentKeyType: keyType,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.accountRepo.Create(txCtx, tx, account); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   account.ID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeAccountOpened,
		Payload: map[string]any{
			"account_id":       account.ID,
			"owner_user_id":    account.OwnerUserID,
			"payment_key_type": string(account.PaymentKeyType),
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsOpened.Inc()
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// GetAccountByOwner retrieves the account of a user.
func (uc *AccountUseCase) GetAccountByOwner(ctx context.Context, userID string) (*domain.Account, error) {
	return uc.accountRepo.GetByOwner(ctx, userID)
}

// GetBalance returns the committed balance of an account.
func (uc *AccountUseCase) GetBalance(ctx context.Context, accountID string) (int64, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// ResolveKey maps a payment key to its account. Unknown keys are reported
// as an unknown recipient.
func (uc *AccountUseCase) ResolveKey(ctx context.Context, paymentKey string) (string, error) {
	account, err := uc.accountRepo.GetByPaymentKey(ctx, paymentKey)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return "", domain.ErrUnknownRecipient
	}
	if err != nil {
		return "", err
	}
	return account.ID, nil
}

// ListEntries returns the statement of an account, newest first.
func (uc *AccountUseCase) ListEntries(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.entryRepo.GetByAccount(ctx, accountID, limit, offset)
}

// ApplyDeltaInput describes one balance mutation.
type ApplyDeltaInput struct {
	AccountID string
	Delta     int64
	// MinBalance is the lowest balance the account may be left with.
	MinBalance int64
	// TransferID ties the mutation to one leg of a transfer. Repeating the
	// same leg returns the entry written the first time.
	TransferID string
	// Guard, when set, runs inside the mutation's transaction once the
	// account row is locked. An error aborts the mutation unchanged.
	Guard func(ctx context.Context, tx Transaction) error
}

// ApplyDelta atomically adds Delta to the balance and journals the change.
// The returned entry's BalanceAfter is the new balance.
func (uc *AccountUseCase) ApplyDelta(ctx context.Context, input ApplyDeltaInput) (*domain.Entry, error) {
	if input.Delta == 0 {
		return nil, domain.ErrInvalidAmount
	}

	var (
		entry     *domain.Entry
		corrupted bool
	)
	err := uc.retry(ctx, func() error {
		var err error
		entry, corrupted, err = uc.applyDelta(ctx, input)
		return err
	})

	if corrupted {
		uc.freeze(ctx, input.AccountID)
	}

	if uc.metrics != nil {
		uc.metrics.BalanceDeltas.WithLabelValues(deltaResult(err)).Inc()
	}

	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (uc *AccountUseCase) applyDelta(ctx context.Context, input ApplyDeltaInput) (*domain.Entry, bool, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, input.AccountID)
	if err != nil {
		return nil, false, err
	}

	if input.TransferID != "" {
		existing, err := uc.entryRepo.GetLeg(txCtx, tx, input.TransferID, input.AccountID, input.Delta < 0)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
	}

	if input.Guard != nil {
		if err := input.Guard(txCtx, tx); err != nil {
			return nil, false, err
		}
	}

	newBalance, err := account.ApplyDelta(input.Delta, input.MinBalance)
	if err != nil {
		return nil, errors.Is(err, domain.ErrAccountFrozen) && !account.Frozen, err
	}

	now := time.Now().UTC()
	version := account.Version + 1
	if err := uc.accountRepo.UpdateBalance(txCtx, tx, account.ID, newBalance, version, now); err != nil {
		return nil, false, err
	}

	entry := &domain.Entry{
		ID:             uc.idGen.Generate(),
		AccountID:      account.ID,
		TransferID:     input.TransferID,
		Amount:         input.Delta,
		BalanceBefore:  account.Balance,
		BalanceAfter:   newBalance,
		AccountVersion: version,
		CreatedAt:      now,
	}
	if err := uc.entryRepo.Create(txCtx, tx, entry); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, false, err
	}

	return entry, false, nil
}

// freeze runs after the mutating transaction has been rolled back so the
// account row is no longer locked.
func (uc *AccountUseCase) freeze(ctx context.Context, accountID string) {
	logger := zerolog.Ctx(ctx)
	logger.Error().
		Str("account_id", accountID).
		Msg("negative stored balance detected, freezing account")

	if err := uc.accountRepo.Freeze(context.WithoutCancel(ctx), accountID, time.Now().UTC()); err != nil {
		logger.Error().Err(err).Str("account_id", accountID).Msg("failed to freeze account")
		return
	}

	if uc.metrics != nil {
		uc.metrics.AccountsFrozen.Inc()
	}
}

func (uc *AccountUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}

func deltaResult(err error) string {
	switch {
	case err == nil:
		return "applied"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrAccountFrozen):
		return "frozen"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
