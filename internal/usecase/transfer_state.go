package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iho/gobank/internal/domain"
)

// transferStates persists transfer status changes together with the
// records that must accompany them.
type transferStates struct {
	txManager    TransactionManager
	transferRepo TransferRepository
	reconRepo    ReconciliationRepository
	outboxRepo   OutboxRepository
	idGen        IDGenerator
}

// complete marks the transfer completed and emits transfer.completed.
// A transfer that is already completed is returned unchanged. When item is
// set it is resolved in the same transaction.
func (s *transferStates) complete(ctx context.Context, transferID string, item *domain.ReconciliationItem) (*domain.Transfer, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := s.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	transfer, err := s.transferRepo.GetByIDForUpdate(txCtx, tx, transferID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	alreadyDone := transfer.Status == domain.TransferStatusCompleted

	if !alreadyDone {
		if err := transfer.Complete(now); err != nil {
			return nil, err
		}
		if err := s.transferRepo.UpdateStatus(txCtx, tx, transfer); err != nil {
			return nil, err
		}
		if err := s.outboxRepo.Create(txCtx, tx, domain.NewTransferCompletedEvent(s.idGen.Generate(), transfer)); err != nil {
			return nil, err
		}
	}

	if item != nil && item.Status == domain.ReconciliationOpen {
		item.Resolve(now)
		if err := s.reconRepo.Update(txCtx, tx, item); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return transfer, nil
}

// settle applies a terminal transition to a locked transfer.
func (s *transferStates) settle(ctx context.Context, transferID string, apply func(*domain.Transfer, time.Time) error) (*domain.Transfer, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := s.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	transfer, err := s.transferRepo.GetByIDForUpdate(txCtx, tx, transferID)
	if err != nil {
		return nil, err
	}

	if err := apply(transfer, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.transferRepo.UpdateStatus(txCtx, tx, transfer); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return transfer, nil
}

// stillPending is a debit guard: it locks the transfer row inside the debit
// transaction and refuses to move money for a transfer that stale recovery
// has already cancelled. Recovery takes the same row lock before cancelling.
func (s *transferStates) stillPending(transferID string) func(context.Context, Transaction) error {
	return func(ctx context.Context, tx Transaction) error {
		transfer, err := s.transferRepo.GetByIDForUpdate(ctx, tx, transferID)
		if err != nil {
			return err
		}
		if transfer.Status != domain.TransferStatusPending {
			return fmt.Errorf("%w: %s", domain.ErrTransferNotPending, transfer.Status)
		}
		return nil
	}
}

func (s *transferStates) fail(ctx context.Context, transferID, reason string) (*domain.Transfer, error) {
	return s.settle(ctx, transferID, func(t *domain.Transfer, now time.Time) error {
		return t.Fail(reason, now)
	})
}

// escalate parks a debited transfer whose credit could not be applied:
// the transfer becomes reconciliation_pending, a queue item is opened and
// transfer.reconciliation_pending is emitted atomically.
func (s *transferStates) escalate(ctx context.Context, transferID string, cause error) (*domain.Transfer, *domain.ReconciliationItem, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := s.txManager.Begin(txCtx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	transfer, err := s.transferRepo.GetByIDForUpdate(txCtx, tx, transferID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	if err := transfer.Escalate(failureReason(cause), now); err != nil {
		return nil, nil, err
	}
	if err := s.transferRepo.UpdateStatus(txCtx, tx, transfer); err != nil {
		return nil, nil, err
	}

	item := &domain.ReconciliationItem{
		ID:         s.idGen.Generate(),
		TransferID: transfer.ID,
		AccountID:  transfer.ToAccountID,
		Amount:     transfer.Amount,
		Status:     domain.ReconciliationOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	item.RecordAttempt(cause, now)
	if err := s.reconRepo.Create(txCtx, tx, item); err != nil {
		return nil, nil, err
	}

	if err := s.outboxRepo.Create(txCtx, tx, domain.NewTransferEscalatedEvent(s.idGen.Generate(), transfer, item)); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, nil, err
	}

	return transfer, item, nil
}

// failureReason turns an error into the short code stored on the transfer.
func failureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrAccountFrozen):
		return "account_frozen"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, domain.ErrBalanceOverflow):
		return "balance_overflow"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "credit_failed"
	}
}
