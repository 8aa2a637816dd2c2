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

// ReconciliationUseCase drives parked and stale transfers to a final state
// and audits ledger-wide conservation.
type ReconciliationUseCase struct {
	transferStates

	entryRepo  EntryRepository
	ledgerRepo LedgerRepository
	accounts   AccountStore
	metrics    *metrics.Metrics
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	txManager TransactionManager,
	transferRepo TransferRepository,
	entryRepo EntryRepository,
	reconRepo ReconciliationRepository,
	ledgerRepo LedgerRepository,
	outboxRepo OutboxRepository,
	accounts AccountStore,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		transferStates: transferStates{
			txManager:    txManager,
			transferRepo: transferRepo,
			reconRepo:    reconRepo,
			outboxRepo:   outboxRepo,
			idGen:        idGen,
		},
		entryRepo:  entryRepo,
		ledgerRepo: ledgerRepo,
		accounts:   accounts,
		metrics:    metrics,
	}
}

// QueueReport summarizes one pass over the reconciliation queue.
type QueueReport struct {
	Processed int
	Resolved  int
	Remaining int
}

// ProcessQueue retries the credit leg of every open reconciliation item.
// Entries make the credit idempotent, so an item whose credit had in fact
// landed resolves without moving money twice.
func (uc *ReconciliationUseCase) ProcessQueue(ctx context.Context) (QueueReport, error) {
	var report QueueReport
	logger := zerolog.Ctx(ctx)

	items, err := uc.reconRepo.ListOpen(ctx, reconcileBatchSize)
	if err != nil {
		return report, err
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Processed++

		_, creditErr := uc.accounts.ApplyDelta(ctx, ApplyDeltaInput{
			AccountID:  item.AccountID,
			Delta:      item.Amount,
			TransferID: item.TransferID,
		})
		if creditErr != nil {
			if err := uc.recordAttempt(ctx, item, creditErr); err != nil {
				return report, err
			}
			logger.Warn().Err(creditErr).
				Str("reconciliation_id", item.ID).
				Str("transfer_id", item.TransferID).
				Int("attempts", item.Attempts).
				Msg("reconciliation credit failed")
			report.Remaining++
			continue
		}

		if _, err := uc.complete(ctx, item.TransferID, item); err != nil {
			return report, fmt.Errorf("complete transfer %s: %w", item.TransferID, err)
		}
		report.Resolved++

		if uc.metrics != nil {
			uc.metrics.ReconciliationResolved.Inc()
		}
	}

	if uc.metrics != nil {
		uc.metrics.ReconciliationOpen.Set(float64(report.Remaining))
	}

	return report, nil
}

func (uc *ReconciliationUseCase) recordAttempt(ctx context.Context, item *domain.ReconciliationItem, cause error) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	item.RecordAttempt(cause, time.Now().UTC())
	if err := uc.reconRepo.Update(txCtx, tx, item); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// RecoveryReport summarizes one stale transfer recovery pass.
type RecoveryReport struct {
	Cancelled int
	Completed int
	Escalated int
}

// RecoverStale settles pending transfers older than olderThan, typically
// left behind by a crash between steps. What happened is read from the
// entries: no debit means nothing moved and the transfer is cancelled,
// otherwise the credit is (re)applied and the transfer completed.
func (uc *ReconciliationUseCase) RecoverStale(ctx context.Context, olderThan time.Duration) (RecoveryReport, error) {
	var report RecoveryReport
	logger := zerolog.Ctx(ctx)

	cutoff := time.Now().UTC().Add(-olderThan)
	stale, err := uc.transferRepo.ListStale(ctx, domain.TransferStatusPending, cutoff, reconcileBatchSize)
	if err != nil {
		return report, err
	}

	for _, transfer := range stale {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outcome, err := uc.recover(ctx, transfer)
		if err != nil {
			logger.Error().Err(err).Str("transfer_id", transfer.ID).Msg("stale transfer recovery failed")
			continue
		}
		if outcome == "" {
			continue
		}

		switch outcome {
		case domain.TransferStatusCancelled:
			report.Cancelled++
		case domain.TransferStatusCompleted:
			report.Completed++
		case domain.TransferStatusReconciliationPending:
			report.Escalated++
		}
		if uc.metrics != nil {
			uc.metrics.TransfersRecovered.WithLabelValues(string(outcome)).Inc()
		}
	}

	return report, nil
}

func (uc *ReconciliationUseCase) recover(ctx context.Context, transfer *domain.Transfer) (domain.TransferStatus, error) {
	entries, err := uc.entryRepo.GetByTransfer(ctx, transfer.ID)
	if err != nil {
		return "", err
	}

	var debited, credited bool
	for _, e := range entries {
		if e.IsDebit() {
			debited = true
		} else {
			credited = true
		}
	}

	if !debited && !transfer.External() {
		cancelled, err := uc.cancelUndebited(ctx, transfer)
		switch {
		case errors.Is(err, errDebitLanded):
			// The debit committed while we looked; finish it instead.
		case errors.Is(err, domain.ErrTransferNotPending):
			return "", nil
		case err != nil:
			return "", err
		default:
			return cancelled.Status, nil
		}
	}

	if !credited {
		_, creditErr := uc.accounts.ApplyDelta(ctx, ApplyDeltaInput{
			AccountID:  transfer.ToAccountID,
			Delta:      transfer.Amount,
			TransferID: transfer.ID,
		})
		if creditErr != nil {
			if _, _, err := uc.escalate(ctx, transfer.ID, creditErr); err != nil {
				return "", err
			}
			return domain.TransferStatusReconciliationPending, nil
		}
	}

	if _, err := uc.complete(ctx, transfer.ID, nil); err != nil {
		return "", err
	}
	return domain.TransferStatusCompleted, nil
}

var errDebitLanded = errors.New("debit landed")

// cancelUndebited cancels a pending transfer whose debit never happened. It
// holds the transfer row lock, which a debit in progress also holds, and
// re-reads the debit leg under it.
func (uc *ReconciliationUseCase) cancelUndebited(ctx context.Context, transfer *domain.Transfer) (*domain.Transfer, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	locked, err := uc.transferRepo.GetByIDForUpdate(txCtx, tx, transfer.ID)
	if err != nil {
		return nil, err
	}
	if locked.Status != domain.TransferStatusPending {
		return nil, domain.ErrTransferNotPending
	}

	leg, err := uc.entryRepo.GetLeg(txCtx, tx, transfer.ID, transfer.FromAccountID, true)
	if err != nil {
		return nil, err
	}
	if leg != nil {
		return nil, errDebitLanded
	}

	if err := locked.Cancel("abandoned_before_debit", time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := uc.transferRepo.UpdateStatus(txCtx, tx, locked); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}
	return locked, nil
}

// CheckConsistency computes ledger-wide totals. The ledger is consistent
// when balances equal the entry journal and equal external credits minus
// money debited but not yet credited.
func (uc *ReconciliationUseCase) CheckConsistency(ctx context.Context) (domain.LedgerTotals, error) {
	totals, err := uc.ledgerRepo.Totals(ctx)
	if err != nil {
		return totals, err
	}

	if uc.metrics != nil {
		consistent := 0.0
		if totals.Consistent() {
			consistent = 1
		}
		uc.metrics.LedgerConsistent.Set(consistent)
		uc.metrics.ReconciliationOpen.Set(float64(totals.OpenItems))
	}

	if !totals.Consistent() {
		zerolog.Ctx(ctx).Error().
			Int64("balances", totals.Balances).
			Int64("entry_sum", totals.EntrySum).
			Int64("external_credits", totals.ExternalCredits).
			Int64("in_flight", totals.InFlight).
			Msg("ledger inconsistency detected")
	}

	return totals, nil
}

// ListOpen returns open reconciliation items.
func (uc *ReconciliationUseCase) ListOpen(ctx context.Context, limit int) ([]*domain.ReconciliationItem, error) {
	limit, _ = domain.ValidatePagination(limit, 0)
	return uc.reconRepo.ListOpen(ctx, limit)
}
