// Package reconciler runs the periodic ledger repair loop.
package reconciler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// Reconciler is the part of usecase.ReconciliationUseCase the worker drives.
type Reconciler interface {
	RecoverStale(ctx context.Context, olderThan time.Duration) (usecase.RecoveryReport, error)
	ProcessQueue(ctx context.Context) (usecase.QueueReport, error)
	CheckConsistency(ctx context.Context) (domain.LedgerTotals, error)
}

// Worker periodically recovers stale transfers, drains the reconciliation
// queue and checks ledger consistency.
type Worker struct {
	reconciler Reconciler
	interval   time.Duration
	staleAfter time.Duration
	logger     zerolog.Logger
}

// NewWorker creates a Worker.
func NewWorker(r Reconciler, interval, staleAfter time.Duration, logger zerolog.Logger) *Worker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if staleAfter <= 0 {
		staleAfter = 5 * time.Minute
	}
	return &Worker{
		reconciler: r,
		interval:   interval,
		staleAfter: staleAfter,
		logger:     logger.With().Str("component", "reconciler").Logger(),
	}
}

// Start runs until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info().
		Dur("interval", w.interval).
		Dur("stale_after", w.staleAfter).
		Msg("reconciler started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("reconciler shutting down")
			return ctx.Err()
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single pass. Failures are logged and the next pass retries.
func (w *Worker) RunOnce(ctx context.Context) {
	ctx = w.logger.WithContext(ctx)

	recovered, err := w.reconciler.RecoverStale(ctx, w.staleAfter)
	if err != nil {
		w.logger.Error().Err(err).Msg("stale transfer recovery failed")
	} else if recovered != (usecase.RecoveryReport{}) {
		w.logger.Info().
			Int("cancelled", recovered.Cancelled).
			Int("completed", recovered.Completed).
			Int("escalated", recovered.Escalated).
			Msg("recovered stale transfers")
	}

	queue, err := w.reconciler.ProcessQueue(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("reconciliation queue failed")
	} else if queue.Processed > 0 {
		w.logger.Info().
			Int("processed", queue.Processed).
			Int("resolved", queue.Resolved).
			Int("remaining", queue.Remaining).
			Msg("processed reconciliation queue")
	}

	totals, err := w.reconciler.CheckConsistency(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("consistency check failed")
		return
	}
	if !totals.Consistent() {
		w.logger.Error().
			Int64("balances", totals.Balances).
			Int64("entry_sum", totals.EntrySum).
			Int64("external_credits", totals.ExternalCredits).
			Int64("in_flight", totals.InFlight).
			Msg("ledger inconsistent")
	}
}
