package postgres

import (
	"context"

	"github.com/iho/gobank/internal/domain"
)

// A single statement reads from one snapshot, so the totals are mutually consistent.
const ledgerTotalsQuery = `
SELECT
	(SELECT COALESCE(SUM(balance), 0) FROM accounts)::BIGINT,
	(SELECT COALESCE(SUM(amount), 0) FROM entries)::BIGINT,
	(SELECT COALESCE(SUM(e.amount), 0)
	   FROM entries e
	   JOIN transfers t ON t.id = e.transfer_id
	  WHERE t.from_account_id = '' AND e.amount > 0)::BIGINT,
	(SELECT COALESCE(SUM(-d.amount), 0)
	   FROM entries d
	  WHERE d.amount < 0 AND d.transfer_id <> ''
	    AND NOT EXISTS (
	        SELECT 1 FROM entries c
	         WHERE c.transfer_id = d.transfer_id AND c.amount > 0))::BIGINT,
	(SELECT COUNT(*) FROM reconciliation_items WHERE status = 'open'),
	(SELECT COUNT(*) FROM accounts WHERE frozen)`

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	db DBTX
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Totals computes ledger-wide sums.
func (r *LedgerRepository) Totals(ctx context.Context) (domain.LedgerTotals, error) {
	var (
		totals      domain.LedgerTotals
		openItems   int64
		frozenCount int64
	)
	err := r.db.QueryRow(ctx, ledgerTotalsQuery).Scan(
		&totals.Balances,
		&totals.EntrySum,
		&totals.ExternalCredits,
		&totals.InFlight,
		&openItems,
		&frozenCount,
	)
	if err != nil {
		return domain.LedgerTotals{}, err
	}
	totals.OpenItems = int(openItems)
	totals.FrozenAccounts = int(frozenCount)
	return totals, nil
}
