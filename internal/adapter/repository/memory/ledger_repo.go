package memory

import (
	"context"

	"github.com/iho/gobank/internal/domain"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	s *Store
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{s: store}
}

// Totals computes ledger-wide sums from a snapshot no commit can interleave with.
func (r *LedgerRepository) Totals(_ context.Context) (domain.LedgerTotals, error) {
	r.s.commitMu.Lock()
	defer r.s.commitMu.Unlock()

	var totals domain.LedgerTotals

	r.s.accountsMu.RLock()
	for _, a := range r.s.accounts {
		totals.Balances += a.Balance
		if a.Frozen {
			totals.FrozenAccounts++
		}
	}
	r.s.accountsMu.RUnlock()

	r.s.transfersMu.RLock()
	external := make(map[string]bool, len(r.s.transfers))
	for id, t := range r.s.transfers {
		external[id] = t.External()
	}
	r.s.transfersMu.RUnlock()

	type legs struct {
		debit  int64
		credit bool
	}
	byTransfer := make(map[string]*legs)

	r.s.entriesMu.RLock()
	for _, e := range r.s.entries {
		totals.EntrySum += e.Amount
		if e.TransferID == "" {
			continue
		}
		l, ok := byTransfer[e.TransferID]
		if !ok {
			l = &legs{}
			byTransfer[e.TransferID] = l
		}
		if e.IsDebit() {
			l.debit = -e.Amount
		} else {
			l.credit = true
			if external[e.TransferID] {
				totals.ExternalCredits += e.Amount
			}
		}
	}
	r.s.entriesMu.RUnlock()

	for _, l := range byTransfer {
		if l.debit > 0 && !l.credit {
			totals.InFlight += l.debit
		}
	}

	r.s.reconMu.RLock()
	for _, item := range r.s.reconItems {
		if item.Status == domain.ReconciliationOpen {
			totals.OpenItems++
		}
	}
	r.s.reconMu.RUnlock()

	return totals, nil
}
