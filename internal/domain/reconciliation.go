package domain

import "time"

type ReconciliationStatus string

const (
	ReconciliationOpen     ReconciliationStatus = "open"
	ReconciliationResolved ReconciliationStatus = "resolved"
)

// ReconciliationItem is an operator-visible credit leg that could not be applied.
type ReconciliationItem struct {
	ID         string
	TransferID string
	AccountID  string
	Amount     int64
	Attempts   int
	LastError  string
	Status     ReconciliationStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ResolvedAt *time.Time
}

// RecordAttempt notes a failed retry.
func (i *ReconciliationItem) RecordAttempt(err error, now time.Time) {
	i.Attempts++
	if err != nil {
		i.LastError = err.Error()
	}
	i.UpdatedAt = now
}

// Resolve closes the item.
func (i *ReconciliationItem) Resolve(now time.Time) {
	i.Status = ReconciliationResolved
	i.ResolvedAt = &now
	i.UpdatedAt = now
}

// LedgerTotals summarises ledger-wide sums used to verify conservation.
type LedgerTotals struct {
	Balances        int64
	EntrySum        int64
	ExternalCredits int64
	InFlight        int64
	OpenItems       int
	FrozenAccounts  int
}

// Consistent reports whether balances match the journal and no money
// was created or destroyed.
func (t LedgerTotals) Consistent() bool {
	return t.Balances == t.EntrySum && t.Balances == t.ExternalCredits-t.InFlight
}
