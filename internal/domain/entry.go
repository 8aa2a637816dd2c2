package domain

import "time"

// Entry records a single balance change of one account.
type Entry struct {
	ID             string
	AccountID      string
	TransferID     string
	Amount         int64
	BalanceBefore  int64
	BalanceAfter   int64
	AccountVersion int64
	CreatedAt      time.Time
}

// IsDebit reports whether the entry decreased the balance.
func (e *Entry) IsDebit() bool {
	return e.Amount < 0
}
