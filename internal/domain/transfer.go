package domain

import "time"

// TransferStatus is the lifecycle state of a transfer.
type TransferStatus string

const (
	TransferStatusPending               TransferStatus = "pending"
	TransferStatusCompleted             TransferStatus = "completed"
	TransferStatusFailed                TransferStatus = "failed"
	TransferStatusCancelled             TransferStatus = "cancelled"
	TransferStatusReconciliationPending TransferStatus = "reconciliation_pending"
)

// transferTransitions lists the statuses reachable from each status.
var transferTransitions = map[TransferStatus][]TransferStatus{
	TransferStatusPending: {
		TransferStatusCompleted,
		TransferStatusFailed,
		TransferStatusCancelled,
		TransferStatusReconciliationPending,
	},
	TransferStatusReconciliationPending: {TransferStatusCompleted},
}

// Valid reports whether s is a known status.
func (s TransferStatus) Valid() bool {
	switch s {
	case TransferStatusPending, TransferStatusCompleted, TransferStatusFailed,
		TransferStatusCancelled, TransferStatusReconciliationPending:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s TransferStatus) Terminal() bool {
	return len(transferTransitions[s]) == 0
}

// CanTransitionTo reports whether the move from s to next is allowed.
func (s TransferStatus) CanTransitionTo(next TransferStatus) bool {
	for _, allowed := range transferTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Direction filters transfer history relative to one account.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
	DirectionAll      Direction = "all"
)

// ParseDirection parses a direction, defaulting to all.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case "":
		return DirectionAll, nil
	case DirectionSent, DirectionReceived, DirectionAll:
		return Direction(s), nil
	}
	return "", ErrInvalidDirection
}

// Transfer is an append-only record of money moved into an account.
// FromAccountID is empty for externally originated credits.
type Transfer struct {
	ID             string
	FromAccountID  string
	ToAccountID    string
	Amount         int64
	Description    string
	Status         TransferStatus
	IdempotencyKey string
	FailureReason  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

// External reports whether the transfer credits money from outside the ledger.
func (t *Transfer) External() bool {
	return t.FromAccountID == ""
}

// Involves reports whether accountID is the source or destination.
func (t *Transfer) Involves(accountID string) bool {
	return t.FromAccountID == accountID || t.ToAccountID == accountID
}

// Validate checks a new transfer before it is persisted.
func (t *Transfer) Validate() error {
	if t.FromAccountID != "" && t.FromAccountID == t.ToAccountID {
		return ErrSelfTransfer
	}

	if t.Amount <= 0 {
		return ErrInvalidAmount
	}

	if t.IdempotencyKey == "" {
		return ErrInvalidIdempotencyKey
	}

	return nil
}

func (t *Transfer) transition(next TransferStatus, now time.Time) error {
	if !t.Status.CanTransitionTo(next) {
		return ErrInvalidTransferTransition
	}
	t.Status = next
	t.UpdatedAt = now
	return nil
}

// Complete marks the transfer completed once both legs are applied.
func (t *Transfer) Complete(now time.Time) error {
	if err := t.transition(TransferStatusCompleted, now); err != nil {
		return err
	}
	t.CompletedAt = &now
	t.FailureReason = ""
	return nil
}

// Fail marks the transfer failed before any money moved.
func (t *Transfer) Fail(reason string, now time.Time) error {
	if err := t.transition(TransferStatusFailed, now); err != nil {
		return err
	}
	t.FailureReason = reason
	return nil
}

// Cancel abandons a transfer whose debit was never applied.
func (t *Transfer) Cancel(reason string, now time.Time) error {
	if err := t.transition(TransferStatusCancelled, now); err != nil {
		return err
	}
	t.FailureReason = reason
	return nil
}

// Escalate parks a debited transfer until its credit is reconciled.
func (t *Transfer) Escalate(reason string, now time.Time) error {
	if err := t.transition(TransferStatusReconciliationPending, now); err != nil {
		return err
	}
	t.FailureReason = reason
	return nil
}
