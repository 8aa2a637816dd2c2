package domain

import "time"

// Event types
const (
	EventTypeTransferCompleted             = "transfer.completed"
	EventTypeTransferReconciliationPending = "transfer.reconciliation_pending"
	EventTypeAccountOpened                 = "account.opened"
	EventTypeCardIssued                    = "card.issued"
	EventTypeCardStatusChanged             = "card.status_changed"
	EventTypeVerificationUpdated           = "verification.updated"
)

// Aggregate types
const (
	AggregateTypeTransfer     = "transfer"
	AggregateTypeAccount      = "account"
	AggregateTypeCard         = "card"
	AggregateTypeVerification = "verification"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewTransferCompletedEvent builds the notification emitted once a transfer completes.
func NewTransferCompletedEvent(id string, t *Transfer) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   t.ID,
		AggregateType: AggregateTypeTransfer,
		EventType:     EventTypeTransferCompleted,
		Payload: map[string]any{
			"transfer_id":     t.ID,
			"from_account_id": t.FromAccountID,
			"to_account_id":   t.ToAccountID,
			"amount":          FormatAmount(t.Amount),
			"amount_minor":    t.Amount,
			"description":     t.Description,
			"external":        t.External(),
			"completed_at":    t.CompletedAt,
		},
		CreatedAt: *t.CompletedAt,
	}
}

// NewTransferEscalatedEvent builds the operator notification for a parked credit.
func NewTransferEscalatedEvent(id string, t *Transfer, item *ReconciliationItem) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   t.ID,
		AggregateType: AggregateTypeTransfer,
		EventType:     EventTypeTransferReconciliationPending,
		Payload: map[string]any{
			"transfer_id":       t.ID,
			"reconciliation_id": item.ID,
			"to_account_id":     t.ToAccountID,
			"amount":            FormatAmount(t.Amount),
			"reason":            t.FailureReason,
		},
		CreatedAt: item.CreatedAt,
	}
}
