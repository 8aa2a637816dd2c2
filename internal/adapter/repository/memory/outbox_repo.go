package memory

import (
	"context"
	"maps"
	"time"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	s *Store
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{s: store}
}

// Create stages an event with the surrounding transaction.
func (r *OutboxRepository) Create(_ context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	row := cloneEvent(event)
	return tx.(*Tx).stage(func() {
		r.s.outboxMu.Lock()
		defer r.s.outboxMu.Unlock()
		r.s.outbox[row.ID] = row
		r.s.outboxOrder = append(r.s.outboxOrder, row.ID)
	})
}

// GetUnpublished returns unpublished events in creation order.
func (r *OutboxRepository) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.s.outboxMu.RLock()
	defer r.s.outboxMu.RUnlock()

	events := make([]*domain.OutboxEvent, 0)
	for _, id := range r.s.outboxOrder {
		if len(events) == limit {
			break
		}
		if e := r.s.outbox[id]; !e.Published {
			events = append(events, cloneEvent(e))
		}
	}
	return events, nil
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(_ context.Context, id string, publishedAt time.Time) error {
	r.s.outboxMu.Lock()
	defer r.s.outboxMu.Unlock()

	if e, ok := r.s.outbox[id]; ok {
		e.Published = true
		e.PublishedAt = &publishedAt
	}
	return nil
}

// DeletePublished removes events published before the cutoff.
func (r *OutboxRepository) DeletePublished(_ context.Context, before time.Time) error {
	r.s.outboxMu.Lock()
	defer r.s.outboxMu.Unlock()

	kept := r.s.outboxOrder[:0]
	for _, id := range r.s.outboxOrder {
		e := r.s.outbox[id]
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			delete(r.s.outbox, id)
			continue
		}
		kept = append(kept, id)
	}
	r.s.outboxOrder = kept
	return nil
}

func cloneEvent(e *domain.OutboxEvent) *domain.OutboxEvent {
	c := *e
	c.Payload = maps.Clone(e.Payload)
	return &c
}
