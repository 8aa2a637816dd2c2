package memory

import (
	"context"
	"sort"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// CardRepository implements usecase.CardRepository.
type CardRepository struct {
	s *Store
}

// NewCardRepository creates a new CardRepository.
func NewCardRepository(store *Store) *CardRepository {
	return &CardRepository{s: store}
}

// Create stages a new card.
func (r *CardRepository) Create(_ context.Context, tx usecase.Transaction, card *domain.Card) error {
	row := cloneCard(card)
	return tx.(*Tx).stage(func() {
		r.s.cardsMu.Lock()
		defer r.s.cardsMu.Unlock()
		r.s.cards[row.ID] = row
	})
}

// GetByID retrieves a card by ID.
func (r *CardRepository) GetByID(_ context.Context, id string) (*domain.Card, error) {
	r.s.cardsMu.RLock()
	defer r.s.cardsMu.RUnlock()

	card, ok := r.s.cards[id]
	if !ok {
		return nil, domain.ErrCardNotFound
	}
	return cloneCard(card), nil
}

// GetByIDForUpdate locks the card for the rest of the transaction.
func (r *CardRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Card, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := tx.(*Tx).lock(ctx, cardLock(id)); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// ListByOwner returns the cards of a user, newest first.
func (r *CardRepository) ListByOwner(_ context.Context, userID string) ([]*domain.Card, error) {
	r.s.cardsMu.RLock()
	cards := make([]*domain.Card, 0)
	for _, c := range r.s.cards {
		if c.OwnerUserID == userID {
			cards = append(cards, cloneCard(c))
		}
	}
	r.s.cardsMu.RUnlock()

	sort.Slice(cards, func(i, j int) bool {
		if !cards[i].CreatedAt.Equal(cards[j].CreatedAt) {
			return cards[i].CreatedAt.After(cards[j].CreatedAt)
		}
		return cards[i].ID > cards[j].ID
	})
	return cards, nil
}

// Update stages the mutable fields of a card.
func (r *CardRepository) Update(_ context.Context, tx usecase.Transaction, card *domain.Card) error {
	row := cloneCard(card)
	return tx.(*Tx).stage(func() {
		r.s.cardsMu.Lock()
		defer r.s.cardsMu.Unlock()
		r.s.cards[row.ID] = row
	})
}

func cloneCard(c *domain.Card) *domain.Card {
	cp := *c
	return &cp
}

// CardTransactionRepository implements usecase.CardTransactionRepository.
type CardTransactionRepository struct {
	s *Store
}

// NewCardTransactionRepository creates a new CardTransactionRepository.
func NewCardTransactionRepository(store *Store) *CardTransactionRepository {
	return &CardTransactionRepository{s: store}
}

// Create stages an authorization record.
func (r *CardTransactionRepository) Create(_ context.Context, tx usecase.Transaction, txn *domain.CardTransaction) error {
	row := *txn
	return tx.(*Tx).stage(func() {
		r.s.cardsMu.Lock()
		defer r.s.cardsMu.Unlock()
		r.s.cardTxs[row.CardID] = append(r.s.cardTxs[row.CardID], &row)
	})
}

// ListByCard returns the authorization records of a card, newest first.
func (r *CardTransactionRepository) ListByCard(_ context.Context, cardID string, limit int) ([]*domain.CardTransaction, error) {
	r.s.cardsMu.RLock()
	defer r.s.cardsMu.RUnlock()

	history := r.s.cardTxs[cardID]
	out := make([]*domain.CardTransaction, 0, min(limit, len(history)))
	for i := len(history) - 1; i >= 0 && len(out) < limit; i-- {
		c := *history[i]
		out = append(out, &c)
	}
	return out, nil
}
