package memory

import (
	"context"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// ReconciliationRepository implements usecase.ReconciliationRepository.
type ReconciliationRepository struct {
	s *Store
}

// NewReconciliationRepository creates a new ReconciliationRepository.
func NewReconciliationRepository(store *Store) *ReconciliationRepository {
	return &ReconciliationRepository{s: store}
}

// Create stages a queue item.
func (r *ReconciliationRepository) Create(_ context.Context, tx usecase.Transaction, item *domain.ReconciliationItem) error {
	row := *item
	return tx.(*Tx).stage(func() {
		r.s.reconMu.Lock()
		defer r.s.reconMu.Unlock()
		r.s.reconItems[row.ID] = &row
		r.s.reconOrder = append(r.s.reconOrder, row.ID)
	})
}

// ListOpen returns open items, oldest first.
func (r *ReconciliationRepository) ListOpen(_ context.Context, limit int) ([]*domain.ReconciliationItem, error) {
	r.s.reconMu.RLock()
	defer r.s.reconMu.RUnlock()

	items := make([]*domain.ReconciliationItem, 0)
	for _, id := range r.s.reconOrder {
		if len(items) == limit {
			break
		}
		item := r.s.reconItems[id]
		if item.Status != domain.ReconciliationOpen {
			continue
		}
		c := *item
		items = append(items, &c)
	}
	return items, nil
}

// Update stages the new state of an item.
func (r *ReconciliationRepository) Update(ctx context.Context, tx usecase.Transaction, item *domain.ReconciliationItem) error {
	mtx := tx.(*Tx)
	if err := mtx.lock(ctx, reconLock(item.ID)); err != nil {
		return err
	}

	row := *item
	return mtx.stage(func() {
		r.s.reconMu.Lock()
		defer r.s.reconMu.Unlock()
		r.s.reconItems[row.ID] = &row
	})
}
