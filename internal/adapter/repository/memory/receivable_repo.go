package memory

import (
	"context"

	"github.com/iho/gobank/internal/domain"
)

// ReceivableRepository implements usecase.ReceivableRepository.
type ReceivableRepository struct {
	s *Store
}

// NewReceivableRepository creates a new ReceivableRepository.
func NewReceivableRepository(store *Store) *ReceivableRepository {
	return &ReceivableRepository{s: store}
}

// Create stores a receivable.
func (r *ReceivableRepository) Create(_ context.Context, receivable *domain.Receivable) error {
	row := *receivable

	r.s.receivablesMu.Lock()
	defer r.s.receivablesMu.Unlock()
	r.s.receivables[row.ID] = &row
	return nil
}

// GetByID retrieves a receivable by ID.
func (r *ReceivableRepository) GetByID(_ context.Context, id string) (*domain.Receivable, error) {
	r.s.receivablesMu.RLock()
	defer r.s.receivablesMu.RUnlock()

	receivable, ok := r.s.receivables[id]
	if !ok {
		return nil, domain.ErrReceivableNotFound
	}
	c := *receivable
	return &c, nil
}
