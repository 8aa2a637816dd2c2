package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// TransferRepository implements usecase.TransferRepository.
type TransferRepository struct {
	s *Store
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(store *Store) *TransferRepository {
	return &TransferRepository{s: store}
}

// Create stages a transfer. The (source, idempotency key) pair is unique.
func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	key := idemKey(transfer.FromAccountID, transfer.IdempotencyKey)

	mtx := tx.(*Tx)
	if err := mtx.lock(ctx, "idempotency:"+key); err != nil {
		return err
	}

	r.s.transfersMu.RLock()
	_, taken := r.s.byIdemKey[key]
	r.s.transfersMu.RUnlock()
	if taken {
		return domain.ErrDuplicateRequest
	}

	row := cloneTransfer(transfer)
	return mtx.stage(func() {
		seq := r.s.nextSeq()
		r.s.transfersMu.Lock()
		defer r.s.transfersMu.Unlock()
		r.s.transfers[row.ID] = row
		r.s.transferSeq[row.ID] = seq
		r.s.byIdemKey[key] = row.ID
	})
}

// GetByID retrieves a transfer by ID.
func (r *TransferRepository) GetByID(_ context.Context, id string) (*domain.Transfer, error) {
	r.s.transfersMu.RLock()
	defer r.s.transfersMu.RUnlock()

	transfer, ok := r.s.transfers[id]
	if !ok {
		return nil, domain.ErrTransferNotFound
	}
	return cloneTransfer(transfer), nil
}

// GetByIDForUpdate locks the transfer for the rest of the transaction.
func (r *TransferRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transfer, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := tx.(*Tx).lock(ctx, transferLock(id)); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// GetByIdempotencyKey retrieves the transfer a source created with key.
func (r *TransferRepository) GetByIdempotencyKey(ctx context.Context, fromAccountID, key string) (*domain.Transfer, error) {
	r.s.transfersMu.RLock()
	id, ok := r.s.byIdemKey[idemKey(fromAccountID, key)]
	r.s.transfersMu.RUnlock()

	if !ok {
		return nil, domain.ErrTransferNotFound
	}
	return r.GetByID(ctx, id)
}

// UpdateStatus stages the status fields of a transfer.
func (r *TransferRepository) UpdateStatus(_ context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	row := cloneTransfer(transfer)
	return tx.(*Tx).stage(func() {
		r.s.transfersMu.Lock()
		defer r.s.transfersMu.Unlock()
		if current, ok := r.s.transfers[row.ID]; ok {
			current.Status = row.Status
			current.FailureReason = row.FailureReason
			current.UpdatedAt = row.UpdatedAt
			current.CompletedAt = row.CompletedAt
		}
	})
}

// ListByAccount returns transfers touching an account, newest first.
func (r *TransferRepository) ListByAccount(_ context.Context, accountID string, direction domain.Direction, limit, offset int) ([]*domain.Transfer, error) {
	r.s.transfersMu.RLock()
	matched := make([]*domain.Transfer, 0)
	for _, t := range r.s.transfers {
		sent := t.FromAccountID == accountID
		received := t.ToAccountID == accountID
		switch direction {
		case domain.DirectionSent:
			if !sent {
				continue
			}
		case domain.DirectionReceived:
			if !received {
				continue
			}
		default:
			if !sent && !received {
				continue
			}
		}
		matched = append(matched, cloneTransfer(t))
	}
	seq := make(map[string]int64, len(matched))
	for _, t := range matched {
		seq[t.ID] = r.s.transferSeq[t.ID]
	}
	r.s.transfersMu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return seq[matched[i].ID] > seq[matched[j].ID]
	})

	return page(matched, limit, offset), nil
}

// ListStale returns transfers in status created before the cutoff, oldest first.
func (r *TransferRepository) ListStale(_ context.Context, status domain.TransferStatus, before time.Time, limit int) ([]*domain.Transfer, error) {
	r.s.transfersMu.RLock()
	stale := make([]*domain.Transfer, 0)
	for _, t := range r.s.transfers {
		if t.Status == status && t.CreatedAt.Before(before) {
			stale = append(stale, cloneTransfer(t))
		}
	}
	r.s.transfersMu.RUnlock()

	sort.Slice(stale, func(i, j int) bool {
		return stale[i].CreatedAt.Before(stale[j].CreatedAt)
	})

	return page(stale, limit, 0), nil
}

func cloneTransfer(t *domain.Transfer) *domain.Transfer {
	c := *t
	return &c
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
