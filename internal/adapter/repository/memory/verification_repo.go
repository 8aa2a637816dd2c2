package memory

import (
	"context"
	"sort"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// VerificationRepository implements usecase.VerificationRepository.
type VerificationRepository struct {
	s *Store
}

// NewVerificationRepository creates a new VerificationRepository.
func NewVerificationRepository(store *Store) *VerificationRepository {
	return &VerificationRepository{s: store}
}

// Get returns the record of a user, or nil if the user was never reviewed.
func (r *VerificationRepository) Get(_ context.Context, userID string) (*domain.VerificationRecord, error) {
	r.s.verificationsMu.RLock()
	defer r.s.verificationsMu.RUnlock()

	record, ok := r.s.verifications[userID]
	if !ok {
		return nil, nil
	}
	c := *record
	return &c, nil
}

// Upsert stages record if the stored status still equals previous.
func (r *VerificationRepository) Upsert(ctx context.Context, tx usecase.Transaction, record *domain.VerificationRecord, previous domain.VerificationStatus) error {
	mtx := tx.(*Tx)
	if err := mtx.lock(ctx, verificationLock(record.UserID)); err != nil {
		return err
	}

	current, err := r.Get(ctx, record.UserID)
	if err != nil {
		return err
	}
	stored := domain.VerificationPending
	if current != nil {
		stored = current.Status
	}
	if stored != previous {
		return domain.ErrConflict
	}

	row := *record
	return mtx.stage(func() {
		r.s.verificationsMu.Lock()
		defer r.s.verificationsMu.Unlock()
		r.s.verifications[row.UserID] = &row
	})
}

// ListByStatus returns records in status ordered by UpdatedAt, then user.
func (r *VerificationRepository) ListByStatus(_ context.Context, status domain.VerificationStatus, limit int) ([]*domain.VerificationRecord, error) {
	r.s.verificationsMu.RLock()
	records := make([]*domain.VerificationRecord, 0)
	for _, record := range r.s.verifications {
		if record.Status != status {
			continue
		}
		c := *record
		records = append(records, &c)
	}
	r.s.verificationsMu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if !records[i].UpdatedAt.Equal(records[j].UpdatedAt) {
			return records[i].UpdatedAt.Before(records[j].UpdatedAt)
		}
		return records[i].UserID < records[j].UserID
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
