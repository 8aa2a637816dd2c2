package memory

import (
	"context"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	s *Store
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{s: store}
}

// Create stages a journal entry. The caller holds the account lock.
func (r *EntryRepository) Create(_ context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	row := cloneEntry(entry)
	return tx.(*Tx).stage(func() {
		r.s.entriesMu.Lock()
		defer r.s.entriesMu.Unlock()
		r.s.entries = append(r.s.entries, row)
		if row.TransferID != "" {
			r.s.legs[legKey{transferID: row.TransferID, accountID: row.AccountID, debit: row.IsDebit()}] = row
		}
	})
}

// GetLeg returns the entry of one transfer leg, or nil if it was never applied.
func (r *EntryRepository) GetLeg(_ context.Context, _ usecase.Transaction, transferID, accountID string, debit bool) (*domain.Entry, error) {
	r.s.entriesMu.RLock()
	defer r.s.entriesMu.RUnlock()

	entry, ok := r.s.legs[legKey{transferID: transferID, accountID: accountID, debit: debit}]
	if !ok {
		return nil, nil
	}
	return cloneEntry(entry), nil
}

// GetByTransfer returns the entries written for a transfer.
func (r *EntryRepository) GetByTransfer(_ context.Context, transferID string) ([]*domain.Entry, error) {
	r.s.entriesMu.RLock()
	defer r.s.entriesMu.RUnlock()

	var entries []*domain.Entry
	for _, e := range r.s.entries {
		if e.TransferID == transferID {
			entries = append(entries, cloneEntry(e))
		}
	}
	return entries, nil
}

// GetByAccount returns the entries of an account, newest first.
func (r *EntryRepository) GetByAccount(_ context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	r.s.entriesMu.RLock()
	defer r.s.entriesMu.RUnlock()

	entries := make([]*domain.Entry, 0, limit)
	skipped := 0
	for i := len(r.s.entries) - 1; i >= 0 && len(entries) < limit; i-- {
		e := r.s.entries[i]
		if e.AccountID != accountID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		entries = append(entries, cloneEntry(e))
	}
	return entries, nil
}

func cloneEntry(e *domain.Entry) *domain.Entry {
	c := *e
	return &c
}
