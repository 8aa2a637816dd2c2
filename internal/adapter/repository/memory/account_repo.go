package memory

import (
	"context"
	"time"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	s *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{s: store}
}

// Create registers a new account. Owner and payment key are unique.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	mtx := tx.(*Tx)
	if err := mtx.lock(ctx, "owner:"+account.OwnerUserID); err != nil {
		return err
	}
	if err := mtx.lock(ctx, "paykey:"+account.PaymentKey); err != nil {
		return err
	}

	r.s.accountsMu.RLock()
	_, ownerTaken := r.s.byOwner[account.OwnerUserID]
	_, keyTaken := r.s.byKey[account.PaymentKey]
	r.s.accountsMu.RUnlock()

	if ownerTaken {
		return domain.ErrAccountExists
	}
	if keyTaken {
		return domain.ErrPaymentKeyTaken
	}

	row := cloneAccount(account)
	return mtx.stage(func() {
		r.s.accountsMu.Lock()
		defer r.s.accountsMu.Unlock()
		r.s.accounts[row.ID] = row
		r.s.byOwner[row.OwnerUserID] = row.ID
		r.s.byKey[row.PaymentKey] = row.ID
	})
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.s.accountsMu.RLock()
	defer r.s.accountsMu.RUnlock()

	account, ok := r.s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(account), nil
}

// GetByOwner retrieves the account of a user.
func (r *AccountRepository) GetByOwner(ctx context.Context, userID string) (*domain.Account, error) {
	r.s.accountsMu.RLock()
	id, ok := r.s.byOwner[userID]
	r.s.accountsMu.RUnlock()

	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return r.GetByID(ctx, id)
}

// GetByPaymentKey retrieves the account registered under a payment key.
func (r *AccountRepository) GetByPaymentKey(ctx context.Context, key string) (*domain.Account, error) {
	r.s.accountsMu.RLock()
	id, ok := r.s.byKey[key]
	r.s.accountsMu.RUnlock()

	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return r.GetByID(ctx, id)
}

// GetByIDForUpdate locks the account for the rest of the transaction.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := tx.(*Tx).lock(ctx, accountLock(id)); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// UpdateBalance stages a new balance and version.
func (r *AccountRepository) UpdateBalance(_ context.Context, tx usecase.Transaction, id string, balance, version int64, updatedAt time.Time) error {
	return tx.(*Tx).stage(func() {
		r.s.accountsMu.Lock()
		defer r.s.accountsMu.Unlock()
		if account, ok := r.s.accounts[id]; ok {
			account.Balance = balance
			account.Version = version
			account.UpdatedAt = updatedAt
		}
	})
}

// Freeze marks an account frozen outside of any transaction.
func (r *AccountRepository) Freeze(ctx context.Context, id string, updatedAt time.Time) error {
	key := accountLock(id)
	if err := r.s.locks.acquire(ctx, key, r.s.lockWait); err != nil {
		return err
	}
	defer r.s.locks.release(key)

	r.s.accountsMu.Lock()
	defer r.s.accountsMu.Unlock()

	account, ok := r.s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	account.Frozen = true
	account.UpdatedAt = updatedAt
	return nil
}

// Seed stores accounts as given, bypassing every invariant. It exists for
// fixtures and repair tooling.
func (s *Store) Seed(accounts ...*domain.Account) {
	s.accountsMu.Lock()
	defer s.accountsMu.Unlock()

	for _, account := range accounts {
		row := cloneAccount(account)
		s.accounts[row.ID] = row
		s.byOwner[row.OwnerUserID] = row.ID
		if row.PaymentKey != "" {
			s.byKey[row.PaymentKey] = row.ID
		}
	}
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	return &c
}
