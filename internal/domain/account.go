package domain

import (
	"math"
	"time"
)

// PaymentKeyType is the kind of key an account is reachable by.
type PaymentKeyType string

const (
	PaymentKeyEmail  PaymentKeyType = "email"
	PaymentKeyPhone  PaymentKeyType = "phone"
	PaymentKeyCPF    PaymentKeyType = "cpf"
	PaymentKeyRandom PaymentKeyType = "random"
)

// Valid reports whether t is a known key type.
func (t PaymentKeyType) Valid() bool {
	switch t {
	case PaymentKeyEmail, PaymentKeyPhone, PaymentKeyCPF, PaymentKeyRandom:
		return true
	}
	return false
}

// Account holds one user's spendable balance in minor units.
type Account struct {
	ID             string
	OwnerUserID    string
	OwnerName      string
	PaymentKey     string
	PaymentKeyType PaymentKeyType
	Balance        int64
	Version        int64
	Frozen         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Corrupted reports whether the stored balance violates the non-negative invariant.
func (a *Account) Corrupted() bool {
	return a.Balance < 0
}

// ApplyDelta returns the balance after adding delta, or an error if the
// result would fall below minBalance. The account itself is not modified.
func (a *Account) ApplyDelta(delta, minBalance int64) (int64, error) {
	if a.Frozen || a.Corrupted() {
		return 0, ErrAccountFrozen
	}

	if delta > 0 && a.Balance > math.MaxInt64-delta {
		return 0, ErrBalanceOverflow
	}

	newBalance := a.Balance + delta
	if newBalance < minBalance {
		return 0, ErrInsufficientFunds
	}

	return newBalance, nil
}
