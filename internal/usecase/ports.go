package usecase

//go:generate mockgen -source=ports.go -destination=mocks/mock_ports.go -package=mocks

import (
	"context"

	"github.com/iho/gobank/internal/domain"
)

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// KeyGenerator generates random payment keys.
type KeyGenerator interface {
	NewKey() string
}

// Retrier runs an operation under a bounded retry policy.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// AccountStore is the balance primitive transfers are built on.
type AccountStore interface {
	GetBalance(ctx context.Context, accountID string) (int64, error)
	ApplyDelta(ctx context.Context, input ApplyDeltaInput) (*domain.Entry, error)
}

// KeyResolver maps a payment key to the account registered under it.
type KeyResolver interface {
	ResolveKey(ctx context.Context, paymentKey string) (string, error)
}

// VerificationGate reports the identity-verification status of a user.
type VerificationGate interface {
	Status(ctx context.Context, userID string) (domain.VerificationStatus, error)
}

// PayloadEncoder renders a receivable payload into a scannable image.
type PayloadEncoder interface {
	// Encode returns the image as a base64 string.
	Encode(payload []byte) (string, error)
}

// CardCredentials produces and checks card secrets.
type CardCredentials interface {
	NewNumber() (string, error)
	NewCVV() (string, error)
	HashCVV(cvv string) (string, error)
	VerifyCVV(hash, cvv string) bool
}
