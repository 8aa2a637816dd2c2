package domain

import "time"

// DefaultReceivableTTL is how long a receivable is advertised as payable.
const DefaultReceivableTTL = 24 * time.Hour

// Receivable is a published request for payment into an account.
// Expiry is advisory: payments to the key are accepted after it passes.
type Receivable struct {
	ID             string
	OwnerAccountID string
	PaymentKey     string
	MerchantName   string
	Amount         int64
	Description    string
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

// Expired reports whether the advisory window has passed.
func (r *Receivable) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// ReceivablePayload is the content encoded into the scannable code.
type ReceivablePayload struct {
	PaymentKey   string `json:"payment_key"`
	Amount       string `json:"amount"`
	Description  string `json:"description,omitempty"`
	MerchantName string `json:"merchant_name,omitempty"`
}
