package dto

import (
	"time"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID             string    `json:"id"`
	OwnerUserID    string    `json:"owner_user_id"`
	OwnerName      string    `json:"owner_name"`
	PaymentKey     string    `json:"payment_key"`
	PaymentKeyType string    `json:"payment_key_type"`
	Balance        Amount    `json:"balance"`
	Frozen         bool      `json:"frozen,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AccountFromDomain converts a domain account to response.
func AccountFromDomain(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:             a.ID,
		OwnerUserID:    a.OwnerUserID,
		OwnerName:      a.OwnerName,
		PaymentKey:     a.PaymentKey,
		PaymentKeyType: string(a.PaymentKeyType),
		Balance:        Amount(a.Balance),
		Frozen:         a.Frozen,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// EntryResponse represents a statement line.
type EntryResponse struct {
	ID            string    `json:"id"`
	TransferID    string    `json:"transfer_id,omitempty"`
	Amount        Amount    `json:"amount"`
	BalanceBefore Amount    `json:"balance_before"`
	BalanceAfter  Amount    `json:"balance_after"`
	CreatedAt     time.Time `json:"created_at"`
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []EntryResponse {
	result := make([]EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryResponse{
			ID:            e.ID,
			TransferID:    e.TransferID,
			Amount:        Amount(e.Amount),
			BalanceBefore: Amount(e.BalanceBefore),
			BalanceAfter:  Amount(e.BalanceAfter),
			CreatedAt:     e.CreatedAt,
		}
	}
	return result
}

// TransferResponse represents a transfer in API responses.
type TransferResponse struct {
	TransferID     string     `json:"transfer_id"`
	FromAccountID  string     `json:"from_account_id,omitempty"`
	ToAccountID    string     `json:"to_account_id"`
	Amount         Amount     `json:"amount"`
	Description    string     `json:"description,omitempty"`
	Status         string     `json:"status"`
	FailureReason  string     `json:"failure_reason,omitempty"`
	IdempotencyKey string     `json:"idempotency_key"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	Replayed       bool       `json:"replayed,omitempty"`
}

// TransferFromDomain converts a domain transfer to response.
func TransferFromDomain(t *domain.Transfer) TransferResponse {
	return TransferResponse{
		TransferID:     t.ID,
		FromAccountID:  t.FromAccountID,
		ToAccountID:    t.ToAccountID,
		Amount:         Amount(t.Amount),
		Description:    t.Description,
		Status:         string(t.Status),
		FailureReason:  t.FailureReason,
		IdempotencyKey: t.IdempotencyKey,
		CreatedAt:      t.CreatedAt,
		CompletedAt:    t.CompletedAt,
	}
}

// TransferFromResult converts a transfer outcome to response.
func TransferFromResult(r *usecase.TransferResult) TransferResponse {
	resp := TransferFromDomain(r.Transfer)
	resp.Replayed = r.Replayed
	return resp
}

// TransfersFromDomain converts domain transfers to responses.
func TransfersFromDomain(transfers []*domain.Transfer) []TransferResponse {
	result := make([]TransferResponse, len(transfers))
	for i, t := range transfers {
		result[i] = TransferFromDomain(t)
	}
	return result
}

// ReceivableResponse represents a receivable and its QR rendering.
type ReceivableResponse struct {
	ReceivableID   string    `json:"receivable_id"`
	PaymentKey     string    `json:"payment_key"`
	MerchantName   string    `json:"merchant_name,omitempty"`
	Amount         Amount    `json:"amount"`
	Description    string    `json:"description,omitempty"`
	EncodedPayload string    `json:"encoded_payload"`
	QRCode         string    `json:"qr_code,omitempty"`
	ExpiresAt      time.Time `json:"expires_at"`
	Expired        bool      `json:"expired"`
	CreatedAt      time.Time `json:"created_at"`
}

// ReceivableFromResult converts a receivable result to response.
func ReceivableFromResult(r *usecase.ReceivableResult, now time.Time) ReceivableResponse {
	rec := r.Receivable
	return ReceivableResponse{
		ReceivableID:   rec.ID,
		PaymentKey:     rec.PaymentKey,
		MerchantName:   rec.MerchantName,
		Amount:         Amount(rec.Amount),
		Description:    rec.Description,
		EncodedPayload: r.EncodedPayload,
		QRCode:         r.QRCode,
		ExpiresAt:      rec.ExpiresAt,
		Expired:        rec.Expired(now),
		CreatedAt:      rec.CreatedAt,
	}
}

// CardResponse represents a card. The number is masked.
type CardResponse struct {
	ID               string     `json:"id"`
	HolderName       string     `json:"holder_name"`
	Number           string     `json:"number"`
	Expiry           string     `json:"expiry"`
	Status           string     `json:"status"`
	DailyLimit       Amount     `json:"daily_limit"`
	MonthlyLimit     Amount     `json:"monthly_limit"`
	DailySpent       Amount     `json:"daily_spent"`
	MonthlySpent     Amount     `json:"monthly_spent"`
	DailyRemaining   Amount     `json:"daily_remaining"`
	MonthlyRemaining Amount     `json:"monthly_remaining"`
	BlockedAt        *time.Time `json:"blocked_at,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// CardFromDomain converts a domain card to response.
func CardFromDomain(c *domain.Card) CardResponse {
	return CardResponse{
		ID:               c.ID,
		HolderName:       c.HolderName,
		Number:           c.MaskedNumber(),
		Expiry:           c.Expiry,
		Status:           string(c.Status),
		DailyLimit:       Amount(c.DailyLimit),
		MonthlyLimit:     Amount(c.MonthlyLimit),
		DailySpent:       Amount(c.DailySpent),
		MonthlySpent:     Amount(c.MonthlySpent),
		DailyRemaining:   Amount(c.DailyRemaining()),
		MonthlyRemaining: Amount(c.MonthlyRemaining()),
		BlockedAt:        c.BlockedAt,
		CancelledAt:      c.CancelledAt,
		CreatedAt:        c.CreatedAt,
	}
}

// CardsFromDomain converts domain cards to responses.
func CardsFromDomain(cards []*domain.Card) []CardResponse {
	result := make([]CardResponse, len(cards))
	for i, c := range cards {
		result[i] = CardFromDomain(c)
	}
	return result
}

// IssuedCardResponse is returned once, at issuance, with the full secrets.
type IssuedCardResponse struct {
	CardResponse
	FullNumber string `json:"full_number"`
	CVV        string `json:"cvv"`
}

// IssuedCardFromDomain converts a freshly issued card to response.
func IssuedCardFromDomain(issued *usecase.IssuedCard) IssuedCardResponse {
	return IssuedCardResponse{
		CardResponse: CardFromDomain(issued.Card),
		FullNumber:   issued.Card.Number,
		CVV:          issued.CVV,
	}
}

// CardTransactionResponse represents an authorization record.
type CardTransactionResponse struct {
	ID            string    `json:"id"`
	CardID        string    `json:"card_id"`
	Amount        Amount    `json:"amount"`
	MerchantName  string    `json:"merchant_name,omitempty"`
	Status        string    `json:"status"`
	DeclineReason string    `json:"decline_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// CardTransactionFromDomain converts an authorization record to response.
func CardTransactionFromDomain(t *domain.CardTransaction) CardTransactionResponse {
	return CardTransactionResponse{
		ID:            t.ID,
		CardID:        t.CardID,
		Amount:        Amount(t.Amount),
		MerchantName:  t.MerchantName,
		Status:        string(t.Status),
		DeclineReason: t.DeclineReason,
		CreatedAt:     t.CreatedAt,
	}
}

// CardTransactionsFromDomain converts authorization records to responses.
func CardTransactionsFromDomain(txns []*domain.CardTransaction) []CardTransactionResponse {
	result := make([]CardTransactionResponse, len(txns))
	for i, t := range txns {
		result[i] = CardTransactionFromDomain(t)
	}
	return result
}

// VerificationResponse represents a verification record.
type VerificationResponse struct {
	UserID     string     `json:"user_id"`
	Status     string     `json:"status"`
	Notes      string     `json:"notes,omitempty"`
	ReviewerID string     `json:"reviewer_id,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// VerificationFromDomain converts a verification record to response.
func VerificationFromDomain(r *domain.VerificationRecord) VerificationResponse {
	resp := VerificationResponse{
		UserID:     r.UserID,
		Status:     string(r.Status),
		Notes:      r.Notes,
		ReviewerID: r.ReviewerID,
	}
	if !r.UpdatedAt.IsZero() {
		updated := r.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

// ConsistencyResponse reports the ledger-wide totals.
type ConsistencyResponse struct {
	Consistent      bool   `json:"consistent"`
	Balances        Amount `json:"balances"`
	EntrySum        Amount `json:"entry_sum"`
	ExternalCredits Amount `json:"external_credits"`
	InFlight        Amount `json:"in_flight"`
	OpenItems       int    `json:"open_reconciliation_items"`
	FrozenAccounts  int    `json:"frozen_accounts"`
}

// ConsistencyFromDomain converts ledger totals to response.
func ConsistencyFromDomain(t domain.LedgerTotals) ConsistencyResponse {
	return ConsistencyResponse{
		Consistent:      t.Consistent(),
		Balances:        Amount(t.Balances),
		EntrySum:        Amount(t.EntrySum),
		ExternalCredits: Amount(t.ExternalCredits),
		InFlight:        Amount(t.InFlight),
		OpenItems:       t.OpenItems,
		FrozenAccounts:  t.FrozenAccounts,
	}
}

// ReconciliationItemResponse represents a parked credit leg.
type ReconciliationItemResponse struct {
	ID         string    `json:"id"`
	TransferID string    `json:"transfer_id"`
	AccountID  string    `json:"account_id"`
	Amount     Amount    `json:"amount"`
	Attempts   int       `json:"attempts"`
	LastError  string    `json:"last_error,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReconciliationItemsFromDomain converts queue items to responses.
func ReconciliationItemsFromDomain(items []*domain.ReconciliationItem) []ReconciliationItemResponse {
	result := make([]ReconciliationItemResponse, len(items))
	for i, it := range items {
		result[i] = ReconciliationItemResponse{
			ID:         it.ID,
			TransferID: it.TransferID,
			AccountID:  it.AccountID,
			Amount:     Amount(it.Amount),
			Attempts:   it.Attempts,
			LastError:  it.LastError,
			Status:     string(it.Status),
			CreatedAt:  it.CreatedAt,
		}
	}
	return result
}
