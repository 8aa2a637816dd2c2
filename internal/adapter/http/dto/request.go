package dto

import (
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// OpenAccountRequest represents a request to open the caller's account.
type OpenAccountRequest struct {
	OwnerName  string `json:"owner_name,omitempty"`
	KeyType    string `json:"key_type,omitempty"`
	PaymentKey string `json:"payment_key,omitempty"`
}

// ToUseCaseInput converts to use case input for the caller.
func (r *OpenAccountRequest) ToUseCaseInput(caller *domain.User) usecase.OpenAccountInput {
	name := r.OwnerName
	if name == "" {
		name = caller.Name
	}
	return usecase.OpenAccountInput{
		UserID:     caller.ID,
		OwnerName:  name,
		Email:      caller.Email,
		KeyType:    domain.PaymentKeyType(r.KeyType),
		PaymentKey: r.PaymentKey,
	}
}

// DepositRequest represents an operator credit from outside the ledger.
type DepositRequest struct {
	Amount         Amount `json:"amount"`
	Description    string `json:"description,omitempty"`
	IdempotencyKey string `json:"idempotency_key"`
}

// ToUseCaseInput converts to use case input.
func (r *DepositRequest) ToUseCaseInput(accountID string) usecase.DepositInput {
	return usecase.DepositInput{
		AccountID:      accountID,
		Amount:         r.Amount.Minor(),
		Description:    r.Description,
		IdempotencyKey: r.IdempotencyKey,
	}
}

// CreateTransferRequest represents a request to move money to a payment key.
type CreateTransferRequest struct {
	ToKey          string `json:"to_key"`
	Amount         Amount `json:"amount"`
	Description    string `json:"description,omitempty"`
	IdempotencyKey string `json:"idempotency_key"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput(fromAccountID string) usecase.TransferInput {
	return usecase.TransferInput{
		FromAccountID:  fromAccountID,
		To:             r.ToKey,
		Amount:         r.Amount.Minor(),
		Description:    r.Description,
		IdempotencyKey: r.IdempotencyKey,
	}
}

// CreateReceivableRequest represents a request for a payable QR.
type CreateReceivableRequest struct {
	Amount      Amount `json:"amount"`
	Description string `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateReceivableRequest) ToUseCaseInput(accountID string) usecase.CreateReceivableInput {
	return usecase.CreateReceivableInput{
		AccountID:   accountID,
		Amount:      r.Amount.Minor(),
		Description: r.Description,
	}
}

// CreateCardRequest represents a card issuance request. Zero limits take
// the configured defaults.
type CreateCardRequest struct {
	HolderName   string `json:"holder_name"`
	DailyLimit   Amount `json:"daily_limit,omitempty"`
	MonthlyLimit Amount `json:"monthly_limit,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateCardRequest) ToUseCaseInput(userID string) usecase.CreateCardInput {
	return usecase.CreateCardInput{
		UserID:       userID,
		HolderName:   r.HolderName,
		DailyLimit:   r.DailyLimit.Minor(),
		MonthlyLimit: r.MonthlyLimit.Minor(),
	}
}

// UpdateLimitsRequest replaces both card limits.
type UpdateLimitsRequest struct {
	DailyLimit   Amount `json:"daily_limit"`
	MonthlyLimit Amount `json:"monthly_limit"`
}

// AuthorizeRequest represents a card spend submitted by an acquirer.
type AuthorizeRequest struct {
	Amount       Amount `json:"amount"`
	MerchantName string `json:"merchant_name,omitempty"`
	CVV          string `json:"cvv,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *AuthorizeRequest) ToUseCaseInput(cardID string) usecase.AuthorizeInput {
	return usecase.AuthorizeInput{
		CardID:       cardID,
		Amount:       r.Amount.Minor(),
		MerchantName: r.MerchantName,
		CVV:          r.CVV,
	}
}

// SetVerificationRequest records a reviewer decision.
type SetVerificationRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *SetVerificationRequest) ToUseCaseInput(userID, reviewerID string) usecase.SetStatusInput {
	return usecase.SetStatusInput{
		UserID:     userID,
		Status:     domain.VerificationStatus(r.Status),
		ReviewerID: reviewerID,
		Notes:      r.Notes,
	}
}
