package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountExists     = errors.New("account already opened for user")
	ErrAccountFrozen     = errors.New("account is frozen pending manual reconciliation")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrPaymentKeyTaken   = errors.New("payment key already registered")
	ErrInvalidPaymentKey = errors.New("invalid payment key")
	ErrBalanceOverflow   = errors.New("balance overflow")

	// Transfer errors
	ErrTransferNotFound          = errors.New("transfer not found")
	ErrTransferNotPending        = errors.New("transfer is no longer pending")
	ErrUnknownRecipient          = errors.New("unknown recipient")
	ErrSelfTransfer              = errors.New("cannot transfer to own account")
	ErrInvalidAmount             = errors.New("amount must be positive and within the allowed ceiling")
	ErrInvalidIdempotencyKey     = errors.New("idempotency key is required")
	ErrDuplicateRequest          = errors.New("duplicate request")
	ErrReconciliationPending     = errors.New("credit leg escalated to reconciliation")
	ErrInvalidTransferTransition = errors.New("invalid transfer status transition")
	ErrInvalidDirection          = errors.New("direction must be sent, received or all")

	// Store contention
	ErrConflict = errors.New("too much contention, retry later")

	// Receivable errors
	ErrReceivableNotFound = errors.New("receivable not found")

	// Card errors
	ErrCardNotFound           = errors.New("card not found")
	ErrCardNotActive          = errors.New("card is not active")
	ErrInvalidCardTransition  = errors.New("invalid card status transition")
	ErrInvalidLimits          = errors.New("limits must be positive and daily must not exceed monthly")
	ErrDailyLimitExceeded     = errors.New("daily limit exceeded")
	ErrMonthlyLimitExceeded   = errors.New("monthly limit exceeded")
	ErrInvalidCardCredentials = errors.New("invalid card credentials")

	// Verification errors
	ErrVerificationRequired    = errors.New("identity verification approval required")
	ErrInvalidStatusTransition = errors.New("invalid verification status transition")
	ErrInvalidStatus           = errors.New("unknown verification status")

	// Caller errors
	ErrForbidden = errors.New("forbidden")
)
