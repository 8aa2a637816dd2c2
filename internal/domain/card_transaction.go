package domain

import "time"

type CardTransactionStatus string

const (
	CardTransactionApproved CardTransactionStatus = "approved"
	CardTransactionDeclined CardTransactionStatus = "declined"
)

// CardTransaction records one authorization attempt against a card.
type CardTransaction struct {
	ID            string
	CardID        string
	Amount        int64
	MerchantName  string
	Status        CardTransactionStatus
	DeclineReason string
	CreatedAt     time.Time
}
