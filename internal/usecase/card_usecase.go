package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// CardLimits are the limits given to a card when the request omits them.
type CardLimits struct {
	Daily   int64
	Monthly int64
}

// CardUseCase manages virtual cards and enforces their spend quotas.
type CardUseCase struct {
	txManager  TransactionManager
	cardRepo   CardRepository
	cardTxRepo CardTransactionRepository
	outboxRepo OutboxRepository
	gate       VerificationGate
	creds      CardCredentials
	idGen      IDGenerator
	metrics    *metrics.Metrics
	defaults   CardLimits
}

// NewCardUseCase creates a new CardUseCase.
func NewCardUseCase(
	txManager TransactionManager,
	cardRepo CardRepository,
	cardTxRepo CardTransactionRepository,
	outboxRepo OutboxRepository,
	gate VerificationGate,
	creds CardCredentials,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	defaults CardLimits,
) *CardUseCase {
	if defaults.Daily <= 0 {
		defaults.Daily = domain.DefaultCardDailyLimit
	}
	if defaults.Monthly <= 0 {
		defaults.Monthly = domain.DefaultCardMonthlyLimit
	}
	return &CardUseCase{
		txManager:  txManager,
		cardRepo:   cardRepo,
		cardTxRepo: cardTxRepo,
		outboxRepo: outboxRepo,
		gate:       gate,
		creds:      creds,
		idGen:      idGen,
		metrics:    metrics,
		defaults:   defaults,
	}
}

// CreateCardInput represents input for issuing a card.
type CreateCardInput struct {
	UserID       string
	HolderName   string
	DailyLimit   int64
	MonthlyLimit int64
}

// IssuedCard carries the secrets that are shown only once, at issuance.
type IssuedCard struct {
	Card *domain.Card
	CVV  string
}

// CreateCard issues a card to a verified user.
func (uc *CardUseCase) CreateCard(ctx context.Context, input CreateCardInput) (*IssuedCard, error) {
	status, err := uc.gate.Status(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if status != domain.VerificationApproved {
		return nil, domain.ErrVerificationRequired
	}

	holder := strings.ToUpper(strings.TrimSpace(input.HolderName))
	if err := domain.ValidateHolderName(holder); err != nil {
		return nil, err
	}

	daily, monthly := input.DailyLimit, input.MonthlyLimit
	if daily == 0 {
		daily = uc.defaults.Daily
	}
	if monthly == 0 {
		monthly = uc.defaults.Monthly
	}
	if err := domain.ValidateLimits(daily, monthly); err != nil {
		return nil, err
	}

	number, err := uc.creds.NewNumber()
	if err != nil {
		return nil, fmt.Errorf("generate card number: %w", err)
	}
	cvv, err := uc.creds.NewCVV()
	if err != nil {
		return nil, fmt.Errorf("generate cvv: %w", err)
	}
	cvvHash, err := uc.creds.HashCVV(cvv)
	if err != nil {
		return nil, fmt.Errorf("hash cvv: %w", err)
	}

	now := time.Now().UTC()
	card := &domain.Card{
		ID:           uc.idGen.Generate(),
		OwnerUserID:  input.UserID,
		HolderName:   holder,
		Number:       number,
		CVVHash:      cvvHash,
		Expiry:       domain.ExpiryFrom(now),
		Status:       domain.CardStatusActive,
		DailyLimit:   daily,
		MonthlyLimit: monthly,
		PeriodAnchor: domain.PeriodStart(now),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.cardRepo.Create(txCtx, tx, card); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   card.ID,
		AggregateType: domain.AggregateTypeCard,
		EventType:     domain.EventTypeCardIssued,
		Payload: map[string]any{
			"card_id":       card.ID,
			"owner_user_id": card.OwnerUserID,
			"last4":         card.Last4(),
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.CardsIssued.Inc()
	}

	return &IssuedCard{Card: card, CVV: cvv}, nil
}

// GetCard returns a card owned by userID.
func (uc *CardUseCase) GetCard(ctx context.Context, userID, cardID string) (*domain.Card, error) {
	card, err := uc.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.OwnerUserID != userID {
		return nil, domain.ErrCardNotFound
	}
	return card, nil
}

// ListCards returns the cards of a user.
func (uc *CardUseCase) ListCards(ctx context.Context, userID string) ([]*domain.Card, error) {
	return uc.cardRepo.ListByOwner(ctx, userID)
}

// BlockCard blocks an active card. Blocking a blocked card succeeds.
func (uc *CardUseCase) BlockCard(ctx context.Context, userID, cardID string) (*domain.Card, error) {
	return uc.mutate(ctx, userID, cardID, func(c *domain.Card, now time.Time) error {
		return c.Block(now)
	})
}

// UnblockCard reactivates a blocked card.
func (uc *CardUseCase) UnblockCard(ctx context.Context, userID, cardID string) (*domain.Card, error) {
	return uc.mutate(ctx, userID, cardID, func(c *domain.Card, now time.Time) error {
		return c.Unblock(now)
	})
}

// CancelCard terminates a card for good.
func (uc *CardUseCase) CancelCard(ctx context.Context, userID, cardID string) (*domain.Card, error) {
	return uc.mutate(ctx, userID, cardID, func(c *domain.Card, now time.Time) error {
		return c.Cancel(now)
	})
}

// UpdateLimits replaces the daily and monthly limits of a card.
func (uc *CardUseCase) UpdateLimits(ctx context.Context, userID, cardID string, daily, monthly int64) (*domain.Card, error) {
	return uc.mutate(ctx, userID, cardID, func(c *domain.Card, now time.Time) error {
		return c.SetLimits(daily, monthly, now)
	})
}

func (uc *CardUseCase) mutate(ctx context.Context, userID, cardID string, apply func(*domain.Card, time.Time) error) (*domain.Card, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	card, err := uc.cardRepo.GetByIDForUpdate(txCtx, tx, cardID)
	if err != nil {
		return nil, err
	}
	if card.OwnerUserID != userID {
		return nil, domain.ErrCardNotFound
	}

	before := *card
	now := time.Now().UTC()
	if err := apply(card, now); err != nil {
		return nil, err
	}
	if card.UpdatedAt.Equal(before.UpdatedAt) {
		return card, nil
	}

	if err := uc.cardRepo.Update(txCtx, tx, card); err != nil {
		return nil, err
	}

	if card.Status != before.Status {
		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   card.ID,
			AggregateType: domain.AggregateTypeCard,
			EventType:     domain.EventTypeCardStatusChanged,
			Payload: map[string]any{
				"card_id": card.ID,
				"from":    string(before.Status),
				"to":      string(card.Status),
			},
			CreatedAt: now,
		}
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil && card.Status != before.Status {
		uc.metrics.CardStatusChanges.WithLabelValues(string(card.Status)).Inc()
	}

	return card, nil
}

// AuthorizeInput represents a spend authorization request from an acquirer.
type AuthorizeInput struct {
	CardID       string
	Amount       int64
	MerchantName string
	// CVV is checked when present.
	CVV string
}

// AuthorizeSpend checks a spend against the card's quotas and, if it fits,
// consumes it. Authorizations of one card are serialized by the card lock.
// Every attempt on an existing card is recorded; a declined attempt is
// returned together with the decline error.
func (uc *CardUseCase) AuthorizeSpend(ctx context.Context, input AuthorizeInput) (*domain.CardTransaction, error) {
	if input.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	merchant := domain.TruncateRunes(input.MerchantName, domain.MaxMerchantLength)

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	card, err := uc.cardRepo.GetByIDForUpdate(txCtx, tx, input.CardID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	before := *card

	var decision error
	if input.CVV != "" && !uc.creds.VerifyCVV(card.CVVHash, input.CVV) {
		decision = domain.ErrInvalidCardCredentials
	} else {
		decision = card.Authorize(input.Amount, now)
	}

	record := &domain.CardTransaction{
		ID:           uc.idGen.Generate(),
		CardID:       card.ID,
		Amount:       input.Amount,
		MerchantName: merchant,
		Status:       domain.CardTransactionApproved,
		CreatedAt:    now,
	}
	if decision != nil {
		record.Status = domain.CardTransactionDeclined
		record.DeclineReason = declineReason(decision)
	}

	// A declined attempt may still have rolled the counters over.
	if decision == nil || !card.PeriodAnchor.Equal(before.PeriodAnchor) {
		if err := uc.cardRepo.Update(txCtx, tx, card); err != nil {
			return nil, err
		}
	}

	if err := uc.cardTxRepo.Create(txCtx, tx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.CardAuthorizations.WithLabelValues(authorizationResult(decision)).Inc()
	}

	return record, decision
}

// ListCardTransactions returns the authorization history of a card owned by userID.
func (uc *CardUseCase) ListCardTransactions(ctx context.Context, userID, cardID string, limit int) ([]*domain.CardTransaction, error) {
	if _, err := uc.GetCard(ctx, userID, cardID); err != nil {
		return nil, err
	}
	limit, _ = domain.ValidatePagination(limit, 0)
	return uc.cardTxRepo.ListByCard(ctx, cardID, limit)
}

func declineReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrCardNotActive):
		return "card_not_active"
	case errors.Is(err, domain.ErrDailyLimitExceeded):
		return "daily_limit_exceeded"
	case errors.Is(err, domain.ErrMonthlyLimitExceeded):
		return "monthly_limit_exceeded"
	case errors.Is(err, domain.ErrInvalidCardCredentials):
		return "invalid_credentials"
	default:
		return "declined"
	}
}

func authorizationResult(err error) string {
	if err == nil {
		return "approved"
	}
	return declineReason(err)
}
