package usecase

import (
	"context"
	"time"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// VerificationUseCase holds the identity-verification status of users.
type VerificationUseCase struct {
	txManager  TransactionManager
	repo       VerificationRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	metrics    *metrics.Metrics
}

// NewVerificationUseCase creates a new VerificationUseCase.
func NewVerificationUseCase(
	txManager TransactionManager,
	repo VerificationRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *VerificationUseCase {
	return &VerificationUseCase{
		txManager:  txManager,
		repo:       repo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		metrics:    metrics,
	}
}

// Status returns the verification status of a user. Users never reviewed are pending.
func (uc *VerificationUseCase) Status(ctx context.Context, userID string) (domain.VerificationStatus, error) {
	record, err := uc.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return record.Status, nil
}

// Get returns the full verification record of a user.
func (uc *VerificationUseCase) Get(ctx context.Context, userID string) (*domain.VerificationRecord, error) {
	record, err := uc.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return domain.NewVerificationRecord(userID), nil
	}
	return record, nil
}

// ListByStatus returns the records waiting in status, longest waiting
// first. Pending users have no stored record, so pending is rejected.
func (uc *VerificationUseCase) ListByStatus(ctx context.Context, status domain.VerificationStatus, limit int) ([]*domain.VerificationRecord, error) {
	if _, err := domain.ParseVerificationStatus(string(status)); err != nil || status == domain.VerificationPending {
		return nil, domain.ErrInvalidStatus
	}
	limit, _ = domain.ValidatePagination(limit, 0)
	return uc.repo.ListByStatus(ctx, status, limit)
}

// SetStatusInput represents a reviewer decision.
type SetStatusInput struct {
	UserID     string
	Status     domain.VerificationStatus
	ReviewerID string
	Notes      string
}

// SetStatus records a reviewer decision.
func (uc *VerificationUseCase) SetStatus(ctx context.Context, input SetStatusInput) (*domain.VerificationRecord, error) {
	if _, err := domain.ParseVerificationStatus(string(input.Status)); err != nil {
		return nil, err
	}
	return uc.transition(ctx, input.UserID, input.Status, input.ReviewerID, input.Notes)
}

// Submit puts the caller's documents up for review. A rejected user may resubmit.
func (uc *VerificationUseCase) Submit(ctx context.Context, userID string) (*domain.VerificationRecord, error) {
	return uc.transition(ctx, userID, domain.VerificationInReview, "", "")
}

func (uc *VerificationUseCase) transition(ctx context.Context, userID string, next domain.VerificationStatus, reviewerID, notes string) (*domain.VerificationRecord, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	record, err := uc.Get(txCtx, userID)
	if err != nil {
		return nil, err
	}

	previous := record.Status
	now := time.Now().UTC()
	changed, err := record.Transition(next, reviewerID, notes, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return record, nil
	}

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.repo.Upsert(txCtx, tx, record, previous); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   userID,
		AggregateType: domain.AggregateTypeVerification,
		EventType:     domain.EventTypeVerificationUpdated,
		Payload: map[string]any{
			"user_id":     userID,
			"status":      string(record.Status),
			"reviewer_id": reviewerID,
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
		uc.metrics.VerificationUpdates.WithLabelValues(string(record.Status)).Inc()
	}

	return record, nil
}
