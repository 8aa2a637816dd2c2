package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iho/gobank/internal/domain"
)

// ReceivableUseCase issues payable requests bound to an account's payment key.
type ReceivableUseCase struct {
	accountRepo    AccountRepository
	receivableRepo ReceivableRepository
	encoder        PayloadEncoder
	idGen          IDGenerator
	ttl            time.Duration
	maxAmount      int64
}

// NewReceivableUseCase creates a new ReceivableUseCase.
func NewReceivableUseCase(
	accountRepo AccountRepository,
	receivableRepo ReceivableRepository,
	encoder PayloadEncoder,
	idGen IDGenerator,
	ttl time.Duration,
	maxAmount int64,
) *ReceivableUseCase {
	if ttl <= 0 {
		ttl = domain.DefaultReceivableTTL
	}
	if maxAmount <= 0 {
		maxAmount = DefaultMaxTransferAmount
	}
	return &ReceivableUseCase{
		accountRepo:    accountRepo,
		receivableRepo: receivableRepo,
		encoder:        encoder,
		idGen:          idGen,
		ttl:            ttl,
		maxAmount:      maxAmount,
	}
}

// CreateReceivableInput represents input for issuing a receivable.
type CreateReceivableInput struct {
	AccountID   string
	Amount      int64
	Description string
}

// ReceivableResult is a receivable with its rendered payload.
type ReceivableResult struct {
	Receivable     *domain.Receivable
	EncodedPayload string
	// QRCode is a base64 PNG of EncodedPayload.
	QRCode string
}

// CreateReceivable issues a receivable that expires after the configured TTL.
func (uc *ReceivableUseCase) CreateReceivable(ctx context.Context, input CreateReceivableInput) (*ReceivableResult, error) {
	if err := domain.ValidateAmount(input.Amount, uc.maxAmount); err != nil {
		return nil, err
	}
	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetByID(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	receivable := &domain.Receivable{
		ID:             uc.idGen.Generate(),
		OwnerAccountID: account.ID,
		PaymentKey:     account.PaymentKey,
		MerchantName:   merchantName(account.OwnerName),
		Amount:         input.Amount,
		Description:    input.Description,
		ExpiresAt:      now.Add(uc.ttl),
		CreatedAt:      now,
	}

	result, err := uc.render(receivable)
	if err != nil {
		return nil, err
	}

	if err := uc.receivableRepo.Create(ctx, receivable); err != nil {
		return nil, err
	}

	return result, nil
}

// GetReceivable returns a receivable owned by accountID.
func (uc *ReceivableUseCase) GetReceivable(ctx context.Context, id, accountID string) (*ReceivableResult, error) {
	receivable, err := uc.receivableRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if receivable.OwnerAccountID != accountID {
		return nil, domain.ErrReceivableNotFound
	}
	return uc.render(receivable)
}

func (uc *ReceivableUseCase) render(receivable *domain.Receivable) (*ReceivableResult, error) {
	payload, err := json.Marshal(domain.ReceivablePayload{
		PaymentKey:   receivable.PaymentKey,
		Amount:       domain.FormatAmount(receivable.Amount),
		Description:  receivable.Description,
		MerchantName: receivable.MerchantName,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal receivable payload: %w", err)
	}

	result := &ReceivableResult{
		Receivable:     receivable,
		EncodedPayload: string(payload),
	}

	if uc.encoder != nil {
		image, err := uc.encoder.Encode(payload)
		if err != nil {
			return nil, fmt.Errorf("encode receivable payload: %w", err)
		}
		result.QRCode = image
	}

	return result, nil
}

func merchantName(ownerName string) string {
	return domain.TruncateRunes(ownerName, domain.MaxMerchantLength)
}
