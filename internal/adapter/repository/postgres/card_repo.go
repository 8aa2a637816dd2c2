package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

const cardColumns = `id, owner_user_id, holder_name, number, cvv_hash, expiry, status, daily_limit, monthly_limit, daily_spent, monthly_spent, period_anchor, blocked_at, cancelled_at, created_at, updated_at`

// CardRepository implements usecase.CardRepository.
type CardRepository struct {
	db DBTX
}

// NewCardRepository creates a new CardRepository.
func NewCardRepository(db DBTX) *CardRepository {
	return &CardRepository{db: db}
}

// Create inserts a card.
func (r *CardRepository) Create(ctx context.Context, tx usecase.Transaction, card *domain.Card) error {
	_, err := conn(tx).Exec(ctx, `
		INSERT INTO cards (`+cardColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		card.ID,
		card.OwnerUserID,
		card.HolderName,
		card.Number,
		card.CVVHash,
		card.Expiry,
		string(card.Status),
		card.DailyLimit,
		card.MonthlyLimit,
		card.DailySpent,
		card.MonthlySpent,
		card.PeriodAnchor,
		card.BlockedAt,
		card.CancelledAt,
		card.CreatedAt,
		card.UpdatedAt,
	)
	return err
}

// GetByID retrieves a card by ID.
func (r *CardRepository) GetByID(ctx context.Context, id string) (*domain.Card, error) {
	return scanCard(r.db.QueryRow(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = $1`, id))
}

// GetByIDForUpdate retrieves a card with a FOR UPDATE lock. Authorizations
// of one card serialize on this lock.
func (r *CardRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Card, error) {
	return scanCard(conn(tx).QueryRow(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = $1 FOR UPDATE`, id))
}

// ListByOwner returns the cards of a user, newest first.
func (r *CardRepository) ListByOwner(ctx context.Context, userID string) ([]*domain.Card, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+cardColumns+`
		FROM cards
		WHERE owner_user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := make([]*domain.Card, 0)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// Update persists status, limits and counters.
func (r *CardRepository) Update(ctx context.Context, tx usecase.Transaction, card *domain.Card) error {
	tag, err := conn(tx).Exec(ctx, `
		UPDATE cards
		SET status = $2, daily_limit = $3, monthly_limit = $4, daily_spent = $5, monthly_spent = $6,
		    period_anchor = $7, blocked_at = $8, cancelled_at = $9, updated_at = $10
		WHERE id = $1`,
		card.ID,
		string(card.Status),
		card.DailyLimit,
		card.MonthlyLimit,
		card.DailySpent,
		card.MonthlySpent,
		card.PeriodAnchor,
		card.BlockedAt,
		card.CancelledAt,
		card.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCardNotFound
	}
	return nil
}

func scanCard(row pgx.Row) (*domain.Card, error) {
	var (
		c      domain.Card
		status string
	)
	err := row.Scan(
		&c.ID,
		&c.OwnerUserID,
		&c.HolderName,
		&c.Number,
		&c.CVVHash,
		&c.Expiry,
		&status,
		&c.DailyLimit,
		&c.MonthlyLimit,
		&c.DailySpent,
		&c.MonthlySpent,
		&c.PeriodAnchor,
		&c.BlockedAt,
		&c.CancelledAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, domain.ErrCardNotFound)
	}
	c.Status = domain.CardStatus(status)
	c.PeriodAnchor = c.PeriodAnchor.UTC()
	return &c, nil
}

// CardTransactionRepository implements usecase.CardTransactionRepository.
type CardTransactionRepository struct {
	db DBTX
}

// NewCardTransactionRepository creates a new CardTransactionRepository.
func NewCardTransactionRepository(db DBTX) *CardTransactionRepository {
	return &CardTransactionRepository{db: db}
}

// Create inserts an authorization record.
func (r *CardTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.CardTransaction) error {
	_, err := conn(tx).Exec(ctx, `
		INSERT INTO card_transactions (id, card_id, amount, merchant_name, status, decline_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		txn.ID,
		txn.CardID,
		txn.Amount,
		txn.MerchantName,
		string(txn.Status),
		txn.DeclineReason,
		txn.CreatedAt,
	)
	return err
}

// ListByCard returns the authorization records of a card, newest first.
func (r *CardTransactionRepository) ListByCard(ctx context.Context, cardID string, limit int) ([]*domain.CardTransaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, card_id, amount, merchant_name, status, decline_reason, created_at
		FROM card_transactions
		WHERE card_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, cardID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]*domain.CardTransaction, 0)
	for rows.Next() {
		var (
			t      domain.CardTransaction
			status string
		)
		if err := rows.Scan(&t.ID, &t.CardID, &t.Amount, &t.MerchantName, &status, &t.DeclineReason, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Status = domain.CardTransactionStatus(status)
		history = append(history, &t)
	}
	return history, rows.Err()
}
