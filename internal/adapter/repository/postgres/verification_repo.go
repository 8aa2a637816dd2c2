package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// VerificationRepository implements usecase.VerificationRepository.
type VerificationRepository struct {
	db DBTX
}

// NewVerificationRepository creates a new VerificationRepository.
func NewVerificationRepository(db DBTX) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// Get returns (nil, nil) when the user has never been reviewed.
func (r *VerificationRepository) Get(ctx context.Context, userID string) (*domain.VerificationRecord, error) {
	var (
		rec    domain.VerificationRecord
		status string
	)
	err := r.db.QueryRow(ctx, `
		SELECT user_id, status, notes, reviewer_id, updated_at
		FROM verifications
		WHERE user_id = $1`, userID,
	).Scan(&rec.UserID, &status, &rec.Notes, &rec.ReviewerID, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.Status = domain.VerificationStatus(status)
	return &rec, nil
}

// Upsert stores record if the stored status still equals previous. A
// missing row counts as pending.
func (r *VerificationRepository) Upsert(ctx context.Context, tx usecase.Transaction, record *domain.VerificationRecord, previous domain.VerificationStatus) error {
	args := []any{
		record.UserID,
		string(record.Status),
		record.Notes,
		record.ReviewerID,
		record.UpdatedAt,
		string(previous),
	}

	query := `
		UPDATE verifications
		SET status = $2, notes = $3, reviewer_id = $4, updated_at = $5
		WHERE user_id = $1 AND status = $6`
	if previous == domain.VerificationPending {
		query = `
		INSERT INTO verifications (user_id, status, notes, reviewer_id, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET status = EXCLUDED.status, notes = EXCLUDED.notes,
		    reviewer_id = EXCLUDED.reviewer_id, updated_at = EXCLUDED.updated_at
		WHERE verifications.status = $6`
	}

	tag, err := conn(tx).Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// ListByStatus returns records in status, oldest update first.
func (r *VerificationRepository) ListByStatus(ctx context.Context, status domain.VerificationStatus, limit int) ([]*domain.VerificationRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, status, notes, reviewer_id, updated_at
		FROM verifications
		WHERE status = $1
		ORDER BY updated_at, user_id
		LIMIT $2`, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*domain.VerificationRecord, 0)
	for rows.Next() {
		var (
			rec domain.VerificationRecord
			st  string
		)
		if err := rows.Scan(&rec.UserID, &st, &rec.Notes, &rec.ReviewerID, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		rec.Status = domain.VerificationStatus(st)
		records = append(records, &rec)
	}
	return records, rows.Err()
}
