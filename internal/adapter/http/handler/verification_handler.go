package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// VerificationService defines the behavior needed by VerificationHandler.
type VerificationService interface {
	Get(ctx context.Context, userID string) (*domain.VerificationRecord, error)
	Submit(ctx context.Context, userID string) (*domain.VerificationRecord, error)
	SetStatus(ctx context.Context, input usecase.SetStatusInput) (*domain.VerificationRecord, error)
	ListByStatus(ctx context.Context, status domain.VerificationStatus, limit int) ([]*domain.VerificationRecord, error)
}

// VerificationHandler handles identity verification requests.
type VerificationHandler struct {
	verificationUC VerificationService
}

// NewVerificationHandler creates a new VerificationHandler.
func NewVerificationHandler(verificationUC VerificationService) *VerificationHandler {
	return &VerificationHandler{verificationUC: verificationUC}
}

// Status returns the caller's verification record.
func (h *VerificationHandler) Status(w http.ResponseWriter, r *http.Request) {
	user, ok := callerFrom(w, r)
	if !ok {
		return
	}

	record, err := h.verificationUC.Get(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.VerificationFromDomain(record))
}

// Submit moves the caller into review.
func (h *VerificationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user, ok := callerFrom(w, r)
	if !ok {
		return
	}

	record, err := h.verificationUC.Submit(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.VerificationFromDomain(record))
}

// SetStatus records a reviewer decision for a user.
func (h *VerificationHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	reviewer, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req dto.SetVerificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	record, err := h.verificationUC.SetStatus(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "user_id"), reviewer.ID))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.VerificationFromDomain(record))
}

// Queue lists users awaiting a decision. The status query parameter
// defaults to in_review.
func (h *VerificationHandler) Queue(w http.ResponseWriter, r *http.Request) {
	status := domain.VerificationStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.VerificationInReview
	}
	limit, _ := pagination(r)

	records, err := h.verificationUC.ListByStatus(r.Context(), status, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]dto.VerificationResponse, 0, len(records))
	for _, record := range records {
		items = append(items, dto.VerificationFromDomain(record))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        status,
		"verifications": items,
		"limit":         limit,
	})
}
