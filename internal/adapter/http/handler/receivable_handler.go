package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/usecase"
)

// ReceivableService defines the behavior needed by ReceivableHandler.
type ReceivableService interface {
	CreateReceivable(ctx context.Context, input usecase.CreateReceivableInput) (*usecase.ReceivableResult, error)
	GetReceivable(ctx context.Context, id, accountID string) (*usecase.ReceivableResult, error)
}

// ReceivableHandler handles QR receivable requests.
type ReceivableHandler struct {
	receivableUC ReceivableService
	accounts     AccountLookup
	now          func() time.Time
}

// NewReceivableHandler creates a new ReceivableHandler.
func NewReceivableHandler(receivableUC ReceivableService, accounts AccountLookup) *ReceivableHandler {
	return &ReceivableHandler{receivableUC: receivableUC, accounts: accounts, now: time.Now}
}

// Create issues a receivable against the caller's payment key.
func (h *ReceivableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateReceivableRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, ok := callerAccount(w, r, h.accounts)
	if !ok {
		return
	}

	result, err := h.receivableUC.CreateReceivable(r.Context(), req.ToUseCaseInput(account.ID))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ReceivableFromResult(result, h.now()))
}

// Get returns one of the caller's receivables.
func (h *ReceivableHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, ok := callerAccount(w, r, h.accounts)
	if !ok {
		return
	}

	result, err := h.receivableUC.GetReceivable(r.Context(), chi.URLParam(r, "id"), account.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReceivableFromResult(result, h.now()))
}
