package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/adapter/http/middleware"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// TransferService defines the behavior needed by TransferHandler.
type TransferService interface {
	Transfer(ctx context.Context, input usecase.TransferInput) (*usecase.TransferResult, error)
	Deposit(ctx context.Context, input usecase.DepositInput) (*usecase.TransferResult, error)
	GetTransfer(ctx context.Context, id, accountID string) (*domain.Transfer, error)
	ListTransfers(ctx context.Context, input usecase.ListTransfersInput) ([]*domain.Transfer, error)
}

// TransferHandler handles transfer-related HTTP requests.
type TransferHandler struct {
	transferUC TransferService
	accounts   AccountLookup
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferUC TransferService, accounts AccountLookup) *TransferHandler {
	return &TransferHandler{transferUC: transferUC, accounts: accounts}
}

// Create moves money from the caller's account to a payment key.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, ok := callerAccount(w, r, h.accounts)
	if !ok {
		return
	}

	result, err := h.transferUC.Transfer(r.Context(), req.ToUseCaseInput(account.ID))
	writeTransferResult(w, result, err)
}

// Deposit credits an account from outside the ledger.
func (h *TransferHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.transferUC.Deposit(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id")))
	writeTransferResult(w, result, err)
}

// writeTransferResult answers 201 for new transfers, 200 for replays and
// 202 with the body when the credit leg was escalated.
func writeTransferResult(w http.ResponseWriter, result *usecase.TransferResult, err error) {
	if err != nil {
		if errors.Is(err, domain.ErrReconciliationPending) && result != nil && result.Transfer != nil {
			writeJSON(w, http.StatusAccepted, dto.TransferFromResult(result))
			return
		}
		writeDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		w.Header().Set(middleware.IdempotencyReplayHeader, "true")
		status = http.StatusOK
	}
	writeJSON(w, status, dto.TransferFromResult(result))
}

// Get retrieves a transfer the caller is a party to.
func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing_transfer_id", "")
		return
	}

	account, ok := callerAccount(w, r, h.accounts)
	if !ok {
		return
	}

	transfer, err := h.transferUC.GetTransfer(r.Context(), id, account.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(transfer))
}

// List lists the caller's transfers filtered by direction.
func (h *TransferHandler) List(w http.ResponseWriter, r *http.Request) {
	direction, err := domain.ParseDirection(r.URL.Query().Get("direction"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	account, ok := callerAccount(w, r, h.accounts)
	if !ok {
		return
	}

	limit, offset := pagination(r)

	transfers, err := h.transferUC.ListTransfers(r.Context(), usecase.ListTransfersInput{
		AccountID: account.ID,
		Direction: direction,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transfers": dto.TransfersFromDomain(transfers),
		"direction": direction,
		"limit":     limit,
		"offset":    offset,
	})
}
