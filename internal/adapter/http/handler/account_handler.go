package handler

import (
	"context"
	"net/http"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	AccountLookup
	OpenAccount(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error)
	ListEntries(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Open opens the caller's account.
func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	user, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req dto.OpenAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountUC.OpenAccount(r.Context(), req.ToUseCaseInput(user))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Me returns the caller's account and balance.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, ok := callerAccount(w, r, h.accountUC)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Entries returns the caller's statement, newest first.
func (h *AccountHandler) Entries(w http.ResponseWriter, r *http.Request) {
	account, ok := callerAccount(w, r, h.accountUC)
	if !ok {
		return
	}

	limit, offset := pagination(r)

	entries, err := h.accountUC.ListEntries(r.Context(), account.ID, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": dto.EntriesFromDomain(entries),
		"limit":   limit,
		"offset":  offset,
	})
}
