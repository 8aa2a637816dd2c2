package handler

import (
	"context"
	"net/http"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
)

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	CheckConsistency(ctx context.Context) (domain.LedgerTotals, error)
	ListOpen(ctx context.Context, limit int) ([]*domain.ReconciliationItem, error)
}

// ReconciliationHandler exposes ledger-wide checks to operators.
type ReconciliationHandler struct {
	reconciliationUC ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconciliationUC ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliationUC: reconciliationUC}
}

// Consistency reports whether balances match the journal.
func (h *ReconciliationHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	totals, err := h.reconciliationUC.CheckConsistency(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyFromDomain(totals))
}

// Open lists credit legs waiting for reconciliation.
func (h *ReconciliationHandler) Open(w http.ResponseWriter, r *http.Request) {
	items, err := h.reconciliationUC.ListOpen(r.Context(), parseIntQuery(r, "limit", 100))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": dto.ReconciliationItemsFromDomain(items)})
}
