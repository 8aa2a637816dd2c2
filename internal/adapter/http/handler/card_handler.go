package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// CardService defines the behavior needed by CardHandler.
type CardService interface {
	CreateCard(ctx context.Context, input usecase.CreateCardInput) (*usecase.IssuedCard, error)
	GetCard(ctx context.Context, userID, cardID string) (*domain.Card, error)
	ListCards(ctx context.Context, userID string) ([]*domain.Card, error)
	BlockCard(ctx context.Context, userID, cardID string) (*domain.Card, error)
	UnblockCard(ctx context.Context, userID, cardID string) (*domain.Card, error)
	CancelCard(ctx context.Context, userID, cardID string) (*domain.Card, error)
	UpdateLimits(ctx context.Context, userID, cardID string, daily, monthly int64) (*domain.Card, error)
	AuthorizeSpend(ctx context.Context, input usecase.AuthorizeInput) (*domain.CardTransaction, error)
	ListCardTransactions(ctx context.Context, userID, cardID string, limit int) ([]*domain.CardTransaction, error)
}

// CardHandler handles card-related HTTP requests.
type CardHandler struct {
	cardUC CardService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardUC CardService) *CardHandler {
	return &CardHandler{cardUC: cardUC}
}

// Create issues a card to the caller. The full number and CVV are only
// ever returned here.
func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req dto.CreateCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	issued, err := h.cardUC.CreateCard(r.Context(), req.ToUseCaseInput(user.ID))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.IssuedCardFromDomain(issued))
}

// List lists the caller's cards.
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := callerFrom(w, r)
	if !ok {
		return
	}

	cards, err := h.cardUC.ListCards(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"cards": dto.CardsFromDomain(cards)})
}

// Get returns one of the caller's cards.
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withCard(w, r, h.cardUC.GetCard)
}

// Block blocks an active card.
func (h *CardHandler) Block(w http.ResponseWriter, r *http.Request) {
	h.withCard(w, r, h.cardUC.BlockCard)
}

// Unblock reactivates a blocked card.
func (h *CardHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	h.withCard(w, r, h.cardUC.UnblockCard)
}

// Cancel cancels a card permanently.
func (h *CardHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.withCard(w, r, h.cardUC.CancelCard)
}

func (h *CardHandler) withCard(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, cardID string) (*domain.Card, error)) {
	user, ok := callerFrom(w, r)
	if !ok {
		return
	}

	card, err := op(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CardFromDomain(card))
}

// UpdateLimits replaces both limits of a card.
func (h *CardHandler) UpdateLimits(w http.ResponseWriter, r *http.Request) {
	user, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req dto.UpdateLimitsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	card, err := h.cardUC.UpdateLimits(r.Context(), user.ID, chi.URLParam(r, "id"), req.DailyLimit.Minor(), req.MonthlyLimit.Minor())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CardFromDomain(card))
}

// Authorize records a spend against a card on behalf of an acquirer.
// A declined attempt is still recorded and answered with the mapped error.
func (h *CardHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	var req dto.AuthorizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	txn, err := h.cardUC.AuthorizeSpend(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CardTransactionFromDomain(txn))
}

// Transactions lists recent authorizations of one of the caller's cards.
func (h *CardHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	user, ok := callerFrom(w, r)
	if !ok {
		return
	}

	txns, err := h.cardUC.ListCardTransactions(r.Context(), user.ID, chi.URLParam(r, "id"), parseIntQuery(r, "limit", domain.DefaultPageSize))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"transactions": dto.CardTransactionsFromDomain(txns)})
}
