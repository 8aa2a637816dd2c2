package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
)

// AccountLookup resolves the caller's own account.
type AccountLookup interface {
	GetAccountByOwner(ctx context.Context, userID string) (*domain.Account, error)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// writeDomainError maps err through the domain error table.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := mapDomainError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	writeError(w, status, code, message)
}

type errorMapping struct {
	err    error
	status int
	code   string
}

var domainErrors = []errorMapping{
	{domain.ErrAccountNotFound, http.StatusNotFound, "account_not_found"},
	{domain.ErrTransferNotFound, http.StatusNotFound, "transfer_not_found"},
	{domain.ErrTransferNotPending, http.StatusConflict, "transfer_not_pending"},
	{domain.ErrCardNotFound, http.StatusNotFound, "card_not_found"},
	{domain.ErrReceivableNotFound, http.StatusNotFound, "receivable_not_found"},

	{domain.ErrInsufficientFunds, http.StatusUnprocessableEntity, "insufficient_funds"},
	{domain.ErrUnknownRecipient, http.StatusUnprocessableEntity, "unknown_recipient"},
	{domain.ErrSelfTransfer, http.StatusUnprocessableEntity, "self_transfer"},
	{domain.ErrInvalidAmount, http.StatusUnprocessableEntity, "invalid_amount"},
	{domain.ErrInvalidLimits, http.StatusUnprocessableEntity, "invalid_limits"},
	{domain.ErrInvalidIdempotencyKey, http.StatusUnprocessableEntity, "invalid_idempotency_key"},
	{domain.ErrInvalidPaymentKey, http.StatusUnprocessableEntity, "invalid_payment_key"},
	{domain.ErrInvalidStatus, http.StatusUnprocessableEntity, "invalid_status"},
	{domain.ErrInvalidDirection, http.StatusBadRequest, "invalid_direction"},

	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
	{domain.ErrExpiredToken, http.StatusUnauthorized, "expired_token"},
	{domain.ErrInvalidCardCredentials, http.StatusUnauthorized, "invalid_card_credentials"},
	{domain.ErrVerificationRequired, http.StatusForbidden, "verification_required"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},

	{domain.ErrCardNotActive, http.StatusConflict, "card_not_active"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrAccountExists, http.StatusConflict, "account_exists"},
	{domain.ErrPaymentKeyTaken, http.StatusConflict, "payment_key_taken"},
	{domain.ErrInvalidCardTransition, http.StatusConflict, "invalid_card_transition"},
	{domain.ErrInvalidStatusTransition, http.StatusConflict, "invalid_status_transition"},

	{domain.ErrDailyLimitExceeded, http.StatusPaymentRequired, "daily_limit_exceeded"},
	{domain.ErrMonthlyLimitExceeded, http.StatusPaymentRequired, "monthly_limit_exceeded"},

	{domain.ErrAccountFrozen, http.StatusLocked, "account_frozen"},
	{domain.ErrBalanceOverflow, http.StatusUnprocessableEntity, "balance_overflow"},

	{domain.ErrReconciliationPending, http.StatusAccepted, "reconciliation_pending"},
}

// mapDomainError maps domain errors to an HTTP status and error code.
func mapDomainError(err error) (int, string) {
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// callerFrom returns the authenticated caller or writes 401.
func callerFrom(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, ok := domain.UserFromContext(r.Context())
	if !ok || user.ID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing caller identity")
		return nil, false
	}
	return user, true
}

// callerAccount returns the caller's account or writes the error.
func callerAccount(w http.ResponseWriter, r *http.Request, accounts AccountLookup) (*domain.Account, bool) {
	user, ok := callerFrom(w, r)
	if !ok {
		return nil, false
	}
	account, err := accounts.GetAccountByOwner(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return account, true
}

// decodeJSON decodes the request body, writing 400 or 422 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, domain.ErrInvalidAmount) {
			writeError(w, http.StatusUnprocessableEntity, "invalid_amount", err.Error())
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid_request_body", err.Error())
		return false
	}
	return true
}

// pagination reads limit and offset and clamps them to the page bounds,
// so the echoed values are the ones actually applied.
func pagination(r *http.Request) (int, int) {
	return domain.ValidatePagination(
		parseIntQuery(r, "limit", domain.DefaultPageSize),
		parseIntQuery(r, "offset", 0),
	)
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
