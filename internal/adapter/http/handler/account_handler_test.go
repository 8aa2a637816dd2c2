package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

type accountServiceStub struct {
	accountLookupStub
	openFn    func(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error)
	entriesFn func(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
}

func (s *accountServiceStub) OpenAccount(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error) {
	return s.openFn(ctx, input)
}

func (s *accountServiceStub) ListEntries(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	return s.entriesFn(ctx, accountID, limit, offset)
}

func TestAccountHandler_Open(t *testing.T) {
	var captured usecase.OpenAccountInput
	h := NewAccountHandler(&accountServiceStub{
		openFn: func(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error) {
			captured = input
			return &domain.Account{ID: "acc-1", OwnerUserID: input.UserID, PaymentKey: input.Email}, nil
		},
	})

	req := asUser(httptest.NewRequest(http.MethodPost, "/accounts", strings.NewReader(`{"key_type":"email"}`)), "ana", domain.RoleCustomer)
	rec := httptest.NewRecorder()
	h.Open(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.UserID != "ana" || captured.Email != "ana@bank.test" || captured.OwnerName != "ana" || captured.KeyType != domain.PaymentKeyEmail {
		t.Fatalf("expected input to come from the caller, got %+v", captured)
	}
}

func TestAccountHandler_OpenErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"already open", domain.ErrAccountExists, http.StatusConflict},
		{"key taken", domain.ErrPaymentKeyTaken, http.StatusConflict},
		{"bad key", domain.ErrInvalidPaymentKey, http.StatusUnprocessableEntity},
		{"store down", errors.New("db error"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAccountHandler(&accountServiceStub{
				openFn: func(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error) {
					return nil, tt.err
				},
			})

			req := asUser(httptest.NewRequest(http.MethodPost, "/accounts", strings.NewReader(`{}`)), "ana", domain.RoleCustomer)
			rec := httptest.NewRecorder()
			h.Open(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestAccountHandler_Entries(t *testing.T) {
	h := NewAccountHandler(&accountServiceStub{
		accountLookupStub: accountLookupStub{account: anaAccount},
		entriesFn: func(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
			if accountID != "acc-ana" || limit != 20 || offset != 0 {
				t.Fatalf("unexpected query %s %d %d", accountID, limit, offset)
			}
			return []*domain.Entry{{ID: "e1", Amount: -150, BalanceBefore: 1000, BalanceAfter: 850}}, nil
		},
	})

	req := asUser(httptest.NewRequest(http.MethodGet, "/accounts/me/entries?limit=20", nil), "ana", domain.RoleCustomer)
	rec := httptest.NewRecorder()
	h.Entries(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `"amount":"-1.50"`) || !strings.Contains(body, `"balance_after":"8.50"`) {
		t.Fatalf("unexpected body %s", body)
	}
}
