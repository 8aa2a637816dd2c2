package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/iho/gobank/internal/adapter/cardcrypto"
	"github.com/iho/gobank/internal/adapter/http/handler"
	apimiddleware "github.com/iho/gobank/internal/adapter/http/middleware"
	"github.com/iho/gobank/internal/adapter/qrcode"
	"github.com/iho/gobank/internal/adapter/repository/memory"
	"github.com/iho/gobank/internal/infrastructure/idgen"
	"github.com/iho/gobank/internal/infrastructure/retry"
	"github.com/iho/gobank/internal/usecase"
)

// newRouterConfig wires every handler over the in-memory store.
func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	store := memory.NewStore()
	txm := memory.NewTxManager(store)
	accountRepo := memory.NewAccountRepository(store)
	entryRepo := memory.NewEntryRepository(store)
	transferRepo := memory.NewTransferRepository(store)
	reconRepo := memory.NewReconciliationRepository(store)
	outboxRepo := memory.NewOutboxRepository(store)
	ids := idgen.NewULIDGenerator()
	logger := zerolog.Nop()

	fast := retry.Config{MaxRetries: 5, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond, MaxElapsedTime: time.Second}

	accounts := usecase.NewAccountUseCase(txm, accountRepo, entryRepo, outboxRepo,
		retry.NewContentionRetrier(fast, logger), ids, idgen.NewUUIDKeyGenerator(), nil)
	transfers := usecase.NewTransferUseCase(txm, transferRepo, accountRepo, reconRepo, outboxRepo,
		accounts, accounts, retry.NewCreditRetrier(fast, logger), ids, nil, usecase.DefaultMaxTransferAmount)
	receivables := usecase.NewReceivableUseCase(accountRepo, memory.NewReceivableRepository(store),
		qrcode.NewEncoder(128), ids, 0, usecase.DefaultMaxTransferAmount)
	verification := usecase.NewVerificationUseCase(txm, memory.NewVerificationRepository(store), outboxRepo, ids, nil)
	cards := usecase.NewCardUseCase(txm, memory.NewCardRepository(store), memory.NewCardTransactionRepository(store),
		outboxRepo, verification, cardcrypto.New(4), ids, nil, usecase.CardLimits{})
	reconciliation := usecase.NewReconciliationUseCase(txm, transferRepo, entryRepo, reconRepo,
		memory.NewLedgerRepository(store), outboxRepo, accounts, ids, nil)

	cfg := RouterConfig{
		AccountHandler:        handler.NewAccountHandler(accounts),
		TransferHandler:       handler.NewTransferHandler(transfers, accounts),
		ReceivableHandler:     handler.NewReceivableHandler(receivables, accounts),
		CardHandler:           handler.NewCardHandler(cards),
		VerificationHandler:   handler.NewVerificationHandler(verification),
		ReconciliationHandler: handler.NewReconciliationHandler(reconciliation),
		HealthHandler:         handler.NewHealthHandler(nil),
		Logger:                logger,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

func call(t *testing.T, router http.Handler, method, path, user, role, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(apimiddleware.HeaderUserID, user)
		req.Header.Set(apimiddleware.HeaderUserEmail, user+"@bank.test")
		req.Header.Set(apimiddleware.HeaderUserName, user)
		req.Header.Set(apimiddleware.HeaderUserRole, role)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected %s to return 200, got %d", path, rec.Code)
		}
	}
}

func TestNewRouter_ReadinessReportsFailingDependency(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.HealthHandler = handler.NewHealthHandler(map[string]handler.Pinger{
			"redis": handler.PingFunc(func(ctx context.Context) error { return context.DeadlineExceeded }),
		})
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(0.001, 1, nil)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.HeaderUserID, "u1")
	req.Header.Set(apimiddleware.HeaderUserEmail, "u1@bank.test")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.checkedKey != "u1:key-123" {
		t.Fatalf("expected idempotency store to be used with a caller-scoped key, got %q", store.checkedKey)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"POST /api/v1/accounts/",
		"GET /api/v1/accounts/me",
		"GET /api/v1/accounts/me/entries",
		"POST /api/v1/accounts/{id}/deposits",
		"POST /api/v1/transfers/",
		"GET /api/v1/transfers/",
		"GET /api/v1/transfers/{id}",
		"POST /api/v1/receivables/",
		"GET /api/v1/receivables/{id}",
		"POST /api/v1/cards/",
		"GET /api/v1/cards/{id}",
		"POST /api/v1/cards/{id}/block",
		"POST /api/v1/cards/{id}/unblock",
		"POST /api/v1/cards/{id}/cancel",
		"PUT /api/v1/cards/{id}/limits",
		"GET /api/v1/cards/{id}/transactions",
		"POST /api/v1/cards/{id}/authorize",
		"GET /api/v1/verification/",
		"POST /api/v1/verification/submit",
		"GET /api/v1/verification/queue",
		"PUT /api/v1/verification/{user_id}",
		"GET /api/v1/ledger/consistency",
		"GET /api/v1/reconciliation",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func TestNewRouter_RequiresIdentity(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := call(t, router, http.MethodGet, "/api/v1/accounts/me", "", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNewRouter_TransferFlow(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := call(t, router, http.MethodPost, "/api/v1/accounts/", "ana", "customer", `{}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ana := decode(t, rec)
	require.Equal(t, "ana@bank.test", ana["payment_key"])
	require.Equal(t, "0.00", ana["balance"])

	rec = call(t, router, http.MethodPost, "/api/v1/accounts/", "bia", "customer", `{"key_type":"phone","payment_key":"+5511988887777"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Deposits are operator only.
	deposit := `{"amount":"100.00","idempotency_key":"dep-1"}`
	rec = call(t, router, http.MethodPost, "/api/v1/accounts/"+ana["id"].(string)+"/deposits", "ana", "customer", deposit)
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = call(t, router, http.MethodPost, "/api/v1/accounts/"+ana["id"].(string)+"/deposits", "ops", "operator", deposit)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	send := `{"to_key":"+5511988887777","amount":"40.00","description":"lunch","idempotency_key":"k1"}`
	rec = call(t, router, http.MethodPost, "/api/v1/transfers/", "ana", "customer", send)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode(t, rec)
	require.Equal(t, "completed", first["status"])
	require.Equal(t, "40.00", first["amount"])
	require.NotNil(t, first["completed_at"])

	// Same key, same answer.
	rec = call(t, router, http.MethodPost, "/api/v1/transfers/", "ana", "customer", send)
	require.Equal(t, http.StatusOK, rec.Code)
	replay := decode(t, rec)
	require.Equal(t, first["transfer_id"], replay["transfer_id"])
	require.Equal(t, true, replay["replayed"])
	require.Equal(t, "true", rec.Header().Get(apimiddleware.IdempotencyReplayHeader))

	rec = call(t, router, http.MethodPost, "/api/v1/transfers/", "ana", "customer",
		`{"to_key":"+5511988887777","amount":"60.01","idempotency_key":"k2"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "insufficient_funds", decode(t, rec)["error"])

	rec = call(t, router, http.MethodPost, "/api/v1/transfers/", "ana", "customer",
		`{"to_key":"+5511988887777","amount":"1.001","idempotency_key":"k3"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "invalid_amount", decode(t, rec)["error"])

	rec = call(t, router, http.MethodPost, "/api/v1/transfers/", "ana", "customer",
		`{"to_key":"nobody@bank.test","amount":"1.00","idempotency_key":"k4"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "unknown_recipient", decode(t, rec)["error"])

	rec = call(t, router, http.MethodGet, "/api/v1/accounts/me", "ana", "customer", "")
	require.Equal(t, "60.00", decode(t, rec)["balance"])

	rec = call(t, router, http.MethodGet, "/api/v1/transfers/?direction=received", "bia", "customer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	received := decode(t, rec)["transfers"].([]any)
	require.Len(t, received, 1)

	rec = call(t, router, http.MethodGet, "/api/v1/transfers/?limit=1000", "bia", "customer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 100, decode(t, rec)["limit"])

	rec = call(t, router, http.MethodGet, "/api/v1/transfers/?direction=sideways", "bia", "customer", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	transferID := first["transfer_id"].(string)
	rec = call(t, router, http.MethodGet, "/api/v1/transfers/"+transferID, "bia", "customer", "")
	require.Equal(t, http.StatusOK, rec.Code)

	// A third party cannot see it.
	rec = call(t, router, http.MethodPost, "/api/v1/accounts/", "caio", "customer", `{}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = call(t, router, http.MethodGet, "/api/v1/transfers/"+transferID, "caio", "customer", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, router, http.MethodGet, "/api/v1/accounts/me/entries", "ana", "customer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode(t, rec)["entries"].([]any), 2)

	rec = call(t, router, http.MethodGet, "/api/v1/ledger/consistency", "ana", "customer", "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = call(t, router, http.MethodGet, "/api/v1/ledger/consistency", "ops", "operator", "")
	require.Equal(t, http.StatusOK, rec.Code)
	totals := decode(t, rec)
	require.Equal(t, true, totals["consistent"])
	require.Equal(t, "100.00", totals["balances"])

	rec = call(t, router, http.MethodGet, "/api/v1/reconciliation", "ops", "operator", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decode(t, rec)["items"])
}

func TestNewRouter_ReceivableFlow(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := call(t, router, http.MethodPost, "/api/v1/receivables/", "ana", "customer", `{"amount":"15.50"}`)
	require.Equal(t, http.StatusNotFound, rec.Code, "no account yet")

	rec = call(t, router, http.MethodPost, "/api/v1/accounts/", "ana", "customer", `{}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = call(t, router, http.MethodPost, "/api/v1/receivables/", "ana", "customer", `{"amount":"15.50","description":"pizza"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	require.Equal(t, "ana@bank.test", created["payment_key"])
	require.Equal(t, "15.50", created["amount"])
	require.NotEmpty(t, created["qr_code"])
	require.Contains(t, created["encoded_payload"], `"amount":"15.50"`)
	require.Equal(t, false, created["expired"])

	rec = call(t, router, http.MethodGet, "/api/v1/receivables/"+created["receivable_id"].(string), "ana", "customer", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRouter_CardFlow(t *testing.T) {
	router := NewRouter(newRouterConfig())

	createCard := `{"holder_name":"ANA SOUZA","daily_limit":"100.00","monthly_limit":"1000.00"}`
	rec := call(t, router, http.MethodPost, "/api/v1/cards/", "ana", "customer", createCard)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "verification_required", decode(t, rec)["error"])

	rec = call(t, router, http.MethodPost, "/api/v1/verification/submit", "ana", "customer", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "in_review", decode(t, rec)["status"])

	rec = call(t, router, http.MethodGet, "/api/v1/verification/queue", "ana", "customer", "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = call(t, router, http.MethodGet, "/api/v1/verification/queue", "rita", "reviewer", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	queue := decode(t, rec)["verifications"].([]any)
	require.Len(t, queue, 1)
	require.Equal(t, "ana", queue[0].(map[string]any)["user_id"])

	rec = call(t, router, http.MethodPut, "/api/v1/verification/ana", "ana", "customer", `{"status":"approved"}`)
	require.Equal(t, http.StatusForbidden, rec.Code, "customers cannot approve themselves")

	rec = call(t, router, http.MethodPut, "/api/v1/verification/ana", "rita", "reviewer", `{"status":"approved","notes":"ok"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "rita", decode(t, rec)["reviewer_id"])

	rec = call(t, router, http.MethodGet, "/api/v1/verification/queue?status=in_review", "ops", "operator", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decode(t, rec)["verifications"])
	rec = call(t, router, http.MethodGet, "/api/v1/verification/queue?status=pending", "rita", "reviewer", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = call(t, router, http.MethodPost, "/api/v1/cards/", "ana", "customer", createCard)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	card := decode(t, rec)
	cardID := card["id"].(string)
	require.Len(t, card["full_number"], 16)
	require.Len(t, card["cvv"], 3)
	require.True(t, strings.HasPrefix(card["number"].(string), "************"))

	authorize := func(amount string) *httptest.ResponseRecorder {
		return call(t, router, http.MethodPost, "/api/v1/cards/"+cardID+"/authorize", "acq", "acquirer",
			`{"amount":"`+amount+`","merchant_name":"Padaria","cvv":"`+card["cvv"].(string)+`"}`)
	}

	rec = authorize("60.00")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "approved", decode(t, rec)["status"])

	rec = authorize("40.01")
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	require.Equal(t, "daily_limit_exceeded", decode(t, rec)["error"])

	// The largest representable amount must not wrap past the quota check.
	rec = authorize("92233720368547758.07")
	require.Equal(t, http.StatusPaymentRequired, rec.Code, rec.Body.String())
	require.Equal(t, "daily_limit_exceeded", decode(t, rec)["error"])

	rec = call(t, router, http.MethodPost, "/api/v1/cards/"+cardID+"/authorize", "ana", "customer", `{"amount":"1.00"}`)
	require.Equal(t, http.StatusForbidden, rec.Code, "only acquirers authorize")

	rec = call(t, router, http.MethodGet, "/api/v1/cards/"+cardID, "ana", "customer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "40.00", decode(t, rec)["daily_remaining"])

	rec = call(t, router, http.MethodGet, "/api/v1/cards/"+cardID, "bia", "customer", "")
	require.Equal(t, http.StatusNotFound, rec.Code, "cards are owner scoped")

	rec = call(t, router, http.MethodPost, "/api/v1/cards/"+cardID+"/block", "ana", "customer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "blocked", decode(t, rec)["status"])

	rec = authorize("1.00")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "card_not_active", decode(t, rec)["error"])

	rec = call(t, router, http.MethodPost, "/api/v1/cards/"+cardID+"/unblock", "ana", "customer", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, router, http.MethodPut, "/api/v1/cards/"+cardID+"/limits", "ana", "customer", `{"daily_limit":"200.00","monthly_limit":"100.00"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = call(t, router, http.MethodPost, "/api/v1/cards/"+cardID+"/cancel", "ana", "customer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = call(t, router, http.MethodPost, "/api/v1/cards/"+cardID+"/unblock", "ana", "customer", "")
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = call(t, router, http.MethodGet, "/api/v1/cards/"+cardID+"/transactions", "ana", "customer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode(t, rec)["transactions"].([]any), 4)

	rec = call(t, router, http.MethodGet, "/api/v1/cards/", "ana", "customer", "")
	require.Len(t, decode(t, rec)["cards"].([]any), 1)
}

type stubIdempotencyStore struct {
	checkedKey string
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkedKey = key
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}

func (s *stubIdempotencyStore) Release(ctx context.Context, key string) error {
	return nil
}
