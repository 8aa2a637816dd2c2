package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/adapter/cardcrypto"
	httpAdapter "github.com/iho/gobank/internal/adapter/http"
	"github.com/iho/gobank/internal/adapter/http/handler"
	"github.com/iho/gobank/internal/adapter/http/middleware"
	"github.com/iho/gobank/internal/adapter/qrcode"
	"github.com/iho/gobank/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/gobank/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gobank/internal/adapter/repository/redis"
	"github.com/iho/gobank/internal/infrastructure/auth"
	"github.com/iho/gobank/internal/infrastructure/config"
	"github.com/iho/gobank/internal/infrastructure/eventpublisher"
	"github.com/iho/gobank/internal/infrastructure/idgen"
	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/infrastructure/postgres"
	"github.com/iho/gobank/internal/infrastructure/reconciler"
	"github.com/iho/gobank/internal/infrastructure/redis"
	"github.com/iho/gobank/internal/infrastructure/retry"
	"github.com/iho/gobank/internal/usecase"
)

const limiterIdleTTL = time.Hour

// repositories is one storage backend's set of adapters.
type repositories struct {
	txManager    usecase.TransactionManager
	accounts     usecase.AccountRepository
	entries      usecase.EntryRepository
	transfers    usecase.TransferRepository
	receivables  usecase.ReceivableRepository
	cards        usecase.CardRepository
	cardTxs      usecase.CardTransactionRepository
	verification usecase.VerificationRepository
	recon        usecase.ReconciliationRepository
	ledger       usecase.LedgerRepository
	outbox       usecase.OutboxRepository
}

func memoryRepositories() repositories {
	store := memory.NewStore()
	return repositories{
		txManager:    memory.NewTxManager(store),
		accounts:     memory.NewAccountRepository(store),
		entries:      memory.NewEntryRepository(store),
		transfers:    memory.NewTransferRepository(store),
		receivables:  memory.NewReceivableRepository(store),
		cards:        memory.NewCardRepository(store),
		cardTxs:      memory.NewCardTransactionRepository(store),
		verification: memory.NewVerificationRepository(store),
		recon:        memory.NewReconciliationRepository(store),
		ledger:       memory.NewLedgerRepository(store),
		outbox:       memory.NewOutboxRepository(store),
	}
}

func postgresRepositories(pool *pgxpool.Pool) repositories {
	return repositories{
		txManager:    postgresRepo.NewTxManager(pool),
		accounts:     postgresRepo.NewAccountRepository(pool),
		entries:      postgresRepo.NewEntryRepository(pool),
		transfers:    postgresRepo.NewTransferRepository(pool),
		receivables:  postgresRepo.NewReceivableRepository(pool),
		cards:        postgresRepo.NewCardRepository(pool),
		cardTxs:      postgresRepo.NewCardTransactionRepository(pool),
		verification: postgresRepo.NewVerificationRepository(pool),
		recon:        postgresRepo.NewReconciliationRepository(pool),
		ledger:       postgresRepo.NewLedgerRepository(pool),
		outbox:       postgresRepo.NewOutboxRepository(pool),
	}
}

// app is the wired service: HTTP server plus background workers.
type app struct {
	logger    zerolog.Logger
	server    *http.Server
	publisher *eventpublisher.EventPublisher
	worker    *reconciler.Worker
	limiter   *middleware.RateLimiter
	shutdown  time.Duration
	closers   []func()
}

// buildApp connects to the configured backends and wires every use case
// behind the HTTP router. Callers must Close the result.
func buildApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) (*app, error) {
	a := &app{logger: logger, shutdown: cfg.HTTPShutdownTimeout}
	checks := map[string]handler.Pinger{}

	var repos repositories
	switch cfg.StorageDriver {
	case config.DriverMemory:
		logger.Warn().Msg("using in-memory storage; data is lost on restart")
		repos = memoryRepositories()
	default:
		if cfg.MigrateOnStart {
			if err := postgres.RunMigrations(cfg.DatabaseURL, logger); err != nil {
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		checks["postgres"] = pool
		logger.Info().Msg("connected to postgres")
		repos = postgresRepositories(pool)
	}

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	switch {
	case errors.Is(err, redis.ErrDisabled):
		logger.Info().Msg("redis disabled; key cache and request idempotency are off")
	case err != nil:
		a.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	default:
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
		logger.Info().Msg("connected to redis")
	}

	ids := idgen.NewULIDGenerator()

	contention := retry.DefaultContentionConfig()
	contention.MaxRetries = cfg.ContentionRetryMax
	credit := retry.Config{
		MaxRetries:      cfg.CreditRetryMax,
		InitialInterval: cfg.CreditRetryInitial,
		MaxInterval:     cfg.CreditRetryMaxInterval,
		MaxElapsedTime:  cfg.CreditRetryMaxElapsed,
	}

	accountUC := usecase.NewAccountUseCase(
		repos.txManager, repos.accounts, repos.entries, repos.outbox,
		retry.NewContentionRetrier(contention, logger),
		ids, idgen.NewUUIDKeyGenerator(), m,
	)

	var keyResolver usecase.KeyResolver = accountUC
	if redisClient != nil {
		keyResolver = redisRepo.NewKeyResolver(accountUC, redisRepo.NewCache(redisClient), cfg.KeyCacheTTL, logger)
	}

	transferUC := usecase.NewTransferUseCase(
		repos.txManager, repos.transfers, repos.accounts, repos.recon, repos.outbox,
		accountUC, keyResolver, retry.NewCreditRetrier(credit, logger),
		ids, m, cfg.TransferMaxAmount,
	)
	receivableUC := usecase.NewReceivableUseCase(
		repos.accounts, repos.receivables, qrcode.NewEncoder(qrcode.DefaultSize),
		ids, cfg.ReceivableTTL, cfg.ReceivableMaxAmount,
	)
	verificationUC := usecase.NewVerificationUseCase(repos.txManager, repos.verification, repos.outbox, ids, m)
	cardUC := usecase.NewCardUseCase(
		repos.txManager, repos.cards, repos.cardTxs, repos.outbox,
		verificationUC, cardcrypto.New(0), ids, m,
		usecase.CardLimits{Daily: cfg.CardDefaultDailyLimit, Monthly: cfg.CardDefaultMonthlyLimit},
	)
	reconciliationUC := usecase.NewReconciliationUseCase(
		repos.txManager, repos.transfers, repos.entries, repos.recon, repos.ledger, repos.outbox,
		accountUC, ids, m,
	)

	sink, err := newEventSink(cfg, redisClient, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.publisher = eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: repos.outbox,
		Publisher:  sink,
		Logger:     logger,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
	})
	a.worker = reconciler.NewWorker(reconciliationUC, cfg.ReconcileInterval, cfg.ReconcileStaleAfter, logger)
	a.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)

	routerCfg := httpAdapter.RouterConfig{
		AccountHandler:        handler.NewAccountHandler(accountUC),
		TransferHandler:       handler.NewTransferHandler(transferUC, accountUC),
		ReceivableHandler:     handler.NewReceivableHandler(receivableUC, accountUC),
		CardHandler:           handler.NewCardHandler(cardUC),
		VerificationHandler:   handler.NewVerificationHandler(verificationUC),
		ReconciliationHandler: handler.NewReconciliationHandler(reconciliationUC),
		HealthHandler:         handler.NewHealthHandler(checks),
		IdempotencyTTL:        cfg.IdempotencyTTL,
		RateLimiter:           a.limiter,
		Metrics:               m,
		Logger:                logger,
	}
	if cfg.AuthEnabled {
		routerCfg.TokenVerifier = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	} else {
		logger.Warn().Msg("token auth disabled; trusting X-User-* headers")
	}
	if redisClient != nil {
		routerCfg.IdempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
	}

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      httpAdapter.NewRouter(routerCfg),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return a, nil
}

// newEventSink picks where outbox events are delivered.
func newEventSink(cfg *config.Config, client *goredis.Client, logger zerolog.Logger) (eventpublisher.Publisher, error) {
	switch cfg.EventSink {
	case config.SinkWebhook:
		return eventpublisher.NewWebhookPublisher(cfg.EventWebhookURL, nil), nil
	case config.SinkRedis:
		if client == nil {
			return nil, errors.New("EVENT_SINK=redis requires REDIS_URL")
		}
		return eventpublisher.NewStreamPublisher(client, cfg.EventStream, 0), nil
	default:
		return eventpublisher.NewLogPublisher(logger), nil
	}
}

// Run serves HTTP and runs the workers until ctx is cancelled.
func (a *app) Run(ctx context.Context) error {
	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	start := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error().Err(err).Str("worker", name).Msg("worker stopped")
			}
		}()
	}
	start("outbox", a.publisher.Start)
	start("reconciler", a.worker.Start)
	start("limiter-cleanup", func(ctx context.Context) error {
		ticker := time.NewTicker(limiterIdleTTL)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				a.limiter.CleanupLimiters(limiterIdleTTL)
			}
		}
	})

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", a.server.Addr).Msg("starting server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		runErr = err
	}

	a.logger.Info().Msg("shutting down server...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.shutdown)
	defer cancelShutdown()
	if err := a.server.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("shutdown: %w", err)
	}

	cancel()
	wg.Wait()
	return runErr
}

// Close releases connections in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
