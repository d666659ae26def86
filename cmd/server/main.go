package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/fxreval/internal/adapter/http"
	"github.com/iho/fxreval/internal/adapter/http/handler"
	"github.com/iho/fxreval/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/fxreval/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/fxreval/internal/adapter/repository/redis"
	"github.com/iho/fxreval/internal/infrastructure/auth"
	"github.com/iho/fxreval/internal/infrastructure/config"
	"github.com/iho/fxreval/internal/infrastructure/eventpublisher"
	"github.com/iho/fxreval/internal/infrastructure/logger"
	"github.com/iho/fxreval/internal/infrastructure/metrics"
	"github.com/iho/fxreval/internal/infrastructure/postgres"
	"github.com/iho/fxreval/internal/infrastructure/redis"
	"github.com/iho/fxreval/internal/usecase"
)

const rateLimiterCleanupInterval = time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		log.Info().Str("path", cfg.MigrationsPath).Msg("migrations applied")
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	redisClient := connectRedis(ctx, cfg.RedisURL)
	if redisClient != nil {
		defer redisClient.Close()
	}

	m := metrics.New()

	// Initialize repositories
	isoLevel, err := postgresRepo.ParseIsoLevel(cfg.DatabaseIsolation)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid database isolation")
	}
	txManager := postgresRepo.NewTxManager(pool, postgresRepo.WithIsoLevel(isoLevel))
	retrier := postgresRepo.NewRetrier(log.Logger)
	idGen := postgresRepo.NewULIDGenerator()
	companyRepo := postgresRepo.NewCompanyRepository(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	journalRepo := postgresRepo.NewJournalRepository(pool)
	rateRepo := postgresRepo.NewRateRepository(pool)
	moveRepo := postgresRepo.NewMoveRepository(pool)
	lineRepo := postgresRepo.NewLedgerLineRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)

	var (
		cache            usecase.Cache
		idempotencyStore usecase.IdempotencyStore
	)
	if redisClient != nil {
		cache = redisRepo.NewCache(redisClient)
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
	}

	// Initialize use cases
	accountUC := usecase.NewAccountUseCase(accountRepo)
	rateUC := usecase.NewRateUseCase(txManager, companyRepo, rateRepo, outboxRepo, auditRepo, cache, idGen, cfg.RateCacheTTL, m)
	reportUC := usecase.NewReportUseCase(txManager, companyRepo, accountRepo, lineRepo, rateUC)
	settingsUC := usecase.NewSettingsUseCase(txManager, companyRepo, accountRepo, journalRepo, outboxRepo, auditRepo, idGen)
	ledgerUC := usecase.NewLedgerUseCase(ledgerRepo)
	revaluationUC := usecase.NewRevaluationUseCase(usecase.RevaluationDeps{
		TxManager:   txManager,
		Retrier:     retrier,
		CompanyRepo: companyRepo,
		AccountRepo: accountRepo,
		JournalRepo: journalRepo,
		MoveRepo:    moveRepo,
		LineRepo:    lineRepo,
		OutboxRepo:  outboxRepo,
		AuditRepo:   auditRepo,
		Rates:       rateUC,
		IDGen:       idGen,
		Metrics:     m,
	})

	// Outbox publisher
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(log.Logger),
		Logger:     log.Logger,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})
	go func() {
		if err := publisher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	rateLimiter := newRateLimiter(cfg)
	if rateLimiter != nil {
		go rateLimiter.RunCleanup(ctx, rateLimiterCleanupInterval)
	}

	jwtManager, err := newJWTManager(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid auth configuration")
	}
	if jwtManager == nil {
		log.Warn().Msg("authentication disabled")
	}

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC),
		RateHandler:        handler.NewRateHandler(rateUC),
		RevaluationHandler: handler.NewRevaluationHandler(revaluationUC),
		ReportHandler:      handler.NewReportHandler(reportUC),
		SettingsHandler:    handler.NewSettingsHandler(settingsUC),
		LedgerHandler:      handler.NewLedgerHandler(ledgerUC),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		LoggingMiddleware:  middleware.NewLoggingMiddleware(log.Logger),
		RateLimiter:        rateLimiter,
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		JWTManager:         jwtManager,
	})

	server := newHTTPServer(cfg, router)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// connectRedis returns nil when Redis is not configured or unreachable; the
// service then runs without the rate cache and the idempotency store.
func connectRedis(ctx context.Context, redisURL string) *goredis.Client {
	if redisURL == "" {
		log.Info().Msg("redis not configured")
		return nil
	}

	client, err := redis.NewClient(ctx, redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, running without cache and idempotency")
		return nil
	}

	log.Info().Msg("connected to redis")
	return client
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		ErrorLog:     stdlog.New(log.Logger, "", 0),
	}
}

func newRateLimiter(cfg *config.Config) *middleware.RateLimiter {
	if cfg.RateLimitRPS <= 0 {
		return nil
	}
	return middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
}

var errMissingJWTSecret = errors.New("AUTH_ENABLED requires JWT_SECRET")

// newJWTManager returns nil when auth is disabled.
func newJWTManager(cfg *config.Config) (*auth.JWTManager, error) {
	if !cfg.AuthEnabled {
		return nil, nil
	}
	if cfg.JWTSecret == "" {
		return nil, errMissingJWTSecret
	}
	return auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration), nil
}
