package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	httphandler "payment-gateway/internal/adapters/http"
	"payment-gateway/internal/adapters/storage/redis"
	"payment-gateway/internal/app"
	"payment-gateway/internal/bootstrap"
	"payment-gateway/internal/config"
	"payment-gateway/internal/idgen"
	"payment-gateway/internal/observability"
	"payment-gateway/internal/settlement"
)

const serviceName = "payment-gateway"

func main() {
	// --- 1. Configuration and Logging ---
	fallbackLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	cfg, err := config.Load(configPath())
	if err != nil {
		fallbackLogger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg.App.Env)
	logger.Info("Application starting",
		"env", cfg.App.Env,
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Driver,
		"broker", cfg.Broker.Kind,
		"test_mode", cfg.Settlement.TestMode,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- 2. Observability ---
	shutdownTracer, err := observability.InitTracer(cfg.Jaeger.Port, serviceName)
	if err != nil {
		logger.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("Failed to shutdown tracer", "error", err)
		}
	}()

	// --- 3. Dependencies ---
	storage, err := bootstrap.OpenStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open storage", "error", err)
		os.Exit(1)
	}
	defer storage.Close()

	seeder := app.NewSeeder(storage.Merchants, cfg.Seed, logger)
	if _, err := seeder.EnsureTestMerchant(ctx); err != nil {
		logger.Error("Failed to seed test merchant", "error", err)
		os.Exit(1)
	}

	broker, err := bootstrap.OpenBroker(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to create message broker", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := broker.Close(); err != nil {
			logger.Warn("Failed to close message broker", "error", err)
		}
	}()

	checks := []httphandler.HealthCheck{{Name: "database", Probe: storage.Ping}}

	var rateLimiter *httphandler.RateLimiterMiddleware
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		limiterRepo := redis.NewRateLimiterAdapter(rdb)
		defer func() {
			if err := limiterRepo.Close(); err != nil {
				logger.Warn("Failed to close Redis connection", "error", err)
			}
		}()
		rateLimiter = httphandler.NewRateLimiterMiddleware(limiterRepo, cfg.Redis.RateLimit, cfg.RateWindow(), logger)
		checks = append(checks, httphandler.HealthCheck{Name: "redis", Probe: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
		logger.Info("Connected to Redis", "limit", cfg.Redis.RateLimit, "window", cfg.RateWindow())
	}

	// --- 4. Service Layer ---
	ids := idgen.NewGenerator()
	policy := settlement.NewPolicy(cfg.Settlement)
	scheduler := settlement.NewScheduler(storage.Jobs, policy, logger)

	orderService := app.NewOrderService(storage.Orders, ids, logger)
	paymentService := app.NewPaymentService(
		storage.Orders,
		storage.Payments,
		scheduler,
		ids,
		app.PaymentOptions{AllowMultiplePerOrder: cfg.AllowMultiplePaymentsPerOrder()},
		logger,
	)
	authenticator := app.NewMerchantAuthenticator(storage.Merchants, logger)

	var tokens *httphandler.TokenIssuer
	if cfg.JWT.Secret != "" {
		tokens = httphandler.NewTokenIssuer(cfg.JWT.Secret, cfg.TokenTTL())
	} else {
		logger.Warn("JWT secret is not set, dashboard tokens are disabled")
	}

	// --- 5. Settlement Worker ---
	var workers sync.WaitGroup
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	if cfg.Settlement.EmbeddedWorker {
		worker := settlement.NewWorker(storage.Jobs, storage.Payments, broker, policy, settlement.WorkerConfig{
			Workers:      cfg.Settlement.Workers,
			PollInterval: cfg.Settlement.PollInterval(),
			BatchSize:    cfg.Settlement.BatchSize,
		}, logger)
		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := worker.Run(workerCtx); err != nil {
				logger.Error("Settlement worker stopped", "error", err)
			}
		}()
	} else if storage.Driver == config.DriverMemory {
		logger.Warn("Embedded settlement worker is off with in-memory storage, payments will stay processing")
	}

	// --- 6. HTTP Router ---
	router := httphandler.NewRouter(httphandler.RouterDeps{
		ServiceName:         serviceName,
		Orders:              orderService,
		Payments:            paymentService,
		Auth:                authenticator,
		Tokens:              tokens,
		RateLimiter:         rateLimiter,
		Health:              httphandler.NewHealthHandler(logger, checks...),
		TestMerchants:       seeder,
		ExposeTestEndpoints: cfg.App.ExposeTestEndpoints,
		AllowOrigins:        cfg.CORS.AllowOrigins,
		Logger:              logger,
	})

	// --- 7. HTTP Server ---
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}

	// In-flight settlements finish before storage and broker close.
	stopWorker()
	workers.Wait()

	logger.Info("Server exited properly")
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "configs/config.yaml"
}
