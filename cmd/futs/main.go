package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/admin"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/app"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/catalog"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/clients"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/depot"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/ledger"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/observability"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/platform/cache"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/platform/db"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/shared"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/view"
	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if _, err := admin.EnsureSchema(ctx, dbpool); err != nil {
		logger.Warn("schema patch", slog.Any("error", err))
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "futs_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	metrics := observability.NewMetrics()

	clientsRepo := clients.NewRepository(dbpool)
	clientsService := clients.NewService(clientsRepo)
	clientsHandler := clients.NewHandler(logger, clientsService, templates, csrfManager, sessionManager)

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService, templates, csrfManager, sessionManager)

	depotRepo := depot.NewRepository(dbpool)
	depotService := depot.NewService(depotRepo)
	depotHandler := depot.NewHandler(logger, depotService, templates, csrfManager, sessionManager)

	ledgerRepo := ledger.NewRepository(dbpool)
	ledgerCache := ledger.NewCache(redisClient, cfg.OverviewCacheTTL)
	ledgerService := ledger.NewService(ledgerRepo, clientsService, catalogService, auditLogger, idempotencyStore, ledgerCache, ledger.ServiceConfig{
		DefaultDeposit: cfg.DefaultDeposit,
		Observer:       metrics,
	})
	ledgerHandler := ledger.NewHandler(logger, ledgerService, clientsService, catalogService, templates, csrfManager, sessionManager)

	adminHandler := admin.NewHandler(logger, dbpool)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		LedgerHandler:  ledgerHandler,
		ClientsHandler: clientsHandler,
		CatalogHandler: catalogHandler,
		DepotHandler:   depotHandler,
		AdminHandler:   adminHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
