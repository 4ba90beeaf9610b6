package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/nexabank/nexabank_ledger/internal/core/notifications"
	"github.com/nexabank/nexabank_ledger/internal/core/services"
	"github.com/nexabank/nexabank_ledger/internal/core/worker"
	"github.com/nexabank/nexabank_ledger/internal/dto"
	"github.com/nexabank/nexabank_ledger/internal/handlers"
	"github.com/nexabank/nexabank_ledger/internal/middleware"
	"github.com/nexabank/nexabank_ledger/internal/platform/config"
	"github.com/nexabank/nexabank_ledger/internal/repositories/database/pgsql"
	"github.com/nexabank/nexabank_ledger/pkg/database"
)

// @title NexaBank Ledger API
// @version 1.0
// @description Banking ledger and funds-transfer engine.

// @host localhost:8080
// @BasePath /
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS, rate limiting)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())
	if rate, err := limiter.NewRateFromFormatted(cfg.RateLimit); err == nil {
		r.Use(middleware.RateLimit(limiter.New(memory.NewStore(), rate)))
	} else {
		logger.Warn("Invalid RATE_LIMIT value, rate limiting disabled", slog.String("rate_limit", cfg.RateLimit))
	}

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := dto.RegisterValidations(); err != nil {
		logger.Error("Failed to register binding validations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Wire repositories and services
	repos := pgsql.NewRepositoryProvider(dbPool)
	container := services.NewServiceContainer(cfg, repos)

	handlers.RegisterRoutes(r, cfg, container)

	// Background workers stop when the process receives a shutdown signal.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	janitor := worker.NewIdempotencyJanitor(repos.IdempotencyRepo, logger, cfg.IdempotencyRetention, cfg.JanitorInterval)
	go janitor.Run(ctx)

	if cfg.WebhookURL != "" {
		sender := notifications.NewWebhookSender(cfg.WebhookURL, cfg.WebhookSecret)
		dispatcher := worker.NewOutboxDispatcher(repos.OutboxRepo, sender, logger, cfg.OutboxPollInterval, cfg.OutboxRetryBackoff, cfg.OutboxMaxAttempts)
		go dispatcher.Run(ctx)
	} else {
		logger.Info("WEBHOOK_URL not set, outbox dispatcher disabled")
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", slog.String("error", err.Error()))
	}
	logger.Info("Server stopped.")
}

// runMigrations applies all pending "up" migrations from the migrations
// directory, using a short-lived database/sql connection.
func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
