package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/renderdesk/renderdesk/internal/core/ports"
	"github.com/renderdesk/renderdesk/internal/core/services"
	"github.com/renderdesk/renderdesk/internal/events/kafka"
	"github.com/renderdesk/renderdesk/internal/handlers"
	"github.com/renderdesk/renderdesk/internal/middleware"
	"github.com/renderdesk/renderdesk/internal/providers"
	"github.com/renderdesk/renderdesk/internal/repositories/database/pgsql"
	"github.com/renderdesk/renderdesk/internal/storage/gcs"
	"github.com/renderdesk/renderdesk/internal/storage/memory"
	"github.com/renderdesk/renderdesk/internal/utils"
	"github.com/renderdesk/renderdesk/pkg/config"
	"github.com/renderdesk/renderdesk/pkg/database"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// @title RenderDesk Backend API
// @version 1.0
// @description Credit-metered AI room restyling service.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg, logger); err != nil {
		os.Exit(1)
	}

	store := buildContentStore(cfg, logger)
	executor := providers.NewExecutor(providers.FromConfig(cfg), cfg.RenderTimeout)
	logger.Info("Render provider configured", slog.String("provider", executor.ProviderName()))

	var publisher ports.UsageEventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Info("Usage event publisher enabled", slog.String("topic", cfg.KafkaTopic))
	}

	posthogClient := utils.InitializePosthogClient(cfg.PostHogAPIKey, cfg.PostHogHostURL, logger)
	defer posthogClient.Close()

	repos := pgsql.NewRepositoryProvider(dbPool)
	serviceContainer := services.NewServiceContainer(cfg, repos, services.ContainerDeps{
		Store:     store,
		Executor:  executor,
		Publisher: publisher,
		Posthog:   posthogClient,
	})

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		cors.New(corsConfig(cfg)),
		middleware.PosthogMiddleware(posthogClient),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, dbPool)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies pending SQL migrations through a temporary stdlib
// connection, which golang-migrate requires.
func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to open database connection for migrations", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		logger.Error("Could not create postgres driver instance for migrations", slog.String("error", err.Error()))
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		logger.Error("Could not create migrate instance", slog.String("error", err.Error()))
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		return err
	}
	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

// buildContentStore prefers GCS; without a bucket it falls back to the
// in-memory store, which only makes sense for local development.
func buildContentStore(cfg *config.Config, logger *slog.Logger) ports.ContentStore {
	if cfg.GCSBucket == "" {
		logger.Warn("Using in-memory content store; renders will not survive restarts")
		return memory.NewContentStore()
	}
	store, err := gcs.NewContentStore(context.Background(), cfg.GCSBucket)
	if err != nil {
		logger.Error("Failed to initialize GCS content store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("GCS content store initialized", slog.String("bucket", cfg.GCSBucket))
	return store
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	corsCfg.AllowCredentials = true
	if cfg.IsProduction {
		corsCfg.AllowOrigins = []string{"https://app.renderdesk.io"}
	} else {
		corsCfg.AllowOriginFunc = func(origin string) bool { return true }
	}
	return corsCfg
}
