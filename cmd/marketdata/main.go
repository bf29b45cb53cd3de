package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	cacheadapter "github.com/finbeat/marketdata/internal/adapters/cache"
	"github.com/finbeat/marketdata/internal/adapters/database/pgsql"
	providersadapter "github.com/finbeat/marketdata/internal/adapters/providers"
	cacheport "github.com/finbeat/marketdata/internal/core/ports/cache"
	providerport "github.com/finbeat/marketdata/internal/core/ports/providers"
	"github.com/finbeat/marketdata/internal/core/services"
	"github.com/finbeat/marketdata/internal/handlers"
	"github.com/finbeat/marketdata/internal/middleware"
	"github.com/finbeat/marketdata/internal/platform/config"
	"github.com/finbeat/marketdata/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ulule/limiter/v3"
	limitermem "github.com/ulule/limiter/v3/drivers/store/memory"
)

// @title Finbeat Market Data API
// @version 1.0
// @description Exchange rate and security price service with tiered caching.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
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
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Ephemeral cache tier: Redis when configured, in-process map otherwise.
	cacheStore, closeCache, err := buildCacheStore(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize cache store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeCache()

	repos := pgsql.NewRepositoryProvider(dbPool)
	serviceContainer := services.NewServiceContainer(
		repos,
		cacheStore,
		buildRateProviders(cfg),
		buildPriceProviders(cfg),
		logger,
	)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	limiterInstance, err := buildRateLimiter(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid rate limit format", slog.String("rate_limit", cfg.RateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, limiterInstance)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies pending schema migrations using a temporary standard
// sql.DB connection, compatible with the main pgx pool.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
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

	upErr := m.Up()
	if upErr != nil && upErr != migrate.ErrNoChange {
		return upErr
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if upErr == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

// buildCacheStore picks the ephemeral cache backend. With caching disabled a
// no-op store stands in, so resolvers run the durable store and provider
// tiers only while the resolve path stays uniform.
func buildCacheStore(cfg *config.Config, logger *slog.Logger) (cacheport.Store, func(), error) {
	if !cfg.CacheEnabled {
		logger.Info("Cache disabled, resolution uses store and provider tiers only")
		return cacheadapter.NewNoopStore(), func() {}, nil
	}
	if cfg.RedisAddr != "" {
		redisStore, err := cacheadapter.NewRedisStore(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using Redis cache store", slog.String("addr", cfg.RedisAddr))
		return redisStore, func() {
			if cerr := redisStore.Close(); cerr != nil {
				logger.Error("Error closing Redis connection", slog.String("error", cerr.Error()))
			}
		}, nil
	}

	memStore := cacheadapter.NewMemoryStore()
	logger.Info("Using in-memory cache store")
	return memStore, func() { _ = memStore.Close() }, nil
}

// buildRateProviders assembles the exchange-rate fallback chain in
// configuration order. Unconfigured adapters stay in the chain but are
// skipped during resolution.
func buildRateProviders(cfg *config.Config) []providerport.RateProvider {
	return []providerport.RateProvider{
		providersadapter.NewFrankfurterProvider("", cfg.FrankfurterEnabled, cfg.ProviderHTTPTimeout),
		providersadapter.NewOpenExchangeRatesProvider("", cfg.OpenExchangeAppID, cfg.ProviderHTTPTimeout),
	}
}

// buildPriceProviders assembles the security-price fallback chain.
func buildPriceProviders(cfg *config.Config) []providerport.PriceProvider {
	return []providerport.PriceProvider{
		providersadapter.NewAlphaVantageProvider("", cfg.AlphaVantageAPIKey, cfg.ProviderHTTPTimeout),
		providersadapter.NewTwelveDataProvider("", cfg.TwelveDataAPIKey, cfg.ProviderHTTPTimeout),
	}
}

func buildRateLimiter(format string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(format)
	if err != nil {
		return nil, err
	}
	return limiter.New(limitermem.NewStore(), rate), nil
}
