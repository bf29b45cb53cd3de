package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	// Ephemeral cache tier
	CacheEnabled  bool
	RedisAddr     string // empty means in-memory cache
	RedisPassword string
	RedisDB       int

	// Admin surface
	JWTSecret string

	// Public API rate limiting, e.g. "100-M" (requests per minute)
	RateLimit string

	// Provider credentials; an empty value leaves that adapter unconfigured
	FrankfurterEnabled  bool
	OpenExchangeAppID   string
	AlphaVantageAPIKey  string
	TwelveDataAPIKey    string
	ProviderHTTPTimeout time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("CACHE_ENABLED", true)
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("FRANKFURTER_ENABLED", true)
	viper.SetDefault("OXR_APP_ID", "")
	viper.SetDefault("ALPHAVANTAGE_API_KEY", "")
	viper.SetDefault("TWELVEDATA_API_KEY", "")
	viper.SetDefault("PROVIDER_HTTP_TIMEOUT", "10s")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.CacheEnabled = viper.GetBool("CACHE_ENABLED")
	cfg.RedisAddr = viper.GetString("REDIS_ADDR")
	cfg.RedisPassword = viper.GetString("REDIS_PASSWORD")
	cfg.RedisDB = viper.GetInt("REDIS_DB")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	cfg.FrankfurterEnabled = viper.GetBool("FRANKFURTER_ENABLED")
	cfg.OpenExchangeAppID = viper.GetString("OXR_APP_ID")
	cfg.AlphaVantageAPIKey = viper.GetString("ALPHAVANTAGE_API_KEY")
	cfg.TwelveDataAPIKey = viper.GetString("TWELVEDATA_API_KEY")

	timeout, err := time.ParseDuration(viper.GetString("PROVIDER_HTTP_TIMEOUT"))
	if err != nil {
		log.Printf("Warning: Invalid value for PROVIDER_HTTP_TIMEOUT ('%s'). Defaulting to 10s.\n", viper.GetString("PROVIDER_HTTP_TIMEOUT"))
		timeout = 10 * time.Second
	}
	cfg.ProviderHTTPTimeout = timeout

	return cfg, nil
}
