package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	// Ledger behavior
	CurrencyCode         string        // single operating currency for all accounts
	LockTimeout          time.Duration // max wait for account locks before a transfer is rejected
	IdempotencyRetention time.Duration // how long resolved request keys are kept
	JanitorInterval      time.Duration // how often expired request keys are purged

	// Outbound webhook notifications
	WebhookURL         string `mapstructure:"WEBHOOK_URL"`
	WebhookSecret      string `mapstructure:"WEBHOOK_SECRET"`
	OutboxPollInterval time.Duration
	OutboxMaxAttempts  int
	OutboxRetryBackoff time.Duration

	// RateLimit is a ulule/limiter formatted rate, e.g. "100-M".
	RateLimit string `mapstructure:"RATE_LIMIT"`
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("CURRENCY_CODE", "INR")
	viper.SetDefault("LOCK_TIMEOUT", "3s")
	viper.SetDefault("IDEMPOTENCY_RETENTION", "48h")
	viper.SetDefault("JANITOR_INTERVAL", "1h")
	viper.SetDefault("WEBHOOK_URL", "")
	viper.SetDefault("WEBHOOK_SECRET", "")
	viper.SetDefault("OUTBOX_POLL_INTERVAL", "2s")
	viper.SetDefault("OUTBOX_MAX_ATTEMPTS", 8)
	viper.SetDefault("OUTBOX_RETRY_BACKOFF", "30s")
	viper.SetDefault("RATE_LIMIT", "100-M")

	// Environment variables override .env file values, which override defaults.
	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080" // Default port
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.CurrencyCode = viper.GetString("CURRENCY_CODE")
	if cfg.CurrencyCode == "" {
		cfg.CurrencyCode = "INR"
		log.Printf("Warning: CURRENCY_CODE not set. Defaulting to %s.\n", cfg.CurrencyCode)
	}

	cfg.LockTimeout = parseDurationOr("LOCK_TIMEOUT", 3*time.Second)
	cfg.IdempotencyRetention = parseDurationOr("IDEMPOTENCY_RETENTION", 48*time.Hour)
	cfg.JanitorInterval = parseDurationOr("JANITOR_INTERVAL", time.Hour)

	cfg.WebhookURL = viper.GetString("WEBHOOK_URL")
	cfg.WebhookSecret = viper.GetString("WEBHOOK_SECRET")
	if cfg.WebhookURL != "" && cfg.WebhookSecret == "" {
		log.Println("Warning: WEBHOOK_SECRET not set. Outbound notifications will be unsigned.")
	}
	cfg.OutboxPollInterval = parseDurationOr("OUTBOX_POLL_INTERVAL", 2*time.Second)
	cfg.OutboxMaxAttempts = viper.GetInt("OUTBOX_MAX_ATTEMPTS")
	if cfg.OutboxMaxAttempts <= 0 {
		cfg.OutboxMaxAttempts = 8
	}
	cfg.OutboxRetryBackoff = parseDurationOr("OUTBOX_RETRY_BACKOFF", 30*time.Second)

	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	if cfg.RateLimit == "" {
		cfg.RateLimit = "100-M"
	}

	return cfg, nil
}

// parseDurationOr reads a duration-valued key, falling back to def on a
// missing or malformed value.
func parseDurationOr(key string, def time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def.String())
		}
		return def
	}
	return d
}
