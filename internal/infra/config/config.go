package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken   string
	RegistryAPIURL  string
	RegistryToken   string
	DatabaseURL     string // Optional; the submission journal is disabled when empty
	DBMaxOpenConns  int
	DBMaxIdleConns  int
	DBConnLifetime  time.Duration
	AdminTelegramID int64 // Optional operator chat for reconciled submissions
	LogLevel        string
	Environment     string
	HTTPTimeout     time.Duration
	SessionTTL      time.Duration

	CronSpecCatalogRefresh string
	CronSpecJournalPrune   string
	JournalRetentionDays   int

	WarrantyPolicyFile  string // Optional YAML override of the warranty table
	PromoHeadOfficeLink string
	LandingURL          string // Where retreating from the first step leads
	LookupURL           string // Public lookup page, parameterized by name and phone
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg, err := LoadRegistry()
	if err != nil {
		return nil, err
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}
	return cfg, nil
}

// LoadRegistry reads everything except the bot token. The one-shot CLI
// commands use it since they never start the bot.
func LoadRegistry() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.RegistryAPIURL = os.Getenv("REGISTRY_API_URL")
	if cfg.RegistryAPIURL == "" {
		return nil, fmt.Errorf("REGISTRY_API_URL is not set")
	}

	cfg.RegistryToken = os.Getenv("REGISTRY_API_TOKEN")
	if cfg.RegistryToken == "" {
		return nil, fmt.Errorf("REGISTRY_API_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DBMaxOpenConns, err = intEnv("DB_MAX_OPEN_CONNS", 10); err != nil {
		return nil, err
	}
	if cfg.DBMaxIdleConns, err = intEnv("DB_MAX_IDLE_CONNS", 5); err != nil {
		return nil, err
	}
	if cfg.DBConnLifetime, err = durationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute); err != nil {
		return nil, err
	}

	if adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID"); adminIDStr != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	if cfg.HTTPTimeout, err = durationEnv("HTTP_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = durationEnv("SESSION_TTL", 30*time.Minute); err != nil {
		return nil, err
	}

	cfg.CronSpecCatalogRefresh = os.Getenv("CRON_SPEC_CATALOG_REFRESH")
	if cfg.CronSpecCatalogRefresh == "" {
		cfg.CronSpecCatalogRefresh = "*/30 * * * *" // Default: every 30 minutes
	}
	cfg.CronSpecJournalPrune = os.Getenv("CRON_SPEC_JOURNAL_PRUNE")
	if cfg.CronSpecJournalPrune == "" {
		cfg.CronSpecJournalPrune = "0 4 * * *" // Default: 4 AM daily
	}

	if cfg.JournalRetentionDays, err = intEnv("JOURNAL_RETENTION_DAYS", 90); err != nil {
		return nil, err
	}

	cfg.WarrantyPolicyFile = os.Getenv("WARRANTY_POLICY_FILE")
	cfg.PromoHeadOfficeLink = os.Getenv("PROMO_HEAD_OFFICE_LINK")

	cfg.LandingURL = os.Getenv("LANDING_URL")
	if cfg.LandingURL == "" {
		cfg.LandingURL = "https://www.qualisports.kr"
	}
	cfg.LookupURL = os.Getenv("LOOKUP_URL")
	if cfg.LookupURL == "" {
		cfg.LookupURL = "./product_check.html"
	}

	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}
