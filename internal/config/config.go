package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration. The operator-editable feed
// and route aggregate is persisted in the store, not here.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Confluence ConfluenceConfig `mapstructure:"confluence"`
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	Feeds      FeedsConfig      `mapstructure:"feeds"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Tracker    TrackerConfig    `mapstructure:"tracker"`
}

// DatabaseConfig holds key-value store connection settings
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite, redis, sheets or memory
	DSN    string `mapstructure:"dsn"`    // File path for sqlite, redis:// URL for redis, spreadsheet ID for sheets
	Prefix string `mapstructure:"prefix"` // Key prefix (redis only)

	// The sheets driver keeps each key in one 50,000-character cell. The
	// processed-item ledger takes roughly 220 characters per record, so it
	// holds about 200 records inside the deduplication window; past that
	// every publish fails to record. Use sqlite or redis for busy feeds.
	//
	// Google credentials for the sheets driver. The tracker credentials are
	// used when both are empty.
	CredentialsFile    string `mapstructure:"credentials_file"`
	ServiceAccountJSON string `mapstructure:"service_account_json"`
}

// ConfluenceConfig holds wiki API settings
type ConfluenceConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Email       string        `mapstructure:"email"`
	APIToken    string        `mapstructure:"api_token"`
	AccessToken string        `mapstructure:"access_token"` // OAuth bearer, used instead of email + token when set
	Timeout     time.Duration `mapstructure:"timeout"`
}

// AnthropicConfig holds Claude API settings
type AnthropicConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// FeedsConfig holds feed fetching settings
type FeedsConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRedirects int           `mapstructure:"max_redirects"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// SchedulerConfig holds scheduler settings
type SchedulerConfig struct {
	Cron     string `mapstructure:"cron"`      // Overrides the stored schedule interval when set
	HTTPAddr string `mapstructure:"http_addr"` // Action surface and health endpoint
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	ConfluenceRequestsPerMinute int     `mapstructure:"confluence_requests_per_minute"`
	AnthropicRequestsPerMinute  int     `mapstructure:"anthropic_requests_per_minute"`
	FeedRequestsPerSecond       float64 `mapstructure:"feed_requests_per_second"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout or file path
}

// TrackerConfig holds Google Sheets tracker settings
type TrackerConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	SpreadsheetID      string `mapstructure:"spreadsheet_id"`
	SheetName          string `mapstructure:"sheet_name"`
	CredentialsFile    string `mapstructure:"credentials_file"`
	ServiceAccountJSON string `mapstructure:"service_account_json"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Load .env file if present (ignore errors if not found)
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".wikinews-agent"))
		}
	}

	v.SetEnvPrefix("WIKINEWS")
	v.AutomaticEnv()

	// Explicit bindings for nested keys (Viper doesn't auto-bind underscored nested keys)
	v.BindEnv("anthropic.api_key", "WIKINEWS_ANTHROPIC_API_KEY")
	v.BindEnv("confluence.base_url", "WIKINEWS_CONFLUENCE_BASE_URL")
	v.BindEnv("confluence.email", "WIKINEWS_CONFLUENCE_EMAIL")
	v.BindEnv("confluence.api_token", "WIKINEWS_CONFLUENCE_API_TOKEN")
	v.BindEnv("confluence.access_token", "WIKINEWS_CONFLUENCE_ACCESS_TOKEN")
	v.BindEnv("database.driver", "WIKINEWS_DATABASE_DRIVER")
	v.BindEnv("database.dsn", "WIKINEWS_DATABASE_DSN")
	v.BindEnv("database.service_account_json", "WIKINEWS_DATABASE_SERVICE_ACCOUNT_JSON")
	v.BindEnv("scheduler.cron", "WIKINEWS_SCHEDULER_CRON")
	v.BindEnv("scheduler.http_addr", "WIKINEWS_SCHEDULER_HTTP_ADDR")
	v.BindEnv("tracker.enabled", "WIKINEWS_TRACKER_ENABLED")
	v.BindEnv("tracker.spreadsheet_id", "WIKINEWS_TRACKER_SPREADSHEET_ID")
	v.BindEnv("tracker.credentials_file", "WIKINEWS_TRACKER_CREDENTIALS_FILE")
	v.BindEnv("tracker.service_account_json", "WIKINEWS_TRACKER_SERVICE_ACCOUNT_JSON")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/wikinews.db")
	v.SetDefault("database.prefix", "wikinews:")

	// Confluence defaults
	v.SetDefault("confluence.timeout", 30*time.Second)

	// Anthropic defaults
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.temperature", 0.3)

	// Feed defaults
	v.SetDefault("feeds.timeout", 10*time.Second)
	v.SetDefault("feeds.max_redirects", 5)
	v.SetDefault("feeds.user_agent", "wikinews-agent/1.0")

	// Scheduler defaults
	v.SetDefault("scheduler.cron", "")
	v.SetDefault("scheduler.http_addr", ":8080")

	// Rate limit defaults
	v.SetDefault("rate_limit.confluence_requests_per_minute", 60)
	v.SetDefault("rate_limit.anthropic_requests_per_minute", 10)
	v.SetDefault("rate_limit.feed_requests_per_second", 5.0)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")

	// Tracker defaults
	v.SetDefault("tracker.enabled", false)
	v.SetDefault("tracker.sheet_name", "Publications")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "redis", "memory":
	case "sheets":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn must hold the spreadsheet ID for the sheets driver")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite, redis, sheets or memory, got %q", c.Database.Driver)
	}
	if c.Confluence.BaseURL == "" {
		return fmt.Errorf("confluence.base_url is required")
	}
	if c.Confluence.AccessToken == "" && (c.Confluence.Email == "" || c.Confluence.APIToken == "") {
		return fmt.Errorf("confluence.email and confluence.api_token (or confluence.access_token) are required")
	}
	if c.Tracker.Enabled && c.Tracker.SpreadsheetID == "" {
		return fmt.Errorf("tracker.spreadsheet_id is required when the tracker is enabled")
	}
	return nil
}

// SummarizationAvailable reports whether an Anthropic key is configured
func (c *Config) SummarizationAvailable() bool {
	return c.Anthropic.APIKey != ""
}
