package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Calendar-day buckets for the sentiment trend are computed in this zone
	TimeZone string

	// Database configuration
	DatabaseDriver string // "memory", "sqlite" or "postgres"
	DatabaseURL    string

	// Sentiment classifier
	EnableSentimentAnalysis bool
	OpenAIAPIKey            string
	OpenAIBaseURL           string
	OpenAIModel             string
	ClassifierTimeout       time.Duration
	ClassifierRPS           float64
	ClassifierBurst         int

	// Collection
	DedupWindow     int
	TrendDays       int
	CollectSchedule string   // cron expression with seconds, empty disables
	DefaultQueries  []string // collected when no stored query is active

	// Alert when one collection run stores at least this many negative mentions, 0 disables
	NegativeAlertThreshold int

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string

	// Azure Storage configuration for report archives
	StorageAccount   string
	StorageContainer string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		Debug:    getBoolEnv("DEBUG", false),
		TimeZone: getEnv("TIMEZONE", "UTC"),

		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:    getEnv("DATABASE_URL", "./mentions.db"),

		EnableSentimentAnalysis: getBoolEnv("ENABLE_SENTIMENT_ANALYSIS", true),
		OpenAIAPIKey:            getEnv("OPENAI_API_KEY", getEnv("OPENAI_KEY", "")),
		OpenAIBaseURL:           getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:             getEnv("OPENAI_MODEL", "gpt-4o"),
		ClassifierTimeout:       getDurationEnv("CLASSIFIER_TIMEOUT", 20*time.Second),
		ClassifierRPS:           getFloatEnv("CLASSIFIER_RPS", 2),
		ClassifierBurst:         getIntEnv("CLASSIFIER_BURST", 5),

		DedupWindow:     getIntEnv("DEDUP_WINDOW", 1000),
		TrendDays:       getIntEnv("TREND_DAYS", 7),
		CollectSchedule: getEnv("COLLECT_SCHEDULE", ""),
		DefaultQueries:  getSliceEnv("DEFAULT_QUERIES", nil),

		NegativeAlertThreshold: getIntEnv("NEGATIVE_ALERT_THRESHOLD", 0),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "reports"),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration Load would produce with an empty
// environment, backed by the in-memory store.
func Default() *Config {
	return &Config{
		Port:                    "8080",
		TimeZone:                "UTC",
		DatabaseDriver:          "memory",
		EnableSentimentAnalysis: true,
		OpenAIBaseURL:           "https://api.openai.com/v1",
		OpenAIModel:             "gpt-4o",
		ClassifierTimeout:       20 * time.Second,
		ClassifierRPS:           2,
		ClassifierBurst:         5,
		DedupWindow:             1000,
		TrendDays:               7,
		SMTPPort:                587,
		StorageContainer:        "reports",
	}
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be 'memory', 'sqlite' or 'postgres'")
	}

	if c.DatabaseDriver != "memory" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for driver %s", c.DatabaseDriver)
	}

	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("TIMEZONE %q is not a known location: %w", c.TimeZone, err)
	}

	if c.ClassifierTimeout <= 0 {
		return fmt.Errorf("CLASSIFIER_TIMEOUT must be positive")
	}

	if c.ClassifierRPS <= 0 || c.ClassifierBurst <= 0 {
		return fmt.Errorf("CLASSIFIER_RPS and CLASSIFIER_BURST must be positive")
	}

	if c.DedupWindow <= 0 {
		return fmt.Errorf("DEDUP_WINDOW must be positive")
	}

	if c.NegativeAlertThreshold < 0 {
		return fmt.Errorf("NEGATIVE_ALERT_THRESHOLD must not be negative")
	}

	if c.TrendDays < 1 || c.TrendDays > 90 {
		return fmt.Errorf("TREND_DAYS must be between 1 and 90")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// Location returns the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
