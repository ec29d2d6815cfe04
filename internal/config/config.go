package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/val3riia/languagemirror-bot/internal/errors"
)

// BotMode selects how Telegram updates are delivered.
type BotMode string

const (
	ModePolling BotMode = "polling"
	ModeWebhook BotMode = "webhook"
)

// Config represents the complete application configuration
type Config struct {
	Telegram TelegramConfig
	AI       AIConfig
	Database DatabaseConfig
	Server   ServerConfig
	Limits   LimitConfig
	Reports  ReportConfig
}

// TelegramConfig holds messaging transport settings
type TelegramConfig struct {
	Token      string
	Mode       BotMode
	WebhookURL string
	AdminIDs   []int64
}

// AIConfig holds completion service settings
type AIConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	Temperature    float64
	RequestTimeout time.Duration
	MaxConcurrent  int64
}

// DatabaseConfig holds persistence settings. URL empty means in-memory mode.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds admin HTTP server settings
type ServerConfig struct {
	Port string
}

// LimitConfig holds session and usage policy knobs
type LimitConfig struct {
	MaxDailyDiscussions int
	SessionTimeout      time.Duration
	HistoryWindow       int
	MinFeedbackWords    int
}

// ReportConfig holds report export settings
type ReportConfig struct {
	Dir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Telegram: TelegramConfig{
			Token:      os.Getenv("TELEGRAM_TOKEN"),
			Mode:       BotMode(getEnvOrDefault("BOT_MODE", string(ModePolling))),
			WebhookURL: os.Getenv("WEBHOOK_URL"),
			AdminIDs:   parseAdminIDs(os.Getenv("ADMIN_IDS")),
		},
		AI: AIConfig{
			APIKey:         os.Getenv("OPENROUTER_API_KEY"),
			BaseURL:        getEnvOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			Model:          getEnvOrDefault("OPENROUTER_MODEL", "deepseek/deepseek-r1-0528:free"),
			MaxTokens:      getEnvIntOrDefault("AI_MAX_TOKENS", 200),
			Temperature:    getEnvFloatOrDefault("AI_TEMPERATURE", 0.7),
			RequestTimeout: getEnvDurationOrDefault("AI_REQUEST_TIMEOUT", 60*time.Second),
			MaxConcurrent:  int64(getEnvIntOrDefault("AI_MAX_CONCURRENT", 8)),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "5000"),
		},
		Limits: LimitConfig{
			MaxDailyDiscussions: getEnvIntOrDefault("MAX_DAILY_DISCUSSIONS", 5),
			SessionTimeout:      getEnvDurationOrDefault("SESSION_TIMEOUT", 30*time.Minute),
			HistoryWindow:       getEnvIntOrDefault("HISTORY_WINDOW", 20),
			MinFeedbackWords:    getEnvIntOrDefault("MIN_FEEDBACK_WORDS", 3),
		},
		Reports: ReportConfig{
			Dir: getEnvOrDefault("REPORTS_DIR", "reports"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Telegram.Token == "" {
		return errors.ConfigInvalid("TELEGRAM_TOKEN is required")
	}
	switch cfg.Telegram.Mode {
	case ModePolling:
	case ModeWebhook:
		if cfg.Telegram.WebhookURL == "" {
			return errors.ConfigInvalid("WEBHOOK_URL is required when BOT_MODE=webhook")
		}
	default:
		return errors.ConfigInvalid("BOT_MODE must be 'polling' or 'webhook'")
	}
	if cfg.Limits.MaxDailyDiscussions <= 0 {
		return errors.ConfigInvalid("MAX_DAILY_DISCUSSIONS must be positive")
	}
	if cfg.Limits.SessionTimeout <= 0 {
		return errors.ConfigInvalid("SESSION_TIMEOUT must be positive")
	}
	return nil
}

// IsAdmin reports whether the Telegram user ID is configured as an admin.
func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.Telegram.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

func parseAdminIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloatOrDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDurationOrDefault(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
