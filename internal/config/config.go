package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported AI providers. All except "google" speak the OpenAI
// chat-completions protocol and differ only in base URL and model.
var validAIProviders = map[string]bool{
	"openai":     true,
	"local":      true,
	"google":     true,
	"groq":       true,
	"openrouter": true,
	"deepseek":   true,
}

// Config holds application configuration
type Config struct {
	Port         int
	DataDir      string
	DatabasePath string
	DevMode      bool

	BaseCurrencyCode string
	Timezone         string
	Location         *time.Location

	TelegramBotToken   string
	AllowedTelegramIDs string // comma-separated; empty allows everyone
	WebAppEnforce      bool

	AIProvider string
	AIAPIKey   string
	AIModel    string
	AIBaseURL  string

	BackupsDir     string
	BackupHour     int
	BackupMinute   int
	BackupS3Bucket string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	LogLevel  string
	LogPretty bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "data")

	cfg := &Config{
		Port:         getEnvAsInt("PORT", 8080),
		DataDir:      dataDir,
		DatabasePath: getEnv("DATABASE_PATH", filepath.Join(dataDir, "kassa.db")),
		DevMode:      getEnvAsBool("DEV_MODE", false),

		BaseCurrencyCode: strings.ToUpper(getEnv("BASE_CURRENCY_CODE", "UZS")),
		Timezone:         getEnv("TIMEZONE", "Asia/Bishkek"),

		TelegramBotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		AllowedTelegramIDs: getEnv("ALLOWED_TELEGRAM_IDS", ""),
		WebAppEnforce:      getEnvAsBool("TELEGRAM_WEBAPP_ENFORCE", false),

		AIProvider: getEnv("AI_PROVIDER", "openai"),
		AIAPIKey:   getEnv("AI_API_KEY", ""),

		BackupsDir:     getEnv("BACKUPS_DIR", "backups"),
		BackupHour:     getEnvAsInt("BACKUP_HOUR", 23),
		BackupMinute:   getEnvAsInt("BACKUP_MINUTE", 55),
		BackupS3Bucket: getEnv("BACKUP_S3_BUCKET", ""),

		AWSRegion:          getEnv("AWS_REGION", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),
	}

	cfg.AIModel = getEnv("AI_MODEL", defaultAIModel(cfg.AIProvider))
	cfg.AIBaseURL = getEnv("AI_BASE_URL", defaultAIBaseURL(cfg.AIProvider))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.BaseCurrencyCode == "" {
		return fmt.Errorf("BASE_CURRENCY_CODE is required")
	}
	if !validAIProviders[c.AIProvider] {
		return fmt.Errorf("AI_PROVIDER must be one of openai, local, google, groq, openrouter, deepseek; got %q", c.AIProvider)
	}
	if c.BackupHour < 0 || c.BackupHour > 23 {
		return fmt.Errorf("BACKUP_HOUR must be between 0 and 23, got %d", c.BackupHour)
	}
	if c.BackupMinute < 0 || c.BackupMinute > 59 {
		return fmt.Errorf("BACKUP_MINUTE must be between 0 and 59, got %d", c.BackupMinute)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("TIMEZONE %q is not a valid IANA zone: %w", c.Timezone, err)
	}
	c.Location = loc

	return nil
}

func defaultAIModel(provider string) string {
	switch provider {
	case "groq":
		return "llama-3.1-8b-instant"
	case "openrouter":
		return "openai/gpt-4.1-mini"
	case "deepseek":
		return "deepseek-chat"
	case "local":
		return "llama3.1:8b"
	case "google":
		return "gemini-2.0-flash"
	default:
		return "gpt-4o-mini"
	}
}

func defaultAIBaseURL(provider string) string {
	switch provider {
	case "groq":
		return "https://api.groq.com/openai/v1"
	case "openrouter":
		return "https://openrouter.ai/api/v1"
	case "deepseek":
		return "https://api.deepseek.com/v1"
	case "local":
		return "http://localhost:11434/v1"
	default:
		return "https://api.openai.com/v1"
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
