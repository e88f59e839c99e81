package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/vocala/pkg/models"
)

// Default values for the learning system settings
const (
	DefaultDailyWordCount       = 5
	DefaultMaxWordCount         = 15
	DefaultLLMMaxRetries        = 3
	DefaultLLMRequestTimeout    = 30 * time.Second
	DefaultNotionRequestTimeout = 15 * time.Second
	DefaultNotificationHour     = 9

	// DefaultTelegramEndpoint is the Bot API URL template, overridable for
	// self-hosted Bot API servers
	DefaultTelegramEndpoint = "https://api.telegram.org/bot%s/%s"
)

// DefaultSRSIntervals is the review interval table in days, used when
// SRS_INTERVALS is not set. The table must be strictly ascending.
var DefaultSRSIntervals = []int{1, 3, 7, 14, 30, 90}

// LapsePolicy controls what an incorrect review does to the interval index
type LapsePolicy string

const (
	// LapseReset moves the word back to the first interval
	LapseReset LapsePolicy = "reset"
	// LapseDecrement moves the word back by a single interval step
	LapseDecrement LapsePolicy = "decrement"
)

// Config holds all application settings, populated from environment
// variables (optionally via a .env file)
type Config struct {
	TelegramToken    string
	TelegramEndpoint string
	AdminUserIDs     []int64

	DBType      string // "sqlite" or "postgres"
	DatabaseURL string // postgres DSN, ignored for sqlite
	SQLitePath  string

	LLMProvider       string // "openai" or "google"
	OpenAIAPIKey      string
	OpenAIModel       string
	GoogleAIAPIKey    string
	GoogleAIModel     string
	LLMMaxRetries     int
	LLMRequestTimeout time.Duration

	NotionRequestTimeout time.Duration

	DailyWordCount int
	MaxWordCount   int
	DefaultLevel   models.Level
	SRSIntervals   []int
	SRSLapsePolicy LapsePolicy
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first if present.
func Load() (*Config, error) {
	// Missing .env is fine, real deployments set variables directly
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:        os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramEndpoint:     getEnv("TELEGRAM_API_ENDPOINT", DefaultTelegramEndpoint),
		DBType:               getEnv("DB_TYPE", "sqlite"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		SQLitePath:           getEnv("SQLITE_PATH", "data/vocala.db"),
		LLMProvider:          getEnv("LLM_PROVIDER", "openai"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:          getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		GoogleAIAPIKey:       os.Getenv("GOOGLE_AI_API_KEY"),
		GoogleAIModel:        getEnv("GOOGLE_AI_MODEL", "gemini-pro"),
		LLMMaxRetries:        getEnvInt("LLM_MAX_RETRIES", DefaultLLMMaxRetries),
		LLMRequestTimeout:    time.Duration(getEnvInt("LLM_REQUEST_TIMEOUT", int(DefaultLLMRequestTimeout.Seconds()))) * time.Second,
		NotionRequestTimeout: time.Duration(getEnvInt("NOTION_REQUEST_TIMEOUT", int(DefaultNotionRequestTimeout.Seconds()))) * time.Second,
		DailyWordCount:       getEnvInt("DAILY_WORD_COUNT", DefaultDailyWordCount),
		MaxWordCount:         getEnvInt("MAX_WORD_COUNT", DefaultMaxWordCount),
		DefaultLevel:         models.Level(getEnv("OXFORD_3000_DIFFICULTY", string(models.LevelB1))),
		SRSLapsePolicy:       LapsePolicy(getEnv("SRS_LAPSE_POLICY", string(LapseReset))),
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	if !cfg.DefaultLevel.Valid() {
		return nil, fmt.Errorf("invalid OXFORD_3000_DIFFICULTY: %q", cfg.DefaultLevel)
	}
	if cfg.SRSLapsePolicy != LapseReset && cfg.SRSLapsePolicy != LapseDecrement {
		return nil, fmt.Errorf("invalid SRS_LAPSE_POLICY: %q", cfg.SRSLapsePolicy)
	}
	if cfg.DailyWordCount < 1 || cfg.DailyWordCount > cfg.MaxWordCount {
		return nil, fmt.Errorf("DAILY_WORD_COUNT must be between 1 and %d", cfg.MaxWordCount)
	}

	intervals, err := parseIntervals(os.Getenv("SRS_INTERVALS"))
	if err != nil {
		return nil, err
	}
	cfg.SRSIntervals = intervals

	admins, err := parseAdminIDs(os.Getenv("ADMIN_USER_IDS"))
	if err != nil {
		return nil, err
	}
	cfg.AdminUserIDs = admins

	return cfg, nil
}

// parseIntervals parses a comma-separated day list and checks that it is
// strictly ascending and positive
func parseIntervals(raw string) ([]int, error) {
	if raw == "" {
		return append([]int(nil), DefaultSRSIntervals...), nil
	}
	parts := strings.Split(raw, ",")
	intervals := make([]int, 0, len(parts))
	prev := 0
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid SRS_INTERVALS entry %q: %v", p, err)
		}
		if d <= prev {
			return nil, fmt.Errorf("SRS_INTERVALS must be strictly ascending and positive, got %q", raw)
		}
		intervals = append(intervals, d)
		prev = d
	}
	return intervals, nil
}

func parseAdminIDs(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	for _, p := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_USER_IDS entry %q: %v", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
