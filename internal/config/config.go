package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"shopping-planner/internal/week"
)

// Device store backends.
const (
	DeviceStoreFile   = "file"
	DeviceStoreRedis  = "redis"
	DeviceStoreMemory = "memory"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath string

	// Device store
	DeviceStore     string
	DeviceStorePath string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	// Sync
	PlanServerURL string
	PushDebounce  time.Duration
	BaseWeek      time.Time
	Collation     language.Tag

	// Auth
	AuthJWTSecret string
	AuthTokenTTL  time.Duration

	// Plan server
	Port               string
	CORSAllowedOrigins []string

	// Ghost Config
	GhostURL        string
	GhostContentKey string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET environment variable not set")
	}

	cfg := &Config{
		DatabasePath:       getenv("DATABASE_PATH", "data/shopping.db"),
		DeviceStore:        getenv("DEVICE_STORE", DeviceStoreFile),
		DeviceStorePath:    getenv("DEVICE_STORE_PATH", "data/device"),
		RedisAddr:          getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		PlanServerURL:      strings.TrimRight(os.Getenv("PLAN_SERVER_URL"), "/"),
		AuthJWTSecret:      secret,
		Port:               getenv("PORT", "8080"),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		GhostURL:           os.Getenv("GHOST_API_URL"),
		GhostContentKey:    os.Getenv("GHOST_CONTENT_API_KEY"),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
	}

	switch cfg.DeviceStore {
	case DeviceStoreFile, DeviceStoreRedis, DeviceStoreMemory:
	default:
		return nil, fmt.Errorf("DEVICE_STORE must be one of file, redis, memory, got %q", cfg.DeviceStore)
	}

	var err error
	if v := os.Getenv("REDIS_DB"); v != "" {
		if cfg.RedisDB, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
	}
	if cfg.PushDebounce, err = time.ParseDuration(getenv("PUSH_DEBOUNCE", "400ms")); err != nil {
		return nil, fmt.Errorf("invalid PUSH_DEBOUNCE: %w", err)
	}
	if cfg.AuthTokenTTL, err = time.ParseDuration(getenv("AUTH_TOKEN_TTL", "720h")); err != nil {
		return nil, fmt.Errorf("invalid AUTH_TOKEN_TTL: %w", err)
	}

	base, err := week.ParseKey(getenv("BASE_WEEK", "2025-09-01"))
	if err != nil {
		return nil, fmt.Errorf("invalid BASE_WEEK: %w", err)
	}
	cfg.BaseWeek = base.Start()

	if cfg.Collation, err = language.Parse(getenv("COLLATION_LANG", "cs")); err != nil {
		return nil, fmt.Errorf("invalid COLLATION_LANG: %w", err)
	}

	for _, s := range splitList(os.Getenv("TELEGRAM_ALLOWED_USER_IDS")) {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS entry %q: %w", s, err)
		}
		cfg.TelegramAllowedUserIDs = append(cfg.TelegramAllowedUserIDs, id)
	}
	if v := os.Getenv("ADMIN_TELEGRAM_ID"); v != "" {
		if cfg.AdminTelegramID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
