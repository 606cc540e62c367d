package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestNewFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("AUTH_JWT_SECRET", "secret")

		cfg, err := NewFromEnv()
		require.NoError(t, err)

		assert.Equal(t, "data/shopping.db", cfg.DatabasePath)
		assert.Equal(t, DeviceStoreFile, cfg.DeviceStore)
		assert.Equal(t, "data/device", cfg.DeviceStorePath)
		assert.Equal(t, "localhost:6379", cfg.RedisAddr)
		assert.Equal(t, 400*time.Millisecond, cfg.PushDebounce)
		assert.Equal(t, 720*time.Hour, cfg.AuthTokenTTL)
		assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), cfg.BaseWeek)
		assert.Equal(t, language.Czech.String(), cfg.Collation.String())
		assert.Equal(t, "8080", cfg.Port)
		assert.Empty(t, cfg.PlanServerURL)
		assert.Empty(t, cfg.TelegramAllowedUserIDs)
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("AUTH_JWT_SECRET", "secret")
		t.Setenv("DEVICE_STORE", "redis")
		t.Setenv("REDIS_DB", "3")
		t.Setenv("PLAN_SERVER_URL", "http://plans.test/")
		t.Setenv("PUSH_DEBOUNCE", "1s")
		t.Setenv("BASE_WEEK", "2026-01-05")
		t.Setenv("COLLATION_LANG", "en")
		t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "1, 2,3")
		t.Setenv("ADMIN_TELEGRAM_ID", "2")
		t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")

		cfg, err := NewFromEnv()
		require.NoError(t, err)

		assert.Equal(t, DeviceStoreRedis, cfg.DeviceStore)
		assert.Equal(t, 3, cfg.RedisDB)
		assert.Equal(t, "http://plans.test", cfg.PlanServerURL)
		assert.Equal(t, time.Second, cfg.PushDebounce)
		assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), cfg.BaseWeek)
		assert.Equal(t, language.English.String(), cfg.Collation.String())
		assert.Equal(t, []int64{1, 2, 3}, cfg.TelegramAllowedUserIDs)
		assert.Equal(t, int64(2), cfg.AdminTelegramID)
		assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	})

	t.Run("MissingJWTSecret", func(t *testing.T) {
		t.Setenv("AUTH_JWT_SECRET", "")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Equal(t, "AUTH_JWT_SECRET environment variable not set", err.Error())
	})

	invalid := map[string][2]string{
		"BadDeviceStore": {"DEVICE_STORE", "floppy"},
		"BadDebounce":    {"PUSH_DEBOUNCE", "soon"},
		"BadBaseWeek":    {"BASE_WEEK", "2025-09-02"},
		"BadRedisDB":     {"REDIS_DB", "x"},
		"BadAllowedIDs":  {"TELEGRAM_ALLOWED_USER_IDS", "1,abc"},
		"BadAdminID":     {"ADMIN_TELEGRAM_ID", "admin"},
	}
	for name, kv := range invalid {
		t.Run(name, func(t *testing.T) {
			t.Setenv("AUTH_JWT_SECRET", "secret")
			t.Setenv(kv[0], kv[1])

			_, err := NewFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), kv[0])
		})
	}
}
