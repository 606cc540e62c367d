package app

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"shopping-planner/internal/config"
	"shopping-planner/internal/storage"
)

// OpenDeviceStore opens the device store backend selected by cfg. The returned close
// function releases it.
func OpenDeviceStore(ctx context.Context, cfg *config.Config) (storage.KV, func() error, error) {
	noop := func() error { return nil }

	switch cfg.DeviceStore {
	case config.DeviceStoreMemory:
		return storage.NewMemoryStore(), noop, nil
	case config.DeviceStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store, err := storage.NewRedisStore(ctx, client)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.DeviceStoreFile, "":
		store, err := storage.NewFileStore(cfg.DeviceStorePath)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	}
	return nil, nil, fmt.Errorf("unknown device store %q", cfg.DeviceStore)
}
