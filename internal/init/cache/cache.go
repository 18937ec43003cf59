package cache

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"

	"focusflow/config"
)

type Cache struct {
	Client                *redis.Client
	PreferencesExpiration time.Duration
}

func NewCache(cfg config.CacheConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		DB:       cfg.Db,
		Password: os.Getenv("REDIS_PASSWORD"),
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Cache{
		Client:                client,
		PreferencesExpiration: cfg.DefaultPreferencesCacheTtl,
	}, nil
}
