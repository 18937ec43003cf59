package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"focusflow/internal/init/cache"
	"focusflow/internal/modules/reminder"
)

// PreferenceCache keeps hot preference rows out of the dispatch sweep's way.
type PreferenceCache struct {
	rdb *redis.Client
	log *slog.Logger
	ttl time.Duration
}

func NewPreferenceCache(appCache *cache.Cache, log *slog.Logger) *PreferenceCache {
	return &PreferenceCache{
		rdb: appCache.Client,
		log: log,
		ttl: appCache.PreferencesExpiration,
	}
}

func (c *PreferenceCache) preferencesKey(userID uint) string {
	return fmt.Sprintf("reminder:prefs:%d", userID)
}

func (c *PreferenceCache) GetPreferences(userID uint) (*reminder.Preferences, error) {
	op := "PreferenceCache.GetPreferences"
	key := c.preferencesKey(userID)
	log := c.log.With(slog.String("op", op), slog.String("key", key))

	val, err := c.rdb.Get(context.Background(), key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, reminder.ErrPreferencesNotFound
		}
		log.Error("failed to get preferences from cache", "error", err)
		return nil, reminder.ErrReminderInternal
	}

	var prefs reminder.Preferences
	if err := json.Unmarshal(val, &prefs); err != nil {
		log.Error("failed to unmarshal preferences from cache", "error", err)
		_ = c.rdb.Del(context.Background(), key)
		return nil, reminder.ErrReminderInternal
	}

	log.Debug("preferences retrieved from cache")
	return &prefs, nil
}

func (c *PreferenceCache) SavePreferences(prefs *reminder.Preferences) error {
	op := "PreferenceCache.SavePreferences"
	key := c.preferencesKey(prefs.UserID)
	log := c.log.With(slog.String("op", op), slog.String("key", key))

	data, err := json.Marshal(prefs)
	if err != nil {
		log.Error("failed to marshal preferences for cache", "error", err)
		return reminder.ErrReminderInternal
	}

	if err := c.rdb.Set(context.Background(), key, data, c.ttl).Err(); err != nil {
		log.Error("failed to save preferences to cache", "error", err)
		return reminder.ErrReminderInternal
	}

	return nil
}

func (c *PreferenceCache) InvalidatePreferences(userID uint) error {
	op := "PreferenceCache.InvalidatePreferences"
	key := c.preferencesKey(userID)
	log := c.log.With(slog.String("op", op), slog.String("key", key))

	if err := c.rdb.Del(context.Background(), key).Err(); err != nil {
		log.Error("failed to invalidate preferences cache", "error", err)
		return reminder.ErrReminderInternal
	}

	return nil
}
