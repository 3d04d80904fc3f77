package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stolik/internal/config"
	"stolik/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisSlotCache keeps per (table, date) occupancy snapshots in Redis
// so the advisory availability endpoint does not hit SQLite on every
// poll. The coordinator invalidates a key after each committed admit
// or cancel; TTL bounds staleness when invalidation is missed.
type RedisSlotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisSlotCache(client *redis.Client, ttl time.Duration) *RedisSlotCache {
	if ttl <= 0 {
		ttl = models.DefaultSlotCacheTTL
	}
	return &RedisSlotCache{client: client, ttl: ttl}
}

func slotKey(tableID, date string) string {
	return fmt.Sprintf("slots:%s:%s", tableID, date)
}

// GetDay returns the cached occupancy, or (nil, nil) on a miss.
func (c *RedisSlotCache) GetDay(ctx context.Context, tableID, date string) ([]models.BookingWindow, error) {
	if c.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := c.client.Get(ctx, slotKey(tableID, date)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slots from redis: %w", err)
	}

	var windows []models.BookingWindow
	if err := json.Unmarshal([]byte(val), &windows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal slots: %w", err)
	}
	return windows, nil
}

func (c *RedisSlotCache) SetDay(ctx context.Context, tableID, date string, windows []models.BookingWindow) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if windows == nil {
		windows = []models.BookingWindow{}
	}
	data, err := json.Marshal(windows)
	if err != nil {
		return fmt.Errorf("failed to marshal slots: %w", err)
	}
	if err := c.client.Set(ctx, slotKey(tableID, date), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set slots in redis: %w", err)
	}
	return nil
}

func (c *RedisSlotCache) Invalidate(ctx context.Context, tableID, date string) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := c.client.Del(ctx, slotKey(tableID, date)).Err(); err != nil {
		return fmt.Errorf("failed to delete slots from redis: %w", err)
	}
	return nil
}
