package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/config"
	"github.com/jafarshop/ttsbridge/internal/domain"
)

// RedisShopCache shares resolved tenant configuration across instances
type RedisShopCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisClient connects to redis and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// NewRedisShopCache creates a shop cache on an existing client.
// The caller keeps ownership of the client.
func NewRedisShopCache(client *redis.Client, logger *zap.Logger) *RedisShopCache {
	return &RedisShopCache{
		client: client,
		logger: logger,
	}
}

func (c *RedisShopCache) Get(ctx context.Context, shopID string) (*domain.Shop, error) {
	key := shopKey(shopID)

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		c.logger.Error("Failed to get shop from cache", zap.String("shop_id", shopID), zap.Error(err))
		return nil, fmt.Errorf("failed to get shop from cache: %w", err)
	}

	var shop domain.Shop
	if err := json.Unmarshal(data, &shop); err != nil {
		c.logger.Warn("Dropping corrupted shop cache entry", zap.String("shop_id", shopID), zap.Error(err))
		_ = c.client.Del(ctx, key)
		return nil, nil
	}

	return &shop, nil
}

func (c *RedisShopCache) Set(ctx context.Context, shop *domain.Shop, ttl time.Duration) error {
	if shop == nil || ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(shop)
	if err != nil {
		return fmt.Errorf("failed to marshal shop: %w", err)
	}

	if err := c.client.Set(ctx, shopKey(shop.ID), data, ttl).Err(); err != nil {
		c.logger.Error("Failed to set shop in cache", zap.String("shop_id", shop.ID), zap.Error(err))
		return fmt.Errorf("failed to set shop in cache: %w", err)
	}

	return nil
}

func (c *RedisShopCache) Delete(ctx context.Context, shopID string) error {
	return c.client.Del(ctx, shopKey(shopID)).Err()
}
