package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"nutrisnap-backend/internal/infrastructure/config"
	"nutrisnap-backend/internal/pkg/common"
)

// Cache AI 估算結果快取
type Cache struct {
	client *redis.Client
	config *config.CacheConfig
}

// NewCache 創建估算快取，未啟用時回傳可安全呼叫的空快取
func NewCache(cfg *config.CacheConfig) (*Cache, error) {
	if !cfg.Enabled {
		return &Cache{config: cfg}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{
		client: client,
		config: cfg,
	}, nil
}

// GetEstimate 讀取估算快取
func (c *Cache) GetEstimate(ctx context.Context, name string) (*common.NutritionEstimate, error) {
	if !c.config.Enabled || c.client == nil {
		return nil, common.ErrCacheDisabled
	}

	data, err := c.client.Get(ctx, c.key(name)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("cache miss")
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}

	var estimate common.NutritionEstimate
	if err := json.Unmarshal(data, &estimate); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache: %w", err)
	}
	return &estimate, nil
}

// SetEstimate 寫入估算快取
func (c *Cache) SetEstimate(ctx context.Context, name string, estimate *common.NutritionEstimate) error {
	if !c.config.Enabled || c.client == nil {
		return nil
	}

	data, err := json.Marshal(estimate)
	if err != nil {
		return fmt.Errorf("failed to marshal estimate: %w", err)
	}

	if err := c.client.Set(ctx, c.key(name), data, c.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Ping 檢查快取連線，供健康檢查使用
func (c *Cache) Ping(ctx context.Context) error {
	if !c.config.Enabled || c.client == nil {
		return common.ErrCacheDisabled
	}
	return c.client.Ping(ctx).Err()
}

// Enabled 快取是否啟用
func (c *Cache) Enabled() bool {
	return c.config.Enabled && c.client != nil
}

// Close 關閉底層連線
func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Cache) key(name string) string {
	return fmt.Sprintf("ai:estimate:%s", name)
}
