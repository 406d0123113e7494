package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/cache"
)

// Cache はRedisを使用したキャッシュ
type Cache struct {
	client redis.Cmdable
}

// NewCache は新しいCacheインスタンスを作成する
func NewCache(client redis.Cmdable) *Cache {
	return &Cache{client: client}
}

// Get はキャッシュから値を取得する
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cache.ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// Set は値をTTL付きで保存する（SET key value EX ttl）
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Delete はキャッシュを無効化する
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

var _ cache.Store = (*Cache)(nil)
