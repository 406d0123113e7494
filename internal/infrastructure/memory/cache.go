package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/cache"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Cache はプロセス内のTTL付きキャッシュ。Redisが利用できない場合に使用する
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewCache は新しいCacheインスタンスを作成する
func NewCache() *Cache {
	return NewCacheWithClock(time.Now)
}

// NewCacheWithClock は時刻取得関数を指定してCacheを作成する
func NewCacheWithClock(now func() time.Time) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     now,
	}
}

// Get はキャッシュから値を取得する。期限切れのエントリはミス扱い
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.expiresAt) {
		return nil, cache.ErrCacheMiss
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set は値を保存する。同一キーは後勝ち
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictExpiredLocked()
	c.entries[key] = entry{value: stored, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Len は保持しているエントリ数を返す（期限切れを含む）
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) evictExpiredLocked() {
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

var _ cache.Store = (*Cache)(nil)
