package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("キャッシュが見つかりません")

// Store はTTL付きのキーバリューキャッシュ
type Store interface {
	// Get はキーに対応する値を返す。存在しない場合は ErrCacheMiss
	Get(ctx context.Context, key string) ([]byte, error)
	// Set は値を保存する。ttl経過後に失効する（絶対期限）
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
