package logger

import (
	"context"

	"go.uber.org/zap"
)

type correlationIDKey struct{}

// WithCorrelationID は相関IDをコンテキストに設定する
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationID はコンテキストから相関IDを取り出す
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// FromContext は相関IDを付与したロガーを返す
func FromContext(ctx context.Context) *zap.Logger {
	if id := CorrelationID(ctx); id != "" {
		return Get().With(zap.String("correlation_id", id))
	}
	return Get()
}
