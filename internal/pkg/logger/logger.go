package logger

import (
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName は全ログに付与するサービス名
const ServiceName = "bus-booking"

const envProduction = "production"

// Options はロガーの生成設定。Level が空の場合は環境ごとの既定レベルを使う
type Options struct {
	Env   string
	Level string
}

var current atomic.Pointer[zap.Logger]

func init() {
	current.Store(NewLogger("development"))
}

// New は設定からzapロガーを作成する。
// 本番環境はJSON出力でサンプリングを行わず、販売結果のログを間引かない
func New(opts Options) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if opts.Env == envProduction {
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if opts.Level != "" {
		level, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("ログレベル %q が不正です: %w", opts.Level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	return cfg.Build(zap.Fields(zap.String("service", ServiceName)))
}

// NewLogger は環境に応じたロガーを作成する。LOG_LEVEL でレベルを上書きでき、不正な値は無視する
func NewLogger(env string) *zap.Logger {
	opts := Options{Env: env, Level: os.Getenv("LOG_LEVEL")}
	l, err := New(opts)
	if err == nil {
		return l
	}

	opts.Level = ""
	l, fallbackErr := New(opts)
	if fallbackErr != nil {
		return zap.NewNop()
	}
	l.Warn("LOG_LEVELを無視しました", zap.Error(err))
	return l
}

func Get() *zap.Logger {
	return current.Load()
}

// Set はパッケージ全体で使うロガーを差し替える。並行するログ出力中に呼び出してよい
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	current.Store(l)
}

func Info(msg string, fields ...zap.Field)  { Get().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Get().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Get().Error(msg, fields...) }
func Debug(msg string, fields ...zap.Field) { Get().Debug(msg, fields...) }

func With(fields ...zap.Field) *zap.Logger {
	return Get().With(fields...)
}

func Sync() error {
	return Get().Sync()
}
