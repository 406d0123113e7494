package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/pkg/logger"
)

// HeaderXCorrelationID はリクエストを跨いで処理を追跡するためのヘッダー
const HeaderXCorrelationID = "X-Correlation-Id"

// RequestLogger はリクエストの構造化ログを出力するミドルウェア
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			req := c.Request()
			res := c.Response()

			// リクエスト処理
			err := next(c)
			if err != nil {
				// エラーハンドラーを先に実行してステータスを確定させる
				c.Error(err)
			}

			latency := time.Since(start)

			fields := []zap.Field{
				zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.String("query", req.URL.RawQuery),
				zap.Int("status", res.Status),
				zap.Int64("size", res.Size),
				zap.Duration("latency", latency),
				zap.String("remote_ip", c.RealIP()),
				zap.String("user_agent", req.UserAgent()),
			}

			log := logger.FromContext(c.Request().Context())
			switch {
			case err != nil && res.Status >= 500:
				log.Error("request failed", append(fields, zap.Error(err))...)
			case res.Status >= 500:
				log.Error("server error", fields...)
			case res.Status >= 400:
				if err != nil {
					fields = append(fields, zap.Error(err))
				}
				log.Warn("client error", fields...)
			default:
				log.Info("request completed", fields...)
			}

			return nil
		}
	}
}

// RequestIDMiddleware はリクエストIDと相関IDを付与するミドルウェア。
// 相関IDはリクエストのコンテキストに設定され、logger.FromContext のログに出力される
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = generateRequestID()
			}
			res.Header().Set(echo.HeaderXRequestID, requestID)

			correlationID := req.Header.Get(HeaderXCorrelationID)
			if correlationID == "" {
				correlationID = requestID
			}
			res.Header().Set(HeaderXCorrelationID, correlationID)
			c.SetRequest(req.WithContext(logger.WithCorrelationID(req.Context(), correlationID)))

			return next(c)
		}
	}
}

func generateRequestID() string {
	return uuid.NewString()
}
