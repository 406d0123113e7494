package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/api"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/api/handler"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/api/middleware"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/application"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/config"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/cache"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/pricing"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/infrastructure/memory"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/infrastructure/payment"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/pkg/metrics"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/worker"
)

func main() {
	cfg := config.Load()
	logger.Set(logger.NewLogger(cfg.App.Env))
	defer func() { _ = logger.Sync() }()

	if err := run(cfg); err != nil {
		logger.Error("アプリケーション異常終了", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	m := metrics.Init()

	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.RunMigrations(db.DB, cfg.App.MigrationsPath); err != nil {
		return err
	}
	logger.Info("マイグレーション完了", zap.String("path", cfg.App.MigrationsPath))

	store, redisClient := newSearchCache(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	journeyRepo := postgres.NewJourneyRepository(db)
	seatRepo := postgres.NewSeatRepository(db)
	ticketRepo := postgres.NewTicketRepository(db)
	stationRepo := postgres.NewStationRepository(db)
	txManager := postgres.NewTxManager(db)
	registry := pricing.NewRegistry(pricing.DefaultStrategies()...)

	journeyService := application.NewJourneyService(journeyRepo, seatRepo, stationRepo, registry,
		application.WithSearchCache(store, cfg.Cache.SearchTTL),
		application.WithJourneyMetrics(m),
	)
	bookingService := application.NewBookingService(txManager, journeyRepo, seatRepo, ticketRepo, registry,
		payment.NewSimulatedGateway(cfg.Booking.PaymentFailureRate),
		application.WithBookingMetrics(m),
	)

	e := newServer(cfg, m, db, redisClient, journeyService, bookingService)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var warmer *worker.SeatMapWarmer
	if cfg.Worker.SeatMapWarmerEnabled {
		warmer = worker.NewSeatMapWarmer(journeyRepo, journeyService,
			cfg.Worker.SeatMapWarmerInterval, cfg.Worker.SeatMapWarmerHorizon)
		go warmer.Start(ctx)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("サーバー起動", zap.String("port", cfg.Server.Port), zap.String("env", cfg.App.Env))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("サーバー起動エラー: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return err
	}

	logger.Info("サーバーをシャットダウンしています...")
	if warmer != nil {
		warmer.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーシャットダウンエラー: %w", err)
	}

	logger.Info("サーバーが正常にシャットダウンしました")
	return nil
}

// newSearchCache は設定に応じて検索キャッシュを作成する。Redisに接続できない場合はメモリキャッシュを使う
func newSearchCache(cfg *config.Config) (cache.Store, *goredis.Client) {
	if cfg.Cache.Driver == config.CacheDriverMemory {
		logger.Info("検索キャッシュ: メモリ")
		return memory.NewCache(), nil
	}

	client, err := redis.NewClient(&redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Warn("Redisに接続できないためメモリキャッシュを使用します", zap.Error(err))
		return memory.NewCache(), nil
	}
	logger.Info("検索キャッシュ: Redis", zap.String("host", cfg.Redis.Host))
	return redis.NewCache(client), client
}

func newServer(
	cfg *config.Config,
	m *metrics.Metrics,
	db *sqlx.DB,
	redisClient *goredis.Client,
	journeyService *application.JourneyService,
	bookingService *application.BookingService,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	e.Validator = api.NewValidator()

	middleware.SetupMiddleware(e, m)

	checks := map[string]handler.Pinger{
		"postgres": func(ctx context.Context) error { return postgres.Ping(ctx, db) },
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redis.Ping(ctx, redisClient) }
	}
	healthHandler := handler.NewHealthHandler(checks)
	journeyHandler := handler.NewJourneyHandler(journeyService)
	stationHandler := handler.NewStationHandler(journeyService)
	ticketHandler := handler.NewTicketHandler(bookingService)

	e.GET("/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{})),
		middleware.MetricsBasicAuth(middleware.MetricsConfig{
			User:     cfg.App.MetricsUser,
			Password: cfg.App.MetricsPassword,
		}))

	v1 := e.Group("/api/v1")
	v1.GET("/stations", stationHandler.List)
	v1.GET("/journeys", journeyHandler.Search)
	v1.GET("/journeys/:id", journeyHandler.GetByID)
	v1.GET("/journeys/:id/seats", journeyHandler.GetSeats)
	v1.POST("/tickets/checkout", ticketHandler.Checkout)
	v1.GET("/tickets/:code", ticketHandler.GetByCode)

	return e
}
