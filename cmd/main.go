package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/be-saavy/notification-timing/internal/config"
	"github.com/be-saavy/notification-timing/internal/dispatch"
	"github.com/be-saavy/notification-timing/internal/domain"
	"github.com/be-saavy/notification-timing/internal/handler"
	"github.com/be-saavy/notification-timing/internal/health"
	"github.com/be-saavy/notification-timing/internal/infra/delivery"
	"github.com/be-saavy/notification-timing/internal/infra/repository"
	"github.com/be-saavy/notification-timing/internal/observability"
	"github.com/be-saavy/notification-timing/internal/observability/metrics"
	"github.com/be-saavy/notification-timing/internal/service/delay"
	"github.com/be-saavy/notification-timing/internal/service/learning"
	"github.com/be-saavy/notification-timing/internal/service/predict"
	"github.com/be-saavy/notification-timing/internal/service/schedule"
)

// Version is set via ldflags at build time
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}

	if err := config.ValidateForRun(cfg); err != nil {
		slog.Error("configuration validation error", slog.String("error", err.Error()))
		return 1
	}

	serviceName := os.Getenv("SERVICE_NAME")
	if serviceName == "" {
		serviceName = "notification-timing"
	}

	obs, err := observability.Init(ctx, observability.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		LogLevel:       cfg.LogLevel,
	})
	if err != nil {
		slog.Error("failed to initialize observability", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("observability shutdown error", slog.String("error", err.Error()))
		}
	}()

	slog.SetDefault(obs.Logger())

	timingMetrics, err := metrics.NewTimingMetrics()
	if err != nil {
		slog.Error("failed to initialize timing metrics", slog.String("error", err.Error()))
		return 1
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		slog.Error("failed to instrument redis tracing",
			slog.String("event", "redis.otel.tracing.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		slog.Error("failed to instrument redis metrics",
			slog.String("event", "redis.otel.metrics.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect redis",
			slog.String("event", "redis.connect.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	defer func() {
		if err := redisClient.Close(); err != nil {
			slog.Warn("failed to close redis client", slog.String("error", err.Error()))
		}
	}()

	slog.Info("redis connected",
		slog.String("addr", cfg.Redis.Addr),
	)

	profileRepo := repository.NewProfileRepository(redisClient)
	pendingRepo := repository.NewPendingRepository(redisClient)

	var deliveryClient domain.DeliveryClient
	if cfg.Delivery.PushGatewayURL != "" {
		deliveryClient = delivery.NewPushGatewayClient(cfg.Delivery.PushGatewayURL, cfg.Delivery.MaxRetries)
		slog.Info("push gateway client initialized",
			slog.String("url", cfg.Delivery.PushGatewayURL),
		)
	} else {
		slog.Warn("PUSH_GATEWAY_URL not set, using noop delivery client")
		deliveryClient = delivery.NewNoopClient()
	}

	scheduler := schedule.NewService(
		profileRepo,
		pendingRepo,
		deliveryClient,
		predict.NewPredictor(),
		delay.NewArbiter(),
		learning.NewUpdater(cfg.Timing.SmoothingOldWeight),
		timingMetrics,
	).WithDigestHour(cfg.Timing.DigestHour)

	runner := dispatch.NewRunner(scheduler, pendingRepo)
	if err := runner.Start(ctx); err != nil {
		slog.Error("failed to start dispatch runner", slog.String("error", err.Error()))
		return 1
	}
	defer runner.Stop()

	notificationHandler := handler.NewNotificationHandler(scheduler)
	profileHandler := handler.NewProfileHandler(scheduler)

	r := gin.New()
	r.Use(gin.Recovery())

	healthChecker := health.NewChecker(Version).
		AddCheck("redis", health.RedisCheck(redisClient))
	r.GET("/health/live", healthChecker.LiveHandler())
	r.GET("/health/ready", healthChecker.ReadyHandler())
	r.GET("/health", healthChecker.ReadyHandler())

	v1 := r.Group("/api/v1")
	{
		v1.POST("/notifications/schedule", notificationHandler.HandleSchedule)
		v1.POST("/notifications/critical", notificationHandler.HandleCritical)
		v1.GET("/notifications/pending", notificationHandler.HandlePending)
		v1.DELETE("/notifications/:id", notificationHandler.HandleCancel)
		v1.GET("/predict", notificationHandler.HandlePredict)
		v1.POST("/behavior/usage", profileHandler.HandleAppUsage)
		v1.POST("/behavior/response", profileHandler.HandleNotificationResponse)
		v1.PUT("/behavior/context", profileHandler.HandleUpdateContextualFactors)
		v1.GET("/preferences", profileHandler.HandleGetPreferences)
		v1.PUT("/preferences", profileHandler.HandleUpdatePreferences)
		v1.GET("/baby-schedule", profileHandler.HandleGetBabySchedule)
		v1.PUT("/baby-schedule", profileHandler.HandleUpdateBabySchedule)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Port),
			slog.Int("digest_hour", cfg.Timing.DigestHour),
			slog.Float64("smoothing_old_weight", cfg.Timing.SmoothingOldWeight),
		)
		serverErr <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown server", slog.String("error", err.Error()))
			return 1
		}

		slog.Info("server exited properly")
		return 0

	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return 0
		}
		slog.Error("server exited with error", slog.String("error", err.Error()))
		return 1
	}
}
