package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/qtrack-api/internal/config"
	"github.com/jwalitptl/qtrack-api/internal/handler"
	directoryHandler "github.com/jwalitptl/qtrack-api/internal/handler/directory"
	notificationHandler "github.com/jwalitptl/qtrack-api/internal/handler/notification"
	tokenHandler "github.com/jwalitptl/qtrack-api/internal/handler/token"
	"github.com/jwalitptl/qtrack-api/internal/middleware"
	"github.com/jwalitptl/qtrack-api/internal/repository/postgres"
	"github.com/jwalitptl/qtrack-api/internal/router"
	auditService "github.com/jwalitptl/qtrack-api/internal/service/audit"
	directoryService "github.com/jwalitptl/qtrack-api/internal/service/directory"
	notificationService "github.com/jwalitptl/qtrack-api/internal/service/notification"
	tokenService "github.com/jwalitptl/qtrack-api/internal/service/token"
	"github.com/jwalitptl/qtrack-api/pkg/auth"
	"github.com/jwalitptl/qtrack-api/pkg/logger"
	"github.com/jwalitptl/qtrack-api/pkg/messaging/redis"
	"github.com/jwalitptl/qtrack-api/pkg/metrics"
	"github.com/jwalitptl/qtrack-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	tokenRepo := postgres.NewTokenRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	directoryRepo := postgres.NewDirectoryRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	appMetrics := metrics.New("qtrack")

	auditSvc := auditService.NewService(auditRepo)
	directorySvc := directoryService.NewService(directoryRepo, directoryService.DefaultConfig())
	notificationSvc := notificationService.NewService(notificationRepo)
	tokenSvc := tokenService.NewService(tokenRepo, outboxRepo, notificationSvc, directorySvc, auditSvc, appMetrics)

	verifier := auth.NewVerifier(cfg.JWT.Secret)

	h := handler.NewHandler()
	tokenH := tokenHandler.NewHandler(tokenSvc)
	notificationH := notificationHandler.NewHandler(notificationSvc)
	directoryH := directoryHandler.NewHandler(directorySvc)

	r := router.NewRouter(
		tokenH,
		notificationH,
		directoryH,
		h,
		verifier,
		appLogger,
		router.RouterConfig{
			RateLimit:     rate.Limit(cfg.RateLimit.RPS),
			RateBurst:     cfg.RateLimit.Burst,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "qtrack_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker, err := redis.NewRedisBroker(redis.Config{URL: cfg.Redis.URL}, &appLogger.ZL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	outboxProcessor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:     cfg.Outbox.BatchSize,
			PollInterval:  cfg.Outbox.PollInterval,
			RetryAttempts: cfg.Outbox.RetryAttempts,
			RetryDelay:    cfg.Outbox.RetryDelay,
		},
		appLogger,
		appMetrics,
	)
	go outboxProcessor.Start(ctx)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
