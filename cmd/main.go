package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/eaglebank/transaction-api/internal/command"
	"github.com/eaglebank/transaction-api/internal/config"
	"github.com/eaglebank/transaction-api/internal/database"
	"github.com/eaglebank/transaction-api/internal/handler"
	"github.com/eaglebank/transaction-api/internal/lifecycle"
	"github.com/eaglebank/transaction-api/internal/query"
	"github.com/eaglebank/transaction-api/internal/repository"
	"github.com/eaglebank/transaction-api/shared/events"
	"github.com/eaglebank/transaction-api/shared/logger"
	"github.com/eaglebank/transaction-api/shared/middleware"
	redisClient "github.com/eaglebank/transaction-api/shared/redis"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Error("transaction service stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := lifecycle.NotifyContext(context.Background())
	defer stop()

	shutdown := lifecycle.New(cfg.ShutdownTimeout, log)
	defer func() {
		if err := shutdown.Shutdown(context.Background()); err != nil {
			log.Error("shutdown finished with errors", zap.Error(err))
		}
	}()

	// Database connection
	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(cfg.Database.URL, log); err != nil {
			return err
		}
	}
	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	shutdown.Register("postgres", func(context.Context) error { return db.Close() })

	// Redis connection
	redis, err := redisClient.NewClient(ctx, redisClient.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	shutdown.Register("redis", redis.Shutdown)

	publisher, err := newPublisher(cfg, redis, shutdown, log)
	if err != nil {
		return err
	}

	if cfg.Events.AuditEnabled {
		startAuditSubscriber(ctx, cfg, redis, shutdown, log)
	}

	// CQRS: write repo, read repo backed by the Redis view cache
	writeRepo := repository.NewTransactionWriteRepository(db)
	readRepo := repository.NewTransactionReadRepository(db, redis.Client, cfg.Redis.CacheTTL, log)

	commandSvc := command.NewTransactionCommandService(writeRepo, readRepo, publisher, log)
	querySvc := query.NewTransactionQueryService(readRepo)

	routes := handler.Routes{
		Transactions: handler.NewTransactionHandler(commandSvc, querySvc, log),
		Reservations: handler.NewReservationHandler(log),
	}
	if cfg.AuthEnabled() {
		routes.Auth = middleware.AuthMiddleware([]byte(cfg.JWTSecret))
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.LoggingMiddleware(log), middleware.Recovery(log))
	handler.RegisterRoutes(router, routes)

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	shutdown.Register("http", srv.Shutdown)

	errCh := make(chan error, 1)
	go func() {
		log.Info("transaction service starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		return nil
	case err := <-errCh:
		return err
	}
}

func newPublisher(cfg *config.Config, redis *redisClient.Client, shutdown *lifecycle.Manager, log *zap.Logger) (events.Publisher, error) {
	switch cfg.Events.Backend {
	case config.EventsBackendAMQP:
		publisher, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.AMQPExchange, cfg.AppName, log)
		if err != nil {
			return nil, err
		}
		shutdown.Register("amqp", publisher.Shutdown)
		return publisher, nil
	case config.EventsBackendNone:
		return events.NopPublisher{}, nil
	default:
		return events.NewStreamPublisher(redis.Client, cfg.Events.StreamMaxLen), nil
	}
}

// startAuditSubscriber logs every transaction event. It only works against
// the Redis stream backend.
func startAuditSubscriber(ctx context.Context, cfg *config.Config, redis *redisClient.Client, shutdown *lifecycle.Manager, log *zap.Logger) {
	if cfg.Events.Backend != config.EventsBackendRedis {
		log.Warn("audit subscriber requires the redis events backend", zap.String("backend", cfg.Events.Backend))
		return
	}

	hostname, _ := os.Hostname()
	subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
		Group:    cfg.AppName + "-audit",
		Consumer: hostname,
		Stream:   events.TransactionEventsStream,
		Handler:  events.NewAuditHandler(log),
		Logger:   log,
	})

	subCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := subscriber.Start(subCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit subscriber stopped", zap.Error(err))
		}
	}()

	shutdown.Register("audit-subscriber", func(stopCtx context.Context) error {
		cancel()
		select {
		case <-done:
			return nil
		case <-stopCtx.Done():
			return stopCtx.Err()
		}
	})
}
