package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/tikets-io/tikets/internal/api/http"
	"github.com/tikets-io/tikets/internal/api/http/handlers"
	"github.com/tikets-io/tikets/internal/auth"
	"github.com/tikets-io/tikets/internal/config"
	"github.com/tikets-io/tikets/internal/events"
	"github.com/tikets-io/tikets/internal/observability"
	"github.com/tikets-io/tikets/internal/persistence"
	"github.com/tikets-io/tikets/internal/service"
	"github.com/tikets-io/tikets/internal/store"
	"github.com/tikets-io/tikets/internal/upload"
	"github.com/tikets-io/tikets/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger.Level)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.PoolHandle() != nil {
		if err := persistence.EnsureSchema(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to ensure schema", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var ticketStore store.TicketStore
	if pg.PoolHandle() != nil {
		ticketStore = store.NewPostgresStore(pg.PoolHandle())
	} else {
		ticketStore = store.NewFileStore(cfg.Store.DataFile, logger)
	}

	dispatcher := events.NewInMemoryDispatcher()
	cache := persistence.NewListCache(redis, cfg.Redis.CacheTTL(), logger)
	blobs := upload.NewBlobStore(cfg.Store.UploadsDir, cfg.Store.PublicPathPrefix)

	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      ticketStore,
		Dispatcher: dispatcher,
		Cache:      cache,
		Logger:     logger,
	})
	authService := service.NewAuthService(cfg.Auth)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	adminMiddleware := auth.NewAdminMiddleware(authService.TokenManager(), cfg.Auth.AdminToken)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{DisableStartupMessage: cfg.App.Env == "production"})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:         handlers.NewTicketsHandler(ticketService, blobs),
		Auth:            handlers.NewAuthHandler(authService),
		Metrics:         handlers.NewMetricsHandler(metrics),
		AdminMiddleware: adminMiddleware,
		UploadsDir:      cfg.Store.UploadsDir,
		UploadsPrefix:   cfg.Store.PublicPathPrefix,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
