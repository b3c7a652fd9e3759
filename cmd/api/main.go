package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/asset-registry/internal/api/http"
	"github.com/spec-kit/asset-registry/internal/api/http/handlers"
	"github.com/spec-kit/asset-registry/internal/auth"
	"github.com/spec-kit/asset-registry/internal/config"
	"github.com/spec-kit/asset-registry/internal/events"
	"github.com/spec-kit/asset-registry/internal/observability"
	"github.com/spec-kit/asset-registry/internal/persistence"
	"github.com/spec-kit/asset-registry/internal/repository"
	"github.com/spec-kit/asset-registry/internal/repository/memory"
	"github.com/spec-kit/asset-registry/internal/service"
	"github.com/spec-kit/asset-registry/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
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

	var store repository.Store
	dependencies := map[string]handlers.Pinger{}
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pg.PoolHandle())
		dependencies["postgres"] = pg
	} else {
		memStore := memory.NewStore()
		store = memStore
		dependencies["store"] = memStore
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	dependencies["redis"] = redis

	metrics := observability.NewMetrics()
	tokens := auth.NewTokenCodec(cfg.Auth.JWTSecret)
	throttle := service.NewRedisLoginThrottle(redis.Client, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginLockout())
	if throttle == nil {
		logger.Warn("login throttling disabled")
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		Store:      store,
		Tokens:     tokens,
		Throttle:   throttle,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	userService := service.NewUserService(cfg.Auth, service.UserDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	itemService := service.NewItemService(cfg.Assets, service.ItemDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies),
		Auth:    handlers.NewAuthHandler(authService),
		Users:   handlers.NewUsersHandler(userService),
		Items:   handlers.NewItemsHandler(itemService),
		Gate:    auth.NewAuthenticationGate(tokens),
		Metrics: metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
