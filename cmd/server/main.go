package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/api"
	"github.com/jafarshop/ttsbridge/internal/builder"
	"github.com/jafarshop/ttsbridge/internal/cache"
	"github.com/jafarshop/ttsbridge/internal/config"
	"github.com/jafarshop/ttsbridge/internal/repository/postgres"
	"github.com/jafarshop/ttsbridge/internal/service"
	"github.com/jafarshop/ttsbridge/internal/telemetry"
	"github.com/jafarshop/ttsbridge/internal/tiktok"
	"github.com/jafarshop/ttsbridge/internal/vtex"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	shutdownTracer, err := telemetry.InitTracer(context.Background(), cfg.Telemetry, logger)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// Database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(db, logger); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	repos := postgres.NewRepositories(db, logger)

	// Tenant config cache
	var shopCache cache.ShopCache = cache.NewMemoryShopCache(logger)
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer client.Close()
		shopCache = cache.NewRedisShopCache(client, logger)
		logger.Info("Using redis shop cache", zap.String("addr", cfg.Redis.Addr))
	}

	// Upstream clients
	vtexClient := vtex.NewClient(cfg.VTEX, logger)
	tiktokClient := tiktok.NewClient(cfg.TikTok, logger)

	// Services
	shops := service.NewShopConfigResolver(repos.Shop, shopCache, cfg.Orders.ShopConfigTTL, cfg.Orders.PublicBaseURL, logger)
	ledger := service.NewLedger(repos.Idempotency, logger)
	payloads := builder.NewBuilder(repos.ProductMapping, vtexClient, builder.Options{
		DefaultPostalCode:      cfg.Orders.DefaultPostalCode,
		DefaultPhone:           cfg.Orders.DefaultPhone,
		AllowSyntheticDocument: cfg.Orders.AllowSyntheticDocument,
		PublicBaseURL:          cfg.Orders.PublicBaseURL,
	}, logger)
	labels := service.NewLabelService(shops, tiktokClient, vtexClient, repos, logger)
	orders := service.NewOrderService(service.OrderServiceDeps{
		Ledger:   ledger,
		Shops:    shops,
		Orders:   tiktokClient,
		Builder:  payloads,
		Platform: vtexClient,
		Labels:   labels,
		Repos:    repos,
	}, cfg.Orders.SettleDelay, logger)
	dispatcher := service.NewDispatcher(cfg.Dispatch, logger)
	notifications := service.NewNotificationService(ledger, vtexClient, labels, repos, dispatcher, logger)

	svc := api.Services{
		Orders:        orders,
		Notifications: notifications,
		Shops:         shops,
		Labels:        labels,
	}
	if cfg.TikTok.VerifyWebhooks {
		svc.Verifier = tiktokClient
	}

	router := api.NewRouter(cfg, repos, svc, logger)

	// Settle delay plus upstream calls must fit in the write timeout
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Orders.SettleDelay + cfg.VTEX.Timeout*4 + cfg.TikTok.Timeout*4,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("addr", srv.Addr), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := dispatcher.Close(ctx); err != nil {
		logger.Error("Dispatcher did not drain", zap.Error(err))
	}
	if err := shutdownTracer(ctx); err != nil {
		logger.Error("Failed to flush traces", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	zc := zap.NewDevelopmentConfig()
	if cfg.Environment == "production" {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level
	return zc.Build()
}
