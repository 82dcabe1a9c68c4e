package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"helpinghands/internal/appinfo"
	"helpinghands/internal/cache"
	"helpinghands/internal/config"
	"helpinghands/internal/database"
	"helpinghands/internal/events"
	"helpinghands/internal/repositories"
	"helpinghands/internal/response"
	"helpinghands/internal/router"
	"helpinghands/internal/services"
)

func main() {
	// Load configuration first so the logger honours LOG_LEVEL/LOG_FORMAT
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting HelpingHands ledger",
		zap.String("version", appinfo.GetVersion()),
		zap.String("environment", cfg.Server.Environment),
		zap.String("storage_driver", cfg.Database.Driver),
		zap.String("cache_provider", cfg.Cache.Provider),
	)

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}

	cacheConfig := cache.DefaultConfig()
	cacheConfig.Provider = cfg.Cache.Provider
	cacheConfig.RedisURL = cfg.Cache.RedisURL
	cacheConfig.TTL = cfg.Cache.TTL
	cacheConfig.MaxKeys = cfg.Cache.MaxKeys
	cacheInstance, err := cache.NewCache(cacheConfig, logger.Named("cache"))
	if err != nil {
		logger.Fatal("Failed to create cache", zap.Error(err))
	}

	bus := events.NewInMemoryEventBus(logger.Named("events"))

	serviceCollection, err := services.NewServiceCollection(store, cacheInstance, bus, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer func() {
		if err := serviceCollection.Close(); err != nil {
			logger.Error("Failed to close services", zap.Error(err))
		}
	}()

	responseConfig := response.DefaultConfig()
	responseConfig.PrettyJSON = cfg.IsDevelopment()
	responseBuilder := response.NewBuilder(responseConfig, logger.Named("http"))

	server := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           router.SetupRouter(serviceCollection, responseBuilder, logger.Named("http")),
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown setup
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		logger.Info("Shutting down server", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("HTTP server failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// openStore selects the persistence backend from STORAGE_DRIVER
func openStore(cfg *config.Config, logger *zap.Logger) (repositories.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		logger.Warn("Using in-memory store; data is lost on restart")
		return repositories.NewMemoryStore(logger.Named("store")), nil
	case config.DriverPostgres:
		manager, err := database.Open(&cfg.Database, logger.Named("database"))
		if err != nil {
			return nil, err
		}
		store, err := repositories.NewPostgresStore(manager, logger.Named("store"))
		if err != nil {
			manager.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Database.Driver)
	}
}

func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zapConfig zap.Config
	if strings.EqualFold(cfg.Format, "json") {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
