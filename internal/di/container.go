package di

import (
	"context"
	"fmt"

	"saj-gateway/internal/config"
	"saj-gateway/internal/database"
	"saj-gateway/internal/handlers"
	"saj-gateway/internal/logging"
	"saj-gateway/internal/mqtt"
	"saj-gateway/internal/reconcile"
	"saj-gateway/internal/redis"
	"saj-gateway/internal/repositories"
	"saj-gateway/internal/repositories/interfaces"
	"saj-gateway/internal/saj"
	"saj-gateway/internal/services"
	"saj-gateway/internal/token"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container holds every long-lived dependency of the gateway.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	// Infrastructure
	DB        *gorm.DB
	Redis     *redis.RedisClient
	Publisher mqtt.Publisher
	Upstream  *saj.Client

	// Repositories
	Devices    interfaces.DeviceRepositoryInterface
	Plants     interfaces.PlantRepositoryInterface
	Tokens     interfaces.TokenRepositoryInterface
	DeviceRuns interfaces.SyncHistoryRepositoryInterface
	PlantRuns  interfaces.SyncHistoryRepositoryInterface

	// Business services
	TokenProvider *token.Provider
	Gateway       *services.GatewayService

	// HTTP
	Handler *handlers.GatewayHandler
	Server  *echo.Echo
}

// NewContainer builds the full dependency graph from cfg.
func NewContainer(cfg *config.Config) (*Container, error) {
	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return NewContainerWithLogger(cfg, logger)
}

// NewContainerWithLogger is NewContainer with a caller supplied logger.
func NewContainerWithLogger(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	// 1. Infrastructure
	if err := c.initInfraServices(); err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("failed to init infra services: %w", err)
	}

	// 2. Repositories
	c.initRepositories()

	// 3. Business services
	c.initBusinessServices()

	// 4. HTTP layer
	c.Handler = handlers.NewGatewayHandler(c.Gateway, c.Logger)
	c.Server = handlers.NewServer(cfg, c.Handler, c.Logger)

	return c, nil
}

func (c *Container) initInfraServices() error {
	db, err := database.Open(c.Config, c.Logger)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	c.DB = db

	if c.Config.RedisEnabled {
		rdb, err := redis.NewRedisClient(c.Config)
		if err != nil {
			return fmt.Errorf("redis init failed: %w", err)
		}
		c.Redis = rdb
		c.Logger.Info("Redis token cache enabled", zap.String("addr", c.Config.RedisAddr()))
	}

	publisher, err := mqtt.NewPublisher(c.Config, c.Logger)
	if err != nil {
		return fmt.Errorf("mqtt init failed: %w", err)
	}
	c.Publisher = publisher

	c.Upstream = saj.NewClient(c.Config, c.Logger)
	return nil
}

func (c *Container) initRepositories() {
	c.Devices = repositories.NewDeviceRepository(c.DB)
	c.Plants = repositories.NewPlantRepository(c.DB)
	c.Tokens = repositories.NewTokenRepository(c.DB, database.NewUnitOfWork(c.DB))
	c.DeviceRuns = repositories.NewDeviceSyncHistoryRepository(c.DB)
	c.PlantRuns = repositories.NewPlantSyncHistoryRepository(c.DB)
}

func (c *Container) initBusinessServices() {
	// A nil *RedisClient must not end up inside the interface.
	var front token.FrontCache
	if c.Redis != nil {
		front = c.Redis
	}
	c.TokenProvider = token.NewProvider(c.Tokens, c.Upstream, front, c.Config.CacheTTL, c.Logger)

	appID := c.Upstream.AppID()
	c.Gateway = services.NewGatewayService(
		c.TokenProvider,
		c.Upstream,
		c.Devices,
		c.Plants,
		reconcile.NewDeviceReconciler(c.Devices, c.DeviceRuns, appID, c.Logger),
		reconcile.NewPlantReconciler(c.Plants, c.PlantRuns, c.Logger),
		reconcile.NewSignatureGenerator(c.Devices, appID, c.Logger),
		c.Publisher,
		c.Logger,
	)
}

// Shutdown stops the HTTP server, waiting for in-flight requests until ctx ends.
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Server == nil {
		return nil
	}
	return c.Server.Shutdown(ctx)
}

// Cleanup releases connections. It is safe on a partially built container.
func (c *Container) Cleanup() {
	if c.Publisher != nil {
		c.Publisher.Close()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("Failed to close redis", zap.Error(err))
		}
	}
	if c.DB != nil {
		if err := database.Close(c.DB); err != nil {
			c.Logger.Warn("Failed to close database", zap.Error(err))
		}
	}
	c.Logger.Info("Container cleanup completed")
	_ = c.Logger.Sync()
}
