package handlers

import (
	"net/http"

	"saj-gateway/internal/config"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// NewServer builds the echo instance with middleware and every route.
func NewServer(cfg *config.Config, h *GatewayHandler, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.IsProduction(), logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(middleware.Secure())
	e.Use(middleware.CORS())

	e.GET("/", h.Index)
	e.GET("/health", h.Health)

	api := e.Group("/api")
	if cfg.RateLimitMax > 0 && cfg.RateLimitWindow > 0 {
		api.Use(rateLimiter(cfg))
	}
	RegisterRoutes(api, h)
	return e
}

// RegisterRoutes mounts the gateway endpoints on g.
func RegisterRoutes(g *echo.Group, h *GatewayHandler) {
	// Token
	g.POST("/saj/token", h.RequestToken)
	g.GET("/saj/token/status", h.TokenStatus)

	// Vendor listings
	g.GET("/saj/devices", h.VendorDevices)
	g.GET("/saj/plants", h.VendorPlants)

	// Devices
	g.POST("/devices/sync", h.SyncDevices)
	g.POST("/devices/sync/pull", h.PullDevices)
	g.POST("/devices/generate-signatures", h.GenerateSignatures)
	g.POST("/devices/test", h.TestDevice)
	g.POST("/devices/add", h.AddDevice)
	g.GET("/devices", h.ListDevices)
	g.GET("/devices/summary", h.DeviceSummary)
	g.GET("/devices/offline", h.OfflineDevices)
	g.GET("/sync/history", h.DeviceSyncHistory)
	g.GET("/devices/:deviceSn", h.GetDevice)
	g.GET("/devices/:deviceSn/realtime", h.Realtime)
	g.GET("/devices/:deviceSn/historical", h.Historical)
	g.GET("/devices/:deviceSn/uploadData", h.UploadData)

	// Plants
	g.POST("/plants/sync", h.SyncPlants)
	g.POST("/plants/sync/pull", h.PullPlants)
	g.GET("/plants", h.ListPlants)
	g.GET("/plants/summary", h.PlantSummary)
	g.GET("/plants/sync/history", h.PlantSyncHistory)
	g.GET("/plants/:plantId/generation", h.PlantGeneration)
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	logger = logger.With(zap.String("component", "http"))
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("HTTP request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	})
}

// rateLimiter allows RateLimitMax requests per client IP per window.
func rateLimiter(cfg *config.Config) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(cfg.RateLimitMax) / cfg.RateLimitWindow.Seconds()),
		Burst:     cfg.RateLimitMax,
		ExpiresIn: cfg.RateLimitWindow,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Unable to identify client"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Too many requests from this IP, please try again later.",
			})
		},
	})
}
