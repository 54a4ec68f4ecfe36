// Package server assembles the HTTP and gRPC transports.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/middleware"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RouteRegistrar is implemented by every domain handler.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

type RouterConfig struct {
	Logger logger.ZapLogger
	// Health reports whether dependencies are reachable.
	Health func(ctx context.Context) error
	// OTP is mounted under /api/auth/otp without merchant context.
	OTP RouteRegistrar
	// API handlers are mounted under /api/v1 behind the merchant middleware.
	API []RouteRegistrar
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(cfg.Logger))

	r.GET("/healthz", func(c *gin.Context) {
		if cfg.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.Health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.OTP != nil {
		limiter := middleware.NewKeyedLimiter(rate.Every(time.Second), 10)
		cfg.OTP.RegisterRoutes(r.Group("/api/auth/otp", middleware.RateLimit(limiter)))
	}

	api := r.Group("/api/v1", middleware.MerchantContext())
	for _, h := range cfg.API {
		h.RegisterRoutes(api)
	}
	return r
}
