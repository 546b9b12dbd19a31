package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/auth"
	"github.com/junaidrashid-git/storefront-api/config"
	orderControllers "github.com/junaidrashid-git/storefront-api/controllers/order"
	paymentControllers "github.com/junaidrashid-git/storefront-api/controllers/payment"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/pkg/events"
	"github.com/junaidrashid-git/storefront-api/pkg/idempotency"
	"github.com/junaidrashid-git/storefront-api/pkg/metrics"
	"github.com/junaidrashid-git/storefront-api/routes"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type appDeps struct {
	tokens   *auth.Tokens
	orders   *orderControllers.Service
	payments paymentControllers.Gateway
	idem     *idempotency.Store
	hub      *events.Hub
}

func newRouter(cfg config.Config, logger *slog.Logger, db *gorm.DB, m *metrics.ServerMetrics, gatherer prometheus.Gatherer, d appDeps) *gin.Engine {
	r := gin.New()

	// Excel imports are the largest uploads.
	r.MaxMultipartMemory = 32 << 20

	// CORS settings
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.APIKeyHeader, idempotency.Header, "traceparent"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if allowsAnyOrigin(cfg.CORSOrigins) {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))
	r.Use(
		middleware.Tracing(serviceName),
		middleware.RequestLogger(logger),
		middleware.Metrics(m),
		gin.Recovery(),
	)

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler(gatherer)))

	routes.SetupRoutes(r, cfg.APIPrefix, routes.Deps{
		DB:           db,
		Tokens:       d.tokens,
		AdminAPIKey:  cfg.AdminAPIKey,
		IsAdminEmail: cfg.IsAdminEmail,
		Currency:     cfg.Payment.Currency,
		Orders:       d.orders,
		Payments:     d.payments,
		Idempotency:  d.idem,
		Hub:          d.hub,
	})
	return r
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
