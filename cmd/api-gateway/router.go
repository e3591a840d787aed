package main

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-eca-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-eca-api/internal/middleware"
	"github.com/noah-isme/sma-eca-api/internal/models"
	"github.com/noah-isme/sma-eca-api/internal/service"
	"github.com/noah-isme/sma-eca-api/pkg/config"
	appErrors "github.com/noah-isme/sma-eca-api/pkg/errors"
	"github.com/noah-isme/sma-eca-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-eca-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-eca-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-eca-api/pkg/response"
)

type routerDeps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *service.MetricsService
	Checks   map[string]handler.Pinger
	Verifier internalmiddleware.TokenValidator
	Audit    internalmiddleware.AuditRecorder
	ECA      *handler.ECAAllocationHandler
}

func newRouter(deps routerDeps) *gin.Engine {
	cfg := deps.Config
	metricsHandler := handler.NewMetricsHandler(deps.Metrics, deps.Checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(deps.Metrics, "/metrics", "/health", "/ready"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})

	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")
	if prefix == "/" {
		prefix = ""
	}
	api := r.Group(prefix)
	api.Use(internalmiddleware.JWT(deps.Verifier))
	api.Use(internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))

	api.GET("/metrics/summary", metricsHandler.Summary)

	if deps.ECA != nil {
		audit := func(action string) gin.HandlerFunc {
			return internalmiddleware.Audit(deps.Audit, deps.Logger, action, models.AuditResourceTerm)
		}
		eca := api.Group("/eca")
		eca.POST("/terms/:termId/allocation-runs", audit(models.AuditActionAllocationRun), deps.ECA.RunAllocation)
		eca.GET("/terms/:termId/allocation-runs/latest", deps.ECA.LatestRun)
		eca.POST("/terms/:termId/allocation-preview", audit(models.AuditActionAllocationPreview), deps.ECA.PreviewAllocation)
		eca.GET("/terms/:termId/waitlist", deps.ECA.Waitlist)
		eca.GET("/terms/:termId/allocations/export", audit(models.AuditActionAllocationExport), deps.ECA.ExportAllocations)
		eca.GET("/allocation-runs/:runId", deps.ECA.RunStatus)
	} else {
		api.Any("/eca/*path", func(c *gin.Context) {
			response.Error(c, appErrors.ErrAllocationDisabled)
		})
	}

	return r
}
