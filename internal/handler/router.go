package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/teachers-portal-api/internal/middleware"
	"github.com/noah-isme/teachers-portal-api/internal/service"
	"github.com/noah-isme/teachers-portal-api/pkg/config"
	"github.com/noah-isme/teachers-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/teachers-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/teachers-portal-api/pkg/middleware/requestid"
)

// RouterParams groups the dependencies of the HTTP surface.
type RouterParams struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *service.MetricsService
	Reports *WeeklyReportHandler
	Ops     *MetricsHandler
}

// NewRouter assembles the gin engine: ops endpoints at the root and the weekly
// report routes under the API prefix behind the trigger secret.
func NewRouter(params RouterParams) *gin.Engine {
	cfg := params.Config
	logr := params.Logger
	if logr == nil {
		logr = zap.NewNop()
	}
	ops := params.Ops
	if ops == nil {
		ops = NewMetricsHandler(params.Metrics, nil)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(params.Metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.NoMethod(MethodNotAllowed)
	r.NoRoute(NotFound)

	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	weekly := api.Group("/reports/weekly", middleware.TriggerAuth(cfg.Trigger.Secret))
	weekly.POST("/generate", params.Reports.Generate)
	weekly.POST("/send", params.Reports.Send)
	weekly.GET("/:date/preview", params.Reports.Preview)
	weekly.GET("/:date/export", params.Reports.Export)

	return r
}
