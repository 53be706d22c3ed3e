package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/Greg-CS/document-parser-sub001/internal/http/handlers"
	httpMW "github.com/Greg-CS/document-parser-sub001/internal/http/middleware"
	"github.com/Greg-CS/document-parser-sub001/internal/observability"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics
	AdminAuth   *httpMW.AdminAuth

	HealthHandler         *httpH.HealthHandler
	CanonicalFieldHandler *httpH.CanonicalFieldHandler
	MappingHandler        *httpH.MappingHandler
	ReportHandler         *httpH.ReportHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "document-parser"
	}
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))

	api := r.Group("/api")

	admin := api.Group("/")
	if cfg.AdminAuth != nil {
		admin.Use(cfg.AdminAuth.RequireAdmin())
	}

	// Canonical fields
	if cfg.CanonicalFieldHandler != nil {
		api.GET("/canonical-fields", cfg.CanonicalFieldHandler.List)
		admin.PUT("/canonical-fields", cfg.CanonicalFieldHandler.Upsert)
	}

	// Mappings
	if cfg.MappingHandler != nil {
		api.GET("/mappings/:sourceType", cfg.MappingHandler.Get)
		admin.PUT("/mappings", cfg.MappingHandler.Upsert)
		admin.DELETE("/mappings/:id", cfg.MappingHandler.Deactivate)
	}

	// Reports
	if cfg.ReportHandler != nil {
		api.POST("/reports", cfg.ReportHandler.Ingest)
		api.GET("/reports/:id", cfg.ReportHandler.Get)
		api.POST("/reports/:id/canonicalize", cfg.ReportHandler.Canonicalize)
		api.POST("/fingerprint", cfg.ReportHandler.Fingerprint)
	}

	return r
}
