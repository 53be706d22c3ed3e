package app

import (
	"github.com/Greg-CS/document-parser-sub001/internal/data/db"
	"github.com/Greg-CS/document-parser-sub001/internal/http"
	httpH "github.com/Greg-CS/document-parser-sub001/internal/http/handlers"
	httpMW "github.com/Greg-CS/document-parser-sub001/internal/http/middleware"
	"github.com/Greg-CS/document-parser-sub001/internal/observability"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/logger"
)

type Middleware struct {
	AdminAuth *httpMW.AdminAuth
}

type Handlers struct {
	Health         *httpH.HealthHandler
	CanonicalField *httpH.CanonicalFieldHandler
	Mapping        *httpH.MappingHandler
	Report         *httpH.ReportHandler
}

func wireHandlers(log *logger.Logger, dbs *db.Service, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:         httpH.NewHealthHandler(dbs),
		CanonicalField: httpH.NewCanonicalFieldHandler(log, services.Registry),
		Mapping:        httpH.NewMappingHandler(log, services.Registry),
		Report:         httpH.NewReportHandler(log, services.Reports),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		AdminAuth: httpMW.NewAdminAuth(log, cfg.AdminJWTSecret),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:                   log,
		ServiceName:           cfg.Otel.ServiceName,
		CORSOrigins:           cfg.CORSOrigins,
		Metrics:               metrics,
		AdminAuth:             middleware.AdminAuth,
		HealthHandler:         handlers.Health,
		CanonicalFieldHandler: handlers.CanonicalField,
		MappingHandler:        handlers.Mapping,
		ReportHandler:         handlers.Report,
	})
}
