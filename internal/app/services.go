package app

import (
	"gorm.io/gorm"

	"github.com/Greg-CS/document-parser-sub001/internal/observability"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/logger"
	"github.com/Greg-CS/document-parser-sub001/internal/services"
)

type Services struct {
	Registry services.MappingRegistry
	Reports  services.ReportService
}

func wireServices(db *gorm.DB, log *logger.Logger, reposet Repos, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")
	var cache services.MappingCache = services.NopMappingCache()
	if clients.MappingCache != nil {
		cache = clients.MappingCache
	}
	registry := services.NewMappingRegistry(
		db, log,
		reposet.CanonicalField,
		reposet.FieldMapping,
		cache,
		services.WithMetrics(metrics),
	)
	reports := services.NewReportService(
		db, log,
		reposet.ReportDocument,
		reposet.CanonicalReport,
		registry,
		services.WithMetrics(metrics),
	)
	return Services{Registry: registry, Reports: reports}
}
