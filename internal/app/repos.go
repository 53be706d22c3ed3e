package app

import (
	"gorm.io/gorm"

	"github.com/Greg-CS/document-parser-sub001/internal/data/repos"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/logger"
)

type Repos struct {
	CanonicalField  repos.CanonicalFieldRepo
	FieldMapping    repos.FieldMappingRepo
	ReportDocument  repos.ReportDocumentRepo
	CanonicalReport repos.CanonicalReportRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		CanonicalField:  repos.NewCanonicalFieldRepo(db, log),
		FieldMapping:    repos.NewFieldMappingRepo(db, log),
		ReportDocument:  repos.NewReportDocumentRepo(db, log),
		CanonicalReport: repos.NewCanonicalReportRepo(db, log),
	}
}
