package repos

import (
	"github.com/Greg-CS/document-parser-sub001/internal/data/repos/reports"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/logger"
	"gorm.io/gorm"
)

type CanonicalFieldRepo = reports.CanonicalFieldRepo
type FieldMappingRepo = reports.FieldMappingRepo

type ReportDocumentRepo = reports.ReportDocumentRepo
type CanonicalReportRepo = reports.CanonicalReportRepo

type DocumentFilter = reports.DocumentFilter

func NewCanonicalFieldRepo(db *gorm.DB, baseLog *logger.Logger) CanonicalFieldRepo {
	return reports.NewCanonicalFieldRepo(db, baseLog)
}
func NewFieldMappingRepo(db *gorm.DB, baseLog *logger.Logger) FieldMappingRepo {
	return reports.NewFieldMappingRepo(db, baseLog)
}

func NewReportDocumentRepo(db *gorm.DB, baseLog *logger.Logger) ReportDocumentRepo {
	return reports.NewReportDocumentRepo(db, baseLog)
}
func NewCanonicalReportRepo(db *gorm.DB, baseLog *logger.Logger) CanonicalReportRepo {
	return reports.NewCanonicalReportRepo(db, baseLog)
}
