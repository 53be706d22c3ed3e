package domain

import (
	"github.com/Greg-CS/document-parser-sub001/internal/domain/reports"
)

const (
	DedupStatusNew        = reports.DedupStatusNew
	DedupStatusDuplicate  = reports.DedupStatusDuplicate
	DedupStatusSupersedes = reports.DedupStatusSupersedes
)

type CanonicalField = reports.CanonicalField
type FieldMapping = reports.FieldMapping
type ReportDocument = reports.ReportDocument
type CanonicalReport = reports.CanonicalReport
