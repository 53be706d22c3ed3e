package reports

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CanonicalReport is the canonical record computed for a document under one mapping set.
type CanonicalReport struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID     uuid.UUID      `gorm:"type:uuid;column:document_id;not null;uniqueIndex:idx_canonical_report_doc_set,priority:1" json:"document_id"`
	SourceType     string         `gorm:"column:source_type;not null;index" json:"source_type"`
	MappingSetHash string         `gorm:"column:mapping_set_hash;not null;uniqueIndex:idx_canonical_report_doc_set,priority:2" json:"mapping_set_hash"`
	Record         datatypes.JSON `gorm:"column:record;type:jsonb;not null" json:"record"`
	FieldCount     int            `gorm:"column:field_count;not null;default:0" json:"field_count"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (CanonicalReport) TableName() string { return "canonical_report" }
