package reports

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	DedupStatusNew        = "new"
	DedupStatusDuplicate  = "duplicate"
	DedupStatusSupersedes = "supersedes"
)

// ReportDocument is one uploaded credit report as produced by the upstream parser.
type ReportDocument struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SourceType string     `gorm:"column:source_type;not null;index" json:"source_type"`
	UserID     *uuid.UUID `gorm:"type:uuid;column:user_id;index" json:"user_id,omitempty"`

	ParsedData  datatypes.JSON `gorm:"column:parsed_data;type:jsonb;not null" json:"parsed_data"`
	ContentHash string         `gorm:"column:content_hash;index" json:"content_hash"`

	// Empty means the document carried too little identity signal to fingerprint.
	ReportFingerprint string `gorm:"column:report_fingerprint;index" json:"report_fingerprint,omitempty"`

	DedupStatus       string     `gorm:"column:dedup_status;not null;default:'new'" json:"dedup_status"`
	RelatedDocumentID *uuid.UUID `gorm:"type:uuid;column:related_document_id" json:"related_document_id,omitempty"`
	SupersededByID    *uuid.UUID `gorm:"type:uuid;column:superseded_by_id;index" json:"superseded_by_id,omitempty"`

	UploadedAt time.Time `gorm:"column:uploaded_at;not null;index" json:"uploaded_at"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (ReportDocument) TableName() string { return "report_document" }
