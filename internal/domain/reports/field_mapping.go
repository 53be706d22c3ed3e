package reports

import (
	"time"

	"github.com/google/uuid"
)

// FieldMapping routes one source path of a source type into a canonical field.
type FieldMapping struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	SourceType  string `gorm:"column:source_type;not null;uniqueIndex:idx_field_mapping_triple,priority:1;index" json:"source_type"`
	SourceField string `gorm:"column:source_field;not null;uniqueIndex:idx_field_mapping_triple,priority:2" json:"source_field"`
	TargetField string `gorm:"column:target_field;not null;uniqueIndex:idx_field_mapping_triple,priority:3" json:"target_field"`

	CanonicalFieldID *uuid.UUID      `gorm:"type:uuid;column:canonical_field_id;index" json:"canonical_field_id,omitempty"`
	CanonicalField   *CanonicalField `gorm:"foreignKey:CanonicalFieldID" json:"canonical_field,omitempty"`

	Position int  `gorm:"column:position;not null;default:0" json:"position"`
	IsActive bool `gorm:"column:is_active;not null;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (FieldMapping) TableName() string { return "field_mapping" }
