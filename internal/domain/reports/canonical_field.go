package reports

import (
	"time"

	"github.com/google/uuid"
)

// CanonicalField is one named, typed slot of the canonical report schema.
type CanonicalField struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	DataType    string    `gorm:"column:data_type;not null" json:"data_type"`
	Description string    `gorm:"column:description;type:text" json:"description,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (CanonicalField) TableName() string { return "canonical_field" }
