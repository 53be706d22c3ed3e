package db

import (
	"fmt"

	types "github.com/Greg-CS/document-parser-sub001/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Mapping store
		&types.CanonicalField{},
		&types.FieldMapping{},

		// Report store
		&types.ReportDocument{},
		&types.CanonicalReport{},
	)
}

func (s *Service) AutoMigrateAll() error {
	if err := AutoMigrateAll(s.db); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	s.log.Info("Migrations applied")
	return nil
}
