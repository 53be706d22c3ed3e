package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/Greg-CS/document-parser-sub001/internal/domain"
)

func SeedCanonicalField(tb testing.TB, ctx context.Context, tx *gorm.DB, name, dataType string) *types.CanonicalField {
	tb.Helper()
	f := &types.CanonicalField{
		ID:       uuid.New(),
		Name:     name,
		DataType: dataType,
	}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed canonical field: %v", err)
	}
	return f
}

func SeedFieldMapping(tb testing.TB, ctx context.Context, tx *gorm.DB, sourceType, sourceField string, field *types.CanonicalField, position int) *types.FieldMapping {
	tb.Helper()
	m := &types.FieldMapping{
		ID:               uuid.New(),
		SourceType:       sourceType,
		SourceField:      sourceField,
		TargetField:      field.Name,
		CanonicalFieldID: PtrUUID(field.ID),
		Position:         position,
		IsActive:         true,
	}
	if err := tx.WithContext(ctx).Omit("CanonicalField").Create(m).Error; err != nil {
		tb.Fatalf("seed field mapping: %v", err)
	}
	return m
}

func SeedReportDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, sourceType, parsed, fingerprint string, uploadedAt time.Time) *types.ReportDocument {
	tb.Helper()
	d := &types.ReportDocument{
		ID:                uuid.New(),
		SourceType:        sourceType,
		ParsedData:        datatypes.JSON([]byte(parsed)),
		ContentHash:       uuid.NewString(),
		ReportFingerprint: fingerprint,
		DedupStatus:       types.DedupStatusNew,
		UploadedAt:        uploadedAt.UTC(),
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed report document: %v", err)
	}
	return d
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
