package reports

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/Greg-CS/document-parser-sub001/internal/domain"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/dbctx"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/logger"
)

type FieldMappingRepo interface {
	UpsertMany(dbc dbctx.Context, rows []*types.FieldMapping) error
	ListActiveBySourceType(dbc dbctx.Context, sourceType string) ([]*types.FieldMapping, error)
	ListSourceTypes(dbc dbctx.Context) ([]string, error)
	MaxPosition(dbc dbctx.Context, sourceType string) (int, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.FieldMapping, error)
	Deactivate(dbc dbctx.Context, id uuid.UUID) error
}

type fieldMappingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFieldMappingRepo(db *gorm.DB, baseLog *logger.Logger) FieldMappingRepo {
	return &fieldMappingRepo{
		db:  db,
		log: baseLog.With("repo", "FieldMappingRepo"),
	}
}

// UpsertMany writes rows keyed on (source_type, source_field, target_field).
// Re-submitting a triple relinks it, moves it to the new position and
// reactivates it.
func (r *fieldMappingRepo) UpsertMany(dbc dbctx.Context, rows []*types.FieldMapping) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		row.IsActive = true
		row.UpdatedAt = now
	}
	return t.WithContext(dbc.Ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "source_type"},
				{Name: "source_field"},
				{Name: "target_field"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"canonical_field_id",
				"position",
				"is_active",
				"updated_at",
			}),
		}).
		Create(&rows).Error
}

// ListActiveBySourceType returns the active mappings of a source type in
// application order, each with its canonical field loaded.
func (r *fieldMappingRepo) ListActiveBySourceType(dbc dbctx.Context, sourceType string) ([]*types.FieldMapping, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.FieldMapping
	if sourceType == "" {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Preload("CanonicalField").
		Where("source_type = ? AND is_active = ?", sourceType, true).
		Order("position ASC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *fieldMappingRepo) ListSourceTypes(dbc dbctx.Context) ([]string, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []string
	if err := t.WithContext(dbc.Ctx).
		Model(&types.FieldMapping{}).
		Where("is_active = ?", true).
		Distinct("source_type").
		Order("source_type ASC").
		Pluck("source_type", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MaxPosition returns the highest position used by any mapping of the
// source type, or -1 when there are none.
func (r *fieldMappingRepo) MaxPosition(dbc dbctx.Context, sourceType string) (int, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var maxPos sql.NullInt64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.FieldMapping{}).
		Where("source_type = ?", sourceType).
		Select("MAX(position)").
		Row().
		Scan(&maxPos); err != nil {
		return 0, err
	}
	if !maxPos.Valid {
		return -1, nil
	}
	return int(maxPos.Int64), nil
}

func (r *fieldMappingRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.FieldMapping, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out types.FieldMapping
	if err := t.WithContext(dbc.Ctx).
		Preload("CanonicalField").
		Where("id = ?", id).
		First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *fieldMappingRepo) Deactivate(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.FieldMapping{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
