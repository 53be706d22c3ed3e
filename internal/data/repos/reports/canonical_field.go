package reports

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/Greg-CS/document-parser-sub001/internal/domain"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/dbctx"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/logger"
)

type CanonicalFieldRepo interface {
	Upsert(dbc dbctx.Context, rows []*types.CanonicalField) error
	List(dbc dbctx.Context) ([]*types.CanonicalField, error)
	GetByNames(dbc dbctx.Context, names []string) ([]*types.CanonicalField, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.CanonicalField, error)
}

type canonicalFieldRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCanonicalFieldRepo(db *gorm.DB, baseLog *logger.Logger) CanonicalFieldRepo {
	return &canonicalFieldRepo{
		db:  db,
		log: baseLog.With("repo", "CanonicalFieldRepo"),
	}
}

// Upsert inserts fields by name; an existing name keeps its id and gets the
// new data type and description.
func (r *canonicalFieldRepo) Upsert(dbc dbctx.Context, rows []*types.CanonicalField) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row == nil {
			continue
		}
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		row.Name = strings.TrimSpace(row.Name)
		row.UpdatedAt = now
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"data_type",
				"description",
				"updated_at",
			}),
		}).
		Create(&rows).Error
}

func (r *canonicalFieldRepo) List(dbc dbctx.Context) ([]*types.CanonicalField, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.CanonicalField
	if err := t.WithContext(dbc.Ctx).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *canonicalFieldRepo) GetByNames(dbc dbctx.Context, names []string) ([]*types.CanonicalField, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.CanonicalField
	if len(names) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("name IN ?", names).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *canonicalFieldRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.CanonicalField, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.CanonicalField
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
