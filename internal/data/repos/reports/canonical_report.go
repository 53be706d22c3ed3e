package reports

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/Greg-CS/document-parser-sub001/internal/domain"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/dbctx"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/logger"
)

type CanonicalReportRepo interface {
	Upsert(dbc dbctx.Context, row *types.CanonicalReport) error
	LatestByDocumentID(dbc dbctx.Context, documentID uuid.UUID) (*types.CanonicalReport, error)
	ListByDocumentID(dbc dbctx.Context, documentID uuid.UUID) ([]*types.CanonicalReport, error)
}

type canonicalReportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCanonicalReportRepo(db *gorm.DB, baseLog *logger.Logger) CanonicalReportRepo {
	return &canonicalReportRepo{
		db:  db,
		log: baseLog.With("repo", "CanonicalReportRepo"),
	}
}

// Upsert keeps one record per (document, mapping set hash).
func (r *canonicalReportRepo) Upsert(dbc dbctx.Context, row *types.CanonicalReport) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.DocumentID == uuid.Nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.UpdatedAt = time.Now().UTC()

	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "document_id"},
				{Name: "mapping_set_hash"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"source_type",
				"record",
				"field_count",
				"updated_at",
			}),
		}).
		Create(row).Error
}

func (r *canonicalReportRepo) LatestByDocumentID(dbc dbctx.Context, documentID uuid.UUID) (*types.CanonicalReport, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.CanonicalReport
	if err := t.WithContext(dbc.Ctx).
		Where("document_id = ?", documentID).
		Order("updated_at DESC").
		Order("id DESC").
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *canonicalReportRepo) ListByDocumentID(dbc dbctx.Context, documentID uuid.UUID) ([]*types.CanonicalReport, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.CanonicalReport
	if err := t.WithContext(dbc.Ctx).
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
