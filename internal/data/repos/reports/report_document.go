package reports

import (
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Greg-CS/document-parser-sub001/internal/domain"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/dbctx"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/logger"
)

// DocumentFilter narrows List. Zero values match everything.
type DocumentFilter struct {
	SourceType string
	// Keyset cursor: the (created_at, id) of the last row already seen.
	AfterCreatedAt time.Time
	AfterID        uuid.UUID
	Limit          int
}

type ReportDocumentRepo interface {
	Create(dbc dbctx.Context, row *types.ReportDocument) (*types.ReportDocument, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ReportDocument, error)
	FindByContentHash(dbc dbctx.Context, sourceType, contentHash string) (*types.ReportDocument, error)
	LatestByFingerprint(dbc dbctx.Context, fingerprint string, excludeID uuid.UUID) (*types.ReportDocument, error)
	LockDedupKeys(dbc dbctx.Context, sourceType, contentHash, fingerprint string) error
	List(dbc dbctx.Context, f DocumentFilter) ([]*types.ReportDocument, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type reportDocumentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReportDocumentRepo(db *gorm.DB, baseLog *logger.Logger) ReportDocumentRepo {
	return &reportDocumentRepo{
		db:  db,
		log: baseLog.With("repo", "ReportDocumentRepo"),
	}
}

func (r *reportDocumentRepo) Create(dbc dbctx.Context, row *types.ReportDocument) (*types.ReportDocument, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.UploadedAt.IsZero() {
		row.UploadedAt = time.Now().UTC()
	}
	if row.DedupStatus == "" {
		row.DedupStatus = types.DedupStatusNew
	}
	if err := t.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *reportDocumentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ReportDocument, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out types.ReportDocument
	if err := t.WithContext(dbc.Ctx).
		Where("id = ?", id).
		First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByContentHash returns the earliest upload with byte-identical parsed
// content, or nil when there is none.
func (r *reportDocumentRepo) FindByContentHash(dbc dbctx.Context, sourceType, contentHash string) (*types.ReportDocument, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if contentHash == "" {
		return nil, nil
	}
	var out []*types.ReportDocument
	if err := t.WithContext(dbc.Ctx).
		Where("source_type = ? AND content_hash = ?", sourceType, contentHash).
		Order("uploaded_at ASC").
		Order("id ASC").
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// LockDedupKeys holds transaction-scoped advisory locks on the content hash
// and the fingerprint, in that order, so concurrent uploads of the same
// report classify one after the other. Only Postgres takes locks; SQLite
// admits a single writer.
func (r *reportDocumentRepo) LockDedupKeys(dbc dbctx.Context, sourceType, contentHash, fingerprint string) error {
	t := dbc.Tx
	if t == nil || t.Dialector == nil || t.Dialector.Name() != "postgres" {
		return nil
	}
	for _, key := range dedupLockKeys(sourceType, contentHash, fingerprint) {
		if err := t.WithContext(dbc.Ctx).Exec("SELECT pg_advisory_xact_lock(?)", key).Error; err != nil {
			return err
		}
	}
	return nil
}

func dedupLockKeys(sourceType, contentHash, fingerprint string) []int64 {
	var keys []int64
	if contentHash != "" {
		keys = append(keys, advisoryKey64("report_content", sourceType, contentHash))
	}
	if fingerprint != "" {
		keys = append(keys, advisoryKey64("report_fingerprint", fingerprint))
	}
	return keys
}

func advisoryKey64(namespace string, parts ...string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(namespace))
	for _, p := range parts {
		_, _ = h.Write([]byte{':'})
		_, _ = h.Write([]byte(p))
	}
	return int64(h.Sum64())
}

// LatestByFingerprint returns the most recently uploaded document carrying
// fingerprint, or nil. Empty fingerprints never match.
func (r *reportDocumentRepo) LatestByFingerprint(dbc dbctx.Context, fingerprint string, excludeID uuid.UUID) (*types.ReportDocument, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if fingerprint == "" {
		return nil, nil
	}
	q := t.WithContext(dbc.Ctx).
		Where("report_fingerprint = ?", fingerprint)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var out []*types.ReportDocument
	if err := q.
		Order("uploaded_at DESC").
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

// List returns documents in (created_at, id) order.
func (r *reportDocumentRepo) List(dbc dbctx.Context, f DocumentFilter) ([]*types.ReportDocument, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).Model(&types.ReportDocument{})
	if f.SourceType != "" {
		q = q.Where("source_type = ?", f.SourceType)
	}
	if f.AfterID != uuid.Nil {
		q = q.Where("((created_at > ?) OR (created_at = ? AND id > ?))", f.AfterCreatedAt, f.AfterCreatedAt, f.AfterID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []*types.ReportDocument
	if err := q.
		Order("created_at ASC").
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reportDocumentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.ReportDocument{}).
		Where("id = ?", id).
		Updates(updates).Error
}
