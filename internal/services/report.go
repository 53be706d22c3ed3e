package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Greg-CS/document-parser-sub001/internal/data/aggregates"
	"github.com/Greg-CS/document-parser-sub001/internal/data/repos"
	types "github.com/Greg-CS/document-parser-sub001/internal/domain"
	"github.com/Greg-CS/document-parser-sub001/internal/modules/canonical"
	"github.com/Greg-CS/document-parser-sub001/internal/modules/fingerprint"
	"github.com/Greg-CS/document-parser-sub001/internal/observability"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/dbctx"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/logger"
)

type IngestInput struct {
	SourceType string          `json:"sourceType"`
	UserID     *uuid.UUID      `json:"userId,omitempty"`
	UploadedAt *time.Time      `json:"uploadedAt,omitempty"`
	ParsedData json.RawMessage `json:"parsedData"`
}

type DedupResult struct {
	Status            string     `json:"status"`
	Fingerprint       string     `json:"fingerprint"`
	RelatedDocumentID *uuid.UUID `json:"relatedDocumentId,omitempty"`
	SupersededByID    *uuid.UUID `json:"supersededById,omitempty"`
}

type IngestResult struct {
	Document *types.ReportDocument  `json:"document"`
	Report   *types.CanonicalReport `json:"report"`
	Outcomes []canonical.Outcome    `json:"outcomes"`
	Dedup    DedupResult            `json:"dedup"`
}

type CanonicalizeResult struct {
	Report   *types.CanonicalReport `json:"report"`
	Outcomes []canonical.Outcome    `json:"outcomes"`
}

type ReportView struct {
	Document *types.ReportDocument  `json:"document"`
	Report   *types.CanonicalReport `json:"report,omitempty"`
}

type ReportService interface {
	Ingest(ctx context.Context, in IngestInput) (*IngestResult, error)
	Get(ctx context.Context, id uuid.UUID) (*ReportView, error)
	Canonicalize(ctx context.Context, id uuid.UUID) (*CanonicalizeResult, error)
	Fingerprint(ctx context.Context, parsed json.RawMessage) (string, error)
	Backfill(ctx context.Context, opts BackfillOptions) (BackfillResult, error)
}

type reportService struct {
	db       *gorm.DB
	log      *logger.Logger
	writes   aggregates.BaseDeps
	metrics  *observability.Metrics
	docs     repos.ReportDocumentRepo
	reports  repos.CanonicalReportRepo
	registry MappingRegistry
}

func NewReportService(
	db *gorm.DB,
	baseLog *logger.Logger,
	docs repos.ReportDocumentRepo,
	reports repos.CanonicalReportRepo,
	registry MappingRegistry,
	opts ...Option,
) ReportService {
	log := baseLog.With("service", "ReportService")
	writes, metrics := resolveOptions(db, log, opts)
	return &reportService{
		db:       db,
		log:      log,
		writes:   writes,
		metrics:  metrics,
		docs:     docs,
		reports:  reports,
		registry: registry,
	}
}

// decodeParsed compacts the uploaded document and decodes it. The compacted
// bytes are what gets stored and hashed.
func decodeParsed(raw json.RawMessage) ([]byte, canonical.Node, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, canonical.Null, aggregates.ValidationError("parsedData is required")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, canonical.Null, aggregates.ValidationError(fmt.Sprintf("parsedData is not valid JSON: %v", err))
	}
	node, err := canonical.Parse(buf.Bytes())
	if err != nil {
		return nil, canonical.Null, aggregates.ValidationError(err.Error())
	}
	return buf.Bytes(), node, nil
}

func contentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (s *reportService) Ingest(ctx context.Context, in IngestInput) (*IngestResult, error) {
	sourceType := strings.TrimSpace(in.SourceType)
	ctx, span := startSpan(ctx, "ReportService.Ingest", attribute.String("source_type", sourceType))
	defer span.End()

	if sourceType == "" {
		return nil, aggregates.MapError("report.ingest", aggregates.ValidationError("sourceType is required"))
	}
	compact, node, err := decodeParsed(in.ParsedData)
	if err != nil {
		return nil, aggregates.MapError("report.ingest", err)
	}
	uploadedAt := time.Now().UTC()
	if in.UploadedAt != nil && !in.UploadedAt.IsZero() {
		uploadedAt = in.UploadedAt.UTC()
	}

	fp := fingerprint.Compute(node)
	set, err := s.registry.MappingsFor(ctx, sourceType)
	if err != nil {
		return nil, err
	}
	applied := canonical.Apply(node, set.Canonical())
	record, err := json.Marshal(applied.Record)
	if err != nil {
		return nil, aggregates.MapError("report.ingest", err)
	}

	doc := &types.ReportDocument{
		ID:                uuid.New(),
		SourceType:        sourceType,
		UserID:            in.UserID,
		ParsedData:        datatypes.JSON(compact),
		ContentHash:       contentHash(compact),
		ReportFingerprint: fp,
		UploadedAt:        uploadedAt,
	}
	report := &types.CanonicalReport{
		DocumentID:     doc.ID,
		SourceType:     sourceType,
		MappingSetHash: set.Hash,
		Record:         datatypes.JSON(record),
		FieldCount:     len(applied.Record),
	}

	var dedup DedupResult
	err = aggregates.ExecuteWrite(ctx, s.writes, "report.ingest", func(dbc dbctx.Context) error {
		if err := s.docs.LockDedupKeys(dbc, doc.SourceType, doc.ContentHash, doc.ReportFingerprint); err != nil {
			return err
		}
		var err error
		dedup, err = s.classify(dbc, doc)
		if err != nil {
			return err
		}
		doc.DedupStatus = dedup.Status
		doc.RelatedDocumentID = dedup.RelatedDocumentID
		doc.SupersededByID = dedup.SupersededByID
		if _, err := s.docs.Create(dbc, doc); err != nil {
			return err
		}
		if dedup.Status == types.DedupStatusSupersedes && dedup.RelatedDocumentID != nil {
			if err := s.docs.UpdateFields(dbc, *dedup.RelatedDocumentID, map[string]interface{}{
				"superseded_by_id": doc.ID,
			}); err != nil {
				return err
			}
		}
		return s.reports.Upsert(dbc, report)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncDedup(sourceType, dedup.Status)
	s.recordOutcomes(sourceType, applied.Outcomes)
	span.SetAttributes(
		attribute.String("dedup_status", dedup.Status),
		attribute.Int("fields_applied", applied.Applied()),
	)
	s.log.Info("report ingested",
		"document_id", doc.ID,
		"source_type", sourceType,
		"dedup_status", dedup.Status,
		"mapping_set", set.Hash,
		"fields_applied", applied.Applied(),
		"mappings", len(applied.Outcomes),
	)

	return &IngestResult{
		Document: doc,
		Report:   report,
		Outcomes: applied.Outcomes,
		Dedup:    dedup,
	}, nil
}

// classify decides how a new upload relates to stored ones. Byte-identical
// content is a duplicate. Otherwise a matching fingerprint means the newer
// upload supersedes the older; an upload older than its match stays new and
// is marked superseded right away.
func (s *reportService) classify(dbc dbctx.Context, doc *types.ReportDocument) (DedupResult, error) {
	out := DedupResult{Status: types.DedupStatusNew, Fingerprint: doc.ReportFingerprint}

	same, err := s.docs.FindByContentHash(dbc, doc.SourceType, doc.ContentHash)
	if err != nil {
		return out, err
	}
	if same != nil {
		out.Status = types.DedupStatusDuplicate
		out.RelatedDocumentID = &same.ID
		return out, nil
	}

	prev, err := s.docs.LatestByFingerprint(dbc, doc.ReportFingerprint, doc.ID)
	if err != nil {
		return out, err
	}
	if prev == nil || !fingerprint.Matches(prev.ReportFingerprint, doc.ReportFingerprint) {
		return out, nil
	}
	if doc.UploadedAt.Before(prev.UploadedAt) {
		out.SupersededByID = &prev.ID
		return out, nil
	}
	out.Status = types.DedupStatusSupersedes
	out.RelatedDocumentID = &prev.ID
	return out, nil
}

func (s *reportService) Get(ctx context.Context, id uuid.UUID) (*ReportView, error) {
	dbc := dbctx.Background(ctx)
	doc, err := s.docs.GetByID(dbc, id)
	if err != nil {
		return nil, aggregates.MapError("report.get", err)
	}
	rep, err := s.reports.LatestByDocumentID(dbc, id)
	if err != nil {
		return nil, aggregates.MapError("report.get", err)
	}
	return &ReportView{Document: doc, Report: rep}, nil
}

// Canonicalize recomputes the canonical record of a stored document with the
// current mapping set of its source type.
func (s *reportService) Canonicalize(ctx context.Context, id uuid.UUID) (*CanonicalizeResult, error) {
	ctx, span := startSpan(ctx, "ReportService.Canonicalize", attribute.String("document_id", id.String()))
	defer span.End()

	doc, err := s.docs.GetByID(dbctx.Background(ctx), id)
	if err != nil {
		return nil, aggregates.MapError("report.canonicalize", err)
	}
	set, err := s.registry.MappingsFor(ctx, doc.SourceType)
	if err != nil {
		return nil, err
	}
	rep, outcomes, err := s.canonicalizeDocument(dbctx.Background(ctx), doc, set)
	if err != nil {
		return nil, aggregates.MapError("report.canonicalize", err)
	}
	return &CanonicalizeResult{Report: rep, Outcomes: outcomes}, nil
}

func (s *reportService) canonicalizeDocument(dbc dbctx.Context, doc *types.ReportDocument, set MappingSet) (*types.CanonicalReport, []canonical.Outcome, error) {
	node, err := canonical.Parse(doc.ParsedData)
	if err != nil {
		return nil, nil, fmt.Errorf("document %s: %w", doc.ID, err)
	}
	applied := canonical.Apply(node, set.Canonical())
	record, err := json.Marshal(applied.Record)
	if err != nil {
		return nil, nil, err
	}
	rep := &types.CanonicalReport{
		DocumentID:     doc.ID,
		SourceType:     doc.SourceType,
		MappingSetHash: set.Hash,
		Record:         datatypes.JSON(record),
		FieldCount:     len(applied.Record),
	}
	if err := s.reports.Upsert(dbc, rep); err != nil {
		return nil, nil, err
	}
	s.recordOutcomes(doc.SourceType, applied.Outcomes)
	return rep, applied.Outcomes, nil
}

func (s *reportService) recordOutcomes(sourceType string, outcomes []canonical.Outcome) {
	if s.metrics == nil {
		return
	}
	counts := map[canonical.OutcomeStatus]int{}
	for _, o := range outcomes {
		counts[o.Status]++
	}
	for status, n := range counts {
		s.metrics.AddCanonicalOutcomes(sourceType, string(status), n)
	}
}

// Fingerprint previews the fingerprint of an arbitrary document without
// storing it.
func (s *reportService) Fingerprint(ctx context.Context, parsed json.RawMessage) (string, error) {
	parsed = bytes.TrimSpace(parsed)
	if len(parsed) == 0 {
		return "", aggregates.MapError("report.fingerprint", aggregates.ValidationError("document body is required"))
	}
	node, err := canonical.Parse(parsed)
	if err != nil {
		return "", aggregates.MapError("report.fingerprint", aggregates.ValidationError(err.Error()))
	}
	return fingerprint.Compute(node), nil
}
