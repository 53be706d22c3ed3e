package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/Greg-CS/document-parser-sub001/internal/domain"
	domainagg "github.com/Greg-CS/document-parser-sub001/internal/domain/aggregates"
	"github.com/Greg-CS/document-parser-sub001/internal/data/repos"
	"github.com/Greg-CS/document-parser-sub001/internal/modules/canonical"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/dbctx"
)

const janeDoc = `{"firstName":"Jane ","lastName":"Doe","balance":"1,200","CREDIT_LIABILITY":[{"CreditLiabilityCreditorName":"Bank A"}]}`

func ingest(t *testing.T, e *testEnv, sourceType, parsed string, uploadedAt time.Time) *IngestResult {
	t.Helper()
	res, err := e.svc.Ingest(e.ctx, IngestInput{
		SourceType: sourceType,
		UploadedAt: &uploadedAt,
		ParsedData: json.RawMessage(parsed),
	})
	require.NoError(t, err)
	return res
}

func TestIngest_CanonicalizesNewDocument(t *testing.T) {
	e := newTestEnv(t)
	e.field(t, "balance", "decimal", "lastName", "string", "openedAt", "date")
	set := e.upsert(t, "experian", "balance", "balance", "lastName", "lastName", "opened", "openedAt").Set

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	res := ingest(t, e, "experian", janeDoc, at)

	assert.Equal(t, types.DedupStatusNew, res.Dedup.Status)
	assert.Nil(t, res.Dedup.RelatedDocumentID)
	assert.Regexp(t, `^fp_[0-9a-z]+$`, res.Dedup.Fingerprint)
	assert.Equal(t, res.Dedup.Fingerprint, res.Document.ReportFingerprint)
	assert.Equal(t, at, res.Document.UploadedAt)
	assert.Len(t, res.Document.ContentHash, 64)

	assert.JSONEq(t, `{"balance":1200,"lastName":"Doe"}`, string(res.Report.Record))
	assert.Equal(t, 2, res.Report.FieldCount)
	assert.Equal(t, set.Hash, res.Report.MappingSetHash)
	require.Len(t, res.Outcomes, 3)
	assert.Equal(t, canonical.OutcomeUnresolved, res.Outcomes[2].Status)

	view, err := e.svc.Get(e.ctx, res.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Document.ID, view.Document.ID)
	require.NotNil(t, view.Report)
	assert.JSONEq(t, string(res.Report.Record), string(view.Report.Record))

	out := e.exposition(t)
	assert.Contains(t, out, `dp_report_dedup_total{source_type="experian",status="new"} 1`)
	assert.Contains(t, out, `dp_canonical_mapping_outcomes_total{source_type="experian",status="applied"} 2`)
	assert.Contains(t, out, `dp_canonical_mapping_outcomes_total{source_type="experian",status="unresolved"} 1`)
	assert.Equal(t, []string{"success"}, e.hooks.Statuses("report.ingest"))
}

func TestIngest_DedupClassification(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	reordered := `{"lastName":"Doe","firstName":"JANE","balance":"900","CREDIT_LIABILITY":[{"CreditLiabilityCreditorName":"bank  a"}]}`

	t.Run("byte identical content is a duplicate", func(t *testing.T) {
		e := newTestEnv(t)
		first := ingest(t, e, "experian", janeDoc, base)
		spaced := "{\n  \"firstName\": \"Jane \",\n  \"lastName\": \"Doe\", \"balance\": \"1,200\",\n  \"CREDIT_LIABILITY\": [{\"CreditLiabilityCreditorName\": \"Bank A\"}]\n}"
		second := ingest(t, e, "experian", spaced, base.Add(time.Hour))

		assert.Equal(t, types.DedupStatusDuplicate, second.Dedup.Status)
		require.NotNil(t, second.Dedup.RelatedDocumentID)
		assert.Equal(t, first.Document.ID, *second.Dedup.RelatedDocumentID)
		assert.Equal(t, first.Document.ContentHash, second.Document.ContentHash)

		other := ingest(t, e, "equifax", janeDoc, base.Add(2*time.Hour))
		assert.NotEqual(t, types.DedupStatusDuplicate, other.Dedup.Status)
	})

	t.Run("newer upload of same subject supersedes", func(t *testing.T) {
		e := newTestEnv(t)
		first := ingest(t, e, "experian", janeDoc, base)
		second := ingest(t, e, "experian", reordered, base.Add(24*time.Hour))

		assert.Equal(t, first.Dedup.Fingerprint, second.Dedup.Fingerprint)
		assert.Equal(t, types.DedupStatusSupersedes, second.Dedup.Status)
		require.NotNil(t, second.Dedup.RelatedDocumentID)
		assert.Equal(t, first.Document.ID, *second.Dedup.RelatedDocumentID)

		view, err := e.svc.Get(e.ctx, first.Document.ID)
		require.NoError(t, err)
		require.NotNil(t, view.Document.SupersededByID)
		assert.Equal(t, second.Document.ID, *view.Document.SupersededByID)
	})

	t.Run("late arrival of older report stays new", func(t *testing.T) {
		e := newTestEnv(t)
		latest := ingest(t, e, "experian", janeDoc, base)
		older := ingest(t, e, "experian", reordered, base.Add(-24*time.Hour))

		assert.Equal(t, types.DedupStatusNew, older.Dedup.Status)
		require.NotNil(t, older.Dedup.SupersededByID)
		assert.Equal(t, latest.Document.ID, *older.Dedup.SupersededByID)

		view, err := e.svc.Get(e.ctx, latest.Document.ID)
		require.NoError(t, err)
		assert.Nil(t, view.Document.SupersededByID)
	})

	t.Run("documents without identity never match", func(t *testing.T) {
		e := newTestEnv(t)
		a := ingest(t, e, "experian", `{"balance":"1"}`, base)
		b := ingest(t, e, "experian", `{"balance":"2"}`, base.Add(time.Hour))
		assert.Empty(t, a.Dedup.Fingerprint)
		assert.Equal(t, types.DedupStatusNew, b.Dedup.Status)
		assert.Nil(t, b.Dedup.RelatedDocumentID)
		assert.Nil(t, b.Dedup.SupersededByID)
	})
}

// orderedDocs records the order of dedup calls made against the real repo.
type orderedDocs struct {
	repos.ReportDocumentRepo
	calls []string
	locks [][3]string
}

func (d *orderedDocs) LockDedupKeys(dbc dbctx.Context, sourceType, contentHash, fingerprint string) error {
	if dbc.Tx == nil {
		d.calls = append(d.calls, "lock-outside-tx")
	} else {
		d.calls = append(d.calls, "lock")
	}
	d.locks = append(d.locks, [3]string{sourceType, contentHash, fingerprint})
	return d.ReportDocumentRepo.LockDedupKeys(dbc, sourceType, contentHash, fingerprint)
}

func (d *orderedDocs) FindByContentHash(dbc dbctx.Context, sourceType, contentHash string) (*types.ReportDocument, error) {
	d.calls = append(d.calls, "find-content")
	return d.ReportDocumentRepo.FindByContentHash(dbc, sourceType, contentHash)
}

func (d *orderedDocs) Create(dbc dbctx.Context, row *types.ReportDocument) (*types.ReportDocument, error) {
	d.calls = append(d.calls, "create")
	return d.ReportDocumentRepo.Create(dbc, row)
}

func TestIngest_LocksDedupKeysBeforeClassifying(t *testing.T) {
	e := newTestEnv(t)
	docs := &orderedDocs{ReportDocumentRepo: e.docs}
	svc := NewReportService(e.db, e.log, docs, e.reports, e.registry, WithMetrics(e.metrics))

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	res, err := svc.Ingest(e.ctx, IngestInput{SourceType: "experian", UploadedAt: &at, ParsedData: json.RawMessage(janeDoc)})
	require.NoError(t, err)

	assert.Equal(t, []string{"lock", "find-content", "create"}, docs.calls)
	require.Len(t, docs.locks, 1)
	assert.Equal(t, [3]string{"experian", res.Document.ContentHash, res.Document.ReportFingerprint}, docs.locks[0])
}

func TestIngest_Validation(t *testing.T) {
	e := newTestEnv(t)
	cases := []struct {
		name string
		in   IngestInput
	}{
		{name: "missing source type", in: IngestInput{ParsedData: json.RawMessage(`{}`)}},
		{name: "missing body", in: IngestInput{SourceType: "experian"}},
		{name: "null body", in: IngestInput{SourceType: "experian", ParsedData: json.RawMessage(`null`)}},
		{name: "malformed body", in: IngestInput{SourceType: "experian", ParsedData: json.RawMessage(`{"a":`)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.svc.Ingest(e.ctx, tc.in)
			require.Error(t, err)
			assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation), "got %v", err)
		})
	}
	assert.Empty(t, e.hooks.Statuses("report.ingest"))
}

func TestCanonicalize_UsesCurrentMappingSet(t *testing.T) {
	e := newTestEnv(t)
	e.field(t, "balance", "decimal", "firstName", "string")
	e.upsert(t, "experian", "balance", "balance")
	res := ingest(t, e, "experian", janeDoc, time.Now().UTC())
	assert.Equal(t, 1, res.Report.FieldCount)

	set := e.upsert(t, "experian", "firstName", "firstName").Set
	out, err := e.svc.Canonicalize(e.ctx, res.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, set.Hash, out.Report.MappingSetHash)
	assert.JSONEq(t, `{"balance":1200,"firstName":"Jane "}`, string(out.Report.Record))
	require.Len(t, out.Outcomes, 2)

	// same set again updates the stored row in place
	_, err = e.svc.Canonicalize(e.ctx, res.Document.ID)
	require.NoError(t, err)
	all, err := e.reports.ListByDocumentID(dbctx.Background(e.ctx), res.Document.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	view, err := e.svc.Get(e.ctx, res.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, set.Hash, view.Report.MappingSetHash)

	_, err = e.svc.Canonicalize(e.ctx, uuid.New())
	assert.True(t, domainagg.IsCode(err, domainagg.CodeNotFound))
}

func TestFingerprintPreview(t *testing.T) {
	e := newTestEnv(t)

	a, err := e.svc.Fingerprint(e.ctx, json.RawMessage(`{"firstName":"Jane ","lastName":"Doe","CREDIT_LIABILITY":[{"CreditLiabilityCreditorName":"Bank A"}]}`))
	require.NoError(t, err)
	b, err := e.svc.Fingerprint(e.ctx, json.RawMessage(`{"firstName":"JANE","lastName":"Doe","CREDIT_LIABILITY":[{"CreditLiabilityCreditorName":"Bank A"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "fp_lewioy", a)
	assert.Equal(t, a, b)

	empty, err := e.svc.Fingerprint(e.ctx, json.RawMessage(`{"balance":1}`))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = e.svc.Fingerprint(e.ctx, nil)
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation))
	_, err = e.svc.Fingerprint(e.ctx, json.RawMessage(`[1,`))
	assert.True(t, domainagg.IsCode(err, domainagg.CodeValidation))

	var n int64
	require.NoError(t, e.db.Model(&types.ReportDocument{}).Count(&n).Error)
	assert.Zero(t, n)
}
