package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/Greg-CS/document-parser-sub001/internal/domain"
	domainagg "github.com/Greg-CS/document-parser-sub001/internal/domain/aggregates"
	"github.com/Greg-CS/document-parser-sub001/internal/http/response"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/logger"
	"github.com/Greg-CS/document-parser-sub001/internal/services"
)

type fakeRegistry struct {
	set         services.MappingSet
	upsertErr   error
	deactivated []uuid.UUID
	lastUpsert  services.UpsertMappingsInput
}

func (f *fakeRegistry) MappingsFor(_ context.Context, sourceType string) (services.MappingSet, error) {
	if sourceType == "" {
		return services.MappingSet{}, domainagg.NewError(domainagg.CodeValidation, "mappings_for", "sourceType is required", nil)
	}
	s := f.set
	s.SourceType = sourceType
	return s, nil
}

func (f *fakeRegistry) UpsertMappings(_ context.Context, in services.UpsertMappingsInput) (services.UpsertMappingsResult, error) {
	f.lastUpsert = in
	if f.upsertErr != nil {
		return services.UpsertMappingsResult{}, f.upsertErr
	}
	return services.UpsertMappingsResult{SourceType: in.SourceType, Upserted: len(in.Mappings), Set: f.set}, nil
}

func (f *fakeRegistry) DeactivateMapping(_ context.Context, id uuid.UUID) error {
	f.deactivated = append(f.deactivated, id)
	return nil
}

func (f *fakeRegistry) ListCanonicalFields(context.Context) ([]*types.CanonicalField, error) {
	return []*types.CanonicalField{{Name: "firstName", DataType: "string"}}, nil
}

func (f *fakeRegistry) UpsertCanonicalFields(_ context.Context, in []services.CanonicalFieldInput) ([]*types.CanonicalField, error) {
	out := make([]*types.CanonicalField, 0, len(in))
	for _, fd := range in {
		out = append(out, &types.CanonicalField{Name: fd.Name, DataType: fd.DataType})
	}
	return out, nil
}

type fakeReports struct {
	services.ReportService
	getErr  error
	fpInput json.RawMessage
}

func (f *fakeReports) Ingest(context.Context, services.IngestInput) (*services.IngestResult, error) {
	return &services.IngestResult{Dedup: services.DedupResult{Status: "new", Fingerprint: "fp_x"}}, nil
}

func (f *fakeReports) Get(_ context.Context, id uuid.UUID) (*services.ReportView, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &services.ReportView{Document: &types.ReportDocument{ID: id}}, nil
}

func (f *fakeReports) Fingerprint(_ context.Context, parsed json.RawMessage) (string, error) {
	f.fpInput = parsed
	return "fp_lewioy", nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Mode: "test", Redact: true})
	require.NoError(t, err)
	return log
}

func newTestRouter(t *testing.T, reg *fakeRegistry, reports *fakeReports) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := testLogger(t)
	fields := NewCanonicalFieldHandler(log, reg)
	mappings := NewMappingHandler(log, reg)
	rh := NewReportHandler(log, reports)

	r := gin.New()
	r.GET("/api/canonical-fields", fields.List)
	r.PUT("/api/canonical-fields", fields.Upsert)
	r.GET("/api/mappings/:sourceType", mappings.Get)
	r.PUT("/api/mappings", mappings.Upsert)
	r.DELETE("/api/mappings/:id", mappings.Deactivate)
	r.POST("/api/reports", rh.Ingest)
	r.GET("/api/reports/:id", rh.Get)
	r.POST("/api/fingerprint", rh.Fingerprint)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.APIError {
	t.Helper()
	var env struct {
		Error struct {
			Message string          `json:"message"`
			Code    string          `json:"code"`
			Details json.RawMessage `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var details any
	if len(env.Error.Details) > 0 {
		require.NoError(t, json.Unmarshal(env.Error.Details, &details))
	}
	return response.APIError{Message: env.Error.Message, Code: env.Error.Code, Details: details}
}

func TestMappingHandler_Upsert(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		reg := &fakeRegistry{set: services.MappingSet{Hash: "ms_abc"}}
		r := newTestRouter(t, reg, &fakeReports{})
		rec := do(r, http.MethodPut, "/api/mappings", `{"sourceType":"experian","mappings":[{"sourceField":"a.b","targetField":"firstName"}]}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "experian", reg.lastUpsert.SourceType)
		assert.JSONEq(t, `{"sourceType":"experian","upserted":1,"mappingSet":{"sourceType":"","hash":"ms_abc","mappings":null}}`, rec.Body.String())
	})

	t.Run("unknown canonical field", func(t *testing.T) {
		reg := &fakeRegistry{upsertErr: &services.UnknownCanonicalFieldError{Names: []string{"nope", "other"}}}
		rec := do(newTestRouter(t, reg, &fakeReports{}), http.MethodPut, "/api/mappings", `{"sourceType":"experian","mappings":[]}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		apiErr := decodeError(t, rec)
		assert.Equal(t, "unknown_canonical_field", apiErr.Code)
		assert.Equal(t, map[string]any{"names": []any{"nope", "other"}}, apiErr.Details)
	})

	t.Run("invalid payload", func(t *testing.T) {
		reg := &fakeRegistry{upsertErr: &services.InvalidMappingPayloadError{Problems: []services.PayloadProblem{
			{Index: -1, Field: "sourceType", Message: "is required"},
		}}}
		rec := do(newTestRouter(t, reg, &fakeReports{}), http.MethodPut, "/api/mappings", `{"mappings":[]}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		apiErr := decodeError(t, rec)
		assert.Equal(t, "invalid_mapping_payload", apiErr.Code)
		assert.Equal(t, map[string]any{"problems": []any{
			map[string]any{"index": float64(-1), "field": "sourceType", "message": "is required"},
		}}, apiErr.Details)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := do(newTestRouter(t, &fakeRegistry{}, &fakeReports{}), http.MethodPut, "/api/mappings", `{"sourceType":`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_request", decodeError(t, rec).Code)
	})

	t.Run("internal failure", func(t *testing.T) {
		reg := &fakeRegistry{upsertErr: errors.New("boom")}
		rec := do(newTestRouter(t, reg, &fakeReports{}), http.MethodPut, "/api/mappings", `{"sourceType":"x","mappings":[]}`)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal", decodeError(t, rec).Code)
	})
}

func TestMappingHandler_GetAndDeactivate(t *testing.T) {
	reg := &fakeRegistry{set: services.MappingSet{Hash: "ms_1"}}
	r := newTestRouter(t, reg, &fakeReports{})

	rec := do(r, http.MethodGet, "/api/mappings/experian", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var set services.MappingSet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &set))
	assert.Equal(t, "experian", set.SourceType)
	assert.Equal(t, "ms_1", set.Hash)

	rec = do(r, http.MethodDelete, "/api/mappings/not-a-uuid", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_mapping_id", decodeError(t, rec).Code)
	assert.Empty(t, reg.deactivated)

	id := uuid.New()
	rec = do(r, http.MethodDelete, "/api/mappings/"+id.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uuid.UUID{id}, reg.deactivated)
}

func TestCanonicalFieldHandler(t *testing.T) {
	r := newTestRouter(t, &fakeRegistry{}, &fakeReports{})

	rec := do(r, http.MethodGet, "/api/canonical-fields", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"firstName"`)

	rec = do(r, http.MethodPut, "/api/canonical-fields", `{"fields":[{"name":"ssnLast4","dataType":"string"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ssnLast4"`)
}

func TestReportHandler(t *testing.T) {
	t.Run("ingest returns created", func(t *testing.T) {
		rec := do(newTestRouter(t, &fakeRegistry{}, &fakeReports{}), http.MethodPost, "/api/reports", `{"sourceType":"experian","parsedData":{}}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"fp_x"`)
	})

	t.Run("get not found", func(t *testing.T) {
		reports := &fakeReports{getErr: domainagg.NewError(domainagg.CodeNotFound, "report.get", "document not found", nil)}
		rec := do(newTestRouter(t, &fakeRegistry{}, reports), http.MethodGet, "/api/reports/"+uuid.NewString(), "")
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", decodeError(t, rec).Code)
	})

	t.Run("get bad id", func(t *testing.T) {
		rec := do(newTestRouter(t, &fakeRegistry{}, &fakeReports{}), http.MethodGet, "/api/reports/123", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_report_id", decodeError(t, rec).Code)
	})

	t.Run("fingerprint passes the raw body", func(t *testing.T) {
		reports := &fakeReports{}
		rec := do(newTestRouter(t, &fakeRegistry{}, reports), http.MethodPost, "/api/fingerprint", `{"a":1}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"fingerprint":"fp_lewioy"}`, rec.Body.String())
		assert.JSONEq(t, `{"a":1}`, string(reports.fpInput))
	})
}
