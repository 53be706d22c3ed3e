package services

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	aggtestutil "github.com/Greg-CS/document-parser-sub001/internal/data/aggregates/testutil"
	"github.com/Greg-CS/document-parser-sub001/internal/data/repos"
	"github.com/Greg-CS/document-parser-sub001/internal/data/repos/testutil"
	types "github.com/Greg-CS/document-parser-sub001/internal/domain"
	"github.com/Greg-CS/document-parser-sub001/internal/observability"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/logger"
)

type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	gen     map[string]int64
	deleted []string

	// beforeSet runs ahead of the next Set, outside the lock.
	beforeSet func()
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, gen: map[string]int64{}}
}

func (c *memCache) Get(_ context.Context, sourceType string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[sourceType]
	return raw, ok, nil
}

func (c *memCache) Generation(_ context.Context, sourceType string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen[sourceType], nil
}

func (c *memCache) Set(_ context.Context, sourceType string, gen int64, payload []byte) (bool, error) {
	if hook := c.beforeSet; hook != nil {
		c.beforeSet = nil
		hook()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen[sourceType] != gen {
		return false, nil
	}
	c.data[sourceType] = append([]byte(nil), payload...)
	return true, nil
}

func (c *memCache) Delete(_ context.Context, sourceTypes ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, st := range sourceTypes {
		delete(c.data, st)
		c.gen[st]++
		c.deleted = append(c.deleted, st)
	}
	return nil
}

func (c *memCache) has(sourceType string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[sourceType]
	return ok
}

type testEnv struct {
	ctx      context.Context
	db       *gorm.DB
	log      *logger.Logger
	fields   repos.CanonicalFieldRepo
	mappings repos.FieldMappingRepo
	docs     repos.ReportDocumentRepo
	reports  repos.CanonicalReportRepo
	cache    *memCache
	metrics  *observability.Metrics
	hooks    *aggtestutil.HooksRecorder
	registry MappingRegistry
	svc      ReportService
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	e := &testEnv{
		ctx:     context.Background(),
		db:      testutil.DB(t),
		log:     testutil.Logger(t),
		cache:   newMemCache(),
		metrics: observability.NewMetrics(),
		hooks:   &aggtestutil.HooksRecorder{},
	}
	e.fields = repos.NewCanonicalFieldRepo(e.db, e.log)
	e.mappings = repos.NewFieldMappingRepo(e.db, e.log)
	e.docs = repos.NewReportDocumentRepo(e.db, e.log)
	e.reports = repos.NewCanonicalReportRepo(e.db, e.log)

	all := append([]Option{WithMetrics(e.metrics), WithHooks(e.hooks)}, opts...)
	e.registry = NewMappingRegistry(e.db, e.log, e.fields, e.mappings, e.cache, all...)
	e.svc = NewReportService(e.db, e.log, e.docs, e.reports, e.registry, all...)
	return e
}

// field seeds canonical fields given as name, dataType pairs.
func (e *testEnv) field(t *testing.T, nameType ...string) {
	t.Helper()
	require.Zero(t, len(nameType)%2)
	for i := 0; i < len(nameType); i += 2 {
		testutil.SeedCanonicalField(t, e.ctx, e.db, nameType[i], nameType[i+1])
	}
}

func (e *testEnv) upsert(t *testing.T, sourceType string, pairs ...string) UpsertMappingsResult {
	t.Helper()
	in := UpsertMappingsInput{SourceType: sourceType}
	for i := 0; i+1 < len(pairs); i += 2 {
		in.Mappings = append(in.Mappings, MappingInput{SourceField: pairs[i], TargetField: pairs[i+1]})
	}
	res, err := e.registry.UpsertMappings(e.ctx, in)
	require.NoError(t, err)
	return res
}

func (e *testEnv) countMappings(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&types.FieldMapping{}).Count(&n).Error)
	return n
}

func (e *testEnv) exposition(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, e.metrics.WritePrometheus(&buf))
	return buf.String()
}

func sourceFields(set MappingSet) []string {
	out := make([]string, 0, len(set.Mappings))
	for _, m := range set.Mappings {
		out = append(out, m.SourceField)
	}
	return out
}
