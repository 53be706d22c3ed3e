package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/Greg-CS/document-parser-sub001/internal/data/aggregates"
	"github.com/Greg-CS/document-parser-sub001/internal/data/repos"
	types "github.com/Greg-CS/document-parser-sub001/internal/domain"
	"github.com/Greg-CS/document-parser-sub001/internal/modules/canonical"
	"github.com/Greg-CS/document-parser-sub001/internal/observability"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/dbctx"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/logger"
)

type MappingInput struct {
	SourceField string `json:"sourceField" yaml:"sourceField"`
	TargetField string `json:"targetField" yaml:"targetField"`
}

type UpsertMappingsInput struct {
	SourceType string         `json:"sourceType" yaml:"sourceType"`
	Mappings   []MappingInput `json:"mappings" yaml:"fields"`
}

type UpsertMappingsResult struct {
	SourceType string     `json:"sourceType"`
	Upserted   int        `json:"upserted"`
	Set        MappingSet `json:"mappingSet"`
}

type CanonicalFieldInput struct {
	Name        string `json:"name" yaml:"name"`
	DataType    string `json:"dataType" yaml:"dataType"`
	Description string `json:"description" yaml:"description"`
}

// MappingRegistry owns canonical field definitions and per-source-type
// mappings. Readers always see a committed, complete mapping set.
type MappingRegistry interface {
	MappingsFor(ctx context.Context, sourceType string) (MappingSet, error)
	UpsertMappings(ctx context.Context, in UpsertMappingsInput) (UpsertMappingsResult, error)
	DeactivateMapping(ctx context.Context, id uuid.UUID) error
	ListCanonicalFields(ctx context.Context) ([]*types.CanonicalField, error)
	UpsertCanonicalFields(ctx context.Context, in []CanonicalFieldInput) ([]*types.CanonicalField, error)
}

type mappingRegistry struct {
	db       *gorm.DB
	log      *logger.Logger
	writes   aggregates.BaseDeps
	metrics  *observability.Metrics
	fields   repos.CanonicalFieldRepo
	mappings repos.FieldMappingRepo
	cache    MappingCache
}

func NewMappingRegistry(
	db *gorm.DB,
	baseLog *logger.Logger,
	fields repos.CanonicalFieldRepo,
	mappings repos.FieldMappingRepo,
	cache MappingCache,
	opts ...Option,
) MappingRegistry {
	if cache == nil {
		cache = NopMappingCache()
	}
	log := baseLog.With("service", "MappingRegistry")
	writes, metrics := resolveOptions(db, log, opts)
	return &mappingRegistry{
		db:       db,
		log:      log,
		writes:   writes,
		metrics:  metrics,
		fields:   fields,
		mappings: mappings,
		cache:    cache,
	}
}

func (s *mappingRegistry) MappingsFor(ctx context.Context, sourceType string) (MappingSet, error) {
	sourceType = strings.TrimSpace(sourceType)
	ctx, span := startSpan(ctx, "MappingRegistry.MappingsFor", attribute.String("source_type", sourceType))
	defer span.End()

	if sourceType == "" {
		return MappingSet{}, &InvalidMappingPayloadError{Problems: []PayloadProblem{
			{Index: -1, Field: "sourceType", Message: "is required"},
		}}
	}

	if raw, ok, err := s.cache.Get(ctx, sourceType); err != nil {
		s.metrics.IncMappingCache("error")
		s.log.Warn("mapping cache read failed", "source_type", sourceType, "error", err)
	} else if ok {
		var set MappingSet
		if err := json.Unmarshal(raw, &set); err == nil {
			s.metrics.IncMappingCache("hit")
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return set, nil
		}
		s.metrics.IncMappingCache("corrupt")
		s.log.Warn("mapping cache entry unreadable, reloading", "source_type", sourceType)
	} else {
		s.metrics.IncMappingCache("miss")
	}

	gen, genErr := s.cache.Generation(ctx, sourceType)
	if genErr != nil {
		s.log.Warn("mapping cache generation read failed", "source_type", sourceType, "error", genErr)
	}

	rows, err := s.mappings.ListActiveBySourceType(dbctx.Background(ctx), sourceType)
	if err != nil {
		return MappingSet{}, aggregates.MapError("mapping_registry.mappings_for", err)
	}
	set := buildMappingSet(sourceType, rows)
	for _, row := range rows {
		if row.CanonicalField == nil {
			s.log.Warn("mapping skipped: canonical field missing", "mapping_id", row.ID, "target_field", row.TargetField)
		}
	}

	if genErr != nil {
		return set, nil
	}
	if raw, err := json.Marshal(set); err == nil {
		stored, err := s.cache.Set(ctx, sourceType, gen, raw)
		switch {
		case err != nil:
			s.log.Warn("mapping cache write failed", "source_type", sourceType, "error", err)
		case !stored:
			// invalidated while loading; the next read reloads
			s.metrics.IncMappingCache("stale")
		}
	}
	return set, nil
}

func buildMappingSet(sourceType string, rows []*types.FieldMapping) MappingSet {
	entries := make([]MappingEntry, 0, len(rows))
	for _, row := range rows {
		if row.CanonicalField == nil {
			continue
		}
		entries = append(entries, MappingEntry{
			ID:          row.ID,
			SourceField: row.SourceField,
			TargetField: row.TargetField,
			Position:    row.Position,
			Field: canonical.FieldDef{
				Name:     row.CanonicalField.Name,
				DataType: row.CanonicalField.DataType,
			},
		})
	}
	return MappingSet{
		SourceType: sourceType,
		Hash:       HashMappings(sourceType, entries),
		Mappings:   entries,
	}
}

// UpsertMappings validates the batch, resolves every target name and writes
// all rows in one transaction. Any failure leaves the store untouched.
func (s *mappingRegistry) UpsertMappings(ctx context.Context, in UpsertMappingsInput) (UpsertMappingsResult, error) {
	ctx, span := startSpan(ctx, "MappingRegistry.UpsertMappings", attribute.Int("mappings", len(in.Mappings)))
	defer span.End()

	batch, err := normalizeMappingBatch(in)
	if err != nil {
		return UpsertMappingsResult{}, err
	}

	err = aggregates.ExecuteWrite(ctx, s.writes, "mapping_registry.upsert", func(dbc dbctx.Context) error {
		fieldByName, err := s.resolveTargets(dbc, batch.Mappings)
		if err != nil {
			return err
		}
		base, err := s.mappings.MaxPosition(dbc, batch.SourceType)
		if err != nil {
			return fmt.Errorf("max position: %w", err)
		}
		rows := make([]*types.FieldMapping, 0, len(batch.Mappings))
		for i, m := range batch.Mappings {
			f := fieldByName[m.TargetField]
			id := f.ID
			rows = append(rows, &types.FieldMapping{
				SourceType:       batch.SourceType,
				SourceField:      m.SourceField,
				TargetField:      m.TargetField,
				CanonicalFieldID: &id,
				Position:         base + 1 + i,
			})
		}
		return s.mappings.UpsertMany(dbc, rows)
	})
	if err != nil {
		return UpsertMappingsResult{}, err
	}

	s.invalidate(ctx, batch.SourceType)
	s.log.Info("mappings upserted", "source_type", batch.SourceType, "count", len(batch.Mappings))

	set, err := s.MappingsFor(ctx, batch.SourceType)
	if err != nil {
		return UpsertMappingsResult{}, err
	}
	return UpsertMappingsResult{
		SourceType: batch.SourceType,
		Upserted:   len(batch.Mappings),
		Set:        set,
	}, nil
}

// normalizeMappingBatch trims the payload and reports every structural
// problem at once. Repeated (sourceField, targetField) pairs keep their first
// position.
func normalizeMappingBatch(in UpsertMappingsInput) (UpsertMappingsInput, error) {
	var problems []PayloadProblem
	out := UpsertMappingsInput{SourceType: strings.TrimSpace(in.SourceType)}
	if out.SourceType == "" {
		problems = append(problems, PayloadProblem{Index: -1, Field: "sourceType", Message: "is required"})
	}
	if len(in.Mappings) == 0 {
		problems = append(problems, PayloadProblem{Index: -1, Field: "mappings", Message: "must contain at least one mapping"})
	}

	type pair struct{ source, target string }
	seen := map[pair]bool{}
	for i, m := range in.Mappings {
		src := strings.TrimSpace(m.SourceField)
		tgt := strings.TrimSpace(m.TargetField)
		if src == "" {
			problems = append(problems, PayloadProblem{Index: i, Field: "sourceField", Message: "is required"})
		} else if err := canonical.ValidatePath(src); err != nil {
			problems = append(problems, PayloadProblem{Index: i, Field: "sourceField", Message: err.Error()})
		}
		if tgt == "" {
			problems = append(problems, PayloadProblem{Index: i, Field: "targetField", Message: "is required"})
		}
		key := pair{src, tgt}
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Mappings = append(out.Mappings, MappingInput{SourceField: src, TargetField: tgt})
	}

	if len(problems) > 0 {
		return UpsertMappingsInput{}, &InvalidMappingPayloadError{Problems: problems}
	}
	return out, nil
}

func (s *mappingRegistry) resolveTargets(dbc dbctx.Context, batch []MappingInput) (map[string]*types.CanonicalField, error) {
	names := make([]string, 0, len(batch))
	seen := map[string]bool{}
	for _, m := range batch {
		if !seen[m.TargetField] {
			seen[m.TargetField] = true
			names = append(names, m.TargetField)
		}
	}
	found, err := s.fields.GetByNames(dbc, names)
	if err != nil {
		return nil, fmt.Errorf("lookup canonical fields: %w", err)
	}
	byName := make(map[string]*types.CanonicalField, len(found))
	for _, f := range found {
		byName[f.Name] = f
	}
	var unknown []string
	for _, n := range names {
		if byName[n] == nil {
			unknown = append(unknown, n)
		}
	}
	if len(unknown) > 0 {
		return nil, &UnknownCanonicalFieldError{Names: unknown}
	}
	return byName, nil
}

func (s *mappingRegistry) DeactivateMapping(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return aggregates.MapError("mapping_registry.deactivate", aggregates.ValidationError("mapping id is required"))
	}
	var sourceType string
	err := aggregates.ExecuteWrite(ctx, s.writes, "mapping_registry.deactivate", func(dbc dbctx.Context) error {
		row, err := s.mappings.GetByID(dbc, id)
		if err != nil {
			return err
		}
		sourceType = row.SourceType
		return s.mappings.Deactivate(dbc, id)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, sourceType)
	s.log.Info("mapping deactivated", "mapping_id", id, "source_type", sourceType)
	return nil
}

func (s *mappingRegistry) ListCanonicalFields(ctx context.Context) ([]*types.CanonicalField, error) {
	rows, err := s.fields.List(dbctx.Background(ctx))
	if err != nil {
		return nil, aggregates.MapError("mapping_registry.list_fields", err)
	}
	return rows, nil
}

// UpsertCanonicalFields creates or updates fields by name. A changed data
// type alters every cached mapping set, so all of them are dropped.
func (s *mappingRegistry) UpsertCanonicalFields(ctx context.Context, in []CanonicalFieldInput) ([]*types.CanonicalField, error) {
	var problems []PayloadProblem
	if len(in) == 0 {
		problems = append(problems, PayloadProblem{Index: -1, Field: "fields", Message: "must contain at least one field"})
	}
	rows := make([]*types.CanonicalField, 0, len(in))
	byName := map[string]int{}
	for i, f := range in {
		name := strings.TrimSpace(f.Name)
		dataType := strings.TrimSpace(f.DataType)
		if name == "" {
			problems = append(problems, PayloadProblem{Index: i, Field: "name", Message: "is required"})
		}
		if dataType == "" {
			problems = append(problems, PayloadProblem{Index: i, Field: "dataType", Message: "is required"})
		}
		row := &types.CanonicalField{Name: name, DataType: dataType, Description: strings.TrimSpace(f.Description)}
		if prev, ok := byName[name]; ok {
			rows[prev] = row
			continue
		}
		byName[name] = len(rows)
		rows = append(rows, row)
	}
	if len(problems) > 0 {
		return nil, &InvalidMappingPayloadError{Problems: problems}
	}

	var sourceTypes []string
	err := aggregates.ExecuteWrite(ctx, s.writes, "mapping_registry.upsert_fields", func(dbc dbctx.Context) error {
		if err := s.fields.Upsert(dbc, rows); err != nil {
			return err
		}
		var err error
		sourceTypes, err = s.mappings.ListSourceTypes(dbc)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, sourceTypes...)

	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Name)
	}
	stored, err := s.fields.GetByNames(dbctx.Background(ctx), names)
	if err != nil {
		return nil, aggregates.MapError("mapping_registry.upsert_fields", err)
	}
	return stored, nil
}

func (s *mappingRegistry) invalidate(ctx context.Context, sourceTypes ...string) {
	if len(sourceTypes) == 0 {
		return
	}
	if err := s.cache.Delete(ctx, sourceTypes...); err != nil {
		s.log.Warn("mapping cache invalidation failed", "source_types", sourceTypes, "error", err)
	}
}
