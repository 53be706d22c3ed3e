package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	"github.com/Greg-CS/document-parser-sub001/internal/modules/canonical"
)

// MappingEntry is one active mapping joined with its canonical field.
type MappingEntry struct {
	ID          uuid.UUID          `json:"id"`
	SourceField string             `json:"sourceField"`
	TargetField string             `json:"targetField"`
	Position    int                `json:"position"`
	Field       canonical.FieldDef `json:"canonicalField"`
}

// MappingSet is the ordered snapshot of a source type's active mappings.
type MappingSet struct {
	SourceType string         `json:"sourceType"`
	Hash       string         `json:"hash"`
	Mappings   []MappingEntry `json:"mappings"`
}

// Canonical returns the mappings in the form the canonicalizer consumes.
func (s MappingSet) Canonical() []canonical.Mapping {
	out := make([]canonical.Mapping, 0, len(s.Mappings))
	for _, m := range s.Mappings {
		out = append(out, canonical.Mapping{SourceField: m.SourceField, Field: m.Field})
	}
	return out
}

// HashMappings identifies a mapping set by what it does: source type, order,
// paths, targets and declared types. Row ids and positions do not take part.
func HashMappings(sourceType string, entries []MappingEntry) string {
	h := sha256.New()
	h.Write([]byte(sourceType))
	for _, e := range entries {
		h.Write([]byte{'\n'})
		h.Write([]byte(strings.Join([]string{e.SourceField, e.Field.Name, e.Field.DataType}, "\x00")))
	}
	return "ms_" + hex.EncodeToString(h.Sum(nil))[:16]
}

// MappingCache stores encoded mapping sets by source type. Delete bumps the
// source type's generation and Set reports false without writing when gen is
// no longer current, so a load that overlapped an invalidation is never
// cached.
type MappingCache interface {
	Get(ctx context.Context, sourceType string) ([]byte, bool, error)
	Generation(ctx context.Context, sourceType string) (int64, error)
	Set(ctx context.Context, sourceType string, gen int64, payload []byte) (bool, error)
	Delete(ctx context.Context, sourceTypes ...string) error
}

type nopMappingCache struct{}

// NopMappingCache never hits; used when Redis is not configured.
func NopMappingCache() MappingCache { return nopMappingCache{} }

func (nopMappingCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (nopMappingCache) Generation(context.Context, string) (int64, error)        { return 0, nil }
func (nopMappingCache) Set(context.Context, string, int64, []byte) (bool, error) { return false, nil }
func (nopMappingCache) Delete(context.Context, ...string) error                  { return nil }
