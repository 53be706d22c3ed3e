package services

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Greg-CS/document-parser-sub001/internal/platform/logger"
)

//go:embed default_mappings.yaml
var defaultMappingsYAML []byte

// MappingFile is the YAML document accepted by the import CLI and the boot
// seed.
type MappingFile struct {
	CanonicalFields []CanonicalFieldInput `yaml:"canonicalFields"`
	Mappings        []UpsertMappingsInput `yaml:"mappings"`
}

type ImportSummary struct {
	CanonicalFields int      `json:"canonicalFields"`
	SourceTypes     []string `json:"sourceTypes"`
	Mappings        int      `json:"mappings"`
	DryRun          bool     `json:"dryRun"`
}

func ParseMappingFile(data []byte) (*MappingFile, error) {
	var mf MappingFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("failed to parse mapping YAML: %w", err)
	}
	if len(mf.CanonicalFields) == 0 && len(mf.Mappings) == 0 {
		return nil, errors.New("mapping file defines no canonical fields and no mappings")
	}
	return &mf, nil
}

func LoadMappingFile(path string) (*MappingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}
	return ParseMappingFile(data)
}

// DefaultMappingFile returns the mapping file compiled into the binary.
func DefaultMappingFile() (*MappingFile, error) {
	return ParseMappingFile(defaultMappingsYAML)
}

// Validate checks every batch without touching the store.
func (mf *MappingFile) Validate() error {
	var problems []PayloadProblem
	for i, f := range mf.CanonicalFields {
		if strings.TrimSpace(f.Name) == "" {
			problems = append(problems, PayloadProblem{Index: i, Field: "canonicalFields.name", Message: "is required"})
		}
		if strings.TrimSpace(f.DataType) == "" {
			problems = append(problems, PayloadProblem{Index: i, Field: "canonicalFields.dataType", Message: "is required"})
		}
	}
	for _, batch := range mf.Mappings {
		if _, err := normalizeMappingBatch(batch); err != nil {
			var invalid *InvalidMappingPayloadError
			if !errors.As(err, &invalid) {
				return err
			}
			for _, p := range invalid.Problems {
				p.Field = fmt.Sprintf("mappings[%s].%s", batch.SourceType, p.Field)
				problems = append(problems, p)
			}
		}
	}
	if len(problems) > 0 {
		return &InvalidMappingPayloadError{Problems: problems}
	}
	return nil
}

// ImportMappingFile writes canonical fields first and then each source type
// batch in file order. Each batch is atomic on its own; a failing batch stops
// the import and earlier batches stay committed.
func ImportMappingFile(ctx context.Context, log *logger.Logger, registry MappingRegistry, mf *MappingFile, dryRun bool) (ImportSummary, error) {
	summary := ImportSummary{DryRun: dryRun}
	if err := mf.Validate(); err != nil {
		return summary, err
	}
	if dryRun {
		summary.CanonicalFields = len(mf.CanonicalFields)
		for _, batch := range mf.Mappings {
			summary.SourceTypes = append(summary.SourceTypes, batch.SourceType)
			summary.Mappings += len(batch.Mappings)
		}
		return summary, nil
	}

	if len(mf.CanonicalFields) > 0 {
		fields, err := registry.UpsertCanonicalFields(ctx, mf.CanonicalFields)
		if err != nil {
			return summary, fmt.Errorf("canonical fields: %w", err)
		}
		summary.CanonicalFields = len(fields)
	}
	for _, batch := range mf.Mappings {
		res, err := registry.UpsertMappings(ctx, batch)
		if err != nil {
			return summary, fmt.Errorf("mappings for %q: %w", batch.SourceType, err)
		}
		summary.SourceTypes = append(summary.SourceTypes, res.SourceType)
		summary.Mappings += res.Upserted
		if log != nil {
			log.Info("mapping batch imported", "source_type", res.SourceType, "upserted", res.Upserted, "mapping_set", res.Set.Hash)
		}
	}
	return summary, nil
}

// SeedDefaultMappings imports the embedded mapping file.
func SeedDefaultMappings(ctx context.Context, log *logger.Logger, registry MappingRegistry) (ImportSummary, error) {
	mf, err := DefaultMappingFile()
	if err != nil {
		return ImportSummary{}, err
	}
	return ImportMappingFile(ctx, log, registry, mf, false)
}
