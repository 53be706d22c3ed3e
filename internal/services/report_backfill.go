package services

import (
	"context"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/Greg-CS/document-parser-sub001/internal/data/aggregates"
	"github.com/Greg-CS/document-parser-sub001/internal/data/repos"
	types "github.com/Greg-CS/document-parser-sub001/internal/domain"
	"github.com/Greg-CS/document-parser-sub001/internal/modules/canonical"
	"github.com/Greg-CS/document-parser-sub001/internal/modules/fingerprint"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/dbctx"
)

const (
	defaultBackfillConcurrency = 4
	defaultBackfillPageSize    = 200
)

type BackfillOptions struct {
	SourceType  string
	Limit       int
	DryRun      bool
	Concurrency int
	PageSize    int
}

type BackfillResult struct {
	Scanned             int `json:"scanned"`
	FingerprintsChanged int `json:"fingerprintsChanged"`
	Canonicalized       int `json:"canonicalized"`
	Failed              int `json:"failed"`
}

// Backfill recomputes fingerprints and canonical records for stored
// documents. Per-document failures are logged and counted; cancellation
// stops the run between documents.
func (s *reportService) Backfill(ctx context.Context, opts BackfillOptions) (BackfillResult, error) {
	ctx, span := startSpan(ctx, "ReportService.Backfill",
		attribute.String("source_type", opts.SourceType),
		attribute.Bool("dry_run", opts.DryRun),
	)
	defer span.End()

	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultBackfillConcurrency
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultBackfillPageSize
	}

	var (
		scanned, changed, canonicalized, failed atomic.Int64
		setsMu                                  sync.Mutex
		sets                                    = map[string]MappingSet{}
	)
	mappingSet := func(sourceType string) (MappingSet, error) {
		setsMu.Lock()
		defer setsMu.Unlock()
		if set, ok := sets[sourceType]; ok {
			return set, nil
		}
		set, err := s.registry.MappingsFor(ctx, sourceType)
		if err != nil {
			return MappingSet{}, err
		}
		sets[sourceType] = set
		return set, nil
	}

	filter := repos.DocumentFilter{SourceType: opts.SourceType}
	remaining := opts.Limit
	for {
		if err := ctx.Err(); err != nil {
			return s.backfillResult(&scanned, &changed, &canonicalized, &failed), aggregates.MapError("report.backfill", err)
		}
		filter.Limit = opts.PageSize
		if opts.Limit > 0 && remaining < filter.Limit {
			filter.Limit = remaining
		}
		page, err := s.docs.List(dbctx.Background(ctx), filter)
		if err != nil {
			return s.backfillResult(&scanned, &changed, &canonicalized, &failed), aggregates.MapError("report.backfill", err)
		}
		if len(page) == 0 {
			break
		}

		// mapping sets are resolved before any worker starts
		for _, doc := range page {
			if _, err := mappingSet(doc.SourceType); err != nil {
				return s.backfillResult(&scanned, &changed, &canonicalized, &failed), err
			}
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Concurrency)
		for _, doc := range page {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				scanned.Add(1)
				set, _ := mappingSet(doc.SourceType)
				fpChanged, err := s.backfillDocument(gctx, doc, set, opts.DryRun)
				if err != nil {
					failed.Add(1)
					s.log.Warn("backfill document failed", "document_id", doc.ID, "error", err)
					return nil
				}
				if fpChanged {
					changed.Add(1)
				}
				if !opts.DryRun {
					canonicalized.Add(1)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return s.backfillResult(&scanned, &changed, &canonicalized, &failed), aggregates.MapError("report.backfill", err)
		}

		last := page[len(page)-1]
		filter.AfterCreatedAt, filter.AfterID = last.CreatedAt, last.ID
		if opts.Limit > 0 {
			remaining -= len(page)
			if remaining <= 0 {
				break
			}
		}
		if len(page) < filter.Limit {
			break
		}
	}

	res := s.backfillResult(&scanned, &changed, &canonicalized, &failed)
	s.metrics.AddBackfill("scanned", int64(res.Scanned))
	s.metrics.AddBackfill("fingerprint_changed", int64(res.FingerprintsChanged))
	s.metrics.AddBackfill("canonicalized", int64(res.Canonicalized))
	s.metrics.AddBackfill("failed", int64(res.Failed))
	s.log.Info("backfill finished",
		"source_type", opts.SourceType,
		"dry_run", opts.DryRun,
		"scanned", res.Scanned,
		"fingerprints_changed", res.FingerprintsChanged,
		"canonicalized", res.Canonicalized,
		"failed", res.Failed,
	)
	return res, nil
}

func (s *reportService) backfillDocument(ctx context.Context, doc *types.ReportDocument, set MappingSet, dryRun bool) (bool, error) {
	node, err := canonical.Parse(doc.ParsedData)
	if err != nil {
		return false, err
	}
	fp := fingerprint.Compute(node)
	fpChanged := fp != doc.ReportFingerprint
	if dryRun {
		return fpChanged, nil
	}

	err = aggregates.ExecuteWrite(ctx, s.writes, "report.backfill_document", func(dbc dbctx.Context) error {
		if fpChanged {
			if err := s.docs.UpdateFields(dbc, doc.ID, map[string]interface{}{
				"report_fingerprint": fp,
			}); err != nil {
				return err
			}
		}
		_, _, err := s.canonicalizeDocument(dbc, doc, set)
		return err
	})
	return fpChanged, err
}

func (s *reportService) backfillResult(scanned, changed, canonicalized, failed *atomic.Int64) BackfillResult {
	return BackfillResult{
		Scanned:             int(scanned.Load()),
		FingerprintsChanged: int(changed.Load()),
		Canonicalized:       int(canonicalized.Load()),
		Failed:              int(failed.Load()),
	}
}
