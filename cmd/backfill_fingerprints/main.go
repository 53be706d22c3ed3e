package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Greg-CS/document-parser-sub001/internal/app"
	"github.com/Greg-CS/document-parser-sub001/internal/services"
)

func main() {
	var opts services.BackfillOptions
	flag.StringVar(&opts.SourceType, "source-type", "", "only backfill documents of this source type")
	flag.IntVar(&opts.Limit, "limit", 0, "limit number of documents processed")
	flag.BoolVar(&opts.DryRun, "dry-run", false, "report changes without writing")
	flag.IntVar(&opts.Concurrency, "concurrency", 0, "parallel workers (defaults to BACKFILL_CONCURRENCY)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, opts)
	stop()
	if err != nil {
		fmt.Printf("backfill: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts services.BackfillOptions) error {
	log, err := app.NewLogger()
	if err != nil {
		return err
	}
	cfg := app.LoadConfig(log)
	application, err := app.Bootstrap(ctx, log, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer application.Close()

	if opts.Concurrency <= 0 {
		opts.Concurrency = cfg.BackfillConcurrency
	}
	res, err := application.Services.Reports.Backfill(ctx, opts)
	prefix := ""
	if opts.DryRun {
		prefix = "[dry-run] "
	}
	fmt.Printf("%sscanned=%d fingerprints_changed=%d canonicalized=%d failed=%d\n",
		prefix, res.Scanned, res.FingerprintsChanged, res.Canonicalized, res.Failed)
	return err
}
