package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Greg-CS/document-parser-sub001/internal/app"
	"github.com/Greg-CS/document-parser-sub001/internal/services"
)

func main() {
	var (
		file   string
		dryRun bool
	)
	flag.StringVar(&file, "file", "", "YAML mapping file (defaults to the built-in seed)")
	flag.BoolVar(&dryRun, "dry-run", false, "validate the file without writing")
	flag.Parse()

	if err := run(context.Background(), file, dryRun); err != nil {
		fmt.Printf("import mappings: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, file string, dryRun bool) error {
	var (
		mf  *services.MappingFile
		err error
	)
	if file == "" {
		mf, err = services.DefaultMappingFile()
	} else {
		mf, err = services.LoadMappingFile(file)
	}
	if err != nil {
		return fmt.Errorf("load mapping file: %w", err)
	}

	log, err := app.NewLogger()
	if err != nil {
		return err
	}
	application, err := app.Bootstrap(ctx, log, app.LoadConfig(log))
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer application.Close()

	summary, err := services.ImportMappingFile(ctx, log, application.Services.Registry, mf, dryRun)
	prefix := ""
	if summary.DryRun {
		prefix = "[dry-run] "
	}
	fmt.Printf("%scanonical_fields=%d source_types=%s mappings=%d\n",
		prefix, summary.CanonicalFields, strings.Join(summary.SourceTypes, ","), summary.Mappings)
	return err
}
