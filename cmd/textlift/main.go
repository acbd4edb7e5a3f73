package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/textlift/textlift/document"
	"github.com/textlift/textlift/ner"
	"github.com/textlift/textlift/observability"
	"github.com/textlift/textlift/ocr/tesseract"
	"github.com/textlift/textlift/pipeline"
	"github.com/textlift/textlift/store"
	"github.com/textlift/textlift/tenant"
)

type options struct {
	file     string
	tenantID string
	key      string
	lang     string
	mode     string
	auto     bool
	force    bool
	entities bool
	tenants  string
	workers  int
	verbose  bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "textlift: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "textlift: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: textlift [flags]\n")
		flag.PrintDefaults()
	}
	flag.StringVar(&opts.file, "file", "", "Local document to process (image or PDF)")
	flag.StringVar(&opts.tenantID, "tenant", "", "Tenant identifier for a remote source")
	flag.StringVar(&opts.key, "key", "", "Object key for a remote source")
	flag.StringVar(&opts.lang, "lang", "eng+por", "OCR language codes, or 'auto' to enable script detection")
	flag.StringVar(&opts.mode, "mode", "fast", "Processing mode: fast or accurate")
	flag.BoolVar(&opts.auto, "auto", false, "Enable orientation-and-script detection")
	flag.BoolVar(&opts.force, "force", false, "Process PDFs beyond the page limit")
	flag.BoolVar(&opts.entities, "entities", false, "Extract named entities from the text")
	flag.StringVar(&opts.tenants, "tenants", os.Getenv("TEXTLIFT_TENANTS"), "Tenant config file (default $TEXTLIFT_TENANTS)")
	flag.IntVar(&opts.workers, "workers", pipeline.DefaultWorkers, "Bound on concurrent heavy operations")
	flag.BoolVar(&opts.verbose, "v", false, "Enable debug logging")
	flag.Parse()

	if opts.file == "" && (opts.tenantID == "" || opts.key == "") {
		flag.Usage()
		return options{}, fmt.Errorf("provide -file, or -tenant with -key")
	}
	return opts, nil
}

func run(opts options) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := observability.NewSlogLogger(slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	mode, err := document.ParseMode(opts.mode)
	if err != nil {
		return err
	}

	src := document.Source{TenantID: opts.tenantID, ObjectKey: opts.key}
	if opts.file != "" {
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return fmt.Errorf("read %s: %w", opts.file, err)
		}
		src = document.Source{Data: data, Filename: opts.file}
	}

	pipeOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithWorkers(opts.workers),
	}
	if opts.tenants != "" {
		registry := tenant.NewRegistry(opts.tenants, logger)
		pipeOpts = append(pipeOpts, pipeline.WithFetcher(store.New(registry, logger)))
	}
	if opts.entities {
		svc := ner.NewService(logger, ner.NewProseModel())
		pipeOpts = append(pipeOpts, pipeline.WithEntityService(svc))
	}

	x := pipeline.New(tesseract.New(), pipeOpts...)

	res, err := x.Extract(context.Background(), src, pipeline.Options{
		LangHint:        opts.lang,
		Mode:            mode,
		AutoDetect:      opts.auto,
		ForceProcessing: opts.force,
		WantEntities:    opts.entities,
	})
	if err != nil {
		return err
	}

	fmt.Println(res.Text)
	if res.Entities != nil {
		fmt.Printf("\n%d entities:\n", len(res.Entities))
		for _, e := range res.Entities {
			fmt.Printf("  %-4s %q [%d:%d]\n", e.Label, e.Text, e.Start, e.End)
		}
	}
	fmt.Fprintf(os.Stderr, "processed %s in %.2fs\n", res.SourceName, res.Elapsed.Seconds())
	return nil
}
