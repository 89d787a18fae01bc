package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joseph-ayodele/labels-extractor/constants"
	"github.com/joseph-ayodele/labels-extractor/internal/common"
	"github.com/joseph-ayodele/labels-extractor/internal/export"
	"github.com/joseph-ayodele/labels-extractor/internal/ingest"
	"github.com/joseph-ayodele/labels-extractor/internal/ocr"
	"github.com/joseph-ayodele/labels-extractor/internal/pipeline"
	repo "github.com/joseph-ayodele/labels-extractor/internal/repository"
	"github.com/joseph-ayodele/labels-extractor/internal/server"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	cfg := common.LoadConfig()

	var (
		platformName = flag.String("platform", "", "amazon | flipkart | meesho | myntra (required)")
		format       = flag.String("format", cfg.Export.Format, "export format: xlsx | json")
		out          = flag.String("out", cfg.Export.Dir, "directory the export is written to")
		dir          = flag.String("dir", "", "also process every PDF/TXT file below this directory")
		workers      = flag.Int("workers", 4, "documents processed concurrently")
	)
	flag.Usage = func() {
		printError("usage: labels-batch -platform meesho [-format xlsx] [-out ./out] [-dir ./inbox] [file ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg.Export.Format = strings.ToLower(*format)
	cfg.Export.Dir = *out
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	if *platformName == "" {
		printError("Error: -platform is required\n")
		flag.Usage()
		os.Exit(2)
	}

	logger := cfg.Log.NewLogger(os.Stderr)

	paths := flag.Args()
	if *dir != "" {
		files, stats, err := ingest.Scan(*dir, true)
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		logger.Info("batch.scan.done", "dir", *dir, "matched", stats.Matched, "skipped", stats.Skipped, "failed", stats.Failed)
		paths = append(paths, files...)
	}
	if len(paths) == 0 {
		printError("Error: no input files\n")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []pipeline.Option{pipeline.WithParallelism(*workers)}
	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		printError("Error: opening run history: %v\n", err)
		os.Exit(1)
	}
	if db != nil {
		defer server.CloseDB(db)
		opts = append(opts, pipeline.WithRunStore(repo.NewRunRepository(db, logger)))
	}

	extractor := ocr.NewExtractor(ocr.Config{
		Method:    cfg.Renderer.Method,
		Pdftotext: cfg.Renderer.Pdftotext,
		Layout:    cfg.Renderer.Layout,
		MaxPages:  cfg.Renderer.MaxPages,
		Timeout:   cfg.Renderer.Timeout,
	}, logger)
	proc, err := pipeline.NewSet(extractor, logger, opts...).Lookup(*platformName)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}

	batch, err := proc.RunBatch(ctx, paths)
	if err != nil {
		printError("Error: batch interrupted: %v\n", err)
		os.Exit(1)
	}
	for _, o := range batch.Outcomes {
		fmt.Println(o.Summary())
	}

	recs := batch.Records()
	if len(recs) == 0 {
		fmt.Println(pipeline.MsgNoData)
		if batch.Status() == constants.RunStatusFailed {
			os.Exit(1)
		}
		return
	}

	ex := proc.Extractor()
	path, err := export.NewService(logger).Save(ctx, cfg.Export.Dir, cfg.Export.Format, ex.Platform(), ex.Schema(), recs, time.Now())
	if err != nil {
		printError("Error: export failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%d rows from %d files written to %s\n", len(recs), len(paths), path)
	if failed := batch.Failed(); len(failed) > 0 {
		fmt.Printf("%d files could not be read\n", len(failed))
	}
}
