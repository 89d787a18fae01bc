// Package ocr turns source files into per-page text.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/joseph-ayodele/labels-extractor/constants"
	"github.com/joseph-ayodele/labels-extractor/internal/common"
	"github.com/joseph-ayodele/labels-extractor/internal/core"
)

const (
	MethodPdftotext = "pdftotext"
	MethodNative    = "native"
	MethodPlainText = "text"
)

type Config struct {
	Method    string        // MethodPdftotext (default) | MethodNative
	Pdftotext string        // binary name or absolute path; if empty -> "pdftotext"
	Layout    bool          // pass -layout to pdftotext
	MaxPages  int           // 0 = no limit
	Timeout   time.Duration // per pdftotext call; 0 = no limit
}

type ExtractionResult struct {
	Pages      []string
	SourceType string // constants.PDF | constants.TXT
	Method     string
	Duration   time.Duration
	Warnings   []string
}

// Document names the pages for the extractors.
func (r ExtractionResult) Document(name string) core.Document {
	return core.Document{Name: name, Pages: r.Pages}
}

// TextSource renders one file into page texts.
type TextSource interface {
	Extract(ctx context.Context, path string) (ExtractionResult, error)
}

// PageCounter reports the number of pages of a PDF, failing on files that are not PDFs.
type PageCounter func(path string) (int, error)

type Extractor struct {
	cfg        Config
	runner     Runner
	native     *NativeSource
	countPages PageCounter
	logger     *slog.Logger
}

type Option func(*Extractor)

// WithRunner replaces the command runner used for pdftotext.
func WithRunner(r Runner) Option {
	return func(e *Extractor) { e.runner = r }
}

// WithPageCounter replaces the PDF probe.
func WithPageCounter(c PageCounter) Option {
	return func(e *Extractor) { e.countPages = c }
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Method == "" {
		cfg.Method = MethodPdftotext
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	e := &Extractor{
		cfg:        cfg,
		runner:     execRunner{logger: logger},
		native:     NewNativeSource(logger),
		countPages: PDFPageCount,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract picks a strategy based on file extension. Files that cannot be rendered fail with
// common.ErrUnreadableSource.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("render.start", "path", path, "method", e.cfg.Method, "ext", ext)

	var (
		res ExtractionResult
		err error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.TXT:
		res, err = readPlainText(path)
	default:
		e.logger.Error("render.unsupported", "path", path, "extension", ext)
		return ExtractionResult{}, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext)
	}
	res.Duration = time.Since(start)
	if err != nil {
		return res, common.Unreadable(path, err)
	}
	if e.cfg.MaxPages > 0 && len(res.Pages) > e.cfg.MaxPages {
		res.Warnings = append(res.Warnings, fmt.Sprintf("truncated to %d of %d pages", e.cfg.MaxPages, len(res.Pages)))
		res.Pages = res.Pages[:e.cfg.MaxPages]
	}
	e.logger.Debug("render.ok", "path", path, "method", res.Method, "pages", len(res.Pages), "elapsed_ms", res.Duration.Milliseconds())
	return res, nil
}

func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.PDF, Method: e.cfg.Method}
	want, err := e.countPages(path)
	if err != nil {
		return res, fmt.Errorf("pdf probe: %w", err)
	}

	var pages []string
	switch e.cfg.Method {
	case MethodNative:
		pages, err = e.native.Pages(path)
	default:
		pages, err = e.pdfToText(ctx, path)
	}
	if err != nil {
		return res, err
	}
	if len(pages) != want {
		res.Warnings = append(res.Warnings, fmt.Sprintf("renderer returned %d pages, document has %d", len(pages), want))
	}
	res.Pages = pages
	return res, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) ([]string, error) {
	args := []string{"-enc", "UTF-8", "-eol", "unix"}
	if e.cfg.Layout {
		args = append(args, "-layout")
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}
	// pdftotext [-layout] -enc UTF-8 -eol unix <path> -
	out, _, err := e.runner.Run(ctx, e.cfg.Pdftotext, append(args, path, "-")...)
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	// A form-feed \f is used as page separator by default
	return SplitPages(string(out)), nil
}

func readPlainText(path string) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.TXT, Method: MethodPlainText}
	b, err := os.ReadFile(path)
	if err != nil {
		return res, err
	}
	res.Pages = SplitPages(string(b))
	return res, nil
}

// PDFPageCount opens path with pdfcpu and returns its page count.
func PDFPageCount(path string) (int, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return 0, err
	}
	return pdfCtx.PageCount, nil
}
