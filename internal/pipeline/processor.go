// Package pipeline runs source files through a renderer and a platform extractor and keeps
// the run history.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/labels-extractor/constants"
	"github.com/joseph-ayodele/labels-extractor/internal/common"
	"github.com/joseph-ayodele/labels-extractor/internal/core"
	"github.com/joseph-ayodele/labels-extractor/internal/core/record"
	"github.com/joseph-ayodele/labels-extractor/internal/ocr"
	"github.com/joseph-ayodele/labels-extractor/internal/repository"
)

// MsgNoData is the outcome message of a document that yielded no records.
const MsgNoData = "no data extracted"

// Outcome is the pass/fail summary of one document.
type Outcome struct {
	Source  string
	RunID   uuid.UUID
	Schema  record.Schema
	Status  constants.RunStatus
	Message string
	Blocks  int
	Records []record.Record
	Elapsed time.Duration
	Err     error
}

func (o Outcome) Rows() int { return len(o.Records) }

// Summary is the one-line user-facing result.
func (o Outcome) Summary() string {
	switch o.Status {
	case constants.RunStatusOK:
		return fmt.Sprintf("%s: OK, %s", filepath.Base(o.Source), o.Message)
	case constants.RunStatusEmpty:
		return fmt.Sprintf("%s: EMPTY, %s", filepath.Base(o.Source), o.Message)
	default:
		return fmt.Sprintf("%s: FAILED, %s", filepath.Base(o.Source), o.Message)
	}
}

// Processor renders a file, extracts its records and records the run.
type Processor struct {
	logger    *slog.Logger
	source    ocr.TextSource
	extractor core.Extractor
	runs      repository.RunRepository
	parallel  int
}

type Option func(*Processor)

// WithRunStore records every processed document in runs.
func WithRunStore(runs repository.RunRepository) Option {
	return func(p *Processor) { p.runs = runs }
}

// WithParallelism bounds the number of documents a batch processes at once.
func WithParallelism(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.parallel = n
		}
	}
}

func NewProcessor(source ocr.TextSource, extractor core.Extractor, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		logger:    logger,
		source:    source,
		extractor: extractor,
		parallel:  4,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Processor) Extractor() core.Extractor { return p.extractor }

// ProcessFile renders and extracts one file. The returned error is the outcome's Err: a
// failed document is reported, it does not abort the caller.
func (p *Processor) ProcessFile(ctx context.Context, path string) (Outcome, error) {
	start := time.Now()
	format := constants.MapExtToFormat(filepath.Ext(path))
	runID := p.startRun(ctx, path, format)
	ctx = common.WithRunID(ctx, runID.String())
	log := p.logger.With(common.LogAttrs(ctx)...)

	res, err := p.source.Extract(ctx, path)
	if err != nil {
		log.Error("processor.render.failed", "source", path, "err", err)
		out := Outcome{Source: path, RunID: runID, Status: constants.RunStatusFailed, Message: err.Error(), Err: err}
		return p.finish(ctx, out, start), err
	}
	for _, w := range res.Warnings {
		log.Warn("processor.render.warning", "source", path, "warning", w)
	}

	out := p.extract(res.Document(path))
	out.RunID = runID
	return p.finish(ctx, out, start), nil
}

// ProcessDocument extracts records from already rendered pages.
func (p *Processor) ProcessDocument(ctx context.Context, doc core.Document) Outcome {
	start := time.Now()
	runID := p.startRun(ctx, doc.Name, constants.TXT)
	out := p.extract(doc)
	out.RunID = runID
	return p.finish(common.WithRunID(ctx, runID.String()), out, start)
}

func (p *Processor) extract(doc core.Document) Outcome {
	res := p.extractor.Extract(doc)
	out := Outcome{Source: doc.Name, Blocks: res.Blocks, Records: res.Records}
	if res.Empty() {
		out.Status = constants.RunStatusEmpty
		out.Message = MsgNoData
	} else {
		out.Status = constants.RunStatusOK
		out.Message = fmt.Sprintf("%d rows extracted", len(res.Records))
	}
	return out
}

func (p *Processor) startRun(ctx context.Context, source, format string) uuid.UUID {
	if p.runs == nil {
		return uuid.New()
	}
	run, err := p.runs.Start(ctx, p.extractor.Platform(), source, format)
	if err != nil {
		p.logger.Warn("processor.history.start_failed", "source", source, "err", err)
		return uuid.New()
	}
	return run.ID
}

func (p *Processor) finish(ctx context.Context, out Outcome, start time.Time) Outcome {
	out.Elapsed = time.Since(start)
	out.Schema = p.extractor.Schema()
	log := p.logger.With(common.LogAttrs(ctx)...)
	if p.runs != nil {
		if err := p.runs.Finish(ctx, out.RunID, out.Status, out.Rows(), out.Message); err != nil {
			log.Warn("processor.history.finish_failed", "err", err)
		}
	}
	log.Info("processor.document.done",
		"platform", p.extractor.Platform(),
		"source", out.Source,
		"status", out.Status,
		"blocks", out.Blocks,
		"rows", out.Rows(),
		"elapsed_ms", out.Elapsed.Milliseconds(),
	)
	return out
}
