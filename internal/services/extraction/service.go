// Package extraction is the request-level API shared by the gRPC server and the commands.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/labels-extractor/internal/async"
	"github.com/joseph-ayodele/labels-extractor/internal/common"
	"github.com/joseph-ayodele/labels-extractor/internal/core"
	"github.com/joseph-ayodele/labels-extractor/internal/entity"
	"github.com/joseph-ayodele/labels-extractor/internal/export"
	"github.com/joseph-ayodele/labels-extractor/internal/ocr"
	"github.com/joseph-ayodele/labels-extractor/internal/pipeline"
	"github.com/joseph-ayodele/labels-extractor/internal/repository"
)

const (
	maxNameLength   = 255
	defaultRunLimit = 20
	maxRunLimit     = 500
)

// Service validates requests and routes them to the per-platform processors.
type Service struct {
	procs    *pipeline.Set
	exporter *export.Service
	runs     repository.RunRepository
	queue    async.Queue
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithRuns enables the run history queries.
func WithRuns(runs repository.RunRepository) Option {
	return func(s *Service) { s.runs = runs }
}

// WithQueue enables Submit.
func WithQueue(q async.Queue) Option {
	return func(s *Service) { s.queue = q }
}

func NewService(procs *pipeline.Set, exporter *export.Service, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		procs:    procs,
		exporter: exporter,
		logger:   logger,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ExtractRequest names a platform and exactly one input: a path readable by the server,
// raw text with form feeds between pages, or pre-split pages.
type ExtractRequest struct {
	Platform string
	Name     string
	Path     string
	Text     string
	Pages    []string
}

func (r ExtractRequest) inputs() int {
	n := 0
	if strings.TrimSpace(r.Path) != "" {
		n++
	}
	if r.Text != "" {
		n++
	}
	if len(r.Pages) > 0 {
		n++
	}
	return n
}

// Extract runs one document through its platform's extractor. Unreadable sources come back
// as an error; empty documents are a normal outcome.
func (s *Service) Extract(ctx context.Context, req ExtractRequest) (pipeline.Outcome, error) {
	v := common.NewValidator().
		Field("platform", strings.TrimSpace(req.Platform), "required").
		Field("name", req.Name, fmt.Sprintf("max=%d", maxNameLength)).
		Check("input", req.inputs(), req.inputs() == 1, "exactly one of path, text or pages is required")
	if err := v.Err(); err != nil {
		s.logger.Warn("extraction.request.invalid", "err", err)
		return pipeline.Outcome{}, err
	}

	proc, err := s.procs.Lookup(req.Platform)
	if err != nil {
		s.logger.Warn("extraction.request.invalid", "platform", req.Platform, "err", err)
		return pipeline.Outcome{}, err
	}

	if path := strings.TrimSpace(req.Path); path != "" {
		return proc.ProcessFile(ctx, path)
	}

	var pages []string
	if req.Text != "" {
		pages = ocr.SplitPages(req.Text)
	} else {
		pages = make([]string, len(req.Pages))
		for i, p := range req.Pages {
			pages[i] = ocr.Normalize(p)
		}
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "request-" + uuid.NewString()
	}
	return proc.ProcessDocument(ctx, core.Document{Name: name, Pages: pages}), nil
}

// ExportResult is a serialized extraction. Content is nil when nothing was extracted.
type ExportResult struct {
	Filename string
	Content  []byte
	Outcome  pipeline.Outcome
}

// Export extracts one document and serializes its records as format.
func (s *Service) Export(ctx context.Context, req ExtractRequest, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = common.FormatXLSX
	}
	if err := common.NewValidator().Field("format", format, "oneof="+common.FormatXLSX+" "+common.FormatJSON).Err(); err != nil {
		return nil, err
	}

	out, err := s.Extract(ctx, req)
	if err != nil {
		return nil, err
	}
	res := &ExportResult{Outcome: out}
	if len(out.Records) == 0 {
		return res, nil
	}

	proc, err := s.procs.Lookup(req.Platform)
	if err != nil {
		return nil, err
	}
	ex := proc.Extractor()
	content, err := s.exporter.Write(ctx, format, ex.Schema(), out.Records)
	if err != nil {
		s.logger.Error("extraction.export.failed", "run_id", out.RunID, "format", format, "err", err)
		return nil, fmt.Errorf("export %s: %w", out.Source, err)
	}
	res.Filename = export.Filename(ex.Platform(), s.now(), format)
	res.Content = content
	return res, nil
}

// Submit queues a server-side file for background extraction.
func (s *Service) Submit(ctx context.Context, platform, path string) (async.Job, error) {
	if s.queue == nil {
		return async.Job{}, fmt.Errorf("background queue: %w", common.ErrUnavailable)
	}
	v := common.NewValidator().
		Field("platform", strings.TrimSpace(platform), "required").
		Field("path", strings.TrimSpace(path), "required")
	if err := v.Err(); err != nil {
		return async.Job{}, err
	}
	proc, err := s.procs.Lookup(platform)
	if err != nil {
		return async.Job{}, err
	}

	job := async.Job{
		Path:        strings.TrimSpace(path),
		Platform:    proc.Extractor().Platform(),
		SubmittedAt: s.now(),
		TraceID:     common.RequestIDFromContext(ctx),
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		if errors.Is(err, async.ErrClosed) {
			err = errors.Join(common.ErrUnavailable, err)
		}
		return async.Job{}, fmt.Errorf("enqueue %s: %w", job.Path, err)
	}
	s.logger.Info("extraction.submitted", "path", job.Path, "platform", job.Platform, "trace_id", job.TraceID)
	return job, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]*entity.Run, error) {
	if s.runs == nil {
		return nil, fmt.Errorf("run history: %w", common.ErrUnavailable)
	}
	if limit <= 0 {
		limit = defaultRunLimit
	}
	return s.runs.ListRecent(ctx, min(limit, maxRunLimit))
}

// GetRun returns one run by id.
func (s *Service) GetRun(ctx context.Context, id string) (*entity.Run, error) {
	if s.runs == nil {
		return nil, fmt.Errorf("run history: %w", common.ErrUnavailable)
	}
	if err := common.NewValidator().Field("id", strings.TrimSpace(id), "uuid").Err(); err != nil {
		return nil, err
	}
	return s.runs.Get(ctx, uuid.MustParse(strings.TrimSpace(id)))
}
