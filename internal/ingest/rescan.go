package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/joseph-ayodele/labels-extractor/constants"
	"github.com/joseph-ayodele/labels-extractor/internal/async"
)

// Rescanner periodically walks an inbox and enqueues every supported file in it. Pair it
// with a DedupQueue so unchanged files are skipped.
type Rescanner struct {
	root     string
	platform constants.Platform
	queue    async.Queue
	cron     *cron.Cron
	timeout  time.Duration
	logger   *slog.Logger
}

func NewRescanner(root string, p constants.Platform, q async.Queue, logger *slog.Logger) *Rescanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rescanner{
		root:     root,
		platform: p,
		queue:    q,
		cron:     cron.New(),
		timeout:  5 * time.Minute,
		logger:   logger,
	}
}

// Start schedules Rescan with a standard cron spec ("*/10 * * * *", "@every 10m").
func (r *Rescanner) Start(schedule string) error {
	id, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if _, err := r.Rescan(ctx); err != nil {
			r.logger.Error("rescan.failed", "root", r.root, "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule rescan %q: %w", schedule, err)
	}
	r.cron.Start()
	r.logger.Info("rescan.scheduled", "root", r.root, "schedule", schedule, "next", r.cron.Entry(id).Next)
	return nil
}

// Stop removes the schedule and waits for a running scan to finish.
func (r *Rescanner) Stop() {
	<-r.cron.Stop().Done()
}

// Rescan enqueues the files currently below root and returns how many were accepted.
func (r *Rescanner) Rescan(ctx context.Context) (int, error) {
	files, stats, err := Scan(r.root, true)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if err := r.queue.Enqueue(ctx, async.Job{Path: f, Platform: r.platform, SubmittedAt: time.Now()}); err != nil {
			if errors.Is(err, async.ErrClosed) {
				return n, err
			}
			r.logger.Warn("rescan.enqueue.failed", "path", f, "err", err)
			continue
		}
		n++
	}
	r.logger.Info("rescan.done", "root", r.root, "matched", stats.Matched, "failed", stats.Failed, "enqueued", n)
	return n, nil
}
