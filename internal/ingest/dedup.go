package ingest

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/joseph-ayodele/labels-extractor/internal/async"
	"github.com/joseph-ayodele/labels-extractor/internal/common"
)

type stamp struct {
	modTime time.Time
	size    int64
}

// DedupQueue forwards a job only when its file changed since the last accepted job for the
// same path. The watcher and the rescanner share one so a file is not extracted twice.
type DedupQueue struct {
	next   async.Queue
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]stamp
}

func NewDedupQueue(next async.Queue, logger *slog.Logger) *DedupQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &DedupQueue{next: next, logger: logger, seen: make(map[string]stamp)}
}

func (d *DedupQueue) Enqueue(ctx context.Context, job async.Job) error {
	fi, err := os.Stat(job.Path)
	if err != nil {
		return common.Unreadable(job.Path, err)
	}
	st := stamp{modTime: fi.ModTime(), size: fi.Size()}

	d.mu.Lock()
	if prev, ok := d.seen[job.Path]; ok && prev == st {
		d.mu.Unlock()
		d.logger.Debug("ingest.duplicate", "path", job.Path)
		return nil
	}
	d.seen[job.Path] = st
	d.mu.Unlock()

	if err := d.next.Enqueue(ctx, job); err != nil {
		d.mu.Lock()
		delete(d.seen, job.Path)
		d.mu.Unlock()
		return err
	}
	return nil
}

func (d *DedupQueue) Shutdown(ctx context.Context) {
	d.next.Shutdown(ctx)
}
