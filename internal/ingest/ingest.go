// Package ingest discovers label files on disk and hands them to the extraction queue.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joseph-ayodele/labels-extractor/constants"
	"github.com/joseph-ayodele/labels-extractor/internal/async"
)

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Skipped uint32
	Failed  uint32
}

// Scan walks root and returns the supported files below it in lexical order. Unreadable
// entries are counted and skipped.
func Scan(root string, skipHidden bool) ([]string, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var files []string
	var stats DirStats
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && hidden(path) {
			stats.Skipped++
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !Supported(path) {
			stats.Skipped++
			return nil
		}
		stats.Matched++
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("walk %s: %w", root, err)
	}
	slices.Sort(files)
	return files, stats, nil
}

// Supported reports whether a renderer accepts the extension of path.
func Supported(path string) bool {
	return constants.MapExtToFormat(filepath.Ext(path)) != ""
}

// hidden matches dot files and dot directories other than "." and "..".
func hidden(path string) bool {
	name := filepath.Base(path)
	return len(name) > 1 && name[0] == '.' && name != ".."
}

// Feed enqueues every path received on paths for platform p until paths is closed or ctx
// is done. It returns the number of jobs accepted.
func Feed(ctx context.Context, paths <-chan string, q async.Queue, p constants.Platform, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}
	n := 0
	for {
		select {
		case <-ctx.Done():
			return n
		case path, ok := <-paths:
			if !ok {
				return n
			}
			if err := q.Enqueue(ctx, async.Job{Path: path, Platform: p, SubmittedAt: time.Now()}); err != nil {
				logger.Warn("ingest.enqueue.failed", "path", path, "err", err)
				if errors.Is(err, async.ErrClosed) {
					return n
				}
				continue
			}
			n++
		}
	}
}
