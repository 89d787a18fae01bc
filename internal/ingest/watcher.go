package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

type WatchConfig struct {
	Roots       []string      // directories to watch (recursive)
	InitialScan bool          // if true, walk roots and emit existing files
	SkipHidden  bool          // ignore dot files and dot directories
	Debounce    time.Duration // coalesce rapid create/write/rename bursts per file
}

// StartWatcher emits the path of every supported file created or rewritten below the roots.
// A path is emitted once its events have been quiet for Debounce. Both channels close when
// ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		logger.Error("watcher.start.failed", "err", "no roots provided")
		return nil, nil, errors.New("no roots provided")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("watcher.create.failed", "err", err)
		return nil, nil, err
	}

	var initial []string
	for _, root := range cfg.Roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if cfg.SkipHidden && path != root && hidden(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return w.Add(path)
			}
			if cfg.InitialScan && Supported(path) {
				initial = append(initial, path)
			}
			return nil
		})
		if err != nil {
			logger.Error("watcher.add_root.failed", "root", root, "err", err)
			_ = w.Close()
			return nil, nil, err
		}
	}
	slices.Sort(initial)

	evCh := make(chan string, 256)
	errCh := make(chan error, 1)
	go watchLoop(ctx, w, cfg, initial, evCh, errCh, logger)
	logger.Info("watcher.started", "roots", cfg.Roots, "initial", len(initial))
	return evCh, errCh, nil
}

func watchLoop(ctx context.Context, w *fsnotify.Watcher, cfg WatchConfig, initial []string,
	evCh chan<- string, errCh chan<- error, logger *slog.Logger) {
	defer close(evCh)
	defer close(errCh)
	defer func() {
		if err := w.Close(); err != nil {
			logger.Warn("watcher.close.failed", "err", err)
		}
	}()

	emit := func(path string) bool {
		select {
		case evCh <- path:
			return true
		case <-ctx.Done():
			return false
		}
	}
	for _, p := range initial {
		if !emit(p) {
			return
		}
	}

	pending := map[string]time.Time{}
	var tick <-chan time.Time
	if cfg.Debounce > 0 {
		t := time.NewTicker(max(cfg.Debounce/4, 10*time.Millisecond))
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-w.Events:
			if !ok {
				return
			}
			if e.Has(fsnotify.Create) {
				if fi, err := os.Stat(e.Name); err == nil && fi.IsDir() {
					if !(cfg.SkipHidden && hidden(e.Name)) {
						if err := w.Add(e.Name); err != nil {
							logger.Warn("watcher.add_dir.failed", "path", e.Name, "err", err)
						}
					}
					continue
				}
			}
			if !e.Has(fsnotify.Create) && !e.Has(fsnotify.Write) && !e.Has(fsnotify.Rename) {
				continue
			}
			if !Supported(e.Name) || (cfg.SkipHidden && hidden(e.Name)) {
				continue
			}
			if cfg.Debounce <= 0 {
				if exists(e.Name) && !emit(e.Name) {
					return
				}
				continue
			}
			pending[e.Name] = time.Now()
		case now := <-tick:
			for p, last := range pending {
				if now.Sub(last) < cfg.Debounce {
					continue
				}
				delete(pending, p)
				if exists(p) && !emit(p) {
					return
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Error("watcher.error", "err", err)
			select {
			case errCh <- err:
			default:
			}
		}
	}
}

// exists filters out the old name of a renamed file.
func exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
