package content

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period a file must see before it is reloaded.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads content files after they stop changing.
//
// Invariant: a path is reloaded at most once per quiet period, on the Run
// goroutine.
type Watcher struct {
	fs       *fsnotify.Watcher
	reloader *Reloader
	debounce time.Duration
	logger   *zap.Logger
	onResult []func(path string, err error)
}

// NewWatcher watches dirs for changes handled by reloader.
//
// Precondition: every dir must exist.
// Postcondition: on error no watcher is left open.
func NewWatcher(reloader *Reloader, debounce time.Duration, logger *zap.Logger, dirs ...string) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return &Watcher{fs: fw, reloader: reloader, debounce: debounce, logger: logger}, nil
}

// OnResult registers fn to observe every reload attempt.
//
// Precondition: call before Run.
func (w *Watcher) OnResult(fn func(path string, err error)) {
	w.onResult = append(w.onResult, fn)
}

// Run processes file events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()
	flush := time.NewTicker(w.debounce / 2)
	defer flush.Stop()

	pending := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !w.reloader.Handles(ev.Name) {
				continue
			}
			pending[ev.Name] = time.Now()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("content watcher error", zap.Error(err))
		case now := <-flush.C:
			for path, last := range pending {
				if now.Sub(last) < w.debounce {
					continue
				}
				delete(pending, path)
				w.apply(path)
			}
		}
	}
}

func (w *Watcher) apply(path string) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		w.logger.Debug("content file gone", zap.String("path", path))
		return
	}
	err := w.reloader.Reload(path)
	if err != nil {
		w.logger.Warn("content reload failed", zap.String("path", path), zap.Error(err))
	}
	for _, fn := range w.onResult {
		fn(path, err)
	}
}
