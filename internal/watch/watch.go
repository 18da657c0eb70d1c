// Package watch re-runs a conversion whenever its input file changes.
package watch

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 100 * time.Millisecond

// ErrClosed is returned by Run on a watcher that has been closed.
var ErrClosed = errors.New("watcher already closed")

// Handler converts the file at path.
type Handler func(ctx context.Context, path string) error

// Watcher watches a single file through its parent directory, so that
// editors which save by rename are still seen.
type Watcher struct {
	Debounce time.Duration

	path     string
	log      *zap.Logger
	fsnotify *fsnotify.Watcher
	digest   [sha256.Size]byte
	ran      bool
	runs     int
	isClosed bool
}

// New creates a watcher for path.
func New(path string, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatch.Add(filepath.Dir(abs)); err != nil {
		fsWatch.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		Debounce: DefaultDebounce,
		path:     abs,
		log:      log.With(zap.String("input", abs)),
		fsnotify: fsWatch,
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Runs returns how many times the handler has been invoked.
func (w *Watcher) Runs() int { return w.runs }

// Run invokes h once, then again after every change to the file's content,
// until ctx is done. Handler errors are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context, h Handler) error {
	if w.isClosed {
		return ErrClosed
	}
	defer w.Close()

	w.trigger(ctx, h)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return ErrClosed
			}
			if filepath.Clean(e.Name) != w.path {
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.log.Debug("input changed", zap.Stringer("op", e.Op))
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.trigger(ctx, h)

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return ErrClosed
			}
			w.log.Warn("watch error", zap.Error(err))

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		}
	}
}

// trigger runs h when the file content differs from the last run.
func (w *Watcher) trigger(ctx context.Context, h Handler) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.log.Warn("reading input", zap.Error(err))
		return
	}
	sum := sha256.Sum256(data)
	if w.ran && sum == w.digest {
		w.log.Debug("input unchanged, skipping")
		return
	}
	w.digest = sum
	w.ran = true
	w.runs++

	start := time.Now()
	if err := h(ctx, w.path); err != nil {
		w.log.Error("conversion failed", zap.Error(err))
		return
	}
	w.log.Info("converted", zap.Int("run", w.runs), zap.Duration("took", time.Since(start)))
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	if w.isClosed {
		return nil
	}
	w.isClosed = true
	return w.fsnotify.Close()
}
