package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/reqaz/internal/logfields"
)

// DefaultDebounce coalesces bursts of filesystem events (editor saves, git checkouts).
const DefaultDebounce = 300 * time.Millisecond

// Watcher reports debounced changes below a root directory.
type Watcher struct {
	root     string
	debounce time.Duration
	onChange func()
	logger   *slog.Logger
	fsw      *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher watches root and every directory below it.
func NewWatcher(root string, debounce time.Duration, onChange func(), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{root: root, debounce: debounce, onChange: onChange, logger: logger, fsw: fsw}
	if err := w.addDirsRecursive(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run handles events until ctx is done, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		_ = w.fsw.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(ev.Name)
		}
	}
	w.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.trigger()
}

// trigger restarts the debounce timer; onChange fires once the burst settles.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

func (w *Watcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watch %s: %w", root, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for hidden, editor swap and OS metadata files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}
