package yaml

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/fwojciec/tranquility"
	"go.uber.org/zap"
)

// PersonaWatcher reloads a persona file when it changes on disk and hands
// every valid version to a callback. An invalid edit is logged and the
// previous persona stays in effect.
type PersonaWatcher struct {
	path     string
	apply    func(tranquility.Persona)
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.Logger
}

// WatchOption configures a [PersonaWatcher].
type WatchOption func(*PersonaWatcher)

// WithDebounce sets how long to wait after the last change before
// reloading. Editors often write a file in several steps.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *PersonaWatcher) { w.debounce = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) WatchOption {
	return func(w *PersonaWatcher) { w.logger = l }
}

// WatchPersona starts watching the directory of path. Changes are picked up
// once Run is called.
func WatchPersona(path string, apply func(tranquility.Persona), opts ...WatchOption) (*PersonaWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch persona: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch persona: %w", err)
	}
	// The directory is watched so that atomic saves, which replace the
	// file, keep being seen.
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch persona: %w", err)
	}
	w := &PersonaWatcher{
		path:     abs,
		apply:    apply,
		watcher:  fw,
		debounce: 250 * time.Millisecond,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

// Run processes file events until ctx is done. It always returns nil and
// releases the watcher on exit.
func (w *PersonaWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var reload <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			reload = time.After(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("persona watcher error", zap.Error(err))
		case <-reload:
			reload = nil
			w.reload()
		}
	}
}

func (w *PersonaWatcher) reload() {
	p, err := LoadPersona(w.path)
	if err != nil {
		w.logger.Warn("persona reload failed, keeping previous persona", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.apply(p)
	w.logger.Info("persona reloaded", zap.String("path", w.path))
}
