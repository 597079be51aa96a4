// Package watch re-runs a callback whenever a model file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/satishbabariya/worm-go/internal/debug"
)

// DefaultDebounce is how long the file has to stay quiet before the
// callback runs
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a single file
type Watcher struct {
	file     string
	debounce time.Duration
	callback func() error
	onError  func(error)
	watcher  *fsnotify.Watcher
}

// NewWatcher creates a watcher for file. Callback errors are passed to
// onError and do not stop the watcher.
func NewWatcher(file string, callback func() error, onError func(error)) (*Watcher, error) {
	absPath, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// Watch the directory; editors often replace the file instead of
	// writing it in place.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	if onError == nil {
		onError = func(err error) { debug.Warn("watch callback failed", "error", err) }
	}

	return &Watcher{
		file:     absPath,
		debounce: DefaultDebounce,
		callback: callback,
		onError:  onError,
		watcher:  watcher,
	}, nil
}

// SetDebounce changes the debounce interval
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run calls the callback once and then after every change until ctx is
// done. The watcher is closed when Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.callback(); err != nil {
		w.onError(err)
	}

	debounceTimer := time.NewTimer(w.debounce)
	debounceTimer.Stop()
	var debounceCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			eventPath, err := filepath.Abs(event.Name)
			if err != nil || eventPath != w.file {
				continue
			}
			debug.Component("watch").Debug("model file changed", "file", w.file, "op", event.Op.String())
			debounceTimer.Reset(w.debounce)
			debounceCh = debounceTimer.C

		case <-debounceCh:
			debounceCh = nil
			if err := w.callback(); err != nil {
				w.onError(err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		}
	}
}
