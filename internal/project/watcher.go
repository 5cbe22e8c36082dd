package project

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the window within which repeated writes to the project
// file collapse into one reload. Editors that save via write-then-rename fire
// several events per save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches a project file and invokes a reload callback with the
// freshly parsed document after each change. Parse failures are reported to
// the error callback and watching continues; a half-written save must not
// kill the watch loop.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	onReload func(*Document)
	onError  func(error)
	log      *zap.Logger
	debounce time.Duration
	lastSeen time.Time

	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a watcher for the given project file. Both callbacks may
// be nil.
func NewWatcher(path string, onReload func(*Document), onError func(error), log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		watcher:  fw,
		path:     filepath.Clean(path),
		onReload: onReload,
		onError:  onError,
		log:      log,
		debounce: DefaultDebounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. The parent directory is watched rather than the file
// itself so rename-style saves keep working.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("watcher already running")
	}

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	w.running = true
	go w.loop()
	w.log.Info("watching project file", zap.String("path", w.path))
	return nil
}

// Stop shuts the watch loop down and releases the underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	w.watcher.Close()
}

func (w *Watcher) loop() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !w.shouldReload() {
				continue
			}
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", zap.Error(err))
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

func (w *Watcher) shouldReload() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	if now.Sub(w.lastSeen) < w.debounce {
		return false
	}
	w.lastSeen = now
	return true
}

func (w *Watcher) reload() {
	doc, err := Load(w.path)
	if err != nil {
		w.log.Warn("project reload failed", zap.String("path", w.path), zap.Error(err))
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	w.log.Debug("project reloaded", zap.String("path", w.path), zap.Int("pages", len(doc.Pages)))
	if w.onReload != nil {
		w.onReload(doc)
	}
}
