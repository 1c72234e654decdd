package sdk

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/egoavara/shellconf/internal/config"
	"github.com/egoavara/shellconf/internal/logging"
)

// Watcher holds the single watch on the plugin config root and feeds its
// events, relative to the root, to a Dispatcher.
type Watcher struct {
	mu         sync.Mutex
	root       string
	watcher    *fsnotify.Watcher
	dispatcher *Dispatcher
	logger     *zap.Logger
	stopCh     chan struct{}
	doneCh     chan struct{}
	running    bool
}

// NewWatcher creates a watcher for root. Call Start to begin delivering
// events.
func NewWatcher(root string, dispatcher *Dispatcher, logger *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		root:       root,
		watcher:    w,
		dispatcher: dispatcher,
		logger:     logging.OrNop(logger),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}, nil
}

// Start watches root and its plugin directories. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	if err := config.EnsureDir(w.root); err != nil {
		return err
	}
	if err := w.watcher.Add(w.root); err != nil {
		return err
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		w.logger.Warn("failed to list plugin config directories", zap.Error(err))
	}
	for _, e := range entries {
		if e.IsDir() {
			w.add(filepath.Join(w.root, e.Name()))
		}
	}

	w.running = true
	go w.run(ctx)
	return nil
}

// Watch adds a plugin directory created after Start.
func (w *Watcher) Watch(dir string) {
	w.add(dir)
}

func (w *Watcher) add(dir string) {
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("failed to watch plugin config directory", zap.String("dir", dir), zap.Error(err))
	}
}

// Stop ends the event loop and releases the watch.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("failed to close config watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.add(event.Name)
		}
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	w.logger.Debug("config changed", zap.String("path", rel), zap.Stringer("op", event.Op))
	w.dispatcher.Dispatch(rel, event.Op)
}
