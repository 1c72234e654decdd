// Package sdk gives plugins an isolated config directory, translations, menu
// hooks and change notifications for their own config file.
package sdk

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/egoavara/shellconf/internal/logging"
)

// Handler receives change notifications for one relative path.
type Handler func(rel string, op fsnotify.Op)

// Dispatcher fans change notifications out to the subscribers of a path.
// Dispatch is synchronous; a panicking subscriber does not stop the others.
type Dispatcher struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]Handler
	next   uint64
	logger *zap.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		subs:   make(map[string]map[uint64]Handler),
		logger: logging.OrNop(logger),
	}
}

// NormalizePath turns an OS relative path into the dispatcher key form.
func NormalizePath(rel string) string {
	return path.Clean(filepath.ToSlash(rel))
}

// Subscribe registers fn for rel. The returned function removes it and is
// safe to call more than once.
func (d *Dispatcher) Subscribe(rel string, fn Handler) (dispose func()) {
	key := NormalizePath(rel)

	d.mu.Lock()
	d.next++
	id := d.next
	if d.subs[key] == nil {
		d.subs[key] = make(map[uint64]Handler)
	}
	d.subs[key][id] = fn
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			delete(d.subs[key], id)
			if len(d.subs[key]) == 0 {
				delete(d.subs, key)
			}
		})
	}
}

// Dispatch notifies every subscriber of rel in subscription order and
// returns the number of subscribers that failed.
func (d *Dispatcher) Dispatch(rel string, op fsnotify.Op) int {
	key := NormalizePath(rel)

	d.mu.RLock()
	ids := make([]uint64, 0, len(d.subs[key]))
	for id := range d.subs[key] {
		ids = append(ids, id)
	}
	handlers := make([]Handler, 0, len(ids))
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		handlers = append(handlers, d.subs[key][id])
	}
	d.mu.RUnlock()

	failed := 0
	for _, h := range handlers {
		if err := d.call(h, key, op); err != nil {
			failed++
			d.logger.Error("config change handler failed", zap.String("path", key), zap.Error(err))
		}
	}
	return failed
}

func (d *Dispatcher) call(h Handler, rel string, op fsnotify.Op) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	h(rel, op)
	return nil
}

// Len returns the number of subscribers of rel.
func (d *Dispatcher) Len(rel string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs[NormalizePath(rel)])
}
