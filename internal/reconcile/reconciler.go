// Package reconcile tracks the install and update state of plugins listed by
// a remote index against the local scripts directory.
//
// A Reconciler owns the status cache, the in-flight install set, the selected
// source and the cached index of that source. Every pass, install and source
// switch goes through it; nothing else touches its state.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/egoavara/shellconf/internal/marketplace"
	"github.com/egoavara/shellconf/internal/plugin"
)

var (
	// ErrInstallInFlight is returned when an install of the same plugin is
	// already running. Callers treat it as a no-op.
	ErrInstallInFlight = errors.New("install already in progress")
	// ErrStaleIndex is returned when the source changed while an index was
	// being fetched or a pass was running; the result was discarded.
	ErrStaleIndex = errors.New("plugin source changed; result discarded")
	// ErrClosed is returned by operations on a closed Reconciler.
	ErrClosed = errors.New("reconciler closed")
)

// DefaultYieldEvery is how many plugins a pass computes between yields.
const DefaultYieldEvery = 10

// DefaultInstallConcurrency bounds parallel installs in InstallAll.
const DefaultInstallConcurrency = 4

// Status is the derived install state of one plugin.
type Status struct {
	Installed    bool
	InstallPath  string // empty when not installed
	LocalVersion string
	HasUpdate    bool
}

// fallbackStatus is recorded for a plugin whose status could not be computed.
func fallbackStatus() Status {
	return Status{LocalVersion: plugin.NotInstalled}
}

// InstallError wraps a failed install of one plugin.
type InstallError struct {
	Name string
	Err  error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("failed to install %s: %v", e.Name, e.Err)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

// Fetcher is the network side the Reconciler depends on.
// *marketplace.Client satisfies it.
type Fetcher interface {
	FetchIndex(ctx context.Context, baseURL string) (*marketplace.Index, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// Reconciler computes and caches plugin statuses.
type Reconciler struct {
	dir         *plugin.Directory
	fetcher     Fetcher
	logger      *zap.Logger
	now         func() time.Time
	yieldEvery  int
	concurrency int

	mu         sync.Mutex
	cache      *statusCache
	pass       uint64
	inflight   map[string]struct{}
	source     marketplace.Source
	generation uint64
	index      *marketplace.Index
	closed     bool
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock sets the time source used for cache timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithMaxAge sets the cache entry lifetime.
func WithMaxAge(d time.Duration) Option {
	return func(r *Reconciler) { r.cache.maxAge = d }
}

// WithCapacity sets the cache size ceiling.
func WithCapacity(n int) Option {
	return func(r *Reconciler) { r.cache.capacity = n }
}

// WithYieldEvery sets how many plugins a pass computes between yields.
func WithYieldEvery(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.yieldEvery = n
		}
	}
}

// WithInstallConcurrency bounds parallel installs in InstallAll.
func WithInstallConcurrency(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithSource selects the initial source.
func WithSource(s marketplace.Source) Option {
	return func(r *Reconciler) { r.source = s }
}

// New creates a Reconciler over dir. The initial source is
// marketplace.DefaultSource unless WithSource is given.
func New(dir *plugin.Directory, fetcher Fetcher, opts ...Option) *Reconciler {
	def, _ := marketplace.LookupSource(marketplace.DefaultSource)
	r := &Reconciler{
		dir:         dir,
		fetcher:     fetcher,
		logger:      zap.NewNop(),
		now:         time.Now,
		yieldEvery:  DefaultYieldEvery,
		concurrency: DefaultInstallConcurrency,
		cache:       newStatusCache(DefaultMaxAge, DefaultCapacity),
		inflight:    make(map[string]struct{}),
		source:      def,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ComputeStatus derives the status of rec from the scripts directory.
// HasUpdate is plain string inequality of the local and remote versions.
func (r *Reconciler) ComputeStatus(rec marketplace.Record) (Status, error) {
	path, ok := r.dir.InstallPath(rec.LocalPath)
	if !ok {
		return fallbackStatus(), nil
	}

	version, err := plugin.LocalVersion(path)
	if err != nil {
		return fallbackStatus(), fmt.Errorf("reading version of %s: %w", rec.Name, err)
	}
	if version == plugin.NotInstalled {
		r.logger.Debug("no version marker, assuming "+plugin.NotInstalled, zap.String("plugin", rec.Name))
	}

	return Status{
		Installed:    true,
		InstallPath:  path,
		LocalVersion: version,
		HasUpdate:    version != rec.Version,
	}, nil
}

// safeStatus computes one status, converting errors and panics into the
// fallback status.
func (r *Reconciler) safeStatus(rec marketplace.Record) (st Status) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("panic computing plugin status", zap.String("plugin", rec.Name), zap.Any("panic", p))
			st = fallbackStatus()
		}
	}()

	st, err := r.ComputeStatus(rec)
	if err != nil {
		r.logger.Warn("failed to compute plugin status", zap.String("plugin", rec.Name), zap.Error(err))
		return fallbackStatus()
	}
	return st
}

// Refresh runs one reconciliation pass over idx. Statuses are computed in
// index order with a yield every few plugins, then merged into the cache
// except where a newer pass or install already stored a result. If the
// source changes while the pass runs, nothing is merged and ErrStaleIndex is
// returned.
func (r *Reconciler) Refresh(ctx context.Context, idx *marketplace.Index) (map[string]Status, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	r.cache.cleanup(r.now())
	r.pass++
	pass, gen := r.pass, r.generation
	r.mu.Unlock()

	statuses := make(map[string]Status, len(idx.Plugins))
	for i, rec := range idx.Plugins {
		if i%r.yieldEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			runtime.Gosched()
		}
		statuses[rec.Name] = r.safeStatus(rec)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if gen != r.generation {
		return nil, ErrStaleIndex
	}
	now := r.now()
	for _, rec := range idx.Plugins {
		if !r.cache.merge(rec.Name, statuses[rec.Name], now, pass) {
			// A newer result exists; report it instead.
			e, _ := r.cache.get(rec.Name)
			statuses[rec.Name] = e.status
		}
	}
	r.logger.Debug("reconciled plugin statuses", zap.Uint64("pass", pass), zap.Int("plugins", len(idx.Plugins)))
	return statuses, nil
}

// Status returns the cached status of name.
func (r *Reconciler) Status(name string) (Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.cache.get(name)
	return e.status, ok
}

// Statuses returns a copy of every cached status.
func (r *Reconciler) Statuses() map[string]Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.snapshot()
}

// InFlight reports whether an install of name is running.
func (r *Reconciler) InFlight(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inflight[name]
	return ok
}

// Install downloads rec from baseURL and writes it to its enabled path.
// A second install of the same plugin while one is running returns
// ErrInstallInFlight. On failure the cached status is left untouched.
func (r *Reconciler) Install(ctx context.Context, rec marketplace.Record, baseURL string) (Status, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return Status{}, ErrClosed
	}
	if _, busy := r.inflight[rec.Name]; busy {
		r.mu.Unlock()
		return Status{}, ErrInstallInFlight
	}
	r.inflight[rec.Name] = struct{}{}
	gen := r.generation
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.inflight, rec.Name)
		r.mu.Unlock()
	}()

	if err := plugin.CheckLocalPath(rec.LocalPath); err != nil {
		r.logger.Warn("plugin rejected", zap.String("plugin", rec.Name), zap.Error(err))
		return Status{}, &InstallError{Name: rec.Name, Err: err}
	}

	url := marketplace.ResolveURL(baseURL, rec.Path)
	data, err := r.fetcher.Download(ctx, url)
	if err != nil {
		r.logger.Warn("plugin download failed", zap.String("plugin", rec.Name), zap.String("url", url), zap.Error(err))
		return Status{}, &InstallError{Name: rec.Name, Err: err}
	}

	path, err := r.dir.Write(rec.LocalPath, data)
	if err != nil {
		return Status{}, &InstallError{Name: rec.Name, Err: err}
	}

	st := Status{
		Installed:    true,
		InstallPath:  path,
		LocalVersion: rec.Version,
		HasUpdate:    false,
	}

	r.mu.Lock()
	if gen == r.generation {
		r.pass++
		r.cache.merge(rec.Name, st, r.now(), r.pass)
	}
	r.mu.Unlock()

	r.logger.Info("plugin installed", zap.String("plugin", rec.Name), zap.String("version", rec.Version))
	return st, nil
}

// InstallAll installs every record concurrently, bounded by the install
// concurrency. Failures do not stop the other installs; they are joined into
// the returned error. Records already being installed are skipped.
func (r *Reconciler) InstallAll(ctx context.Context, recs []marketplace.Record, baseURL string) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(r.concurrency)

	for _, rec := range recs {
		rec := rec // per-iteration copy (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			if _, err := r.Install(ctx, rec, baseURL); err != nil && !errors.Is(err, ErrInstallInFlight) {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Outdated runs a pass over idx and returns the installed plugins that have
// an update, in index order.
func (r *Reconciler) Outdated(ctx context.Context, idx *marketplace.Index) ([]marketplace.Record, error) {
	statuses, err := r.Refresh(ctx, idx)
	if err != nil {
		return nil, err
	}
	var out []marketplace.Record
	for _, rec := range idx.Plugins {
		if statuses[rec.Name].HasUpdate {
			out = append(out, rec)
		}
	}
	return out, nil
}

// UpdateAll installs every outdated plugin of idx from baseURL and returns
// the names it attempted.
func (r *Reconciler) UpdateAll(ctx context.Context, idx *marketplace.Index, baseURL string) ([]string, error) {
	outdated, err := r.Outdated(ctx, idx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(outdated))
	for i, rec := range outdated {
		names[i] = rec.Name
	}
	return names, r.InstallAll(ctx, outdated, baseURL)
}

// Source returns the selected source.
func (r *Reconciler) Source() marketplace.Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.source
}

// SelectSource switches to the named source. Cached statuses and the cached
// index are dropped, and fetches or passes started before the switch have
// no effect on shared state.
func (r *Reconciler) SelectSource(name string) error {
	s, err := marketplace.LookupSource(name)
	if err != nil {
		return fmt.Errorf("%w: %s", err, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.source = s
	r.generation++
	r.index = nil
	r.cache.clear()
	r.logger.Debug("plugin source selected", zap.String("source", s.Name))
	return nil
}

// LoadIndex returns the index of the selected source, fetching it when not
// cached. A fetch that completes after the source changed returns
// ErrStaleIndex and is not cached.
func (r *Reconciler) LoadIndex(ctx context.Context) (*marketplace.Index, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	if r.index != nil {
		idx := r.index
		r.mu.Unlock()
		return idx, nil
	}
	gen, base := r.generation, r.source.BaseURL
	r.mu.Unlock()

	idx, err := r.fetcher.FetchIndex(ctx, base)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		return nil, ErrStaleIndex
	}
	r.index = idx
	return idx, nil
}

// InvalidateIndex drops the cached index so the next LoadIndex refetches.
func (r *Reconciler) InvalidateIndex() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = nil
}

// Cleanup evicts expired entries, then the oldest entries over capacity.
func (r *Reconciler) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.cleanup(r.now())
}

// Close runs a final cleanup and rejects further passes and installs.
func (r *Reconciler) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.cache.cleanup(r.now())
	r.closed = true
	return nil
}
