package reconcile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/egoavara/shellconf/internal/marketplace"
	"github.com/egoavara/shellconf/internal/plugin"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeFetcher serves scripts and indexes from memory. A non-nil gate blocks
// every call until it is closed.
type fakeFetcher struct {
	mu      sync.Mutex
	files   map[string][]byte
	indexes map[string]*marketplace.Index
	gate    chan struct{}
	calls   map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		files:   make(map[string][]byte),
		indexes: make(map[string]*marketplace.Index),
		calls:   make(map[string]int),
	}
}

func (f *fakeFetcher) wait(ctx context.Context) error {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeFetcher) FetchIndex(ctx context.Context, baseURL string) (*marketplace.Index, error) {
	f.mu.Lock()
	f.calls[baseURL]++
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	idx, ok := f.indexes[baseURL]
	if !ok {
		return nil, &marketplace.FetchError{URL: baseURL, Status: 404}
	}
	return idx, nil
}

func (f *fakeFetcher) Download(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls[url]++
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[url]
	if !ok {
		return nil, &marketplace.FetchError{URL: url, Status: 404}
	}
	return data, nil
}

const base = "https://example.test/"

func fooIndex(version string) *marketplace.Index {
	return &marketplace.Index{
		Shell: marketplace.ShellRelease{Version: "2.0.0", Path: "shell.dll"},
		Plugins: []marketplace.Record{
			{Name: "Foo", Version: version, LocalPath: "foo.js", Path: "foo.js"},
		},
	}
}

func newTestReconciler(t *testing.T, opts ...Option) (*Reconciler, *plugin.Directory, *fakeFetcher) {
	t.Helper()
	dir := plugin.NewDirectory(filepath.Join(t.TempDir(), "scripts"), nil)
	f := newFakeFetcher()
	r := New(dir, f, opts...)
	t.Cleanup(func() { r.Close() })
	return r, dir, f
}

func writeScript(t *testing.T, dir *plugin.Directory, file, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir.Root(), 0755))
	path := filepath.Join(dir.Root(), file)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestComputeStatus_NotInstalled(t *testing.T) {
	r, _, _ := newTestReconciler(t)

	for _, v := range []string{"1.0", "9.9.9", ""} {
		st, err := r.ComputeStatus(marketplace.Record{Name: "Foo", LocalPath: "foo.js", Version: v})
		require.NoError(t, err)
		assert.Equal(t, Status{LocalVersion: plugin.NotInstalled}, st)
	}
}

func TestComputeStatus_VersionComparison(t *testing.T) {
	r, dir, _ := newTestReconciler(t)
	path := writeScript(t, dir, "foo.js", "// @version: 1.2.0\n")

	st, err := r.ComputeStatus(marketplace.Record{Name: "Foo", LocalPath: "foo.js", Version: "1.2.0"})
	require.NoError(t, err)
	assert.Equal(t, Status{Installed: true, InstallPath: path, LocalVersion: "1.2.0", HasUpdate: false}, st)

	st, err = r.ComputeStatus(marketplace.Record{Name: "Foo", LocalPath: "foo.js", Version: "1.3.0"})
	require.NoError(t, err)
	assert.True(t, st.HasUpdate)

	// String inequality: equivalent versions written differently still differ.
	st, err = r.ComputeStatus(marketplace.Record{Name: "Foo", LocalPath: "foo.js", Version: "1.2"})
	require.NoError(t, err)
	assert.True(t, st.HasUpdate)
}

func TestComputeStatus_DisabledAndUnmarked(t *testing.T) {
	r, dir, _ := newTestReconciler(t)
	path := writeScript(t, dir, "foo.js.disabled", "no marker here")

	st, err := r.ComputeStatus(marketplace.Record{Name: "Foo", LocalPath: "foo.js", Version: "1.0"})
	require.NoError(t, err)
	assert.Equal(t, Status{Installed: true, InstallPath: path, LocalVersion: plugin.NotInstalled, HasUpdate: true}, st)
}

func TestRefresh_IsolatesFailures(t *testing.T) {
	r, dir, _ := newTestReconciler(t)
	writeScript(t, dir, "good.js", "// @version: 1\n")
	// A directory where the script should be cannot be read as a file.
	require.NoError(t, os.MkdirAll(filepath.Join(dir.Root(), "broken.js"), 0755))

	idx := &marketplace.Index{Plugins: []marketplace.Record{
		{Name: "Broken", LocalPath: "broken.js", Version: "1"},
		{Name: "Good", LocalPath: "good.js", Version: "1"},
	}}

	statuses, err := r.Refresh(context.Background(), idx)
	require.NoError(t, err)

	assert.Equal(t, fallbackStatus(), statuses["Broken"])
	assert.True(t, statuses["Good"].Installed)
	assert.False(t, statuses["Good"].HasUpdate)

	cached, ok := r.Status("Good")
	require.True(t, ok)
	assert.Equal(t, statuses["Good"], cached)
}

func TestRefresh_YieldsKeepOrderAndResults(t *testing.T) {
	r, dir, _ := newTestReconciler(t, WithYieldEvery(1))
	idx := &marketplace.Index{}
	for i := 0; i < 25; i++ {
		name := fmt.Sprintf("p%02d", i)
		writeScript(t, dir, name+".js", "// @version: 1\n")
		idx.Plugins = append(idx.Plugins, marketplace.Record{Name: name, LocalPath: name + ".js", Version: "1"})
	}

	statuses, err := r.Refresh(context.Background(), idx)
	require.NoError(t, err)
	require.Len(t, statuses, 25)
	for _, st := range statuses {
		assert.True(t, st.Installed)
		assert.False(t, st.HasUpdate)
	}
}

func TestRefresh_Cancelled(t *testing.T) {
	r, _, _ := newTestReconciler(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Refresh(ctx, fooIndex("1"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.Statuses())
}

func TestRemoteVersionChangeFlipsHasUpdate(t *testing.T) {
	r, dir, _ := newTestReconciler(t)
	writeScript(t, dir, "foo.js", "// @version: 1.2.0\n")

	statuses, err := r.Refresh(context.Background(), fooIndex("1.2.0"))
	require.NoError(t, err)
	assert.False(t, statuses["Foo"].HasUpdate)

	statuses, err = r.Refresh(context.Background(), fooIndex("1.3.0"))
	require.NoError(t, err)
	assert.True(t, statuses["Foo"].HasUpdate)
	assert.Equal(t, "1.2.0", statuses["Foo"].LocalVersion)
}

func TestInstall_Scenario(t *testing.T) {
	r, dir, f := newTestReconciler(t)
	f.files[base+"foo.js"] = []byte("// @version: 1.1\nshell.println('foo')\n")
	idx := fooIndex("1.1")

	statuses, err := r.Refresh(context.Background(), idx)
	require.NoError(t, err)
	assert.Equal(t, Status{LocalVersion: plugin.NotInstalled}, statuses["Foo"])

	st, err := r.Install(context.Background(), idx.Plugins[0], base)
	require.NoError(t, err)

	want := Status{Installed: true, InstallPath: dir.EnabledPath("foo"), LocalVersion: "1.1", HasUpdate: false}
	assert.Equal(t, want, st)

	cached, ok := r.Status("Foo")
	require.True(t, ok)
	assert.Equal(t, want, cached)
	assert.False(t, r.InFlight("Foo"))

	statuses, err = r.Refresh(context.Background(), idx)
	require.NoError(t, err)
	assert.Equal(t, want, statuses["Foo"])
}

func TestInstall_FailureKeepsCachedStatus(t *testing.T) {
	r, dir, _ := newTestReconciler(t)
	writeScript(t, dir, "foo.js", "// @version: 1.0\n")
	idx := fooIndex("1.1")

	before, err := r.Refresh(context.Background(), idx)
	require.NoError(t, err)

	_, err = r.Install(context.Background(), idx.Plugins[0], base)
	var ie *InstallError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "Foo", ie.Name)
	var fe *marketplace.FetchError
	assert.ErrorAs(t, err, &fe)

	after, ok := r.Status("Foo")
	require.True(t, ok)
	assert.Equal(t, before["Foo"], after)
	assert.False(t, r.InFlight("Foo"))
}

func TestInstall_DuplicateIsNoop(t *testing.T) {
	r, _, f := newTestReconciler(t)
	f.gate = make(chan struct{})
	f.files[base+"foo.js"] = []byte("// @version: 1.1\n")
	rec := fooIndex("1.1").Plugins[0]

	done := make(chan error, 1)
	go func() {
		_, err := r.Install(context.Background(), rec, base)
		done <- err
	}()

	require.Eventually(t, func() bool { return r.InFlight("Foo") }, time.Second, time.Millisecond)

	_, err := r.Install(context.Background(), rec, base)
	assert.ErrorIs(t, err, ErrInstallInFlight)

	close(f.gate)
	require.NoError(t, <-done)

	f.mu.Lock()
	assert.Equal(t, 1, f.calls[base+"foo.js"])
	f.mu.Unlock()
}

func TestInstall_DifferentPluginsDoNotBlock(t *testing.T) {
	r, _, f := newTestReconciler(t)
	f.gate = make(chan struct{})
	f.files[base+"slow.js"] = []byte("// @version: 1\n")
	f.files[base+"fast.js"] = []byte("// @version: 1\n")

	slowDone := make(chan error, 1)
	go func() {
		_, err := r.Install(context.Background(), marketplace.Record{Name: "Slow", LocalPath: "slow.js", Path: "slow.js", Version: "1"}, base)
		slowDone <- err
	}()
	require.Eventually(t, func() bool { return r.InFlight("Slow") }, time.Second, time.Millisecond)

	// Later calls skip the gate; the slow install keeps waiting on the old one.
	f.mu.Lock()
	slowGate := f.gate
	f.gate = nil
	f.mu.Unlock()

	_, err := r.Install(context.Background(), marketplace.Record{Name: "Fast", LocalPath: "fast.js", Path: "fast.js", Version: "1"}, base)
	require.NoError(t, err)
	assert.True(t, r.InFlight("Slow"))

	close(slowGate)
	require.NoError(t, <-slowDone)
}

func TestInstall_RejectsLocalPathOutsideScripts(t *testing.T) {
	r, dir, f := newTestReconciler(t)
	f.files[base+"evil.js"] = []byte("pwned")

	for _, local := range []string{"../config.json", "sub/evil.js", `..\evil.js`, "..", ""} {
		t.Run(local, func(t *testing.T) {
			_, err := r.Install(context.Background(), marketplace.Record{Name: "Evil", LocalPath: local, Path: "evil.js", Version: "1"}, base)
			var ie *InstallError
			require.ErrorAs(t, err, &ie)
			assert.ErrorIs(t, err, plugin.ErrInvalidLocalPath)
		})
	}

	_, statErr := os.Stat(filepath.Join(filepath.Dir(dir.Root()), "config.json"))
	assert.True(t, os.IsNotExist(statErr))
	f.mu.Lock()
	assert.Zero(t, f.calls[base+"evil.js"], "rejected before download")
	f.mu.Unlock()
	_, ok := r.Status("Evil")
	assert.False(t, ok)
}

func TestInstall_AfterSourceSwitchIsNotCached(t *testing.T) {
	r, _, f := newTestReconciler(t)
	f.gate = make(chan struct{})
	f.files[base+"foo.js"] = []byte("// @version: 1.1\n")
	rec := fooIndex("1.1").Plugins[0]

	done := make(chan error, 1)
	go func() {
		_, err := r.Install(context.Background(), rec, base)
		done <- err
	}()
	require.Eventually(t, func() bool { return r.InFlight("Foo") }, time.Second, time.Millisecond)

	require.NoError(t, r.SelectSource("Github Raw"))
	close(f.gate)
	require.NoError(t, <-done)

	_, ok := r.Status("Foo")
	assert.False(t, ok, "status of the old source stays out of the cleared cache")
}

func TestStalePassDoesNotOverwriteInstall(t *testing.T) {
	now := time.Unix(1000, 0)
	r, dir, f := newTestReconciler(t, WithClock(func() time.Time { return now }))
	f.files[base+"foo.js"] = []byte("// @version: 1.1\n")
	idx := fooIndex("1.1")

	// Simulate a pass that started before the install and merges after it.
	r.mu.Lock()
	r.pass++
	stalePass := r.pass
	r.mu.Unlock()

	_, err := r.Install(context.Background(), idx.Plugins[0], base)
	require.NoError(t, err)

	r.mu.Lock()
	merged := r.cache.merge("Foo", fallbackStatus(), now, stalePass)
	r.mu.Unlock()
	assert.False(t, merged)

	st, _ := r.Status("Foo")
	assert.Equal(t, dir.EnabledPath("foo"), st.InstallPath)
}

func TestInstallAll(t *testing.T) {
	r, dir, f := newTestReconciler(t, WithInstallConcurrency(2))
	var recs []marketplace.Record
	for i := 0; i < 6; i++ {
		name := fmt.Sprintf("p%d", i)
		recs = append(recs, marketplace.Record{Name: name, LocalPath: name + ".js", Path: name + ".js", Version: "2"})
		if i != 3 {
			f.files[base+name+".js"] = []byte("// @version: 2\n")
		}
	}

	err := r.InstallAll(context.Background(), recs, base)
	require.Error(t, err)
	var ie *InstallError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "p3", ie.Name)

	assert.Len(t, dir.List(), 5)
}

func TestUpdateAll(t *testing.T) {
	r, dir, f := newTestReconciler(t)
	writeScript(t, dir, "foo.js", "// @version: 1.0\n")
	writeScript(t, dir, "bar.js", "// @version: 2.0\n")
	f.files[base+"foo.js"] = []byte("// @version: 1.1\n")

	idx := &marketplace.Index{Plugins: []marketplace.Record{
		{Name: "Foo", LocalPath: "foo.js", Path: "foo.js", Version: "1.1"},
		{Name: "Bar", LocalPath: "bar.js", Path: "bar.js", Version: "2.0"},
		{Name: "Baz", LocalPath: "baz.js", Path: "baz.js", Version: "1.0"},
	}}

	updated, err := r.UpdateAll(context.Background(), idx, base)
	require.NoError(t, err)
	assert.Equal(t, []string{"Foo"}, updated)
	assert.Equal(t, "1.1", plugin.ReadVersion(dir.EnabledPath("foo")))
}

func TestCacheEviction_Capacity(t *testing.T) {
	c := newStatusCache(DefaultMaxAge, DefaultCapacity)
	start := time.Unix(10_000, 0)
	for i := 0; i < 101; i++ {
		c.merge(fmt.Sprintf("p%03d", i), Status{}, start.Add(time.Duration(i)*time.Millisecond), 1)
	}

	evicted := c.cleanup(start.Add(time.Second))

	assert.Equal(t, 1, evicted)
	assert.Equal(t, 100, c.size())
	_, ok := c.get("p000")
	assert.False(t, ok, "oldest entry evicted")
	_, ok = c.get("p100")
	assert.True(t, ok)
}

func TestCacheEviction_Age(t *testing.T) {
	c := newStatusCache(DefaultMaxAge, DefaultCapacity)
	now := time.Unix(10_000, 0)
	c.merge("old", Status{}, now.Add(-DefaultMaxAge-time.Millisecond), 1)
	c.merge("edge", Status{}, now.Add(-DefaultMaxAge), 1)
	c.merge("fresh", Status{}, now, 1)

	c.cleanup(now)

	_, ok := c.get("old")
	assert.False(t, ok)
	_, ok = c.get("edge")
	assert.True(t, ok)
	_, ok = c.get("fresh")
	assert.True(t, ok)
}

func TestCleanupRunsBeforePass(t *testing.T) {
	now := time.Unix(10_000, 0)
	clock := func() time.Time { return now }
	r, dir, _ := newTestReconciler(t, WithClock(clock))
	writeScript(t, dir, "foo.js", "// @version: 1\n")

	r.mu.Lock()
	r.cache.merge("Gone", Status{}, now.Add(-10*time.Minute), 0)
	r.mu.Unlock()

	_, err := r.Refresh(context.Background(), fooIndex("1"))
	require.NoError(t, err)

	_, ok := r.Status("Gone")
	assert.False(t, ok)
	_, ok = r.Status("Foo")
	assert.True(t, ok, "entries of the current pass survive until the next cleanup")
}

func TestSelectSource_ClearsState(t *testing.T) {
	r, _, f := newTestReconciler(t)
	enly, err := marketplace.LookupSource("Enlysure")
	require.NoError(t, err)
	gh, err := marketplace.LookupSource("Github Raw")
	require.NoError(t, err)
	f.indexes[enly.BaseURL] = fooIndex("1")
	f.indexes[gh.BaseURL] = fooIndex("2")

	idx, err := r.LoadIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", idx.Plugins[0].Version)
	_, err = r.Refresh(context.Background(), idx)
	require.NoError(t, err)
	require.NotEmpty(t, r.Statuses())

	// Cached index is reused.
	_, err = r.LoadIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls[enly.BaseURL])

	require.NoError(t, r.SelectSource("Github Raw"))
	assert.Empty(t, r.Statuses())
	assert.Equal(t, "Github Raw", r.Source().Name)

	idx, err = r.LoadIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2", idx.Plugins[0].Version)

	assert.ErrorIs(t, r.SelectSource("nowhere"), marketplace.ErrUnknownSource)
}

func TestLoadIndex_DiscardedAfterSourceSwitch(t *testing.T) {
	r, _, f := newTestReconciler(t)
	enly, _ := marketplace.LookupSource("Enlysure")
	f.indexes[enly.BaseURL] = fooIndex("1")
	f.gate = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := r.LoadIndex(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.calls[enly.BaseURL] == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, r.SelectSource("Enlysure Shanghai"))
	close(f.gate)

	assert.ErrorIs(t, <-done, ErrStaleIndex)
	r.mu.Lock()
	assert.Nil(t, r.index)
	r.mu.Unlock()
}

func TestClose(t *testing.T) {
	r, _, _ := newTestReconciler(t)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	_, err := r.Refresh(context.Background(), fooIndex("1"))
	assert.True(t, errors.Is(err, ErrClosed))
	_, err = r.Install(context.Background(), fooIndex("1").Plugins[0], base)
	assert.ErrorIs(t, err, ErrClosed)
}
