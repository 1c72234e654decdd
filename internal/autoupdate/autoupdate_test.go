package autoupdate

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/egoavara/shellconf/internal/config"
	"github.com/egoavara/shellconf/internal/marketplace"
	"github.com/egoavara/shellconf/internal/plugin"
	"github.com/egoavara/shellconf/internal/reconcile"
	"github.com/egoavara/shellconf/internal/shell"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeFetcher struct {
	index *marketplace.Index
	files map[string][]byte
}

func (f *fakeFetcher) FetchIndex(ctx context.Context, baseURL string) (*marketplace.Index, error) {
	return f.index, nil
}

func (f *fakeFetcher) Download(ctx context.Context, url string) ([]byte, error) {
	data, ok := f.files[url]
	if !ok {
		return nil, &marketplace.FetchError{URL: url, Status: 404}
	}
	return data, nil
}

type fixture struct {
	paths   config.Paths
	fetcher *fakeFetcher
	rec     *reconcile.Reconciler
	binary  *shell.Binary
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	paths := config.Paths{Root: t.TempDir()}
	src, err := marketplace.LookupSource(marketplace.DefaultSource)
	require.NoError(t, err)

	fetcher := &fakeFetcher{
		index: &marketplace.Index{
			Shell: marketplace.ShellRelease{Version: "0.2.0", Path: "shell.dll", Changelog: "fixes"},
			Plugins: []marketplace.Record{
				{Name: "Foo", LocalPath: "foo.js", Path: "foo.js", Version: "1.1"},
				{Name: "Bar", LocalPath: "bar.js", Path: "bar.js", Version: "2.0.0"},
				{Name: "Baz", LocalPath: "baz.js", Path: "baz.js", Version: "1.0.0"},
			},
		},
		files: map[string][]byte{
			src.BaseURL + "shell.dll": []byte("new shell"),
			src.BaseURL + "foo.js":    []byte("// @version: 1.1\n"),
		},
	}

	dir := plugin.NewDirectory(paths.ScriptsDir(), nil)
	_, err = dir.Write("foo.js", []byte("// @version: 1.0\n"))
	require.NoError(t, err)
	_, err = dir.Write("bar.js", []byte("// @version: 2.0.0\n"))
	require.NoError(t, err)

	r := reconcile.New(dir, fetcher, reconcile.WithSource(src))
	t.Cleanup(func() { _ = r.Close() })

	return &fixture{
		paths:   paths,
		fetcher: fetcher,
		rec:     r,
		binary:  shell.NewBinary(paths, nil),
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		current, remote string
		want            Direction
	}{
		{"0.1.0", "0.2.0", DirectionUpgrade},
		{"1.0.0", "0.9.9", DirectionDowngrade},
		{"1.0", "1.0.0", DirectionNone},
		{"nightly", "1.0.0", DirectionNone},
		{"1.0.0", "", DirectionNone},
	}
	for _, tt := range tests {
		t.Run(tt.current+"->"+tt.remote, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.current, tt.remote))
		})
	}
}

func TestChecker_Check(t *testing.T) {
	f := newFixture(t)
	c := NewChecker(f.rec, f.binary, "0.1.0", nil)

	result, err := c.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, marketplace.DefaultSource, result.Source)
	assert.True(t, result.Shell.HasUpdate)
	assert.Equal(t, DirectionUpgrade, result.Shell.Direction)
	assert.False(t, result.UpdatePending)

	require.Len(t, result.Plugins, 1)
	assert.Equal(t, "Foo", result.Plugins[0].Name)
	assert.Equal(t, "1.0", result.Plugins[0].CurrentVer)
	assert.Equal(t, "1.1", result.Plugins[0].RemoteVer)
	assert.Equal(t, 2, result.TotalUpdates())
	assert.True(t, result.HasAnyUpdate)
}

func TestChecker_ShellLiteralComparison(t *testing.T) {
	f := newFixture(t)
	f.fetcher.index.Shell.Version = "0.1"
	c := NewChecker(f.rec, f.binary, "0.1.0", nil)

	info := c.CheckShell(f.fetcher.index)
	assert.True(t, info.HasUpdate)
	assert.Equal(t, DirectionNone, info.Direction)
}

func TestChecker_UnknownShellVersion(t *testing.T) {
	f := newFixture(t)
	c := NewChecker(f.rec, f.binary, "", nil)

	info := c.CheckShell(f.fetcher.index)
	assert.False(t, info.HasUpdate)
	assert.Equal(t, "0.2.0", info.RemoteVer)
}

func TestUpdater_ApplyShell(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.binary.Path(), []byte("old shell"), 0644))
	u := NewUpdater(f.rec, f.binary, f.fetcher, nil, nil)

	err := u.ApplyShell(context.Background(), UpdateInfo{HasUpdate: true, Path: "shell.dll", RemoteVer: "0.2.0"})
	require.NoError(t, err)

	data, err := os.ReadFile(f.binary.Path())
	require.NoError(t, err)
	assert.Equal(t, "new shell", string(data))
	assert.True(t, f.binary.UpdatePending())
}

func TestUpdater_ApplyShellRollsBackOnDownloadFailure(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.binary.Path(), []byte("old shell"), 0644))
	u := NewUpdater(f.rec, f.binary, f.fetcher, nil, nil)

	err := u.ApplyShell(context.Background(), UpdateInfo{HasUpdate: true, Path: "missing.dll"})
	var fe *marketplace.FetchError
	require.True(t, errors.As(err, &fe))

	data, err := os.ReadFile(f.binary.Path())
	require.NoError(t, err)
	assert.Equal(t, "old shell", string(data))
	assert.False(t, f.binary.UpdatePending())
}

func TestUpdater_ApplyShellNoUpdate(t *testing.T) {
	f := newFixture(t)
	u := NewUpdater(f.rec, f.binary, f.fetcher, nil, nil)
	require.NoError(t, u.ApplyShell(context.Background(), UpdateInfo{}))
	assert.False(t, f.binary.Exists())
}

func TestUpdater_ApplyUpdates(t *testing.T) {
	f := newFixture(t)
	c := NewChecker(f.rec, f.binary, "0.1.0", nil)
	result, err := c.Check(context.Background())
	require.NoError(t, err)

	var out bytes.Buffer
	u := NewUpdater(f.rec, f.binary, f.fetcher, &out, nil)
	require.NoError(t, u.ApplyUpdates(context.Background(), result))

	assert.Equal(t, "1.1", plugin.ReadVersion(filepath.Join(f.paths.ScriptsDir(), "foo.js")))
	st, ok := f.rec.Status("Foo")
	require.True(t, ok)
	assert.False(t, st.HasUpdate)
	assert.True(t, f.binary.Exists())
	assert.Contains(t, out.String(), "✓")
}

func TestUpdater_ApplyUpdatesReportsFailures(t *testing.T) {
	f := newFixture(t)
	result := &CheckResult{
		HasAnyUpdate: true,
		Plugins:      []UpdateInfo{{Type: UpdateTypePlugin, Name: "Gone", HasUpdate: true}},
	}

	var out bytes.Buffer
	u := NewUpdater(f.rec, f.binary, f.fetcher, &out, nil)
	err := u.ApplyUpdates(context.Background(), result)

	assert.Error(t, err)
	assert.Contains(t, out.String(), "✗")
}

func TestShowUpdateSummary(t *testing.T) {
	result := &CheckResult{
		Shell:         UpdateInfo{Name: "shell", CurrentVer: "0.2.0", RemoteVer: "0.1.0", HasUpdate: true, Direction: DirectionDowngrade},
		Plugins:       []UpdateInfo{{Name: "Foo", CurrentVer: "1.0", RemoteVer: "1.1", HasUpdate: true}},
		UpdatePending: true,
		HasAnyUpdate:  true,
	}

	var out bytes.Buffer
	ShowUpdateSummary(&out, result)

	s := out.String()
	assert.Contains(t, s, "shell (0.2.0 → 0.1.0)")
	assert.Contains(t, s, "Foo (1.0 → 1.1)")
	assert.Contains(t, s, "downgrade")
	assert.Contains(t, s, "status.updatePending")
}

func TestShowUpdateSummary_NoUpdates(t *testing.T) {
	var out bytes.Buffer
	ShowUpdateSummary(&out, &CheckResult{})
	assert.Equal(t, "update.no_updates\n", out.String())
}

func TestPromptUpdate(t *testing.T) {
	withUpdates := &CheckResult{HasAnyUpdate: true}
	tests := []struct {
		input string
		want  bool
	}{
		{"\n", true},
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"no", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			assert.Equal(t, tt.want, PromptUpdate(strings.NewReader(tt.input), &out, withUpdates))
		})
	}

	assert.False(t, PromptUpdate(strings.NewReader("y\n"), &bytes.Buffer{}, &CheckResult{}))
}
