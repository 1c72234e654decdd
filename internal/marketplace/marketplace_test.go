package marketplace

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleIndex = `{
	"shell": {"version": "2.0.0", "path": "shell.dll", "changelog": "fixes"},
	"plugins": [
		{"name": "Foo", "description": "foo plugin", "local_path": "foo.js", "path": "plugins/foo.js", "version": "1.1", "author": "me"},
		{"name": "Bar", "local_path": "bar.js", "path": "plugins/bar.js", "version": "0.3"}
	]
}`

func TestValidateIndex(t *testing.T) {
	require.NoError(t, ValidateIndex([]byte(sampleIndex)))

	err := ValidateIndex([]byte(`{"shell": {"version": "1"}, "plugins": [{"name": "x", "version": 3}]}`))
	var invalid *InvalidIndexError
	require.ErrorAs(t, err, &invalid)
	assert.NotEmpty(t, invalid.Issues)

	assert.Error(t, ValidateIndex([]byte(`not json`)))
}

func TestValidateIndex_LocalPath(t *testing.T) {
	for _, local := range []string{"../config.json", "sub/foo.js", `sub\foo.js`, "..", ""} {
		t.Run(local, func(t *testing.T) {
			doc := fmt.Sprintf(`{"shell": {"version": "1", "path": "shell.dll"}, "plugins": [{"name": "x", "local_path": %q, "path": "x.js", "version": "1"}]}`, local)
			var invalid *InvalidIndexError
			assert.ErrorAs(t, ValidateIndex([]byte(doc)), &invalid)
		})
	}
}

func TestFetchIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/"+IndexFile, r.URL.Path)
		w.Write([]byte(sampleIndex))
	}))
	defer srv.Close()

	idx, err := NewClient().FetchIndex(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "2.0.0", idx.Shell.Version)
	require.Len(t, idx.Plugins, 2)
	assert.Equal(t, Record{
		Name:        "Foo",
		Description: "foo plugin",
		LocalPath:   "foo.js",
		Path:        "plugins/foo.js",
		Version:     "1.1",
		Author:      "me",
	}, idx.Plugins[0])
}

func TestFetchIndex_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewClient().FetchIndex(context.Background(), srv.URL+"/")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.Status)
}

func TestFetchIndex_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := NewClient(WithTimeout(50*time.Millisecond)).FetchIndex(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFetchIndex_CollapsesConcurrentRequests(t *testing.T) {
	var hits atomic.Int32
	gate := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-gate
		w.Write([]byte(sampleIndex))
	}))
	defer srv.Close()

	c := NewClient()
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.FetchIndex(context.Background(), srv.URL)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchIndex_CancelledCallerDoesNotFailOthers(t *testing.T) {
	var hits atomic.Int32
	gate := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-gate
		w.Write([]byte(sampleIndex))
	}))
	defer srv.Close()

	c := NewClient()
	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.FetchIndex(ctx, srv.URL)
		first <- err
	}()
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, time.Millisecond)

	second := make(chan error, 1)
	go func() {
		_, err := c.FetchIndex(context.Background(), srv.URL)
		second <- err
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(gate)
	assert.NoError(t, <-second)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchIndex_CallersOwnResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleIndex))
	}))
	defer srv.Close()

	c := NewClient()
	a, err := c.FetchIndex(context.Background(), srv.URL)
	require.NoError(t, err)
	a.Plugins[0].Version = "mutated"

	b, err := c.FetchIndex(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "1.1", b.Plugins[0].Version)
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("// @version: 1.1\n"))
	}))
	defer srv.Close()

	data, err := NewClient().Download(context.Background(), ResolveURL(srv.URL, "plugins/foo.js"))
	require.NoError(t, err)
	assert.Equal(t, "// @version: 1.1\n", string(data))
}

func TestSources(t *testing.T) {
	s, err := LookupSource(DefaultSource)
	require.NoError(t, err)
	assert.Equal(t, "https://breeze.enlysure.com/plugins-index.json", IndexURL(s.BaseURL))

	_, err = LookupSource("nowhere")
	assert.ErrorIs(t, err, ErrUnknownSource)

	assert.Equal(t, []string{"Enlysure", "Enlysure Shanghai", "Github Raw"}, SourceNames())
}

func TestResolveURL(t *testing.T) {
	assert.Equal(t, "https://a/b/c.js", ResolveURL("https://a/b/", "c.js"))
	assert.Equal(t, "https://a/b/c.js", ResolveURL("https://a/b", "/c.js"))
}

func TestIndexPaging(t *testing.T) {
	idx := &Index{}
	for i := 0; i < 23; i++ {
		idx.Plugins = append(idx.Plugins, Record{Name: string(rune('a' + i))})
	}

	assert.Equal(t, 3, idx.PageCount(PageSize))
	assert.Len(t, idx.Page(1, PageSize), 10)
	assert.Len(t, idx.Page(3, PageSize), 3)
	assert.Empty(t, idx.Page(4, PageSize))
	assert.Empty(t, idx.Page(0, PageSize))
	assert.Equal(t, "k", idx.Page(2, PageSize)[0].Name)
}

func TestFindPlugin(t *testing.T) {
	idx := &Index{Plugins: []Record{{Name: "Foo"}, {Name: "Bar"}}}
	require.NotNil(t, idx.FindPlugin("Bar"))
	assert.Nil(t, idx.FindPlugin("Baz"))
}
