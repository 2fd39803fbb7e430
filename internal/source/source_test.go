package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

const route1Asm = "def_grass_wildmons 25\n\tdb 3, RATTATA\nend_grass_wildmons\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDirSourceListsAndFetches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Route2.asm"), "x")
	writeFile(t, filepath.Join(dir, "Route1.asm"), route1Asm)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	if err := os.Mkdir(filepath.Join(dir, "sub.asm"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	src := NewDirSource(dir, "asm")
	ids, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if want := []string{"Route1", "Route2"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids=%v want=%v", ids, want)
	}
	doc, err := src.Fetch(context.Background(), "Route1")
	if err != nil || doc != route1Asm {
		t.Fatalf("Fetch Route1 = %q, %v", doc, err)
	}
	if _, err := src.Fetch(context.Background(), "Route9"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDirSourceMissingDirectory(t *testing.T) {
	src := NewDirSource(filepath.Join(t.TempDir(), "nope"), "")
	if _, err := src.List(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIndexSourceLocal(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "mapIndex.json"), `{"maps": ["Route1.asm", "Route22", "Route1.asm", ""]}`)
	writeFile(t, filepath.Join(root, "maps", "Route1.asm"), route1Asm)

	src, err := NewIndexSource(IndexOptions{Root: root}, NewFetcher(FetcherOptions{}, nil))
	if err != nil {
		t.Fatalf("NewIndexSource: %v", err)
	}
	ids, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if want := []string{"Route1", "Route22"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids=%v want=%v", ids, want)
	}
	if doc, err := src.Fetch(context.Background(), "Route1"); err != nil || doc != route1Asm {
		t.Fatalf("Fetch Route1 = %q, %v", doc, err)
	}
	if _, err := src.Fetch(context.Background(), "Route22"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("listed but missing file should be ErrNotFound, got %v", err)
	}
}

func TestIndexSourceHTTP(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/data/mapIndex.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"maps":["Route1.asm"]}`))
	})
	mux.HandleFunc("/data/maps/Route1.asm", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != defaultUserAgent {
			http.Error(w, "bad agent", http.StatusForbidden)
			return
		}
		w.Write([]byte(route1Asm))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src, err := NewIndexSource(IndexOptions{BaseURL: srv.URL + "/data"}, NewFetcher(FetcherOptions{}, nil))
	if err != nil {
		t.Fatalf("NewIndexSource: %v", err)
	}
	doc, err := src.Fetch(context.Background(), "Route1")
	if err != nil || doc != route1Asm {
		t.Fatalf("Fetch = %q, %v", doc, err)
	}
}

func TestStaticSource(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "maps", "ViridianForest.asm"), route1Asm)
	src, err := NewStaticSource(StaticOptions{Root: root, MapsDir: "maps", Maps: []string{"ViridianForest.asm", "Route2"}}, nil)
	if err != nil {
		t.Fatalf("NewStaticSource: %v", err)
	}
	ids, _ := src.List(context.Background())
	if want := []string{"Route2", "ViridianForest"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids=%v want=%v", ids, want)
	}
	if _, err := src.Fetch(context.Background(), "ViridianForest"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if _, err := NewStaticSource(StaticOptions{Root: root}, nil); err == nil {
		t.Fatalf("expected error for empty map list")
	}
}

func TestDirStoreRejectsEscapes(t *testing.T) {
	s := dirStore{root: t.TempDir()}
	if _, err := s.read(context.Background(), "../etc/passwd", false); err == nil {
		t.Fatalf("expected escape to be rejected")
	}
}

func TestFetcherRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewFetcher(FetcherOptions{Backoff: time.Millisecond}, nil)
	blob, err := f.Get(context.Background(), srv.URL)
	if err != nil || string(blob) != "ok" {
		t.Fatalf("Get = %q, %v", blob, err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestFetcherNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(FetcherOptions{Backoff: time.Millisecond}, nil)
	if _, err := f.Get(context.Background(), srv.URL+"/x.asm"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("404 retried %d times", calls.Load())
	}
}

func TestFetcherDiskCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(route1Asm))
	}))
	defer srv.Close()

	f := NewFetcher(FetcherOptions{CacheDir: t.TempDir()}, nil)
	for i := 0; i < 3; i++ {
		if _, err := f.Get(context.Background(), srv.URL+"/Route1.asm"); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected cached body after first fetch, server saw %d calls", calls.Load())
	}
	if _, err := f.Fresh(context.Background(), srv.URL+"/Route1.asm"); err != nil {
		t.Fatalf("Fresh: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("Fresh should bypass the cache, server saw %d calls", calls.Load())
	}
}

func TestValidateHTTPSURL(t *testing.T) {
	allowed := map[string]struct{}{"raw.githubusercontent.com": {}}
	if err := validateHTTPSURL("https://raw.githubusercontent.com/pret/pokered/master/data/wild/maps/Route1.asm", allowed); err != nil {
		t.Fatalf("expected allowed URL to pass: %v", err)
	}
	if err := validateHTTPSURL("http://raw.githubusercontent.com/x", allowed); err == nil {
		t.Fatalf("expected non-https URL to fail")
	}
	if err := validateHTTPSURL("https://example.com/x", allowed); err == nil {
		t.Fatalf("expected non-allowlisted host to fail")
	}
}

type countingSource struct {
	fetches atomic.Int32
}

func (c *countingSource) List(context.Context) ([]string, error) { return []string{"A"}, nil }

func (c *countingSource) Fetch(_ context.Context, id string) (string, error) {
	c.fetches.Add(1)
	return "doc-" + id, nil
}

func TestMemoryCache(t *testing.T) {
	inner := &countingSource{}
	c := NewMemoryCache(inner)
	for i := 0; i < 3; i++ {
		if doc, _ := c.Fetch(context.Background(), "A"); doc != "doc-A" {
			t.Fatalf("doc=%q", doc)
		}
	}
	if inner.fetches.Load() != 1 || c.Len() != 1 {
		t.Fatalf("fetches=%d len=%d", inner.fetches.Load(), c.Len())
	}
	c.Invalidate("A")
	_, _ = c.Fetch(context.Background(), "A")
	if inner.fetches.Load() != 2 {
		t.Fatalf("invalidate did not force refetch")
	}
	c.Reset()
	if c.Len() != 0 {
		t.Fatalf("reset left %d entries", c.Len())
	}
}

// blockingSource holds each Fetch until release is closed.
type blockingSource struct {
	started chan struct{}
	release chan struct{}
	fetches atomic.Int32
}

func (b *blockingSource) List(context.Context) ([]string, error) { return []string{"A"}, nil }

func (b *blockingSource) Fetch(_ context.Context, id string) (string, error) {
	n := b.fetches.Add(1)
	if n == 1 {
		close(b.started)
		<-b.release
		return "stale-" + id, nil
	}
	return "fresh-" + id, nil
}

func TestMemoryCacheDropsFetchInvalidatedInFlight(t *testing.T) {
	inner := &blockingSource{started: make(chan struct{}), release: make(chan struct{})}
	c := NewMemoryCache(inner)

	done := make(chan string)
	go func() {
		doc, _ := c.Fetch(context.Background(), "A")
		done <- doc
	}()
	<-inner.started
	c.Invalidate("A")
	close(inner.release)
	if doc := <-done; doc != "stale-A" {
		t.Fatalf("in-flight fetch returned %q", doc)
	}
	if c.Len() != 0 {
		t.Fatalf("invalidated body was cached")
	}
	if doc, _ := c.Fetch(context.Background(), "A"); doc != "fresh-A" {
		t.Fatalf("doc after invalidate = %q", doc)
	}
	if c.Len() != 1 {
		t.Fatalf("fresh body not cached, len=%d", c.Len())
	}
}

func TestIndexSourceListReturnsCopy(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, DefaultIndexFile), `{"maps":["Route1.asm","Route2.asm"]}`)
	writeFile(t, filepath.Join(root, "maps", "Route1.asm"), route1Asm)
	src, err := NewIndexSource(IndexOptions{Root: root}, NewFetcher(FetcherOptions{}, nil))
	if err != nil {
		t.Fatalf("NewIndexSource: %v", err)
	}
	ids, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	ids[0] = "Clobbered"
	if got := src.idx.ids[0]; got != "Route1" {
		t.Fatalf("List exposed the cached index: ids[0]=%q", got)
	}
	if _, err := src.Fetch(context.Background(), "Route1"); err != nil {
		t.Fatalf("Fetch after editing listed ids: %v", err)
	}
}

func TestOpenRejectsUnknownKind(t *testing.T) {
	if _, err := Open(Options{Kind: "ftp"}, nil); err == nil {
		t.Fatalf("expected unknown kind error")
	}
	if _, err := Open(Options{Kind: KindDir}, nil); err == nil {
		t.Fatalf("expected dir source without root to fail")
	}
	if _, err := Open(Options{Kind: KindListing}, nil); err == nil {
		t.Fatalf("expected listing source without url to fail")
	}
}

func TestWriteIndexFileRoundTrip(t *testing.T) {
	root := t.TempDir()
	if err := WriteIndexFile(filepath.Join(root, DefaultIndexFile), []string{"Route1.asm", "Route2.asm"}); err != nil {
		t.Fatalf("WriteIndexFile: %v", err)
	}
	src, err := NewIndexSource(IndexOptions{Root: root}, nil)
	if err != nil {
		t.Fatalf("NewIndexSource: %v", err)
	}
	ids, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if want := []string{"Route1", "Route2"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids=%v want=%v", ids, want)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 1 {
		t.Fatalf("expected only the index file, found %d entries", len(entries))
	}
}
