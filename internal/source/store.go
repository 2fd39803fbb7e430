package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// store reads blobs relative to a root, either a directory or a base URL.
// fresh bypasses any fetch cache.
type store interface {
	read(ctx context.Context, rel string, fresh bool) ([]byte, error)
	String() string
}

type dirStore struct {
	root string
}

func (s dirStore) read(ctx context.Context, rel string, _ bool) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("path escapes root: %q", rel)
	}
	blob, err := os.ReadFile(filepath.Join(s.root, clean))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", rel, ErrNotFound)
	}
	return blob, err
}

func (s dirStore) String() string { return s.root }

type httpStore struct {
	base    *url.URL
	fetcher *Fetcher
}

func newHTTPStore(base string, f *Fetcher) (httpStore, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return httpStore{}, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return httpStore{}, fmt.Errorf("unsupported URL scheme: %q", u.Scheme)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return httpStore{base: u, fetcher: f}, nil
}

func (s httpStore) resolve(rel string) string {
	ref := &url.URL{Path: path.Clean("/" + rel)[1:]}
	return s.base.ResolveReference(ref).String()
}

func (s httpStore) read(ctx context.Context, rel string, fresh bool) ([]byte, error) {
	if fresh {
		return s.fetcher.Fresh(ctx, s.resolve(rel))
	}
	return s.fetcher.Get(ctx, s.resolve(rel))
}

func (s httpStore) String() string { return s.base.String() }

func newStore(root, baseURL string, f *Fetcher) (store, error) {
	if strings.TrimSpace(baseURL) != "" {
		return newHTTPStore(baseURL, f)
	}
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("either a root directory or a base URL is required")
	}
	return dirStore{root: root}, nil
}
