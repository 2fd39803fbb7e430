package source

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultUserAgent = "wildmons/1.0"
	defaultTimeout   = 20 * time.Second
	maxBodyBytes     = 8 << 20
	fetchAttempts    = 3
)

type FetcherOptions struct {
	Timeout      time.Duration
	UserAgent    string
	CacheDir     string
	AllowedHosts []string
	Client       *http.Client
	Backoff      time.Duration
}

// Fetcher performs GETs with retries and an optional on-disk body cache.
type Fetcher struct {
	client    *http.Client
	userAgent string
	cacheDir  string
	allowed   map[string]struct{}
	backoff   time.Duration
	log       *zap.Logger
}

func NewFetcher(opts FetcherOptions, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	var allowed map[string]struct{}
	if len(opts.AllowedHosts) > 0 {
		allowed = make(map[string]struct{}, len(opts.AllowedHosts))
		for _, h := range opts.AllowedHosts {
			h = strings.ToLower(strings.TrimSpace(h))
			if h != "" {
				allowed[h] = struct{}{}
			}
		}
	}
	return &Fetcher{
		client:    client,
		userAgent: ua,
		cacheDir:  opts.CacheDir,
		allowed:   allowed,
		backoff:   backoff,
		log:       log,
	}
}

// Get returns the body of rawURL, consulting the disk cache first. A 404
// wraps ErrNotFound and is not retried; other failures are retried with a
// linear backoff.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	return f.fetch(ctx, rawURL, true)
}

// Fresh is Get without the disk cache, for pages that change such as
// directory listings.
func (f *Fetcher) Fresh(ctx context.Context, rawURL string) ([]byte, error) {
	return f.fetch(ctx, rawURL, false)
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string, useCache bool) ([]byte, error) {
	if f.allowed != nil {
		if err := validateHTTPSURL(rawURL, f.allowed); err != nil {
			return nil, err
		}
	}

	cachePath := ""
	if useCache && f.cacheDir != "" {
		cachePath = filepath.Join(f.cacheDir, hashString(rawURL))
		if blob, err := os.ReadFile(cachePath); err == nil {
			f.log.Debug("fetch cache hit", zap.String("url", rawURL))
			return blob, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * f.backoff):
			}
		}
		blob, retry, err := f.get(ctx, rawURL)
		if err == nil {
			if cachePath != "" {
				if err := writeCache(cachePath, blob); err != nil {
					f.log.Warn("fetch cache write failed", zap.String("url", rawURL), zap.Error(err))
				}
			}
			return blob, nil
		}
		lastErr = err
		if !retry {
			break
		}
		f.log.Debug("fetch retry", zap.String("url", rawURL), zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return nil, lastErr
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, fmt.Errorf("GET %s: %w", rawURL, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		retry := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, retry, fmt.Errorf("GET %s: %s: %s", rawURL, resp.Status, strings.TrimSpace(string(b)))
	}

	blob, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, true, err
	}
	if len(blob) > maxBodyBytes {
		return nil, false, fmt.Errorf("GET %s: body exceeds %d bytes", rawURL, maxBodyBytes)
	}
	return blob, false, nil
}

func validateHTTPSURL(raw string, allowedHosts map[string]struct{}) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if !strings.EqualFold(parsed.Scheme, "https") {
		return fmt.Errorf("unsupported URL scheme: %s", parsed.Scheme)
	}
	host := strings.ToLower(parsed.Hostname())
	if _, ok := allowedHosts[host]; !ok {
		return fmt.Errorf("unsupported URL host: %s", host)
	}
	return nil
}

func writeCache(path string, blob []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "fetch-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func hashString(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
