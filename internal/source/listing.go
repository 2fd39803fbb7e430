package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/appengine-ltd/wildmons/internal/parser"
)

// ListingSource scrapes an HTML directory listing (Apache, nginx autoindex,
// python -m http.server) for links to map files.
type ListingSource struct {
	listing *url.URL
	ext     string
	fetcher *Fetcher

	mu    sync.Mutex
	links map[string]string
}

func NewListingSource(listingURL, ext string, f *Fetcher) (*ListingSource, error) {
	u, err := url.Parse(strings.TrimSpace(listingURL))
	if err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %q", u.Scheme)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &ListingSource{listing: u, ext: normalizeExt(ext), fetcher: f}, nil
}

func (s *ListingSource) scrape(ctx context.Context) (map[string]string, error) {
	blob, err := s.fetcher.Fresh(ctx, s.listing.String())
	if err != nil {
		return nil, fmt.Errorf("load directory listing: %w", err)
	}
	links, err := parseListing(blob, s.listing, s.ext)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.links = links
	s.mu.Unlock()
	return links, nil
}

func parseListing(blob []byte, base *url.URL, ext string) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("parse directory listing: %w", err)
	}
	links := make(map[string]string)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil || ref.Path == "" {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Host != base.Host || !hasExt(abs.Path, ext) {
			return
		}
		id := parser.MapID(abs.Path)
		if id == "" {
			return
		}
		if _, ok := links[id]; !ok {
			abs.Fragment = ""
			links[id] = abs.String()
		}
	})
	return links, nil
}

func (s *ListingSource) List(ctx context.Context) ([]string, error) {
	links, err := s.scrape(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(links))
	for id := range links {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *ListingSource) Fetch(ctx context.Context, mapID string) (string, error) {
	s.mu.Lock()
	links := s.links
	s.mu.Unlock()
	if links == nil {
		var err error
		if links, err = s.scrape(ctx); err != nil {
			return "", err
		}
	}
	link, ok := links[mapID]
	if !ok {
		return "", fmt.Errorf("%s: %w", mapID, ErrNotFound)
	}
	blob, err := s.fetcher.Get(ctx, link)
	if err != nil {
		return "", err
	}
	return string(blob), nil
}
