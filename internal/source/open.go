package source

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Kind string

const (
	KindIndex   Kind = "index"
	KindDir     Kind = "dir"
	KindListing Kind = "listing"
	KindStatic  Kind = "static"
)

func ValidKind(k Kind) bool {
	switch k {
	case KindIndex, KindDir, KindListing, KindStatic:
		return true
	default:
		return false
	}
}

type Options struct {
	Kind         Kind
	Root         string
	URL          string
	IndexFile    string
	MapsDir      string
	Extension    string
	Maps         []string
	CacheDir     string
	AllowedHosts []string
	Timeout      time.Duration
}

// Open builds the Source described by opts.
func Open(opts Options, log *zap.Logger) (Source, error) {
	f := NewFetcher(FetcherOptions{
		Timeout:      opts.Timeout,
		CacheDir:     opts.CacheDir,
		AllowedHosts: opts.AllowedHosts,
	}, log)

	switch Kind(strings.ToLower(string(opts.Kind))) {
	case KindIndex, "":
		return NewIndexSource(IndexOptions{
			Root:      opts.Root,
			BaseURL:   opts.URL,
			IndexFile: opts.IndexFile,
			MapsDir:   opts.MapsDir,
			Extension: opts.Extension,
		}, f)
	case KindDir:
		if strings.TrimSpace(opts.Root) == "" {
			return nil, fmt.Errorf("dir source needs a root directory")
		}
		return NewDirSource(opts.Root, opts.Extension), nil
	case KindListing:
		if strings.TrimSpace(opts.URL) == "" {
			return nil, fmt.Errorf("listing source needs a url")
		}
		return NewListingSource(opts.URL, opts.Extension, f)
	case KindStatic:
		return NewStaticSource(StaticOptions{
			Root:      opts.Root,
			BaseURL:   opts.URL,
			MapsDir:   opts.MapsDir,
			Extension: opts.Extension,
			Maps:      opts.Maps,
		}, f)
	default:
		return nil, fmt.Errorf("unknown source kind %q", opts.Kind)
	}
}
