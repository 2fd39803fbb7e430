package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"
)

const (
	DefaultIndexFile = "mapIndex.json"
	DefaultMapsDir   = "maps"
)

// IndexFile is the mapIndex.json document: {"maps": ["Route1.asm", ...]}.
type IndexFile struct {
	Maps []string `json:"maps"`
}

// IndexSource lists maps from an index file and reads each one from the
// maps directory next to it. Root may be a directory or a base URL.
type IndexSource struct {
	store     store
	indexFile string
	mapsDir   string
	ext       string

	mu  sync.Mutex
	idx *fileIndex
}

type IndexOptions struct {
	Root      string
	BaseURL   string
	IndexFile string
	MapsDir   string
	Extension string
}

func NewIndexSource(opts IndexOptions, f *Fetcher) (*IndexSource, error) {
	st, err := newStore(opts.Root, opts.BaseURL, f)
	if err != nil {
		return nil, err
	}
	if opts.IndexFile == "" {
		opts.IndexFile = DefaultIndexFile
	}
	if opts.MapsDir == "" {
		opts.MapsDir = DefaultMapsDir
	}
	return &IndexSource{
		store:     st,
		indexFile: opts.IndexFile,
		mapsDir:   opts.MapsDir,
		ext:       normalizeExt(opts.Extension),
	}, nil
}

func (s *IndexSource) load(ctx context.Context) (fileIndex, error) {
	blob, err := s.store.read(ctx, s.indexFile, true)
	if err != nil {
		return fileIndex{}, fmt.Errorf("load map index: %w", err)
	}
	var doc IndexFile
	if err := json.Unmarshal(blob, &doc); err != nil {
		return fileIndex{}, fmt.Errorf("parse map index: %w", err)
	}
	idx := buildIndex(doc.Maps, s.ext)
	s.mu.Lock()
	s.idx = &idx
	s.mu.Unlock()
	return idx, nil
}

func (s *IndexSource) List(ctx context.Context) ([]string, error) {
	idx, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(idx.ids))
	copy(out, idx.ids)
	return out, nil
}

func (s *IndexSource) Fetch(ctx context.Context, mapID string) (string, error) {
	s.mu.Lock()
	cached := s.idx
	s.mu.Unlock()
	var idx fileIndex
	if cached != nil {
		idx = *cached
	} else {
		var err error
		if idx, err = s.load(ctx); err != nil {
			return "", err
		}
	}
	name, ok := idx.file(mapID)
	if !ok {
		return "", fmt.Errorf("%s: %w", mapID, ErrNotFound)
	}
	blob, err := s.store.read(ctx, path.Join(s.mapsDir, name), false)
	if err != nil {
		return "", err
	}
	return string(blob), nil
}

// WriteIndexFile writes names as a mapIndex.json document. The file is
// replaced atomically so a serving process never reads a partial index.
func WriteIndexFile(path string, names []string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if names == nil {
		names = []string{}
	}
	blob, err := json.MarshalIndent(IndexFile{Maps: names}, "", "  ")
	if err != nil {
		return err
	}
	blob = append(blob, '\n')

	tmp, err := os.CreateTemp(dir, "mapIndex-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()
	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	cleanup = false
	return nil
}
