package source

import (
	"context"
	"fmt"
	"path"
)

// StaticSource serves a fixed list of map files from a directory or URL.
type StaticSource struct {
	store   store
	mapsDir string
	idx     fileIndex
}

type StaticOptions struct {
	Root      string
	BaseURL   string
	MapsDir   string
	Extension string
	Maps      []string
}

func NewStaticSource(opts StaticOptions, f *Fetcher) (*StaticSource, error) {
	st, err := newStore(opts.Root, opts.BaseURL, f)
	if err != nil {
		return nil, err
	}
	if len(opts.Maps) == 0 {
		return nil, fmt.Errorf("static source needs at least one map")
	}
	return &StaticSource{
		store:   st,
		mapsDir: opts.MapsDir,
		idx:     buildIndex(opts.Maps, normalizeExt(opts.Extension)),
	}, nil
}

func (s *StaticSource) List(ctx context.Context) ([]string, error) {
	out := make([]string, len(s.idx.ids))
	copy(out, s.idx.ids)
	return out, ctx.Err()
}

func (s *StaticSource) Fetch(ctx context.Context, mapID string) (string, error) {
	name, ok := s.idx.file(mapID)
	if !ok {
		return "", fmt.Errorf("%s: %w", mapID, ErrNotFound)
	}
	blob, err := s.store.read(ctx, path.Join(s.mapsDir, name), false)
	if err != nil {
		return "", err
	}
	return string(blob), nil
}
