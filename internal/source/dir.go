package source

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// DirSource serves every map file found directly inside a directory.
type DirSource struct {
	root string
	ext  string
}

func NewDirSource(root, ext string) *DirSource {
	return &DirSource{root: root, ext: normalizeExt(ext)}
}

func (s *DirSource) Root() string { return s.root }

func (s *DirSource) Extension() string { return s.ext }

func (s *DirSource) scan() (fileIndex, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileIndex{}, fmt.Errorf("map directory %s: %w", s.root, ErrNotFound)
		}
		return fileIndex{}, fmt.Errorf("read map directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !hasExt(e.Name(), s.ext) {
			continue
		}
		names = append(names, e.Name())
	}
	return buildIndex(names, s.ext), nil
}

func (s *DirSource) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx, err := s.scan()
	if err != nil {
		return nil, err
	}
	return idx.ids, nil
}

func (s *DirSource) Fetch(ctx context.Context, mapID string) (string, error) {
	idx, err := s.scan()
	if err != nil {
		return "", err
	}
	name, ok := idx.file(mapID)
	if !ok {
		return "", fmt.Errorf("%s: %w", mapID, ErrNotFound)
	}
	blob, err := dirStore{root: s.root}.read(ctx, name, false)
	if err != nil {
		return "", err
	}
	return string(blob), nil
}

// Files returns the map file names in id order.
func (s *DirSource) Files(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx, err := s.scan()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(idx.ids))
	for _, id := range idx.ids {
		out = append(out, idx.files[id])
	}
	return out, nil
}
