// Package source enumerates map files and fetches their raw text from a
// local directory, a mapIndex.json, an HTTP directory listing or a fixed
// list of names.
package source

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/appengine-ltd/wildmons/internal/parser"
)

const DefaultExtension = ".asm"

var ErrNotFound = errors.New("map not found")

type Source interface {
	List(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, mapID string) (string, error)
}

func normalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return DefaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.ToLower(ext)
}

func hasExt(name, ext string) bool {
	return strings.HasSuffix(strings.ToLower(name), ext)
}

// fileIndex maps ids to the file names they came from, preserving the
// first spelling seen for each id.
type fileIndex struct {
	ids   []string
	files map[string]string
}

func buildIndex(names []string, ext string) fileIndex {
	idx := fileIndex{files: make(map[string]string, len(names))}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !hasExt(name, ext) {
			name += ext
		}
		id := parser.MapID(name)
		if id == "" {
			continue
		}
		if _, ok := idx.files[id]; ok {
			continue
		}
		idx.files[id] = name
		idx.ids = append(idx.ids, id)
	}
	sort.Strings(idx.ids)
	return idx
}

func (idx fileIndex) file(id string) (string, bool) {
	f, ok := idx.files[id]
	return f, ok
}
