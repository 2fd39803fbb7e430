package parser

import (
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
)

// Registry is the set of species keys seen across parsed maps. It backs
// "did you mean" suggestions when a search finds nothing.
type Registry struct {
	mu      sync.RWMutex
	species map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{species: make(map[string]struct{})}
}

func (r *Registry) Add(species string) {
	key := NormaliseSpecies(species)
	if key == "" {
		return
	}
	r.mu.Lock()
	r.species[key] = struct{}{}
	r.mu.Unlock()
}

func (r *Registry) AddMap(m MapEncounters) {
	for _, rec := range m.Grass {
		r.Add(rec.Key)
	}
	for _, rec := range m.Water {
		r.Add(rec.Key)
	}
}

func (r *Registry) Has(species string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.species[NormaliseSpecies(species)]
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.species)
}

func (r *Registry) Species() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.species))
	for k := range r.species {
		out = append(out, k)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

type suggestion struct {
	species string
	dist    int
	prefix  bool
}

// Suggest returns up to n known species close to query. Prefix hits rank
// ahead of edit-distance hits.
func (r *Registry) Suggest(query string, n int) []string {
	q := NormaliseSpecies(query)
	if q == "" || n <= 0 {
		return nil
	}
	r.mu.RLock()
	cands := make([]suggestion, 0, 8)
	for s := range r.species {
		if s == q {
			continue
		}
		if len(q) >= 2 && strings.HasPrefix(s, q) {
			cands = append(cands, suggestion{species: s, dist: len(s) - len(q), prefix: true})
			continue
		}
		if len(q) < 3 {
			continue
		}
		dist := levenshtein.ComputeDistance(q, s)
		if dist > levenshteinLimit(len(s)) {
			continue
		}
		cands = append(cands, suggestion{species: s, dist: dist})
	}
	r.mu.RUnlock()

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].prefix != cands[j].prefix {
			return cands[i].prefix
		}
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].species < cands[j].species
	})
	if len(cands) > n {
		cands = cands[:n]
	}
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.species)
	}
	return out
}

func levenshteinLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
