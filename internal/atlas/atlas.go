// Package atlas fetches map documents from a Source and parses them. Multi-map
// operations collect per-map failures instead of aborting.
package atlas

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/appengine-ltd/wildmons/internal/parser"
	"github.com/appengine-ltd/wildmons/internal/source"
)

const DefaultConcurrency = 4

type Failure struct {
	MapID string `json:"mapId"`
	Error string `json:"error"`
	err   error
}

func (f Failure) Err() error { return f.err }

type Result struct {
	Maps     []parser.MapEncounters `json:"maps"`
	Failures []Failure              `json:"failures,omitempty"`
}

type SearchResult struct {
	parser.SearchResult
	Failures []Failure `json:"failures,omitempty"`
}

type Options struct {
	Concurrency int
	Suggestions int
}

type Atlas struct {
	src    source.Source
	parser *parser.Parser
	opts   Options
	log    *zap.Logger
}

func New(src source.Source, p *parser.Parser, opts Options, log *zap.Logger) *Atlas {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Suggestions < 0 {
		opts.Suggestions = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Atlas{src: src, parser: p, opts: opts, log: log}
}

func (a *Atlas) Parser() *parser.Parser { return a.parser }

func (a *Atlas) List(ctx context.Context) ([]string, error) {
	ids, err := a.src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}
	return ids, nil
}

func (a *Atlas) LoadMap(ctx context.Context, mapID string) (parser.MapEncounters, error) {
	doc, err := a.src.Fetch(ctx, mapID)
	if err != nil {
		return parser.MapEncounters{}, fmt.Errorf("fetch %s: %w", mapID, err)
	}
	return a.parser.Parse(mapID, doc), nil
}

// LoadAll fetches and parses every listed map. Only a listing failure or a
// cancelled ctx is returned as an error; per-map failures go in Result.
func (a *Atlas) LoadAll(ctx context.Context) (Result, error) {
	ids, err := a.List(ctx)
	if err != nil {
		return Result{}, err
	}

	maps := make([]parser.MapEncounters, len(ids))
	errs := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Concurrency)
	for i, id := range ids {
		g.Go(func() error {
			m, err := a.LoadMap(gctx, id)
			if err != nil {
				errs[i] = err
				return nil
			}
			maps[i] = m
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res := Result{Maps: make([]parser.MapEncounters, 0, len(ids))}
	for i, id := range ids {
		if errs[i] != nil {
			a.log.Warn("map load failed", zap.String("map", id), zap.Error(errs[i]))
			res.Failures = append(res.Failures, Failure{MapID: id, Error: errs[i].Error(), err: errs[i]})
			continue
		}
		res.Maps = append(res.Maps, maps[i])
	}
	a.log.Debug("maps loaded", zap.Int("ok", len(res.Maps)), zap.Int("failed", len(res.Failures)))
	return res, nil
}

// Search loads every map and filters them for species. When nothing
// matches, Suggestions lists close species names seen in the loaded maps.
func (a *Atlas) Search(ctx context.Context, species string, mode parser.MatchMode) (SearchResult, error) {
	if parser.NormaliseSpecies(species) == "" {
		return SearchResult{}, errors.New("search query is empty")
	}
	loaded, err := a.LoadAll(ctx)
	if err != nil {
		return SearchResult{}, err
	}
	res := SearchResult{
		SearchResult: parser.Search(species, loaded.Maps, mode),
		Failures:     loaded.Failures,
	}
	if !res.AnyFound && a.opts.Suggestions > 0 {
		reg := a.Registry(loaded.Maps)
		res.Suggestions = reg.Suggest(species, a.opts.Suggestions)
	}
	return res, nil
}

func (a *Atlas) Registry(maps []parser.MapEncounters) *parser.Registry {
	reg := parser.NewRegistry()
	for _, m := range maps {
		reg.AddMap(m)
	}
	return reg
}
