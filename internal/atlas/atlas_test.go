package atlas

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/appengine-ltd/wildmons/internal/parser"
	"github.com/appengine-ltd/wildmons/internal/source"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	ids     []string
	docs    map[string]string
	listErr error
	fetches atomic.Int32
}

func (f *fakeSource) List(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.ids, ctx.Err()
}

func (f *fakeSource) Fetch(ctx context.Context, id string) (string, error) {
	f.fetches.Add(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	doc, ok := f.docs[id]
	if !ok {
		return "", fmt.Errorf("%s: %w", id, source.ErrNotFound)
	}
	return doc, nil
}

func newFixture() *fakeSource {
	return &fakeSource{
		ids: []string{"Route1", "Route2", "Route3", "ViridianForest"},
		docs: map[string]string{
			"Route1":         "def_grass_wildmons 25\ndb 3, RATTATA\ndb 3, PIDGEY\nend_grass_wildmons\n",
			"Route2":         "def_grass_wildmons 15\ndb 3, PIDGEY\ndb 4, CATERPIE\nend_grass_wildmons\n",
			"ViridianForest": "def_grass_wildmons 8\ndb 4, WEEDLE\ndb 5, KAKUNA\ndb 3, PIKACHU\nend_grass_wildmons\n",
		},
	}
}

func newAtlas(src source.Source) *Atlas {
	return New(src, parser.New(parser.DefaultOptions(), nil), Options{Concurrency: 2, Suggestions: 3}, nil)
}

func TestLoadAllAccumulatesFailures(t *testing.T) {
	src := newFixture()
	res, err := newAtlas(src).LoadAll(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Maps, 3)
	assert.Equal(t, "Route1", res.Maps[0].MapID)
	assert.Equal(t, "Route2", res.Maps[1].MapID)
	assert.Equal(t, "ViridianForest", res.Maps[2].MapID)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "Route3", res.Failures[0].MapID)
	assert.ErrorIs(t, res.Failures[0].Err(), source.ErrNotFound)
	assert.EqualValues(t, 4, src.fetches.Load())
}

func TestLoadAllListFailure(t *testing.T) {
	src := &fakeSource{listErr: errors.New("index unavailable")}
	_, err := newAtlas(src).LoadAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index unavailable")
}

func TestLoadAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newAtlas(newFixture()).LoadAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadMap(t *testing.T) {
	a := newAtlas(newFixture())
	m, err := a.LoadMap(context.Background(), "ViridianForest")
	require.NoError(t, err)
	require.Len(t, m.Grass, 3)
	assert.Equal(t, 39, m.Grass[2].Rate)
	assert.Equal(t, 8, m.GrassDensity)

	_, err = a.LoadMap(context.Background(), "Route3")
	assert.ErrorIs(t, err, source.ErrNotFound)
}

func TestSearchSkipsFailedMaps(t *testing.T) {
	res, err := newAtlas(newFixture()).Search(context.Background(), "pidgey", parser.MatchExact)
	require.NoError(t, err)
	assert.True(t, res.AnyFound)
	assert.Equal(t, "PIDGEY", res.Query)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, 1, res.Matches[0].Grass[0].Ordinal)
	assert.Equal(t, 0, res.Matches[1].Grass[0].Ordinal)
	require.Len(t, res.Failures, 1)
	assert.Empty(t, res.Suggestions)
}

func TestSearchSuggestsOnMiss(t *testing.T) {
	res, err := newAtlas(newFixture()).Search(context.Background(), "PIKACHOO", parser.MatchExact)
	require.NoError(t, err)
	assert.False(t, res.AnyFound)
	assert.Empty(t, res.Matches)
	assert.Equal(t, []string{"PIKACHU"}, res.Suggestions)
}

func TestSearchEmptyQuery(t *testing.T) {
	_, err := newAtlas(newFixture()).Search(context.Background(), "  ", parser.MatchExact)
	assert.Error(t, err)
}
