package parser

import "testing"

func searchFixture() []MapEncounters {
	p := New(DefaultOptions(), nil)
	return []MapEncounters{
		p.Parse("Route1", "def_grass_wildmons 25\ndb 3, RATTATA\ndb 3, PIDGEY\nend_grass_wildmons\n"),
		p.Parse("Route2", "def_grass_wildmons 15\ndb 3, PIDGEY\ndb 4, CATERPIE\nend_grass_wildmons\n"),
		p.Parse("Route4", "def_grass_wildmons 20\ndb 10, EKANS\ndb 8, RATICATE\nend_grass_wildmons\ndef_water_wildmons 5\ndb 15, RATTATA\nend_water_wildmons\n"),
	}
}

func TestSearchSingleMapMatch(t *testing.T) {
	p := New(DefaultOptions(), nil)
	maps := []MapEncounters{
		p.Parse("Route1", "def_grass_wildmons\ndb 3, RATTATA\nend_grass_wildmons\n"),
		p.Parse("Route2", "def_grass_wildmons\ndb 3, PIDGEY\nend_grass_wildmons\n"),
	}
	res := Search("RATTATA", maps, MatchExact)
	if !res.AnyFound || len(res.Matches) != 1 {
		t.Fatalf("expected exactly one map, got %+v", res)
	}
	m := res.Matches[0]
	if m.MapID != "Route1" || len(m.Grass) != 1 || len(m.Water) != 0 {
		t.Fatalf("match = %+v", m)
	}
	if m.Grass[0].Ordinal != 0 || m.Grass[0].Rate != 51 {
		t.Fatalf("record lost its slot data: %+v", m.Grass[0])
	}
}

func TestSearchKeepsOriginalOrdinals(t *testing.T) {
	res := Search("  pidgey ", searchFixture(), MatchExact)
	if res.Query != "PIDGEY" {
		t.Fatalf("query not normalised: %q", res.Query)
	}
	if len(res.Matches) != 2 {
		t.Fatalf("expected Route1 and Route2, got %+v", res.Matches)
	}
	if res.Matches[0].Grass[0].Ordinal != 1 || res.Matches[1].Grass[0].Ordinal != 0 {
		t.Fatalf("ordinals rewritten: %+v", res.Matches)
	}
}

func TestSearchAcrossHabitats(t *testing.T) {
	res := Search("RATTATA", searchFixture(), MatchExact)
	if len(res.Matches) != 2 {
		t.Fatalf("matches = %+v", res.Matches)
	}
	route4 := res.Matches[1]
	if route4.MapID != "Route4" || len(route4.Grass) != 0 || len(route4.Water) != 1 {
		t.Fatalf("Route4 match = %+v", route4)
	}
}

func TestSearchExactAvoidsSubstringCollisions(t *testing.T) {
	exact := Search("RAT", searchFixture(), MatchExact)
	if exact.AnyFound {
		t.Fatalf("exact search should not match RAT: %+v", exact)
	}
	contains := Search("RAT", searchFixture(), MatchContains)
	if !contains.AnyFound || len(contains.Matches) != 2 {
		t.Fatalf("contains search = %+v", contains)
	}
	if len(contains.Matches[1].Grass) != 1 || contains.Matches[1].Grass[0].Key != "RATICATE" {
		t.Fatalf("Route4 contains match = %+v", contains.Matches[1])
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	res := Search("   ", searchFixture(), "")
	if res.AnyFound || len(res.Matches) != 0 || res.Mode != MatchExact {
		t.Fatalf("empty query result = %+v", res)
	}
}
