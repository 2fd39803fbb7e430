package parser

import "strings"

// Search filters every map down to the records whose species matches query.
// Maps with no match are left out. Records keep their original ordinal,
// rate and percentage.
func Search(query string, maps []MapEncounters, mode MatchMode) SearchResult {
	q := NormaliseSpecies(query)
	if mode == "" {
		mode = MatchExact
	}
	res := SearchResult{Query: q, Mode: mode, Matches: []MapMatch{}}
	if q == "" {
		return res
	}
	for _, m := range maps {
		grass := filterRecords(m.Grass, q, mode)
		water := filterRecords(m.Water, q, mode)
		if len(grass) == 0 && len(water) == 0 {
			continue
		}
		res.Matches = append(res.Matches, MapMatch{MapID: m.MapID, Grass: grass, Water: water})
	}
	res.AnyFound = len(res.Matches) > 0
	return res
}

func filterRecords(records []Record, q string, mode MatchMode) []Record {
	out := []Record{}
	for _, rec := range records {
		if matchSpecies(rec.Key, q, mode) {
			out = append(out, rec)
		}
	}
	return out
}

func matchSpecies(key, q string, mode MatchMode) bool {
	if mode == MatchContains {
		return strings.Contains(key, q)
	}
	return key == q
}

func ValidMatchMode(m MatchMode) bool {
	return m == MatchExact || m == MatchContains
}
