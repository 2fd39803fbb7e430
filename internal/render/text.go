package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/appengine-ltd/wildmons/internal/atlas"
	"github.com/appengine-ltd/wildmons/internal/parser"
)

func FormatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64) + "%"
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

// Text writes one map as plain text:
//
//	Map: Route1
//	Grass Encounters
//	  Level  3 - RATTATA  (19.92%)
func Text(w io.Writer, m parser.MapEncounters) error {
	ew := &errWriter{w: w}
	ew.printf("Map: %s\n", m.MapID)
	writeHabitat(ew, parser.Grass, m.Grass, m.GrassDensity, true)
	writeHabitat(ew, parser.Water, m.Water, m.WaterDensity, true)
	if len(m.Diagnostics) > 0 {
		ew.printf("\nSkipped %d malformed line(s):\n", len(m.Diagnostics))
		for _, d := range m.Diagnostics {
			ew.printf("  %s\n", d.Error())
		}
	}
	return ew.err
}

func writeHabitat(ew *errWriter, h parser.Habitat, records []parser.Record, density int, showEmpty bool) {
	if len(records) == 0 && !showEmpty {
		return
	}
	if density >= 0 {
		ew.printf("%s Encounters (density %d)\n", h.Title(), density)
	} else {
		ew.printf("%s Encounters\n", h.Title())
	}
	if len(records) == 0 {
		ew.printf("  No %s encounters found.\n", strings.ToLower(h.Title()))
		return
	}
	levelW, speciesW := 0, 0
	for _, r := range records {
		levelW = max(levelW, len(strconv.Itoa(r.Level)))
		speciesW = max(speciesW, runewidth.StringWidth(r.Species))
	}
	for _, r := range records {
		ew.printf("  Level %*d - %s (%s)\n",
			levelW, r.Level,
			runewidth.FillRight(r.Species, speciesW),
			FormatPercent(r.Percentage),
		)
	}
}

func SearchText(w io.Writer, res atlas.SearchResult) error {
	ew := &errWriter{w: w}
	ew.printf("Search Results for: %s\n", res.Query)
	for _, m := range res.Matches {
		ew.printf("\nMap: %s\n", m.MapID)
		writeHabitat(ew, parser.Grass, m.Grass, -1, false)
		writeHabitat(ew, parser.Water, m.Water, -1, false)
	}
	if !res.AnyFound {
		ew.printf("\nNo species found matching %q.\n", res.Query)
		if len(res.Suggestions) > 0 {
			ew.printf("Did you mean: %s?\n", strings.Join(res.Suggestions, ", "))
		}
	}
	writeFailures(ew, res.Failures)
	return ew.err
}

func writeFailures(ew *errWriter, failures []atlas.Failure) {
	if len(failures) == 0 {
		return
	}
	ew.printf("\n%d map(s) could not be loaded:\n", len(failures))
	for _, f := range failures {
		ew.printf("  %s: %s\n", f.MapID, f.Error)
	}
}

func ListText(w io.Writer, ids []string) error {
	ew := &errWriter{w: w}
	for _, id := range ids {
		ew.printf("%s\n", id)
	}
	return ew.err
}
