package render

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/appengine-ltd/wildmons/internal/parser"
)

type DocFile struct {
	Name    string
	Title   string
	Content string
}

func MarkdownMap(m parser.MapEncounters) DocFile {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# %s\n\n", m.MapID))
	for _, h := range []parser.Habitat{parser.Grass, parser.Water} {
		records := m.Table(h)
		density := m.GrassDensity
		if h == parser.Water {
			density = m.WaterDensity
		}
		b.WriteString(fmt.Sprintf("## %s Encounters\n\n", h.Title()))
		if density >= 0 {
			b.WriteString(fmt.Sprintf("Encounter density: **%d**.\n\n", density))
		}
		if len(records) == 0 {
			b.WriteString(fmt.Sprintf("No %s encounters.\n\n", strings.ToLower(h.Title())))
			continue
		}
		b.WriteString("| Slot | Level | Species | Rate | Chance |\n")
		b.WriteString("| --- | --- | --- | --- | --- |\n")
		for _, r := range records {
			b.WriteString(fmt.Sprintf("| %d | %d | %s | %d | %s |\n",
				r.Ordinal+1, r.Level, escape(r.Species), r.Rate, FormatPercent(r.Percentage)))
		}
		b.WriteString("\n")
	}
	return DocFile{Name: m.MapID + ".md", Title: m.MapID, Content: b.String()}
}

func MarkdownIndex(files []DocFile) string {
	var b strings.Builder
	b.WriteString("# Wild Encounters\n\n")
	b.WriteString("Generated with `wildmons docs`.\n\n")
	for _, f := range files {
		b.WriteString(fmt.Sprintf("- [%s](./%s)\n", escape(f.Title), url.PathEscape(f.Name)))
	}
	return b.String()
}

func escape(v string) string {
	v = strings.TrimSpace(v)
	v = strings.ReplaceAll(v, "|", "\\|")
	v = strings.ReplaceAll(v, "\n", "<br>")
	return v
}
