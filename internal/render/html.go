package render

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"strings"

	"github.com/appengine-ltd/wildmons/internal/atlas"
	"github.com/appengine-ltd/wildmons/internal/parser"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTmpl = template.Must(template.New("page.html.tmpl").Funcs(template.FuncMap{
	"percent": FormatPercent,
	"lower":   strings.ToLower,
	"dict":    dict,
}).ParseFS(templateFS, "templates/page.html.tmpl"))

type Page struct {
	Maps     []string
	Selected string
	Query    string
	Map      *parser.MapEncounters
	Search   *atlas.SearchResult
	Error    string
}

func HTML(w io.Writer, p Page) error {
	return pageTmpl.Execute(w, p)
}

func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("dict needs key/value pairs")
	}
	out := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			return nil, errors.New("dict keys must be strings")
		}
		out[key] = kv[i+1]
	}
	return out, nil
}
