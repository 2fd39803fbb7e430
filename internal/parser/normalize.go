package parser

import (
	"path"
	"regexp"
	"strings"
)

var delimiterRunRE = regexp.MustCompile(`[,\s]+`)

// NormaliseSpecies returns the comparison form of a species name.
func NormaliseSpecies(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func displaySpecies(raw string, c SpeciesCase) string {
	raw = strings.TrimSpace(raw)
	if c == CaseUpper {
		return strings.ToUpper(raw)
	}
	return raw
}

// MapID strips directories and the extension from a map file name.
func MapID(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

func stripComment(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		return s[:i]
	}
	return s
}

func splitTolerant(s string) []string {
	s = strings.TrimSpace(stripComment(s))
	if s == "" {
		return nil
	}
	fields := delimiterRunRE.Split(s, -1)
	out := fields[:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// directiveArgs reports whether line is a db directive and returns what
// follows the token. "dbw" and labels like "db_foo:" are not db lines.
func directiveArgs(line string) (string, bool) {
	if !strings.HasPrefix(line, "db") {
		return "", false
	}
	rest := line[2:]
	if rest == "" {
		return "", true
	}
	switch rest[0] {
	case ' ', '\t':
		return rest, true
	default:
		return "", false
	}
}
