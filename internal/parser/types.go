package parser

type Habitat string

const (
	Grass Habitat = "grass"
	Water Habitat = "water"
)

func (h Habitat) Title() string {
	switch h {
	case Grass:
		return "Grass"
	case Water:
		return "Water"
	default:
		return string(h)
	}
}

// Record is one encounter slot. Records are never mutated after Parse
// returns them.
type Record struct {
	Level      int     `json:"level"`
	Species    string  `json:"species"`
	Key        string  `json:"key"`
	Ordinal    int     `json:"ordinal"`
	Rate       int     `json:"rate"`
	Percentage float64 `json:"percentage"`
}

type MapEncounters struct {
	MapID string   `json:"mapId"`
	Grass []Record `json:"grass"`
	Water []Record `json:"water"`
	// Densities hold the number written after each def_*_wildmons
	// marker, or -1 when the table or the number is absent.
	GrassDensity int           `json:"grassDensity"`
	WaterDensity int           `json:"waterDensity"`
	Diagnostics  []*ParseError `json:"diagnostics,omitempty"`
}

func (m MapEncounters) Table(h Habitat) []Record {
	if h == Water {
		return m.Water
	}
	return m.Grass
}

func (m MapEncounters) Empty() bool {
	return len(m.Grass) == 0 && len(m.Water) == 0
}

type SpeciesCase string

const (
	CasePreserve SpeciesCase = "preserve"
	CaseUpper    SpeciesCase = "upper"
)

type DelimiterPolicy string

const (
	DelimTolerant DelimiterPolicy = "tolerant"
	DelimStrict   DelimiterPolicy = "strict"
)

type MatchMode string

const (
	MatchExact    MatchMode = "exact"
	MatchContains MatchMode = "contains"
)

type Options struct {
	Rates       RateTable
	SpeciesCase SpeciesCase
	Delimiters  DelimiterPolicy
}

func DefaultOptions() Options {
	return Options{
		Rates:       DefaultRateTable(),
		SpeciesCase: CasePreserve,
		Delimiters:  DelimTolerant,
	}
}

type MapMatch struct {
	MapID string   `json:"mapId"`
	Grass []Record `json:"grass"`
	Water []Record `json:"water"`
}

type SearchResult struct {
	Query       string     `json:"query"`
	Mode        MatchMode  `json:"mode"`
	Matches     []MapMatch `json:"matches"`
	AnyFound    bool       `json:"anyFound"`
	Suggestions []string   `json:"suggestions,omitempty"`
}
