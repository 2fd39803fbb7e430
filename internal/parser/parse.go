package parser

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	minLevel = 1
	maxLevel = 100
)

// Parser extracts wild encounter tables from map sources. It holds only
// read-only options, so one Parser may serve concurrent callers.
type Parser struct {
	opts Options
	log  *zap.Logger
}

func New(opts Options, log *zap.Logger) *Parser {
	if len(opts.Rates.Weights) == 0 {
		opts.Rates = DefaultRateTable()
	}
	if opts.SpeciesCase == "" {
		opts.SpeciesCase = CasePreserve
	}
	if opts.Delimiters == "" {
		opts.Delimiters = DelimTolerant
	}
	if log == nil {
		log = zap.NewNop()
	}
	if !opts.Rates.Balanced() {
		log.Warn("rate total differs from the weight sum; slot percentages will not add up to 100",
			zap.Int("total", opts.Rates.Divisor()),
			zap.Int("sum", opts.Rates.Sum()),
		)
	}
	return &Parser{opts: opts, log: log}
}

func (p *Parser) Options() Options { return p.opts }

func (p *Parser) Rates() RateTable { return p.opts.Rates }

// Parse scans text in a single pass. Malformed db lines are skipped and
// reported in Diagnostics; Parse itself never fails.
func (p *Parser) Parse(mapID, text string) MapEncounters {
	out := MapEncounters{
		MapID:        mapID,
		Grass:        []Record{},
		Water:        []Record{},
		GrassDensity: -1,
		WaterDensity: -1,
	}

	state := stateNone
	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		next, marker := classify(state, line)
		if marker {
			switch next {
			case stateGrass:
				out.GrassDensity = markerDensity(line, markerDefGrass)
			case stateWater:
				out.WaterDensity = markerDensity(line, markerDefWater)
			}
			state = next
			continue
		}

		habitat, ok := state.habitat()
		if !ok {
			continue
		}
		args, isDB := directiveArgs(line)
		if !isDB {
			continue
		}

		level, species, perr := p.extract(args)
		if perr != nil {
			perr.Line = lineNo
			perr.Habitat = habitat
			perr.Text = line
			out.Diagnostics = append(out.Diagnostics, perr)
			p.log.Warn("skipping malformed encounter line",
				zap.String("map", mapID),
				zap.Int("line", lineNo),
				zap.String("kind", string(perr.Kind)),
				zap.String("text", line),
			)
			continue
		}

		table := &out.Grass
		if habitat == Water {
			table = &out.Water
		}
		ordinal := len(*table)
		*table = append(*table, Record{
			Level:      level,
			Species:    displaySpecies(species, p.opts.SpeciesCase),
			Key:        NormaliseSpecies(species),
			Ordinal:    ordinal,
			Rate:       p.opts.Rates.Rate(ordinal),
			Percentage: p.opts.Rates.Percentage(ordinal),
		})
	}
	return out
}

func (p *Parser) extract(args string) (int, string, *ParseError) {
	var levelField, species string
	if p.opts.Delimiters == DelimStrict {
		parts := strings.Split(args, ",")
		if tokens := strings.Fields(parts[0]); len(tokens) > 0 {
			levelField = tokens[0]
		}
		if len(parts) > 1 {
			species = strings.TrimSpace(stripComment(parts[1]))
		}
	} else {
		fields := splitTolerant(args)
		if len(fields) > 0 {
			levelField = fields[0]
		}
		if len(fields) > 1 {
			species = fields[1]
		}
	}

	if levelField == "" {
		return 0, "", &ParseError{Kind: MalformedLevel, Detail: "missing level"}
	}
	level, err := strconv.Atoi(levelField)
	if err != nil {
		return 0, "", &ParseError{Kind: MalformedLevel, Detail: "level is not a number"}
	}
	if level < minLevel || level > maxLevel {
		return 0, "", &ParseError{Kind: MalformedLevel, Detail: "level out of range 1-100"}
	}
	if species == "" {
		return 0, "", &ParseError{Kind: MalformedSpecies, Detail: "missing species"}
	}
	return level, species, nil
}
