package parser

import (
	"strconv"
	"strings"
)

type scanState int

const (
	stateNone scanState = iota
	stateGrass
	stateWater
)

const (
	markerDefGrass = "def_grass_wildmons"
	markerDefWater = "def_water_wildmons"
	markerEndGrass = "end_grass_wildmons"
	markerEndWater = "end_water_wildmons"
)

func (s scanState) habitat() (Habitat, bool) {
	switch s {
	case stateGrass:
		return Grass, true
	case stateWater:
		return Water, true
	default:
		return "", false
	}
}

// classify applies the marker transitions to one trimmed line. marker is
// true when the line carried any wildmons marker and so holds no data.
func classify(state scanState, line string) (next scanState, marker bool) {
	switch {
	case strings.Contains(line, markerDefGrass):
		return stateGrass, true
	case strings.Contains(line, markerDefWater):
		return stateWater, true
	case strings.Contains(line, markerEndGrass), strings.Contains(line, markerEndWater):
		return stateNone, true
	default:
		return state, false
	}
}

// markerDensity reads the integer operand after a def marker, as in
// "def_grass_wildmons 25 ; encounter rate".
func markerDensity(line, marker string) int {
	i := strings.Index(line, marker)
	if i < 0 {
		return -1
	}
	fields := splitTolerant(line[i+len(marker):])
	if len(fields) == 0 {
		return -1
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return -1
	}
	return n
}
