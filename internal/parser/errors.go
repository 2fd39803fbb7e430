package parser

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedLevel   = errors.New("malformed level")
	ErrMalformedSpecies = errors.New("malformed species")
)

type ErrorKind string

const (
	MalformedLevel   ErrorKind = "malformed_level"
	MalformedSpecies ErrorKind = "malformed_species"
)

// ParseError describes one skipped db line. It is recoverable: the parser
// records it and moves on to the next line.
type ParseError struct {
	Line    int       `json:"line"`
	Kind    ErrorKind `json:"kind"`
	Habitat Habitat   `json:"habitat"`
	Text    string    `json:"text"`
	Detail  string    `json:"detail,omitempty"`
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("line %d: %s in %s table: %q", e.Line, e.Kind, e.Habitat, e.Text)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	switch e.Kind {
	case MalformedLevel:
		return ErrMalformedLevel
	case MalformedSpecies:
		return ErrMalformedSpecies
	default:
		return nil
	}
}
