package parser

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a ParseError.
type ErrorKind int

const (
	MissingFeature ErrorKind = iota + 1
	UnexpectedStructure
	UnterminatedDocString
	MalformedTableRow
)

func (k ErrorKind) String() string {
	switch k {
	case MissingFeature:
		return "missing feature"
	case UnexpectedStructure:
		return "unexpected structure"
	case UnterminatedDocString:
		return "unterminated doc string"
	case MalformedTableRow:
		return "malformed table row"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. A *ParseError matches the sentinel of its Kind.
var (
	ErrMissingFeature        = errors.New("missing feature")
	ErrUnexpectedStructure   = errors.New("unexpected structure")
	ErrUnterminatedDocString = errors.New("unterminated doc string")
	ErrMalformedTableRow     = errors.New("malformed table row")
)

// ParseError reports the first structural problem found in a document.
type ParseError struct {
	Kind     ErrorKind
	Line     int
	Expected string
	Found    string
}

func (e *ParseError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Kind, e.Found)
	}
	return fmt.Sprintf("line %d: %s: expected %s, got %s", e.Line, e.Kind, e.Expected, e.Found)
}

func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrMissingFeature:
		return e.Kind == MissingFeature
	case ErrUnexpectedStructure:
		return e.Kind == UnexpectedStructure
	case ErrUnterminatedDocString:
		return e.Kind == UnterminatedDocString
	case ErrMalformedTableRow:
		return e.Kind == MalformedTableRow
	}
	return false
}

func unexpected(line int, expected, found string) *ParseError {
	return &ParseError{Kind: UnexpectedStructure, Line: line, Expected: expected, Found: found}
}
