package core

import (
	"errors"
	"fmt"
)

// Syntax errors. The parser wraps these in a *SyntaxError carrying the offset.
var (
	ErrUnexpectedToken    = errors.New("unexpected token")
	ErrUnterminatedString = errors.New("unterminated string")
	ErrUnterminatedStream = errors.New("unterminated stream")
	ErrTruncatedInput     = errors.New("truncated input")
	ErrMaxDepth           = errors.New("maximum nesting depth exceeded")
)

// Structural and lookup errors.
var (
	ErrInvalidHeader     = errors.New("missing %PDF- header")
	ErrNoTrailer         = errors.New("no trailer found")
	ErrObjectNotFound    = errors.New("object not found")
	ErrReferenceCycle    = errors.New("circular reference detected")
	ErrMissingRoot       = errors.New("trailer has no Root")
	ErrMissingPages      = errors.New("catalog has no Pages")
	ErrUnsupportedFilter = errors.New("unsupported filter")
)

// SyntaxError is returned when the lexer or parser rejects input.
type SyntaxError struct {
	Offset int64
	Msg    string
	Err    error
}

func (e *SyntaxError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("syntax error at offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("syntax error at offset %d: %v: %s", e.Offset, e.Err, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

func syntaxErr(offset int64, err error, format string, args ...any) *SyntaxError {
	return &SyntaxError{Offset: offset, Err: err, Msg: fmt.Sprintf(format, args...)}
}

// ReferenceError reports a reference that could not be followed.
type ReferenceError struct {
	ID  ObjectID
	Err error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("reference %d %d R: %v", e.ID.Number, e.ID.Generation, e.Err)
}

func (e *ReferenceError) Unwrap() error { return e.Err }

// StructuralError reports a document missing a structure an operation needs.
type StructuralError struct {
	Op  string
	Err error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StructuralError) Unwrap() error { return e.Err }
