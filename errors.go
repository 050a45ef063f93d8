package slip

import (
	"errors"
	"fmt"
	"io"
)

// A LexError reports a malformed token, escape, or delimiter encountered
// while reading. Reader errors abort only the top-level form being read.
type LexError struct {
	Pos Position
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%v: %s", e.Pos, e.Msg)
}

func lexErrorf(pos Position, format string, args ...interface{}) error {
	return &LexError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// A PrematureEOF is the distinguished recoverable lex failure: input ended
// in the middle of a form. Interactive callers detect it with
// IsPrematureEOF and supply more text instead of failing.
type PrematureEOF struct {
	Pos Position
	// Inside describes the construct left open, e.g. "expression" or
	// "string".
	Inside string
}

func (e *PrematureEOF) Error() string {
	return fmt.Sprintf("%v: premature end of input in %s", e.Pos, e.Inside)
}

// Unwrap makes a PrematureEOF match io.ErrUnexpectedEOF with errors.Is.
func (e *PrematureEOF) Unwrap() error {
	return io.ErrUnexpectedEOF
}

// IsPrematureEOF reports whether err means input ended mid-form and the
// caller may recover by supplying more text.
func IsPrematureEOF(err error) bool {
	var p *PrematureEOF
	return errors.As(err, &p)
}

// A SyntaxError reports a structurally invalid finished form, such as a
// dict literal with an odd number of items.
type SyntaxError struct {
	Pos Position
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v: %s", e.Pos, e.Msg)
}

func syntaxErrorf(pos Position, format string, args ...interface{}) error {
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// A MacroError wraps an error raised by macro code, annotated with the
// macro's name and the call-site position.
type MacroError struct {
	Macro string
	Pos   Position
	Err   error
}

func (e *MacroError) Error() string {
	return fmt.Sprintf("%v: in expansion of %s: %v", e.Pos, e.Macro, e.Err)
}

func (e *MacroError) Unwrap() error {
	return e.Err
}

// A MangleError indicates the mangler failed to produce a host-legal
// identifier. Mangling is total, so surfacing one is an implementation bug.
type MangleError struct {
	Name   string
	Result string
}

func (e *MangleError) Error() string {
	return fmt.Sprintf("internal error: mangling %q produced illegal identifier %q", e.Name, e.Result)
}
