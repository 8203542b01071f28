// Package regex parses pattern text into an AST and lowers it to NFA
// bytecode.
//
// Two front ends share the compiler: AddRegex parses the full regex
// grammar (character classes, bracket expressions, bounded repetition,
// alternation, grouping and capture, escapes, POSIX named classes,
// frontiers, per-group flag adjustment) and AddString compiles a plain
// byte sequence. Both register atomically: on failure the target
// program is rolled back to its pre-call state.
package regex

import (
	"errors"
	"fmt"
)

// Error categories. Every compile failure unwraps to one of these.
var (
	// ErrParse indicates malformed pattern syntax: an unmatched bracket
	// or paren, garbage after the flags, garbage after the pattern.
	ErrParse = errors.New("regex: parse error")

	// ErrSemantic indicates a well-formed but meaningless construct:
	// min > max in a bound, an inverted byte range.
	ErrSemantic = errors.New("regex: semantic error")

	// ErrNotImplemented indicates syntax that is recognized but not
	// compiled, such as reluctant repetition.
	ErrNotImplemented = errors.New("regex: not implemented")
)

// Error is a positioned compile error. Pos is a byte offset into the
// pattern text.
type Error struct {
	Kind error
	Pos  int
	Msg  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%v at offset %d: %s", e.Kind, e.Pos, e.Msg)
}

// Unwrap returns the error category, so errors.Is(err, ErrParse) and
// friends work through wrapping.
func (e *Error) Unwrap() error {
	return e.Kind
}

func parseErrf(pos int, format string, args ...interface{}) error {
	return &Error{Kind: ErrParse, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func semanticErrf(pos int, format string, args ...interface{}) error {
	return &Error{Kind: ErrSemantic, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func nyiErrf(pos int, format string, args ...interface{}) error {
	return &Error{Kind: ErrNotImplemented, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
