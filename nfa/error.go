// Package nfa implements the bytecode program and execution engine of a
// multi-pattern NFA.
//
// A Program is a flat array of 32-bit tagged instructions produced by
// the regex compiler. The VM executes all patterns of a program in
// lockstep over the input, one byte at a time, and reports the longest
// accepted match together with capture groups and the set of
// instructions the winning thread executed.
package nfa

import "errors"

// Common engine errors.
var (
	// ErrBug indicates a fatal invariant violation observed at run time:
	// an invalid opcode, an out-of-range program counter, or an
	// out-of-range capture index. It is always distinct from "no match",
	// which is a normal result reported as the NoMatch id.
	ErrBug = errors.New("nfa: vm invariant violation")
)
