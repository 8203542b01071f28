// Package nfavm is a multi-pattern regular expression engine built on a
// bytecode NFA.
//
// Patterns — full regular expressions or literal strings — are compiled
// incrementally into one shared program. A run executes every pattern
// in parallel against the input and reports the id of the longest
// accepted match, advancing a caller-owned cursor, together with
// capture groups and an execution trace.
//
// Basic usage:
//
//	set := nfavm.New()
//	set.AddRegex(`[0-9]+`, 1, "")
//	set.AddRegex(`[a-z]+`, 2, "")
//	set.Optimize()
//
//	in := []byte("hello123")
//	pos := 0
//	id, err := set.Run(in, &pos, nil)
//	// id == 2, pos == 5
//
// Matching is anchored at the cursor; the longest accepted prefix wins.
// Adding a pattern is atomic: on error the program is unchanged.
package nfavm

import (
	"github.com/coregx/ahocorasick"
	"github.com/pkg/errors"

	"github.com/coregx/nfavm/internal/bitset"
	"github.com/coregx/nfavm/nfa"
	"github.com/coregx/nfavm/regex"
)

// Set is a growable collection of patterns compiled into one program.
// A Set is not safe for concurrent mutation; see Program for the
// snapshot behaviour of a run.
type Set struct {
	prog *nfa.Program

	// literals collects AddString patterns for the prefilter.
	literals [][]byte
	regexes  int

	// prefilter gates runs when the whole program is literal: if no
	// literal occurs at the cursor, the VM cannot match and is skipped.
	prefilter *ahocorasick.Automaton
}

// New returns an empty pattern set.
func New() *Set {
	return &Set{prog: nfa.NewProgram()}
}

// Program exposes the underlying NFA program.
func (s *Set) Program() *nfa.Program {
	return s.prog
}

// AddRegex compiles pattern as a regular expression under the given
// match id (negative means "assign next") and flag text, returning the
// assigned id. On failure the program is left unchanged.
func (s *Set) AddRegex(pattern string, id int, flags string) (int, error) {
	id, err := regex.AddRegex(s.prog, pattern, id, flags)
	if err != nil {
		return id, errors.Wrapf(err, "pattern %q", pattern)
	}
	s.regexes++
	s.prefilter = nil
	return id, nil
}

// AddString compiles pattern as a literal byte sequence. Same contract
// as AddRegex.
func (s *Set) AddString(pattern string, id int, flags string) (int, error) {
	id, err := regex.AddString(s.prog, pattern, id, flags)
	if err != nil {
		return id, errors.Wrapf(err, "literal %q", pattern)
	}
	s.literals = append(s.literals, []byte(pattern))
	s.prefilter = nil
	return id, nil
}

// Optimize optimizes the program (jump threading, initial fork
// splitting, reachability flagging) and, when every registered pattern
// is a non-empty literal, builds an Aho-Corasick prefilter over them.
// Call it after all patterns have been added.
func (s *Set) Optimize() {
	s.prog.Optimize()
	s.prefilter = s.buildPrefilter()
}

func (s *Set) buildPrefilter() *ahocorasick.Automaton {
	if s.regexes > 0 || len(s.literals) == 0 {
		return nil
	}
	builder := ahocorasick.NewBuilder()
	for _, lit := range s.literals {
		if len(lit) == 0 {
			// An empty literal matches everywhere; nothing to gate.
			return nil
		}
		builder.AddPattern(lit)
	}
	auto, err := builder.Build()
	if err != nil {
		// Fall back to the plain VM.
		return nil
	}
	return auto
}

// Run executes the program against in starting at *pos. On a match it
// returns the winning pattern id and advances *pos to the end of the
// longest match; on no match it returns nfa.NoMatch and leaves *pos
// unchanged. A non-nil error reports a fatal VM failure (nfa.ErrBug),
// which is distinct from "no match". pos may be nil (run from 0); m,
// if non-nil, receives the winning thread's captures and visited set,
// with capture offsets relative to in[*pos:].
func (s *Set) Run(in []byte, pos *int, m *nfa.Match) (int, error) {
	start := 0
	if pos != nil {
		start = *pos
	}
	if start < 0 || start > len(in) {
		return nfa.NoMatch, errors.Errorf("cursor out of range: %d/%d", start, len(in))
	}
	hay := in[start:]

	if s.prefilter != nil && len(hay) > 0 {
		if occ := s.prefilter.Find(hay, 0); occ == nil || occ.Start != 0 {
			if m != nil {
				*m = nfa.Match{ID: nfa.NoMatch, PC: -1}
			}
			return nfa.NoMatch, nil
		}
	}

	id, n, err := s.prog.Run(hay, m)
	if err != nil {
		return id, errors.Wrap(err, "nfa run")
	}
	if id >= 0 && pos != nil {
		*pos = start + n
	}
	return id, nil
}

// Disassemble renders the program as annotated text, optionally
// highlighting the pcs in marks (for example a match's visited set).
func (s *Set) Disassemble(marks *bitset.Set) string {
	return s.prog.Disassemble(marks)
}
