package nfa

import (
	"github.com/coregx/nfavm/internal/bitset"
	"github.com/coregx/nfavm/internal/logging"
)

// Span is a half-open byte range [Lo, Hi) into a source string,
// typically a pattern text. Spans borrow the source: the pattern must
// outlive any trace rendering that uses them.
type Span struct {
	Src    string
	Lo, Hi int
}

// SpanOf returns a span covering all of s.
func SpanOf(s string) Span {
	return Span{Src: s, Hi: len(s)}
}

// Text returns the spanned substring, or "" for an empty or invalid span.
func (s Span) Text() string {
	if s.Lo < 0 || s.Hi > len(s.Src) || s.Lo >= s.Hi {
		return ""
	}
	return s.Src[s.Lo:s.Hi]
}

// Empty reports whether the span covers no bytes.
func (s Span) Empty() bool {
	return s.Lo >= s.Hi
}

// TraceInfo records the source span and pattern id that produced an
// instruction. It drives disassembly and match tracing.
type TraceInfo struct {
	Where Span
	Match int
}

// Program is a growable instruction array with per-instruction trace
// info, an entry-point set, and the capture/match counts needed to run
// it. The zero Program is not ready to use; call NewProgram.
type Program struct {
	insns   []Insn
	trace   []TraceInfo
	thrInit *bitset.Set

	numCaptures int
	numMatches  int
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{thrInit: bitset.New(0)}
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.insns)
}

// Insn returns instruction pc. The caller must ensure pc < Len().
func (p *Program) Insn(pc int) Insn {
	return p.insns[pc]
}

// Trace returns the trace info of instruction pc.
func (p *Program) Trace(pc int) TraceInfo {
	return p.trace[pc]
}

// Init returns the entry-point set: bit pc is set iff instruction pc is
// a thread start for a registered pattern.
func (p *Program) Init() *bitset.Set {
	return p.thrInit
}

// MarkInit marks instruction pc as an entry point.
func (p *Program) MarkInit(pc int) {
	p.thrInit.Insert(pc)
}

// NumCaptures returns the upper bound on capture indices referenced by
// any instruction.
func (p *Program) NumCaptures() int {
	return p.numCaptures
}

// SetNumCaptures sets the capture bound to n.
func (p *Program) SetNumCaptures(n int) {
	p.numCaptures = n
}

// NumMatches returns one past the largest registered pattern id.
func (p *Program) NumMatches() int {
	return p.numMatches
}

// NoteMatchID records a registered pattern id.
func (p *Program) NoteMatchID(id int) {
	if id+1 > p.numMatches {
		p.numMatches = id + 1
	}
}

// Put writes instruction slot i, growing the instruction array, the
// trace array, and the entry-point set in lockstep. Newly created slots
// are filled with MATCH(-1) and empty trace info. Put is the only
// mutator of the instruction array; growth never invalidates
// previously returned indices. Returns i.
func (p *Program) Put(i int, insn Insn) int {
	if i >= len(p.insns) {
		for len(p.insns) <= i {
			p.insns = append(p.insns, NewMatch(-1))
			p.trace = append(p.trace, TraceInfo{Match: -1})
		}
		p.thrInit.Grow(len(p.insns))
	}
	p.insns[i] = insn
	return i
}

// Append writes an instruction at the end of the program and returns
// its pc.
func (p *Program) Append(insn Insn) int {
	return p.Put(len(p.insns), insn)
}

// SetDebug attaches trace info to instruction i. An out-of-range i is
// reported as a bug and ignored.
func (p *Program) SetDebug(i int, where Span, match int) {
	if i < 0 || i >= len(p.insns) {
		logging.Bugf("invalid insn: %#x/%#x", i, len(p.insns))
		return
	}
	p.trace[i] = TraceInfo{Where: where, Match: match}
}

// Truncate rolls the program back to nInsns instructions and nCaptures
// captures. Used to undo a failed pattern registration; together with
// the snapshot taken before the registration it makes adding a pattern
// atomic.
func (p *Program) Truncate(nInsns, nCaptures int) {
	if nInsns < 0 || nInsns > len(p.insns) {
		logging.Bugf("invalid truncation: %#x/%#x", nInsns, len(p.insns))
		return
	}
	p.insns = p.insns[:nInsns]
	p.trace = p.trace[:nInsns]
	p.thrInit.RemoveFrom(nInsns)
	p.numCaptures = nCaptures
}

// Clone returns a deep copy of the program.
func (p *Program) Clone() *Program {
	dst := &Program{
		insns:       append([]Insn(nil), p.insns...),
		trace:       append([]TraceInfo(nil), p.trace...),
		thrInit:     p.thrInit.Clone(),
		numCaptures: p.numCaptures,
		numMatches:  p.numMatches,
	}
	return dst
}
