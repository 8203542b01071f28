package nfa

import (
	"github.com/coregx/nfavm/internal/bitset"
	"github.com/coregx/nfavm/internal/logging"
)

// NoMatch is the id reported when no pattern accepted the input.
const NoMatch = -1

// Capture is a half-open byte range [Start, End) into the input that a
// parenthesized sub-pattern matched. -1 marks an unset position.
type Capture struct {
	Start, End int
}

// Match holds the result of a successful run: the winning pattern id,
// the pc of the MATCH instruction that fired, the winning thread's
// capture array, and the set of instructions the thread executed
// (which drives TraceMatch).
type Match struct {
	ID       int
	PC       int
	Captures []Capture
	Visited  *bitset.Set
}

// Bytes returns the input bytes of capture i, or nil if the capture is
// unset or out of range.
func (m *Match) Bytes(in []byte, i int) []byte {
	if i < 0 || i >= len(m.Captures) {
		return nil
	}
	c := m.Captures[i]
	if c.Start < 0 || c.End < 0 || c.Start > c.End || c.End > len(in) {
		return nil
	}
	return in[c.Start:c.End]
}

// thread is one logical execution state within the VM: a program
// counter, a capture array, a visited map, and the id of the pattern it
// matched (-1 until a MATCH fires).
type thread struct {
	pc       int
	id       int
	captures []Capture
	visited  *bitset.Set
}

// run is the shared state of one Program.Run call. The instruction and
// capture counts are snapshotted at start; this is defensive against a
// program being extended mid-run, not a concurrency guarantee.
type run struct {
	prog       *Program
	in         []byte
	curr, next []*thread
	mapCurr    *bitset.Set // pc needs to run on this byte, or already did
	mapNext    *bitset.Set // pc needs to run on the next byte

	nInsns    int
	nCaptures int

	pos     int // index of the byte being examined this step
	longest int // bytes consumed by the best match so far
	c       int // byte being examined, -1 at end of input
	cPrev   int // previous byte, -1 before the first
}

func (r *run) newThread(pc int) *thread {
	captures := make([]Capture, r.nCaptures)
	for i := range captures {
		captures[i] = Capture{Start: -1, End: -1}
	}
	return &thread{
		pc:       pc,
		id:       NoMatch,
		captures: captures,
		visited:  bitset.New(r.nInsns),
	}
}

// enqueue adds thr to the current or next generation. If some other
// thread already claimed the pc, thr is a duplicate and is dropped in
// favour of the first arrival.
func (r *run) enqueue(toNext bool, thr *thread) {
	m, q := r.mapCurr, &r.curr
	if toNext {
		m, q = r.mapNext, &r.next
	}
	if m.Contains(thr.pc) {
		return
	}
	m.Insert(thr.pc)
	*q = append(*q, thr)
}

// threadStep runs thr until it consumes the current byte, matches, or
// dies. Zero-width instructions execute in a loop deduplicated against
// mapCurr: at most one thread runs per pc per byte, which bounds the
// work per byte by the program length. Returns the matched pattern id,
// or NoMatch, or ErrBug on a fatal decode failure.
func (r *run) threadStep(thr *thread) (int, error) {
	for {
		if thr.pc >= r.nInsns {
			logging.Bugf("invalid pc: %#x/%#x", thr.pc, r.nInsns)
			return NoMatch, ErrBug
		}
		if r.mapCurr.Contains(thr.pc) {
			// Duplicate; the first arrival wins.
			return NoMatch, nil
		}
		r.mapCurr.Insert(thr.pc)

		pcCurr := thr.pc
		insn := r.prog.insns[thr.pc]
		thr.pc++

		switch insn.Op() {
		case OpRange:
			lo, hi := insn.Range()
			if r.c < 0 {
				return NoMatch, nil
			}
			if r.c < int(lo) || int(hi) < r.c {
				return NoMatch, nil
			}
			thr.visited.Insert(pcCurr)
			r.enqueue(true, thr)
			return NoMatch, nil

		case OpClass:
			neg, frontier, cc := insn.Class()
			match := cc.Match(neg, r.c)
			// Frontier: the previous byte must not have matched.
			if frontier && match {
				match = !cc.Match(neg, r.cPrev)
			}
			if !match {
				return NoMatch, nil
			}
			thr.visited.Insert(pcCurr)
			if frontier {
				// Frontiers don't consume anything.
				continue
			}
			r.enqueue(true, thr)
			return NoMatch, nil

		case OpCapture:
			end, idx := insn.Capture()
			if idx >= r.nCaptures {
				logging.Bugf("invalid capture: %#x/%#x", idx, r.nCaptures)
				return NoMatch, ErrBug
			}
			if end {
				thr.captures[idx].End = r.pos
			} else {
				thr.captures[idx].Start = r.pos
			}

		case OpMatch:
			// The MATCH instruction itself is not marked as visited.
			r.longest = r.pos
			thr.id = insn.MatchID()
			return thr.id, nil

		case OpJmp:
			target := insn.PC()
			if target >= r.nInsns {
				logging.Bugf("invalid pc: %#x/%#x", target, r.nInsns)
				return NoMatch, ErrBug
			}
			thr.pc = target

		case OpFork:
			target := insn.PC()
			if target >= r.nInsns {
				logging.Bugf("invalid pc: %#x/%#x", target, r.nInsns)
				return NoMatch, ErrBug
			}
			child := &thread{
				pc:       target,
				id:       NoMatch,
				captures: append([]Capture(nil), thr.captures...),
				visited:  thr.visited.Clone(),
			}
			child.visited.Insert(pcCurr)
			r.enqueue(false, child)

		default:
			logging.Bugf("invalid op: %#x", uint8(insn.Op()))
			return NoMatch, ErrBug
		}

		thr.visited.Insert(pcCurr)
	}
}

// step advances every thread of the current generation over the
// current byte. Forked children are appended to the current queue and
// processed within the same step. Returns the last thread that matched
// during the step, if any; later matches replace earlier ones.
func (r *run) step() (*thread, int, error) {
	id := NoMatch
	var best *thread
	for i := 0; i < len(r.curr); i++ {
		thr := r.curr[i]
		r.curr[i] = nil

		// Stop blocking this pc: the queued thread sitting on it is now
		// being run, and its continuation may re-enter it.
		r.mapCurr.Remove(thr.pc)

		rc, err := r.threadStep(thr)
		if err != nil {
			return nil, NoMatch, err
		}
		if rc >= 0 {
			best = thr
			id = rc
		}
	}
	return best, id, nil
}

// Run executes the program against in. All live threads advance in
// lockstep, one input byte per step. It returns the id of the winning
// pattern and the number of bytes consumed by the longest accepted
// match, or (NoMatch, 0) if no pattern accepted. A non-nil error
// reports a fatal decode failure (ErrBug); the program is never
// mutated. If m is non-nil it receives the winning thread's captures
// and visited set.
func (p *Program) Run(in []byte, m *Match) (int, int, error) {
	r := &run{
		prog:      p,
		in:        in,
		nInsns:    len(p.insns),
		nCaptures: p.numCaptures,
		mapCurr:   bitset.New(len(p.insns)),
		mapNext:   bitset.New(len(p.insns)),
		cPrev:     -1,
	}

	for pc := 0; pc < r.nInsns; pc++ {
		if !p.thrInit.Contains(pc) {
			continue
		}
		logging.Debugf(3, "init thread @ %#x", pc)
		r.enqueue(true, r.newThread(pc))
	}

	rc := NoMatch
	var matched *thread

	for {
		// Move next => curr and clear next; halt when nothing is live.
		r.mapCurr, r.mapNext = r.mapNext, r.mapCurr
		r.mapNext.Clear()
		r.curr, r.next = r.next, r.curr[:0]
		if !r.mapCurr.Any() {
			break
		}

		if r.pos < len(r.in) {
			r.c = int(r.in[r.pos])
		} else {
			r.c = -1
		}

		best, id, err := r.step()
		if err != nil {
			return NoMatch, 0, err
		}
		if id >= 0 {
			matched = best
			rc = id
		}

		if r.c < 0 {
			break
		}
		r.cPrev = r.c
		r.pos++
	}

	if m != nil {
		*m = Match{ID: rc, PC: -1}
		if matched != nil {
			*m = Match{
				ID:       rc,
				PC:       matched.pc - 1,
				Captures: matched.captures,
				Visited:  matched.visited,
			}
		}
	}
	if rc >= 0 {
		return rc, r.longest, nil
	}
	return NoMatch, 0, nil
}
