package regex

import (
	"unicode/utf8"

	"github.com/coregx/nfavm/internal/logging"
	"github.com/coregx/nfavm/nfa"
)

// expensiveRepeat is the unrolled-instruction threshold above which a
// repetition draws a warning.
const expensiveRepeat = 10000

// setDebug attaches a source span to an instruction, unless the debug
// flag is off, in which case only the match id is recorded.
func (ctx *context) setDebug(i int, where nfa.Span) {
	if ctx.flags&FlagDebug == 0 {
		where = nfa.Span{}
	}
	ctx.prog.SetDebug(i, where, ctx.matchID)
}

// compileNode lowers node and its children, appending instructions to
// the program. Returns the entry pc of the emitted code.
func (ctx *context) compileNode(node *Node) (int, error) {
	p := ctx.prog
	entry := p.Len()

	if node == nil {
		return entry, nil
	}

	switch node.Type {
	case NodeRange:
		rg := node.Range
		if rg.Max >= 0x100 {
			logging.Bugf("invalid byte range: %#x-%#x", rg.Min, rg.Max)
		}
		op := p.Append(nfa.NewRange(rg.Min, rg.Max))
		ctx.setDebug(op, node.Text)

	case NodeAtom:
		var buf [utf8.UTFMax]byte
		n := utf8.EncodeRune(buf[:], node.Atom.R)
		for _, b := range buf[:n] {
			op := p.Append(nfa.NewChar(rune(b)))
			ctx.setDebug(op, node.Text)
		}

	case NodeClass:
		cl := node.Class
		op := p.Append(nfa.NewClass(cl.Neg, cl.Frontier, cl.CClass))
		ctx.setDebug(op, node.Text)

	case NodeRepeat:
		return entry, ctx.compileRepeat(node)

	case NodeCapture:
		idx := node.Capture
		c0 := p.Append(nfa.NewCapture(false, idx))
		ctx.setDebug(c0, nfa.Span{Src: node.Text.Src, Lo: node.Text.Lo, Hi: node.Text.Lo + 1})
		if _, err := ctx.compileNode(node.Children[0]); err != nil {
			return entry, err
		}
		c1 := p.Append(nfa.NewCapture(true, idx))
		ctx.setDebug(c1, nfa.Span{Src: node.Text.Src, Lo: node.Text.Hi - 1, Hi: node.Text.Hi})

	case NodeBranch:
		for _, child := range node.Children {
			if _, err := ctx.compileNode(child); err != nil {
				return entry, err
			}
		}

	case NodeAlternation:
		return entry, ctx.compileAlternates(node.Children, node.Text)

	case NodeBrackets:
		return entry, ctx.compileBrackets(node)

	default:
		logging.Bugf("invalid node type %v", node.Type)
		return entry, semanticErrf(node.Text.Lo, "invalid node type %v", node.Type)
	}

	return entry, nil
}

// compileAlternates emits the fork/jump chain for an ordered list of
// alternatives:
//
//	fork post_0
//	alt 0
//	jmp end
//	post_0:
//	fork post_1
//	alt 1
//	jmp end
//	post_1:
//	alt 2
//	end:
//
// Each jmp is patched when the following alternative has been emitted;
// the chain of jmps reaches the common end (and jump threading later
// collapses it).
func (ctx *context) compileAlternates(children []*Node, where nfa.Span) error {
	p := ctx.prog

	jmpPrev := -1
	for i, child := range children {
		notLast := i < len(children)-1

		fork := -1
		if notLast {
			fork = p.Append(nfa.NewFork(0))
		}

		if _, err := ctx.compileNode(child); err != nil {
			return err
		}

		if jmpPrev >= 0 {
			p.Put(jmpPrev, nfa.NewJmp(p.Len()))
			ctx.setDebug(jmpPrev, where)
		}
		jmpPrev = -1
		if notLast {
			jmpPrev = p.Append(nfa.NewJmp(0))
		}

		if fork >= 0 {
			p.Put(fork, nfa.NewFork(p.Len()))
			ctx.setDebug(fork, where)
		}
	}
	return nil
}

// compileBrackets lowers a bracket expression as an alternation over
// its members, each of which matches exactly one byte. Complemented
// ranges can extend past 0xff; the part a byte range cannot express is
// clamped or dropped here with a warning rather than a bug, since such
// ranges arise from well-formed patterns.
func (ctx *context) compileBrackets(node *Node) error {
	kept := make([]*Node, 0, len(node.Children))
	for _, child := range node.Children {
		if child.Type == NodeRange {
			rg := child.Range
			if rg.Min > 0xff {
				logging.Warnf("dropping unrepresentable range: %#x-%#x", rg.Min, rg.Max)
				continue
			}
			if rg.Max > 0xff {
				logging.Warnf("clamping range: %#x-%#x", rg.Min, rg.Max)
				child.Range.Max = 0xff
			}
		}
		kept = append(kept, child)
	}

	if len(kept) == 0 {
		// Nothing representable: emit a never-matching test.
		op := ctx.prog.Append(nfa.NewClass(true, false, nfa.CClassAny))
		ctx.setDebug(op, node.Text)
		return nil
	}

	return ctx.compileAlternates(kept, node.Text)
}

// compileRepeat lowers a repetition: min copies of the body, then a
// greedy plus, star, or bounded tail of optional copies.
func (ctx *context) compileRepeat(node *Node) error {
	p := ctx.prog
	rep := node.Repeat
	child := node.Children[0]

	if !rep.Unbounded() && rep.Min > rep.Max {
		return semanticErrf(node.Text.Lo, "repetition min %d > max %d", rep.Min, rep.Max)
	}

	entry := p.Len()
	lastRep := entry
	for i := 0; i < rep.Min; i++ {
		rp, err := ctx.compileNode(child)
		if err != nil {
			return err
		}
		lastRep = rp
		if i == 0 {
			length := int64(p.Len() - rp)
			bound := int64(rep.Min)
			if !rep.Unbounded() {
				bound = int64(rep.Max)
			}
			if est := length * bound; est > expensiveRepeat {
				logging.Warnf("repetition will cost at least %d instructions", est)
			}
		}
	}

	if rep.Min > 0 && p.Len() == entry {
		logging.Warnf("empty repetition")
		return nil
	}

	if rep.Reluctant {
		logging.NYIf("reluctant repetition operators")
		return nyiErrf(node.Text.Lo, "reluctant repetition")
	}

	switch {
	case !rep.Unbounded() && rep.Max == rep.Min:
		// Fully unrolled; nothing more to emit.

	case !rep.Unbounded():
		// Bounded tail: max-min optional copies, each behind a fork.
		for i := 0; i < rep.Max-rep.Min; i++ {
			fork := p.Append(nfa.NewFork(0))
			if _, err := ctx.compileNode(child); err != nil {
				return err
			}
			p.Put(fork, nfa.NewFork(p.Len()))
			ctx.setDebug(fork, node.Text)
		}

	case rep.Min > 0:
		// Greedy plus: loop back to the last unrolled copy.
		fork := p.Append(nfa.NewFork(lastRep))
		ctx.setDebug(fork, node.Text)

	default:
		// Greedy star.
		fork := p.Append(nfa.NewFork(0))
		if _, err := ctx.compileNode(child); err != nil {
			return err
		}
		jmp := p.Append(nfa.NewJmp(fork))
		p.Put(fork, nfa.NewFork(p.Len()))
		ctx.setDebug(fork, node.Text)
		ctx.setDebug(jmp, node.Text)
	}

	return nil
}

// add registers one pattern: parse flags, build the AST through the
// front end, lower it, and finish with a MATCH instruction and an
// entry-point mark. Registration is atomic: on any failure the program
// is rolled back to its pre-call state and the error is returned.
func add(p *nfa.Program, pattern string, id int, flagText string, front func(*context) (*Node, error)) (int, error) {
	ctx := &context{src: pattern, prog: p, matchID: id}
	if id < 0 {
		ctx.matchID = p.NumMatches()
	}

	flags, rest := AdjustFlags(flagText, FlagBinary, false)
	if rest != "" {
		return 0, parseErrf(0, "garbage after flags: %q", rest)
	}
	ctx.flags = flags

	nInsns := p.Len()
	nCaptures := p.NumCaptures()

	root, err := front(ctx)
	if err != nil {
		p.Truncate(nInsns, nCaptures)
		return 0, err
	}
	logging.Debugf(1, "parsed pattern: %v", root)

	if !ctx.eof() {
		p.Truncate(nInsns, nCaptures)
		return 0, parseErrf(ctx.pos, "garbage remains after pattern: %q", ctx.rest())
	}

	if _, err := ctx.compileNode(root); err != nil {
		p.Truncate(nInsns, nCaptures)
		return 0, err
	}

	// Every run allocates as many captures as any pattern will need.
	if ctx.numCaptures > p.NumCaptures() {
		p.SetNumCaptures(ctx.numCaptures)
	}

	// Record the match and save the complete pattern in its trace info.
	last := p.Append(nfa.NewMatch(ctx.matchID))
	p.SetDebug(last, nfa.Span{Src: pattern, Lo: 0, Hi: len(pattern)}, ctx.matchID)

	p.NoteMatchID(ctx.matchID)
	p.MarkInit(nInsns)

	return ctx.matchID, nil
}

// AddRegex compiles pattern as a regular expression into p under the
// given match id (a negative id assigns the next free one) and flag
// text. On failure the program is left exactly as it was.
func AddRegex(p *nfa.Program, pattern string, id int, flags string) (int, error) {
	return add(p, pattern, id, flags, (*context).compileRegex)
}

// AddString compiles pattern as a literal byte sequence into p. Same
// contract as AddRegex.
func AddString(p *nfa.Program, pattern string, id int, flags string) (int, error) {
	return add(p, pattern, id, flags, (*context).compileLiteral)
}
