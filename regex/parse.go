package regex

import (
	"sort"
	"strings"

	"github.com/coregx/nfavm/internal/logging"
	"github.com/coregx/nfavm/nfa"
)

// complementMax bounds the character domain of bracket complementation.
// The original grammar complements over the full unsigned range with
// overflow at the edges; here the domain is clamped explicitly.
const complementMax rune = 1<<31 - 1

// maxRepeatBound caps parsed repetition bounds.
const maxRepeatBound = 1 << 30

// context carries the state of one pattern registration: the input
// text with a cursor, the target program, the capture counter, the
// active flags, and the match id being compiled.
type context struct {
	src  string
	pos  int
	prog *nfa.Program

	numCaptures int
	matchID     int
	flags       Flags
}

func (ctx *context) rest() string {
	return ctx.src[ctx.pos:]
}

func (ctx *context) eof() bool {
	return ctx.pos >= len(ctx.src)
}

func (ctx *context) match(lit string) bool {
	if strings.HasPrefix(ctx.rest(), lit) {
		ctx.pos += len(lit)
		return true
	}
	return false
}

func (ctx *context) peek(lit string) bool {
	return strings.HasPrefix(ctx.rest(), lit)
}

// span returns the source span from start to the current cursor.
func (ctx *context) span(start int) nfa.Span {
	return nfa.Span{Src: ctx.src, Lo: start, Hi: ctx.pos}
}

// matchAlnum consumes a run of ASCII letters and digits.
func (ctx *context) matchAlnum() string {
	start := ctx.pos
	for !ctx.eof() {
		c := ctx.src[ctx.pos]
		if !('0' <= c && c <= '9' || 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z') {
			break
		}
		ctx.pos++
	}
	return ctx.src[start:ctx.pos]
}

// matchUint consumes a run of decimal digits. Values are capped at
// maxRepeatBound.
func (ctx *context) matchUint() (int, bool) {
	start := ctx.pos
	val := 0
	for !ctx.eof() {
		c := ctx.src[ctx.pos]
		if c < '0' || c > '9' {
			break
		}
		ctx.pos++
		if val < maxRepeatBound {
			val = val*10 + int(c-'0')
		}
	}
	if val > maxRepeatBound {
		val = maxRepeatBound
	}
	return val, ctx.pos > start
}

// unescape decodes one possibly-escaped rune at the cursor.
func (ctx *context) unescape() (rune, EscKind, bool) {
	c, kind, n, ok := unescapeRune(ctx.rest())
	if !ok {
		return 0, 0, false
	}
	ctx.pos += n
	return c, kind, true
}

// parseNamedClass parses a POSIX named class: "[:" "^"? name ":]".
// Returns nil without consuming input if the syntax doesn't apply or
// the name is unknown.
func (ctx *context) parseNamedClass() *Node {
	save := ctx.pos

	if !ctx.match("[:") {
		return nil
	}
	neg := ctx.match("^")
	name := ctx.matchAlnum()
	if name == "" || !ctx.match(":]") {
		ctx.pos = save
		return nil
	}
	cc, ok := nfa.LookupCClass(name)
	if !ok {
		ctx.pos = save
		return nil
	}

	node := newNode(NodeClass)
	node.Text = ctx.span(save)
	node.Class = ClassArg{CClass: cc, Neg: neg}
	return node
}

// parseRange parses one bracket-expression member: a named class, or an
// escape optionally followed by "-" and another escape.
func (ctx *context) parseRange() (*Node, error) {
	if node := ctx.parseNamedClass(); node != nil {
		return node, nil
	}

	save := ctx.pos
	lo, _, ok := ctx.unescape()
	if !ok {
		return nil, nil
	}
	hi := lo
	if ctx.match("-") {
		hi, _, ok = ctx.unescape()
		if !ok {
			ctx.pos = save
			return nil, nil
		}
	}
	if hi < lo {
		return nil, semanticErrf(save, "inverted range %q", ctx.src[save:ctx.pos])
	}

	node := newNode(NodeRange)
	node.Text = ctx.span(save)
	node.Range = RangeArg{Min: lo, Max: hi}
	return node, nil
}

// parseBrackets parses a bracket expression "[" "^"? range+ "]". The
// children are sorted by lower bound; a leading "^" replaces them with
// their complement over [0, complementMax].
func (ctx *context) parseBrackets() (*Node, error) {
	save := ctx.pos

	if !ctx.match("[") {
		return nil, nil
	}
	node := newNode(NodeBrackets)
	negate := ctx.match("^")

	for {
		if ctx.eof() {
			return nil, parseErrf(save, "unterminated bracket expression")
		}
		r, err := ctx.parseRange()
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, parseErrf(ctx.pos, "invalid bracket range")
		}
		node.push(r)
		if ctx.match("]") {
			break
		}
	}
	node.Text = ctx.span(save)

	// Sort ranges by lower bound; non-range members keep source order.
	sort.SliceStable(node.Children, func(i, j int) bool {
		a, b := node.Children[i], node.Children[j]
		if a.Type != NodeRange || b.Type != NodeRange {
			return false
		}
		return a.Range.Min < b.Range.Min
	})

	if negate {
		complemented, err := complementRanges(save, node.Children)
		if err != nil {
			return nil, err
		}
		node.Children = complemented
	}

	if ctx.flags&FlagBinary == 0 {
		logging.NYIf("expand UTF-8 ranges")
		return nil, nyiErrf(save, "UTF-8 range expansion of bracket expressions")
	}

	return node, nil
}

// complementRanges replaces a sorted range list with its complement
// over [0, complementMax]. Empty segments are skipped; overlapping
// inputs are handled by tracking the running maximum, so complementing
// twice reproduces the original set.
func complementRanges(pos int, children []*Node) ([]*Node, error) {
	out := make([]*Node, 0, len(children)+1)
	prevMax := rune(-1)
	for _, child := range children {
		if child.Type != NodeRange {
			return nil, semanticErrf(pos, "cannot complement non-range inside [^...]")
		}
		rg := child.Range
		if lo, hi := prevMax+1, rg.Min-1; lo <= hi {
			// Reuse this node to represent the gap before it.
			child.Range = RangeArg{Min: lo, Max: hi}
			out = append(out, child)
		}
		if rg.Max > prevMax {
			prevMax = rg.Max
		}
	}
	if prevMax < complementMax {
		last := newNode(NodeRange)
		last.Range = RangeArg{Min: prevMax + 1, Max: complementMax}
		out = append(out, last)
	}
	return out, nil
}

// parseAtom parses a bracket expression, a group, or a single
// (possibly escaped) character. Returns nil without error when no atom
// starts at the cursor.
func (ctx *context) parseAtom() (*Node, error) {
	save := ctx.pos

	if ctx.peek("[") {
		return ctx.parseBrackets()
	}

	if ctx.match("(") {
		return ctx.parseGroup(save)
	}

	c, esc, ok := ctx.unescape()
	if !ok {
		return nil, nil
	}

	typ := NodeAtom
	var class ClassArg

	switch esc {
	case EscNone:
		switch c {
		case '.':
			typ = NodeClass
			class = ClassArg{CClass: nfa.CClassLine}
			if ctx.flags&FlagBinary != 0 {
				class.CClass = nfa.CClassAny
			}
		case '^':
			typ = NodeClass
			class = ClassArg{CClass: nfa.CClassLine, Frontier: true}
		case '$':
			typ = NodeClass
			class = ClassArg{CClass: nfa.CClassLine, Neg: true, Frontier: true}
		case ')', '?', '*', '+', '|', '\\':
			// Not an atom.
			ctx.pos = save
			return nil, nil
		}
	case EscSubst:
		// Substituted escape: nothing else to do.
	case EscRaw:
		neg := 'A' <= c && c <= 'Z'
		switch c {
		case '<':
			typ = NodeClass
			class = ClassArg{CClass: nfa.CClassAlnum, Frontier: true}
		case '>':
			typ = NodeClass
			class = ClassArg{CClass: nfa.CClassAlnum, Neg: true, Frontier: true}
		case 'A':
			typ = NodeClass
			class = ClassArg{CClass: nfa.CClassAny, Frontier: true}
		case 'z':
			typ = NodeClass
			class = ClassArg{CClass: nfa.CClassAny, Neg: true, Frontier: true}
		case 'w', 'W':
			typ = NodeClass
			class = ClassArg{CClass: nfa.CClassAlnum}
		case 'd', 'D':
			typ = NodeClass
			class = ClassArg{CClass: nfa.CClassDigit, Neg: neg}
		case 's', 'S':
			typ = NodeClass
			class = ClassArg{CClass: nfa.CClassSpace, Neg: neg}
		case '(', ')', '[', '?', '*', '+', '|', '\\':
			// Escaped metacharacter.
		default:
			logging.Warnf("unnecessary escape: \\%c", c)
		}
	default:
		logging.Bugf("invalid escape kind: %d (char %#08x)", esc, c)
	}

	node := newNode(typ)
	node.Text = ctx.span(save)
	if typ == NodeClass {
		node.Class = class
	} else {
		node.Atom = AtomArg{R: c, Esc: esc}
	}
	return node, nil
}

// parseGroup parses the rest of a group after its opening paren:
// ( "?" flag-adj ":"? )? pattern ")". Flag adjustments are sandboxed
// and scoped to the group; "(?flags:" suppresses the capture.
func (ctx *context) parseGroup(save int) (*Node, error) {
	doCapture := true
	outer := ctx.flags

	if ctx.match("?") {
		adjusted, rest := AdjustFlags(ctx.rest(), ctx.flags, true)
		ctx.pos = len(ctx.src) - len(rest)
		logging.Debugf(1, "change flags from %s to %s",
			ctx.flags.Describe(false), adjusted.Describe(false))
		ctx.flags = adjusted
		if ctx.match(":") {
			doCapture = false
		} else {
			logging.NYIf("set flags for current group (?flags)")
		}
	}

	idx := ctx.numCaptures
	if doCapture {
		// Captures are numbered in lexical (opening paren) order.
		ctx.numCaptures++
	}

	inner, err := ctx.parsePattern()
	ctx.flags = outer
	if err != nil {
		ctx.numCaptures = idx
		return nil, err
	}
	if !ctx.match(")") {
		ctx.numCaptures = idx
		ctx.pos = save
		return nil, nil
	}

	if !doCapture {
		return inner, nil
	}
	if ctx.flags&FlagExplicitCaptures != 0 && inner.Type == NodeAlternation {
		return inner, nil
	}

	capture := newNode(NodeCapture)
	capture.Text = ctx.span(save)
	capture.Capture = idx
	capture.push(inner)
	return capture, nil
}

// parsePostfix parses an atom optionally followed by a repetition
// operator: "?", "*", "+", or "{" bounds "}", each optionally followed
// by a reluctance marker "?".
func (ctx *context) parsePostfix() (*Node, error) {
	atom, err := ctx.parseAtom()
	if atom == nil || err != nil {
		return nil, err
	}

	opStart := ctx.pos
	rep := RepeatArg{Min: 0, Max: -1}

	switch {
	case ctx.match("?"):
		rep.Min, rep.Max = 0, 1
	case ctx.match("*"):
		rep.Min, rep.Max = 0, -1
	case ctx.match("+"):
		rep.Min, rep.Max = 1, -1
	case ctx.match("{"):
		lower, haveLower := ctx.matchUint()
		comma := ctx.match(",")
		if !haveLower && !comma {
			// Not a bound at all; the brace stays a literal atom.
			ctx.pos = opStart
			return atom, nil
		}
		rep.Min = lower
		if comma {
			if upper, haveUpper := ctx.matchUint(); haveUpper {
				rep.Max = upper
			}
		} else {
			rep.Max = lower
		}
		if !ctx.match("}") {
			ctx.pos = opStart
			return nil, nil
		}
	default:
		return atom, nil
	}
	rep.Reluctant = ctx.match("?")

	if !rep.Unbounded() && rep.Min > rep.Max {
		return nil, semanticErrf(opStart, "repetition min %d > max %d", rep.Min, rep.Max)
	}

	if ctx.flags&FlagExplicitCaptures != 0 && atom.Type == NodeCapture {
		logging.Debugf(1, "deleting capture %d/%d", atom.Capture, ctx.numCaptures)
		if atom.Capture == ctx.numCaptures-1 {
			ctx.numCaptures--
		}
		atom = atom.Children[0]
	}

	node := newNode(NodeRepeat)
	node.Text = ctx.span(opStart)
	node.Repeat = rep
	node.push(atom)
	return node, nil
}

// parseBranch parses zero or more postfix'd atoms. A branch with a
// single child collapses to the child.
func (ctx *context) parseBranch() (*Node, error) {
	node := newNode(NodeBranch)
	for !ctx.eof() {
		atom, err := ctx.parsePostfix()
		if err != nil {
			return nil, err
		}
		if atom == nil {
			break
		}
		node.push(atom)
	}
	if len(node.Children) == 1 {
		return node.Children[0], nil
	}
	return node, nil
}

// parsePattern parses branches separated by "|".
func (ctx *context) parsePattern() (*Node, error) {
	branch, err := ctx.parseBranch()
	if err != nil {
		return nil, err
	}

	barStart := ctx.pos
	if !ctx.match("|") {
		return branch, nil
	}

	node := newNode(NodeAlternation)
	node.Text = ctx.span(barStart)
	node.push(branch)
	for {
		rest, err := ctx.parseBranch()
		if err != nil {
			return nil, err
		}
		node.push(rest)
		if !ctx.match("|") {
			break
		}
	}
	return node, nil
}

// compileRegex is the regex front end: text to AST via the full
// grammar.
func (ctx *context) compileRegex() (*Node, error) {
	if ctx.flags&FlagBinary == 0 {
		logging.NYIf("new UTF-8 mode")
	}
	return ctx.parsePattern()
}
