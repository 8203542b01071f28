package nfa

import (
	"fmt"
	"strings"

	"github.com/coregx/nfavm/internal/bitset"
)

// DescChar writes a readable description of the character c: common
// escapes and regex metacharacters are backslashed, printable ASCII is
// written verbatim, everything else as \u<hex>.
func DescChar(b *strings.Builder, c rune) {
	switch c {
	case '\n':
		b.WriteString(`\n`)
	case '\r':
		b.WriteString(`\r`)
	case '\t':
		b.WriteString(`\t`)
	case 0:
		b.WriteString(`\0`)
	case '\'':
		b.WriteString(`\'`)
	case '\\':
		b.WriteString(`\\`)
	case '[':
		b.WriteString(`\[`)
	case ']':
		b.WriteString(`\]`)
	default:
		if c >= 32 && c < 127 {
			b.WriteRune(c)
		} else {
			fmt.Fprintf(b, `\u%x`, c)
		}
	}
}

// DescRange writes a readable description of the byte range [lo, hi]:
// '<c>' for a single character, [<lo>-<hi>] otherwise.
func DescRange(b *strings.Builder, lo, hi rune) {
	if hi != lo {
		b.WriteByte('[')
		DescChar(b, lo)
		b.WriteByte('-')
		DescChar(b, hi)
		b.WriteByte(']')
	} else {
		b.WriteByte('\'')
		DescChar(b, lo)
		b.WriteByte('\'')
	}
}

func hexWidth(n int) int {
	w := 0
	for ; n > 0; n /= 16 {
		w++
	}
	return w
}

func decWidth(n int) int {
	w := 0
	for ; n > 0; n /= 10 {
		w++
	}
	return w
}

// Disassemble renders the program as text, one line per instruction:
// mark column, pc, mnemonic, decoded operands, pattern id, and source
// span from the trace info. marks may be nil; instructions whose pc is
// in marks get a ">" in the mark column (used to render the visited set
// of a matched thread).
func (p *Program) Disassemble(marks *bitset.Set) string {
	pcWidth := hexWidth(len(p.insns))
	matchWidth := decWidth(p.numMatches)

	var b strings.Builder
	for pc := 0; pc < len(p.insns); pc++ {
		insn := p.insns[pc]
		lineStart := b.Len()

		mark := " "
		if marks != nil && marks.Contains(pc) {
			mark = ">"
		}
		fmt.Fprintf(&b, "%s %0*x: %-8s", mark, pcWidth, pc, insn.Op())

		switch insn.Op() {
		case OpRange:
			lo, hi := insn.Range()
			DescRange(&b, rune(lo), rune(hi))
		case OpClass:
			neg, frontier, cc := insn.Class()
			if frontier {
				b.WriteByte('>')
			}
			if neg {
				b.WriteByte('!')
			}
			if name := cc.String(); name != "" {
				b.WriteString(name)
			} else {
				fmt.Fprintf(&b, "<%#x>", uint8(cc))
			}
		case OpCapture:
			end, idx := insn.Capture()
			if end {
				fmt.Fprintf(&b, "end %x", idx)
			} else {
				fmt.Fprintf(&b, "start %x", idx)
			}
		case OpMatch:
			if id := insn.MatchID(); id >= 0 {
				fmt.Fprintf(&b, "%x", id)
			} else {
				b.WriteString("-1")
			}
		case OpJmp, OpFork:
			fmt.Fprintf(&b, "%x", insn.PC())
		default:
			fmt.Fprintf(&b, "op %x %x", uint8(insn.Op()), insn.Arg())
		}

		for b.Len()-lineStart < 40 {
			b.WriteByte(' ')
		}
		dbg := p.trace[pc]
		fmt.Fprintf(&b, "%*d", matchWidth, dbg.Match)
		if !dbg.Where.Empty() {
			b.WriteString("  ")
			b.WriteString(dbg.Where.Text())
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// TraceMatch renders the source pattern of a matched thread with '^'
// markers under the spans of the instructions the thread executed. The
// trace info of the MATCH instruction carries the complete pattern; any
// visited instruction of the same pattern contributes its span.
func (p *Program) TraceMatch(m *Match) string {
	if m == nil {
		return ""
	}
	if m.PC < 0 || m.PC >= len(p.insns) || p.insns[m.PC].Op() != OpMatch {
		return "(didn't match; showing disassembly instead)\n" + p.Disassemble(m.Visited)
	}
	rx := p.trace[m.PC]
	if rx.Match < 0 {
		return "(not attached to any pattern)"
	}
	bounds := rx.Where
	if bounds.Empty() {
		return ""
	}

	row := make([]byte, bounds.Hi-bounds.Lo)
	for i := range row {
		row[i] = ' '
	}
	for pc := 0; pc < len(p.insns); pc++ {
		if m.Visited == nil || !m.Visited.Contains(pc) {
			continue
		}
		part := p.trace[pc]
		if part.Match != rx.Match || part.Where.Src != bounds.Src {
			continue
		}
		lo, hi := part.Where.Lo, part.Where.Hi
		if lo < bounds.Lo {
			lo = bounds.Lo
		}
		if hi > bounds.Hi {
			hi = bounds.Hi
		}
		for j := lo; j < hi; j++ {
			row[j-bounds.Lo] = '^'
		}
	}
	return bounds.Text() + "\n" + strings.TrimRight(string(row), " ")
}
