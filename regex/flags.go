package regex

import "strings"

// Flags adjust parsing and compilation behaviour. They are spelled as
// single letters in flag text and in (?flags:...) groups.
type Flags uint32

const (
	// FlagDebug ("d") preserves source spans in instruction trace info.
	// Not available in sandboxed (group-level) adjustments.
	FlagDebug Flags = 0x01

	// FlagExplicitCaptures ("c") treats a group containing only an
	// alternation as non-capturing, and deletes the capture of a group
	// directly under a repetition operator.
	FlagExplicitCaptures Flags = 0x02

	// FlagBinary ("b") makes '.' match any byte instead of
	// printable-or-tab, and lets bracket expressions match single bytes.
	// Without it, a bracket expression is rejected as not implemented.
	FlagBinary Flags = 0x20
)

var flagDefs = []struct {
	flag   Flags
	letter string
	safe   bool // usable in sandboxed (group-level) adjustments
}{
	{FlagDebug, "d", false},
	{FlagExplicitCaptures, "c", true},
	{FlagBinary, "b", true},
}

// ParseFlags consumes enabling flag letters from the front of s and
// returns the parsed set and the unconsumed remainder. In sandbox mode
// unsafe letters are consumed but silently skipped.
func ParseFlags(s string, sandbox bool) (Flags, string) {
	var f Flags
	for {
		progressed := false
		for _, d := range flagDefs {
			rest, ok := strings.CutPrefix(s, d.letter)
			if !ok {
				continue
			}
			s = rest
			if d.safe || !sandbox {
				f |= d.flag
			}
			progressed = true
			break
		}
		if !progressed {
			break
		}
	}
	return f, s
}

// AdjustFlags applies a flag adjustment to base: enabling letters,
// optionally followed by "-" and disabling letters. Returns the
// adjusted set and the unconsumed remainder of s.
func AdjustFlags(s string, base Flags, sandbox bool) (Flags, string) {
	add, s := ParseFlags(s, sandbox)
	f := base | add
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		var sub Flags
		sub, s = ParseFlags(rest, sandbox)
		f &^= sub
	}
	return f, s
}

// Describe renders the flag set as flag text: present letters, then "-"
// and absent letters; the "-" is omitted when no absent letters follow.
// AdjustFlags(f.Describe(sandbox), 0, sandbox) reproduces f (restricted
// to the letters visible in that sandbox mode).
func (f Flags) Describe(sandbox bool) string {
	var b strings.Builder
	for _, d := range flagDefs {
		if f&d.flag != 0 && (d.safe || !sandbox) {
			b.WriteString(d.letter)
		}
	}
	mark := b.Len()
	b.WriteString("-")
	for _, d := range flagDefs {
		if f&d.flag == 0 && (d.safe || !sandbox) {
			b.WriteString(d.letter)
		}
	}
	out := b.String()
	if b.Len() == mark+1 {
		return out[:mark]
	}
	return out
}
