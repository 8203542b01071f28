package regex

import "unicode/utf8"

// unescapeRune decodes one possibly-escaped rune from the front of s.
// It returns the rune, its escape kind, and the number of bytes
// consumed; ok is false if nothing could be decoded (empty input,
// invalid UTF-8, or a truncated hex escape).
//
// Substituted escapes: \0 \e \f \t \n \r \v, \xHH, \uHHHH, \UHHHHHHHH,
// and the braced forms \x{...} \u{...} \U{...} of any length. Within a
// hex escape, characters that are not hex digits are skipped without
// contributing to the value; running out of input fails the escape. A
// backslash at the end of input decodes as a literal backslash.
// Any other escaped character comes back as EscRaw.
func unescapeRune(s string) (c rune, kind EscKind, n int, ok bool) {
	i := 0
	esc := false
	if len(s) > 0 && s[0] == '\\' {
		esc = true
		i = 1
	}

	r, w := utf8.DecodeRuneInString(s[i:])
	if r == utf8.RuneError && w < 2 {
		if esc {
			// Backslash at end of input (or before an invalid byte).
			return '\\', EscNone, 1, true
		}
		return 0, 0, 0, false
	}
	i += w
	if !esc {
		return r, EscNone, i, true
	}

	kind = EscSubst
	switch r {
	case '0':
		r = 0
	case 'e':
		r = 0x1b
	case 'f':
		r = '\f'
	case 't':
		r = '\t'
	case 'n':
		r = '\n'
	case 'r':
		r = '\r'
	case 'v':
		r = '\v'
	case 'x', 'u', 'U':
		digits := 0
		switch {
		case i < len(s) && s[i] == '{':
			i++
			digits = -1
		case r == 'x':
			digits = 2
		case r == 'u':
			digits = 4
		default:
			digits = 8
		}
		r = 0
		for digits != 0 {
			if i >= len(s) {
				return 0, 0, 0, false
			}
			d := s[i]
			i++
			switch {
			case '0' <= d && d <= '9':
				r = r<<4 + rune(d-'0')
			case 'A' <= d && d <= 'F':
				r = r<<4 + rune(d-'A'+0xa)
			case 'a' <= d && d <= 'f':
				r = r<<4 + rune(d-'a'+0xa)
			case d == '}' && digits < 0:
				return r, kind, i, true
			}
			digits--
		}
	default:
		kind = EscRaw
	}

	return r, kind, i, true
}
