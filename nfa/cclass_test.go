package nfa

import "testing"

func TestCClass_Match(t *testing.T) {
	tests := []struct {
		cc   CClass
		c    int
		want bool
	}{
		{CClassAlnum, 'a', true},
		{CClassAlnum, 'Z', true},
		{CClassAlnum, '5', true},
		{CClassAlnum, '_', false},
		{CClassAlpha, 'q', true},
		{CClassAlpha, '4', false},
		{CClassBlank, ' ', true},
		{CClassBlank, '\t', true},
		{CClassBlank, '\n', false},
		{CClassCntrl, 0x1b, true},
		{CClassCntrl, 0x7f, true},
		{CClassCntrl, 'a', false},
		{CClassDigit, '0', true},
		{CClassDigit, 'a', false},
		{CClassGraph, '!', true},
		{CClassGraph, ' ', false},
		{CClassLower, 'g', true},
		{CClassLower, 'G', false},
		{CClassPrint, ' ', true},
		{CClassPrint, 0x1f, false},
		{CClassPunct, ',', true},
		{CClassPunct, 'a', false},
		{CClassSpace, '\v', true},
		{CClassSpace, 'x', false},
		{CClassUpper, 'Q', true},
		{CClassUpper, 'q', false},
		{CClassXdigit, 'f', true},
		{CClassXdigit, 'F', true},
		{CClassXdigit, 'g', false},
		{CClassLine, 'a', true},
		{CClassLine, ' ', true},
		{CClassLine, '\t', true},
		{CClassLine, '\n', false},
		{CClassAny, 0, true},
		{CClassAny, 0x7f, true},
		{CClassAny, 0xff, true},

		// Non-ASCII bytes only ever match "any".
		{CClassAlnum, 0xc3, false},
		{CClassLine, 0xc3, false},

		// No byte matches nothing.
		{CClassAny, -1, false},
		{CClassAlnum, -1, false},
	}

	for _, tt := range tests {
		if got := tt.cc.Match(false, tt.c); got != tt.want {
			t.Errorf("%v.Match(false, %#x) = %v, want %v", tt.cc, tt.c, got, tt.want)
		}
		if got := tt.cc.Match(true, tt.c); got == tt.want {
			t.Errorf("%v.Match(true, %#x) = %v, want inverted", tt.cc, tt.c, got)
		}
	}
}

func TestLookupCClass(t *testing.T) {
	for cc := CClass(0); cc < cclassCount; cc++ {
		got, ok := LookupCClass(cc.String())
		if !ok || got != cc {
			t.Errorf("LookupCClass(%q) = (%v, %v), want (%v, true)", cc.String(), got, ok, cc)
		}
	}
	if _, ok := LookupCClass("word"); ok {
		t.Error("unknown class name should not resolve")
	}
	if got := CClass(200).String(); got != "" {
		t.Errorf("out-of-range class name = %q, want \"\"", got)
	}
}
