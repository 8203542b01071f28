package regex

import (
	"errors"
	"testing"

	"github.com/coregx/nfavm/internal/logging"
	"github.com/coregx/nfavm/nfa"
)

func TestAddRegex_AssignsIDs(t *testing.T) {
	p := nfa.NewProgram()

	id, err := AddRegex(p, "a", -1, "")
	if err != nil || id != 0 {
		t.Fatalf("first auto id = (%d, %v), want (0, nil)", id, err)
	}
	id, err = AddRegex(p, "b", 5, "")
	if err != nil || id != 5 {
		t.Fatalf("explicit id = (%d, %v), want (5, nil)", id, err)
	}
	id, err = AddRegex(p, "c", -1, "")
	if err != nil || id != 6 {
		t.Fatalf("next auto id = (%d, %v), want (6, nil)", id, err)
	}
	if p.NumMatches() != 7 {
		t.Errorf("NumMatches() = %d, want 7", p.NumMatches())
	}
}

func TestAddRegex_AppendsMatchAndEntry(t *testing.T) {
	p := nfa.NewProgram()
	if _, err := AddRegex(p, "ab", 3, ""); err != nil {
		t.Fatal(err)
	}

	last := p.Insn(p.Len() - 1)
	if last.Op() != nfa.OpMatch || last.MatchID() != 3 {
		t.Errorf("last insn = (%v, %d), want (match, 3)", last.Op(), last.MatchID())
	}
	if !p.Init().Contains(0) {
		t.Error("pattern entry point should be marked")
	}

	// The MATCH instruction carries the whole pattern span.
	if got := p.Trace(p.Len() - 1).Where.Text(); got != "ab" {
		t.Errorf("match trace span = %q, want \"ab\"", got)
	}
}

func TestAddRegex_DebugFlagGatesSpans(t *testing.T) {
	p := nfa.NewProgram()
	if _, err := AddRegex(p, "ab", 0, ""); err != nil {
		t.Fatal(err)
	}
	if got := p.Trace(0).Where.Text(); got != "" {
		t.Errorf("without d flag, insn span = %q, want \"\"", got)
	}

	p = nfa.NewProgram()
	if _, err := AddRegex(p, "ab", 0, "d"); err != nil {
		t.Fatal(err)
	}
	if got := p.Trace(0).Where.Text(); got != "a" {
		t.Errorf("with d flag, insn 0 span = %q, want \"a\"", got)
	}
}

func TestAddRegex_GarbageAfterFlags(t *testing.T) {
	p := nfa.NewProgram()
	_, err := AddRegex(p, "a", 0, "d!")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("garbage flags = %v, want parse error", err)
	}
	if p.Len() != 0 {
		t.Error("failed registration must not grow the program")
	}
}

// Adding a pattern is atomic: a failure leaves instruction and capture
// counts at their pre-call values.
func TestAddRegex_Atomic(t *testing.T) {
	p := nfa.NewProgram()
	if _, err := AddRegex(p, "(good)", 1, ""); err != nil {
		t.Fatal(err)
	}
	nInsns, nCaptures, nMatches := p.Len(), p.NumCaptures(), p.NumMatches()

	bad := []string{
		"(a",        // unterminated group
		"[abc",      // unterminated brackets
		"a{5,2}",    // min > max
		"(a)(b)x+?", // reluctant is NYI; captures must roll back too
	}
	for _, pattern := range bad {
		if _, err := AddRegex(p, pattern, 2, ""); err == nil {
			t.Fatalf("AddRegex(%q) unexpectedly succeeded", pattern)
		}
		if p.Len() != nInsns || p.NumCaptures() != nCaptures || p.NumMatches() != nMatches {
			t.Errorf("after failed %q: len %d captures %d matches %d, want %d/%d/%d",
				pattern, p.Len(), p.NumCaptures(), p.NumMatches(), nInsns, nCaptures, nMatches)
		}
	}

	// The surviving pattern still works.
	id, n, err := p.Run([]byte("good"), nil)
	if err != nil || id != 1 || n != 4 {
		t.Errorf("Run after rollbacks = (%d, %d, %v), want (1, 4, nil)", id, n, err)
	}
}

func TestAddRegex_ReluctantNYI(t *testing.T) {
	p := nfa.NewProgram()
	_, err := AddRegex(p, "a+?", 0, "")
	if !errors.Is(err, ErrNotImplemented) {
		t.Errorf("reluctant repetition = %v, want ErrNotImplemented", err)
	}
}

// Every jmp/fork target emitted by the compiler is inside the program.
func TestCompile_TargetsInRange(t *testing.T) {
	patterns := []string{
		"a|b|c",
		"(a|bc)*d",
		"x{2,5}",
		"[abc]+",
		"a+b*c?",
		"(a(b(c)))|d",
		"pfx(1|(2))*sf?x",
	}

	p := nfa.NewProgram()
	for i, pattern := range patterns {
		if _, err := AddRegex(p, pattern, i, ""); err != nil {
			t.Fatalf("AddRegex(%q): %v", pattern, err)
		}
	}
	p.Optimize()

	for pc := 0; pc < p.Len(); pc++ {
		in := p.Insn(pc)
		switch in.Op() {
		case nfa.OpJmp, nfa.OpFork:
			if in.PC() < 0 || in.PC() >= p.Len() {
				t.Errorf("insn %d (%v) targets %d, out of [0, %d)", pc, in.Op(), in.PC(), p.Len())
			}
		}
	}
}

func TestCompile_AlternationShape(t *testing.T) {
	p := nfa.NewProgram()
	if _, err := AddRegex(p, "a|b", 0, ""); err != nil {
		t.Fatal(err)
	}
	// fork ; range a ; jmp ; range b ; match
	wantOps := []nfa.Op{nfa.OpFork, nfa.OpRange, nfa.OpJmp, nfa.OpRange, nfa.OpMatch}
	if p.Len() != len(wantOps) {
		t.Fatalf("Len() = %d, want %d", p.Len(), len(wantOps))
	}
	for pc, want := range wantOps {
		if got := p.Insn(pc).Op(); got != want {
			t.Errorf("insn %d = %v, want %v", pc, got, want)
		}
	}
	if target := p.Insn(0).PC(); target != 3 {
		t.Errorf("fork target = %d, want 3", target)
	}
	if target := p.Insn(2).PC(); target != 4 {
		t.Errorf("jmp target = %d, want 4", target)
	}
}

func TestCompile_RepeatShapes(t *testing.T) {
	t.Run("plus", func(t *testing.T) {
		p := nfa.NewProgram()
		if _, err := AddRegex(p, "a+", 0, ""); err != nil {
			t.Fatal(err)
		}
		// range a ; fork 0 ; match
		if p.Insn(1).Op() != nfa.OpFork || p.Insn(1).PC() != 0 {
			t.Errorf("plus should fork back to the body: %v -> %d", p.Insn(1).Op(), p.Insn(1).PC())
		}
	})

	t.Run("star", func(t *testing.T) {
		p := nfa.NewProgram()
		if _, err := AddRegex(p, "a*", 0, ""); err != nil {
			t.Fatal(err)
		}
		// fork 3 ; range a ; jmp 0 ; match
		if p.Insn(0).Op() != nfa.OpFork || p.Insn(0).PC() != 3 {
			t.Errorf("star entry fork = %v -> %d, want fork -> 3", p.Insn(0).Op(), p.Insn(0).PC())
		}
		if p.Insn(2).Op() != nfa.OpJmp || p.Insn(2).PC() != 0 {
			t.Errorf("star loop jmp = %v -> %d, want jmp -> 0", p.Insn(2).Op(), p.Insn(2).PC())
		}
	})

	t.Run("bounded", func(t *testing.T) {
		p := nfa.NewProgram()
		if _, err := AddRegex(p, "a{2,4}", 0, ""); err != nil {
			t.Fatal(err)
		}
		// range a ; range a ; fork ; range a ; fork ; range a ; match
		var ranges, forks int
		for pc := 0; pc < p.Len(); pc++ {
			switch p.Insn(pc).Op() {
			case nfa.OpRange:
				ranges++
			case nfa.OpFork:
				forks++
			}
		}
		if ranges != 4 || forks != 2 {
			t.Errorf("a{2,4} emitted %d ranges and %d forks, want 4 and 2", ranges, forks)
		}
	})
}

func TestCompile_CapturePairsBody(t *testing.T) {
	p := nfa.NewProgram()
	if _, err := AddRegex(p, "(ab)", 2, ""); err != nil {
		t.Fatal(err)
	}
	// cap start 0 ; range a ; range b ; cap end 0 ; match
	first, last := p.Insn(0), p.Insn(3)
	if first.Op() != nfa.OpCapture || last.Op() != nfa.OpCapture {
		t.Fatalf("capture pair not emitted: %v / %v", first.Op(), last.Op())
	}
	if end, idx := first.Capture(); end || idx != 0 {
		t.Errorf("first capture = (end=%v, %d), want (start, 0)", end, idx)
	}
	if end, idx := last.Capture(); !end || idx != 0 {
		t.Errorf("last capture = (end=%v, %d), want (end, 0)", end, idx)
	}
	if p.NumCaptures() != 1 {
		t.Errorf("NumCaptures() = %d, want 1", p.NumCaptures())
	}
}

func TestCompile_PerPatternCaptureNamespace(t *testing.T) {
	p := nfa.NewProgram()
	if _, err := AddRegex(p, "(a)(b)", 0, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := AddRegex(p, "(c)", 1, ""); err != nil {
		t.Fatal(err)
	}
	// Each pattern numbers its captures from zero; the program keeps
	// the maximum any pattern needs.
	if p.NumCaptures() != 2 {
		t.Errorf("NumCaptures() = %d, want 2", p.NumCaptures())
	}
}

func TestCompile_MultibyteAtom(t *testing.T) {
	p := nfa.NewProgram()
	if _, err := AddRegex(p, "é", 0, ""); err != nil {
		t.Fatal(err)
	}
	// é is two UTF-8 bytes, each a RANGE, plus the MATCH.
	if p.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", p.Len())
	}
	lo0, _ := p.Insn(0).Range()
	lo1, _ := p.Insn(1).Range()
	if lo0 != 0xc3 || lo1 != 0xa9 {
		t.Errorf("utf-8 bytes = %#x %#x, want 0xc3 0xa9", lo0, lo1)
	}
}

func TestCompile_ExpensiveRepeatWarns(t *testing.T) {
	logging.ResetCounters()
	p := nfa.NewProgram()
	if _, err := AddRegex(p, "a{20000}", 0, ""); err != nil {
		t.Fatal(err)
	}
	if logging.Warnings() == 0 {
		t.Error("expensive repetition should warn")
	}
}

func TestCompile_EmptyRepeatWarns(t *testing.T) {
	logging.ResetCounters()
	p := nfa.NewProgram()
	if _, err := AddRegex(p, "(?:)+a", 0, ""); err != nil {
		t.Fatal(err)
	}
	if logging.Warnings() == 0 {
		t.Error("empty required repetition should warn")
	}
	id, n, err := p.Run([]byte("a"), nil)
	if err != nil || id != 0 || n != 1 {
		t.Errorf("empty repeat treated as identity: Run = (%d, %d, %v)", id, n, err)
	}
}

func TestAddString_LiteralBytes(t *testing.T) {
	p := nfa.NewProgram()
	id, err := AddString(p, "a.c", 4, "")
	if err != nil || id != 4 {
		t.Fatalf("AddString = (%d, %v)", id, err)
	}

	// The dot is a plain byte, not a class.
	mid, _, err := p.Run([]byte("a.c"), nil)
	if err != nil || mid != 4 {
		t.Errorf("Run(a.c) = (%d, %v), want (4, nil)", mid, err)
	}
	mid, _, err = p.Run([]byte("abc"), nil)
	if err != nil || mid != nfa.NoMatch {
		t.Errorf("Run(abc) = (%d, %v), want no match", mid, err)
	}
}

func TestAddString_UTF8(t *testing.T) {
	p := nfa.NewProgram()
	if _, err := AddString(p, "héllo", 0, ""); err != nil {
		t.Fatal(err)
	}
	id, n, err := p.Run([]byte("héllo"), nil)
	if err != nil || id != 0 || n != len("héllo") {
		t.Errorf("Run = (%d, %d, %v), want (0, %d, nil)", id, n, err, len("héllo"))
	}
}
