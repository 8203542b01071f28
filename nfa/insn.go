package nfa

import (
	"github.com/coregx/nfavm/internal/logging"
)

// Op identifies the operation of an instruction.
type Op uint8

const (
	// OpRange matches one input byte b where lo <= b <= hi.
	OpRange Op = iota

	// OpClass matches the current byte against a named class. The
	// frontier bit makes it a zero-width transition that fires when the
	// previous and current bytes straddle the class boundary.
	OpClass

	// OpCapture is zero-width; it records the start or end of a capture
	// group at the current input position.
	OpCapture

	// OpMatch accepts, tagging the match with a pattern id.
	OpMatch

	// OpJmp transfers the executing thread to another pc.
	OpJmp

	// OpFork spawns a sibling thread at another pc; the current thread
	// continues at pc+1.
	OpFork

	opCount
)

const (
	opBits      = 3
	payloadBits = 32 - opBits
)

// opCount must fit in the opBits-wide opcode field.
const _ uint = 1<<opBits - uint(opCount)

// String returns the opcode mnemonic.
func (op Op) String() string {
	switch op {
	case OpRange:
		return "range"
	case OpClass:
		return "class"
	case OpCapture:
		return "capture"
	case OpMatch:
		return "match"
	case OpJmp:
		return "jmp"
	case OpFork:
		return "fork"
	default:
		return "invalid"
	}
}

// Insn is one 32-bit tagged instruction: the low 3 bits hold the
// opcode, the remaining 29 bits the opcode-specific payload. The
// encoding is an external contract of the VM.
type Insn uint32

func mkInsn(op Op, arg uint32) Insn {
	if op>>opBits != 0 {
		logging.Bugf("invalid op: %#x", uint8(op))
	}
	return Insn(arg<<opBits | uint32(op)&(1<<opBits-1))
}

// Op returns the instruction's opcode.
func (in Insn) Op() Op {
	return Op(in & (1<<opBits - 1))
}

// Arg returns the raw 29-bit payload.
func (in Insn) Arg() uint32 {
	return uint32(in) >> opBits
}

// NewRange returns an instruction matching one byte in [lo, hi].
// Bounds outside [0, 0xff] and inverted ranges are reported as bugs;
// overflowing bounds are clamped to 0xff.
func NewRange(lo, hi rune) Insn {
	if hi < lo {
		logging.Bugf("nonsensical range: hi %#02x < lo %#02x", hi, lo)
	}
	if lo>>8 != 0 {
		logging.Bugf("invalid lo: %#02x", lo)
		lo = 0xff
	}
	if hi>>8 != 0 {
		logging.Bugf("invalid hi: %#02x", hi)
		hi = 0xff
	}
	return mkInsn(OpRange, uint32(hi)<<8|uint32(lo))
}

// NewChar returns an instruction matching exactly the byte c.
func NewChar(c rune) Insn {
	return NewRange(c, c)
}

// NewClass returns an instruction matching the named class, with
// optional negation and frontier semantics.
func NewClass(neg, frontier bool, cc CClass) Insn {
	arg := uint32(cc) << 2
	if frontier {
		arg |= 2
	}
	if neg {
		arg |= 1
	}
	return mkInsn(OpClass, arg)
}

// NewCapture returns an instruction recording the start (end=false) or
// end (end=true) of capture group idx.
func NewCapture(end bool, idx int) Insn {
	arg := uint32(idx) << 1
	if end {
		arg |= 1
	}
	return mkInsn(OpCapture, arg)
}

// NewMatch returns an accepting instruction tagged with the pattern id.
// The id -1 is the fill value for unwritten program slots.
func NewMatch(id int) Insn {
	return mkInsn(OpMatch, uint32(id)&(1<<payloadBits-1))
}

// NewJmp returns an unconditional transfer to pc.
func NewJmp(pc int) Insn {
	return mkInsn(OpJmp, uint32(pc))
}

// NewFork returns a thread fork to pc.
func NewFork(pc int) Insn {
	return mkInsn(OpFork, uint32(pc))
}

// Range decodes an OpRange payload.
func (in Insn) Range() (lo, hi byte) {
	arg := in.Arg()
	return byte(arg), byte(arg >> 8)
}

// Class decodes an OpClass payload.
func (in Insn) Class() (neg, frontier bool, cc CClass) {
	arg := in.Arg()
	return arg&1 != 0, arg&2 != 0, CClass(arg >> 2)
}

// Capture decodes an OpCapture payload.
func (in Insn) Capture() (end bool, idx int) {
	arg := in.Arg()
	return arg&1 != 0, int(arg >> 1)
}

// MatchID decodes an OpMatch payload. The all-ones payload (the fill
// value for unwritten slots) decodes to -1.
func (in Insn) MatchID() int {
	arg := in.Arg()
	if arg == 1<<payloadBits-1 {
		return -1
	}
	return int(arg)
}

// PC decodes an OpJmp or OpFork target.
func (in Insn) PC() int {
	return int(in.Arg())
}
