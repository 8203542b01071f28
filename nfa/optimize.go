package nfa

import (
	"github.com/coregx/nfavm/internal/bitset"
	"github.com/coregx/nfavm/internal/logging"
)

// Optimize rewrites the program in place. Run it after all patterns
// have been added. Three passes:
//
//  1. Jump threading: a JMP or FORK whose target is a JMP is rewritten
//     to the terminal non-JMP pc of the chain.
//  2. Initial fork splitting: an entry point holding a FORK is replaced
//     by entry points at pc+1 and at the fork target, so a pattern
//     union behaves as parallel starts.
//  3. Reachability: instructions not reachable from any entry point are
//     flagged in their trace info. They are never removed; instruction
//     indices stay stable.
func (p *Program) Optimize() {
	p.threadJumps()
	p.splitInitialForks()
	p.flagUnreachable()
}

func (p *Program) threadJumps() {
	n := len(p.insns)
	for pc := 0; pc < n; pc++ {
		insn := p.insns[pc]
		op := insn.Op()
		if op != OpJmp && op != OpFork {
			continue
		}

		// Follow the chain of JMPs, bounded by the program length so a
		// JMP loop cannot hang the pass.
		dst := insn.PC()
		loop := true
		for i := 0; i < n; i++ {
			if dst >= n {
				logging.Bugf("invalid pc: %#x/%#x", dst, n)
				loop = false
				break
			}
			next := p.insns[dst]
			if next.Op() != OpJmp {
				loop = false
				break
			}
			dst = next.PC()
		}
		if loop {
			logging.Bugf("loop of jmps @ %#x", pc)
			continue
		}
		if dst != insn.PC() {
			logging.Debugf(1, "thread %#x %v %#x -> %#x", pc, op, insn.PC(), dst)
			p.Put(pc, mkInsn(op, uint32(dst)))
		}
	}
}

func (p *Program) splitInitialForks() {
	for pc := 0; pc < len(p.insns); pc++ {
		if !p.thrInit.Contains(pc) {
			continue
		}
		insn := p.insns[pc]
		if insn.Op() != OpFork {
			continue
		}
		target := insn.PC()
		if target >= len(p.insns) {
			logging.Bugf("invalid pc: %#x/%#x", target, len(p.insns))
			continue
		}
		logging.Debugf(1, "split initial %#x fork %#x", pc, target)
		p.thrInit.Remove(pc)
		p.thrInit.Insert(pc + 1)
		p.thrInit.Insert(target)
	}
}

func (p *Program) markReachable(reachable *bitset.Set, pc int) {
	for pc < len(p.insns) && !reachable.Contains(pc) {
		reachable.Insert(pc)
		insn := p.insns[pc]
		pc++
		switch insn.Op() {
		case OpJmp:
			pc = insn.PC()
		case OpFork:
			p.markReachable(reachable, insn.PC())
		case OpMatch:
			return
		}
	}
}

func (p *Program) flagUnreachable() {
	reachable := bitset.New(len(p.insns))
	for pc := 0; pc < len(p.insns); pc++ {
		if p.thrInit.Contains(pc) {
			p.markReachable(reachable, pc)
		}
	}
	for pc := 0; pc < len(p.insns); pc++ {
		if reachable.Contains(pc) {
			continue
		}
		insn := p.insns[pc]
		logging.Debugf(1, "unreachable: %#x %v %#x", pc, insn.Op(), insn.Arg())
		p.SetDebug(pc, SpanOf("unreachable"), p.trace[pc].Match)
	}
}
