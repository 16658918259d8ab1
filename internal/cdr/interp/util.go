package interp

import "github.com/ddsx/cdrstream/internal/cdr/opcode"

// CountOps returns the program's length in 32-bit words.
func CountOps(p opcode.Program) int {
	return len(p)
}

// MinimumXCDRVersion scans p for features that require XCDR2 — @optional
// members, MUTABLE/APPENDABLE framing (PLC/DLC), and enum/bitmask wire
// sizes other than the XCDR1-only 4-byte width — and returns 2 if any are
// present anywhere in p or a reachable sub-program, else 1.
func MinimumXCDRVersion(p opcode.Program) int {
	visited := make(map[int]bool)
	var walk func(pc int) bool
	walk = func(pc int) bool {
		for pc < len(p) {
			if visited[pc] {
				return false
			}
			visited[pc] = true
			insn := p.At(pc)
			switch insn.Kind() {
			case opcode.RTS:
				return false
			case opcode.DLC, opcode.PLC:
				return true
			case opcode.JSR, opcode.PLM:
				if walk(pc + opcode.JumpRel(p, pc)) {
					return true
				}
			case opcode.ADR:
				if insn.HasFlag(opcode.FlagOptional) {
					return true
				}
				if (insn.Type() == opcode.TEnum || insn.Type() == opcode.TBitmask) && insn.TypeSize() != 4 {
					return true
				}
				if insn.Type() == opcode.TStruct || insn.Type() == opcode.TExternal {
					if walk(pc + opcode.JumpRel(p, pc)) {
						return true
					}
				}
				if insn.Type().IsCollection() && insn.SubType().IsComposite() {
					if walk(pc + opcode.JumpRel(p, pc)) {
						return true
					}
				}
			case opcode.JEQ, opcode.JEQ4:
				if opcode.JumpRel(p, pc) != 0 {
					if walk(pc + opcode.JumpRel(p, pc)) {
						return true
					}
				}
			}
			pc = opcode.Next(p, pc)
		}
		return false
	}
	if walk(0) {
		return 2
	}
	return 1
}
