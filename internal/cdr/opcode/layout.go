package opcode

// This file documents and implements the immediate-word layout that
// follows each instruction's first (packed) word, and the walk/validate
// pass that enforces the program's structural invariants.
//
// Per-kind immediate layout (word offsets are relative to the instruction's
// first word, which is word 0):
//
//	ADR, type primitive (BLN/1BY/2BY/4BY/8BY), STR:
//	  word[1] = NativeOffset
//	ADR, type ENU or BMK:
//	  word[1] = NativeOffset
//	  word[2] = DomainHigh (bitmask's high 32 allowed-bits mask, 0 for ENU)
//	  word[3] = DomainLow (bitmask's low 32 allowed-bits mask, or ENU's max
//	            ordinal value)
//	ADR, type BST (bounded string):
//	  word[1] = NativeOffset
//	  word[2] = Bound (max serialized length, including the terminating NUL)
//	ADR, type SEQ (unbounded sequence):
//	  word[1] = NativeOffset
//	  word[2] = ElementSize (native size of one element)
//	  word[3] = JumpRel (sub-program offset for non-primitive elements, else 0)
//	  word[4], word[5] = DomainHigh, DomainLow (only when the element subtype
//	            is ENU or BMK)
//	ADR, type BSQ (bounded sequence):
//	  word[1] = NativeOffset
//	  word[2] = Bound
//	  word[3] = ElementSize
//	  word[4] = JumpRel (0 for primitive elements)
//	  word[5], word[6] = DomainHigh, DomainLow (element subtype ENU/BMK only)
//	ADR, type ARR (array):
//	  word[1] = NativeOffset
//	  word[2] = ArrayLength
//	  word[3] = ElementSize
//	  word[4] = JumpRel (0 for primitive elements)
//	  word[5], word[6] = DomainHigh, DomainLow (element subtype ENU/BMK only)
//	ADR, type STU (nested inline struct) or EXT (pointer-indirected struct):
//	  word[1] = NativeOffset
//	  word[2] = JumpRel (sub-program start, relative to word 0)
//	  word[3] = ElementSize (size of the pointed-to record; EXT only, else 0)
//	ADR, type UNI (union):
//	  word[1] = NativeOffset (discriminant storage)
//	  Followed directly in the program by one or more JEQ4 instructions
//	  (the union's arms) and an optional DEF-flagged arm, until RTS.
//	JSR:
//	  word[1] = JumpRel (relative to word 0 of the JSR instruction)
//	RTS:
//	  (no immediates)
//	JEQ4 (arm of the immediately preceding ADR UNI):
//	  word[1] = Discriminant value
//	  word[2] = NativeOffset (arm value storage)
//	  word[3] = JumpRel (0 for a primitive arm value, processed inline using
//	            the JEQ4 instruction's own Type/Aux fields; nonzero for a
//	            composite arm, pointing at a one-field ADR program for it)
//	  word[4], word[5] = DomainHigh, DomainLow (only when JumpRel is 0 and the
//	            arm's Type is ENU or BMK)
//	KOF (precedes an EXT/STU ADR in a key-only program):
//	  word[1] = N, the number of offset-trail entries
//	  word[2..1+N] = member-index path through nested mutable members
//	PLM (member of the immediately preceding PLC):
//	  word[1] = JumpRel (member's own ADR program, relative to word 0)
//	  word[2] = MemberID
//	DLC, PLC:
//	  (no immediates; DLC/PLC mark that the following ADR/PLM run to RTS is
//	  respectively appendable-framed or mutable-framed)
const (
	immBase = 1 // all multi-word instructions start their immediates at word 1
)

// ImmediateCount returns the number of immediate words following the
// instruction word at p[pc], i.e. the instruction spans
// [pc, pc+1+ImmediateCount(p,pc)).
func ImmediateCount(p Program, pc int) int {
	insn := p.At(pc)
	switch insn.Kind() {
	case RTS, DLC, PLC:
		return 0
	case JSR:
		return 1
	case PLM:
		return 2
	case KOF:
		if pc+1 >= len(p) {
			Fault("opcode: KOF at pc=%d missing count word", pc)
		}
		return 1 + int(p[pc+1])
	case JEQ, JEQ4:
		n := 3
		if JumpRel(p, pc) == 0 && hasDomain(insn.Type()) {
			n += 2
		}
		return n
	case ADR:
		switch insn.Type() {
		case TBool, T1Byte, T2Byte, T4Byte, T8Byte, TString:
			return 1
		case TEnum, TBitmask:
			return 3
		case TBString:
			return 2
		case TSequence:
			n := 3
			if hasDomain(insn.SubType()) {
				n += 2
			}
			return n
		case TBSequence:
			n := 4
			if hasDomain(insn.SubType()) {
				n += 2
			}
			return n
		case TArray:
			n := 4
			if hasDomain(insn.SubType()) {
				n += 2
			}
			return n
		case TStruct:
			return 3
		case TExternal:
			return 3
		case TUnion:
			return 1
		default:
			Fault("opcode: ADR at pc=%d has unsupported type %s", pc, insn.Type())
		}
	}
	Fault("opcode: unsupported instruction kind %s at pc=%d", insn.Kind(), pc)
	return 0
}

// hasDomain reports whether typ carries DomainHigh/DomainLow immediates.
func hasDomain(typ TypeCode) bool { return typ == TEnum || typ == TBitmask }

// NativeOffset returns the ADR/JEQ4 field's offset immediate (word[1]).
func NativeOffset(p Program, pc int) uint32 { return p[pc+1] }

// DomainHigh returns the high-32-bits allowed mask immediate for a
// TEnum/TBitmask ADR, a TSequence/TBSequence/TArray ADR whose element
// subtype is TEnum/TBitmask, or an inline-primitive JEQ/JEQ4 arm of type
// TEnum/TBitmask. It is always 0 for TEnum (enums only bound the low word).
func DomainHigh(p Program, pc int) uint32 {
	insn := p.At(pc)
	switch insn.Kind() {
	case ADR:
		switch insn.Type() {
		case TEnum, TBitmask:
			return p[pc+2]
		case TSequence:
			return p[pc+4]
		case TBSequence, TArray:
			return p[pc+5]
		}
	case JEQ, JEQ4:
		return p[pc+4]
	}
	Fault("opcode: DomainHigh requested for non-domain instruction at pc=%d", pc)
	return 0
}

// DomainLow returns the low-32-bits allowed mask immediate for a bitmask,
// or the maximum ordinal value for an enum, at the same sites DomainHigh
// covers.
func DomainLow(p Program, pc int) uint32 {
	insn := p.At(pc)
	switch insn.Kind() {
	case ADR:
		switch insn.Type() {
		case TEnum, TBitmask:
			return p[pc+3]
		case TSequence:
			return p[pc+5]
		case TBSequence, TArray:
			return p[pc+6]
		}
	case JEQ, JEQ4:
		return p[pc+5]
	}
	Fault("opcode: DomainLow requested for non-domain instruction at pc=%d", pc)
	return 0
}

// EnumMax returns an enum ADR/arm's declared maximum ordinal value.
func EnumMax(p Program, pc int) uint32 { return DomainLow(p, pc) }

// BitmaskAllowed returns a bitmask ADR/arm's declared high/low allowed-bits
// masks.
func BitmaskAllowed(p Program, pc int) (high, low uint32) {
	return DomainHigh(p, pc), DomainLow(p, pc)
}

// Bound returns the declared bound immediate for a TBString/TBSequence ADR.
func Bound(p Program, pc int) uint32 { return p[pc+2] }

// ElementSize returns the element-size immediate for a SEQ/BSQ/ARR ADR.
func ElementSize(p Program, pc int) uint32 {
	switch p.At(pc).Type() {
	case TSequence:
		return p[pc+2]
	case TBSequence, TArray:
		return p[pc+3]
	default:
		Fault("opcode: ElementSize requested for non-collection at pc=%d", pc)
		return 0
	}
}

// ArrayLength returns the element count immediate for a TArray ADR.
func ArrayLength(p Program, pc int) uint32 { return p[pc+2] }

// JumpRel returns the relative sub-program offset immediate for the
// instructions that carry one (JSR, composite ADR, composite JEQ4, PLM).
func JumpRel(p Program, pc int) int {
	insn := p.At(pc)
	switch insn.Kind() {
	case JSR:
		return int(p[pc+1])
	case PLM:
		return int(p[pc+1])
	case JEQ, JEQ4:
		return int(p[pc+3])
	case ADR:
		switch insn.Type() {
		case TSequence:
			return int(p[pc+3])
		case TBSequence, TArray:
			return int(p[pc+4])
		case TStruct, TExternal:
			return int(p[pc+2])
		default:
			Fault("opcode: JumpRel requested for non-jumping ADR at pc=%d", pc)
		}
	}
	Fault("opcode: JumpRel requested for non-jumping instruction at pc=%d", pc)
	return 0
}

// MemberID returns the PLM member-id immediate (word[2]).
func MemberID(p Program, pc int) uint32 { return p[pc+2] }

// JEQDiscriminant returns the discriminant value a JEQ4 arm matches.
func JEQDiscriminant(p Program, pc int) uint32 { return p[pc+1] }

// JEQNativeOffset returns a JEQ4 arm's value-storage offset.
func JEQNativeOffset(p Program, pc int) uint32 { return p[pc+2] }

// KOFPath returns the member-index offset trail recorded by a KOF
// instruction.
func KOFPath(p Program, pc int) []uint32 {
	n := int(p[pc+1])
	return p[pc+2 : pc+2+n]
}

// Next returns the program counter of the instruction following pc.
func Next(p Program, pc int) int { return pc + 1 + ImmediateCount(p, pc) }

// Validate walks p from pc 0 and enforces the program's structural
// invariants: every program terminates at RTS at its nesting level, and
// every JSR/jump target lies within bounds. Where key-flagged operations
// appear is not checked. It returns the first violation found, or nil.
// Unlike Fault, Validate reports rather than panics; it runs over an
// opcode-generator's output (e.g. in tests) before the program is trusted
// into the interpreter's hot path.
func Validate(p Program) error {
	return validateRange(p, 0, len(p), make(map[int]bool))
}

func validateRange(p Program, start, end int, visited map[int]bool) error {
	pc := start
	for pc < end {
		if pc < 0 || pc >= len(p) {
			return &ValidationError{PC: pc, Reason: "program counter out of bounds"}
		}
		insn := p.At(pc)
		switch insn.Kind() {
		case RTS:
			return nil
		case DLC, PLC:
			pc = Next(p, pc)
			continue
		case JSR:
			target := pc + JumpRel(p, pc)
			if target < 0 || target >= len(p) {
				return &ValidationError{PC: pc, Reason: "JSR target out of bounds"}
			}
			if !visited[target] {
				visited[target] = true
				if err := validateRange(p, target, len(p), visited); err != nil {
					return err
				}
			}
		case ADR:
			if err := validateADR(p, pc, visited); err != nil {
				return err
			}
			if insn.Type() == TUnion {
				npc, err := validateUnionArms(p, Next(p, pc), visited)
				if err != nil {
					return err
				}
				pc = npc
				continue
			}
		case PLM:
			target := pc + JumpRel(p, pc)
			if target < 0 || target >= len(p) {
				return &ValidationError{PC: pc, Reason: "PLM target out of bounds"}
			}
			if insn.HasFlag(FlagBase) {
				// A base-type PLM's target is the base's own PLC
				// (member-list header), not a plain ADR; the derived
				// program splices the base's member list in by
				// reference instead of repeating it.
				if p.At(target).Kind() != PLC {
					return &ValidationError{PC: pc, Reason: "base PLM target is not a PLC"}
				}
				if !visited[target] {
					visited[target] = true
					if err := validateRange(p, Next(p, target), len(p), visited); err != nil {
						return err
					}
				}
			} else {
				if p.At(target).Kind() != ADR {
					return &ValidationError{PC: pc, Reason: "PLM target is not an ADR"}
				}
				if !visited[target] {
					visited[target] = true
					if err := validateADR(p, target, visited); err != nil {
						return err
					}
					if p.At(target).Type() == TUnion {
						if _, err := validateUnionArms(p, Next(p, target), visited); err != nil {
							return err
						}
					}
				}
			}
		case KOF:
			// offset trail only, nothing to recurse into here
		default:
			return &ValidationError{PC: pc, Reason: "unexpected top-level kind " + insn.Kind().String()}
		}
		pc = Next(p, pc)
	}
	return &ValidationError{PC: pc, Reason: "program did not terminate with RTS"}
}

func validateADR(p Program, pc int, visited map[int]bool) error {
	insn := p.At(pc)
	if insn.Type() == TStruct || insn.Type() == TExternal {
		target := pc + JumpRel(p, pc)
		if target < 0 || target >= len(p) {
			return &ValidationError{PC: pc, Reason: "nested composite target out of bounds"}
		}
		if !visited[target] {
			visited[target] = true
			if err := validateRange(p, target, len(p), visited); err != nil {
				return err
			}
		}
	}
	if insn.Type().IsCollection() && insn.SubType().IsComposite() {
		target := pc + JumpRel(p, pc)
		if target < 0 || target >= len(p) {
			return &ValidationError{PC: pc, Reason: "collection element program out of bounds"}
		}
		if !visited[target] {
			visited[target] = true
			if err := validateRange(p, target, len(p), visited); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateUnionArms scans the JEQ4 chain following a UNI ADR and returns
// the program counter just past the chain (at RTS or the next sibling ADR).
func validateUnionArms(p Program, pc int, visited map[int]bool) (int, error) {
	sawDefault := false
	for pc < len(p) {
		insn := p.At(pc)
		if insn.Kind() != JEQ4 && insn.Kind() != JEQ {
			return pc, nil
		}
		if insn.HasFlag(FlagDefault) {
			if sawDefault {
				return pc, &ValidationError{PC: pc, Reason: "union has more than one default arm"}
			}
			sawDefault = true
		}
		if JumpRel(p, pc) != 0 {
			target := pc + JumpRel(p, pc)
			if target < 0 || target >= len(p) {
				return pc, &ValidationError{PC: pc, Reason: "union arm target out of bounds"}
			}
			if !visited[target] {
				visited[target] = true
				if err := validateRange(p, target, len(p), visited); err != nil {
					return pc, err
				}
			}
		}
		pc = Next(p, pc)
	}
	return pc, nil
}

// ValidationError reports a program-invariant violation found by
// Validate.
type ValidationError struct {
	PC     int
	Reason string
}

func (e *ValidationError) Error() string {
	return "opcode: invalid program at pc=" + itoa(e.PC) + ": " + e.Reason
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
