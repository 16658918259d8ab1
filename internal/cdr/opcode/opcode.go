// Package opcode defines the operation-program instruction set the CDR
// interpreter walks to serialize, deserialize, skip, normalize, and print
// records of structurally complex types.
//
// A Program is a flat, read-only sequence of 32-bit words. The first word
// of every instruction packs a primary instruction kind, a type code, an
// auxiliary byte (element subtype for collections, or the declared wire
// size for enums/bitmasks), and a flag set; it is followed by zero or more
// immediate words whose count and meaning are fixed by the kind/type pair
// (see ImmediateCount). This mirrors the shape CycloneDDS's dds_cdrstream.c
// walks (a flat uint32_t array with inline immediates) rather than a
// tree of heap-allocated instruction nodes, so program validation and
// disassembly can run without allocating per-instruction.
package opcode

import "fmt"

// Instr is a single packed instruction word.
type Instr uint32

// Kind is the primary instruction kind, held in bits [0:8).
type Kind uint8

const (
	_ Kind = iota
	ADR      // process a field at a native offset
	JSR      // jump to a sub-program, returning on RTS
	RTS      // return from the current sub-program
	JEQ      // union case dispatch (discriminant occupies 1 byte/word, legacy form)
	JEQ4     // union case dispatch with a 4-byte discriminant
	KOF      // key-offset path, used when re-encoding a key through nested members
	PLM      // parameter-list member, used inside a PLC sub-program
	DLC      // delimited container marker: the following ADR sequence is DHEADER-framed
	PLC      // parameter-list container marker: the following PLM sequence is mutable
)

func (k Kind) String() string {
	switch k {
	case ADR:
		return "ADR"
	case JSR:
		return "JSR"
	case RTS:
		return "RTS"
	case JEQ:
		return "JEQ"
	case JEQ4:
		return "JEQ4"
	case KOF:
		return "KOF"
	case PLM:
		return "PLM"
	case DLC:
		return "DLC"
	case PLC:
		return "PLC"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// TypeCode names the semantic type of the value an ADR/JEQ4 instruction
// addresses, held in bits [8:16).
type TypeCode uint8

const (
	_ TypeCode = iota
	TBool
	T1Byte
	T2Byte
	T4Byte
	T8Byte
	TString    // unbounded string
	TBString   // bounded string
	TEnum
	TBitmask
	TSequence  // unbounded sequence
	TBSequence // bounded sequence
	TArray
	TUnion
	TStruct
	TExternal // pointer-indirected nested composite
)

func (t TypeCode) String() string {
	names := [...]string{"", "BLN", "1BY", "2BY", "4BY", "8BY", "STR", "BST",
		"ENU", "BMK", "SEQ", "BSQ", "ARR", "UNI", "STU", "EXT"}
	if int(t) < len(names) {
		return names[t]
	}
	return fmt.Sprintf("TypeCode(%d)", uint8(t))
}

// IsPrimitive reports whether t is a fixed-size leaf value (bool, 1/2/4/8
// byte integer, enum, or bitmask) as opposed to a string or collection.
func (t TypeCode) IsPrimitive() bool {
	switch t {
	case TBool, T1Byte, T2Byte, T4Byte, T8Byte, TEnum, TBitmask:
		return true
	default:
		return false
	}
}

// IsCollection reports whether t is a sequence or array.
func (t TypeCode) IsCollection() bool {
	switch t {
	case TSequence, TBSequence, TArray:
		return true
	default:
		return false
	}
}

// IsComposite reports whether t recurses into a sub-program.
func (t TypeCode) IsComposite() bool {
	switch t {
	case TStruct, TUnion, TExternal:
		return true
	default:
		return false
	}
}

// PrimitiveSize returns the wire/native size in bytes of a primitive type
// code. It panics for non-primitive codes; callers must check IsPrimitive
// first, treating an unsupported opcode combination as a programmer
// error.
func (t TypeCode) PrimitiveSize() uint32 {
	switch t {
	case TBool, T1Byte:
		return 1
	case T2Byte:
		return 2
	case T4Byte:
		return 4
	case T8Byte:
		return 8
	default:
		Fault("opcode: PrimitiveSize called on non-primitive type %s", t)
		return 0
	}
}

// Flag is the per-instruction flag set, held in bits [24:32).
type Flag uint8

const (
	FlagKey Flag = 1 << iota
	FlagOptional
	FlagExternal
	FlagMustUnderstand
	FlagFP
	FlagSigned
	FlagBase
	FlagDefault
)

func (f Flag) String() string {
	if f == 0 {
		return "-"
	}
	var names []string
	for bit, name := range map[Flag]string{
		FlagKey: "KEY", FlagOptional: "OPT", FlagExternal: "EXT",
		FlagMustUnderstand: "MU", FlagFP: "FP", FlagSigned: "SGN",
		FlagBase: "BASE", FlagDefault: "DEF",
	} {
		if f&bit != 0 {
			names = append(names, name)
		}
	}
	s := ""
	for i, n := range names {
		if i > 0 {
			s += "|"
		}
		s += n
	}
	return s
}

// MakeInstr packs an instruction word. aux is the element subtype code for
// collections/unions or the size-exponent (0..3 for 1/2/4/8 bytes) for
// enums and bitmasks.
func MakeInstr(kind Kind, typ TypeCode, aux uint8, flags Flag) Instr {
	return Instr(uint32(kind) | uint32(typ)<<8 | uint32(aux)<<16 | uint32(flags)<<24)
}

// Kind returns the instruction's primary kind.
func (i Instr) Kind() Kind { return Kind(i & 0xff) }

// Type returns the instruction's type code.
func (i Instr) Type() TypeCode { return TypeCode((i >> 8) & 0xff) }

// Aux returns the raw auxiliary byte.
func (i Instr) Aux() uint8 { return uint8((i >> 16) & 0xff) }

// SubType reinterprets Aux as a collection element type code.
func (i Instr) SubType() TypeCode { return TypeCode(i.Aux()) }

// TypeSize reinterprets Aux as an enum/bitmask wire size exponent and
// returns the size in bytes (1, 2, 4, or 8).
func (i Instr) TypeSize() uint32 {
	exp := i.Aux()
	if exp > 3 {
		Fault("opcode: invalid type-size exponent %d", exp)
	}
	return uint32(1) << exp
}

// Flags returns the instruction's flag set.
func (i Instr) Flags() Flag { return Flag((i >> 24) & 0xff) }

// HasFlag reports whether f is set on i.
func (i Instr) HasFlag(f Flag) bool { return i.Flags()&f != 0 }

// Program is a flat, read-only operation program: a sequence of 32-bit
// words with the first word of each instruction followed by its immediate
// operands. See layout.go for the per-kind immediate layout.
type Program []uint32

// At returns the instruction word at pc.
func (p Program) At(pc int) Instr { return Instr(p[pc]) }

// Fault reports a programmer error: a malformed program, an impossible
// union case, or an unsupported opcode combination. These correspond to
// bugs in the opcode generator, never to user input, so the program
// aborts rather than returning an error value.
func Fault(format string, args ...any) {
	panic(&ProgramFault{Message: fmt.Sprintf(format, args...)})
}

// ProgramFault is the panic value raised by Fault. internal/cdr/interp's
// exported entry points re-panic it unchanged; they never convert it into
// a recoverable error. Fault leaves PC at zero.
type ProgramFault struct {
	Message string
	PC      int
}

func (f *ProgramFault) Error() string {
	return fmt.Sprintf("cdr: program fault at pc=%d: %s", f.PC, f.Message)
}
