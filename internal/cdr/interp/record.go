// Package interp implements the operation-program interpreter: the
// functions that walk an opcode.Program against a native record to
// serialize it, deserialize into it, normalize a buffer in place, skip a
// default-valued instance, free sample-owned resources, print a
// human-readable dump, count operations, and determine the minimum XCDR
// version a program requires.
//
// A reference CDR interpreter walks raw struct memory by adding a byte
// offset to a base pointer. Go gives no safe, portable way to do that
// without unsafe, so this package addresses native storage through
// the Record interface instead: every ADR/JEQ4 instruction's NativeOffset
// immediate becomes a field key a Record resolves to a typed accessor.
// Generated or hand-written types can implement Record directly for a
// reflection-free hot path; reflectrecord.go supplies a default
// implementation over a plain tagged struct for programs built without
// codegen.
package interp

import "github.com/ddsx/cdrstream/internal/cdr/opcode"

// Record is the native-storage accessor the interpreter addresses through
// an ADR instruction's NativeOffset immediate. Offsets are opaque keys
// assigned by whatever produced the opcode program (typically matching a
// generated struct's field index); a Record implementation need only be
// internally consistent with the program it is paired with.
type Record interface {
	// Bool, Byte, U16, U32, U64, F32, F64 get/set a primitive field.
	Bool(offset uint32) bool
	SetBool(offset uint32, v bool)
	Byte(offset uint32) uint8
	SetByte(offset uint32, v uint8)
	U16(offset uint32) uint16
	SetU16(offset uint32, v uint16)
	U32(offset uint32) uint32
	SetU32(offset uint32, v uint32)
	U64(offset uint32) uint64
	SetU64(offset uint32, v uint64)
	F32(offset uint32) float32
	SetF32(offset uint32, v float32)
	F64(offset uint32) float64
	SetF64(offset uint32, v float64)

	// String gets/sets a string-valued field.
	String(offset uint32) string
	SetString(offset uint32, v string)

	// Sequence returns the collection accessor rooted at offset, growing
	// or truncating it to n elements as requested by the interpreter
	// before a read, or reporting its current length before a write.
	Sequence(offset uint32) Sequence

	// Nested returns the Record for a nested struct/union/external member
	// at offset. For TExternal fields the returned Record corresponds to
	// the pointed-to record; Nested is responsible for allocating it on
	// first write-side access if the implementation represents externals
	// as pointers that start nil.
	Nested(offset uint32) Record

	// Discriminant gets/sets a union's discriminant storage.
	Discriminant(offset uint32) uint32
	SetDiscriminant(offset uint32, v uint32)

	// Present reports/sets whether an @optional field at offset is present.
	Present(offset uint32) bool
	SetPresent(offset uint32, v bool)
}

// Sequence is the accessor for a sequence, bounded sequence, or array
// field. Index i is 0-based.
type Sequence interface {
	Len() int
	// Resize grows or truncates the collection to n elements ahead of a
	// read; for arrays (fixed length) it is a no-op validation that n
	// equals the array's declared length.
	Resize(n int)

	Bool(i int) bool
	SetBool(i int, v bool)
	Byte(i int) uint8
	SetByte(i int, v uint8)
	U16(i int) uint16
	SetU16(i int, v uint16)
	U32(i int) uint32
	SetU32(i int, v uint32)
	U64(i int) uint64
	SetU64(i int, v uint64)
	F32(i int) float32
	SetF32(i int, v float32)
	F64(i int) float64
	SetF64(i int, v float64)
	String(i int) string
	SetString(i int, v string)
	Element(i int) Record
}

// FlatRecord is an optional extension a Record implementation can provide
// when its underlying storage is a contiguous byte-addressable buffer
// matching the native sizes/alignments the opcode program was generated
// against. When present, and the type's opt_size flag is set (no unions
// anywhere in the type, see opcode.Flag docs and DESIGN.md's opt_size
// resolution), pkg/serdata's ToSample uses RawBytes for a single bulk copy
// instead of walking the program field by field, provided the payload
// length equals the opt size. interp's own Write and Read never use it.
type FlatRecord interface {
	Record
	// RawBytes returns the record's backing storage as a byte slice of
	// exactly the native size the type descriptor declares.
	RawBytes() []byte
}

// zeroFields clears every field the program range starting at pc
// references, by walking it and calling the matching Set* with a zero
// value. Its callers are readMutableBody, SkipDefault, FreeSample, and
// zeroUnionArms (which readUnion uses to leave the target zeroed when no
// arm matches and there is no default).
func zeroFields(p opcode.Program, pc int, rec Record) {
	for pc < len(p) {
		insn := p.At(pc)
		switch insn.Kind() {
		case opcode.RTS:
			return
		case opcode.DLC, opcode.PLC:
			pc = opcode.Next(p, pc)
			continue
		case opcode.PLM:
			target := pc + opcode.JumpRel(p, pc)
			if insn.HasFlag(opcode.FlagBase) {
				// target is the base type's own PLC; recurse into its
				// member list instead of treating target as an ADR.
				zeroFields(p, opcode.Next(p, target), rec)
			} else {
				zeroADR(p, target, opcode.NativeOffset(p, target), rec)
			}
		case opcode.ADR:
			off := opcode.NativeOffset(p, pc)
			zeroADR(p, pc, off, rec)
		}
		pc = opcode.Next(p, pc)
	}
}

func zeroADR(p opcode.Program, pc int, off uint32, rec Record) {
	insn := p.At(pc)
	if insn.HasFlag(opcode.FlagOptional) {
		rec.SetPresent(off, false)
	}
	switch insn.Type() {
	case opcode.TBool:
		rec.SetBool(off, false)
	case opcode.T1Byte:
		rec.SetByte(off, 0)
	case opcode.T2Byte:
		rec.SetU16(off, 0)
	case opcode.T4Byte:
		if insn.HasFlag(opcode.FlagFP) {
			rec.SetF32(off, 0)
		} else {
			rec.SetU32(off, 0)
		}
	case opcode.T8Byte:
		if insn.HasFlag(opcode.FlagFP) {
			rec.SetF64(off, 0)
		} else {
			rec.SetU64(off, 0)
		}
	case opcode.TEnum, opcode.TBitmask:
		rec.SetU64(off, 0)
	case opcode.TString, opcode.TBString:
		rec.SetString(off, "")
	case opcode.TSequence, opcode.TBSequence, opcode.TArray:
		rec.Sequence(off).Resize(0)
	case opcode.TStruct:
		target := pc + opcode.JumpRel(p, pc)
		zeroFields(p, target, rec.Nested(off))
	case opcode.TExternal:
		rec.SetPresent(off, false)
	case opcode.TUnion:
		// Clear every arm's own storage, not just the discriminant: each
		// arm is a separate field (reflectrecord.go's "one tagged field
		// per arm" layout), so whichever arm was last active still holds
		// a live string/sequence/external reference until its own field
		// is reset too.
		zeroUnionArms(p, opcode.Next(p, pc), rec)
		rec.SetDiscriminant(off, 0)
	}
}
