package interp

import (
	"math"

	"github.com/ddsx/cdrstream/internal/cdr/opcode"
	"github.com/ddsx/cdrstream/internal/cdr/stream"
	"github.com/ddsx/cdrstream/pkg/cdrerrors"
)

// Write serializes rec onto out by walking p from the top. It is the
// public entry point other packages call. An opcode.ProgramFault raised by
// a malformed program is re-panicked unchanged (no context is added to
// it), per SPEC_FULL.md §2.2's programmer-error policy (a malformed
// program is never downgraded to a recoverable error).
func Write(p opcode.Program, rec Record, out *stream.Output) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if pf, ok := r.(*opcode.ProgramFault); ok {
				panic(pf)
			}
			panic(r)
		}
	}()
	_, err = writeRange(p, 0, rec, out)
	return err
}

// writeRange walks p starting at pc until RTS, returning the pc just past
// the RTS.
func writeRange(p opcode.Program, pc int, rec Record, out *stream.Output) (int, error) {
	for {
		insn := p.At(pc)
		switch insn.Kind() {
		case opcode.RTS:
			return opcode.Next(p, pc), nil
		case opcode.DLC:
			if err := writeAppendableBody(p, opcode.Next(p, pc), rec, out); err != nil {
				return 0, err
			}
			return skipToRTS(p, opcode.Next(p, pc)), nil
		case opcode.PLC:
			if err := writeMutableBody(p, opcode.Next(p, pc), rec, out); err != nil {
				return 0, err
			}
			// writeMutableBody consumes to its own RTS; find it again so
			// the caller's pc bookkeeping matches a plain program walk.
			return skipToRTS(p, opcode.Next(p, pc)), nil
		case opcode.ADR:
			if err := writeADR(p, pc, rec, out); err != nil {
				return 0, cdrerrors.At(err, out.Len())
			}
		default:
			opcode.Fault("interp.Write: unexpected top-level kind %s at pc=%d", insn.Kind(), pc)
		}
		if insn.Kind() == opcode.ADR && insn.Type() == opcode.TUnion {
			var err error
			pc, err = skipUnionArms(p, opcode.Next(p, pc))
			if err != nil {
				return 0, err
			}
			continue
		}
		pc = opcode.Next(p, pc)
	}
}

func skipToRTS(p opcode.Program, pc int) int {
	for p.At(pc).Kind() != opcode.RTS {
		pc = opcode.Next(p, pc)
	}
	return opcode.Next(p, pc)
}

// skipUnionArms advances past a JEQ4 chain without processing it (used by
// writeRange/readRange's main loop, which dispatches union arms itself in
// writeUnion/readUnion).
func skipUnionArms(p opcode.Program, pc int) (int, error) {
	for pc < len(p) {
		k := p.At(pc).Kind()
		if k != opcode.JEQ && k != opcode.JEQ4 {
			return pc, nil
		}
		pc = opcode.Next(p, pc)
	}
	return pc, nil
}

func writeADR(p opcode.Program, pc int, rec Record, out *stream.Output) error {
	insn := p.At(pc)
	off := opcode.NativeOffset(p, pc)

	if insn.HasFlag(opcode.FlagOptional) {
		present := rec.Present(off)
		out.PutBool(present)
		if !present {
			return nil
		}
	}

	switch insn.Type() {
	case opcode.TBool:
		out.PutBool(rec.Bool(off))
	case opcode.T1Byte:
		out.PutByte(rec.Byte(off))
	case opcode.T2Byte:
		out.PutUint16(rec.U16(off))
	case opcode.T4Byte:
		if insn.HasFlag(opcode.FlagFP) {
			out.PutUint32(math.Float32bits(rec.F32(off)))
		} else {
			out.PutUint32(rec.U32(off))
		}
	case opcode.T8Byte:
		if insn.HasFlag(opcode.FlagFP) {
			out.PutUint64(math.Float64bits(rec.F64(off)))
		} else {
			out.PutUint64(rec.U64(off))
		}
	case opcode.TEnum, opcode.TBitmask:
		val := rec.U64(off)
		high, low := opcode.BitmaskAllowed(p, pc)
		if err := checkDomain(insn.Type(), high, low, val); err != nil {
			return err
		}
		writeSizedInt(out, val, insn.TypeSize())
	case opcode.TString:
		writeString(out, rec.String(off))
	case opcode.TBString:
		bound := opcode.Bound(p, pc)
		s := rec.String(off)
		if uint32(len(s)+1) > bound {
			return cdrerrors.ErrBoundOverflow
		}
		writeString(out, s)
	case opcode.TSequence:
		return writeSequence(p, pc, off, rec, out, false, 0)
	case opcode.TBSequence:
		bound := opcode.Bound(p, pc)
		return writeSequence(p, pc, off, rec, out, true, bound)
	case opcode.TArray:
		return writeArray(p, pc, off, rec, out)
	case opcode.TStruct:
		if err := out.EnterNested(); err != nil {
			return err
		}
		defer out.ExitNested()
		target := pc + opcode.JumpRel(p, pc)
		_, err := writeRange(p, target, rec.Nested(off), out)
		return err
	case opcode.TExternal:
		present := rec.Present(off)
		if !present {
			opcode.Fault("interp.Write: external field at pc=%d has no value", pc)
		}
		if err := out.EnterNested(); err != nil {
			return err
		}
		defer out.ExitNested()
		target := pc + opcode.JumpRel(p, pc)
		_, err := writeRange(p, target, rec.Nested(off), out)
		return err
	case opcode.TUnion:
		return writeUnion(p, pc, off, rec, out)
	default:
		opcode.Fault("interp.Write: unsupported ADR type %s at pc=%d", insn.Type(), pc)
	}
	return nil
}

func writeSizedInt(out *stream.Output, v uint64, size uint32) {
	switch size {
	case 1:
		out.PutByte(uint8(v))
	case 2:
		out.PutUint16(uint16(v))
	case 4:
		out.PutUint32(uint32(v))
	case 8:
		out.PutUint64(v)
	default:
		opcode.Fault("interp: invalid sized-int width %d", size)
	}
}

func writeString(out *stream.Output, s string) {
	b := []byte(s)
	out.PutUint32(uint32(len(b) + 1))
	out.WriteBytes(append(b, 0), 1)
}

func writeElementPrimitive(p opcode.Program, pc int, typ opcode.TypeCode, seq Sequence, i int, out *stream.Output) error {
	fp := p.At(pc).HasFlag(opcode.FlagFP)
	switch typ {
	case opcode.TBool:
		out.PutBool(seq.Bool(i))
	case opcode.T1Byte:
		out.PutByte(seq.Byte(i))
	case opcode.T2Byte:
		out.PutUint16(seq.U16(i))
	case opcode.T4Byte:
		if fp {
			out.PutUint32(math.Float32bits(seq.F32(i)))
		} else {
			out.PutUint32(seq.U32(i))
		}
	case opcode.T8Byte:
		if fp {
			out.PutUint64(math.Float64bits(seq.F64(i)))
		} else {
			out.PutUint64(seq.U64(i))
		}
	case opcode.TEnum, opcode.TBitmask:
		val := uint64(seq.U32(i))
		high, low := opcode.BitmaskAllowed(p, pc)
		if err := checkDomain(typ, high, low, val); err != nil {
			return err
		}
		writeSizedInt(out, val, opcode.ElementSize(p, pc))
	case opcode.TString:
		writeString(out, seq.String(i))
	default:
		opcode.Fault("interp: unsupported primitive element type %s", typ)
	}
	return nil
}

func writeSequence(p opcode.Program, pc int, off uint32, rec Record, out *stream.Output, bounded bool, bound uint32) error {
	insn := p.At(pc)
	sub := insn.SubType()
	seq := rec.Sequence(off)
	n := seq.Len()
	if bounded && uint32(n) > bound {
		return cdrerrors.ErrBoundOverflow
	}

	needsDHeader := out.Version() == stream.XCDR2 && !sub.IsPrimitive()
	var dheaderOff int
	if needsDHeader {
		dheaderOff = out.WriteDHeaderPlaceholder()
	}
	out.PutUint32(uint32(n))

	if sub.IsComposite() {
		if err := out.EnterNested(); err != nil {
			return err
		}
		defer out.ExitNested()
		target := pc + opcode.JumpRel(p, pc)
		for i := 0; i < n; i++ {
			if _, err := writeRange(p, target, seq.Element(i), out); err != nil {
				return err
			}
		}
	} else {
		for i := 0; i < n; i++ {
			if err := writeElementPrimitive(p, pc, sub, seq, i, out); err != nil {
				return err
			}
		}
	}

	if needsDHeader {
		out.PatchDHeader(dheaderOff)
	}
	return nil
}

func writeArray(p opcode.Program, pc int, off uint32, rec Record, out *stream.Output) error {
	insn := p.At(pc)
	sub := insn.SubType()
	length := int(opcode.ArrayLength(p, pc))
	seq := rec.Sequence(off)
	if seq.Len() != length {
		opcode.Fault("interp.Write: array at pc=%d has length %d, program declares %d", pc, seq.Len(), length)
	}

	needsDHeader := out.Version() == stream.XCDR2 && !sub.IsPrimitive()
	var dheaderOff int
	if needsDHeader {
		dheaderOff = out.WriteDHeaderPlaceholder()
	}

	if sub.IsComposite() {
		if err := out.EnterNested(); err != nil {
			return err
		}
		defer out.ExitNested()
		target := pc + opcode.JumpRel(p, pc)
		for i := 0; i < length; i++ {
			if _, err := writeRange(p, target, seq.Element(i), out); err != nil {
				return err
			}
		}
	} else {
		for i := 0; i < length; i++ {
			if err := writeElementPrimitive(p, pc, sub, seq, i, out); err != nil {
				return err
			}
		}
	}

	if needsDHeader {
		out.PatchDHeader(dheaderOff)
	}
	return nil
}

// unionDiscSize returns the wire width in bytes of a TUnion ADR's
// discriminant, derived from its subtype code: a plain 1/2/4-byte integer
// discriminant uses that width, an enum or bitmask discriminant uses its
// declared TypeSize, and anything else (the program didn't specify a
// narrower type) defaults to the XTypes 4-byte form.
func unionDiscSize(insn opcode.Instr) uint32 {
	switch insn.SubType() {
	case opcode.T1Byte:
		return 1
	case opcode.T2Byte:
		return 2
	case opcode.TEnum, opcode.TBitmask:
		return insn.TypeSize()
	default:
		return 4
	}
}

func writeUnion(p opcode.Program, pc int, off uint32, rec Record, out *stream.Output) error {
	disc := rec.Discriminant(off)
	writeSizedInt(out, uint64(disc), unionDiscSize(p.At(pc)))

	armPC := opcode.Next(p, pc)
	var defaultPC = -1
	for armPC < len(p) {
		insn := p.At(armPC)
		if insn.Kind() != opcode.JEQ && insn.Kind() != opcode.JEQ4 {
			break
		}
		if insn.HasFlag(opcode.FlagDefault) {
			defaultPC = armPC
		}
		if opcode.JEQDiscriminant(p, armPC) == disc {
			return writeUnionArm(p, armPC, rec, out)
		}
		armPC = opcode.Next(p, armPC)
	}
	if defaultPC >= 0 {
		return writeUnionArm(p, defaultPC, rec, out)
	}
	// no match, no default: emit nothing further for this member.
	return nil
}

func writeUnionArm(p opcode.Program, pc int, rec Record, out *stream.Output) error {
	insn := p.At(pc)
	off := opcode.JEQNativeOffset(p, pc)
	jumpRel := opcode.JumpRel(p, pc)
	if jumpRel == 0 {
		switch insn.Type() {
		case opcode.TBool:
			out.PutBool(rec.Bool(off))
		case opcode.T1Byte:
			out.PutByte(rec.Byte(off))
		case opcode.T2Byte:
			out.PutUint16(rec.U16(off))
		case opcode.T4Byte:
			if insn.HasFlag(opcode.FlagFP) {
				out.PutUint32(math.Float32bits(rec.F32(off)))
			} else {
				out.PutUint32(rec.U32(off))
			}
		case opcode.T8Byte:
			if insn.HasFlag(opcode.FlagFP) {
				out.PutUint64(math.Float64bits(rec.F64(off)))
			} else {
				out.PutUint64(rec.U64(off))
			}
		case opcode.TEnum, opcode.TBitmask:
			val := rec.U64(off)
			high, low := opcode.BitmaskAllowed(p, pc)
			if err := checkDomain(insn.Type(), high, low, val); err != nil {
				return err
			}
			writeSizedInt(out, val, insn.TypeSize())
		case opcode.TString:
			writeString(out, rec.String(off))
		default:
			opcode.Fault("interp.Write: unsupported primitive union arm type %s at pc=%d", insn.Type(), pc)
		}
		return nil
	}
	if err := out.EnterNested(); err != nil {
		return err
	}
	defer out.ExitNested()
	target := pc + jumpRel
	_, err := writeRange(p, target, rec.Nested(off), out)
	return err
}

// writeAppendableBody writes a DLC member list: a DHEADER-wrapped run of
// plain ADR members in declaration order, with no per-member envelope.
func writeAppendableBody(p opcode.Program, pc int, rec Record, out *stream.Output) error {
	dheaderOff := out.WriteDHeaderPlaceholder()
	for {
		insn := p.At(pc)
		if insn.Kind() == opcode.RTS {
			break
		}
		if insn.Kind() != opcode.ADR {
			opcode.Fault("interp.Write: expected ADR inside DLC body at pc=%d, got %s", pc, insn.Kind())
		}
		if err := writeADR(p, pc, rec, out); err != nil {
			return cdrerrors.At(err, out.Len())
		}
		if insn.Type() == opcode.TUnion {
			next, err := skipUnionArms(p, opcode.Next(p, pc))
			if err != nil {
				return err
			}
			pc = next
			continue
		}
		pc = opcode.Next(p, pc)
	}
	out.PatchDHeader(dheaderOff)
	return nil
}

// staticMemberSize returns the exact wire size of a fixed-size primitive
// member so its EMHEADER can use an inline length code without a
// measuring pass. It reports false for anything variable-length (string,
// sequence, struct, external, union), which must use the NEXTINT form.
func staticMemberSize(insn opcode.Instr) (uint32, bool) {
	switch insn.Type() {
	case opcode.TBool, opcode.T1Byte:
		return 1, true
	case opcode.T2Byte:
		return 2, true
	case opcode.T4Byte:
		return 4, true
	case opcode.T8Byte:
		return 8, true
	case opcode.TEnum, opcode.TBitmask:
		return insn.TypeSize(), true
	default:
		return 0, false
	}
}

// writeMutableBody writes a PLC member list: a DHEADER-wrapped run of PLM
// entries, each preceded by an EMHEADER. Members write directly onto out
// (never a scratch buffer) so every primitive inside still aligns relative
// to the true payload start; fixed-size members get an inline length code
// chosen from their static type size, and variable-length members get a
// NEXTINT reserved ahead of the body and patched once its length is known.
func writeMutableBody(p opcode.Program, pc int, rec Record, out *stream.Output) error {
	dheaderOff := out.WriteDHeaderPlaceholder()
	if err := writePLMList(p, pc, rec, out); err != nil {
		return err
	}
	out.PatchDHeader(dheaderOff)
	return nil
}

// writePLMList writes every member in one PLM list directly onto out,
// under the single DHEADER writeMutableBody already opened. A PLM flagged
// FlagBase splices a base type's own member list in by reference; its
// members are written into the very same flat parameter list, not a
// nested one, matching the wire layout dds_stream_read_pl_member's
// FlagBase recursion expects on the read side.
func writePLMList(p opcode.Program, pc int, rec Record, out *stream.Output) error {
	for {
		insn := p.At(pc)
		if insn.Kind() == opcode.RTS {
			return nil
		}
		if insn.Kind() != opcode.PLM {
			opcode.Fault("interp.Write: expected PLM inside PLC body at pc=%d, got %s", pc, insn.Kind())
		}
		if insn.HasFlag(opcode.FlagBase) {
			target := pc + opcode.JumpRel(p, pc)
			if err := writePLMList(p, opcode.Next(p, target), rec, out); err != nil {
				return err
			}
			pc = opcode.Next(p, pc)
			continue
		}

		memberID := opcode.MemberID(p, pc)
		fieldPC := pc + opcode.JumpRel(p, pc)
		fieldInsn := p.At(fieldPC)
		mustUnderstand := fieldInsn.HasFlag(opcode.FlagMustUnderstand)

		if size, ok := staticMemberSize(fieldInsn); ok {
			h := stream.EMHeader{MustUnderstand: mustUnderstand, LengthCode: stream.LengthCodeFor(size), MemberID: memberID}
			out.WriteEMHeader(h)
			if err := writeADR(p, fieldPC, rec, out); err != nil {
				return cdrerrors.At(err, out.Len())
			}
		} else {
			h := stream.EMHeader{MustUnderstand: mustUnderstand, LengthCode: 4, MemberID: memberID}
			nextintOff := out.WriteEMHeader(h)
			bodyStart := out.Len()
			if err := writeADR(p, fieldPC, rec, out); err != nil {
				return cdrerrors.At(err, out.Len())
			}
			out.PatchUint32(nextintOff, uint32(out.Len()-bodyStart))
		}
		pc = opcode.Next(p, pc)
	}
}
