package interp

import (
	"math"

	"github.com/ddsx/cdrstream/internal/cdr/opcode"
	"github.com/ddsx/cdrstream/internal/cdr/stream"
	"github.com/ddsx/cdrstream/pkg/cdrerrors"
)

// Read deserializes in into rec by walking p from the top, mirroring
// Write. Like Write, it re-panics an opcode.ProgramFault unchanged and
// never turns it into a returned error.
func Read(p opcode.Program, rec Record, in *stream.Input) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if pf, ok := r.(*opcode.ProgramFault); ok {
				panic(pf)
			}
			panic(r)
		}
	}()
	_, err = readRange(p, 0, rec, in)
	return err
}

func readRange(p opcode.Program, pc int, rec Record, in *stream.Input) (int, error) {
	for {
		insn := p.At(pc)
		switch insn.Kind() {
		case opcode.RTS:
			return opcode.Next(p, pc), nil
		case opcode.DLC:
			if err := readAppendableBody(p, opcode.Next(p, pc), rec, in); err != nil {
				return 0, err
			}
			return skipToRTS(p, opcode.Next(p, pc)), nil
		case opcode.PLC:
			if err := readMutableBody(p, opcode.Next(p, pc), rec, in); err != nil {
				return 0, err
			}
			return skipToRTS(p, opcode.Next(p, pc)), nil
		case opcode.ADR:
			if err := readADR(p, pc, rec, in); err != nil {
				return 0, cdrerrors.At(err, in.Cursor())
			}
		default:
			opcode.Fault("interp.Read: unexpected top-level kind %s at pc=%d", insn.Kind(), pc)
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

func readADR(p opcode.Program, pc int, rec Record, in *stream.Input) error {
	insn := p.At(pc)
	off := opcode.NativeOffset(p, pc)

	if insn.HasFlag(opcode.FlagOptional) {
		present, err := in.Bool()
		if err != nil {
			return err
		}
		rec.SetPresent(off, present)
		if !present {
			return nil
		}
	}

	switch insn.Type() {
	case opcode.TBool:
		v, err := in.Bool()
		if err != nil {
			return err
		}
		rec.SetBool(off, v)
	case opcode.T1Byte:
		v, err := in.Byte()
		if err != nil {
			return err
		}
		rec.SetByte(off, v)
	case opcode.T2Byte:
		v, err := in.Uint16()
		if err != nil {
			return err
		}
		rec.SetU16(off, v)
	case opcode.T4Byte:
		v, err := in.Uint32()
		if err != nil {
			return err
		}
		if insn.HasFlag(opcode.FlagFP) {
			rec.SetF32(off, math.Float32frombits(v))
		} else {
			rec.SetU32(off, v)
		}
	case opcode.T8Byte:
		v, err := in.Uint64()
		if err != nil {
			return err
		}
		if insn.HasFlag(opcode.FlagFP) {
			rec.SetF64(off, math.Float64frombits(v))
		} else {
			rec.SetU64(off, v)
		}
	case opcode.TEnum, opcode.TBitmask:
		v, err := readSizedInt(in, insn.TypeSize())
		if err != nil {
			return err
		}
		high, low := opcode.BitmaskAllowed(p, pc)
		if err := checkDomain(insn.Type(), high, low, v); err != nil {
			return err
		}
		rec.SetU64(off, v)
	case opcode.TString:
		s, err := readString(in)
		if err != nil {
			return err
		}
		rec.SetString(off, s)
	case opcode.TBString:
		bound := opcode.Bound(p, pc)
		s, err := readString(in)
		if err != nil {
			return err
		}
		if uint32(len(s)+1) > bound {
			return cdrerrors.ErrBoundOverflow
		}
		rec.SetString(off, s)
	case opcode.TSequence:
		return readSequence(p, pc, off, rec, in, false, 0)
	case opcode.TBSequence:
		bound := opcode.Bound(p, pc)
		return readSequence(p, pc, off, rec, in, true, bound)
	case opcode.TArray:
		return readArray(p, pc, off, rec, in)
	case opcode.TStruct:
		if err := in.EnterNested(); err != nil {
			return err
		}
		defer in.ExitNested()
		target := pc + opcode.JumpRel(p, pc)
		_, err := readRange(p, target, rec.Nested(off), in)
		return err
	case opcode.TExternal:
		rec.SetPresent(off, true)
		if err := in.EnterNested(); err != nil {
			return err
		}
		defer in.ExitNested()
		target := pc + opcode.JumpRel(p, pc)
		_, err := readRange(p, target, rec.Nested(off), in)
		return err
	case opcode.TUnion:
		return readUnion(p, pc, off, rec, in)
	default:
		opcode.Fault("interp.Read: unsupported ADR type %s at pc=%d", insn.Type(), pc)
	}
	return nil
}

func readSizedInt(in *stream.Input, size uint32) (uint64, error) {
	switch size {
	case 1:
		v, err := in.Byte()
		return uint64(v), err
	case 2:
		v, err := in.Uint16()
		return uint64(v), err
	case 4:
		v, err := in.Uint32()
		return uint64(v), err
	case 8:
		return in.Uint64()
	default:
		opcode.Fault("interp: invalid sized-int width %d", size)
		return 0, nil
	}
}

func readString(in *stream.Input) (string, error) {
	length, err := in.Uint32()
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", cdrerrors.ErrUnterminatedString
	}
	b, err := in.ReadBytes(int(length), 1)
	if err != nil {
		return "", err
	}
	if b[length-1] != 0 {
		return "", cdrerrors.ErrUnterminatedString
	}
	return string(b[:length-1]), nil
}

func readElementPrimitive(p opcode.Program, pc int, typ opcode.TypeCode, seq Sequence, i int, in *stream.Input) error {
	fp := p.At(pc).HasFlag(opcode.FlagFP)
	switch typ {
	case opcode.TBool:
		v, err := in.Bool()
		if err != nil {
			return err
		}
		seq.SetBool(i, v)
	case opcode.T1Byte:
		v, err := in.Byte()
		if err != nil {
			return err
		}
		seq.SetByte(i, v)
	case opcode.T2Byte:
		v, err := in.Uint16()
		if err != nil {
			return err
		}
		seq.SetU16(i, v)
	case opcode.T4Byte:
		v, err := in.Uint32()
		if err != nil {
			return err
		}
		if fp {
			seq.SetF32(i, math.Float32frombits(v))
		} else {
			seq.SetU32(i, v)
		}
	case opcode.T8Byte:
		v, err := in.Uint64()
		if err != nil {
			return err
		}
		if fp {
			seq.SetF64(i, math.Float64frombits(v))
		} else {
			seq.SetU64(i, v)
		}
	case opcode.TEnum, opcode.TBitmask:
		v, err := readSizedInt(in, opcode.ElementSize(p, pc))
		if err != nil {
			return err
		}
		high, low := opcode.BitmaskAllowed(p, pc)
		if err := checkDomain(typ, high, low, v); err != nil {
			return err
		}
		seq.SetU32(i, uint32(v))
	case opcode.TString:
		s, err := readString(in)
		if err != nil {
			return err
		}
		seq.SetString(i, s)
	default:
		opcode.Fault("interp: unsupported primitive element type %s", typ)
	}
	return nil
}

func readSequence(p opcode.Program, pc int, off uint32, rec Record, in *stream.Input, bounded bool, bound uint32) error {
	insn := p.At(pc)
	sub := insn.SubType()

	if in.Version() == stream.XCDR2 && !sub.IsPrimitive() {
		if _, err := in.ReadDHeader(); err != nil {
			return err
		}
	}
	n, err := in.Uint32()
	if err != nil {
		return err
	}
	if bounded && n > bound {
		return cdrerrors.ErrBoundOverflow
	}

	seq := rec.Sequence(off)
	seq.Resize(int(n))

	if sub.IsComposite() {
		if err := in.EnterNested(); err != nil {
			return err
		}
		defer in.ExitNested()
		target := pc + opcode.JumpRel(p, pc)
		for i := 0; i < int(n); i++ {
			if _, err := readRange(p, target, seq.Element(i), in); err != nil {
				return err
			}
		}
	} else {
		for i := 0; i < int(n); i++ {
			if err := readElementPrimitive(p, pc, sub, seq, i, in); err != nil {
				return err
			}
		}
	}
	return nil
}

func readArray(p opcode.Program, pc int, off uint32, rec Record, in *stream.Input) error {
	insn := p.At(pc)
	sub := insn.SubType()
	length := int(opcode.ArrayLength(p, pc))

	if in.Version() == stream.XCDR2 && !sub.IsPrimitive() {
		if _, err := in.ReadDHeader(); err != nil {
			return err
		}
	}

	seq := rec.Sequence(off)
	seq.Resize(length)

	if sub.IsComposite() {
		if err := in.EnterNested(); err != nil {
			return err
		}
		defer in.ExitNested()
		target := pc + opcode.JumpRel(p, pc)
		for i := 0; i < length; i++ {
			if _, err := readRange(p, target, seq.Element(i), in); err != nil {
				return err
			}
		}
	} else {
		for i := 0; i < length; i++ {
			if err := readElementPrimitive(p, pc, sub, seq, i, in); err != nil {
				return err
			}
		}
	}
	return nil
}

func readUnion(p opcode.Program, pc int, off uint32, rec Record, in *stream.Input) error {
	discWide, err := readSizedInt(in, unionDiscSize(p.At(pc)))
	if err != nil {
		return err
	}
	disc := uint32(discWide)
	rec.SetDiscriminant(off, disc)

	armPC := opcode.Next(p, pc)
	var defaultPC = -1
	var matchedPC = -1
	for armPC < len(p) {
		insn := p.At(armPC)
		if insn.Kind() != opcode.JEQ && insn.Kind() != opcode.JEQ4 {
			break
		}
		if insn.HasFlag(opcode.FlagDefault) {
			defaultPC = armPC
		}
		if opcode.JEQDiscriminant(p, armPC) == disc {
			matchedPC = armPC
		}
		armPC = opcode.Next(p, armPC)
	}

	// Zero every arm's storage first so "no match, no default" leaves a
	// deterministic, zeroed target rather than stale caller-supplied data.
	zeroUnionArms(p, opcode.Next(p, pc), rec)

	if matchedPC >= 0 {
		return readUnionArm(p, matchedPC, rec, in)
	}
	if defaultPC >= 0 {
		return readUnionArm(p, defaultPC, rec, in)
	}
	return nil
}

func zeroUnionArms(p opcode.Program, pc int, rec Record) {
	for pc < len(p) {
		insn := p.At(pc)
		if insn.Kind() != opcode.JEQ && insn.Kind() != opcode.JEQ4 {
			return
		}
		off := opcode.JEQNativeOffset(p, pc)
		if opcode.JumpRel(p, pc) == 0 {
			zeroADR(p, pc, off, rec)
		} else {
			target := pc + opcode.JumpRel(p, pc)
			zeroFields(p, target, rec.Nested(off))
		}
		pc = opcode.Next(p, pc)
	}
}

func readUnionArm(p opcode.Program, pc int, rec Record, in *stream.Input) error {
	insn := p.At(pc)
	off := opcode.JEQNativeOffset(p, pc)
	jumpRel := opcode.JumpRel(p, pc)
	if jumpRel == 0 {
		switch insn.Type() {
		case opcode.TBool:
			v, err := in.Bool()
			if err != nil {
				return err
			}
			rec.SetBool(off, v)
		case opcode.T1Byte:
			v, err := in.Byte()
			if err != nil {
				return err
			}
			rec.SetByte(off, v)
		case opcode.T2Byte:
			v, err := in.Uint16()
			if err != nil {
				return err
			}
			rec.SetU16(off, v)
		case opcode.T4Byte:
			v, err := in.Uint32()
			if err != nil {
				return err
			}
			if insn.HasFlag(opcode.FlagFP) {
				rec.SetF32(off, math.Float32frombits(v))
			} else {
				rec.SetU32(off, v)
			}
		case opcode.T8Byte:
			v, err := in.Uint64()
			if err != nil {
				return err
			}
			if insn.HasFlag(opcode.FlagFP) {
				rec.SetF64(off, math.Float64frombits(v))
			} else {
				rec.SetU64(off, v)
			}
		case opcode.TEnum, opcode.TBitmask:
			v, err := readSizedInt(in, insn.TypeSize())
			if err != nil {
				return err
			}
			high, low := opcode.BitmaskAllowed(p, pc)
			if err := checkDomain(insn.Type(), high, low, v); err != nil {
				return err
			}
			rec.SetU64(off, v)
		case opcode.TString:
			s, err := readString(in)
			if err != nil {
				return err
			}
			rec.SetString(off, s)
		default:
			opcode.Fault("interp.Read: unsupported primitive union arm type %s at pc=%d", insn.Type(), pc)
		}
		return nil
	}
	if err := in.EnterNested(); err != nil {
		return err
	}
	defer in.ExitNested()
	target := pc + jumpRel
	_, err := readRange(p, target, rec.Nested(off), in)
	return err
}

// readAppendableBody reads a DHEADER-framed plain-ADR member list. It
// consumes exactly the declared body length, defaulting any of its own
// program's trailing members it doesn't reach and skipping any trailing
// payload bytes the writer included that its own program doesn't know
// about.
func readAppendableBody(p opcode.Program, pc int, rec Record, in *stream.Input) error {
	bodyLen, err := in.ReadDHeader()
	if err != nil {
		return err
	}
	bodyStart := in.Cursor()
	bodyEnd := bodyStart + int(bodyLen)
	if bodyEnd > in.Len() {
		return cdrerrors.ErrTruncatedFraming
	}

	for {
		insn := p.At(pc)
		if insn.Kind() == opcode.RTS {
			break
		}
		if insn.Kind() != opcode.ADR {
			opcode.Fault("interp.Read: expected ADR inside DLC body at pc=%d, got %s", pc, insn.Kind())
		}
		if in.Cursor() >= bodyEnd {
			// writer sent fewer members than this program knows: default
			// the remainder.
			zeroADR(p, pc, opcode.NativeOffset(p, pc), rec)
		} else if err := readADR(p, pc, rec, in); err != nil {
			return cdrerrors.At(err, in.Cursor())
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
	return in.Skip(bodyEnd - in.Cursor())
}

// readMutableBody reads a DHEADER-framed EMHEADER-enveloped member list,
// matching incoming members by id against the program's PLM list
// regardless of wire order.
func readMutableBody(p opcode.Program, pc int, rec Record, in *stream.Input) error {
	zeroFields(p, pc, rec)

	bodyLen, err := in.ReadDHeader()
	if err != nil {
		return err
	}
	bodyStart := in.Cursor()
	bodyEnd := bodyStart + int(bodyLen)
	if bodyEnd > in.Len() {
		return cdrerrors.ErrTruncatedFraming
	}

	for in.Cursor() < bodyEnd {
		h, bodyLen, err := in.ReadEMHeader()
		if err != nil {
			return err
		}
		memberStart := in.Cursor()
		if h.LengthCode >= 5 {
			first, err := in.Peek(4)
			if err != nil {
				return err
			}
			bodyLen, err = stream.ResolveAliasedLength(h.LengthCode, in.Order().Uint32(first))
			if err != nil {
				return err
			}
		}

		fieldPC := findPLM(p, pc, h.MemberID)
		if fieldPC < 0 {
			if h.MustUnderstand {
				return cdrerrors.AtMember(cdrerrors.ErrUnmatchedMustUnderstand, memberStart, h.MemberID)
			}
			if err := in.Skip(int(bodyLen)); err != nil {
				return err
			}
			continue
		}
		if err := readADR(p, fieldPC, rec, in); err != nil {
			return cdrerrors.AtMember(err, memberStart, h.MemberID)
		}
		consumed := in.Cursor() - memberStart
		if consumed < int(bodyLen) {
			if err := in.Skip(int(bodyLen) - consumed); err != nil {
				return err
			}
		}
	}
	return nil
}

// findPLM returns the ADR pc for the PLM matching memberID within the
// member list starting at pc, walking until RTS, or -1 if no PLM matches.
// A PLM flagged FlagBase splices a base type's own member list in by
// reference instead of repeating its members inline; findPLM recurses into
// it at the position it appears, in the same member-list traversal order
// the original reference interpreter's dds_stream_read_pl_member uses, so
// a derived-member id earlier in the list still shadows a same-id base
// member appearing after it.
func findPLM(p opcode.Program, pc int, memberID uint32) int {
	for {
		insn := p.At(pc)
		if insn.Kind() == opcode.RTS {
			return -1
		}
		if insn.Kind() != opcode.PLM {
			opcode.Fault("interp: expected PLM at pc=%d, got %s", pc, insn.Kind())
		}
		if insn.HasFlag(opcode.FlagBase) {
			target := pc + opcode.JumpRel(p, pc)
			if found := findPLM(p, opcode.Next(p, target), memberID); found >= 0 {
				return found
			}
		} else if opcode.MemberID(p, pc) == memberID {
			return pc + opcode.JumpRel(p, pc)
		}
		pc = opcode.Next(p, pc)
	}
}
