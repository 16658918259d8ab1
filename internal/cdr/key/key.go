// Package key implements the DDS-XTypes key machinery: extracting a
// type's key fields from a native sample, from a received wire payload,
// or from a previously-extracted key-only CDR buffer, and computing the
// RTPS keyhash (§9.6.3.8) from the result.
//
// Grounded on original_source's dds_cdrstream_keys.part.c: the reference
// walks the operation program guided by a pre-computed list of key
// descriptors (program-offset plus canonical ordering), recursing through
// EXT members via an offset trail (KOF) when a key is nested. This
// package takes the same pre-computed-descriptor-list shape (Descriptor,
// below) but resolves nesting through interp.Record.Nested rather than a
// second walk of the raw opcode words, since Go's Record accessor already
// gives safe addressed access to nested composites.
//
// ExtractKeyFromData departs from the reference's parallel skip-walk: the
// reference re-implements a subset of the read path (skip_adr) purely to
// avoid fully deserializing non-key members. This package instead runs
// the already-tested interp.Read over the full sample and then projects
// the key fields out of the populated record. Only byte equality between
// key-from-sample and key-from-data is observable here, never the
// skip-walk's performance, so reusing Read trades a constant-factor
// deserialization cost for not maintaining two walks of the same program
// shape.
package key

import (
	"crypto/md5"
	"encoding/binary"

	"github.com/ddsx/cdrstream/internal/cdr/interp"
	"github.com/ddsx/cdrstream/internal/cdr/opcode"
	"github.com/ddsx/cdrstream/internal/cdr/stream"
	"github.com/ddsx/cdrstream/pkg/cdrerrors"
)

// Descriptor names one key field's location within an operation program:
// the chain of Nested() offsets from the record root down to the
// composite directly containing the leaf (empty for a top-level key),
// and the program-counter of the leaf ADR instruction itself. A type's
// key descriptors are precompiled (by pkg/typedesc) in XCDR1 definition
// order; XCDR2's ascending-member-id order is a property of how that
// slice was built (see OrderForVersion), not of any field on Descriptor
// itself, serving purely as an ordering index used to canonicalize.
type Descriptor struct {
	Path       []uint32
	OpsOffset  int
	MemberID   uint32 // 0 if the leaf's immediate container is not MUTABLE
}

// OrderForVersion returns descs in the canonical order required for
// version: XCDR1 keys appear in the descriptor list's own
// (definition) order; XCDR2 keys appear in ascending member-id order.
// Descriptors whose container isn't MUTABLE (MemberID == 0) therefore sort
// ahead of every nonzero id; the stable sort keeps their definition order
// relative to each other.
func OrderForVersion(descs []Descriptor, version stream.Version) []Descriptor {
	if version == stream.XCDR1 {
		return descs
	}
	out := make([]Descriptor, len(descs))
	copy(out, descs)
	// stable insertion sort: these lists are small (key counts rarely
	// exceed a handful of fields) and this keeps definition order among
	// equal (non-mutable, MemberID==0) entries without pulling in sort.Slice.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].MemberID < out[j-1].MemberID; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func navigate(rec interp.Record, path []uint32) interp.Record {
	for _, off := range path {
		rec = rec.Nested(off)
	}
	return rec
}

// ExtractKeyFromSample walks descs against rec (a fully populated native
// sample) and writes each key leaf's value to out in descs' order. This
// is the writer-side entry point for computing a key from a sample.
func ExtractKeyFromSample(p opcode.Program, descs []Descriptor, rec interp.Record, out *stream.Output) error {
	for _, d := range descs {
		leafRec := navigate(rec, d.Path)
		if err := writeKeyLeaf(p, d.OpsOffset, leafRec, out); err != nil {
			return err
		}
	}
	return nil
}

// ExtractKeyFromData deserializes in fully into rec via interp.Read, then
// projects descs' key fields out of rec into out. This is the
// receive-side entry point for computing a key from wire data,
// parameterized by descs' ordering exactly as ExtractKeyFromSample is.
func ExtractKeyFromData(p opcode.Program, descs []Descriptor, rec interp.Record, in *stream.Input, out *stream.Output) error {
	if err := interp.Read(p, rec, in); err != nil {
		return err
	}
	return ExtractKeyFromSample(p, descs, rec, out)
}

// ExtractKeyFromKey re-encodes a key-only CDR buffer (one already
// containing just descs' fields, in descs' order, under in's
// xcdr_version/byte-order) into out, typically to change endianness or to
// canonicalize an XCDR1 key into its XCDR2 native form: key from key.
func ExtractKeyFromKey(p opcode.Program, descs []Descriptor, in *stream.Input, out *stream.Output) error {
	for _, d := range descs {
		if err := copyKeyLeaf(p, d.OpsOffset, in, out); err != nil {
			return err
		}
	}
	return nil
}

func writeKeyLeaf(p opcode.Program, pc int, rec interp.Record, out *stream.Output) error {
	insn := p.At(pc)
	off := opcode.NativeOffset(p, pc)
	switch insn.Type() {
	case opcode.TBool:
		out.PutBool(rec.Bool(off))
	case opcode.T1Byte:
		out.PutByte(rec.Byte(off))
	case opcode.T2Byte:
		out.PutUint16(rec.U16(off))
	case opcode.T4Byte:
		out.PutUint32(rec.U32(off))
	case opcode.T8Byte:
		out.PutUint64(rec.U64(off))
	case opcode.TEnum, opcode.TBitmask:
		putSized(out, rec.U64(off), insn.TypeSize())
	case opcode.TString:
		writeKeyString(out, rec.String(off))
	case opcode.TBString:
		bound := opcode.Bound(p, pc)
		s := rec.String(off)
		if uint32(len(s)+1) > bound {
			return cdrerrors.At(cdrerrors.ErrBoundOverflow, out.Len())
		}
		writeKeyString(out, s)
	case opcode.TArray:
		sub := insn.SubType()
		n := int(opcode.ArrayLength(p, pc))
		seq := rec.Sequence(off)
		for i := 0; i < n; i++ {
			writeKeyElement(sub, seq, i, out)
		}
	default:
		// The program invariant restricts key-flagged ADRs to
		// primitive-ish leaves, primitive arrays/bounded-strings, or EXT
		// recursions (already resolved via Descriptor.Path before
		// reaching here); any other type reaching this leaf is a
		// malformed key descriptor list, a programmer error.
		opcode.Fault("key: unsupported key leaf type %s at pc=%d", insn.Type(), pc)
	}
	return nil
}

func writeKeyString(out *stream.Output, s string) {
	out.PutUint32(uint32(len(s) + 1))
	out.WriteBytes(append([]byte(s), 0), 1)
}

func writeKeyElement(sub opcode.TypeCode, seq interp.Sequence, i int, out *stream.Output) {
	switch sub {
	case opcode.TBool:
		out.PutBool(seq.Bool(i))
	case opcode.T1Byte:
		out.PutByte(seq.Byte(i))
	case opcode.T2Byte:
		out.PutUint16(seq.U16(i))
	case opcode.T4Byte:
		out.PutUint32(seq.U32(i))
	case opcode.T8Byte:
		out.PutUint64(seq.U64(i))
	default:
		opcode.Fault("key: unsupported key array element type %s", sub)
	}
}

func copyKeyLeaf(p opcode.Program, pc int, in *stream.Input, out *stream.Output) error {
	insn := p.At(pc)
	switch insn.Type() {
	case opcode.TBool:
		v, err := in.Bool()
		if err != nil {
			return err
		}
		out.PutBool(v)
	case opcode.T1Byte:
		v, err := in.Byte()
		if err != nil {
			return err
		}
		out.PutByte(v)
	case opcode.T2Byte:
		v, err := in.Uint16()
		if err != nil {
			return err
		}
		out.PutUint16(v)
	case opcode.T4Byte:
		v, err := in.Uint32()
		if err != nil {
			return err
		}
		out.PutUint32(v)
	case opcode.T8Byte:
		v, err := in.Uint64()
		if err != nil {
			return err
		}
		out.PutUint64(v)
	case opcode.TEnum, opcode.TBitmask:
		v, err := getSized(in, insn.TypeSize())
		if err != nil {
			return err
		}
		putSized(out, v, insn.TypeSize())
	case opcode.TString, opcode.TBString:
		n, err := in.Uint32()
		if err != nil {
			return err
		}
		b, err := in.ReadBytes(int(n), 1)
		if err != nil {
			return err
		}
		out.PutUint32(n)
		out.WriteBytes(b, 1)
	case opcode.TArray:
		sub := insn.SubType()
		n := int(opcode.ArrayLength(p, pc))
		for i := 0; i < n; i++ {
			if err := copyKeyElement(sub, in, out); err != nil {
				return err
			}
		}
	default:
		opcode.Fault("key: unsupported key leaf type %s at pc=%d", insn.Type(), pc)
	}
	return nil
}

func copyKeyElement(sub opcode.TypeCode, in *stream.Input, out *stream.Output) error {
	switch sub {
	case opcode.TBool:
		v, err := in.Bool()
		if err != nil {
			return err
		}
		out.PutBool(v)
	case opcode.T1Byte:
		v, err := in.Byte()
		if err != nil {
			return err
		}
		out.PutByte(v)
	case opcode.T2Byte:
		v, err := in.Uint16()
		if err != nil {
			return err
		}
		out.PutUint16(v)
	case opcode.T4Byte:
		v, err := in.Uint32()
		if err != nil {
			return err
		}
		out.PutUint32(v)
	case opcode.T8Byte:
		v, err := in.Uint64()
		if err != nil {
			return err
		}
		out.PutUint64(v)
	default:
		opcode.Fault("key: unsupported key array element type %s", sub)
	}
	return nil
}

func putSized(out *stream.Output, v uint64, size uint32) {
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
		opcode.Fault("key: invalid sized-int width %d", size)
	}
}

func getSized(in *stream.Input, size uint32) (uint64, error) {
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
		opcode.Fault("key: invalid sized-int width %d", size)
		return 0, nil
	}
}

// Keyhash computes the RTPS §9.6.3.8 keyhash: the XCDR2 big-endian key
// serialization, zero-padded to 16 bytes when it fits and the type's
// fixed-key-for-XCDR2 flag (fixedKeyXCDR2) is set, otherwise the MD5
// digest of the exact key bytes. A keyless type (len(descs) == 0) always
// hashes to all zeros, independent of fixedKeyXCDR2.
func Keyhash(p opcode.Program, descs []Descriptor, rec interp.Record, fixedKeyXCDR2 bool) ([16]byte, error) {
	if len(descs) == 0 {
		return [16]byte{}, nil
	}
	out := stream.NewOutput(stream.XCDR2, binary.BigEndian)
	ordered := OrderForVersion(descs, stream.XCDR2)
	if err := ExtractKeyFromSample(p, ordered, rec, out); err != nil {
		return [16]byte{}, err
	}
	return keyhashFromBytes(out.Bytes(), fixedKeyXCDR2), nil
}

// KeyhashFromData is Keyhash's receive-side counterpart: it deserializes
// in via interp.Read before projecting and hashing the key fields.
func KeyhashFromData(p opcode.Program, descs []Descriptor, rec interp.Record, in *stream.Input, fixedKeyXCDR2 bool) ([16]byte, error) {
	if len(descs) == 0 {
		return [16]byte{}, nil
	}
	if err := interp.Read(p, rec, in); err != nil {
		return [16]byte{}, err
	}
	out := stream.NewOutput(stream.XCDR2, binary.BigEndian)
	ordered := OrderForVersion(descs, stream.XCDR2)
	if err := ExtractKeyFromSample(p, ordered, rec, out); err != nil {
		return [16]byte{}, err
	}
	return keyhashFromBytes(out.Bytes(), fixedKeyXCDR2), nil
}

func keyhashFromBytes(buf []byte, fixedKeyXCDR2 bool) [16]byte {
	if len(buf) <= 16 && fixedKeyXCDR2 {
		var h [16]byte
		copy(h[:], buf)
		return h
	}
	return md5.Sum(buf)
}
