package stream

import "github.com/ddsx/cdrstream/pkg/cdrerrors"

// EMHeader is a decoded parameter-list member envelope (XCDR2's EMHEADER):
// a 32-bit word packing a must-understand flag, a length code, and a
// member id.
type EMHeader struct {
	MustUnderstand bool
	LengthCode     uint8
	MemberID       uint32
}

const (
	emhMemberIDMask = 0x0fffffff
	emhLengthShift  = 28
	emhLengthMask   = 0x7
	emhMustUnderstandBit = 1 << 31
)

// DecodeEMHeader unpacks a raw EMHEADER word.
func DecodeEMHeader(word uint32) EMHeader {
	return EMHeader{
		MustUnderstand: word&emhMustUnderstandBit != 0,
		LengthCode:     uint8((word >> emhLengthShift) & emhLengthMask),
		MemberID:       word & emhMemberIDMask,
	}
}

// Encode packs h back into a raw EMHEADER word.
func (h EMHeader) Encode() uint32 {
	var w uint32
	if h.MustUnderstand {
		w |= emhMustUnderstandBit
	}
	w |= uint32(h.LengthCode&emhLengthMask) << emhLengthShift
	w |= h.MemberID & emhMemberIDMask
	return w
}

// LengthCodeFor picks the smallest inline length code (0-3, for 1/2/4/8
// byte bodies) that fits bodyLen, or 4 (NEXTINT) when bodyLen does not fit
// in 8 bytes or is not one of those exact sizes. The writer always prefers
// an exact inline code over NEXTINT when one applies, matching the
// reference encoder's choice to avoid emitting an extra 4-byte word when
// it isn't needed.
func LengthCodeFor(bodyLen uint32) uint8 {
	switch bodyLen {
	case 1:
		return 0
	case 2:
		return 1
	case 4:
		return 2
	case 8:
		return 3
	default:
		return 4
	}
}

// emHeaderBodyLen returns how many body bytes the inline codes 0-3 commit
// to.
func emHeaderBodyLen(code uint8) (uint32, bool) {
	switch code {
	case 0:
		return 1, true
	case 1:
		return 2, true
	case 2:
		return 4, true
	case 3:
		return 8, true
	default:
		return 0, false
	}
}

// ReadDHeader reads a 4-byte DHEADER and returns the declared body length.
func (in *Input) ReadDHeader() (uint32, error) {
	return in.Uint32()
}

// WriteDHeaderPlaceholder reserves 4 bytes for a DHEADER, to be patched by
// PatchDHeader once the body has been written.
func (out *Output) WriteDHeaderPlaceholder() int {
	return out.Reserve(4, 4)
}

// PatchDHeader writes the body length (the number of bytes written after
// the reserved DHEADER slot, excluding the DHEADER itself) into the slot
// reserved at off.
func (out *Output) PatchDHeader(off int) {
	bodyLen := uint32(len(out.buf) - off - 4)
	out.PatchUint32(off, bodyLen)
}

// ReadEMHeader reads a 4-byte EMHEADER, and, for length code 4, the
// following 4-byte NEXTINT. It returns the decoded header and the member
// body length implied by the header (resolved per the XCDR2 length-code
// table; codes 5-7 cannot be resolved until the member's first word is
// known and are left to the caller to finish via ResolveAliasedLength).
func (in *Input) ReadEMHeader() (EMHeader, uint32, error) {
	word, err := in.Uint32()
	if err != nil {
		return EMHeader{}, 0, err
	}
	h := DecodeEMHeader(word)
	if bodyLen, ok := emHeaderBodyLen(h.LengthCode); ok {
		return h, bodyLen, nil
	}
	if h.LengthCode == 4 {
		nextint, err := in.Uint32()
		if err != nil {
			return EMHeader{}, 0, err
		}
		return h, nextint, nil
	}
	// codes 5-7: aliased length, embedded in the member's own first word.
	return h, 0, nil
}

// ResolveAliasedLength computes the body length for EMHEADER length codes
// 5-7, given the first 4-byte word of the member body. The reference
// implementation left-shifts the aliased length by (code-4); this matches
// DESIGN.md's resolution of the open question left unspecified by the
// readable form of the RTPS/XTypes text.
func ResolveAliasedLength(code uint8, firstWord uint32) (uint32, error) {
	if code < 5 || code > 7 {
		return 0, cdrerrors.At(cdrerrors.ErrTruncatedFraming, 0)
	}
	shift := uint(code) - 4
	return firstWord << shift, nil
}

// WriteEMHeader writes a 4-byte EMHEADER. If code is 4 (NEXTINT), it also
// reserves a following 4-byte slot and returns its offset for the caller
// to patch once the member body length is known; for inline codes 0-3 it
// returns -1.
func (out *Output) WriteEMHeader(h EMHeader) int {
	out.Align(4)
	out.grow(4)
	off := len(out.buf)
	out.buf = out.buf[:off+4]
	out.byteOrder.PutUint32(out.buf[off:], h.Encode())
	if h.LengthCode == 4 {
		return out.Reserve(4, 4)
	}
	return -1
}
