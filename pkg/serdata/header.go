package serdata

import "encoding/binary"

// Identifier is the 2-byte CDR header identifier encoding {XCDR version,
// endianness, format}, per RTPS's representation-identifier table.
type Identifier uint16

const (
	IdentCDRBE       Identifier = 0x0000
	IdentCDRLE       Identifier = 0x0001
	IdentPLCDRBE     Identifier = 0x0002
	IdentPLCDRLE     Identifier = 0x0003
	IdentCDR2BE      Identifier = 0x0006
	IdentCDR2LE      Identifier = 0x0007
	IdentDCDR2BE     Identifier = 0x0008
	IdentDCDR2LE     Identifier = 0x0009
	IdentPLCDR2BE    Identifier = 0x000a
	IdentPLCDR2LE    Identifier = 0x000b
)

// ByteOrder returns the binary.ByteOrder this identifier's low bit
// selects: every odd identifier value is little-endian.
func (id Identifier) ByteOrder() binary.ByteOrder {
	if id&1 != 0 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Header is the 4-byte CDR encapsulation header: a 2-byte identifier
// followed by 2-byte options whose low two bits carry the end-of-payload
// padding count in [0,3] (XTypes §7.6.3.1.2).
type Header struct {
	Identifier Identifier
	Options    uint16
}

// WithIdentifier returns a copy of h with its identifier replaced, options
// left untouched. Used when a buffer's actual byte order changes (e.g. a
// normalize pass swapped it in place) without disturbing the padding count.
func (h Header) WithIdentifier(id Identifier) Header {
	h.Identifier = id
	return h
}

// PaddingCount returns the options field's low two bits.
func (h Header) PaddingCount() uint8 { return uint8(h.Options & 0x3) }

// WithPaddingCount returns a copy of h with its options' low two bits set
// to n mod 4.
func (h Header) WithPaddingCount(n int) Header {
	h.Options = (h.Options &^ 0x3) | uint16(n&0x3)
	return h
}

// Encode packs h into its 4-byte wire form, host byte order (the header
// itself is always read/written in the stream's configured order by the
// caller; Encode/DecodeHeader operate on the 4 raw bytes once extracted).
func (h Header) Encode(order binary.ByteOrder) [4]byte {
	var b [4]byte
	order.PutUint16(b[0:2], uint16(h.Identifier))
	order.PutUint16(b[2:4], h.Options)
	return b
}

// DecodeHeader unpacks a 4-byte CDR header.
func DecodeHeader(b [4]byte, order binary.ByteOrder) Header {
	return Header{
		Identifier: Identifier(order.Uint16(b[0:2])),
		Options:    order.Uint16(b[2:4]),
	}
}
