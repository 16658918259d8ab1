package stream

import (
	"encoding/binary"
	"math"
)

// This file implements paired getter/putter primitives: one per
// power-of-two size plus bulk byte copies, with inline
// alignment-and-grow for the putter and alignment-and-bounds-check for the
// getter. Input reads always honor the stream's own byte order (set at
// construction by the caller, since a payload's byte order is fixed once
// serialized); Output writes honor out.byteOrder, so a single Output value
// serves as the native/LE/BE facade simply by the binary.ByteOrder passed
// to NewOutput.

// WithByteOrder attaches order to in for subsequent primitive reads. Call
// once after NewInput; defaults to BigEndian (network byte order) if never
// called.
func (in *Input) WithByteOrder(order binary.ByteOrder) *Input {
	in.order = order
	return in
}

// WithSwap enables in-place byte swapping: every primitive getter reverses
// the bytes it just decoded within the underlying buffer before returning,
// so the buffer ends up in NativeOrder once a full Normalize pass has
// walked it. Used by interp.Normalize when the payload's declared
// encapsulation endianness differs from the host's.
func (in *Input) WithSwap(swap bool) *Input {
	in.swap = swap
	return in
}

// NativeOrder is the byte order this implementation treats as the host's.
// Go gives no portable, unsafe-free way to detect actual CPU endianness,
// and every realistic deployment target (amd64, arm64) is little-endian,
// so NativeOrder is fixed to LittleEndian rather than probed at runtime.
func NativeOrder() binary.ByteOrder { return binary.LittleEndian }

// ForeignOrder is the byte order opposite NativeOrder.
func ForeignOrder() binary.ByteOrder { return binary.BigEndian }

func reverseInPlace(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// Bool reads a 1-byte boolean, aligned to 1.
func (in *Input) Bool() (bool, error) {
	b, err := in.ReadBytes(1, 1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// Byte reads a raw byte, aligned to 1.
func (in *Input) Byte() (byte, error) {
	b, err := in.ReadBytes(1, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Uint16 reads a 2-byte unsigned integer, aligned to 2.
func (in *Input) Uint16() (uint16, error) {
	b, err := in.ReadBytes(2, 2)
	if err != nil {
		return 0, err
	}
	v := in.order.Uint16(b)
	if in.swap {
		reverseInPlace(b)
	}
	return v, nil
}

// Uint32 reads a 4-byte unsigned integer, aligned to 4.
func (in *Input) Uint32() (uint32, error) {
	b, err := in.ReadBytes(4, 4)
	if err != nil {
		return 0, err
	}
	v := in.order.Uint32(b)
	if in.swap {
		reverseInPlace(b)
	}
	return v, nil
}

// Uint64 reads an 8-byte unsigned integer, aligned to 8 under XCDR1 or 4
// under XCDR2.
func (in *Input) Uint64() (uint64, error) {
	b, err := in.ReadBytes(8, 8)
	if err != nil {
		return 0, err
	}
	v := in.order.Uint64(b)
	if in.swap {
		reverseInPlace(b)
	}
	return v, nil
}

// Float32 reads a 4-byte IEEE-754 float, aligned to 4.
func (in *Input) Float32() (float32, error) {
	v, err := in.Uint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// Float64 reads an 8-byte IEEE-754 float, aligned per Uint64's rule.
func (in *Input) Float64() (float64, error) {
	v, err := in.Uint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// PutBool writes a 1-byte boolean, aligned to 1.
func (out *Output) PutBool(v bool) {
	var b byte
	if v {
		b = 1
	}
	out.WriteBytes([]byte{b}, 1)
}

// PutByte writes a raw byte, aligned to 1.
func (out *Output) PutByte(v byte) {
	out.WriteBytes([]byte{v}, 1)
}

// PutUint16 writes a 2-byte unsigned integer, aligned to 2.
func (out *Output) PutUint16(v uint16) {
	out.Align(2)
	out.grow(2)
	off := len(out.buf)
	out.buf = out.buf[:off+2]
	out.byteOrder.PutUint16(out.buf[off:], v)
}

// PutUint32 writes a 4-byte unsigned integer, aligned to 4.
func (out *Output) PutUint32(v uint32) {
	out.Align(4)
	out.grow(4)
	off := len(out.buf)
	out.buf = out.buf[:off+4]
	out.byteOrder.PutUint32(out.buf[off:], v)
}

// PutUint64 writes an 8-byte unsigned integer, aligned to 8 under XCDR1 or
// 4 under XCDR2.
func (out *Output) PutUint64(v uint64) {
	out.Align(8)
	out.grow(8)
	off := len(out.buf)
	out.buf = out.buf[:off+8]
	out.byteOrder.PutUint64(out.buf[off:], v)
}

// PutFloat32 writes a 4-byte IEEE-754 float, aligned to 4.
func (out *Output) PutFloat32(v float32) {
	out.PutUint32(math.Float32bits(v))
}

// PutFloat64 writes an 8-byte IEEE-754 float, aligned per PutUint64's rule.
func (out *Output) PutFloat64(v float64) {
	out.PutUint64(math.Float64bits(v))
}
