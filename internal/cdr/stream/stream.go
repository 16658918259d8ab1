// Package stream implements the CDR input and output byte cursors the
// interpreter reads from and writes to: alignment-aware, payload-relative
// cursors over a read-only input buffer and a grow-on-demand output buffer,
// in native, little-endian, and big-endian facades.
//
// Per RFC 4506-derived CDR rules (refined by DDS-XTypes for XCDR2),
// alignment is always relative to the start of the payload, not the start
// of the underlying buffer: a stream created over a buffer that begins
// mid-message (e.g. after a transport header) still aligns as if byte 0
// of the payload were byte 0 of the alignment grid.
package stream

import (
	"encoding/binary"

	"github.com/ddsx/cdrstream/pkg/cdrerrors"
)

// Version selects which CDR alignment/framing rules a stream enforces.
type Version uint8

const (
	// XCDR1 aligns 8-byte primitives to 8 bytes.
	XCDR1 Version = 1
	// XCDR2 relaxes 8-byte primitive alignment to 4 bytes and introduces
	// DHEADER/EMHEADER framing for appendable and mutable types.
	XCDR2 Version = 2
)

// Input is a read-only, alignment-aware cursor over a payload buffer.
type Input struct {
	buf      []byte
	cursor   int
	version  Version
	order    binary.ByteOrder
	swap     bool
	depth    int
	maxDepth int
}

// NewInput wraps buf for reading under the given XCDR version. The cursor
// starts at the beginning of the payload (offset 0 for alignment purposes).
// Byte order defaults to big-endian; call WithByteOrder to override it
// before reading any primitives.
func NewInput(buf []byte, version Version) *Input {
	return &Input{buf: buf, version: version, order: binary.BigEndian}
}

// Len returns the total payload length in bytes.
func (in *Input) Len() int { return len(in.buf) }

// Cursor returns the current byte offset from the start of the payload.
func (in *Input) Cursor() int { return in.cursor }

// Remaining returns the number of unread bytes.
func (in *Input) Remaining() int { return len(in.buf) - in.cursor }

// Version reports the stream's XCDR version.
func (in *Input) Version() Version { return in.version }

// Order reports the stream's current byte order.
func (in *Input) Order() binary.ByteOrder { return in.order }

// WithMaxDepth sets the nesting-depth guard EnterNested enforces. A
// maxDepth of 0 (the default returned by NewInput) disables the guard.
func (in *Input) WithMaxDepth(maxDepth int) *Input {
	in.maxDepth = maxDepth
	return in
}

// EnterNested records a descent into one more aggregate frame (a nested
// struct, external, union arm, or sequence-of-composite element), failing
// once the configured guard is exceeded. Every call must be paired with a
// deferred ExitNested.
func (in *Input) EnterNested() error {
	in.depth++
	if in.maxDepth > 0 && in.depth > in.maxDepth {
		return cdrerrors.ErrNestingTooDeep
	}
	return nil
}

// ExitNested reverses a prior successful EnterNested.
func (in *Input) ExitNested() { in.depth-- }

// alignedPad returns the padding bytes needed to align the cursor to size,
// where size is capped to 4 under XCDR2 (the 8-byte relaxation).
func alignedPad(cursor int, size int, version Version) int {
	if size == 8 && version == XCDR2 {
		size = 4
	}
	if size <= 1 {
		return 0
	}
	rem := cursor % size
	if rem == 0 {
		return 0
	}
	return size - rem
}

// Align advances the cursor past any padding needed to reach a boundary of
// size bytes (relative to the start of the payload), returning an error if
// doing so would run past the end of the buffer.
func (in *Input) Align(size int) error {
	pad := alignedPad(in.cursor, size, in.version)
	if pad == 0 {
		return nil
	}
	if in.cursor+pad > len(in.buf) {
		return cdrerrors.ErrOverrun
	}
	in.cursor += pad
	return nil
}

// Skip advances the cursor by n bytes without alignment, failing if that
// would run past the end of the buffer.
func (in *Input) Skip(n int) error {
	if in.cursor+n > len(in.buf) {
		return cdrerrors.ErrOverrun
	}
	in.cursor += n
	return nil
}

// Peek returns a read-only view of the next n bytes without advancing the
// cursor.
func (in *Input) Peek(n int) ([]byte, error) {
	if in.cursor+n > len(in.buf) {
		return nil, cdrerrors.ErrOverrun
	}
	return in.buf[in.cursor : in.cursor+n], nil
}

// ReadBytes aligns to align, reads n raw bytes, and advances the cursor.
func (in *Input) ReadBytes(n, align int) ([]byte, error) {
	if err := in.Align(align); err != nil {
		return nil, err
	}
	if in.cursor+n > len(in.buf) {
		return nil, cdrerrors.ErrOverrun
	}
	b := in.buf[in.cursor : in.cursor+n]
	in.cursor += n
	return b, nil
}

// Output is a grow-on-demand, alignment-aware cursor for writing a CDR
// payload. byteOrder selects how multi-byte primitives are laid out;
// pass either binary.LittleEndian or binary.BigEndian.
type Output struct {
	buf       []byte
	version   Version
	byteOrder binary.ByteOrder
	depth     int
	maxDepth  int
}

// initialOutputCap is the starting capacity for a new Output's buffer; it
// grows by doubling thereafter.
const initialOutputCap = 256

// NewOutput creates an Output under the given XCDR version and byte order.
func NewOutput(version Version, byteOrder binary.ByteOrder) *Output {
	return &Output{buf: make([]byte, 0, initialOutputCap), version: version, byteOrder: byteOrder}
}

// WithMaxDepth sets the nesting-depth guard EnterNested enforces. A
// maxDepth of 0 (the default returned by NewOutput) disables the guard.
func (out *Output) WithMaxDepth(maxDepth int) *Output {
	out.maxDepth = maxDepth
	return out
}

// EnterNested records a descent into one more aggregate frame, mirroring
// Input.EnterNested on the write side. Every call must be paired with a
// deferred ExitNested.
func (out *Output) EnterNested() error {
	out.depth++
	if out.maxDepth > 0 && out.depth > out.maxDepth {
		return cdrerrors.ErrNestingTooDeep
	}
	return nil
}

// ExitNested reverses a prior successful EnterNested.
func (out *Output) ExitNested() { out.depth-- }

// Bytes returns the bytes written so far.
func (out *Output) Bytes() []byte { return out.buf }

// Len returns the number of bytes written so far.
func (out *Output) Len() int { return len(out.buf) }

// Version reports the stream's XCDR version.
func (out *Output) Version() Version { return out.version }

// ByteOrder reports the stream's configured byte order.
func (out *Output) ByteOrder() binary.ByteOrder { return out.byteOrder }

// grow ensures the buffer has room for n more bytes, doubling capacity as
// needed rather than growing exactly, to amortize reallocation over a
// sequence of small writes.
func (out *Output) grow(n int) {
	need := len(out.buf) + n
	if need <= cap(out.buf) {
		return
	}
	newCap := cap(out.buf) * 2
	if newCap < need {
		newCap = need
	}
	grown := make([]byte, len(out.buf), newCap)
	copy(grown, out.buf)
	out.buf = grown
}

// Align writes zero padding bytes until the cursor reaches a boundary of
// size bytes (with the XCDR2 8→4 relaxation applied).
func (out *Output) Align(size int) {
	pad := alignedPad(len(out.buf), size, out.version)
	if pad == 0 {
		return
	}
	out.grow(pad)
	zeros := out.buf[len(out.buf) : len(out.buf)+pad]
	for i := range zeros {
		zeros[i] = 0
	}
	out.buf = out.buf[:len(out.buf)+pad]
}

// WriteBytes aligns to align, then appends b verbatim.
func (out *Output) WriteBytes(b []byte, align int) {
	out.Align(align)
	out.grow(len(b))
	out.buf = append(out.buf, b...)
}

// Reserve aligns to align, appends n zero bytes, and returns the offset of
// the reserved region so the caller can patch it later (used for DHEADER
// and EMHEADER-with-NEXTINT backpatching).
func (out *Output) Reserve(n, align int) int {
	out.Align(align)
	out.grow(n)
	off := len(out.buf)
	out.buf = out.buf[:off+n]
	for i := off; i < off+n; i++ {
		out.buf[i] = 0
	}
	return off
}

// PatchUint32 overwrites the 4 bytes at off with v in the stream's byte
// order. Used to backpatch a DHEADER or EMHEADER NEXTINT once the body
// length it describes is known.
func (out *Output) PatchUint32(off int, v uint32) {
	out.byteOrder.PutUint32(out.buf[off:off+4], v)
}
