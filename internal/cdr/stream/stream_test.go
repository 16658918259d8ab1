package stream

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ddsx/cdrstream/pkg/cdrerrors"
)

func TestOutputAlignment(t *testing.T) {
	t.Run("PadsToFourByteBoundary", func(t *testing.T) {
		out := NewOutput(XCDR1, binary.LittleEndian)
		out.PutByte(0x01)
		out.PutUint32(0x02030405)
		assert.Equal(t, []byte{0x01, 0, 0, 0, 0x05, 0x04, 0x03, 0x02}, out.Bytes())
	})

	t.Run("XCDR2RelaxesEightByteAlignmentToFour", func(t *testing.T) {
		out := NewOutput(XCDR2, binary.LittleEndian)
		out.PutByte(0x01)
		out.PutUint64(1)
		assert.Equal(t, 12, out.Len(), "expects 3 bytes padding not 7")
	})

	t.Run("XCDR1KeepsEightByteAlignment", func(t *testing.T) {
		out := NewOutput(XCDR1, binary.LittleEndian)
		out.PutByte(0x01)
		out.PutUint64(1)
		assert.Equal(t, 16, out.Len(), "expects 7 bytes padding")
	})
}

func TestInputOutputRoundtrip(t *testing.T) {
	out := NewOutput(XCDR1, binary.LittleEndian)
	out.PutUint32(0x01020304)
	out.PutUint16(0x0506)

	in := NewInput(out.Bytes(), XCDR1).WithByteOrder(binary.LittleEndian)
	v32, err := in.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), v32)

	v16, err := in.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0506), v16)
}

func TestInputOverrun(t *testing.T) {
	in := NewInput([]byte{0x01, 0x02}, XCDR1)
	_, err := in.Uint32()
	assert.ErrorIs(t, err, cdrerrors.ErrOverrun)
}

func TestDHeaderPatchesBodyLength(t *testing.T) {
	out := NewOutput(XCDR2, binary.LittleEndian)
	off := out.WriteDHeaderPlaceholder()
	out.PutUint32(1)
	out.PutByte(2)
	out.PatchDHeader(off)

	in := NewInput(out.Bytes(), XCDR2).WithByteOrder(binary.LittleEndian)
	length, err := in.ReadDHeader()
	require.NoError(t, err)
	assert.Equal(t, uint32(5), length)
}

func TestEMHeaderEncodeDecode(t *testing.T) {
	h := EMHeader{MustUnderstand: true, LengthCode: 2, MemberID: 10}
	decoded := DecodeEMHeader(h.Encode())
	assert.Equal(t, h, decoded)
}

func TestLengthCodeForPicksSmallestInlineCode(t *testing.T) {
	assert.Equal(t, uint8(0), LengthCodeFor(1))
	assert.Equal(t, uint8(1), LengthCodeFor(2))
	assert.Equal(t, uint8(2), LengthCodeFor(4))
	assert.Equal(t, uint8(3), LengthCodeFor(8))
	assert.Equal(t, uint8(4), LengthCodeFor(3))
	assert.Equal(t, uint8(4), LengthCodeFor(100))
}

func TestResolveAliasedLengthShiftsByCodeMinusFour(t *testing.T) {
	got, err := ResolveAliasedLength(6, 0x00000003)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x0000000c), got)
}

func TestOutputEnterNestedTripsPastMaxDepth(t *testing.T) {
	out := NewOutput(XCDR2, binary.LittleEndian).WithMaxDepth(2)

	require.NoError(t, out.EnterNested())
	require.NoError(t, out.EnterNested())
	err := out.EnterNested()
	assert.ErrorIs(t, err, cdrerrors.ErrNestingTooDeep)
}

func TestOutputEnterNestedAllowsExactLimit(t *testing.T) {
	out := NewOutput(XCDR2, binary.LittleEndian).WithMaxDepth(1)

	require.NoError(t, out.EnterNested())
	out.ExitNested()
	require.NoError(t, out.EnterNested())
}

func TestOutputEnterNestedDisabledByDefault(t *testing.T) {
	out := NewOutput(XCDR2, binary.LittleEndian)

	for i := 0; i < 1000; i++ {
		require.NoError(t, out.EnterNested())
	}
}

func TestInputEnterNestedTripsPastMaxDepth(t *testing.T) {
	in := NewInput(nil, XCDR2).WithMaxDepth(2)

	require.NoError(t, in.EnterNested())
	require.NoError(t, in.EnterNested())
	err := in.EnterNested()
	assert.ErrorIs(t, err, cdrerrors.ErrNestingTooDeep)
}

func TestInputEnterNestedExitAllowsFurtherDescents(t *testing.T) {
	in := NewInput(nil, XCDR2).WithMaxDepth(1)

	require.NoError(t, in.EnterNested())
	in.ExitNested()
	require.NoError(t, in.EnterNested())
	assert.ErrorIs(t, in.EnterNested(), cdrerrors.ErrNestingTooDeep)
}
