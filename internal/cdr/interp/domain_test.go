package interp

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ddsx/cdrstream/internal/cdr/opcode"
	"github.com/ddsx/cdrstream/internal/cdr/stream"
	"github.com/ddsx/cdrstream/pkg/cdrerrors"
)

type enumStruct struct {
	Color uint32 `cdr:"0"`
}

// enumProgram declares a single 4-byte enum field whose maximum ordinal is
// max.
func enumProgram(max uint32) opcode.Program {
	return opcode.Program{
		uint32(opcode.MakeInstr(opcode.ADR, opcode.TEnum, 2, 0)), 0, 0, max,
		uint32(opcode.MakeInstr(opcode.RTS, 0, 0, 0)),
	}
}

func TestEnumDomainViolationOnWrite(t *testing.T) {
	prog := enumProgram(2)
	rec := NewReflectRecord(&enumStruct{Color: 3})
	out := stream.NewOutput(stream.XCDR2, binary.LittleEndian)
	err := Write(prog, rec, out)
	require.Error(t, err)
	assert.ErrorIs(t, err, cdrerrors.ErrEnumDomain)
}

func TestEnumWithinDomainRoundTrips(t *testing.T) {
	prog := enumProgram(2)
	rec := NewReflectRecord(&enumStruct{Color: 2})
	out := stream.NewOutput(stream.XCDR2, binary.LittleEndian)
	require.NoError(t, Write(prog, rec, out))

	got := &enumStruct{}
	in := stream.NewInput(out.Bytes(), stream.XCDR2).WithByteOrder(binary.LittleEndian)
	require.NoError(t, Read(prog, NewReflectRecord(got), in))
	assert.Equal(t, uint32(2), got.Color)
}

func TestEnumDomainViolationOnRead(t *testing.T) {
	lenient := enumProgram(10)
	rec := NewReflectRecord(&enumStruct{Color: 5})
	out := stream.NewOutput(stream.XCDR2, binary.LittleEndian)
	require.NoError(t, Write(lenient, rec, out))

	strict := enumProgram(2)
	got := &enumStruct{}
	in := stream.NewInput(out.Bytes(), stream.XCDR2).WithByteOrder(binary.LittleEndian)
	err := Read(strict, NewReflectRecord(got), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, cdrerrors.ErrEnumDomain)
}

type bitmaskStruct struct {
	Flags uint32 `cdr:"0"`
}

// bitmaskProgram declares a single 4-byte bitmask field whose only
// permitted bits are the low two.
func bitmaskProgram() opcode.Program {
	return opcode.Program{
		uint32(opcode.MakeInstr(opcode.ADR, opcode.TBitmask, 2, 0)), 0, 0, 0x3,
		uint32(opcode.MakeInstr(opcode.RTS, 0, 0, 0)),
	}
}

func TestBitmaskDomainViolationOnWrite(t *testing.T) {
	prog := bitmaskProgram()
	rec := NewReflectRecord(&bitmaskStruct{Flags: 0x4})
	out := stream.NewOutput(stream.XCDR2, binary.LittleEndian)
	err := Write(prog, rec, out)
	require.Error(t, err)
	assert.ErrorIs(t, err, cdrerrors.ErrBitmaskDomain)
}

func TestBitmaskWithinDomainRoundTrips(t *testing.T) {
	prog := bitmaskProgram()
	rec := NewReflectRecord(&bitmaskStruct{Flags: 0x3})
	out := stream.NewOutput(stream.XCDR2, binary.LittleEndian)
	require.NoError(t, Write(prog, rec, out))

	got := &bitmaskStruct{}
	in := stream.NewInput(out.Bytes(), stream.XCDR2).WithByteOrder(binary.LittleEndian)
	require.NoError(t, Read(prog, NewReflectRecord(got), in))
	assert.Equal(t, uint32(0x3), got.Flags)
}

type enumSeqStruct struct {
	Colors []uint32 `cdr:"0"`
}

func TestSequenceElementEnumDomainViolation(t *testing.T) {
	prog := opcode.Program{
		uint32(opcode.MakeInstr(opcode.ADR, opcode.TSequence, uint8(opcode.TEnum), 0)), 0, 4, 0, 0, 2,
		uint32(opcode.MakeInstr(opcode.RTS, 0, 0, 0)),
	}
	rec := NewReflectRecord(&enumSeqStruct{Colors: []uint32{1, 3}})
	out := stream.NewOutput(stream.XCDR2, binary.LittleEndian)
	err := Write(prog, rec, out)
	require.Error(t, err)
	assert.ErrorIs(t, err, cdrerrors.ErrEnumDomain)
}

type floatStruct struct {
	X float32 `cdr:"0"`
	Y float64 `cdr:"1"`
}

func TestFloatFieldRoundTrip(t *testing.T) {
	prog := opcode.Program{
		uint32(opcode.MakeInstr(opcode.ADR, opcode.T4Byte, 0, opcode.FlagFP)), 0,
		uint32(opcode.MakeInstr(opcode.ADR, opcode.T8Byte, 0, opcode.FlagFP)), 1,
		uint32(opcode.MakeInstr(opcode.RTS, 0, 0, 0)),
	}
	rec := NewReflectRecord(&floatStruct{X: 1.5, Y: -2.25})

	out := stream.NewOutput(stream.XCDR1, binary.LittleEndian)
	require.NoError(t, Write(prog, rec, out))

	got := &floatStruct{}
	in := stream.NewInput(out.Bytes(), stream.XCDR1).WithByteOrder(binary.LittleEndian)
	require.NoError(t, Read(prog, NewReflectRecord(got), in))
	assert.Equal(t, float32(1.5), got.X)
	assert.Equal(t, -2.25, got.Y)
}

type floatSeqStruct struct {
	Values []float32 `cdr:"0"`
}

func TestSequenceOfFloatRoundTrip(t *testing.T) {
	prog := opcode.Program{
		uint32(opcode.MakeInstr(opcode.ADR, opcode.TSequence, uint8(opcode.T4Byte), opcode.FlagFP)), 0, 4, 0,
		uint32(opcode.MakeInstr(opcode.RTS, 0, 0, 0)),
	}
	rec := NewReflectRecord(&floatSeqStruct{Values: []float32{1, 2.5, -3}})

	out := stream.NewOutput(stream.XCDR2, binary.LittleEndian)
	require.NoError(t, Write(prog, rec, out))

	got := &floatSeqStruct{}
	in := stream.NewInput(out.Bytes(), stream.XCDR2).WithByteOrder(binary.LittleEndian)
	require.NoError(t, Read(prog, NewReflectRecord(got), in))
	assert.Equal(t, []float32{1, 2.5, -3}, got.Values)
}
