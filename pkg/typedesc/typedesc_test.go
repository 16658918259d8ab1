package typedesc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ddsx/cdrstream/internal/cdr/opcode"
	"github.com/ddsx/cdrstream/internal/cdr/stream"
)

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatPlain, FormatFor(Final))
	assert.Equal(t, FormatDelimited, FormatFor(Appendable))
	assert.Equal(t, FormatParameterList, FormatFor(Mutable))
}

func TestOptSizeForSuppressedByContainsUnion(t *testing.T) {
	d := &TypeDescriptor{
		Flags:        Flags{ContainsUnion: true},
		OptSizeXCDR1: 16,
		OptSizeXCDR2: 16,
	}
	assert.Equal(t, uint32(0), d.OptSizeFor(stream.XCDR1))
	assert.Equal(t, uint32(0), d.OptSizeFor(stream.XCDR2))
}

func TestOptSizeForPassesThroughWithoutUnions(t *testing.T) {
	d := &TypeDescriptor{OptSizeXCDR1: 8, OptSizeXCDR2: 12}
	assert.Equal(t, uint32(8), d.OptSizeFor(stream.XCDR1))
	assert.Equal(t, uint32(12), d.OptSizeFor(stream.XCDR2))
}

func TestMinimumXCDRVersionFinalPrimitive(t *testing.T) {
	p := opcode.Program{
		uint32(opcode.MakeInstr(opcode.ADR, opcode.T4Byte, 0, 0)), 0,
		uint32(opcode.MakeInstr(opcode.RTS, 0, 0, 0)),
	}
	d := &TypeDescriptor{Program: p, Extensibility: Final}
	assert.Equal(t, stream.XCDR1, d.MinimumXCDRVersion())
}

func TestMinimumXCDRVersionOptionalRequiresXCDR2(t *testing.T) {
	p := opcode.Program{
		uint32(opcode.MakeInstr(opcode.ADR, opcode.T4Byte, 0, opcode.FlagOptional)), 0,
		uint32(opcode.MakeInstr(opcode.RTS, 0, 0, 0)),
	}
	d := &TypeDescriptor{Program: p, Extensibility: Final}
	assert.Equal(t, stream.XCDR2, d.MinimumXCDRVersion())
}
