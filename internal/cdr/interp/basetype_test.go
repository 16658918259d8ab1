package interp

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ddsx/cdrstream/internal/cdr/opcode"
	"github.com/ddsx/cdrstream/internal/cdr/stream"
)

// derivedStruct embeds a base type's member (A, member id 10) alongside its
// own member (B, member id 20). The opcode program below expresses this as
// a MUTABLE type whose PLM for A is flagged FlagBase: its jump target is the
// base type's own PLC, not a bare ADR, and the base's own PLM list follows
// that PLC word. This mirrors how a derived @mutable type splices a base
// type's member list in by reference rather than repeating it inline.
type derivedStruct struct {
	A uint32 `cdr:"0"`
	B uint16 `cdr:"1"`
}

func baseTypeProgram() opcode.Program {
	return opcode.Program{
		uint32(opcode.MakeInstr(opcode.PLC, 0, 0, 0)), // pc0: derived PLC
		uint32(opcode.MakeInstr(opcode.PLM, 0, 0, opcode.FlagBase)), 7, 0, // pc1: PLM(base) -> target pc8
		uint32(opcode.MakeInstr(opcode.PLM, 0, 0, 0)), 11, 20, // pc4: PLM(B) -> target pc15
		uint32(opcode.MakeInstr(opcode.RTS, 0, 0, 0)), // pc7: end of derived member list
		uint32(opcode.MakeInstr(opcode.PLC, 0, 0, 0)), // pc8: base PLC
		uint32(opcode.MakeInstr(opcode.PLM, 0, 0, 0)), 4, 10, // pc9: PLM(A) -> target pc13
		uint32(opcode.MakeInstr(opcode.RTS, 0, 0, 0)), // pc12: end of base member list
		uint32(opcode.MakeInstr(opcode.ADR, opcode.T4Byte, 0, opcode.FlagMustUnderstand)), 0, // pc13: A
		uint32(opcode.MakeInstr(opcode.ADR, opcode.T2Byte, 0, 0)), 1, // pc15: B
	}
}

func TestBaseTypeProgramValidates(t *testing.T) {
	require.NoError(t, opcode.Validate(baseTypeProgram()))
}

func TestBaseTypeRoundTrip(t *testing.T) {
	prog := baseTypeProgram()
	rec := NewReflectRecord(&derivedStruct{A: 9, B: 3})

	out := stream.NewOutput(stream.XCDR2, binary.LittleEndian)
	require.NoError(t, Write(prog, rec, out))
	// Both the base member (A, id 10) and the derived member (B, id 20)
	// land in the same DHEADER-wrapped parameter list.
	assert.Equal(t, []byte{
		0x0e, 0x00, 0x00, 0x00, // DHEADER: body is 14 bytes
		0x0a, 0x00, 0x00, 0xa0, // EMHEADER mu=1 lc=2 id=10 (base member A)
		0x09, 0x00, 0x00, 0x00, // a = 9
		0x14, 0x00, 0x00, 0x10, // EMHEADER mu=0 lc=1 id=20 (derived member B)
		0x03, 0x00, // b = 3
	}, out.Bytes())

	got := &derivedStruct{}
	in := stream.NewInput(out.Bytes(), stream.XCDR2).WithByteOrder(binary.LittleEndian)
	require.NoError(t, Read(prog, NewReflectRecord(got), in))
	assert.Equal(t, uint32(9), got.A)
	assert.Equal(t, uint16(3), got.B)
}

func TestBaseTypeZeroFieldsClearsBaseMember(t *testing.T) {
	prog := baseTypeProgram()
	s := &derivedStruct{A: 9, B: 3}

	SkipDefault(prog, NewReflectRecord(s))

	assert.Equal(t, derivedStruct{}, *s)
}
