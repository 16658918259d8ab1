package serdata

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ddsx/cdrstream/internal/cdr/interp"
	"github.com/ddsx/cdrstream/internal/cdr/key"
	"github.com/ddsx/cdrstream/internal/cdr/opcode"
	"github.com/ddsx/cdrstream/internal/cdr/stream"
	"github.com/ddsx/cdrstream/pkg/typedesc"
)

type keyedSample struct {
	ID   uint32 `cdr:"0"`
	Name string `cdr:"1"`
}

// keyedProgram is FINAL {u32 id (@key); string name}, RTS-terminated.
func keyedProgram() opcode.Program {
	return opcode.Program{
		uint32(opcode.MakeInstr(opcode.ADR, opcode.T4Byte, 0, opcode.FlagKey)), 0,
		uint32(opcode.MakeInstr(opcode.ADR, opcode.TString, 0, 0)), 1,
		uint32(opcode.MakeInstr(opcode.RTS, 0, 0, 0)),
	}
}

func newKeyedDescriptor(fixedKeyXCDR2 bool) *typedesc.TypeDescriptor {
	return &typedesc.TypeDescriptor{
		Name:          "Keyed",
		Program:       keyedProgram(),
		Keys:          []key.Descriptor{{OpsOffset: 0}},
		Extensibility: typedesc.Final,
		Flags:         typedesc.Flags{FixedKeyXCDR2: fixedKeyXCDR2},
	}
}

func TestFromSampleRoundTrip(t *testing.T) {
	desc := newKeyedDescriptor(true)
	src := interp.NewReflectRecord(&keyedSample{ID: 7, Name: "alpha"})

	sd, err := FromSample(desc, src, stream.XCDR1, binary.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, Data, sd.Kind())

	dst := interp.NewReflectRecord(&keyedSample{})
	require.NoError(t, sd.ToSample(dst))
	assert.Equal(t, uint32(7), dst.U32(0))
	assert.Equal(t, "alpha", dst.String(1))
}

func TestFromSampleEagerKeyhash(t *testing.T) {
	desc := newKeyedDescriptor(true)
	src := interp.NewReflectRecord(&keyedSample{ID: 0x01020304, Name: "beta"})

	sd, err := FromSample(desc, src, stream.XCDR1, binary.LittleEndian)
	require.NoError(t, err)

	want, err := key.Keyhash(desc.Program, desc.Keys, src, desc.Flags.FixedKeyXCDR2)
	require.NoError(t, err)

	got, err := sd.GetKeyhash(nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, sd.hashSet)
}

func TestFromNetworkNormalizesAndUpdatesHeader(t *testing.T) {
	desc := newKeyedDescriptor(true)
	src := interp.NewReflectRecord(&keyedSample{ID: 99, Name: "gamma"})

	// Serialize under the foreign (big-endian) encapsulation, the opposite
	// of this package's fixed NativeOrder (little-endian).
	out := stream.NewOutput(stream.XCDR1, binary.BigEndian)
	require.NoError(t, interp.Write(desc.Program, src, out))

	header := Header{Identifier: IdentCDRBE}
	buf := append([]byte(nil), out.Bytes()...)

	sd, err := FromNetwork(desc, header, buf)
	require.NoError(t, err)
	assert.False(t, sd.hashSet)
	// Normalize swapped the payload into NativeOrder in place, so the
	// header must now claim the little-endian identifier even though the
	// wire encapsulation was big-endian.
	assert.Equal(t, IdentCDRLE, sd.Header().Identifier)

	dst := interp.NewReflectRecord(&keyedSample{})
	require.NoError(t, sd.ToSample(dst))
	assert.Equal(t, uint32(99), dst.U32(0))
	assert.Equal(t, "gamma", dst.String(1))

	hash, err := sd.GetKeyhash(interp.NewReflectRecord(&keyedSample{}))
	require.NoError(t, err)
	assert.True(t, sd.hashSet)

	want, err := key.Keyhash(desc.Program, desc.Keys, src, desc.Flags.FixedKeyXCDR2)
	require.NoError(t, err)
	assert.Equal(t, want, hash)
}

func TestFromKeyhash(t *testing.T) {
	desc := newKeyedDescriptor(true)
	hash := [16]byte{1, 2, 3, 4}

	sd := FromKeyhash(desc, hash)
	assert.Equal(t, Key, sd.Kind())

	got, err := sd.GetKeyhash(nil)
	require.NoError(t, err)
	assert.Equal(t, hash, got)
}

func TestToUntypedProjectsKeyFromData(t *testing.T) {
	desc := newKeyedDescriptor(true)
	src := interp.NewReflectRecord(&keyedSample{ID: 55, Name: "delta"})

	sd, err := FromSample(desc, src, stream.XCDR1, binary.LittleEndian)
	require.NoError(t, err)

	projected, err := sd.ToUntyped(interp.NewReflectRecord(&keyedSample{}))
	require.NoError(t, err)
	assert.Equal(t, Key, projected.Kind())

	hash, err := projected.GetKeyhash(nil)
	require.NoError(t, err)

	want, err := sd.GetKeyhash(nil)
	require.NoError(t, err)
	assert.Equal(t, want, hash)
}

func TestEqkeySameAndDifferent(t *testing.T) {
	desc := newKeyedDescriptor(true)
	a, err := FromSample(desc, interp.NewReflectRecord(&keyedSample{ID: 1, Name: "a"}), stream.XCDR1, binary.LittleEndian)
	require.NoError(t, err)
	b, err := FromSample(desc, interp.NewReflectRecord(&keyedSample{ID: 1, Name: "b"}), stream.XCDR1, binary.LittleEndian)
	require.NoError(t, err)
	c, err := FromSample(desc, interp.NewReflectRecord(&keyedSample{ID: 2, Name: "a"}), stream.XCDR1, binary.LittleEndian)
	require.NoError(t, err)

	eq, err := Eqkey(a, b, nil, nil)
	require.NoError(t, err)
	assert.True(t, eq, "differing non-key fields must not affect key equality")

	eq, err = Eqkey(a, c, nil, nil)
	require.NoError(t, err)
	assert.False(t, eq)
}

func TestEqkeyKeylessAlwaysEqual(t *testing.T) {
	desc := &typedesc.TypeDescriptor{Program: keyedProgram()}
	a := &Serdata{desc: desc, kind: Empty}
	b := &Serdata{desc: desc, kind: Empty}

	eq, err := Eqkey(a, b, nil, nil)
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestPoolAcquireRefUnrefReuse(t *testing.T) {
	pool := NewPool(2)
	sd := Acquire(pool)
	assert.Equal(t, 0, pool.Len())

	sd.Ref()
	sd.Unref()

	assert.Equal(t, 1, pool.Len())

	reused := Acquire(pool)
	assert.Equal(t, 0, pool.Len())
	assert.Equal(t, Empty, reused.Kind())
}

func TestPoolPushFalseWhenFull(t *testing.T) {
	pool := NewPool(1)
	first := &Serdata{}
	second := &Serdata{}

	assert.True(t, pool.Push(first))
	assert.False(t, pool.Push(second))
}
