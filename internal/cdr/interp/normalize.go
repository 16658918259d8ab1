package interp

import (
	"github.com/ddsx/cdrstream/internal/cdr/opcode"
	"github.com/ddsx/cdrstream/internal/cdr/stream"
)

// Normalize validates buf in place against p and returns the actual used
// size, which may be less than len(buf) due to trailing padding. It is the
// only place an untrusted buffer may be examined before the bytes in it
// are treated as safe to Read: it walks the exact same program shape Read
// does, so every alignment rule, length field, string terminator,
// enum/bitmask domain, union discriminant, bound, and delimiter frame that
// Read would trust gets checked here first. When needsSwap is set it also
// byte-swaps every primitive in place as it validates it, so a subsequent
// real Read call can decode the buffer in host order.
//
// Normalize itself never materializes field values: it runs the same
// traversal Read does against a Record that discards everything it is
// given, so a hostile bound or count never causes it to allocate storage
// proportional to an attacker-controlled size.
func Normalize(p opcode.Program, buf []byte, needsSwap bool, version stream.Version) (int, error) {
	in := stream.NewInput(buf, version)
	if needsSwap {
		in.WithByteOrder(stream.ForeignOrder()).WithSwap(true)
	} else {
		in.WithByteOrder(stream.NativeOrder())
	}
	if err := Read(p, normalizeRecord{}, in); err != nil {
		return 0, err
	}
	return in.Cursor(), nil
}

// normalizeRecord is a no-op Record: Normalize reuses Read's traversal
// purely for its bounds/shape/domain checks and discards every value it
// decodes, since normalize's contract is "validate, don't materialize".
type normalizeRecord struct{}

func (normalizeRecord) Bool(uint32) bool              { return false }
func (normalizeRecord) SetBool(uint32, bool)          {}
func (normalizeRecord) Byte(uint32) uint8             { return 0 }
func (normalizeRecord) SetByte(uint32, uint8)         {}
func (normalizeRecord) U16(uint32) uint16             { return 0 }
func (normalizeRecord) SetU16(uint32, uint16)         {}
func (normalizeRecord) U32(uint32) uint32             { return 0 }
func (normalizeRecord) SetU32(uint32, uint32)         {}
func (normalizeRecord) U64(uint32) uint64             { return 0 }
func (normalizeRecord) SetU64(uint32, uint64)         {}
func (normalizeRecord) F32(uint32) float32            { return 0 }
func (normalizeRecord) SetF32(uint32, float32)        {}
func (normalizeRecord) F64(uint32) float64            { return 0 }
func (normalizeRecord) SetF64(uint32, float64)        {}
func (normalizeRecord) String(uint32) string          { return "" }
func (normalizeRecord) SetString(uint32, string)      {}
func (n normalizeRecord) Sequence(uint32) Sequence    { return normalizeSequence{} }
func (n normalizeRecord) Nested(uint32) Record        { return n }
func (normalizeRecord) Discriminant(uint32) uint32    { return 0 }
func (normalizeRecord) SetDiscriminant(uint32, uint32) {}
func (normalizeRecord) Present(uint32) bool           { return false }
func (normalizeRecord) SetPresent(uint32, bool)       {}

// normalizeSequence is the matching no-op Sequence: Resize is a no-op so
// normalize never allocates proportional to an attacker-controlled count,
// and Element returns the same sentinel Record so nested composite
// elements get checked without materializing storage per element.
type normalizeSequence struct{}

func (normalizeSequence) Len() int              { return 0 }
func (normalizeSequence) Resize(int)            {}
func (normalizeSequence) Bool(int) bool         { return false }
func (normalizeSequence) SetBool(int, bool)     {}
func (normalizeSequence) Byte(int) uint8        { return 0 }
func (normalizeSequence) SetByte(int, uint8)    {}
func (normalizeSequence) U16(int) uint16        { return 0 }
func (normalizeSequence) SetU16(int, uint16)    {}
func (normalizeSequence) U32(int) uint32        { return 0 }
func (normalizeSequence) SetU32(int, uint32)    {}
func (normalizeSequence) U64(int) uint64        { return 0 }
func (normalizeSequence) SetU64(int, uint64)    {}
func (normalizeSequence) F32(int) float32       { return 0 }
func (normalizeSequence) SetF32(int, float32)   {}
func (normalizeSequence) F64(int) float64       { return 0 }
func (normalizeSequence) SetF64(int, float64)   {}
func (normalizeSequence) String(int) string     { return "" }
func (normalizeSequence) SetString(int, string) {}
func (normalizeSequence) Element(int) Record    { return normalizeRecord{} }
