// Package dynrecord implements interp.Record over a generic, JSON-shaped
// value tree instead of a generated or hand-written Go struct, for
// cmd/cdrstream's encode/decode/normalize/keyhash subcommands: without a
// code generator in scope, the CLI has no concrete struct type to reflect
// over the way interp.NewReflectRecord does, so it
// addresses fields through a map keyed by the same NativeOffset immediates
// the opcode program already carries.
package dynrecord

import (
	"github.com/ddsx/cdrstream/internal/cdr/interp"
)

// Value is one field's storage: a primitive, a nested record, or a
// sequence/array of child values. Only the members relevant to the
// field's wire type are ever populated; the rest stay at zero value.
type Value struct {
	Bool    bool    `json:"bool,omitempty"`
	Byte    uint8   `json:"byte,omitempty"`
	U16     uint16  `json:"u16,omitempty"`
	U32     uint32  `json:"u32,omitempty"`
	U64     uint64  `json:"u64,omitempty"`
	F32     float32 `json:"f32,omitempty"`
	F64     float64 `json:"f64,omitempty"`
	Str     string  `json:"string,omitempty"`

	Discriminant uint32 `json:"discriminant,omitempty"`
	Present      bool   `json:"present,omitempty"`

	Elements []*Value          `json:"elements,omitempty"`
	Fields   map[uint32]*Value `json:"fields,omitempty"`
}

// Record is a dynrecord.Value's root, addressed through interp.Record's
// offset-keyed accessor methods.
type Record struct {
	v *Value
}

// New wraps an empty record, suitable as a write/normalize target.
func New() *Record {
	return &Record{v: &Value{Fields: make(map[uint32]*Value)}}
}

// Wrap adapts an already-populated Value tree (e.g. unmarshaled from
// JSON) into a Record, suitable as an encode source.
func Wrap(v *Value) *Record {
	if v.Fields == nil {
		v.Fields = make(map[uint32]*Value)
	}
	return &Record{v: v}
}

// Value returns the record's underlying tree, for marshaling back to JSON
// after a decode/normalize pass populates it.
func (r *Record) Value() *Value { return r.v }

func (r *Record) field(offset uint32) *Value {
	f, ok := r.v.Fields[offset]
	if !ok {
		f = &Value{}
		r.v.Fields[offset] = f
	}
	return f
}

func (r *Record) Bool(offset uint32) bool          { return r.field(offset).Bool }
func (r *Record) SetBool(offset uint32, v bool)    { r.field(offset).Bool = v }
func (r *Record) Byte(offset uint32) uint8         { return r.field(offset).Byte }
func (r *Record) SetByte(offset uint32, v uint8)   { r.field(offset).Byte = v }
func (r *Record) U16(offset uint32) uint16         { return r.field(offset).U16 }
func (r *Record) SetU16(offset uint32, v uint16)   { r.field(offset).U16 = v }
func (r *Record) U32(offset uint32) uint32         { return r.field(offset).U32 }
func (r *Record) SetU32(offset uint32, v uint32)   { r.field(offset).U32 = v }
func (r *Record) U64(offset uint32) uint64         { return r.field(offset).U64 }
func (r *Record) SetU64(offset uint32, v uint64)   { r.field(offset).U64 = v }
func (r *Record) F32(offset uint32) float32        { return r.field(offset).F32 }
func (r *Record) SetF32(offset uint32, v float32)  { r.field(offset).F32 = v }
func (r *Record) F64(offset uint32) float64        { return r.field(offset).F64 }
func (r *Record) SetF64(offset uint32, v float64)  { r.field(offset).F64 = v }
func (r *Record) String(offset uint32) string      { return r.field(offset).Str }
func (r *Record) SetString(offset uint32, v string) { r.field(offset).Str = v }

func (r *Record) Discriminant(offset uint32) uint32 { return r.field(offset).Discriminant }
func (r *Record) SetDiscriminant(offset uint32, v uint32) {
	r.field(offset).Discriminant = v
}
func (r *Record) Present(offset uint32) bool       { return r.field(offset).Present }
func (r *Record) SetPresent(offset uint32, v bool) { r.field(offset).Present = v }

func (r *Record) Nested(offset uint32) interp.Record {
	f := r.field(offset)
	if f.Fields == nil {
		f.Fields = make(map[uint32]*Value)
	}
	return &Record{v: f}
}

func (r *Record) Sequence(offset uint32) interp.Sequence {
	return &seq{v: r.field(offset)}
}

// seq adapts a Value's Elements slice to interp.Sequence.
type seq struct {
	v *Value
}

func (s *seq) Len() int { return len(s.v.Elements) }

func (s *seq) Resize(n int) {
	if n == len(s.v.Elements) {
		return
	}
	grown := make([]*Value, n)
	copy(grown, s.v.Elements)
	for i := len(s.v.Elements); i < n; i++ {
		grown[i] = &Value{}
	}
	s.v.Elements = grown
}

func (s *seq) elem(i int) *Value { return s.v.Elements[i] }

func (s *seq) Bool(i int) bool         { return s.elem(i).Bool }
func (s *seq) SetBool(i int, v bool)   { s.elem(i).Bool = v }
func (s *seq) Byte(i int) uint8        { return s.elem(i).Byte }
func (s *seq) SetByte(i int, v uint8)  { s.elem(i).Byte = v }
func (s *seq) U16(i int) uint16        { return s.elem(i).U16 }
func (s *seq) SetU16(i int, v uint16)  { s.elem(i).U16 = v }
func (s *seq) U32(i int) uint32        { return s.elem(i).U32 }
func (s *seq) SetU32(i int, v uint32)  { s.elem(i).U32 = v }
func (s *seq) U64(i int) uint64        { return s.elem(i).U64 }
func (s *seq) SetU64(i int, v uint64)  { s.elem(i).U64 = v }
func (s *seq) F32(i int) float32       { return s.elem(i).F32 }
func (s *seq) SetF32(i int, v float32) { s.elem(i).F32 = v }
func (s *seq) F64(i int) float64       { return s.elem(i).F64 }
func (s *seq) SetF64(i int, v float64) { s.elem(i).F64 = v }
func (s *seq) String(i int) string         { return s.elem(i).Str }
func (s *seq) SetString(i int, v string)   { s.elem(i).Str = v }

func (s *seq) Element(i int) interp.Record {
	e := s.elem(i)
	if e.Fields == nil {
		e.Fields = make(map[uint32]*Value)
	}
	return &Record{v: e}
}
