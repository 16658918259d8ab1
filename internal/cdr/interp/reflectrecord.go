package interp

import (
	"reflect"
	"strconv"
	"sync"

	"github.com/ddsx/cdrstream/internal/cdr/opcode"
)

// ReflectRecord is the default Record implementation, driven by struct
// tags rather than code generation. A field is addressed by the offset an
// ADR/JEQ4 instruction's NativeOffset immediate names, recorded on the Go
// struct via a `cdr:"N"` tag:
//
//	type Point struct {
//		X int32 `cdr:"0"`
//		Y int32 `cdr:"1"`
//	}
//
// Optional and external fields must be represented as pointers so Present
// has a natural nil check to drive; unions are represented as one
// discriminant field plus one tagged field per arm (only the active arm's
// field is populated at a time, mirroring the C union's storage reuse
// without actually sharing memory — Go has no portable way to alias
// differently typed fields without unsafe).
//
// Programs built by code generation should implement Record directly
// instead, bypassing reflection on the hot path; ReflectRecord exists for
// programs assembled without a generator, and for tests.
func NewReflectRecord(ptr any) Record {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		opcode.Fault("interp: NewReflectRecord requires a pointer to a struct, got %T", ptr)
	}
	return reflectRecord{v: v.Elem()}
}

var offsetCache sync.Map // map[reflect.Type]map[uint32]int

func offsetIndexFor(t reflect.Type) map[uint32]int {
	if cached, ok := offsetCache.Load(t); ok {
		return cached.(map[uint32]int)
	}
	idx := make(map[uint32]int)
	for i := 0; i < t.NumField(); i++ {
		tag, ok := t.Field(i).Tag.Lookup("cdr")
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(tag, 10, 32)
		if err != nil {
			opcode.Fault("interp: struct field %s has malformed cdr tag %q", t.Field(i).Name, tag)
		}
		idx[uint32(n)] = i
	}
	offsetCache.Store(t, idx)
	return idx
}

type reflectRecord struct {
	v reflect.Value
}

func (r reflectRecord) field(offset uint32) reflect.Value {
	i, ok := offsetIndexFor(r.v.Type())[offset]
	if !ok {
		opcode.Fault("interp: no struct field tagged cdr:%q in %s", strconv.FormatUint(uint64(offset), 10), r.v.Type())
	}
	return r.v.Field(i)
}

func (r reflectRecord) Bool(offset uint32) bool      { return r.field(offset).Bool() }
func (r reflectRecord) SetBool(offset uint32, v bool) { r.field(offset).SetBool(v) }
func (r reflectRecord) Byte(offset uint32) uint8      { return uint8(r.field(offset).Uint()) }
func (r reflectRecord) SetByte(offset uint32, v uint8) { r.field(offset).SetUint(uint64(v)) }
func (r reflectRecord) U16(offset uint32) uint16      { return uint16(r.field(offset).Uint()) }
func (r reflectRecord) SetU16(offset uint32, v uint16) { r.field(offset).SetUint(uint64(v)) }
func (r reflectRecord) U32(offset uint32) uint32      { return uint32(r.field(offset).Uint()) }
func (r reflectRecord) SetU32(offset uint32, v uint32) { r.field(offset).SetUint(uint64(v)) }
func (r reflectRecord) U64(offset uint32) uint64      { return r.field(offset).Uint() }
func (r reflectRecord) SetU64(offset uint32, v uint64) { r.field(offset).SetUint(v) }
func (r reflectRecord) F32(offset uint32) float32     { return float32(r.field(offset).Float()) }
func (r reflectRecord) SetF32(offset uint32, v float32) { r.field(offset).SetFloat(float64(v)) }
func (r reflectRecord) F64(offset uint32) float64     { return r.field(offset).Float() }
func (r reflectRecord) SetF64(offset uint32, v float64) { r.field(offset).SetFloat(v) }
func (r reflectRecord) String(offset uint32) string   { return r.field(offset).String() }
func (r reflectRecord) SetString(offset uint32, v string) { r.field(offset).SetString(v) }

func (r reflectRecord) Sequence(offset uint32) Sequence {
	return reflectSequence{v: r.field(offset)}
}

func (r reflectRecord) Nested(offset uint32) Record {
	f := r.field(offset)
	if f.Kind() == reflect.Ptr {
		if f.IsNil() {
			f.Set(reflect.New(f.Type().Elem()))
		}
		return reflectRecord{v: f.Elem()}
	}
	return reflectRecord{v: f}
}

func (r reflectRecord) Discriminant(offset uint32) uint32 { return uint32(r.field(offset).Uint()) }
func (r reflectRecord) SetDiscriminant(offset uint32, v uint32) {
	r.field(offset).SetUint(uint64(v))
}

func (r reflectRecord) Present(offset uint32) bool {
	f := r.field(offset)
	if f.Kind() == reflect.Ptr {
		return !f.IsNil()
	}
	return !f.IsZero()
}

func (r reflectRecord) SetPresent(offset uint32, v bool) {
	f := r.field(offset)
	if f.Kind() != reflect.Ptr {
		opcode.Fault("interp: SetPresent requires a pointer-typed field at offset %d in %s", offset, r.v.Type())
	}
	if !v {
		f.Set(reflect.Zero(f.Type()))
		return
	}
	if f.IsNil() {
		f.Set(reflect.New(f.Type().Elem()))
	}
}

type reflectSequence struct {
	v reflect.Value
}

func (s reflectSequence) Len() int { return s.v.Len() }

func (s reflectSequence) Resize(n int) {
	if s.v.Kind() == reflect.Array {
		if s.v.Len() != n {
			opcode.Fault("interp: array field has length %d, program declares %d", s.v.Len(), n)
		}
		return
	}
	if s.v.Len() == n {
		return
	}
	next := reflect.MakeSlice(s.v.Type(), n, n)
	copyN := n
	if s.v.Len() < copyN {
		copyN = s.v.Len()
	}
	reflect.Copy(next, s.v.Slice(0, copyN))
	s.v.Set(next)
}

func (s reflectSequence) Bool(i int) bool          { return s.v.Index(i).Bool() }
func (s reflectSequence) SetBool(i int, v bool)    { s.v.Index(i).SetBool(v) }
func (s reflectSequence) Byte(i int) uint8         { return uint8(s.v.Index(i).Uint()) }
func (s reflectSequence) SetByte(i int, v uint8)   { s.v.Index(i).SetUint(uint64(v)) }
func (s reflectSequence) U16(i int) uint16         { return uint16(s.v.Index(i).Uint()) }
func (s reflectSequence) SetU16(i int, v uint16)   { s.v.Index(i).SetUint(uint64(v)) }
func (s reflectSequence) U32(i int) uint32         { return uint32(s.v.Index(i).Uint()) }
func (s reflectSequence) SetU32(i int, v uint32)   { s.v.Index(i).SetUint(uint64(v)) }
func (s reflectSequence) U64(i int) uint64         { return s.v.Index(i).Uint() }
func (s reflectSequence) SetU64(i int, v uint64)   { s.v.Index(i).SetUint(v) }
func (s reflectSequence) F32(i int) float32        { return float32(s.v.Index(i).Float()) }
func (s reflectSequence) SetF32(i int, v float32)  { s.v.Index(i).SetFloat(float64(v)) }
func (s reflectSequence) F64(i int) float64        { return s.v.Index(i).Float() }
func (s reflectSequence) SetF64(i int, v float64)  { s.v.Index(i).SetFloat(v) }
func (s reflectSequence) String(i int) string      { return s.v.Index(i).String() }
func (s reflectSequence) SetString(i int, v string) { s.v.Index(i).SetString(v) }

func (s reflectSequence) Element(i int) Record {
	e := s.v.Index(i)
	if e.Kind() == reflect.Ptr {
		if e.IsNil() {
			e.Set(reflect.New(e.Type().Elem()))
		}
		return reflectRecord{v: e.Elem()}
	}
	return reflectRecord{v: e}
}
