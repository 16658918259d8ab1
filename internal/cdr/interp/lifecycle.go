package interp

import "github.com/ddsx/cdrstream/internal/cdr/opcode"

// SkipDefault writes the type's default value (zero, empty string,
// length-zero sequence) into rec for every field p addresses, without
// reading any input. Used when an appendable type's receiver expects
// members the peer's wire data didn't include.
func SkipDefault(p opcode.Program, rec Record) {
	zeroFields(p, 0, rec)
}

// FreeSample releases any storage rec owns on behalf of the fields p
// addresses: strings are cleared, sequences truncated to zero length, and
// externals marked absent. In the reference implementation this walks the
// program to call the injected allocator's free on each owned pointer;
// under Go's garbage collector there is nothing to explicitly deallocate,
// so FreeSample's only job is to drop every reference rec holds so the GC
// can reclaim them, which is exactly what zeroing accomplishes.
func FreeSample(p opcode.Program, rec Record) {
	zeroFields(p, 0, rec)
}
