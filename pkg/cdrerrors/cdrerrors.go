// Package cdrerrors defines the recoverable error taxonomy the CDR codec
// returns from user-facing entry points. It deliberately excludes
// programmer errors (malformed opcode programs): those are reported via
// opcode.Fault as panics, never as values from this package, since no
// amount of error handling at the call site can make a corrupt program
// safe to keep interpreting.
package cdrerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by stream, interp, and key operations. Callers
// use errors.Is to test for a specific condition; Normalize and the
// top-level Write/Read entry points wrap one of these with positional
// context via At (or AtMember).
var (
	// ErrOverrun is returned when a read or write would run past the end
	// of the payload buffer.
	ErrOverrun = errors.New("cdr: buffer overrun")

	// ErrMisaligned names a cursor that does not sit on the alignment
	// boundary its type requires. No function in this module returns it.
	ErrMisaligned = errors.New("cdr: misaligned cursor")

	// ErrBoundOverflow is returned when a bounded string or sequence's
	// serialized length exceeds its declared bound.
	ErrBoundOverflow = errors.New("cdr: bound overflow")

	// ErrBitmaskDomain is returned when a bitmask value sets bits outside
	// its declared width's permitted mask.
	ErrBitmaskDomain = errors.New("cdr: bitmask value out of domain")

	// ErrEnumDomain is returned when an enum's wire value exceeds the
	// declared maximum ordinal.
	ErrEnumDomain = errors.New("cdr: enum value out of domain")

	// ErrUnterminatedString is returned when a string's declared length
	// does not include a trailing NUL, or the NUL is not the last byte.
	ErrUnterminatedString = errors.New("cdr: string missing NUL terminator")

	// ErrUnionDiscriminant is returned by strict callers when a union's
	// discriminant matches no arm and the union has no default case.
	// Normalize itself does not fail on this condition (spec: silently
	// empty); this sentinel exists for callers that opt into strictness.
	ErrUnionDiscriminant = errors.New("cdr: union discriminant unmatched")

	// ErrTruncatedFraming is returned when a DHEADER or EMHEADER declares
	// a body length that runs past the end of the enclosing buffer.
	ErrTruncatedFraming = errors.New("cdr: truncated delimiter framing")

	// ErrUnmatchedMustUnderstand is returned when a mutable type's
	// incoming member carries the must-understand bit but matches no
	// PLM in the reading program.
	ErrUnmatchedMustUnderstand = errors.New("cdr: unmatched must-understand member")

	// ErrExhausted names a pool or allocator with no capacity left. No
	// function in this module returns it: the serdata freelist's Pop
	// returns nil when empty instead.
	ErrExhausted = errors.New("cdr: pool exhausted")

	// ErrNestingTooDeep is returned when a Read or Write descends past the
	// configured nesting-depth guard (pkg/config's
	// InterpreterConfig.MaxNestingDepth) while following a nested struct,
	// external, union arm, or sequence-of-composite member. Guards against
	// malformed programs or adversarial wire data driving unbounded
	// recursion.
	ErrNestingTooDeep = errors.New("cdr: nesting too deep")
)

// PositionalError wraps a sentinel with the byte offset and, where known,
// the member id at which it was detected. Normalize and the interpreter's
// Read/Write entry points return one of these rather than a bare sentinel
// so callers can log precise failure locations.
type PositionalError struct {
	Err    error
	Offset int
	Member uint32 // 0 if not applicable
}

func (e *PositionalError) Error() string {
	if e.Member != 0 {
		return fmt.Sprintf("%s at offset %d (member %d)", e.Err, e.Offset, e.Member)
	}
	return fmt.Sprintf("%s at offset %d", e.Err, e.Offset)
}

func (e *PositionalError) Unwrap() error { return e.Err }

// At wraps err with the offset it was detected at.
func At(err error, offset int) error {
	return &PositionalError{Err: err, Offset: offset}
}

// AtMember wraps err with both the offset and the member id it was
// detected at.
func AtMember(err error, offset int, member uint32) error {
	return &PositionalError{Err: err, Offset: offset, Member: member}
}

// Recoverable reports whether err (or anything it wraps) is one of this
// package's sentinels, as opposed to an *opcode.ProgramFault surfaced as
// an error by a caller that chose to recover it.
func Recoverable(err error) bool {
	for _, sentinel := range []error{
		ErrOverrun, ErrMisaligned, ErrBoundOverflow, ErrBitmaskDomain,
		ErrEnumDomain, ErrUnterminatedString, ErrUnionDiscriminant,
		ErrTruncatedFraming, ErrUnmatchedMustUnderstand, ErrExhausted,
		ErrNestingTooDeep,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
