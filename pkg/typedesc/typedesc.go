// Package typedesc defines the immutable type descriptor bundled with
// every topic type: native size/alignment, extensibility,
// the allowed wire representations, the operation program itself, key
// descriptors, and the opt_size fast-path hints.
//
// Grounded on `struct dds_cdrstream_desc` in
// original_source/src/core/cdr/include/dds/cdr/dds_cdrstream.h: the same
// fields, renamed to Go convention and regrouped into named types
// (Flags, Extensibility) instead of a single bitmask, since Go has no
// terse bitflag-struct idiom worth avoiding in favor of named booleans
// for a handful of flags checked individually throughout the codebase.
package typedesc

import (
	"github.com/ddsx/cdrstream/internal/cdr/interp"
	"github.com/ddsx/cdrstream/internal/cdr/key"
	"github.com/ddsx/cdrstream/internal/cdr/opcode"
	"github.com/ddsx/cdrstream/internal/cdr/stream"
)

// Extensibility is a type's top-level wire evolution kind.
type Extensibility uint8

const (
	// Final types carry no wire envelope; fields are emitted in program
	// order with no length delimiter.
	Final Extensibility = iota
	// Appendable types are DHEADER-wrapped: a receiver skips unknown
	// trailing members and defaults its own unconsumed ones.
	Appendable
	// Mutable types are parameter-list encoded: every member carries its
	// own EMHEADER envelope and the receiver matches by member id.
	Mutable
)

func (e Extensibility) String() string {
	switch e {
	case Final:
		return "FINAL"
	case Appendable:
		return "APPENDABLE"
	case Mutable:
		return "MUTABLE"
	default:
		return "UNKNOWN"
	}
}

// Format is the wire encoding format derived from Extensibility.
type Format uint8

const (
	FormatPlain Format = iota
	FormatDelimited
	FormatParameterList
)

// FormatFor derives a type's wire Format from its Extensibility.
func FormatFor(e Extensibility) Format {
	switch e {
	case Appendable:
		return FormatDelimited
	case Mutable:
		return FormatParameterList
	default:
		return FormatPlain
	}
}

// Flags records the boolean properties grouped under a type descriptor's
// flag set.
type Flags struct {
	ContainsUnion      bool
	NoOptimizedCopy    bool
	FixedKeyXCDR1      bool
	FixedKeyXCDR2      bool
	FixedSize          bool
	XTypesMetadata     bool
}

// Representations records which XCDR versions a type may be encoded
// under.
type Representations struct {
	XCDR1 bool
	XCDR2 bool
}

// TypeDescriptor is the immutable metadata bundle: everything the
// interpreter, key machinery, and serdata container need to process
// samples of one topic type, precompiled once by whatever layer turns an
// IDL/type definition into an opcode.Program (out of scope for this
// core).
type TypeDescriptor struct {
	Name string

	NativeSize  uint32
	NativeAlign uint32

	Flags            Flags
	Extensibility    Extensibility
	Representations  Representations

	Program opcode.Program

	// Keys lists this type's key descriptors in XCDR1 (definition) order;
	// key.OrderForVersion derives the XCDR2 ascending-member-id order on
	// demand. Empty for a keyless type.
	Keys []key.Descriptor

	// OptSizeXCDR1, OptSizeXCDR2 are nonzero when the native record and
	// the wire image are byte-identical for that XCDR version, enabling a
	// memcpy fast path (see pkg/serdata and FlatRecord). Zero means no
	// fast path is available for that version.
	OptSizeXCDR1 uint32
	OptSizeXCDR2 uint32
}

// OptSizeFor returns the cached opt_size for version, or 0 if none
// applies. FlagContainsUnion suppresses both opt_size fields under the
// strict reference rule DESIGN.md's Open Question #3 adopts: a type that
// contains any union anywhere in its structure never gets the memcpy fast
// path, even if this particular sample's active arms happen to line up
// with the native layout, because opt_size is a property of the type, not
// of an instance.
func (d *TypeDescriptor) OptSizeFor(v stream.Version) uint32 {
	if d.Flags.ContainsUnion {
		return 0
	}
	if v == stream.XCDR1 {
		return d.OptSizeXCDR1
	}
	return d.OptSizeXCDR2
}

// MinimumXCDRVersion reports the lowest CDR version Program may be
// encoded under, delegating the feature scan to interp.MinimumXCDRVersion
// (optional members, MUTABLE/APPENDABLE framing, non-4-byte enum/bitmask
// wire sizes).
func (d *TypeDescriptor) MinimumXCDRVersion() stream.Version {
	return stream.Version(interp.MinimumXCDRVersion(d.Program))
}
