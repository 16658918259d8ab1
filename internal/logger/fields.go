package logger

import (
	"encoding/hex"
	"log/slog"
)

// Standard field keys for structured logging.
// These keys are used consistently across the codec, key-machinery, and
// serdata packages so logs can be aggregated and queried by dimension.
const (
	// ========================================================================
	// Correlation
	// ========================================================================
	KeyTraceID = "trace_id" // correlation id spanning a batch of related calls
	KeySpanID  = "span_id"  // sub-step id within that batch

	// ========================================================================
	// Type system
	// ========================================================================
	KeyTypeName       = "type_name"      // registered type name
	KeyExtensibility  = "extensibility"  // final, appendable, mutable
	KeyXCDRVersion    = "xcdr_version"   // 1 or 2
	KeyEncodingFmt    = "encoding_fmt"   // plain, delimited, pl
	KeyMemberID       = "member_id"      // PLM/EMHEADER member id
	KeyMustUnderstand = "must_understand"

	// ========================================================================
	// Interpreter / opcode program
	// ========================================================================
	KeyOperation    = "operation"     // write, read, normalize, skip_default, free_sample, print, extract_key, keyhash
	KeyProgramPC    = "program_pc"    // program-counter word offset
	KeyOpKind       = "op_kind"       // ADR, JSR, RTS, JEQ, JEQ4, KOF, PLM, DLC, PLC
	KeyTypeCode     = "type_code"     // opcode type code (1BY, STR, SEQ, UNI, ...)
	KeyNativeOffset = "native_offset" // byte offset into the native record

	// ========================================================================
	// Stream / wire
	// ========================================================================
	KeyStreamCursor = "stream_cursor" // byte offset within the payload
	KeyByteCount    = "byte_count"    // bytes read/written
	KeyBound        = "bound"         // declared bound for bounded string/sequence

	// ========================================================================
	// Key machinery
	// ========================================================================
	KeyKeyhash = "keyhash" // hex-encoded 16-byte RTPS keyhash

	// ========================================================================
	// Serialized-data container / pool
	// ========================================================================
	KeySerdataKind = "serdata_kind" // EMPTY, KEY, DATA
	KeyRefcount    = "refcount"
	KeyPoolHit     = "pool_hit"
	KeyPoolSize    = "pool_size"

	// ========================================================================
	// Registry
	// ========================================================================
	KeyRegistrationID = "registration_id" // uuid stamped on each sertype registration

	// ========================================================================
	// Operation metadata
	// ========================================================================
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorCode  = "error_code"
)

// ----------------------------------------------------------------------------
// Field constructors for type safety
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for the batch correlation id.
func TraceID(id string) slog.Attr { return slog.String(KeyTraceID, id) }

// SpanID returns a slog.Attr for the sub-step id.
func SpanID(id string) slog.Attr { return slog.String(KeySpanID, id) }

// TypeName returns a slog.Attr for the registered type name.
func TypeName(name string) slog.Attr { return slog.String(KeyTypeName, name) }

// Extensibility returns a slog.Attr for the type's extensibility kind.
func Extensibility(kind string) slog.Attr { return slog.String(KeyExtensibility, kind) }

// XCDRVersion returns a slog.Attr for the XCDR version in use.
func XCDRVersion(v uint32) slog.Attr { return slog.Uint64(KeyXCDRVersion, uint64(v)) }

// EncodingFormat returns a slog.Attr for the wire encoding format.
func EncodingFormat(fmtName string) slog.Attr { return slog.String(KeyEncodingFmt, fmtName) }

// MemberID returns a slog.Attr for a PLM/EMHEADER member identifier.
func MemberID(id uint32) slog.Attr { return slog.Uint64(KeyMemberID, uint64(id)) }

// MustUnderstand returns a slog.Attr for the EMHEADER must-understand flag.
func MustUnderstand(v bool) slog.Attr { return slog.Bool(KeyMustUnderstand, v) }

// Operation returns a slog.Attr naming the interpreter entry point invoked.
func Operation(op string) slog.Attr { return slog.String(KeyOperation, op) }

// ProgramPC returns a slog.Attr for a program-counter word offset.
func ProgramPC(pc int) slog.Attr { return slog.Int(KeyProgramPC, pc) }

// OpKind returns a slog.Attr naming an instruction's primary kind.
func OpKind(kind string) slog.Attr { return slog.String(KeyOpKind, kind) }

// TypeCode returns a slog.Attr naming an instruction's type code.
func TypeCode(code string) slog.Attr { return slog.String(KeyTypeCode, code) }

// NativeOffset returns a slog.Attr for a native-record byte offset.
func NativeOffset(off uint32) slog.Attr { return slog.Uint64(KeyNativeOffset, uint64(off)) }

// StreamCursor returns a slog.Attr for the stream's current byte cursor.
func StreamCursor(cursor uint32) slog.Attr { return slog.Uint64(KeyStreamCursor, uint64(cursor)) }

// ByteCount returns a slog.Attr for a byte count.
func ByteCount(n int) slog.Attr { return slog.Int(KeyByteCount, n) }

// Bound returns a slog.Attr for a declared bound.
func Bound(n uint32) slog.Attr { return slog.Uint64(KeyBound, uint64(n)) }

// Keyhash returns a slog.Attr for a hex-encoded keyhash.
func Keyhash(keyhashHex string) slog.Attr { return slog.String(KeyKeyhash, keyhashHex) }

// KeyhashBytes returns a slog.Attr for a raw keyhash, hex-encoded.
func KeyhashBytes(b []byte) slog.Attr { return slog.String(KeyKeyhash, hex.EncodeToString(b)) }

// SerdataKind returns a slog.Attr naming a serdata container's kind.
func SerdataKind(kind string) slog.Attr { return slog.String(KeySerdataKind, kind) }

// Refcount returns a slog.Attr for a container's current refcount.
func Refcount(n int32) slog.Attr { return slog.Int64(KeyRefcount, int64(n)) }

// PoolHit returns a slog.Attr indicating whether a pool lookup hit.
func PoolHit(hit bool) slog.Attr { return slog.Bool(KeyPoolHit, hit) }

// PoolSize returns a slog.Attr for the pool's current occupancy.
func PoolSize(n int) slog.Attr { return slog.Int(KeyPoolSize, n) }

// RegistrationID returns a slog.Attr for a sertype registration correlation id.
func RegistrationID(id string) slog.Attr { return slog.String(KeyRegistrationID, id) }

// DurationMs returns a slog.Attr for an operation's wall time in milliseconds.
func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

// Err returns a slog.Attr for an error value, or an empty slog.Attr
// (which handlers drop) for a nil error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a named error sentinel.
func ErrorCode(code string) slog.Attr { return slog.String(KeyErrorCode, code) }
