// Package serdata implements the reference-counted serialized-data
// container: the envelope that pairs a type descriptor with either a CDR
// payload, a key-only image, or both, and carries a lazily or eagerly
// computed keyhash depending on how it was constructed.
//
// Grounded on original_source's ddsi_serdata plus dds_cdrstream's
// sample<->cdr conversion entry points (ddsi_serdata_from_sample,
// ddsi_serdata_from_ser, ddsi_serdata_to_sample): the same four
// constructors, the same KeyImage states, and the same refcount discipline,
// adapted to Go's GC by dropping explicit free() calls in favor of Unref
// driving a bounded pool instead of a raw allocator free.
package serdata

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"io"
	"sync/atomic"

	"github.com/ddsx/cdrstream/internal/cdr/interp"
	"github.com/ddsx/cdrstream/internal/cdr/key"
	"github.com/ddsx/cdrstream/internal/cdr/stream"
	"github.com/ddsx/cdrstream/pkg/cdrerrors"
	"github.com/ddsx/cdrstream/pkg/typedesc"
)

// Kind distinguishes what a Serdata actually carries: payload, key only,
// or neither.
type Kind uint8

const (
	// Empty carries neither a payload nor a key image (a tombstone/dispose
	// notification with no data).
	Empty Kind = iota
	// Key carries only the key fields, serialized.
	Key
	// Data carries the full sample, serialized.
	Data
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "EMPTY"
	case Key:
		return "KEY"
	case Data:
		return "DATA"
	default:
		return "UNKNOWN"
	}
}

// imageState tags which of KeyImage's four representations is populated.
type imageState uint8

const (
	// imageUnset means no key image has been computed yet; GetKeyhash (or
	// an explicit key extraction) will populate one on first use.
	imageUnset imageState = iota
	// imageStatic means Bytes holds exactly the 16-byte keyhash itself, for
	// a type whose key fits the reference's OPT_SIZE_16 fast path.
	imageStatic
	// imageAlias means Bytes aliases a sub-slice of the Serdata's own
	// payload buffer (no copy), valid only while that payload is retained.
	imageAlias
	// imageOwned means Bytes is a standalone allocation not backed by the
	// payload buffer, produced when the key had to be reconstructed
	// independently of any retained payload (e.g. FromKeyhash).
	imageOwned
)

// KeyImage is the tagged representation of a Serdata's key bytes: unset,
// a static 16-byte keyhash, an alias into the payload, or an owned buffer.
type KeyImage struct {
	state imageState
	bytes []byte
}

// IsSet reports whether the key image has been computed.
func (ki KeyImage) IsSet() bool { return ki.state != imageUnset }

// Bytes returns the key image's raw bytes (nil if unset).
func (ki KeyImage) Bytes() []byte { return ki.bytes }

func staticKeyImage(b []byte) KeyImage { return KeyImage{state: imageStatic, bytes: b} }
func aliasKeyImage(b []byte) KeyImage  { return KeyImage{state: imageAlias, bytes: b} }
func ownedKeyImage(b []byte) KeyImage  { return KeyImage{state: imageOwned, bytes: b} }

// Serdata is the reference-counted container: a type descriptor, a kind,
// a CDR header, an optional payload, an optional key image, and a cached
// keyhash.
//
// Serdata is not safe for concurrent mutation of a single instance, but
// Ref/Unref's refcount is atomic so one instance may be shared (read-only)
// across goroutines the way DDS shares a single serdata among multiple
// readers.
type Serdata struct {
	desc *typedesc.TypeDescriptor
	kind Kind

	header  Header
	payload []byte

	keyImage KeyImage
	hash     [16]byte
	hashSet  bool

	refcount int32
	pool     *Pool
}

// TypeDescriptor returns the type descriptor this container was built
// against.
func (sd *Serdata) TypeDescriptor() *typedesc.TypeDescriptor { return sd.desc }

// Kind returns whether this container carries key-only, full, or no data.
func (sd *Serdata) Kind() Kind { return sd.kind }

// Header returns the container's CDR representation header.
func (sd *Serdata) Header() Header { return sd.header }

func versionFor(id Identifier) stream.Version {
	switch id {
	case IdentCDR2BE, IdentCDR2LE, IdentDCDR2BE, IdentDCDR2LE, IdentPLCDR2BE, IdentPLCDR2LE:
		return stream.XCDR2
	default:
		return stream.XCDR1
	}
}

func identifierFor(version stream.Version, order binary.ByteOrder, format typedesc.Format) Identifier {
	le := order == binary.LittleEndian
	switch version {
	case stream.XCDR2:
		switch format {
		case typedesc.FormatDelimited:
			if le {
				return IdentDCDR2LE
			}
			return IdentDCDR2BE
		case typedesc.FormatParameterList:
			if le {
				return IdentPLCDR2LE
			}
			return IdentPLCDR2BE
		default:
			if le {
				return IdentCDR2LE
			}
			return IdentCDR2BE
		}
	default:
		if format == typedesc.FormatParameterList {
			if le {
				return IdentPLCDRLE
			}
			return IdentPLCDRBE
		}
		if le {
			return IdentCDRLE
		}
		return IdentCDRBE
	}
}

// FromSample serializes rec (a fully populated native sample) into a new
// Data-kind Serdata under version/order, eagerly computing the keyhash the
// way the reference ddsi_serdata_from_sample path does: a from-sample
// construction has a live native sample in hand, so there is no reason to
// defer key work the way from-network does.
func FromSample(desc *typedesc.TypeDescriptor, rec interp.Record, version stream.Version, order binary.ByteOrder) (*Serdata, error) {
	out := stream.NewOutput(version, order)
	if err := interp.Write(desc.Program, rec, out); err != nil {
		return nil, err
	}
	// DDSI requires the encapsulated payload length to land on a 4-byte
	// boundary; the trailing pad byte count is recorded in the header's
	// options field per XTypes §7.6.3.1.2, the same bookkeeping
	// ostream_add_to_serdata_default does on the reference path.
	unpadded := out.Len()
	out.Align(4)
	pad := out.Len() - unpadded
	sd := &Serdata{
		desc:    desc,
		kind:    Data,
		header:  Header{Identifier: identifierFor(version, order, typedesc.FormatFor(desc.Extensibility))}.WithPaddingCount(pad),
		payload: out.Bytes(),
	}
	hash, err := key.Keyhash(desc.Program, desc.Keys, rec, desc.Flags.FixedKeyXCDR2)
	if err != nil {
		return nil, err
	}
	sd.hash = hash
	sd.hashSet = true
	if len(desc.Keys) > 0 && desc.Flags.FixedKeyXCDR2 {
		sd.keyImage = staticKeyImage(hash[:])
	}
	return sd, nil
}

// FromNetwork wraps a received wire buffer (header already split off by the
// transport layer) into a new Serdata, running interp.Normalize over buf to
// validate it and byte-swap it into host order in place, and deferring key
// extraction until GetKeyhash or ToUntyped is first called, since most
// received samples are consumed by full deserialization (ToSample) before
// anyone asks for the key.
func FromNetwork(desc *typedesc.TypeDescriptor, header Header, buf []byte) (*Serdata, error) {
	version := versionFor(header.Identifier)
	needsSwap := header.Identifier.ByteOrder() != stream.NativeOrder()
	if _, err := interp.Normalize(desc.Program, buf, needsSwap, version); err != nil {
		return nil, err
	}
	// Normalize rewrites buf's bytes to NativeOrder in place when a swap was
	// needed; the header must track that so every later reader of this
	// container (ToSample, ToUntyped, GetKeyhash) picks the byte order that
	// actually matches the bytes it holds, rather than the wire's original
	// encapsulation.
	if needsSwap {
		header = header.WithIdentifier(identifierFor(version, stream.NativeOrder(), typedesc.FormatFor(desc.Extensibility)))
	}
	return &Serdata{
		desc:    desc,
		kind:    Data,
		header:  header,
		payload: buf,
	}, nil
}

// FromKeyhash builds a Key-kind Serdata directly from a precomputed
// 16-byte keyhash, for the dispose/unregister path where no sample body is
// ever available.
func FromKeyhash(desc *typedesc.TypeDescriptor, hash [16]byte) *Serdata {
	return &Serdata{
		desc:     desc,
		kind:     Key,
		header:   Header{Identifier: identifierFor(stream.XCDR2, binary.BigEndian, typedesc.FormatPlain)},
		keyImage: staticKeyImage(append([]byte(nil), hash[:]...)),
		hash:     hash,
		hashSet:  true,
	}
}

// FromLoanedBuffer wraps a caller-owned buffer (e.g. a shared-memory loan)
// as a Data-kind Serdata without copying, trusting the caller that buf is
// already normalized to host order. The caller must keep buf alive for as
// long as the returned Serdata is referenced; Unref never frees or pools a
// loaned buffer's backing storage.
func FromLoanedBuffer(desc *typedesc.TypeDescriptor, header Header, buf []byte) *Serdata {
	return &Serdata{desc: desc, kind: Data, header: header, payload: buf}
}

// Ref increments the container's reference count and returns sd, matching
// the reference's ddsi_serdata_ref signature-as-builder idiom.
func (sd *Serdata) Ref() *Serdata {
	atomic.AddInt32(&sd.refcount, 1)
	return sd
}

// Unref decrements the reference count. On the final release, if sd came
// from a Pool (see WithPool) and is small enough to retain, it is pushed
// back onto that pool for reuse instead of being left for the garbage
// collector.
func (sd *Serdata) Unref() {
	if atomic.AddInt32(&sd.refcount, -1) > 0 {
		return
	}
	if sd.pool == nil || !eligibleForPool(sd) {
		return
	}
	sd.payload = sd.payload[:0]
	sd.keyImage = KeyImage{}
	sd.hashSet = false
	sd.kind = Empty
	atomic.StoreInt32(&sd.refcount, 0)
	if !sd.pool.Push(sd) {
		// pool full: let sd be collected normally.
		sd.pool = nil
	}
}

// WithPool attaches pool to sd so a future Unref to zero returns sd for
// reuse rather than releasing it outright. Acquire is the usual pairing:
// Acquire(pool) first tries Pop before allocating fresh.
func (sd *Serdata) WithPool(pool *Pool) *Serdata {
	sd.pool = pool
	return sd
}

// Acquire pops a reusable container from pool, or allocates a fresh
// zero-value Serdata if the pool is empty.
func Acquire(pool *Pool) *Serdata {
	if sd := pool.Pop(); sd != nil {
		return sd
	}
	return &Serdata{pool: pool}
}

// ToSer returns the container's serialized payload together with its
// 4-byte wire header, ready to hand to a transport write. Returns an error
// for an Empty-kind container, which carries no serializable payload.
func (sd *Serdata) ToSer() (Header, []byte, error) {
	if sd.kind == Empty {
		return Header{}, nil, cdrerrors.At(cdrerrors.ErrOverrun, 0)
	}
	if sd.kind == Key {
		return sd.header, sd.keyImage.Bytes(), nil
	}
	return sd.header, sd.payload, nil
}

// ToSerIOV is ToSer split into header and body as two separate buffers,
// for callers building a scatter-gather write (io.Writer chains, net.Buffers)
// instead of a single concatenated allocation.
func (sd *Serdata) ToSerIOV(order binary.ByteOrder) (headerBytes [4]byte, body []byte, err error) {
	h, body, err := sd.ToSer()
	if err != nil {
		return [4]byte{}, nil, err
	}
	return h.Encode(order), body, nil
}

// ToSample deserializes sd's payload into rec. When rec implements
// interp.FlatRecord and the type descriptor reports a nonzero
// OptSizeFor(sd's version) equal to the payload length, ToSample copies
// the payload into rec.RawBytes() in one step; otherwise it walks the
// program with interp.Read.
func (sd *Serdata) ToSample(rec interp.Record) error {
	if sd.kind != Data {
		return cdrerrors.At(cdrerrors.ErrOverrun, 0)
	}
	version := versionFor(sd.header.Identifier)
	in := stream.NewInput(sd.payload, version).WithByteOrder(sd.header.Identifier.ByteOrder())
	if fr, ok := rec.(interp.FlatRecord); ok {
		if n := sd.desc.OptSizeFor(version); n > 0 && int(n) == len(sd.payload) {
			copy(fr.RawBytes(), sd.payload)
			return nil
		}
	}
	// interp.Read already zeroes an inactive union arm's storage (see
	// readUnion/zeroUnionArms), so a pooled/reused rec never leaks a stale
	// value from a previous sample's active arm.
	return interp.Read(sd.desc.Program, rec, in)
}

// ToUntyped projects sd down to a Key-kind container holding only the key
// bytes: for a Data-kind sd this extracts the key
// fields from the payload; for an already Key-kind sd it returns sd itself
// (ref-counted). rec is scratch storage used only if extraction from a
// full payload is required.
func (sd *Serdata) ToUntyped(rec interp.Record) (*Serdata, error) {
	if sd.kind == Key {
		return sd.Ref(), nil
	}
	if sd.kind != Data {
		return nil, cdrerrors.At(cdrerrors.ErrOverrun, 0)
	}
	if len(sd.desc.Keys) == 0 {
		return &Serdata{desc: sd.desc, kind: Key, header: sd.header, keyImage: staticKeyImage(nil)}, nil
	}
	version := versionFor(sd.header.Identifier)
	in := stream.NewInput(sd.payload, version).WithByteOrder(sd.header.Identifier.ByteOrder())
	out := stream.NewOutput(stream.XCDR2, binary.BigEndian)
	ordered := key.OrderForVersion(sd.desc.Keys, stream.XCDR2)
	if err := key.ExtractKeyFromData(sd.desc.Program, ordered, rec, in, out); err != nil {
		return nil, err
	}
	return &Serdata{
		desc:     sd.desc,
		kind:     Key,
		header:   Header{Identifier: identifierFor(stream.XCDR2, binary.BigEndian, typedesc.FormatPlain)},
		keyImage: ownedKeyImage(out.Bytes()),
	}, nil
}

// GetKeyhash returns sd's 16-byte RTPS keyhash, computing and caching it on
// first call if it was deferred (the from-network path). rec is scratch
// storage used only if the hash still needs to be derived from a payload.
func (sd *Serdata) GetKeyhash(rec interp.Record) ([16]byte, error) {
	if sd.hashSet {
		return sd.hash, nil
	}
	switch sd.kind {
	case Key:
		sd.hash = keyhashFromKeyImage(sd.keyImage, sd.desc.Flags.FixedKeyXCDR2)
	case Data:
		version := versionFor(sd.header.Identifier)
		in := stream.NewInput(sd.payload, version).WithByteOrder(sd.header.Identifier.ByteOrder())
		hash, err := key.KeyhashFromData(sd.desc.Program, sd.desc.Keys, rec, in, sd.desc.Flags.FixedKeyXCDR2)
		if err != nil {
			return [16]byte{}, err
		}
		sd.hash = hash
	default:
		sd.hash = [16]byte{}
	}
	sd.hashSet = true
	return sd.hash, nil
}

func keyhashFromKeyImage(ki KeyImage, fixedKeyXCDR2 bool) [16]byte {
	b := ki.Bytes()
	if len(b) == 16 && ki.state == imageStatic {
		var h [16]byte
		copy(h[:], b)
		return h
	}
	if len(b) <= 16 && fixedKeyXCDR2 {
		var h [16]byte
		copy(h[:], b)
		return h
	}
	return md5Sum(b)
}

// Eqkey reports whether a and b carry the same key: keyless types always
// compare equal, otherwise it's a plain byte comparison. a and b need not share a Kind: a Data-kind sample and a
// Key-kind tombstone for the same instance compare equal when their hashes
// match.
func Eqkey(a, b *Serdata, recA, recB interp.Record) (bool, error) {
	if len(a.desc.Keys) == 0 && len(b.desc.Keys) == 0 {
		return true, nil
	}
	ha, err := a.GetKeyhash(recA)
	if err != nil {
		return false, err
	}
	hb, err := b.GetKeyhash(recB)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ha[:], hb[:]), nil
}

// Print writes a human-readable dump of sd's native sample to w, requiring
// the caller to first deserialize into rec (Print never mutates sd).
func (sd *Serdata) Print(w io.Writer, rec interp.Record) error {
	return interp.Print(w, sd.desc.Program, rec)
}

func md5Sum(b []byte) [16]byte { return md5.Sum(b) }
