// Package cdralloc defines an allocator contract: a trait-like
// `{malloc, realloc, free}` triple, grounded on
// `dds_cdrstream_allocator_t` in
// original_source/src/core/cdr/include/dds/cdr/dds_cdrstream.h.
// No function in internal/cdr/interp, internal/cdr/stream,
// internal/cdr/key or pkg/serdata takes an Allocator; their buffers come
// from make and append.
//
// Go's GC makes `free` a no-op for the default implementation, but the
// interface stays three-method-shaped (rather than collapsing to just
// Malloc/Realloc) so a pooled implementation — where Free has real work
// to do — satisfies the same contract without a type switch at call sites.
package cdralloc

import "github.com/ddsx/cdrstream/pkg/bufpool"

// Allocator is the malloc/realloc/free allocation triple.
type Allocator interface {
	// Malloc returns a new byte slice of exactly n bytes.
	Malloc(n int) []byte
	// Realloc returns a byte slice of exactly n bytes, preserving buf's
	// existing contents up to min(len(buf), n); buf is no longer valid
	// after the call.
	Realloc(buf []byte, n int) []byte
	// Free releases buf back to the allocator. buf is no longer valid
	// after the call.
	Free(buf []byte)
}

// goAllocator is the default Allocator, backed directly by the Go
// garbage collector: Malloc and Realloc allocate plainly, Free is a no-op.
type goAllocator struct{}

// Default returns the GC-backed Allocator.
func Default() Allocator { return goAllocator{} }

func (goAllocator) Malloc(n int) []byte { return make([]byte, n) }

func (goAllocator) Realloc(buf []byte, n int) []byte {
	next := make([]byte, n)
	copy(next, buf)
	return next
}

func (goAllocator) Free([]byte) {}

// pooledAllocator backs Malloc/Realloc/Free with a bufpool.Pool, for
// callers on a hot path (e.g. pkg/serdata's from-network construction)
// who want to avoid churning the GC on every sample. Realloc here always
// copies into a freshly pooled buffer rather than attempting in-place
// growth, since bufpool buffers are fixed-size per tier and pooled
// capacity isn't growable in place.
type pooledAllocator struct {
	pool *bufpool.Pool
}

// NewPooled returns an Allocator backed by pool. A nil pool makes a fresh
// pool with bufpool.NewPool(nil).
func NewPooled(pool *bufpool.Pool) Allocator {
	if pool == nil {
		return pooledAllocator{pool: bufpool.NewPool(nil)}
	}
	return pooledAllocator{pool: pool}
}

func (a pooledAllocator) Malloc(n int) []byte { return a.pool.Get(n) }

func (a pooledAllocator) Realloc(buf []byte, n int) []byte {
	next := a.pool.Get(n)
	copy(next, buf)
	a.pool.Put(buf)
	return next
}

func (a pooledAllocator) Free(buf []byte) { a.pool.Put(buf) }
