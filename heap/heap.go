// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// Package heap implements a fixed-region, first-fit block allocator
// for environments that bring their own memory: a caller-supplied
// byte region is carved into variable-sized blocks on demand, freed
// blocks merge eagerly with their neighbors, and the allocator never
// touches memory outside the region it was handed.
//
// A Heap is NOT safe for concurrent use. The block chain has no
// internal locking; callers running allocations from multiple
// goroutines must serialize them.
package heap

import (
	"fmt"
	"iter"

	"github.com/dacapoday/fixheap"
	"github.com/dacapoday/fixheap/internal/arena"
)

type Ref = fixheap.Ref

// Option supplies the heap's build-time tunables. Both values must
// match between the writer that initialized a region and any later
// reader attaching to it. A nil Option selects an 8-byte granularity
// and the default sentinel.
type Option interface {
	// Granularity is the minimum allocation unit in bytes: request
	// sizes round up to it, and no free block smaller than it is
	// ever created. Power of two, at most 8.
	Granularity() int

	// Sentinel is the magic value stamped into every block header,
	// checked before Free writes anything.
	Sentinel() uint32
}

// HeaderSize is the per-block bookkeeping overhead in bytes.
const HeaderSize = arena.HeaderSize

// Heap manages one fixed byte region. Use New or Attach; the zero
// value is unusable.
type Heap struct {
	arena arena.Arena
}

var _ fixheap.Allocator = (*Heap)(nil)

// New initializes a heap over region, discarding whatever the region
// held. The region is used in place and must stay alive and
// unshared for as long as the heap is.
func New(region []byte, opt Option) (*Heap, error) {
	heap := new(Heap)
	if err := heap.arena.Load(region, opt); err != nil {
		return nil, fmt.Errorf("heap.New: %w", err)
	}
	heap.arena.Reset()
	return heap, nil
}

// Attach adopts a region that a previous Heap with the same options
// already initialized — typically a shared mapping reopened by
// another process. The whole chain is validated first; a region that
// fails validation is refused untouched rather than reset.
func Attach(region []byte, opt Option) (*Heap, error) {
	heap := new(Heap)
	if err := heap.arena.Load(region, opt); err != nil {
		return nil, fmt.Errorf("heap.Attach: %w", err)
	}
	if err := heap.arena.Adopt(); err != nil {
		return nil, fmt.Errorf("heap.Attach: %w", err)
	}
	return heap, nil
}

// Alloc reserves size bytes, rounded up to the granularity, from the
// first free block large enough to hold them. ok is false — with the
// chain left untouched — when size is not positive or no single free
// block fits; total free bytes may still exceed size when the region
// is fragmented.
func (heap *Heap) Alloc(size int) (ref Ref, ok bool) {
	return heap.arena.Alloc(size)
}

// Free returns the allocation at ref and merges it with free
// neighbors. A ref this heap never handed out, a stale ref from
// before a Reset, or a second Free of the same ref are all silent
// no-ops: the heap prefers leaking a bad ref over corrupting the
// chain every later allocation depends on.
func (heap *Heap) Free(ref Ref) {
	heap.arena.Free(ref)
}

// Bytes returns the usable bytes of the live allocation at ref, or
// nil if ref does not name one. The slice is a view into the region;
// it is valid until the allocation is freed.
func (heap *Heap) Bytes(ref Ref) []byte {
	return heap.arena.Bytes(ref)
}

// Reset discards every allocation and restores the single free
// block. All outstanding Refs become invalid.
func (heap *Heap) Reset() {
	heap.arena.Reset()
}

// Defrag merges every run of adjacent free blocks. Free already
// coalesces eagerly, so this only changes a chain that another
// writer of a shared region left unmerged.
func (heap *Heap) Defrag() {
	heap.arena.Defrag()
}

// Check validates the whole chain without mutating it, wrapping
// fixheap.ErrCorruptChain with the first violation found.
func (heap *Heap) Check() error {
	return heap.arena.Check()
}

// Capacity returns the managed region size in bytes.
func (heap *Heap) Capacity() int {
	return heap.arena.Capacity()
}

// Stats totals the current chain.
func (heap *Heap) Stats() fixheap.Stats {
	return heap.arena.Stats()
}

// Blocks yields the chain's blocks in address order.
func (heap *Heap) Blocks() iter.Seq[fixheap.Block] {
	return heap.arena.Blocks()
}
