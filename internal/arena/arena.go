// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// Package arena implements first-fit block allocation over a fixed
// byte region. The region is carved into an address-ordered, doubly
// linked chain of blocks; headers are stored inside the region
// itself, so the allocator never allocates outside the bytes it was
// given.
package arena

import (
	"fmt"

	"github.com/dacapoday/fixheap"
)

type Ref = fixheap.Ref

// Arena manages one fixed byte region. The zero value is unusable;
// bind a region with Load, then call Reset (or Adopt) before the
// first Alloc.
//
// An Arena is NOT safe for concurrent use. It has no internal
// locking; racing operations on the same region produce undefined
// results.
type Arena struct {
	data  []byte
	align uint32
	magic uint32
	ready bool
}

// maxCapacity keeps every header offset well inside uint32 range.
const maxCapacity = 1 << 30

// Load binds the arena to region without touching its bytes. A tail
// fragment that cannot hold a granularity-aligned block is trimmed
// from the managed capacity. Reset or Adopt must follow before the
// first Alloc.
func (a *Arena) Load(region []byte, opt Option) error {
	align, magic := DefaultGranularity, uint32(DefaultSentinel)
	if opt != nil {
		align = opt.Granularity()
		magic = opt.Sentinel()
	}
	if align <= 0 || align&(align-1) != 0 || HeaderSize%align != 0 {
		return fmt.Errorf("%d is %w: must be a power of two dividing %d", align, fixheap.ErrGranularity, HeaderSize)
	}
	if len(region) < HeaderSize+align {
		return fmt.Errorf("%d bytes is %w", len(region), fixheap.ErrRegionTooSmall)
	}
	if len(region) > maxCapacity {
		return fmt.Errorf("%d bytes is %w", len(region), fixheap.ErrRegionTooLarge)
	}

	usable := (len(region) - HeaderSize) &^ (align - 1)
	a.data = region[:HeaderSize+usable]
	a.align = uint32(align)
	a.magic = magic
	a.ready = false
	return nil
}

// Capacity returns the managed region size in bytes.
func (a *Arena) Capacity() int { return len(a.data) }

// Reset discards all allocations and rebuilds the chain as one free
// block anchored at the region base. Idempotent. Every Ref handed
// out before the call becomes invalid.
func (a *Arena) Reset() {
	encodeHeader(a.data, header{
		Magic: a.magic,
		Size:  uint32(len(a.data)) - HeaderSize,
		Flags: flagFree,
		Next:  nilOff,
		Prev:  nilOff,
	})
	a.ready = true
}

// Adopt accepts a region that already holds a chain written by a
// previous Arena with the same options, validating it in full before
// any allocation can touch it.
func (a *Arena) Adopt() error {
	if decodeHeader(a.data).Magic != a.magic {
		return fixheap.ErrUnknownMagicCode
	}
	if err := a.Check(); err != nil {
		return err
	}
	a.ready = true
	return nil
}

// Alloc finds the first free block (in address order) that fits size
// rounded up to the granularity, splitting off a free remainder when
// the excess can host one. ok is false and the chain untouched when
// size is not positive, the arena is unreset, or no single free
// block is large enough.
func (a *Arena) Alloc(size int) (ref Ref, ok bool) {
	if !a.ready || size <= 0 {
		return
	}
	need, fits := a.roundUp(size)
	if !fits {
		return
	}

	for cur := uint32(0); cur != nilOff; {
		h := decodeHeader(a.data[cur:])
		if !h.free() || h.Size < need {
			cur = h.Next
			continue
		}

		// Split only when the remainder can hold a header plus at
		// least one granule; otherwise hand over the whole block.
		if h.Size > need+HeaderSize+a.align {
			rest := cur + HeaderSize + need
			assertOffset("arena.Alloc", rest, uint32(len(a.data)))
			encodeHeader(a.data[rest:], header{
				Magic: a.magic,
				Size:  h.Size - need - HeaderSize,
				Flags: flagFree,
				Next:  h.Next,
				Prev:  cur,
			})
			if h.Next != nilOff {
				a.setPrev(h.Next, rest)
			}
			h.Size = need
			h.Next = rest
		}

		h.Flags &^= flagFree
		encodeHeader(a.data[cur:], h)
		return Ref(cur + HeaderSize), true
	}
	return
}

// Free returns the allocation at ref to the arena and merges it with
// free neighbors. Anything that fails validation — an offset outside
// the region, a header without the sentinel, an oversized size field,
// or a block that is already free — makes the call a no-op: Free
// never writes through an unvalidated header. The chain invariant
// guarantees no two adjacent free blocks exist before the call, so
// one merge hop in each direction restores it.
func (a *Arena) Free(ref Ref) {
	if !a.ready || uint32(ref) < HeaderSize {
		return
	}
	cur := uint32(ref) - HeaderSize
	if !a.valid(cur) {
		return
	}

	h := decodeHeader(a.data[cur:])
	if h.free() {
		// Double free, or a stale ref into a block absorbed by an
		// earlier merge. Either way: leave the chain alone.
		return
	}
	h.Flags |= flagFree
	encodeHeader(a.data[cur:], h)

	if h.Prev != nilOff {
		if p := decodeHeader(a.data[h.Prev:]); p.free() {
			p.Size += HeaderSize + h.Size
			p.Next = h.Next
			encodeHeader(a.data[h.Prev:], p)
			if h.Next != nilOff {
				a.setPrev(h.Next, h.Prev)
			}
			cur, h = h.Prev, p
		}
	}

	if h.Next != nilOff {
		if n := decodeHeader(a.data[h.Next:]); n.free() {
			h.Size += HeaderSize + n.Size
			h.Next = n.Next
			encodeHeader(a.data[cur:], h)
			if n.Next != nilOff {
				a.setPrev(n.Next, cur)
			}
		}
	}
}

// Bytes returns the usable bytes of the live allocation at ref, or
// nil if ref does not name one.
func (a *Arena) Bytes(ref Ref) []byte {
	if !a.ready || uint32(ref) < HeaderSize {
		return nil
	}
	cur := uint32(ref) - HeaderSize
	if !a.valid(cur) {
		return nil
	}
	h := decodeHeader(a.data[cur:])
	if h.free() || uint32(len(a.data))-uint32(ref) < h.Size {
		return nil
	}
	return a.data[ref : uint32(ref)+h.Size : uint32(ref)+h.Size]
}

// valid reports whether hdr points at a plausible block header: in
// bounds, carrying the sentinel, with a size that fits the region.
// Pure predicate; gates every write Free performs.
func (a *Arena) valid(hdr uint32) bool {
	limit := uint32(len(a.data))
	if hdr >= limit || limit-hdr < HeaderSize {
		return false
	}
	h := decodeHeader(a.data[hdr:])
	if h.Magic != a.magic {
		return false
	}
	return h.Size <= limit
}

func (a *Arena) setPrev(off, prev uint32) {
	assertOffset("arena.setPrev", off, uint32(len(a.data)))
	h := decodeHeader(a.data[off:])
	h.Prev = prev
	encodeHeader(a.data[off:], h)
}

func (a *Arena) roundUp(size int) (need uint32, fits bool) {
	n := (uint64(size) + uint64(a.align) - 1) &^ (uint64(a.align) - 1)
	if n > uint64(len(a.data))-HeaderSize {
		return
	}
	return uint32(n), true
}
