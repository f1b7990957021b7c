// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"fmt"

	"github.com/dacapoday/fixheap"
)

// Defrag merges every run of chain-adjacent free blocks into a
// single block, rescanning from each merge point so that three or
// more consecutive free blocks collapse fully. Occupied blocks are
// never moved. After any sequence of Free calls this is a no-op;
// it exists to restore the chain after a region was mutated by
// another writer of a shared mapping.
func (a *Arena) Defrag() {
	if !a.ready {
		return
	}
	for cur := uint32(0); cur != nilOff; {
		h := decodeHeader(a.data[cur:])
		if h.Next == nilOff {
			return
		}
		n := decodeHeader(a.data[h.Next:])
		if h.free() && n.free() {
			h.Size += HeaderSize + n.Size
			h.Next = n.Next
			encodeHeader(a.data[cur:], h)
			if n.Next != nilOff {
				a.setPrev(n.Next, cur)
			}
			continue
		}
		cur = h.Next
	}
}

// Check walks the whole chain and verifies its invariants: sentinel
// in every header, granularity-aligned sizes, contiguous
// address-ordered links with matching back-links, no two adjacent
// free blocks, and blocks plus headers summing to the region
// capacity. It reads only, and reports the first violation wrapped
// around fixheap.ErrCorruptChain.
func (a *Arena) Check() error {
	limit := uint32(len(a.data))
	var total uint64
	prev := nilOff
	prevFree := false

	for cur := uint32(0); ; {
		if limit-cur < HeaderSize {
			return fmt.Errorf("%w: header at %#x exceeds region", fixheap.ErrCorruptChain, cur)
		}
		h := decodeHeader(a.data[cur:])
		if h.Magic != a.magic {
			return fmt.Errorf("%w: bad magic %#x at %#x", fixheap.ErrCorruptChain, h.Magic, cur)
		}
		if h.Size%a.align != 0 {
			return fmt.Errorf("%w: unaligned size %d at %#x", fixheap.ErrCorruptChain, h.Size, cur)
		}
		if limit-cur-HeaderSize < h.Size {
			return fmt.Errorf("%w: size %d at %#x exceeds region", fixheap.ErrCorruptChain, h.Size, cur)
		}
		if h.Prev != prev {
			return fmt.Errorf("%w: back-link %#x at %#x, want %#x", fixheap.ErrCorruptChain, h.Prev, cur, prev)
		}
		if h.free() && prevFree {
			return fmt.Errorf("%w: adjacent free blocks at %#x", fixheap.ErrCorruptChain, prev)
		}
		total += HeaderSize + uint64(h.Size)

		end := cur + HeaderSize + h.Size
		if h.Next == nilOff {
			if total != uint64(limit) {
				return fmt.Errorf("%w: chain covers %d of %d bytes", fixheap.ErrCorruptChain, total, limit)
			}
			return nil
		}
		if h.Next != end {
			return fmt.Errorf("%w: link %#x at %#x, want %#x", fixheap.ErrCorruptChain, h.Next, cur, end)
		}
		prev, cur = cur, h.Next
		prevFree = h.free()
	}
}
