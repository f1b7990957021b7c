package arena

import (
	"iter"

	"github.com/dacapoday/fixheap"
)

// Blocks yields every block of the chain in address order. The
// sequence is empty on an unreset arena. Mutating the arena while
// iterating is undefined.
func (a *Arena) Blocks() iter.Seq[fixheap.Block] {
	return func(yield func(fixheap.Block) bool) {
		if !a.ready {
			return
		}
		for cur := uint32(0); cur != nilOff; {
			h := decodeHeader(a.data[cur:])
			if !yield(fixheap.Block{Offset: cur, Size: h.Size, Free: h.free()}) {
				return
			}
			cur = h.Next
		}
	}
}

// Stats walks the chain once and totals it up.
func (a *Arena) Stats() (s fixheap.Stats) {
	s.Capacity = len(a.data)
	for b := range a.Blocks() {
		s.Blocks++
		s.Overhead += HeaderSize
		if b.Free {
			s.FreeBlocks++
			s.Free += int(b.Size)
			s.LargestFree = max(s.LargestFree, int(b.Size))
		} else {
			s.Used += int(b.Size)
		}
	}
	return
}
