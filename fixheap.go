// Package fixheap defines basic interfaces for fixed-region block allocators.
package fixheap

// Ref identifies a live allocation inside a heap region: the byte
// offset of the allocation's data area from the region base.
//
// A Ref is only meaningful to the heap that returned it, and only
// until that heap is reset.
type Ref uint32

// Allocator carves variable-sized blocks out of a fixed byte region
// and reclaims them for reuse.
//
// Alloc reports failure through ok rather than an error: a false
// result means either the rounded size fits in no single free block,
// or the request was invalid. Free on a Ref the allocator did not
// hand out is a no-op.
type Allocator interface {
	Alloc(size int) (ref Ref, ok bool)
	Free(ref Ref)
}

// Block describes one block of a heap region's chain, free or
// occupied. Offset is the block header's distance from the region
// base; Size counts the usable bytes that follow the header.
type Block struct {
	Offset uint32
	Size   uint32
	Free   bool
}

// Stats summarizes the block chain of a heap region.
type Stats struct {
	// Capacity is the managed region size in bytes, including
	// every block header.
	Capacity int

	// Used and Free count usable bytes in occupied and free
	// blocks; Overhead counts header bytes. The three always sum
	// to Capacity.
	Used     int
	Free     int
	Overhead int

	Blocks     int
	FreeBlocks int

	// LargestFree is the biggest request that can currently
	// succeed without rounding. Free > 0 with a small LargestFree
	// means the region is fragmented.
	LargestFree int
}
