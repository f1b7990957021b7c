package arena

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/dacapoday/fixheap"
	"github.com/stretchr/testify/require"
)

func newTestArena(t *testing.T, size int, opt Option) *Arena {
	t.Helper()
	a := new(Arena)
	require.NoError(t, a.Load(make([]byte, size), opt))
	a.Reset()
	return a
}

func chain(a *Arena) (blocks []fixheap.Block) {
	return slices.Collect(a.Blocks())
}

func TestLoadRejectsBadOptions(t *testing.T) {
	var a Arena

	err := a.Load(make([]byte, 2048), testOption{granularity: 3})
	require.ErrorIs(t, err, fixheap.ErrGranularity)

	err = a.Load(make([]byte, 2048), testOption{granularity: 16})
	require.ErrorIs(t, err, fixheap.ErrGranularity, "16 does not divide the header size")

	err = a.Load(make([]byte, 2048), testOption{granularity: -1})
	require.ErrorIs(t, err, fixheap.ErrGranularity)

	err = a.Load(make([]byte, HeaderSize), testOption{})
	require.ErrorIs(t, err, fixheap.ErrRegionTooSmall)
}

func TestAllocBeforeReset(t *testing.T) {
	var a Arena
	require.NoError(t, a.Load(make([]byte, 2048), testOption{}))

	_, ok := a.Alloc(100)
	require.False(t, ok)
}

func TestResetIdempotent(t *testing.T) {
	a := newTestArena(t, 2048, testOption{})

	want := []fixheap.Block{{Offset: 0, Size: 2048 - HeaderSize, Free: true}}
	require.Equal(t, want, chain(a))

	_, ok := a.Alloc(300)
	require.True(t, ok)

	a.Reset()
	require.Equal(t, want, chain(a))
	a.Reset()
	require.Equal(t, want, chain(a))
	require.NoError(t, a.Check())
}

func TestAllocRoundsToGranularity(t *testing.T) {
	a := newTestArena(t, 2048, testOption{})

	ref, ok := a.Alloc(1)
	require.True(t, ok)
	require.Len(t, a.Bytes(ref), DefaultGranularity)

	blocks := chain(a)
	require.Equal(t, uint32(DefaultGranularity), blocks[0].Size)
	require.False(t, blocks[0].Free)
}

func TestAllocInvalidSize(t *testing.T) {
	a := newTestArena(t, 2048, testOption{})
	before := chain(a)

	for _, size := range []int{0, -1, 3000} {
		_, ok := a.Alloc(size)
		require.False(t, ok, "size %d", size)
	}
	require.Equal(t, before, chain(a))
}

func TestRoundTrip(t *testing.T) {
	a := newTestArena(t, 2048, testOption{})
	initial := chain(a)

	for _, size := range []int{1, 8, 100, 500, 2000} {
		ref, ok := a.Alloc(size)
		require.True(t, ok, "size %d", size)
		a.Free(ref)
		require.Equal(t, initial, chain(a), "size %d", size)
	}
}

func TestFirstFit(t *testing.T) {
	a := newTestArena(t, 2048, testOption{})

	// Free blocks of 104 then 48 bytes in address order, each
	// fenced by an occupied block so they cannot merge.
	big, ok := a.Alloc(104)
	require.True(t, ok)
	_, ok = a.Alloc(8)
	require.True(t, ok)
	small, ok := a.Alloc(48)
	require.True(t, ok)
	_, ok = a.Alloc(8)
	require.True(t, ok)

	a.Free(big)
	a.Free(small)

	ref, ok := a.Alloc(40)
	require.True(t, ok)
	require.Equal(t, big, ref, "first fitting block wins, not the snuggest")
	require.NoError(t, a.Check())
}

func TestSplitThreshold(t *testing.T) {
	capacity := uint32(2048 - HeaderSize)

	// The excess equals header + granularity exactly: carving would
	// leave nothing useful, so the whole block must be handed over.
	a := newTestArena(t, 2048, testOption{})
	ref, ok := a.Alloc(int(capacity) - HeaderSize - DefaultGranularity)
	require.True(t, ok)
	require.Equal(t, []fixheap.Block{{Offset: 0, Size: capacity, Free: false}}, chain(a))
	require.Len(t, a.Bytes(ref), int(capacity))

	// One granule more of excess and the split happens, leaving the
	// smallest legal free remainder.
	a = newTestArena(t, 2048, testOption{})
	need := int(capacity) - HeaderSize - 2*DefaultGranularity
	_, ok = a.Alloc(need)
	require.True(t, ok)
	blocks := chain(a)
	require.Len(t, blocks, 2)
	require.Equal(t, uint32(2*DefaultGranularity), blocks[1].Size)
	require.True(t, blocks[1].Free)
	require.NoError(t, a.Check())
}

func TestFreeCoalescesBothSides(t *testing.T) {
	a := newTestArena(t, 2048, testOption{})
	initial := chain(a)

	a1, _ := a.Alloc(100)
	a2, _ := a.Alloc(100)
	a3, _ := a.Alloc(100)

	// a2 is fenced by occupied neighbors; freeing it cannot merge.
	a.Free(a2)
	require.NoError(t, a.Check())
	require.Len(t, chain(a), 4)

	// Freeing a1 merges forward into the a2 hole.
	a.Free(a1)
	require.NoError(t, a.Check())
	require.Len(t, chain(a), 3)

	// Freeing a3 merges backward and forward into one block.
	a.Free(a3)
	require.Equal(t, initial, chain(a))
}

func TestEndToEndScenario(t *testing.T) {
	a := newTestArena(t, 2048, testOption{})

	first, ok := a.Alloc(100)
	require.True(t, ok)
	second, ok := a.Alloc(200)
	require.True(t, ok)
	require.NotEqual(t, first, second)

	// Non-overlapping data areas.
	require.GreaterOrEqual(t, uint32(second)-uint32(first), uint32(104+HeaderSize))

	a.Free(first)
	blocks := chain(a)
	require.True(t, blocks[0].Free)
	require.False(t, blocks[1].Free, "freed head must not merge into the occupied second block")

	// First-fit reuses the freed 104-byte hole rather than carving
	// fresh space after the 200-byte block.
	third, ok := a.Alloc(50)
	require.True(t, ok)
	require.Equal(t, first, third)
	require.NoError(t, a.Check())
}

func TestOutOfMemory(t *testing.T) {
	a := newTestArena(t, 2048, testOption{})

	var refs []Ref
	for {
		ref, ok := a.Alloc(500)
		if !ok {
			break
		}
		refs = append(refs, ref)
	}
	require.Len(t, refs, 3, "2024 usable bytes fit three 504-byte blocks")
	require.NoError(t, a.Check())

	stats := a.Stats()
	require.Greater(t, stats.Free, 0)
	require.Less(t, stats.LargestFree, 504, "failure means no single block fits")
}

func TestFreeInvalidIsNoOp(t *testing.T) {
	a := newTestArena(t, 2048, testOption{})
	ref, ok := a.Alloc(64)
	require.True(t, ok)
	before := chain(a)

	for _, bad := range []Ref{0, 1, HeaderSize - 1, ref + 8, 5000, Ref(nilOff)} {
		a.Free(bad)
		require.Equal(t, before, chain(a), "ref %#x", bad)
	}
}

func TestDoubleFreeIsNoOp(t *testing.T) {
	a := newTestArena(t, 2048, testOption{})

	a1, _ := a.Alloc(100)
	a2, _ := a.Alloc(100)

	a.Free(a1)
	after := chain(a)
	a.Free(a1)
	require.Equal(t, after, chain(a))

	// A stale ref into a block that a merge absorbed: its header
	// bytes still carry the sentinel, but the free flag stops it.
	a.Free(a2)
	merged := chain(a)
	a.Free(a2)
	require.Equal(t, merged, chain(a))
	require.NoError(t, a.Check())
}

func TestBytes(t *testing.T) {
	a := newTestArena(t, 2048, testOption{})

	ref, ok := a.Alloc(100)
	require.True(t, ok)

	data := a.Bytes(ref)
	require.Len(t, data, 104)
	require.Equal(t, 104, cap(data), "view must not reach into the next header")

	for i := range data {
		data[i] = byte(i)
	}
	require.Equal(t, data, a.Bytes(ref))
	require.NoError(t, a.Check(), "writing the full view leaves the chain intact")

	a.Free(ref)
	require.Nil(t, a.Bytes(ref))
	require.Nil(t, a.Bytes(0))
	require.Nil(t, a.Bytes(5000))
}

func TestAllocFreeFuzz(t *testing.T) {
	a := newTestArena(t, 2048, testOption{})
	rng := rand.New(rand.NewPCG(7, 13))

	var live []Ref
	for i := 0; i < 4000; i++ {
		if rng.IntN(2) == 0 {
			if ref, ok := a.Alloc(rng.IntN(400) + 1); ok {
				live = append(live, ref)
			}
		} else if len(live) > 0 {
			i := rng.IntN(len(live))
			a.Free(live[i])
			live = slices.Delete(live, i, i+1)
		}

		require.NoError(t, a.Check(), "op %d", i)
		for b := range a.Blocks() {
			require.GreaterOrEqual(t, b.Size, uint32(DefaultGranularity), "op %d: runt block at %#x", i, b.Offset)
		}
	}

	for _, ref := range live {
		a.Free(ref)
	}
	require.Equal(t, []fixheap.Block{{Offset: 0, Size: 2048 - HeaderSize, Free: true}}, chain(a))
}
