package pmm

import (
	"testing"

	"meerkatos/kernel/mm"
	"meerkatos/multiboot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memMap returns a RegionVisitorFn that enumerates the supplied entries.
func memMap(entries ...multiboot.MemoryMapEntry) RegionVisitorFn {
	return func(visitor multiboot.MemRegionVisitor) {
		for i := range entries {
			entry := entries[i]
			if !visitor(&entry) {
				return
			}
		}
	}
}

func available(addr, length uint64) multiboot.MemoryMapEntry {
	return multiboot.MemoryMapEntry{PhysAddress: addr, Length: length, Type: multiboot.MemAvailable}
}

func reserved(addr, length uint64) multiboot.MemoryMapEntry {
	return multiboot.MemoryMapEntry{PhysAddress: addr, Length: length, Type: multiboot.MemReserved}
}

func TestBitmapAllocatorInit(t *testing.T) {
	var alloc BitmapAllocator
	alloc.Init(memMap(
		available(0, 0x9fc00),
		reserved(0x9fc00, 0x400),
		reserved(0xf0000, 0x10000),
		available(0x100000, 0x100000),
		// not page-aligned; only frames 0x301 and 0x302 are usable
		available(0x300800, 0x2800),
	))

	// [0, 0x9fc00) -> frames 0..0x9e (0x9f000 is the last complete page)
	// [0x100000, 0x200000) -> 256 frames
	// [0x301000, 0x303000) -> 2 frames
	expFrames := uint32(0x9f + 256 + 2)
	assert.Equal(t, Stats{TotalFrames: expFrames, FreeFrames: expFrames}, alloc.Stats())

	specs := []struct {
		frame   mm.Frame
		expFree bool
	}{
		{0, true},
		{0x9e, true},
		{0x9f, false},
		{0xf0, false},
		{0xff, false},
		{0x100, true},
		{0x1ff, true},
		{0x200, false},
		{0x300, false},
		{0x301, true},
		{0x302, true},
		{0x303, false},
		{mm.MaxFrames - 1, false},
		{mm.MaxFrames, false},
	}

	for specIndex, spec := range specs {
		assert.Equal(t, spec.expFree, alloc.IsFree(spec.frame), "spec %d: frame 0x%x", specIndex, spec.frame)
	}
}

func TestBitmapAllocatorInitClampsToTrackedRange(t *testing.T) {
	var alloc BitmapAllocator
	alloc.Init(memMap(
		available(0xfff00000, 0x200000),
		available(0x100000000, 0x100000),
	))

	// only the frames below 4GiB are tracked
	assert.Equal(t, uint32(256), alloc.Stats().FreeFrames)
	assert.True(t, alloc.IsFree(mm.MaxFrames-1))
}

func TestBitmapAllocatorFindFree(t *testing.T) {
	var alloc BitmapAllocator
	alloc.Init(memMap(available(0x100000, 0x100000)))

	t.Run("first fit", func(t *testing.T) {
		frame, err := alloc.FindFree(4)
		require.Nil(t, err)
		assert.Equal(t, mm.Frame(0x100), frame)
	})

	t.Run("query has no side effects", func(t *testing.T) {
		first, err := alloc.FindFree(10)
		require.Nil(t, err)
		second, err := alloc.FindFree(10)
		require.Nil(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, uint32(256), alloc.Stats().FreeFrames)
	})

	t.Run("skips used frames", func(t *testing.T) {
		alloc.MarkUsed(0x100, 2)
		alloc.MarkUsed(0x104, 1)
		defer alloc.MarkFree(0x100, 2)
		defer alloc.MarkFree(0x104, 1)

		frame, err := alloc.FindFree(2)
		require.Nil(t, err)
		assert.Equal(t, mm.Frame(0x102), frame)

		frame, err = alloc.FindFree(3)
		require.Nil(t, err)
		assert.Equal(t, mm.Frame(0x105), frame)
	})

	t.Run("runs spanning bitmap words", func(t *testing.T) {
		alloc.MarkUsed(0x100, 0x3f)
		defer alloc.MarkFree(0x100, 0x3f)

		// frame 0x13f is the last bit of a word; the run continues into
		// the following (empty) words
		frame, err := alloc.FindFree(130)
		require.Nil(t, err)
		assert.Equal(t, mm.Frame(0x13f), frame)
	})

	t.Run("exhaustion", func(t *testing.T) {
		frame, err := alloc.FindFree(256)
		require.Nil(t, err)
		assert.Equal(t, mm.Frame(0x100), frame)

		frame, err = alloc.FindFree(257)
		assert.Equal(t, errOutOfMemory, err)
		assert.Equal(t, mm.InvalidFrame, frame)
	})

	t.Run("zero count", func(t *testing.T) {
		_, err := alloc.FindFree(0)
		assert.Equal(t, errBadCount, err)
	})
}

func TestBitmapAllocatorMarkUsedAndFree(t *testing.T) {
	var alloc BitmapAllocator
	alloc.Init(memMap(available(0, 0x200000)))
	require.Equal(t, uint32(512), alloc.Stats().FreeFrames)

	// range crossing several bitmap words
	alloc.MarkUsed(60, 200)
	assert.Equal(t, uint32(312), alloc.Stats().FreeFrames)
	assert.True(t, alloc.IsFree(59))
	assert.False(t, alloc.IsFree(60))
	assert.False(t, alloc.IsFree(128))
	assert.False(t, alloc.IsFree(259))
	assert.True(t, alloc.IsFree(260))

	frame, err := alloc.FindFree(61)
	require.Nil(t, err)
	assert.Equal(t, mm.Frame(260), frame)

	alloc.MarkFree(100, 10)
	assert.Equal(t, uint32(322), alloc.Stats().FreeFrames)
	frame, err = alloc.FindFree(10)
	require.Nil(t, err)
	assert.Equal(t, mm.Frame(0), frame)
	frame, err = alloc.FindFree(61)
	require.Nil(t, err)
	assert.Equal(t, mm.Frame(260), frame)

	alloc.MarkFree(60, 200)
	assert.Equal(t, uint32(512), alloc.Stats().FreeFrames)

	frame, err = alloc.FindFree(512)
	require.Nil(t, err)
	assert.Equal(t, mm.Frame(0), frame)
}

func TestBitmapAllocatorReserveRegion(t *testing.T) {
	var alloc BitmapAllocator
	alloc.Init(memMap(available(0x100000, 0x100000)))

	// partially covered pages are reserved too
	alloc.ReserveRegion(0x100800, 0x102001)
	assert.False(t, alloc.IsFree(0x100))
	assert.False(t, alloc.IsFree(0x101))
	assert.False(t, alloc.IsFree(0x102))
	assert.True(t, alloc.IsFree(0x103))
	assert.Equal(t, uint32(253), alloc.Stats().FreeFrames)

	// overlapping reservations do not skew the counters
	alloc.ReserveRegion(0x100000, 0x103000)
	assert.Equal(t, uint32(253), alloc.Stats().FreeFrames)

	// empty ranges are ignored
	alloc.ReserveRegion(0x150000, 0x150000)
	assert.Equal(t, uint32(253), alloc.Stats().FreeFrames)
}

func TestBitmapAllocatorLock(t *testing.T) {
	var alloc BitmapAllocator

	alloc.Lock()
	assert.False(t, alloc.lock.TryToAcquire())
	alloc.Unlock()
	assert.True(t, alloc.lock.TryToAcquire())
	alloc.Unlock()
}
