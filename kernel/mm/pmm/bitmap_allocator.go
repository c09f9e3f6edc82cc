package pmm

import (
	"math/bits"

	"meerkatos/kernel"
	"meerkatos/kernel/kfmt"
	"meerkatos/kernel/mm"
	"meerkatos/kernel/sync"
	"meerkatos/multiboot"
)

const (
	bitmapWords = mm.MaxFrames / 64
	allUsed     = ^uint64(0)
)

var (
	errOutOfMemory = &kernel.Error{Module: "pmm", Message: "out of memory"}
	errBadCount    = &kernel.Error{Module: "pmm", Message: "frame count must be greater than zero"}

	log = &kfmt.PrefixWriter{Prefix: []byte("[pmm] ")}
)

// RegionVisitorFn enumerates the firmware memory map. It matches the
// signature of multiboot.VisitMemRegions.
type RegionVisitorFn func(multiboot.MemRegionVisitor)

// Stats summarizes the state of a BitmapAllocator.
type Stats struct {
	// TotalFrames is the number of frames reported as available by the
	// firmware memory map.
	TotalFrames uint32

	// FreeFrames is the number of frames that can currently be allocated.
	FreeFrames uint32
}

// BitmapAllocator tracks the free/used state of every physical frame in the
// addressable range using one bit per frame; a set bit marks a used frame.
// Frames that are never reported as available by the firmware stay marked
// as used.
//
// FindFree, MarkUsed and MarkFree do not synchronize on their own. Callers
// that share an allocator must bracket them with Lock and Unlock.
type BitmapAllocator struct {
	lock   sync.Spinlock
	bitmap [bitmapWords]uint64
	stats  Stats
}

// Lock acquires the allocator's spinlock.
func (alloc *BitmapAllocator) Lock() {
	alloc.lock.Acquire()
}

// Unlock releases the allocator's spinlock.
func (alloc *BitmapAllocator) Unlock() {
	alloc.lock.Release()
}

// Init resets the allocator and seeds it from the firmware memory map
// enumerated by visitFn. Only regions of type multiboot.MemAvailable
// contribute free frames; reported addresses may not be page-aligned so the
// region start is rounded up and the region end rounded down.
//
// Memory that is occupied but reported as available (e.g. the kernel image)
// must be excluded with ReserveRegion before the first allocation.
func (alloc *BitmapAllocator) Init(visitFn RegionVisitorFn) {
	for i := range alloc.bitmap {
		alloc.bitmap[i] = allUsed
	}
	alloc.stats = Stats{}

	visitFn(func(region *multiboot.MemoryMapEntry) bool {
		if region.Type != multiboot.MemAvailable {
			return true
		}

		startFrame, endFrame := regionFrames(region.PhysAddress, region.Length)
		if startFrame >= endFrame {
			return true
		}

		count := uintptr(endFrame - startFrame)
		alloc.stats.TotalFrames += uint32(count)
		alloc.MarkFree(startFrame, count)
		return true
	})
}

// ReserveRegion marks the frames overlapping the physical range
// [start, end) as used, regardless of their current state.
func (alloc *BitmapAllocator) ReserveRegion(start, end uintptr) {
	if end <= start {
		return
	}

	for frame := mm.FrameFromAddress(start); frame <= mm.FrameFromAddress(end-1) && frame < mm.MaxFrames; frame++ {
		if alloc.IsFree(frame) {
			alloc.MarkUsed(frame, 1)
		}
	}
}

// FindFree locates the first run of count contiguous free frames scanning
// from the lowest tracked frame. It returns errOutOfMemory if no such run
// exists. FindFree does not modify the allocator state.
func (alloc *BitmapAllocator) FindFree(count uintptr) (mm.Frame, *kernel.Error) {
	if count == 0 {
		return mm.InvalidFrame, errBadCount
	}

	var (
		runStart mm.Frame
		runLen   uintptr
	)

	for frame := mm.Frame(0); frame < mm.MaxFrames; {
		word := alloc.bitmap[frame>>6]

		// Whole words can be consumed at once when aligned.
		if frame&63 == 0 {
			switch {
			case word == allUsed:
				runLen = 0
				frame += 64
				continue
			case word == 0 && runLen+64 <= count:
				if runLen == 0 {
					runStart = frame
				}
				runLen += 64
				if runLen == count {
					return runStart, nil
				}
				frame += 64
				continue
			}
		}

		if word&(1<<(frame&63)) != 0 {
			runLen = 0
			frame++
			continue
		}

		if runLen == 0 {
			runStart = frame
		}
		runLen++
		if runLen == count {
			return runStart, nil
		}
		frame++
	}

	return mm.InvalidFrame, errOutOfMemory
}

// MarkUsed flags count frames starting at start as used. The frames are
// expected to be free; callers get this guarantee from FindFree.
func (alloc *BitmapAllocator) MarkUsed(start mm.Frame, count uintptr) {
	alloc.stats.FreeFrames -= uint32(alloc.setRange(start, count, true))
}

// MarkFree flags count frames starting at start as free, making them
// eligible for future FindFree results.
func (alloc *BitmapAllocator) MarkFree(start mm.Frame, count uintptr) {
	alloc.stats.FreeFrames += uint32(alloc.setRange(start, count, false))
}

// IsFree returns true if the frame is tracked and not in use.
func (alloc *BitmapAllocator) IsFree(frame mm.Frame) bool {
	if frame >= mm.MaxFrames {
		return false
	}
	return alloc.bitmap[frame>>6]&(1<<(frame&63)) == 0
}

// Stats returns the current frame counters.
func (alloc *BitmapAllocator) Stats() Stats {
	return alloc.stats
}

// setRange sets or clears the bits for the frames in [start, start+count)
// and returns the number of bits whose value changed. Frames past the
// tracked range are ignored.
func (alloc *BitmapAllocator) setRange(start mm.Frame, count uintptr, used bool) int {
	var changed int

	end := uintptr(start) + count
	if end > mm.MaxFrames {
		end = mm.MaxFrames
	}

	for frame := uintptr(start); frame < end; {
		wordIndex, bit := frame>>6, frame&63

		// build a mask for the bits of this word that fall in the range
		n := uintptr(64) - bit
		if end-frame < n {
			n = end - frame
		}
		mask := allUsed
		if n < 64 {
			mask = ((uint64(1) << n) - 1) << bit
		}

		old := alloc.bitmap[wordIndex]
		if used {
			alloc.bitmap[wordIndex] = old | mask
			changed += bits.OnesCount64(^old & mask)
		} else {
			alloc.bitmap[wordIndex] = old &^ mask
			changed += bits.OnesCount64(old & mask)
		}

		frame += n
	}

	return changed
}

// regionFrames returns the frame range [start, end) fully contained in the
// physical region [addr, addr+length), clamped to the tracked range.
func regionFrames(addr, length uint64) (mm.Frame, mm.Frame) {
	const (
		pageSizeMinus1 = uint64(mm.PageSize - 1)
		maxAddr        = uint64(mm.MaxFrames) << mm.PageShift
	)

	start := (addr + pageSizeMinus1) &^ pageSizeMinus1
	end := (addr + length) &^ pageSizeMinus1
	if end > maxAddr || end < addr {
		end = maxAddr
	}
	if start >= end {
		return 0, 0
	}

	return mm.Frame(start >> mm.PageShift), mm.Frame(end >> mm.PageShift)
}

// printMemoryMap prints the firmware memory map and the allocator totals.
func (alloc *BitmapAllocator) printMemoryMap(visitFn RegionVisitorFn) {
	kfmt.Fprintf(log, "system memory map:\n")
	visitFn(func(region *multiboot.MemoryMapEntry) bool {
		kfmt.Fprintf(log, "\t[0x%10x - 0x%10x], size: %10d, type: %s\n",
			region.PhysAddress,
			region.PhysAddress+region.Length,
			region.Length,
			region.Type.String(),
		)
		return true
	})

	stats := alloc.Stats()
	kfmt.Fprintf(log, "available memory: %dKb, free frames: %d/%d\n",
		uint64(mm.Size(stats.TotalFrames)*mm.Size(mm.PageSize)/mm.Kb),
		stats.FreeFrames,
		stats.TotalFrames,
	)
}
