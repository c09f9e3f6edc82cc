// Package pmm implements the physical frame allocator.
package pmm

import (
	"meerkatos/kernel"
	"meerkatos/kernel/mm"
	"meerkatos/multiboot"
)

var (
	// FrameAllocator is the allocator that tracks every physical frame
	// used by the kernel. It is seeded by Init and lives for the kernel's
	// whole lifetime.
	FrameAllocator BitmapAllocator

	// visitMemRegionsFn is mocked by tests and is automatically inlined
	// by the compiler.
	visitMemRegionsFn RegionVisitorFn = multiboot.VisitMemRegions

	errNoFreeMemory = &kernel.Error{Module: "pmm", Message: "firmware memory map does not report any usable memory"}
)

// Init seeds FrameAllocator from the firmware memory map. The frames backing
// the kernel image (physical range [kernelStart, kernelEnd)) and the low
// region that the boot code identity-maps are reserved before Init returns,
// so no allocation can hand out memory that is already in use.
//
// Init must complete before any virtual memory allocation takes place.
func Init(kernelStart, kernelEnd uintptr) *kernel.Error {
	FrameAllocator.Lock()
	defer FrameAllocator.Unlock()

	FrameAllocator.Init(visitMemRegionsFn)
	FrameAllocator.ReserveRegion(0, mm.IdentityMapLimit)
	FrameAllocator.ReserveRegion(kernelStart, kernelEnd)

	FrameAllocator.printMemoryMap(visitMemRegionsFn)

	if FrameAllocator.Stats().FreeFrames == 0 {
		return errNoFreeMemory
	}

	return nil
}
