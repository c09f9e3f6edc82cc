package vmm

import (
	"meerkatos/kernel"
	"meerkatos/kernel/mm"
)

// MapPhysicalRegion makes the physical range [physAddr, physAddr+size)
// accessible and returns the virtual address that corresponds to physAddr.
//
// Ranges that lie entirely below mm.IdentityMapLimit are already reachable
// through the boot identity mapping and are returned unchanged. Other ranges
// are mapped to fresh virtual pages; the returned address keeps the offset of
// physAddr within its page. The backing frames are not tracked by the frame
// allocator as they typically belong to firmware.
func (vm *VirtualMemory) MapPhysicalRegion(physAddr, size uintptr) (uintptr, *kernel.Error) {
	if physAddr < mm.IdentityMapLimit && size <= mm.IdentityMapLimit-physAddr {
		return physAddr, nil
	}

	offset := mm.PageOffset(physAddr)
	pageCount := mm.PagesForSize(offset + size)
	if pageCount == 0 {
		pageCount = 1
	}

	page, err := vm.Map(mm.FrameFromAddress(physAddr), pageCount)
	if err != nil {
		return 0, err
	}

	return page.Address() + offset, nil
}

// UnmapPhysicalRegion releases a region returned by MapPhysicalRegion. Region
// mappings are kept for the lifetime of the kernel so this is a no-op.
func (vm *VirtualMemory) UnmapPhysicalRegion(virtAddr, size uintptr) {}

// MapPhysicalRegion maps a physical range into the kernel address space.
func MapPhysicalRegion(physAddr, size uintptr) (uintptr, *kernel.Error) {
	return kernelVM.MapPhysicalRegion(physAddr, size)
}

// UnmapPhysicalRegion releases a region mapped by MapPhysicalRegion.
func UnmapPhysicalRegion(virtAddr, size uintptr) {
	kernelVM.UnmapPhysicalRegion(virtAddr, size)
}
