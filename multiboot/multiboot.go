// Package multiboot reads the memory map from the multiboot (v1) information
// block handed over by the boot loader.
package multiboot

import "unsafe"

const (
	// flagMemoryMap is set in info.flags when the mmapLength/mmapAddr
	// fields are valid.
	flagMemoryMap = 1 << 6

	// Offsets of the fields in a (packed) memory map entry. The size field
	// does not include itself.
	mmapEntrySizeFieldLen = 4
	mmapEntryAddrOffset   = 4
	mmapEntryLenOffset    = 12
	mmapEntryTypeOffset   = 20
)

var (
	// infoData holds the virtual address of the multiboot info block.
	infoData uintptr

	// kernelPageOffset is added to the physical addresses stored in the
	// info block to obtain an address that the kernel can dereference.
	kernelPageOffset uintptr

	// visitEntry is passed to MemRegionVisitor callbacks; reusing it
	// avoids an allocation per entry.
	visitEntry MemoryMapEntry
)

// info describes the fixed part of the multiboot info block that precedes
// the optional tables.
type info struct {
	flags      uint32
	memLower   uint32
	memUpper   uint32
	bootDevice uint32
	cmdLine    uint32
	modsCount  uint32
	modsAddr   uint32
	syms       [4]uint32
	mmapLength uint32
	mmapAddr   uint32
}

// MemoryEntryType defines the type of a MemoryMapEntry.
type MemoryEntryType uint32

const (
	// MemAvailable indicates that the memory region is available for use.
	MemAvailable MemoryEntryType = iota + 1

	// MemReserved indicates that the memory region is not available for use.
	MemReserved

	// MemAcpiReclaimable indicates a memory region that holds ACPI info that
	// can be reused by the OS.
	MemAcpiReclaimable

	// MemNvs indicates memory that must be preserved when hibernating.
	MemNvs

	// Any value >= memUnknown will be mapped to MemReserved.
	memUnknown
)

// MemRegionVisitor defines a visitor function that gets invoked by
// VisitMemRegions for each memory region provided by the boot loader. The
// visitor must return true to continue or false to abort the scan.
type MemRegionVisitor func(*MemoryMapEntry) bool

// MemoryMapEntry describes a memory region entry, namely its physical address,
// its length and its type.
type MemoryMapEntry struct {
	// The physical address for this memory region.
	PhysAddress uint64

	// The length of the memory region.
	Length uint64

	// The type of this entry.
	Type MemoryEntryType
}

// String implements fmt.Stringer for MemoryEntryType.
func (t MemoryEntryType) String() string {
	switch t {
	case MemAvailable:
		return "available"
	case MemReserved:
		return "reserved"
	case MemAcpiReclaimable:
		return "ACPI (reclaimable)"
	case MemNvs:
		return "NVS"
	default:
		return "unknown"
	}
}

// SetInfoPtr updates the internal multiboot information pointer to the given
// value. The boot loader reports the info block (and the tables it points to)
// using physical addresses; pageOffset is the difference between the
// kernel's virtual and physical load addresses and is used to translate them
// into addresses that can be dereferenced once the kernel runs from its
// virtual base. This function must be called before invoking any other
// function exported by this package.
func SetInfoPtr(physPtr, pageOffset uintptr) {
	kernelPageOffset = pageOffset
	infoData = physPtr + pageOffset
}

// VisitMemRegions will invoke the supplied visitor for each memory region that
// is defined by the multiboot info data that we received from the bootloader.
func VisitMemRegions(visitor MemRegionVisitor) {
	if infoData == 0 {
		return
	}

	hdr := (*info)(unsafe.Pointer(infoData))
	if hdr.flags&flagMemoryMap == 0 {
		return
	}

	var (
		curPtr = uintptr(hdr.mmapAddr) + kernelPageOffset
		endPtr = curPtr + uintptr(hdr.mmapLength)
	)

	for curPtr < endPtr {
		entrySize := *(*uint32)(unsafe.Pointer(curPtr))

		visitEntry.PhysAddress = *(*uint64)(unsafe.Pointer(curPtr + mmapEntryAddrOffset))
		visitEntry.Length = *(*uint64)(unsafe.Pointer(curPtr + mmapEntryLenOffset))
		visitEntry.Type = MemoryEntryType(*(*uint32)(unsafe.Pointer(curPtr + mmapEntryTypeOffset)))

		// Mark unknown entry types as reserved
		if visitEntry.Type == 0 || visitEntry.Type >= memUnknown {
			visitEntry.Type = MemReserved
		}

		if !visitor(&visitEntry) {
			return
		}

		curPtr += uintptr(entrySize) + mmapEntrySizeFieldLen
	}
}
