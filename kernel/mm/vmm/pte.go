package vmm

import "meerkatos/kernel/mm"

// ptePhysPageMask extracts the physical frame address stored in bits 12-31
// of a page table entry.
const ptePhysPageMask = uint32(0xfffff000)

// PageTableEntryFlag describes a flag that can be applied to a page table entry.
type PageTableEntryFlag uint32

const (
	// FlagPresent is set when the entry holds a frame.
	FlagPresent PageTableEntryFlag = 1 << iota

	// FlagRW is set if the page can be written to.
	FlagRW
)

// pageTableEntry describes a 32-bit page directory or page table entry. The
// entry encodes a physical frame number and a set of flags. An entry without
// FlagPresent is free.
type pageTableEntry uint32

// HasFlags returns true if this entry has all the input flags set.
func (pte pageTableEntry) HasFlags(flags PageTableEntryFlag) bool {
	return (uint32(pte) & uint32(flags)) == uint32(flags)
}

// SetFlags sets the input list of flags to the page table entry.
func (pte *pageTableEntry) SetFlags(flags PageTableEntryFlag) {
	*pte = (pageTableEntry)(uint32(*pte) | uint32(flags))
}

// ClearFlags unsets the input list of flags from the page table entry.
func (pte *pageTableEntry) ClearFlags(flags PageTableEntryFlag) {
	*pte = (pageTableEntry)(uint32(*pte) &^ uint32(flags))
}

// Frame returns the physical page frame that this page table entry points to.
func (pte pageTableEntry) Frame() mm.Frame {
	return mm.Frame((uint32(pte) & ptePhysPageMask) >> mm.PageShift)
}

// SetFrame updates the page table entry to point the the given physical frame.
func (pte *pageTableEntry) SetFrame(frame mm.Frame) {
	*pte = (pageTableEntry)((uint32(*pte) &^ ptePhysPageMask) | (uint32(frame.Address()) & ptePhysPageMask))
}

// Free returns true if no frame is installed in this entry.
func (pte pageTableEntry) Free() bool {
	return !pte.HasFlags(FlagPresent)
}

// Map installs frame into a free entry. Callers must check Free first.
func (pte *pageTableEntry) Map(frame mm.Frame) {
	*pte = 0
	pte.SetFrame(frame)
	pte.SetFlags(FlagPresent | FlagRW)
}

// Unmap clears an occupied entry and returns the frame it held. Callers must
// check Free first.
func (pte *pageTableEntry) Unmap() mm.Frame {
	frame := pte.Frame()
	*pte = 0
	return frame
}
