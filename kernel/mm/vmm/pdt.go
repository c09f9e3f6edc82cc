package vmm

import (
	"unsafe"

	"meerkatos/kernel/mm"
)

var (
	// tableFrameFn returns the physical frame that backs a page table. The
	// tables live inside the kernel image so their physical address is
	// their virtual address minus the kernel page offset. Tests override
	// it as the host process has no such relationship.
	tableFrameFn = func(table *PageTable) mm.Frame {
		return mm.FrameFromAddress(uintptr(unsafe.Pointer(table)) - kernelPageOffset)
	}
)

// PageTable is the second level of the paging structure. Entry i maps page
// (dirIndex << 10) | i.
type PageTable [mm.TableEntries]pageTableEntry

// PageDirectory is the top level of the two-level paging structure. Each of
// its slots either has no table installed, in which case all the pages it
// covers are implicitly free, or owns one of the tables stored alongside the
// directory. Tables are installed on first use and are never removed; only
// their entries are freed and reused.
//
// The directory carries the backing storage for all its tables so that it
// never needs to allocate frames for its own bookkeeping.
type PageDirectory struct {
	entries [mm.TableEntries]pageTableEntry
	tables  [mm.TableEntries]PageTable
}

// Table returns the table installed at dirIndex or nil if the slot is empty.
func (pdt *PageDirectory) Table(dirIndex uintptr) *PageTable {
	if pdt.entries[dirIndex].Free() {
		return nil
	}

	return &pdt.tables[dirIndex]
}

// TableCreate returns the table at dirIndex, installing an empty one if the
// slot is empty. Repeated calls with the same index return the same table.
func (pdt *PageDirectory) TableCreate(dirIndex uintptr) *PageTable {
	table := &pdt.tables[dirIndex]
	if pdt.entries[dirIndex].Free() {
		*table = PageTable{}
		pdt.entries[dirIndex].Map(tableFrameFn(table))
	}

	return table
}

// Lookup returns the frame that page is mapped to. The second return value
// is false if the page is not mapped.
func (pdt *PageDirectory) Lookup(page mm.Page) (mm.Frame, bool) {
	table := pdt.Table(page.DirIndex())
	if table == nil || table[page.TableIndex()].Free() {
		return mm.InvalidFrame, false
	}

	return table[page.TableIndex()].Frame(), true
}

// Translate returns the physical address that corresponds to the supplied
// virtual address. The second return value is false if the address is not
// mapped.
func (pdt *PageDirectory) Translate(virtAddr uintptr) (uintptr, bool) {
	frame, ok := pdt.Lookup(mm.PageFromAddress(virtAddr))
	if !ok {
		return 0, false
	}

	return frame.Address() + mm.PageOffset(virtAddr), true
}

// mapFixed maps count pages starting at page to the frames starting at frame.
// Pages that already map to the requested frame are left untouched; any
// other existing mapping is an unrecoverable error.
func (pdt *PageDirectory) mapFixed(page mm.Page, frame mm.Frame, count uintptr) {
	for ; count > 0; count, page, frame = count-1, page+1, frame+1 {
		entry := &pdt.TableCreate(page.DirIndex())[page.TableIndex()]
		if !entry.Free() {
			if entry.Frame() == frame {
				continue
			}
			panic(errRemap)
		}

		entry.Map(frame)
	}
}
