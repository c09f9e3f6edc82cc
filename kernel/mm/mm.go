// Package mm defines the frame and page index types shared by the memory
// management packages. It is the only place where physical or virtual
// addresses are converted to and from indices.
package mm

import "math"

const (
	// PageShift is equal to log2(PageSize). This constant is used when
	// we need to convert a physical address to a frame number (shift right
	// by PageShift) and vice-versa.
	PageShift = uintptr(12)

	// PageSize defines the system's page size in bytes.
	PageSize = uintptr(1 << PageShift)

	// TableShift is equal to log2(TableEntries).
	TableShift = uintptr(10)

	// TableEntries is the number of entries in a page directory or a page
	// table. A page index is split into a 10-bit directory index and a
	// 10-bit table index.
	TableEntries = 1 << TableShift

	// MaxPage is the upper bound of the virtual page index space. Pages
	// at or past this index are never handed out.
	MaxPage = Page(0xFFFFF)

	// MaxFrames is the number of physical frames that can be tracked
	// (4GiB of physical memory).
	MaxFrames = 1 << 20

	// IdentityMapLimit is the first physical address that is not covered
	// by the identity mapping established at boot. Addresses below it
	// have the same virtual and physical address.
	IdentityMapLimit = uintptr(0x400000)
)

// Size represents a memory block size in bytes.
type Size uint64

// Common memory block sizes.
const (
	Byte Size = 1
	Kb        = 1024 * Byte
	Mb        = 1024 * Kb
	Gb        = 1024 * Mb
)

// Frame describes a physical memory page index.
type Frame uintptr

const (
	// InvalidFrame is returned by frame allocators when they fail to
	// reserve the requested frames.
	InvalidFrame = Frame(math.MaxUint32)
)

// Valid returns true if this is a valid frame.
func (f Frame) Valid() bool {
	return f != InvalidFrame
}

// Address returns the physical memory address pointed to by this Frame.
func (f Frame) Address() uintptr {
	return uintptr(f) << PageShift
}

// FrameFromAddress returns the Frame that contains the given physical
// address. Addresses that are not page-aligned are rounded down.
func FrameFromAddress(physAddr uintptr) Frame {
	return Frame(physAddr >> PageShift)
}

// Page describes a virtual memory page index.
type Page uintptr

// Address returns the virtual memory address pointed to by this Page.
func (p Page) Address() uintptr {
	return uintptr(p) << PageShift
}

// DirIndex returns the index of the page directory slot covering this page.
func (p Page) DirIndex() uintptr {
	return uintptr(p) >> TableShift
}

// TableIndex returns the index of this page's entry within its page table.
func (p Page) TableIndex() uintptr {
	return uintptr(p) & (TableEntries - 1)
}

// PageFromAddress returns the Page that contains the given virtual address.
// Addresses that are not page-aligned are rounded down.
func PageFromAddress(virtAddr uintptr) Page {
	return Page(virtAddr >> PageShift)
}

// PageOffset returns the offset of an address within its page.
func PageOffset(addr uintptr) uintptr {
	return addr & (PageSize - 1)
}

// PagesForSize returns the number of pages needed to hold size bytes.
func PagesForSize(size uintptr) uintptr {
	return (size + PageSize - 1) >> PageShift
}
