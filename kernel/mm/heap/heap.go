// Package heap provides the kernel's global byte-granular allocator. Every
// request is rounded up to whole pages and served by the virtual memory
// allocator, so it is meant to sit beneath a finer-grained allocator.
package heap

import (
	"meerkatos/kernel"
	"meerkatos/kernel/mm"
)

//go:generate mockgen -destination "mock_page_allocator_test.go" -package $GOPACKAGE -write_package_comment=false meerkatos/kernel/mm/heap PageAllocator

// PageAllocator is implemented by page-granular allocators that back heap
// requests. *vmm.VirtualMemory satisfies it.
type PageAllocator interface {
	Allocate(count uintptr) (mm.Page, *kernel.Error)
	Free(pageStart mm.Page, count uintptr)
}

// Allocator serves byte-sized requests with whole pages.
type Allocator struct {
	pages PageAllocator
}

// New returns an Allocator that obtains its pages from pages.
func New(pages PageAllocator) *Allocator {
	return &Allocator{pages: pages}
}

// Alloc returns the address of a block of at least size bytes aligned to
// align, or 0 if the request cannot be served. Blocks are page-aligned so
// any alignment up to mm.PageSize is honoured.
func (a *Allocator) Alloc(size, align uintptr) uintptr {
	if size == 0 || align > mm.PageSize || a.pages == nil {
		return 0
	}

	page, err := a.pages.Allocate(mm.PagesForSize(size))
	if err != nil {
		return 0
	}

	return page.Address()
}

// Free releases a block returned by Alloc. size and align must match the
// values passed to Alloc.
func (a *Allocator) Free(ptr, size, align uintptr) {
	if ptr == 0 || size == 0 {
		return
	}

	a.pages.Free(mm.PageFromAddress(ptr), mm.PagesForSize(size))
}

var kernelHeap Allocator

// Init makes pages the source of all kernel heap allocations.
func Init(pages PageAllocator) {
	kernelHeap.pages = pages
}

// Alloc allocates a block from the kernel heap.
func Alloc(size, align uintptr) uintptr {
	return kernelHeap.Alloc(size, align)
}

// Free returns a block to the kernel heap.
func Free(ptr, size, align uintptr) {
	kernelHeap.Free(ptr, size, align)
}
