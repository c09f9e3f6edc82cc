// Package goruntime connects the Go runtime's memory allocator to the kernel
// heap. The functions in this file replace their runtime counterparts when
// the kernel image is built.
package goruntime

import (
	"unsafe"

	"meerkatos/kernel/mm"
	"meerkatos/kernel/mm/heap"
)

var (
	allocFn = heap.Alloc
	freeFn  = heap.Free
)

// sysAlloc obtains a page-aligned zeroed region from the kernel heap and
// accounts for it in sysStat. It returns nil if the heap cannot serve the
// request.
//
// This function replaces runtime.sysAlloc.
//
//go:redirect-from runtime.sysAlloc
//go:nosplit
func sysAlloc(size uintptr, sysStat *uint64) unsafe.Pointer {
	regionSize := mm.PagesForSize(size) << mm.PageShift
	regionStartAddr := allocFn(regionSize, mm.PageSize)
	if regionStartAddr == 0 {
		return nil
	}

	memclr(regionStartAddr, regionSize)
	*sysStat += uint64(regionSize)
	return unsafe.Pointer(regionStartAddr)
}

// sysFree returns a region obtained via sysAlloc to the kernel heap.
//
// This function replaces runtime.sysFree.
//
//go:redirect-from runtime.sysFree
//go:nosplit
func sysFree(virtAddr unsafe.Pointer, size uintptr, sysStat *uint64) {
	if virtAddr == nil || size == 0 {
		return
	}

	regionSize := mm.PagesForSize(size) << mm.PageShift
	freeFn(uintptr(virtAddr), regionSize, mm.PageSize)
	*sysStat -= uint64(regionSize)
}

// memclr zeroes size bytes starting at addr. Fresh frames may hold data from
// a previous owner.
func memclr(addr, size uintptr) {
	if size == 0 {
		return
	}

	region := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	for i := range region {
		region[i] = 0
	}
}

func init() {
	// Dummy calls so the compiler does not optimize away the functions in
	// this file.
	var stat uint64

	sysFree(sysAlloc(0, &stat), 0, &stat)
}
