// Package vmm manages the kernel's virtual address space. It installs
// mappings in a two-level page directory and uses a physical frame allocator
// to back the pages it hands out.
package vmm

import (
	"meerkatos/kernel"
	"meerkatos/kernel/cpu"
	"meerkatos/kernel/kfmt"
	"meerkatos/kernel/mm"
)

//go:generate mockgen -destination "mock_frame_allocator_test.go" -package $GOPACKAGE -write_package_comment=false meerkatos/kernel/mm/vmm FrameAllocator

var (
	// flushTLBEntryFn is used by tests to override calls to
	// cpu.FlushTLBEntry which will cause a fault if called in user-mode.
	flushTLBEntryFn = cpu.FlushTLBEntry

	log = &kfmt.PrefixWriter{Prefix: []byte("[vmm] ")}

	// ErrInvalidMapping is returned when trying to lookup a virtual memory
	// address that is not yet mapped.
	ErrInvalidMapping = &kernel.Error{Module: "vmm", Message: "virtual address does not point to a mapped physical page"}

	errBadCount              = &kernel.Error{Module: "vmm", Message: "page count must be greater than zero"}
	errAddressSpaceExhausted = &kernel.Error{Module: "vmm", Message: "virtual address space exhausted"}
	errNonContiguous         = &kernel.Error{Module: "vmm", Message: "non-contiguous mapping"}
	errAlreadyFreed          = &kernel.Error{Module: "vmm", Message: "page already freed"}
	errRemap                 = &kernel.Error{Module: "vmm", Message: "page is already mapped to a different frame"}
)

// FrameAllocator is implemented by physical frame allocators that can back
// virtual memory allocations. Callers must hold the allocator lock across a
// FindFree and the MarkUsed that commits its result.
type FrameAllocator interface {
	Lock()
	Unlock()
	FindFree(count uintptr) (mm.Frame, *kernel.Error)
	MarkUsed(start mm.Frame, count uintptr)
	MarkFree(start mm.Frame, count uintptr)
}

// VirtualMemory hands out ranges of virtual pages from a page directory and
// backs them with frames obtained from a FrameAllocator.
//
// Page 0 is never handed out so that a zero address can signal failure.
// VirtualMemory does not serialize its own page directory updates; callers
// that share an instance across CPUs must provide their own locking.
type VirtualMemory struct {
	pdt    *PageDirectory
	frames FrameAllocator

	// flushFn replaces flushTLBEntryFn when set.
	flushFn func(virtAddr uintptr)
}

// NewVirtualMemory returns a VirtualMemory that installs mappings into pdt
// and obtains frames from frames.
func NewVirtualMemory(pdt *PageDirectory, frames FrameAllocator) *VirtualMemory {
	return &VirtualMemory{pdt: pdt, frames: frames}
}

// PageDirectory returns the page directory managed by vm.
func (vm *VirtualMemory) PageDirectory() *PageDirectory {
	return vm.pdt
}

// SetTLBFlushFn makes vm invalidate TLB entries through fn instead of the CPU.
// Tools that drive a VirtualMemory from user space use it to observe or
// suppress the flushes issued by Free.
func (vm *VirtualMemory) SetTLBFlushFn(fn func(virtAddr uintptr)) {
	vm.flushFn = fn
}

// Map maps count contiguous frames starting at frameStart to a run of free
// virtual pages and returns the first page of the run. The frames are not
// marked as used; this is the caller's responsibility.
func (vm *VirtualMemory) Map(frameStart mm.Frame, count uintptr) (mm.Page, *kernel.Error) {
	if count == 0 {
		return 0, errBadCount
	}

	pageStart, err := vm.findFree(count)
	if err != nil {
		return 0, err
	}

	vm.install(pageStart, frameStart, count)
	return pageStart, nil
}

// Allocate backs count free virtual pages with newly reserved physical frames
// and returns the first page. The frames are physically contiguous so the
// allocation can later be released with Free.
func (vm *VirtualMemory) Allocate(count uintptr) (mm.Page, *kernel.Error) {
	page, _, err := vm.AllocateContiguous(count)
	return page, err
}

// AllocateContiguous works like Allocate but also returns the first physical
// frame backing the allocation. It is meant for buffers whose physical
// address must be handed to hardware.
//
// If no virtual range can be found after the frames have been reserved, the
// frames stay reserved and an error is returned.
func (vm *VirtualMemory) AllocateContiguous(count uintptr) (mm.Page, mm.Frame, *kernel.Error) {
	if count == 0 {
		return 0, mm.InvalidFrame, errBadCount
	}

	vm.frames.Lock()
	frameStart, err := vm.frames.FindFree(count)
	if err != nil {
		vm.frames.Unlock()
		return 0, mm.InvalidFrame, err
	}
	vm.frames.MarkUsed(frameStart, count)
	vm.frames.Unlock()

	pageStart, err := vm.Map(frameStart, count)
	if err != nil {
		kfmt.Fprintf(log, "leaking %d frames at 0x%x: %s\n", count, frameStart.Address(), err.Message)
		return 0, mm.InvalidFrame, err
	}

	return pageStart, frameStart, nil
}

// Free unmaps count pages starting at pageStart and returns their frames to
// the frame allocator. The range must have been obtained from Allocate or
// AllocateContiguous. Freeing an unmapped page or a range whose frames are
// not physically contiguous is an unrecoverable error; the whole range is
// checked before any page is released.
func (vm *VirtualMemory) Free(pageStart mm.Page, count uintptr) {
	if count == 0 {
		return
	}

	first := vm.mappedEntry(pageStart).Frame()
	for i := uintptr(1); i < count; i++ {
		if vm.mappedEntry(pageStart+mm.Page(i)).Frame() != first+mm.Frame(i) {
			panic(errNonContiguous)
		}
	}

	for i, page := uintptr(0), pageStart; i < count; i, page = i+1, page+1 {
		frame := vm.mappedEntry(page).Unmap()
		vm.flushTLBEntry(page.Address())

		vm.frames.Lock()
		vm.frames.MarkFree(frame, 1)
		vm.frames.Unlock()
	}
}

// mappedEntry returns the entry that maps page. It panics with
// errAlreadyFreed if the page is not mapped.
func (vm *VirtualMemory) mappedEntry(page mm.Page) *pageTableEntry {
	table := vm.pdt.Table(page.DirIndex())
	if table == nil || table[page.TableIndex()].Free() {
		panic(errAlreadyFreed)
	}

	return &table[page.TableIndex()]
}

func (vm *VirtualMemory) flushTLBEntry(virtAddr uintptr) {
	if vm.flushFn != nil {
		vm.flushFn(virtAddr)
		return
	}

	flushTLBEntryFn(virtAddr)
}

// Lookup returns the frame that page is mapped to.
func (vm *VirtualMemory) Lookup(page mm.Page) (mm.Frame, *kernel.Error) {
	frame, ok := vm.pdt.Lookup(page)
	if !ok {
		return mm.InvalidFrame, ErrInvalidMapping
	}

	return frame, nil
}

// Translate returns the physical address that corresponds to the supplied
// virtual address or ErrInvalidMapping if the virtual address does not
// correspond to a mapped physical address.
func (vm *VirtualMemory) Translate(virtAddr uintptr) (uintptr, *kernel.Error) {
	physAddr, ok := vm.pdt.Translate(virtAddr)
	if !ok {
		return 0, ErrInvalidMapping
	}

	return physAddr, nil
}

// install maps count pages starting at pageStart to the frames starting at
// frameStart. All target pages must be free; finding an occupied entry means
// findFree and the page directory disagree and is an unrecoverable error.
func (vm *VirtualMemory) install(pageStart mm.Page, frameStart mm.Frame, count uintptr) {
	page, frame := pageStart, frameStart
	for ; count > 0; count, page, frame = count-1, page+1, frame+1 {
		entry := &vm.pdt.TableCreate(page.DirIndex())[page.TableIndex()]
		if !entry.Free() {
			panic(errNonContiguous)
		}

		entry.Map(frame)
	}
}

// findFree returns the first page of the lowest run of count free virtual
// pages. Page 0 is never considered. A directory slot without a table counts
// as a run of free pages up to the end of the slot.
func (vm *VirtualMemory) findFree(count uintptr) (mm.Page, *kernel.Error) {
	var (
		runStart = mm.Page(1)
		runLen   uintptr
	)

	for page := runStart; page <= mm.MaxPage; {
		if uintptr(runStart)+count > uintptr(mm.MaxPage) {
			break
		}

		table := vm.pdt.Table(page.DirIndex())
		if table == nil {
			skip := mm.TableEntries - page.TableIndex()
			runLen += skip
			page += mm.Page(skip)
		} else if table[page.TableIndex()].Free() {
			runLen++
			page++
		} else {
			page++
			runStart, runLen = page, 0
			continue
		}

		if runLen >= count {
			return runStart, nil
		}
	}

	return 0, errAddressSpaceExhausted
}

var (
	// kernelPageOffset is the difference between the virtual and
	// physical address of the kernel image.
	kernelPageOffset uintptr

	kernelPDT PageDirectory
	kernelVM  = VirtualMemory{pdt: &kernelPDT}

	errKernelImageRange = &kernel.Error{Module: "vmm", Message: "kernel image does not fit in the virtual address space"}
)

// Init sets up the kernel address space. It identity-maps the physical range
// [0, mm.IdentityMapLimit), maps the kernel image [kernelStart, kernelEnd) at
// kernelStart+kernelPageOffset and attaches frames as the source of frames
// for all subsequent kernel allocations.
//
// The frames covered by these mappings must already be reserved in frames.
func Init(frames FrameAllocator, kernelPageOffsetValue, kernelStart, kernelEnd uintptr) *kernel.Error {
	if kernelEnd < kernelStart ||
		(kernelEnd > kernelStart && mm.PageFromAddress(kernelEnd-1+kernelPageOffsetValue) >= mm.MaxPage) {
		return errKernelImageRange
	}

	kernelPageOffset = kernelPageOffsetValue
	kernelVM.frames = frames

	kernelPDT.mapFixed(0, 0, uintptr(mm.PageFromAddress(mm.IdentityMapLimit)))

	if kernelEnd > kernelStart {
		frameStart := mm.FrameFromAddress(kernelStart)
		kernelPDT.mapFixed(
			mm.PageFromAddress(kernelStart+kernelPageOffset),
			frameStart,
			uintptr(mm.FrameFromAddress(kernelEnd-1)-frameStart)+1,
		)
	}

	kfmt.Fprintf(log, "identity mapped [0x0 - 0x%x), kernel image at 0x%x\n", mm.IdentityMapLimit, kernelStart+kernelPageOffset)
	return nil
}

// Kernel returns the kernel's VirtualMemory instance.
func Kernel() *VirtualMemory {
	return &kernelVM
}

// Map maps count frames starting at frameStart into the kernel address space.
func Map(frameStart mm.Frame, count uintptr) (mm.Page, *kernel.Error) {
	return kernelVM.Map(frameStart, count)
}

// Allocate reserves count kernel pages backed by contiguous frames.
func Allocate(count uintptr) (mm.Page, *kernel.Error) {
	return kernelVM.Allocate(count)
}

// AllocateContiguous reserves count kernel pages backed by contiguous frames
// and also returns the first frame.
func AllocateContiguous(count uintptr) (mm.Page, mm.Frame, *kernel.Error) {
	return kernelVM.AllocateContiguous(count)
}

// Free releases count kernel pages starting at pageStart.
func Free(pageStart mm.Page, count uintptr) {
	kernelVM.Free(pageStart, count)
}

// Translate returns the physical address of a kernel virtual address.
func Translate(virtAddr uintptr) (uintptr, *kernel.Error) {
	return kernelVM.Translate(virtAddr)
}
