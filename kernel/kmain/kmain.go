// Package kmain contains the kernel entrypoint that runs once the rt0 code has
// set up paging and a stack for the Go code.
package kmain

import (
	"meerkatos/kernel"
	"meerkatos/kernel/hal"
	"meerkatos/kernel/kfmt"
	"meerkatos/kernel/mm/heap"
	"meerkatos/kernel/mm/pmm"
	"meerkatos/kernel/mm/vmm"
	"meerkatos/multiboot"

	// Drivers register themselves with the device package.
	_ "meerkatos/device/acpi"

	// Redirect targets for the Go allocator.
	_ "meerkatos/kernel/goruntime"
)

var (
	errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}
)

// Kmain is the only Go symbol that is visible (exported) from the rt0 initialization
// code. This function is invoked by the rt0 assembly code after setting up the GDT
// and setting up a a minimal g0 struct that allows Go code using the 4K stack
// allocated by the assembly code.
//
// The rt0 code passes the physical address of the multiboot info payload
// provided by the bootloader, the physical addresses for the kernel start/end
// and the offset at which the kernel image is mapped in the virtual address
// space.
//
// Kmain is not expected to return. If it does, the rt0 code will halt the CPU.
//
//go:noinline
func Kmain(multibootInfoPtr, kernelStart, kernelEnd, kernelPageOffset uintptr) {
	multiboot.SetInfoPtr(multibootInfoPtr, kernelPageOffset)

	var err *kernel.Error
	if err = pmm.Init(kernelStart, kernelEnd); err != nil {
		panic(err)
	} else if err = vmm.Init(&pmm.FrameAllocator, kernelPageOffset, kernelStart, kernelEnd); err != nil {
		panic(err)
	}

	heap.Init(vmm.Kernel())
	hal.DetectHardware()

	// Use kfmt.Panic instead of panic to prevent the compiler from
	// treating kfmt.Panic as dead-code and eliminating it.
	kfmt.Panic(errKmainReturned)
}
