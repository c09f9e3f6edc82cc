package kfmt

import (
	"meerkatos/kernel"
	"meerkatos/kernel/cpu"
)

const panicBanner = "\n-----------------------------------\n"

var (
	// cpuHaltFn is mocked by tests and is automatically inlined by the compiler.
	cpuHaltFn = cpu.Halt

	// errRuntimePanic carries the message of panics that were not raised
	// with a *kernel.Error. It is preallocated as Panic may run while the
	// heap is unusable.
	errRuntimePanic = &kernel.Error{Module: "rt", Message: "unknown cause"}
)

// Panic is the kernel's single halt handler. Memory management code reports
// bookkeeping corruption (double frees, remapped entries) by calling panic()
// with a *kernel.Error; in the kernel image runtime.gopanic is redirected
// here. Panic prints the module and message of the error, if any, and halts
// the CPU. It never returns.
//
//go:redirect-from runtime.gopanic
func Panic(e interface{}) {
	Printf(panicBanner)
	if err := panicError(e); err != nil {
		Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	Printf("*** kernel panic: system halted ***")
	Printf(panicBanner)

	cpuHaltFn()
}

// panicError maps a panic value to the kernel error that describes it or nil
// if the value carries no information.
func panicError(e interface{}) *kernel.Error {
	switch t := e.(type) {
	case *kernel.Error:
		return t
	case string:
		errRuntimePanic.Message = t
	case error:
		errRuntimePanic.Message = t.Error()
	default:
		return nil
	}

	return errRuntimePanic
}

// panicString serves as a redirect target for runtime.throw
//
//go:redirect-from runtime.throw
func panicString(msg string) {
	Panic(msg)
}
