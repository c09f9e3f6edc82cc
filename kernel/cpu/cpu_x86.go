//go:build 386 || amd64

package cpu

// Halt disables interrupts and stops instruction execution. It never returns.
func Halt()

// FlushTLBEntry flushes a TLB entry for a particular virtual address.
func FlushTLBEntry(virtAddr uintptr)
