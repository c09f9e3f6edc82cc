//go:build !386 && !amd64

package cpu

// Halt stops instruction execution. It never returns.
func Halt() {
	for {
	}
}

// FlushTLBEntry is a no-op for architectures that the kernel does not boot on.
func FlushTLBEntry(_ uintptr) {}
