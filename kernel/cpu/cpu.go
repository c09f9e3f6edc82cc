// Package cpu exposes the privileged instructions used by the memory
// management code.
package cpu
