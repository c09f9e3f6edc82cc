// Package table describes the in-memory layout of the ACPI tables that the
// kernel parses at boot.
package table

import (
	"encoding/binary"
	"unsafe"
)

// RSDPDescriptor defines the root system descriptor pointer for ACPI 1.0. This
// is used as the entry-point for parsing ACPI data.
type RSDPDescriptor struct {
	// The signature must contain "RSD PTR " (last byte is a space).
	Signature [8]byte

	// A value that when added to the sum of all other bytes contained in
	// this descriptor should result in the value 0.
	Checksum uint8

	OEMID [6]byte

	// ACPI revision number. It is 0 for ACPI1.0 and 2 for versions 2.0 to 6.2.
	Revision uint8

	// Physical address of 32-bit root system descriptor table.
	RSDTAddr uint32
}

// ExtRSDPDescriptor extends RSDPDescriptor with additional fields. It is used
// when RSDPDescriptor.revision > 1.
type ExtRSDPDescriptor struct {
	RSDPDescriptor

	// The size of the 64-bit root system descriptor table.
	Length uint32

	// Physical address of 64-bit root system descriptor table. It is
	// stored as two halves as the field is only 4-byte aligned.
	XSDTAddrLo uint32
	XSDTAddrHi uint32

	// A value that when added to the sum of all other bytes contained in
	// this descriptor should result in the value 0.
	ExtendedChecksum uint8

	reserved [3]byte
}

// XSDTAddr returns the physical address of the XSDT.
func (d *ExtRSDPDescriptor) XSDTAddr() uint64 {
	return uint64(d.XSDTAddrHi)<<32 | uint64(d.XSDTAddrLo)
}

// SDTHeader defines the common header for all ACPI-related tables.
type SDTHeader struct {
	// The signature defines the table type.
	Signature [4]byte

	// The length of the table
	Length uint32

	Revision uint8

	// A value that when added to the sum of all other bytes in the table
	// should result in the value 0.
	Checksum uint8

	// OEM specific information
	OEMID       [6]byte
	OEMTableID  [8]byte
	OEMRevision uint32

	// Information about the ASL compiler that generated this table
	CreatorID       uint32
	CreatorRevision uint32
}

// Sizes of the descriptors as defined by the ACPI specification.
const (
	SizeofRSDP    = 20
	SizeofExtRSDP = 36
	SizeofHeader  = 36
)

// Byte offsets of the FADT fields that point to the DSDT.
const (
	fadtDsdtOffset    = 40
	fadtExtDsdtOffset = 140
)

// Bytes returns the table contents, header included. The whole table must be
// mapped.
func (h *SDTHeader) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(h)), h.Length)
}

// Valid returns true if the bytes of the table sum up to zero.
func (h *SDTHeader) Valid() bool {
	return Checksum(h.Bytes()) == 0
}

// Entries returns the physical table addresses listed after the header of a
// RSDT (4-byte entries) or a XSDT (8-byte entries).
func (h *SDTHeader) Entries(wide bool) []uint64 {
	var (
		payload   = h.Bytes()[SizeofHeader:]
		entrySize = 4
	)

	if wide {
		entrySize = 8
	}

	entries := make([]uint64, len(payload)/entrySize)
	for i := range entries {
		if wide {
			entries[i] = binary.LittleEndian.Uint64(payload[i*8:])
		} else {
			entries[i] = uint64(binary.LittleEndian.Uint32(payload[i*4:]))
		}
	}

	return entries
}

// FADTDsdt returns the physical address of the DSDT referenced by a FADT. The
// 64-bit X_DSDT field is preferred when the table is large enough to hold it
// and it is populated.
func FADTDsdt(fadt *SDTHeader) uint64 {
	data := fadt.Bytes()
	if len(data) >= fadtExtDsdtOffset+8 {
		if addr := binary.LittleEndian.Uint64(data[fadtExtDsdtOffset:]); addr != 0 {
			return addr
		}
	}

	if len(data) >= fadtDsdtOffset+4 {
		return uint64(binary.LittleEndian.Uint32(data[fadtDsdtOffset:]))
	}

	return 0
}

// Checksum returns the 8-bit sum of the supplied bytes.
func Checksum(data []byte) uint8 {
	var sum uint8
	for _, b := range data {
		sum += b
	}

	return sum
}
