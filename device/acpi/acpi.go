// Package acpi locates the ACPI tables provided by the firmware and maps them
// into the kernel address space.
package acpi

import (
	"io"
	"unsafe"

	"meerkatos/device"
	"meerkatos/device/acpi/table"
	"meerkatos/kernel"
	"meerkatos/kernel/kfmt"
	"meerkatos/kernel/mm"
	"meerkatos/kernel/mm/vmm"
)

const (
	acpiRev1     uint8 = 0
	acpiRev2Plus uint8 = 2
)

var (
	errMissingRSDP           = &kernel.Error{Module: "acpi", Message: "could not locate ACPI RSDP"}
	errTableChecksumMismatch = &kernel.Error{Module: "acpi", Message: "detected checksum mismatch while parsing ACPI table header"}
	errTableTooShort         = &kernel.Error{Module: "acpi", Message: "ACPI table is shorter than its header"}

	mapPhysicalRegionFn = vmm.MapPhysicalRegion

	// RDSP must be located in the physical memory region 0xe0000 to 0xfffff
	rsdpLocationLow uintptr = 0xe0000
	rsdpLocationHi  uintptr = 0xfffff
	rsdpAlignment   uintptr = 16

	rsdpSignature = [8]byte{'R', 'S', 'D', ' ', 'P', 'T', 'R', ' '}
	fadtSignature = "FACP"
)

type acpiDriver struct {
	// rsdtAddr holds the address to the root system descriptor table.
	rsdtAddr uintptr

	// useXSDT specifies if the driver must use the XSDT or the RSDT table.
	useXSDT bool

	// The ACPI table map allows the driver to lookup an ACPI table header
	// by the table name. All tables included in this map are mapped into
	// memory.
	tableMap map[string]*table.SDTHeader
}

// DriverInit initializes this driver.
func (drv *acpiDriver) DriverInit(w io.Writer) *kernel.Error {
	if err := drv.enumerateTables(w); err != nil {
		return err
	}

	drv.printTableInfo(w)

	return nil
}

// DriverName returns the name of this driver.
func (*acpiDriver) DriverName() string {
	return "ACPI"
}

// DriverVersion returns the version of this driver.
func (*acpiDriver) DriverVersion() (uint16, uint16, uint16) {
	return 0, 0, 1
}

// LookupTable returns the header of the named table or nil if the firmware
// does not provide it. The entire table is mapped.
func (drv *acpiDriver) LookupTable(name string) *table.SDTHeader {
	return drv.tableMap[name]
}

func (drv *acpiDriver) printTableInfo(w io.Writer) {
	for name, header := range drv.tableMap {
		kfmt.Fprintf(w, "%s at 0x%16x %6x (%6s %8s)\n",
			name,
			uintptr(unsafe.Pointer(header)),
			header.Length,
			header.OEMID[:],
			header.OEMTableID[:],
		)
	}
}

// enumerateTables detects and maps all ACPI tables that are present. Besides
// the table list defined by the RSDT/XSDT, this method will also peek into the
// FADT (if found) looking for the address of DSDT.
func (drv *acpiDriver) enumerateTables(w io.Writer) *kernel.Error {
	rsdt, err := mapACPITable(drv.rsdtAddr)
	if err != nil {
		return err
	}

	drv.tableMap = make(map[string]*table.SDTHeader)

	for _, addr := range rsdt.Entries(drv.useXSDT) {
		header, err := drv.addTable(w, uintptr(addr))
		if err != nil {
			return err
		}

		// The FADT allows us to lookup the DSDT table address
		if header != nil && string(header.Signature[:]) == fadtSignature {
			if dsdtAddr := table.FADTDsdt(header); dsdtAddr != 0 {
				if _, err = drv.addTable(w, uintptr(dsdtAddr)); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// addTable maps the table at tableAddr and records it in the table map. Tables
// with a bad checksum are reported and skipped; a nil header is returned for
// them.
func (drv *acpiDriver) addTable(w io.Writer, tableAddr uintptr) (*table.SDTHeader, *kernel.Error) {
	header, err := mapACPITable(tableAddr)
	switch err {
	case nil:
	case errTableChecksumMismatch:
		kfmt.Fprintf(w, "%s at 0x%16x %6x [checksum mismatch; skipping]\n",
			header.Signature[:],
			uintptr(unsafe.Pointer(header)),
			header.Length,
		)
		return nil, nil
	default:
		return nil, err
	}

	drv.tableMap[string(header.Signature[:])] = header
	return header, nil
}

// mapACPITable maps the header of the ACPI table starting at the given
// physical address. It then uses the length field of the header to expand the
// mapping to cover the table contents if needed and verifies the checksum
// before returning a pointer to the table header.
func mapACPITable(tableAddr uintptr) (*table.SDTHeader, *kernel.Error) {
	headerAddr, err := mapPhysicalRegionFn(tableAddr, table.SizeofHeader)
	if err != nil {
		return nil, err
	}

	header := (*table.SDTHeader)(unsafe.Pointer(headerAddr))
	if header.Length < table.SizeofHeader {
		return nil, errTableTooShort
	}

	// The header mapping covers whole pages; only map the table again if
	// its contents spill past them.
	offset := mm.PageOffset(tableAddr)
	if offset+uintptr(header.Length) > mm.PagesForSize(offset+table.SizeofHeader)<<mm.PageShift {
		if headerAddr, err = mapPhysicalRegionFn(tableAddr, uintptr(header.Length)); err != nil {
			return nil, err
		}
		header = (*table.SDTHeader)(unsafe.Pointer(headerAddr))
	}

	if !header.Valid() {
		return header, errTableChecksumMismatch
	}

	return header, nil
}

// locateRSDT scans the memory region [rsdpLocationLow, rsdpLocationHi] looking
// for the signature of the root system descriptor pointer (RSDP). If the RSDP
// is found and is valid, locateRSDT returns the physical address of the root
// system descriptor table (RSDT) or the extended system descriptor table (XSDT)
// if the system supports ACPI 2.0+.
func locateRSDT() (uintptr, bool, *kernel.Error) {
	regionLen := rsdpLocationHi - rsdpLocationLow + 1
	regionAddr, err := mapPhysicalRegionFn(rsdpLocationLow, regionLen)
	if err != nil {
		return 0, false, err
	}

	region := unsafe.Slice((*byte)(unsafe.Pointer(regionAddr)), regionLen)

	// The RSDP should be aligned on a 16-byte boundary
checkNextBlock:
	for off := uintptr(0); off+table.SizeofRSDP <= regionLen; off += rsdpAlignment {
		rsdp := (*table.RSDPDescriptor)(unsafe.Pointer(&region[off]))
		for i, b := range rsdpSignature {
			if rsdp.Signature[i] != b {
				continue checkNextBlock
			}
		}

		if table.Checksum(region[off:off+table.SizeofRSDP]) != 0 {
			continue
		}

		if rsdp.Revision == acpiRev1 {
			return uintptr(rsdp.RSDTAddr), false, nil
		}

		// System uses ACPI revision > 1 and provides an extended RSDP
		// which can be accessed at the same place.
		if off+table.SizeofExtRSDP > regionLen || table.Checksum(region[off:off+table.SizeofExtRSDP]) != 0 {
			continue
		}

		rsdp2 := (*table.ExtRSDPDescriptor)(unsafe.Pointer(&region[off]))
		return uintptr(rsdp2.XSDTAddr()), true, nil
	}

	return 0, false, errMissingRSDP
}

func probeForACPI() device.Driver {
	if rsdtAddr, useXSDT, err := locateRSDT(); err == nil {
		return &acpiDriver{
			rsdtAddr: rsdtAddr,
			useXSDT:  useXSDT,
		}
	}

	return nil
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderBeforeACPI,
		Probe: probeForACPI,
	})
}
