package vmm

import (
	"testing"

	"meerkatos/kernel/mm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPhysicalRegion(t *testing.T) {
	specs := []struct {
		descr    string
		physAddr uintptr
		size     uintptr
		expVirt  uintptr
		expPages uintptr
	}{
		{"identity mapped", 0xe0000, 0x24, 0xe0000, 0},
		{"identity mapped up to the limit", 0x3ff000, 0x1000, 0x3ff000, 0},
		{"straddles the identity limit", 0x3ffff0, 0x20, 0x1ff0, 2},
		{"starts identity mapped, ends past the limit", 0x3fe000, 0x2800, 0x1000, 3},
		{"high memory", 0xbffe1234, 0x24, 0x1234, 1},
		{"high memory crossing a page", 0xbffe1ff0, 0x24, 0x1ff0, 2},
		{"empty high region", 0x7fe0000, 0, 0x1000, 1},
	}

	for _, spec := range specs {
		t.Run(spec.descr, func(t *testing.T) {
			vm := NewVirtualMemory(new(PageDirectory), nil)

			virtAddr, err := vm.MapPhysicalRegion(spec.physAddr, spec.size)
			require.Nil(t, err)
			assert.Equal(t, spec.expVirt, virtAddr)

			if spec.expPages == 0 {
				assert.Nil(t, vm.pdt.Table(0), "identity regions must not install mappings")
				return
			}

			// every byte of the region translates back to its physical address
			for _, off := range []uintptr{0, spec.size / 2, spec.size} {
				physAddr, err := vm.Translate(virtAddr + off)
				require.Nil(t, err)
				assert.Equal(t, spec.physAddr+off, physAddr)
			}

			_, err = vm.Lookup(mm.Page(1 + spec.expPages))
			assert.Equal(t, ErrInvalidMapping, err)

			// unmapping is a no-op; the mapping stays in place
			vm.UnmapPhysicalRegion(virtAddr, spec.size)
			_, err = vm.Translate(virtAddr)
			assert.Nil(t, err)
		})
	}
}

func TestMapPhysicalRegionErrors(t *testing.T) {
	vm := NewVirtualMemory(new(PageDirectory), nil)

	_, err := vm.MapPhysicalRegion(0x80000000, uintptr(mm.MaxPage)*mm.PageSize)
	assert.Equal(t, errAddressSpaceExhausted, err)
}

func TestKernelPhysicalRegion(t *testing.T) {
	defer func() { kernelPDT = PageDirectory{} }()

	virtAddr, err := MapPhysicalRegion(0xfec00010, 0x40)
	require.Nil(t, err)

	physAddr, err := Translate(virtAddr)
	require.Nil(t, err)
	assert.Equal(t, uintptr(0xfec00010), physAddr)

	UnmapPhysicalRegion(virtAddr, 0x40)
}
