package sim

import (
	"strings"
	"testing"

	"meerkatos/multiboot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMemoryMap(t *testing.T) {
	regions, err := ParseMemoryMap(strings.NewReader(`
# base       length     type
0x0          0x9fc00    available
0x9fc00      0x400      reserved
0xf0000      65536      reserved   # BIOS
0x100000     0x7ee0000  AVAILABLE
0x7fe0000    0x20000    acpi
0xfffc0000   0x40000    2
`))
	require.NoError(t, err)

	assert.Equal(t, []multiboot.MemoryMapEntry{
		{PhysAddress: 0x0, Length: 0x9fc00, Type: multiboot.MemAvailable},
		{PhysAddress: 0x9fc00, Length: 0x400, Type: multiboot.MemReserved},
		{PhysAddress: 0xf0000, Length: 0x10000, Type: multiboot.MemReserved},
		{PhysAddress: 0x100000, Length: 0x7ee0000, Type: multiboot.MemAvailable},
		{PhysAddress: 0x7fe0000, Length: 0x20000, Type: multiboot.MemAcpiReclaimable},
		{PhysAddress: 0xfffc0000, Length: 0x40000, Type: multiboot.MemReserved},
	}, regions)
}

func TestParseMemoryMapErrors(t *testing.T) {
	specs := []struct {
		input  string
		expErr string
	}{
		{"0x0 0x1000", "line 1: expected"},
		{"\n0xzz 0x1000 available", "line 2: bad base"},
		{"0x0 -1 available", "line 1: bad length"},
		{"0x0 0x1000 ram", `unknown memory type "ram"`},
	}

	for _, spec := range specs {
		_, err := ParseMemoryMap(strings.NewReader(spec.input))
		assert.ErrorContains(t, err, spec.expErr, spec.input)
	}
}

func TestParseScript(t *testing.T) {
	ops, err := ParseScript(strings.NewReader(`
contig 4      # four pages
free 1 4

alloc 0x10
map 0xb8 1
heap 100
region 0xfec00000 0x400
translate 0x1004
STATS
`))
	require.NoError(t, err)

	assert.Equal(t, []Op{
		{Kind: OpContig, Args: []uint64{4}, Line: 2},
		{Kind: OpFree, Args: []uint64{1, 4}, Line: 3},
		{Kind: OpAlloc, Args: []uint64{0x10}, Line: 5},
		{Kind: OpMap, Args: []uint64{0xb8, 1}, Line: 6},
		{Kind: OpHeap, Args: []uint64{100}, Line: 7},
		{Kind: OpRegion, Args: []uint64{0xfec00000, 0x400}, Line: 8},
		{Kind: OpTranslate, Args: []uint64{0x1004}, Line: 9},
		{Kind: OpStats, Line: 10},
	}, ops)

	assert.Equal(t, "region 0xfec00000 0x400", ops[5].String())
	assert.Equal(t, "stats", ops[7].String())
}

func TestParseScriptErrors(t *testing.T) {
	specs := []struct {
		input  string
		expErr string
	}{
		{"alloc", "script line 1: alloc expects 1 argument(s), got 0"},
		{"stats 1", "stats expects 0 argument(s), got 1"},
		{"\n\nfree 1 x", `script line 3: free: bad argument "x"`},
		{"reserve 0 1", `unknown operation "reserve"`},
	}

	for _, spec := range specs {
		_, err := ParseScript(strings.NewReader(spec.input))
		assert.ErrorContains(t, err, spec.expErr, spec.input)
	}
}

func TestOpKindString(t *testing.T) {
	assert.Equal(t, "translate", OpTranslate.String())
	assert.Equal(t, "op(42)", OpKind(42).String())
}
