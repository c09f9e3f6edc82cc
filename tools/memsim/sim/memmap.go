package sim

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"meerkatos/multiboot"
)

var memTypeNames = map[string]multiboot.MemoryEntryType{
	"available": multiboot.MemAvailable,
	"reserved":  multiboot.MemReserved,
	"acpi":      multiboot.MemAcpiReclaimable,
	"nvs":       multiboot.MemNvs,
}

// ParseMemoryMap reads a firmware memory map description. Each non-empty line
// holds a region as "base length type" where type is one of available,
// reserved, acpi, nvs or the raw multiboot type number. Text following a '#'
// is ignored.
func ParseMemoryMap(r io.Reader) ([]multiboot.MemoryMapEntry, error) {
	var (
		regions []multiboot.MemoryMapEntry
		lineNum int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNum++

		fields := lineFields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if len(fields) != 3 {
			return nil, fmt.Errorf("memory map line %d: expected \"base length type\"", lineNum)
		}

		base, err := parseNumber(fields[0])
		if err != nil {
			return nil, fmt.Errorf("memory map line %d: bad base: %w", lineNum, err)
		}

		length, err := parseNumber(fields[1])
		if err != nil {
			return nil, fmt.Errorf("memory map line %d: bad length: %w", lineNum, err)
		}

		memType, err := parseMemType(fields[2])
		if err != nil {
			return nil, fmt.Errorf("memory map line %d: %w", lineNum, err)
		}

		regions = append(regions, multiboot.MemoryMapEntry{
			PhysAddress: base,
			Length:      length,
			Type:        memType,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return regions, nil
}

func parseMemType(name string) (multiboot.MemoryEntryType, error) {
	if memType, ok := memTypeNames[strings.ToLower(name)]; ok {
		return memType, nil
	}

	v, err := strconv.ParseUint(name, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("unknown memory type %q", name)
	}

	return multiboot.MemoryEntryType(v), nil
}

// lineFields strips comments and splits the line on whitespace.
func lineFields(line string) []string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}

	return strings.Fields(line)
}

func parseNumber(s string) (uint64, error) {
	return strconv.ParseUint(s, 0, 64)
}
