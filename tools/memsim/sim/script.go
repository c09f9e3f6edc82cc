package sim

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// OpKind identifies a script operation.
type OpKind int

// The supported script operations.
const (
	OpAlloc OpKind = iota
	OpContig
	OpMap
	OpFree
	OpHeap
	OpRegion
	OpTranslate
	OpStats
)

var opSpecs = []struct {
	name  string
	nArgs int
}{
	OpAlloc:     {"alloc", 1},
	OpContig:    {"contig", 1},
	OpMap:       {"map", 2},
	OpFree:      {"free", 2},
	OpHeap:      {"heap", 1},
	OpRegion:    {"region", 2},
	OpTranslate: {"translate", 1},
	OpStats:     {"stats", 0},
}

func (k OpKind) String() string {
	if int(k) < len(opSpecs) {
		return opSpecs[k].name
	}

	return fmt.Sprintf("op(%d)", int(k))
}

// Op is a single script operation and its numeric arguments.
type Op struct {
	Kind OpKind
	Args []uint64

	// Line is the script line the operation was read from.
	Line int
}

func (op Op) String() string {
	var sb strings.Builder
	sb.WriteString(op.Kind.String())
	for _, arg := range op.Args {
		fmt.Fprintf(&sb, " 0x%x", arg)
	}

	return sb.String()
}

// ParseScript reads one operation per non-empty line:
//
//	alloc N          allocate N pages
//	contig N         allocate N pages and report their first frame
//	map FRAME N      map N frames starting at FRAME
//	free PAGE N      free N pages starting at PAGE
//	heap SIZE        allocate SIZE bytes from the heap
//	region PHYS SIZE map a physical region
//	translate VIRT   translate a virtual address
//	stats            report the frame counters
//
// Numbers may be written in any base accepted by strconv.ParseUint with base
// 0. Text following a '#' is ignored.
func ParseScript(r io.Reader) ([]Op, error) {
	var (
		ops     []Op
		lineNum int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNum++

		fields := lineFields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		op, err := parseOp(fields)
		if err != nil {
			return nil, fmt.Errorf("script line %d: %w", lineNum, err)
		}

		op.Line = lineNum
		ops = append(ops, op)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return ops, nil
}

func parseOp(fields []string) (Op, error) {
	for kind, spec := range opSpecs {
		if spec.name != strings.ToLower(fields[0]) {
			continue
		}

		if len(fields)-1 != spec.nArgs {
			return Op{}, fmt.Errorf("%s expects %d argument(s), got %d", spec.name, spec.nArgs, len(fields)-1)
		}

		op := Op{Kind: OpKind(kind)}
		for _, field := range fields[1:] {
			v, err := parseNumber(field)
			if err != nil {
				return Op{}, fmt.Errorf("%s: bad argument %q", spec.name, field)
			}
			op.Args = append(op.Args, v)
		}

		return op, nil
	}

	return Op{}, fmt.Errorf("unknown operation %q", fields[0])
}
