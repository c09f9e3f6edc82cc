// Package sim drives the kernel memory managers from user space. A Machine
// owns its own frame allocator, page directory and heap so that scripted
// allocation sequences can be replayed and inspected on a development host.
package sim

import (
	"fmt"

	"meerkatos/kernel"
	"meerkatos/kernel/mm"
	"meerkatos/kernel/mm/heap"
	"meerkatos/kernel/mm/pmm"
	"meerkatos/kernel/mm/vmm"
	"meerkatos/multiboot"
)

//go:generate mockgen -destination "mock_tracer_test.go" -package $GOPACKAGE -write_package_comment=false meerkatos/tools/memsim/sim Tracer

// Tracer receives the result of every operation a Machine executes.
type Tracer interface {
	Record(res Result)
}

// Result describes the outcome of an operation.
type Result struct {
	Seq int
	Op  Op

	Page  mm.Page
	Frame mm.Frame
	Addr  uintptr

	// FreeFrames is the number of free frames after the operation.
	FreeFrames uint32

	// Flushes is the number of TLB entries invalidated by the operation.
	Flushes int

	// Err holds the error reported by the operation. Fatal is set if the
	// error is an invariant violation that would halt the kernel.
	Err   *kernel.Error
	Fatal bool
}

// Failed returns true if the operation reported an error.
func (r Result) Failed() bool {
	return r.Err != nil
}

func (r Result) String() string {
	prefix := fmt.Sprintf("#%d %-24s", r.Seq, r.Op)

	switch {
	case r.Fatal:
		return fmt.Sprintf("%s FATAL [%s] %s", prefix, r.Err.Module, r.Err.Message)
	case r.Err != nil:
		return fmt.Sprintf("%s error [%s] %s", prefix, r.Err.Module, r.Err.Message)
	}

	switch r.Op.Kind {
	case OpAlloc, OpMap:
		return fmt.Sprintf("%s page 0x%x (addr 0x%x)", prefix, uintptr(r.Page), r.Addr)
	case OpContig:
		return fmt.Sprintf("%s page 0x%x frame 0x%x", prefix, uintptr(r.Page), uintptr(r.Frame))
	case OpFree:
		return fmt.Sprintf("%s ok, %d TLB flushes, %d free frames", prefix, r.Flushes, r.FreeFrames)
	case OpHeap, OpRegion, OpTranslate:
		return fmt.Sprintf("%s addr 0x%x", prefix, r.Addr)
	default:
		return fmt.Sprintf("%s %d free frames", prefix, r.FreeFrames)
	}
}

var errHeapExhausted = &kernel.Error{Module: "heap", Message: "allocation failed"}

// Machine is a self-contained instance of the kernel memory managers.
type Machine struct {
	frames *pmm.BitmapAllocator
	vm     *vmm.VirtualMemory
	heap   *heap.Allocator
	tracer Tracer

	seq     int
	flushes int
	halted  bool
}

// NewMachine seeds a frame allocator from regions and attaches an empty page
// directory to it. tracer may be nil.
func NewMachine(regions []multiboot.MemoryMapEntry, tracer Tracer) *Machine {
	m := &Machine{
		frames: new(pmm.BitmapAllocator),
		tracer: tracer,
	}

	m.frames.Init(func(visitor multiboot.MemRegionVisitor) {
		for i := range regions {
			if !visitor(&regions[i]) {
				return
			}
		}
	})

	m.vm = vmm.NewVirtualMemory(new(vmm.PageDirectory), m.frames)
	m.vm.SetTLBFlushFn(func(uintptr) { m.flushes++ })
	m.heap = heap.New(m.vm)

	return m
}

// Stats returns the frame allocator counters.
func (m *Machine) Stats() pmm.Stats {
	return m.frames.Stats()
}

// Halted returns true once an operation has hit an invariant violation.
func (m *Machine) Halted() bool {
	return m.halted
}

// Run executes ops in order and stops after the first fatal result.
func (m *Machine) Run(ops []Op) []Result {
	results := make([]Result, 0, len(ops))
	for _, op := range ops {
		res := m.Exec(op)
		results = append(results, res)
		if res.Fatal {
			break
		}
	}

	return results
}

// Exec executes a single operation. Invariant violations are reported as
// fatal results and halt the machine; a halted machine rejects further
// operations.
func (m *Machine) Exec(op Op) (res Result) {
	m.seq++
	m.flushes = 0
	res = Result{Seq: m.seq, Op: op}

	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(*kernel.Error)
			if !ok {
				panic(r)
			}

			m.halted = true
			res.Err, res.Fatal = err, true
		}

		res.Flushes = m.flushes
		res.FreeFrames = m.frames.Stats().FreeFrames
		if m.tracer != nil {
			m.tracer.Record(res)
		}
	}()

	if m.halted {
		res.Err, res.Fatal = errHalted, true
		return res
	}

	m.exec(op, &res)
	return res
}

var errHalted = &kernel.Error{Module: "memsim", Message: "machine halted by an earlier invariant violation"}

func (m *Machine) exec(op Op, res *Result) {
	arg := func(i int) uintptr { return uintptr(op.Args[i]) }

	switch op.Kind {
	case OpAlloc:
		res.Page, res.Err = m.vm.Allocate(arg(0))
		res.Addr = res.Page.Address()
	case OpContig:
		res.Page, res.Frame, res.Err = m.vm.AllocateContiguous(arg(0))
	case OpMap:
		res.Frame = mm.Frame(arg(0))
		res.Page, res.Err = m.vm.Map(res.Frame, arg(1))
		res.Addr = res.Page.Address()
	case OpFree:
		res.Page = mm.Page(arg(0))
		m.vm.Free(res.Page, arg(1))
	case OpHeap:
		if res.Addr = m.heap.Alloc(arg(0), 1); res.Addr == 0 {
			res.Err = errHeapExhausted
		}
	case OpRegion:
		res.Addr, res.Err = m.vm.MapPhysicalRegion(arg(0), arg(1))
	case OpTranslate:
		res.Addr, res.Err = m.vm.Translate(arg(0))
	case OpStats:
	}
}
