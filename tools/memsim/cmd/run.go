package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"meerkatos/kernel/kfmt"
	"meerkatos/multiboot"
	"meerkatos/tools/memsim/sim"

	"github.com/spf13/cobra"
)

var errFatal = errors.New("script halted on an invariant violation")

var runCmd = &cobra.Command{
	Use:   "run SCRIPT",
	Short: "Replay an allocation script.",
	Long: "`run SCRIPT` seeds the frame allocator from --memmap and executes " +
		"every operation in SCRIPT, printing one line per operation.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		memMapFile := flagOrEnv(cmd, "memmap", envMemMap)
		traceFile := flagOrEnv(cmd, "trace", envTrace)
		noTrace, _ := cmd.Flags().GetBool("no-trace")

		regions, err := readMemoryMap(memMapFile)
		if err != nil {
			return err
		}

		ops, err := readScript(args[0])
		if err != nil {
			return err
		}

		var tracer sim.Tracer
		if !noTrace {
			sqliteTracer := sim.NewSQLiteTracer(traceFile)
			if err = sqliteTracer.Init(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Trace is collected in database: %s (session %s)\n",
				sqliteTracer.FileName(), sqliteTracer.Session())
			tracer = sqliteTracer
		}

		return replay(cmd.OutOrStdout(), regions, ops, tracer)
	},
}

var memMapCmd = &cobra.Command{
	Use:   "memmap [FILE]",
	Short: "Print a memory map and the frames it makes available.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		memMapFile := flagOrEnv(cmd, "memmap", envMemMap)
		if len(args) == 1 {
			memMapFile = args[0]
		}

		regions, err := readMemoryMap(memMapFile)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, region := range regions {
			fmt.Fprintf(out, "[0x%010x - 0x%010x] %-10s %d bytes\n",
				region.PhysAddress, region.PhysAddress+region.Length, region.Type, region.Length)
		}

		stats := sim.NewMachine(regions, nil).Stats()
		fmt.Fprintf(out, "free frames: %d/%d\n", stats.FreeFrames, stats.TotalFrames)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(memMapCmd)

	rootCmd.PersistentFlags().String("memmap", "",
		"memory map file (defaults to $"+envMemMap+")")
	runCmd.Flags().String("trace", "",
		"SQLite trace file (defaults to $"+envTrace+" or a generated name)")
	runCmd.Flags().Bool("no-trace", false, "do not record a trace")
}

// replay runs ops on a fresh machine and prints the results to w. Kernel log
// output is routed to w as well.
func replay(w io.Writer, regions []multiboot.MemoryMapEntry, ops []sim.Op, tracer sim.Tracer) error {
	kfmt.SetOutputSink(w)
	defer kfmt.SetOutputSink(nil)

	machine := sim.NewMachine(regions, tracer)
	for _, res := range machine.Run(ops) {
		fmt.Fprintln(w, res)
	}

	if machine.Halted() {
		return errFatal
	}

	return nil
}

func readMemoryMap(path string) ([]multiboot.MemoryMapEntry, error) {
	if path == "" {
		return nil, fmt.Errorf("no memory map given; use --memmap or set %s", envMemMap)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return sim.ParseMemoryMap(f)
}

func readScript(path string) ([]sim.Op, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return sim.ParseScript(f)
}
