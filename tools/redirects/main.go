// Command redirects patches the .goredirectstbl section of a kernel image
// with the addresses of the functions annotated with go:redirect-from.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "redirects",
	Short: "Manage the runtime redirect table of the kernel image.",
	Long: `redirects scans the kernel sources for go:redirect-from annotations. ` +
		`It can report how many redirects exist (so the linker script can ` +
		`reserve space for them) or write the resolved symbol addresses ` +
		`into a linked kernel image.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return checkKernelRoot()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&srcRoot, "src", "kernel/",
		"directory that is scanned for redirect annotations")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
