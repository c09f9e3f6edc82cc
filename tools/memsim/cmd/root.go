// Package cmd provides the command-line interface for memsim.
package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// Environment variables that provide flag defaults. They may also be set in
// a .env file in the working directory.
const (
	envMemMap = "MEMSIM_MEMMAP"
	envTrace  = "MEMSIM_TRACE"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "memsim",
	Short: "memsim replays allocation scripts against the kernel memory managers.",
	Long: `memsim runs the kernel's frame allocator, page directory, virtual ` +
		`memory allocator and heap as an ordinary process. A firmware memory ` +
		`map seeds the frame allocator and a script of allocation operations ` +
		`is replayed against it. Results can be traced to a SQLite database.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	if err := loadEnv(".env"); err != nil {
		rootCmd.PrintErrln("Error:", err)
		atexit.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// loadEnv loads the variables defined in path without overriding those
// already present in the environment. A missing file is not an error.
func loadEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}

// flagOrEnv returns the value of the named flag if it was set on the command
// line and the value of the environment variable env otherwise.
func flagOrEnv(cmd *cobra.Command, name, env string) string {
	if flag := cmd.Flags().Lookup(name); flag != nil && flag.Changed {
		return flag.Value.String()
	}

	return envDefault(env, "")
}

func envDefault(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}

	return fallback
}
