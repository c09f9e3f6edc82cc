package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var srcRoot string

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of redirect annotations.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		redirects, err := scan()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d", len(redirects))
		return nil
	},
}

var populateTableCmd = &cobra.Command{
	Use:   "populate-table KERNEL_IMAGE",
	Short: "Write the resolved redirect addresses into a kernel image.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		redirects, err := scan()
		if err != nil {
			return err
		}

		imgFile := args[0]
		if err = elfResolveRedirectSymbols(redirects, imgFile); err != nil {
			return err
		}

		return elfWriteRedirectTable(redirects, imgFile)
	},
}

func init() {
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(populateTableCmd)
}

func checkKernelRoot() error {
	if matches, _ := filepath.Glob("go.mod"); len(matches) != 1 {
		return errors.New("this tool must be run from the module root folder")
	}

	return nil
}

func scan() ([]*redirect, error) {
	modPath, err := modulePath("go.mod")
	if err != nil {
		return nil, err
	}

	goFiles, err := collectGoFiles(srcRoot)
	if err != nil {
		return nil, err
	}

	return findRedirects(modPath, goFiles)
}
