package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/reallyoldfogie/demo-recorder-go/demo"
)

func newRootCmd() *cobra.Command {
	var verbose, quiet bool

	cmd := &cobra.Command{
		Use:           "demo-validate <file.demo> [file2.demo ...]",
		Short:         "Validate demonstration files",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, files []string) error {
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			failed := 0

			for _, file := range files {
				if _, err := os.Stat(file); err != nil {
					fmt.Fprintf(errOut, "❌ %s: file not found\n", file)
					failed++
					continue
				}
				if verbose {
					fmt.Fprintf(out, "Validating %s...\n", file)
				}

				var err error
				if quiet {
					err = demo.ValidateFileQuiet(file)
				} else {
					err = demo.ValidateFile(file)
				}
				if err != nil {
					fmt.Fprintf(errOut, "❌ %s: %v\n", filepath.Base(file), err)
					failed++
				} else if !quiet {
					fmt.Fprintf(out, "✅ %s: valid\n", filepath.Base(file))
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files invalid", failed, len(files))
			}
			if !quiet && len(files) > 1 {
				fmt.Fprintf(out, "\nAll %d demonstration files are valid!\n", len(files))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
