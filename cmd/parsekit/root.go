package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parsekit",
	Short: "Build and run parsers from a small grammar notation",
	Long: `parsekit provides three features:
- Checks a grammar and reports construction/analysis errors and conflicts.
- Parses a text stream against a grammar and prints the resulting tree.
- Assembles and runs programs on the bundled stack VM.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}
