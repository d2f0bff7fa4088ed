// Command onyxcheck drives the semantic checker end to end: it lexes
// and parses a source file, seeds the entity scheduler with its
// top-level declarations, and runs the cooperative checker to a
// fixpoint, printing diagnostics in the teacher's color-coded style.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "onyxcheck",
	Short: "Semantic checker for the onyxcheck example language",
	Long: `onyxcheck is a standalone driver for the checker's entity-scheduler
protocol: it lexes and parses a source file, builds one scheduler
entity per top-level declaration, and runs check.CheckEntity to a
fixpoint, reporting every diagnostic the checker produces.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
