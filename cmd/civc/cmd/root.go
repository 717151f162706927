package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "civc",
	Short:   "civc compiles programs to stack-machine bytecode",
	Long:    `civc is the compiler front end for the civc language: it runs context analysis over a source file and emits textual bytecode for a stack-based virtual machine.`,
	Version: Version,
}

// Execute runs the root command, dispatching to whichever subcommand the
// user invoked.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("civc version %s (commit %s, built %s)\n", Version, GitCommit, BuildDate))
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("config", "", "path to a .civcrc config file (default: .civcrc in the input file's directory)")
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, msg+"\n", args...)
	os.Exit(1)
}
