// Package main implements the iselfuzz CLI.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var rootCmd = &cobra.Command{
	Use:   "iselfuzz",
	Short: "Mutation fuzzer for the instruction-selection pipeline",
	Long: `iselfuzz feeds randomly mutated, structurally valid modules through the
instruction-selection pipeline for a fixed target, looking for crashes.
Harness options (--mtriple and friends) go after a "--" separator.`,
}

func main() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(mutateCmd)
	rootCmd.AddCommand(corpusCmd)
	rootCmd.AddCommand(seedCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// setupColor applies the --color flag before any output happens.
func setupColor(cmd *cobra.Command) {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		mode = "auto"
	}
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		color.NoColor = !isTerminal(os.Stdout)
	}
}

// splitAtDash separates the command's own arguments from harness options
// given after "--".
func splitAtDash(cmd *cobra.Command, args []string) (own, harnessArgs []string) {
	if at := cmd.ArgsLenAtDash(); at >= 0 {
		return args[:at], args[at:]
	}
	return args, nil
}
