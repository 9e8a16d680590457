package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"iselfuzz/internal/harness"
)

var (
	statusOK  = color.New(color.FgGreen, color.Bold)
	statusBad = color.New(color.FgRed, color.Bold)
)

var runCmd = &cobra.Command{
	Use:   "run <input>... -- [harness options]",
	Short: "Verify inputs and drive them through the pipeline",
	Long: `Run the verify-and-run protocol over each input file. Inputs that fail
decode or structural verification are reported as broken; a fatal pipeline
error aborts the process, which is the crash signal the fuzzing engine
watches for.`,
	RunE: runExecution,
}

func runExecution(cmd *cobra.Command, args []string) error {
	setupColor(cmd)
	inputs, harnessArgs := splitAtDash(cmd, args)
	if len(inputs) == 0 {
		return fmt.Errorf("no input files")
	}

	h, err := harness.Initialize(harnessArgs)
	if err != nil {
		return err
	}

	broken := 0
	for _, path := range inputs {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if status := h.TestOneInput(data); status != harness.StatusOK {
			statusBad.Fprintf(cmd.OutOrStdout(), "broken")
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", path)
			broken++
			continue
		}
		statusOK.Fprintf(cmd.OutOrStdout(), "ok")
		fmt.Fprintf(cmd.OutOrStdout(), "      %s\n", path)
	}
	if broken > 0 {
		return fmt.Errorf("%d of %d inputs are broken", broken, len(inputs))
	}
	return nil
}
