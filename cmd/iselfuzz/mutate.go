package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"iselfuzz/internal/harness"
)

var (
	mutateSeed    uint32
	mutateMaxSize int
	mutateOutput  string
)

func init() {
	mutateCmd.Flags().Uint32Var(&mutateSeed, "seed", 0, "mutation seed")
	mutateCmd.Flags().IntVar(&mutateMaxSize, "max-size", 1<<16, "size budget for the mutated encoding")
	mutateCmd.Flags().StringVarP(&mutateOutput, "output", "o", "", "output file (default: stdout)")
}

var mutateCmd = &cobra.Command{
	Use:   "mutate <input> -- [harness options]",
	Short: "Apply one seeded mutation step to an encoded module",
	RunE:  mutateExecution,
}

func mutateExecution(cmd *cobra.Command, args []string) error {
	inputs, harnessArgs := splitAtDash(cmd, args)
	if len(inputs) != 1 {
		return fmt.Errorf("expected exactly one input file")
	}

	h, err := harness.Initialize(harnessArgs)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(inputs[0])
	if err != nil {
		return err
	}

	// The protocol writes in place, so give it a budget-sized buffer.
	buf := make([]byte, len(data), max(len(data), mutateMaxSize))
	copy(buf, data)

	n := h.Mutate(buf, mutateMaxSize, mutateSeed)
	if n == 0 {
		return fmt.Errorf("mutation did not fit the %d byte budget", mutateMaxSize)
	}
	out := buf[:cap(buf)][:n]

	if mutateOutput == "" {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	return os.WriteFile(mutateOutput, out, 0o644)
}
