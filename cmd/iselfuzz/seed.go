package main

import (
	"os"

	"github.com/spf13/cobra"

	"iselfuzz/internal/bitcode"
	"iselfuzz/internal/ir"
)

var seedOutput string

func init() {
	seedCmd.Flags().StringVarP(&seedOutput, "output", "o", "", "output file (default: stdout)")
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Emit a minimal valid encoded module for corpus bootstrap",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := bitcode.Encode(seedModule())
		if seedOutput == "" {
			_, err := cmd.OutOrStdout().Write(out)
			return err
		}
		return os.WriteFile(seedOutput, out, 0o644)
	},
}

// seedModule builds a tiny function exercising a handful of instruction
// kinds, enough for the mutator to grow from.
func seedModule() *ir.Module {
	m := ir.NewModule()
	f := m.NewFunc("seed", ir.TypeI32, true)

	a := f.NewValue()
	b := f.NewValue()
	f.Params = append(f.Params,
		ir.Param{Name: "a", Type: ir.TypeI32, Value: a},
		ir.Param{Name: "b", Type: ir.TypeI32, Value: b},
	)

	entry := f.NewBlock()
	f.Entry = entry

	sum := f.NewValue()
	cond := f.NewValue()
	pick := f.NewValue()
	f.Blocks[entry].Instrs = []ir.Instr{
		{
			Kind: ir.OpBinary, Result: sum, Type: ir.TypeI32,
			Binary: ir.BinaryInstr{Op: ir.BinAdd, LHS: a, RHS: b},
		},
		{
			Kind: ir.OpCompare, Result: cond, Type: ir.TypeI1,
			Compare: ir.CompareInstr{Pred: ir.CmpSLT, LHS: a, RHS: b},
		},
		{
			Kind: ir.OpSelect, Result: pick, Type: ir.TypeI32,
			Select: ir.SelectInstr{Cond: cond, Then: sum, Else: a},
		},
	}
	f.Blocks[entry].Term = ir.Terminator{
		Kind:   ir.TermReturn,
		Return: ir.ReturnTerm{HasValue: true, Value: pick},
	}
	return m
}
