package fuzztests

import (
	"testing"

	"iselfuzz/internal/bitcode"
	"iselfuzz/internal/ir"
)

const maxFuzzInput = 64 << 10 // keep corpus entries bounded

func clampSeed(b []byte) []byte {
	if len(b) > maxFuzzInput {
		b = b[:maxFuzzInput]
	}
	return append([]byte(nil), b...)
}

// seedInputs are the starting corpus: encoded modules plus degenerate and
// junk inputs.
func seedInputs() [][]byte {
	return [][]byte{
		{},
		{0},
		[]byte("ISF\x01 not really msgpack"),
		clampSeed(bitcode.Encode(ir.NewModule())),
		clampSeed(bitcode.Encode(seedAdd())),
		clampSeed(bitcode.Encode(seedBranchy())),
	}
}

func addCorpusSeeds(f *testing.F) {
	for _, in := range seedInputs() {
		f.Add(in)
	}
}

// addMutateSeeds pairs every corpus entry with a few mutation seeds, for
// fuzz targets that also take a seed argument.
func addMutateSeeds(f *testing.F) {
	for _, in := range seedInputs() {
		for _, seed := range []uint32{0, 1, 42} {
			f.Add(in, seed)
		}
	}
}

func seedAdd() *ir.Module {
	m := ir.NewModule()
	fn := m.NewFunc("add2", ir.TypeI32, true)
	a := fn.NewValue()
	b := fn.NewValue()
	fn.Params = append(fn.Params,
		ir.Param{Name: "a", Type: ir.TypeI32, Value: a},
		ir.Param{Name: "b", Type: ir.TypeI32, Value: b},
	)
	entry := fn.NewBlock()
	fn.Entry = entry
	sum := fn.NewValue()
	fn.Blocks[entry].Instrs = []ir.Instr{
		{Kind: ir.OpBinary, Result: sum, Type: ir.TypeI32,
			Binary: ir.BinaryInstr{Op: ir.BinAdd, LHS: a, RHS: b}},
	}
	fn.Blocks[entry].Term = ir.Terminator{
		Kind:   ir.TermReturn,
		Return: ir.ReturnTerm{HasValue: true, Value: sum},
	}
	return m
}

func seedBranchy() *ir.Module {
	m := ir.NewModule()
	fn := m.NewFunc("pick", ir.TypeI64, true)
	a := fn.NewValue()
	b := fn.NewValue()
	fn.Params = append(fn.Params,
		ir.Param{Name: "a", Type: ir.TypeI64, Value: a},
		ir.Param{Name: "b", Type: ir.TypeI64, Value: b},
	)
	entry := fn.NewBlock()
	left := fn.NewBlock()
	right := fn.NewBlock()
	fn.Entry = entry
	cond := fn.NewValue()
	fn.Blocks[entry].Instrs = []ir.Instr{
		{Kind: ir.OpCompare, Result: cond, Type: ir.TypeI1,
			Compare: ir.CompareInstr{Pred: ir.CmpULT, LHS: a, RHS: b}},
	}
	fn.Blocks[entry].Term = ir.Terminator{
		Kind:   ir.TermCondBr,
		CondBr: ir.CondBrTerm{Cond: cond, Then: left, Else: right},
	}
	fn.Blocks[left].Term = ir.Terminator{
		Kind:   ir.TermReturn,
		Return: ir.ReturnTerm{HasValue: true, Value: a},
	}
	fn.Blocks[right].Term = ir.Terminator{
		Kind:   ir.TermReturn,
		Return: ir.ReturnTerm{HasValue: true, Value: b},
	}
	return m
}
