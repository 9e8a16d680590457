package mutate

import (
	"math/rand"

	"iselfuzz/internal/ir"
)

// deleteStrategy removes one instruction whose result has no remaining
// uses. Stores are always deletable. Fails when no instruction qualifies.
type deleteStrategy struct{}

func (deleteStrategy) Name() string { return "delete" }

type deleteCandidate struct {
	fn    *ir.Func
	block ir.BlockID
	idx   int
}

func (deleteStrategy) Apply(r *rand.Rand, _ ir.Catalog, m *ir.Module) bool {
	var candidates []deleteCandidate
	for _, f := range m.Funcs {
		used := usedValues(f)
		for bi := range f.Blocks {
			for ii := range f.Blocks[bi].Instrs {
				in := &f.Blocks[bi].Instrs[ii]
				if !in.Defines() || !used[in.Result] {
					candidates = append(candidates, deleteCandidate{
						fn:    f,
						block: ir.BlockID(bi),
						idx:   ii,
					})
				}
			}
		}
	}
	if len(candidates) == 0 {
		return false
	}
	c := candidates[r.Intn(len(candidates))]
	blk := &c.fn.Blocks[c.block]
	blk.Instrs = append(blk.Instrs[:c.idx], blk.Instrs[c.idx+1:]...)
	return true
}

// usedValues collects every value referenced as an operand by instructions
// or terminators in f.
func usedValues(f *ir.Func) map[ir.ValueID]bool {
	used := make(map[ir.ValueID]bool)
	for bi := range f.Blocks {
		blk := &f.Blocks[bi]
		for ii := range blk.Instrs {
			for _, v := range blk.Instrs[ii].Operands(nil) {
				used[v] = true
			}
		}
		switch blk.Term.Kind {
		case ir.TermReturn:
			if blk.Term.Return.HasValue {
				used[blk.Term.Return.Value] = true
			}
		case ir.TermCondBr:
			used[blk.Term.CondBr.Cond] = true
		}
	}
	return used
}
