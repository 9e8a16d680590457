package mutate

import (
	"math/rand"

	"iselfuzz/internal/ir"
)

// injectStrategy inserts one new legal instruction at a random point,
// drawing operand values from what is available there and result types from
// the catalog.
type injectStrategy struct{}

func (injectStrategy) Name() string { return "inject" }

func (injectStrategy) Apply(r *rand.Rand, catalog ir.Catalog, m *ir.Module) bool {
	if len(m.Funcs) == 0 || len(catalog) == 0 {
		return false
	}
	f := m.Funcs[r.Intn(len(m.Funcs))]
	if len(f.Blocks) == 0 {
		return false
	}
	b := ir.BlockID(r.Intn(len(f.Blocks)))
	idx := r.Intn(len(f.Blocks[b].Instrs) + 1)

	avail := ir.AvailableAt(f, b, idx)
	in, ok := buildInstr(r, catalog, f, avail)
	if !ok {
		return false
	}

	blk := &f.Blocks[b]
	blk.Instrs = append(blk.Instrs, ir.Instr{})
	copy(blk.Instrs[idx+1:], blk.Instrs[idx:])
	blk.Instrs[idx] = in
	return true
}

// buildInstr picks a random instruction legal at a point with the given
// available values. Constant injection is always possible, so the strategy
// as a whole cannot fail on a well-formed module.
func buildInstr(r *rand.Rand, catalog ir.Catalog, f *ir.Func, avail []ir.ValueRef) (ir.Instr, bool) {
	kind := pickKind(r, avail, len(f.Slots) > 0)
	switch kind {
	case ir.OpConst:
		t := catalog[r.Intn(len(catalog))]
		return ir.Instr{
			Kind:   ir.OpConst,
			Result: f.NewValue(),
			Type:   t,
			Const:  ir.ConstInstr{Bits: truncBits(r.Uint64(), t)},
		}, true

	case ir.OpBinary:
		lhs, rhs, t, ok := pickPair(r, avail)
		if !ok {
			return ir.Instr{}, false
		}
		return ir.Instr{
			Kind:   ir.OpBinary,
			Result: f.NewValue(),
			Type:   t,
			Binary: ir.BinaryInstr{Op: pickBinOp(r, t), LHS: lhs, RHS: rhs},
		}, true

	case ir.OpCompare:
		lhs, rhs, t, ok := pickPair(r, avail)
		if !ok {
			return ir.Instr{}, false
		}
		return ir.Instr{
			Kind:    ir.OpCompare,
			Result:  f.NewValue(),
			Type:    ir.TypeI1,
			Compare: ir.CompareInstr{Pred: pickPred(r, t), LHS: lhs, RHS: rhs},
		}, true

	case ir.OpSelect:
		cond, ok := pickOfType(r, avail, ir.TypeI1)
		if !ok {
			return ir.Instr{}, false
		}
		then, els, t, ok := pickPair(r, avail)
		if !ok {
			return ir.Instr{}, false
		}
		return ir.Instr{
			Kind:   ir.OpSelect,
			Result: f.NewValue(),
			Type:   t,
			Select: ir.SelectInstr{Cond: cond, Then: then, Else: els},
		}, true

	case ir.OpCast:
		if len(avail) == 0 {
			return ir.Instr{}, false
		}
		v := avail[r.Intn(len(avail))]
		op, to, ok := pickCast(r, v.Type)
		if !ok {
			return ir.Instr{}, false
		}
		return ir.Instr{
			Kind:   ir.OpCast,
			Result: f.NewValue(),
			Type:   to,
			Cast:   ir.CastInstr{Op: op, Val: v.ID},
		}, true

	case ir.OpLoad:
		if len(f.Slots) == 0 {
			return ir.Instr{}, false
		}
		slot := ir.SlotID(r.Intn(len(f.Slots)))
		return ir.Instr{
			Kind:   ir.OpLoad,
			Result: f.NewValue(),
			Type:   f.Slots[slot],
			Load:   ir.LoadInstr{Slot: slot},
		}, true

	case ir.OpStore:
		if len(avail) == 0 {
			return ir.Instr{}, false
		}
		v := avail[r.Intn(len(avail))]
		// Store into an existing slot of a matching type, or declare one.
		slot := ir.NoSlotID
		for si, t := range f.Slots {
			if t == v.Type {
				slot = ir.SlotID(si)
				break
			}
		}
		if slot == ir.NoSlotID {
			slot = ir.SlotID(len(f.Slots))
			f.Slots = append(f.Slots, v.Type)
		}
		return ir.Instr{
			Kind:   ir.OpStore,
			Result: ir.NoValueID,
			Store:  ir.StoreInstr{Slot: slot, Val: v.ID},
		}, true
	}
	return ir.Instr{}, false
}

func pickKind(r *rand.Rand, avail []ir.ValueRef, haveSlots bool) ir.OpKind {
	kinds := []ir.OpKind{ir.OpConst, ir.OpConst}
	if len(avail) > 0 {
		kinds = append(kinds, ir.OpBinary, ir.OpCompare, ir.OpSelect, ir.OpCast, ir.OpStore)
	}
	if haveSlots {
		kinds = append(kinds, ir.OpLoad)
	}
	return kinds[r.Intn(len(kinds))]
}

// pickPair picks two available values of the same type. The second operand
// may alias the first.
func pickPair(r *rand.Rand, avail []ir.ValueRef) (lhs, rhs ir.ValueID, t ir.Type, ok bool) {
	if len(avail) == 0 {
		return 0, 0, ir.TypeInvalid, false
	}
	a := avail[r.Intn(len(avail))]
	var sameType []ir.ValueRef
	for _, v := range avail {
		if v.Type == a.Type {
			sameType = append(sameType, v)
		}
	}
	b := sameType[r.Intn(len(sameType))]
	return a.ID, b.ID, a.Type, true
}

func pickOfType(r *rand.Rand, avail []ir.ValueRef, t ir.Type) (ir.ValueID, bool) {
	var of []ir.ValueRef
	for _, v := range avail {
		if v.Type == t {
			of = append(of, v)
		}
	}
	if len(of) == 0 {
		return ir.NoValueID, false
	}
	return of[r.Intn(len(of))].ID, true
}

func pickBinOp(r *rand.Rand, t ir.Type) ir.BinOp {
	if t.IsFloat() {
		ops := []ir.BinOp{ir.BinFAdd, ir.BinFSub, ir.BinFMul, ir.BinFDiv}
		return ops[r.Intn(len(ops))]
	}
	ops := []ir.BinOp{
		ir.BinAdd, ir.BinSub, ir.BinMul, ir.BinUDiv, ir.BinSDiv,
		ir.BinURem, ir.BinSRem, ir.BinAnd, ir.BinOr, ir.BinXor,
		ir.BinShl, ir.BinLShr, ir.BinAShr,
	}
	return ops[r.Intn(len(ops))]
}

func pickPred(r *rand.Rand, t ir.Type) ir.CmpPred {
	if t.IsFloat() {
		preds := []ir.CmpPred{ir.CmpFOEQ, ir.CmpFONE, ir.CmpFOLT, ir.CmpFOLE}
		return preds[r.Intn(len(preds))]
	}
	preds := []ir.CmpPred{ir.CmpEq, ir.CmpNe, ir.CmpULT, ir.CmpULE, ir.CmpSLT, ir.CmpSLE}
	return preds[r.Intn(len(preds))]
}

// pickCast picks a legal cast away from the given type.
func pickCast(r *rand.Rand, from ir.Type) (ir.CastOp, ir.Type, bool) {
	type choice struct {
		op ir.CastOp
		to ir.Type
	}
	var choices []choice
	switch {
	case from.IsInt():
		for _, to := range []ir.Type{ir.TypeI1, ir.TypeI8, ir.TypeI16, ir.TypeI32, ir.TypeI64} {
			switch {
			case to.BitWidth() < from.BitWidth():
				choices = append(choices, choice{ir.CastTrunc, to})
			case to.BitWidth() > from.BitWidth():
				choices = append(choices, choice{ir.CastZExt, to}, choice{ir.CastSExt, to})
			}
		}
		choices = append(choices,
			choice{ir.CastSIToFP, ir.TypeF32},
			choice{ir.CastSIToFP, ir.TypeF64})
	case from == ir.TypeF32:
		choices = append(choices,
			choice{ir.CastFPExt, ir.TypeF64},
			choice{ir.CastFPToSI, ir.TypeI32},
			choice{ir.CastFPToSI, ir.TypeI64})
	case from == ir.TypeF64:
		choices = append(choices,
			choice{ir.CastFPTrunc, ir.TypeF32},
			choice{ir.CastFPToSI, ir.TypeI32},
			choice{ir.CastFPToSI, ir.TypeI64})
	}
	if len(choices) == 0 {
		return 0, ir.TypeInvalid, false
	}
	c := choices[r.Intn(len(choices))]
	return c.op, c.to, true
}

// truncBits masks bits down to the type's width so constants round-trip
// through narrower encodings.
func truncBits(bits uint64, t ir.Type) uint64 {
	w := t.BitWidth()
	if w >= 64 || w == 0 {
		return bits
	}
	return bits & ((1 << uint(w)) - 1)
}
