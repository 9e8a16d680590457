package ir

import (
	"errors"
	"fmt"
)

// Verify checks module invariants: every function has an in-range entry
// block, every block is terminated, branch targets and slot references are
// in range, every operand is defined on all paths before its use, and
// operand types are consistent with each instruction kind.
// Returns an error describing every violation found.
func Verify(m *Module) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, f := range m.Funcs {
		if f == nil {
			errs = append(errs, errors.New("nil function"))
			continue
		}
		if err := verifyFunc(f); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", f.Name, err))
		}
	}
	return errors.Join(errs...)
}

func verifyFunc(f *Func) error {
	var errs []error

	if err := verifyShape(f); err != nil {
		// Shape errors make the dataflow passes meaningless; bail early.
		return err
	}
	if err := verifyTerminated(f); err != nil {
		errs = append(errs, err)
	}
	if err := verifyTargets(f); err != nil {
		errs = append(errs, err)
	}
	if err := verifyDefs(f); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	// Use/type checks need well-formed defs, so they run last.
	return verifyUses(f)
}

// verifyShape checks the function skeleton: entry block present and ID
// ranges sane.
func verifyShape(f *Func) error {
	var errs []error
	if len(f.Blocks) == 0 {
		errs = append(errs, errors.New("no blocks"))
	}
	if int(f.Entry) < 0 || int(f.Entry) >= len(f.Blocks) {
		errs = append(errs, fmt.Errorf("entry block %d out of range", f.Entry))
	}
	if f.NextValue < 0 {
		errs = append(errs, fmt.Errorf("negative value counter %d", f.NextValue))
	}
	if f.HasResult && !f.Result.Valid() {
		errs = append(errs, errors.New("invalid result type"))
	}
	for i, p := range f.Params {
		if !p.Type.Valid() {
			errs = append(errs, fmt.Errorf("param %d: invalid type", i))
		}
		if p.Value < 0 || p.Value >= f.NextValue {
			errs = append(errs, fmt.Errorf("param %d: value %d out of range", i, p.Value))
		}
	}
	for i, t := range f.Slots {
		if !t.Valid() {
			errs = append(errs, fmt.Errorf("slot %d: invalid type", i))
		}
	}
	return errors.Join(errs...)
}

func verifyTerminated(f *Func) error {
	var errs []error
	for i := range f.Blocks {
		if !f.Blocks[i].Terminated() {
			errs = append(errs, fmt.Errorf("bb%d: unterminated block", i))
		}
		if f.Blocks[i].Term.Kind >= termKindMax {
			errs = append(errs, fmt.Errorf("bb%d: unknown terminator kind %d", i, f.Blocks[i].Term.Kind))
		}
	}
	return errors.Join(errs...)
}

func verifyTargets(f *Func) error {
	var errs []error
	for i := range f.Blocks {
		for _, succ := range f.Blocks[i].Term.Successors(nil) {
			if int(succ) < 0 || int(succ) >= len(f.Blocks) {
				errs = append(errs, fmt.Errorf("bb%d: branch target bb%d out of range", i, succ))
			}
		}
	}
	return errors.Join(errs...)
}

// verifyDefs checks that every defined value has an in-range, unique ID and
// that slot references are in range.
func verifyDefs(f *Func) error {
	var errs []error
	seen := make(map[ValueID]bool, len(f.Params))
	for i, p := range f.Params {
		if seen[p.Value] {
			errs = append(errs, fmt.Errorf("param %d: duplicate definition of v%d", i, p.Value))
		}
		seen[p.Value] = true
	}
	for bi := range f.Blocks {
		for ii := range f.Blocks[bi].Instrs {
			in := &f.Blocks[bi].Instrs[ii]
			if in.Kind >= opKindMax {
				errs = append(errs, fmt.Errorf("bb%d[%d]: unknown instruction kind %d", bi, ii, in.Kind))
				continue
			}
			if err := verifyInstrShape(f, in); err != nil {
				errs = append(errs, fmt.Errorf("bb%d[%d]: %w", bi, ii, err))
			}
			if !in.Defines() {
				continue
			}
			if in.Result < 0 || in.Result >= f.NextValue {
				errs = append(errs, fmt.Errorf("bb%d[%d]: result v%d out of range", bi, ii, in.Result))
				continue
			}
			if seen[in.Result] {
				errs = append(errs, fmt.Errorf("bb%d[%d]: duplicate definition of v%d", bi, ii, in.Result))
			}
			seen[in.Result] = true
		}
	}
	return errors.Join(errs...)
}

// verifyInstrShape checks per-kind payload ranges that do not depend on
// operand types: sub-operator enums, slot indices, result type validity.
func verifyInstrShape(f *Func, in *Instr) error {
	switch in.Kind {
	case OpConst, OpBinary, OpSelect, OpCast, OpLoad:
		if !in.Type.Valid() {
			return fmt.Errorf("invalid result type %d", in.Type)
		}
	}
	switch in.Kind {
	case OpBinary:
		if in.Binary.Op >= binOpMax {
			return fmt.Errorf("unknown binary op %d", in.Binary.Op)
		}
	case OpCompare:
		if in.Compare.Pred >= cmpPredMax {
			return fmt.Errorf("unknown compare predicate %d", in.Compare.Pred)
		}
	case OpCast:
		if in.Cast.Op >= castOpMax {
			return fmt.Errorf("unknown cast op %d", in.Cast.Op)
		}
	case OpLoad:
		if int(in.Load.Slot) < 0 || int(in.Load.Slot) >= len(f.Slots) {
			return fmt.Errorf("load slot %d out of range", in.Load.Slot)
		}
	case OpStore:
		if int(in.Store.Slot) < 0 || int(in.Store.Slot) >= len(f.Slots) {
			return fmt.Errorf("store slot %d out of range", in.Store.Slot)
		}
	}
	return nil
}

// verifyUses checks def-before-use along all paths plus operand typing.
func verifyUses(f *Func) error {
	var errs []error
	avail := Availability(f)
	vt := ValueTypes(f)

	typeOf := func(v ValueID) Type {
		return vt[v]
	}

	for bi := range f.Blocks {
		blk := &f.Blocks[bi]
		live := make([]bool, int(f.NextValue))
		copy(live, avail[bi])

		checkUse := func(ii int, v ValueID) bool {
			if v < 0 || v >= f.NextValue || !live[v] {
				errs = append(errs, fmt.Errorf("bb%d[%d]: use of undefined value v%d", bi, ii, v))
				return false
			}
			return true
		}

		for ii := range blk.Instrs {
			in := &blk.Instrs[ii]
			ok := true
			for _, v := range in.Operands(nil) {
				if !checkUse(ii, v) {
					ok = false
				}
			}
			if ok {
				if err := verifyInstrTypes(f, in, typeOf); err != nil {
					errs = append(errs, fmt.Errorf("bb%d[%d]: %w", bi, ii, err))
				}
			}
			if in.Defines() && int(in.Result) >= 0 && int(in.Result) < len(live) {
				live[in.Result] = true
			}
		}

		if err := verifyTermUses(f, blk, live, typeOf); err != nil {
			errs = append(errs, fmt.Errorf("bb%d: %w", bi, err))
		}
	}
	return errors.Join(errs...)
}

func verifyInstrTypes(f *Func, in *Instr, typeOf func(ValueID) Type) error {
	switch in.Kind {
	case OpBinary:
		lt, rt := typeOf(in.Binary.LHS), typeOf(in.Binary.RHS)
		if lt != rt {
			return fmt.Errorf("%s: operand types %s and %s differ", in.Binary.Op, lt, rt)
		}
		if lt != in.Type {
			return fmt.Errorf("%s: operand type %s does not match result %s", in.Binary.Op, lt, in.Type)
		}
		if in.Binary.Op.IsFloatOp() != lt.IsFloat() {
			return fmt.Errorf("%s: operator/operand class mismatch for %s", in.Binary.Op, lt)
		}
	case OpCompare:
		lt, rt := typeOf(in.Compare.LHS), typeOf(in.Compare.RHS)
		if lt != rt {
			return fmt.Errorf("%s: operand types %s and %s differ", in.Compare.Pred, lt, rt)
		}
		if in.Compare.Pred.IsFloatPred() != lt.IsFloat() {
			return fmt.Errorf("%s: predicate/operand class mismatch for %s", in.Compare.Pred, lt)
		}
	case OpSelect:
		if typeOf(in.Select.Cond) != TypeI1 {
			return fmt.Errorf("select: condition is %s, want i1", typeOf(in.Select.Cond))
		}
		tt, et := typeOf(in.Select.Then), typeOf(in.Select.Else)
		if tt != et {
			return fmt.Errorf("select: arm types %s and %s differ", tt, et)
		}
		if tt != in.Type {
			return fmt.Errorf("select: arm type %s does not match result %s", tt, in.Type)
		}
	case OpCast:
		return verifyCastTypes(in, typeOf(in.Cast.Val))
	case OpLoad:
		if f.Slots[in.Load.Slot] != in.Type {
			return fmt.Errorf("load: slot type %s does not match result %s", f.Slots[in.Load.Slot], in.Type)
		}
	case OpStore:
		if f.Slots[in.Store.Slot] != typeOf(in.Store.Val) {
			return fmt.Errorf("store: slot type %s does not match value %s", f.Slots[in.Store.Slot], typeOf(in.Store.Val))
		}
	}
	return nil
}

func verifyCastTypes(in *Instr, from Type) error {
	to := in.Type
	switch in.Cast.Op {
	case CastTrunc:
		if !from.IsInt() || !to.IsInt() || to.BitWidth() >= from.BitWidth() {
			return fmt.Errorf("trunc: %s to %s", from, to)
		}
	case CastZExt, CastSExt:
		if !from.IsInt() || !to.IsInt() || to.BitWidth() <= from.BitWidth() {
			return fmt.Errorf("%s: %s to %s", in.Cast.Op, from, to)
		}
	case CastFPTrunc:
		if from != TypeF64 || to != TypeF32 {
			return fmt.Errorf("fptrunc: %s to %s", from, to)
		}
	case CastFPExt:
		if from != TypeF32 || to != TypeF64 {
			return fmt.Errorf("fpext: %s to %s", from, to)
		}
	case CastFPToSI:
		if !from.IsFloat() || !to.IsInt() {
			return fmt.Errorf("fptosi: %s to %s", from, to)
		}
	case CastSIToFP:
		if !from.IsInt() || !to.IsFloat() {
			return fmt.Errorf("sitofp: %s to %s", from, to)
		}
	}
	return nil
}

func verifyTermUses(f *Func, blk *Block, live []bool, typeOf func(ValueID) Type) error {
	use := func(v ValueID) error {
		if v < 0 || v >= f.NextValue || !live[v] {
			return fmt.Errorf("terminator uses undefined value v%d", v)
		}
		return nil
	}
	switch blk.Term.Kind {
	case TermReturn:
		if blk.Term.Return.HasValue != f.HasResult {
			return errors.New("return value presence does not match function result")
		}
		if blk.Term.Return.HasValue {
			if err := use(blk.Term.Return.Value); err != nil {
				return err
			}
			if got := typeOf(blk.Term.Return.Value); got != f.Result {
				return fmt.Errorf("return type %s, want %s", got, f.Result)
			}
		}
	case TermCondBr:
		if err := use(blk.Term.CondBr.Cond); err != nil {
			return err
		}
		if got := typeOf(blk.Term.CondBr.Cond); got != TypeI1 {
			return fmt.Errorf("condbr condition is %s, want i1", got)
		}
	}
	return nil
}
