package ir_test

import (
	"strings"
	"testing"

	"iselfuzz/internal/ir"
)

// addFunc builds a function with two i32 params and a terminated entry
// block, the common fixture for these tests.
func addFunc(m *ir.Module) (*ir.Func, ir.ValueID, ir.ValueID) {
	f := m.NewFunc("f", ir.TypeI32, true)
	a := f.NewValue()
	b := f.NewValue()
	f.Params = append(f.Params,
		ir.Param{Name: "a", Type: ir.TypeI32, Value: a},
		ir.Param{Name: "b", Type: ir.TypeI32, Value: b},
	)
	entry := f.NewBlock()
	f.Entry = entry
	f.Blocks[entry].Term = ir.Terminator{
		Kind:   ir.TermReturn,
		Return: ir.ReturnTerm{HasValue: true, Value: a},
	}
	return f, a, b
}

func TestVerify_ValidModules(t *testing.T) {
	tests := []struct {
		name  string
		build func() *ir.Module
	}{
		{
			name:  "empty_module",
			build: ir.NewModule,
		},
		{
			name: "params_and_return",
			build: func() *ir.Module {
				m := ir.NewModule()
				addFunc(m)
				return m
			},
		},
		{
			name: "binary_chain",
			build: func() *ir.Module {
				m := ir.NewModule()
				f, a, b := addFunc(m)
				sum := f.NewValue()
				prod := f.NewValue()
				f.Blocks[f.Entry].Instrs = []ir.Instr{
					{Kind: ir.OpBinary, Result: sum, Type: ir.TypeI32,
						Binary: ir.BinaryInstr{Op: ir.BinAdd, LHS: a, RHS: b}},
					{Kind: ir.OpBinary, Result: prod, Type: ir.TypeI32,
						Binary: ir.BinaryInstr{Op: ir.BinMul, LHS: sum, RHS: a}},
				}
				f.Blocks[f.Entry].Term.Return.Value = prod
				return m
			},
		},
		{
			name: "diamond_control_flow",
			build: func() *ir.Module {
				m := ir.NewModule()
				f, a, b := addFunc(m)
				cond := f.NewValue()
				left := f.NewBlock()
				right := f.NewBlock()
				join := f.NewBlock()
				f.Blocks[f.Entry].Instrs = []ir.Instr{
					{Kind: ir.OpCompare, Result: cond, Type: ir.TypeI1,
						Compare: ir.CompareInstr{Pred: ir.CmpSLT, LHS: a, RHS: b}},
				}
				f.Blocks[f.Entry].Term = ir.Terminator{
					Kind:   ir.TermCondBr,
					CondBr: ir.CondBrTerm{Cond: cond, Then: left, Else: right},
				}
				f.Blocks[left].Term = ir.Terminator{Kind: ir.TermBr, Br: ir.BrTerm{Target: join}}
				f.Blocks[right].Term = ir.Terminator{Kind: ir.TermBr, Br: ir.BrTerm{Target: join}}
				// cond is defined in the entry, so it dominates the join.
				f.Blocks[join].Term = ir.Terminator{
					Kind:   ir.TermReturn,
					Return: ir.ReturnTerm{HasValue: true, Value: a},
				}
				return m
			},
		},
		{
			name: "slots_load_store",
			build: func() *ir.Module {
				m := ir.NewModule()
				f, a, _ := addFunc(m)
				f.Slots = []ir.Type{ir.TypeI32}
				loaded := f.NewValue()
				f.Blocks[f.Entry].Instrs = []ir.Instr{
					{Kind: ir.OpStore, Result: ir.NoValueID,
						Store: ir.StoreInstr{Slot: 0, Val: a}},
					{Kind: ir.OpLoad, Result: loaded, Type: ir.TypeI32,
						Load: ir.LoadInstr{Slot: 0}},
				}
				f.Blocks[f.Entry].Term.Return.Value = loaded
				return m
			},
		},
		{
			name: "casts",
			build: func() *ir.Module {
				m := ir.NewModule()
				f, a, _ := addFunc(m)
				wide := f.NewValue()
				fp := f.NewValue()
				back := f.NewValue()
				f.Blocks[f.Entry].Instrs = []ir.Instr{
					{Kind: ir.OpCast, Result: wide, Type: ir.TypeI64,
						Cast: ir.CastInstr{Op: ir.CastSExt, Val: a}},
					{Kind: ir.OpCast, Result: fp, Type: ir.TypeF64,
						Cast: ir.CastInstr{Op: ir.CastSIToFP, Val: wide}},
					{Kind: ir.OpCast, Result: back, Type: ir.TypeI32,
						Cast: ir.CastInstr{Op: ir.CastFPToSI, Val: fp}},
				}
				f.Blocks[f.Entry].Term.Return.Value = back
				return m
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ir.Verify(tt.build()); err != nil {
				t.Fatalf("Verify() = %v, want nil", err)
			}
		})
	}
}

func TestVerify_InvalidModules(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *ir.Module
		wantErr string
	}{
		{
			name: "no_blocks",
			build: func() *ir.Module {
				m := ir.NewModule()
				m.NewFunc("f", ir.TypeI32, true)
				return m
			},
			wantErr: "no blocks",
		},
		{
			name: "unterminated_block",
			build: func() *ir.Module {
				m := ir.NewModule()
				f, _, _ := addFunc(m)
				f.Blocks[f.Entry].Term = ir.Terminator{}
				return m
			},
			wantErr: "unterminated",
		},
		{
			name: "branch_target_out_of_range",
			build: func() *ir.Module {
				m := ir.NewModule()
				f, _, _ := addFunc(m)
				f.Blocks[f.Entry].Term = ir.Terminator{
					Kind: ir.TermBr, Br: ir.BrTerm{Target: 99},
				}
				return m
			},
			wantErr: "out of range",
		},
		{
			name: "use_of_undefined_value",
			build: func() *ir.Module {
				m := ir.NewModule()
				f, a, _ := addFunc(m)
				bad := f.NewValue() // allocated but never defined
				sum := f.NewValue()
				f.Blocks[f.Entry].Instrs = []ir.Instr{
					{Kind: ir.OpBinary, Result: sum, Type: ir.TypeI32,
						Binary: ir.BinaryInstr{Op: ir.BinAdd, LHS: a, RHS: bad}},
				}
				return m
			},
			wantErr: "undefined value",
		},
		{
			name: "use_before_def_same_block",
			build: func() *ir.Module {
				m := ir.NewModule()
				f, a, _ := addFunc(m)
				late := f.NewValue()
				early := f.NewValue()
				f.Blocks[f.Entry].Instrs = []ir.Instr{
					{Kind: ir.OpBinary, Result: early, Type: ir.TypeI32,
						Binary: ir.BinaryInstr{Op: ir.BinAdd, LHS: a, RHS: late}},
					{Kind: ir.OpBinary, Result: late, Type: ir.TypeI32,
						Binary: ir.BinaryInstr{Op: ir.BinAdd, LHS: a, RHS: a}},
				}
				return m
			},
			wantErr: "undefined value",
		},
		{
			name: "non_dominating_def",
			build: func() *ir.Module {
				m := ir.NewModule()
				f, a, b := addFunc(m)
				cond := f.NewValue()
				left := f.NewBlock()
				right := f.NewBlock()
				join := f.NewBlock()
				onlyLeft := f.NewValue()
				f.Blocks[f.Entry].Instrs = []ir.Instr{
					{Kind: ir.OpCompare, Result: cond, Type: ir.TypeI1,
						Compare: ir.CompareInstr{Pred: ir.CmpSLT, LHS: a, RHS: b}},
				}
				f.Blocks[f.Entry].Term = ir.Terminator{
					Kind:   ir.TermCondBr,
					CondBr: ir.CondBrTerm{Cond: cond, Then: left, Else: right},
				}
				f.Blocks[left].Instrs = []ir.Instr{
					{Kind: ir.OpBinary, Result: onlyLeft, Type: ir.TypeI32,
						Binary: ir.BinaryInstr{Op: ir.BinAdd, LHS: a, RHS: b}},
				}
				f.Blocks[left].Term = ir.Terminator{Kind: ir.TermBr, Br: ir.BrTerm{Target: join}}
				f.Blocks[right].Term = ir.Terminator{Kind: ir.TermBr, Br: ir.BrTerm{Target: join}}
				f.Blocks[join].Term = ir.Terminator{
					Kind:   ir.TermReturn,
					Return: ir.ReturnTerm{HasValue: true, Value: onlyLeft},
				}
				return m
			},
			wantErr: "undefined value",
		},
		{
			name: "duplicate_definition",
			build: func() *ir.Module {
				m := ir.NewModule()
				f, a, _ := addFunc(m)
				v := f.NewValue()
				f.Blocks[f.Entry].Instrs = []ir.Instr{
					{Kind: ir.OpBinary, Result: v, Type: ir.TypeI32,
						Binary: ir.BinaryInstr{Op: ir.BinAdd, LHS: a, RHS: a}},
					{Kind: ir.OpBinary, Result: v, Type: ir.TypeI32,
						Binary: ir.BinaryInstr{Op: ir.BinSub, LHS: a, RHS: a}},
				}
				return m
			},
			wantErr: "duplicate definition",
		},
		{
			name: "operand_type_mismatch",
			build: func() *ir.Module {
				m := ir.NewModule()
				f, a, _ := addFunc(m)
				c := f.NewValue()
				bad := f.NewValue()
				f.Blocks[f.Entry].Instrs = []ir.Instr{
					{Kind: ir.OpConst, Result: c, Type: ir.TypeF64,
						Const: ir.ConstInstr{Bits: 0}},
					{Kind: ir.OpBinary, Result: bad, Type: ir.TypeI32,
						Binary: ir.BinaryInstr{Op: ir.BinAdd, LHS: a, RHS: c}},
				}
				return m
			},
			wantErr: "differ",
		},
		{
			name: "float_op_on_ints",
			build: func() *ir.Module {
				m := ir.NewModule()
				f, a, b := addFunc(m)
				v := f.NewValue()
				f.Blocks[f.Entry].Instrs = []ir.Instr{
					{Kind: ir.OpBinary, Result: v, Type: ir.TypeI32,
						Binary: ir.BinaryInstr{Op: ir.BinFAdd, LHS: a, RHS: b}},
				}
				return m
			},
			wantErr: "class mismatch",
		},
		{
			name: "select_cond_not_i1",
			build: func() *ir.Module {
				m := ir.NewModule()
				f, a, b := addFunc(m)
				v := f.NewValue()
				f.Blocks[f.Entry].Instrs = []ir.Instr{
					{Kind: ir.OpSelect, Result: v, Type: ir.TypeI32,
						Select: ir.SelectInstr{Cond: a, Then: a, Else: b}},
				}
				return m
			},
			wantErr: "want i1",
		},
		{
			name: "widening_trunc",
			build: func() *ir.Module {
				m := ir.NewModule()
				f, a, _ := addFunc(m)
				v := f.NewValue()
				f.Blocks[f.Entry].Instrs = []ir.Instr{
					{Kind: ir.OpCast, Result: v, Type: ir.TypeI64,
						Cast: ir.CastInstr{Op: ir.CastTrunc, Val: a}},
				}
				return m
			},
			wantErr: "trunc",
		},
		{
			name: "store_slot_out_of_range",
			build: func() *ir.Module {
				m := ir.NewModule()
				f, a, _ := addFunc(m)
				f.Blocks[f.Entry].Instrs = []ir.Instr{
					{Kind: ir.OpStore, Result: ir.NoValueID,
						Store: ir.StoreInstr{Slot: 3, Val: a}},
				}
				return m
			},
			wantErr: "out of range",
		},
		{
			name: "return_type_mismatch",
			build: func() *ir.Module {
				m := ir.NewModule()
				f, a, _ := addFunc(m)
				v := f.NewValue()
				f.Blocks[f.Entry].Instrs = []ir.Instr{
					{Kind: ir.OpCompare, Result: v, Type: ir.TypeI1,
						Compare: ir.CompareInstr{Pred: ir.CmpEq, LHS: a, RHS: a}},
				}
				f.Blocks[f.Entry].Term.Return.Value = v
				return m
			},
			wantErr: "return type",
		},
		{
			name: "missing_return_value",
			build: func() *ir.Module {
				m := ir.NewModule()
				f, _, _ := addFunc(m)
				f.Blocks[f.Entry].Term = ir.Terminator{Kind: ir.TermReturn}
				return m
			},
			wantErr: "does not match function result",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ir.Verify(tt.build())
			if err == nil {
				t.Fatalf("Verify() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Verify() = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestAvailableAt(t *testing.T) {
	m := ir.NewModule()
	f, a, b := addFunc(m)
	sum := f.NewValue()
	f.Blocks[f.Entry].Instrs = []ir.Instr{
		{Kind: ir.OpBinary, Result: sum, Type: ir.TypeI32,
			Binary: ir.BinaryInstr{Op: ir.BinAdd, LHS: a, RHS: b}},
	}

	before := ir.AvailableAt(f, f.Entry, 0)
	if got := len(before); got != 2 {
		t.Fatalf("AvailableAt(0) has %d values, want 2 (params only)", got)
	}
	after := ir.AvailableAt(f, f.Entry, 1)
	found := false
	for _, v := range after {
		if v.ID == sum {
			found = true
			if v.Type != ir.TypeI32 {
				t.Fatalf("sum has type %s, want i32", v.Type)
			}
		}
	}
	if !found {
		t.Fatalf("AvailableAt(1) does not include the block's own def")
	}
}
