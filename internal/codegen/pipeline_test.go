package codegen_test

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"iselfuzz/internal/codegen"
	"iselfuzz/internal/ir"
	"iselfuzz/internal/target"
)

// lastFatal records what the handler saw; the handler itself stays
// installed for the whole test binary since installation is once-only.
var lastFatal string

func TestMain(m *testing.M) {
	codegen.InstallFatalHandler(func(msg string) {
		lastFatal = msg
		panic(&codegen.FatalError{Msg: msg})
	})
	os.Exit(m.Run())
}

func mustConfig(t *testing.T, triple string) *target.Config {
	t.Helper()
	cfg, err := target.Resolve(target.Options{Triple: triple})
	if err != nil {
		t.Fatalf("Resolve(%q) = %v", triple, err)
	}
	return cfg
}

func testModule(triple, layout string) *ir.Module {
	m := ir.NewModule()
	m.Triple = triple
	m.DataLayout = layout
	f := m.NewFunc("kernel", ir.TypeI64, true)
	a := f.NewValue()
	b := f.NewValue()
	f.Params = append(f.Params,
		ir.Param{Name: "a", Type: ir.TypeI64, Value: a},
		ir.Param{Name: "b", Type: ir.TypeI64, Value: b},
	)
	f.Slots = []ir.Type{ir.TypeI64, ir.TypeI8}

	entry := f.NewBlock()
	exit := f.NewBlock()
	f.Entry = entry

	q := f.NewValue()
	cond := f.NewValue()
	f.Blocks[entry].Instrs = []ir.Instr{
		{Kind: ir.OpBinary, Result: q, Type: ir.TypeI64,
			Binary: ir.BinaryInstr{Op: ir.BinSDiv, LHS: a, RHS: b}},
		{Kind: ir.OpStore, Result: ir.NoValueID,
			Store: ir.StoreInstr{Slot: 0, Val: q}},
		{Kind: ir.OpCompare, Result: cond, Type: ir.TypeI1,
			Compare: ir.CompareInstr{Pred: ir.CmpSLE, LHS: q, RHS: a}},
	}
	f.Blocks[entry].Term = ir.Terminator{
		Kind:   ir.TermCondBr,
		CondBr: ir.CondBrTerm{Cond: cond, Then: exit, Else: exit},
	}
	f.Blocks[exit].Term = ir.Terminator{
		Kind:   ir.TermReturn,
		Return: ir.ReturnTerm{HasValue: true, Value: q},
	}
	return m
}

func TestPipeline_RunsEveryArch(t *testing.T) {
	for _, triple := range []string{
		"x86_64-unknown-linux",
		"aarch64-unknown-linux",
		"riscv64-unknown-linux",
		"wasm32-unknown-unknown",
		"i686-unknown-linux",
		"arm-unknown-linux",
	} {
		t.Run(triple, func(t *testing.T) {
			cfg := mustConfig(t, triple)
			m := testModule(cfg.Triple.String(), cfg.DataLayout)
			if err := ir.Verify(m); err != nil {
				t.Fatalf("fixture is invalid: %v", err)
			}
			if err := codegen.New(cfg, nil).Run(m); err != nil {
				t.Fatalf("Run() = %v", err)
			}
		})
	}
}

func TestPipeline_EmitsSelectedInstructions(t *testing.T) {
	cfg := mustConfig(t, "aarch64-unknown-linux")
	m := testModule(cfg.Triple.String(), cfg.DataLayout)

	var buf bytes.Buffer
	if err := codegen.New(cfg, &buf).Run(m); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	out := buf.String()
	// 64-bit integer division on the arm family goes through the runtime.
	if !strings.Contains(out, "call __divti3") {
		t.Errorf("output lacks the division libcall:\n%s", out)
	}
	if !strings.Contains(out, "frame.alloc") {
		t.Errorf("output lacks frame allocation for the slots:\n%s", out)
	}
	if !strings.Contains(out, "ret") {
		t.Errorf("output lacks a return:\n%s", out)
	}
}

func TestPipeline_TripleMismatch(t *testing.T) {
	cfg := mustConfig(t, "x86_64-unknown-linux")
	m := testModule("aarch64-unknown-linux", "")
	if err := codegen.New(cfg, nil).Run(m); err == nil {
		t.Fatalf("Run() accepted a module stamped for another target")
	}
}

func TestPipeline_FatalEscalates(t *testing.T) {
	// An unregistered arch cannot come out of target.Resolve, so reaching
	// the selector with one is exactly the kind of internal break the
	// fatal boundary exists for.
	cfg := mustConfig(t, "x86_64-unknown-linux")
	bogus := *cfg
	bogus.Triple.Arch = "vax"

	m := testModule(bogus.Triple.String(), "")
	lastFatal = ""
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("Run() returned normally, want fatal escalation")
		}
		if _, ok := r.(*codegen.FatalError); !ok {
			t.Fatalf("panic value %T, want *codegen.FatalError", r)
		}
		if !strings.Contains(lastFatal, "vax") {
			t.Fatalf("handler saw %q, want the offending arch", lastFatal)
		}
	}()
	_ = codegen.New(&bogus, nil).Run(m)
}

func TestDefaultFatalHandler_Panics(t *testing.T) {
	defer func() {
		r := recover()
		fe, ok := r.(*codegen.FatalError)
		if !ok {
			t.Fatalf("panic value %T, want *codegen.FatalError", r)
		}
		if fe.Msg != "boom" {
			t.Fatalf("Msg = %q, want %q", fe.Msg, "boom")
		}
	}()
	codegen.DefaultFatalHandler("boom")
}

func TestLibInfo_Freestanding(t *testing.T) {
	hosted := codegen.ResolveLibInfo(mustConfig(t, "x86_64-unknown-linux"))
	if !hosted.Has("sqrt") || !hosted.Has("memcpy") {
		t.Errorf("hosted target is missing expected routines")
	}
	bare := codegen.ResolveLibInfo(mustConfig(t, "arm-unknown-none"))
	if bare.Has("sqrt") {
		t.Errorf("freestanding target should not offer libm routines")
	}
	if !bare.Has("memcpy") {
		t.Errorf("freestanding target should still offer memcpy")
	}
}
