package codegen

import (
	"fmt"
	"io"

	"iselfuzz/internal/ir"
	"iselfuzz/internal/target"
)

// archFamily groups registered architectures by selection pattern table.
type archFamily uint8

const (
	famX86 archFamily = iota
	famARM
	famRISCV
	famWasm
)

func familyOf(arch string) archFamily {
	switch arch {
	case "x86_64", "i686":
		return famX86
	case "aarch64", "arm":
		return famARM
	case "riscv64":
		return famRISCV
	case "wasm32":
		return famWasm
	default:
		// Resolve() only admits registered arches; anything else here is
		// an internal invariant break.
		fatalf("instruction selector: unregistered architecture %q", arch)
		return 0
	}
}

// famInfo carries the per-family selection tables.
type famInfo struct {
	regPrefix string
	regCount  int
	binOps    map[ir.BinOp]string
	selectMn  string
	// divRoutine names the library routine used for integer division when
	// the family has no hardware divider; empty means hardware divide.
	divRoutine string
}

var famTable = map[archFamily]famInfo{
	famX86: {
		regPrefix: "r", regCount: 14, selectMn: "cmov",
		binOps: map[ir.BinOp]string{
			ir.BinAdd: "add", ir.BinSub: "sub", ir.BinMul: "imul",
			ir.BinUDiv: "div", ir.BinSDiv: "idiv", ir.BinURem: "div",
			ir.BinSRem: "idiv", ir.BinAnd: "and", ir.BinOr: "or",
			ir.BinXor: "xor", ir.BinShl: "shl", ir.BinLShr: "shr",
			ir.BinAShr: "sar", ir.BinFAdd: "addss", ir.BinFSub: "subss",
			ir.BinFMul: "mulss", ir.BinFDiv: "divss",
		},
	},
	famARM: {
		regPrefix: "x", regCount: 16, selectMn: "csel",
		divRoutine: "__divti3",
		binOps: map[ir.BinOp]string{
			ir.BinAdd: "add", ir.BinSub: "sub", ir.BinMul: "mul",
			ir.BinUDiv: "udiv", ir.BinSDiv: "sdiv", ir.BinURem: "umod",
			ir.BinSRem: "smod", ir.BinAnd: "and", ir.BinOr: "orr",
			ir.BinXor: "eor", ir.BinShl: "lsl", ir.BinLShr: "lsr",
			ir.BinAShr: "asr", ir.BinFAdd: "fadd", ir.BinFSub: "fsub",
			ir.BinFMul: "fmul", ir.BinFDiv: "fdiv",
		},
	},
	famRISCV: {
		regPrefix: "t", regCount: 15, selectMn: "czero",
		binOps: map[ir.BinOp]string{
			ir.BinAdd: "add", ir.BinSub: "sub", ir.BinMul: "mul",
			ir.BinUDiv: "divu", ir.BinSDiv: "div", ir.BinURem: "remu",
			ir.BinSRem: "rem", ir.BinAnd: "and", ir.BinOr: "or",
			ir.BinXor: "xor", ir.BinShl: "sll", ir.BinLShr: "srl",
			ir.BinAShr: "sra", ir.BinFAdd: "fadd", ir.BinFSub: "fsub",
			ir.BinFMul: "fmul", ir.BinFDiv: "fdiv",
		},
	},
	famWasm: {
		regPrefix: "l", regCount: 64, selectMn: "select",
		binOps: map[ir.BinOp]string{
			ir.BinAdd: "i.add", ir.BinSub: "i.sub", ir.BinMul: "i.mul",
			ir.BinUDiv: "i.div_u", ir.BinSDiv: "i.div_s", ir.BinURem: "i.rem_u",
			ir.BinSRem: "i.rem_s", ir.BinAnd: "i.and", ir.BinOr: "i.or",
			ir.BinXor: "i.xor", ir.BinShl: "i.shl", ir.BinLShr: "i.shr_u",
			ir.BinAShr: "i.shr_s", ir.BinFAdd: "f.add", ir.BinFSub: "f.sub",
			ir.BinFMul: "f.mul", ir.BinFDiv: "f.div",
		},
	},
}

// selector lowers one function to machine-ish instructions written to out.
// The register file is assigned modulo the family's register count; the
// point is to exercise selection paths, not to produce runnable code.
type selector struct {
	cfg  *target.Config
	lib  *LibInfo
	fam  famInfo
	out  io.Writer
	used map[ir.ValueID]bool
}

func newSelector(cfg *target.Config, lib *LibInfo, out io.Writer) *selector {
	return &selector{
		cfg: cfg,
		lib: lib,
		fam: famTable[familyOf(cfg.Triple.Arch)],
		out: out,
	}
}

func (s *selector) reg(v ir.ValueID) string {
	return fmt.Sprintf("%s%d", s.fam.regPrefix, int(v)%s.fam.regCount)
}

func (s *selector) emitf(format string, args ...any) {
	fmt.Fprintf(s.out, format+"\n", args...)
}

// lowerFunc drives selection for one function.
func (s *selector) lowerFunc(f *ir.Func) {
	s.used = liveResults(f)
	frame := s.frameLayout(f)

	s.emitf("%s:", f.Name)
	if frame.size > 0 {
		s.emitf("  frame.alloc %d", frame.size)
	}
	for bi := range f.Blocks {
		s.emitf(".%s_bb%d:", f.Name, bi)
		for ii := range f.Blocks[bi].Instrs {
			s.lowerInstr(f, &f.Blocks[bi].Instrs[ii], frame)
		}
		s.lowerTerm(f, &f.Blocks[bi].Term)
	}
}

// frame describes the function's stack slot layout.
type frame struct {
	offsets []int
	size    int
}

func (s *selector) frameLayout(f *ir.Func) frame {
	fr := frame{offsets: make([]int, len(f.Slots))}
	off := 0
	for i, t := range f.Slots {
		size := (t.BitWidth() + 7) / 8
		if size == 0 {
			fatalf("frame layout: slot %d has invalid type", i)
		}
		// Natural alignment, capped at the pointer width.
		align := size
		if max := s.cfg.PtrWidth / 8; align > max {
			align = max
		}
		off = (off + align - 1) / align * align
		fr.offsets[i] = off
		off += size
	}
	fr.size = off
	return fr
}

func (s *selector) lowerInstr(f *ir.Func, in *ir.Instr, fr frame) {
	// Above -O0, results nobody reads select to nothing. Stores always
	// survive.
	if s.cfg.OptLevel > target.OptNone && in.Defines() && !s.used[in.Result] {
		return
	}
	switch in.Kind {
	case ir.OpConst:
		s.emitf("  mov %s, #%d", s.reg(in.Result), in.Const.Bits)
	case ir.OpBinary:
		s.lowerBinary(in)
	case ir.OpCompare:
		s.emitf("  cmp.%s %s, %s, %s", in.Compare.Pred,
			s.reg(in.Result), s.reg(in.Compare.LHS), s.reg(in.Compare.RHS))
	case ir.OpSelect:
		s.emitf("  %s %s, %s, %s, %s", s.fam.selectMn,
			s.reg(in.Result), s.reg(in.Select.Cond),
			s.reg(in.Select.Then), s.reg(in.Select.Else))
	case ir.OpCast:
		s.emitf("  %s.%s %s, %s", in.Cast.Op, in.Type,
			s.reg(in.Result), s.reg(in.Cast.Val))
	case ir.OpLoad:
		s.emitf("  load.%s %s, [sp+%d]", in.Type,
			s.reg(in.Result), fr.offsets[in.Load.Slot])
	case ir.OpStore:
		s.emitf("  store %s, [sp+%d]",
			s.reg(in.Store.Val), fr.offsets[in.Store.Slot])
	default:
		fatalf("instruction selector: cannot select op kind %d", in.Kind)
	}
}

func (s *selector) lowerBinary(in *ir.Instr) {
	mn, ok := s.fam.binOps[in.Binary.Op]
	if !ok {
		fatalf("instruction selector: no pattern for %s on %s",
			in.Binary.Op, s.cfg.Triple.Arch)
	}
	// Integer division on families without a dedicated wide divider
	// lowers to a runtime call.
	if s.fam.divRoutine != "" && in.Type == ir.TypeI64 &&
		(in.Binary.Op == ir.BinUDiv || in.Binary.Op == ir.BinSDiv) {
		if !s.lib.Has(s.fam.divRoutine) {
			fatalf("instruction selector: %s unavailable on %s",
				s.fam.divRoutine, s.cfg.Triple)
		}
		s.emitf("  call %s ; %s, %s -> %s", s.fam.divRoutine,
			s.reg(in.Binary.LHS), s.reg(in.Binary.RHS), s.reg(in.Result))
		return
	}
	s.emitf("  %s %s, %s, %s", mn,
		s.reg(in.Result), s.reg(in.Binary.LHS), s.reg(in.Binary.RHS))
}

func (s *selector) lowerTerm(f *ir.Func, t *ir.Terminator) {
	switch t.Kind {
	case ir.TermReturn:
		if t.Return.HasValue {
			s.emitf("  ret %s", s.reg(t.Return.Value))
		} else {
			s.emitf("  ret")
		}
	case ir.TermBr:
		s.emitf("  b .%s_bb%d", f.Name, t.Br.Target)
	case ir.TermCondBr:
		s.emitf("  cbnz %s, .%s_bb%d", s.reg(t.CondBr.Cond), f.Name, t.CondBr.Then)
		s.emitf("  b .%s_bb%d", f.Name, t.CondBr.Else)
	case ir.TermUnreachable:
		s.emitf("  trap")
	default:
		fatalf("instruction selector: cannot select terminator kind %d", t.Kind)
	}
}

// liveResults marks every result value that has at least one use.
func liveResults(f *ir.Func) map[ir.ValueID]bool {
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
