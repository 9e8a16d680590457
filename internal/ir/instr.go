package ir

// OpKind enumerates instruction kinds.
type OpKind uint8

const (
	// OpConst materializes a constant of the instruction's result type.
	OpConst OpKind = iota
	// OpBinary is a two-operand arithmetic or bitwise instruction.
	OpBinary
	// OpCompare is an integer or float comparison producing an i1.
	OpCompare
	// OpSelect picks one of two same-typed values based on an i1 condition.
	OpSelect
	// OpCast converts a value between primitive types.
	OpCast
	// OpLoad reads a function-local stack slot.
	OpLoad
	// OpStore writes a value into a function-local stack slot.
	OpStore

	opKindMax
)

// Instr represents a single instruction. Kind selects which payload is live.
// Result is NoValueID for instructions that produce no value (stores).
type Instr struct {
	Kind   OpKind
	Result ValueID
	Type   Type

	Const   ConstInstr
	Binary  BinaryInstr
	Compare CompareInstr
	Select  SelectInstr
	Cast    CastInstr
	Load    LoadInstr
	Store   StoreInstr
}

// ConstInstr carries the raw bit pattern of a constant. For float types the
// bits are the IEEE-754 encoding at the type's width.
type ConstInstr struct {
	Bits uint64
}

// BinOp enumerates two-operand instruction operators.
type BinOp uint8

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinUDiv
	BinSDiv
	BinURem
	BinSRem
	BinAnd
	BinOr
	BinXor
	BinShl
	BinLShr
	BinAShr
	BinFAdd
	BinFSub
	BinFMul
	BinFDiv

	binOpMax
)

// IsFloatOp reports whether the operator requires floating-point operands.
func (op BinOp) IsFloatOp() bool {
	return op >= BinFAdd && op <= BinFDiv
}

func (op BinOp) String() string {
	names := [...]string{
		"add", "sub", "mul", "udiv", "sdiv", "urem", "srem",
		"and", "or", "xor", "shl", "lshr", "ashr",
		"fadd", "fsub", "fmul", "fdiv",
	}
	if int(op) < len(names) {
		return names[op]
	}
	return "binop?"
}

type BinaryInstr struct {
	Op  BinOp
	LHS ValueID
	RHS ValueID
}

// CmpPred enumerates comparison predicates.
type CmpPred uint8

const (
	CmpEq CmpPred = iota
	CmpNe
	CmpULT
	CmpULE
	CmpSLT
	CmpSLE
	CmpFOEQ
	CmpFONE
	CmpFOLT
	CmpFOLE

	cmpPredMax
)

// IsFloatPred reports whether the predicate compares floating-point values.
func (p CmpPred) IsFloatPred() bool {
	return p >= CmpFOEQ && p <= CmpFOLE
}

func (p CmpPred) String() string {
	names := [...]string{
		"eq", "ne", "ult", "ule", "slt", "sle",
		"foeq", "fone", "folt", "fole",
	}
	if int(p) < len(names) {
		return names[p]
	}
	return "pred?"
}

// CompareInstr compares two same-typed operands. The instruction's result
// type is always i1.
type CompareInstr struct {
	Pred CmpPred
	LHS  ValueID
	RHS  ValueID
}

type SelectInstr struct {
	Cond ValueID
	Then ValueID
	Else ValueID
}

// CastOp enumerates conversions between primitive types.
type CastOp uint8

const (
	// CastTrunc narrows an integer.
	CastTrunc CastOp = iota
	// CastZExt widens an integer with zero fill.
	CastZExt
	// CastSExt widens an integer with sign fill.
	CastSExt
	// CastFPTrunc narrows f64 to f32.
	CastFPTrunc
	// CastFPExt widens f32 to f64.
	CastFPExt
	// CastFPToSI converts a float to a signed integer.
	CastFPToSI
	// CastSIToFP converts a signed integer to a float.
	CastSIToFP

	castOpMax
)

func (op CastOp) String() string {
	names := [...]string{"trunc", "zext", "sext", "fptrunc", "fpext", "fptosi", "sitofp"}
	if int(op) < len(names) {
		return names[op]
	}
	return "cast?"
}

// CastInstr converts Val to the instruction's result type.
type CastInstr struct {
	Op  CastOp
	Val ValueID
}

// LoadInstr reads a stack slot. The instruction's result type must match the
// slot's declared type.
type LoadInstr struct {
	Slot SlotID
}

// StoreInstr writes Val into a stack slot of the same type.
type StoreInstr struct {
	Slot SlotID
	Val  ValueID
}

// Defines reports whether the instruction produces a value.
func (in *Instr) Defines() bool {
	return in.Kind != OpStore
}

// Operands appends the value operands of the instruction to dst and returns
// the extended slice.
func (in *Instr) Operands(dst []ValueID) []ValueID {
	switch in.Kind {
	case OpConst, OpLoad:
		return dst
	case OpBinary:
		return append(dst, in.Binary.LHS, in.Binary.RHS)
	case OpCompare:
		return append(dst, in.Compare.LHS, in.Compare.RHS)
	case OpSelect:
		return append(dst, in.Select.Cond, in.Select.Then, in.Select.Else)
	case OpCast:
		return append(dst, in.Cast.Val)
	case OpStore:
		return append(dst, in.Store.Val)
	default:
		return dst
	}
}
