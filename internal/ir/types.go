package ir

type FuncID int32
type BlockID int32
type ValueID int32
type SlotID int32

const (
	NoFuncID  FuncID  = -1
	NoBlockID BlockID = -1
	NoValueID ValueID = -1
	NoSlotID  SlotID  = -1
)

// Type enumerates the primitive value types the fuzzer operates over.
type Type uint8

const (
	// TypeInvalid is the zero value; never valid in a well-formed module.
	TypeInvalid Type = iota
	// TypeI1 is a 1-bit integer (boolean).
	TypeI1
	// TypeI8 is an 8-bit integer.
	TypeI8
	// TypeI16 is a 16-bit integer.
	TypeI16
	// TypeI32 is a 32-bit integer.
	TypeI32
	// TypeI64 is a 64-bit integer.
	TypeI64
	// TypeF32 is a single-precision float.
	TypeF32
	// TypeF64 is a double-precision float.
	TypeF64

	typeMax
)

// IsInt reports whether t is an integer type.
func (t Type) IsInt() bool {
	return t >= TypeI1 && t <= TypeI64
}

// IsFloat reports whether t is a floating-point type.
func (t Type) IsFloat() bool {
	return t == TypeF32 || t == TypeF64
}

// Valid reports whether t is a known, non-invalid type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < typeMax
}

// BitWidth returns the width of t in bits, or 0 for invalid types.
func (t Type) BitWidth() int {
	switch t {
	case TypeI1:
		return 1
	case TypeI8:
		return 8
	case TypeI16:
		return 16
	case TypeI32:
		return 32
	case TypeI64:
		return 64
	case TypeF32:
		return 32
	case TypeF64:
		return 64
	default:
		return 0
	}
}

func (t Type) String() string {
	switch t {
	case TypeI1:
		return "i1"
	case TypeI8:
		return "i8"
	case TypeI16:
		return "i16"
	case TypeI32:
		return "i32"
	case TypeI64:
		return "i64"
	case TypeF32:
		return "f32"
	case TypeF64:
		return "f64"
	default:
		return "invalid"
	}
}

// Catalog is the ordered set of types exposed to the mutation engine.
// It is constructed once at startup and never modified afterwards.
type Catalog []Type

// DefaultCatalog returns the full primitive catalog in canonical order.
func DefaultCatalog() Catalog {
	return Catalog{TypeI1, TypeI8, TypeI16, TypeI32, TypeI64, TypeF32, TypeF64}
}
