package ir

type TermKind uint8

const (
	TermNone TermKind = iota
	TermReturn
	TermBr
	TermCondBr
	TermUnreachable

	termKindMax
)

type Terminator struct {
	Kind TermKind

	Return      ReturnTerm
	Br          BrTerm
	CondBr      CondBrTerm
	Unreachable struct{}
}

type ReturnTerm struct {
	HasValue bool
	Value    ValueID
}

type BrTerm struct {
	Target BlockID
}

type CondBrTerm struct {
	Cond ValueID
	Then BlockID
	Else BlockID
}

// Successors appends the terminator's target blocks to dst and returns the
// extended slice.
func (t *Terminator) Successors(dst []BlockID) []BlockID {
	switch t.Kind {
	case TermBr:
		return append(dst, t.Br.Target)
	case TermCondBr:
		return append(dst, t.CondBr.Then, t.CondBr.Else)
	default:
		return dst
	}
}
