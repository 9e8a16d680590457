package ir

// ValueRef pairs a value with its type.
type ValueRef struct {
	ID   ValueID
	Type Type
}

// ValueTypes returns the type of every value defined in f (parameters and
// instruction results). Later definitions of an already-seen ID do not
// overwrite earlier ones; duplicate definitions are a verification error
// reported elsewhere.
func ValueTypes(f *Func) map[ValueID]Type {
	vt := make(map[ValueID]Type, len(f.Params)+16)
	for _, p := range f.Params {
		if _, ok := vt[p.Value]; !ok {
			vt[p.Value] = p.Type
		}
	}
	for bi := range f.Blocks {
		for ii := range f.Blocks[bi].Instrs {
			in := &f.Blocks[bi].Instrs[ii]
			if !in.Defines() {
				continue
			}
			if _, ok := vt[in.Result]; !ok {
				vt[in.Result] = resultType(in)
			}
		}
	}
	return vt
}

// resultType is the type the instruction defines. Compares always produce
// i1 regardless of the declared Type field.
func resultType(in *Instr) Type {
	if in.Kind == OpCompare {
		return TypeI1
	}
	return in.Type
}

// Availability computes, per block, the set of values defined on every path
// from the entry to the block's start. The result is indexed by BlockID;
// each entry is a bitset indexed by ValueID. Blocks unreachable from the
// entry are given the full definition set, mirroring the usual verifier
// leniency for dead code.
func Availability(f *Func) [][]bool {
	n := len(f.Blocks)
	nv := int(f.NextValue)
	if nv < 0 {
		nv = 0
	}
	if n == 0 {
		return nil
	}

	reachable := reachableBlocks(f)

	defs := make([][]bool, n)
	for b := range f.Blocks {
		set := make([]bool, nv)
		for i := range f.Blocks[b].Instrs {
			in := &f.Blocks[b].Instrs[i]
			if in.Defines() && int(in.Result) >= 0 && int(in.Result) < nv {
				set[in.Result] = true
			}
		}
		defs[b] = set
	}

	params := make([]bool, nv)
	for _, p := range f.Params {
		if int(p.Value) >= 0 && int(p.Value) < nv {
			params[p.Value] = true
		}
	}

	everything := make([]bool, nv)
	copy(everything, params)
	for b := range defs {
		for v, ok := range defs[b] {
			if ok {
				everything[v] = true
			}
		}
	}

	preds := make([][]BlockID, n)
	for b := range f.Blocks {
		for _, succ := range f.Blocks[b].Term.Successors(nil) {
			if int(succ) >= 0 && int(succ) < n {
				preds[succ] = append(preds[succ], BlockID(b))
			}
		}
	}

	in := make([][]bool, n)
	for b := range in {
		set := make([]bool, nv)
		if !reachable[b] {
			copy(set, everything)
		} else if BlockID(b) == f.Entry {
			copy(set, params)
		} else {
			// Start from the universe; intersection shrinks it.
			copy(set, everything)
		}
		in[b] = set
	}

	changed := true
	for changed {
		changed = false
		for b := 0; b < n; b++ {
			if !reachable[b] || BlockID(b) == f.Entry || len(preds[b]) == 0 {
				continue
			}
			for v := 0; v < nv; v++ {
				if !in[b][v] {
					continue
				}
				keep := true
				for _, p := range preds[b] {
					if !in[p][v] && !defs[p][v] && !params[v] {
						keep = false
						break
					}
				}
				// params are in every in-set already; the check above
				// short-circuits on them via the params bitset.
				if !keep {
					in[b][v] = false
					changed = true
				}
			}
		}
	}
	return in
}

// AvailableAt lists the values (with types) usable as operands just before
// instruction index idx of block b. idx == len(instrs) addresses the point
// before the terminator.
func AvailableAt(f *Func, b BlockID, idx int) []ValueRef {
	if int(b) < 0 || int(b) >= len(f.Blocks) {
		return nil
	}
	avail := Availability(f)
	vt := ValueTypes(f)

	nv := int(f.NextValue)
	if nv < 0 {
		nv = 0
	}
	set := make([]bool, nv)
	copy(set, avail[b])
	blk := &f.Blocks[b]
	if idx > len(blk.Instrs) {
		idx = len(blk.Instrs)
	}
	for i := 0; i < idx; i++ {
		in := &blk.Instrs[i]
		if in.Defines() && int(in.Result) >= 0 && int(in.Result) < len(set) {
			set[in.Result] = true
		}
	}

	var out []ValueRef
	for v, ok := range set {
		if !ok {
			continue
		}
		t, found := vt[ValueID(v)]
		if !found || !t.Valid() {
			continue
		}
		out = append(out, ValueRef{ID: ValueID(v), Type: t})
	}
	return out
}

func reachableBlocks(f *Func) []bool {
	seen := make([]bool, len(f.Blocks))
	if int(f.Entry) < 0 || int(f.Entry) >= len(f.Blocks) {
		return seen
	}
	stack := []BlockID{f.Entry}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[b] {
			continue
		}
		seen[b] = true
		for _, succ := range f.Blocks[b].Term.Successors(nil) {
			if int(succ) >= 0 && int(succ) < len(seen) && !seen[succ] {
				stack = append(stack, succ)
			}
		}
	}
	return seen
}
