// Package mutate implements the seeded structural mutation engine. A
// Mutator owns an ordered list of strategies; each call applies a bounded
// number of edits chosen deterministically from the seed and returns a
// module that still passes structural verification.
package mutate

import (
	"math/rand"

	"iselfuzz/internal/ir"
)

// Strategy performs one class of structural edit. Apply reports whether an
// edit was made; a strategy that finds no legal edit must leave the module
// untouched and return false.
type Strategy interface {
	Name() string
	Apply(r *rand.Rand, catalog ir.Catalog, m *ir.Module) bool
}

// Mutator applies strategies to modules. Construct once at startup; safe
// for repeated sequential use, not for concurrent use.
type Mutator struct {
	catalog    ir.Catalog
	strategies []Strategy
}

// New builds a mutator over the given catalog with the given strategy order.
func New(catalog ir.Catalog, strategies ...Strategy) *Mutator {
	return &Mutator{catalog: catalog, strategies: strategies}
}

// NewDefault builds the standard mutator: the instruction injector first,
// the instruction deleter second.
func NewDefault(catalog ir.Catalog) *Mutator {
	return New(catalog, &injectStrategy{}, &deleteStrategy{})
}

// maxSteps bounds the number of edits per Mutate call.
const maxSteps = 4

// Mutate applies zero or more edits to m and returns it. The result is
// deterministic for a fixed (module, seed) pair. inputSize and maxSize are
// advisory: when the encoded input is already near maxSize the mutator
// favors shrinking edits.
func (mu *Mutator) Mutate(m *ir.Module, seed uint32, inputSize, maxSize int) *ir.Module {
	if m == nil {
		m = ir.NewModule()
	}
	r := rand.New(rand.NewSource(int64(seed)))

	ensureSkeleton(m)

	steps := 1 + r.Intn(maxSteps)
	nearBudget := maxSize > 0 && inputSize*4 >= maxSize*3
	for i := 0; i < steps; i++ {
		order := mu.strategies
		if nearBudget && len(order) > 1 {
			// Prefer the deleter when the encoding is close to the cap.
			order = append([]Strategy{order[len(order)-1]}, order[:len(order)-1]...)
		}
		for _, s := range order {
			if s.Apply(r, mu.catalog, m) {
				break
			}
		}
	}
	return m
}

// ensureSkeleton guarantees the module has at least one function with a
// terminated entry block, so injection always has somewhere to land.
func ensureSkeleton(m *ir.Module) {
	if len(m.Funcs) > 0 {
		return
	}
	f := m.NewFunc("f0", ir.TypeInvalid, false)
	entry := f.NewBlock()
	f.Entry = entry
	f.Blocks[entry].Term = ir.Terminator{Kind: ir.TermReturn}
}
