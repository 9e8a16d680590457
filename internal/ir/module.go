// Package ir defines the in-memory program representation the fuzzing
// harness mutates and feeds to the code-generation pipeline: a module of
// functions, basic blocks, SSA-shaped instructions, and primitive types.
package ir

// Module is a single compilable unit. A Module is owned by exactly one
// harness invocation at a time; nothing here is safe for concurrent use.
type Module struct {
	// Triple and DataLayout are stamped from the target configuration
	// before the module enters the pipeline. They are not part of the
	// structural identity of the module.
	Triple     string
	DataLayout string

	Funcs []*Func
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{}
}

// NewFunc appends a fresh function with the given name and return type and
// returns it. The function has no blocks yet; callers must add an entry
// block before the module can pass verification.
func (m *Module) NewFunc(name string, result Type, hasResult bool) *Func {
	f := &Func{
		ID:        FuncID(len(m.Funcs)),
		Name:      name,
		Result:    result,
		HasResult: hasResult,
		Entry:     NoBlockID,
	}
	m.Funcs = append(m.Funcs, f)
	return f
}

// Empty reports whether the module has no functions.
func (m *Module) Empty() bool {
	return m == nil || len(m.Funcs) == 0
}
