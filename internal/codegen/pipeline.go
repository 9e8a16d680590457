// Package codegen drives the code-generation pipeline the harness fuzzes:
// a library-info stage followed by instruction selection and emission. The
// emitted bytes go to a discarding sink; only crash or no-crash matters.
//
// This package is the only one permitted to escalate a fatal condition into
// abnormal termination (see fatal.go).
package codegen

import (
	"errors"
	"fmt"
	"io"

	"iselfuzz/internal/ir"
	"iselfuzz/internal/target"
)

// Stage describes a pipeline phase.
type Stage string

const (
	// StageLibInfo resolves runtime library availability for the target.
	StageLibInfo Stage = "libinfo"
	// StageISel is instruction selection and emission.
	StageISel Stage = "isel"
)

// Pipeline runs modules through the fixed stage list for one target
// configuration. Construct once per configuration; safe for repeated
// sequential runs.
type Pipeline struct {
	cfg *target.Config
	out io.Writer
}

// New builds a pipeline for cfg. A nil out discards all emitted output.
func New(cfg *target.Config, out io.Writer) *Pipeline {
	if out == nil {
		out = io.Discard
	}
	return &Pipeline{cfg: cfg, out: out}
}

// Run executes the pipeline over m. The module must already have passed
// structural verification and carry the pipeline's triple and data layout.
// Ordinary precondition violations return an error; internal pipeline
// failures escalate through the fatal handler and do not return.
func (p *Pipeline) Run(m *ir.Module) error {
	if p == nil || p.cfg == nil {
		return errors.New("pipeline not configured")
	}
	if m == nil {
		return errors.New("nil module")
	}
	if m.Triple != p.cfg.Triple.String() {
		return fmt.Errorf("module triple %q does not match target %q", m.Triple, p.cfg.Triple)
	}

	lib := ResolveLibInfo(p.cfg)

	sel := newSelector(p.cfg, lib, p.out)
	for _, f := range m.Funcs {
		sel.lowerFunc(f)
	}
	return nil
}
