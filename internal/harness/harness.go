// Package harness implements the two entry protocols an embedding fuzzing
// engine drives: the custom mutator (decode, mutate, re-encode under a size
// budget) and the verify-and-run path (decode, verify, run the pipeline).
// All process-wide state lives in an explicitly constructed Harness; there
// are no package-level singletons.
package harness

import (
	"fmt"
	"os"

	"iselfuzz/internal/bitcode"
	"iselfuzz/internal/codegen"
	"iselfuzz/internal/ir"
	"iselfuzz/internal/mutate"
	"iselfuzz/internal/target"
)

// Status codes returned by TestOneInput.
const (
	// StatusOK reports that no bug was observed.
	StatusOK = 0
	// StatusBadInput reports input that fails decode or verification. On
	// this path that means the mutator or corpus produced a broken
	// module, which is a harness-side bug, not a target bug.
	StatusBadInput = 1
)

// Harness binds the decoder, the mutation engine, and the pipeline to one
// target configuration. Construct once via Initialize (or New in tests);
// a Harness serves one call at a time.
type Harness struct {
	cfg      *target.Config
	catalog  ir.Catalog
	mutator  *mutate.Mutator
	pipeline *codegen.Pipeline
}

// New builds a harness around an already-resolved configuration, with the
// default type catalog and strategy order, emitting to a discarding sink.
func New(cfg *target.Config) *Harness {
	catalog := ir.DefaultCatalog()
	return &Harness{
		cfg:      cfg,
		catalog:  catalog,
		mutator:  mutate.NewDefault(catalog),
		pipeline: codegen.New(cfg, nil),
	}
}

// Config returns the harness's target configuration.
func (h *Harness) Config() *target.Config {
	return h.cfg
}

// Mutate is the custom-mutator protocol. It decodes data, applies one
// seeded mutation pass, re-encodes, and writes the result back into data's
// backing array. It returns the number of bytes written, or 0 when the
// encoded result does not fit maxSize (the engine retries with a different
// seed or input; data is left untouched).
//
// Inputs of length <= 1 carry no information and start from an empty
// module instead of going through decode.
func (h *Harness) Mutate(data []byte, maxSize int, seed uint32) int {
	var m *ir.Module
	if len(data) <= 1 {
		m = ir.NewModule()
	} else {
		var err error
		m, err = bitcode.Decode(data)
		if err != nil {
			// Corpus entries normally come from this same protocol, so
			// this is unexpected; start over from an empty module
			// rather than wedging the engine.
			fmt.Fprintf(os.Stderr, "iselfuzz: corpus entry does not decode (%v); starting from an empty module\n", err)
			m = ir.NewModule()
		}
	}

	m = h.mutator.Mutate(m, seed, len(data), maxSize)

	out := bitcode.Encode(m)
	if len(out) > maxSize {
		return 0
	}
	buf := data[:cap(data)]
	if len(out) > len(buf) {
		return 0
	}
	copy(buf, out)
	return len(out)
}

// TestOneInput is the verify-and-run protocol. Inputs of length <= 1 are
// ignored. Inputs that fail decode or structural verification report
// StatusBadInput without touching the pipeline. Valid modules are stamped
// with the target triple and data layout and driven through the full
// pipeline; a fatal error there terminates the process abnormally via the
// installed handler rather than returning.
func (h *Harness) TestOneInput(data []byte) int {
	if len(data) <= 1 {
		return StatusOK
	}

	m, err := bitcode.Decode(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "iselfuzz: input module is broken: %v\n", err)
		return StatusBadInput
	}
	if err := ir.Verify(m); err != nil {
		fmt.Fprintf(os.Stderr, "iselfuzz: input module is broken: %v\n", err)
		return StatusBadInput
	}

	m.Triple = h.cfg.Triple.String()
	m.DataLayout = h.cfg.DataLayout

	if err := h.pipeline.Run(m); err != nil {
		fmt.Fprintf(os.Stderr, "iselfuzz: pipeline rejected module: %v\n", err)
		return StatusBadInput
	}
	return StatusOK
}
