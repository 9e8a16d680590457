// Package bitcode serializes ir.Module to and from the harness wire format:
// a fixed magic header followed by a msgpack payload. Decode accepts
// adversarial bytes and reports malformed input as errors; it never panics
// and never aborts the process.
package bitcode

import (
	"bytes"
	"errors"
	"fmt"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"iselfuzz/internal/ir"
)

// Current schema version - increment when the wire format changes.
const schemaVersion uint16 = 1

// magic prefixes every encoded module.
var magic = []byte{'I', 'S', 'F', 0x01}

// ErrMalformed is wrapped by every decode failure.
var ErrMalformed = errors.New("malformed module encoding")

// Hard ceilings on decoded shapes. Anything larger is hostile input, not a
// program the mutator could have produced.
const (
	maxFuncs         = 1 << 10
	maxBlocksPerFunc = 1 << 12
	maxInstrsPerFunc = 1 << 16
	maxSlotsPerFunc  = 1 << 10
	maxParams        = 64
)

type payload struct {
	Schema uint16
	Module *ir.Module
}

// Encode serializes m. Encoding always succeeds for in-memory modules;
// checking the result against a size budget is the caller's job.
func Encode(m *ir.Module) []byte {
	raw, err := msgpack.Marshal(payload{Schema: schemaVersion, Module: m})
	if err != nil {
		// Marshal of a plain struct tree cannot fail at runtime.
		panic(fmt.Sprintf("bitcode: encode: %v", err))
	}
	out := make([]byte, 0, len(magic)+len(raw))
	out = append(out, magic...)
	return append(out, raw...)
}

// Decode parses data as an encoded module. All failures are reported as
// errors wrapping ErrMalformed.
func Decode(data []byte) (*ir.Module, error) {
	if len(data) < len(magic) || !bytes.Equal(data[:len(magic)], magic) {
		return nil, fmt.Errorf("%w: bad magic", ErrMalformed)
	}
	var p payload
	if err := msgpack.Unmarshal(data[len(magic):], &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if p.Schema != schemaVersion {
		return nil, fmt.Errorf("%w: schema %d, want %d", ErrMalformed, p.Schema, schemaVersion)
	}
	if p.Module == nil {
		return nil, fmt.Errorf("%w: missing module", ErrMalformed)
	}
	if err := checkShapes(p.Module); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return p.Module, nil
}

// checkShapes rejects decodes whose sizes or enum tags are outside what the
// format can legitimately carry. Structural verification (def-before-use,
// typing) is a separate, caller-driven step.
func checkShapes(m *ir.Module) error {
	if len(m.Funcs) > maxFuncs {
		return fmt.Errorf("too many functions: %d", len(m.Funcs))
	}
	for fi, f := range m.Funcs {
		if f == nil {
			return fmt.Errorf("function %d: nil", fi)
		}
		if len(f.Blocks) > maxBlocksPerFunc {
			return fmt.Errorf("function %s: too many blocks: %d", f.Name, len(f.Blocks))
		}
		if len(f.Slots) > maxSlotsPerFunc {
			return fmt.Errorf("function %s: too many slots: %d", f.Name, len(f.Slots))
		}
		if len(f.Params) > maxParams {
			return fmt.Errorf("function %s: too many params: %d", f.Name, len(f.Params))
		}
		// NextValue sizes the dataflow bitsets downstream; a hostile counter
		// means runaway allocation or a negative-length panic.
		if f.NextValue < 0 || f.NextValue > maxInstrsPerFunc+maxParams {
			return fmt.Errorf("function %s: value counter %d out of range", f.Name, f.NextValue)
		}
		instrs := 0
		for bi := range f.Blocks {
			instrs += len(f.Blocks[bi].Instrs)
		}
		if instrs > maxInstrsPerFunc {
			return fmt.Errorf("function %s: too many instructions: %d", f.Name, instrs)
		}
		// IDs assigned by builders are dense int32s; reject anything a
		// re-encode could not round-trip.
		if _, err := safecast.Conv[int32](len(f.Blocks)); err != nil {
			return fmt.Errorf("function %s: block count: %w", f.Name, err)
		}
		if got := ir.FuncID(fi); f.ID != got {
			return fmt.Errorf("function %s: id %d, want %d", f.Name, f.ID, got)
		}
		for bi := range f.Blocks {
			if got := ir.BlockID(bi); f.Blocks[bi].ID != got {
				return fmt.Errorf("function %s: bb%d: id %d", f.Name, bi, f.Blocks[bi].ID)
			}
		}
	}
	return nil
}
