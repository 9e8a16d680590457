// Package fuzztests houses Go fuzz harnesses that exercise the two entry
// protocols (custom mutator and verify-and-run) with arbitrary inputs. Its
// goal is to smoke test robustness: no panics on adversarial bytes, no
// invalid module escaping the mutate path, statuses within the contract.
//
// Dependencies: internal/harness, internal/bitcode, internal/ir.
package fuzztests
