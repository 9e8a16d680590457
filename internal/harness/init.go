package harness

import (
	"fmt"

	"github.com/spf13/pflag"

	"iselfuzz/internal/codegen"
	"iselfuzz/internal/target"
)

// argsSeparator marks the end of the embedding engine's own arguments.
// Everything before and including it belongs to the engine and is ignored
// by the harness option parser.
const argsSeparator = "-ignore_remaining_args=1"

// splitEngineArgs returns the arguments after the separator marker, or all
// arguments when no marker is present.
func splitEngineArgs(args []string) []string {
	for i, a := range args {
		if a == argsSeparator {
			return args[i+1:]
		}
	}
	return args
}

// Initialize parses harness options, resolves the target configuration,
// installs the fatal-error handler, and returns a ready Harness. It must be
// called exactly once, before either entry protocol runs. A missing or
// unresolvable triple and an invalid optimization level fail with an error;
// the caller reports it and exits nonzero.
func Initialize(args []string) (*Harness, error) {
	fs := pflag.NewFlagSet("iselfuzz", pflag.ContinueOnError)
	triple := fs.String("mtriple", "", "target triple for the module under test (required)")
	optLevel := fs.StringP("opt-level", "O", "", "optimization level (0-3; default 2)")
	cpu := fs.String("mcpu", "", "target cpu")
	features := fs.StringSlice("mattr", nil, "target features")
	reloc := fs.String("reloc-model", "", "relocation model (static|pic)")
	code := fs.String("code-model", "", "code model (small|medium|large)")
	cfgFile := fs.String("target-config", "", "optional TOML file with target defaults")

	if err := fs.Parse(splitEngineArgs(args)); err != nil {
		return nil, err
	}

	if *triple == "" && *cfgFile == "" {
		return nil, fmt.Errorf("-mtriple must be specified")
	}

	cfg, err := target.Resolve(target.Options{
		Triple:     *triple,
		CPU:        *cpu,
		Features:   *features,
		OptLevel:   *optLevel,
		Reloc:      *reloc,
		Code:       *code,
		ConfigFile: *cfgFile,
	})
	if err != nil {
		return nil, err
	}

	// Make fatal pipeline conditions observable as a crash before the
	// first run.
	codegen.InstallFatalHandler(codegen.DefaultFatalHandler)

	return New(cfg), nil
}
