// Package target resolves the fixed target configuration the pipeline runs
// against: architecture triple, CPU, features, optimization level, and the
// relocation/code models. A Config is built once at startup and never
// mutated afterwards.
package target

import (
	"fmt"
	"strings"
)

// OptLevel is the code generation optimization level.
type OptLevel uint8

const (
	OptNone OptLevel = iota
	OptLess
	OptDefault
	OptAggressive
)

func (o OptLevel) String() string {
	return [...]string{"O0", "O1", "O2", "O3"}[o]
}

// ParseOptLevel maps the -O flag value to a level. The empty string selects
// the default.
func ParseOptLevel(s string) (OptLevel, error) {
	switch s {
	case "":
		return OptDefault, nil
	case "0":
		return OptNone, nil
	case "1":
		return OptLess, nil
	case "2":
		return OptDefault, nil
	case "3":
		return OptAggressive, nil
	default:
		return OptDefault, fmt.Errorf("invalid optimization level %q", s)
	}
}

// RelocModel selects position handling for emitted code.
type RelocModel string

const (
	RelocStatic RelocModel = "static"
	RelocPIC    RelocModel = "pic"
)

// CodeModel selects the addressing range assumptions.
type CodeModel string

const (
	CodeSmall  CodeModel = "small"
	CodeMedium CodeModel = "medium"
	CodeLarge  CodeModel = "large"
)

// Triple is a parsed, normalized target triple.
type Triple struct {
	Arch   string
	Vendor string
	OS     string
	Env    string
}

func (t Triple) String() string {
	parts := []string{t.Arch, t.Vendor, t.OS}
	if t.Env != "" {
		parts = append(parts, t.Env)
	}
	return strings.Join(parts, "-")
}

// Config is the immutable, process-wide target description.
type Config struct {
	Triple     Triple
	CPU        string
	Features   []string
	OptLevel   OptLevel
	Reloc      RelocModel
	Code       CodeModel
	DataLayout string

	// PtrWidth is the pointer width in bits for the resolved architecture.
	PtrWidth int
}

// archInfo describes a registered architecture.
type archInfo struct {
	ptrWidth   int
	dataLayout string
	defaultCPU string
}

// archRegistry maps canonical arch names to their descriptions. Aliases are
// resolved by normalizeArch before lookup.
var archRegistry = map[string]archInfo{
	"x86_64":  {ptrWidth: 64, dataLayout: "e-m:e-p:64:64-i64:64-f80:128-n8:16:32:64-S128", defaultCPU: "generic"},
	"i686":    {ptrWidth: 32, dataLayout: "e-m:e-p:32:32-i64:64-f80:32-n8:16:32-S128", defaultCPU: "generic"},
	"aarch64": {ptrWidth: 64, dataLayout: "e-m:e-i8:8:32-i16:16:32-i64:64-n32:64-S128", defaultCPU: "generic"},
	"arm":     {ptrWidth: 32, dataLayout: "e-m:e-p:32:32-i64:64-v128:64:128-n32-S64", defaultCPU: "generic"},
	"riscv64": {ptrWidth: 64, dataLayout: "e-m:e-p:64:64-i64:64-i128:128-n64-S128", defaultCPU: "generic-rv64"},
	"wasm32":  {ptrWidth: 32, dataLayout: "e-m:e-p:32:32-i64:64-n32:64-S128", defaultCPU: "mvp"},
}

var archAliases = map[string]string{
	"amd64":  "x86_64",
	"x86-64": "x86_64",
	"arm64":  "aarch64",
	"i386":   "i686",
	"armv7":  "arm",
}

func normalizeArch(arch string) string {
	arch = strings.ToLower(arch)
	if canon, ok := archAliases[arch]; ok {
		return canon
	}
	return arch
}

// ParseTriple parses and normalizes a triple string. Missing vendor/OS
// components are filled with "unknown"; the arch must be registered.
func ParseTriple(s string) (Triple, error) {
	if s == "" {
		return Triple{}, fmt.Errorf("empty target triple")
	}
	parts := strings.Split(s, "-")
	t := Triple{Arch: normalizeArch(parts[0]), Vendor: "unknown", OS: "unknown"}
	if len(parts) > 1 && parts[1] != "" {
		t.Vendor = strings.ToLower(parts[1])
	}
	if len(parts) > 2 && parts[2] != "" {
		t.OS = strings.ToLower(parts[2])
	}
	if len(parts) > 3 && parts[3] != "" {
		t.Env = strings.ToLower(parts[3])
	}
	if _, ok := archRegistry[t.Arch]; !ok {
		return Triple{}, fmt.Errorf("no registered target for triple %q", s)
	}
	return t, nil
}

// Options are the raw configuration inputs before resolution.
type Options struct {
	Triple     string
	CPU        string
	Features   []string
	OptLevel   string
	Reloc      string
	Code       string
	ConfigFile string
}

// Resolve validates options and produces the final Config. File-provided
// values fill gaps; explicit option values win.
func Resolve(opts Options) (*Config, error) {
	if opts.ConfigFile != "" {
		fc, err := loadFile(opts.ConfigFile)
		if err != nil {
			return nil, err
		}
		opts = mergeFile(opts, fc)
	}

	triple, err := ParseTriple(opts.Triple)
	if err != nil {
		return nil, err
	}
	info := archRegistry[triple.Arch]

	olvl, err := ParseOptLevel(opts.OptLevel)
	if err != nil {
		return nil, err
	}

	reloc := RelocModel(opts.Reloc)
	switch reloc {
	case "", RelocStatic:
		reloc = RelocStatic
	case RelocPIC:
	default:
		return nil, fmt.Errorf("invalid relocation model %q", opts.Reloc)
	}

	code := CodeModel(opts.Code)
	switch code {
	case "", CodeSmall:
		code = CodeSmall
	case CodeMedium, CodeLarge:
	default:
		return nil, fmt.Errorf("invalid code model %q", opts.Code)
	}

	cpu := opts.CPU
	if cpu == "" {
		cpu = info.defaultCPU
	}

	return &Config{
		Triple:     triple,
		CPU:        cpu,
		Features:   append([]string(nil), opts.Features...),
		OptLevel:   olvl,
		Reloc:      reloc,
		Code:       code,
		DataLayout: info.dataLayout,
		PtrWidth:   info.ptrWidth,
	}, nil
}
