package target

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// fileConfig mirrors the optional TOML target file:
//
//	[target]
//	cpu = "znver4"
//	features = ["+avx2"]
//	reloc-model = "pic"
//	code-model = "small"
type fileConfig struct {
	Target fileTarget `toml:"target"`
}

type fileTarget struct {
	Triple   string   `toml:"triple"`
	CPU      string   `toml:"cpu"`
	Features []string `toml:"features"`
	Reloc    string   `toml:"reloc-model"`
	Code     string   `toml:"code-model"`
}

func loadFile(path string) (fileTarget, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fileTarget{}, fmt.Errorf("target config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fileTarget{}, fmt.Errorf("target config %s: unknown key %s", path, undecoded[0])
	}
	return cfg.Target, nil
}

// mergeFile fills unset option fields from the file.
func mergeFile(opts Options, fc fileTarget) Options {
	if opts.Triple == "" {
		opts.Triple = fc.Triple
	}
	if opts.CPU == "" {
		opts.CPU = fc.CPU
	}
	if len(opts.Features) == 0 {
		opts.Features = fc.Features
	}
	if opts.Reloc == "" {
		opts.Reloc = fc.Reloc
	}
	if opts.Code == "" {
		opts.Code = fc.Code
	}
	return opts
}
