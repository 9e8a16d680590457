package codegen

import "iselfuzz/internal/target"

// LibInfo records which runtime library routines are callable for the
// configured target. It is the pipeline's first stage; the selector
// consults it before lowering an operation to a library call.
type LibInfo struct {
	routines map[string]bool
}

// baseRoutines are available on every supported OS.
var baseRoutines = []string{
	"memcpy", "memset", "memmove",
}

// hostedRoutines need a C runtime underneath; freestanding targets
// (os "none") do not get them.
var hostedRoutines = []string{
	"__udivti3", "__divti3",
	"__umoddi3", "__moddi3",
	"fmod", "fmodf",
	"sqrt", "sqrtf",
}

// ResolveLibInfo builds the library-info table for cfg.
func ResolveLibInfo(cfg *target.Config) *LibInfo {
	li := &LibInfo{routines: make(map[string]bool, len(baseRoutines)+len(hostedRoutines))}
	for _, r := range baseRoutines {
		li.routines[r] = true
	}
	if cfg.Triple.OS != "none" {
		for _, r := range hostedRoutines {
			li.routines[r] = true
		}
	}
	return li
}

// Has reports whether the named routine may be called on this target.
func (li *LibInfo) Has(name string) bool {
	return li != nil && li.routines[name]
}
