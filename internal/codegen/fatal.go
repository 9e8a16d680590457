package codegen

import (
	"fmt"
	"os"
	"sync"
)

// FatalError marks an internal condition the pipeline cannot recover from.
// Fatal errors never travel through ordinary error returns; they reach the
// installed handler and terminate the run abnormally.
type FatalError struct {
	Msg string
}

func (e *FatalError) Error() string {
	return "fatal error: " + e.Msg
}

var (
	installOnce  sync.Once
	fatalHandler func(msg string)
)

// InstallFatalHandler installs the process-wide fatal handler. Only the
// first call has any effect; the handler stays installed for the process
// lifetime.
func InstallFatalHandler(h func(msg string)) {
	installOnce.Do(func() {
		fatalHandler = h
	})
}

// DefaultFatalHandler logs the condition to stderr and panics, so an
// embedding fuzzing engine observes an abnormal termination rather than a
// clean return.
func DefaultFatalHandler(msg string) {
	fmt.Fprintf(os.Stderr, "fatal error: %s\naborting to trigger fuzzer exit handling\n", msg)
	panic(&FatalError{Msg: msg})
}

// fatalf escalates. It never returns: if the installed handler returns, the
// run is still torn down with a FatalError panic.
func fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if fatalHandler != nil {
		fatalHandler(msg)
	}
	panic(&FatalError{Msg: msg})
}
