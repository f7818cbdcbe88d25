// Package core provides panic recovery for every goroutine the instrument starts
package core

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync/atomic"
)

// Finalizer restores a device or terminal before the process exits
// tcell.Screen satisfies it
type Finalizer interface {
	Fini()
}

type finalizerHolder struct{ f Finalizer }

var (
	crashFinalizer atomic.Pointer[finalizerHolder]

	// exit and crashOut are swapped in tests
	exit               = os.Exit
	crashOut io.Writer = os.Stderr
)

// Raw escapes used when no finalizer is registered
var emergencyReset = []byte("\x1b[?1000l\x1b[?1002l\x1b[?1006l\x1b[?25h\x1b[?1049l\x1b[0m\x1b[?7h")

// SetCrashFinalizer registers the terminal to restore on crash; nil clears it
func SetCrashFinalizer(f Finalizer) {
	if f == nil {
		crashFinalizer.Store(nil)
		return
	}
	crashFinalizer.Store(&finalizerHolder{f: f})
}

// HandleCrash restores the terminal, prints the stack trace and exits
func HandleCrash(r any) {
	if r == nil {
		return
	}

	if h := crashFinalizer.Swap(nil); h != nil {
		h.f.Fini()
	} else {
		os.Stdout.Write(emergencyReset)
		os.Stdout.Sync()
	}

	fmt.Fprintf(crashOut, "\n\x1b[31mCRASH DETECTED: %v\x1b[0m\n", r)
	fmt.Fprintf(crashOut, "Stack Trace:\n%s\n", debug.Stack())

	exit(1)
}

// Go runs fn in a new goroutine with panic recovery
// Use this instead of the 'go' keyword so a crash never leaves the terminal raw
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}
