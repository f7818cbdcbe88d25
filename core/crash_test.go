package core

import (
	"bytes"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type fakeScreen struct{ finis atomic.Int32 }

func (f *fakeScreen) Fini() { f.finis.Add(1) }

// TestGoRecoversPanic verifies a panicking goroutine finalizes the terminal and exits with code 1
func TestGoRecoversPanic(t *testing.T) {
	var out bytes.Buffer
	code := make(chan int, 1)
	origExit, origOut := exit, crashOut
	exit = func(c int) { code <- c }
	crashOut = &out
	t.Cleanup(func() {
		exit, crashOut = origExit, origOut
		SetCrashFinalizer(nil)
	})

	screen := &fakeScreen{}
	SetCrashFinalizer(screen)

	Go(func() { panic("boom") })

	select {
	case c := <-code:
		if c != 1 {
			t.Errorf("Expected exit code 1, got %d", c)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected crash handler to run")
	}

	if screen.finis.Load() != 1 {
		t.Errorf("Expected Fini once, got %d", screen.finis.Load())
	}
	if !strings.Contains(out.String(), "boom") {
		t.Errorf("Expected panic value in output, got %q", out.String())
	}
}

// TestHandleCrashNil verifies a nil recover value is ignored
func TestHandleCrashNil(t *testing.T) {
	called := false
	origExit := exit
	exit = func(int) { called = true }
	t.Cleanup(func() { exit = origExit })

	HandleCrash(nil)
	if called {
		t.Error("Expected no exit for nil")
	}
}
