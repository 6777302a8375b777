package crash

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync/atomic"
)

var installed atomic.Pointer[Interceptor]

// Install makes i the process-wide interceptor. Only the first call succeeds.
func Install(i *Interceptor) error {
	if i == nil {
		return fmt.Errorf("install crash interceptor: nil interceptor")
	}
	if !installed.CompareAndSwap(nil, i) {
		return ErrAlreadyInstalled
	}
	return nil
}

// Installed returns the process-wide interceptor, or nil.
func Installed() *Interceptor {
	return installed.Load()
}

// Recover must be deferred directly at the top of a goroutine:
//
//	defer crash.Recover()
//
// Without an installed interceptor the panic continues unwinding.
func Recover() {
	r := recover()
	if r == nil {
		return
	}
	i := installed.Load()
	if i == nil {
		panic(r)
	}
	i.HandlePanic(r, debug.Stack())
}

// Go runs fn on a new goroutine guarded by the installed interceptor.
func Go(fn func()) {
	go func() {
		defer Recover()
		fn()
	}()
}

// Protect runs fn on the calling goroutine guarded by the installed interceptor.
func Protect(fn func()) {
	defer Recover()
	fn()
}

// Report hands an explicit fatal error to the installed interceptor. Without
// one the error is written to stderr and the process exits with ExitCrash.
func Report(err error) {
	if err == nil {
		return
	}
	i := installed.Load()
	if i == nil {
		_, _ = fmt.Fprintf(os.Stderr, "fatal: %v\n%s\n", err, debug.Stack())
		os.Exit(ExitCrash)
	}
	i.HandleError(err, debug.Stack())
}
