// Package threaddump writes every goroutine's stack to the diagnostic stream
// on fatal runtime errors and on request.
package threaddump

import (
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"
	"github.com/zorak1103/bootguard/internal/logging"
)

// Hook is an installed dump target.
type Hook struct {
	stream *os.File
	logger zerolog.Logger

	mu   sync.Mutex
	stop func()
}

// setCrashOutput is replaced in tests; the runtime setting is process-wide.
var setCrashOutput = func(f *os.File) error {
	return debug.SetCrashOutput(f, debug.CrashOptions{})
}

// Install chooses the first open stream of stderr and stdout, raises the
// traceback level to all goroutines and, when the stream is not already the
// file behind descriptor 2, routes fatal runtime output to it. It also starts the
// on-request signal watcher where the platform has one. With both streams
// closed it returns a hook that does nothing.
func Install(stderr, stdout *os.File) *Hook {
	h := &Hook{logger: logging.WithComponent("threaddump")}
	h.stream = pick(stderr, stdout)
	if h.stream == nil {
		h.logger.Warn().Str("event", "threaddump.disabled").Msg("no open diagnostic stream")
		return h
	}

	debug.SetTraceback("all")
	if h.stream.Fd() != 2 && !sharesDescriptorTwo(h.stream) {
		if err := setCrashOutput(h.stream); err != nil {
			h.logger.Warn().Err(err).Str("event", "threaddump.crash_output_failed").Msg("cannot route fatal output")
		}
	}
	h.stop = watch(h)
	h.logger.Debug().Str("event", "threaddump.installed").Str("stream", h.stream.Name()).Msg("thread dump hook installed")
	return h
}

// pick returns the first stream that is still open.
func pick(streams ...*os.File) *os.File {
	for _, f := range streams {
		if f == nil {
			continue
		}
		if _, err := f.Stat(); err == nil {
			return f
		}
	}
	return nil
}

// Stream returns the chosen stream, or nil when the hook is disabled.
func (h *Hook) Stream() *os.File {
	return h.stream
}

// Dump writes the stacks of all goroutines to the chosen stream.
func (h *Hook) Dump() {
	if h.stream == nil {
		return
	}
	_ = WriteTo(h.stream)
}

// Stop ends the signal watcher. It is safe to call more than once.
func (h *Hook) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop != nil {
		h.stop()
		h.stop = nil
	}
}

// WriteTo writes the stacks of all goroutines to w.
func WriteTo(w io.Writer) error {
	buf := make([]byte, 64<<10)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			buf = buf[:n]
			break
		}
		buf = make([]byte, 2*len(buf))
	}
	_, err := w.Write(append([]byte("=== goroutine dump ===\n"), buf...))
	return err
}
