package crash

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/zorak1103/bootguard/internal/lifecycle"
	"github.com/zorak1103/bootguard/internal/logging"
)

// Process exit statuses used by the crash path.
const (
	ExitCrash       = 1
	ExitDoubleFault = 3
)

// DefaultFlushTimeout bounds how long sinks may take to deliver on exit.
const DefaultFlushTimeout = 2 * time.Second

// ErrAlreadyInstalled is returned by Install after the first successful call.
var ErrAlreadyInstalled = errors.New("crash interceptor already installed")

// Presenter shows a crash to the user. Show must not block the caller beyond
// creating the dialog; dismissed is called exactly once with the user's choice.
type Presenter interface {
	Show(c *Context, dismissed func(Decision))
}

// Sink receives every crash before it is presented.
type Sink interface {
	Capture(c *Context)
	Flush(timeout time.Duration)
}

// Options configure an Interceptor. Only Lifecycle is required.
type Options struct {
	Lifecycle *lifecycle.Tracker
	Presenter Presenter
	// Standalone builds a loop-only application for crashes that happen
	// before the real application exists.
	Standalone   func() (lifecycle.Application, error)
	Sinks        []Sink
	Diagnostics  io.Writer
	Logger       *zerolog.Logger
	Exit         func(code int)
	FlushTimeout time.Duration
}

// Interceptor routes unhandled failures to the presenter matching the
// lifecycle state. It is safe for concurrent use.
type Interceptor struct {
	tracker      *lifecycle.Tracker
	presenter    Presenter
	standalone   func() (lifecycle.Application, error)
	sinks        []Sink
	diag         io.Writer
	logger       zerolog.Logger
	exit         func(int)
	flushTimeout time.Duration

	// handling is set from interception until the dialog is dismissed.
	handling atomic.Bool
	faulted  atomic.Bool
	loopDone atomic.Bool

	mu          sync.Mutex
	loopEntered bool
	pending     *handoff
}

// handoff carries an early crash from a worker goroutine to the goroutine
// that owns the event loop.
type handoff struct {
	c    *Context
	done chan struct{}
}

// New creates an Interceptor.
func New(opts Options) *Interceptor {
	i := &Interceptor{
		tracker:      opts.Lifecycle,
		presenter:    opts.Presenter,
		standalone:   opts.Standalone,
		sinks:        opts.Sinks,
		diag:         opts.Diagnostics,
		exit:         opts.Exit,
		flushTimeout: opts.FlushTimeout,
	}
	if i.tracker == nil {
		i.tracker = lifecycle.Default
	}
	if i.diag == nil {
		i.diag = stderrWriter{}
	}
	if i.exit == nil {
		i.exit = os.Exit
	}
	if i.flushTimeout <= 0 {
		i.flushTimeout = DefaultFlushTimeout
	}
	if opts.Logger != nil {
		i.logger = *opts.Logger
	} else {
		i.logger = logging.WithComponent("crash")
	}
	return i
}

// Handling reports whether a crash is currently being handled.
func (i *Interceptor) Handling() bool {
	return i.handling.Load()
}

// HandlePanic handles a value obtained from recover together with the stack
// captured at the recovery point. It may be called from any goroutine.
func (i *Interceptor) HandlePanic(r any, trace []byte) {
	kind, err := panicError(r)
	i.handle(kind, err, trace, false)
}

// HandleError handles an explicit fatal error from any goroutine.
func (i *Interceptor) HandleError(err error, trace []byte) {
	if err == nil {
		return
	}
	i.handle(KindError, err, trace, false)
}

// HandleMainPanic is HandlePanic for the goroutine that owns the event loop.
// Such a panic has unwound the loop, so the dialog gets a loop of its own.
func (i *Interceptor) HandleMainPanic(r any, trace []byte) {
	kind, err := panicError(r)
	i.handle(kind, err, trace, true)
}

// HandleMainError is HandleError for the goroutine that owns the event loop.
func (i *Interceptor) HandleMainError(err error, trace []byte) {
	if err == nil {
		return
	}
	i.handle(KindError, err, trace, true)
}

// Recover must be deferred directly: defer i.Recover().
func (i *Interceptor) Recover() {
	if r := recover(); r != nil {
		i.HandlePanic(r, debug.Stack())
	}
}

// Serve presents an early crash handed off by another goroutine, if one is
// waiting. It must be called from the goroutine that owns the event loop and
// reports whether a crash was presented.
func (i *Interceptor) Serve() bool {
	i.mu.Lock()
	h := i.pending
	i.pending = nil
	i.mu.Unlock()
	return i.serve(h)
}

// EnterLoop is called by the loop goroutine right before the event loop
// starts. Pending crashes are presented first; later early crashes are
// queued onto the loop instead of handed off. It reports whether a crash
// was presented, in which case the loop must not be started.
func (i *Interceptor) EnterLoop() bool {
	i.mu.Lock()
	h := i.pending
	i.pending = nil
	i.loopEntered = true
	i.mu.Unlock()
	return i.serve(h)
}

// LoopExited records that the event loop no longer dispatches work.
func (i *Interceptor) LoopExited() {
	i.loopDone.Store(true)
}

func (i *Interceptor) serve(h *handoff) bool {
	if h == nil {
		return false
	}
	defer close(h.done)
	defer func() {
		if r := recover(); r != nil {
			_, perr := panicError(r)
			i.doubleFault(perr, debug.Stack())
		}
	}()
	i.presentInline(h.c)
	return true
}

func (i *Interceptor) handle(kind Kind, err error, trace []byte, onLoop bool) {
	if !i.handling.CompareAndSwap(false, true) {
		i.doubleFault(err, trace)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			_, perr := panicError(r)
			i.doubleFault(perr, debug.Stack())
		}
	}()

	c := newContext(kind, err, trace, i.tracker)
	loopDone := i.loopDone.Load()
	c.LoopLost = c.HasStarted && (onLoop || loopDone)
	i.logger.Error().
		Str("event", "crash.intercepted").
		Str("crash_id", c.ID.String()).
		Str("kind", c.Kind.String()).
		Str("lifecycle", c.State.String()).
		Bool("on_loop", onLoop).
		Err(err).
		Msg("unhandled failure")
	i.capture(c)

	switch {
	case onLoop:
		i.presentInline(c)
	case c.State == lifecycle.Started && !loopDone:
		i.presentRunning(c, i.tracker.Application())
	case loopDone:
		// No goroutine is left to host a dialog.
		i.writeFallback(c)
		i.terminate(ExitCrash)
	default:
		i.handOff(c)
	}
}

// presentInline runs on the loop goroutine while no loop is dispatching.
func (i *Interceptor) presentInline(c *Context) {
	if app := i.tracker.Application(); app != nil {
		i.presentEarly(c, app)
		return
	}
	i.presentStandalone(c)
}

// handOff passes an early crash to the loop goroutine and blocks the caller.
// Once the loop goroutine has committed to starting the loop, the crash is
// queued onto the loop instead.
func (i *Interceptor) handOff(c *Context) {
	i.mu.Lock()
	if i.loopEntered {
		i.mu.Unlock()
		i.presentRunning(c, i.tracker.Application())
		return
	}
	h := &handoff{c: c, done: make(chan struct{})}
	i.pending = h
	i.mu.Unlock()

	i.logger.Info().Str("event", "crash.handoff").Str("crash_id", c.ID.String()).Msg("crash handed to the loop goroutine")
	<-h.done
}

// presentStandalone shows the dialog on a freshly built loop and exits once
// it is dismissed.
func (i *Interceptor) presentStandalone(c *Context) {
	if i.standalone == nil || i.presenter == nil {
		i.writeFallback(c)
		i.terminate(ExitCrash)
		return
	}
	host, err := i.standalone()
	if err != nil || host == nil {
		i.logger.Error().Err(err).Str("event", "crash.standalone_failed").Msg("cannot create crash dialog host")
		i.writeFallback(c)
		i.terminate(ExitCrash)
		return
	}
	i.presentEarly(c, host)
}

// presentEarly discards pending startup work, shows the early dialog and runs
// the loop only for it. The process exits with ExitCrash afterwards.
func (i *Interceptor) presentEarly(c *Context, host lifecycle.Application) {
	if host == nil || i.presenter == nil {
		i.writeFallback(c)
		i.terminate(ExitCrash)
		return
	}
	host.RemovePostedEvents()
	i.closeSplash()
	i.presenter.Show(c, func(d Decision) {
		i.logger.Info().Str("event", "crash.dismissed").Str("decision", d.String()).Msg("crash dialog dismissed")
		host.Quit()
	})
	host.Exec()
	i.terminate(ExitCrash)
}

// presentRunning marshals presentation onto the loop and returns without
// waiting. The user decides whether to continue unless the crash happened
// before the loop started, in which case dismissal exits.
func (i *Interceptor) presentRunning(c *Context, host lifecycle.Application) {
	if host == nil || i.presenter == nil {
		i.writeFallback(c)
		if c.CanContinue() {
			i.handling.Store(false)
			return
		}
		i.terminate(ExitCrash)
		return
	}
	if !c.CanContinue() {
		host.RemovePostedEvents()
	}
	host.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				_, perr := panicError(r)
				i.doubleFault(perr, debug.Stack())
			}
		}()
		i.closeSplash()
		i.presenter.Show(c, func(d Decision) {
			i.logger.Info().Str("event", "crash.dismissed").Str("decision", d.String()).Msg("crash dialog dismissed")
			if !c.CanContinue() {
				host.Quit()
				i.terminate(ExitCrash)
				return
			}
			i.flush()
			i.handling.Store(false)
			if d == DecisionQuit {
				host.Quit()
			}
		})
	})
}

func (i *Interceptor) closeSplash() {
	s := i.tracker.Splash()
	if s == nil {
		return
	}
	i.tracker.ClearSplash(s)
	s.Close()
}

// capture fans c out to every sink. A failing sink is logged and skipped.
func (i *Interceptor) capture(c *Context) {
	for _, s := range i.sinks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					i.logger.Warn().Str("event", "crash.sink_failed").Interface("panic", r).Msg("crash sink failed")
				}
			}()
			s.Capture(c)
		}()
	}
}

func (i *Interceptor) flush() {
	for _, s := range i.sinks {
		func() {
			defer func() { _ = recover() }()
			s.Flush(i.flushTimeout)
		}()
	}
}

func (i *Interceptor) terminate(code int) {
	i.flush()
	i.exit(code)
}

// doubleFault writes the second failure to the diagnostic stream and exits
// without presenting anything.
func (i *Interceptor) doubleFault(err error, trace []byte) {
	if !i.faulted.CompareAndSwap(false, true) {
		i.exit(ExitDoubleFault)
		return
	}
	_, _ = fmt.Fprintf(i.diag, "double fault while handling a crash: %v\n%s\n", err, trace)
	i.flush()
	i.exit(ExitDoubleFault)
}

func (i *Interceptor) writeFallback(c *Context) {
	_, _ = fmt.Fprintf(i.diag, "%s [%s, %s]: %s\n%s\n", c.Kind, c.State, c.ID, c.Message, c.Trace)
}

// stderrWriter resolves os.Stderr on every write so it follows redirection.
type stderrWriter struct{}

func (stderrWriter) Write(p []byte) (int, error) {
	return os.Stderr.Write(p)
}
