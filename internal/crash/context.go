// Package crash intercepts unhandled failures from any goroutine and presents
// them according to how far the application has come up.
package crash

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/zorak1103/bootguard/internal/lifecycle"
)

// Kind classifies an intercepted failure.
type Kind int

// Failure kinds.
const (
	// KindPanic is a recovered panic with a non-runtime value.
	KindPanic Kind = iota
	// KindError is an explicit fatal error passed to Report.
	KindError
	// KindFatal is a runtime error such as a nil dereference or an index out of range.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindPanic:
		return "panic"
	case KindError:
		return "error"
	case KindFatal:
		return "runtime error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Decision is the user's choice when dismissing a crash dialog.
type Decision int

// Dismissal decisions.
const (
	DecisionQuit Decision = iota
	DecisionContinue
)

func (d Decision) String() string {
	if d == DecisionContinue {
		return "continue"
	}
	return "quit"
}

// Context describes one intercepted failure. It is built once per crash and
// handed to every sink and to the presenter.
type Context struct {
	ID      uuid.UUID
	Time    time.Time
	Kind    Kind
	Err     error
	Message string
	Trace   string

	// State is the lifecycle state at interception time.
	State lifecycle.State
	// HasStarted reports whether the event loop was running.
	HasStarted bool
	// Splash reports whether a splash window was open.
	Splash bool
	// LoopLost is set when the failure unwound the event loop itself, so the
	// application cannot keep running after the dialog.
	LoopLost bool
}

// Early reports whether the failure happened before the event loop ran.
func (c *Context) Early() bool {
	return !c.HasStarted
}

// CanContinue reports whether the user may keep working after dismissal.
func (c *Context) CanContinue() bool {
	return c.HasStarted && !c.LoopLost
}

func newContext(kind Kind, err error, trace []byte, tracker *lifecycle.Tracker) *Context {
	c := &Context{
		ID:    uuid.New(),
		Time:  time.Now(),
		Kind:  kind,
		Err:   err,
		Trace: string(trace),
	}
	if err != nil {
		c.Message = err.Error()
	}
	if tracker != nil {
		c.State = tracker.State()
		c.HasStarted = tracker.HasStarted()
		c.Splash = tracker.Splash() != nil
	}
	return c
}

// panicError converts a recovered value into an error and its kind.
func panicError(r any) (Kind, error) {
	switch v := r.(type) {
	case runtime.Error:
		return KindFatal, v
	case error:
		return KindPanic, v
	case string:
		return KindPanic, errors.New(v)
	default:
		return KindPanic, fmt.Errorf("%v", v)
	}
}
