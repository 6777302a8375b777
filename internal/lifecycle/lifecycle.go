// Package lifecycle tracks how far the GUI host has come up. The crash
// interceptor reads it to decide how a failure can be shown to the user.
package lifecycle

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// State is the application lifecycle state. It only moves forward.
type State int32

// Lifecycle states.
const (
	Uninitialized State = iota
	Constructed
	Started
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Constructed:
		return "constructed"
	case Started:
		return "started"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ErrInvalidTransition is returned when a transition would move the state
// backwards or skip Constructed.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// Application is the part of the GUI host the crash path needs.
type Application interface {
	// RemovePostedEvents drops queued, not yet dispatched work.
	RemovePostedEvents()
	// Exec runs the event loop until Quit and returns its exit status.
	Exec() int
	// Do schedules fn on the event loop. It does not wait.
	Do(fn func())
	// Quit stops the event loop.
	Quit()
}

// Splash is a closable startup window.
type Splash interface {
	Close()
}

type appHolder struct{ app Application }

type splashHolder struct{ splash Splash }

// Tracker records the lifecycle state together with the application and the
// splash window. It is safe for concurrent use.
type Tracker struct {
	state  atomic.Int32
	app    atomic.Pointer[appHolder]
	splash atomic.Pointer[splashHolder]
}

// NewTracker returns a tracker in the Uninitialized state.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Default is the process-wide tracker used by the bootstrap.
var Default = NewTracker()

// MarkConstructed records that app exists. It must be called exactly once,
// from Uninitialized.
func (t *Tracker) MarkConstructed(app Application) error {
	if app == nil {
		return fmt.Errorf("%w: nil application", ErrInvalidTransition)
	}
	if !t.state.CompareAndSwap(int32(Uninitialized), int32(Constructed)) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.State(), Constructed)
	}
	t.app.Store(&appHolder{app: app})
	return nil
}

// MarkStarted records that the event loop has begun dispatching.
func (t *Tracker) MarkStarted() error {
	if !t.state.CompareAndSwap(int32(Constructed), int32(Started)) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.State(), Started)
	}
	return nil
}

// State returns the current state.
func (t *Tracker) State() State {
	return State(t.state.Load())
}

// IsConstructed reports whether the application object exists.
func (t *Tracker) IsConstructed() bool {
	return t.State() >= Constructed
}

// HasStarted reports whether the event loop is running.
func (t *Tracker) HasStarted() bool {
	return t.State() == Started
}

// Application returns the constructed application, or nil.
func (t *Tracker) Application() Application {
	if h := t.app.Load(); h != nil {
		return h.app
	}
	return nil
}

// SetSplash registers the splash window so the crash path can close it.
func (t *Tracker) SetSplash(s Splash) {
	if s == nil {
		t.splash.Store(nil)
		return
	}
	t.splash.Store(&splashHolder{splash: s})
}

// Splash returns the registered splash window, or nil.
func (t *Tracker) Splash() Splash {
	if h := t.splash.Load(); h != nil {
		return h.splash
	}
	return nil
}

// ClearSplash unregisters s if it is still the registered splash.
func (t *Tracker) ClearSplash(s Splash) {
	h := t.splash.Load()
	if h != nil && h.splash == s {
		t.splash.CompareAndSwap(h, nil)
	}
}
