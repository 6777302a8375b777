// Package gui adapts a fyne application to the lifecycle the bootstrap and
// the crash interceptor work with.
package gui

import (
	"fmt"
	"slices"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
	"github.com/zorak1103/bootguard/internal/crash"
	"github.com/zorak1103/bootguard/internal/lifecycle"
	"github.com/zorak1103/bootguard/internal/logging"
)

// Options configure the application.
type Options struct {
	ID    string
	Title string
	// Args are the untouched command-line arguments.
	Args []string
	// ModulePath is the effective module search path.
	ModulePath []string
}

// Application is the GUI host. It implements lifecycle.Application.
type Application struct {
	fyne    fyne.App
	tracker *lifecycle.Tracker
	window  fyne.Window
	args    []string
	modules []string
	logger  zerolog.Logger

	mu      sync.Mutex
	started bool
	posted  []func()
}

// New builds the fyne application and its main window and marks tracker
// Constructed as the final step.
func New(opts Options, tracker *lifecycle.Tracker) (*Application, error) {
	return newApplication(app.NewWithID(opts.ID), opts, tracker)
}

func newApplication(fa fyne.App, opts Options, tracker *lifecycle.Tracker) (*Application, error) {
	if tracker == nil {
		tracker = lifecycle.Default
	}
	a := &Application{
		fyne:    fa,
		tracker: tracker,
		args:    slices.Clone(opts.Args),
		modules: slices.Clone(opts.ModulePath),
		logger:  logging.WithComponent("gui"),
	}

	a.window = fa.NewWindow(opts.Title)
	a.window.Resize(fyne.NewSize(1024, 768))
	a.window.CenterOnScreen()
	a.window.SetMaster()
	a.window.SetContent(container.NewCenter(widget.NewLabel(opts.Title)))

	fa.Lifecycle().SetOnStarted(a.onStarted)

	if err := tracker.MarkConstructed(a); err != nil {
		return nil, fmt.Errorf("register application: %w", err)
	}
	return a, nil
}

// onStarted runs on the loop thread once the event loop dispatches.
func (a *Application) onStarted() {
	if err := a.tracker.MarkStarted(); err != nil {
		a.logger.Debug().Err(err).Str("event", "gui.already_started").Msg("lifecycle already started")
	}

	a.mu.Lock()
	a.started = true
	tasks := a.posted
	a.posted = nil
	a.mu.Unlock()

	a.logger.Debug().Str("event", "gui.started").Int("posted", len(tasks)).Msg("event loop started")
	for _, task := range tasks {
		crash.Protect(task)
	}
}

// Post queues task to run on the loop thread once the loop has started. After
// the start it is scheduled immediately.
func (a *Application) Post(task func()) {
	a.mu.Lock()
	if !a.started {
		a.posted = append(a.posted, task)
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()
	a.Do(func() { crash.Protect(task) })
}

// Pending returns the number of queued tasks.
func (a *Application) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.posted)
}

// RemovePostedEvents implements lifecycle.Application.
func (a *Application) RemovePostedEvents() {
	a.mu.Lock()
	dropped := len(a.posted)
	a.posted = nil
	a.mu.Unlock()
	if dropped > 0 {
		a.logger.Debug().Str("event", "gui.posted_discarded").Int("count", dropped).Msg("discarded queued startup work")
	}
}

// Exec implements lifecycle.Application. It blocks until Quit.
func (a *Application) Exec() int {
	a.fyne.Run()
	return 0
}

// Do implements lifecycle.Application.
func (a *Application) Do(fn func()) {
	fyne.Do(fn)
}

// Quit implements lifecycle.Application.
func (a *Application) Quit() {
	a.fyne.Quit()
}

// Run shows the main window and runs the event loop.
func (a *Application) Run() int {
	a.window.Show()
	return a.Exec()
}

// Args returns the command-line arguments exactly as received.
func (a *Application) Args() []string {
	return slices.Clone(a.args)
}

// ModulePath returns the effective module search path.
func (a *Application) ModulePath() []string {
	return slices.Clone(a.modules)
}

// Fyne exposes the underlying fyne application.
func (a *Application) Fyne() fyne.App {
	return a.fyne
}

// NewStandalone builds a loop-only host for crashes that happen before the
// real application exists. Toolkit initialization failures are returned as
// errors.
func NewStandalone(id string) (host lifecycle.Application, err error) {
	defer func() {
		if r := recover(); r != nil {
			host, err = nil, fmt.Errorf("create standalone host: %v", r)
		}
	}()
	return newStandalone(app.NewWithID(id)), nil
}

func newStandalone(fa fyne.App) *Application {
	return &Application{
		fyne:    fa,
		tracker: lifecycle.NewTracker(),
		logger:  logging.WithComponent("gui"),
	}
}
