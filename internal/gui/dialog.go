package gui

import (
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/zorak1103/bootguard/internal/crash"
)

// CrashDialog presents crashes in a window of the current fyne application.
// It implements crash.Presenter.
type CrashDialog struct {
	appTitle string
	current  func() fyne.App
}

// NewCrashDialog creates a dialog presenter for an application named appTitle.
func NewCrashDialog(appTitle string) *CrashDialog {
	return &CrashDialog{appTitle: appTitle, current: fyne.CurrentApp}
}

// crashView holds the widgets of one dialog.
type crashView struct {
	window  fyne.Window
	message *widget.Label
	trace   *widget.TextGrid
	close   *widget.Button
	cont    *widget.Button
	quit    *widget.Button
	dismiss func(crash.Decision)
}

// Show implements crash.Presenter.
func (d *CrashDialog) Show(c *crash.Context, dismissed func(crash.Decision)) {
	fa := d.current()
	if fa == nil {
		dismissed(crash.DecisionQuit)
		return
	}
	v := d.build(fa, c, dismissed)
	v.window.Show()
}

// Title returns the window title for c.
func (d *CrashDialog) Title(c *crash.Context) string {
	if c.Early() {
		return fmt.Sprintf("%s can't start", d.appTitle)
	}
	return fmt.Sprintf("%s crashed", d.appTitle)
}

func (d *CrashDialog) build(fa fyne.App, c *crash.Context, dismissed func(crash.Decision)) *crashView {
	var once sync.Once
	v := &crashView{window: fa.NewWindow(d.Title(c))}
	v.dismiss = func(dec crash.Decision) {
		once.Do(func() { dismissed(dec) })
	}

	heading := widget.NewLabel(d.heading(c))
	heading.TextStyle = fyne.TextStyle{Bold: true}
	heading.Wrapping = fyne.TextWrapWord

	v.message = widget.NewLabel(fmt.Sprintf("%s: %s", c.Kind, c.Message))
	v.message.Wrapping = fyne.TextWrapWord

	details := widget.NewLabel(fmt.Sprintf("Crash ID %s, lifecycle %s", c.ID, c.State))

	v.trace = widget.NewTextGridFromString(c.Trace)
	scroll := container.NewScroll(v.trace)
	scroll.SetMinSize(fyne.NewSize(0, 300))

	var buttons *fyne.Container
	if !c.CanContinue() {
		v.close = widget.NewButton("Close", func() { v.finish(crash.DecisionQuit) })
		buttons = container.NewHBox(v.close)
		v.window.SetOnClosed(func() { v.dismiss(crash.DecisionQuit) })
	} else {
		v.cont = widget.NewButton("Continue", func() { v.finish(crash.DecisionContinue) })
		v.quit = widget.NewButton("Quit", func() { v.finish(crash.DecisionQuit) })
		buttons = container.NewHBox(v.cont, v.quit)
		v.window.SetOnClosed(func() { v.dismiss(crash.DecisionContinue) })
	}

	top := container.NewVBox(heading, v.message, details)
	v.window.SetContent(container.NewBorder(top, container.NewPadded(buttons), nil, nil, scroll))
	v.window.Resize(fyne.NewSize(720, 520))
	v.window.CenterOnScreen()
	return v
}

// finish records the decision before closing so the close handler sees it
// as already dismissed.
func (v *crashView) finish(dec crash.Decision) {
	v.dismiss(dec)
	v.window.Close()
}

func (d *CrashDialog) heading(c *crash.Context) string {
	if c.Early() {
		return fmt.Sprintf("A fatal error occurred while starting %s. The application will close.", d.appTitle)
	}
	if !c.CanContinue() {
		return fmt.Sprintf("An unexpected error occurred in %s. The application will close.", d.appTitle)
	}
	return fmt.Sprintf("An unexpected error occurred in %s. You can continue working or quit.", d.appTitle)
}
