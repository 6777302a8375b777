package gui

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/zorak1103/bootguard/internal/lifecycle"
)

// Splash is a startup window. It implements lifecycle.Splash.
type Splash struct {
	window fyne.Window
	once   sync.Once
}

// ShowSplash shows a borderless splash window where the driver supports one
// and registers it with the tracker.
func (a *Application) ShowSplash(text string) lifecycle.Splash {
	var w fyne.Window
	if drv, ok := a.fyne.Driver().(desktop.Driver); ok {
		w = drv.CreateSplashWindow()
	} else {
		w = a.fyne.NewWindow(text)
	}
	w.SetContent(container.NewCenter(widget.NewLabel(text)))
	w.Show()

	s := &Splash{window: w}
	a.tracker.SetSplash(s)
	return s
}

// Close closes the window once.
func (s *Splash) Close() {
	s.once.Do(s.window.Close)
}

// CloseSplash closes and unregisters the registered splash, if any.
func (a *Application) CloseSplash() {
	s := a.tracker.Splash()
	if s == nil {
		return
	}
	a.tracker.ClearSplash(s)
	s.Close()
}
