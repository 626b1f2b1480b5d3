// Package tray provides the system tray surface for HandSpeak.
package tray

import (
	"context"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/handspeak/internal/app"
	"github.com/ayusman/handspeak/internal/symbol"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func() symbol.Mode
	onOpen   func()
	onQuit   func()
	mu       sync.RWMutex
	status   Status

	// Menu items stored for later updates
	menuMode   *systray.MenuItem
	menuText   *systray.MenuItem
	menuLast   *systray.MenuItem
	menuCamera *systray.MenuItem
}

// New creates a new Tray instance.
func New() *Tray {
	return &Tray{status: Describe(app.FrameReport{})}
}

// OnToggle sets the callback invoked by the mode menu item. It returns the
// new mode.
func (t *Tray) OnToggle(fn func() symbol.Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback invoked by the open display menu item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the tray loop.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("HandSpeak")
	systray.SetTooltip("HandSpeak gesture input")

	t.mu.Lock()
	st := t.status
	t.menuMode = systray.AddMenuItem(st.Mode, "Switch between sentence and calculator mode")
	systray.AddSeparator()

	t.menuText = systray.AddMenuItem(st.Text, "Current output")
	t.menuText.Disable()
	t.menuLast = systray.AddMenuItem(st.Last, "Last accepted token")
	t.menuLast.Disable()
	t.menuCamera = systray.AddMenuItem(st.Camera, "Camera status")
	t.menuCamera.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Display...", "Open the display in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit HandSpeak")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuMode.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle handles the mode menu item click.
func (t *Tray) handleToggle() {
	t.mu.RLock()
	callback := t.onToggle
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback()
	}
}

// handleOpen handles the open display menu item click.
func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Update applies a frame report to the menu.
func (t *Tray) Update(r app.FrameReport) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := Describe(r)
	if r.Token == "" || r.Action != "append" {
		next.Last = t.status.Last
	}
	if next == t.status {
		return
	}
	t.status = next

	if t.menuMode == nil {
		return
	}
	t.menuMode.SetTitle(next.Mode)
	t.menuText.SetTitle(next.Text)
	t.menuLast.SetTitle(next.Last)
	t.menuCamera.SetTitle(next.Camera)
}

// Status returns the text currently shown in the menu.
func (t *Tray) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Watch applies reports to the menu until ctx ends or reports closes.
func (t *Tray) Watch(ctx context.Context, reports <-chan app.FrameReport) {
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-reports:
			if !ok {
				return
			}
			t.Update(r)
		}
	}
}
