package tray

import (
	"strings"

	"github.com/ayusman/handspeak/internal/app"
	"github.com/ayusman/handspeak/internal/capture"
	"github.com/ayusman/handspeak/internal/symbol"
)

// maxTextLen truncates long sentences from the left in the menu.
const maxTextLen = 40

// Status is the text of each informational menu item.
type Status struct {
	Mode   string
	Text   string
	Last   string
	Camera string
}

// Describe renders a frame report as menu text.
func Describe(r app.FrameReport) Status {
	st := Status{
		Mode: "Mode: " + r.Snapshot.Mode.Label(),
		Last: "Last: none",
	}

	if r.Token != "" && r.Action == "append" {
		st.Last = "Last: " + r.Token
	}

	text := strings.TrimSpace(strings.Join(r.Tokens, " "))
	if r.Snapshot.Mode == symbol.ModeCalculator {
		text = strings.TrimSpace(r.Expression + " " + r.Result)
	}
	if text == "" {
		text = "(empty)"
	}
	if n := len(text); n > maxTextLen {
		text = "..." + text[n-maxTextLen+3:]
	}
	st.Text = text

	switch r.Camera.Status {
	case capture.StatusOK:
		st.Camera = "Camera: ok"
	case capture.StatusTransient:
		st.Camera = "Camera: read errors"
	default:
		st.Camera = "Camera: unavailable"
	}
	return st
}
