package tray

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/handspeak/internal/app"
	"github.com/ayusman/handspeak/internal/capture"
	"github.com/ayusman/handspeak/internal/interaction"
	"github.com/ayusman/handspeak/internal/symbol"
)

func sentence(tokens ...string) interaction.Snapshot {
	return interaction.Snapshot{Mode: symbol.ModeSentence, Tokens: tokens}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name   string
		report app.FrameReport
		want   Status
	}{
		{
			name:   "empty sentence",
			report: app.FrameReport{Snapshot: sentence()},
			want:   Status{Mode: "Mode: Sentence Mode", Text: "(empty)", Last: "Last: none", Camera: "Camera: ok"},
		},
		{
			name:   "appended token",
			report: app.FrameReport{Snapshot: sentence("HELLO", "YOU"), Action: "append", Token: "YOU"},
			want:   Status{Mode: "Mode: Sentence Mode", Text: "HELLO YOU", Last: "Last: YOU", Camera: "Camera: ok"},
		},
		{
			name: "calculator with result",
			report: app.FrameReport{
				Snapshot: interaction.Snapshot{Mode: symbol.ModeCalculator, Expression: "3+4*2", Result: "= 11"},
				Camera:   capture.Health{Status: capture.StatusTransient},
			},
			want: Status{Mode: "Mode: Calculator Mode", Text: "3+4*2 = 11", Last: "Last: none", Camera: "Camera: read errors"},
		},
		{
			name:   "camera unavailable",
			report: app.FrameReport{Snapshot: sentence(), Camera: capture.Health{Status: capture.StatusUnavailable}},
			want:   Status{Mode: "Mode: Sentence Mode", Text: "(empty)", Last: "Last: none", Camera: "Camera: unavailable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.report); got != tt.want {
				t.Errorf("Describe() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDescribe_TruncatesLongText(t *testing.T) {
	tokens := strings.Fields(strings.Repeat("THANK YOU ", 10))
	st := Describe(app.FrameReport{Snapshot: sentence(tokens...)})

	if len(st.Text) != maxTextLen || !strings.HasPrefix(st.Text, "...") {
		t.Errorf("Text = %q (%d chars)", st.Text, len(st.Text))
	}
	if !strings.HasSuffix(st.Text, "THANK YOU") {
		t.Errorf("expected the end of the sentence to be kept, got %q", st.Text)
	}
}

func TestTray_UpdateKeepsLastToken(t *testing.T) {
	tr := New()

	tr.Update(app.FrameReport{Snapshot: sentence("HELLO"), Action: "append", Token: "HELLO"})
	tr.Update(app.FrameReport{Snapshot: sentence("HELLO"), Action: "none"})

	if got := tr.Status().Last; got != "Last: HELLO" {
		t.Errorf("Last = %q, want Last: HELLO", got)
	}

	// A deletion is not an accepted token.
	tr.Update(app.FrameReport{Snapshot: sentence(), Action: "pop", Token: "HELLO"})
	if got := tr.Status().Text; got != "(empty)" {
		t.Errorf("Text = %q, want (empty)", got)
	}
	if got := tr.Status().Last; got != "Last: HELLO" {
		t.Errorf("Last = %q, want Last: HELLO", got)
	}
}

func TestTray_Watch(t *testing.T) {
	tr := New()
	reports := make(chan app.FrameReport, 1)
	done := make(chan struct{})

	go func() {
		tr.Watch(context.Background(), reports)
		close(done)
	}()

	reports <- app.FrameReport{Snapshot: interaction.Snapshot{Mode: symbol.ModeCalculator, Expression: "7"}}
	close(reports)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch() did not return after the channel closed")
	}
	if got := tr.Status().Mode; got != "Mode: Calculator Mode" {
		t.Errorf("Mode = %q", got)
	}
}
