package interaction

import (
	"reflect"
	"testing"
	"time"

	"github.com/ayusman/handspeak/internal/symbol"
)

const del = symbol.DefaultDelete

func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func newTestMachine(mode symbol.Mode) *Machine {
	opts := DefaultOptions()
	opts.Mode = mode
	return NewMachine(opts)
}

// feed steps the machine through symbols at the given times.
func feed(m *Machine, symbols []string, times []float64) []Outcome {
	outs := make([]Outcome, len(symbols))
	for i := range symbols {
		outs[i] = m.Step(Event{Symbol: symbols[i], At: secs(times[i])})
	}
	return outs
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want State
	}{
		{"nothing detected", Input{Symbol: "", Delete: del}, StateIdle},
		{"delete held", Input{Symbol: del, Previous: del, Delete: del}, StateHoldingDelete},
		{"delete edge", Input{Symbol: del, Previous: "HELLO", Delete: del}, StateHoldingDelete},
		{"repeat of previous frame", Input{Symbol: "HELLO", Previous: "HELLO", Delete: del, CooldownElapsed: true}, StateIdle},
		{"new symbol, cooldown elapsed", Input{Symbol: "YES", Previous: "", Delete: del, CooldownElapsed: true}, StateAccepting},
		{"new symbol, cooldown running", Input{Symbol: "YES", Previous: "", Delete: del}, StateIdle},
		{"calculator ignores cooldown", Input{Symbol: "7", Previous: "", Delete: del, Mode: symbol.ModeCalculator}, StateAccepting},
		{"calculator repeat", Input{Symbol: "7", Previous: "7", Delete: del, Mode: symbol.ModeCalculator}, StateIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.in); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMachine_IdleStepsAreIdempotent(t *testing.T) {
	m := newTestMachine(symbol.ModeSentence)
	m.Step(Event{Symbol: "HELLO", At: 0})

	before := m.Tokens()
	dbBefore := m.db

	for i := 1; i <= 20; i++ {
		out := m.Step(Event{At: secs(float64(i) * 0.1)})
		if out.State != StateIdle || out.Action != ActionNone {
			t.Fatalf("step %d: expected idle no-op, got %v/%v", i, out.State, out.Action)
		}
	}

	if !reflect.DeepEqual(before, m.Tokens()) {
		t.Errorf("tokens changed: %v -> %v", before, m.Tokens())
	}
	// The first None clears lastSymbol; the timers must stay untouched.
	if m.db.lastAccept != dbBefore.lastAccept || m.db.accepted != dbBefore.accepted || m.db.holding {
		t.Errorf("debounce timers changed: %+v -> %+v", dbBefore, m.db)
	}
}

func TestMachine_Debounce(t *testing.T) {
	m := newTestMachine(symbol.ModeSentence)

	for i := 0; i < 50; i++ {
		m.Step(Event{Symbol: "HELLO", At: secs(float64(i) * 0.1)})
	}

	if got := m.Tokens(); !reflect.DeepEqual(got, []string{"HELLO"}) {
		t.Errorf("expected a single HELLO, got %v", got)
	}
}

func TestMachine_Debounce_Calculator(t *testing.T) {
	m := newTestMachine(symbol.ModeCalculator)

	for i := 0; i < 10; i++ {
		m.Step(Event{Symbol: "7", At: secs(float64(i) * 0.03)})
	}
	if got := m.Expression(); got != "7" {
		t.Fatalf("expected 7, got %q", got)
	}

	// A None frame re-arms the same symbol, with no cooldown in calculator mode.
	m.Step(Event{At: secs(0.31)})
	m.Step(Event{Symbol: "7", At: secs(0.34)})
	if got := m.Expression(); got != "77" {
		t.Errorf("expected 77, got %q", got)
	}
}

func TestMachine_Cooldown(t *testing.T) {
	m := newTestMachine(symbol.ModeSentence)

	out := m.Step(Event{Symbol: "HELLO", At: secs(0)})
	if out.Action != ActionAppend {
		t.Fatalf("expected first token accepted, got %v", out.Action)
	}

	out = m.Step(Event{Symbol: "YES", At: secs(1.0)})
	if out.Action != ActionNone || out.State != StateIdle {
		t.Errorf("expected YES rejected inside cooldown, got %v/%v", out.State, out.Action)
	}

	m.Step(Event{At: secs(1.2)})
	out = m.Step(Event{Symbol: "YES", At: secs(1.5)})
	if out.Action != ActionAppend {
		t.Errorf("expected YES accepted once cooldown elapsed, got %v", out.Action)
	}

	if got := m.Tokens(); !reflect.DeepEqual(got, []string{"HELLO", "YES"}) {
		t.Errorf("tokens = %v", got)
	}
}

func TestMachine_HoldDeleteClears(t *testing.T) {
	for _, mode := range []symbol.Mode{symbol.ModeSentence, symbol.ModeCalculator} {
		t.Run(mode.String(), func(t *testing.T) {
			m := newTestMachine(mode)

			// Build up some content, spaced past the cooldown.
			syms := []string{"1", "", "2", "", "3"}
			times := []float64{0, 2, 4, 6, 8}
			if mode == symbol.ModeSentence {
				syms = []string{"HELLO", "", "YES", "", "NO"}
			}
			feed(m, syms, times)

			start := 10.0
			var sawClear bool
			for tm := start; tm <= start+5.0+1e-9; tm += 0.1 {
				out := m.Step(Event{Symbol: del, At: secs(tm)})
				if out.State != StateHoldingDelete {
					t.Fatalf("expected HOLDING_DELETE at %.1f, got %v", tm, out.State)
				}
				if out.Action == ActionClear {
					sawClear = true
				}
			}
			// One exact step at the threshold to avoid float accumulation.
			out := m.Step(Event{Symbol: del, At: secs(start + 5.0)})
			if out.Action == ActionClear {
				sawClear = true
			}

			if !sawClear {
				t.Error("expected a clear action")
			}
			if len(m.Tokens()) != 0 || m.Expression() != "" {
				t.Errorf("expected empty buffer, got tokens=%v expr=%q", m.Tokens(), m.Expression())
			}

			// Continued hold on an empty buffer is a no-op.
			out = m.Step(Event{Symbol: del, At: secs(start + 6)})
			if out.Action != ActionNone {
				t.Errorf("expected no-op while holding on empty buffer, got %v", out.Action)
			}
		})
	}
}

func TestMachine_ShortDeletePopsOnce(t *testing.T) {
	t.Run("sentence", func(t *testing.T) {
		m := newTestMachine(symbol.ModeSentence)
		feed(m, []string{"HELLO", "", "YES"}, []float64{0, 1, 2})

		var pops int
		for i := 0; i < 10; i++ {
			out := m.Step(Event{Symbol: del, At: secs(3 + float64(i)*0.1)})
			if out.Action == ActionPop {
				pops++
				if out.Token != "YES" {
					t.Errorf("expected YES popped, got %q", out.Token)
				}
			}
		}
		if pops != 1 {
			t.Errorf("expected exactly one pop, got %d", pops)
		}
		if got := m.Tokens(); !reflect.DeepEqual(got, []string{"HELLO"}) {
			t.Errorf("tokens = %v", got)
		}
	})

	t.Run("calculator", func(t *testing.T) {
		m := newTestMachine(symbol.ModeCalculator)
		feed(m, []string{"1", "+", "2"}, []float64{0, 0.1, 0.2})

		for i := 0; i < 10; i++ {
			m.Step(Event{Symbol: del, At: secs(1 + float64(i)*0.1)})
		}
		if got := m.Expression(); got != "1+" {
			t.Errorf("expected 1+, got %q", got)
		}
	})

	t.Run("release re-arms pop", func(t *testing.T) {
		m := newTestMachine(symbol.ModeCalculator)
		feed(m, []string{"1", "2", "3"}, []float64{0, 0.1, 0.2})

		feed(m, []string{del, del, "", del}, []float64{1, 1.1, 1.2, 1.3})
		if got := m.Expression(); got != "1" {
			t.Errorf("expected 1 after two delete edges, got %q", got)
		}
	})

	t.Run("pop on empty buffer", func(t *testing.T) {
		m := newTestMachine(symbol.ModeSentence)
		out := m.Step(Event{Symbol: del, At: 0})
		if out.Action != ActionNone {
			t.Errorf("expected no action on empty buffer, got %v", out.Action)
		}
	})
}

func TestMachine_HoldTimerResetsOnRelease(t *testing.T) {
	opts := DefaultOptions()
	opts.DeleteHoldTime = time.Second
	m := NewMachine(opts)
	feed(m, []string{"HELLO", "", "YES", "", "NO"}, []float64{0, 1, 2, 3, 4})

	// 0.9s of holding, then release, then 0.9s again: never reaches 1s.
	feed(m, []string{del, del, "", del, del}, []float64{5, 5.9, 6, 6.1, 7.0})
	if got := m.Tokens(); !reflect.DeepEqual(got, []string{"HELLO"}) {
		t.Errorf("expected two pops and no clear, got %v", got)
	}
}

func TestMachine_CalculatorGuards(t *testing.T) {
	m := newTestMachine(symbol.ModeCalculator)
	syms := []string{"5", "+", "", "+", "3", ".", "", ".", "*", "2"}
	times := make([]float64, len(syms))
	for i := range times {
		times[i] = float64(i) * 0.05
	}
	feed(m, syms, times)

	if got := m.Expression(); got != "5+3.*2" {
		t.Errorf("expected 5+3.*2, got %q", got)
	}

	snap := m.Snapshot()
	if snap.Result != "= 11" {
		t.Errorf("expected live result = 11, got %q", snap.Result)
	}
}

func TestMachine_CalculatorOutcomeNotSpoken(t *testing.T) {
	m := newTestMachine(symbol.ModeCalculator)
	out := m.Step(Event{Symbol: "4", At: 0})
	if out.Action != ActionAppend {
		t.Fatalf("expected append, got %v", out.Action)
	}
	if _, ok := out.Speak(); ok {
		t.Error("calculator tokens should not be spoken")
	}
}

func TestMachine_Toggle(t *testing.T) {
	m := newTestMachine(symbol.ModeSentence)
	feed(m, []string{"HELLO", del}, []float64{0, 0.5})
	m.Step(Event{Symbol: "YES", At: secs(2)})

	if mode := m.Toggle(); mode != symbol.ModeCalculator {
		t.Fatalf("expected calculator mode, got %v", mode)
	}
	if len(m.Tokens()) != 0 || m.Expression() != "" {
		t.Fatal("toggle must clear both buffers")
	}
	if m.db != (debounce{}) {
		t.Errorf("toggle must reset debounce state, got %+v", m.db)
	}

	feed(m, []string{"1", "+", "2"}, []float64{3, 3.1, 3.2})
	m.Step(Event{Symbol: del, At: secs(3.3)})

	if mode := m.Toggle(); mode != symbol.ModeSentence {
		t.Fatalf("expected sentence mode, got %v", mode)
	}
	if len(m.Tokens()) != 0 || m.Expression() != "" || m.db != (debounce{}) {
		t.Error("second toggle must reset everything")
	}

	// The cooldown does not carry over: YES is accepted immediately.
	out := m.Step(Event{Symbol: "YES", At: secs(3.4)})
	if out.Action != ActionAppend {
		t.Errorf("expected YES accepted after toggle, got %v", out.Action)
	}
}

func TestMachine_SetMode(t *testing.T) {
	m := newTestMachine(symbol.ModeSentence)
	m.Step(Event{Symbol: "HELLO", At: 0})

	if m.SetMode(symbol.ModeSentence) {
		t.Error("SetMode to the same mode should report no change")
	}
	if len(m.Tokens()) != 1 {
		t.Error("SetMode to the same mode must not clear")
	}
	if !m.SetMode(symbol.ModeCalculator) {
		t.Error("expected mode change")
	}
	if len(m.Tokens()) != 0 {
		t.Error("mode change must clear the buffer")
	}
}

func TestMachine_CursorBlink(t *testing.T) {
	m := newTestMachine(symbol.ModeSentence)

	if !m.Snapshot().CursorVisible {
		t.Fatal("cursor should start visible")
	}

	m.Step(Event{At: secs(0.2)})
	if !m.Snapshot().CursorVisible {
		t.Error("cursor should not toggle before the blink period")
	}

	m.Step(Event{At: secs(0.5)})
	snap := m.Snapshot()
	if snap.CursorVisible {
		t.Error("cursor should toggle after the blink period")
	}
	if snap.Text != "  " {
		t.Errorf("expected hidden cursor text, got %q", snap.Text)
	}

	m.Step(Event{At: secs(0.8)})
	if m.Snapshot().CursorVisible {
		t.Error("cursor should wait a full period from the last toggle")
	}
	m.Step(Event{At: secs(1.0)})
	if !m.Snapshot().CursorVisible {
		t.Error("cursor should toggle back")
	}
}

func TestMachine_SentenceScenario(t *testing.T) {
	m := newTestMachine(symbol.ModeSentence)

	outs := feed(m,
		[]string{"HELLO", "", "HELLO", "", "YES"},
		[]float64{0, 0.1, 0.3, 0.4, 2.0},
	)

	if got := m.Tokens(); !reflect.DeepEqual(got, []string{"HELLO", "YES"}) {
		t.Fatalf("tokens = %v, want [HELLO YES]", got)
	}

	var spoken []string
	for _, o := range outs {
		if tok, ok := o.Speak(); ok {
			spoken = append(spoken, tok)
		}
	}
	if !reflect.DeepEqual(spoken, []string{"HELLO", "YES"}) {
		t.Errorf("spoken = %v, want [HELLO YES]", spoken)
	}

	if outs[2].State != StateIdle {
		t.Errorf("second HELLO should be rejected by cooldown, got %v", outs[2].State)
	}
}

func TestMachine_Snapshot(t *testing.T) {
	m := newTestMachine(symbol.ModeSentence)
	feed(m, []string{"I", "", "LOVE", "", "YOU"}, []float64{0, 0.1, 1.6, 1.7, 3.2})

	snap := m.Snapshot()
	if snap.ModeName != "sentence" || snap.ModeLabel != "Sentence Mode" {
		t.Errorf("unexpected mode in snapshot: %+v", snap)
	}
	if snap.Result != "" {
		t.Errorf("sentence mode should have no result, got %q", snap.Result)
	}
	want := "I LOVE YOU "
	if snap.Text[:len(want)] != want {
		t.Errorf("text = %q, want prefix %q", snap.Text, want)
	}

	m.Toggle()
	feed(m, []string{"5", "/", "0"}, []float64{4, 4.1, 4.2})
	snap = m.Snapshot()
	if snap.Text != "5/0" || snap.Result != "= Error" {
		t.Errorf("calculator snapshot = %+v", snap)
	}
	if m.Expression() != "5/0" {
		t.Error("failed evaluation must not modify the expression")
	}
}
