package interaction

import (
	"strings"
	"sync"
	"time"

	"github.com/ayusman/handspeak/internal/calc"
	"github.com/ayusman/handspeak/internal/symbol"
)

// Default timing values.
const (
	DefaultDeleteHoldTime  = 5 * time.Second
	DefaultWordCooldown    = 1500 * time.Millisecond
	DefaultCursorBlinkTime = 500 * time.Millisecond
)

// Options configures a Machine.
type Options struct {
	// DeleteHoldTime is how long the delete gesture must be held to clear
	// the active buffer.
	DeleteHoldTime time.Duration
	// WordCooldown is the minimum time between two accepted sentence tokens.
	WordCooldown time.Duration
	// CursorBlinkTime is the cursor toggle period.
	CursorBlinkTime time.Duration
	// DeleteSymbol is the delete sentinel.
	DeleteSymbol string
	// Mode is the initial mode.
	Mode symbol.Mode
}

// DefaultOptions returns Options with the default timings.
func DefaultOptions() Options {
	return Options{
		DeleteHoldTime:  DefaultDeleteHoldTime,
		WordCooldown:    DefaultWordCooldown,
		CursorBlinkTime: DefaultCursorBlinkTime,
		DeleteSymbol:    symbol.DefaultDelete,
		Mode:            symbol.ModeSentence,
	}
}

// Event is one frame's detection. An empty Symbol means nothing was detected.
type Event struct {
	Symbol string
	At     time.Duration
}

// Detected reports whether the frame produced a symbol.
func (e Event) Detected() bool {
	return e.Symbol != ""
}

// Outcome describes what a single step did.
type Outcome struct {
	State  State
	Action Action
	// Token is the appended or popped token, if any.
	Token string
	Mode  symbol.Mode
}

// Speak returns the token to announce. Only tokens appended in sentence
// mode are spoken.
func (o Outcome) Speak() (string, bool) {
	if o.Mode == symbol.ModeSentence && o.Action == ActionAppend {
		return o.Token, true
	}
	return "", false
}

type debounce struct {
	lastSymbol string
	lastAccept time.Duration
	accepted   bool
	holdStart  time.Duration
	holding    bool
}

type cursor struct {
	visible    bool
	lastToggle time.Duration
}

// Machine owns the mode, both output buffers and all timing state. Step is
// meant to be driven by a single goroutine; the mutex only protects readers
// and mode changes coming from other goroutines.
type Machine struct {
	opts Options

	mu     sync.Mutex
	mode   symbol.Mode
	tokens []string
	expr   string
	db     debounce
	cursor cursor
	state  State
}

// NewMachine creates a Machine. Zero-valued options fall back to defaults.
func NewMachine(opts Options) *Machine {
	def := DefaultOptions()
	if opts.DeleteHoldTime <= 0 {
		opts.DeleteHoldTime = def.DeleteHoldTime
	}
	if opts.WordCooldown < 0 {
		opts.WordCooldown = 0
	}
	if opts.CursorBlinkTime <= 0 {
		opts.CursorBlinkTime = def.CursorBlinkTime
	}
	if opts.DeleteSymbol == "" {
		opts.DeleteSymbol = def.DeleteSymbol
	}

	return &Machine{
		opts:   opts,
		mode:   opts.Mode,
		cursor: cursor{visible: true},
	}
}

// Options returns the options in effect.
func (m *Machine) Options() Options {
	return m.opts
}

// Step advances the machine by one frame.
func (m *Machine) Step(ev Event) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := ev.At
	st := Classify(Input{
		Symbol:          ev.Symbol,
		Previous:        m.db.lastSymbol,
		Delete:          m.opts.DeleteSymbol,
		Mode:            m.mode,
		CooldownElapsed: !m.db.accepted || now-m.db.lastAccept >= m.opts.WordCooldown,
	})
	out := Outcome{State: st, Mode: m.mode}

	if st == StateHoldingDelete {
		if !m.db.holding {
			m.db.holding = true
			m.db.holdStart = now
		}
		if now-m.db.holdStart >= m.opts.DeleteHoldTime {
			if m.clearActive() {
				out.Action = ActionClear
			}
		} else if ev.Symbol != m.db.lastSymbol {
			if tok, ok := m.popActive(); ok {
				out.Action = ActionPop
				out.Token = tok
			}
		}
	} else {
		m.db.holding = false
		m.db.holdStart = 0

		if st == StateAccepting {
			m.accept(ev.Symbol, now, &out)
		}
	}

	m.db.lastSymbol = ev.Symbol
	m.blink(now)
	m.state = st

	return out
}

func (m *Machine) accept(sym string, now time.Duration, out *Outcome) {
	if m.mode == symbol.ModeCalculator {
		next := calc.AcceptToken(m.expr, sym)
		if next != m.expr {
			m.expr = next
			out.Action = ActionAppend
			out.Token = sym
		}
		return
	}

	m.tokens = append(m.tokens, sym)
	m.db.lastAccept = now
	m.db.accepted = true
	out.Action = ActionAppend
	out.Token = sym
}

// clearActive empties the active buffer and reports whether it held anything.
func (m *Machine) clearActive() bool {
	if m.mode == symbol.ModeCalculator {
		if m.expr == "" {
			return false
		}
		m.expr = ""
		return true
	}
	if len(m.tokens) == 0 {
		return false
	}
	m.tokens = nil
	return true
}

// popActive removes the last token or character of the active buffer.
func (m *Machine) popActive() (string, bool) {
	if m.mode == symbol.ModeCalculator {
		if m.expr == "" {
			return "", false
		}
		last := m.expr[len(m.expr)-1:]
		m.expr = calc.TrimLast(m.expr)
		return last, true
	}
	if len(m.tokens) == 0 {
		return "", false
	}
	last := m.tokens[len(m.tokens)-1]
	m.tokens = m.tokens[:len(m.tokens)-1]
	return last, true
}

func (m *Machine) blink(now time.Duration) {
	if now-m.cursor.lastToggle >= m.opts.CursorBlinkTime {
		m.cursor.visible = !m.cursor.visible
		m.cursor.lastToggle = now
	}
}

// Toggle switches to the other mode, discarding both buffers and all
// debounce and hold state.
func (m *Machine) Toggle() symbol.Mode {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mode = m.mode.Other()
	m.reset()
	return m.mode
}

// SetMode switches to mode if it differs from the current one, with the same
// reset as Toggle. It reports whether the mode changed.
func (m *Machine) SetMode(mode symbol.Mode) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mode == mode {
		return false
	}
	m.mode = mode
	m.reset()
	return true
}

func (m *Machine) reset() {
	m.tokens = nil
	m.expr = ""
	m.db = debounce{}
	m.state = StateIdle
}

// Mode returns the active mode.
func (m *Machine) Mode() symbol.Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Tokens returns a copy of the sentence buffer.
func (m *Machine) Tokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tokens...)
}

// Expression returns the calculator expression.
func (m *Machine) Expression() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expr
}

// Snapshot is the display view of the machine.
type Snapshot struct {
	Mode          symbol.Mode `json:"-"`
	ModeName      string      `json:"mode"`
	ModeLabel     string      `json:"mode_label"`
	Tokens        []string    `json:"tokens"`
	Expression    string      `json:"expression"`
	Text          string      `json:"text"`
	CursorVisible bool        `json:"cursor_visible"`
	Result        string      `json:"result"`
	State         string      `json:"state"`
}

// Snapshot returns the current display view. In calculator mode the live
// result is evaluated from the current expression.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Mode:          m.mode,
		ModeName:      m.mode.String(),
		ModeLabel:     m.mode.Label(),
		Tokens:        append([]string{}, m.tokens...),
		Expression:    m.expr,
		CursorVisible: m.cursor.visible,
		State:         m.state.String(),
	}

	if m.mode == symbol.ModeCalculator {
		s.Text = m.expr
		s.Result = calc.Live(m.expr).String()
		return s
	}

	c := " "
	if m.cursor.visible {
		c = "|"
	}
	s.Text = strings.Join(m.tokens, " ") + " " + c
	return s
}
