// Package interaction turns the per-frame symbol stream into the sentence
// buffer or calculator expression, handling debounce, cooldown,
// hold-to-delete and cursor blinking.
package interaction

import "github.com/ayusman/handspeak/internal/symbol"

// State is the state the machine is in after a step.
type State int

const (
	// StateIdle means nothing was detected, or the symbol was not accepted.
	StateIdle State = iota
	// StateHoldingDelete means the delete gesture is being held.
	StateHoldingDelete
	// StateAccepting means a new symbol passed debounce and cooldown.
	StateAccepting
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateHoldingDelete:
		return "HOLDING_DELETE"
	case StateAccepting:
		return "ACCEPTING"
	default:
		return "IDLE"
	}
}

// Action is the buffer mutation performed by a step.
type Action int

const (
	ActionNone Action = iota
	ActionAppend
	ActionPop
	ActionClear
)

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionAppend:
		return "append"
	case ActionPop:
		return "pop"
	case ActionClear:
		return "clear"
	default:
		return "none"
	}
}

// Input is everything the transition table looks at.
type Input struct {
	Symbol          string
	Previous        string
	Delete          string
	Mode            symbol.Mode
	CooldownElapsed bool
}

// Classify maps an input to the state the machine enters. It is the
// transition table of the machine with all buffer effects stripped away.
//
// Calculator mode ignores the cooldown and only debounces against the
// previous frame.
func Classify(in Input) State {
	if in.Symbol == "" {
		return StateIdle
	}
	if in.Symbol == in.Delete {
		return StateHoldingDelete
	}
	if in.Symbol == in.Previous {
		return StateIdle
	}
	if in.Mode == symbol.ModeSentence && !in.CooldownElapsed {
		return StateIdle
	}
	return StateAccepting
}
