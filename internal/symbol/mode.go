// Package symbol defines the recognized symbol vocabulary, the input modes and
// the mode-dependent gate that filters classifier labels.
package symbol

import (
	"fmt"
	"strings"
)

// Mode selects which output buffer is active.
type Mode int

const (
	// ModeSentence builds a sentence from word tokens.
	ModeSentence Mode = iota
	// ModeCalculator builds an arithmetic expression.
	ModeCalculator
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeCalculator:
		return "calculator"
	default:
		return "sentence"
	}
}

// Label returns the human-readable label shown by display surfaces.
func (m Mode) Label() string {
	switch m {
	case ModeCalculator:
		return "Calculator Mode"
	default:
		return "Sentence Mode"
	}
}

// Other returns the mode a toggle switches to.
func (m Mode) Other() Mode {
	if m == ModeCalculator {
		return ModeSentence
	}
	return ModeCalculator
}

// ParseMode parses a mode name as produced by String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sentence", "":
		return ModeSentence, nil
	case "calculator", "calc":
		return ModeCalculator, nil
	default:
		return ModeSentence, fmt.Errorf("unknown mode %q", s)
	}
}
