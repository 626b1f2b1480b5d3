package symbol

// Gate filters classifier labels by mode. Calculator mode only lets through
// labels made of calculator characters plus the delete sentinel, so word
// gestures never leak into the expression.
type Gate struct {
	alphabet map[rune]bool
	delete   string
}

// NewGate creates a gate for the given calculator alphabet and delete sentinel.
// Empty arguments fall back to the defaults.
func NewGate(alphabet, deleteSymbol string) *Gate {
	if alphabet == "" {
		alphabet = DefaultCalculatorAlphabet
	}
	if deleteSymbol == "" {
		deleteSymbol = DefaultDelete
	}

	g := &Gate{
		alphabet: make(map[rune]bool, len(alphabet)),
		delete:   deleteSymbol,
	}
	for _, r := range alphabet {
		g.alphabet[r] = true
	}
	return g
}

// Delete returns the delete sentinel.
func (g *Gate) Delete() string {
	return g.delete
}

// IsCalculatorSymbol reports whether every character of label belongs to the
// calculator alphabet.
func (g *Gate) IsCalculatorSymbol(label string) bool {
	if label == "" {
		return false
	}
	for _, r := range label {
		if !g.alphabet[r] {
			return false
		}
	}
	return true
}

// Allow returns the label when it may reach the state machine in the given
// mode. Sentence mode accepts every non-empty label.
func (g *Gate) Allow(label string, mode Mode) (string, bool) {
	if label == "" {
		return "", false
	}
	if mode == ModeCalculator && label != g.delete && !g.IsCalculatorSymbol(label) {
		return "", false
	}
	return label, true
}
