package calc

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrEval is the base error for expressions that cannot be evaluated.
	ErrEval = errors.New("invalid expression")

	// ErrDivisionByZero is returned when a divisor evaluates to zero.
	ErrDivisionByZero = fmt.Errorf("%w: division by zero", ErrEval)
)

// SyntaxError describes a malformed expression.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid expression at offset %d: %s", e.Pos, e.Msg)
}

// Unwrap lets errors.Is match ErrEval.
func (e *SyntaxError) Unwrap() error {
	return ErrEval
}

// Evaluate parses and evaluates an arithmetic expression made of decimal
// numbers, + - * /, unary signs and parentheses with the usual precedence.
// Trailing "=" characters are ignored so "3+4=" evaluates to 7.
func Evaluate(expr string) (float64, error) {
	expr = strings.TrimRight(expr, "=")
	p := &parser{src: expr}
	if p.src == "" {
		return 0, &SyntaxError{Pos: 0, Msg: "empty expression"}
	}

	v, err := p.expression()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.src) {
		return 0, &SyntaxError{Pos: p.pos, Msg: fmt.Sprintf("unexpected %q", p.src[p.pos])}
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: result out of range", ErrEval)
	}
	return v, nil
}

// parser is a recursive-descent parser over the grammar:
//
//	expression = term { ("+" | "-") term }
//	term       = unary { ("*" | "/") unary }
//	unary      = ("+" | "-") unary | primary
//	primary    = number | "(" expression ")"
type parser struct {
	src string
	pos int
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) expression() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.term()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *parser) term() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.unary()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			left *= right
			continue
		}
		if right == 0 {
			return 0, ErrDivisionByZero
		}
		left /= right
	}
}

func (p *parser) unary() (float64, error) {
	switch p.peek() {
	case '-':
		p.pos++
		v, err := p.unary()
		return -v, err
	case '+':
		p.pos++
		return p.unary()
	}
	return p.primary()
}

func (p *parser) primary() (float64, error) {
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		v, err := p.expression()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, &SyntaxError{Pos: p.pos, Msg: "missing closing parenthesis"}
		}
		p.pos++
		return v, nil
	case c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	case c == 0:
		return 0, &SyntaxError{Pos: p.pos, Msg: "unexpected end of expression"}
	default:
		return 0, &SyntaxError{Pos: p.pos, Msg: fmt.Sprintf("unexpected %q", c)}
	}
}

func (p *parser) number() (float64, error) {
	start := p.pos
	digits := 0
	dots := 0
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= '0' && c <= '9' {
			digits++
		} else if c == '.' {
			dots++
		} else {
			break
		}
		p.pos++
	}

	lit := p.src[start:p.pos]
	if digits == 0 || dots > 1 {
		return 0, &SyntaxError{Pos: start, Msg: fmt.Sprintf("malformed number %q", lit)}
	}
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0, &SyntaxError{Pos: start, Msg: fmt.Sprintf("malformed number %q", lit)}
	}
	return v, nil
}

// Result is the outcome of a live evaluation.
type Result struct {
	Attempted bool
	Value     float64
	Err       error
}

// Live evaluates expr for display. Evaluation is only attempted when expr is
// non-empty and does not end in an operator; expr itself is never modified.
func Live(expr string) Result {
	if expr == "" || EndsWithOperator(expr) {
		return Result{}
	}
	v, err := Evaluate(expr)
	return Result{Attempted: true, Value: v, Err: err}
}

// OK reports whether the evaluation produced a value.
func (r Result) OK() bool {
	return r.Attempted && r.Err == nil
}

// String renders the result the way the calculator display shows it:
// "= 11", "= Error" or "" when nothing was attempted.
func (r Result) String() string {
	if !r.Attempted {
		return ""
	}
	if r.Err != nil {
		return "= Error"
	}
	return "= " + FormatNumber(r.Value)
}

// FormatNumber formats v with the shortest exact decimal representation.
func FormatNumber(v float64) string {
	if v == 0 {
		// Avoid rendering "-0".
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
