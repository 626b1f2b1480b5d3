// Package calc builds and evaluates the calculator-mode expression.
package calc

import "strings"

const operators = "+-*/"

// IsOperator reports whether token is one of the four arithmetic operators.
func IsOperator(token string) bool {
	return len(token) == 1 && strings.Contains(operators, token)
}

func isDigit(token string) bool {
	return len(token) == 1 && token[0] >= '0' && token[0] <= '9'
}

// EndsWithOperator reports whether the last character of expr is an operator.
func EndsWithOperator(expr string) bool {
	if expr == "" {
		return false
	}
	return IsOperator(expr[len(expr)-1:])
}

// trailingNumber returns the characters after the last operator.
func trailingNumber(expr string) string {
	if i := strings.LastIndexAny(expr, operators); i >= 0 {
		return expr[i+1:]
	}
	return expr
}

// AcceptToken returns the expression after appending token, or current
// unchanged when the token would break the expression:
//   - an operator needs a non-empty expression not already ending in one
//   - a dot is refused when the trailing numeric run already has one
//   - digits, "=", "(" and ")" are always appended
//
// Any other token is ignored. Deletion is not handled here.
func AcceptToken(current, token string) string {
	switch {
	case IsOperator(token):
		if current == "" || EndsWithOperator(current) {
			return current
		}
		return current + token
	case token == ".":
		if strings.Contains(trailingNumber(current), ".") {
			return current
		}
		return current + token
	case isDigit(token), token == "=", token == "(", token == ")":
		return current + token
	default:
		return current
	}
}

// TrimLast removes the last character of expr.
func TrimLast(expr string) string {
	if expr == "" {
		return expr
	}
	return expr[:len(expr)-1]
}
