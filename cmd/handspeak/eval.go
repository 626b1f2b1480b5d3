package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ayusman/handspeak/internal/calc"
)

func newEvalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an expression the way calculator mode builds it",
		Long: "Feeds the expression through the calculator input guards one\n" +
			"character at a time, then prints the guarded expression and its result.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr := guardedExpression(strings.Join(args, ""))
			res := calc.Live(expr)

			out := cmd.OutOrStdout()
			if !res.Attempted {
				fmt.Fprintln(out, expr)
				return nil
			}
			fmt.Fprintln(out, expr, res.String())
			return res.Err
		},
	}
}

// guardedExpression replays input through calc.AcceptToken, dropping
// characters the calculator would reject.
func guardedExpression(input string) string {
	var expr string
	for _, r := range input {
		if r == ' ' {
			continue
		}
		expr = calc.AcceptToken(expr, string(r))
	}
	return expr
}
