package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/handspeak/internal/symbol"
)

func newLabelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "labels",
		Short: "Print the label table and which labels each mode accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			table, err := loadTable(cfg)
			if err != nil {
				return err
			}
			gate := newGate(cfg)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "INDEX\tSYMBOL\tSENTENCE\tCALCULATOR")
			for _, e := range table.Entries() {
				_, sentence := gate.Allow(e.Symbol, symbol.ModeSentence)
				_, calculator := gate.Allow(e.Symbol, symbol.ModeCalculator)
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.Index, e.Symbol, yesNo(sentence), yesNo(calculator))
			}
			return w.Flush()
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
