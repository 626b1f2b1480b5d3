package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/handspeak/internal/config"
	"github.com/ayusman/handspeak/internal/store"
)

func newSamplesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "samples",
		Short: "Show recorded training samples per label",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(cfg config.Config, st *store.Store) error {
				table, err := loadTable(cfg)
				if err != nil {
					return err
				}
				counts, err := st.Samples().CountByLabel()
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "INDEX\tSYMBOL\tSAMPLES")
				for _, e := range table.Entries() {
					fmt.Fprintf(w, "%d\t%s\t%d\n", e.Index, e.Symbol, counts[e.Index])
				}
				return w.Flush()
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <index>",
		Short: "Delete all samples recorded for a label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid label index %q", args[0])
			}
			return withStore(cmd, func(_ config.Config, st *store.Store) error {
				n, err := st.Samples().DeleteByLabel(index)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d samples for label %d\n", n, index)
				return nil
			})
		},
	})
	return cmd
}

// withStore opens the configured sample database for fn.
func withStore(cmd *cobra.Command, fn func(config.Config, *store.Store) error) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return fn(cfg, st)
}
