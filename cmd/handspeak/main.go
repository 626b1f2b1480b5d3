// Command handspeak turns hand gestures seen by a webcam into spoken
// sentences and calculator expressions.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ayusman/handspeak/internal/config"
	"github.com/ayusman/handspeak/internal/symbol"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "handspeak",
		Short:         "HandSpeak - hand gestures to speech and arithmetic",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "config file (default handspeak.yaml in . or ~/.handspeak)")
	root.PersistentFlags().String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")

	root.AddCommand(
		newRunCmd(),
		newEvalCmd(),
		newLabelsCmd(),
		newSamplesCmd(),
	)
	return root
}

// loadConfig reads the configuration, letting the persistent flags and the
// given command flags override it. flags maps config keys to flag names.
func loadConfig(cmd *cobra.Command, flags map[string]string) (config.Config, error) {
	file, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}

	bound := map[string]*pflag.Flag{
		"log_level": cmd.Flags().Lookup("log-level"),
	}
	for key, name := range flags {
		bound[key] = cmd.Flags().Lookup(name)
	}

	return config.Loader{File: file, Flags: bound}.Load()
}

// loadTable returns the configured label table, or the built-in one.
func loadTable(cfg config.Config) (*symbol.Table, error) {
	if cfg.LabelsFile == "" {
		return symbol.DefaultTable(), nil
	}
	return symbol.LoadTable(cfg.LabelsFile)
}

func newGate(cfg config.Config) *symbol.Gate {
	return symbol.NewGate(cfg.Interaction.CalculatorAlphabet, cfg.Interaction.DeleteSymbol)
}
