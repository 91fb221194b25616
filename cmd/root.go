// Package cmd wires the command-line interface.
package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/benthepsychologist/final-form/internal/config"
)

var (
	instrumentsPath string
	bindingsPath    string
	quiet           bool
	verbose         bool
	outputFormat    string
	outputFile      string
)

// exitFunc is swapped in tests.
var exitFunc = os.Exit

var rootCmd = &cobra.Command{
	Use:   "final-form",
	Short: "Score clinical questionnaire submissions",
	Long: `final-form converts raw form submissions into scored, interpreted
clinical measurements. Instruments (PHQ-9, GAD-7, and so on) and the
bindings that map form fields onto them are plain JSON specs in a local
registry; no scoring logic is compiled into the tool.

Use "final-form process" to score submissions, and the "instruments" and
"bindings" commands to inspect the registry.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		exitFunc(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&instrumentsPath, "instruments", "", "Instrument registry path (defaults to the registry under FINAL_FORM_HOME)")
	rootCmd.PersistentFlags().StringVar(&bindingsPath, "bindings", "", "Form binding registry path (defaults to the registry under FINAL_FORM_HOME)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "", "Output format for reports (console|json)")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "Output file for JSON reports")
}

// loadConfig layers explicit flags over the file and environment config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if instrumentsPath != "" {
		cfg.InstrumentRegistryPath = instrumentsPath
	}
	if bindingsPath != "" {
		cfg.BindingRegistryPath = bindingsPath
	}
	if outputFormat != "" {
		cfg.Format = outputFormat
	}
	if outputFile != "" {
		cfg.Output = outputFile
	}
	if quiet {
		cfg.Quiet = true
	}
	if verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	if quiet {
		level = zerolog.ErrorLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
