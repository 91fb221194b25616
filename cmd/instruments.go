package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/benthepsychologist/final-form/internal/registry"
	"github.com/benthepsychologist/final-form/internal/schema"
)

var instrumentsCmd = &cobra.Command{
	Use:   "instruments",
	Short: "Inspect the instrument registry",
}

var instrumentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered instruments and their versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newInstrumentRegistry()
		if err != nil {
			return err
		}
		ids, err := reg.List()
		if err != nil {
			return err
		}
		for _, id := range ids {
			versions, err := reg.ListVersions(id)
			if err != nil {
				return err
			}
			fmt.Printf("%s %v\n", id, versions)
		}
		return nil
	},
}

var instrumentsShowCmd = &cobra.Command{
	Use:   "show <instrument-id> [version]",
	Short: "Print a validated instrument spec",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newInstrumentRegistry()
		if err != nil {
			return err
		}
		instrument, err := getVersioned(args, reg.Get, reg.GetLatest)
		if err != nil {
			return err
		}
		return printJSON(instrument)
	},
}

func init() {
	rootCmd.AddCommand(instrumentsCmd)
	instrumentsCmd.AddCommand(instrumentsListCmd)
	instrumentsCmd.AddCommand(instrumentsShowCmd)
}

func newInstrumentRegistry() (*registry.InstrumentRegistry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	validator, err := schema.NewValidator()
	if err != nil {
		return nil, err
	}
	return registry.NewInstrumentRegistry(cfg.InstrumentRegistryPath, validator), nil
}

// getVersioned dispatches to Get or GetLatest depending on whether a
// version argument was given.
func getVersioned[T any](args []string, get func(string, string) (T, error), latest func(string) (T, error)) (T, error) {
	if len(args) == 2 {
		return get(args[0], args[1])
	}
	return latest(args[0])
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
