package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benthepsychologist/final-form/internal/registry"
	"github.com/benthepsychologist/final-form/internal/schema"
)

var bindingsCmd = &cobra.Command{
	Use:   "bindings",
	Short: "Inspect the form binding registry",
}

var bindingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered bindings and their versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newBindingRegistry()
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

var bindingsShowCmd = &cobra.Command{
	Use:   "show <binding-id> [version]",
	Short: "Print a validated form binding spec",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newBindingRegistry()
		if err != nil {
			return err
		}
		binding, err := getVersioned(args, reg.Get, reg.GetLatest)
		if err != nil {
			return err
		}
		return printJSON(binding)
	},
}

func init() {
	rootCmd.AddCommand(bindingsCmd)
	bindingsCmd.AddCommand(bindingsListCmd)
	bindingsCmd.AddCommand(bindingsShowCmd)
}

func newBindingRegistry() (*registry.BindingRegistry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	validator, err := schema.NewValidator()
	if err != nil {
		return nil, err
	}
	return registry.NewBindingRegistry(cfg.BindingRegistryPath, validator), nil
}
