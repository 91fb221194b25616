package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/benthepsychologist/final-form/internal/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate <spec files>",
	Short: "Validate instrument and binding spec files against their schemas",
	Long: `The validate command checks spec JSON files before they enter a
registry. The document's "type" field selects the schema: instrument_spec
or form_binding_spec.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(args)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(paths []string) error {
	validator, err := schema.NewValidator()
	if err != nil {
		return err
	}

	green := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	invalid := 0
	for _, path := range paths {
		issues, err := validateFile(validator, path)
		if err != nil {
			fmt.Printf("%s %s: %v\n", red.Render("✗"), path, err)
			invalid++
			continue
		}
		if len(issues) == 0 {
			if !quiet {
				fmt.Printf("%s %s\n", green.Render("✓"), path)
			}
			continue
		}
		invalid++
		fmt.Printf("%s %s\n", red.Render("✗"), path)
		for _, issue := range issues {
			fmt.Printf("    %s\n", issue)
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d file(s) failed validation", invalid, len(paths))
	}
	return nil
}

func validateFile(validator *schema.Validator, path string) ([]schema.Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return validator.ValidateDocument(doc)
}
