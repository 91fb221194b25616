package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/benthepsychologist/final-form/internal/diagnostics"
	"github.com/benthepsychologist/final-form/internal/output"
	"github.com/benthepsychologist/final-form/internal/pipeline"
	"github.com/benthepsychologist/final-form/internal/spec"
)

var (
	bindingID        string
	bindingVersion   string
	deterministicIDs bool
	failFast         bool
)

var processCmd = &cobra.Command{
	Use:   "process [submission files or directories]",
	Short: "Score form submissions against a binding",
	Long: `The process command runs submissions through the full workflow:
field mapping, answer recoding, quality checks, scale scoring, severity
interpretation, and measurement-event assembly.

Each argument is a submission JSON file or a directory searched
recursively for *.json files. Results go to stdout in the configured
format; diagnostics never abort the batch, but the command exits
non-zero when any submission fails outright.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(args)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(&bindingID, "binding", "b", "", "Form binding ID (required)")
	processCmd.Flags().StringVar(&bindingVersion, "binding-version", "", "Binding version (defaults to latest)")
	processCmd.Flags().BoolVar(&deterministicIDs, "deterministic-ids", false, "Derive event IDs from content instead of random UUIDs")
	processCmd.Flags().BoolVar(&failFast, "fail-fast", false, "Treat absent form fields as hard errors")
	processCmd.MarkFlagRequired("binding")
}

func runProcess(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	paths, err := collectSubmissionFiles(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no submission files found in %v", args)
	}

	log := newLogger()
	orch, err := pipeline.New(pipeline.Config{
		InstrumentRegistryPath: cfg.InstrumentRegistryPath,
		BindingRegistryPath:    cfg.BindingRegistryPath,
		BindingID:              bindingID,
		BindingVersion:         bindingVersion,
		FailFast:               failFast,
		DeterministicIDs:       deterministicIDs,
		Logger:                 &log,
	})
	if err != nil {
		return err
	}

	var subs []*spec.Submission
	for _, path := range paths {
		sub, err := spec.LoadSubmission(path)
		if err != nil {
			return fmt.Errorf("loading submission %s: %w", path, err)
		}
		subs = append(subs, sub)
	}

	results := orch.ProcessBatch(subs)

	if err := output.NewOutputter(cfg, os.Stdout).Format(results); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	for _, result := range results {
		if result.Diagnostic.Status == diagnostics.StatusFailed {
			exitFunc(1)
			break
		}
	}
	return nil
}

// collectSubmissionFiles expands arguments into a sorted list of JSON
// files. Directories are searched recursively.
func collectSubmissionFiles(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(filepath.Join(arg, "**", "*.json"))
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", arg, err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)
	return paths, nil
}
