// Package output renders processing results for the terminal and for
// machine consumption.
package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/benthepsychologist/final-form/internal/diagnostics"
	"github.com/benthepsychologist/final-form/internal/event"
	"github.com/benthepsychologist/final-form/internal/pipeline"
)

// ConsoleFormatter renders results as a human-readable summary.
type ConsoleFormatter struct {
	w       io.Writer
	quiet   bool
	verbose bool
}

// NewConsoleFormatter creates a ConsoleFormatter writing to w.
func NewConsoleFormatter(w io.Writer, quiet, verbose bool) *ConsoleFormatter {
	return &ConsoleFormatter{w: w, quiet: quiet, verbose: verbose}
}

// Format renders all results followed by a one-line summary.
func (f *ConsoleFormatter) Format(results []*pipeline.ProcessingResult) error {
	if f.quiet {
		return nil
	}

	green := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	bold := lipgloss.NewStyle().Bold(true)

	var succeeded, partial, failed, totalEvents int

	for _, result := range results {
		var icon string
		switch result.Diagnostic.Status {
		case diagnostics.StatusSuccess:
			icon = green.Render("✓")
			succeeded++
		case diagnostics.StatusPartial:
			icon = yellow.Render("⚠")
			partial++
		default:
			icon = red.Render("✗")
			failed++
		}
		totalEvents += len(result.Events)

		fmt.Fprintf(f.w, "%s %s %s\n", icon, bold.Render(result.FormSubmissionID),
			dim.Render(string(result.Diagnostic.Status)))

		for _, ev := range result.Events {
			for _, obs := range ev.Observations {
				if obs.Kind != event.KindScale {
					continue
				}
				fmt.Fprintf(f.w, "    %s/%s: %s\n", ev.InstrumentID, obs.Code, scaleLine(obs))
			}
		}

		for _, e := range result.Diagnostic.Errors {
			fmt.Fprintf(f.w, "    %s\n", red.Render(fmt.Sprintf("%s [%s] %s", e.Stage, e.Code, e.Message)))
		}
		if f.verbose {
			for _, w := range result.Diagnostic.Warnings {
				fmt.Fprintf(f.w, "    %s\n", dim.Render(fmt.Sprintf("%s [%s] %s", w.Stage, w.Code, w.Message)))
			}
		}
	}

	fmt.Fprintf(f.w, "\n%d submission(s): %d succeeded, %d partial, %d failed, %d event(s)\n",
		len(results), succeeded, partial, failed, totalEvents)
	return nil
}

func scaleLine(obs event.Observation) string {
	if obs.Value == nil {
		if obs.Error != "" {
			return fmt.Sprintf("not scored (%s)", obs.Error)
		}
		return "not scored"
	}
	line := formatScore(*obs.Value)
	if obs.Prorated {
		line += " prorated"
	}
	if obs.Interpretation != nil {
		line += fmt.Sprintf(" (%s)", obs.Interpretation.Label)
	}
	return line
}

func formatScore(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
