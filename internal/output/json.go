package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/benthepsychologist/final-form/internal/diagnostics"
	"github.com/benthepsychologist/final-form/internal/pipeline"
)

// JSONFormatter renders results as a single JSON report.
type JSONFormatter struct {
	w          io.Writer
	indent     bool
	outputFile string
}

// NewJSONFormatter creates a JSONFormatter. When outputFile is non-empty
// the report is written there instead of to w.
func NewJSONFormatter(w io.Writer, indent bool, outputFile string) *JSONFormatter {
	return &JSONFormatter{w: w, indent: indent, outputFile: outputFile}
}

// JSONReport is the complete report structure.
type JSONReport struct {
	Header  JSONHeader                   `json:"header"`
	Summary JSONSummary                  `json:"summary"`
	Results []*pipeline.ProcessingResult `json:"results"`
}

// JSONHeader contains report metadata.
type JSONHeader struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// JSONSummary contains aggregate counts across all submissions.
type JSONSummary struct {
	TotalSubmissions int `json:"total_submissions"`
	Succeeded        int `json:"succeeded"`
	Partial          int `json:"partial"`
	Failed           int `json:"failed"`
	TotalEvents      int `json:"total_events"`
}

// Format marshals all results into one report.
func (f *JSONFormatter) Format(results []*pipeline.ProcessingResult) error {
	report := JSONReport{
		Header: JSONHeader{
			Tool:      "final-form",
			Version:   "1.0.0",
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Summary: JSONSummary{TotalSubmissions: len(results)},
		Results: results,
	}
	for _, result := range results {
		switch result.Diagnostic.Status {
		case diagnostics.StatusSuccess:
			report.Summary.Succeeded++
		case diagnostics.StatusPartial:
			report.Summary.Partial++
		default:
			report.Summary.Failed++
		}
		report.Summary.TotalEvents += len(result.Events)
	}

	var data []byte
	var err error
	if f.indent {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	if f.outputFile != "" {
		if err := os.WriteFile(f.outputFile, data, 0644); err != nil {
			return fmt.Errorf("writing report to %s: %w", f.outputFile, err)
		}
		return nil
	}
	_, err = fmt.Fprintln(f.w, string(data))
	return err
}
