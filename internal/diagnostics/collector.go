package diagnostics

import (
	"fmt"

	"github.com/benthepsychologist/final-form/internal/mapping"
	"github.com/benthepsychologist/final-form/internal/recoding"
	"github.com/benthepsychologist/final-form/internal/scoring"
	"github.com/benthepsychologist/final-form/internal/validation"
)

// Collector gathers diagnostics for a single submission as it moves
// through the pipeline. One collector per submission; not safe for
// concurrent use and not meant to be reused.
type Collector struct {
	formSubmissionID string
	formID           string
	bindingID        string
	bindingVersion   string

	errors   []Error
	warnings []Warning
	quality  map[string]QualityMetrics
	fatal    bool
}

// NewCollector starts an empty diagnostic record for one submission.
func NewCollector(formSubmissionID, formID, bindingID, bindingVersion string) *Collector {
	return &Collector{
		formSubmissionID: formSubmissionID,
		formID:           formID,
		bindingID:        bindingID,
		bindingVersion:   bindingVersion,
		quality:          make(map[string]QualityMetrics),
	}
}

// AddError records a non-fatal error for a stage.
func (c *Collector) AddError(stage, code, message string) {
	c.errors = append(c.errors, Error{Stage: stage, Code: code, Message: message})
}

// AddFatal records an error that aborted the submission.
func (c *Collector) AddFatal(stage, code, message string) {
	c.errors = append(c.errors, Error{Stage: stage, Code: code, Message: message, Fatal: true})
	c.fatal = true
}

// AddWarning records a recoverable data-quality issue.
func (c *Collector) AddWarning(stage, code, message string) {
	c.warnings = append(c.warnings, Warning{Stage: stage, Code: code, Message: message})
}

// CollectMapping records unmapped items as missing-data warnings.
func (c *Collector) CollectMapping(result *mapping.Result) {
	for _, section := range result.Sections {
		for _, itemID := range section.UnmappedItems() {
			c.AddWarning(StageMapping, CodeUnmappedField,
				fmt.Sprintf("%s/%s: no form field mapped", section.InstrumentID, itemID))
		}
	}
}

// CollectRecoding records unresolved answers as warnings.
func (c *Collector) CollectRecoding(result *recoding.Result) {
	for _, w := range result.Warnings {
		c.AddWarning(StageRecoding, CodeUnrecognizedAnswer,
			fmt.Sprintf("%s/%s: %s", w.InstrumentID, w.ItemID, w.Message))
	}
}

// CollectValidation records out-of-range values as warnings.
func (c *Collector) CollectValidation(result validation.Result) {
	for _, itemID := range result.OutOfRangeItems {
		c.AddWarning(StageValidation, CodeOutOfRangeValue,
			fmt.Sprintf("%s/%s: value outside declared scale bounds", result.InstrumentID, itemID))
	}
}

// CollectScoring records failed scales as non-fatal errors. Sibling
// scales keep their scores; the submission continues.
func (c *Collector) CollectScoring(result *scoring.Result) {
	for _, scale := range result.FailedScales() {
		c.AddError(StageScoring, CodeScaleNotScored,
			fmt.Sprintf("%s/%s: %s", result.InstrumentID, scale.ScaleID, scale.Err))
	}
	for _, scale := range result.Scales {
		for _, warning := range scale.Warnings {
			c.AddWarning(StageScoring, CodeDivergentRange,
				fmt.Sprintf("%s/%s: %s", result.InstrumentID, scale.ScaleID, warning))
		}
	}
}

// SetInstrumentQuality records quality metrics for an instrument. Latest
// write wins, so the pipeline can refresh prorated-scale lists after
// scoring completes.
func (c *Collector) SetInstrumentQuality(instrumentID string, metrics QualityMetrics) {
	c.quality[instrumentID] = metrics
}

// Finalize derives the overall status and returns the completed record.
// Status is failed when processing aborted or produced no events, partial
// when events exist alongside warnings or non-fatal errors, and success
// otherwise.
func (c *Collector) Finalize(eventsProduced int) FormDiagnostic {
	status := StatusSuccess
	switch {
	case c.fatal || eventsProduced == 0:
		status = StatusFailed
	case len(c.errors) > 0 || len(c.warnings) > 0:
		status = StatusPartial
	}

	quality := c.quality
	if len(quality) == 0 {
		quality = nil
	}

	return FormDiagnostic{
		FormSubmissionID: c.formSubmissionID,
		FormID:           c.formID,
		BindingID:        c.bindingID,
		BindingVersion:   c.bindingVersion,
		Status:           status,
		Errors:           c.errors,
		Warnings:         c.warnings,
		Quality:          quality,
	}
}
