// Package diagnostics accumulates errors, warnings, and quality metrics
// across all processing stages into one diagnostic record per submission.
package diagnostics

// Status is the overall outcome of processing one submission.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Stage name constants. Every error and warning is tagged with the stage
// that produced it.
const (
	StageMapping        = "mapping"
	StageRecoding       = "recoding"
	StageValidation     = "validation"
	StageScoring        = "scoring"
	StageInterpretation = "interpretation"
	StageBuilding       = "building"
)

// Machine-readable diagnostic codes.
const (
	CodeUnmappedField      = "UNMAPPED_FIELD"
	CodeUnrecognizedAnswer = "UNRECOGNIZED_ANSWER"
	CodeOutOfRangeValue    = "OUT_OF_RANGE_VALUE"
	CodeScaleNotScored     = "SCALE_NOT_SCORED"
	CodeDivergentRange     = "DIVERGENT_RESPONSE_RANGE"
	CodeProratedScore      = "PRORATED_SCORE"
	CodeNoInterpretation   = "NO_INTERPRETATION"
	CodePipelineError      = "PIPELINE_ERROR"
)

// Error is a processing error tagged with its stage and code. Fatal
// errors aborted the submission; non-fatal ones (failed scales) let
// processing continue.
type Error struct {
	Stage   string `json:"stage"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal,omitempty"`
}

// Warning is a recoverable data-quality issue.
type Warning struct {
	Stage   string `json:"stage"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// QualityMetrics summarizes data quality for one instrument section.
type QualityMetrics struct {
	ItemsTotal      int      `json:"items_total"`
	ItemsPresent    int      `json:"items_present"`
	MissingItems    []string `json:"missing_items,omitempty"`
	OutOfRangeItems []string `json:"out_of_range_items,omitempty"`
	ProratedScales  []string `json:"prorated_scales,omitempty"`
}

// FormDiagnostic is the per-submission aggregate diagnostic record.
type FormDiagnostic struct {
	FormSubmissionID string                    `json:"form_submission_id"`
	FormID           string                    `json:"form_id"`
	BindingID        string                    `json:"binding_id"`
	BindingVersion   string                    `json:"binding_version"`
	Status           Status                    `json:"status"`
	Errors           []Error                   `json:"errors,omitempty"`
	Warnings         []Warning                 `json:"warnings,omitempty"`
	Quality          map[string]QualityMetrics `json:"quality,omitempty"`
}
