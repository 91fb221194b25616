// Package pipeline orchestrates the full processing workflow for form
// submissions: mapping, recoding, validation, scoring, interpretation,
// and event assembly, with diagnostics collected throughout. A stage
// failure never escapes Process; it is converted into a fatal diagnostic
// and any events completed before the failure are kept.
package pipeline

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/benthepsychologist/final-form/internal/diagnostics"
	"github.com/benthepsychologist/final-form/internal/event"
	"github.com/benthepsychologist/final-form/internal/interpretation"
	"github.com/benthepsychologist/final-form/internal/mapping"
	"github.com/benthepsychologist/final-form/internal/recoding"
	"github.com/benthepsychologist/final-form/internal/registry"
	"github.com/benthepsychologist/final-form/internal/schema"
	"github.com/benthepsychologist/final-form/internal/scoring"
	"github.com/benthepsychologist/final-form/internal/spec"
	"github.com/benthepsychologist/final-form/internal/validation"
)

// Config holds orchestrator settings.
type Config struct {
	InstrumentRegistryPath string
	BindingRegistryPath    string
	BindingID              string
	// BindingVersion selects a binding version; empty means latest.
	BindingVersion   string
	FailFast         bool
	DeterministicIDs bool
	// Logger is optional; nil disables logging.
	Logger *zerolog.Logger
}

// ProcessingResult is the outcome of processing one submission.
type ProcessingResult struct {
	FormSubmissionID string                     `json:"form_submission_id"`
	Events           []*event.MeasurementEvent  `json:"events"`
	Diagnostic       diagnostics.FormDiagnostic `json:"diagnostic"`
}

// Success reports whether processing completed without any diagnostics.
func (r *ProcessingResult) Success() bool {
	return r.Diagnostic.Status == diagnostics.StatusSuccess
}

// Orchestrator runs submissions through the processing stages. It is
// bound to one form binding and its instrument specs, resolved at
// construction; safe for concurrent use across submissions.
type Orchestrator struct {
	binding     *spec.FormBindingSpec
	instruments map[string]*spec.InstrumentSpec

	mapper      *mapping.Mapper
	recoder     *recoding.Recoder
	validator   *validation.Validator
	engine      *scoring.Engine
	interpreter *interpretation.Interpreter
	builder     *event.Builder
	log         zerolog.Logger
}

// New builds an orchestrator by resolving the binding and all referenced
// instrument specs from the registries.
func New(cfg Config) (*Orchestrator, error) {
	schemaValidator, err := schema.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("compiling schemas: %w", err)
	}

	bindings := registry.NewBindingRegistry(cfg.BindingRegistryPath, schemaValidator)
	var binding *spec.FormBindingSpec
	if cfg.BindingVersion == "" {
		binding, err = bindings.GetLatest(cfg.BindingID)
	} else {
		binding, err = bindings.Get(cfg.BindingID, cfg.BindingVersion)
	}
	if err != nil {
		return nil, fmt.Errorf("loading binding %s: %w", cfg.BindingID, err)
	}

	instruments := registry.NewInstrumentRegistry(cfg.InstrumentRegistryPath, schemaValidator)
	specs := make(map[string]*spec.InstrumentSpec, len(binding.Sections))
	for _, section := range binding.Sections {
		var instrument *spec.InstrumentSpec
		if section.InstrumentVersion == "" {
			instrument, err = instruments.GetLatest(section.InstrumentID)
		} else {
			instrument, err = instruments.Get(section.InstrumentID, section.InstrumentVersion)
		}
		if err != nil {
			return nil, fmt.Errorf("loading instrument %s: %w", section.InstrumentID, err)
		}
		specs[section.InstrumentID] = instrument
	}

	return NewWithSpecs(cfg, binding, specs), nil
}

// NewWithSpecs builds an orchestrator from already-loaded specs. Used by
// tests and by callers that manage registries themselves.
func NewWithSpecs(cfg Config, binding *spec.FormBindingSpec, instruments map[string]*spec.InstrumentSpec) *Orchestrator {
	var mapperOpts []mapping.Option
	if cfg.FailFast {
		mapperOpts = append(mapperOpts, mapping.WithFailFast(true))
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	return &Orchestrator{
		binding:     binding,
		instruments: instruments,
		mapper:      mapping.NewMapper(mapperOpts...),
		recoder:     recoding.NewRecoder(),
		validator:   validation.NewValidator(),
		engine:      scoring.NewEngine(),
		interpreter: interpretation.NewInterpreter(),
		builder:     event.NewBuilder(event.WithDeterministicIDs(cfg.DeterministicIDs)),
		log:         log,
	}
}

// Process runs one submission through every stage. It never returns an
// error: stage failures and panics become fatal diagnostics, and the
// result always carries a complete diagnostic record plus whatever
// events were assembled before the failure.
func (o *Orchestrator) Process(sub *spec.Submission) (res *ProcessingResult) {
	col := diagnostics.NewCollector(sub.FormSubmissionID, sub.FormID, o.binding.BindingID, o.binding.Version)
	var events []*event.MeasurementEvent

	defer func() {
		if r := recover(); r != nil {
			col.AddFatal(diagnostics.StageBuilding, diagnostics.CodePipelineError,
				fmt.Sprintf("unexpected failure: %v", r))
			res = o.finish(sub, col, events)
		}
	}()

	mapped, err := o.mapper.Map(sub, o.binding, o.instruments)
	if err != nil {
		col.AddFatal(diagnostics.StageMapping, diagnostics.CodePipelineError, err.Error())
		return o.finish(sub, col, events)
	}
	col.CollectMapping(mapped)

	recoded, err := o.recoder.Recode(mapped, o.instruments)
	if err != nil {
		col.AddFatal(diagnostics.StageRecoding, diagnostics.CodePipelineError, err.Error())
		return o.finish(sub, col, events)
	}
	col.CollectRecoding(recoded)

	for i := range recoded.Sections {
		section := &recoded.Sections[i]
		instrument := o.instruments[section.InstrumentID]
		warnings := sectionWarnings(mapped, recoded, section.InstrumentID)

		quality := o.validator.Validate(section, instrument)
		col.CollectValidation(quality)
		for _, itemID := range quality.OutOfRangeItems {
			warnings = append(warnings, fmt.Sprintf("%s: %s outside declared scale bounds",
				diagnostics.CodeOutOfRangeValue, itemID))
		}

		scores := o.engine.Score(section, instrument)
		col.CollectScoring(scores)
		for _, scaleID := range scores.ProratedScales() {
			col.AddWarning(diagnostics.StageScoring, diagnostics.CodeProratedScore,
				fmt.Sprintf("%s/%s: score prorated for missing items", section.InstrumentID, scaleID))
			warnings = append(warnings, fmt.Sprintf("%s: %s", diagnostics.CodeProratedScore, scaleID))
		}

		col.SetInstrumentQuality(section.InstrumentID, diagnostics.QualityMetrics{
			ItemsTotal:      len(section.Items),
			ItemsPresent:    section.PresentCount(),
			MissingItems:    quality.MissingItems,
			OutOfRangeItems: quality.OutOfRangeItems,
			ProratedScales:  scores.ProratedScales(),
		})

		interpreted := o.interpreter.Interpret(scores, instrument)
		for _, scaleID := range interpreted.Unmatched {
			col.AddWarning(diagnostics.StageInterpretation, diagnostics.CodeNoInterpretation,
				fmt.Sprintf("%s/%s: score matches no severity band", section.InstrumentID, scaleID))
			warnings = append(warnings, fmt.Sprintf("%s: %s", diagnostics.CodeNoInterpretation, scaleID))
		}

		if section.PresentCount() == 0 && len(scores.FailedScales()) == len(scores.Scales) {
			continue
		}
		events = append(events, o.builder.Build(section, scores, interpreted, o.binding, sub, warnings))
	}

	return o.finish(sub, col, events)
}

// ProcessBatch processes submissions independently and in order. One
// submission's failure never affects the others.
func (o *Orchestrator) ProcessBatch(subs []*spec.Submission) []*ProcessingResult {
	results := make([]*ProcessingResult, 0, len(subs))
	for _, sub := range subs {
		results = append(results, o.Process(sub))
	}
	return results
}

func (o *Orchestrator) finish(sub *spec.Submission, col *diagnostics.Collector, events []*event.MeasurementEvent) *ProcessingResult {
	diag := col.Finalize(len(events))
	o.log.Info().
		Str("form_submission_id", sub.FormSubmissionID).
		Str("binding_id", o.binding.BindingID).
		Str("status", string(diag.Status)).
		Int("events", len(events)).
		Int("errors", len(diag.Errors)).
		Int("warnings", len(diag.Warnings)).
		Msg("submission processed")
	return &ProcessingResult{
		FormSubmissionID: sub.FormSubmissionID,
		Events:           events,
		Diagnostic:       diag,
	}
}

// sectionWarnings gathers the mapping and recoding warnings that belong
// to one instrument section, as strings for the event envelope.
func sectionWarnings(mapped *mapping.Result, recoded *recoding.Result, instrumentID string) []string {
	var warnings []string
	for _, section := range mapped.Sections {
		if section.InstrumentID != instrumentID {
			continue
		}
		for _, itemID := range section.UnmappedItems() {
			warnings = append(warnings, fmt.Sprintf("%s: %s", diagnostics.CodeUnmappedField, itemID))
		}
	}
	for _, w := range recoded.Warnings {
		if w.InstrumentID == instrumentID {
			warnings = append(warnings, fmt.Sprintf("%s: %s: %s", diagnostics.CodeUnrecognizedAnswer, w.ItemID, w.Message))
		}
	}
	return warnings
}
