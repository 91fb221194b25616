package pipeline

import (
	"fmt"
	"testing"

	"github.com/benthepsychologist/final-form/internal/diagnostics"
	"github.com/benthepsychologist/final-form/internal/event"
	"github.com/benthepsychologist/final-form/internal/spec"
)

var frequencyResponses = map[string]int{
	"Not at all":              0,
	"Several days":            1,
	"More than half the days": 2,
	"Nearly every day":        3,
}

func fptr(f float64) *float64 { return &f }

func phq9Spec() *spec.InstrumentSpec {
	s := &spec.InstrumentSpec{
		Type:         "instrument_spec",
		InstrumentID: "phq9",
		Version:      "1.0.0",
		Name:         "Patient Health Questionnaire-9",
		Kind:         "questionnaire",
	}
	for i := 1; i <= 9; i++ {
		s.Items = append(s.Items, spec.Item{
			ItemID:      fmt.Sprintf("phq9_%02d", i),
			Position:    i,
			ResponseMap: frequencyResponses,
		})
	}
	var items []string
	for _, item := range s.Items {
		items = append(items, item.ItemID)
	}
	s.Scales = []spec.Scale{{
		ScaleID:        "total",
		Name:           "PHQ-9 Total",
		Items:          items,
		Method:         spec.MethodSum,
		Min:            fptr(0),
		Max:            fptr(3),
		MissingAllowed: 2,
		Interpretations: []spec.Interpretation{
			{Min: 0, Max: 4, Label: "Minimal"},
			{Min: 5, Max: 9, Label: "Mild"},
			{Min: 10, Max: 14, Label: "Moderate"},
			{Min: 15, Max: 19, Label: "Moderately severe"},
			{Min: 20, Max: 27, Label: "Severe"},
		},
	}}
	return s
}

func gad7Spec() *spec.InstrumentSpec {
	s := &spec.InstrumentSpec{
		Type:         "instrument_spec",
		InstrumentID: "gad7",
		Version:      "1.0.0",
		Name:         "Generalized Anxiety Disorder-7",
		Kind:         "questionnaire",
	}
	for i := 1; i <= 7; i++ {
		s.Items = append(s.Items, spec.Item{
			ItemID:      fmt.Sprintf("gad7_%02d", i),
			Position:    i,
			ResponseMap: frequencyResponses,
		})
	}
	var items []string
	for _, item := range s.Items {
		items = append(items, item.ItemID)
	}
	s.Scales = []spec.Scale{{
		ScaleID:        "total",
		Name:           "GAD-7 Total",
		Items:          items,
		Method:         spec.MethodSum,
		MissingAllowed: 1,
		Interpretations: []spec.Interpretation{
			{Min: 0, Max: 4, Label: "Minimal"},
			{Min: 5, Max: 9, Label: "Mild"},
			{Min: 10, Max: 14, Label: "Moderate"},
			{Min: 15, Max: 21, Label: "Severe"},
		},
	}}
	return s
}

func intakeBinding(withGAD7 bool) *spec.FormBindingSpec {
	b := &spec.FormBindingSpec{
		Type:      "form_binding_spec",
		FormID:    "intake-v2",
		BindingID: "intake-v2-binding",
		Version:   "1.0.0",
	}
	phq := spec.BindingSection{InstrumentID: "phq9", InstrumentVersion: "1.0.0"}
	for i := 1; i <= 9; i++ {
		phq.Bindings = append(phq.Bindings, spec.Binding{
			ItemID: fmt.Sprintf("phq9_%02d", i),
			By:     spec.SelectByFieldKey,
			Value:  fmt.Sprintf("q%d", i),
		})
	}
	b.Sections = append(b.Sections, phq)
	if withGAD7 {
		gad := spec.BindingSection{InstrumentID: "gad7", InstrumentVersion: "1.0.0"}
		for i := 1; i <= 7; i++ {
			gad.Bindings = append(gad.Bindings, spec.Binding{
				ItemID: fmt.Sprintf("gad7_%02d", i),
				By:     spec.SelectByFieldKey,
				Value:  fmt.Sprintf("g%d", i),
			})
		}
		b.Sections = append(b.Sections, gad)
	}
	return b
}

func newTestOrchestrator(t *testing.T, withGAD7 bool) *Orchestrator {
	t.Helper()
	instruments := map[string]*spec.InstrumentSpec{"phq9": phq9Spec()}
	if withGAD7 {
		instruments["gad7"] = gad7Spec()
	}
	return NewWithSpecs(Config{DeterministicIDs: true}, intakeBinding(withGAD7), instruments)
}

func submission(responses map[string]any) *spec.Submission {
	return &spec.Submission{
		FormID:           "intake-v2",
		FormSubmissionID: "sub-001",
		SubjectID:        "subject-42",
		Timestamp:        "2026-03-01T10:00:00Z",
		Responses:        responses,
	}
}

func phq9Responses(answer string, n int) map[string]any {
	responses := make(map[string]any)
	for i := 1; i <= n; i++ {
		responses[fmt.Sprintf("q%d", i)] = answer
	}
	return responses
}

func scaleObservation(t *testing.T, ev *event.MeasurementEvent, code string) *event.Observation {
	t.Helper()
	for i := range ev.Observations {
		if ev.Observations[i].Kind == event.KindScale && ev.Observations[i].Code == code {
			return &ev.Observations[i]
		}
	}
	t.Fatalf("no scale observation %q in event for %s", code, ev.InstrumentID)
	return nil
}

func TestProcessCompleteSubmission(t *testing.T) {
	o := newTestOrchestrator(t, false)

	res := o.Process(submission(phq9Responses("Several days", 9)))

	if res.Diagnostic.Status != diagnostics.StatusSuccess {
		t.Fatalf("status = %s, diagnostics = %+v", res.Diagnostic.Status, res.Diagnostic)
	}
	if !res.Success() {
		t.Error("Success() should be true")
	}
	if len(res.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(res.Events))
	}

	ev := res.Events[0]
	if ev.InstrumentID != "phq9" || ev.SubjectID != "subject-42" {
		t.Errorf("event = %s for %s", ev.InstrumentID, ev.SubjectID)
	}
	total := scaleObservation(t, ev, "total")
	if total.Value == nil || *total.Value != 9 {
		t.Fatalf("total = %v, want 9", total.Value)
	}
	if total.Interpretation == nil || total.Interpretation.Label != "Mild" {
		t.Errorf("interpretation = %+v, want Mild", total.Interpretation)
	}
	if total.Prorated {
		t.Error("complete submission should not be prorated")
	}
}

func TestProcessProratesWithinAllowance(t *testing.T) {
	o := newTestOrchestrator(t, false)
	responses := phq9Responses("Several days", 7)

	res := o.Process(submission(responses))

	if res.Diagnostic.Status != diagnostics.StatusPartial {
		t.Fatalf("status = %s, want partial", res.Diagnostic.Status)
	}
	if len(res.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(res.Events))
	}

	total := scaleObservation(t, res.Events[0], "total")
	if total.Value == nil || *total.Value != 9 {
		t.Fatalf("prorated total = %v, want 9 (7 * 9/7)", total.Value)
	}
	if !total.Prorated {
		t.Error("score should be flagged prorated")
	}

	var prorated, unmapped bool
	for _, w := range res.Diagnostic.Warnings {
		switch w.Code {
		case diagnostics.CodeProratedScore:
			prorated = true
		case diagnostics.CodeUnmappedField:
			unmapped = true
		}
	}
	if !prorated || !unmapped {
		t.Errorf("want prorated and unmapped warnings, got %+v", res.Diagnostic.Warnings)
	}
}

func TestProcessTooManyMissingKeepsSiblings(t *testing.T) {
	o := newTestOrchestrator(t, true)
	responses := phq9Responses("Several days", 5)
	for i := 1; i <= 7; i++ {
		responses[fmt.Sprintf("g%d", i)] = "More than half the days"
	}

	res := o.Process(submission(responses))

	if res.Diagnostic.Status != diagnostics.StatusPartial {
		t.Fatalf("status = %s, want partial", res.Diagnostic.Status)
	}
	if len(res.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(res.Events))
	}

	var phqEvent, gadEvent *event.MeasurementEvent
	for _, ev := range res.Events {
		switch ev.InstrumentID {
		case "phq9":
			phqEvent = ev
		case "gad7":
			gadEvent = ev
		}
	}
	if phqEvent == nil || gadEvent == nil {
		t.Fatal("missing per-instrument events")
	}

	phqTotal := scaleObservation(t, phqEvent, "total")
	if phqTotal.Value != nil {
		t.Errorf("phq9 total = %v, want nil with 4 of 9 items missing", *phqTotal.Value)
	}
	if phqTotal.Error == "" {
		t.Error("failed scale should carry its scoring error")
	}

	gadTotal := scaleObservation(t, gadEvent, "total")
	if gadTotal.Value == nil || *gadTotal.Value != 14 {
		t.Fatalf("gad7 total = %v, want 14", gadTotal.Value)
	}
	if gadTotal.Interpretation == nil || gadTotal.Interpretation.Label != "Moderate" {
		t.Errorf("gad7 interpretation = %+v, want Moderate", gadTotal.Interpretation)
	}

	var scaleErr bool
	for _, e := range res.Diagnostic.Errors {
		if e.Code == diagnostics.CodeScaleNotScored && !e.Fatal {
			scaleErr = true
		}
	}
	if !scaleErr {
		t.Errorf("want non-fatal SCALE_NOT_SCORED error, got %+v", res.Diagnostic.Errors)
	}
}

func TestProcessUnrecognizedAnswer(t *testing.T) {
	o := newTestOrchestrator(t, false)
	responses := phq9Responses("Several days", 9)
	responses["q3"] = "sometimes I guess"

	res := o.Process(submission(responses))

	if res.Diagnostic.Status != diagnostics.StatusPartial {
		t.Fatalf("status = %s, want partial", res.Diagnostic.Status)
	}
	var unrecognized bool
	for _, w := range res.Diagnostic.Warnings {
		if w.Code == diagnostics.CodeUnrecognizedAnswer {
			unrecognized = true
		}
	}
	if !unrecognized {
		t.Errorf("want UNRECOGNIZED_ANSWER warning, got %+v", res.Diagnostic.Warnings)
	}

	// One missing against an allowance of two still scores, prorated.
	total := scaleObservation(t, res.Events[0], "total")
	if total.Value == nil || !total.Prorated {
		t.Errorf("total = %+v, want prorated score", total)
	}
}

func TestProcessEmptySubmissionFails(t *testing.T) {
	o := newTestOrchestrator(t, false)

	res := o.Process(submission(map[string]any{}))

	if res.Diagnostic.Status != diagnostics.StatusFailed {
		t.Fatalf("status = %s, want failed", res.Diagnostic.Status)
	}
	if len(res.Events) != 0 {
		t.Errorf("got %d events, want 0", len(res.Events))
	}
}

func TestProcessUnknownInstrumentIsFatal(t *testing.T) {
	// Binding references gad7 but only phq9 specs are loaded.
	o := NewWithSpecs(Config{}, intakeBinding(true), map[string]*spec.InstrumentSpec{"phq9": phq9Spec()})

	res := o.Process(submission(phq9Responses("Not at all", 9)))

	if res.Diagnostic.Status != diagnostics.StatusFailed {
		t.Fatalf("status = %s, want failed", res.Diagnostic.Status)
	}
	var fatal bool
	for _, e := range res.Diagnostic.Errors {
		if e.Code == diagnostics.CodePipelineError && e.Fatal {
			fatal = true
		}
	}
	if !fatal {
		t.Errorf("want fatal PIPELINE_ERROR, got %+v", res.Diagnostic.Errors)
	}
}

func TestProcessBatchIndependent(t *testing.T) {
	o := newTestOrchestrator(t, false)

	good := submission(phq9Responses("Several days", 9))
	bad := submission(map[string]any{})
	bad.FormSubmissionID = "sub-002"

	results := o.ProcessBatch([]*spec.Submission{bad, good})

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Diagnostic.Status != diagnostics.StatusFailed {
		t.Errorf("first = %s, want failed", results[0].Diagnostic.Status)
	}
	if results[1].Diagnostic.Status != diagnostics.StatusSuccess {
		t.Errorf("second = %s, want success", results[1].Diagnostic.Status)
	}
	if results[0].FormSubmissionID != "sub-002" || results[1].FormSubmissionID != "sub-001" {
		t.Error("results out of order")
	}
}

func TestProcessQualityMetrics(t *testing.T) {
	o := newTestOrchestrator(t, false)

	res := o.Process(submission(phq9Responses("Several days", 7)))

	q, ok := res.Diagnostic.Quality["phq9"]
	if !ok {
		t.Fatalf("no quality metrics for phq9: %+v", res.Diagnostic.Quality)
	}
	if q.ItemsTotal != 9 || q.ItemsPresent != 7 {
		t.Errorf("items = %d/%d, want 7/9", q.ItemsPresent, q.ItemsTotal)
	}
	if len(q.MissingItems) != 2 {
		t.Errorf("missing = %v", q.MissingItems)
	}
	if len(q.ProratedScales) != 1 || q.ProratedScales[0] != "total" {
		t.Errorf("prorated = %v", q.ProratedScales)
	}
}
