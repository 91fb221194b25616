package diagnostics

import (
	"testing"

	"github.com/benthepsychologist/final-form/internal/mapping"
	"github.com/benthepsychologist/final-form/internal/recoding"
	"github.com/benthepsychologist/final-form/internal/scoring"
	"github.com/benthepsychologist/final-form/internal/spec"
	"github.com/benthepsychologist/final-form/internal/validation"
)

func newTestCollector() *Collector {
	return NewCollector("sub-001", "intake_v2", "intake_phq9", "1.0.0")
}

func TestFinalize_Success(t *testing.T) {
	d := newTestCollector().Finalize(1)
	if d.Status != StatusSuccess {
		t.Errorf("Status = %q, want success", d.Status)
	}
	if d.FormSubmissionID != "sub-001" || d.BindingID != "intake_phq9" {
		t.Errorf("identity = %+v", d)
	}
}

func TestFinalize_PartialOnWarnings(t *testing.T) {
	c := newTestCollector()
	c.AddWarning(StageMapping, CodeUnmappedField, "phq9/phq9_1: no form field mapped")
	d := c.Finalize(1)
	if d.Status != StatusPartial {
		t.Errorf("Status = %q, want partial", d.Status)
	}
	if len(d.Warnings) != 1 || d.Warnings[0].Code != CodeUnmappedField {
		t.Errorf("Warnings = %v", d.Warnings)
	}
}

func TestFinalize_PartialOnNonFatalErrors(t *testing.T) {
	c := newTestCollector()
	c.AddError(StageScoring, CodeScaleNotScored, "phq9/total: too many missing items")
	d := c.Finalize(1)
	if d.Status != StatusPartial {
		t.Errorf("Status = %q, want partial", d.Status)
	}
}

func TestFinalize_FailedOnFatal(t *testing.T) {
	c := newTestCollector()
	c.AddWarning(StageMapping, CodeUnmappedField, "x")
	c.AddFatal(StageBuilding, CodePipelineError, "boom")
	d := c.Finalize(2)
	if d.Status != StatusFailed {
		t.Errorf("Status = %q, want failed", d.Status)
	}
	if !d.Errors[0].Fatal {
		t.Errorf("Errors = %+v", d.Errors)
	}
}

func TestFinalize_FailedOnZeroEvents(t *testing.T) {
	d := newTestCollector().Finalize(0)
	if d.Status != StatusFailed {
		t.Errorf("Status = %q, want failed when no events produced", d.Status)
	}
}

func TestCollectMapping(t *testing.T) {
	c := newTestCollector()
	c.CollectMapping(&mapping.Result{
		Sections: []mapping.MappedSection{{
			InstrumentID: "phq9",
			Items: []mapping.MappedItem{
				{ItemID: "phq9_1", Unmapped: true},
				{ItemID: "phq9_2", Value: "Not at all"},
			},
		}},
	})
	d := c.Finalize(1)
	if len(d.Warnings) != 1 {
		t.Fatalf("Warnings = %v", d.Warnings)
	}
	w := d.Warnings[0]
	if w.Stage != StageMapping || w.Code != CodeUnmappedField {
		t.Errorf("warning = %+v", w)
	}
}

func TestCollectRecoding(t *testing.T) {
	c := newTestCollector()
	c.CollectRecoding(&recoding.Result{
		Warnings: []recoding.Warning{
			{InstrumentID: "phq9", ItemID: "phq9_3", Raw: "sometimes", Message: "answer sometimes not in response vocabulary"},
		},
	})
	d := c.Finalize(1)
	if len(d.Warnings) != 1 || d.Warnings[0].Code != CodeUnrecognizedAnswer {
		t.Errorf("Warnings = %v", d.Warnings)
	}
}

func TestCollectValidation(t *testing.T) {
	c := newTestCollector()
	c.CollectValidation(validation.Result{
		InstrumentID:    "phq9",
		OutOfRangeItems: []string{"phq9_2", "phq9_5"},
	})
	d := c.Finalize(1)
	if len(d.Warnings) != 2 || d.Warnings[0].Code != CodeOutOfRangeValue {
		t.Errorf("Warnings = %v", d.Warnings)
	}
}

func TestCollectScoring(t *testing.T) {
	v := 9.0
	c := newTestCollector()
	c.CollectScoring(&scoring.Result{
		InstrumentID: "phq9",
		Scales: []scoring.ScaleScore{
			{ScaleID: "total", Value: &v, Method: spec.MethodSum},
			{ScaleID: "somatic", Err: "too many missing items: 4 missing, 2 allowed", Method: spec.MethodSum},
		},
	})
	d := c.Finalize(1)
	if len(d.Errors) != 1 {
		t.Fatalf("Errors = %v", d.Errors)
	}
	e := d.Errors[0]
	if e.Stage != StageScoring || e.Code != CodeScaleNotScored || e.Fatal {
		t.Errorf("error = %+v", e)
	}
	if d.Status != StatusPartial {
		t.Errorf("Status = %q", d.Status)
	}
}

func TestSetInstrumentQuality_LatestWins(t *testing.T) {
	c := newTestCollector()
	c.SetInstrumentQuality("phq9", QualityMetrics{ItemsTotal: 9, ItemsPresent: 7})
	c.SetInstrumentQuality("phq9", QualityMetrics{
		ItemsTotal:     9,
		ItemsPresent:   7,
		ProratedScales: []string{"total"},
	})
	d := c.Finalize(1)
	q := d.Quality["phq9"]
	if len(q.ProratedScales) != 1 || q.ProratedScales[0] != "total" {
		t.Errorf("Quality = %+v", q)
	}
}
