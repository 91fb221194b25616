// Package interpretation maps scale scores onto the severity bands
// declared by the instrument.
package interpretation

import (
	"github.com/benthepsychologist/final-form/internal/scoring"
	"github.com/benthepsychologist/final-form/internal/spec"
)

// InterpretedScore is a scale score placed in its severity band.
type InterpretedScore struct {
	ScaleID     string   `json:"scale_id"`
	Value       float64  `json:"value"`
	Label       string   `json:"label"`
	Severity    *int     `json:"severity,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Result holds the interpreted scores for one instrument section.
// Unmatched lists scales whose score fell outside every declared band;
// the caller reports those as warnings, they are not engine errors.
type Result struct {
	InstrumentID string             `json:"instrument_id"`
	Scores       []InterpretedScore `json:"scores"`
	Unmatched    []string           `json:"-"`
}

// Score returns the interpreted score for a scale, or nil.
func (r *Result) Score(scaleID string) *InterpretedScore {
	for i := range r.Scores {
		if r.Scores[i].ScaleID == scaleID {
			return &r.Scores[i]
		}
	}
	return nil
}

// Interpreter selects severity bands. Stateless and safe for concurrent
// use.
type Interpreter struct{}

// NewInterpreter creates an Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// Interpret bands every non-nil scale score. Bands are scanned in declared
// order and the first band containing the value wins, so overlapping bands
// resolve deterministically. Nil scores (failed scales) produce nothing.
func (in *Interpreter) Interpret(scores *scoring.Result, instrument *spec.InstrumentSpec) *Result {
	result := &Result{InstrumentID: scores.InstrumentID}

	for _, score := range scores.Scales {
		if score.Value == nil {
			continue
		}
		scale := instrument.ScaleByID(score.ScaleID)
		if scale == nil {
			continue
		}

		band := firstMatch(scale.Interpretations, *score.Value)
		if band == nil {
			result.Unmatched = append(result.Unmatched, score.ScaleID)
			continue
		}

		result.Scores = append(result.Scores, InterpretedScore{
			ScaleID:     score.ScaleID,
			Value:       *score.Value,
			Label:       band.Label,
			Severity:    band.Severity,
			Description: band.Description,
		})
	}

	return result
}

func firstMatch(bands []spec.Interpretation, value float64) *spec.Interpretation {
	for i := range bands {
		if bands[i].Contains(value) {
			return &bands[i]
		}
	}
	return nil
}
