// Package scoring computes scale scores from recoded items. The engine is
// fully generic: which items belong to each scale, which are reverse
// scored, the scoring method, and the missing-item tolerance all come from
// the instrument specification. No per-questionnaire code is allowed.
package scoring

import (
	"fmt"

	"github.com/benthepsychologist/final-form/internal/recoding"
	"github.com/benthepsychologist/final-form/internal/spec"
)

// ScaleScore is one computed scale score. A scale either has a non-nil
// Value or a non-empty Err, never both.
type ScaleScore struct {
	ScaleID       string      `json:"scale_id"`
	Name          string      `json:"name,omitempty"`
	Value         *float64    `json:"value"`
	Method        spec.Method `json:"method"`
	ItemsUsed     int         `json:"items_used"`
	ItemsTotal    int         `json:"items_total"`
	MissingItems  []string    `json:"missing_items,omitempty"`
	ReversedItems []string    `json:"reversed_items,omitempty"`
	Prorated      bool        `json:"prorated"`
	Warnings      []string    `json:"warnings,omitempty"`
	Err           string      `json:"error,omitempty"`
}

// Result holds the scores for all scales of one instrument section.
type Result struct {
	InstrumentID      string       `json:"instrument_id"`
	InstrumentVersion string       `json:"instrument_version"`
	Scales            []ScaleScore `json:"scales"`
}

// Scale returns a scale score by ID, or nil.
func (r *Result) Scale(scaleID string) *ScaleScore {
	for i := range r.Scales {
		if r.Scales[i].ScaleID == scaleID {
			return &r.Scales[i]
		}
	}
	return nil
}

// ProratedScales returns the IDs of scales that were prorated.
func (r *Result) ProratedScales() []string {
	var ids []string
	for _, s := range r.Scales {
		if s.Prorated {
			ids = append(ids, s.ScaleID)
		}
	}
	return ids
}

// FailedScales returns the scales that could not be scored.
func (r *Result) FailedScales() []ScaleScore {
	var failed []ScaleScore
	for _, s := range r.Scales {
		if s.Err != "" {
			failed = append(failed, s)
		}
	}
	return failed
}

// Engine scores recoded sections. Stateless and safe for concurrent use.
type Engine struct{}

// NewEngine creates a scoring Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Score computes every scale of the instrument. Scales fail independently:
// one scale exceeding its missing-item tolerance never blocks siblings.
func (e *Engine) Score(section *recoding.RecodedSection, instrument *spec.InstrumentSpec) *Result {
	values := section.Values()

	result := &Result{
		InstrumentID:      section.InstrumentID,
		InstrumentVersion: section.InstrumentVersion,
		Scales:            make([]ScaleScore, 0, len(instrument.Scales)),
	}
	for i := range instrument.Scales {
		result.Scales = append(result.Scales, e.scoreScale(&instrument.Scales[i], values, instrument))
	}
	return result
}

// ScoreScale computes a single scale by ID, or nil if the instrument has
// no such scale.
func (e *Engine) ScoreScale(section *recoding.RecodedSection, instrument *spec.InstrumentSpec, scaleID string) *ScaleScore {
	scale := instrument.ScaleByID(scaleID)
	if scale == nil {
		return nil
	}
	score := e.scoreScale(scale, section.Values(), instrument)
	return &score
}

func (e *Engine) scoreScale(scale *spec.Scale, itemValues map[string]*float64, instrument *spec.InstrumentSpec) ScaleScore {
	score := ScaleScore{
		ScaleID:       scale.ScaleID,
		Name:          scale.Name,
		Method:        scale.Method,
		ItemsTotal:    len(scale.Items),
		ReversedItems: scale.ReversedItems,
	}

	present := make(map[string]float64, len(scale.Items))
	for _, itemID := range scale.Items {
		if v := itemValues[itemID]; v != nil {
			present[itemID] = *v
		} else {
			score.MissingItems = append(score.MissingItems, itemID)
		}
	}
	score.ItemsUsed = len(present)

	if len(score.MissingItems) > scale.MissingAllowed {
		score.Err = fmt.Sprintf("too many missing items: %d missing, %d allowed",
			len(score.MissingItems), scale.MissingAllowed)
		return score
	}
	if len(present) == 0 {
		score.Err = "no values available for scoring"
		return score
	}

	if len(scale.ReversedItems) > 0 {
		// Each reversed item inverts against its own vocabulary maximum.
		// Differing maxima across a scale's items usually mean a spec
		// mistake, so the scale is flagged but still scored.
		maxByItem := make(map[string]float64, len(scale.Items))
		var firstMax float64
		divergent := false
		for i, itemID := range scale.Items {
			item := instrument.ItemByID(itemID)
			if item == nil {
				continue
			}
			max := float64(MaxResponseValue(item.ResponseMap))
			maxByItem[itemID] = max
			if i == 0 {
				firstMax = max
			} else if max != firstMax {
				divergent = true
			}
		}
		if divergent {
			score.Warnings = append(score.Warnings,
				"reversed scale mixes items with differing response ranges")
		}
		present = ReverseValues(present, scale.ReversedItems, maxByItem)
	}

	values := make([]float64, 0, len(present))
	for _, itemID := range scale.Items {
		if v, ok := present[itemID]; ok {
			values = append(values, v)
		}
	}

	var (
		value float64
		err   error
	)
	score.Prorated = len(score.MissingItems) > 0
	if score.Prorated {
		value, err = ProrateScore(values, scale.Method, len(scale.Items))
	} else {
		value, err = ComputeScore(values, scale.Method)
	}
	if err != nil {
		score.Prorated = false
		score.Err = err.Error()
		return score
	}

	score.Value = &value
	return score
}
