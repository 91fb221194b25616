// Package validation checks recoded sections for completeness and range
// conformance. It only reports; success or failure judgments belong to
// the scoring engine (per scale) and the diagnostics collector (per
// submission).
package validation

import (
	"sort"

	"github.com/benthepsychologist/final-form/internal/recoding"
	"github.com/benthepsychologist/final-form/internal/spec"
)

// Result describes the data-quality findings for one recoded section.
type Result struct {
	InstrumentID    string
	MissingItems    []string
	OutOfRangeItems []string
}

// Validator checks recoded data quality against the instrument spec.
type Validator struct{}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate reports missing items (nil recoded value) and out-of-range
// items. Range conformance is checked against the scale-level min/max
// bounds declared on each scale containing the item; an item belonging to
// several bounded scales is reported once.
func (v *Validator) Validate(section *recoding.RecodedSection, instrument *spec.InstrumentSpec) Result {
	result := Result{InstrumentID: section.InstrumentID}

	values := make(map[string]*float64, len(section.Items))
	for _, item := range section.Items {
		values[item.ItemID] = item.Value
		if item.Value == nil {
			result.MissingItems = append(result.MissingItems, item.ItemID)
		}
	}

	outOfRange := make(map[string]bool)
	for _, scale := range instrument.Scales {
		if scale.Min == nil && scale.Max == nil {
			continue
		}
		for _, itemID := range scale.Items {
			value := values[itemID]
			if value == nil {
				continue
			}
			if scale.Min != nil && *value < *scale.Min {
				outOfRange[itemID] = true
			}
			if scale.Max != nil && *value > *scale.Max {
				outOfRange[itemID] = true
			}
		}
	}

	for itemID := range outOfRange {
		result.OutOfRangeItems = append(result.OutOfRangeItems, itemID)
	}
	sort.Strings(result.OutOfRangeItems)

	return result
}
