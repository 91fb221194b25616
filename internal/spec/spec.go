// Package spec defines the data model for instrument specifications and
// form-binding specifications. This package is at the bottom of the
// dependency graph and should not import any other internal packages.
package spec

import (
	"encoding/json"
	"fmt"
)

// Method is the scoring method for a scale. Only the three closed values
// below are representable; decoding anything else fails.
type Method string

const (
	MethodSum           Method = "sum"
	MethodAverage       Method = "average"
	MethodSumThenDouble Method = "sum_then_double"
)

// ParseMethod converts a string into a Method, rejecting unknown values.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodSum, MethodAverage, MethodSumThenDouble:
		return Method(s), nil
	}
	return "", fmt.Errorf("unknown scoring method: %q", s)
}

// UnmarshalJSON enforces the closed set of scoring methods at decode time.
func (m *Method) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMethod(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// SelectorKind identifies how a binding locates its source field.
type SelectorKind string

const (
	SelectByFieldKey SelectorKind = "field_key"
	SelectByPosition SelectorKind = "position"
)

// ParseSelectorKind converts a string into a SelectorKind, rejecting
// unknown values.
func ParseSelectorKind(s string) (SelectorKind, error) {
	switch SelectorKind(s) {
	case SelectByFieldKey, SelectByPosition:
		return SelectorKind(s), nil
	}
	return "", fmt.Errorf("unknown binding selector: %q", s)
}

// UnmarshalJSON enforces the closed set of selector kinds at decode time.
func (k *SelectorKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseSelectorKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Instrument kind constants.
const (
	KindQuestionnaire = "questionnaire"
	KindScale         = "scale"
	KindInventory     = "inventory"
	KindChecklist     = "checklist"
)

// Interpretation is a score band mapping a closed numeric range to a
// severity label. Both ends are inclusive.
type Interpretation struct {
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Label       string  `json:"label"`
	Severity    *int    `json:"severity,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Contains reports whether value falls inside the band.
func (i Interpretation) Contains(value float64) bool {
	return value >= i.Min && value <= i.Max
}

// Scale is a named group of items combined into one score.
type Scale struct {
	ScaleID         string           `json:"scale_id"`
	Name            string           `json:"name"`
	Items           []string         `json:"items"`
	Method          Method           `json:"method"`
	ReversedItems   []string         `json:"reversed_items,omitempty"`
	Min             *float64         `json:"min,omitempty"`
	Max             *float64         `json:"max,omitempty"`
	MissingAllowed  int              `json:"missing_allowed"`
	Interpretations []Interpretation `json:"interpretations"`
}

// Item is a single question within an instrument. ResponseMap maps the
// canonical answer text to its numeric code; Aliases maps alternate
// spellings to canonical answer text.
type Item struct {
	ItemID      string            `json:"item_id"`
	Position    int               `json:"position"`
	Text        string            `json:"text"`
	ResponseMap map[string]int    `json:"response_map"`
	Aliases     map[string]string `json:"aliases,omitempty"`
}

// InstrumentSpec is a complete instrument specification: a standardized
// questionnaire or scale defined entirely as data.
type InstrumentSpec struct {
	Type         string   `json:"type"`
	InstrumentID string   `json:"instrument_id"`
	Version      string   `json:"version"`
	Name         string   `json:"name"`
	Kind         string   `json:"kind"`
	Locale       string   `json:"locale,omitempty"`
	Aliases      []string `json:"aliases,omitempty"`
	Description  string   `json:"description,omitempty"`
	Items        []Item   `json:"items"`
	Scales       []Scale  `json:"scales"`
}

// ItemByID returns the item with the given ID, or nil.
func (s *InstrumentSpec) ItemByID(itemID string) *Item {
	for i := range s.Items {
		if s.Items[i].ItemID == itemID {
			return &s.Items[i]
		}
	}
	return nil
}

// ScaleByID returns the scale with the given ID, or nil.
func (s *InstrumentSpec) ScaleByID(scaleID string) *Scale {
	for i := range s.Scales {
		if s.Scales[i].ScaleID == scaleID {
			return &s.Scales[i]
		}
	}
	return nil
}

// Binding maps a single form field to an instrument item. Value is the
// selector payload: a field key for field_key selectors, a 1-based
// position (number or numeric string) for position selectors.
type Binding struct {
	ItemID string       `json:"item_id"`
	By     SelectorKind `json:"by"`
	Value  any          `json:"value"`
}

// BindingSection groups the bindings for a single instrument.
type BindingSection struct {
	Name              string    `json:"name,omitempty"`
	InstrumentID      string    `json:"instrument_id"`
	InstrumentVersion string    `json:"instrument_version"`
	Bindings          []Binding `json:"bindings"`
}

// FormBindingSpec is a complete form-to-instrument binding specification.
// Invariant: at most one section per instrument_id.
type FormBindingSpec struct {
	Type        string           `json:"type"`
	FormID      string           `json:"form_id"`
	BindingID   string           `json:"binding_id"`
	Version     string           `json:"version"`
	Description string           `json:"description,omitempty"`
	Sections    []BindingSection `json:"sections"`
}

// SectionForInstrument returns the binding section for an instrument, or nil.
func (b *FormBindingSpec) SectionForInstrument(instrumentID string) *BindingSection {
	for i := range b.Sections {
		if b.Sections[i].InstrumentID == instrumentID {
			return &b.Sections[i]
		}
	}
	return nil
}
