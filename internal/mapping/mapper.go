// Package mapping resolves a form submission's raw answers into
// per-instrument, per-item raw values using a form binding specification.
package mapping

import (
	"fmt"
	"strconv"

	"github.com/benthepsychologist/final-form/internal/spec"
)

// MappingError is a hard failure: a structurally broken binding that makes
// the whole submission unprocessable. Missing data never produces one.
type MappingError struct {
	InstrumentID string
	ItemID       string
	Msg          string
}

func (e *MappingError) Error() string {
	switch {
	case e.ItemID != "":
		return fmt.Sprintf("mapping %s/%s: %s", e.InstrumentID, e.ItemID, e.Msg)
	case e.InstrumentID != "":
		return fmt.Sprintf("mapping %s: %s", e.InstrumentID, e.Msg)
	default:
		return "mapping: " + e.Msg
	}
}

// MappedItem is one instrument item with its raw form value. Unmapped
// items had no corresponding field in the submission; they carry no value
// and become missing data downstream.
type MappedItem struct {
	ItemID    string
	SourceKey string
	Value     any
	Unmapped  bool
}

// MappedSection is the bag of mapped items for one instrument.
type MappedSection struct {
	InstrumentID      string
	InstrumentVersion string
	Items             []MappedItem
}

// UnmappedItems returns the item IDs with no source field in the form.
func (s *MappedSection) UnmappedItems() []string {
	var ids []string
	for _, item := range s.Items {
		if item.Unmapped {
			ids = append(ids, item.ItemID)
		}
	}
	return ids
}

// Result holds the mapped sections for one submission.
type Result struct {
	FormID           string
	FormSubmissionID string
	Sections         []MappedSection
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithFailFast makes an absent source field a hard error instead of an
// unmapped-item diagnostic.
func WithFailFast(b bool) Option { return func(m *Mapper) { m.failFast = b } }

// Mapper resolves raw form values per the binding spec. It is stateless
// apart from its options and safe for concurrent use.
type Mapper struct {
	failFast bool
}

// NewMapper creates a Mapper.
func NewMapper(opts ...Option) *Mapper {
	m := &Mapper{}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Map resolves every binding in every section against the submission's
// responses. Absent fields produce unmapped items, not errors, so sibling
// items keep flowing; only malformed bindings abort with a MappingError.
func (m *Mapper) Map(sub *spec.Submission, binding *spec.FormBindingSpec, instruments map[string]*spec.InstrumentSpec) (*Result, error) {
	result := &Result{
		FormID:           sub.FormID,
		FormSubmissionID: sub.FormSubmissionID,
	}

	for _, section := range binding.Sections {
		instrument, ok := instruments[section.InstrumentID]
		if !ok {
			return nil, &MappingError{
				InstrumentID: section.InstrumentID,
				Msg:          "binding section references an unknown instrument",
			}
		}

		mapped := MappedSection{
			InstrumentID:      section.InstrumentID,
			InstrumentVersion: section.InstrumentVersion,
			Items:             make([]MappedItem, 0, len(section.Bindings)),
		}

		for _, b := range section.Bindings {
			key, err := m.resolveKey(b, instrument, section.InstrumentID)
			if err != nil {
				return nil, err
			}

			value, present := sub.Responses[key]
			if !present || value == nil {
				if m.failFast {
					return nil, &MappingError{
						InstrumentID: section.InstrumentID,
						ItemID:       b.ItemID,
						Msg:          fmt.Sprintf("form field %q is absent", key),
					}
				}
				mapped.Items = append(mapped.Items, MappedItem{ItemID: b.ItemID, SourceKey: key, Unmapped: true})
				continue
			}
			mapped.Items = append(mapped.Items, MappedItem{ItemID: b.ItemID, SourceKey: key, Value: value})
		}

		result.Sections = append(result.Sections, mapped)
	}

	return result, nil
}

// resolveKey turns a binding selector into the form field key to read.
//
// field_key selectors use their value verbatim. Position selectors address
// forms whose fields are keyed by ordinal: the key is the decimal
// rendering of the bound item's declared position, and the selector value
// must agree with that position (a mismatch is a malformed binding).
func (m *Mapper) resolveKey(b spec.Binding, instrument *spec.InstrumentSpec, instrumentID string) (string, error) {
	item := instrument.ItemByID(b.ItemID)
	if item == nil {
		return "", &MappingError{
			InstrumentID: instrumentID,
			ItemID:       b.ItemID,
			Msg:          "binding references an item not in the instrument",
		}
	}

	switch b.By {
	case spec.SelectByFieldKey:
		key, ok := b.Value.(string)
		if !ok || key == "" {
			return "", &MappingError{
				InstrumentID: instrumentID,
				ItemID:       b.ItemID,
				Msg:          fmt.Sprintf("field_key selector needs a string value, got %T", b.Value),
			}
		}
		return key, nil

	case spec.SelectByPosition:
		pos, err := positionValue(b.Value)
		if err != nil {
			return "", &MappingError{InstrumentID: instrumentID, ItemID: b.ItemID, Msg: err.Error()}
		}
		if pos != item.Position {
			return "", &MappingError{
				InstrumentID: instrumentID,
				ItemID:       b.ItemID,
				Msg:          fmt.Sprintf("position selector value %d disagrees with declared item position %d", pos, item.Position),
			}
		}
		return strconv.Itoa(item.Position), nil

	default:
		return "", &MappingError{
			InstrumentID: instrumentID,
			ItemID:       b.ItemID,
			Msg:          fmt.Sprintf("unknown selector kind %q", b.By),
		}
	}
}

// positionValue coerces a selector value into a 1-based position. JSON
// numbers decode as float64; numeric strings are also accepted.
func positionValue(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case float64:
		if t != float64(int(t)) {
			return 0, fmt.Errorf("position selector value %v is not an integer", t)
		}
		return int(t), nil
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, fmt.Errorf("position selector value %q is not numeric", t)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("position selector needs a numeric value, got %T", v)
	}
}
