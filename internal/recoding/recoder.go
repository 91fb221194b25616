// Package recoding converts mapped raw answers into the instrument's
// canonical numeric codes using each item's response vocabulary.
package recoding

import (
	"fmt"

	"github.com/benthepsychologist/final-form/internal/mapping"
	"github.com/benthepsychologist/final-form/internal/spec"
)

// RecodedItem is one instrument item after recoding. A nil Value with
// Missing set means the answer was absent or could not be resolved.
type RecodedItem struct {
	ItemID  string
	Value   *float64
	Missing bool
	Raw     any
}

// RecodedSection holds the recoded items for one instrument, in the
// instrument's declared item order.
type RecodedSection struct {
	InstrumentID      string
	InstrumentVersion string
	Items             []RecodedItem
}

// PresentCount returns the number of items with a non-nil value.
func (s *RecodedSection) PresentCount() int {
	n := 0
	for _, item := range s.Items {
		if !item.Missing {
			n++
		}
	}
	return n
}

// Values returns item values keyed by item ID; missing items map to nil.
func (s *RecodedSection) Values() map[string]*float64 {
	values := make(map[string]*float64, len(s.Items))
	for _, item := range s.Items {
		values[item.ItemID] = item.Value
	}
	return values
}

// Warning is a recoverable recoding problem: an answer that could not be
// resolved against the vocabulary. It never fails the submission; scoring
// decides downstream whether enough items survived.
type Warning struct {
	InstrumentID string
	ItemID       string
	Raw          any
	Message      string
}

// Result holds the recoded sections and warnings for one submission.
type Result struct {
	Sections []RecodedSection
	Warnings []Warning
}

// Recoder resolves raw answers to numeric codes. Lookup is exact-string
// against the vocabulary, then alias -> canonical text -> vocabulary. No
// case or whitespace normalization is applied; near-miss spellings belong
// in the instrument's aliases, not in engine heuristics.
type Recoder struct{}

// NewRecoder creates a Recoder.
func NewRecoder() *Recoder {
	return &Recoder{}
}

// Recode converts every mapped section. Items are emitted in the
// instrument's declared order; instrument items with no binding in the
// section come out missing.
func (r *Recoder) Recode(mapped *mapping.Result, instruments map[string]*spec.InstrumentSpec) (*Result, error) {
	result := &Result{}

	for _, section := range mapped.Sections {
		instrument, ok := instruments[section.InstrumentID]
		if !ok {
			return nil, fmt.Errorf("recoding: no instrument spec for %s", section.InstrumentID)
		}

		byItem := make(map[string]mapping.MappedItem, len(section.Items))
		for _, item := range section.Items {
			byItem[item.ItemID] = item
		}

		recoded := RecodedSection{
			InstrumentID:      section.InstrumentID,
			InstrumentVersion: section.InstrumentVersion,
			Items:             make([]RecodedItem, 0, len(instrument.Items)),
		}

		for i := range instrument.Items {
			itemSpec := &instrument.Items[i]
			mappedItem, bound := byItem[itemSpec.ItemID]
			if !bound || mappedItem.Unmapped {
				recoded.Items = append(recoded.Items, RecodedItem{ItemID: itemSpec.ItemID, Missing: true})
				continue
			}

			value, ok := resolve(itemSpec, mappedItem.Value)
			if !ok {
				result.Warnings = append(result.Warnings, Warning{
					InstrumentID: section.InstrumentID,
					ItemID:       itemSpec.ItemID,
					Raw:          mappedItem.Value,
					Message:      fmt.Sprintf("answer %v not in response vocabulary", mappedItem.Value),
				})
				recoded.Items = append(recoded.Items, RecodedItem{
					ItemID:  itemSpec.ItemID,
					Missing: true,
					Raw:     mappedItem.Value,
				})
				continue
			}

			v := float64(value)
			recoded.Items = append(recoded.Items, RecodedItem{
				ItemID: itemSpec.ItemID,
				Value:  &v,
				Raw:    mappedItem.Value,
			})
		}

		result.Sections = append(result.Sections, recoded)
	}

	return result, nil
}

// resolve looks a raw answer up in the item's vocabulary. String answers
// go through the vocabulary and then aliases; numeric answers are accepted
// only when they already equal one of the vocabulary codes.
func resolve(item *spec.Item, raw any) (int, bool) {
	switch t := raw.(type) {
	case string:
		if code, ok := item.ResponseMap[t]; ok {
			return code, true
		}
		if canonical, ok := item.Aliases[t]; ok {
			if code, ok := item.ResponseMap[canonical]; ok {
				return code, true
			}
		}
		return 0, false
	case float64:
		if t != float64(int(t)) {
			return 0, false
		}
		return matchCode(item, int(t))
	case int:
		return matchCode(item, t)
	default:
		return 0, false
	}
}

func matchCode(item *spec.Item, code int) (int, bool) {
	for _, v := range item.ResponseMap {
		if v == code {
			return code, true
		}
	}
	return 0, false
}
