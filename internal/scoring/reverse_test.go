package scoring

import (
	"reflect"
	"testing"
)

func uniformMax(max float64, itemIDs ...string) map[string]float64 {
	m := make(map[string]float64, len(itemIDs))
	for _, id := range itemIDs {
		m[id] = max
	}
	return m
}

func TestReverseValues(t *testing.T) {
	values := map[string]float64{"i1": 1, "i2": 3, "i3": 0}

	got := ReverseValues(values, []string{"i2", "i3"}, uniformMax(3, "i1", "i2", "i3"))
	want := map[string]float64{"i1": 1, "i2": 0, "i3": 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReverseValues = %v, want %v", got, want)
	}

	// Input map is not mutated.
	if values["i2"] != 3 {
		t.Errorf("input mutated: %v", values)
	}

	// Items absent from the value map are skipped.
	got = ReverseValues(map[string]float64{"i1": 2}, []string{"i9"}, uniformMax(3, "i9"))
	if !reflect.DeepEqual(got, map[string]float64{"i1": 2}) {
		t.Errorf("ReverseValues with absent item = %v", got)
	}
}

func TestReverseValues_PerItemMax(t *testing.T) {
	values := map[string]float64{"i1": 1, "i2": 2}
	maxByItem := map[string]float64{"i1": 3, "i2": 6}

	got := ReverseValues(values, []string{"i1", "i2"}, maxByItem)
	want := map[string]float64{"i1": 2, "i2": 4}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReverseValues = %v, want %v", got, want)
	}

	// An item with no known maximum is left untouched.
	got = ReverseValues(values, []string{"i1", "i2"}, map[string]float64{"i1": 3})
	if got["i2"] != 2 {
		t.Errorf("item without maximum changed: %v", got)
	}
}

func TestReverseValues_Involutive(t *testing.T) {
	values := map[string]float64{"i1": 0, "i2": 1, "i3": 2, "i4": 3}
	reversed := []string{"i1", "i3", "i4"}
	maxByItem := uniformMax(3, "i1", "i2", "i3", "i4")

	once := ReverseValues(values, reversed, maxByItem)
	twice := ReverseValues(once, reversed, maxByItem)
	if !reflect.DeepEqual(twice, values) {
		t.Errorf("double reversal = %v, want original %v", twice, values)
	}
}

func TestMaxResponseValue(t *testing.T) {
	tests := []struct {
		name string
		m    map[string]int
		want int
	}{
		{"phq9 range", map[string]int{"Not at all": 0, "Several days": 1, "More than half the days": 2, "Nearly every day": 3}, 3},
		{"negative codes", map[string]int{"a": -3, "b": -1}, -1},
		{"empty", map[string]int{}, 0},
	}
	for _, tt := range tests {
		if got := MaxResponseValue(tt.m); got != tt.want {
			t.Errorf("%s: MaxResponseValue = %d, want %d", tt.name, got, tt.want)
		}
	}
}
