package scoring

// ReverseValues applies reverse scoring to the marked items: each reversed
// item's value becomes that item's own maximum minus the value. Items
// without an entry in maxByItem are left untouched. The input map is not
// mutated. The transform is involutive for fixed maxima: applying it twice
// restores the original values.
func ReverseValues(values map[string]float64, reversedItems []string, maxByItem map[string]float64) map[string]float64 {
	result := make(map[string]float64, len(values))
	for k, v := range values {
		result[k] = v
	}
	for _, itemID := range reversedItems {
		v, ok := result[itemID]
		if !ok {
			continue
		}
		if max, ok := maxByItem[itemID]; ok {
			result[itemID] = max - v
		}
	}
	return result
}

// MaxResponseValue returns the maximum numeric code in a response
// vocabulary. Zero-length vocabularies return 0.
func MaxResponseValue(responseMap map[string]int) int {
	first := true
	max := 0
	for _, code := range responseMap {
		if first || code > max {
			max = code
			first = false
		}
	}
	return max
}
