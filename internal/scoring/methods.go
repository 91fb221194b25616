package scoring

import (
	"fmt"

	"github.com/benthepsychologist/final-form/internal/spec"
)

// ComputeScore computes a scale score from a complete value list. Scores
// are float64 across all methods so direct and prorated results stay
// type-uniform.
func ComputeScore(values []float64, method spec.Method) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("cannot compute score from empty values list")
	}

	switch method {
	case spec.MethodSum:
		return sum(values), nil
	case spec.MethodAverage:
		return sum(values) / float64(len(values)), nil
	case spec.MethodSumThenDouble:
		return sum(values) * 2, nil
	default:
		return 0, fmt.Errorf("unknown scoring method: %q", method)
	}
}

// ProrateScore computes a scale score when some items are missing but
// within tolerance. Sum-based methods extrapolate the raw sum of present
// values by totalItems/present; average needs no adjustment and is simply
// the mean of present values.
func ProrateScore(values []float64, method spec.Method, totalItems int) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("cannot compute prorated score from empty values list")
	}

	switch method {
	case spec.MethodAverage:
		return sum(values) / float64(len(values)), nil
	case spec.MethodSum:
		return sum(values) * float64(totalItems) / float64(len(values)), nil
	case spec.MethodSumThenDouble:
		return sum(values) * float64(totalItems) / float64(len(values)) * 2, nil
	default:
		return 0, fmt.Errorf("unknown scoring method: %q", method)
	}
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
