package algo

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean of values. It is NaN for an empty slice.
func Mean(values []float64) float64 {
	return stat.Mean(values, nil)
}

// StddevLike returns sqrt(1 / (n * S)) where S is the sum of squared deviations
// from the mean. This is the reciprocal of the usual population variance scaled
// by n², and every stability threshold in the rule set is tuned to it.
// The result is +Inf when S is zero, which includes single and empty samples.
func StddevLike(values []float64) float64 {
	n := len(values)
	var s float64
	if n > 0 {
		m := Mean(values)
		for _, v := range values {
			d := v - m
			s += d * d
		}
	}
	return math.Sqrt(1.0 / (float64(n) * s))
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
