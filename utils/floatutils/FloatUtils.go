// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// ArgMax returns the indices of the maximum values in a list of floats
func ArgMax(values ...float64) []int {
	max, indices := values[0], []int{0}

	for i := 1; i < len(values); i++ {
		if values[i] > max {
			max = values[i]
			indices = []int{i}
		} else if values[i] == max {
			indices = append(indices, i)
		}
	}
	return indices
}

// Softmax returns the softmax of the argument logits. The input slice
// is not modified.
func Softmax(logits []float64) []float64 {
	probs := make([]float64, len(logits))
	copy(probs, logits)

	// Subtract the log-sum-exp for numerical stability
	lse := floats.LogSumExp(probs)
	floats.AddConst(-lse, probs)
	for i := range probs {
		probs[i] = math.Exp(probs[i])
	}
	return probs
}
