package linear

import (
	"fmt"
	"math"
)

// DefaultThreshold is the decision boundary applied when an artifact does not
// carry its own.
const DefaultThreshold = 0.5

type Weights struct {
	Bias         float64   `json:"bias"`
	Coefficients []float64 `json:"coefficients"`
}

// Check reports a coefficient count that does not match the feature count.
func (w Weights) Check(features int) error {
	if len(w.Coefficients) != features {
		return fmt.Errorf("weights carry %d coefficients for %d features", len(w.Coefficients), features)
	}
	for i, c := range w.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	return nil
}

// Predict returns the positive-class probability for sample.
func Predict(weights Weights, sample []float64) float64 {
	return sigmoid(dot(weights.Coefficients, sample) + weights.Bias)
}

// Classify returns 1 when the probability reaches threshold, otherwise 0.
func Classify(weights Weights, sample []float64, threshold float64) int {
	if Predict(weights, sample) >= threshold {
		return 1
	}
	return 0
}

func dot(weights []float64, sample []float64) float64 {
	var sum float64
	for i := 0; i < len(weights) && i < len(sample); i++ {
		sum += weights[i] * sample[i]
	}
	return sum
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
