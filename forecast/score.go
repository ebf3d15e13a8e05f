package forecast

import (
	"fmt"
	"math"
)

// MeanAbsoluteError scores predictions against actuals.
func MeanAbsoluteError(predicted, actual []float64) (float64, error) {
	if len(predicted) == 0 {
		return 0, ErrNoTrainingData
	}
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("%d predictions and %d actuals, %w", len(predicted), len(actual), ErrTargetLenMismatch)
	}
	var sum float64
	for i := range predicted {
		sum += math.Abs(predicted[i] - actual[i])
	}
	return sum / float64(len(predicted)), nil
}
