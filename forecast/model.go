// Package forecast defines the narrow capability the prediction service
// consumes and the concrete regressors the training pipeline fits. The
// serving core only depends on Model, so it can be tested with a stub.
package forecast

import "errors"

var (
	ErrArtifactMissing   = errors.New("model weights not found")
	ErrNoTrainingData    = errors.New("no training data")
	ErrTargetLenMismatch = errors.New("target length does not match training rows")
	ErrShapeMismatch     = errors.New("sequence shape does not match trained model")
)

// Model maps one scaled history window, shaped (window x features), to the
// next-step scaled temperature.
type Model interface {
	Predict(seq [][]float64) (float64, error)
}

// PoolWindow reduces a window to its per-feature mean, the representation the
// linear regressor was trained on.
func PoolWindow(seq [][]float64) []float64 {
	if len(seq) == 0 {
		return nil
	}
	n := len(seq[0])
	pooled := make([]float64, n)
	for _, row := range seq {
		for j := 0; j < n; j++ {
			pooled[j] += row[j]
		}
	}
	for j := range pooled {
		pooled[j] /= float64(len(seq))
	}
	return pooled
}
