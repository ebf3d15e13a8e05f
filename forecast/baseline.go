package forecast

import "gonum.org/v1/gonum/stat"

// MovingAverage predicts a constant: the mean of the last N training targets.
// It exists as the evaluation floor any fitted model has to beat.
type MovingAverage struct {
	Mean float64
}

// NewMovingAverage computes the mean of the trailing n targets, or of the
// whole slice when it is shorter than n.
func NewMovingAverage(targets []float64, n int) (*MovingAverage, error) {
	if len(targets) == 0 {
		return nil, ErrNoTrainingData
	}
	if n > len(targets) {
		n = len(targets)
	}
	tail := targets[len(targets)-n:]
	return &MovingAverage{Mean: stat.Mean(tail, nil)}, nil
}

func (m *MovingAverage) Predict(seq [][]float64) (float64, error) {
	return m.Mean, nil
}
