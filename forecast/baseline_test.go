package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMovingAverage(t *testing.T) {
	testData := map[string]struct {
		targets []float64
		n       int
		err     error
		mean    float64
	}{
		"no data": {
			nil, 3,
			ErrNoTrainingData, 0,
		},
		"window larger than data": {
			[]float64{1, 2, 3}, 10,
			nil, 2,
		},
		"trailing window": {
			[]float64{100, 100, 2, 4}, 2,
			nil, 3,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			m, err := NewMovingAverage(td.targets, td.n)
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, td.mean, m.Mean, 1e-12)

			pred, err := m.Predict(nil)
			require.NoError(t, err)
			assert.Equal(t, m.Mean, pred)
		})
	}
}

func TestMeanAbsoluteError(t *testing.T) {
	mae, err := MeanAbsoluteError([]float64{1, 2, 3}, []float64{2, 2, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mae, 1e-12)

	_, err = MeanAbsoluteError([]float64{1}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrTargetLenMismatch)

	_, err = MeanAbsoluteError(nil, nil)
	assert.ErrorIs(t, err, ErrNoTrainingData)
}
