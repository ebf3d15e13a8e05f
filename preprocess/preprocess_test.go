package preprocess

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempcast/dataset"
)

func makeSamples(n int) []dataset.Sample {
	samples := make([]dataset.Sample, n)
	for i := range samples {
		samples[i] = dataset.Sample{
			Time:        time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * 10 * time.Minute),
			Pressure:    996.5,
			Temperature: 10,
			RelHumidity: 90,
			WindSpeed:   1,
		}
	}
	return samples
}

func TestRunDownsample(t *testing.T) {
	ds := &dataset.Dataset{Samples: makeSamples(13)}

	res, err := Run(ds, &Options{Stride: 6, ZThreshold: 3})
	require.NoError(t, err)

	// rows 0, 6 and 12 survive the 6:1 downsample
	require.Len(t, res.Matrix, 3)
	assert.Equal(t, ds.Samples[0].Time, res.Times[0])
	assert.Equal(t, ds.Samples[6].Time, res.Times[1])
	assert.Equal(t, ds.Samples[12].Time, res.Times[2])
}

func TestRunFeatureOrder(t *testing.T) {
	samples := makeSamples(1)
	samples[0].Pressure = 1000
	samples[0].Temperature = 15
	samples[0].RelHumidity = 50
	samples[0].WindSpeed = 4

	res, err := Run(&dataset.Dataset{Samples: samples}, &Options{Stride: 1, ZThreshold: 3})
	require.NoError(t, err)
	require.Len(t, res.Matrix, 1)
	assert.Equal(t, []float64{1000, 15, 50, 4}, res.Matrix[0])
	assert.Equal(t, 15.0, res.Matrix[0][TemperatureColumn])
}

func TestRunOutlierRejection(t *testing.T) {
	samples := makeSamples(20)
	samples[7].Temperature = 100 // |z| = sqrt(19) against the rest at 10

	res, err := Run(&dataset.Dataset{Samples: samples}, &Options{Stride: 1, ZThreshold: 3})
	require.NoError(t, err)

	require.Len(t, res.Matrix, 19)
	for _, row := range res.Matrix {
		assert.NotEqual(t, 100.0, row[TemperatureColumn])
	}
	assert.NotContains(t, res.Times, samples[7].Time)
}

func TestRunZeroVarianceKeepsAll(t *testing.T) {
	ds := &dataset.Dataset{Samples: makeSamples(10)}

	res, err := Run(ds, &Options{Stride: 1, ZThreshold: 3})
	require.NoError(t, err)
	assert.Len(t, res.Matrix, 10)
}

func TestRunIncompleteRow(t *testing.T) {
	samples := makeSamples(3)
	samples[0].RelHumidity = math.NaN()

	_, err := Run(&dataset.Dataset{Samples: samples}, &Options{Stride: 1, ZThreshold: 3})
	assert.ErrorIs(t, err, ErrIncompleteRow)
}

func TestRunBadOptions(t *testing.T) {
	ds := &dataset.Dataset{Samples: makeSamples(3)}

	_, err := Run(ds, &Options{Stride: 0, ZThreshold: 3})
	assert.Error(t, err)

	_, err = Run(&dataset.Dataset{}, nil)
	assert.ErrorIs(t, err, dataset.ErrNoData)
}

func TestTargetColumn(t *testing.T) {
	matrix := [][]float64{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
	}
	assert.Equal(t, [][]float64{{2}, {6}}, TargetColumn(matrix, 1))
}
