// Package preprocess turns a cleaned dataset into the scaled-ready feature
// matrix the model trains on: hourly downsampling followed by z-score outlier
// rejection over the selected features.
package preprocess

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"tempcast/dataset"
)

// Features is the canonical model input order. Temperature must stay at
// TemperatureColumn since the windower reads its targets from that column.
var Features = []string{"p (mbar)", "T (degC)", "rh (%)", "wv (m/s)"}

const TemperatureColumn = 1

var ErrIncompleteRow = errors.New("row has missing feature after forward fill")

type Options struct {
	// Stride selects every Nth row, reducing the 10-minute source cadence
	// to hourly at the default of 6.
	Stride int

	// ZThreshold drops a row when any feature's |z-score| meets or exceeds
	// it. The mean and standard deviation are population statistics of the
	// downsampled corpus, recomputed per run.
	ZThreshold float64
}

func NewDefaultOptions() *Options {
	return &Options{
		Stride:     6,
		ZThreshold: 3.0,
	}
}

// Result is the surviving feature matrix, row-aligned with its timestamps.
type Result struct {
	Times  []time.Time
	Matrix [][]float64
}

// Run downsamples, validates completeness and filters outlier rows. The
// returned matrix rows follow the Features column order.
func Run(ds *dataset.Dataset, opt *Options) (*Result, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if opt.Stride < 1 {
		return nil, fmt.Errorf("stride must be positive, got %d", opt.Stride)
	}
	if len(ds.Samples) == 0 {
		return nil, dataset.ErrNoData
	}

	var (
		times []time.Time
		rows  [][]float64
	)
	for i := 0; i < len(ds.Samples); i += opt.Stride {
		s := ds.Samples[i]
		row := featureRow(s)
		for j, v := range row {
			if math.IsNaN(v) {
				return nil, fmt.Errorf("row %d feature %q: %w", i, Features[j], ErrIncompleteRow)
			}
		}
		times = append(times, s.Time)
		rows = append(rows, row)
	}

	keep := inlierMask(rows, opt.ZThreshold)
	res := &Result{
		Times:  make([]time.Time, 0, len(rows)),
		Matrix: make([][]float64, 0, len(rows)),
	}
	for i, ok := range keep {
		if !ok {
			continue
		}
		res.Times = append(res.Times, times[i])
		res.Matrix = append(res.Matrix, rows[i])
	}
	return res, nil
}

func featureRow(s dataset.Sample) []float64 {
	return []float64{s.Pressure, s.Temperature, s.RelHumidity, s.WindSpeed}
}

// inlierMask marks rows where every feature stays within the z-score
// threshold. A zero-variance feature contributes z = 0 for every row.
func inlierMask(rows [][]float64, threshold float64) []bool {
	keep := make([]bool, len(rows))
	if len(rows) == 0 {
		return keep
	}
	n := len(rows[0])

	col := make([]float64, len(rows))
	means := make([]float64, n)
	stds := make([]float64, n)
	for j := 0; j < n; j++ {
		for i := range rows {
			col[i] = rows[i][j]
		}
		means[j] = stat.Mean(col, nil)
		stds[j] = math.Sqrt(stat.PopVariance(col, nil))
	}

	for i := range rows {
		keep[i] = true
		for j := 0; j < n; j++ {
			if stds[j] == 0 {
				continue
			}
			z := (rows[i][j] - means[j]) / stds[j]
			if math.Abs(z) >= threshold {
				keep[i] = false
				break
			}
		}
	}
	return keep
}

// TargetColumn extracts one column of the matrix as an n-by-1 matrix, used to
// fit the scalar target scaler.
func TargetColumn(matrix [][]float64, col int) [][]float64 {
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		out[i] = []float64{row[col]}
	}
	return out
}
