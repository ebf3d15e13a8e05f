// Package scaler implements min-max feature scaling with persisted fit
// parameters. Parameters are fit once over the training corpus and reused
// unchanged for every later transform; refitting at inference time would
// silently change the meaning of persisted model weights.
package scaler

import (
	"errors"
	"fmt"
	"math"
	"os"

	json "github.com/goccy/go-json"
)

var (
	ErrArtifactMissing   = errors.New("scaler artifact not found")
	ErrNoData            = errors.New("no data to fit")
	ErrDimensionMismatch = errors.New("column count does not match fitted parameters")
)

// Params holds the per-column minimum and maximum observed at fit time.
type Params struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

// Fit computes per-column min/max over the matrix, mapping the observed range
// onto [0, 1].
func Fit(data [][]float64) (*Params, error) {
	if len(data) == 0 || len(data[0]) == 0 {
		return nil, ErrNoData
	}
	n := len(data[0])
	p := &Params{
		Min: make([]float64, n),
		Max: make([]float64, n),
	}
	for j := 0; j < n; j++ {
		p.Min[j] = math.Inf(1)
		p.Max[j] = math.Inf(-1)
	}
	for i, row := range data {
		if len(row) != n {
			return nil, fmt.Errorf("row %d has %d columns, want %d, %w", i, len(row), n, ErrDimensionMismatch)
		}
		for j, v := range row {
			p.Min[j] = math.Min(p.Min[j], v)
			p.Max[j] = math.Max(p.Max[j], v)
		}
	}
	return p, nil
}

// Columns reports the number of fitted columns.
func (p *Params) Columns() int {
	return len(p.Min)
}

// ScaleValue maps one value of column col into the fitted range. Values
// outside the fit range legitimately map outside [0, 1]; the prediction path
// rescales live data that was never part of the training corpus, so no
// clamping is applied.
func (p *Params) ScaleValue(v float64, col int) float64 {
	span := p.Max[col] - p.Min[col]
	if span == 0 {
		// zero data range at fit time, mirror scikit-learn and emit 0
		return 0
	}
	return (v - p.Min[col]) / span
}

// InverseValue maps a scaled value of column col back to the original scale.
func (p *Params) InverseValue(v float64, col int) float64 {
	return v*(p.Max[col]-p.Min[col]) + p.Min[col]
}

// TransformRow scales one row into a new slice.
func (p *Params) TransformRow(row []float64) ([]float64, error) {
	if len(row) != p.Columns() {
		return nil, fmt.Errorf("row has %d columns, want %d, %w", len(row), p.Columns(), ErrDimensionMismatch)
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = p.ScaleValue(v, j)
	}
	return out, nil
}

// Transform scales a matrix into a newly allocated matrix.
func (p *Params) Transform(data [][]float64) ([][]float64, error) {
	out := make([][]float64, len(data))
	for i, row := range data {
		scaled, err := p.TransformRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = scaled
	}
	return out, nil
}

// InverseTransform maps a scaled matrix back to the original scale.
func (p *Params) InverseTransform(data [][]float64) ([][]float64, error) {
	out := make([][]float64, len(data))
	for i, row := range data {
		if len(row) != p.Columns() {
			return nil, fmt.Errorf("row %d has %d columns, want %d, %w", i, len(row), p.Columns(), ErrDimensionMismatch)
		}
		orig := make([]float64, len(row))
		for j, v := range row {
			orig[j] = p.InverseValue(v, j)
		}
		out[i] = orig
	}
	return out, nil
}

// Save persists fitted parameters as JSON.
func Save(p *Params, path string) error {
	buf, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding scaler: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Load reads previously persisted parameters. A missing file wraps
// ErrArtifactMissing; callers treat that as fatal for service startup.
func Load(path string) (*Params, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrArtifactMissing)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var p Params
	if err := json.Unmarshal(buf, &p); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if len(p.Min) == 0 || len(p.Min) != len(p.Max) {
		return nil, fmt.Errorf("%s: malformed scaler parameters", path)
	}
	return &p, nil
}
