package forecast

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Linear is an ordinary least squares regression over the per-feature mean of
// a history window. It is the persisted serving model: weights fit offline,
// loaded once at startup and immutable afterwards.
type Linear struct {
	Window    int       `json:"window"`
	Features  int       `json:"features"`
	Intercept float64   `json:"intercept"`
	Coef      []float64 `json:"coef"`
}

// FitLinear fits OLS via QR factorization on mean-pooled windows. Each row of
// x is one pooled window, y holds the matching scaled targets, and windowLen
// records the window length predictions must supply.
func FitLinear(x [][]float64, y []float64, windowLen int) (*Linear, error) {
	if len(x) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%d training rows and %d targets, %w", len(x), len(y), ErrTargetLenMismatch)
	}
	m := len(x)
	n := len(x[0])

	// design matrix with a leading column of ones for the intercept
	design := mat.NewDense(m, n+1, nil)
	ones := make([]float64, m)
	floats.AddConst(1.0, ones)
	design.SetCol(0, ones)
	for j := 0; j < n; j++ {
		col := make([]float64, m)
		for i := 0; i < m; i++ {
			if len(x[i]) != n {
				return nil, fmt.Errorf("training row %d has %d features, want %d, %w", i, len(x[i]), n, ErrShapeMismatch)
			}
			col[i] = x[i][j]
		}
		design.SetCol(j+1, col)
	}

	yT := mat.NewDense(1, m, y)

	qr := new(mat.QR)
	qr.Factorize(design)

	q := new(mat.Dense)
	r := new(mat.Dense)
	qr.QTo(q)
	qr.RTo(r)

	yq := new(mat.Dense)
	yq.Mul(yT, q)

	c := make([]float64, n+1)
	for i := n; i >= 0; i-- {
		c[i] = yq.At(0, i)
		for j := i + 1; j <= n; j++ {
			c[i] -= c[j] * r.At(i, j)
		}
		c[i] /= r.At(i, i)
	}

	return &Linear{
		Window:    windowLen,
		Features:  n,
		Intercept: c[0],
		Coef:      c[1:],
	}, nil
}

// Predict pools the window and applies the fitted weights.
func (l *Linear) Predict(seq [][]float64) (float64, error) {
	if len(seq) != l.Window {
		return 0, fmt.Errorf("sequence has %d rows, model trained on %d, %w", len(seq), l.Window, ErrShapeMismatch)
	}
	if len(seq[0]) != l.Features {
		return 0, fmt.Errorf("sequence has %d features, model trained on %d, %w", len(seq[0]), l.Features, ErrShapeMismatch)
	}
	pooled := PoolWindow(seq)
	pred := l.Intercept
	for j, w := range l.Coef {
		pred += w * pooled[j]
	}
	return pred, nil
}

// Save persists the fitted weights as JSON.
func Save(l *Linear, path string) error {
	buf, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Load reads persisted weights. A missing file wraps ErrArtifactMissing,
// which is fatal for service startup.
func Load(path string) (*Linear, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrArtifactMissing)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var l Linear
	if err := json.Unmarshal(buf, &l); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if l.Window < 1 || l.Features < 1 || len(l.Coef) != l.Features {
		return nil, fmt.Errorf("%s: malformed model weights", path)
	}
	return &l, nil
}
