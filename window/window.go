// Package window slides a fixed-length window over the scaled feature matrix
// to produce (history, next-step-target) training pairs.
//
// The iterator treats the filtered matrix as contiguous in row-index space:
// rows removed by outlier filtering may make adjacent rows jump in real
// elapsed time, and windows deliberately splice across such gaps. The model
// weights were trained with this behavior; changing it would invalidate them.
package window

import (
	"errors"
	"fmt"
)

var ErrInsufficientData = errors.New("not enough rows for one training window")

// Pair is one training example: a window of history and the target value of
// the row immediately following it.
type Pair struct {
	Seq    [][]float64
	Target float64
}

// Iter lazily yields every (window, target) pair of a matrix. It is finite
// and restartable via Reset.
type Iter struct {
	matrix    [][]float64
	w         int
	targetCol int
	pos       int
}

// New validates that the matrix can produce at least one pair. A matrix of
// length L yields exactly L-w pairs.
func New(matrix [][]float64, w, targetCol int) (*Iter, error) {
	if w < 1 {
		return nil, fmt.Errorf("window length must be positive, got %d", w)
	}
	if len(matrix) < w+1 {
		return nil, fmt.Errorf("have %d rows, need at least %d, %w", len(matrix), w+1, ErrInsufficientData)
	}
	if targetCol < 0 || targetCol >= len(matrix[0]) {
		return nil, fmt.Errorf("target column %d out of range for %d features", targetCol, len(matrix[0]))
	}
	return &Iter{
		matrix:    matrix,
		w:         w,
		targetCol: targetCol,
	}, nil
}

// Next yields the next pair. Seq is a subslice of the source matrix, not a
// copy; callers must not mutate it.
func (it *Iter) Next() (Pair, bool) {
	if it.pos+it.w >= len(it.matrix) {
		return Pair{}, false
	}
	p := Pair{
		Seq:    it.matrix[it.pos : it.pos+it.w],
		Target: it.matrix[it.pos+it.w][it.targetCol],
	}
	it.pos++
	return p, true
}

// Reset restarts iteration from the first window.
func (it *Iter) Reset() {
	it.pos = 0
}

// Count reports the total number of pairs the iterator produces.
func (it *Iter) Count() int {
	return len(it.matrix) - it.w
}
