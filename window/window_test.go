package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	matrix := [][]float64{
		{0, 10}, {1, 11}, {2, 12}, {3, 13}, {4, 14}, {5, 15},
	}

	testData := map[string]struct {
		matrix    [][]float64
		w         int
		targetCol int
		err       error
		count     int
	}{
		"zero window": {
			matrix, 0, 1,
			nil, 0,
		},
		"too short": {
			matrix[:3], 4, 1,
			ErrInsufficientData, 0,
		},
		"exact minimum": {
			matrix[:5], 4, 1,
			nil, 1,
		},
		"target column out of range": {
			matrix, 2, 2,
			nil, 0,
		},
		"full matrix": {
			matrix, 4, 1,
			nil, 2,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			it, err := New(td.matrix, td.w, td.targetCol)
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				return
			}
			if td.count == 0 {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.count, it.Count())
		})
	}
}

func TestIterPairs(t *testing.T) {
	matrix := [][]float64{
		{0, 10}, {1, 11}, {2, 12}, {3, 13}, {4, 14}, {5, 15},
	}
	it, err := New(matrix, 4, 1)
	require.NoError(t, err)

	// a matrix of length L yields exactly L-w pairs
	require.Equal(t, 2, it.Count())

	p, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, matrix[0:4], p.Seq)
	assert.Equal(t, 14.0, p.Target, "target is the row immediately after the window")

	p, ok = it.Next()
	require.True(t, ok)
	assert.Equal(t, matrix[1:5], p.Seq)
	assert.Equal(t, 15.0, p.Target)

	_, ok = it.Next()
	assert.False(t, ok)
}

func TestIterReset(t *testing.T) {
	matrix := [][]float64{
		{0, 10}, {1, 11}, {2, 12},
	}
	it, err := New(matrix, 2, 1)
	require.NoError(t, err)

	first, ok := it.Next()
	require.True(t, ok)
	_, ok = it.Next()
	require.False(t, ok)

	it.Reset()
	again, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, first, again)
}
