package service

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempcast/forecast"
	"tempcast/scaler"
)

type stubModel struct {
	val float64
	err error
	got [][]float64
}

func (s *stubModel) Predict(seq [][]float64) (float64, error) {
	s.got = seq
	return s.val, s.err
}

func float(v float64) *float64 { return &v }

// readyService wires a Ready service around a stub model without touching
// disk. Scalers use the synthetic training ranges pressure [950,1050],
// temperature [-10,40], humidity [0,100], wind [0,20].
func readyService(t *testing.T, model forecast.Model, window int) *Service {
	t.Helper()
	s := New(Config{Window: window}, nil)
	s.model = model
	s.featScaler = &scaler.Params{
		Min: []float64{950, -10, 0, 0},
		Max: []float64{1050, 40, 100, 20},
	}
	s.targScaler = &scaler.Params{
		Min: []float64{-10},
		Max: []float64{40},
	}
	s.state.Store(int32(StateReady))
	return s
}

func makePoints(n int) []Point {
	points := make([]Point, n)
	for i := range points {
		points[i] = Point{
			Time:        time.Date(2016, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
			Pressure:    1000,
			Temperature: 15,
			WindSpeed:   4,
			RelHumidity: float(60),
		}
	}
	return points
}

func TestPredictSuccess(t *testing.T) {
	model := &stubModel{val: 0.5}
	s := readyService(t, model, 144)

	res, err := s.Predict(makePoints(144))
	require.NoError(t, err)

	assert.Equal(t, "success", res.Status)
	// scaled 0.5 descales to the middle of the [-10, 40] target range
	assert.InDelta(t, 15.0, res.PredictedTemperature, 1e-9)
	assert.GreaterOrEqual(t, res.PredictedTemperature, -10.0)
	assert.LessOrEqual(t, res.PredictedTemperature, 40.0)
	assert.Equal(t, 15.0, res.ActualTemperature)
	assert.InDelta(t, 0.95, res.Confidence, 1e-12)
	assert.Equal(t, []string{"p (mbar)", "T (degC)", "rh (%)", "wv (m/s)"}, res.FeaturesUsed)

	// the model saw a scaled (144 x 4) matrix
	require.Len(t, model.got, 144)
	require.Len(t, model.got[0], 4)
	assert.InDelta(t, 0.5, model.got[0][0], 1e-12)
	assert.InDelta(t, 0.5, model.got[0][1], 1e-12)
	assert.InDelta(t, 0.6, model.got[0][2], 1e-12)
	assert.InDelta(t, 0.2, model.got[0][3], 1e-12)
}

func TestPredictWrongLength(t *testing.T) {
	s := readyService(t, &stubModel{val: 0.5}, 144)

	_, err := s.Predict(makePoints(100))
	assert.ErrorIs(t, err, ErrInvalidSequenceLength)

	_, err = s.Predict(makePoints(145))
	assert.ErrorIs(t, err, ErrInvalidSequenceLength)
}

func TestPredictNotReady(t *testing.T) {
	s := New(Config{Window: 144}, nil)

	_, err := s.Predict(makePoints(144))
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestPredictResortsByTime(t *testing.T) {
	model := &stubModel{val: 0.5}
	s := readyService(t, model, 3)

	points := makePoints(3)
	points[2].Temperature = 30 // chronologically last
	reversed := []Point{points[2], points[1], points[0]}

	res, err := s.Predict(reversed)
	require.NoError(t, err)

	// actual temperature comes from the chronologically last record
	assert.Equal(t, 30.0, res.ActualTemperature)
	// first row the model saw is the chronologically first record
	assert.InDelta(t, 0.5, model.got[0][1], 1e-12)
	assert.InDelta(t, 0.8, model.got[2][1], 1e-12)
}

func TestPredictDerivesHumidity(t *testing.T) {
	s := readyService(t, &stubModel{val: 0.5}, 2)

	points := makePoints(2)
	points[1].RelHumidity = nil
	points[1].DewPoint = float(7.3) // ~60% RH at 15 degC

	res, err := s.Predict(points)
	require.NoError(t, err)

	require.Contains(t, res.CalculatedFields, 1)
	rh, ok := res.CalculatedFields[1]["rh (%)"]
	require.True(t, ok)
	assert.InDelta(t, 60, rh, 1.0)
}

func TestPredictMissingHumidity(t *testing.T) {
	s := readyService(t, &stubModel{val: 0.5}, 2)

	points := makePoints(2)
	points[1].RelHumidity = nil // no dew point either, underivable

	_, err := s.Predict(points)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestPredictInferenceFailure(t *testing.T) {
	s := readyService(t, &stubModel{err: errors.New("boom")}, 2)

	_, err := s.Predict(makePoints(2))
	assert.ErrorIs(t, err, ErrInference)

	// a bad request must not take the service down
	assert.Equal(t, StateReady, s.State())
}

func TestConfidence(t *testing.T) {
	prev := 0.0
	for n := 0; n <= 200; n += 10 {
		c := Confidence(n)
		assert.GreaterOrEqual(t, c, prev, "monotonically non-decreasing")
		assert.LessOrEqual(t, c, 0.95)
		prev = c
	}
	assert.InDelta(t, 0.7, Confidence(0), 1e-12)
	assert.InDelta(t, 0.9, Confidence(100), 1e-12)
	assert.Equal(t, 0.95, Confidence(144))
}

func TestCompleteFieldsDoesNotMutateInput(t *testing.T) {
	points := makePoints(1)
	points[0].RelHumidity = nil
	points[0].DewPoint = float(5)

	completed, derived := CompleteFields(points)

	assert.Nil(t, points[0].RelHumidity, "input untouched")
	require.NotNil(t, completed[0].RelHumidity)
	require.Contains(t, derived, 0)
	assert.Contains(t, derived[0], "rh (%)")
	assert.Contains(t, derived[0], "VPmax (mbar)")
	assert.Contains(t, derived[0], "VPact (mbar)")
	assert.Contains(t, derived[0], "VPdef (mbar)")
}

func writeArtifacts(t *testing.T, dir string) (modelPath, featPath, targPath string) {
	t.Helper()
	modelPath = filepath.Join(dir, "model.weights.json")
	featPath = filepath.Join(dir, "feature_scaler.json")
	targPath = filepath.Join(dir, "target_scaler.json")

	require.NoError(t, forecast.Save(&forecast.Linear{
		Window:   2,
		Features: 4,
		Coef:     []float64{0, 1, 0, 0},
	}, modelPath))
	require.NoError(t, scaler.Save(&scaler.Params{
		Min: []float64{950, -10, 0, 0},
		Max: []float64{1050, 40, 100, 20},
	}, featPath))
	require.NoError(t, scaler.Save(&scaler.Params{
		Min: []float64{-10},
		Max: []float64{40},
	}, targPath))
	return modelPath, featPath, targPath
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	modelPath, featPath, targPath := writeArtifacts(t, dir)

	s := New(Config{
		ModelPath:         modelPath,
		FeatureScalerPath: featPath,
		TargetScalerPath:  targPath,
		Window:            2,
	}, nil)
	require.Equal(t, StateUninitialized, s.State())

	require.NoError(t, s.Load())
	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, map[string]bool{
		ArtifactWeights:       true,
		ArtifactFeatureScaler: true,
		ArtifactTargetScaler:  true,
	}, s.Artifacts())

	_, err := s.Predict(makePoints(2))
	assert.NoError(t, err)
}

func TestLoadMissingArtifact(t *testing.T) {
	dir := t.TempDir()
	modelPath, featPath, _ := writeArtifacts(t, dir)

	s := New(Config{
		ModelPath:         modelPath,
		FeatureScalerPath: featPath,
		TargetScalerPath:  filepath.Join(dir, "missing.json"),
		Window:            2,
	}, nil)

	err := s.Load()
	require.ErrorIs(t, err, scaler.ErrArtifactMissing)
	assert.Equal(t, StateFailed, s.State())
	assert.Equal(t, map[string]bool{
		ArtifactWeights:       true,
		ArtifactFeatureScaler: true,
		ArtifactTargetScaler:  false,
	}, s.Artifacts())

	_, err = s.Predict(makePoints(2))
	assert.ErrorIs(t, err, ErrNotReady)
}
