// Package service implements the prediction-serving core: artifact loading
// with an explicit lifecycle, field completion for partial weather records,
// and the scale-predict-descale request pipeline.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"tempcast/forecast"
	"tempcast/meteo"
	"tempcast/preprocess"
	"tempcast/scaler"
)

var (
	ErrNotReady              = errors.New("model artifacts not loaded")
	ErrInvalidSequenceLength = errors.New("history has wrong number of records")
	ErrMissingField          = errors.New("record is missing a required feature")
	ErrInference             = errors.New("forecast model failed")
)

// State is the service lifecycle. Failed is terminal; recovery requires a
// process restart.
type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Artifact names the persisted files the service needs before serving.
const (
	ArtifactWeights       = "weights"
	ArtifactFeatureScaler = "feature_scaler"
	ArtifactTargetScaler  = "target_scaler"
)

// Point is one raw, unscaled weather record. Pointer fields are optional and
// may be derived during field completion.
type Point struct {
	Time        time.Time
	Pressure    float64
	Temperature float64
	WindSpeed   float64
	RelHumidity *float64
	DewPoint    *float64
	VPMax       *float64
	VPAct       *float64
	VPDef       *float64
}

// Result is the outcome of one prediction request. Computed per request,
// never persisted.
type Result struct {
	PredictedTemperature float64
	ActualTemperature    float64
	Confidence           float64
	Status               string
	FeaturesUsed         []string
	// CalculatedFields maps the caller's record index to the fields
	// derived during completion, keyed by their canonical column names.
	CalculatedFields map[int]map[string]float64
}

// Config locates the persisted artifacts and fixes the window length the
// model was trained with.
type Config struct {
	ModelPath         string
	FeatureScalerPath string
	TargetScalerPath  string
	Window            int
}

// Service holds the model and scalers, loaded once and immutable afterwards.
// Predict allocates all per-request state, so concurrent requests share
// nothing mutable.
type Service struct {
	cfg    Config
	logger *slog.Logger

	state atomic.Int32

	mu        sync.RWMutex
	artifacts map[string]bool

	model      forecast.Model
	featScaler *scaler.Params
	targScaler *scaler.Params
}

func New(cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Window == 0 {
		cfg.Window = 144
	}
	return &Service{
		cfg:    cfg,
		logger: logger,
		artifacts: map[string]bool{
			ArtifactWeights:       false,
			ArtifactFeatureScaler: false,
			ArtifactTargetScaler:  false,
		},
	}
}

// Load reads all three artifacts and transitions the service to Ready, or to
// the terminal Failed state when any is absent or malformed.
func (s *Service) Load() error {
	s.state.Store(int32(StateLoading))

	model, err := forecast.Load(s.cfg.ModelPath)
	s.setArtifact(ArtifactWeights, err == nil)
	if err != nil {
		s.state.Store(int32(StateFailed))
		return fmt.Errorf("loading model weights: %w", err)
	}

	feat, err := scaler.Load(s.cfg.FeatureScalerPath)
	s.setArtifact(ArtifactFeatureScaler, err == nil)
	if err != nil {
		s.state.Store(int32(StateFailed))
		return fmt.Errorf("loading feature scaler: %w", err)
	}

	targ, err := scaler.Load(s.cfg.TargetScalerPath)
	s.setArtifact(ArtifactTargetScaler, err == nil)
	if err != nil {
		s.state.Store(int32(StateFailed))
		return fmt.Errorf("loading target scaler: %w", err)
	}

	if feat.Columns() != len(preprocess.Features) {
		s.state.Store(int32(StateFailed))
		return fmt.Errorf("feature scaler has %d columns, want %d", feat.Columns(), len(preprocess.Features))
	}

	s.model = model
	s.featScaler = feat
	s.targScaler = targ
	s.state.Store(int32(StateReady))
	s.logger.Info("prediction service ready",
		"window", s.cfg.Window,
		"features", len(preprocess.Features))
	return nil
}

func (s *Service) setArtifact(name string, ok bool) {
	s.mu.Lock()
	s.artifacts[name] = ok
	s.mu.Unlock()
}

func (s *Service) State() State {
	return State(s.state.Load())
}

// Artifacts reports per-artifact load status for health introspection.
func (s *Service) Artifacts() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.artifacts))
	for k, v := range s.artifacts {
		out[k] = v
	}
	return out
}

// Predict runs the per-request contract: complete derivable fields, re-sort
// chronologically, validate the window length, scale, infer and descale.
func (s *Service) Predict(points []Point) (*Result, error) {
	if s.State() != StateReady {
		return nil, ErrNotReady
	}

	completed, derived := CompleteFields(points)

	sort.SliceStable(completed, func(i, j int) bool {
		return completed[i].Time.Before(completed[j].Time)
	})

	if len(completed) != s.cfg.Window {
		return nil, fmt.Errorf("got %d records, want %d, %w", len(completed), s.cfg.Window, ErrInvalidSequenceLength)
	}

	matrix := make([][]float64, len(completed))
	for i, p := range completed {
		if p.RelHumidity == nil {
			return nil, fmt.Errorf("record %d has no relative humidity and no dew point to derive it from, %w", i, ErrMissingField)
		}
		matrix[i] = []float64{p.Pressure, p.Temperature, *p.RelHumidity, p.WindSpeed}
	}

	scaled, err := s.featScaler.Transform(matrix)
	if err != nil {
		return nil, fmt.Errorf("scaling request features: %w", err)
	}

	scaledPred, err := s.model.Predict(scaled)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}

	return &Result{
		PredictedTemperature: s.targScaler.InverseValue(scaledPred, 0),
		ActualTemperature:    completed[len(completed)-1].Temperature,
		Confidence:           Confidence(len(points)),
		Status:               "success",
		FeaturesUsed:         preprocess.Features,
		CalculatedFields:     derived,
	}, nil
}

// Confidence is a saturating heuristic of input length. It has no
// statistical grounding and is not calibrated against prediction error;
// treat it as a placeholder.
func Confidence(recordCount int) float64 {
	c := 0.7 + 0.002*float64(recordCount)
	if c > 0.95 {
		return 0.95
	}
	return c
}

// CompleteFields returns a new slice where derivable missing fields are
// filled via the Magnus relations, plus a map of what was derived per input
// index. The input is never mutated.
func CompleteFields(points []Point) ([]Point, map[int]map[string]float64) {
	completed := make([]Point, len(points))
	derived := make(map[int]map[string]float64)

	record := func(i int, name string, v float64) {
		if derived[i] == nil {
			derived[i] = make(map[string]float64)
		}
		derived[i][name] = v
	}

	for i, p := range points {
		c := p

		if c.RelHumidity == nil && c.DewPoint != nil {
			rh := meteo.RelativeHumidity(c.Temperature, *c.DewPoint)
			c.RelHumidity = &rh
			record(i, "rh (%)", rh)
		}
		if c.DewPoint == nil && c.RelHumidity != nil {
			dew := meteo.DewPoint(c.Temperature, *c.RelHumidity)
			c.DewPoint = &dew
			record(i, "Tdew (degC)", dew)
		}
		if c.VPMax == nil {
			vpMax := meteo.VaporPressure(c.Temperature)
			c.VPMax = &vpMax
			record(i, "VPmax (mbar)", vpMax)
		}
		if c.VPAct == nil && c.RelHumidity != nil {
			vpAct := meteo.VaporPressure(c.Temperature) * *c.RelHumidity / 100
			c.VPAct = &vpAct
			record(i, "VPact (mbar)", vpAct)
		}
		if c.VPDef == nil && c.VPMax != nil && c.VPAct != nil {
			vpDef := *c.VPMax - *c.VPAct
			c.VPDef = &vpDef
			record(i, "VPdef (mbar)", vpDef)
		}

		completed[i] = c
	}

	if len(derived) == 0 {
		derived = nil
	}
	return completed, derived
}
