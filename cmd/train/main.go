// Command train runs the offline pipeline: load and clean the raw climate
// CSV, fit and persist the feature and target scalers, window the scaled
// matrix, fit the linear model, score it against the moving-average baseline
// and persist the weights.
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/profile"

	"tempcast/dataset"
	"tempcast/forecast"
	"tempcast/preprocess"
	"tempcast/scaler"
	"tempcast/window"
)

func main() {
	csvPath := flag.String("csv", "jena_climate_2009_2016.csv", "raw climate CSV")
	outDir := flag.String("out", ".", "artifact output directory")
	windowLen := flag.Int("window", 144, "history window length")
	stride := flag.Int("stride", 6, "downsample stride")
	zmax := flag.Float64("zmax", 3.0, "z-score outlier threshold")
	profileRun := flag.Bool("profile", false, "write a CPU profile")
	chartPath := flag.String("chart", "", "write an HTML fit chart to this path")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *profileRun {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*outDir)).Stop()
	}

	if err := run(*csvPath, *outDir, *windowLen, *stride, *zmax, *chartPath, logger); err != nil {
		logger.Error("training failed", "error", err)
		os.Exit(1)
	}
}

func run(csvPath, outDir string, windowLen, stride int, zmax float64, chartPath string, logger *slog.Logger) error {
	logger.Info("loading and preprocessing data", "csv", csvPath)
	samples, err := dataset.Open(csvPath)
	if err != nil {
		return err
	}
	ds, err := dataset.New(samples)
	if err != nil {
		return err
	}
	ds = ds.ForwardFill()

	pre, err := preprocess.Run(ds, &preprocess.Options{Stride: stride, ZThreshold: zmax})
	if err != nil {
		return err
	}
	logger.Info("preprocessed", "rows", len(pre.Matrix))

	featParams, err := scaler.Fit(pre.Matrix)
	if err != nil {
		return err
	}
	if err := scaler.Save(featParams, filepath.Join(outDir, "feature_scaler.json")); err != nil {
		return err
	}

	targParams, err := scaler.Fit(preprocess.TargetColumn(pre.Matrix, preprocess.TemperatureColumn))
	if err != nil {
		return err
	}
	if err := scaler.Save(targParams, filepath.Join(outDir, "target_scaler.json")); err != nil {
		return err
	}

	scaled, err := featParams.Transform(pre.Matrix)
	if err != nil {
		return err
	}

	it, err := window.New(scaled, windowLen, preprocess.TemperatureColumn)
	if err != nil {
		return err
	}
	logger.Info("creating sequences", "window", windowLen, "count", it.Count())

	x := make([][]float64, 0, it.Count())
	y := make([]float64, 0, it.Count())
	for {
		pair, ok := it.Next()
		if !ok {
			break
		}
		x = append(x, forecast.PoolWindow(pair.Seq))
		y = append(y, pair.Target)
	}

	// chronological 80/20 split, no shuffle
	split := len(x) * 8 / 10
	if split == 0 || split == len(x) {
		return window.ErrInsufficientData
	}
	xTrain, xEval := x[:split], x[split:]
	yTrain, yEval := y[:split], y[split:]

	model, err := forecast.FitLinear(xTrain, yTrain, windowLen)
	if err != nil {
		return err
	}

	predicted := make([]float64, len(xEval))
	for i, pooled := range xEval {
		p := model.Intercept
		for j, w := range model.Coef {
			p += w * pooled[j]
		}
		predicted[i] = p
	}
	modelMAE, err := forecast.MeanAbsoluteError(predicted, yEval)
	if err != nil {
		return err
	}

	baseline, err := forecast.NewMovingAverage(yTrain, windowLen)
	if err != nil {
		return err
	}
	baselinePred := make([]float64, len(yEval))
	for i := range baselinePred {
		baselinePred[i] = baseline.Mean
	}
	baselineMAE, err := forecast.MeanAbsoluteError(baselinePred, yEval)
	if err != nil {
		return err
	}

	logger.Info("evaluation (scaled units)",
		"linear_mae", modelMAE,
		"moving_average_mae", baselineMAE)

	if err := forecast.Save(model, filepath.Join(outDir, "model.weights.json")); err != nil {
		return err
	}
	logger.Info("artifacts written", "dir", outDir)

	if chartPath != "" {
		times := pre.Times[split+windowLen:]
		if err := writeFitChart(chartPath, times, yEval, predicted, targParams); err != nil {
			return err
		}
		logger.Info("fit chart written", "path", chartPath)
	}
	return nil
}
