package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"tempcast/scaler"
)

// writeFitChart renders actual vs predicted temperature on the held-out
// split, descaled back to degrees Celsius.
func writeFitChart(path string, t []time.Time, actual, predicted []float64, targ *scaler.Params) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Temperature Forecast Fit",
			},
		),
	)

	lineDataActual := make([]opts.LineData, 0, len(actual))
	lineDataPredicted := make([]opts.LineData, 0, len(predicted))
	for i := range actual {
		lineDataActual = append(lineDataActual, opts.LineData{Value: targ.InverseValue(actual[i], 0)})
		lineDataPredicted = append(lineDataPredicted, opts.LineData{Value: targ.InverseValue(predicted[i], 0)})
	}

	line.SetXAxis(t).
		AddSeries("Actual", lineDataActual).
		AddSeries("Predicted", lineDataPredicted)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return line.Render(f)
}
