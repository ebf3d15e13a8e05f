// Package dataset loads the raw climate CSV into validated, chronologically
// ordered weather samples. Missing numeric cells are represented as NaN until
// forward fill resolves them.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the timestamp format of the raw climate CSV.
const TimeLayout = "02.01.2006 15:04:05"

var (
	ErrParse            = errors.New("unparseable record")
	ErrNoData           = errors.New("no samples")
	ErrNonChronological = errors.New("timestamps are not strictly increasing")
	ErrMissingColumn    = errors.New("required column missing from header")
)

// Sample is one timestamped weather observation. Fields that were absent in
// the source row hold NaN.
type Sample struct {
	Time        time.Time
	Pressure    float64 // p (mbar)
	Temperature float64 // T (degC)
	DewPoint    float64 // Tdew (degC)
	RelHumidity float64 // rh (%)
	VPMax       float64 // VPmax (mbar)
	VPAct       float64 // VPact (mbar)
	VPDef       float64 // VPdef (mbar)
	WindSpeed   float64 // wv (m/s)
}

// Dataset holds samples sorted by time with exact duplicate rows removed.
type Dataset struct {
	Samples []Sample
}

// New sorts a copy of the input by timestamp, drops exact duplicate rows and
// verifies that the remaining timestamps are strictly increasing.
func New(samples []Sample) (*Dataset, error) {
	if len(samples) == 0 {
		return nil, ErrNoData
	}

	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	seen := make(map[string]struct{}, len(sorted))
	deduped := sorted[:0]
	for _, s := range sorted {
		k := s.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		deduped = append(deduped, s)
	}

	for i := 1; i < len(deduped); i++ {
		if !deduped[i].Time.After(deduped[i-1].Time) {
			return nil, fmt.Errorf("at row %d (%s), %w", i, deduped[i].Time, ErrNonChronological)
		}
	}

	return &Dataset{Samples: deduped}, nil
}

// key identifies an exact duplicate row. NaN formats consistently, so rows
// that differ only in which cells are missing stay distinct.
func (s Sample) key() string {
	return fmt.Sprintf("%d|%v|%v|%v|%v|%v|%v|%v|%v",
		s.Time.Unix(), s.Pressure, s.Temperature, s.DewPoint, s.RelHumidity,
		s.VPMax, s.VPAct, s.VPDef, s.WindSpeed)
}

// ForwardFill returns a copy where each missing value takes the most recent
// prior non-missing value of the same field. Leading missing values are left
// as NaN for downstream rejection.
func (d *Dataset) ForwardFill() *Dataset {
	filled := make([]Sample, len(d.Samples))
	copy(filled, d.Samples)

	last := Sample{
		Pressure:    math.NaN(),
		Temperature: math.NaN(),
		DewPoint:    math.NaN(),
		RelHumidity: math.NaN(),
		VPMax:       math.NaN(),
		VPAct:       math.NaN(),
		VPDef:       math.NaN(),
		WindSpeed:   math.NaN(),
	}
	for i := range filled {
		fillField(&filled[i].Pressure, &last.Pressure)
		fillField(&filled[i].Temperature, &last.Temperature)
		fillField(&filled[i].DewPoint, &last.DewPoint)
		fillField(&filled[i].RelHumidity, &last.RelHumidity)
		fillField(&filled[i].VPMax, &last.VPMax)
		fillField(&filled[i].VPAct, &last.VPAct)
		fillField(&filled[i].VPDef, &last.VPDef)
		fillField(&filled[i].WindSpeed, &last.WindSpeed)
	}
	return &Dataset{Samples: filled}
}

func fillField(cur, last *float64) {
	if math.IsNaN(*cur) {
		*cur = *last
		return
	}
	*last = *cur
}

// Copy returns a deep copy of the dataset.
func (d *Dataset) Copy() *Dataset {
	samples := make([]Sample, len(d.Samples))
	copy(samples, d.Samples)
	return &Dataset{Samples: samples}
}

// ReadCSV parses raw climate rows. The header row names the columns; the
// "Date Time" column is required, numeric columns are matched by name and
// default to NaN when absent or empty.
func ReadCSV(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	timeIdx, ok := cols["Date Time"]
	if !ok {
		return nil, fmt.Errorf("%q: %w", "Date Time", ErrMissingColumn)
	}

	var samples []Sample
	row := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", row, err)
		}
		row++

		t, err := time.Parse(TimeLayout, strings.TrimSpace(record[timeIdx]))
		if err != nil {
			return nil, fmt.Errorf("row %d has bad timestamp %q: %w", row, record[timeIdx], ErrParse)
		}

		s := Sample{
			Time:        t,
			Pressure:    cell(record, cols, "p (mbar)"),
			Temperature: cell(record, cols, "T (degC)"),
			DewPoint:    cell(record, cols, "Tdew (degC)"),
			RelHumidity: cell(record, cols, "rh (%)"),
			VPMax:       cell(record, cols, "VPmax (mbar)"),
			VPAct:       cell(record, cols, "VPact (mbar)"),
			VPDef:       cell(record, cols, "VPdef (mbar)"),
			WindSpeed:   cell(record, cols, "wv (m/s)"),
		}
		samples = append(samples, s)
	}
	if len(samples) == 0 {
		return nil, ErrNoData
	}
	return samples, nil
}

func cell(record []string, cols map[string]int, name string) float64 {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return math.NaN()
	}
	v := strings.TrimSpace(record[idx])
	if v == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// Open reads and parses a climate CSV file.
func Open(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}
