// Package cropyield is the crop-yield regressor: it assembles a
// per-crop feature table from sowing/harvest windows and the past climate
// store, fits a bagged CART regressor over it, and evaluates candidate
// windows at inference against the persisted model.
package cropyield

import (
	"fmt"
	"math"

	"github.com/zappai-go/zappai/climate"
	"github.com/zappai-go/zappai/zappaierr"
)

// statNames are the four statistics computed per climate.GeneratorFeatures()
// variable over a sowing/harvest window.
var statNames = []string{"mean", "std", "min", "max"}

// FeatureColumns is the stable, ordered feature schema: sowing and harvest
// year and month, duration, then four statistics per generator feature. Both training and inference build rows
// through BuildFeatureRow, so the column order can never drift between them.
func FeatureColumns() []string {
	cols := []string{"sowing_year", "sowing_month", "harvest_year", "harvest_month", "duration_months"}
	for _, v := range climate.GeneratorFeatures() {
		for _, stat := range statNames {
			cols = append(cols, v+"_"+stat)
		}
	}
	return cols
}

// BuildFeatureRow assembles one feature row for a candidate sowing/harvest
// window from past climate records covering it. records must hold exactly one
// entry per month in the closed [sowing, harvest] window, in any order; a
// missing month invalidates the window.
func BuildFeatureRow(sowing, harvest climate.YearMonth, records []climate.PastClimateRecord) ([]float64, error) {
	if !sowing.Before(harvest) {
		return nil, fmt.Errorf("sowing %s harvest %s: %w", sowing, harvest, zappaierr.ErrInvalidWindow)
	}
	duration := climate.MonthsBetween(sowing, harvest)
	expected := duration + 1
	if len(records) != expected {
		return nil, fmt.Errorf("window %s..%s has %d of %d months: %w", sowing, harvest, len(records), expected, zappaierr.ErrPastClimateDataNotFound)
	}

	generatorFeatures := climate.GeneratorFeatures()
	row := make([]float64, 0, 5+len(generatorFeatures)*len(statNames))
	row = append(row, float64(sowing.Year), float64(sowing.Month), float64(harvest.Year), float64(harvest.Month), float64(duration))

	values := make([]float64, len(records))
	for _, v := range generatorFeatures {
		for i, r := range records {
			values[i] = r.Variables[v]
		}
		mean, std := meanStd(values)
		lo, hi := minMax(values)
		row = append(row, mean, std, lo, hi)
	}
	return row, nil
}

func meanStd(v []float64) (mean, std float64) {
	n := float64(len(v))
	var sum float64
	for _, x := range v {
		sum += x
	}
	mean = sum / n

	var sumSq float64
	for _, x := range v {
		d := x - mean
		sumSq += d * d
	}
	std = math.Sqrt(sumSq / n)
	return mean, std
}

func minMax(v []float64) (lo, hi float64) {
	lo, hi = v[0], v[0]
	for _, x := range v[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}
