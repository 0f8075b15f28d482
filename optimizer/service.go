// Package optimizer is the planting-window optimizer: it rolls
// out a forecast from the climate generator, then runs a genetic search over
// candidate sowing/harvest windows encoded as 10-bit chromosomes, scoring
// each candidate through the crop-yield regressor.
package optimizer

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"github.com/zappai-go/zappai/climate"
	"github.com/zappai-go/zappai/cropyield"
	"github.com/zappai-go/zappai/optimizer/genetic"
)

// sowingBits and harvestBits split the 10-bit chromosome: the low 5 bits
// index the sowing month within the forecast, the high 5 bits index the
// harvest month.
const (
	sowingBits   = 5
	harvestBits  = 5
	chromosomeSz = sowingBits + harvestBits
)

// ForecastGenerator rolls out a forecast series for a location.
type ForecastGenerator interface {
	Rollout(ctx context.Context, locationID uuid.UUID, horizonMonths int) ([]climate.PastClimateRecord, error)
}

// CropReader resolves a crop's farming-duration bounds.
type CropReader interface {
	GetCrop(ctx context.Context, cropID uuid.UUID) (*climate.Crop, error)
}

// RegressorLoader loads the trained yield regressor for a crop.
type RegressorLoader interface {
	LoadRegressor(ctx context.Context, cropID uuid.UUID) (*cropyield.Regressor, error)
}

// Service composes the repositories above with the search options.
type Service struct {
	Forecasts  ForecastGenerator
	Crops      CropReader
	Regressors RegressorLoader
	Opt        *Options
}

// NewService wires an optimizer Service from its dependencies. opt may be
// nil to use NewDefaultOptions().
func NewService(forecasts ForecastGenerator, crops CropReader, regressors RegressorLoader, opt *Options) *Service {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	return &Service{Forecasts: forecasts, Crops: crops, Regressors: regressors, Opt: opt}
}

// Window is one candidate sowing/harvest pair and its predicted yield.
type Window struct {
	Sowing  climate.YearMonth
	Harvest climate.YearMonth
	Yield   float64
}

// Result is the optimizer's full output: the forecast it searched over and
// the best distinct windows found, sorted by yield descending.
type Result struct {
	Forecast []climate.PastClimateRecord
	Windows  []Window
}

// Optimize runs the full planting-window search for a
// crop/location pair: roll out a forecast, search candidate windows with a
// genetic algorithm seeded by seed, and return the top-K distinct windows.
// The same seed, crop, location, and forecast always reproduce the same
// result.
func (svc *Service) Optimize(ctx context.Context, locationID, cropID uuid.UUID, seed int64) (Result, error) {
	crop, err := svc.Crops.GetCrop(ctx, cropID)
	if err != nil {
		return Result{}, fmt.Errorf("resolving crop: %w", err)
	}

	forecast, err := svc.Forecasts.Rollout(ctx, locationID, svc.Opt.HorizonMonths)
	if err != nil {
		return Result{}, fmt.Errorf("rolling out forecast: %w", err)
	}
	if len(forecast) < 2 {
		return Result{}, fmt.Errorf("forecast has %d rows: %w", len(forecast), ErrForecastTooShort)
	}

	regressor, err := svc.Regressors.LoadRegressor(ctx, cropID)
	if err != nil {
		return Result{}, fmt.Errorf("loading yield regressor: %w", err)
	}

	scorer := &candidateScorer{forecast: forecast, crop: crop, regressor: regressor}

	engine := genetic.New(svc.Opt.Genetic, scorer.fitness, rand.New(rand.NewSource(seed)))
	population, _ := engine.Run()

	windows := topDistinctWindows(population, scorer, svc.Opt.TopK)

	return Result{Forecast: forecast, Windows: windows}, nil
}

// candidateScorer evaluates one genetic individual against a fixed forecast
// and crop.
type candidateScorer struct {
	forecast  []climate.PastClimateRecord
	crop      *climate.Crop
	regressor *cropyield.Regressor
}

// decode splits a chromosome into its sowing and harvest forecast indices
// each half is a little-endian unsigned integer.
func decode(ind genetic.Individual) (sowingIdx, harvestIdx int) {
	sowingIdx = ind[:sowingBits].ToInt()
	harvestIdx = ind[sowingBits:].ToInt()
	return sowingIdx, harvestIdx
}

// window resolves a candidate to a concrete sowing/harvest window and its
// predicted yield. ok is false whenever the candidate is gated: indices out
// of range, a duration outside the crop's bounds, a feature row or prediction
// error, or a negative predicted yield. Once the indices resolve, the
// returned Window carries the sowing and harvest months even when ok is false.
func (s *candidateScorer) window(ind genetic.Individual) (w Window, ok bool) {
	sowingIdx, harvestIdx := decode(ind)
	if sowingIdx >= len(s.forecast) || harvestIdx >= len(s.forecast) {
		return Window{}, false
	}

	sowing := s.forecast[sowingIdx].YearMonth
	harvest := s.forecast[harvestIdx].YearMonth
	duration := climate.MonthsBetween(sowing, harvest)
	if duration <= 0 || duration < s.crop.MinFarmingMonths || duration > s.crop.MaxFarmingMonths {
		return Window{Sowing: sowing, Harvest: harvest}, false
	}

	row, err := cropyield.BuildFeatureRow(sowing, harvest, s.forecast[sowingIdx:harvestIdx+1])
	if err != nil {
		return Window{Sowing: sowing, Harvest: harvest}, false
	}
	yield, err := s.regressor.Predict(row)
	if err != nil || yield < 0 {
		return Window{Sowing: sowing, Harvest: harvest}, false
	}

	return Window{Sowing: sowing, Harvest: harvest, Yield: yield}, true
}

// fitness is the genetic.FitnessFunc: gated candidates score exactly 0
// otherwise fitness is the predicted yield.
func (s *candidateScorer) fitness(ind genetic.Individual) float64 {
	w, ok := s.window(ind)
	if !ok {
		return 0
	}
	return w.Yield
}

// topDistinctWindows collects the best distinct (sowing, harvest) windows
// from the final population, sorted by yield descending,
// §8 scenario S4).
func topDistinctWindows(population genetic.Population, scorer *candidateScorer, topK int) []Window {
	best := map[climate.YearMonth]map[climate.YearMonth]Window{}
	for _, ind := range population {
		w, ok := scorer.window(ind)
		if !ok {
			continue
		}
		byHarvest, exists := best[w.Sowing]
		if !exists {
			byHarvest = map[climate.YearMonth]Window{}
			best[w.Sowing] = byHarvest
		}
		if existing, seen := byHarvest[w.Harvest]; !seen || w.Yield > existing.Yield {
			byHarvest[w.Harvest] = w
		}
	}

	flat := make([]Window, 0, len(population))
	for _, byHarvest := range best {
		for _, w := range byHarvest {
			flat = append(flat, w)
		}
	}

	sort.Slice(flat, func(i, j int) bool {
		if flat[i].Yield != flat[j].Yield {
			return flat[i].Yield > flat[j].Yield
		}
		if c := flat[i].Sowing.Compare(flat[j].Sowing); c != 0 {
			return c < 0
		}
		return flat[i].Harvest.Before(flat[j].Harvest)
	})

	if len(flat) > topK {
		flat = flat[:topK]
	}
	return flat
}
