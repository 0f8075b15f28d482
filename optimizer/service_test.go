package optimizer

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/zappai-go/zappai/climate"
	"github.com/zappai-go/zappai/cropyield"
	"github.com/zappai-go/zappai/cropyield/randomforest"
	"github.com/zappai-go/zappai/optimizer/genetic"
)

type fakeForecastGenerator struct {
	forecast []climate.PastClimateRecord
	err      error
}

func (f *fakeForecastGenerator) Rollout(_ context.Context, _ uuid.UUID, _ int) ([]climate.PastClimateRecord, error) {
	return f.forecast, f.err
}

type fakeCropReader struct {
	crop *climate.Crop
	err  error
}

func (f *fakeCropReader) GetCrop(_ context.Context, _ uuid.UUID) (*climate.Crop, error) {
	return f.crop, f.err
}

type fakeRegressorLoader struct {
	regressor *cropyield.Regressor
	err       error
}

func (f *fakeRegressorLoader) LoadRegressor(_ context.Context, _ uuid.UUID) (*cropyield.Regressor, error) {
	return f.regressor, f.err
}

// syntheticForecast builds a forecast series with every GeneratorFeatures
// variable set to a small positive constant, starting at start.
func syntheticForecast(start climate.YearMonth, n int) []climate.PastClimateRecord {
	out := make([]climate.PastClimateRecord, n)
	ym := start
	for i := range out {
		vars := map[string]float64{}
		for j, name := range climate.GeneratorFeatures() {
			vars[name] = 10 + float64(i) + float64(j)*0.1
		}
		out[i] = climate.PastClimateRecord{YearMonth: ym, Variables: vars}
		ym = climate.NextMonth(ym)
	}
	return out
}

// trainedTestRegressor fits a tiny forest over synthetic rows of the exact
// crop-yield feature schema so Predict is exercised end to end.
func trainedTestRegressor(t *testing.T) *cropyield.Regressor {
	t.Helper()

	forest, err := randomforest.NewForest(&randomforest.Options{NumTrees: 3, MinSamplesSplit: 2, MaxDepth: 3, Seed: 1})
	require.NoError(t, err)

	cols := len(cropyield.FeatureColumns())
	rows := 12
	data := make([]float64, 0, rows*cols)
	targets := make([]float64, rows)
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		for j := range row {
			row[j] = float64(i + j)
		}
		data = append(data, row...)
		targets[i] = 100 + float64(i)*10
	}

	x := mat.NewDense(rows, cols, data)
	y := mat.NewDense(rows, 1, targets)
	require.NoError(t, forest.Fit(x, y))

	return cropyield.NewRegressor(forest, 0, 0)
}

func TestOptimizeReturnsDistinctWindowsSortedByYield(t *testing.T) {
	locationID, cropID := uuid.New(), uuid.New()
	forecast := syntheticForecast(climate.YearMonth{Year: 2023, Month: 1}, 24)
	crop := &climate.Crop{ID: cropID, Name: "maize", MinFarmingMonths: 3, MaxFarmingMonths: 8}

	opt := NewDefaultOptions()
	opt.Genetic.Generations = 20
	opt.TopK = 5

	svc := NewService(
		&fakeForecastGenerator{forecast: forecast},
		&fakeCropReader{crop: crop},
		&fakeRegressorLoader{regressor: trainedTestRegressor(t)},
		opt,
	)

	result, err := svc.Optimize(context.Background(), locationID, cropID, 42)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Windows), opt.TopK)

	seen := map[climate.YearMonth]map[climate.YearMonth]bool{}
	for i, w := range result.Windows {
		if seen[w.Sowing] == nil {
			seen[w.Sowing] = map[climate.YearMonth]bool{}
		}
		assert.False(t, seen[w.Sowing][w.Harvest], "duplicate window returned")
		seen[w.Sowing][w.Harvest] = true

		duration := climate.MonthsBetween(w.Sowing, w.Harvest)
		assert.Greater(t, duration, 0)
		assert.GreaterOrEqual(t, duration, crop.MinFarmingMonths)
		assert.LessOrEqual(t, duration, crop.MaxFarmingMonths)

		if i > 0 {
			assert.LessOrEqual(t, result.Windows[i].Yield, result.Windows[i-1].Yield)
		}
	}
}

func TestOptimizeIsDeterministicGivenTheSameSeed(t *testing.T) {
	locationID, cropID := uuid.New(), uuid.New()
	forecast := syntheticForecast(climate.YearMonth{Year: 2023, Month: 1}, 24)
	crop := &climate.Crop{ID: cropID, Name: "maize", MinFarmingMonths: 3, MaxFarmingMonths: 8}
	regressor := trainedTestRegressor(t)

	newSvc := func() *Service {
		return NewService(
			&fakeForecastGenerator{forecast: forecast},
			&fakeCropReader{crop: crop},
			&fakeRegressorLoader{regressor: regressor},
			nil,
		)
	}

	resultA, err := newSvc().Optimize(context.Background(), locationID, cropID, 7)
	require.NoError(t, err)
	resultB, err := newSvc().Optimize(context.Background(), locationID, cropID, 7)
	require.NoError(t, err)

	assert.Equal(t, resultA.Windows, resultB.Windows)
}

func TestFitnessGatingRejectsOutOfBoundsDuration(t *testing.T) {
	forecast := syntheticForecast(climate.YearMonth{Year: 2023, Month: 1}, 24)
	crop := &climate.Crop{ID: uuid.New(), Name: "maize", MinFarmingMonths: 3, MaxFarmingMonths: 6}
	scorer := &candidateScorer{forecast: forecast, crop: crop, regressor: trainedTestRegressor(t)}

	// sowing index 2, harvest index 1: duration <= 0, scenario S2.
	ind := make(genetic.Individual, chromosomeSz)
	ind[1] = true // sowing bits little-endian: bit1 set -> sowingIdx = 2
	ind[sowingBits] = true
	// harvestIdx = 1 (bit0 of harvest half set)

	assert.Equal(t, 0.0, scorer.fitness(ind))
}

func TestFitnessGatingRejectsIndicesPastForecastLength(t *testing.T) {
	forecast := syntheticForecast(climate.YearMonth{Year: 2023, Month: 1}, 2)
	crop := &climate.Crop{ID: uuid.New(), Name: "maize", MinFarmingMonths: 1, MaxFarmingMonths: 12}
	scorer := &candidateScorer{forecast: forecast, crop: crop, regressor: trainedTestRegressor(t)}

	allOnes := make(genetic.Individual, chromosomeSz)
	for i := range allOnes {
		allOnes[i] = true
	}
	assert.Equal(t, 0.0, scorer.fitness(allOnes))
}

func TestOptimizeRejectsForecastTooShort(t *testing.T) {
	svc := NewService(
		&fakeForecastGenerator{forecast: syntheticForecast(climate.YearMonth{Year: 2023, Month: 1}, 1)},
		&fakeCropReader{crop: &climate.Crop{}},
		&fakeRegressorLoader{},
		nil,
	)
	_, err := svc.Optimize(context.Background(), uuid.New(), uuid.New(), 1)
	assert.ErrorIs(t, err, ErrForecastTooShort)
}
