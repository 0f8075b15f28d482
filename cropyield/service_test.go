package cropyield

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zappai-go/zappai/climate"
	zmat "github.com/zappai-go/zappai/mat"
	"github.com/zappai-go/zappai/models"
	"github.com/zappai-go/zappai/zappaierr"
)

type fakeObservationReader struct {
	observations []climate.CropYieldObservation
	err          error
}

func (f *fakeObservationReader) ListCropYieldObservations(_ context.Context, _, _ uuid.UUID) ([]climate.CropYieldObservation, error) {
	return f.observations, f.err
}

type fakeClimateReader struct {
	byLocation map[climate.YearMonth]climate.PastClimateRecord
}

func (f *fakeClimateReader) RangePast(_ context.Context, locationID uuid.UUID, from, to climate.YearMonth) ([]climate.PastClimateRecord, error) {
	var out []climate.PastClimateRecord
	for ym, r := range f.byLocation {
		if climate.InRange(ym, from, to) {
			r.LocationID = locationID
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, zappaierr.ErrPastClimateDataNotFound
	}
	return out, nil
}

type fakeCropReader struct {
	crop *climate.Crop
	err  error
}

func (f *fakeCropReader) GetCrop(_ context.Context, _ uuid.UUID) (*climate.Crop, error) {
	return f.crop, f.err
}

type fakeModelRepository struct {
	artifact []byte
	mse, r2  float64
	saved    bool
}

func (f *fakeModelRepository) SaveCropYieldModel(_ context.Context, _ uuid.UUID, artifact []byte, mse, r2 float64) error {
	f.artifact, f.mse, f.r2, f.saved = artifact, mse, r2, true
	return nil
}

func (f *fakeModelRepository) GetCropYieldModel(_ context.Context, _ uuid.UUID) ([]byte, float64, float64, error) {
	if !f.saved {
		return nil, 0, 0, zappaierr.ErrCropYieldModelNotFound
	}
	return f.artifact, f.mse, f.r2, nil
}

func syntheticClimateMonths(start climate.YearMonth, n int) map[climate.YearMonth]climate.PastClimateRecord {
	out := make(map[climate.YearMonth]climate.PastClimateRecord, n)
	ym := start
	for i := 0; i < n; i++ {
		vars := map[string]float64{}
		for j, name := range climate.GeneratorFeatures() {
			vars[name] = float64(i) + float64(j)*0.1
		}
		out[ym] = climate.PastClimateRecord{YearMonth: ym, Variables: vars}
		ym = climate.NextMonth(ym)
	}
	return out
}

func syntheticObservations(locationID, cropID uuid.UUID, start climate.YearMonth, count int) []climate.CropYieldObservation {
	out := make([]climate.CropYieldObservation, count)
	sowing := start
	for i := 0; i < count; i++ {
		harvest := climate.AddMonths(sowing, 4)
		out[i] = climate.CropYieldObservation{
			LocationID:      locationID,
			CropID:          cropID,
			Sowing:          sowing,
			Harvest:         harvest,
			YieldPerHectare: 1000 + float64(i)*10,
		}
		sowing = climate.AddMonths(sowing, 1)
	}
	return out
}

func TestTrainAndPredictRoundTrip(t *testing.T) {
	locationID, cropID := uuid.New(), uuid.New()
	start := climate.YearMonth{Year: 2000, Month: 1}

	observations := &fakeObservationReader{observations: syntheticObservations(locationID, cropID, start, 60)}
	climateReader := &fakeClimateReader{byLocation: syntheticClimateMonths(start, 70)}
	crops := &fakeCropReader{crop: &climate.Crop{ID: cropID, Name: "maize", MinFarmingMonths: 3, MaxFarmingMonths: 6}}
	models := &fakeModelRepository{}

	opt := NewDefaultOptions()
	opt.Forest.NumTrees = 10
	opt.Forest.MinSamplesSplit = 5

	svc := NewService(observations, climateReader, crops, models, opt)

	result, err := svc.Train(context.Background(), locationID, cropID)
	require.NoError(t, err)
	assert.Greater(t, result.TrainRows, 0)
	assert.Greater(t, result.TestRows, 0)

	reg, err := svc.LoadRegressor(context.Background(), cropID)
	require.NoError(t, err)

	records := []climate.PastClimateRecord{
		climateReader.byLocation[start],
		climateReader.byLocation[climate.AddMonths(start, 1)],
		climateReader.byLocation[climate.AddMonths(start, 2)],
		climateReader.byLocation[climate.AddMonths(start, 3)],
		climateReader.byLocation[climate.AddMonths(start, 4)],
	}
	row, err := BuildFeatureRow(start, climate.AddMonths(start, 4), records)
	require.NoError(t, err)

	pred, err := reg.Predict(row)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pred, 0.0)
}

func TestPredictRejectsWrongFeatureLength(t *testing.T) {
	reg := &Regressor{}
	_, err := reg.Predict([]float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrFeatureLenMismatch)
}

func TestTrainExcludesIncompleteWindows(t *testing.T) {
	locationID, cropID := uuid.New(), uuid.New()
	start := climate.YearMonth{Year: 2000, Month: 1}

	observations := []climate.CropYieldObservation{
		{LocationID: locationID, CropID: cropID, Sowing: start, Harvest: climate.AddMonths(start, 4), YieldPerHectare: 1200},
	}
	// No climate data stored at all: RangePast always fails, so the only
	// observation must be excluded rather than crash training.
	svc := NewService(
		&fakeObservationReader{observations: observations},
		&fakeClimateReader{byLocation: map[climate.YearMonth]climate.PastClimateRecord{}},
		&fakeCropReader{crop: &climate.Crop{ID: cropID}},
		&fakeModelRepository{},
		nil,
	)

	_, err := svc.Train(context.Background(), locationID, cropID)
	assert.ErrorIs(t, err, ErrNoTrainableObservations)
}

func TestTrainPropagatesCropNotFound(t *testing.T) {
	svc := NewService(
		&fakeObservationReader{},
		&fakeClimateReader{},
		&fakeCropReader{err: zappaierr.ErrCropNotFound},
		&fakeModelRepository{},
		nil,
	)

	_, err := svc.Train(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, zappaierr.ErrCropNotFound)
}

// TestRandomForestOLSBaselineComparison fits a plain OLS regression over the
// same feature rows the bagged forest trains on and logs both test-set R²
// scores side by side; it asserts only that both fits succeed.
func TestRandomForestOLSBaselineComparison(t *testing.T) {
	locationID, cropID := uuid.New(), uuid.New()
	start := climate.YearMonth{Year: 2000, Month: 1}

	climateMonths := syntheticClimateMonths(start, 70)
	observations := syntheticObservations(locationID, cropID, start, 60)

	var rows [][]float64
	var targets []float64
	for _, obs := range observations {
		var records []climate.PastClimateRecord
		for ym := obs.Sowing; ym.Compare(obs.Harvest) <= 0; ym = climate.NextMonth(ym) {
			records = append(records, climateMonths[ym])
		}
		row, err := BuildFeatureRow(obs.Sowing, obs.Harvest, records)
		require.NoError(t, err)
		rows = append(rows, row)
		targets = append(targets, obs.YieldPerHectare)
	}

	trainX, trainY, testX, testY := splitTrainTest(rows, targets, 0.2, 42)

	opt := NewDefaultOptions()
	opt.Forest.NumTrees = 10
	opt.Forest.MinSamplesSplit = 5

	svc := NewService(
		&fakeObservationReader{observations: observations},
		&fakeClimateReader{byLocation: climateMonths},
		&fakeCropReader{crop: &climate.Crop{ID: cropID, Name: "maize", MinFarmingMonths: 3, MaxFarmingMonths: 6}},
		&fakeModelRepository{},
		opt,
	)
	result, err := svc.Train(context.Background(), locationID, cropID)
	require.NoError(t, err)

	trainMatrix, err := zmat.NewDenseFromArray(trainX)
	require.NoError(t, err)
	testMatrix, err := zmat.NewDenseFromArray(testX)
	require.NoError(t, err)

	ols, err := models.NewOLSRegression(nil)
	require.NoError(t, err)
	require.NoError(t, ols.Fit(trainMatrix, colToMatrix(trainY)))
	olsR2, err := ols.Score(testMatrix, colToMatrix(testY))
	require.NoError(t, err)

	t.Logf("forest r2=%.4f ols baseline r2=%.4f", result.R2, olsR2)
}

func TestDropTukeyOutliersRemovesExtremeYield(t *testing.T) {
	observations := []climate.CropYieldObservation{
		{YieldPerHectare: 1000},
		{YieldPerHectare: 1010},
		{YieldPerHectare: 990},
		{YieldPerHectare: 1005},
		{YieldPerHectare: 995},
		{YieldPerHectare: 100000},
	}
	filtered := dropTukeyOutliers(observations)
	assert.Len(t, filtered, 5)
	for _, obs := range filtered {
		assert.Less(t, obs.YieldPerHectare, 100000.0)
	}
}

func TestDropZScoreOutliersRemovesExtremeYield(t *testing.T) {
	observations := []climate.CropYieldObservation{
		{YieldPerHectare: 1000},
		{YieldPerHectare: 1010},
		{YieldPerHectare: 990},
		{YieldPerHectare: 1005},
		{YieldPerHectare: 995},
		{YieldPerHectare: 1002},
		{YieldPerHectare: 998},
		{YieldPerHectare: 1008},
		{YieldPerHectare: 992},
		{YieldPerHectare: 1000},
		{YieldPerHectare: 100000},
	}
	filtered := dropZScoreOutliers(observations, 3.0)
	assert.Len(t, filtered, 10)
	for _, obs := range filtered {
		assert.Less(t, obs.YieldPerHectare, 100000.0)
	}
}
