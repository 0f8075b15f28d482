package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zappai-go/zappai/climate"
	"github.com/zappai-go/zappai/zappaierr"
)

func makeChunk(years []int) map[climate.YearMonth]map[string]float64 {
	chunk := map[climate.YearMonth]map[string]float64{}
	for _, y := range years {
		for m := 1; m <= 12; m++ {
			vars := map[string]float64{}
			for _, name := range append(append([]string{}, climate.CMIPOverlapVariables...), climate.ERAExclusiveVariables...) {
				vars[name] = float64(y*100 + m)
			}
			chunk[climate.YearMonth{Year: y, Month: m}] = vars
		}
	}
	return chunk
}

func TestChunkIdempotence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	loc := &climate.Location{Country: "IT", Name: "Policoro", Longitude: 16.678341, Latitude: 40.212971}
	require.NoError(t, s.CreateLocation(ctx, loc))

	chunk := makeChunk([]int{2010, 2011})
	require.NoError(t, s.SavePastClimateChunk(ctx, loc.ID, chunk))

	var countOnce int64
	require.NoError(t, s.db.Model(&PastClimateDataModel{}).Where("location_id = ?", loc.ID).Count(&countOnce).Error)

	require.NoError(t, s.SavePastClimateChunk(ctx, loc.ID, chunk))

	var countTwice int64
	require.NoError(t, s.db.Model(&PastClimateDataModel{}).Where("location_id = ?", loc.ID).Count(&countTwice).Error)

	assert.Equal(t, countOnce, countTwice)
	assert.EqualValues(t, 24, countOnce)
}

func TestRangeMonotonicity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	loc := &climate.Location{Country: "IT", Name: "Policoro", Longitude: 16.678341, Latitude: 40.212971}
	require.NoError(t, s.CreateLocation(ctx, loc))
	require.NoError(t, s.SavePastClimateChunk(ctx, loc.ID, makeChunk([]int{2019, 2020})))

	records, err := s.RangePast(ctx, loc.ID, climate.YearMonth{Year: 2020, Month: 3}, climate.YearMonth{Year: 2020, Month: 5})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, climate.YearMonth{Year: 2020, Month: 3}, records[0].YearMonth)
	assert.Equal(t, climate.YearMonth{Year: 2020, Month: 4}, records[1].YearMonth)
	assert.Equal(t, climate.YearMonth{Year: 2020, Month: 5}, records[2].YearMonth)
	for i := 0; i < len(records)-1; i++ {
		assert.True(t, records[i].YearMonth.Before(records[i+1].YearMonth))
	}
}

func TestRangePastNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	loc := &climate.Location{Country: "IT", Name: "Empty", Longitude: 1, Latitude: 1}
	require.NoError(t, s.CreateLocation(ctx, loc))

	_, err := s.RangePast(ctx, loc.ID, climate.YearMonth{Year: 2020, Month: 1}, climate.YearMonth{Year: 2020, Month: 2})
	assert.ErrorIs(t, err, zappaierr.ErrPastClimateDataNotFound)
}

func TestLastNMonthsInsufficientHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	loc := &climate.Location{Country: "IT", Name: "Short", Longitude: 2, Latitude: 2}
	require.NoError(t, s.CreateLocation(ctx, loc))
	require.NoError(t, s.SavePastClimateChunk(ctx, loc.ID, makeChunk([]int{2020})))

	_, err := s.LastNMonths(ctx, loc.ID, 24)
	assert.ErrorIs(t, err, zappaierr.ErrInsufficientHistory)

	months, err := s.LastNMonths(ctx, loc.ID, 12)
	require.NoError(t, err)
	require.Len(t, months, 12)
	assert.Equal(t, climate.YearMonth{Year: 2020, Month: 1}, months[0].YearMonth)
	assert.Equal(t, climate.YearMonth{Year: 2020, Month: 12}, months[11].YearMonth)
}

func TestNearestFutureCoordinate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	near := map[climate.YearMonth]map[string]float64{
		{Year: 2023, Month: 1}: {"2m_temperature": 290},
	}
	far := map[climate.YearMonth]map[string]float64{
		{Year: 2023, Month: 1}: {"2m_temperature": 280},
	}
	require.NoError(t, s.SaveFutureClimateChunk(ctx, 16.7, 40.25, near))
	require.NoError(t, s.SaveFutureClimateChunk(ctx, -70.0, 40.25, far))

	lon, lat, err := s.NearestFutureCoordinate(ctx, 16.678341, 40.212971)
	require.NoError(t, err)
	assert.Equal(t, 16.7, lon)
	assert.Equal(t, 40.25, lat)
}

func TestSaveCropYieldObservationsDedupeAndInvalidWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	loc := &climate.Location{Country: "IT", Name: "Maize Field", Longitude: 3, Latitude: 3}
	require.NoError(t, s.CreateLocation(ctx, loc))
	crop := &climate.Crop{Name: "maize", MinFarmingMonths: 3, MaxFarmingMonths: 6}
	require.NoError(t, s.CreateCrop(ctx, crop))

	sowing := climate.YearMonth{Year: 2020, Month: 3}
	harvest := climate.YearMonth{Year: 2020, Month: 7}

	obs := []climate.CropYieldObservation{
		{LocationID: loc.ID, CropID: crop.ID, Sowing: sowing, Harvest: harvest, YieldPerHectare: 10},
		{LocationID: loc.ID, CropID: crop.ID, Sowing: sowing, Harvest: harvest, YieldPerHectare: 20},
	}
	require.NoError(t, s.SaveCropYieldObservations(ctx, obs))

	stored, err := s.ListCropYieldObservations(ctx, loc.ID, crop.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.InDelta(t, 15.0, stored[0].YieldPerHectare, 1e-9)

	invalid := []climate.CropYieldObservation{
		{LocationID: loc.ID, CropID: crop.ID, Sowing: harvest, Harvest: sowing, YieldPerHectare: 10},
	}
	err = s.SaveCropYieldObservations(ctx, invalid)
	assert.ErrorIs(t, err, zappaierr.ErrInvalidWindow)
}

func TestClimateGenerativeModelLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	loc := &climate.Location{Country: "IT", Name: "Gen", Longitude: 4, Latitude: 4}
	require.NoError(t, s.CreateLocation(ctx, loc))

	ready, err := s.IsClimateGenerativeModelReady(ctx, loc.ID)
	require.NoError(t, err)
	assert.False(t, ready)

	artifact := ClimateGenerativeModelArtifact{
		LocationID:      loc.ID,
		Network:         []byte("network-v1"),
		FeatureScaler:   []byte("feature-scaler-v1"),
		TargetScaler:    []byte("target-scaler-v1"),
		RMSE:            0.5,
		TrainStart:      climate.YearMonth{Year: 1940, Month: 1},
		ValidationStart: climate.YearMonth{Year: 2000, Month: 1},
		TestStart:       climate.YearMonth{Year: 2012, Month: 1},
	}
	require.NoError(t, s.SaveClimateGenerativeModel(ctx, artifact))

	ready, err = s.IsClimateGenerativeModelReady(ctx, loc.ID)
	require.NoError(t, err)
	assert.True(t, ready)

	got, err := s.GetClimateGenerativeModel(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, artifact.Network, got.Network)
	assert.Equal(t, artifact.RMSE, got.RMSE)

	artifact.Network = []byte("network-v2")
	require.NoError(t, s.SaveClimateGenerativeModel(ctx, artifact))

	got, err = s.GetClimateGenerativeModel(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("network-v2"), got.Network)

	var count int64
	require.NoError(t, s.db.Model(&ClimateGenerativeModelModel{}).Where("location_id = ?", loc.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
