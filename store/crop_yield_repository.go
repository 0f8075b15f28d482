package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/zappai-go/zappai/climate"
	"github.com/zappai-go/zappai/zappaierr"
)

type cropYieldKey struct {
	locationID uuid.UUID
	cropID     uuid.UUID
	sowing     climate.YearMonth
	harvest    climate.YearMonth
}

// SaveCropYieldObservations persists labeled sowing/harvest windows. Any
// observation with sowing >= harvest is rejected with InvalidWindow.
// Duplicates on the grouping key (location, crop, sowing, harvest) are
// collapsed by mean yield before insertion.
func (s *Store) SaveCropYieldObservations(ctx context.Context, observations []climate.CropYieldObservation) error {
	grouped := map[cropYieldKey]struct {
		sum     float64
		count   int
		outlier bool
	}{}
	order := make([]cropYieldKey, 0, len(observations))

	for _, obs := range observations {
		if !obs.Sowing.Before(obs.Harvest) {
			return fmt.Errorf("sowing %s harvest %s: %w", obs.Sowing, obs.Harvest, zappaierr.ErrInvalidWindow)
		}
		key := cropYieldKey{obs.LocationID, obs.CropID, obs.Sowing, obs.Harvest}
		entry, ok := grouped[key]
		if !ok {
			order = append(order, key)
		}
		entry.sum += obs.YieldPerHectare
		entry.count++
		entry.outlier = entry.outlier || obs.Outlier
		grouped[key] = entry
	}

	rows := make([]CropYieldDataModel, 0, len(order))
	for _, key := range order {
		entry := grouped[key]
		rows = append(rows, CropYieldDataModel{
			ID:              uuid.New(),
			LocationID:      key.locationID,
			CropID:          key.cropID,
			SowingYear:      key.sowing.Year,
			SowingMonth:     key.sowing.Month,
			HarvestYear:     key.harvest.Year,
			HarvestMonth:    key.harvest.Month,
			YieldPerHectare: entry.sum / float64(entry.count),
			Outlier:         entry.outlier,
		})
	}

	if len(rows) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("saving crop yield observations: %w", err)
	}
	return nil
}

// ListCropYieldObservations returns every observation for a crop at a location,
// including those flagged as outliers; callers apply the outlier policy.
func (s *Store) ListCropYieldObservations(ctx context.Context, locationID, cropID uuid.UUID) ([]climate.CropYieldObservation, error) {
	var ms []CropYieldDataModel
	err := s.db.WithContext(ctx).
		Where("location_id = ? AND crop_id = ?", locationID, cropID).
		Order("sowing_year asc, sowing_month asc").
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("listing crop yield observations: %w", err)
	}
	if len(ms) == 0 {
		return nil, fmt.Errorf("location %s crop %s: %w", locationID, cropID, zappaierr.ErrCropYieldDataNotFound)
	}
	out := make([]climate.CropYieldObservation, len(ms))
	for i, m := range ms {
		out[i] = climate.CropYieldObservation{
			LocationID:      m.LocationID,
			CropID:          m.CropID,
			Sowing:          climate.YearMonth{Year: m.SowingYear, Month: m.SowingMonth},
			Harvest:         climate.YearMonth{Year: m.HarvestYear, Month: m.HarvestMonth},
			YieldPerHectare: m.YieldPerHectare,
			Outlier:         m.Outlier,
		}
	}
	return out, nil
}
