package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zappai-go/zappai/climate"
	"github.com/zappai-go/zappai/zappaierr"
)

// SaveFutureClimateChunk ingests a contiguous-period projection chunk at raw
// coordinates. Records overlapping the chunk's period are deleted before
// insertion, committed atomically.
func (s *Store) SaveFutureClimateChunk(ctx context.Context, longitude, latitude float64, chunk map[climate.YearMonth]map[string]float64) error {
	if len(chunk) == 0 {
		return ErrEmptyChunk
	}

	var minKey, maxKey int
	first := true
	for ym := range chunk {
		key := ym.Year*12 + ym.Month
		if first || key < minKey {
			minKey = key
		}
		if first || key > maxKey {
			maxKey = key
		}
		first = false
	}

	rows := make([]FutureClimateDataModel, 0, len(chunk))
	for ym, vars := range chunk {
		rows = append(rows, toFutureClimateModel(longitude, latitude, ym, vars))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("longitude = ? AND latitude = ? AND (year*12+month) BETWEEN ? AND ?",
			longitude, latitude, minKey, maxKey).
			Delete(&FutureClimateDataModel{}).Error; err != nil {
			return fmt.Errorf("replacing overlapping period: %w", err)
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("inserting chunk: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving future climate chunk: %w", err)
	}
	return nil
}

// RangeFuture returns the projection series at raw coordinates within the
// closed calendar interval [from, to], ordered by (year, month) ascending.
func (s *Store) RangeFuture(ctx context.Context, longitude, latitude float64, from, to climate.YearMonth) ([]climate.FutureClimateRecord, error) {
	var ms []FutureClimateDataModel
	err := s.db.WithContext(ctx).
		Where("longitude = ? AND latitude = ?", longitude, latitude).
		Where("(year*12+month) >= ?", from.Year*12+from.Month).
		Where("(year*12+month) <= ?", to.Year*12+to.Month).
		Order("year asc, month asc").
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("ranging future climate data: %w", err)
	}
	if len(ms) == 0 {
		return nil, fmt.Errorf("coordinate (%f, %f) in [%s, %s]: %w", longitude, latitude, from, to, zappaierr.ErrPastClimateDataNotFound)
	}
	return fromFutureClimateModels(ms), nil
}

type coordGroup struct {
	Longitude float64
	Latitude  float64
	MinSeq    uint64
}

// NearestFutureCoordinate finds the stored projection coordinate closest to the
// probe point, by great-circle distance. Ties are broken by insertion order: the
// coordinate group whose earliest-inserted row has the smaller sequence number
// wins.
func (s *Store) NearestFutureCoordinate(ctx context.Context, longitude, latitude float64) (float64, float64, error) {
	var groups []coordGroup
	err := s.db.WithContext(ctx).Model(&FutureClimateDataModel{}).
		Select("longitude, latitude, MIN(seq) as min_seq").
		Group("longitude, latitude").
		Scan(&groups).Error
	if err != nil {
		return 0, 0, fmt.Errorf("listing projection coordinates: %w", err)
	}
	if len(groups) == 0 {
		return 0, 0, fmt.Errorf("no projection coordinates stored: %w", zappaierr.ErrPastClimateDataNotFound)
	}

	best := groups[0]
	bestDist := sphericalDistanceKm(longitude, latitude, best.Longitude, best.Latitude)
	for _, g := range groups[1:] {
		d := sphericalDistanceKm(longitude, latitude, g.Longitude, g.Latitude)
		if d < bestDist || (d == bestDist && g.MinSeq < best.MinSeq) {
			best = g
			bestDist = d
		}
	}
	return best.Longitude, best.Latitude, nil
}

func toFutureClimateModel(longitude, latitude float64, ym climate.YearMonth, vars map[string]float64) FutureClimateDataModel {
	return FutureClimateDataModel{
		ID:                              uuid.New(),
		Longitude:                       longitude,
		Latitude:                        latitude,
		Year:                            ym.Year,
		Month:                           ym.Month,
		WindU10:                         vars["10m_u_component_of_wind"],
		WindV10:                         vars["10m_v_component_of_wind"],
		Temperature2m:                   vars["2m_temperature"],
		Evaporation:                     vars["evaporation"],
		TotalPrecipitation:              vars["total_precipitation"],
		SurfacePressure:                 vars["surface_pressure"],
		SurfaceSolarRadiationDownwards:  vars["surface_solar_radiation_downwards"],
		SurfaceThermalRadiationDownward: vars["surface_thermal_radiation_downwards"],
	}
}

func fromFutureClimateModels(ms []FutureClimateDataModel) []climate.FutureClimateRecord {
	out := make([]climate.FutureClimateRecord, len(ms))
	for i, m := range ms {
		out[i] = climate.FutureClimateRecord{
			Longitude: m.Longitude,
			Latitude:  m.Latitude,
			YearMonth: climate.YearMonth{Year: m.Year, Month: m.Month},
			Variables: map[string]float64{
				"10m_u_component_of_wind":             m.WindU10,
				"10m_v_component_of_wind":             m.WindV10,
				"2m_temperature":                      m.Temperature2m,
				"evaporation":                         m.Evaporation,
				"total_precipitation":                 m.TotalPrecipitation,
				"surface_pressure":                    m.SurfacePressure,
				"surface_solar_radiation_downwards":   m.SurfaceSolarRadiationDownwards,
				"surface_thermal_radiation_downwards": m.SurfaceThermalRadiationDownward,
			},
		}
	}
	return out
}
