package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zappai-go/zappai/climate"
	"github.com/zappai-go/zappai/zappaierr"
)

// ErrEmptyChunk is returned when a chunk save is attempted with no records.
var ErrEmptyChunk = errors.New("climate chunk is empty")

// SavePastClimateChunk ingests a non-empty mapping of (year, month) -> variable
// vector for one location. All prior records for that location whose year
// appears in the chunk are deleted before insertion, committed atomically so a
// reader never observes a partially replaced year.
func (s *Store) SavePastClimateChunk(ctx context.Context, locationID uuid.UUID, chunk map[climate.YearMonth]map[string]float64) error {
	if len(chunk) == 0 {
		return ErrEmptyChunk
	}

	yearSet := map[int]struct{}{}
	for ym := range chunk {
		yearSet[ym.Year] = struct{}{}
	}
	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}

	rows := make([]PastClimateDataModel, 0, len(chunk))
	for ym, vars := range chunk {
		rows = append(rows, toPastClimateModel(locationID, ym, vars))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("location_id = ? AND year IN ?", locationID, years).
			Delete(&PastClimateDataModel{}).Error; err != nil {
			return fmt.Errorf("replacing prior years: %w", err)
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("inserting chunk: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving past climate chunk: %w", err)
	}
	return nil
}

// RangePast returns records for a location strictly within the closed calendar
// interval [from, to], ordered by (year, month) ascending. Fails with
// PastClimateDataNotFound when no record exists in the window.
func (s *Store) RangePast(ctx context.Context, locationID uuid.UUID, from, to climate.YearMonth) ([]climate.PastClimateRecord, error) {
	var ms []PastClimateDataModel
	err := s.db.WithContext(ctx).
		Where("location_id = ?", locationID).
		Where("(year*12+month) >= ?", from.Year*12+from.Month).
		Where("(year*12+month) <= ?", to.Year*12+to.Month).
		Order("year asc, month asc").
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("ranging past climate data: %w", err)
	}
	if len(ms) == 0 {
		return nil, fmt.Errorf("location %s in [%s, %s]: %w", locationID, from, to, zappaierr.ErrPastClimateDataNotFound)
	}
	return fromPastClimateModels(ms), nil
}

// LastNMonths returns the N most recent months of past climate data for a
// location, ordered ascending. Fails with InsufficientHistory when fewer than n
// months are available.
func (s *Store) LastNMonths(ctx context.Context, locationID uuid.UUID, n int) ([]climate.PastClimateRecord, error) {
	var ms []PastClimateDataModel
	err := s.db.WithContext(ctx).
		Where("location_id = ?", locationID).
		Order("year desc, month desc").
		Limit(n).
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("reading last %d months: %w", n, err)
	}
	if len(ms) < n {
		return nil, fmt.Errorf("location %s has %d of %d required months: %w", locationID, len(ms), n, zappaierr.ErrInsufficientHistory)
	}
	for i, j := 0, len(ms)-1; i < j; i, j = i+1, j-1 {
		ms[i], ms[j] = ms[j], ms[i]
	}
	return fromPastClimateModels(ms), nil
}

func toPastClimateModel(locationID uuid.UUID, ym climate.YearMonth, vars map[string]float64) PastClimateDataModel {
	return PastClimateDataModel{
		ID:                              uuid.New(),
		LocationID:                      locationID,
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
		SurfaceNetSolarRadiation:        vars["surface_net_solar_radiation"],
		SurfaceNetThermalRadiation:      vars["surface_net_thermal_radiation"],
		Snowfall:                        vars["snowfall"],
		TotalCloudCover:                 vars["total_cloud_cover"],
		Dewpoint2m:                      vars["2m_dewpoint_temperature"],
		SoilTemperatureLevel3:           vars["soil_temperature_level_3"],
		VolumetricSoilWaterLayer3:       vars["volumetric_soil_water_layer_3"],
		Outlier:                         vars["outlier"] != 0,
	}
}

func fromPastClimateModels(ms []PastClimateDataModel) []climate.PastClimateRecord {
	out := make([]climate.PastClimateRecord, len(ms))
	for i, m := range ms {
		out[i] = climate.PastClimateRecord{
			LocationID: m.LocationID,
			YearMonth:  climate.YearMonth{Year: m.Year, Month: m.Month},
			Variables: map[string]float64{
				"10m_u_component_of_wind":              m.WindU10,
				"10m_v_component_of_wind":              m.WindV10,
				"2m_temperature":                       m.Temperature2m,
				"evaporation":                          m.Evaporation,
				"total_precipitation":                  m.TotalPrecipitation,
				"surface_pressure":                     m.SurfacePressure,
				"surface_solar_radiation_downwards":    m.SurfaceSolarRadiationDownwards,
				"surface_thermal_radiation_downwards":  m.SurfaceThermalRadiationDownward,
				"surface_net_solar_radiation":          m.SurfaceNetSolarRadiation,
				"surface_net_thermal_radiation":         m.SurfaceNetThermalRadiation,
				"snowfall":                              m.Snowfall,
				"total_cloud_cover":                     m.TotalCloudCover,
				"2m_dewpoint_temperature":                m.Dewpoint2m,
				"soil_temperature_level_3":              m.SoilTemperatureLevel3,
				"volumetric_soil_water_layer_3":          m.VolumetricSoilWaterLayer3,
			},
		}
	}
	return out
}
