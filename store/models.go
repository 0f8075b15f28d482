package store

import (
	"time"

	"github.com/google/uuid"
)

// LocationModel is the `location` table: unique on (longitude, latitude) and on
// (country, name). Coordinates are immutable once created.
type LocationModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Country   string    `gorm:"uniqueIndex:idx_location_country_name;not null"`
	Name      string    `gorm:"uniqueIndex:idx_location_country_name;not null"`
	Longitude float64   `gorm:"uniqueIndex:idx_location_coords;not null"`
	Latitude  float64   `gorm:"uniqueIndex:idx_location_coords;not null"`
	CreatedAt time.Time
}

func (LocationModel) TableName() string { return "location" }

// CropModel is the `crop` table. The yield regressor, its MSE, and its R² are
// nullable: a crop exists before it has a trained model.
type CropModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name             string    `gorm:"uniqueIndex;not null"`
	MinFarmingMonths int       `gorm:"not null"`
	MaxFarmingMonths int       `gorm:"not null"`
	YieldRegressor   []byte
	YieldModelMSE    *float64
	YieldModelR2     *float64
	CreatedAt        time.Time
}

func (CropModel) TableName() string { return "crop" }

// PastClimateDataModel is the `past_climate_data` table, unique on
// (location_id, year, month). Column names mirror the canonical variable set in
// climate.CMIPOverlapVariables and climate.ERAExclusiveVariables.
type PastClimateDataModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	LocationID uuid.UUID `gorm:"uniqueIndex:idx_past_climate_loc_ym;not null"`
	Year       int       `gorm:"uniqueIndex:idx_past_climate_loc_ym;not null"`
	Month      int       `gorm:"uniqueIndex:idx_past_climate_loc_ym;not null"`

	// CMIP-overlap variables.
	WindU10                        float64 `gorm:"column:10m_u_component_of_wind"`
	WindV10                        float64 `gorm:"column:10m_v_component_of_wind"`
	Temperature2m                   float64 `gorm:"column:2m_temperature"`
	Evaporation                    float64 `gorm:"column:evaporation"`
	TotalPrecipitation              float64 `gorm:"column:total_precipitation"`
	SurfacePressure                 float64 `gorm:"column:surface_pressure"`
	SurfaceSolarRadiationDownwards  float64 `gorm:"column:surface_solar_radiation_downwards"`
	SurfaceThermalRadiationDownward float64 `gorm:"column:surface_thermal_radiation_downwards"`

	// ERA-exclusive variables (generator targets T).
	SurfaceNetSolarRadiation    float64 `gorm:"column:surface_net_solar_radiation"`
	SurfaceNetThermalRadiation  float64 `gorm:"column:surface_net_thermal_radiation"`
	Snowfall                    float64 `gorm:"column:snowfall"`
	TotalCloudCover             float64 `gorm:"column:total_cloud_cover"`
	Dewpoint2m                  float64 `gorm:"column:2m_dewpoint_temperature"`
	SoilTemperatureLevel3       float64 `gorm:"column:soil_temperature_level_3"`
	VolumetricSoilWaterLayer3   float64 `gorm:"column:volumetric_soil_water_layer_3"`

	Outlier bool `gorm:"not null;default:false"`
}

func (PastClimateDataModel) TableName() string { return "past_climate_data" }

// FutureClimateDataModel is the `future_climate_data` table, keyed by raw
// coordinates rather than a location id, unique on (longitude, latitude, year,
// month). Seq is a monotonically increasing insertion counter used to break
// nearest-neighbor ties deterministically.
type FutureClimateDataModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Longitude float64   `gorm:"uniqueIndex:idx_future_climate_coords_ym;not null"`
	Latitude  float64   `gorm:"uniqueIndex:idx_future_climate_coords_ym;not null"`
	Year      int       `gorm:"uniqueIndex:idx_future_climate_coords_ym;not null"`
	Month     int       `gorm:"uniqueIndex:idx_future_climate_coords_ym;not null"`
	Seq       uint64    `gorm:"autoIncrement;not null"`

	WindU10                        float64 `gorm:"column:10m_u_component_of_wind"`
	WindV10                        float64 `gorm:"column:10m_v_component_of_wind"`
	Temperature2m                   float64 `gorm:"column:2m_temperature"`
	Evaporation                    float64 `gorm:"column:evaporation"`
	TotalPrecipitation              float64 `gorm:"column:total_precipitation"`
	SurfacePressure                 float64 `gorm:"column:surface_pressure"`
	SurfaceSolarRadiationDownwards  float64 `gorm:"column:surface_solar_radiation_downwards"`
	SurfaceThermalRadiationDownward float64 `gorm:"column:surface_thermal_radiation_downwards"`
}

func (FutureClimateDataModel) TableName() string { return "future_climate_data" }

// CropYieldDataModel is the `crop_yield_data` table: one observed sowing/harvest
// window and its yield, for a crop at a location.
type CropYieldDataModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	LocationID      uuid.UUID `gorm:"uniqueIndex:idx_crop_yield_window;not null"`
	CropID          uuid.UUID `gorm:"uniqueIndex:idx_crop_yield_window;not null"`
	SowingYear      int       `gorm:"uniqueIndex:idx_crop_yield_window;not null"`
	SowingMonth     int       `gorm:"uniqueIndex:idx_crop_yield_window;not null"`
	HarvestYear     int       `gorm:"uniqueIndex:idx_crop_yield_window;not null"`
	HarvestMonth    int       `gorm:"uniqueIndex:idx_crop_yield_window;not null"`
	YieldPerHectare float64   `gorm:"not null"`
	Outlier         bool      `gorm:"not null;default:false"`
}

func (CropYieldDataModel) TableName() string { return "crop_yield_data" }

// ClimateGenerativeModelModel is the `climate_generative_model` table: the
// per-location trained artifact. At most one active model per location
// (enforced by the unique index on location_id).
type ClimateGenerativeModelModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	LocationID uuid.UUID `gorm:"uniqueIndex;not null"`

	Network       []byte `gorm:"not null"`
	FeatureScaler []byte `gorm:"not null"`
	TargetScaler  []byte `gorm:"not null"`
	RMSE          float64

	TrainStartYear      int
	TrainStartMonth     int
	ValidationStartYear int
	ValidationStartMonth int
	TestStartYear       int
	TestStartMonth      int

	CreatedAt time.Time
}

func (ClimateGenerativeModelModel) TableName() string { return "climate_generative_model" }
