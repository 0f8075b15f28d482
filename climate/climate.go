// Package climate holds the data model shared by the climate store, the climate
// generator, the crop-yield regressor, and the planting optimizer: locations,
// monthly climate records, calendar arithmetic over (year, month) pairs, and the
// canonical climate variable lists named in the data model.
package climate

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// CMIPOverlapVariables are the 8 variables present in both reanalysis and
// projection sources. They are exogenous to the generator: at inference they are
// read off the projection row rather than predicted.
var CMIPOverlapVariables = []string{
	"10m_u_component_of_wind",
	"10m_v_component_of_wind",
	"2m_temperature",
	"evaporation",
	"total_precipitation",
	"surface_pressure",
	"surface_solar_radiation_downwards",
	"surface_thermal_radiation_downwards",
}

// ERAExclusiveVariables are the 7 variables present only in reanalysis. These are
// the generator's prediction targets T.
var ERAExclusiveVariables = []string{
	"surface_net_solar_radiation",
	"surface_net_thermal_radiation",
	"snowfall",
	"total_cloud_cover",
	"2m_dewpoint_temperature",
	"soil_temperature_level_3",
	"volumetric_soil_water_layer_3",
}

// SequenceLength is L, the number of past months the generator conditions on.
const SequenceLength = 12

// MinYearMonth and MaxYearMonth bound any realistic calendar interval; used by
// callers that want "the full stored series" from a range query expecting a
// closed interval.
var (
	MinYearMonth = YearMonth{Year: 0, Month: 1}
	MaxYearMonth = YearMonth{Year: 9999, Month: 12}
)

// Location is an immutable geographic point that all other entities reference.
type Location struct {
	ID        uuid.UUID
	Country   string
	Name      string
	Longitude float64
	Latitude  float64
}

// YearMonth is a calendar month, used as the key for every monthly climate record.
type YearMonth struct {
	Year  int
	Month int
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// Before reports whether ym occurs strictly before other.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// Compare returns -1, 0 or 1 as ym is before, equal to, or after other.
func (ym YearMonth) Compare(other YearMonth) int {
	switch {
	case ym.Before(other):
		return -1
	case other.Before(ym):
		return 1
	default:
		return 0
	}
}

// NextMonth returns the calendar month immediately following ym.
func NextMonth(ym YearMonth) YearMonth {
	if ym.Month == 12 {
		return YearMonth{Year: ym.Year + 1, Month: 1}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// PreviousNMonths returns the n calendar months strictly preceding ym, oldest first.
func PreviousNMonths(ym YearMonth, n int) []YearMonth {
	months := make([]YearMonth, n)
	cur := ym
	for i := n - 1; i >= 0; i-- {
		cur = previousMonth(cur)
		months[i] = cur
	}
	return months
}

func previousMonth(ym YearMonth) YearMonth {
	if ym.Month == 1 {
		return YearMonth{Year: ym.Year - 1, Month: 12}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month - 1}
}

// MonthsBetween returns the signed number of calendar months from a to b, i.e.
// the count such that adding it in months to a yields b.
func MonthsBetween(a, b YearMonth) int {
	return (b.Year-a.Year)*12 + (b.Month - a.Month)
}

// AddMonths returns the calendar month n months after ym (n may be negative).
func AddMonths(ym YearMonth, n int) YearMonth {
	total := ym.Year*12 + (ym.Month - 1) + n
	year := total / 12
	month := total%12 + 1
	if month <= 0 {
		month += 12
		year--
	}
	return YearMonth{Year: year, Month: month}
}

// InRange reports whether ym falls in the closed interval [from, to].
func InRange(ym, from, to YearMonth) bool {
	return !ym.Before(from) && !to.Before(ym)
}

// CyclicMonth encodes a calendar month into a continuous two-dimensional feature
// so a sequence model need not learn month identity from a one-hot encoding.
// sin_year(m+12) == sin_year(m) and cos_year(m+12) == cos_year(m) for any m.
func CyclicMonth(month int) (sin, cos float64) {
	angle := 2 * math.Pi * float64(month-1) / 12.0
	return math.Sin(angle), math.Cos(angle)
}

// PastClimateRecord is one monthly reanalysis observation at a Location.
type PastClimateRecord struct {
	LocationID uuid.UUID
	YearMonth  YearMonth
	Variables  map[string]float64
}

// FutureClimateRecord is one monthly projection observation at raw coordinates;
// projection coordinates need not equal any Location's coordinates.
type FutureClimateRecord struct {
	Longitude float64
	Latitude  float64
	YearMonth YearMonth
	Variables map[string]float64
}

// Crop is a named agronomic entity with the bounds on farming duration used to
// gate candidates in the planting optimizer's fitness function.
type Crop struct {
	ID               uuid.UUID
	Name             string
	MinFarmingMonths int
	MaxFarmingMonths int
}

// CropYieldObservation is one labeled sowing/harvest window and its yield,
// keyed by (location, crop, sowing, harvest). Outlier is the ingest-layer flag
// from the source dataset, independent of the z-score filter the crop-yield
// regressor applies before training.
type CropYieldObservation struct {
	LocationID      uuid.UUID
	CropID          uuid.UUID
	Sowing          YearMonth
	Harvest         YearMonth
	YieldPerHectare float64
	Outlier         bool
}

// GeneratorFeatures is F_gen: the ERA-exclusive targets plus the
// exogenous CMIP-overlap variables, omitting the cyclic encoding. It is exactly
// the feature set the climate generator emits per rollout row.
func GeneratorFeatures() []string {
	out := make([]string, 0, len(ERAExclusiveVariables)+len(CMIPOverlapVariables))
	out = append(out, ERAExclusiveVariables...)
	out = append(out, CMIPOverlapVariables...)
	return out
}
