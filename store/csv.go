package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/zappai-go/zappai/climate"
)

// locationCSVColumns and pastClimateCSVColumns fix the entity field order CSV
// export/import follow: no schema version
// header, ISO-8601 timestamps. encoding/csv is used directly since CSV
// import/export is explicitly out of scope beyond these narrow helpers and no
// pack repo carries a richer CSV library.
var locationCSVColumns = []string{"id", "country", "name", "longitude", "latitude", "created_at"}

var pastClimateCSVColumns = append([]string{"id", "location_id", "year", "month"}, append(append([]string{}, climate.CMIPOverlapVariables...), climate.ERAExclusiveVariables...)...)

// ExportLocationsCSV writes every persisted location to w in CSV form.
func (s *Store) ExportLocationsCSV(ctx context.Context, w io.Writer) error {
	var ms []LocationModel
	if err := s.db.WithContext(ctx).Order("created_at asc").Find(&ms).Error; err != nil {
		return fmt.Errorf("loading locations for export: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(locationCSVColumns); err != nil {
		return fmt.Errorf("writing location csv header: %w", err)
	}
	for _, m := range ms {
		row := []string{
			m.ID.String(),
			m.Country,
			m.Name,
			strconv.FormatFloat(m.Longitude, 'f', -1, 64),
			strconv.FormatFloat(m.Latitude, 'f', -1, 64),
			m.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing location csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportLocationsCSV reads locations from r (same column order ExportLocationsCSV
// writes, header row required) and persists them.
func (s *Store) ImportLocationsCSV(ctx context.Context, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("reading location csv: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}
	rows := records[1:] // skip header

	ms := make([]LocationModel, 0, len(rows))
	for i, rec := range rows {
		if len(rec) != len(locationCSVColumns) {
			return 0, fmt.Errorf("location csv row %d: expected %d columns, got %d", i, len(locationCSVColumns), len(rec))
		}
		id, err := uuid.Parse(rec[0])
		if err != nil {
			return 0, fmt.Errorf("location csv row %d: %w", i, err)
		}
		lon, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return 0, fmt.Errorf("location csv row %d: %w", i, err)
		}
		lat, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			return 0, fmt.Errorf("location csv row %d: %w", i, err)
		}
		createdAt, err := time.Parse(time.RFC3339, rec[5])
		if err != nil {
			return 0, fmt.Errorf("location csv row %d: %w", i, err)
		}
		ms = append(ms, LocationModel{
			ID: id, Country: rec[1], Name: rec[2], Longitude: lon, Latitude: lat, CreatedAt: createdAt,
		})
	}
	if len(ms) == 0 {
		return 0, nil
	}
	if err := s.db.WithContext(ctx).Create(&ms).Error; err != nil {
		return 0, fmt.Errorf("importing locations: %w", err)
	}
	return len(ms), nil
}

// ExportPastClimateCSV writes all past climate records for a location to w.
func (s *Store) ExportPastClimateCSV(ctx context.Context, w io.Writer, locationID uuid.UUID) error {
	var ms []PastClimateDataModel
	if err := s.db.WithContext(ctx).Where("location_id = ?", locationID).Order("year asc, month asc").Find(&ms).Error; err != nil {
		return fmt.Errorf("loading past climate data for export: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(pastClimateCSVColumns); err != nil {
		return fmt.Errorf("writing past climate csv header: %w", err)
	}
	for _, m := range ms {
		rec := fromPastClimateModels([]PastClimateDataModel{m})[0]
		row := make([]string, 0, len(pastClimateCSVColumns))
		row = append(row, m.ID.String(), m.LocationID.String(), strconv.Itoa(m.Year), strconv.Itoa(m.Month))
		for _, v := range append(append([]string{}, climate.CMIPOverlapVariables...), climate.ERAExclusiveVariables...) {
			row = append(row, strconv.FormatFloat(rec.Variables[v], 'f', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing past climate csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportPastClimateCSV reads past climate records from r and ingests them as a
// single chunk per location via SavePastClimateChunk, preserving the atomic
// replace-then-insert semantics.
func (s *Store) ImportPastClimateCSV(ctx context.Context, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("reading past climate csv: %w", err)
	}
	if len(records) <= 1 {
		return 0, nil
	}
	variableNames := append(append([]string{}, climate.CMIPOverlapVariables...), climate.ERAExclusiveVariables...)

	byLocation := map[uuid.UUID]map[climate.YearMonth]map[string]float64{}
	for i, rec := range records[1:] {
		if len(rec) != len(pastClimateCSVColumns) {
			return 0, fmt.Errorf("past climate csv row %d: expected %d columns, got %d", i, len(pastClimateCSVColumns), len(rec))
		}
		locationID, err := uuid.Parse(rec[1])
		if err != nil {
			return 0, fmt.Errorf("past climate csv row %d: %w", i, err)
		}
		year, err := strconv.Atoi(rec[2])
		if err != nil {
			return 0, fmt.Errorf("past climate csv row %d: %w", i, err)
		}
		month, err := strconv.Atoi(rec[3])
		if err != nil {
			return 0, fmt.Errorf("past climate csv row %d: %w", i, err)
		}
		vars := map[string]float64{}
		for j, name := range variableNames {
			v, err := strconv.ParseFloat(rec[4+j], 64)
			if err != nil {
				return 0, fmt.Errorf("past climate csv row %d column %s: %w", i, name, err)
			}
			vars[name] = v
		}
		if byLocation[locationID] == nil {
			byLocation[locationID] = map[climate.YearMonth]map[string]float64{}
		}
		byLocation[locationID][climate.YearMonth{Year: year, Month: month}] = vars
	}

	total := 0
	for locationID, chunk := range byLocation {
		if err := s.SavePastClimateChunk(ctx, locationID, chunk); err != nil {
			return total, fmt.Errorf("importing past climate data for location %s: %w", locationID, err)
		}
		total += len(chunk)
	}
	return total, nil
}
