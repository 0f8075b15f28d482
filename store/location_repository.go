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

// CreateLocation persists a new location. Coordinates and (country, name) must
// be unique; GORM surfaces constraint violations as-is since schema migrations
// and constraint enforcement are the database's job here.
func (s *Store) CreateLocation(ctx context.Context, loc *climate.Location) error {
	if loc.ID == uuid.Nil {
		loc.ID = uuid.New()
	}
	m := LocationModel{
		ID:        loc.ID,
		Country:   loc.Country,
		Name:      loc.Name,
		Longitude: loc.Longitude,
		Latitude:  loc.Latitude,
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("creating location: %w", err)
	}
	return nil
}

// GetLocation looks up a location by id.
func (s *Store) GetLocation(ctx context.Context, id uuid.UUID) (*climate.Location, error) {
	var m LocationModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("location %s: %w", id, zappaierr.ErrLocationNotFound)
		}
		return nil, fmt.Errorf("getting location: %w", err)
	}
	return toLocation(m), nil
}

// ListLocations returns every persisted location, ordered by creation time.
func (s *Store) ListLocations(ctx context.Context) ([]*climate.Location, error) {
	var ms []LocationModel
	if err := s.db.WithContext(ctx).Order("created_at asc").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	out := make([]*climate.Location, len(ms))
	for i, m := range ms {
		out[i] = toLocation(m)
	}
	return out, nil
}

// DeleteLocation removes a location by id.
func (s *Store) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&LocationModel{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("deleting location: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("location %s: %w", id, zappaierr.ErrLocationNotFound)
	}
	return nil
}

func toLocation(m LocationModel) *climate.Location {
	return &climate.Location{
		ID:        m.ID,
		Country:   m.Country,
		Name:      m.Name,
		Longitude: m.Longitude,
		Latitude:  m.Latitude,
	}
}
