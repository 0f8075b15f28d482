package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zappai-go/zappai/climate"
	"github.com/zappai-go/zappai/zappaierr"
)

// ClimateGenerativeModelArtifact is the per-location persisted artifact: the
// trained sequence network, the two standard scalers, the held-out RMSE, and
// the three date spans it was fit on.
type ClimateGenerativeModelArtifact struct {
	LocationID      uuid.UUID
	Network         []byte
	FeatureScaler   []byte
	TargetScaler    []byte
	RMSE            float64
	TrainStart      climate.YearMonth
	ValidationStart climate.YearMonth
	TestStart       climate.YearMonth
}

// SaveClimateGenerativeModel atomically replaces the active model for a
// location (at most one active model per location, enforced by the unique
// index on location_id).
func (s *Store) SaveClimateGenerativeModel(ctx context.Context, a ClimateGenerativeModelArtifact) error {
	m := ClimateGenerativeModelModel{
		ID:                    uuid.New(),
		LocationID:            a.LocationID,
		Network:               a.Network,
		FeatureScaler:         a.FeatureScaler,
		TargetScaler:          a.TargetScaler,
		RMSE:                  a.RMSE,
		TrainStartYear:        a.TrainStart.Year,
		TrainStartMonth:       a.TrainStart.Month,
		ValidationStartYear:   a.ValidationStart.Year,
		ValidationStartMonth:  a.ValidationStart.Month,
		TestStartYear:         a.TestStart.Year,
		TestStartMonth:        a.TestStart.Month,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "location_id"}},
		UpdateAll: true,
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("saving climate generative model: %w", err)
	}
	return nil
}

// GetClimateGenerativeModel returns the active model artifact for a location.
func (s *Store) GetClimateGenerativeModel(ctx context.Context, locationID uuid.UUID) (*ClimateGenerativeModelArtifact, error) {
	var m ClimateGenerativeModelModel
	if err := s.db.WithContext(ctx).First(&m, "location_id = ?", locationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("location %s: %w", locationID, zappaierr.ErrClimateGenerativeModelNotFound)
		}
		return nil, fmt.Errorf("getting climate generative model: %w", err)
	}
	return &ClimateGenerativeModelArtifact{
		LocationID:      m.LocationID,
		Network:         m.Network,
		FeatureScaler:   m.FeatureScaler,
		TargetScaler:    m.TargetScaler,
		RMSE:            m.RMSE,
		TrainStart:      climate.YearMonth{Year: m.TrainStartYear, Month: m.TrainStartMonth},
		ValidationStart: climate.YearMonth{Year: m.ValidationStartYear, Month: m.ValidationStartMonth},
		TestStart:       climate.YearMonth{Year: m.TestStartYear, Month: m.TestStartMonth},
	}, nil
}

// IsClimateGenerativeModelReady reports whether a location has a trained,
// persisted generative model, for callers polling after a background training
// kickoff.
func (s *Store) IsClimateGenerativeModelReady(ctx context.Context, locationID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&ClimateGenerativeModelModel{}).
		Where("location_id = ?", locationID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking climate generative model readiness: %w", err)
	}
	return count > 0, nil
}
