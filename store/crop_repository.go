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

// CreateCrop persists a new crop definition.
func (s *Store) CreateCrop(ctx context.Context, crop *climate.Crop) error {
	if crop.ID == uuid.Nil {
		crop.ID = uuid.New()
	}
	m := CropModel{
		ID:               crop.ID,
		Name:             crop.Name,
		MinFarmingMonths: crop.MinFarmingMonths,
		MaxFarmingMonths: crop.MaxFarmingMonths,
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("creating crop: %w", err)
	}
	return nil
}

// GetCrop looks up a crop by id.
func (s *Store) GetCrop(ctx context.Context, id uuid.UUID) (*climate.Crop, error) {
	var m CropModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("crop %s: %w", id, zappaierr.ErrCropNotFound)
		}
		return nil, fmt.Errorf("getting crop: %w", err)
	}
	return toCrop(m), nil
}

// ListCrops returns every persisted crop.
func (s *Store) ListCrops(ctx context.Context) ([]*climate.Crop, error) {
	var ms []CropModel
	if err := s.db.WithContext(ctx).Order("created_at asc").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("listing crops: %w", err)
	}
	out := make([]*climate.Crop, len(ms))
	for i, m := range ms {
		out[i] = toCrop(m)
	}
	return out, nil
}

// SaveCropYieldModel atomically replaces a crop's trained yield regressor
// artifact, MSE, and R².
func (s *Store) SaveCropYieldModel(ctx context.Context, cropID uuid.UUID, artifact []byte, mse, r2 float64) error {
	res := s.db.WithContext(ctx).Model(&CropModel{}).Where("id = ?", cropID).Updates(map[string]any{
		"yield_regressor": artifact,
		"yield_model_mse": mse,
		"yield_model_r2":  r2,
	})
	if res.Error != nil {
		return fmt.Errorf("saving crop yield model: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("crop %s: %w", cropID, zappaierr.ErrCropNotFound)
	}
	return nil
}

// GetCropYieldModel returns a crop's trained yield regressor artifact, MSE and
// R². Fails with CropYieldModelNotFound when the crop has not been trained yet.
func (s *Store) GetCropYieldModel(ctx context.Context, cropID uuid.UUID) (artifact []byte, mse, r2 float64, err error) {
	var m CropModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", cropID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, 0, fmt.Errorf("crop %s: %w", cropID, zappaierr.ErrCropNotFound)
		}
		return nil, 0, 0, fmt.Errorf("getting crop yield model: %w", err)
	}
	if m.YieldRegressor == nil || m.YieldModelMSE == nil || m.YieldModelR2 == nil {
		return nil, 0, 0, fmt.Errorf("crop %s: %w", cropID, zappaierr.ErrCropYieldModelNotFound)
	}
	return m.YieldRegressor, *m.YieldModelMSE, *m.YieldModelR2, nil
}

func toCrop(m CropModel) *climate.Crop {
	return &climate.Crop{
		ID:               m.ID,
		Name:             m.Name,
		MinFarmingMonths: m.MinFarmingMonths,
		MaxFarmingMonths: m.MaxFarmingMonths,
	}
}
