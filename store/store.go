// Package store is the persistence layer: GORM
// model structs for location, crop, past_climate_data, future_climate_data,
// crop_yield_data and climate_generative_model, plus the repositories the rest of
// the module uses to read and write them.
package store

import (
	"gorm.io/gorm"
)

// Store wraps a *gorm.DB and exposes the repositories backing every entity in
// the persistence layout.
type Store struct {
	db *gorm.DB
}

// New wraps an already-opened *gorm.DB. Opening the connection (choosing the
// postgres driver and DSN) is the caller's responsibility, following
// config.Config.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate bootstraps the schema for all six entities named in the
// persistence layout. Schema migrations beyond this bootstrap are out of scope.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&LocationModel{},
		&CropModel{},
		&PastClimateDataModel{},
		&FutureClimateDataModel{},
		&CropYieldDataModel{},
		&ClimateGenerativeModelModel{},
	)
}

// DB exposes the underlying *gorm.DB for callers (e.g. the CLI) that need to
// manage transactions spanning more than one repository.
func (s *Store) DB() *gorm.DB {
	return s.db
}
