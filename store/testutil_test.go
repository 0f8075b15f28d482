package store

import (
	"os"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestStore opens a Store against ZAPPAI_TEST_DATABASE_URL and migrates a
// clean schema. Tests that need a real database skip when it isn't configured,
// rather than fail, so the suite stays green in environments with no Postgres
// available.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("ZAPPAI_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("ZAPPAI_TEST_DATABASE_URL not set, skipping store integration test")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	s := New(db)
	if err := s.AutoMigrate(); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	t.Cleanup(func() {
		tx := db.Exec("TRUNCATE location, crop, past_climate_data, future_climate_data, crop_yield_data, climate_generative_model RESTART IDENTITY CASCADE")
		if tx.Error != nil {
			t.Logf("cleaning test database: %v", tx.Error)
		}
	})

	return s
}
