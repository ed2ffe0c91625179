package database

import (
	"fmt"

	"gorm.io/gorm"

	"brickfund/internal/models"
)

// MigrateSchema creates or updates every table the platform uses.
func MigrateSchema(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Property{},
		&models.Tokenomics{},
		&models.PropertyAggregate{},
		&models.Investment{},
		&models.Review{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Yield recomputation scans finished investments per property
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_investments_property_status
		ON investments(property_id, status);
	`).Error
	if err != nil {
		return fmt.Errorf("failed to create investment status index: %w", err)
	}

	return nil
}

func (d *Database) RunMigrations() error {
	return MigrateSchema(d.db)
}
