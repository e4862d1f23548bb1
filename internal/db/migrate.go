package db

import (
	"fmt"

	"github.com/zulandar/quorum/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the GORM models that make up the Quorum schema.
func AllModels() []interface{} {
	return []interface{}{
		&models.Meeting{},
		&models.Registration{},
	}
}

// AutoMigrate creates or updates all Quorum tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return EnsureCalendarLink(db)
}

// EnsureCalendarLink adds the calendar_link column to a meetings table that
// predates it. AutoMigrate covers tables it created itself; this guard covers
// databases written by the original schema, where the column was added by an
// explicit ALTER TABLE.
func EnsureCalendarLink(db *gorm.DB) error {
	m := db.Migrator()
	if m.HasColumn(&models.Meeting{}, "calendar_link") {
		return nil
	}
	if err := m.AddColumn(&models.Meeting{}, "CalendarLink"); err != nil {
		return fmt.Errorf("db: add calendar_link column: %w", err)
	}
	return nil
}
