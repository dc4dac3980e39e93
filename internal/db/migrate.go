package db

import (
	"github.com/ColdCrayon/Pickit-sub001/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Event{},
		&models.BookQuote{},
		&models.QuoteSnapshot{},
		&models.PropDefinition{},
		&models.Opportunity{},
		&models.ScanRun{},
	)
}
