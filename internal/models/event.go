package models

import (
	"time"
)

// Event is one scheduled match. Rows are created and refreshed by odds
// ingestion; the scan path only reads them and touches LastScannedAt.
type Event struct {
	ID             string     `gorm:"primaryKey;type:text"`
	Sport          string     `gorm:"type:text;not null;index"`
	HomeTeam       string     `gorm:"type:text;not null"`
	AwayTeam       string     `gorm:"type:text;not null"`
	StartTime      time.Time  `gorm:"type:timestamptz;not null;index"`
	LastOddsUpdate time.Time  `gorm:"type:timestamptz;not null;index"`
	ExpiresAt      *time.Time `gorm:"type:timestamptz"`
	LastScannedAt  *time.Time `gorm:"type:timestamptz"`
}

func (Event) TableName() string {
	return "events"
}
