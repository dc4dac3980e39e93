package models

import (
	"time"

	"gorm.io/datatypes"
)

// ScanRun is the audit row for one orchestrator invocation.
type ScanRun struct {
	ID       string `gorm:"primaryKey;type:varchar(36)"`
	Sport    string `gorm:"type:text;index"`
	MarketID string `gorm:"type:text;not null"`
	Trigger  string `gorm:"type:varchar(20);not null"`

	Pages   int `gorm:"not null"`
	Scanned int `gorm:"not null"`
	Created int `gorm:"not null"`

	// Errors holds the per-event error report: [{event_id, error}].
	Errors datatypes.JSON `gorm:"type:jsonb"`

	StartedAt  time.Time  `gorm:"type:timestamptz;not null;index"`
	FinishedAt *time.Time `gorm:"type:timestamptz"`
}

func (ScanRun) TableName() string {
	return "scan_runs"
}
