package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// OutcomePrice is one priced outcome inside a book's market quote.
// Exactly one of Price (decimal) or American is populated, depending on
// the odds format the ingestion ran with. Point is only present for
// line markets (spreads, totals, player props).
type OutcomePrice struct {
	Price    float64  `json:"price,omitempty"`
	American int      `json:"american,omitempty"`
	Point    *float64 `json:"point,omitempty"`
}

// OddsMap maps a canonical outcome key (home, away, draw, over, under,
// yes, no, or a raw prop selection name) to its price.
type OddsMap map[string]OutcomePrice

// BookQuote is the latest snapshot for one (event, market, bookmaker)
// triple. Ingestion merge-overwrites it on every provider pull; the
// scanners read only this row, never the history.
type BookQuote struct {
	EventID   string         `gorm:"primaryKey;type:text"`
	MarketID  string         `gorm:"primaryKey;type:text"`
	BookID    string         `gorm:"primaryKey;type:text"`
	UpdatedAt time.Time      `gorm:"type:timestamptz;not null;index"`
	Odds      datatypes.JSON `gorm:"type:jsonb;not null"`
}

func (BookQuote) TableName() string {
	return "book_quotes"
}

func (q *BookQuote) SetOdds(odds OddsMap) error {
	raw, err := json.Marshal(odds)
	if err != nil {
		return err
	}
	q.Odds = datatypes.JSON(raw)
	return nil
}

func (q *BookQuote) DecodeOdds() (OddsMap, error) {
	var odds OddsMap
	if len(q.Odds) == 0 {
		return OddsMap{}, nil
	}
	if err := json.Unmarshal(q.Odds, &odds); err != nil {
		return nil, err
	}
	return odds, nil
}

// QuoteSnapshot is the append-only history row written alongside every
// latest-quote overwrite.
type QuoteSnapshot struct {
	ID         uint64         `gorm:"primaryKey;autoIncrement"`
	EventID    string         `gorm:"type:text;not null;index:idx_quote_snapshots_scope"`
	MarketID   string         `gorm:"type:text;not null;index:idx_quote_snapshots_scope"`
	BookID     string         `gorm:"type:text;not null;index:idx_quote_snapshots_scope"`
	UpdatedAt  time.Time      `gorm:"type:timestamptz;not null"`
	Odds       datatypes.JSON `gorm:"type:jsonb;not null"`
	CapturedAt time.Time      `gorm:"type:timestamptz;autoCreateTime"`
}

func (QuoteSnapshot) TableName() string {
	return "quote_snapshots"
}
