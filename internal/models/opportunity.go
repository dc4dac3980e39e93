package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Leg is one side of an arbitrage ticket: a specific outcome at a
// specific bookmaker and price, with its share of the bankroll.
type Leg struct {
	Outcome  string   `json:"outcome"`
	BookID   string   `json:"book_id"`
	Price    float64  `json:"price"`
	StakePct float64  `json:"stake_pct"`
	Point    *float64 `json:"point,omitempty"`
}

// Opportunity is a detected arbitrage ticket. ID is a pure function of
// (event, market, sorted normalized legs), so a re-scan that finds the
// identical combination merges into the existing row instead of
// inserting a duplicate. Nothing in this service deletes rows; the
// settlement job flips ServerSettled once SettleDate passes.
type Opportunity struct {
	ID       string          `gorm:"primaryKey;type:varchar(64)"`
	EventID  string          `gorm:"type:text;not null;index"`
	MarketID string          `gorm:"type:text;not null;index"`
	Margin   decimal.Decimal `gorm:"type:numeric(20,10);not null"`
	Legs     datatypes.JSON  `gorm:"type:jsonb;not null"`

	SettleDate    time.Time `gorm:"type:timestamptz;not null;index"`
	ServerSettled bool      `gorm:"not null;default:false;index"`

	CreatedAt       time.Time `gorm:"type:timestamptz;autoCreateTime"`
	LastConfirmedAt time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt       time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Opportunity) TableName() string {
	return "opportunities"
}

func (o *Opportunity) SetLegs(legs []Leg) error {
	raw, err := json.Marshal(legs)
	if err != nil {
		return err
	}
	o.Legs = datatypes.JSON(raw)
	return nil
}

func (o *Opportunity) DecodeLegs() ([]Leg, error) {
	if len(o.Legs) == 0 {
		return nil, nil
	}
	var legs []Leg
	if err := json.Unmarshal(o.Legs, &legs); err != nil {
		return nil, err
	}
	return legs, nil
}
