package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// PropDefinition describes one player prop market: which player it is
// about and which selection pair it quotes. The selections array, not
// the key, decides which scanner variant applies.
type PropDefinition struct {
	Key        string         `gorm:"primaryKey;type:text"`
	PlayerID   string         `gorm:"primaryKey;type:text"`
	PlayerName string         `gorm:"type:text;not null"`
	PlayerTeam string         `gorm:"type:text"`
	Selections datatypes.JSON `gorm:"type:jsonb;not null"`
}

func (PropDefinition) TableName() string {
	return "prop_definitions"
}

func (p *PropDefinition) SetSelections(selections []string) error {
	raw, err := json.Marshal(selections)
	if err != nil {
		return err
	}
	p.Selections = datatypes.JSON(raw)
	return nil
}

func (p *PropDefinition) DecodeSelections() ([]string, error) {
	if len(p.Selections) == 0 {
		return nil, nil
	}
	var selections []string
	if err := json.Unmarshal(p.Selections, &selections); err != nil {
		return nil, err
	}
	return selections, nil
}

// MarketID is the scoped market identifier, "<propKey>:<playerId>".
func (p *PropDefinition) MarketID() string {
	return p.Key + ":" + p.PlayerID
}
