// Package normalizer shapes a provider's raw per-event payload into the
// canonical event + per-(market, book) quote rows the scanners read.
package normalizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ColdCrayon/Pickit-sub001/internal/models"
	"github.com/ColdCrayon/Pickit-sub001/internal/repository"
)

const (
	// FormatDecimal and FormatAmerican select which price field the
	// provider was asked for and therefore which field the quote keeps.
	FormatDecimal  = "decimal"
	FormatAmerican = "american"
)

// RawOutcome, RawMarket, RawBookmaker and RawEvent mirror the provider's
// per-sport JSON shape.
type RawOutcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

type RawMarket struct {
	Key      string       `json:"key"`
	Outcomes []RawOutcome `json:"outcomes"`
}

type RawBookmaker struct {
	Key        string      `json:"key"`
	LastUpdate time.Time   `json:"last_update"`
	Markets    []RawMarket `json:"markets"`
}

type RawEvent struct {
	ID           string         `json:"id"`
	CommenceTime time.Time      `json:"commence_time"`
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	Bookmakers   []RawBookmaker `json:"bookmakers"`
}

// QuoteUpdate is one normalized (market, book) quote ready for the
// latest-row merge write.
type QuoteUpdate struct {
	MarketID  string
	BookID    string
	UpdatedAt time.Time
	Odds      models.OddsMap
}

type Normalizer struct {
	Repo   repository.Repository
	Logger *zap.Logger

	// OddsFormat decides whether Price or American is populated.
	OddsFormat string
	// EventTTL pads the event start time into expires_at on first sight.
	EventTTL time.Duration
}

// Normalize maps one raw event record into an Event shell plus its quote
// updates. Pure shaping: no clock reads beyond the payload, no I/O.
func (n *Normalizer) Normalize(sport string, raw RawEvent) (models.Event, []QuoteUpdate, error) {
	if strings.TrimSpace(raw.ID) == "" {
		return models.Event{}, nil, fmt.Errorf("raw event missing id")
	}

	event := models.Event{
		ID:        raw.ID,
		Sport:     sport,
		HomeTeam:  raw.HomeTeam,
		AwayTeam:  raw.AwayTeam,
		StartTime: raw.CommenceTime,
	}

	var updates []QuoteUpdate
	for _, book := range raw.Bookmakers {
		if strings.TrimSpace(book.Key) == "" {
			continue
		}
		for _, market := range book.Markets {
			if strings.TrimSpace(market.Key) == "" || len(market.Outcomes) == 0 {
				continue
			}
			odds := models.OddsMap{}
			for _, outcome := range market.Outcomes {
				key := n.mapOutcome(raw, outcome.Name)
				odds[key] = n.price(outcome)
			}
			updates = append(updates, QuoteUpdate{
				MarketID:  market.Key,
				BookID:    book.Key,
				UpdatedAt: book.LastUpdate,
				Odds:      odds,
			})
		}
		if book.LastUpdate.After(event.LastOddsUpdate) {
			event.LastOddsUpdate = book.LastUpdate
		}
	}
	if event.LastOddsUpdate.IsZero() {
		event.LastOddsUpdate = time.Now().UTC()
	}

	if n.EventTTL > 0 {
		expires := raw.CommenceTime.Add(n.EventTTL)
		event.ExpiresAt = &expires
	}

	return event, updates, nil
}

// Ingest normalizes and persists one raw event: the event row is
// merge-upserted (expires_at sticks from first sight, last_odds_update
// is touched for scan prioritization) and every quote update overwrites
// its latest row while appending a history snapshot.
func (n *Normalizer) Ingest(ctx context.Context, sport string, raw RawEvent) error {
	if n == nil || n.Repo == nil {
		return nil
	}
	event, updates, err := n.Normalize(sport, raw)
	if err != nil {
		return err
	}
	if err := n.Repo.UpsertEvent(ctx, &event); err != nil {
		return fmt.Errorf("upsert event %s: %w", event.ID, err)
	}
	for _, update := range updates {
		quote := models.BookQuote{
			EventID:   event.ID,
			MarketID:  update.MarketID,
			BookID:    update.BookID,
			UpdatedAt: update.UpdatedAt,
		}
		if err := quote.SetOdds(update.Odds); err != nil {
			return fmt.Errorf("encode odds %s/%s: %w", update.MarketID, update.BookID, err)
		}
		if err := n.Repo.UpsertLatestQuote(ctx, &quote); err != nil {
			return fmt.Errorf("upsert quote %s/%s/%s: %w", event.ID, update.MarketID, update.BookID, err)
		}
	}
	if n.Logger != nil {
		n.Logger.Debug("event ingested",
			zap.String("event_id", event.ID),
			zap.String("sport", sport),
			zap.Int("quotes", len(updates)),
		)
	}
	return nil
}

// mapOutcome folds provider outcome names onto canonical keys. Team
// names match the event exactly; draw/over/under fold case-insensitively;
// anything else (player prop selections) passes through under its raw
// name.
func (n *Normalizer) mapOutcome(raw RawEvent, name string) string {
	switch name {
	case raw.HomeTeam:
		return "home"
	case raw.AwayTeam:
		return "away"
	}
	switch strings.ToLower(name) {
	case "draw":
		return "draw"
	case "over":
		return "over"
	case "under":
		return "under"
	}
	return name
}

func (n *Normalizer) price(outcome RawOutcome) models.OutcomePrice {
	var price models.OutcomePrice
	if strings.EqualFold(n.OddsFormat, FormatAmerican) {
		price.American = int(outcome.Price)
	} else {
		price.Price = outcome.Price
	}
	if outcome.Point != nil {
		point := *outcome.Point
		price.Point = &point
	}
	return price
}
