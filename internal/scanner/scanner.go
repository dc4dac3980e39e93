package scanner

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ColdCrayon/Pickit-sub001/internal/models"
)

// Params are the detection thresholds shared by every market scanner.
type Params struct {
	// MinEdge is the minimum required margin for a ticket.
	MinEdge float64
	// Bank is the notional bankroll stake percentages are computed for.
	Bank float64
	// Staleness is the quote max age at scan time.
	Staleness time.Duration
}

// MarketScanner is one per-market-family detection algorithm. Scan gets
// an event's already fresh, validity-filtered quotes for the scanner's
// market and returns zero or more candidate tickets, not yet persisted.
type MarketScanner interface {
	MarketID() string
	Scan(event models.Event, quotes []Quote, now time.Time) []models.Opportunity
}

// newOpportunity assembles one candidate ticket. The id is derived from
// the sorted leg signature, the settle date is the event start and the
// confirmation timestamp is the scan time, so a merging re-scan
// refreshes it.
func newOpportunity(event models.Event, marketID string, margin float64, legs []models.Leg, now time.Time, extra ...string) models.Opportunity {
	opp := models.Opportunity{
		ID:              OpportunityID(event.ID, marketID, legs, extra...),
		EventID:         event.ID,
		MarketID:        marketID,
		Margin:          decimal.NewFromFloat(margin),
		SettleDate:      event.StartTime,
		LastConfirmedAt: now,
	}
	// Legs are plain structs; marshaling cannot fail.
	_ = opp.SetLegs(legs)
	return opp
}

// bestPrice tracks the single best (book, price) seen for one outcome.
// Ties on price resolve to the lexicographically smaller book id so the
// selection is deterministic regardless of input order.
type bestPrice struct {
	BookID string
	Price  float64
	Point  *float64
	ok     bool
}

func (b *bestPrice) consider(bookID string, price float64, point *float64) {
	if !b.ok || price > b.Price || (price == b.Price && bookID < b.BookID) {
		b.BookID = bookID
		b.Price = price
		b.Point = point
		b.ok = true
	}
}
