// Package scanner implements the arbitrage detection core: per-market
// scanning algorithms over fresh book quotes, deterministic opportunity
// identity, batched persistence and the paginated scan orchestration.
package scanner

import (
	"math"
	"time"

	"github.com/ColdCrayon/Pickit-sub001/internal/models"
	"github.com/ColdCrayon/Pickit-sub001/internal/oddsmath"
)

// Price is one outcome's decoded decimal price plus its line, if the
// market has one.
type Price struct {
	Decimal float64
	Point   *float64
}

// Quote is the scanner-facing view of one book's latest market quote:
// decoded, converted to decimal odds and stripped of invalid outcomes.
type Quote struct {
	BookID    string
	UpdatedAt time.Time
	Outcomes  map[string]Price
}

// DecodeQuote converts a stored quote row into the scanner view.
// American prices are converted to decimal; outcomes whose price fails
// validation are dropped individually, never the whole quote.
func DecodeQuote(row models.BookQuote) (Quote, error) {
	odds, err := row.DecodeOdds()
	if err != nil {
		return Quote{}, err
	}
	quote := Quote{
		BookID:    row.BookID,
		UpdatedAt: row.UpdatedAt,
		Outcomes:  make(map[string]Price, len(odds)),
	}
	for outcome, price := range odds {
		dec := price.Price
		if price.American != 0 {
			converted, err := oddsmath.AmericanToDecimal(price.American)
			if err != nil {
				continue
			}
			dec = converted
		}
		if !oddsmath.ValidDecimal(dec) {
			continue
		}
		p := Price{Decimal: dec}
		if price.Point != nil {
			point := roundLine(*price.Point)
			p.Point = &point
		}
		quote.Outcomes[outcome] = p
	}
	return quote, nil
}

// FilterFresh drops quotes older than maxAge at scan time. Staleness is
// never fatal: a stale book simply does not participate.
func FilterFresh(quotes []Quote, now time.Time, maxAge time.Duration) []Quote {
	fresh := make([]Quote, 0, len(quotes))
	for _, q := range quotes {
		if now.Sub(q.UpdatedAt) <= maxAge {
			fresh = append(fresh, q)
		}
	}
	return fresh
}

// roundLine normalizes a handicap/total line to 2 decimal places to
// kill floating noise before lines are compared or grouped.
func roundLine(line float64) float64 {
	return math.Round(line*100) / 100
}
