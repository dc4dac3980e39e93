package scanner

import (
	"time"

	"github.com/ColdCrayon/Pickit-sub001/internal/models"
	"github.com/ColdCrayon/Pickit-sub001/internal/oddsmath"
)

// TotalScanner covers over/under markets. Same best-of-group algorithm
// as spreads, but a book's quote only qualifies when its over and under
// share one line, and grouping is by that shared value.
type TotalScanner struct {
	Params Params
}

func (s *TotalScanner) MarketID() string { return "totals" }

func (s *TotalScanner) Scan(event models.Event, quotes []Quote, now time.Time) []models.Opportunity {
	type side struct {
		bookID string
		price  Price
	}
	overs := map[string][]side{}
	unders := map[string][]side{}
	var keys []string
	for _, q := range quotes {
		over, okOver := q.Outcomes["over"]
		under, okUnder := q.Outcomes["under"]
		if !okOver || !okUnder || over.Point == nil || under.Point == nil {
			continue
		}
		if *over.Point != *under.Point {
			continue
		}
		key := lineKey(*over.Point)
		if _, seen := overs[key]; !seen {
			keys = append(keys, key)
		}
		overs[key] = append(overs[key], side{bookID: q.BookID, price: over})
		unders[key] = append(unders[key], side{bookID: q.BookID, price: under})
	}

	var opps []models.Opportunity
	for _, key := range keys {
		var bestOver, bestUnder bestPrice
		for _, o := range overs[key] {
			bestOver.consider(o.bookID, o.price.Decimal, o.price.Point)
		}
		for _, u := range unders[key] {
			bestUnder.consider(u.bookID, u.price.Decimal, u.price.Point)
		}
		if !bestOver.ok || !bestUnder.ok || bestOver.BookID == bestUnder.BookID {
			continue
		}
		edge := oddsmath.TwoWayEdge(bestOver.Price, bestUnder.Price)
		if edge < s.Params.MinEdge {
			continue
		}
		pctOver, pctUnder, _, _ := oddsmath.TwoWayStakes(bestOver.Price, bestUnder.Price, s.Params.Bank)
		legs := []models.Leg{
			{Outcome: "over", BookID: bestOver.BookID, Price: bestOver.Price, StakePct: pctOver, Point: bestOver.Point},
			{Outcome: "under", BookID: bestUnder.BookID, Price: bestUnder.Price, StakePct: pctUnder, Point: bestUnder.Point},
		}
		opps = append(opps, newOpportunity(event, s.MarketID(), edge, legs, now))
	}
	return opps
}
