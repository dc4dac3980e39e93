package scanner

import (
	"strconv"
	"time"

	"github.com/ColdCrayon/Pickit-sub001/internal/models"
	"github.com/ColdCrayon/Pickit-sub001/internal/oddsmath"
)

// SpreadScanner covers handicap markets. Quotes are grouped by the home
// line value; within a group only the single best home and best away
// price across distinct books are tested.
type SpreadScanner struct {
	Params Params
}

func (s *SpreadScanner) MarketID() string { return "spreads" }

type spreadSide struct {
	bookID string
	price  Price
}

func (s *SpreadScanner) Scan(event models.Event, quotes []Quote, now time.Time) []models.Opportunity {
	groups := map[string][]spreadSide{}
	var keys []string
	for _, q := range quotes {
		home, okHome := q.Outcomes["home"]
		away, okAway := q.Outcomes["away"]
		// Both sides and both lines must be present for the quote to be
		// pairable at all.
		if !okHome || !okAway || home.Point == nil || away.Point == nil {
			continue
		}
		key := lineKey(*home.Point)
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], spreadSide{bookID: q.BookID, price: home}, spreadSide{bookID: q.BookID, price: away})
	}

	var opps []models.Opportunity
	for _, key := range keys {
		group := groups[key]
		var bestHome, bestAway bestPrice
		for i := 0; i < len(group); i += 2 {
			bestHome.consider(group[i].bookID, group[i].price.Decimal, group[i].price.Point)
			bestAway.consider(group[i+1].bookID, group[i+1].price.Decimal, group[i+1].price.Point)
		}
		if opp, ok := s.pairBest(event, bestHome, bestAway, now); ok {
			opps = append(opps, opp)
		}
	}
	return opps
}

func (s *SpreadScanner) pairBest(event models.Event, home, away bestPrice, now time.Time) (models.Opportunity, bool) {
	if !home.ok || !away.ok || home.BookID == away.BookID {
		return models.Opportunity{}, false
	}
	edge := oddsmath.TwoWayEdge(home.Price, away.Price)
	if edge < s.Params.MinEdge {
		return models.Opportunity{}, false
	}
	pctHome, pctAway, _, _ := oddsmath.TwoWayStakes(home.Price, away.Price, s.Params.Bank)
	legs := []models.Leg{
		{Outcome: "home", BookID: home.BookID, Price: home.Price, StakePct: pctHome, Point: home.Point},
		{Outcome: "away", BookID: away.BookID, Price: away.Price, StakePct: pctAway, Point: away.Point},
	}
	return newOpportunity(event, s.MarketID(), edge, legs, now), true
}

func lineKey(line float64) string {
	return strconv.FormatFloat(line, 'f', 2, 64)
}
