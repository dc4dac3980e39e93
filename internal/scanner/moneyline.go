package scanner

import (
	"time"

	"github.com/ColdCrayon/Pickit-sub001/internal/models"
	"github.com/ColdCrayon/Pickit-sub001/internal/oddsmath"
)

// MoneylineScanner covers the h2h market. Two-way combinations are
// tested exhaustively across ordered book pairs; the three-way variant
// (soccer style, with a draw) aggregates the single best price per
// outcome across all books first.
type MoneylineScanner struct {
	Params Params
}

func (s *MoneylineScanner) MarketID() string { return "h2h" }

func (s *MoneylineScanner) Scan(event models.Event, quotes []Quote, now time.Time) []models.Opportunity {
	threeWay := false
	for _, q := range quotes {
		if _, ok := q.Outcomes["draw"]; ok {
			threeWay = true
			break
		}
	}
	if threeWay {
		return s.scanThreeWay(event, quotes, now)
	}
	return s.scanTwoWay(event, quotes, now)
}

func (s *MoneylineScanner) scanTwoWay(event models.Event, quotes []Quote, now time.Time) []models.Opportunity {
	var opps []models.Opportunity
	for i, qa := range quotes {
		home, okHome := qa.Outcomes["home"]
		if !okHome {
			continue
		}
		for j, qb := range quotes {
			if i == j || qa.BookID == qb.BookID {
				continue
			}
			away, okAway := qb.Outcomes["away"]
			if !okAway {
				continue
			}
			edge := oddsmath.TwoWayEdge(home.Decimal, away.Decimal)
			if edge < s.Params.MinEdge {
				continue
			}
			pctHome, pctAway, _, _ := oddsmath.TwoWayStakes(home.Decimal, away.Decimal, s.Params.Bank)
			legs := []models.Leg{
				{Outcome: "home", BookID: qa.BookID, Price: home.Decimal, StakePct: pctHome},
				{Outcome: "away", BookID: qb.BookID, Price: away.Decimal, StakePct: pctAway},
			}
			opps = append(opps, newOpportunity(event, s.MarketID(), edge, legs, now))
		}
	}
	return opps
}

func (s *MoneylineScanner) scanThreeWay(event models.Event, quotes []Quote, now time.Time) []models.Opportunity {
	var home, away, draw bestPrice
	for _, q := range quotes {
		if p, ok := q.Outcomes["home"]; ok {
			home.consider(q.BookID, p.Decimal, nil)
		}
		if p, ok := q.Outcomes["away"]; ok {
			away.consider(q.BookID, p.Decimal, nil)
		}
		if p, ok := q.Outcomes["draw"]; ok {
			draw.consider(q.BookID, p.Decimal, nil)
		}
	}
	if !home.ok || !away.ok || !draw.ok {
		return nil
	}

	// A ticket spanning a single book is just that book's vig, not an
	// arbitrage.
	books := map[string]struct{}{home.BookID: {}, away.BookID: {}, draw.BookID: {}}
	if len(books) < 2 {
		return nil
	}

	edge := oddsmath.ThreeWayEdge(home.Price, away.Price, draw.Price)
	if edge < s.Params.MinEdge {
		return nil
	}
	pcts, _ := oddsmath.ThreeWayStakes(home.Price, away.Price, draw.Price, s.Params.Bank)
	legs := []models.Leg{
		{Outcome: "home", BookID: home.BookID, Price: home.Price, StakePct: pcts[0]},
		{Outcome: "away", BookID: away.BookID, Price: away.Price, StakePct: pcts[1]},
		{Outcome: "draw", BookID: draw.BookID, Price: draw.Price, StakePct: pcts[2]},
	}
	return []models.Opportunity{newOpportunity(event, s.MarketID(), edge, legs, now)}
}
