package scanner

import (
	"time"

	"github.com/ColdCrayon/Pickit-sub001/internal/models"
	"github.com/ColdCrayon/Pickit-sub001/internal/oddsmath"
)

// PropShape is the selection pair a prop market quotes. It is resolved
// once per definition from the selections array, not probed per quote.
type PropShape int

const (
	PropOverUnder PropShape = iota
	PropYesNo
)

// ShapeOf classifies a prop definition's selections array.
func ShapeOf(selections []string) (PropShape, bool) {
	if len(selections) != 2 {
		return 0, false
	}
	has := map[string]bool{}
	for _, sel := range selections {
		has[sel] = true
	}
	switch {
	case has["over"] && has["under"]:
		return PropOverUnder, true
	case has["yes"] && has["no"]:
		return PropYesNo, true
	}
	return 0, false
}

// PropScanner covers one player prop market. Unlike team markets it
// scans book pairs exhaustively, so one line can yield several
// overlapping tickets across different book pairs.
type PropScanner struct {
	Params Params
	Def    models.PropDefinition
	Shape  PropShape
}

// NewPropScanner resolves the definition's shape; definitions with an
// unrecognized selections array get no scanner.
func NewPropScanner(params Params, def models.PropDefinition) (*PropScanner, bool) {
	selections, err := def.DecodeSelections()
	if err != nil {
		return nil, false
	}
	shape, ok := ShapeOf(selections)
	if !ok {
		return nil, false
	}
	return &PropScanner{Params: params, Def: def, Shape: shape}, true
}

func (s *PropScanner) MarketID() string { return s.Def.MarketID() }

func (s *PropScanner) Scan(event models.Event, quotes []Quote, now time.Time) []models.Opportunity {
	switch s.Shape {
	case PropOverUnder:
		return s.scanOverUnder(event, quotes, now)
	case PropYesNo:
		return s.scanPaired(event, quotes, now, "yes", "no", "")
	}
	return nil
}

func (s *PropScanner) scanOverUnder(event models.Event, quotes []Quote, now time.Time) []models.Opportunity {
	var opps []models.Opportunity
	for _, qa := range quotes {
		over, ok := qa.Outcomes["over"]
		if !ok || over.Point == nil {
			continue
		}
		for _, qb := range quotes {
			if qa.BookID == qb.BookID {
				continue
			}
			under, ok := qb.Outcomes["under"]
			if !ok || under.Point == nil {
				continue
			}
			// Different lines are different bets, never compared.
			if *over.Point != *under.Point {
				continue
			}
			edge := oddsmath.TwoWayEdge(over.Decimal, under.Decimal)
			if edge < s.Params.MinEdge {
				continue
			}
			pctOver, pctUnder, _, _ := oddsmath.TwoWayStakes(over.Decimal, under.Decimal, s.Params.Bank)
			legs := []models.Leg{
				{Outcome: "over", BookID: qa.BookID, Price: over.Decimal, StakePct: pctOver, Point: over.Point},
				{Outcome: "under", BookID: qb.BookID, Price: under.Decimal, StakePct: pctUnder, Point: under.Point},
			}
			opps = append(opps, newOpportunity(event, s.MarketID(), edge, legs, now,
				s.Def.PlayerID, lineKey(*over.Point)))
		}
	}
	return opps
}

func (s *PropScanner) scanPaired(event models.Event, quotes []Quote, now time.Time, first, second, line string) []models.Opportunity {
	var opps []models.Opportunity
	for _, qa := range quotes {
		a, ok := qa.Outcomes[first]
		if !ok {
			continue
		}
		for _, qb := range quotes {
			if qa.BookID == qb.BookID {
				continue
			}
			b, ok := qb.Outcomes[second]
			if !ok {
				continue
			}
			edge := oddsmath.TwoWayEdge(a.Decimal, b.Decimal)
			if edge < s.Params.MinEdge {
				continue
			}
			pctA, pctB, _, _ := oddsmath.TwoWayStakes(a.Decimal, b.Decimal, s.Params.Bank)
			legs := []models.Leg{
				{Outcome: first, BookID: qa.BookID, Price: a.Decimal, StakePct: pctA},
				{Outcome: second, BookID: qb.BookID, Price: b.Decimal, StakePct: pctB},
			}
			extra := []string{s.Def.PlayerID}
			if line != "" {
				extra = append(extra, line)
			}
			opps = append(opps, newOpportunity(event, s.MarketID(), edge, legs, now, extra...))
		}
	}
	return opps
}
