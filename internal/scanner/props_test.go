package scanner

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/ColdCrayon/Pickit-sub001/internal/models"
)

func propDef(t *testing.T, key, playerID string, selections []string) models.PropDefinition {
	t.Helper()
	def := models.PropDefinition{Key: key, PlayerID: playerID}
	if err := def.SetSelections(selections); err != nil {
		t.Fatalf("set selections: %v", err)
	}
	return def
}

func propQuote(book string, line float64, over, under float64) Quote {
	return Quote{
		BookID:    book,
		UpdatedAt: time.Now().UTC(),
		Outcomes: map[string]Price{
			"over":  {Decimal: over, Point: ptr(line)},
			"under": {Decimal: under, Point: ptr(line)},
		},
	}
}

func TestShapeOf(t *testing.T) {
	cases := []struct {
		selections []string
		shape      PropShape
		ok         bool
	}{
		{[]string{"over", "under"}, PropOverUnder, true},
		{[]string{"under", "over"}, PropOverUnder, true},
		{[]string{"yes", "no"}, PropYesNo, true},
		{[]string{"no", "yes"}, PropYesNo, true},
		{[]string{"over"}, 0, false},
		{[]string{"over", "no"}, 0, false},
		{[]string{"over", "under", "push"}, 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		shape, ok := ShapeOf(tc.selections)
		if ok != tc.ok || (ok && shape != tc.shape) {
			t.Errorf("ShapeOf(%v) = (%v, %v), want (%v, %v)", tc.selections, shape, ok, tc.shape, tc.ok)
		}
	}
}

func TestNewPropScanner_UnknownShapeRejected(t *testing.T) {
	def := propDef(t, "player_points", "p123", []string{"first", "anytime"})
	if _, ok := NewPropScanner(testParams(), def); ok {
		t.Fatal("expected no scanner for an unrecognized selections array")
	}
}

func TestPropScanner_OverUnder(t *testing.T) {
	def := propDef(t, "player_points", "p123", []string{"over", "under"})
	s, ok := NewPropScanner(testParams(), def)
	if !ok {
		t.Fatal("expected scanner")
	}
	if s.MarketID() != "player_points:p123" {
		t.Fatalf("market id = %s", s.MarketID())
	}

	quotes := []Quote{
		propQuote("booka", 27.5, 2.02, 1.80),
		propQuote("bookb", 27.5, 1.80, 2.04),
	}
	opps := s.Scan(testEvent(), quotes, time.Now().UTC())
	if len(opps) != 1 {
		t.Fatalf("opps=%d want=1", len(opps))
	}

	margin, _ := opps[0].Margin.Float64()
	if math.Abs(margin-0.0147) > 1e-3 {
		t.Errorf("margin = %f, want ~0.0148", margin)
	}
	if opps[0].MarketID != "player_points:p123" {
		t.Errorf("market id = %s", opps[0].MarketID)
	}
}

func TestPropScanner_IDScopedByPlayerAndLine(t *testing.T) {
	params := testParams()
	quotes := []Quote{
		propQuote("booka", 27.5, 2.10, 1.80),
		propQuote("bookb", 27.5, 1.80, 2.10),
	}
	event := testEvent()
	now := time.Now().UTC()

	s1, _ := NewPropScanner(params, propDef(t, "player_points", "p123", []string{"over", "under"}))
	s2, _ := NewPropScanner(params, propDef(t, "player_points", "p456", []string{"over", "under"}))

	a := s1.Scan(event, quotes, now)
	b := s2.Scan(event, quotes, now)
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("opps=%d/%d want=1/1", len(a), len(b))
	}
	if a[0].ID == b[0].ID {
		t.Error("different players produced the same ticket id")
	}

	shifted := []Quote{
		propQuote("booka", 28.5, 2.10, 1.80),
		propQuote("bookb", 28.5, 1.80, 2.10),
	}
	c := s1.Scan(event, shifted, now)
	if len(c) != 1 {
		t.Fatalf("opps=%d want=1", len(c))
	}
	if a[0].ID == c[0].ID {
		t.Error("different lines produced the same ticket id")
	}
}

func TestPropScanner_ExhaustivePairs(t *testing.T) {
	def := propDef(t, "player_points", "p123", []string{"over", "under"})
	s, _ := NewPropScanner(testParams(), def)

	// Three books, every cross-book over/under pair arbs. Props scan
	// pairwise, so all six ordered pairs surface as separate tickets.
	quotes := []Quote{
		propQuote("booka", 27.5, 2.10, 2.10),
		propQuote("bookb", 27.5, 2.10, 2.10),
		propQuote("bookc", 27.5, 2.10, 2.10),
	}
	opps := s.Scan(testEvent(), quotes, time.Now().UTC())
	if len(opps) != 6 {
		t.Fatalf("opps=%d want=6", len(opps))
	}

	seen := map[string]struct{}{}
	for _, opp := range opps {
		seen[opp.ID] = struct{}{}
	}
	if len(seen) != 6 {
		t.Errorf("distinct ids=%d want=6", len(seen))
	}
}

func TestPropScanner_DifferentLinesNeverPaired(t *testing.T) {
	def := propDef(t, "player_points", "p123", []string{"over", "under"})
	s, _ := NewPropScanner(testParams(), def)

	quotes := []Quote{
		propQuote("booka", 27.5, 2.50, 1.50),
		propQuote("bookb", 28.5, 1.50, 2.50),
	}
	if opps := s.Scan(testEvent(), quotes, time.Now().UTC()); len(opps) != 0 {
		t.Fatalf("opps=%d want=0", len(opps))
	}
}

func TestPropScanner_YesNo(t *testing.T) {
	def := propDef(t, "player_first_td", "p123", []string{"yes", "no"})
	s, ok := NewPropScanner(testParams(), def)
	if !ok {
		t.Fatal("expected scanner")
	}
	if s.Shape != PropYesNo {
		t.Fatalf("shape = %v, want yes/no", s.Shape)
	}

	quotes := []Quote{
		{BookID: "booka", UpdatedAt: time.Now().UTC(), Outcomes: map[string]Price{
			"yes": {Decimal: 4.50}, "no": {Decimal: 1.10},
		}},
		{BookID: "bookb", UpdatedAt: time.Now().UTC(), Outcomes: map[string]Price{
			"yes": {Decimal: 3.80}, "no": {Decimal: 1.35},
		}},
	}
	opps := s.Scan(testEvent(), quotes, time.Now().UTC())
	if len(opps) != 1 {
		t.Fatalf("opps=%d want=1", len(opps))
	}

	legs, _ := opps[0].DecodeLegs()
	if legs[0].Outcome != "yes" || legs[0].BookID != "booka" {
		t.Errorf("yes leg = %s/%s", legs[0].Outcome, legs[0].BookID)
	}
	if legs[1].Outcome != "no" || legs[1].BookID != "bookb" {
		t.Errorf("no leg = %s/%s", legs[1].Outcome, legs[1].BookID)
	}
	if legs[0].Point != nil || legs[1].Point != nil {
		t.Error("yes/no legs must carry no line")
	}
}

func TestPropScanner_YesNoIDCarriesPlayer(t *testing.T) {
	quotes := []Quote{
		{BookID: "booka", UpdatedAt: time.Now().UTC(), Outcomes: map[string]Price{"yes": {Decimal: 2.10}}},
		{BookID: "bookb", UpdatedAt: time.Now().UTC(), Outcomes: map[string]Price{"no": {Decimal: 2.10}}},
	}

	s1, _ := NewPropScanner(testParams(), propDef(t, "player_first_td", "p123", []string{"yes", "no"}))
	s2, _ := NewPropScanner(testParams(), propDef(t, "player_first_td", "p456", []string{"yes", "no"}))

	a := s1.Scan(testEvent(), quotes, time.Now().UTC())
	b := s2.Scan(testEvent(), quotes, time.Now().UTC())
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("opps=%d/%d want=1/1", len(a), len(b))
	}
	if a[0].ID == b[0].ID {
		t.Error("different players produced the same ticket id")
	}
	if strings.Contains(a[0].ID, "p123") {
		t.Error("raw player id leaked into the digest")
	}
}
