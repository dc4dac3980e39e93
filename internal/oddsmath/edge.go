// Package oddsmath holds the pure odds arithmetic used by the arbitrage
// scanners: validity checks, implied-probability edges, proportional
// stake allocation and odds-format conversion. Nothing here reads the
// clock or any external state.
package oddsmath

import "math"

// ValidDecimal reports whether o is usable as decimal odds: a finite
// number strictly greater than 1.0.
func ValidDecimal(o float64) bool {
	return !math.IsNaN(o) && !math.IsInf(o, 0) && o > 1.0
}

// TwoWayEdge is the arbitrage margin across two complementary outcomes:
// 1 - (1/a + 1/b). Positive means a risk-free profit exists.
func TwoWayEdge(a, b float64) float64 {
	return 1.0 - (1.0/a + 1.0/b)
}

// ThreeWayEdge is the margin across three complementary outcomes.
func ThreeWayEdge(a, b, c float64) float64 {
	return 1.0 - (1.0/a + 1.0/b + 1.0/c)
}

// TwoWayStakes splits bank across two legs so the payout is identical
// whichever outcome wins. Returns the two stake fractions (summing to 1)
// and the corresponding stake amounts.
func TwoWayStakes(a, b, bank float64) (pctA, pctB, stakeA, stakeB float64) {
	denom := 1.0/a + 1.0/b
	pctA = (1.0 / a) / denom
	pctB = (1.0 / b) / denom
	return pctA, pctB, bank * pctA, bank * pctB
}

// ThreeWayStakes generalizes TwoWayStakes to three legs.
func ThreeWayStakes(a, b, c, bank float64) (pcts [3]float64, stakes [3]float64) {
	denom := 1.0/a + 1.0/b + 1.0/c
	pcts[0] = (1.0 / a) / denom
	pcts[1] = (1.0 / b) / denom
	pcts[2] = (1.0 / c) / denom
	for i, p := range pcts {
		stakes[i] = bank * p
	}
	return pcts, stakes
}

// StakePcts is the n-leg form used when legs are already collected into
// a slice. Stake fractions sum to 1 within floating tolerance.
func StakePcts(prices []float64) []float64 {
	if len(prices) == 0 {
		return nil
	}
	denom := 0.0
	for _, p := range prices {
		denom += 1.0 / p
	}
	out := make([]float64, len(prices))
	for i, p := range prices {
		out[i] = (1.0 / p) / denom
	}
	return out
}
