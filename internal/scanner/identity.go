package scanner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ColdCrayon/Pickit-sub001/internal/models"
)

// idLength is the truncated hex digest length of an opportunity id.
const idLength = 32

// OpportunityID derives the deterministic ticket id from the normalized
// leg combination. Legs are reduced to "outcome:bookId:round(price*1000)"
// signatures and sorted, so leg order never matters; a materially
// different price combination yields a different id on purpose, since a
// moved price is a new ticket. extra carries the prop player id and
// line when the market needs them.
func OpportunityID(eventID, marketID string, legs []models.Leg, extra ...string) string {
	sigs := make([]string, 0, len(legs))
	for _, leg := range legs {
		sigs = append(sigs, fmt.Sprintf("%s:%s:%d",
			leg.Outcome, leg.BookID, int64(math.Round(leg.Price*1000))))
	}
	sort.Strings(sigs)

	parts := make([]string, 0, 3+len(extra))
	parts = append(parts, eventID, marketID)
	parts = append(parts, extra...)
	parts = append(parts, strings.Join(sigs, "|"))

	sum := sha256.Sum256([]byte(strings.Join(parts, "/")))
	return hex.EncodeToString(sum[:])[:idLength]
}
