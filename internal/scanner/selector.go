package scanner

import (
	"github.com/minutebid/minutebid/types"
)

// Leader is the market currently implying the highest win probability
// within one event.
type Leader struct {
	Outcome     string  // market question, falling back to conditionId
	Probability float64 // implied probability from the price map
	TokenID     string  // CLOB token for the YES side, empty if unknown
}

// SelectLeader returns the market with the strictly highest implied
// probability among markets that have a price entry. Ties keep the first
// market in event order. ok=false when no market in the event is priced.
func SelectLeader(event types.Event, prices types.PriceMap) (Leader, bool) {
	var best Leader
	found := false

	for _, market := range event.Markets {
		price, ok := prices[market.ConditionID]
		if !ok {
			continue
		}
		if price > best.Probability {
			best.Probability = price
			best.Outcome = market.Question
			if best.Outcome == "" {
				best.Outcome = market.ConditionID
			}
			best.TokenID = ""
			if len(market.ClobTokenIDs) > 0 {
				best.TokenID = market.ClobTokenIDs[0]
			}
			found = true
		}
	}

	return best, found
}
