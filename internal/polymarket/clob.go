package polymarket

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/minutebid/minutebid/types"
)

// midpointChunkSize bounds ids per request to stay clear of HTTP 414.
const midpointChunkSize = 20

// MarketPrices fetches midpoint prices for the given condition ids from
// the CLOB API and returns implied probabilities in [0,1]. A failed chunk
// or an unparsable price drops only the affected markets.
func (c *Client) MarketPrices(ctx context.Context, conditionIDs []string) (types.PriceMap, error) {
	prices := make(types.PriceMap)
	if len(conditionIDs) == 0 {
		return prices, nil
	}

	for start := 0; start < len(conditionIDs); start += midpointChunkSize {
		end := start + midpointChunkSize
		if end > len(conditionIDs) {
			end = len(conditionIDs)
		}
		chunk := conditionIDs[start:end]

		params := url.Values{}
		params.Set("token_ids", strings.Join(chunk, ","))
		body, err := c.get(ctx, c.clobURL+"/midpoints?"+params.Encode())
		if err != nil {
			log.Error().Err(err).Int("chunk", start/midpointChunkSize).Msg("Midpoint fetch failed")
			continue
		}

		var raw map[string]string
		if err := json.Unmarshal(body, &raw); err != nil {
			log.Error().Err(err).Msg("Midpoint response not a map, skipping chunk")
			continue
		}

		for conditionID, priceStr := range raw {
			price, err := strconv.ParseFloat(priceStr, 64)
			if err != nil {
				log.Debug().Str("condition", conditionID).Str("raw", priceStr).Msg("Unparsable price")
				continue
			}
			prices[conditionID] = price
		}
	}

	log.Info().Int("markets", len(prices)).Msg("💹 Market prices resolved")
	return prices, nil
}

// ConditionIDs collects every market's condition id across events.
func ConditionIDs(events []types.Event) []string {
	ids := make([]string, 0)
	for _, event := range events {
		for _, market := range event.Markets {
			if market.ConditionID != "" {
				ids = append(ids, market.ConditionID)
			}
		}
	}
	return ids
}
