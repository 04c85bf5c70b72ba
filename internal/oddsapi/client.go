// Package oddsapi fetches live in-play soccer odds from The Odds API,
// used as the independent reference price when judging whether a
// Polymarket market is mispriced.
package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/minutebid/minutebid/types"
)

// Client talks to The Odds API. A missing API key is not an error: the
// bot then runs without reference prices and every edge stays nil.
type Client struct {
	baseURL    string
	apiKey     string
	sport      string
	regions    string
	httpClient *http.Client
}

// NewClient builds a client. apiKey may be empty (alert-only mode).
func NewClient(baseURL, apiKey, sport, regions string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		sport:      sport,
		regions:    regions,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Wire types for the /sports/{sport}/odds endpoint.
type oddsEvent struct {
	HomeTeam   string      `json:"home_team"`
	AwayTeam   string      `json:"away_team"`
	Bookmakers []bookmaker `json:"bookmakers"`
}

type bookmaker struct {
	Markets []h2hMarket `json:"markets"`
}

type h2hMarket struct {
	Key      string       `json:"key"`
	Outcomes []h2hOutcome `json:"outcomes"`
}

type h2hOutcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"` // decimal odds
}

// LiveReferencePrices fetches in-play h2h markets and returns normalized
// probabilities keyed by "home v away" (lowercased). Any failure returns
// an empty table - reference prices are advisory, never load-bearing.
func (c *Client) LiveReferencePrices(ctx context.Context) types.ReferenceOddsTable {
	if c.apiKey == "" {
		log.Warn().Msg("ODDS_API_KEY not set, running without reference prices")
		return types.ReferenceOddsTable{}
	}

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("regions", c.regions)
	params.Set("markets", "h2h")
	params.Set("oddsFormat", "decimal")
	params.Set("live", "true")

	endpoint := fmt.Sprintf("%s/sports/%s/odds/?%s", c.baseURL, c.sport, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		log.Error().Err(err).Msg("The Odds API request build failed")
		return types.ReferenceOddsTable{}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("The Odds API request failed")
		return types.ReferenceOddsTable{}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode >= 400 {
		log.Error().Int("status", resp.StatusCode).Msg("The Odds API error response")
		return types.ReferenceOddsTable{}
	}

	var events []oddsEvent
	if err := json.Unmarshal(body, &events); err != nil {
		log.Error().Err(err).Msg("The Odds API parse failed")
		return types.ReferenceOddsTable{}
	}

	table := processOddsData(events)
	log.Info().Int("events", len(table)).Msg("📊 Reference odds processed")
	return table
}

// processOddsData converts raw bookmaker odds into a normalized
// probability table: implied probs per bookmaker (1/decimal), averaged
// across bookmakers, then normalized so each event's outcomes sum to 1.
func processOddsData(events []oddsEvent) types.ReferenceOddsTable {
	table := make(types.ReferenceOddsTable)

	for _, event := range events {
		home := strings.ToLower(event.HomeTeam)
		away := strings.ToLower(event.AwayTeam)
		if home == "" || away == "" {
			continue
		}
		eventName := home + " v " + away

		perBookmaker := make([]map[string]float64, 0, len(event.Bookmakers))
		for _, bk := range event.Bookmakers {
			for _, market := range bk.Markets {
				if market.Key != "h2h" {
					continue
				}
				// Soccer h2h needs home/away at minimum.
				if len(market.Outcomes) < 2 {
					continue
				}
				implied := make(map[string]float64)
				for _, outcome := range market.Outcomes {
					if outcome.Price > 0 {
						implied[strings.ToLower(outcome.Name)] = 1.0 / outcome.Price
					}
				}
				if len(implied) > 0 {
					perBookmaker = append(perBookmaker, implied)
				}
			}
		}
		if len(perBookmaker) == 0 {
			continue
		}

		avg := averageProbs(perBookmaker)
		total := 0.0
		for _, p := range avg {
			total += p
		}
		if total <= 0 {
			continue
		}
		normalized := make(map[string]float64, len(avg))
		for name, p := range avg {
			normalized[name] = round4(p / total)
		}
		table[eventName] = normalized
	}

	return table
}

// averageProbs averages each outcome across the bookmakers quoting it.
func averageProbs(perBookmaker []map[string]float64) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, probs := range perBookmaker {
		for name, p := range probs {
			sums[name] += p
			counts[name]++
		}
	}
	avg := make(map[string]float64, len(sums))
	for name, sum := range sums {
		avg[name] = sum / float64(counts[name])
	}
	return avg
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
