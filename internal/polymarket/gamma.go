// Package polymarket provides the Polymarket data clients: Gamma events,
// CLOB midpoint prices and the live sports feed. Fetch only - no filtering
// logic lives here.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/minutebid/minutebid/internal/config"
	"github.com/minutebid/minutebid/types"
)

// Client talks to the Gamma and CLOB REST APIs. Public endpoints, no auth.
type Client struct {
	gammaURL   string
	clobURL    string
	seriesIDs  map[string]string
	tagSlugs   map[string]string
	httpClient *http.Client
}

// NewClient builds a client from configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		gammaURL:  cfg.GammaAPIURL,
		clobURL:   cfg.CLOBAPIURL,
		seriesIDs: cfg.LeagueSeriesIDs,
		tagSlugs:  cfg.LeagueTagSlugs,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

// gammaEvent is the wire shape of a Gamma event. clobTokenIds arrives as
// a JSON-encoded string array, so markets need a custom decode step.
type gammaEvent struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Slug      string        `json:"slug"`
	StartTime string        `json:"startTime"`
	Markets   []gammaMarket `json:"markets"`
}

type gammaMarket struct {
	ConditionID  string          `json:"conditionId"`
	Question     string          `json:"question"`
	ClobTokenIDs json.RawMessage `json:"clobTokenIds"`
}

// ActiveSoccerEvents fetches all active soccer events across the
// configured leagues, deduplicated by event id. A failed league fetch
// drops only that league's events for this tick.
func (c *Client) ActiveSoccerEvents(ctx context.Context) ([]types.Event, error) {
	all := make([]types.Event, 0)
	seen := make(map[string]struct{})

	add := func(events []gammaEvent) {
		for _, ge := range events {
			if _, dup := seen[ge.ID]; dup {
				continue
			}
			seen[ge.ID] = struct{}{}
			all = append(all, convertEvent(ge))
		}
	}

	for league, seriesID := range c.seriesIDs {
		params := url.Values{}
		params.Set("series_id", seriesID)
		params.Set("active", "true")
		params.Set("closed", "false")
		events, err := c.fetchEvents(ctx, params)
		if err != nil {
			log.Error().Str("league", league).Err(err).Msg("Gamma fetch failed")
			continue
		}
		add(events)
	}

	for league, tagSlug := range c.tagSlugs {
		params := url.Values{}
		params.Set("tag_slug", tagSlug)
		params.Set("active", "true")
		params.Set("closed", "false")
		events, err := c.fetchEvents(ctx, params)
		if err != nil {
			log.Error().Str("league", league).Err(err).Msg("Gamma fetch failed")
			continue
		}
		add(events)
	}

	log.Info().Int("events", len(all)).Msg("⚽ Active soccer events fetched")
	return all, nil
}

// UpcomingMatches implements the scheduler's ScheduleFetcher.
func (c *Client) UpcomingMatches(ctx context.Context) ([]types.Event, error) {
	return c.ActiveSoccerEvents(ctx)
}

func (c *Client) fetchEvents(ctx context.Context, params url.Values) ([]gammaEvent, error) {
	body, err := c.get(ctx, c.gammaURL+"/events?"+params.Encode())
	if err != nil {
		return nil, err
	}
	var events []gammaEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("parse events: %w", err)
	}
	return events, nil
}

func convertEvent(ge gammaEvent) types.Event {
	event := types.Event{
		ID:        ge.ID,
		Title:     ge.Title,
		Slug:      ge.Slug,
		StartTime: ge.StartTime,
		Markets:   make([]types.Market, 0, len(ge.Markets)),
	}
	for _, gm := range ge.Markets {
		event.Markets = append(event.Markets, types.Market{
			ConditionID:  gm.ConditionID,
			Question:     gm.Question,
			ClobTokenIDs: decodeTokenIDs(gm.ClobTokenIDs),
		})
	}
	return event
}

// decodeTokenIDs accepts both the documented array form and Gamma's
// string-encoded array form. A malformed field yields no tokens, which
// downgrades the market to alert-only.
func decodeTokenIDs(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err == nil {
		return ids
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(encoded), &ids); err != nil {
		return nil
	}
	return ids
}

func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
