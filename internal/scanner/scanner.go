// Package scanner holds the pure opportunity-detection pipeline: the
// late-game window filter, the leading-outcome selector, the cross-source
// fuzzy matcher and the edge computation. No I/O happens here - callers
// hand in already-fetched events, prices, game states and reference odds.
package scanner

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/minutebid/minutebid/internal/config"
	"github.com/minutebid/minutebid/types"
)

// Policy bundles the filter configuration for one scan.
type Policy struct {
	Window              WindowPolicy
	WinProbThreshold    float64 // leader must strictly exceed this
	MaxWinProbThreshold float64 // skip leaders at or above; 0 disables
	Matcher             Matcher
}

// PolicyFromConfig builds the scan policy from loaded configuration.
func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{
		Window: WindowPolicy{
			MinMinute:            cfg.MinMinute,
			MaxMinute:            cfg.MaxMinute,
			RequireSecondHalf:    cfg.RequireSecondHalf,
			AllowEstimatedMinute: cfg.AllowEstimatedMinute,
		},
		WinProbThreshold:    cfg.WinProbThreshold,
		MaxWinProbThreshold: cfg.MaxWinProbThreshold,
		Matcher: Matcher{
			EventConfidence:   cfg.EventMatchConfidence,
			OutcomeConfidence: cfg.OutcomeMatchConfidence,
		},
	}
}

// FilterOpportunities returns the markets where Polymarket already implies
// a near-decided match inside the monitoring window, in input event order.
// A missing reference match yields nil ReferenceProb/Edge, not a skip.
// now is only consulted when a minute has to be estimated from kickoff.
func FilterOpportunities(
	p Policy,
	events []types.Event,
	prices types.PriceMap,
	states types.GameStateMap,
	ref types.ReferenceOddsTable,
	now time.Time,
) []types.Opportunity {
	opportunities := make([]types.Opportunity, 0)

	for _, event := range events {
		minute, period, score, ok := resolveClock(p.Window, event, states, now)
		if !ok {
			continue
		}
		if !p.Window.InWindow(minute, period) {
			continue
		}

		leader, ok := SelectLeader(event, prices)
		if !ok {
			continue
		}
		if leader.Probability <= p.WinProbThreshold {
			continue
		}
		if p.MaxWinProbThreshold > 0 && leader.Probability >= p.MaxWinProbThreshold {
			// CLOB suspends trading on near-resolved markets.
			continue
		}

		opp := types.Opportunity{
			Match:     event.Title,
			Minute:    minute,
			Score:     score,
			Outcome:   leader.Outcome,
			PolyProb:  leader.Probability,
			MarketURL: marketURL(event),
			TokenID:   leader.TokenID,
		}

		if refProb, matched := p.Matcher.LookupReferenceProb(event.Title, leader.Outcome, ref); matched {
			edge := round4(refProb - leader.Probability)
			opp.ReferenceProb = &refProb
			opp.Edge = &edge
		}

		opportunities = append(opportunities, opp)
	}

	log.Info().Int("count", len(opportunities)).Msg("Scan complete")
	return opportunities
}

// resolveClock picks the live game clock when one is tracked, otherwise
// estimates the minute from kickoff if the policy allows it.
func resolveClock(w WindowPolicy, event types.Event, states types.GameStateMap, now time.Time) (minute int, period, score string, ok bool) {
	if state, tracked := states[event.ID]; tracked {
		return state.Minute, state.Period, state.Score(), true
	}
	if !w.AllowEstimatedMinute {
		return 0, "", "", false
	}
	minute, ok = EstimateMinute(event.StartTime, now)
	return minute, "", "", ok
}

func marketURL(event types.Event) string {
	slug := event.Slug
	if slug == "" {
		slug = event.ID
	}
	return "https://polymarket.com/event/" + slug
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
