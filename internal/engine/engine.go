// Package engine wires one scan-and-execute cycle: fetch, filter, alert,
// then place approved bets. The scheduler drives it once per slow pulse
// while a match session is active.
package engine

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/minutebid/minutebid/internal/bot"
	"github.com/minutebid/minutebid/internal/config"
	"github.com/minutebid/minutebid/internal/database"
	"github.com/minutebid/minutebid/internal/display"
	"github.com/minutebid/minutebid/internal/oddsapi"
	"github.com/minutebid/minutebid/internal/polymarket"
	"github.com/minutebid/minutebid/internal/risk"
	"github.com/minutebid/minutebid/internal/scanner"
	"github.com/minutebid/minutebid/internal/trader"
	"github.com/minutebid/minutebid/types"
)

// Engine performs one full scan across all active soccer events and
// routes qualifying opportunities through the risk gate to the trader.
type Engine struct {
	cfg      *config.Config
	policy   scanner.Policy
	market   *polymarket.Client
	sports   *polymarket.SportsFeed
	odds     *oddsapi.Client
	trader   *trader.Client
	notifier *bot.Notifier
	journal  *database.Database

	bettingEnabled bool
}

// New assembles an engine. The journal may be nil (no persistence) and
// betting silently downgrades to alert-only when the trader lacks
// credentials and is not in dry-run mode.
func New(
	cfg *config.Config,
	market *polymarket.Client,
	sports *polymarket.SportsFeed,
	odds *oddsapi.Client,
	trd *trader.Client,
	notifier *bot.Notifier,
	journal *database.Database,
) *Engine {
	bettingEnabled := trd != nil && (trd.IsDryRun() || trd.HasCredentials())
	if !bettingEnabled {
		log.Warn().Msg("CLOB credentials missing, running in alert-only mode")
	}

	return &Engine{
		cfg:            cfg,
		policy:         scanner.PolicyFromConfig(cfg),
		market:         market,
		sports:         sports,
		odds:           odds,
		trader:         trd,
		notifier:       notifier,
		journal:        journal,
		bettingEnabled: bettingEnabled,
	}
}

// RunScan performs one scan-and-execute cycle. Partial input failures
// are tolerated: a missing feed just degrades the scan (no game clocks,
// no reference edges), it never aborts the cycle.
func (e *Engine) RunScan(ctx context.Context, gate *risk.Manager) error {
	log.Info().Msg("--- Starting scan iteration ---")

	events, err := e.market.ActiveSoccerEvents(ctx)
	if err != nil {
		return fmt.Errorf("fetch events: %w", err)
	}
	if len(events) == 0 {
		log.Info().Msg("No active soccer events right now")
		return nil
	}

	prices, err := e.market.MarketPrices(ctx, polymarket.ConditionIDs(events))
	if err != nil {
		return fmt.Errorf("fetch prices: %w", err)
	}

	states := e.sports.LiveGameStates(ctx)
	ref := e.odds.LiveReferencePrices(ctx)

	opportunities := scanner.FilterOpportunities(e.policy, events, prices, states, ref, time.Now().UTC())
	display.Render(os.Stdout, opportunities)

	for _, opp := range opportunities {
		e.notifier.OpportunityAlert(opp)
	}

	if e.bettingEnabled {
		e.executeBets(gate, opportunities)
	}
	return nil
}

// executeBets runs each opportunity through the risk gate and places at
// most one FOK order per approved token. RecordBet only happens after a
// confirmed order, so a failed submission stays eligible for retry on a
// later tick.
func (e *Engine) executeBets(gate *risk.Manager, opportunities []types.Opportunity) {
	for _, opp := range opportunities {
		if opp.TokenID == "" {
			log.Debug().Str("match", opp.Match).Msg("No token id, skipping execution")
			continue
		}

		approved, reason := gate.Approve(opp.TokenID)
		if !approved {
			log.Debug().
				Str("match", opp.Match).
				Str("outcome", opp.Outcome).
				Str("reason", reason).
				Msg("🚫 Bet rejected by risk gate")
			continue
		}

		result, err := e.trader.PlaceMarketOrder(opp.TokenID, e.cfg.BetStakeUSD)
		if err != nil {
			// Budget and dedup state stay untouched: the bet remains
			// eligible on the next pulse.
			log.Error().Err(err).Str("match", opp.Match).Msg("Order failed")
			e.notifier.Status(fmt.Sprintf("Order failed for %s: %v", opp.Match, err))
			continue
		}

		gate.RecordBet(opp.TokenID)
		e.notifier.OrderConfirmation(opp, result.OrderID, e.cfg.BetStakeUSD)
		e.journalBet(opp, result)
	}
}

func (e *Engine) journalBet(opp types.Opportunity, result trader.OrderResult) {
	if e.journal == nil {
		return
	}
	status := result.Status
	if e.trader.IsDryRun() {
		status = "dry_run"
	}
	bet := &database.Bet{
		TokenID:    opp.TokenID,
		OrderID:    result.OrderID,
		MatchTitle: opp.Match,
		Outcome:    opp.Outcome,
		Minute:     opp.Minute,
		PolyProb:   opp.PolyProb,
		Edge:       opp.Edge,
		Stake:      e.cfg.BetStakeUSD,
		Status:     status,
	}
	if err := e.journal.SaveBet(bet); err != nil {
		log.Error().Err(err).Msg("Journal write failed")
	}
}
