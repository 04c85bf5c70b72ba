package types

import (
	"fmt"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SHARED TYPES - Avoid import cycles
// ═══════════════════════════════════════════════════════════════════════════════

// Event is one soccer match on the Gamma API, with its outcome markets.
// Re-fetched on every scan tick; never mutated in place.
type Event struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Slug      string   `json:"slug"`
	StartTime string   `json:"startTime"` // ISO-8601, 'Z' or offset
	Markets   []Market `json:"markets"`
}

// Market is a single tradable outcome under an event ("Will X win?").
// Prices live in a separate PriceMap keyed by ConditionID.
type Market struct {
	ConditionID  string   `json:"conditionId"`
	Question     string   `json:"question"`
	ClobTokenIDs []string `json:"clobTokenIds"` // [0] is the YES side
}

// PriceMap maps conditionId -> implied probability in [0,1].
type PriceMap map[string]float64

// GameState is a live clock snapshot for one event. Absence from
// GameStateMap means the event is not actively tracked.
type GameState struct {
	Minute    int    // can exceed 90 in extra time
	Period    string // e.g. "2H", "HT", "FT"
	HomeScore int
	AwayScore int
}

// Score renders "1-0" for display and alerts.
func (g GameState) Score() string {
	return fmt.Sprintf("%d-%d", g.HomeScore, g.AwayScore)
}

// GameStateMap maps event id -> live game state.
type GameStateMap map[string]GameState

// ReferenceOddsTable maps a free-text event name ("home v away") to
// outcome name -> normalized probability. Keys come from an independent
// odds source, so joining against Gamma events is by fuzzy text match,
// not identifier equality.
type ReferenceOddsTable map[string]map[string]float64

// Opportunity is one qualifying market found by a scan. Ephemeral:
// rebuilt every tick, never persisted.
type Opportunity struct {
	Match         string   // event title
	Minute        int      // live or estimated game minute
	Score         string   // "1-0", empty when no game state
	Outcome       string   // leading outcome label
	PolyProb      float64  // Polymarket implied probability
	ReferenceProb *float64 // nil when no cross-source match
	Edge          *float64 // reference - poly, nil when unmatched
	MarketURL     string
	TokenID       string // CLOB token id for the YES side, empty if unknown
}

// ScheduledRun is one upcoming match's computed scanning window.
type ScheduledRun struct {
	Title      string
	Kickoff    time.Time
	WakeupTime time.Time // kickoff + wakeup delay
	EndTime    time.Time // wakeup + session duration
}
