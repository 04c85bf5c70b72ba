// Package risk provides the session-scoped bet guard.
//
// This is the GATEKEEPER - no order reaches the trader without approval.
package risk

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Rejection reasons returned by Approve.
const (
	ReasonOK             = "ok"
	ReasonDuplicate      = "duplicate"
	ReasonBudgetExceeded = "budget_exceeded"
)

// Manager enforces per-session betting constraints:
//   - hard budget cap for the whole session
//   - fixed stake per bet
//   - duplicate guard: at most one bet per token in one session
//
// One instance is created per game session by the scheduler and discarded
// when the session ends. It is never shared across sessions, so the
// counters always describe exactly one match.
type Manager struct {
	mu sync.Mutex

	maxBudget decimal.Decimal
	stake     decimal.Decimal
	spent     decimal.Decimal
	placed    map[string]struct{}
}

// NewManager creates a fresh session guard.
func NewManager(maxBudget, stakePerBet decimal.Decimal) *Manager {
	return &Manager{
		maxBudget: maxBudget,
		stake:     stakePerBet,
		spent:     decimal.Zero,
		placed:    make(map[string]struct{}),
	}
}

// Approve checks whether a bet on tokenID is permitted. It has no side
// effect and reserves nothing: only RecordBet advances the session state.
func (m *Manager) Approve(tokenID string) (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.placed[tokenID]; dup {
		return false, ReasonDuplicate
	}
	if m.spent.Add(m.stake).GreaterThan(m.maxBudget) {
		return false, ReasonBudgetExceeded
	}
	return true, ReasonOK
}

// RecordBet updates session state after a confirmed successful order.
// Not idempotent: the caller must guarantee at-most-once invocation per
// successful order, or the spend double-counts.
func (m *Manager) RecordBet(tokenID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.placed[tokenID] = struct{}{}
	m.spent = m.spent.Add(m.stake)

	log.Info().
		Str("spent", m.spent.StringFixed(2)).
		Str("budget", m.maxBudget.StringFixed(2)).
		Msg("💰 Bet recorded")
}

// Spent returns the total staked this session.
func (m *Manager) Spent() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spent
}

// Remaining returns the budget left this session.
func (m *Manager) Remaining() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxBudget.Sub(m.spent)
}

// BetsPlaced returns how many distinct tokens were bet this session.
func (m *Manager) BetsPlaced() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.placed)
}
