package scanner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minutebid/minutebid/types"
)

func testPolicy() Policy {
	return Policy{
		Window: WindowPolicy{
			MinMinute:         75,
			MaxMinute:         120,
			RequireSecondHalf: true,
		},
		WinProbThreshold:    0.80,
		MaxWinProbThreshold: 0.97,
		Matcher:             testMatcher(),
	}
}

func liveEvent() types.Event {
	return types.Event{
		ID:        "1",
		Title:     "Liverpool vs Everton",
		Slug:      "liv-eve",
		StartTime: "2026-02-28T15:00:00Z",
		Markets: []types.Market{
			{ConditionID: "c1", Question: "Will Liverpool win?", ClobTokenIDs: []string{"tok1"}},
		},
	}
}

func TestFilterOpportunities_NoReferenceData(t *testing.T) {
	states := types.GameStateMap{
		"1": {Minute: 80, Period: "2H", HomeScore: 1, AwayScore: 0},
	}

	opps := FilterOpportunities(testPolicy(), []types.Event{liveEvent()},
		types.PriceMap{"c1": 0.9}, states, types.ReferenceOddsTable{}, time.Now())

	require.Len(t, opps, 1)
	opp := opps[0]
	assert.Equal(t, "Liverpool vs Everton", opp.Match)
	assert.Equal(t, 80, opp.Minute)
	assert.Equal(t, "1-0", opp.Score)
	assert.Equal(t, "Will Liverpool win?", opp.Outcome)
	assert.Equal(t, 0.9, opp.PolyProb)
	assert.Nil(t, opp.ReferenceProb)
	assert.Nil(t, opp.Edge)
	assert.Equal(t, "https://polymarket.com/event/liv-eve", opp.MarketURL)
	assert.Equal(t, "tok1", opp.TokenID)
}

func TestFilterOpportunities_EdgeComputation(t *testing.T) {
	states := types.GameStateMap{"1": {Minute: 82, Period: "2H"}}
	ref := merseyDerby() // liverpool at 0.8

	opps := FilterOpportunities(testPolicy(), []types.Event{liveEvent()},
		types.PriceMap{"c1": 0.85}, states, ref, time.Now())

	require.Len(t, opps, 1)
	require.NotNil(t, opps[0].ReferenceProb)
	require.NotNil(t, opps[0].Edge)
	assert.Equal(t, 0.8, *opps[0].ReferenceProb)
	// Negative edges are reported, not suppressed.
	assert.Equal(t, -0.05, *opps[0].Edge)
}

func TestFilterOpportunities_ProbabilityBounds(t *testing.T) {
	states := types.GameStateMap{"1": {Minute: 80, Period: "2H"}}

	cases := []struct {
		prob float64
		want int
	}{
		{0.79, 0},
		{0.80, 0}, // exactly at the threshold is excluded
		{0.81, 1},
		{0.96, 1},
		{0.97, 0}, // CLOB suspends trading near resolution
		{0.99, 0},
	}
	for _, tc := range cases {
		opps := FilterOpportunities(testPolicy(), []types.Event{liveEvent()},
			types.PriceMap{"c1": tc.prob}, states, nil, time.Now())
		assert.Len(t, opps, tc.want, "prob=%v", tc.prob)
	}
}

func TestFilterOpportunities_UpperBoundDisabled(t *testing.T) {
	p := testPolicy()
	p.MaxWinProbThreshold = 0
	states := types.GameStateMap{"1": {Minute: 80, Period: "2H"}}

	opps := FilterOpportunities(p, []types.Event{liveEvent()},
		types.PriceMap{"c1": 0.99}, states, nil, time.Now())
	assert.Len(t, opps, 1)
}

func TestFilterOpportunities_OutOfWindowSkipped(t *testing.T) {
	cases := []types.GameState{
		{Minute: 60, Period: "2H"}, // too early
		{Minute: 121, Period: "2H"},
		{Minute: 80, Period: "1H"}, // wrong half
	}
	for _, state := range cases {
		opps := FilterOpportunities(testPolicy(), []types.Event{liveEvent()},
			types.PriceMap{"c1": 0.9}, types.GameStateMap{"1": state}, nil, time.Now())
		assert.Empty(t, opps, "state=%+v", state)
	}
}

func TestFilterOpportunities_EstimatedMinuteFallback(t *testing.T) {
	p := testPolicy()
	p.Window.AllowEstimatedMinute = true

	now := time.Date(2026, 2, 28, 16, 20, 0, 0, time.UTC) // kickoff + 80m

	opps := FilterOpportunities(p, []types.Event{liveEvent()},
		types.PriceMap{"c1": 0.9}, types.GameStateMap{}, nil, now)
	require.Len(t, opps, 1)
	assert.Equal(t, 80, opps[0].Minute)
	assert.Empty(t, opps[0].Score)

	// Estimation disabled: an untracked event is skipped entirely.
	p.Window.AllowEstimatedMinute = false
	opps = FilterOpportunities(p, []types.Event{liveEvent()},
		types.PriceMap{"c1": 0.9}, types.GameStateMap{}, nil, now)
	assert.Empty(t, opps)
}

func TestFilterOpportunities_PreservesEventOrder(t *testing.T) {
	first := liveEvent()
	second := liveEvent()
	second.ID = "2"
	second.Title = "Arsenal vs Chelsea"
	second.Markets = []types.Market{{ConditionID: "c2", Question: "Will Arsenal win?"}}

	states := types.GameStateMap{
		"1": {Minute: 80, Period: "2H"},
		"2": {Minute: 85, Period: "2H"},
	}
	prices := types.PriceMap{"c1": 0.85, "c2": 0.92}

	opps := FilterOpportunities(testPolicy(), []types.Event{first, second},
		prices, states, nil, time.Now())

	require.Len(t, opps, 2)
	assert.Equal(t, "Liverpool vs Everton", opps[0].Match)
	assert.Equal(t, "Arsenal vs Chelsea", opps[1].Match)
}

func TestFilterOpportunities_UnparsableKickoffSkipsOneEvent(t *testing.T) {
	p := testPolicy()
	p.Window.AllowEstimatedMinute = true

	broken := liveEvent()
	broken.StartTime = "not-a-timestamp"
	healthy := liveEvent()
	healthy.ID = "2"
	healthy.Markets = []types.Market{{ConditionID: "c2", Question: "X"}}

	now := time.Date(2026, 2, 28, 16, 20, 0, 0, time.UTC)
	opps := FilterOpportunities(p, []types.Event{broken, healthy},
		types.PriceMap{"c1": 0.9, "c2": 0.9}, types.GameStateMap{}, nil, now)

	require.Len(t, opps, 1)
	assert.Equal(t, "X", opps[0].Outcome)
}
