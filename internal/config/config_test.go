package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.DryRun, "dry run is the default until explicitly disabled")
	assert.Equal(t, 75, cfg.MinMinute)
	assert.Equal(t, 120, cfg.MaxMinute)
	assert.Equal(t, 0.80, cfg.WinProbThreshold)
	assert.Equal(t, 0.97, cfg.MaxWinProbThreshold)
	assert.Equal(t, 80, cfg.EventMatchConfidence)
	assert.Equal(t, 70, cfg.OutcomeMatchConfidence)
	assert.Equal(t, 95, cfg.WakeupDelayMinutes)
	assert.Equal(t, 30, cfg.SessionDurationMinutes)
	assert.True(t, cfg.MaxBetBudgetUSD.Equal(decimal.RequireFromString("5.0")))
	assert.True(t, cfg.BetStakeUSD.Equal(decimal.RequireFromString("1.0")))
	assert.Contains(t, cfg.LeagueSeriesIDs, "premier_league")
	assert.False(t, cfg.HasCLOBCredentials())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MIN_MINUTE", "70")
	t.Setenv("WIN_PROB_THRESHOLD", "0.85")
	t.Setenv("BET_STAKE_USD", "2.50")
	t.Setenv("MAX_BET_BUDGET_USD", "10")
	t.Setenv("REQUIRE_SECOND_HALF", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 70, cfg.MinMinute)
	assert.Equal(t, 0.85, cfg.WinProbThreshold)
	assert.True(t, cfg.BetStakeUSD.Equal(decimal.RequireFromString("2.50")))
	assert.False(t, cfg.RequireSecondHalf)
}

func TestLoad_InvalidMinuteWindow(t *testing.T) {
	t.Setenv("MIN_MINUTE", "100")
	t.Setenv("MAX_MINUTE", "90")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_StakeExceedsBudget(t *testing.T) {
	t.Setenv("BET_STAKE_USD", "10")
	t.Setenv("MAX_BET_BUDGET_USD", "5")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidChatID(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}

func TestHasCLOBCredentials(t *testing.T) {
	t.Setenv("ETH_PRIVATE_KEY", "aa")
	t.Setenv("CLOB_API_KEY", "k")
	t.Setenv("CLOB_API_SECRET", "s")
	t.Setenv("CLOB_PASSPHRASE", "p")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.HasCLOBCredentials())
}

func TestGetEnvHelpers_BadValuesFallBack(t *testing.T) {
	t.Setenv("MIN_MINUTE", "seventy")
	t.Setenv("WIN_PROB_THRESHOLD", "high")
	t.Setenv("DRY_RUN", "maybe")
	t.Setenv("BET_STAKE_USD", "a dollar")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 75, cfg.MinMinute)
	assert.Equal(t, 0.80, cfg.WinProbThreshold)
	assert.True(t, cfg.DryRun)
	assert.True(t, cfg.BetStakeUSD.Equal(decimal.RequireFromString("1.0")))
}
