package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all configuration for the bot
type Config struct {
	// Telegram
	TelegramToken  string
	TelegramChatID int64

	// Mode
	DryRun bool
	Debug  bool

	// Polymarket API
	GammaAPIURL string
	CLOBAPIURL  string
	SportsWSURL string

	// Soccer discovery - high-liquidity leagues with stable Gamma ids
	LeagueSeriesIDs map[string]string
	LeagueTagSlugs  map[string]string

	// Scan filter thresholds
	MinMinute            int     // only consider matches at or after this minute
	MaxMinute            int     // covers 90 + extra time
	WinProbThreshold     float64 // leader must strictly exceed this
	MaxWinProbThreshold  float64 // CLOB suspends trading above this; 0 disables
	RequireSecondHalf    bool    // demand a second-half period label when present
	AllowEstimatedMinute bool    // fall back to kickoff-based minute estimation

	// Cross-source matching confidence (0-100 fuzzy ratio scale).
	// Empirically chosen in production; treat as tunables, not constants.
	EventMatchConfidence   int
	OutcomeMatchConfidence int

	// Scheduler
	MaxScheduleHours       int
	ScanIntervalSlow       time.Duration
	WakeupDelayMinutes     int
	SessionDurationMinutes int

	// Betting
	MaxBetBudgetUSD decimal.Decimal // hard cap per game session
	BetStakeUSD     decimal.Decimal // fixed stake per bet

	// The Odds API (reference prices)
	OddsAPIKey     string
	OddsAPIBaseURL string
	OddsAPISport   string
	OddsAPIRegions string

	// CLOB credentials
	CLOBApiKey       string
	CLOBApiSecret    string
	CLOBPassphrase   string
	WalletPrivateKey string

	// Network
	RequestTimeout time.Duration
	WSReadTimeout  time.Duration
	WSMaxMessages  int

	// Database
	DatabasePath string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),

		DryRun: getEnvBool("DRY_RUN", true),
		Debug:  getEnvBool("DEBUG", false),

		GammaAPIURL: getEnv("GAMMA_API_URL", "https://gamma-api.polymarket.com"),
		CLOBAPIURL:  getEnv("CLOB_API_URL", "https://clob.polymarket.com"),
		SportsWSURL: getEnv("SPORTS_WS_URL", "wss://sports-api.polymarket.com/ws"),

		LeagueSeriesIDs: map[string]string{
			"premier_league": "10188",
			"la_liga":        "10193",
			"serie_a":        "10203",
		},
		LeagueTagSlugs: map[string]string{
			"bundesliga":       "bundesliga",
			"champions_league": "ucl",
			"europa_league":    "uel",
		},

		MinMinute:            getEnvInt("MIN_MINUTE", 75),
		MaxMinute:            getEnvInt("MAX_MINUTE", 120),
		WinProbThreshold:     getEnvFloat("WIN_PROB_THRESHOLD", 0.80),
		MaxWinProbThreshold:  getEnvFloat("MAX_WIN_PROB_THRESHOLD", 0.97),
		RequireSecondHalf:    getEnvBool("REQUIRE_SECOND_HALF", true),
		AllowEstimatedMinute: getEnvBool("ALLOW_ESTIMATED_MINUTE", true),

		EventMatchConfidence:   getEnvInt("EVENT_MATCH_CONFIDENCE", 80),
		OutcomeMatchConfidence: getEnvInt("OUTCOME_MATCH_CONFIDENCE", 70),

		MaxScheduleHours:       getEnvInt("MAX_SCHEDULE_HOURS", 48),
		ScanIntervalSlow:       getEnvDuration("SCAN_INTERVAL_SLOW_SEC", 120),
		WakeupDelayMinutes:     getEnvInt("WAKEUP_DELAY_MINUTES", 95),
		SessionDurationMinutes: getEnvInt("SESSION_DURATION_MINUTES", 30),

		MaxBetBudgetUSD: getEnvDecimal("MAX_BET_BUDGET_USD", "5.0"),
		BetStakeUSD:     getEnvDecimal("BET_STAKE_USD", "1.0"),

		OddsAPIKey:     os.Getenv("ODDS_API_KEY"),
		OddsAPIBaseURL: getEnv("ODDS_API_BASE_URL", "https://api.the-odds-api.com/v4"),
		OddsAPISport:   getEnv("ODDS_API_SPORT", "soccer"),
		OddsAPIRegions: getEnv("ODDS_API_REGIONS", "eu,uk"),

		CLOBApiKey:       os.Getenv("CLOB_API_KEY"),
		CLOBApiSecret:    os.Getenv("CLOB_API_SECRET"),
		CLOBPassphrase:   os.Getenv("CLOB_PASSPHRASE"),
		WalletPrivateKey: os.Getenv("ETH_PRIVATE_KEY"),

		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT_SEC", 10),
		WSReadTimeout:  getEnvDuration("WS_READ_TIMEOUT_SEC", 8),
		WSMaxMessages:  getEnvInt("WS_MAX_MESSAGES", 50),

		DatabasePath: getEnv("DATABASE_PATH", "minutebid.db"),
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	if cfg.MinMinute < 0 || cfg.MinMinute > cfg.MaxMinute {
		return nil, fmt.Errorf("invalid minute window: [%d, %d]", cfg.MinMinute, cfg.MaxMinute)
	}
	if cfg.BetStakeUSD.GreaterThan(cfg.MaxBetBudgetUSD) {
		return nil, fmt.Errorf("BET_STAKE_USD %s exceeds MAX_BET_BUDGET_USD %s",
			cfg.BetStakeUSD, cfg.MaxBetBudgetUSD)
	}

	return cfg, nil
}

// HasCLOBCredentials reports whether automatic betting can be attempted.
// Without credentials the bot runs in alert-only mode.
func (c *Config) HasCLOBCredentials() bool {
	return c.WalletPrivateKey != "" && c.CLOBApiKey != "" &&
		c.CLOBApiSecret != "" && c.CLOBPassphrase != ""
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}

func getEnvDecimal(key, defaultValue string) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		d, err := decimal.NewFromString(value)
		if err == nil {
			return d
		}
	}
	d, _ := decimal.NewFromString(defaultValue)
	return d
}
