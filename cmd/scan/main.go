// One-shot scan: run a single scan-and-execute cycle and exit. Useful
// for spot checks while a match is live without starting the scheduler.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/minutebid/minutebid/internal/bot"
	"github.com/minutebid/minutebid/internal/config"
	"github.com/minutebid/minutebid/internal/database"
	"github.com/minutebid/minutebid/internal/engine"
	"github.com/minutebid/minutebid/internal/oddsapi"
	"github.com/minutebid/minutebid/internal/polymarket"
	"github.com/minutebid/minutebid/internal/risk"
	"github.com/minutebid/minutebid/internal/trader"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	journal, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Warn().Err(err).Msg("Journal unavailable, continuing without persistence")
		journal = nil
	}

	notifier, err := bot.New(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect Telegram bot")
	}

	trd, err := trader.NewClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize execution client")
	}

	market := polymarket.NewClient(cfg)
	sports := polymarket.NewSportsFeed(cfg.SportsWSURL, cfg.WSReadTimeout, cfg.WSMaxMessages)
	odds := oddsapi.NewClient(cfg.OddsAPIBaseURL, cfg.OddsAPIKey, cfg.OddsAPISport, cfg.OddsAPIRegions, cfg.RequestTimeout)

	eng := engine.New(cfg, market, sports, odds, trd, notifier, journal)
	gate := risk.NewManager(cfg.MaxBetBudgetUSD, cfg.BetStakeUSD)

	if err := eng.RunScan(context.Background(), gate); err != nil {
		log.Fatal().Err(err).Msg("Scan failed")
	}
}
