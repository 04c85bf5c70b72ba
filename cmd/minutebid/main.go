// Minutebid - late-game soccer sniper for Polymarket
//
// Watches live soccer matches in the 75-90+ minute window, surfaces
// markets where Polymarket already implies a near-decided outcome,
// cross-checks the price against independent bookmaker odds, and - when
// credentials allow - places one bounded bet per market while alerting
// the operator on Telegram.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	"github.com/minutebid/minutebid/internal/scheduler"
	"github.com/minutebid/minutebid/internal/trader"
	"github.com/minutebid/minutebid/types"
)

const version = "1.2.0"

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

	log.Info().
		Str("version", version).
		Bool("dry_run", cfg.DryRun).
		Int("min_minute", cfg.MinMinute).
		Int("max_minute", cfg.MaxMinute).
		Float64("win_prob", cfg.WinProbThreshold).
		Msg("⚽ Minutebid starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The journal is best-effort: a broken database means no history,
	// not a dead bot.
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

	sched := scheduler.New(scheduler.Config{
		WakeupDelay:       time.Duration(cfg.WakeupDelayMinutes) * time.Minute,
		SessionDuration:   time.Duration(cfg.SessionDurationMinutes) * time.Minute,
		ScheduleHorizon:   time.Duration(cfg.MaxScheduleHours) * time.Hour,
		ScanInterval:      cfg.ScanIntervalSlow,
		DiscoveryInterval: time.Hour,
		MaxNap:            time.Hour,
		NewGate: func() *risk.Manager {
			return risk.NewManager(cfg.MaxBetBudgetUSD, cfg.BetStakeUSD)
		},
		OnSessionEnd: func(run types.ScheduledRun, gate *risk.Manager) {
			if journal == nil {
				return
			}
			err := journal.SaveSession(&database.Session{
				MatchTitle: run.Title,
				Kickoff:    run.Kickoff,
				WakeupTime: run.WakeupTime,
				EndTime:    run.EndTime,
				BetsPlaced: gate.BetsPlaced(),
				Spent:      gate.Spent(),
			})
			if err != nil {
				log.Error().Err(err).Msg("Session journal write failed")
			}
		},
	}, market, eng, notifier)

	// Graceful shutdown on SIGINT/SIGTERM: the scheduler stops at the
	// next sleep boundary, never mid-order.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("Shutting down...")
		cancel()
	}()

	if err := sched.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("Scheduler stopped")
	}
	log.Info().Msg("Minutebid stopped")
}
