// Package scheduler drives the wake/sleep lifecycle: it discovers upcoming
// matches, sleeps until a match enters its late-game window, then runs
// scan-and-execute cycles until the window closes. Quota on the upstream
// APIs is the scarce resource - the point of this machinery is to poll
// intensively only while a match is actually resolving.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/minutebid/minutebid/internal/risk"
	"github.com/minutebid/minutebid/types"
)

// State of the scheduling loop.
type State string

const (
	StateDiscovering State = "DISCOVERING" // no known runs or stale cache
	StateWaiting     State = "WAITING"     // runs known, none active
	StateActive      State = "ACTIVE"      // inside one run's wake/end window
)

// ScheduleFetcher supplies the upcoming match list. Implemented by the
// Gamma client; fetch errors surface as an empty schedule for this cycle.
type ScheduleFetcher interface {
	UpcomingMatches(ctx context.Context) ([]types.Event, error)
}

// ScanRunner performs one scan-and-execute cycle against the session's
// risk gate. Implemented by the engine.
type ScanRunner interface {
	RunScan(ctx context.Context, gate *risk.Manager) error
}

// Notifier receives operator status lines. Implemented by the Telegram
// notifier; a nil-safe no-op is fine for tests.
type Notifier interface {
	Status(text string)
}

// Config holds the scheduling timings.
type Config struct {
	WakeupDelay       time.Duration // kickoff + delay = session start
	SessionDuration   time.Duration // length of one scanning session
	ScheduleHorizon   time.Duration // ignore kickoffs farther out than this
	ScanInterval      time.Duration // slow pulse between scans in a session
	DiscoveryInterval time.Duration // re-fetch the schedule this often
	MaxNap            time.Duration // longest uninterrupted sleep
	NewGate           func() *risk.Manager

	// OnSessionEnd receives the finished run and its spent gate, for
	// journaling. Optional.
	OnSessionEnd func(run types.ScheduledRun, gate *risk.Manager)
}

// Scheduler owns the run cache and discovery timestamps. All state is
// touched only by the single Run loop; the clock is injected so the
// window arithmetic stays testable.
type Scheduler struct {
	cfg      Config
	fetcher  ScheduleFetcher
	runner   ScanRunner
	notifier Notifier
	now      func() time.Time

	runs           []types.ScheduledRun
	lastDiscovery  time.Time
	forceDiscovery bool
}

// New creates a scheduler with the real wall clock. A nil notifier is
// replaced with a no-op.
func New(cfg Config, fetcher ScheduleFetcher, runner ScanRunner, notifier Notifier) *Scheduler {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Scheduler{
		cfg:            cfg,
		fetcher:        fetcher,
		runner:         runner,
		notifier:       notifier,
		now:            time.Now,
		forceDiscovery: true,
	}
}

// SetClock overrides the wall clock (tests only).
func (s *Scheduler) SetClock(now func() time.Time) { s.now = now }

// ComputeRuns turns raw schedule events into sorted scanning windows.
// Entries past their end time or with kickoffs beyond the horizon are
// dropped; unparsable kickoffs skip the single offending record.
func ComputeRuns(events []types.Event, now time.Time, cfg Config) []types.ScheduledRun {
	runs := make([]types.ScheduledRun, 0, len(events))
	for _, event := range events {
		if event.StartTime == "" {
			continue
		}
		kickoff, err := time.Parse(time.RFC3339, event.StartTime)
		if err != nil {
			log.Error().Str("title", event.Title).Err(err).Msg("Unparsable kickoff, skipping")
			continue
		}
		wakeup := kickoff.Add(cfg.WakeupDelay)
		end := wakeup.Add(cfg.SessionDuration)

		if now.After(end) {
			continue
		}
		if cfg.ScheduleHorizon > 0 && kickoff.After(now.Add(cfg.ScheduleHorizon)) {
			continue
		}

		runs = append(runs, types.ScheduledRun{
			Title:      event.Title,
			Kickoff:    kickoff,
			WakeupTime: wakeup,
			EndTime:    end,
		})
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].WakeupTime.Before(runs[j].WakeupTime) })
	return runs
}

// NextState classifies "now" against the cached runs. At most one run is
// serviced at a time: when two windows overlap the earliest-starting one
// wins, an accepted limitation of the single-session design.
func NextState(runs []types.ScheduledRun, now time.Time) (State, *types.ScheduledRun) {
	if len(runs) == 0 {
		return StateDiscovering, nil
	}
	next := runs[0]
	if !now.Before(next.WakeupTime) && !now.After(next.EndTime) {
		return StateActive, &next
	}
	return StateWaiting, &next
}

// Run executes the scheduling loop until the context is cancelled.
// No single-cycle failure is fatal: fetch errors leave the cache empty
// and scan errors are logged and retried on the next pulse.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Info().Msg("🕰 Smart scheduler started")
	s.notifier.Status("Smart scheduler started 🚀")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if s.discoveryDue() {
			s.discover(ctx)
		}

		state, next := NextState(s.runs, s.now())
		switch state {
		case StateActive:
			s.runSession(ctx, *next)
			// A just-finished match must drop out promptly and newly
			// listed matches get picked up.
			s.forceDiscovery = true

		case StateWaiting:
			wait := next.WakeupTime.Sub(s.now())
			log.Info().
				Str("title", next.Title).
				Time("kickoff", next.Kickoff).
				Time("wakeup", next.WakeupTime).
				Dur("wait", wait).
				Msg("💤 Waiting for next match window")
			if !sleepCtx(ctx, minDuration(wait, s.cfg.MaxNap)) {
				return ctx.Err()
			}

		case StateDiscovering:
			log.Info().Msg("No matches scheduled, napping before re-discovery")
			if !sleepCtx(ctx, s.cfg.MaxNap) {
				return ctx.Err()
			}
			s.forceDiscovery = true
		}
	}
}

// discoveryDue reports whether the schedule cache is stale.
func (s *Scheduler) discoveryDue() bool {
	if s.forceDiscovery {
		return true
	}
	return s.now().Sub(s.lastDiscovery) >= s.cfg.DiscoveryInterval
}

func (s *Scheduler) discover(ctx context.Context) {
	s.forceDiscovery = false
	s.lastDiscovery = s.now()

	events, err := s.fetcher.UpcomingMatches(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Schedule discovery failed")
		s.runs = nil
		return
	}
	s.runs = ComputeRuns(events, s.now(), s.cfg)
	log.Info().Int("runs", len(s.runs)).Msg("🔍 Schedule discovered")
}

// runSession polls one match window on the slow pulse, with a fresh risk
// gate owned by this session alone.
func (s *Scheduler) runSession(ctx context.Context, run types.ScheduledRun) {
	log.Info().
		Str("title", run.Title).
		Time("until", run.EndTime).
		Msg("⏰ Waking up for match")
	s.notifier.Status(fmt.Sprintf("Waking up for: %s 🏟", run.Title))

	gate := s.cfg.NewGate()

	for s.now().Before(run.EndTime) {
		if err := ctx.Err(); err != nil {
			return
		}
		if err := s.runner.RunScan(ctx, gate); err != nil {
			log.Error().Err(err).Msg("Scan cycle failed")
		}
		if !sleepCtx(ctx, s.cfg.ScanInterval) {
			return
		}
	}

	log.Info().
		Str("title", run.Title).
		Int("bets", gate.BetsPlaced()).
		Str("spent", gate.Spent().StringFixed(2)).
		Msg("🏁 Session finished")

	if s.cfg.OnSessionEnd != nil {
		s.cfg.OnSessionEnd(run, gate)
	}
}

// sleepCtx sleeps for d or until the context is cancelled. Returns false
// on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

type nopNotifier struct{}

func (nopNotifier) Status(string) {}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
