package scanner

import (
	"math"
	"strings"
	"time"
)

// secondHalfSynonyms are matched as case-insensitive substrings of the
// period label. Feed providers disagree on spelling ("2H", "2nd Half",
// "Second half"), so membership is by containment, not equality.
var secondHalfSynonyms = []string{"2h", "2nd", "second", "2nd half", "second half", "sh"}

// WindowPolicy decides whether a match is inside the late-game monitoring
// window. The filter evolved in production (minute-only first, then
// minute + second-half), so both signals are configurable.
type WindowPolicy struct {
	MinMinute            int
	MaxMinute            int
	RequireSecondHalf    bool // check the period label when one is present
	AllowEstimatedMinute bool // permit kickoff-based minute estimation
}

// InWindow reports whether a match at the given minute and period label is
// inside the target window. A negative minute (not kicked off) or one past
// MaxMinute is simply out of window, not an error. An empty period label
// leaves only the minute bound in effect.
func (p WindowPolicy) InWindow(minute int, period string) bool {
	if minute < p.MinMinute || minute > p.MaxMinute {
		return false
	}
	if !p.RequireSecondHalf || period == "" {
		return true
	}
	return IsSecondHalf(period)
}

// IsSecondHalf reports whether a period label indicates second half or
// extra time.
func IsSecondHalf(period string) bool {
	label := strings.ToLower(strings.TrimSpace(period))
	for _, syn := range secondHalfSynonyms {
		if strings.Contains(label, syn) {
			return true
		}
	}
	return false
}

// EstimateMinute derives a game minute from the event's kickoff time and
// the current wall clock, for events with no live clock feed. Returns
// ok=false when the kickoff is missing or unparsable, in which case the
// event is skipped for this tick.
func EstimateMinute(startTime string, now time.Time) (int, bool) {
	if startTime == "" {
		return 0, false
	}
	kickoff, err := time.Parse(time.RFC3339, startTime)
	if err != nil {
		return 0, false
	}
	return int(math.Floor(now.Sub(kickoff).Seconds() / 60)), true
}
