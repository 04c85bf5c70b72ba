package polymarket

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/minutebid/minutebid/types"
)

// SportsFeed reads live game clocks from the Polymarket sports WebSocket.
// One short-lived connection per scan tick: connect, drain a bounded batch
// of messages, close. A failed connection just means no live clocks this
// tick - the scanner falls back to estimated minutes.
type SportsFeed struct {
	url         string
	readTimeout time.Duration
	maxMessages int
}

// NewSportsFeed builds a feed reader.
func NewSportsFeed(url string, readTimeout time.Duration, maxMessages int) *SportsFeed {
	return &SportsFeed{
		url:         url,
		readTimeout: readTimeout,
		maxMessages: maxMessages,
	}
}

// sportsMessage tolerates the feed's field-name drift: snake_case and
// camelCase names appear interchangeably, and the clock minute shows up
// under several keys.
type sportsMessage struct {
	EventID      string          `json:"event_id"`
	EventIDCamel string          `json:"eventId"`
	Minute       json.RawMessage `json:"minute"`
	GameMinute   json.RawMessage `json:"game_minute"`
	Time         json.RawMessage `json:"time"`
	Clock        json.RawMessage `json:"clock"`
	Period       string          `json:"period"`
	Half         string          `json:"half"`
	HomeScore    json.RawMessage `json:"home_score"`
	HomeCamel    json.RawMessage `json:"homeScore"`
	AwayScore    json.RawMessage `json:"away_score"`
	AwayCamel    json.RawMessage `json:"awayScore"`
}

// LiveGameStates collects one batch of game states keyed by event id.
// Returns an empty map when the connection fails or nothing arrives.
func (f *SportsFeed) LiveGameStates(ctx context.Context) types.GameStateMap {
	states := make(types.GameStateMap)

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = f.readTimeout
	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		log.Error().Err(err).Msg("Sports WebSocket connect failed")
		return states
	}
	defer conn.Close()
	log.Debug().Msg("Sports WebSocket connected")

	for i := 0; i < f.maxMessages; i++ {
		if ctx.Err() != nil {
			break
		}
		if err := conn.SetReadDeadline(time.Now().Add(f.readTimeout)); err != nil {
			break
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			// Deadline hit or connection dropped - use what we have.
			log.Debug().Err(err).Msg("Sports WebSocket read ended")
			break
		}
		parseAndStore(raw, states)
	}

	log.Info().Int("events", len(states)).Msg("🕐 Live game states collected")
	return states
}

// parseAndStore upserts one message into the state map. Non-JSON frames
// and messages without an event id or minute are ignored.
func parseAndStore(raw []byte, states types.GameStateMap) {
	var msg sportsMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}

	eventID := msg.EventID
	if eventID == "" {
		eventID = msg.EventIDCamel
	}
	if eventID == "" {
		return
	}

	minute, ok := firstInt(msg.Minute, msg.GameMinute, msg.Time, msg.Clock)
	if !ok {
		return
	}

	period := msg.Period
	if period == "" {
		period = msg.Half
	}

	home, _ := firstInt(msg.HomeScore, msg.HomeCamel)
	away, _ := firstInt(msg.AwayScore, msg.AwayCamel)

	states[eventID] = types.GameState{
		Minute:    minute,
		Period:    period,
		HomeScore: home,
		AwayScore: away,
	}
}

// firstInt returns the first field that parses as an integer, accepting
// both JSON numbers and numeric strings.
func firstInt(fields ...json.RawMessage) (int, bool) {
	for _, raw := range fields {
		if len(raw) == 0 {
			continue
		}
		var n int
		if err := json.Unmarshal(raw, &n); err == nil {
			return n, true
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if parsed, perr := strconv.Atoi(strings.TrimSpace(s)); perr == nil {
				return parsed, true
			}
		}
	}
	return 0, false
}
