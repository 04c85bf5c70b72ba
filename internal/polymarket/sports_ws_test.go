package polymarket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minutebid/minutebid/types"
)

func TestParseAndStore_FieldNameDrift(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want types.GameState
	}{
		{
			"snake case",
			`{"event_id": "1", "minute": 82, "period": "2H", "home_score": 1, "away_score": 0}`,
			types.GameState{Minute: 82, Period: "2H", HomeScore: 1, AwayScore: 0},
		},
		{
			"camel case",
			`{"eventId": "1", "minute": 82, "half": "2nd half", "homeScore": 2, "awayScore": 2}`,
			types.GameState{Minute: 82, Period: "2nd half", HomeScore: 2, AwayScore: 2},
		},
		{
			"minute as string",
			`{"event_id": "1", "game_minute": " 79 ", "period": "2H"}`,
			types.GameState{Minute: 79, Period: "2H"},
		},
		{
			"clock field",
			`{"event_id": "1", "clock": 90, "period": "2H"}`,
			types.GameState{Minute: 90, Period: "2H"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			states := make(types.GameStateMap)
			parseAndStore([]byte(tc.raw), states)
			require.Contains(t, states, "1")
			assert.Equal(t, tc.want, states["1"])
		})
	}
}

func TestParseAndStore_IgnoresJunk(t *testing.T) {
	cases := []string{
		`not json at all`,
		`{"minute": 80}`,                   // no event id
		`{"event_id": "1"}`,                // no minute
		`{"event_id": "1", "minute": "?"}`, // non-numeric minute
	}
	for _, raw := range cases {
		states := make(types.GameStateMap)
		parseAndStore([]byte(raw), states)
		assert.Empty(t, states, "raw=%s", raw)
	}
}

func TestParseAndStore_LatestMessageWins(t *testing.T) {
	states := make(types.GameStateMap)
	parseAndStore([]byte(`{"event_id": "1", "minute": 80, "period": "2H", "home_score": 0, "away_score": 0}`), states)
	parseAndStore([]byte(`{"event_id": "1", "minute": 84, "period": "2H", "home_score": 1, "away_score": 0}`), states)

	assert.Equal(t, types.GameState{Minute: 84, Period: "2H", HomeScore: 1}, states["1"])
}

func TestFirstInt(t *testing.T) {
	n, ok := firstInt(nil, []byte(`"77"`), []byte(`80`))
	require.True(t, ok)
	assert.Equal(t, 77, n)

	n, ok = firstInt([]byte(`"x"`), []byte(`81`))
	require.True(t, ok)
	assert.Equal(t, 81, n)

	_, ok = firstInt(nil, []byte(`"x"`))
	assert.False(t, ok)

	_, ok = firstInt()
	assert.False(t, ok)
}

func TestLiveGameStates_DrainsBoundedBatch(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		frames := []string{
			`{"event_id": "1", "minute": 80, "period": "2H", "home_score": 1, "away_score": 0}`,
			`{"event_id": "2", "minute": 85, "period": "2H"}`,
			`garbage frame`,
			`{"event_id": "1", "minute": 81, "period": "2H", "home_score": 1, "away_score": 0}`,
		}
		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		// Keep the connection open so the reader hits its deadline.
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	feed := NewSportsFeed(wsURL, 200*time.Millisecond, 50)

	states := feed.LiveGameStates(context.Background())
	require.Len(t, states, 2)
	assert.Equal(t, 81, states["1"].Minute)
	assert.Equal(t, 85, states["2"].Minute)
}

func TestLiveGameStates_ConnectFailure(t *testing.T) {
	feed := NewSportsFeed("ws://127.0.0.1:1/ws", 100*time.Millisecond, 50)
	states := feed.LiveGameStates(context.Background())
	assert.Empty(t, states)
}
