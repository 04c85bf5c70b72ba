package polymarket

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minutebid/minutebid/types"
)

func TestMarketPrices_ChunksRequests(t *testing.T) {
	var chunkSizes []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := strings.Split(r.URL.Query().Get("token_ids"), ",")
		chunkSizes = append(chunkSizes, len(ids))

		resp := make(map[string]string, len(ids))
		for _, id := range ids {
			resp[id] = "0.42"
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, toJSON(resp))
	}))
	defer srv.Close()

	ids := make([]string, 45)
	for i := range ids {
		ids[i] = fmt.Sprintf("c%d", i)
	}

	c := newTestClient("", srv.URL)
	prices, err := c.MarketPrices(context.Background(), ids)
	require.NoError(t, err)

	assert.Equal(t, []int{20, 20, 5}, chunkSizes)
	assert.Len(t, prices, 45)
	assert.Equal(t, 0.42, prices["c7"])
}

func TestMarketPrices_SkipsUnparsablePrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"good": "0.91", "bad": "not-a-number"}`)
	}))
	defer srv.Close()

	c := newTestClient("", srv.URL)
	prices, err := c.MarketPrices(context.Background(), []string{"good", "bad"})
	require.NoError(t, err)

	assert.Equal(t, types.PriceMap{"good": 0.91}, prices)
}

func TestMarketPrices_FailedChunkDropsOnlyItsMarkets(t *testing.T) {
	var call int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call++
		if call == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		ids := strings.Split(r.URL.Query().Get("token_ids"), ",")
		resp := make(map[string]string, len(ids))
		for _, id := range ids {
			resp[id] = "0.5"
		}
		fmt.Fprint(w, toJSON(resp))
	}))
	defer srv.Close()

	ids := make([]string, 25)
	for i := range ids {
		ids[i] = fmt.Sprintf("c%d", i)
	}

	c := newTestClient("", srv.URL)
	prices, err := c.MarketPrices(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, prices, 5)
}

func TestMarketPrices_EmptyInput(t *testing.T) {
	c := newTestClient("", "http://example.invalid")
	prices, err := c.MarketPrices(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestConditionIDs(t *testing.T) {
	events := []types.Event{
		{Markets: []types.Market{{ConditionID: "a"}, {ConditionID: ""}}},
		{Markets: []types.Market{{ConditionID: "b"}}},
		{},
	}
	assert.Equal(t, []string{"a", "b"}, ConditionIDs(events))
}

func toJSON(m map[string]string) string {
	parts := make([]string, 0, len(m))
	for k, v := range m {
		parts = append(parts, fmt.Sprintf("%q: %q", k, v))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
