package hypercore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"hypercore-tracker/internal/models"
)

var testNow = time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

// setupTestClient creates a test server and a Client pointed at it.
func setupTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)

	c := &Client{
		client:  resty.New().SetBaseURL(server.URL),
		logger:  zap.NewNop(),
		limiter: rate.NewLimiter(rate.Inf, 1), // allow all requests in tests
		cache:   cache.New(time.Minute, time.Minute),
		now:     func() time.Time { return testNow },
	}
	return c, server
}

func decodeInfoRequest(t *testing.T, r *http.Request) infoRequest {
	t.Helper()
	var req infoRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return req
}

func TestFetchBalances(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := decodeInfoRequest(t, r)
			assert.Equal(t, "spotClearinghouseState", req.Type)
			assert.Equal(t, "0xABC", req.User)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"balances": [{"coin": "HYPE", "total": "10"}, {"total": "1.5"}, {"coin": "USDC"}]}`))
		})

		c, server := setupTestClient(handler)
		defer server.Close()

		balances, origin := c.FetchBalances(context.Background(), "0xABC")

		assert.Equal(t, OriginLive, origin.Kind)
		require.Len(t, balances, 3)
		assert.Equal(t, models.SpotBalance{Coin: "HYPE", Total: "10"}, balances[0])
		// missing coin defaults to "Unknown", missing total to "0"
		assert.Equal(t, models.SpotBalance{Coin: "Unknown", Total: "1.5"}, balances[1])
		assert.Equal(t, models.SpotBalance{Coin: "USDC", Total: "0"}, balances[2])
	})

	t.Run("ServerErrorFallsBack", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		c, server := setupTestClient(handler)
		defer server.Close()

		balances, origin := c.FetchBalances(context.Background(), "0xABC")

		assert.True(t, origin.IsFallback())
		assert.NotEmpty(t, origin.Reason)
		assert.Equal(t, FallbackBalances(), balances)
	})

	t.Run("MissingBalancesFieldFallsBack", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"unexpected": true}`))
		})

		c, server := setupTestClient(handler)
		defer server.Close()

		balances, origin := c.FetchBalances(context.Background(), "0xABC")

		assert.True(t, origin.IsFallback())
		assert.Equal(t, FallbackBalances(), balances)
	})
}

func TestFetchStaking(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := decodeInfoRequest(t, r)
			assert.Equal(t, "delegatorSummary", req.Type)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"delegated": "123.45"}`))
		})

		c, server := setupTestClient(handler)
		defer server.Close()

		staked, origin := c.FetchStaking(context.Background(), "0xABC")

		assert.Equal(t, OriginLive, origin.Kind)
		assert.InDelta(t, 123.45, staked, 1e-9)
	})

	t.Run("UnparsableAmountFallsBack", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"delegated": "lots"}`))
		})

		c, server := setupTestClient(handler)
		defer server.Close()

		staked, origin := c.FetchStaking(context.Background(), "0xABC")

		assert.True(t, origin.IsFallback())
		assert.Equal(t, FallbackStake, staked)
	})

	t.Run("ServerErrorFallsBack", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		c, server := setupTestClient(handler)
		defer server.Close()

		staked, origin := c.FetchStaking(context.Background(), "0xABC")

		assert.True(t, origin.IsFallback())
		assert.Equal(t, FallbackStake, staked)
	})
}

func TestFetchTrades(t *testing.T) {
	t.Run("NormalizesFills", func(t *testing.T) {
		recent := testNow.Add(-2 * time.Hour).UnixMilli()
		stale := testNow.AddDate(0, 0, -45).UnixMilli()

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := decodeInfoRequest(t, r)
			assert.Equal(t, "userFills", req.Type)

			w.Header().Set("Content-Type", "application/json")
			body, _ := json.Marshal([]map[string]any{
				{"time": recent, "coin1": "HYPE", "dir": 1, "sz": "2.5", "px": "3.4"},
				{"time": recent, "coin": "BTC", "side": "sell", "sz": "0.1", "px": "53200", "fee": "5.32"},
				{"time": stale, "coin": "ETH", "dir": -1, "sz": "1", "px": "2980"},
			})
			_, _ = w.Write(body)
		})

		c, server := setupTestClient(handler)
		defer server.Close()

		trades, origin := c.FetchTrades(context.Background(), "0xABC", 30)

		assert.Equal(t, OriginLive, origin.Kind)
		require.Len(t, trades, 2) // the 45-day-old fill is outside the window

		assert.Equal(t, "HYPE", trades[0].Coin) // coin1 -> coin
		assert.Equal(t, models.SideBuy, trades[0].Side)
		assert.Equal(t, time.UnixMilli(recent).Unix(), trades[0].Timestamp.Unix())
		assert.InDelta(t, 2.5, trades[0].Size, 1e-9)
		assert.InDelta(t, 3.4, trades[0].Price, 1e-9)
		assert.Zero(t, trades[0].Fee)
		assert.InDelta(t, 8.5, trades[0].ValueUSD, 1e-9) // size * price

		assert.Equal(t, models.SideSell, trades[1].Side)
		assert.InDelta(t, 5.32, trades[1].Fee, 1e-9)
	})

	t.Run("EmptyResponseYieldsSyntheticTrades", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[]`))
		})

		c, server := setupTestClient(handler)
		defer server.Close()

		trades, origin := c.FetchTrades(context.Background(), "0xABC", 30)

		assert.True(t, origin.IsFallback())
		assert.Equal(t, SyntheticTrades("0xABC", 30, testNow), trades)
	})

	t.Run("ServerErrorYieldsSyntheticTrades", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		c, server := setupTestClient(handler)
		defer server.Close()

		trades, origin := c.FetchTrades(context.Background(), "0xABC", 30)

		assert.True(t, origin.IsFallback())
		assert.Len(t, trades, syntheticTradeCount)
	})
}

func TestFetchCaching(t *testing.T) {
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"balances": [{"coin": "HYPE", "total": "10"}]}`))
	})

	c, server := setupTestClient(handler)
	defer server.Close()

	first, _ := c.FetchBalances(context.Background(), "0xABC")
	second, _ := c.FetchBalances(context.Background(), "0xABC")

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	// a different wallet is a different cache key
	_, _ = c.FetchBalances(context.Background(), "0xDEF")
	assert.Equal(t, 2, calls)
}

func TestSyntheticTrades(t *testing.T) {
	t.Run("DeterministicPerWalletAndWindow", func(t *testing.T) {
		first := SyntheticTrades("0xABC", 30, testNow)
		second := SyntheticTrades("0xABC", 30, testNow)
		assert.Equal(t, first, second)
	})

	t.Run("DifferentWalletsDiffer", func(t *testing.T) {
		a := SyntheticTrades("0xABC", 30, testNow)
		b := SyntheticTrades("0xDEF", 30, testNow)
		assert.NotEqual(t, a, b)
	})

	t.Run("ValuesWithinRanges", func(t *testing.T) {
		trades := SyntheticTrades("0xABC", 30, testNow)
		require.Len(t, trades, syntheticTradeCount)

		start := testNow.AddDate(0, 0, -30)
		for _, tr := range trades {
			assert.Contains(t, syntheticCoins, tr.Coin)
			assert.Contains(t, []string{models.SideBuy, models.SideSell}, tr.Side)
			assert.GreaterOrEqual(t, tr.Size, 0.0)
			assert.Less(t, tr.Size, 10.0)
			assert.GreaterOrEqual(t, tr.Price, 100.0)
			assert.Less(t, tr.Price, 1000.0)
			assert.InDelta(t, tr.Size*tr.Price, tr.ValueUSD, 1e-9)
			assert.InDelta(t, tr.ValueUSD*0.001, tr.Fee, 1e-9)
			assert.False(t, tr.Timestamp.Before(start))
			assert.False(t, tr.Timestamp.After(testNow))
		}
	})
}
