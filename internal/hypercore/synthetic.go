package hypercore

import (
	"hash/fnv"
	"math/rand"
	"time"

	"hypercore-tracker/internal/models"
)

// FallbackStake is the demo staking amount substituted when the
// delegator summary cannot be fetched.
const FallbackStake = 0.5

// syntheticTradeCount is how many placeholder trades are spread across
// the lookback window.
const syntheticTradeCount = 20

var syntheticCoins = []string{"HYPE", "BTC", "ETH", "SOL"}

// FallbackBalances returns the fixed demo balance set substituted when
// the clearinghouse state cannot be fetched.
func FallbackBalances() []models.SpotBalance {
	return []models.SpotBalance{
		{Coin: "HYPE", Total: "0.0505"},
		{Coin: "USDC", Total: "0.0000"},
		{Coin: "USDT", Total: "0.0010"},
	}
}

// SyntheticTrades generates placeholder trades for a wallet when real
// fills are unavailable. Values are drawn from PRNGs seeded by the
// (wallet, date) and (wallet, date, coin) strings, so the same wallet and
// window always produce the same trades. Reproducibility is the only
// required property; this is demo data, not market data.
func SyntheticTrades(wallet string, windowDays int, now time.Time) []models.Trade {
	start := now.AddDate(0, 0, -windowDays)
	step := now.Sub(start) / time.Duration(syntheticTradeCount-1)

	trades := make([]models.Trade, 0, syntheticTradeCount)
	for i := 0; i < syntheticTradeCount; i++ {
		ts := start.Add(time.Duration(i) * step)
		date := ts.UTC().Format(time.RFC3339)

		rng := seededRand(date + "|" + wallet)
		coin := syntheticCoins[rng.Intn(len(syntheticCoins))]
		size := rng.Float64() * 10         // [0, 10)
		price := 100 + rng.Float64()*900   // [100, 1000)

		side := models.SideBuy
		if seededRand(date+"|"+wallet+"|"+coin).Intn(2) == 1 {
			side = models.SideSell
		}

		trades = append(trades, models.Trade{
			Wallet:    wallet,
			Timestamp: ts,
			Coin:      coin,
			Side:      side,
			Size:      size,
			Price:     price,
			Fee:       size * price * 0.001, // 0.1% fee
			ValueUSD:  size * price,
		})
	}
	return trades
}

func seededRand(key string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(key))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}
