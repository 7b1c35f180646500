package hypercore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"hypercore-tracker/internal/config"
	"hypercore-tracker/internal/models"
)

// ClientInterface defines the interface for the HyperCore info endpoint
// adapter. Implementations never fail: on any transport or parse error
// they substitute deterministic fallback data and tag the result.
type ClientInterface interface {
	FetchBalances(ctx context.Context, address string) ([]models.SpotBalance, Origin)
	FetchStaking(ctx context.Context, address string) (float64, Origin)
	FetchTrades(ctx context.Context, address string, windowDays int) ([]models.Trade, Origin)
}

// Client is an adapter for the HyperCore info endpoint.
// It implements the ClientInterface.
type Client struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
	cache   *cache.Cache
	now     func() time.Time
}

// ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new HyperCore info endpoint client. Fetch results
// (fallback ones included) are memoized for the configured TTL to bound
// redundant network calls within a refresh window; the cache is not a
// correctness mechanism.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	client := resty.New().SetBaseURL(cfg.APIs.HypercoreAPI)

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.Hypercore.RateLimit), cfg.Hypercore.RateLimitBurst)

	ttl := time.Duration(cfg.Hypercore.CacheTTLSeconds) * time.Second

	return &Client{
		client:  client,
		logger:  logger,
		limiter: limiter,
		cache:   cache.New(ttl, 2*ttl),
		now:     time.Now,
	}
}

// infoRequest is the request body shared by all info endpoint queries.
type infoRequest struct {
	Type string `json:"type"`
	User string `json:"user"`
}

// postInfo issues a single rate-limited POST to the info endpoint. There
// is deliberately no retry here: failed fetches fall back to demo data at
// the call site instead.
func (c *Client) postInfo(ctx context.Context, reqType, address string, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(infoRequest{Type: reqType, User: address}).
		SetResult(result).
		Post("")
	if err != nil {
		return fmt.Errorf("info request %q failed: %w", reqType, err)
	}
	if resp.IsError() {
		return fmt.Errorf("info request %q failed with status %s", reqType, resp.Status())
	}
	return nil
}

type balancesResponse struct {
	Balances []models.SpotBalance `json:"balances"`
}

type balancesResult struct {
	balances []models.SpotBalance
	origin   Origin
}

// FetchBalances fetches all spot token balances for a wallet. On failure
// it returns the fixed demo balance set.
func (c *Client) FetchBalances(ctx context.Context, address string) ([]models.SpotBalance, Origin) {
	key := "balances|" + address
	if v, ok := c.cache.Get(key); ok {
		r := v.(balancesResult)
		return r.balances, r.origin
	}

	balances, origin := c.fetchBalances(ctx, address)
	c.cache.SetDefault(key, balancesResult{balances: balances, origin: origin})
	return balances, origin
}

func (c *Client) fetchBalances(ctx context.Context, address string) ([]models.SpotBalance, Origin) {
	var out balancesResponse
	if err := c.postInfo(ctx, "spotClearinghouseState", address, &out); err != nil {
		c.logger.Warn("Balance fetch failed, using fallback data",
			zap.String("wallet", address), zap.Error(err))
		return FallbackBalances(), Fallback(err.Error())
	}
	if out.Balances == nil {
		c.logger.Warn("Balance response missing balances field, using fallback data",
			zap.String("wallet", address))
		return FallbackBalances(), Fallback("response missing balances field")
	}

	balances := make([]models.SpotBalance, 0, len(out.Balances))
	for _, b := range out.Balances {
		if b.Coin == "" {
			b.Coin = "Unknown"
		}
		if b.Total == "" {
			b.Total = "0"
		}
		balances = append(balances, b)
	}
	return balances, Live()
}

type delegatorSummaryResponse struct {
	Delegated string `json:"delegated"`
}

type stakingResult struct {
	delegated float64
	origin    Origin
}

// FetchStaking fetches the total delegated staking balance for a wallet.
// On failure it returns the fixed demo staking amount.
func (c *Client) FetchStaking(ctx context.Context, address string) (float64, Origin) {
	key := "staking|" + address
	if v, ok := c.cache.Get(key); ok {
		r := v.(stakingResult)
		return r.delegated, r.origin
	}

	delegated, origin := c.fetchStaking(ctx, address)
	c.cache.SetDefault(key, stakingResult{delegated: delegated, origin: origin})
	return delegated, origin
}

func (c *Client) fetchStaking(ctx context.Context, address string) (float64, Origin) {
	var out delegatorSummaryResponse
	if err := c.postInfo(ctx, "delegatorSummary", address, &out); err != nil {
		c.logger.Warn("Staking fetch failed, using fallback data",
			zap.String("wallet", address), zap.Error(err))
		return FallbackStake, Fallback(err.Error())
	}
	if out.Delegated == "" {
		return FallbackStake, Fallback("response missing delegated field")
	}

	delegated, err := strconv.ParseFloat(out.Delegated, 64)
	if err != nil {
		c.logger.Warn("Failed to parse delegated amount, using fallback data",
			zap.String("wallet", address), zap.String("delegated", out.Delegated), zap.Error(err))
		return FallbackStake, Fallback("unparsable delegated amount")
	}
	return delegated, Live()
}

// fill is a raw userFills entry. The endpoint reports numbers as strings.
type fill struct {
	Time  int64    `json:"time"` // ms since epoch
	Coin  string   `json:"coin"`
	Coin1 string   `json:"coin1"`
	Side  string   `json:"side"`
	Dir   float64  `json:"dir"` // positive = buy
	Sz    string   `json:"sz"`
	Px    string   `json:"px"`
	Fee   string   `json:"fee"`
	Pnl   *float64 `json:"pnl,omitempty"`
}

type tradesResult struct {
	trades []models.Trade
	origin Origin
}

// FetchTrades fetches the fill history for a wallet, normalized to Trade
// records and filtered to the lookback window. On failure, or when the
// endpoint returns nothing, it returns deterministic synthetic trades.
func (c *Client) FetchTrades(ctx context.Context, address string, windowDays int) ([]models.Trade, Origin) {
	key := fmt.Sprintf("trades|%s|%d", address, windowDays)
	if v, ok := c.cache.Get(key); ok {
		r := v.(tradesResult)
		return r.trades, r.origin
	}

	trades, origin := c.fetchTrades(ctx, address, windowDays)
	c.cache.SetDefault(key, tradesResult{trades: trades, origin: origin})
	return trades, origin
}

func (c *Client) fetchTrades(ctx context.Context, address string, windowDays int) ([]models.Trade, Origin) {
	now := c.now()

	var fills []fill
	if err := c.postInfo(ctx, "userFills", address, &fills); err != nil {
		c.logger.Warn("Trade fetch failed, using synthetic data",
			zap.String("wallet", address), zap.Error(err))
		return SyntheticTrades(address, windowDays, now), Fallback(err.Error())
	}
	if len(fills) == 0 {
		return SyntheticTrades(address, windowDays, now), Fallback("no fills returned")
	}

	start := now.AddDate(0, 0, -windowDays)
	trades := make([]models.Trade, 0, len(fills))
	for _, f := range fills {
		t := normalizeFill(f, address, now)
		if t.Timestamp.Before(start) {
			continue
		}
		trades = append(trades, t)
	}
	return trades, Live()
}

// normalizeFill maps a raw fill onto a Trade, defaulting missing fields
// instead of rejecting the row.
func normalizeFill(f fill, address string, now time.Time) models.Trade {
	t := models.Trade{Wallet: address, Timestamp: now}
	if f.Time > 0 {
		t.Timestamp = time.UnixMilli(f.Time)
	}

	t.Coin = f.Coin
	if t.Coin == "" {
		t.Coin = f.Coin1
	}
	if t.Coin == "" {
		t.Coin = "Unknown"
	}

	switch f.Side {
	case models.SideBuy, models.SideSell:
		t.Side = f.Side
	default:
		if f.Dir > 0 {
			t.Side = models.SideBuy
		} else {
			t.Side = models.SideSell
		}
	}

	t.Size, _ = strconv.ParseFloat(f.Sz, 64)
	t.Price, _ = strconv.ParseFloat(f.Px, 64)
	t.Fee, _ = strconv.ParseFloat(f.Fee, 64)
	t.ValueUSD = t.Size * t.Price

	if f.Pnl != nil {
		t.PnL = *f.Pnl
		t.HasPnL = true
	}
	return t
}
