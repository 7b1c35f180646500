package pricing

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"hypercore-tracker/internal/config"
)

// hypeFeedID is the Pyth price feed identifier for HYPE/USD.
const hypeFeedID = "0x4279e31cc369bbcc2faf022b382b080e32a8e689ff20fbc530d2a603eb6cd98b"

// defaultHypePrice is used when the oracle is unreachable.
const defaultHypePrice = 3.45

const pricesCacheKey = "prices"

// stubPrices is the hardcoded price table for everything except HYPE.
// An acknowledged stub, not a live market-data integration.
var stubPrices = map[string]float64{
	"BTC":   53200.00,
	"ETH":   2980.00,
	"SOL":   144.50,
	"DOGE":  0.12,
	"AVAX":  35.20,
	"ARB":   1.45,
	"OP":    3.25,
	"MATIC": 0.85,
	"LINK":  15.30,
	"USDC":  1.00,
	"USDT":  1.00,
}

// Service produces the current price table. The only live lookup is the
// HYPE feed from the Pyth Hermes endpoint; results are memoized for the
// configured TTL so repeated refreshes within the window do not re-issue
// network calls.
type Service struct {
	client *resty.Client
	cache  *cache.Cache
	logger *zap.Logger
}

// NewService creates a price service backed by the configured oracle
// endpoint and cache TTL.
func NewService(cfg *config.Config, logger *zap.Logger) *Service {
	ttl := time.Duration(cfg.Pricing.CacheTTLSeconds) * time.Second
	return &Service{
		client: resty.New().SetBaseURL(cfg.APIs.PriceAPI),
		cache:  cache.New(ttl, 2*ttl),
		logger: logger,
	}
}

// hermesResponse mirrors the Hermes latest-price payload. The price is
// fixed-point: actual = price * 10^expo.
type hermesResponse struct {
	Parsed []struct {
		Price struct {
			Price string `json:"price"`
			Expo  int    `json:"expo"`
		} `json:"price"`
	} `json:"parsed"`
}

// HypePrice fetches the current HYPE/USD price from the oracle.
func (s *Service) HypePrice(ctx context.Context) (float64, error) {
	var out hermesResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("ids[]", hypeFeedID).
		SetResult(&out).
		Get("")
	if err != nil {
		return 0, fmt.Errorf("failed to fetch HYPE price: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("HYPE price request failed with status %s", resp.Status())
	}
	if len(out.Parsed) == 0 {
		return 0, fmt.Errorf("HYPE price response has no parsed feeds")
	}

	raw, err := strconv.ParseFloat(out.Parsed[0].Price.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse HYPE price %q: %w", out.Parsed[0].Price.Price, err)
	}
	return raw * math.Pow(10, float64(out.Parsed[0].Price.Expo)), nil
}

// Prices returns the current coin -> USD price table. An oracle failure
// degrades HYPE to its stub value; the only error path out of here is
// cancellation of the context.
func (s *Service) Prices(ctx context.Context) (map[string]float64, error) {
	if cached, ok := s.cache.Get(pricesCacheKey); ok {
		return clonePrices(cached.(map[string]float64)), nil
	}

	prices := clonePrices(stubPrices)

	hype, err := s.HypePrice(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("Oracle fetch failed, using stub HYPE price",
			zap.Float64("stub_price", defaultHypePrice), zap.Error(err))
		hype = defaultHypePrice
	}
	if hype <= 0 {
		hype = defaultHypePrice
	}
	prices["HYPE"] = hype

	s.cache.SetDefault(pricesCacheKey, clonePrices(prices))
	return prices, nil
}

func clonePrices(src map[string]float64) map[string]float64 {
	dst := make(map[string]float64, len(src))
	for coin, price := range src {
		dst[coin] = price
	}
	return dst
}
