package aggregator

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"hypercore-tracker/internal/config"
	"hypercore-tracker/internal/hypercore"
	"hypercore-tracker/internal/metrics"
	"hypercore-tracker/internal/snapshot"
)

// PriceSource produces the current coin -> USD price table.
type PriceSource interface {
	Prices(ctx context.Context) (map[string]float64, error)
}

// WalletSummary holds the per-wallet scalars for one refresh, along with
// the provenance of each fetch so consumers can tell live figures from
// fallback ones.
type WalletSummary struct {
	Label      string  `json:"label"`
	Address    string  `json:"address"`
	ValueUSD   float64 `json:"value_usd"`
	StakedHYPE float64 `json:"staked_hype"`
	PnLUSD     float64 `json:"pnl_usd"`
	PnLPct     float64 `json:"pnl_pct"`
	VolumeUSD  float64 `json:"volume_usd"`

	BalancesOrigin hypercore.Origin `json:"balances_origin"`
	StakingOrigin  hypercore.Origin `json:"staking_origin"`
	TradesOrigin   hypercore.Origin `json:"trades_origin"`
	Degraded       bool             `json:"degraded"`
}

// PortfolioSummary folds all wallet summaries into portfolio-wide totals.
type PortfolioSummary struct {
	GeneratedAt    time.Time       `json:"generated_at"`
	Period         string          `json:"period"`
	TotalValueUSD  float64         `json:"total_value_usd"`
	TotalPnLUSD    float64         `json:"total_pnl_usd"`
	PnLPct         float64         `json:"pnl_pct"`
	TotalVolumeUSD float64         `json:"total_volume_usd"`
	ActiveTokens   int             `json:"active_tokens"`
	Wallets        []WalletSummary `json:"wallets"`
}

// Engine drives the refresh cycle: one sequential pass over the
// configured wallets per refresh, no parallelism, one refresh at a time.
type Engine struct {
	logger *zap.Logger
	cfg    *config.Config
	client hypercore.ClientInterface
	prices PriceSource
	store  *snapshot.Store
}

// NewEngine creates a refresh engine.
func NewEngine(logger *zap.Logger, cfg *config.Config, client hypercore.ClientInterface, prices PriceSource, store *snapshot.Store) *Engine {
	return &Engine{
		logger: logger,
		cfg:    cfg,
		client: client,
		prices: prices,
		store:  store,
	}
}

// Refresh performs a full pass: fetch the price table once, then per
// wallet fetch balances, staking and trades, compute the metrics, persist
// the snapshot and fold the scalars into portfolio totals. Price-table
// and storage failures are the only fatal paths; everything the adapter
// touches degrades to fallback data instead.
func (e *Engine) Refresh(ctx context.Context, period metrics.Period) (*PortfolioSummary, error) {
	prices, err := e.prices.Prices(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not fetch price table: %w", err)
	}

	now := time.Now()
	summary := &PortfolioSummary{
		GeneratedAt: now,
		Period:      period.String(),
		Wallets:     make([]WalletSummary, 0, len(e.cfg.Wallets)),
	}
	activeTokens := make(map[string]struct{})

	for _, w := range e.cfg.Wallets {
		balances, balancesOrigin := e.client.FetchBalances(ctx, w.Address)
		staked, stakingOrigin := e.client.FetchStaking(ctx, w.Address)
		trades, tradesOrigin := e.client.FetchTrades(ctx, w.Address, e.cfg.Hypercore.TradeWindowDays)

		value := metrics.PortfolioValue(balances, prices)
		pnl, pnlPct := metrics.PnL(trades, period, now)
		volume := metrics.Volume(trades, period, now)

		if err := e.store.Save(w.Address, balances, prices, trades); err != nil {
			return nil, fmt.Errorf("could not store snapshot for wallet %s: %w", w.Address, err)
		}

		for _, b := range balances {
			amount, _ := strconv.ParseFloat(b.Total, 64)
			if amount > 0 {
				activeTokens[b.Coin] = struct{}{}
			}
		}

		ws := WalletSummary{
			Label:          w.Label,
			Address:        w.Address,
			ValueUSD:       value,
			StakedHYPE:     staked,
			PnLUSD:         pnl,
			PnLPct:         pnlPct,
			VolumeUSD:      volume,
			BalancesOrigin: balancesOrigin,
			StakingOrigin:  stakingOrigin,
			TradesOrigin:   tradesOrigin,
			Degraded:       balancesOrigin.IsFallback() || stakingOrigin.IsFallback() || tradesOrigin.IsFallback(),
		}
		summary.Wallets = append(summary.Wallets, ws)

		summary.TotalValueUSD += value
		summary.TotalPnLUSD += pnl
		// Flat sum of per-wallet percentages, matching the source system.
		// A value-weighted average is the likely fix; the per-wallet rows
		// above carry everything needed to compute it.
		summary.PnLPct += pnlPct
		summary.TotalVolumeUSD += volume

		if ws.Degraded {
			e.logger.Warn("Wallet refreshed with fallback data",
				zap.String("wallet", w.Address),
				zap.String("balances", string(balancesOrigin.Kind)),
				zap.String("staking", string(stakingOrigin.Kind)),
				zap.String("trades", string(tradesOrigin.Kind)))
		}
	}

	summary.ActiveTokens = len(activeTokens)
	return summary, nil
}

// Run starts the auto-refresh loop. A refresh happens immediately, then
// on every elapsed interval until the context is cancelled.
func (e *Engine) Run(ctx context.Context) {
	interval := time.Duration(e.cfg.App.RefreshIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info("Starting refresh loop",
		zap.Duration("interval", interval),
		zap.Int("wallets", len(e.cfg.Wallets)))

	e.refreshAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Stopping refresh loop...")
			return
		case <-ticker.C:
			e.refreshAndLog(ctx)
		}
	}
}

func (e *Engine) refreshAndLog(ctx context.Context) {
	summary, err := e.Refresh(ctx, metrics.Period30Days)
	if err != nil {
		e.logger.Error("Refresh failed", zap.Error(err))
		return
	}
	e.logger.Info("Refresh complete",
		zap.Float64("total_value_usd", summary.TotalValueUSD),
		zap.Float64("total_pnl_usd", summary.TotalPnLUSD),
		zap.Float64("total_volume_usd", summary.TotalVolumeUSD),
		zap.Int("active_tokens", summary.ActiveTokens))
}
