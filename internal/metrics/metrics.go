// Package metrics computes portfolio figures from in-memory balance and
// trade slices. Everything here is pure: callers pass the clock in.
package metrics

import (
	"strconv"
	"time"

	"hypercore-tracker/internal/models"
)

// Period is the closed set of reporting windows.
type Period int

const (
	Period24Hours Period = iota
	Period7Days
	Period30Days
	PeriodAllTime
)

// ParsePeriod maps a period label to its window. Unknown labels fall
// back to the 30-day window.
func ParsePeriod(label string) Period {
	switch label {
	case "24 hours":
		return Period24Hours
	case "7 days":
		return Period7Days
	case "30 days":
		return Period30Days
	case "All time":
		return PeriodAllTime
	default:
		return Period30Days
	}
}

// Days returns the window length in days. "All time" is effectively
// unbounded.
func (p Period) Days() int {
	switch p {
	case Period24Hours:
		return 1
	case Period7Days:
		return 7
	case PeriodAllTime:
		return 9999
	default:
		return 30
	}
}

// String returns the period's display label.
func (p Period) String() string {
	switch p {
	case Period24Hours:
		return "24 hours"
	case Period7Days:
		return "7 days"
	case PeriodAllTime:
		return "All time"
	default:
		return "30 days"
	}
}

// PortfolioValue sums amount*price over all held coins. Coins missing
// from the price map contribute zero.
func PortfolioValue(balances []models.SpotBalance, prices map[string]float64) float64 {
	var total float64
	for _, b := range balances {
		coin := b.Coin
		if coin == "" {
			coin = "Unknown"
		}
		amount, _ := strconv.ParseFloat(b.Total, 64)
		total += amount * prices[coin]
	}
	return total
}

// PnL estimates profit and loss over the window ending at now, returning
// the USD figure and a percentage. When the trades carry their own pnl
// column it is summed directly; otherwise the estimate is
// sell value - buy value, which is deliberately crude: there is no cost
// basis or lot tracking here. The percentage denominator is half the
// total traded value in the window, zero-guarded.
func PnL(trades []models.Trade, period Period, now time.Time) (float64, float64) {
	window := tradesInWindow(trades, period, now)
	if len(window) == 0 {
		return 0, 0
	}

	var pnl float64
	if hasPnLColumn(trades) {
		for _, t := range window {
			pnl += t.PnL
		}
	} else {
		var buyValue, sellValue float64
		for _, t := range window {
			switch t.Side {
			case models.SideBuy:
				buyValue += tradeValue(t)
			case models.SideSell:
				sellValue += tradeValue(t)
			}
		}
		pnl = sellValue - buyValue
	}

	var traded float64
	for _, t := range window {
		traded += tradeValue(t)
	}

	// Half the total traded value as a rough estimate of capital invested.
	investment := traded / 2
	if investment <= 0 {
		return pnl, 0
	}
	return pnl, pnl / investment * 100
}

// Volume sums the traded USD value over the window ending at now.
func Volume(trades []models.Trade, period Period, now time.Time) float64 {
	var total float64
	for _, t := range tradesInWindow(trades, period, now) {
		total += tradeValue(t)
	}
	return total
}

func tradesInWindow(trades []models.Trade, period Period, now time.Time) []models.Trade {
	start := now.AddDate(0, 0, -period.Days())
	window := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if t.Timestamp.Before(start) {
			continue
		}
		window = append(window, t)
	}
	return window
}

// hasPnLColumn reports whether the trade set carries a pnl column, i.e.
// every row has one. Mirrors the column-level check of the source data.
func hasPnLColumn(trades []models.Trade) bool {
	for _, t := range trades {
		if !t.HasPnL {
			return false
		}
	}
	return len(trades) > 0
}

func tradeValue(t models.Trade) float64 {
	if t.ValueUSD != 0 {
		return t.ValueUSD
	}
	return t.Size * t.Price
}
