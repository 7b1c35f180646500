package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"hypercore-tracker/internal/snapshot"
)

const defaultHistoryDays = 30

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log        *zap.Logger
	store      *snapshot.Store
	tradeLimit int
}

// NewAPIHandler creates a new APIHandler. tradeLimit caps the trade
// listing when the request does not set one.
func NewAPIHandler(log *zap.Logger, store *snapshot.Store, tradeLimit int) *APIHandler {
	return &APIHandler{log: log, store: store, tradeLimit: tradeLimit}
}

// BalancesHandler returns the latest stored balance rows, optionally
// filtered by ?wallet=.
func (h *APIHandler) BalancesHandler(w http.ResponseWriter, r *http.Request) {
	balances, err := h.store.LatestBalances(r.URL.Query().Get("wallet"))
	if err != nil {
		h.log.Error("Failed to get latest balances", zap.Error(err))
		http.Error(w, "Failed to get balances", http.StatusInternalServerError)
		return
	}
	writeJSON(w, balances)
}

// HistoryHandler returns balance rows within the ?days= window,
// ascending by time, optionally filtered by ?wallet=.
func (h *APIHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	days := intParam(r, "days", defaultHistoryDays)
	balances, err := h.store.HistoricalBalances(r.URL.Query().Get("wallet"), days)
	if err != nil {
		h.log.Error("Failed to get historical balances", zap.Error(err))
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, balances)
}

// TradesHandler returns the most recent stored trades, descending by
// timestamp, capped at ?limit=.
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", h.tradeLimit)
	trades, err := h.store.RecentTrades(r.URL.Query().Get("wallet"), limit)
	if err != nil {
		h.log.Error("Failed to get trades from database", zap.Error(err))
		http.Error(w, "Failed to get trades", http.StatusInternalServerError)
		return
	}
	writeJSON(w, trades)
}

// WalletValue is one per-wallet line of the stored-value summary.
type WalletValue struct {
	Wallet   string  `json:"wallet"`
	ValueUSD float64 `json:"value_usd"`
}

// SummaryResponse is the structure for the /api/summary endpoint. It is
// computed from the latest stored snapshot, not from a live fetch.
type SummaryResponse struct {
	TotalValueUSD float64       `json:"total_value_usd"`
	Wallets       []WalletValue `json:"wallets"`
}

// SummaryHandler folds the latest balance rows into per-wallet and total
// stored value.
func (h *APIHandler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	balances, err := h.store.LatestBalances("")
	if err != nil {
		h.log.Error("Failed to get balances for summary", zap.Error(err))
		http.Error(w, "Failed to calculate summary", http.StatusInternalServerError)
		return
	}

	byWallet := make(map[string]float64)
	order := make([]string, 0)
	for _, b := range balances {
		if _, seen := byWallet[b.Wallet]; !seen {
			order = append(order, b.Wallet)
		}
		byWallet[b.Wallet] += b.ValueUSD
	}

	response := SummaryResponse{Wallets: make([]WalletValue, 0, len(order))}
	for _, wallet := range order {
		response.Wallets = append(response.Wallets, WalletValue{Wallet: wallet, ValueUSD: byWallet[wallet]})
		response.TotalValueUSD += byWallet[wallet]
	}
	writeJSON(w, response)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
