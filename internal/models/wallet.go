package models

// Wallet is a user-configured wallet entry. Wallets live in the config
// document only; they are never persisted. Address uniqueness is not
// enforced.
type Wallet struct {
	Label   string `mapstructure:"label" json:"label"`
	Address string `mapstructure:"address" json:"address"`
}

// SpotBalance is a raw balance row as returned by the clearinghouse
// endpoint. Total stays a string until valuation time, as on the wire.
type SpotBalance struct {
	Coin  string `json:"coin"`
	Total string `json:"total"`
}
