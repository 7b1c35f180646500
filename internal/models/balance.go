package models

import (
	"time"

	"gorm.io/gorm"
)

// Balance is a point-in-time balance snapshot row. One row per
// (wallet, coin) per snapshot. Rows are immutable once written; an
// "update" is a new row with the current timestamp.
type Balance struct {
	gorm.Model
	Wallet    string    `json:"wallet" gorm:"not null;index"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;index"`
	Coin      string    `json:"coin" gorm:"not null"`
	Amount    float64   `json:"amount" gorm:"not null"`
	Price     float64   `json:"price"`
	ValueUSD  float64   `json:"value_usd"`
}

// TableName keeps the table name aligned with the persisted schema.
func (Balance) TableName() string { return "balances" }
