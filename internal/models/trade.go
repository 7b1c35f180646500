package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Trade is a fill record, either fetched from the exchange or stored as
// part of a snapshot. ValueUSD is size*price when the source does not
// supply it.
type Trade struct {
	gorm.Model
	Wallet    string    `json:"wallet" gorm:"not null;index"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;index"`
	Coin      string    `json:"coin" gorm:"not null"`
	Side      string    `json:"side" gorm:"not null"` // "buy" or "sell"
	Size      float64   `json:"size" gorm:"not null"`
	Price     float64   `json:"price" gorm:"not null"`
	Fee       float64   `json:"fee"`
	ValueUSD  float64   `json:"value_usd"`

	// PnL is set when the upstream fill carries a realized pnl of its
	// own. HasPnL distinguishes "zero pnl" from "no pnl column".
	PnL    float64 `json:"pnl,omitempty" gorm:"column:pnl"`
	HasPnL bool    `json:"has_pnl,omitempty" gorm:"-"`
}

// TableName keeps the table name aligned with the persisted schema.
func (Trade) TableName() string { return "trades" }
