package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeType is one of the four recognized trade intents.
type TradeType string

const (
	TradeBuy        TradeType = "B"
	TradeSell       TradeType = "S"
	TradeShortSell  TradeType = "SS"
	TradeBuyToClose TradeType = "BC"
)

// Valid reports whether t is one of the four recognized trade types.
func (t TradeType) Valid() bool {
	switch t {
	case TradeBuy, TradeSell, TradeShortSell, TradeBuyToClose:
		return true
	}
	return false
}

// IsDebit reports whether the trade type moves cash out of the account.
func (t TradeType) IsDebit() bool {
	return t == TradeBuy || t == TradeBuyToClose
}

// Trade is an immutable record of one executed trade. Quantity is stored as
// an absolute contract count; the direction lives in Type. TotalPrice is
// always derived at write time (quantity * price * 100, negated for debit
// types, minus commission) and never set independently.
type Trade struct {
	Base
	OptionID   uint            `gorm:"not null" json:"option_id"`
	PositionID *uint           `json:"position_id,omitempty"` // last lot touched; nil until applied
	Type       TradeType       `gorm:"size:2;not null" json:"type"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	Commission decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"commission"`
	Date       time.Time       `gorm:"not null" json:"date"`

	ImportBatchID *string `gorm:"type:uuid" json:"import_batch_id,omitempty"`

	Option   Option    `gorm:"foreignKey:OptionID" json:"-"`
	Position *Position `gorm:"foreignKey:PositionID" json:"-"`
}

// contractMultiplier converts a per-share option premium into a per-contract
// amount. Standard equity options deliver 100 shares.
var contractMultiplier = decimal.NewFromInt(100)

// ComputeTotalPrice derives the signed cash effect of a trade: quantity times
// per-unit price times the contract multiplier, negated for buy-side types,
// minus commission.
func ComputeTotalPrice(tradeType TradeType, quantity int, price, commission decimal.Decimal) decimal.Decimal {
	total := decimal.NewFromInt(int64(quantity)).Mul(price).Mul(contractMultiplier)
	if tradeType.IsDebit() {
		total = total.Neg()
	}
	return total.Sub(commission)
}
