package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is one lot of open exposure in an option for a fund. It is created
// by an opening trade and drained oldest-first by closing trades. Once
// RemainingQuantity reaches zero the lot is marked inactive, permanently:
// reopening exposure always creates a new row.
type Position struct {
	Base
	OptionID uint `gorm:"not null;index:idx_positions_option_fund" json:"option_id"`
	FundID   uint `gorm:"not null;index:idx_positions_option_fund" json:"fund_id"`

	RemainingQuantity int             `gorm:"not null" json:"remaining_quantity"`
	AveragePrice      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"average_price"`
	ProfitLoss        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"profit_loss"`
	TradeType         TradeType       `gorm:"size:2;not null" json:"trade_type"` // type of the opening trade
	Date              time.Time       `gorm:"not null" json:"date"`              // open date, FIFO ordering key
	Active            bool            `gorm:"not null;default:true" json:"active"`
	Commission        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"commission"`

	Option  Option            `gorm:"foreignKey:OptionID" json:"option,omitempty"`
	Fund    Fund              `gorm:"foreignKey:FundID" json:"-"`
	Trades  []Trade           `gorm:"foreignKey:PositionID" json:"trades,omitempty"`
	History []PositionHistory `gorm:"foreignKey:PositionID" json:"history,omitempty"`
}

// TotalReturn is realized profit relative to the capital still deployed in
// the lot. Nil once the lot is fully closed.
func (p *Position) TotalReturn() *decimal.Decimal {
	if p.RemainingQuantity == 0 {
		return nil
	}
	deployed := p.AveragePrice.Mul(decimal.NewFromInt(int64(p.RemainingQuantity)))
	if deployed.IsZero() {
		return nil
	}
	r := p.ProfitLoss.Div(deployed)
	return &r
}
