package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is an equity position held in a fund, carried at average cost.
// Option assignment and manual stock trades both flow through holdings.
type Holding struct {
	Base
	BrokerAccountID uint `gorm:"not null;uniqueIndex:uq_holdings_key" json:"broker_account_id"`
	FundID          uint `gorm:"not null;uniqueIndex:uq_holdings_key" json:"fund_id"`
	AssetID         uint `gorm:"not null;uniqueIndex:uq_holdings_key" json:"asset_id"`

	Quantity       decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"quantity"`
	AveragePrice   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"average_price"`
	TotalCost      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_cost"`
	RealizedProfit decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"realized_profit"`

	BrokerAccount BrokerAccount     `gorm:"foreignKey:BrokerAccountID" json:"-"`
	Fund          Fund              `gorm:"foreignKey:FundID" json:"-"`
	Asset         UnderlyingAsset   `gorm:"foreignKey:AssetID" json:"asset,omitempty"`
	Snapshots     []HoldingSnapshot `gorm:"foreignKey:HoldingID" json:"snapshots,omitempty"`
}

// UnrealizedProfit is the gain against the asset's live price snapshot.
// Zero when no live price is known or nothing is held.
func (h *Holding) UnrealizedProfit() decimal.Decimal {
	if h.Asset.LivePrice == nil || h.Quantity.IsZero() {
		return decimal.Zero
	}
	return h.Asset.LivePrice.Mul(h.Quantity).Sub(h.TotalCost)
}

// TotalGainLoss is realized plus unrealized profit.
func (h *Holding) TotalGainLoss() decimal.Decimal {
	return h.RealizedProfit.Add(h.UnrealizedProfit())
}

// HoldingSnapshot captures holding state after each mutation, including the
// live price at the time, for charting.
type HoldingSnapshot struct {
	Base
	HoldingID uint `gorm:"not null;index" json:"holding_id"`

	Quantity         decimal.Decimal  `gorm:"type:decimal(10,4);not null" json:"quantity"`
	TotalCost        decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"total_cost"`
	RealizedProfit   decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"realized_profit"`
	UnrealizedProfit decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"unrealized_profit"`
	TotalGainLoss    decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"total_gain_loss"`
	PriceAtSnapshot  *decimal.Decimal `gorm:"type:decimal(10,2)" json:"price_at_snapshot,omitempty"`
	SnapshotTime     time.Time        `gorm:"not null" json:"snapshot_time"`

	Holding Holding `gorm:"foreignKey:HoldingID" json:"-"`
}
