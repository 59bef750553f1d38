package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OptionType is the contract type: call or put.
type OptionType string

const (
	OptionCall OptionType = "C"
	OptionPut  OptionType = "P"
)

// Option is a single contract identified by its normalized ticker
// ("SYMBOL YYMMDDC########", strike in fixed-point thousandths zero-padded to
// eight digits). Strike, expiry and type are fixed at creation; only the
// price snapshot fields change afterwards.
type Option struct {
	Base
	Ticker            string     `gorm:"uniqueIndex;not null" json:"ticker"`
	FundID            uint       `gorm:"not null" json:"fund_id"`
	Type              OptionType `gorm:"size:3;not null" json:"type"`
	StrikePrice       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"strike_price"`
	ExpirationDate    time.Time  `gorm:"not null" json:"expiration_date"`
	UnderlyingAssetID uint       `gorm:"not null" json:"underlying_asset_id"`

	// Price snapshot near trade time, filled by the price feed collaborator.
	Price             *decimal.Decimal `gorm:"type:decimal(10,2)" json:"price,omitempty"`
	PriceSnapshotDate *time.Time       `json:"price_snapshot_date,omitempty"`

	Fund            Fund            `gorm:"foreignKey:FundID" json:"-"`
	UnderlyingAsset UnderlyingAsset `gorm:"foreignKey:UnderlyingAssetID" json:"underlying_asset,omitempty"`
	Trades          []Trade         `gorm:"foreignKey:OptionID" json:"trades,omitempty"`
	Positions       []Position      `gorm:"foreignKey:OptionID" json:"positions,omitempty"`
}

// PercentOutOfMoneyAt returns how far out of the money the contract is at the
// given underlying price, as a percentage of that price. Returns nil when the
// price is zero.
func (o *Option) PercentOutOfMoneyAt(price decimal.Decimal) *decimal.Decimal {
	if price.IsZero() {
		return nil
	}
	var diff decimal.Decimal
	if o.Type == OptionCall {
		diff = o.StrikePrice.Sub(price)
	} else {
		diff = price.Sub(o.StrikePrice)
	}
	pct := diff.Div(price).Mul(decimal.NewFromInt(100))
	return &pct
}

// PercentOutOfMoneyLive uses the underlying's live price snapshot.
func (o *Option) PercentOutOfMoneyLive() *decimal.Decimal {
	if o.UnderlyingAsset.LivePrice == nil {
		return nil
	}
	return o.PercentOutOfMoneyAt(*o.UnderlyingAsset.LivePrice)
}

// AnnualYield annualizes the opening short premium against the capital at
// risk at the strike: (premium / strike) * (365 / days to expiry) * 100,
// rounded to two decimals. Days get a weekend buffer of 2 under a week and
// 3 otherwise. Returns nil when no sell or short-sell trade exists, the
// strike is zero, or the opening trade is on or after expiry.
func (o *Option) AnnualYield() *decimal.Decimal {
	var opening *Trade
	for i := range o.Trades {
		t := &o.Trades[i]
		if t.Type == TradeSell || t.Type == TradeShortSell {
			opening = t
			break
		}
	}
	if opening == nil || o.StrikePrice.IsZero() {
		return nil
	}

	days := int(o.ExpirationDate.Truncate(24*time.Hour).
		Sub(opening.Date.Truncate(24*time.Hour)).Hours() / 24)
	if days <= 0 {
		return nil
	}
	if days < 7 {
		days += 2
	} else {
		days += 3
	}

	yield := opening.Price.Div(o.StrikePrice).
		Mul(decimal.NewFromInt(365)).
		Div(decimal.NewFromInt(int64(days))).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	return &yield
}

// Breakeven returns the underlying price at which the contract breaks even
// given the premium of the opening trade: strike plus premium for calls,
// strike minus premium for puts. Returns nil when no trades exist yet.
func (o *Option) Breakeven() *decimal.Decimal {
	if len(o.Trades) == 0 {
		return nil
	}
	premium := o.Trades[0].Price
	var be decimal.Decimal
	if o.Type == OptionPut {
		be = o.StrikePrice.Sub(premium)
	} else {
		be = o.StrikePrice.Add(premium)
	}
	return &be
}
