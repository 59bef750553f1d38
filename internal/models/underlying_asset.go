package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnderlyingAsset is the equity a set of options is written on. LivePrice is
// a snapshot maintained by the price refresh job; it is display data only and
// never feeds the reconciliation engine.
type UnderlyingAsset struct {
	Base
	Name               string           `gorm:"uniqueIndex;not null" json:"name"`
	QuoteSymbol        string           `gorm:"size:50" json:"quote_symbol"`
	Description        string           `json:"description,omitempty"`
	LivePrice          *decimal.Decimal `gorm:"type:decimal(10,2)" json:"live_price,omitempty"`
	LivePriceUpdatedAt *time.Time       `json:"live_price_updated_at,omitempty"`

	Options []Option `gorm:"foreignKey:UnderlyingAssetID" json:"options,omitempty"`
}
