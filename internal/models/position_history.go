package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionHistory is the append-only audit trail of position state. One row
// is written after every position mutation; rows are never updated or
// deleted.
type PositionHistory struct {
	Base
	PositionID        uint            `gorm:"not null;index" json:"position_id"`
	Date              time.Time       `gorm:"not null" json:"date"`
	RemainingQuantity int             `gorm:"not null" json:"remaining_quantity"`
	AveragePrice      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"average_price"`
	ProfitLoss        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"profit_loss"`

	Position Position `gorm:"foreignKey:PositionID" json:"-"`
}
