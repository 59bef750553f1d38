package models

import "github.com/shopspring/decimal"

// Fund groups options and holdings under either a company (a tracked ETF like
// ULTY) or a user's broker account (a personal fund named after the
// underlying). TotalProfit is the cumulative realized profit across all of
// the fund's trades and holding sales.
type Fund struct {
	Base
	Name        string `gorm:"size:25;not null;uniqueIndex:uq_funds_name_broker;uniqueIndex:uq_funds_name_company" json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`

	BrokerAccountID *uint `gorm:"uniqueIndex:uq_funds_name_broker" json:"broker_account_id,omitempty"`
	CompanyID       *uint `gorm:"uniqueIndex:uq_funds_name_company" json:"company_id,omitempty"`

	TotalProfit decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_profit"`

	BrokerAccount *BrokerAccount `gorm:"foreignKey:BrokerAccountID" json:"broker_account,omitempty"`
	Company       *Company       `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Options       []Option       `gorm:"foreignKey:FundID" json:"options,omitempty"`
	Positions     []Position     `gorm:"foreignKey:FundID" json:"positions,omitempty"`
	Holdings      []Holding      `gorm:"foreignKey:FundID" json:"holdings,omitempty"`
}
