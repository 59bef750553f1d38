package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Profit summaries accumulate realized profit into calendar windows. A row is
// keyed by (entity, start, end) and created lazily on the first contribution
// to that window; after that it is only ever incremented. The same row shape
// exists per fund, per company, and per broker account.

// FundProfitSummary is the per-fund periodic profit row.
type FundProfitSummary struct {
	Base
	FundID    uint      `gorm:"not null;uniqueIndex:uq_fund_summaries_window" json:"fund_id"`
	StartDate time.Time `gorm:"not null;uniqueIndex:uq_fund_summaries_window" json:"start_date"`
	EndDate   time.Time `gorm:"not null;uniqueIndex:uq_fund_summaries_window" json:"end_date"`

	WeeklyProfit   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"weekly_profit"`
	MonthlyProfit  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"monthly_profit"`
	AnnuallyProfit decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"annually_profit"`

	Fund Fund `gorm:"foreignKey:FundID" json:"-"`
}

// CompanyProfitSummary is the per-company periodic profit row.
type CompanyProfitSummary struct {
	Base
	CompanyID uint      `gorm:"not null;uniqueIndex:uq_company_summaries_window" json:"company_id"`
	StartDate time.Time `gorm:"not null;uniqueIndex:uq_company_summaries_window" json:"start_date"`
	EndDate   time.Time `gorm:"not null;uniqueIndex:uq_company_summaries_window" json:"end_date"`

	WeeklyProfit   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"weekly_profit"`
	MonthlyProfit  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"monthly_profit"`
	AnnuallyProfit decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"annually_profit"`

	Company Company `gorm:"foreignKey:CompanyID" json:"-"`
}

// BrokerProfitSummary is the per-broker-account periodic profit row.
type BrokerProfitSummary struct {
	Base
	BrokerAccountID uint      `gorm:"not null;uniqueIndex:uq_broker_summaries_window" json:"broker_account_id"`
	StartDate       time.Time `gorm:"not null;uniqueIndex:uq_broker_summaries_window" json:"start_date"`
	EndDate         time.Time `gorm:"not null;uniqueIndex:uq_broker_summaries_window" json:"end_date"`

	WeeklyProfit   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"weekly_profit"`
	MonthlyProfit  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"monthly_profit"`
	AnnuallyProfit decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"annually_profit"`

	BrokerAccount BrokerAccount `gorm:"foreignKey:BrokerAccountID" json:"-"`
}
