package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fundflow/internal/models"
	"fundflow/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
}

// BrokerServicer defines the contract for broker account business logic.
type BrokerServicer interface {
	CreateBrokerAccount(userID uint, code models.BrokerCode, accountNumber string) (*models.BrokerAccount, error)
	GetUserBrokerAccounts(userID uint) ([]models.BrokerAccount, error)
	GetBrokerAccountByID(userID, brokerAccountID uint) (*models.BrokerAccount, error)
	GetOrCreateBrokerAccount(tx *gorm.DB, userID uint, code models.BrokerCode) (*models.BrokerAccount, error)
}

// FundServicer defines the contract for fund and company business logic.
type FundServicer interface {
	CreateCompany(name, description string) (*models.Company, error)
	GetCompanyByID(companyID uint) (*models.Company, error)
	CreateFund(name, description string, companyID, brokerAccountID *uint) (*models.Fund, error)
	GetFundByID(fundID uint) (*models.Fund, error)
	GetBrokerFunds(brokerAccountID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Fund], error)
	GetCompanyFunds(companyID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Fund], error)
	FundNameAvailable(name string, companyID, brokerAccountID *uint) (bool, error)
	GetOrCreateFund(tx *gorm.DB, name string, brokerAccountID uint) (*models.Fund, error)
}

// SubmitTradeInput carries one trade through the full pipeline: ledger
// append, position reconciliation, history, and period summaries.
type SubmitTradeInput struct {
	FundID     uint
	Symbol     string // raw 4-token option symbol, e.g. "TSLA 25OCT24 232.50 C"
	Type       models.TradeType
	Quantity   int
	Price      decimal.Decimal
	Commission decimal.Decimal
	Date       time.Time

	// ImportBatchID tags trades originating from a statement import.
	ImportBatchID *string
	// SkipDuplicate makes an identical already-recorded trade a no-op
	// instead of a double entry. Statement re-imports rely on this; the
	// summary aggregator is only fed for newly created trades.
	SkipDuplicate bool
}

// SubmitTradeResult reports what the pipeline did.
type SubmitTradeResult struct {
	Trade    *models.Trade
	Position *models.Position
	// Created is false when SkipDuplicate matched an existing trade and
	// nothing was mutated.
	Created bool
}

// TradeServicer defines the contract for the trade ledger and the submit
// pipeline built on top of it.
type TradeServicer interface {
	// RecordTrade validates the input and appends an immutable trade row
	// with its derived total price. It never touches positions.
	RecordTrade(tx *gorm.DB, option *models.Option, input SubmitTradeInput) (*models.Trade, error)
	// SubmitTrade runs the full pipeline in one transaction.
	SubmitTrade(input SubmitTradeInput) (*SubmitTradeResult, error)
	GetOrCreateOption(tx *gorm.DB, fund *models.Fund, symbol string) (*models.Option, error)
	GetOptionByTicker(ticker string) (*models.Option, error)
	GetOptionTrades(optionID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Trade], error)
	// ClosePosition submits the offsetting trade for an open lot.
	ClosePosition(positionID uint, quantity int, price, commission decimal.Decimal, date time.Time) (*SubmitTradeResult, error)
	// ExpirePosition closes the full remaining quantity of a lot at zero
	// premium (the contract expired worthless).
	ExpirePosition(positionID uint, date time.Time) (*SubmitTradeResult, error)
}

// PositionServicer defines the contract for the position reconciliation
// engine and position queries.
type PositionServicer interface {
	// ApplyTrade consumes a recorded trade, opening a new lot or draining
	// existing lots FIFO, appends a history row, and returns the last lot
	// touched. All writes ride the caller's transaction. Callers must hold
	// the serialization lock for the (option, fund) pair; see Serialize.
	ApplyTrade(tx *gorm.DB, fund *models.Fund, option *models.Option, trade *models.Trade) (*models.Position, error)
	// Serialize acquires the single-writer lock for an (option, fund) pair
	// and returns the release function.
	Serialize(fundID uint, optionTicker string) (release func())
	GetPositionByID(positionID uint) (*models.Position, error)
	GetFundPositions(fundID uint, activeOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.Position], error)
	GetPositionHistory(positionID uint) ([]models.PositionHistory, error)
}

// CurrentSummaries bundles the summary rows covering one point in time.
type CurrentSummaries struct {
	Week  *models.FundProfitSummary `json:"week,omitempty"`
	Month *models.FundProfitSummary `json:"month,omitempty"`
	Year  *models.FundProfitSummary `json:"year,omitempty"`
}

// BrokerDashboard aggregates profit across all funds of one broker account.
type BrokerDashboard struct {
	BrokerName          string          `json:"broker_name"`
	Weekly              decimal.Decimal `json:"weekly"`
	Monthly             decimal.Decimal `json:"monthly"`
	Yearly              decimal.Decimal `json:"yearly"`
	TotalOptionsProfit  decimal.Decimal `json:"total_options_profit"`
	HoldingProfitLoss   decimal.Decimal `json:"holding_profit_loss"`
	CombinedTotalProfit decimal.Decimal `json:"combined_total_profit"`
}

// SummaryServicer defines the contract for the period summary aggregator.
//
// Contribute is NOT idempotent: calling it twice for the same trade
// double-counts. Callers gate on trade creation (see SubmitTradeInput).
type SummaryServicer interface {
	Contribute(tx *gorm.DB, fund *models.Fund, tradeDate time.Time, amount decimal.Decimal) error
	GetFundSummaries(fundID uint, at time.Time) (*CurrentSummaries, error)
	GetBrokerDashboard(userID, brokerAccountID uint) (*BrokerDashboard, error)
}

// HoldingServicer defines the contract for equity holdings carried at
// average cost.
type HoldingServicer interface {
	// Buy accumulates quantity into the (broker, fund, asset) holding,
	// creating fund, asset and holding rows as needed.
	Buy(tx *gorm.DB, broker *models.BrokerAccount, symbol string, quantity, price decimal.Decimal) (*models.Holding, error)
	// Sell reduces the holding and realizes profit against average cost.
	Sell(tx *gorm.DB, broker *models.BrokerAccount, symbol string, quantity, price decimal.Decimal) (*models.Holding, decimal.Decimal, error)
	RecordBuy(userID, brokerAccountID uint, symbol string, quantity, price decimal.Decimal) (*models.Holding, error)
	RecordSell(userID, brokerAccountID uint, symbol string, quantity, price decimal.Decimal) (*models.Holding, error)
	GetHoldingByID(holdingID uint) (*models.Holding, error)
	GetFundHoldings(fundID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Holding], error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
