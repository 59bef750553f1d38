package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fundflow/internal/errors"
	"fundflow/internal/models"
	"fundflow/internal/pagination"
)

// holdingService manages equity holdings carried at average cost. Buys fold
// into the running average; sells realize profit against it. Every mutation
// appends a snapshot row for charting.
type holdingService struct {
	db      *gorm.DB
	brokers BrokerServicer
	funds   FundServicer
}

// NewHoldingService creates a new HoldingServicer.
func NewHoldingService(db *gorm.DB, brokers BrokerServicer, funds FundServicer) HoldingServicer {
	return &holdingService{db: db, brokers: brokers, funds: funds}
}

// Buy accumulates shares into the (broker, fund, asset) holding. The fund
// and asset rows are created on first sight, with the fund named after the
// underlying.
func (s *holdingService) Buy(tx *gorm.DB, broker *models.BrokerAccount, symbol string, quantity, price decimal.Decimal) (*models.Holding, error) {
	if quantity.Sign() <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity must be positive")
	}
	if price.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "price cannot be negative")
	}

	holding, err := s.resolveHolding(tx, broker, symbol)
	if err != nil {
		return nil, err
	}

	holding.TotalCost = holding.TotalCost.Add(quantity.Mul(price))
	holding.Quantity = holding.Quantity.Add(quantity)
	holding.AveragePrice = holding.TotalCost.Div(holding.Quantity)

	if err := tx.Save(holding).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.appendSnapshot(tx, holding); err != nil {
		return nil, err
	}
	return holding, nil
}

// Sell reduces the holding, realizing profit against the average cost of the
// shares sold. Selling more than is held fails without mutating anything.
func (s *holdingService) Sell(tx *gorm.DB, broker *models.BrokerAccount, symbol string, quantity, price decimal.Decimal) (*models.Holding, decimal.Decimal, error) {
	if quantity.Sign() <= 0 {
		return nil, decimal.Zero, apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity must be positive")
	}
	if price.IsNegative() {
		return nil, decimal.Zero, apperrors.WithMessage(apperrors.ErrInvalidInput, "price cannot be negative")
	}

	holding, err := s.resolveHolding(tx, broker, symbol)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if quantity.GreaterThan(holding.Quantity) {
		return nil, decimal.Zero, apperrors.ErrInsufficientShares
	}

	costOfSold := holding.AveragePrice.Mul(quantity)
	realized := quantity.Mul(price).Sub(costOfSold)

	holding.Quantity = holding.Quantity.Sub(quantity)
	holding.TotalCost = holding.TotalCost.Sub(costOfSold)
	holding.RealizedProfit = holding.RealizedProfit.Add(realized)
	if holding.Quantity.IsZero() {
		holding.TotalCost = decimal.Zero
	}

	if err := tx.Save(holding).Error; err != nil {
		return nil, decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.appendSnapshot(tx, holding); err != nil {
		return nil, decimal.Zero, err
	}

	// Realized equity profit counts toward the fund's running total.
	if err := tx.Model(&models.Fund{}).Where("id = ?", holding.FundID).
		UpdateColumn("total_profit", gorm.Expr("total_profit + ?", realized)).Error; err != nil {
		return nil, decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return holding, realized, nil
}

// resolveHolding finds or creates the holding row for a broker and symbol,
// creating the asset and per-underlying fund as needed.
func (s *holdingService) resolveHolding(tx *gorm.DB, broker *models.BrokerAccount, symbol string) (*models.Holding, error) {
	name := strings.ToUpper(strings.TrimSpace(symbol))
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "symbol is required")
	}

	asset := models.UnderlyingAsset{Name: name}
	if err := tx.Where("name = ?", name).
		Attrs(models.UnderlyingAsset{QuoteSymbol: name}).
		FirstOrCreate(&asset).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	fund, err := s.funds.GetOrCreateFund(tx, name, broker.ID)
	if err != nil {
		return nil, err
	}

	holding := models.Holding{
		BrokerAccountID: broker.ID,
		FundID:          fund.ID,
		AssetID:         asset.ID,
	}
	if err := tx.Where("broker_account_id = ? AND fund_id = ? AND asset_id = ?",
		broker.ID, fund.ID, asset.ID).
		FirstOrCreate(&holding).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	holding.Asset = asset
	return &holding, nil
}

func (s *holdingService) appendSnapshot(tx *gorm.DB, holding *models.Holding) error {
	snapshot := &models.HoldingSnapshot{
		HoldingID:        holding.ID,
		Quantity:         holding.Quantity,
		TotalCost:        holding.TotalCost,
		RealizedProfit:   holding.RealizedProfit,
		UnrealizedProfit: holding.UnrealizedProfit(),
		TotalGainLoss:    holding.TotalGainLoss(),
		PriceAtSnapshot:  holding.Asset.LivePrice,
		SnapshotTime:     time.Now().UTC(),
	}
	if err := tx.Create(snapshot).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// RecordBuy is the handler-level buy: it checks ownership of the broker
// account and runs the mutation in its own transaction.
func (s *holdingService) RecordBuy(userID, brokerAccountID uint, symbol string, quantity, price decimal.Decimal) (*models.Holding, error) {
	broker, err := s.brokers.GetBrokerAccountByID(userID, brokerAccountID)
	if err != nil {
		return nil, err
	}

	var holding *models.Holding
	err = s.db.Transaction(func(tx *gorm.DB) error {
		holding, err = s.Buy(tx, broker, symbol, quantity, price)
		return err
	})
	if err != nil {
		return nil, err
	}
	return holding, nil
}

// RecordSell is the handler-level sell counterpart of RecordBuy.
func (s *holdingService) RecordSell(userID, brokerAccountID uint, symbol string, quantity, price decimal.Decimal) (*models.Holding, error) {
	broker, err := s.brokers.GetBrokerAccountByID(userID, brokerAccountID)
	if err != nil {
		return nil, err
	}

	var holding *models.Holding
	err = s.db.Transaction(func(tx *gorm.DB) error {
		holding, _, err = s.Sell(tx, broker, symbol, quantity, price)
		return err
	})
	if err != nil {
		return nil, err
	}
	return holding, nil
}

// GetHoldingByID returns a holding with its asset and snapshots preloaded.
func (s *holdingService) GetHoldingByID(holdingID uint) (*models.Holding, error) {
	var holding models.Holding
	err := s.db.Preload("Asset").Preload("Snapshots", func(db *gorm.DB) *gorm.DB {
		return db.Order("snapshot_time ASC")
	}).First(&holding, holdingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrHoldingNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &holding, nil
}

// GetFundHoldings returns a paginated list of a fund's holdings.
func (s *holdingService) GetFundHoldings(fundID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Holding], error) {
	page.Defaults()

	base := s.db.Model(&models.Holding{}).Where("fund_id = ?", fundID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var holdings []models.Holding
	if err := base.Preload("Asset").Order("id ASC").
		Scopes(pagination.Paginate(page)).Find(&holdings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(holdings, page.Page, page.PageSize, totalItems)
	return &result, nil
}
