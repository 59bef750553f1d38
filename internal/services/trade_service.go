package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fundflow/internal/errors"
	"fundflow/internal/logger"
	"fundflow/internal/models"
	"fundflow/internal/pagination"
	"fundflow/internal/ticker"
)

// tradeService owns the immutable trade ledger and the submit pipeline that
// drives the reconciliation engine and summary aggregator from it.
type tradeService struct {
	db        *gorm.DB
	positions PositionServicer
	summaries SummaryServicer
}

// NewTradeService creates a new TradeServicer.
func NewTradeService(db *gorm.DB, positions PositionServicer, summaries SummaryServicer) TradeServicer {
	return &tradeService{db: db, positions: positions, summaries: summaries}
}

// RecordTrade validates the input and appends the trade row. The total price
// is always derived here; callers never supply it.
func (s *tradeService) RecordTrade(tx *gorm.DB, option *models.Option, input SubmitTradeInput) (*models.Trade, error) {
	if err := validateTradeInput(input); err != nil {
		return nil, err
	}

	trade := &models.Trade{
		OptionID:      option.ID,
		Type:          input.Type,
		Quantity:      input.Quantity,
		Price:         input.Price,
		TotalPrice:    models.ComputeTotalPrice(input.Type, input.Quantity, input.Price, input.Commission),
		Commission:    input.Commission,
		Date:          input.Date,
		ImportBatchID: input.ImportBatchID,
	}
	if err := tx.Create(trade).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return trade, nil
}

func validateTradeInput(input SubmitTradeInput) error {
	if !input.Type.Valid() {
		return apperrors.WithMessage(apperrors.ErrValidation,
			fmt.Sprintf("Unknown trade type %q", input.Type))
	}
	if input.Quantity <= 0 {
		return apperrors.WithMessage(apperrors.ErrValidation, "Quantity must be a positive contract count")
	}
	if input.Price.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrValidation, "Price cannot be negative")
	}
	if input.Commission.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrValidation, "Commission cannot be negative")
	}
	if input.Date.IsZero() {
		return apperrors.WithMessage(apperrors.ErrValidation, "Trade date is required")
	}
	return nil
}

// SubmitTrade runs the full pipeline in one transaction: resolve or create
// the option, append the ledger row, reconcile positions, and feed the
// period summaries. The (option, fund) writer lock is held across the whole
// transaction so concurrent submits for the same contract cannot interleave.
func (s *tradeService) SubmitTrade(input SubmitTradeInput) (*SubmitTradeResult, error) {
	if err := validateTradeInput(input); err != nil {
		return nil, err
	}

	fund, err := s.getFund(input.FundID)
	if err != nil {
		return nil, err
	}

	parsed, err := ticker.Parse(input.Symbol)
	if err != nil {
		return nil, err
	}

	release := s.positions.Serialize(fund.ID, parsed.Ticker)
	defer release()

	var result *SubmitTradeResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		option, err := s.resolveOption(tx, fund, parsed)
		if err != nil {
			return err
		}
		result, err = s.run(tx, fund, option, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	logClosedQuantity(result, parsed.Ticker, fund.ID)
	return result, nil
}

// logClosedQuantity reports a FIFO drain once its transaction has committed.
// A rolled-back close never reaches this point.
func logClosedQuantity(result *SubmitTradeResult, optionTicker string, fundID uint) {
	if !drainedLots(result) {
		return
	}
	logger.Get().Infow("closed position quantity",
		"ticker", optionTicker,
		"fund_id", fundID,
		"quantity", result.Trade.Quantity,
	)
}

// drainedLots reports whether a submit consumed open lots instead of opening
// one. Lots are stamped with their opening trade type, so a trade drained
// exactly when its type differs from the linked lot's.
func drainedLots(result *SubmitTradeResult) bool {
	return result.Created && result.Trade.Type != result.Position.TradeType
}

// run executes the pipeline stages inside an open transaction with the
// writer lock held.
func (s *tradeService) run(tx *gorm.DB, fund *models.Fund, option *models.Option, input SubmitTradeInput) (*SubmitTradeResult, error) {
	if input.SkipDuplicate {
		existing, err := s.findDuplicate(tx, option, input)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			logger.Get().Infow("skipped duplicate trade",
				"ticker", option.Ticker,
				"type", input.Type,
				"quantity", input.Quantity,
				"date", input.Date.Format("2006-01-02"),
			)
			return &SubmitTradeResult{Trade: existing, Position: existing.Position, Created: false}, nil
		}
	}

	trade, err := s.RecordTrade(tx, option, input)
	if err != nil {
		return nil, err
	}

	position, err := s.positions.ApplyTrade(tx, fund, option, trade)
	if err != nil {
		return nil, err
	}

	trade.PositionID = &position.ID
	if err := tx.Model(trade).Update("position_id", position.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Summaries are fed only on this created path. Contribute is not
	// idempotent; the duplicate short-circuit above is what keeps
	// re-imported statements from double-counting.
	if err := s.summaries.Contribute(tx, fund, trade.Date, trade.TotalPrice); err != nil {
		return nil, err
	}

	return &SubmitTradeResult{Trade: trade, Position: position, Created: true}, nil
}

// findDuplicate looks for an already-recorded trade identical in every
// ledger field. Used by statement re-imports.
func (s *tradeService) findDuplicate(tx *gorm.DB, option *models.Option, input SubmitTradeInput) (*models.Trade, error) {
	var trade models.Trade
	err := tx.Preload("Position").
		Where("option_id = ? AND type = ? AND quantity = ? AND price = ? AND commission = ? AND date = ?",
			option.ID, input.Type, input.Quantity, input.Price, input.Commission, input.Date).
		First(&trade).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &trade, nil
}

// GetOrCreateOption resolves the option identified by a raw broker symbol,
// creating the underlying asset and option rows on first sight.
func (s *tradeService) GetOrCreateOption(tx *gorm.DB, fund *models.Fund, symbol string) (*models.Option, error) {
	parsed, err := ticker.Parse(symbol)
	if err != nil {
		return nil, err
	}
	return s.resolveOption(tx, fund, parsed)
}

func (s *tradeService) resolveOption(tx *gorm.DB, fund *models.Fund, parsed *ticker.Parsed) (*models.Option, error) {
	var option models.Option
	err := tx.Preload("UnderlyingAsset").Where("ticker = ?", parsed.Ticker).First(&option).Error
	if err == nil {
		return &option, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	asset := models.UnderlyingAsset{Name: parsed.Underlying}
	if err := tx.Where("name = ?", parsed.Underlying).
		Attrs(models.UnderlyingAsset{QuoteSymbol: parsed.Underlying}).
		FirstOrCreate(&asset).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	option = models.Option{
		Ticker:            parsed.Ticker,
		FundID:            fund.ID,
		Type:              models.OptionType(parsed.OptionType),
		StrikePrice:       parsed.Strike,
		ExpirationDate:    parsed.Expiry,
		UnderlyingAssetID: asset.ID,
	}
	if err := tx.Create(&option).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	option.UnderlyingAsset = asset

	logger.Get().Infow("created option",
		"ticker", option.Ticker,
		"fund_id", fund.ID,
	)
	return &option, nil
}

// GetOptionByTicker returns the option for a normalized ticker.
func (s *tradeService) GetOptionByTicker(t string) (*models.Option, error) {
	var option models.Option
	err := s.db.Preload("UnderlyingAsset").Preload("Trades", func(db *gorm.DB) *gorm.DB {
		return db.Order("date ASC, id ASC")
	}).Where("ticker = ?", t).First(&option).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOptionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &option, nil
}

// GetOptionTrades returns a paginated ledger for one option, oldest first.
func (s *tradeService) GetOptionTrades(optionID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Trade], error) {
	page.Defaults()

	base := s.db.Model(&models.Trade{}).Where("option_id = ?", optionID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var trades []models.Trade
	if err := base.Order("date ASC, id ASC").
		Scopes(pagination.Paginate(page)).Find(&trades).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(trades, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// ClosePosition submits the trade that offsets an open lot: buy-to-close for
// short lots, sell for long lots. The engine drains lots FIFO, so the
// submitted quantity may also consume older lots of the same contract.
func (s *tradeService) ClosePosition(positionID uint, quantity int, price, commission decimal.Decimal, date time.Time) (*SubmitTradeResult, error) {
	position, err := s.positions.GetPositionByID(positionID)
	if err != nil {
		return nil, err
	}
	if !position.Active {
		return nil, apperrors.ErrPositionClosed
	}

	fund, err := s.getFund(position.FundID)
	if err != nil {
		return nil, err
	}

	input := SubmitTradeInput{
		FundID:     position.FundID,
		Type:       offsettingType(position.TradeType),
		Quantity:   quantity,
		Price:      price,
		Commission: commission,
		Date:       date,
	}
	if err := validateTradeInput(input); err != nil {
		return nil, err
	}

	option := position.Option
	release := s.positions.Serialize(fund.ID, option.Ticker)
	defer release()

	var result *SubmitTradeResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		result, err = s.run(tx, fund, &option, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	logClosedQuantity(result, option.Ticker, fund.ID)
	return result, nil
}

// ExpirePosition closes the full remaining quantity of a lot at zero
// premium. The lot keeps the profit of its opening trade; expiry adds no
// cash movement.
func (s *tradeService) ExpirePosition(positionID uint, date time.Time) (*SubmitTradeResult, error) {
	position, err := s.positions.GetPositionByID(positionID)
	if err != nil {
		return nil, err
	}
	if !position.Active {
		return nil, apperrors.ErrPositionClosed
	}
	return s.ClosePosition(positionID, position.RemainingQuantity, decimal.Zero, decimal.Zero, date)
}

// offsettingType maps an open lot's type to the trade type that closes it.
func offsettingType(opened models.TradeType) models.TradeType {
	if opened == models.TradeSell || opened == models.TradeShortSell {
		return models.TradeBuyToClose
	}
	return models.TradeSell
}

func (s *tradeService) getFund(fundID uint) (*models.Fund, error) {
	var fund models.Fund
	if err := s.db.First(&fund, fundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrFundNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &fund, nil
}
