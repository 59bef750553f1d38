package services

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fundflow/internal/errors"
	"fundflow/internal/models"
	"fundflow/internal/pagination"
)

// positionService is the position reconciliation engine. It is the only code
// that mutates Position rows: trades either open a new lot or drain existing
// lots oldest-first, and every mutation leaves a PositionHistory row behind.
type positionService struct {
	db *gorm.DB

	// Per-(option, fund) write locks. FIFO closing reads a list of active
	// lots and mutates several of them; interleaved writers could
	// double-close a lot, so writers for the same pair are serialized.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPositionService creates a new PositionServicer.
func NewPositionService(db *gorm.DB) PositionServicer {
	return &positionService{db: db, locks: make(map[string]*sync.Mutex)}
}

// Serialize acquires the single-writer lock for an (option, fund) pair and
// returns its release function. The lock must be held across the whole
// transaction that applies a trade, not just the FIFO walk.
func (s *positionService) Serialize(fundID uint, optionTicker string) func() {
	key := fmt.Sprintf("%d|%s", fundID, optionTicker)

	s.mu.Lock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// ApplyTrade updates position state for one recorded trade.
//
// A trade whose type runs opposite to the open exposure drains active lots
// oldest-first (FIFO); otherwise it opens a new lot. BC only ever closes.
// Profit is attributed to each drained lot proportionally to the quantity
// taken from it. The last lot touched is returned so the caller can link the
// trade to it.
//
// All writes go through tx; returning an error rolls back every mutation of
// this apply, so a failed close never leaves lots half-drained.
func (s *positionService) ApplyTrade(tx *gorm.DB, fund *models.Fund, option *models.Option, trade *models.Trade) (*models.Position, error) {
	switch trade.Type {
	case models.TradeBuyToClose:
		return s.closeFIFO(tx, fund, option, trade)

	case models.TradeSell, models.TradeShortSell:
		active, err := s.firstActive(tx, fund, option)
		if err != nil {
			return nil, err
		}
		if active != nil && active.TradeType != models.TradeSell && active.TradeType != models.TradeShortSell {
			// Open exposure is long; this sell drains it.
			return s.closeFIFO(tx, fund, option, trade)
		}
		return s.openLot(tx, fund, option, trade)

	case models.TradeBuy:
		active, err := s.firstActive(tx, fund, option)
		if err != nil {
			return nil, err
		}
		if active != nil && active.TradeType != models.TradeBuy {
			// Open exposure is short; this buy drains it.
			return s.closeFIFO(tx, fund, option, trade)
		}
		return s.openLot(tx, fund, option, trade)
	}

	return nil, apperrors.WithMessage(apperrors.ErrValidation,
		fmt.Sprintf("Unsupported trade type %q", trade.Type))
}

// firstActive returns the oldest active lot for the pair, or nil.
func (s *positionService) firstActive(tx *gorm.DB, fund *models.Fund, option *models.Option) (*models.Position, error) {
	var position models.Position
	err := tx.Where("option_id = ? AND fund_id = ? AND active = ?", option.ID, fund.ID, true).
		Order("date ASC, id ASC").
		First(&position).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &position, nil
}

// openLot creates a fresh lot carrying the full trade quantity.
func (s *positionService) openLot(tx *gorm.DB, fund *models.Fund, option *models.Option, trade *models.Trade) (*models.Position, error) {
	quantity := trade.Quantity
	if quantity < 0 {
		quantity = -quantity
	}

	position := &models.Position{
		OptionID:          option.ID,
		FundID:            fund.ID,
		RemainingQuantity: quantity,
		AveragePrice:      trade.Price,
		ProfitLoss:        trade.TotalPrice,
		TradeType:         trade.Type,
		Date:              trade.Date,
		Active:            true,
		Commission:        trade.Commission.Mul(decimal.NewFromInt(int64(quantity))),
	}
	if err := tx.Create(position).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.appendHistory(tx, position, trade); err != nil {
		return nil, err
	}
	return position, nil
}

// closeFIFO drains active lots oldest-first until the trade quantity is
// fully consumed. Profit attribution per lot is proportional:
// (closingQty / trade.quantity) * trade.totalPrice. Commission accumulates
// as trade.commission * |trade.quantity| onto each touched lot.
func (s *positionService) closeFIFO(tx *gorm.DB, fund *models.Fund, option *models.Option, trade *models.Trade) (*models.Position, error) {
	var positions []models.Position
	if err := tx.Where("option_id = ? AND fund_id = ? AND active = ?", option.ID, fund.ID, true).
		Order("date ASC, id ASC").
		Find(&positions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if len(positions) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrNoOpenPosition,
			fmt.Sprintf("No open position to close for %s", option.Ticker))
	}

	tradeQty := decimal.NewFromInt(int64(trade.Quantity))
	commission := trade.Commission.Mul(tradeQty.Abs())

	remaining := trade.Quantity
	var last *models.Position

	for i := range positions {
		if remaining <= 0 {
			break
		}
		position := &positions[i]

		closing := min(remaining, position.RemainingQuantity)
		proportional := trade.TotalPrice.
			Mul(decimal.NewFromInt(int64(closing))).
			Div(tradeQty)

		position.ProfitLoss = position.ProfitLoss.Add(proportional)
		position.RemainingQuantity -= closing
		position.Commission = position.Commission.Add(commission)
		if position.RemainingQuantity <= 0 {
			position.RemainingQuantity = 0
			position.Active = false
		}

		if err := tx.Save(position).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		remaining -= closing
		last = position
	}

	if remaining > 0 {
		// Error return rolls back the whole apply; no lot stays
		// half-drained after a shortfall.
		return nil, apperrors.WithMessage(apperrors.ErrInsufficientPosition,
			fmt.Sprintf("Cannot close %d of %s, only %d contracts are open",
				trade.Quantity, option.Ticker, trade.Quantity-remaining))
	}

	if err := s.appendHistory(tx, last, trade); err != nil {
		return nil, err
	}
	return last, nil
}

// appendHistory writes the audit row for the lot's state after a mutation.
func (s *positionService) appendHistory(tx *gorm.DB, position *models.Position, trade *models.Trade) error {
	history := &models.PositionHistory{
		PositionID:        position.ID,
		Date:              trade.Date,
		RemainingQuantity: position.RemainingQuantity,
		AveragePrice:      position.AveragePrice,
		ProfitLoss:        position.ProfitLoss,
	}
	if err := tx.Create(history).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetPositionByID returns a position with its option preloaded.
func (s *positionService) GetPositionByID(positionID uint) (*models.Position, error) {
	var position models.Position
	if err := s.db.Preload("Option").Preload("Option.UnderlyingAsset").
		First(&position, positionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPositionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &position, nil
}

// GetFundPositions returns a paginated list of a fund's positions, newest
// first, optionally restricted to open lots.
func (s *positionService) GetFundPositions(fundID uint, activeOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.Position], error) {
	page.Defaults()

	base := s.db.Model(&models.Position{}).Where("fund_id = ?", fundID)
	if activeOnly {
		base = base.Where("active = ?", true)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var positions []models.Position
	if err := base.Preload("Option").Order("date DESC, id DESC").
		Scopes(pagination.Paginate(page)).Find(&positions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(positions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetPositionHistory returns the append-only history rows for a lot, oldest
// first.
func (s *positionService) GetPositionHistory(positionID uint) ([]models.PositionHistory, error) {
	var history []models.PositionHistory
	if err := s.db.Where("position_id = ?", positionID).
		Order("id ASC").Find(&history).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return history, nil
}
