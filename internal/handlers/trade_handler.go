package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fundflow/internal/errors"
	"fundflow/internal/models"
	"fundflow/internal/pagination"
	"fundflow/internal/services"
)

// TradeHandler handles trade submission and option lookups.
type TradeHandler struct {
	tradeService services.TradeServicer
	fundService  services.FundServicer
	auditService services.AuditServicer
}

// NewTradeHandler creates a new TradeHandler.
func NewTradeHandler(tradeService services.TradeServicer, fundService services.FundServicer, auditService services.AuditServicer) *TradeHandler {
	return &TradeHandler{tradeService: tradeService, fundService: fundService, auditService: auditService}
}

// SubmitTradeRequest represents the request payload for submitting a trade.
// Symbol is the 4-token option form, e.g. "TSLA 25OCT24 232.50 C".
type SubmitTradeRequest struct {
	FundID        uint             `json:"fund_id" binding:"required"`
	Symbol        string           `json:"symbol" binding:"required,max=64"`
	Type          models.TradeType `json:"type" binding:"required,trade_type"`
	Quantity      int              `json:"quantity" binding:"required,gt=0"`
	Price         decimal.Decimal  `json:"price" binding:"required"`
	Commission    decimal.Decimal  `json:"commission"`
	Date          *string          `json:"date"`
	SkipDuplicate bool             `json:"skip_duplicate"`
}

// SubmitTrade records a trade and reconciles it against the fund's open
// positions in one transaction.
func (h *TradeHandler) SubmitTrade(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SubmitTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	tradeDate := time.Now().UTC()
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		tradeDate = parsed
	}

	result, err := h.tradeService.SubmitTrade(services.SubmitTradeInput{
		FundID:        req.FundID,
		Symbol:        req.Symbol,
		Type:          req.Type,
		Quantity:      req.Quantity,
		Price:         req.Price,
		Commission:    req.Commission,
		Date:          tradeDate,
		SkipDuplicate: req.SkipDuplicate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	if result.Created {
		h.auditService.Log(userID, "SUBMIT_TRADE", "trade", result.Trade.ID, c.ClientIP(),
			map[string]interface{}{"fund_id": req.FundID, "symbol": req.Symbol, "type": req.Type, "quantity": req.Quantity})
		c.JSON(http.StatusCreated, gin.H{"trade": result.Trade, "position": result.Position, "created": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{"trade": result.Trade, "position": result.Position, "created": false})
}

// GetOption returns an option with its underlying asset and trade ledger,
// looked up by normalized ticker.
func (h *TradeHandler) GetOption(c *gin.Context) {
	ticker := c.Param("ticker")
	if ticker == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "ticker is required"))
		return
	}

	option, err := h.tradeService.GetOptionByTicker(ticker)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"option":               option,
		"breakeven":            option.Breakeven(),
		"annual_yield":         option.AnnualYield(),
		"percent_out_of_money": option.PercentOutOfMoneyLive(),
	})
}

// GetOptionTrades lists an option's trades oldest first.
func (h *TradeHandler) GetOptionTrades(c *gin.Context) {
	optionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.tradeService.GetOptionTrades(optionID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
