package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fundflow/internal/errors"
	"fundflow/internal/pagination"
	"fundflow/internal/services"
)

// HoldingHandler handles equity holding requests.
type HoldingHandler struct {
	holdingService services.HoldingServicer
	auditService   services.AuditServicer
}

// NewHoldingHandler creates a new HoldingHandler.
func NewHoldingHandler(holdingService services.HoldingServicer, auditService services.AuditServicer) *HoldingHandler {
	return &HoldingHandler{holdingService: holdingService, auditService: auditService}
}

// HoldingTradeRequest represents the request payload for buying or selling
// shares in a broker account. Quantity supports fractional shares.
type HoldingTradeRequest struct {
	BrokerAccountID uint            `json:"broker_account_id" binding:"required"`
	Symbol          string          `json:"symbol" binding:"required,max=16"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	Price           decimal.Decimal `json:"price" binding:"required"`
}

// RecordBuy accumulates shares into the holding at average cost.
func (h *HoldingHandler) RecordBuy(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req HoldingTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	holding, err := h.holdingService.RecordBuy(userID, req.BrokerAccountID, req.Symbol, req.Quantity, req.Price)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "BUY_HOLDING", "holding", holding.ID, c.ClientIP(),
		map[string]interface{}{"symbol": req.Symbol, "quantity": req.Quantity.String(), "price": req.Price.String()})

	c.JSON(http.StatusCreated, gin.H{"holding": holding})
}

// RecordSell reduces the holding and realizes profit against average cost.
func (h *HoldingHandler) RecordSell(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req HoldingTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	holding, err := h.holdingService.RecordSell(userID, req.BrokerAccountID, req.Symbol, req.Quantity, req.Price)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SELL_HOLDING", "holding", holding.ID, c.ClientIP(),
		map[string]interface{}{"symbol": req.Symbol, "quantity": req.Quantity.String(), "price": req.Price.String()})

	c.JSON(http.StatusOK, gin.H{"holding": holding})
}

// GetHolding returns a holding with its asset and snapshot history.
func (h *HoldingHandler) GetHolding(c *gin.Context) {
	holdingID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	holding, err := h.holdingService.GetHoldingByID(holdingID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"holding": holding})
}

// GetFundHoldings lists a fund's holdings.
func (h *HoldingHandler) GetFundHoldings(c *gin.Context) {
	fundID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.holdingService.GetFundHoldings(fundID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
