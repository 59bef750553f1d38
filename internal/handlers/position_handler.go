package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fundflow/internal/errors"
	"fundflow/internal/pagination"
	"fundflow/internal/services"
)

// PositionHandler handles position lookups and lifecycle operations.
type PositionHandler struct {
	positionService services.PositionServicer
	tradeService    services.TradeServicer
	auditService    services.AuditServicer
}

// NewPositionHandler creates a new PositionHandler.
func NewPositionHandler(positionService services.PositionServicer, tradeService services.TradeServicer, auditService services.AuditServicer) *PositionHandler {
	return &PositionHandler{positionService: positionService, tradeService: tradeService, auditService: auditService}
}

// ClosePositionRequest represents the request payload for closing (part of)
// an open lot. The offsetting trade type is derived from the lot itself.
type ClosePositionRequest struct {
	Quantity   int             `json:"quantity" binding:"required,gt=0"`
	Price      decimal.Decimal `json:"price" binding:"required"`
	Commission decimal.Decimal `json:"commission"`
	Date       *string         `json:"date"`
}

// ExpirePositionRequest represents the request payload for expiring a lot.
type ExpirePositionRequest struct {
	Date *string `json:"date"`
}

// GetPosition returns a single position with its option preloaded.
func (h *PositionHandler) GetPosition(c *gin.Context) {
	positionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	position, err := h.positionService.GetPositionByID(positionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"position": position})
}

// GetFundPositions lists a fund's positions newest first. Pass active=true
// to restrict to open lots.
func (h *PositionHandler) GetFundPositions(c *gin.Context) {
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

	activeOnly := c.Query("active") == "true"

	result, err := h.positionService.GetFundPositions(fundID, activeOnly, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPositionHistory returns the append-only reconciliation history of a lot.
func (h *PositionHandler) GetPositionHistory(c *gin.Context) {
	positionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if _, err := h.positionService.GetPositionByID(positionID); err != nil {
		respondWithError(c, err)
		return
	}

	history, err := h.positionService.GetPositionHistory(positionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

// ClosePosition submits the offsetting trade for an open lot.
func (h *PositionHandler) ClosePosition(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	positionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ClosePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	closeDate := time.Now().UTC()
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		closeDate = parsed
	}

	result, err := h.tradeService.ClosePosition(positionID, req.Quantity, req.Price, req.Commission, closeDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CLOSE_POSITION", "position", positionID, c.ClientIP(),
		map[string]interface{}{"quantity": req.Quantity})

	c.JSON(http.StatusOK, gin.H{"trade": result.Trade, "position": result.Position})
}

// ExpirePosition closes the full remaining quantity of a lot at zero premium.
func (h *PositionHandler) ExpirePosition(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	positionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ExpirePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	expiryDate := time.Now().UTC()
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		expiryDate = parsed
	}

	result, err := h.tradeService.ExpirePosition(positionID, expiryDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "EXPIRE_POSITION", "position", positionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"trade": result.Trade, "position": result.Position})
}
