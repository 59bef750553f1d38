package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fundflow/internal/errors"
	"fundflow/internal/marketdata"
	"fundflow/internal/services"
)

// MarketHandler handles live quote requests.
type MarketHandler struct {
	cache        *marketdata.Cache
	refresher    *marketdata.Refresher
	auditService services.AuditServicer
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(cache *marketdata.Cache, refresher *marketdata.Refresher, auditService services.AuditServicer) *MarketHandler {
	return &MarketHandler{cache: cache, refresher: refresher, auditService: auditService}
}

// GetQuote returns the cached live quote for one symbol.
func (h *MarketHandler) GetQuote(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "symbol is required"))
		return
	}

	quote, err := h.cache.Quote(c.Request.Context(), symbol)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

// RefreshPrices re-fetches quotes for every asset with open exposure and
// stores them on the asset rows. The scheduler runs this on a cadence; the
// endpoint exists for on-demand refreshes.
func (h *MarketHandler) RefreshPrices(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.refresher.RefreshAll(c.Request.Context()); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "REFRESH_PRICES", "underlying_asset", 0, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Prices refreshed"})
}
