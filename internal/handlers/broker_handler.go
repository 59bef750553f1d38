package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fundflow/internal/errors"
	"fundflow/internal/models"
	"fundflow/internal/services"
)

// BrokerHandler handles broker account requests.
type BrokerHandler struct {
	brokerService  services.BrokerServicer
	summaryService services.SummaryServicer
	auditService   services.AuditServicer
}

// NewBrokerHandler creates a new BrokerHandler.
func NewBrokerHandler(brokerService services.BrokerServicer, summaryService services.SummaryServicer, auditService services.AuditServicer) *BrokerHandler {
	return &BrokerHandler{brokerService: brokerService, summaryService: summaryService, auditService: auditService}
}

// CreateBrokerAccountRequest represents the request payload for linking a broker account
type CreateBrokerAccountRequest struct {
	BrokerCode    models.BrokerCode `json:"broker_code" binding:"required,broker_code"`
	AccountNumber string            `json:"account_number" binding:"max=64"`
}

// CreateBrokerAccount links a broker account to the authenticated user. Each
// user can hold at most one account per broker.
func (h *BrokerHandler) CreateBrokerAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBrokerAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	broker, err := h.brokerService.CreateBrokerAccount(userID, req.BrokerCode, req.AccountNumber)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_BROKER_ACCOUNT", "broker_account", broker.ID, c.ClientIP(),
		map[string]interface{}{"broker_code": req.BrokerCode})

	c.JSON(http.StatusCreated, gin.H{"broker_account": broker})
}

// GetBrokerAccounts lists the authenticated user's broker accounts.
func (h *BrokerHandler) GetBrokerAccounts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	brokers, err := h.brokerService.GetUserBrokerAccounts(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"broker_accounts": brokers})
}

// GetBrokerAccount returns a single broker account owned by the user.
func (h *BrokerHandler) GetBrokerAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	brokerAccountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	broker, err := h.brokerService.GetBrokerAccountByID(userID, brokerAccountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"broker_account": broker})
}

// GetBrokerDashboard returns the combined profit dashboard for one broker
// account: period windows, options profit across its funds, and holding P&L.
func (h *BrokerHandler) GetBrokerDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	brokerAccountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	dashboard, err := h.summaryService.GetBrokerDashboard(userID, brokerAccountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dashboard": dashboard})
}
