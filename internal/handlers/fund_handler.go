package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "fundflow/internal/errors"
	"fundflow/internal/pagination"
	"fundflow/internal/services"
)

// FundHandler handles company and fund requests.
type FundHandler struct {
	fundService    services.FundServicer
	brokerService  services.BrokerServicer
	summaryService services.SummaryServicer
	auditService   services.AuditServicer
}

// NewFundHandler creates a new FundHandler.
func NewFundHandler(fundService services.FundServicer, brokerService services.BrokerServicer, summaryService services.SummaryServicer, auditService services.AuditServicer) *FundHandler {
	return &FundHandler{fundService: fundService, brokerService: brokerService, summaryService: summaryService, auditService: auditService}
}

// CreateCompanyRequest represents the request payload for creating a company
type CreateCompanyRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
}

// CreateFundRequest represents the request payload for creating a fund. A
// fund hangs off exactly one parent, either a company or a broker account.
type CreateFundRequest struct {
	Name            string `json:"name" binding:"required,max=100"`
	Description     string `json:"description" binding:"max=500"`
	CompanyID       *uint  `json:"company_id"`
	BrokerAccountID *uint  `json:"broker_account_id"`
}

// CreateCompany handles the creation of a new company.
func (h *FundHandler) CreateCompany(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	company, err := h.fundService.CreateCompany(req.Name, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_COMPANY", "company", company.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name})

	c.JSON(http.StatusCreated, gin.H{"company": company})
}

// GetCompany returns a single company.
func (h *FundHandler) GetCompany(c *gin.Context) {
	companyID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	company, err := h.fundService.GetCompanyByID(companyID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"company": company})
}

// CreateFund handles the creation of a new fund. When the parent is a broker
// account the account must belong to the authenticated user.
func (h *FundHandler) CreateFund(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateFundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if req.BrokerAccountID != nil {
		if _, err := h.brokerService.GetBrokerAccountByID(userID, *req.BrokerAccountID); err != nil {
			respondWithError(c, err)
			return
		}
	}

	fund, err := h.fundService.CreateFund(req.Name, req.Description, req.CompanyID, req.BrokerAccountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_FUND", "fund", fund.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name})

	c.JSON(http.StatusCreated, gin.H{"fund": fund})
}

// GetFund returns a single fund.
func (h *FundHandler) GetFund(c *gin.Context) {
	fundID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	fund, err := h.fundService.GetFundByID(fundID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fund": fund})
}

// GetBrokerFunds lists the funds under one of the user's broker accounts.
func (h *FundHandler) GetBrokerFunds(c *gin.Context) {
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

	if _, err := h.brokerService.GetBrokerAccountByID(userID, brokerAccountID); err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.fundService.GetBrokerFunds(brokerAccountID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCompanyFunds lists the funds under a company.
func (h *FundHandler) GetCompanyFunds(c *gin.Context) {
	companyID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.fundService.GetCompanyFunds(companyID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CheckFundName reports whether a fund name is still free under the given
// parent (company_id or broker_account_id query parameter).
func (h *FundHandler) CheckFundName(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required"))
		return
	}

	var companyID, brokerAccountID *uint
	if raw := c.Query("company_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid company_id"))
			return
		}
		v := uint(id)
		companyID = &v
	}
	if raw := c.Query("broker_account_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid broker_account_id"))
			return
		}
		v := uint(id)
		brokerAccountID = &v
	}

	available, err := h.fundService.FundNameAvailable(name, companyID, brokerAccountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"name": name, "available": available})
}

// GetFundSummaries returns the weekly, monthly and yearly profit windows
// covering a point in time (the at query parameter, defaulting to now).
func (h *FundHandler) GetFundSummaries(c *gin.Context) {
	fundID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	at := time.Now().UTC()
	if atStr := c.Query("at"); atStr != "" {
		at, err = parseFlexibleTime(atStr)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	if _, err := h.fundService.GetFundByID(fundID); err != nil {
		respondWithError(c, err)
		return
	}

	summaries, err := h.summaryService.GetFundSummaries(fundID, at)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summaries": summaries})
}
