package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fundflow/internal/errors"
	"fundflow/internal/models"
	"fundflow/internal/services"
)

type mockBrokerService struct {
	createBrokerAccountFn  func(userID uint, code models.BrokerCode, accountNumber string) (*models.BrokerAccount, error)
	getBrokerAccountByIDFn func(userID, brokerAccountID uint) (*models.BrokerAccount, error)
}

func (m *mockBrokerService) CreateBrokerAccount(userID uint, code models.BrokerCode, accountNumber string) (*models.BrokerAccount, error) {
	if m.createBrokerAccountFn != nil {
		return m.createBrokerAccountFn(userID, code, accountNumber)
	}
	return &models.BrokerAccount{UserID: userID, BrokerCode: code}, nil
}

func (m *mockBrokerService) GetUserBrokerAccounts(userID uint) ([]models.BrokerAccount, error) {
	return []models.BrokerAccount{}, nil
}

func (m *mockBrokerService) GetBrokerAccountByID(userID, brokerAccountID uint) (*models.BrokerAccount, error) {
	if m.getBrokerAccountByIDFn != nil {
		return m.getBrokerAccountByIDFn(userID, brokerAccountID)
	}
	return &models.BrokerAccount{Base: models.Base{ID: brokerAccountID}, UserID: userID}, nil
}

func (m *mockBrokerService) GetOrCreateBrokerAccount(_ *gorm.DB, userID uint, code models.BrokerCode) (*models.BrokerAccount, error) {
	return &models.BrokerAccount{UserID: userID, BrokerCode: code}, nil
}

type mockSummaryService struct {
	getBrokerDashboardFn func(userID, brokerAccountID uint) (*services.BrokerDashboard, error)
}

func (m *mockSummaryService) Contribute(_ *gorm.DB, _ *models.Fund, _ time.Time, _ decimal.Decimal) error {
	return nil
}

func (m *mockSummaryService) GetFundSummaries(_ uint, _ time.Time) (*services.CurrentSummaries, error) {
	return &services.CurrentSummaries{}, nil
}

func (m *mockSummaryService) GetBrokerDashboard(userID, brokerAccountID uint) (*services.BrokerDashboard, error) {
	if m.getBrokerDashboardFn != nil {
		return m.getBrokerDashboardFn(userID, brokerAccountID)
	}
	return &services.BrokerDashboard{}, nil
}

func setupBrokerRouter(handler *BrokerHandler) *gin.Engine {
	r := gin.New()
	r.Use(injectUserID(1))
	r.POST("/brokers", handler.CreateBrokerAccount)
	r.GET("/brokers", handler.GetBrokerAccounts)
	r.GET("/brokers/:id", handler.GetBrokerAccount)
	r.GET("/brokers/:id/dashboard", handler.GetBrokerDashboard)
	return r
}

func TestBrokerHandler_CreateBrokerAccount(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		handler := NewBrokerHandler(&mockBrokerService{}, &mockSummaryService{}, &mockAuditService{})
		r := setupBrokerRouter(handler)

		rec := doRequest(r, "POST", "/brokers", `{"broker_code":"IBKR","account_number":"U1234567"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("rejects unknown broker code at binding", func(t *testing.T) {
		handler := NewBrokerHandler(&mockBrokerService{}, &mockSummaryService{}, &mockAuditService{})
		r := setupBrokerRouter(handler)

		rec := doRequest(r, "POST", "/brokers", `{"broker_code":"ETRADE"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 409 for a second account at the same broker", func(t *testing.T) {
		brokerSvc := &mockBrokerService{
			createBrokerAccountFn: func(_ uint, _ models.BrokerCode, _ string) (*models.BrokerAccount, error) {
				return nil, apperrors.ErrDuplicateBroker
			},
		}
		handler := NewBrokerHandler(brokerSvc, &mockSummaryService{}, &mockAuditService{})
		r := setupBrokerRouter(handler)

		rec := doRequest(r, "POST", "/brokers", `{"broker_code":"IBKR"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})
}

func TestBrokerHandler_GetBrokerDashboard(t *testing.T) {
	t.Run("scopes the lookup to the authenticated user", func(t *testing.T) {
		var gotUserID, gotBrokerID uint
		summarySvc := &mockSummaryService{
			getBrokerDashboardFn: func(userID, brokerAccountID uint) (*services.BrokerDashboard, error) {
				gotUserID = userID
				gotBrokerID = brokerAccountID
				return &services.BrokerDashboard{BrokerName: "Interactive Brokers"}, nil
			},
		}
		handler := NewBrokerHandler(&mockBrokerService{}, summarySvc, &mockAuditService{})
		r := setupBrokerRouter(handler)

		rec := doRequest(r, "GET", "/brokers/4/dashboard", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotUserID != 1 || gotBrokerID != 4 {
			t.Errorf("expected lookup (1, 4), got (%d, %d)", gotUserID, gotBrokerID)
		}
		dashboard := parseJSON(t, rec)["dashboard"].(map[string]interface{})
		if dashboard["broker_name"] != "Interactive Brokers" {
			t.Errorf("unexpected broker name %v", dashboard["broker_name"])
		}
	})

	t.Run("returns 404 for another user's broker", func(t *testing.T) {
		summarySvc := &mockSummaryService{
			getBrokerDashboardFn: func(_, _ uint) (*services.BrokerDashboard, error) {
				return nil, apperrors.ErrBrokerNotFound
			},
		}
		handler := NewBrokerHandler(&mockBrokerService{}, summarySvc, &mockAuditService{})
		r := setupBrokerRouter(handler)

		rec := doRequest(r, "GET", "/brokers/4/dashboard", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
