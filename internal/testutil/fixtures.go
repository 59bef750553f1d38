package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"fundflow/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    fmt.Sprintf("user%d@test.com", nextID()),
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestBrokerAccount creates an IBKR broker account for the user.
func CreateTestBrokerAccount(t *testing.T, db *gorm.DB, userID uint) *models.BrokerAccount {
	t.Helper()

	broker := &models.BrokerAccount{
		UserID:        userID,
		BrokerCode:    models.BrokerIBKR,
		AccountNumber: fmt.Sprintf("U%07d", nextID()),
		Slug:          "ibkr",
	}
	if err := db.Create(broker).Error; err != nil {
		t.Fatalf("failed to create test broker account: %v", err)
	}
	return broker
}

// CreateTestCompany creates a fund issuer company.
func CreateTestCompany(t *testing.T, db *gorm.DB) *models.Company {
	t.Helper()

	n := nextID()
	company := &models.Company{
		Name: fmt.Sprintf("Test Issuer %d", n),
		Slug: fmt.Sprintf("test-issuer-%d", n),
	}
	if err := db.Create(company).Error; err != nil {
		t.Fatalf("failed to create test company: %v", err)
	}
	return company
}

// CreateTestFund creates a fund under the given broker account.
func CreateTestFund(t *testing.T, db *gorm.DB, brokerAccountID uint) *models.Fund {
	t.Helper()

	n := nextID()
	fund := &models.Fund{
		Name:            fmt.Sprintf("FUND%d", n),
		Slug:            fmt.Sprintf("fund%d", n),
		BrokerAccountID: &brokerAccountID,
		TotalProfit:     decimal.Zero,
	}
	if err := db.Create(fund).Error; err != nil {
		t.Fatalf("failed to create test fund: %v", err)
	}
	return fund
}

// CreateTestCompanyFund creates a fund under the given company.
func CreateTestCompanyFund(t *testing.T, db *gorm.DB, companyID uint) *models.Fund {
	t.Helper()

	n := nextID()
	fund := &models.Fund{
		Name:        fmt.Sprintf("CFND%d", n),
		Slug:        fmt.Sprintf("cfnd%d", n),
		CompanyID:   &companyID,
		TotalProfit: decimal.Zero,
	}
	if err := db.Create(fund).Error; err != nil {
		t.Fatalf("failed to create test company fund: %v", err)
	}
	return fund
}

// CreateTestAsset creates an underlying asset.
func CreateTestAsset(t *testing.T, db *gorm.DB) *models.UnderlyingAsset {
	t.Helper()

	name := fmt.Sprintf("TST%d", nextID())
	asset := &models.UnderlyingAsset{
		Name:        name,
		QuoteSymbol: name,
	}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("failed to create test asset: %v", err)
	}
	return asset
}

// CreateTestOption creates a call option on the given asset in the given fund.
func CreateTestOption(t *testing.T, db *gorm.DB, fundID, assetID uint) *models.Option {
	t.Helper()

	expiry := time.Date(2025, time.January, 17, 0, 0, 0, 0, time.UTC)
	option := &models.Option{
		Ticker:            fmt.Sprintf("TST%d 250117C00010000", nextID()),
		FundID:            fundID,
		Type:              models.OptionCall,
		StrikePrice:       decimal.NewFromInt(10),
		ExpirationDate:    expiry,
		UnderlyingAssetID: assetID,
	}
	if err := db.Create(option).Error; err != nil {
		t.Fatalf("failed to create test option: %v", err)
	}
	return option
}

// CreateTestHolding creates an equity holding with the given quantity and
// average price.
func CreateTestHolding(t *testing.T, db *gorm.DB, brokerID, fundID, assetID uint, quantity, avgPrice decimal.Decimal) *models.Holding {
	t.Helper()

	holding := &models.Holding{
		BrokerAccountID: brokerID,
		FundID:          fundID,
		AssetID:         assetID,
		Quantity:        quantity,
		AveragePrice:    avgPrice,
		TotalCost:       quantity.Mul(avgPrice),
		RealizedProfit:  decimal.Zero,
	}
	if err := db.Create(holding).Error; err != nil {
		t.Fatalf("failed to create test holding: %v", err)
	}
	return holding
}
