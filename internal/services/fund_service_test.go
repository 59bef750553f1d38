package services

import (
	"testing"

	"fundflow/internal/models"
	"fundflow/internal/testutil"
)

func TestCreateFund(t *testing.T) {
	t.Run("under_broker_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFundService(db)
		user := testutil.CreateTestUser(t, db)
		broker := testutil.CreateTestBrokerAccount(t, db, user.ID)

		fund, err := svc.CreateFund("TSLA", "", nil, &broker.ID)
		testutil.AssertNoError(t, err)
		if fund.Slug != "tsla" {
			t.Errorf("expected slug tsla, got %q", fund.Slug)
		}
	})

	t.Run("requires_a_parent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFundService(db)

		_, err := svc.CreateFund("TSLA", "", nil, nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("duplicate_name_in_same_broker", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFundService(db)
		user := testutil.CreateTestUser(t, db)
		broker := testutil.CreateTestBrokerAccount(t, db, user.ID)

		_, err := svc.CreateFund("TSLA", "", nil, &broker.ID)
		testutil.AssertNoError(t, err)

		_, err = svc.CreateFund("TSLA", "", nil, &broker.ID)
		testutil.AssertAppError(t, err, "DUPLICATE_FUND_NAME")
	})

	t.Run("same_name_allowed_across_companies", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewFundService(db)
		first := testutil.CreateTestCompany(t, db)
		second := testutil.CreateTestCompany(t, db)

		_, err := svc.CreateFund("ULTY", "", &first.ID, nil)
		testutil.AssertNoError(t, err)

		_, err = svc.CreateFund("ULTY", "", &second.ID, nil)
		testutil.AssertNoError(t, err)
	})
}

func TestGetOrCreateFund(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewFundService(db)
	user := testutil.CreateTestUser(t, db)
	broker := testutil.CreateTestBrokerAccount(t, db, user.ID)

	fund, err := svc.GetOrCreateFund(db, "NVDA", broker.ID)
	testutil.AssertNoError(t, err)

	again, err := svc.GetOrCreateFund(db, "NVDA", broker.ID)
	testutil.AssertNoError(t, err)
	if again.ID != fund.ID {
		t.Error("expected the same fund on second resolve")
	}

	var count int64
	db.Model(&models.Fund{}).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 fund, got %d", count)
	}
}

func TestListFunds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewFundService(db)
	user := testutil.CreateTestUser(t, db)
	broker := testutil.CreateTestBrokerAccount(t, db, user.ID)
	company := testutil.CreateTestCompany(t, db)

	_, err := svc.CreateFund("TSLA", "", nil, &broker.ID)
	testutil.AssertNoError(t, err)
	_, err = svc.CreateFund("NVDA", "", nil, &broker.ID)
	testutil.AssertNoError(t, err)
	_, err = svc.CreateFund("ULTY", "", &company.ID, nil)
	testutil.AssertNoError(t, err)

	brokerPage, err := svc.GetBrokerFunds(broker.ID, pageRequest(1, 10))
	testutil.AssertNoError(t, err)
	if brokerPage.TotalItems != 2 {
		t.Errorf("expected 2 broker funds, got %d", brokerPage.TotalItems)
	}
	if brokerPage.Data[0].Name != "NVDA" {
		t.Error("expected funds ordered by name")
	}

	companyPage, err := svc.GetCompanyFunds(company.ID, pageRequest(1, 10))
	testutil.AssertNoError(t, err)
	if companyPage.TotalItems != 1 {
		t.Errorf("expected 1 company fund, got %d", companyPage.TotalItems)
	}
}
