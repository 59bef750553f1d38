package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fundflow/internal/models"
	"fundflow/internal/testutil"
)

func contribute(t *testing.T, db *gorm.DB, summaries SummaryServicer, fund *models.Fund, date time.Time, amount string) {
	t.Helper()

	err := db.Transaction(func(tx *gorm.DB) error {
		return summaries.Contribute(tx, fund, date, decimal.RequireFromString(amount))
	})
	testutil.AssertNoError(t, err)
}

func TestContribute(t *testing.T) {
	t.Run("creates_week_month_year_windows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		summaries := NewSummaryService(db)
		user := testutil.CreateTestUser(t, db)
		broker := testutil.CreateTestBrokerAccount(t, db, user.ID)
		fund := testutil.CreateTestFund(t, db, broker.ID)

		date := time.Date(2024, time.October, 25, 14, 30, 0, 0, time.UTC)
		contribute(t, db, summaries, fund, date, "100.00")

		current, err := summaries.GetFundSummaries(fund.ID, date)
		testutil.AssertNoError(t, err)

		if current.Week == nil || current.Month == nil || current.Year == nil {
			t.Fatal("expected week, month and year rows to exist")
		}
		testutil.AssertDecimalEqual(t, "100.00", current.Week.WeeklyProfit)
		testutil.AssertDecimalEqual(t, "100.00", current.Month.MonthlyProfit)
		testutil.AssertDecimalEqual(t, "100.00", current.Year.AnnuallyProfit)

		// Oct 25 2024 is a Friday; the week runs Mon Oct 21 to Sun Oct 27.
		if !current.Week.StartDate.Equal(time.Date(2024, time.October, 21, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected week start %v", current.Week.StartDate)
		}

		var updated models.Fund
		testutil.AssertNoError(t, db.First(&updated, fund.ID).Error)
		testutil.AssertDecimalEqual(t, "100.00", updated.TotalProfit)
	})

	t.Run("increments_existing_windows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		summaries := NewSummaryService(db)
		user := testutil.CreateTestUser(t, db)
		broker := testutil.CreateTestBrokerAccount(t, db, user.ID)
		fund := testutil.CreateTestFund(t, db, broker.ID)

		date := time.Date(2024, time.October, 25, 0, 0, 0, 0, time.UTC)
		contribute(t, db, summaries, fund, date, "100.00")
		contribute(t, db, summaries, fund, date, "-40.00")

		current, err := summaries.GetFundSummaries(fund.ID, date)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "60.00", current.Week.WeeklyProfit)

		var rows int64
		db.Model(&models.FundProfitSummary{}).Count(&rows)
		if rows != 3 {
			t.Errorf("expected 3 window rows, got %d", rows)
		}
	})

	t.Run("separate_months_share_the_year_row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		summaries := NewSummaryService(db)
		user := testutil.CreateTestUser(t, db)
		broker := testutil.CreateTestBrokerAccount(t, db, user.ID)
		fund := testutil.CreateTestFund(t, db, broker.ID)

		october := time.Date(2024, time.October, 25, 0, 0, 0, 0, time.UTC)
		november := time.Date(2024, time.November, 2, 0, 0, 0, 0, time.UTC)
		contribute(t, db, summaries, fund, october, "100.00")
		contribute(t, db, summaries, fund, november, "50.00")

		fromOctober, err := summaries.GetFundSummaries(fund.ID, october)
		testutil.AssertNoError(t, err)
		fromNovember, err := summaries.GetFundSummaries(fund.ID, november)
		testutil.AssertNoError(t, err)

		testutil.AssertDecimalEqual(t, "100.00", fromOctober.Month.MonthlyProfit)
		testutil.AssertDecimalEqual(t, "50.00", fromNovember.Month.MonthlyProfit)
		testutil.AssertDecimalEqual(t, "150.00", fromOctober.Year.AnnuallyProfit)
		if fromOctober.Year.ID != fromNovember.Year.ID {
			t.Error("expected both months to roll into the same year row")
		}
	})

	t.Run("company_fund_rolls_up_to_company", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		summaries := NewSummaryService(db)
		company := testutil.CreateTestCompany(t, db)
		fund := testutil.CreateTestCompanyFund(t, db, company.ID)

		date := time.Date(2024, time.October, 25, 0, 0, 0, 0, time.UTC)
		contribute(t, db, summaries, fund, date, "75.00")

		var row models.CompanyProfitSummary
		err := db.Where("company_id = ?", company.ID).
			Where("start_date = ?", time.Date(2024, time.October, 21, 0, 0, 0, 0, time.UTC)).
			First(&row).Error
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "75.00", row.WeeklyProfit)

		var brokerRows int64
		db.Model(&models.BrokerProfitSummary{}).Count(&brokerRows)
		if brokerRows != 0 {
			t.Errorf("expected no broker rows for a company fund, got %d", brokerRows)
		}
	})

	t.Run("broker_fund_rolls_up_to_broker", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		summaries := NewSummaryService(db)
		user := testutil.CreateTestUser(t, db)
		broker := testutil.CreateTestBrokerAccount(t, db, user.ID)
		fund := testutil.CreateTestFund(t, db, broker.ID)

		date := time.Date(2024, time.October, 25, 0, 0, 0, 0, time.UTC)
		contribute(t, db, summaries, fund, date, "80.00")

		var row models.BrokerProfitSummary
		err := db.Where("broker_account_id = ?", broker.ID).
			Where("start_date = ?", time.Date(2024, time.October, 21, 0, 0, 0, 0, time.UTC)).
			First(&row).Error
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "80.00", row.WeeklyProfit)
	})
}

func TestGetFundSummaries(t *testing.T) {
	t.Run("missing_windows_come_back_nil", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		summaries := NewSummaryService(db)
		user := testutil.CreateTestUser(t, db)
		broker := testutil.CreateTestBrokerAccount(t, db, user.ID)
		fund := testutil.CreateTestFund(t, db, broker.ID)

		current, err := summaries.GetFundSummaries(fund.ID, time.Now())
		testutil.AssertNoError(t, err)
		if current.Week != nil || current.Month != nil || current.Year != nil {
			t.Error("expected nil windows for a fund with no contributions")
		}
	})
}

func TestGetBrokerDashboard(t *testing.T) {
	t.Run("aggregates_funds_and_holdings", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		summaries := NewSummaryService(db)
		user := testutil.CreateTestUser(t, db)
		broker := testutil.CreateTestBrokerAccount(t, db, user.ID)
		fund := testutil.CreateTestFund(t, db, broker.ID)

		contribute(t, db, summaries, fund, time.Now().UTC(), "250.00")

		asset := testutil.CreateTestAsset(t, db)
		testutil.CreateTestHolding(t, db, broker.ID, fund.ID, asset.ID,
			decimal.NewFromInt(10), decimal.NewFromInt(20))

		dashboard, err := summaries.GetBrokerDashboard(user.ID, broker.ID)
		testutil.AssertNoError(t, err)

		if dashboard.BrokerName != "Interactive Brokers" {
			t.Errorf("unexpected broker name %q", dashboard.BrokerName)
		}
		testutil.AssertDecimalEqual(t, "250.00", dashboard.Weekly)
		testutil.AssertDecimalEqual(t, "250.00", dashboard.Monthly)
		testutil.AssertDecimalEqual(t, "250.00", dashboard.Yearly)
		testutil.AssertDecimalEqual(t, "250.00", dashboard.TotalOptionsProfit)
		// No realized profit and no live price, so holdings contribute zero.
		testutil.AssertDecimalEqual(t, "0.00", dashboard.HoldingProfitLoss)
		testutil.AssertDecimalEqual(t, "250.00", dashboard.CombinedTotalProfit)
	})

	t.Run("scoped_to_owner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		summaries := NewSummaryService(db)
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		broker := testutil.CreateTestBrokerAccount(t, db, owner.ID)

		_, err := summaries.GetBrokerDashboard(other.ID, broker.ID)
		testutil.AssertAppError(t, err, "BROKER_NOT_FOUND")
	})
}
