package importer

import (
	"strings"
	"testing"

	"gorm.io/gorm"

	"fundflow/internal/models"
	"fundflow/internal/services"
	"fundflow/internal/testutil"
)

func newImporter(db *gorm.DB) *Importer {
	brokers := services.NewBrokerService(db)
	funds := services.NewFundService(db)
	positions := services.NewPositionService(db)
	summaries := services.NewSummaryService(db)
	trades := services.NewTradeService(db, positions, summaries)
	holdings := services.NewHoldingService(db, brokers, funds)
	return New(db, NewRegistry(), brokers, funds, trades, holdings)
}

func TestImportStatement(t *testing.T) {
	t.Run("records_trades_and_holdings", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		imp := newImporter(db)
		user := testutil.CreateTestUser(t, db)

		batch, err := imp.ImportStatement(user.ID, models.BrokerIBKR, "activity.csv",
			strings.NewReader(sampleStatement))
		testutil.AssertNoError(t, err)

		if batch.Status != models.ImportBatchCompleted {
			t.Errorf("expected completed batch, got %s", batch.Status)
		}
		// 2 option trades and 2 stock trades land; the malformed row skips.
		if batch.Processed != 4 {
			t.Errorf("expected 4 processed, got %d", batch.Processed)
		}
		if batch.Skipped != 1 {
			t.Errorf("expected 1 skipped, got %d", batch.Skipped)
		}

		// Broker account, fund and option were created on the fly.
		var broker models.BrokerAccount
		testutil.AssertNoError(t, db.Where("user_id = ? AND broker_code = ?",
			user.ID, models.BrokerIBKR).First(&broker).Error)

		var fund models.Fund
		testutil.AssertNoError(t, db.Where("name = ? AND broker_account_id = ?",
			"TSLA", broker.ID).First(&fund).Error)

		var option models.Option
		testutil.AssertNoError(t, db.Where("ticker = ?", "TSLA 241025C00232500").
			First(&option).Error)

		// The sell opened a short lot and the buy closed it:
		// +148.00 - 1.30 credit, -50.00 - 1.30 to buy back.
		var position models.Position
		testutil.AssertNoError(t, db.Where("fund_id = ?", fund.ID).First(&position).Error)
		if position.Active {
			t.Error("expected the imported round trip to close the lot")
		}
		testutil.AssertDecimalEqual(t, "95.40", position.ProfitLoss)

		// Stock rows built a holding: 1000 bought, 400 sold at 6.80.
		var holding models.Holding
		testutil.AssertNoError(t, db.Where("broker_account_id = ?", broker.ID).
			First(&holding).Error)
		testutil.AssertDecimalEqual(t, "600", holding.Quantity)
		testutil.AssertDecimalEqual(t, "120", holding.RealizedProfit)

		// The realized stock profit landed on the holding's fund too.
		var stockFund models.Fund
		testutil.AssertNoError(t, db.Where("name = ? AND broker_account_id = ?",
			"ULTY", broker.ID).First(&stockFund).Error)
		testutil.AssertDecimalEqual(t, "120", stockFund.TotalProfit)

		// Trades are tagged with the batch.
		var tagged int64
		db.Model(&models.Trade{}).Where("import_batch_id = ?", batch.ID).Count(&tagged)
		if tagged != 2 {
			t.Errorf("expected 2 trades tagged with the batch, got %d", tagged)
		}
	})

	t.Run("reimport_skips_duplicates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		imp := newImporter(db)
		user := testutil.CreateTestUser(t, db)

		_, err := imp.ImportStatement(user.ID, models.BrokerIBKR, "activity.csv",
			strings.NewReader(sampleStatement))
		testutil.AssertNoError(t, err)

		second, err := imp.ImportStatement(user.ID, models.BrokerIBKR, "activity.csv",
			strings.NewReader(sampleStatement))
		testutil.AssertNoError(t, err)

		// Option trades are deduplicated on re-import.
		if second.Processed != 2 {
			t.Errorf("expected only the stock rows to process again, got %d", second.Processed)
		}

		var tradeCount int64
		db.Model(&models.Trade{}).Count(&tradeCount)
		if tradeCount != 2 {
			t.Errorf("expected 2 option trades after re-import, got %d", tradeCount)
		}

		// Fund profit was not double-counted by the re-import.
		var fund models.Fund
		testutil.AssertNoError(t, db.Where("name = ?", "TSLA").First(&fund).Error)
		testutil.AssertDecimalEqual(t, "95.40", fund.TotalProfit)
	})

	t.Run("unknown_broker_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		imp := newImporter(db)
		user := testutil.CreateTestUser(t, db)

		_, err := imp.ImportStatement(user.ID, models.BrokerWealthsimple, "activity.csv",
			strings.NewReader(sampleStatement))
		testutil.AssertAppError(t, err, "UNKNOWN_BROKER")
	})

	t.Run("unreadable_statement_records_failed_batch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		imp := newImporter(db)
		user := testutil.CreateTestUser(t, db)

		batch, err := imp.ImportStatement(user.ID, models.BrokerIBKR, "empty.csv",
			strings.NewReader("Statement,Header,Field Name,Field Value\n"))
		testutil.AssertAppError(t, err, "STATEMENT_ERROR")

		if batch == nil || batch.Status != models.ImportBatchFailed {
			t.Fatal("expected a failed batch to be recorded")
		}

		stored, err := imp.GetBatch(batch.ID)
		testutil.AssertNoError(t, err)
		if stored.Status != models.ImportBatchFailed {
			t.Errorf("expected stored batch to be failed, got %s", stored.Status)
		}
	})
}
