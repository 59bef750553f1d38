package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fundflow/internal/models"
	"fundflow/internal/pagination"
	"fundflow/internal/testutil"
)

func pageRequest(page, size int) pagination.PageRequest {
	return pagination.PageRequest{Page: page, PageSize: size}
}

func TestSubmitTradeValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	trades, _ := newTradeStack(db)
	user := testutil.CreateTestUser(t, db)
	broker := testutil.CreateTestBrokerAccount(t, db, user.ID)
	fund := testutil.CreateTestFund(t, db, broker.ID)

	valid := SubmitTradeInput{
		FundID:     fund.ID,
		Symbol:     "TSLA 17JAN25 10.00 C",
		Type:       models.TradeBuy,
		Quantity:   1,
		Price:      decimal.RequireFromString("0.50"),
		Commission: decimal.Zero,
		Date:       tradeDay,
	}

	t.Run("unknown_trade_type", func(t *testing.T) {
		input := valid
		input.Type = "X"
		_, err := trades.SubmitTrade(input)
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("zero_quantity", func(t *testing.T) {
		input := valid
		input.Quantity = 0
		_, err := trades.SubmitTrade(input)
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("negative_price", func(t *testing.T) {
		input := valid
		input.Price = decimal.RequireFromString("-0.50")
		_, err := trades.SubmitTrade(input)
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("negative_commission", func(t *testing.T) {
		input := valid
		input.Commission = decimal.RequireFromString("-1")
		_, err := trades.SubmitTrade(input)
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("missing_date", func(t *testing.T) {
		input := valid
		input.Date = time.Time{}
		_, err := trades.SubmitTrade(input)
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("malformed_symbol", func(t *testing.T) {
		input := valid
		input.Symbol = "TSLA 232.50 C"
		_, err := trades.SubmitTrade(input)
		testutil.AssertAppError(t, err, "FORMAT_ERROR")
	})

	t.Run("unknown_fund", func(t *testing.T) {
		input := valid
		input.FundID = 9999
		_, err := trades.SubmitTrade(input)
		testutil.AssertAppError(t, err, "FUND_NOT_FOUND")
	})

	t.Run("rejected_trades_leave_no_rows", func(t *testing.T) {
		var count int64
		db.Model(&models.Trade{}).Count(&count)
		if count != 0 {
			t.Errorf("expected no trades after rejected submits, got %d", count)
		}
	})
}

func TestSubmitTradeDuplicates(t *testing.T) {
	t.Run("skip_duplicate_short_circuits", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		trades, _ := newTradeStack(db)
		user := testutil.CreateTestUser(t, db)
		broker := testutil.CreateTestBrokerAccount(t, db, user.ID)
		fund := testutil.CreateTestFund(t, db, broker.ID)

		input := SubmitTradeInput{
			FundID:        fund.ID,
			Symbol:        "TSLA 17JAN25 10.00 C",
			Type:          models.TradeSell,
			Quantity:      2,
			Price:         decimal.RequireFromString("1.00"),
			Commission:    decimal.RequireFromString("0.50"),
			Date:          tradeDay,
			SkipDuplicate: true,
		}

		first, err := trades.SubmitTrade(input)
		testutil.AssertNoError(t, err)
		if !first.Created {
			t.Fatal("expected first submit to create the trade")
		}

		second, err := trades.SubmitTrade(input)
		testutil.AssertNoError(t, err)
		if second.Created {
			t.Fatal("expected second submit to be skipped")
		}
		if second.Trade.ID != first.Trade.ID {
			t.Errorf("expected the existing trade back, got ID %d", second.Trade.ID)
		}

		var tradeCount int64
		db.Model(&models.Trade{}).Count(&tradeCount)
		if tradeCount != 1 {
			t.Errorf("expected 1 trade, got %d", tradeCount)
		}

		// Summaries were only fed once.
		var updated models.Fund
		testutil.AssertNoError(t, db.First(&updated, fund.ID).Error)
		testutil.AssertDecimalEqual(t, "199.00", updated.TotalProfit)
	})

	t.Run("without_flag_identical_trades_both_record", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		trades, _ := newTradeStack(db)
		user := testutil.CreateTestUser(t, db)
		broker := testutil.CreateTestBrokerAccount(t, db, user.ID)
		fund := testutil.CreateTestFund(t, db, broker.ID)

		input := SubmitTradeInput{
			FundID:     fund.ID,
			Symbol:     "TSLA 17JAN25 10.00 C",
			Type:       models.TradeSell,
			Quantity:   1,
			Price:      decimal.RequireFromString("1.00"),
			Commission: decimal.Zero,
			Date:       tradeDay,
		}

		_, err := trades.SubmitTrade(input)
		testutil.AssertNoError(t, err)
		_, err = trades.SubmitTrade(input)
		testutil.AssertNoError(t, err)

		var tradeCount int64
		db.Model(&models.Trade{}).Count(&tradeCount)
		if tradeCount != 2 {
			t.Errorf("expected 2 trades, got %d", tradeCount)
		}
	})
}

func TestDrainedLots(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	trades, _ := newTradeStack(db)
	user := testutil.CreateTestUser(t, db)
	broker := testutil.CreateTestBrokerAccount(t, db, user.ID)
	fund := testutil.CreateTestFund(t, db, broker.ID)

	input := SubmitTradeInput{
		FundID:     fund.ID,
		Symbol:     "TSLA 17JAN25 10.00 C",
		Type:       models.TradeSell,
		Quantity:   2,
		Price:      decimal.RequireFromString("1.00"),
		Commission: decimal.Zero,
		Date:       tradeDay,
	}
	opened, err := trades.SubmitTrade(input)
	testutil.AssertNoError(t, err)
	if drainedLots(opened) {
		t.Error("opening a lot must not report a drain")
	}

	input.Type = models.TradeBuyToClose
	input.Quantity = 1
	input.Date = tradeDay.Add(24 * time.Hour)
	closed, err := trades.SubmitTrade(input)
	testutil.AssertNoError(t, err)
	if !drainedLots(closed) {
		t.Error("buying back the short lot must report a drain")
	}

	input.SkipDuplicate = true
	skipped, err := trades.SubmitTrade(input)
	testutil.AssertNoError(t, err)
	if drainedLots(skipped) {
		t.Error("a skipped duplicate must not report a drain")
	}
}

func TestGetOrCreateOption(t *testing.T) {
	t.Run("creates_asset_and_option_on_first_sight", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		trades, _ := newTradeStack(db)
		user := testutil.CreateTestUser(t, db)
		broker := testutil.CreateTestBrokerAccount(t, db, user.ID)
		fund := testutil.CreateTestFund(t, db, broker.ID)

		option, err := trades.GetOrCreateOption(db, fund, "NVDA 21MAR25 120.00 P")
		testutil.AssertNoError(t, err)

		if option.Ticker != "NVDA 250321P00120000" {
			t.Errorf("unexpected ticker %q", option.Ticker)
		}
		if option.Type != models.OptionPut {
			t.Errorf("expected put, got %s", option.Type)
		}
		testutil.AssertDecimalEqual(t, "120.00", option.StrikePrice)
		if option.UnderlyingAsset.Name != "NVDA" {
			t.Errorf("expected underlying NVDA, got %q", option.UnderlyingAsset.Name)
		}

		again, err := trades.GetOrCreateOption(db, fund, "NVDA 21MAR25 120.00 P")
		testutil.AssertNoError(t, err)
		if again.ID != option.ID {
			t.Error("expected the same option on second resolve")
		}

		var assetCount int64
		db.Model(&models.UnderlyingAsset{}).Count(&assetCount)
		if assetCount != 1 {
			t.Errorf("expected 1 asset, got %d", assetCount)
		}
	})

	t.Run("get_by_ticker", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		trades, _ := newTradeStack(db)
		user := testutil.CreateTestUser(t, db)
		broker := testutil.CreateTestBrokerAccount(t, db, user.ID)
		fund := testutil.CreateTestFund(t, db, broker.ID)

		_, err := trades.GetOrCreateOption(db, fund, "NVDA 21MAR25 120.00 P")
		testutil.AssertNoError(t, err)

		option, err := trades.GetOptionByTicker("NVDA 250321P00120000")
		testutil.AssertNoError(t, err)
		if option.UnderlyingAsset.Name != "NVDA" {
			t.Error("expected underlying asset to be preloaded")
		}

		_, err = trades.GetOptionByTicker("MISSING 250321P00120000")
		testutil.AssertAppError(t, err, "OPTION_NOT_FOUND")
	})
}

func TestClosePosition(t *testing.T) {
	t.Run("short_lot_closed_with_buy_to_close", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		trades, positions := newTradeStack(db)
		user := testutil.CreateTestUser(t, db)
		broker := testutil.CreateTestBrokerAccount(t, db, user.ID)
		fund := testutil.CreateTestFund(t, db, broker.ID)

		opened := submit(t, trades, fund.ID, models.TradeShortSell, 2, "1.00", "0", tradeDay)

		result, err := trades.ClosePosition(opened.Position.ID, 2,
			decimal.RequireFromString("0.40"), decimal.Zero, tradeDay.AddDate(0, 0, 5))
		testutil.AssertNoError(t, err)

		if result.Trade.Type != models.TradeBuyToClose {
			t.Errorf("expected BC trade, got %s", result.Trade.Type)
		}

		pos, err := positions.GetPositionByID(opened.Position.ID)
		testutil.AssertNoError(t, err)
		if pos.Active {
			t.Error("expected lot to be closed")
		}
		// +200.00 credit, -80.00 buy back.
		testutil.AssertDecimalEqual(t, "120.00", pos.ProfitLoss)
	})

	t.Run("long_lot_closed_with_sell", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		trades, _ := newTradeStack(db)
		user := testutil.CreateTestUser(t, db)
		broker := testutil.CreateTestBrokerAccount(t, db, user.ID)
		fund := testutil.CreateTestFund(t, db, broker.ID)

		opened := submit(t, trades, fund.ID, models.TradeBuy, 1, "1.00", "0", tradeDay)

		result, err := trades.ClosePosition(opened.Position.ID, 1,
			decimal.RequireFromString("1.50"), decimal.Zero, tradeDay.AddDate(0, 0, 5))
		testutil.AssertNoError(t, err)
		if result.Trade.Type != models.TradeSell {
			t.Errorf("expected S trade, got %s", result.Trade.Type)
		}
	})

	t.Run("already_closed_lot_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		trades, _ := newTradeStack(db)
		user := testutil.CreateTestUser(t, db)
		broker := testutil.CreateTestBrokerAccount(t, db, user.ID)
		fund := testutil.CreateTestFund(t, db, broker.ID)

		opened := submit(t, trades, fund.ID, models.TradeShortSell, 1, "1.00", "0", tradeDay)
		_, err := trades.ClosePosition(opened.Position.ID, 1,
			decimal.RequireFromString("0.50"), decimal.Zero, tradeDay.AddDate(0, 0, 1))
		testutil.AssertNoError(t, err)

		_, err = trades.ClosePosition(opened.Position.ID, 1,
			decimal.RequireFromString("0.50"), decimal.Zero, tradeDay.AddDate(0, 0, 2))
		testutil.AssertAppError(t, err, "POSITION_CLOSED")
	})
}

func TestExpirePosition(t *testing.T) {
	t.Run("expires_worthless_at_zero_premium", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		trades, positions := newTradeStack(db)
		user := testutil.CreateTestUser(t, db)
		broker := testutil.CreateTestBrokerAccount(t, db, user.ID)
		fund := testutil.CreateTestFund(t, db, broker.ID)

		opened := submit(t, trades, fund.ID, models.TradeShortSell, 3, "0.50", "0", tradeDay)

		result, err := trades.ExpirePosition(opened.Position.ID, tradeDay.AddDate(0, 0, 30))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, "0.00", result.Trade.TotalPrice)

		pos, err := positions.GetPositionByID(opened.Position.ID)
		testutil.AssertNoError(t, err)
		if pos.Active {
			t.Error("expected expired lot to be closed")
		}
		// The full opening credit is kept.
		testutil.AssertDecimalEqual(t, "150.00", pos.ProfitLoss)
	})
}

func TestGetOptionTrades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	trades, _ := newTradeStack(db)
	user := testutil.CreateTestUser(t, db)
	broker := testutil.CreateTestBrokerAccount(t, db, user.ID)
	fund := testutil.CreateTestFund(t, db, broker.ID)

	submit(t, trades, fund.ID, models.TradeBuy, 2, "1.00", "0", tradeDay)
	submit(t, trades, fund.ID, models.TradeSell, 2, "1.50", "0", tradeDay.AddDate(0, 0, 1))

	option, err := trades.GetOptionByTicker("TSLA 250117C00010000")
	testutil.AssertNoError(t, err)

	page, err := trades.GetOptionTrades(option.ID, pageRequest(1, 10))
	testutil.AssertNoError(t, err)
	if page.TotalItems != 2 {
		t.Fatalf("expected 2 trades, got %d", page.TotalItems)
	}
	if page.Data[0].Type != models.TradeBuy {
		t.Error("expected ledger ordered oldest first")
	}
}
