package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fundflow/internal/errors"
	"fundflow/internal/models"
	"fundflow/internal/period"
)

// summaryService maintains the periodic profit rollups. Every realized cash
// movement contributes to a week, a month, and a year row per entity, plus
// the fund's running total.
type summaryService struct {
	db *gorm.DB
}

// NewSummaryService creates a new SummaryServicer.
func NewSummaryService(db *gorm.DB) SummaryServicer {
	return &summaryService{db: db}
}

// window pairs a summary column with the calendar bounds it accumulates over.
type window struct {
	column     string
	start, end time.Time
}

func windowsFor(t time.Time) []window {
	weekStart, weekEnd := period.Week(t)
	monthStart, monthEnd := period.Month(t)
	yearStart, yearEnd := period.Year(t)
	return []window{
		{"weekly_profit", weekStart, weekEnd},
		{"monthly_profit", monthStart, monthEnd},
		{"annually_profit", yearStart, yearEnd},
	}
}

// Contribute adds a trade's total price to the fund's summary windows, to the
// company or broker windows the fund rolls up into, and to the fund's running
// total. Window rows are created on first contribution and incremented in
// place after that. Increments go through SQL expressions so concurrent
// contributions to the same window never lose updates.
//
// Contribute is not idempotent. Callers must invoke it exactly once per
// recorded trade.
func (s *summaryService) Contribute(tx *gorm.DB, fund *models.Fund, tradeDate time.Time, amount decimal.Decimal) error {
	windows := windowsFor(tradeDate)

	for _, w := range windows {
		row := models.FundProfitSummary{FundID: fund.ID, StartDate: w.start, EndDate: w.end}
		if err := tx.Where("fund_id = ? AND start_date = ? AND end_date = ?", fund.ID, w.start, w.end).
			FirstOrCreate(&row).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&models.FundProfitSummary{}).Where("id = ?", row.ID).
			UpdateColumn(w.column, gorm.Expr(w.column+" + ?", amount)).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	if fund.CompanyID != nil {
		for _, w := range windows {
			row := models.CompanyProfitSummary{CompanyID: *fund.CompanyID, StartDate: w.start, EndDate: w.end}
			if err := tx.Where("company_id = ? AND start_date = ? AND end_date = ?", *fund.CompanyID, w.start, w.end).
				FirstOrCreate(&row).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := tx.Model(&models.CompanyProfitSummary{}).Where("id = ?", row.ID).
				UpdateColumn(w.column, gorm.Expr(w.column+" + ?", amount)).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
	}

	if fund.BrokerAccountID != nil {
		for _, w := range windows {
			row := models.BrokerProfitSummary{BrokerAccountID: *fund.BrokerAccountID, StartDate: w.start, EndDate: w.end}
			if err := tx.Where("broker_account_id = ? AND start_date = ? AND end_date = ?", *fund.BrokerAccountID, w.start, w.end).
				FirstOrCreate(&row).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := tx.Model(&models.BrokerProfitSummary{}).Where("id = ?", row.ID).
				UpdateColumn(w.column, gorm.Expr(w.column+" + ?", amount)).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
	}

	if err := tx.Model(&models.Fund{}).Where("id = ?", fund.ID).
		UpdateColumn("total_profit", gorm.Expr("total_profit + ?", amount)).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetFundSummaries returns the fund's week, month and year rows covering the
// given instant. Missing windows come back nil; no row is created by reads.
func (s *summaryService) GetFundSummaries(fundID uint, at time.Time) (*CurrentSummaries, error) {
	summaries := &CurrentSummaries{}

	for i, w := range windowsFor(at) {
		var row models.FundProfitSummary
		err := s.db.Where("fund_id = ? AND start_date = ? AND end_date = ?", fundID, w.start, w.end).
			First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		switch i {
		case 0:
			summaries.Week = &row
		case 1:
			summaries.Month = &row
		case 2:
			summaries.Year = &row
		}
	}
	return summaries, nil
}

// GetBrokerDashboard aggregates current-window profit, lifetime options
// profit and holding gains across all funds of one broker account.
func (s *summaryService) GetBrokerDashboard(userID, brokerAccountID uint) (*BrokerDashboard, error) {
	var broker models.BrokerAccount
	if err := s.db.Where("id = ? AND user_id = ?", brokerAccountID, userID).
		First(&broker).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBrokerNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	dashboard := &BrokerDashboard{BrokerName: broker.BrokerCode.DisplayName()}

	now := time.Now().UTC()
	for i, w := range windowsFor(now) {
		var row models.BrokerProfitSummary
		err := s.db.Where("broker_account_id = ? AND start_date = ? AND end_date = ?", broker.ID, w.start, w.end).
			First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		switch i {
		case 0:
			dashboard.Weekly = row.WeeklyProfit
		case 1:
			dashboard.Monthly = row.MonthlyProfit
		case 2:
			dashboard.Yearly = row.AnnuallyProfit
		}
	}

	var funds []models.Fund
	if err := s.db.Where("broker_account_id = ?", broker.ID).Find(&funds).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, fund := range funds {
		dashboard.TotalOptionsProfit = dashboard.TotalOptionsProfit.Add(fund.TotalProfit)
	}

	var holdings []models.Holding
	if err := s.db.Preload("Asset").Where("broker_account_id = ?", broker.ID).
		Find(&holdings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range holdings {
		dashboard.HoldingProfitLoss = dashboard.HoldingProfitLoss.Add(holdings[i].TotalGainLoss())
	}

	dashboard.CombinedTotalProfit = dashboard.TotalOptionsProfit.Add(dashboard.HoldingProfitLoss)
	return dashboard, nil
}
