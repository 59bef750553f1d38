package importer

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "fundflow/internal/errors"
	"fundflow/internal/logger"
	"fundflow/internal/models"
)

// IBKR activity statements are CSV files with many sections stacked in one
// file. Every line starts with its section name; the trades section uses
// these columns:
//
//	Trades,Header,DataDiscriminator,Asset Category,Currency,Symbol,
//	Date/Time,Quantity,T. Price,C. Price,Proceeds,Comm/Fee,Basis,
//	Realized P/L,MTM P/L,Code
//
// Only "Trades,Data,Order" rows carry executions; SubTotal and Total rows
// are aggregates and are ignored.
const (
	ibkrSection       = "Trades"
	ibkrRowData       = "Data"
	ibkrRowOrder      = "Order"
	ibkrOptions       = "Equity and Index Options"
	ibkrStocks        = "Stocks"
	ibkrTradeColumns  = 16
	ibkrColCategory   = 3
	ibkrColSymbol     = 5
	ibkrColDateTime   = 6
	ibkrColQuantity   = 7
	ibkrColTradePrice = 8
	ibkrColCommission = 11
)

type ibkrParser struct{}

// NewIBKRParser returns the parser for Interactive Brokers activity
// statement CSV exports.
func NewIBKRParser() StatementParser {
	return &ibkrParser{}
}

// Parse extracts option and stock executions from an activity statement.
// Rows that look like trade data but fail to decode are counted, logged and
// skipped; a statement with no trades section at all is an error.
func (p *ibkrParser) Parse(r io.Reader) (*Statement, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	statement := &Statement{}
	sawTrades := false

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStatement, err)
		}

		if len(record) == 0 || record[0] != ibkrSection {
			continue
		}
		sawTrades = true

		if len(record) < ibkrTradeColumns || record[1] != ibkrRowData || record[2] != ibkrRowOrder {
			continue
		}

		switch record[ibkrColCategory] {
		case ibkrOptions:
			row, err := parseIBKROptionRow(record)
			if err != nil {
				statement.Malformed++
				logger.Get().Warnw("skipping malformed option row",
					"symbol", record[ibkrColSymbol],
					"error", err,
				)
				continue
			}
			statement.OptionRows = append(statement.OptionRows, *row)
		case ibkrStocks:
			row, err := parseIBKREquityRow(record)
			if err != nil {
				statement.Malformed++
				logger.Get().Warnw("skipping malformed stock row",
					"symbol", record[ibkrColSymbol],
					"error", err,
				)
				continue
			}
			statement.EquityRows = append(statement.EquityRows, *row)
		}
	}

	if !sawTrades {
		return nil, apperrors.WithMessage(apperrors.ErrStatement, "Statement has no trades section")
	}
	return statement, nil
}

func parseIBKROptionRow(record []string) (*OptionRow, error) {
	symbol := strings.TrimSpace(record[ibkrColSymbol])
	// Option symbols carry expiry, strike and type; anything shorter is a
	// bare stock symbol that landed in the wrong category.
	if len(symbol) <= 12 {
		return nil, apperrors.WithMessage(apperrors.ErrStatement, "option symbol too short: "+symbol)
	}

	date, err := parseIBKRDate(record[ibkrColDateTime])
	if err != nil {
		return nil, err
	}

	quantity, err := parseIBKRNumber(record[ibkrColQuantity])
	if err != nil {
		return nil, err
	}
	if quantity.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrStatement, "zero quantity")
	}

	price, err := parseIBKRNumber(record[ibkrColTradePrice])
	if err != nil {
		return nil, err
	}

	commission, err := parseIBKRNumber(record[ibkrColCommission])
	if err != nil {
		return nil, err
	}

	tradeType := models.TradeBuy
	if quantity.IsNegative() {
		tradeType = models.TradeSell
	}

	return &OptionRow{
		Symbol:     symbol,
		Underlying: strings.Fields(symbol)[0],
		Type:       tradeType,
		Quantity:   int(quantity.Abs().IntPart()),
		Price:      price,
		Commission: commission.Abs(),
		Date:       date,
	}, nil
}

func parseIBKREquityRow(record []string) (*EquityRow, error) {
	symbol := strings.TrimSpace(record[ibkrColSymbol])
	if symbol == "" {
		return nil, apperrors.WithMessage(apperrors.ErrStatement, "empty stock symbol")
	}

	date, err := parseIBKRDate(record[ibkrColDateTime])
	if err != nil {
		return nil, err
	}

	quantity, err := parseIBKRNumber(record[ibkrColQuantity])
	if err != nil {
		return nil, err
	}
	if quantity.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrStatement, "zero quantity")
	}

	price, err := parseIBKRNumber(record[ibkrColTradePrice])
	if err != nil {
		return nil, err
	}

	return &EquityRow{
		Symbol:   symbol,
		Buy:      quantity.Sign() > 0,
		Quantity: quantity.Abs(),
		Price:    price,
		Date:     date,
	}, nil
}

// parseIBKRDate reads the "YYYY-MM-DD, HH:MM:SS" timestamp, keeping only
// the date.
func parseIBKRDate(value string) (time.Time, error) {
	datePart := strings.TrimSpace(strings.SplitN(value, ",", 2)[0])
	date, err := time.ParseInLocation("2006-01-02", datePart, time.UTC)
	if err != nil {
		return time.Time{}, apperrors.Wrap(apperrors.ErrStatement, err)
	}
	return date, nil
}

// parseIBKRNumber reads a statement number, tolerating thousands separators.
func parseIBKRNumber(value string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if cleaned == "" {
		return decimal.Zero, nil
	}
	n, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrStatement, err)
	}
	return n, nil
}
