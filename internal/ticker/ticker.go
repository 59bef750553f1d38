// Package ticker normalizes broker option symbols into the canonical
// "SYMBOL YYMMDDC########" form used as the Option primary ticker, where the
// trailing eight digits are the strike price in fixed-point thousandths.
package ticker

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "fundflow/internal/errors"
)

// months maps the broker's three-letter month abbreviations.
var months = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// Parsed holds the normalized fields of an option symbol.
type Parsed struct {
	Ticker     string          // e.g. "TSLA 241025C00232500"
	Underlying string          // e.g. "TSLA"
	Expiry     time.Time       // expiration date, midnight UTC
	OptionType string          // "C" or "P"
	Strike     decimal.Decimal // e.g. 232.50
}

// Parse converts a raw broker option symbol of the form
// "SYMBOL DDMMMYY STRIKE TYPE" (e.g. "TSLA 25OCT24 232.50 C") into its
// normalized fields. It returns a FORMAT_ERROR AppError when the symbol does
// not have exactly four whitespace-separated tokens, the month abbreviation
// is unrecognized, or the type is not C or P.
func Parse(symbol string) (*Parsed, error) {
	parts := strings.Fields(symbol)
	if len(parts) != 4 {
		return nil, apperrors.WithMessage(apperrors.ErrTickerFormat,
			fmt.Sprintf("Expected 4 tokens in option symbol, got %d: %q", len(parts), symbol))
	}

	underlying := strings.ToUpper(parts[0])

	expiry, err := parseExpiry(parts[1])
	if err != nil {
		return nil, err
	}

	strike, err := decimal.NewFromString(parts[2])
	if err != nil || strike.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrTickerFormat,
			fmt.Sprintf("Invalid strike price %q", parts[2]))
	}

	optionType := strings.ToUpper(parts[3])
	if optionType != "C" && optionType != "P" {
		return nil, apperrors.WithMessage(apperrors.ErrTickerFormat,
			fmt.Sprintf("Invalid option type %q, want C or P", parts[3]))
	}

	return &Parsed{
		Ticker:     Build(underlying, expiry, optionType, strike),
		Underlying: underlying,
		Expiry:     expiry,
		OptionType: optionType,
		Strike:     strike,
	}, nil
}

// Build assembles the canonical ticker from its parts. The strike is encoded
// as thousandths, zero-padded to eight digits.
func Build(underlying string, expiry time.Time, optionType string, strike decimal.Decimal) string {
	strikeThousandths := strike.Mul(decimal.NewFromInt(1000)).IntPart()
	return fmt.Sprintf("%s %s%s%08d",
		strings.ToUpper(underlying),
		expiry.Format("060102"),
		optionType,
		strikeThousandths,
	)
}

// parseExpiry decodes a DDMMMYY token such as "25OCT24".
func parseExpiry(token string) (time.Time, error) {
	if len(token) != 7 {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrTickerFormat,
			fmt.Sprintf("Invalid expiry %q, want DDMMMYY", token))
	}

	var day, year int
	if _, err := fmt.Sscanf(token[:2], "%2d", &day); err != nil {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrTickerFormat,
			fmt.Sprintf("Invalid expiry day in %q", token))
	}
	if _, err := fmt.Sscanf(token[5:], "%2d", &year); err != nil {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrTickerFormat,
			fmt.Sprintf("Invalid expiry year in %q", token))
	}

	month, ok := months[strings.ToUpper(token[2:5])]
	if !ok {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrTickerFormat,
			fmt.Sprintf("Invalid month %q in expiry %q", token[2:5], token))
	}

	expiry := time.Date(2000+year, month, day, 0, 0, 0, 0, time.UTC)
	// Reject dates like 31FEB24 that Date silently rolls over.
	if expiry.Day() != day || expiry.Month() != month {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrTickerFormat,
			fmt.Sprintf("Invalid day %d for month %s", day, month))
	}
	return expiry, nil
}
