// Package importer turns downloaded broker activity statements into recorded
// trades and holdings. Each supported broker contributes a StatementParser;
// the Importer drives parsed rows through the trade pipeline with duplicate
// skipping, so re-importing the same statement is harmless.
package importer

import (
	"io"
	"time"

	"github.com/shopspring/decimal"

	apperrors "fundflow/internal/errors"
	"fundflow/internal/models"
)

// OptionRow is one normalized option trade from a statement.
type OptionRow struct {
	Symbol     string // broker 4-token form, e.g. "TSLA 25OCT24 232.50 C"
	Underlying string
	Type       models.TradeType
	Quantity   int
	Price      decimal.Decimal
	Commission decimal.Decimal
	Date       time.Time
}

// EquityRow is one normalized stock trade from a statement.
type EquityRow struct {
	Symbol   string
	Buy      bool
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Date     time.Time
}

// Statement holds everything a parser extracted from one activity statement.
type Statement struct {
	OptionRows []OptionRow
	EquityRows []EquityRow
	// Malformed counts rows the parser recognized as trade data but could
	// not decode. They are logged and never abort the import.
	Malformed int
}

// StatementParser decodes one broker's activity statement format.
type StatementParser interface {
	Parse(r io.Reader) (*Statement, error)
}

// Registry maps broker codes to their statement parsers. The set is fixed at
// construction; an unregistered code is a typed error, never a silent no-op.
type Registry struct {
	parsers map[models.BrokerCode]StatementParser
}

// NewRegistry builds the registry of supported brokers.
func NewRegistry() *Registry {
	return &Registry{
		parsers: map[models.BrokerCode]StatementParser{
			models.BrokerIBKR: NewIBKRParser(),
		},
	}
}

// Get returns the parser for a broker code.
func (r *Registry) Get(code models.BrokerCode) (StatementParser, error) {
	parser, ok := r.parsers[code]
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrUnknownBroker,
			"No statement parser registered for broker "+string(code))
	}
	return parser, nil
}

// Supported lists the broker codes with a registered parser.
func (r *Registry) Supported() []models.BrokerCode {
	codes := make([]models.BrokerCode, 0, len(r.parsers))
	for code := range r.parsers {
		codes = append(codes, code)
	}
	return codes
}
