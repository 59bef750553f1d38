// Package marketdata fetches live underlying prices and caches them with a
// TTL. Prices are display data for out-of-money percentages and unrealized
// holding gains; they never feed the reconciliation engine.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	apperrors "fundflow/internal/errors"
)

// Quote is one price observation for a symbol.
type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	AsOf   time.Time       `json:"as_of"`
}

// Feed fetches quotes from a price source.
type Feed interface {
	Quote(ctx context.Context, symbol string) (*Quote, error)
}

type httpFeed struct {
	baseURL string
	client  *http.Client
}

// NewHTTPFeed returns a Feed backed by a JSON quote endpoint:
// GET {baseURL}/quote?symbol=X returning {"symbol": ..., "price": ...}.
func NewHTTPFeed(baseURL string) Feed {
	return &httpFeed{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type quoteResponse struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

func (f *httpFeed) Quote(ctx context.Context, symbol string) (*Quote, error) {
	endpoint := fmt.Sprintf("%s/quote?symbol=%s", f.baseURL, url.QueryEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrQuoteUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrQuoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.WithMessage(apperrors.ErrQuoteUnavailable,
			fmt.Sprintf("Quote endpoint returned %d for %s", resp.StatusCode, symbol))
	}

	var body quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrQuoteUnavailable, err)
	}
	if body.Price.Sign() <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrQuoteUnavailable,
			"Quote endpoint returned a non-positive price for "+symbol)
	}

	return &Quote{Symbol: symbol, Price: body.Price, AsOf: time.Now().UTC()}, nil
}
